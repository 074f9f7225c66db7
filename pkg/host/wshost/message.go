package wshost

import "github.com/vango-dev/routestate/pkg/host"

// Client message types.
const (
	MsgHello    = "hello"
	MsgClick    = "click"
	MsgPopState = "popstate"
	MsgNodes    = "nodes"
)

// Server op names.
const (
	OpPush    = "push"
	OpReplace = "replace"
	OpClass   = "class"
	OpScroll  = "scroll"
	OpFollow  = "follow"
	OpHTML    = "html"
)

// NodeInfo describes one element the client reports. Nodes are listed in
// document order; Parent is the ID of the parent node, or "" at the top.
type NodeInfo struct {
	ID     string            `json:"id"`
	Tag    string            `json:"tag"`
	Attrs  map[string]string `json:"attrs,omitempty"`
	Parent string            `json:"parent,omitempty"`
}

// ClientMessage is a JSON message sent by the thin client.
//
//	{"type":"hello","location":{"pathname":"/","search":""},"nodes":[...]}
//	{"type":"click","target":"n3","button":0,"ctrlKey":false}
//	{"type":"popstate","location":{"pathname":"/about"}}
//	{"type":"nodes","nodes":[...]}
type ClientMessage struct {
	Type     string         `json:"type"`
	Location *host.Location `json:"location,omitempty"`
	Nodes    []NodeInfo     `json:"nodes,omitempty"`

	// Click fields.
	Target   string `json:"target,omitempty"`
	Button   int    `json:"button,omitempty"`
	AltKey   bool   `json:"altKey,omitempty"`
	CtrlKey  bool   `json:"ctrlKey,omitempty"`
	MetaKey  bool   `json:"metaKey,omitempty"`
	ShiftKey bool   `json:"shiftKey,omitempty"`
}

// Op is a JSON instruction sent to the thin client.
//
//	{"op":"push","url":"/about"}
//	{"op":"replace","url":"/users/1?tab=a"}
//	{"op":"class","target":"n3","name":"active","on":true}
//	{"op":"scroll","mode":"top"}
//	{"op":"follow","target":"n7"}
//	{"op":"html","target":"root","html":"<h1>About</h1>"}
type Op struct {
	Op     string `json:"op"`
	URL    string `json:"url,omitempty"`
	Target string `json:"target,omitempty"`
	Name   string `json:"name,omitempty"`
	On     bool   `json:"on,omitempty"`
	Mode   string `json:"mode,omitempty"`
	HTML   string `json:"html,omitempty"`
}
