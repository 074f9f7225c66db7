// Package host describes the environment a router runs in: the current
// location, the history stack, click and back/forward events, and the
// elements the router needs to find (the mount point and nav links).
//
// In a browser this is window, document and history. Go programs supply it
// explicitly; see memhost for an in-memory host and wshost for a host driven
// by a browser over a WebSocket.
package host

// Location is a same-origin URL split the way the router consumes it.
type Location struct {
	// Host is the host[:port] of the URL. Empty means the current origin.
	Host string `json:"host,omitempty"`

	// Pathname starts with "/".
	Pathname string `json:"pathname"`

	// Search is the query string including its leading "?", or "".
	Search string `json:"search,omitempty"`
}

// URL returns Pathname followed by Search.
func (l Location) URL() string {
	return l.Pathname + l.Search
}

// Element is a node in the host document.
type Element interface {
	// Parent returns the parent element, or nil at the root.
	Parent() Element

	// Matches reports whether the element matches a CSS selector.
	Matches(selector string) bool

	// Attr returns an attribute value and whether it is present.
	Attr(name string) (string, bool)

	// SetClass adds (on) or removes (!on) a class name.
	SetClass(name string, on bool)
}

// Closest walks from el up through its ancestors and returns the first
// element matching selector, like DOM Element.closest.
func Closest(el Element, selector string) Element {
	for ; el != nil; el = el.Parent() {
		if el.Matches(selector) {
			return el
		}
	}
	return nil
}

// ClickEvent is a click delivered to a click listener.
type ClickEvent struct {
	// Target is the element the click landed on.
	Target Element

	// Button is the mouse button; 0 is the primary button.
	Button int

	AltKey   bool
	CtrlKey  bool
	MetaKey  bool
	ShiftKey bool

	defaultPrevented bool
}

// PreventDefault stops the host from performing its default action.
func (e *ClickEvent) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *ClickEvent) DefaultPrevented() bool {
	return e.defaultPrevented
}

// Modified reports whether any modifier key was held.
func (e *ClickEvent) Modified() bool {
	return e.AltKey || e.CtrlKey || e.MetaKey || e.ShiftKey
}

// Host is the capability a router needs from its environment.
type Host interface {
	// Location returns the current location.
	Location() Location

	// PushState adds a history entry for loc and makes it current.
	PushState(loc Location)

	// ReplaceState replaces the current history entry with loc.
	ReplaceState(loc Location)

	// OnClick registers a document-level click listener.
	OnClick(fn func(*ClickEvent)) (remove func())

	// OnPopState registers a back/forward listener. fn receives the
	// location the host moved to.
	OnPopState(fn func(Location)) (remove func())

	// QuerySelector returns the first element matching selector, or nil.
	QuerySelector(selector string) Element

	// QuerySelectorAll returns every element matching selector.
	QuerySelectorAll(selector string) []Element

	// ScrollToTop scrolls the document to the top.
	ScrollToTop()

	// RestoreScroll restores the scroll position saved for the current
	// history entry.
	RestoreScroll()
}
