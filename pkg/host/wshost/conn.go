package wshost

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/routestate/internal/selector"
	"github.com/vango-dev/routestate/pkg/host"
)

// ErrClosed is returned when sending on a closed connection.
var ErrClosed = errors.New("wshost: connection closed")

// Conn is one browser connection. It implements host.Host: history and
// class changes are sent to the client as ops, and the client's clicks and
// back/forward events are delivered to the registered listeners.
type Conn struct {
	id      string
	ws      *websocket.Conn
	req     *http.Request
	config  *Config
	logger  *slog.Logger
	metrics *metrics
	writeMu sync.Mutex

	mu     sync.RWMutex
	loc    host.Location
	nodes  []*node
	byID   map[string]*node
	nextID int
	clicks map[int]func(*host.ClickEvent)
	pops   map[int]func(host.Location)
	order  []int

	done      chan struct{}
	closeOnce sync.Once
}

func newConn(id string, ws *websocket.Conn, r *http.Request, config *Config, logger *slog.Logger, m *metrics) *Conn {
	return &Conn{
		id:      id,
		ws:      ws,
		req:     r,
		config:  config,
		logger:  logger.With("conn_id", id),
		metrics: m,
		byID:    make(map[string]*node),
		clicks:  make(map[int]func(*host.ClickEvent)),
		pops:    make(map[int]func(host.Location)),
		done:    make(chan struct{}),
	}
}

// ID returns the connection's unique ID.
func (c *Conn) ID() string {
	return c.id
}

// Request returns the HTTP upgrade request.
func (c *Conn) Request() *http.Request {
	return c.req
}

// Done is closed when the connection ends.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

// Send writes op to the client.
func (c *Conn) Send(op Op) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	data, err := json.Marshal(op)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	c.metrics.op(op.Op)
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.metrics.failure("write")
		return err
	}
	return nil
}

// send writes op and logs failures; host.Host methods have no error return.
func (c *Conn) send(op Op) {
	if err := c.Send(op); err != nil && !errors.Is(err, ErrClosed) {
		c.logger.Warn("send failed", "op", op.Op, "error", err)
	}
}

// SetHTML replaces the contents of el on the client. el must be an element
// of this connection.
func (c *Conn) SetHTML(el host.Element, html string) error {
	n, ok := el.(*node)
	if !ok || n.conn != c {
		return errors.New("wshost: element does not belong to this connection")
	}
	return c.Send(Op{Op: OpHTML, Target: n.id, HTML: html})
}

// Location implements host.Host.
func (c *Conn) Location() host.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loc
}

// PushState implements host.Host.
func (c *Conn) PushState(loc host.Location) {
	c.setLocation(loc)
	c.send(Op{Op: OpPush, URL: loc.URL()})
}

// ReplaceState implements host.Host.
func (c *Conn) ReplaceState(loc host.Location) {
	c.setLocation(loc)
	c.send(Op{Op: OpReplace, URL: loc.URL()})
}

func (c *Conn) setLocation(loc host.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if loc.Host == "" {
		loc.Host = c.loc.Host
	}
	c.loc = loc
}

// OnClick implements host.Host.
func (c *Conn) OnClick(fn func(*host.ClickEvent)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.register()
	c.clicks[id] = fn
	return c.remover(id)
}

// OnPopState implements host.Host.
func (c *Conn) OnPopState(fn func(host.Location)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.register()
	c.pops[id] = fn
	return c.remover(id)
}

func (c *Conn) register() int {
	c.nextID++
	c.order = append(c.order, c.nextID)
	return c.nextID
}

func (c *Conn) remover(id int) func() {
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.clicks, id)
		delete(c.pops, id)
	}
}

// QuerySelector implements host.Host.
func (c *Conn) QuerySelector(sel string) host.Element {
	for _, n := range c.snapshot() {
		if n.Matches(sel) {
			return n
		}
	}
	return nil
}

// QuerySelectorAll implements host.Host.
func (c *Conn) QuerySelectorAll(sel string) []host.Element {
	var out []host.Element
	for _, n := range c.snapshot() {
		if n.Matches(sel) {
			out = append(out, n)
		}
	}
	return out
}

// ScrollToTop implements host.Host.
func (c *Conn) ScrollToTop() {
	c.send(Op{Op: OpScroll, Mode: "top"})
}

// RestoreScroll implements host.Host.
func (c *Conn) RestoreScroll() {
	c.send(Op{Op: OpScroll, Mode: "restore"})
}

func (c *Conn) snapshot() []*node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// setNodes replaces the element tree with the one the client reported.
func (c *Conn) setNodes(infos []NodeInfo) {
	nodes := make([]*node, 0, len(infos))
	byID := make(map[string]*node, len(infos))
	for _, info := range infos {
		if info.ID == "" || byID[info.ID] != nil {
			continue
		}
		attrs := make(map[string]string, len(info.Attrs))
		for k, v := range info.Attrs {
			attrs[k] = v
		}
		n := &node{conn: c, id: info.ID, tag: strings.ToLower(info.Tag), parentID: info.Parent, attrs: attrs}
		nodes = append(nodes, n)
		byID[n.id] = n
	}

	c.mu.Lock()
	c.nodes = nodes
	c.byID = byID
	c.mu.Unlock()
}

func (c *Conn) lookup(id string) *node {
	if id == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id]
}

// click delivers a client click to the listeners and reports whether one
// of them prevented the default action.
func (c *Conn) click(msg ClientMessage) bool {
	ev := &host.ClickEvent{
		Button:   msg.Button,
		AltKey:   msg.AltKey,
		CtrlKey:  msg.CtrlKey,
		MetaKey:  msg.MetaKey,
		ShiftKey: msg.ShiftKey,
	}
	if n := c.lookup(msg.Target); n != nil {
		ev.Target = n
	}

	c.mu.RLock()
	var fns []func(*host.ClickEvent)
	for _, id := range c.order {
		if fn, ok := c.clicks[id]; ok {
			fns = append(fns, fn)
		}
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
	return ev.DefaultPrevented()
}

func (c *Conn) popState(loc host.Location) {
	c.mu.Lock()
	if loc.Host == "" {
		loc.Host = c.loc.Host
	}
	c.loc = loc
	var fns []func(host.Location)
	for _, id := range c.order {
		if fn, ok := c.pops[id]; ok {
			fns = append(fns, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(loc)
	}
}

// handle applies one client message after the hello.
func (c *Conn) handle(msg ClientMessage) {
	switch msg.Type {
	case MsgClick:
		if !c.click(msg) {
			c.send(Op{Op: OpFollow, Target: msg.Target})
		}
	case MsgPopState:
		if msg.Location == nil {
			c.logger.Warn("popstate without location")
			return
		}
		c.popState(*msg.Location)
	case MsgNodes:
		c.setNodes(msg.Nodes)
	default:
		c.logger.Warn("unknown message type", "type", msg.Type)
	}
}

// node is an element reported by the client.
type node struct {
	conn     *Conn
	id       string
	tag      string
	parentID string

	mu    sync.RWMutex
	attrs map[string]string
}

// ID returns the client-side element ID.
func (n *node) ID() string {
	return n.id
}

func (n *node) Tag() string {
	return n.tag
}

func (n *node) ParentNode() selector.Node {
	if p := n.conn.lookup(n.parentID); p != nil {
		return p
	}
	return nil
}

func (n *node) Parent() host.Element {
	if p := n.conn.lookup(n.parentID); p != nil {
		return p
	}
	return nil
}

func (n *node) Matches(sel string) bool {
	return selector.Match(sel, n)
}

func (n *node) Attr(name string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.attrs[name]
	return v, ok
}

// SetClass updates the class list and sends a class op when it changes.
func (n *node) SetClass(name string, on bool) {
	n.mu.Lock()
	classes := strings.Fields(n.attrs["class"])
	idx := -1
	for i, c := range classes {
		if c == name {
			idx = i
			break
		}
	}
	switch {
	case on && idx < 0:
		classes = append(classes, name)
	case !on && idx >= 0:
		classes = append(classes[:idx], classes[idx+1:]...)
	default:
		n.mu.Unlock()
		return
	}
	n.attrs["class"] = strings.Join(classes, " ")
	n.mu.Unlock()

	n.conn.send(Op{Op: OpClass, Target: n.id, Name: name, On: on})
}

var (
	_ host.Host     = (*Conn)(nil)
	_ host.Element  = (*node)(nil)
	_ selector.Node = (*node)(nil)
)
