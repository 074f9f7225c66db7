// Package memhost is an in-memory host.Host: a history stack, a document
// tree and synthetic click/back/forward events. It backs tests and headless
// use of the router.
//
//	h := memhost.New("/")
//	nav := h.Document().Append("nav")
//	about := nav.Append("a", "href", "/about", "data-link", "")
//	h.Document().Append("main", "data-route-root", "")
//
//	r, _ := router.New(router.Config{Host: h, Routes: routes})
//	r.Start()
//	h.Click(about)
package memhost

import (
	"sync"

	"github.com/vango-dev/routestate/pkg/host"
	"github.com/vango-dev/routestate/pkg/routepath"
)

// Host is an in-memory host.Host.
type Host struct {
	mu      sync.Mutex
	entries []host.Location
	index   int
	scrolls []string

	nextID int
	clicks map[int]func(*host.ClickEvent)
	pops   map[int]func(host.Location)
	order  []int

	doc *Node
}

// New creates a host whose only history entry is initial ("/path?search").
func New(initial string) *Host {
	h := &Host{
		clicks: make(map[int]func(*host.ClickEvent)),
		pops:   make(map[int]func(host.Location)),
	}
	h.doc = &Node{host: h, tag: "html", attrs: map[string]string{}}
	h.entries = []host.Location{parse(initial)}
	return h
}

func parse(target string) host.Location {
	pathname, search := routepath.Split(target)
	if pathname == "" {
		pathname = "/"
	}
	return host.Location{Pathname: pathname, Search: search}
}

// Document returns the root element.
func (h *Host) Document() *Node {
	return h.doc
}

// Location implements host.Host.
func (h *Host) Location() host.Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

// PushState implements host.Host. Forward entries are discarded.
func (h *Host) PushState(loc host.Location) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], loc)
	h.index++
}

// ReplaceState implements host.Host.
func (h *Host) ReplaceState(loc host.Location) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = loc
}

// History returns a copy of the history stack and the current index.
func (h *Host) History() ([]host.Location, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.Location, len(h.entries))
	copy(out, h.entries)
	return out, h.index
}

// Back moves one entry back and fires popstate. It reports false at the
// first entry.
func (h *Host) Back() bool {
	return h.traverse(-1)
}

// Forward moves one entry forward and fires popstate.
func (h *Host) Forward() bool {
	return h.traverse(1)
}

func (h *Host) traverse(delta int) bool {
	h.mu.Lock()
	next := h.index + delta
	if next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = next
	loc := h.entries[next]
	fns := h.popListenersLocked()
	h.mu.Unlock()

	for _, fn := range fns {
		fn(loc)
	}
	return true
}

// OnClick implements host.Host.
func (h *Host) OnClick(fn func(*host.ClickEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.register()
	h.clicks[id] = fn
	return h.remover(id)
}

// OnPopState implements host.Host.
func (h *Host) OnPopState(fn func(host.Location)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.register()
	h.pops[id] = fn
	return h.remover(id)
}

func (h *Host) register() int {
	h.nextID++
	h.order = append(h.order, h.nextID)
	return h.nextID
}

func (h *Host) remover(id int) func() {
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.clicks, id)
		delete(h.pops, id)
	}
}

func (h *Host) popListenersLocked() []func(host.Location) {
	var fns []func(host.Location)
	for _, id := range h.order {
		if fn, ok := h.pops[id]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// ListenerCount returns the number of registered click and popstate
// listeners.
func (h *Host) ListenerCount() (clicks, pops int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clicks), len(h.pops)
}

// ClickOption modifies a synthetic click.
type ClickOption func(*host.ClickEvent)

// WithButton sets the mouse button.
func WithButton(b int) ClickOption {
	return func(e *host.ClickEvent) { e.Button = b }
}

// WithModifiers sets the modifier keys.
func WithModifiers(alt, ctrl, meta, shift bool) ClickOption {
	return func(e *host.ClickEvent) {
		e.AltKey, e.CtrlKey, e.MetaKey, e.ShiftKey = alt, ctrl, meta, shift
	}
}

// Prevented marks the click as already default-prevented by an earlier
// listener.
func Prevented() ClickOption {
	return func(e *host.ClickEvent) { e.PreventDefault() }
}

// Click dispatches a click on target to every click listener and reports
// whether the default action was prevented.
func (h *Host) Click(target *Node, opts ...ClickOption) bool {
	ev := &host.ClickEvent{}
	if target != nil {
		ev.Target = target
	}
	for _, opt := range opts {
		opt(ev)
	}

	h.mu.Lock()
	var fns []func(*host.ClickEvent)
	for _, id := range h.order {
		if fn, ok := h.clicks[id]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
	return ev.DefaultPrevented()
}

// QuerySelector implements host.Host.
func (h *Host) QuerySelector(selector string) host.Element {
	var found *Node
	h.doc.walk(func(n *Node) bool {
		if n.Matches(selector) {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return found
}

// QuerySelectorAll implements host.Host.
func (h *Host) QuerySelectorAll(selector string) []host.Element {
	var out []host.Element
	h.doc.walk(func(n *Node) bool {
		if n.Matches(selector) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// ScrollToTop implements host.Host.
func (h *Host) ScrollToTop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scrolls = append(h.scrolls, "top")
}

// RestoreScroll implements host.Host.
func (h *Host) RestoreScroll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scrolls = append(h.scrolls, "restore")
}

// Scrolls returns the scroll requests made so far ("top" or "restore").
func (h *Host) Scrolls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.scrolls))
	copy(out, h.scrolls)
	return out
}

var _ host.Host = (*Host)(nil)
