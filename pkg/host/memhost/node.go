package memhost

import (
	"strings"
	"sync"

	"github.com/vango-dev/routestate/internal/selector"
	"github.com/vango-dev/routestate/pkg/host"
)

// Node is an element in a memhost document.
type Node struct {
	host   *Host
	tag    string
	parent *Node

	mu       sync.RWMutex
	attrs    map[string]string
	children []*Node
	text     string
}

// Append creates a child element with the given tag and attribute
// name/value pairs.
func (n *Node) Append(tag string, attrs ...string) *Node {
	child := &Node{host: n.host, tag: tag, parent: n, attrs: make(map[string]string)}
	for i := 0; i+1 < len(attrs); i += 2 {
		child.attrs[attrs[i]] = attrs[i+1]
	}

	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()
	return child
}

// Tag implements selector.Node.
func (n *Node) Tag() string {
	return n.tag
}

// ParentNode implements selector.Node.
func (n *Node) ParentNode() selector.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Parent implements host.Element.
func (n *Node) Parent() host.Element {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Matches implements host.Element.
func (n *Node) Matches(sel string) bool {
	return selector.Match(sel, n)
}

// Attr implements host.Element.
func (n *Node) Attr(name string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.attrs[name]
	return v, ok
}

// SetAttr sets an attribute.
func (n *Node) SetAttr(name, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attrs[name] = value
}

// SetClass implements host.Element.
func (n *Node) SetClass(name string, on bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	classes := strings.Fields(n.attrs["class"])
	kept := classes[:0]
	for _, c := range classes {
		if c != name {
			kept = append(kept, c)
		}
	}
	if on {
		kept = append(kept, name)
	}
	if len(kept) == 0 {
		delete(n.attrs, "class")
		return
	}
	n.attrs["class"] = strings.Join(kept, " ")
}

// HasClass reports whether the element carries class name.
func (n *Node) HasClass(name string) bool {
	class, _ := n.Attr("class")
	for _, c := range strings.Fields(class) {
		if c == name {
			return true
		}
	}
	return false
}

// SetText replaces the element's text content.
func (n *Node) SetText(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.text = text
}

// Text returns the element's text content.
func (n *Node) Text() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.text
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// walk visits n and its descendants in document order until fn returns
// false.
func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children() {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}
