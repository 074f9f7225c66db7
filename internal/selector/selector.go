// Package selector matches a small CSS selector subset against element
// chains. It exists so that hosts without a browser DOM can answer
// Element.Matches for the selectors routers are configured with.
//
// Supported: type (a), universal (*), #id, .class, [attr], [attr=value]
// (value optionally quoted), the descendant combinator (whitespace), the
// child combinator (>) and selector lists (a, b).
package selector

import (
	"fmt"
	"strings"
	"sync"
)

// Node is an element as seen by the matcher.
type Node interface {
	Tag() string
	Attr(name string) (string, bool)
	ParentNode() Node
}

type attrTest struct {
	name     string
	value    string
	hasValue bool
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrTest
	// child is set when this compound must be the direct parent of the one
	// after it.
	child bool
}

// Selector is a compiled selector list.
type Selector struct {
	alternatives [][]compound
}

// Compile parses sel.
func Compile(sel string) (*Selector, error) {
	s := &Selector{}
	for _, part := range strings.Split(sel, ",") {
		chain, err := parseChain(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("selector %q: %w", sel, err)
		}
		s.alternatives = append(s.alternatives, chain)
	}
	return s, nil
}

var cache sync.Map // string -> *Selector

// Match compiles sel (cached) and matches it against n. An invalid selector
// matches nothing.
func Match(sel string, n Node) bool {
	var s *Selector
	if v, ok := cache.Load(sel); ok {
		s = v.(*Selector)
	} else {
		compiled, err := Compile(sel)
		if err != nil {
			return false
		}
		v, _ := cache.LoadOrStore(sel, compiled)
		s = v.(*Selector)
	}
	return s.Match(n)
}

// Match reports whether n matches any alternative of s.
func (s *Selector) Match(n Node) bool {
	if n == nil {
		return false
	}
	for _, chain := range s.alternatives {
		if matchChain(chain, len(chain)-1, n) {
			return true
		}
	}
	return false
}

func matchChain(chain []compound, i int, n Node) bool {
	if !chain[i].matches(n) {
		return false
	}
	if i == 0 {
		return true
	}
	prev := chain[i-1]
	if prev.child {
		p := n.ParentNode()
		return p != nil && matchChain(chain, i-1, p)
	}
	for p := n.ParentNode(); p != nil; p = p.ParentNode() {
		if matchChain(chain, i-1, p) {
			return true
		}
	}
	return false
}

func (c compound) matches(n Node) bool {
	if c.tag != "" && c.tag != "*" && !strings.EqualFold(c.tag, n.Tag()) {
		return false
	}
	if c.id != "" {
		if id, _ := n.Attr("id"); id != c.id {
			return false
		}
	}
	if len(c.classes) > 0 {
		class, _ := n.Attr("class")
		have := strings.Fields(class)
		for _, want := range c.classes {
			if !contains(have, want) {
				return false
			}
		}
	}
	for _, a := range c.attrs {
		v, ok := n.Attr(a.name)
		if !ok || (a.hasValue && v != a.value) {
			return false
		}
	}
	return true
}

func parseChain(s string) ([]compound, error) {
	if s == "" {
		return nil, fmt.Errorf("empty selector")
	}
	s = strings.ReplaceAll(s, ">", " > ")

	var chain []compound
	child := false
	for _, tok := range strings.Fields(s) {
		if tok == ">" {
			if len(chain) == 0 || child {
				return nil, fmt.Errorf("misplaced >")
			}
			child = true
			continue
		}
		c, err := parseCompound(tok)
		if err != nil {
			return nil, err
		}
		if child {
			chain[len(chain)-1].child = true
			child = false
		}
		chain = append(chain, c)
	}
	if child {
		return nil, fmt.Errorf("dangling >")
	}
	return chain, nil
}

func parseCompound(tok string) (compound, error) {
	var c compound
	i := 0
	if tok[0] == '*' {
		i = 1
	} else {
		for i < len(tok) && isIdent(tok[i]) {
			i++
		}
	}
	c.tag = tok[:i]

	for i < len(tok) {
		switch tok[i] {
		case '#', '.':
			kind := tok[i]
			j := i + 1
			for j < len(tok) && isIdent(tok[j]) {
				j++
			}
			if j == i+1 {
				return c, fmt.Errorf("empty name after %q", kind)
			}
			if kind == '#' {
				c.id = tok[i+1 : j]
			} else {
				c.classes = append(c.classes, tok[i+1:j])
			}
			i = j
		case '[':
			end := strings.IndexByte(tok[i:], ']')
			if end < 0 {
				return c, fmt.Errorf("unterminated attribute selector")
			}
			body := tok[i+1 : i+end]
			name, value, hasValue := strings.Cut(body, "=")
			if name == "" {
				return c, fmt.Errorf("empty attribute name")
			}
			c.attrs = append(c.attrs, attrTest{
				name:     name,
				value:    strings.Trim(value, `"'`),
				hasValue: hasValue,
			})
			i += end + 1
		default:
			return c, fmt.Errorf("unexpected %q", tok[i])
		}
	}
	return c, nil
}

func isIdent(b byte) bool {
	return b == '-' || b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
