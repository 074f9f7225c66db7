package selector

import "testing"

type node struct {
	tag    string
	attrs  map[string]string
	parent *node
}

func (n *node) Tag() string { return n.tag }

func (n *node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func (n *node) ParentNode() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func el(tag string, parent *node, kv ...string) *node {
	n := &node{tag: tag, parent: parent, attrs: map[string]string{}}
	for i := 0; i+1 < len(kv); i += 2 {
		n.attrs[kv[i]] = kv[i+1]
	}
	return n
}

func TestMatch(t *testing.T) {
	body := el("body", nil)
	nav := el("nav", body, "class", "top main")
	navLink := el("a", nav, "href", "/about", "data-link", "")
	main := el("main", body, "id", "content", "data-route-root", "")
	section := el("section", main)
	deepLink := el("a", section, "href", "/x", "data-link", "", "data-replace", "true")
	plain := el("a", main, "href", "/y")

	tests := []struct {
		sel  string
		n    *node
		want bool
	}{
		{"a", navLink, true},
		{"A", navLink, true},
		{"*", nav, true},
		{"a[data-link]", navLink, true},
		{"a[data-link]", plain, false},
		{"nav a[data-link]", navLink, true},
		{"nav a[data-link]", deepLink, false},
		{"main a[data-link]", deepLink, true},
		{"main > a", plain, true},
		{"main > a", deepLink, false},
		{"body > main > section > a", deepLink, true},
		{"[data-route-root]", main, true},
		{"#content", main, true},
		{"main#content", main, true},
		{"#other", main, false},
		{".top", nav, true},
		{"nav.top.main", nav, true},
		{"nav.top.side", nav, false},
		{`a[data-replace="true"]`, deepLink, true},
		{"a[data-replace=false]", deepLink, false},
		{"button, a[href]", plain, true},
		{"button, input", plain, false},
	}

	for _, tt := range tests {
		t.Run(tt.sel, func(t *testing.T) {
			if got := Match(tt.sel, tt.n); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.sel, got, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, sel := range []string{"", "a,", "> a", "a >", "a > > b", "a[", "a[=x]", "a.", "a#", "a!"} {
		if _, err := Compile(sel); err == nil {
			t.Errorf("Compile(%q) succeeded, want error", sel)
		}
	}
}

func TestInvalidSelectorMatchesNothing(t *testing.T) {
	if Match("a[", el("a", nil)) {
		t.Error("invalid selector should not match")
	}
}

func TestMatchNilNode(t *testing.T) {
	s, err := Compile("a")
	if err != nil {
		t.Fatal(err)
	}
	if s.Match(nil) {
		t.Error("nil node should not match")
	}
}
