package memhost

import (
	"testing"

	"github.com/vango-dev/routestate/pkg/host"
)

func TestHistory(t *testing.T) {
	h := New("/start?x=1")
	if got := h.Location(); got.Pathname != "/start" || got.Search != "?x=1" {
		t.Fatalf("initial location = %+v", got)
	}

	h.PushState(host.Location{Pathname: "/a"})
	h.PushState(host.Location{Pathname: "/b"})
	h.ReplaceState(host.Location{Pathname: "/b2"})

	entries, index := h.History()
	if len(entries) != 3 || index != 2 || entries[2].Pathname != "/b2" {
		t.Fatalf("history = %+v index %d", entries, index)
	}

	var popped []string
	remove := h.OnPopState(func(loc host.Location) { popped = append(popped, loc.Pathname) })

	if !h.Back() || h.Location().Pathname != "/a" {
		t.Errorf("Back() location = %+v", h.Location())
	}
	if !h.Forward() || h.Location().Pathname != "/b2" {
		t.Errorf("Forward() location = %+v", h.Location())
	}
	if h.Forward() {
		t.Error("Forward() at the last entry should report false")
	}

	h.Back()
	h.PushState(host.Location{Pathname: "/c"})
	entries, _ = h.History()
	if len(entries) != 3 || entries[2].Pathname != "/c" {
		t.Errorf("push after back should drop forward entries: %+v", entries)
	}

	remove()
	h.Back()
	want := []string{"/a", "/b2", "/a"}
	if len(popped) != len(want) {
		t.Fatalf("popped = %v, want %v", popped, want)
	}
	for i := range want {
		if popped[i] != want[i] {
			t.Errorf("popped[%d] = %q, want %q", i, popped[i], want[i])
		}
	}
}

func TestEmptyInitial(t *testing.T) {
	if got := New("").Location(); got.Pathname != "/" {
		t.Errorf("Location() = %+v, want /", got)
	}
}

func TestClickDispatch(t *testing.T) {
	h := New("/")
	link := h.Document().Append("a", "href", "/about")

	var seen []*host.ClickEvent
	remove := h.OnClick(func(ev *host.ClickEvent) {
		seen = append(seen, ev)
		ev.PreventDefault()
	})

	if !h.Click(link, WithButton(1), WithModifiers(false, true, false, false)) {
		t.Error("Click should report the listener's PreventDefault")
	}
	if len(seen) != 1 || seen[0].Button != 1 || !seen[0].CtrlKey || seen[0].Target != host.Element(link) {
		t.Errorf("event = %+v", seen)
	}

	clicks, pops := h.ListenerCount()
	if clicks != 1 || pops != 0 {
		t.Errorf("ListenerCount = %d, %d", clicks, pops)
	}

	remove()
	if h.Click(link) {
		t.Error("no listener left, click should not be prevented")
	}
	if !h.Click(link, Prevented()) {
		t.Error("Prevented() should mark the event")
	}
	if clicks, _ := h.ListenerCount(); clicks != 0 {
		t.Errorf("clicks = %d after remove", clicks)
	}
}

func TestQuerySelector(t *testing.T) {
	h := New("/")
	nav := h.Document().Append("nav")
	a1 := nav.Append("a", "href", "/", "data-link", "")
	a2 := nav.Append("a", "href", "/about", "data-link", "")
	main := h.Document().Append("main", "data-route-root", "")
	main.Append("a", "href", "/users/1", "data-link", "")

	if got := h.QuerySelector("[data-route-root]"); got != host.Element(main) {
		t.Errorf("QuerySelector(root) = %v", got)
	}
	if got := h.QuerySelector("nav a[data-link]"); got != host.Element(a1) {
		t.Errorf("QuerySelector(nav a) = %v", got)
	}
	if got := h.QuerySelector("section"); got != nil {
		t.Errorf("QuerySelector(section) = %v, want nil", got)
	}

	all := h.QuerySelectorAll("nav a[data-link]")
	if len(all) != 2 || all[1] != host.Element(a2) {
		t.Errorf("QuerySelectorAll(nav a) = %v", all)
	}
	if got := len(h.QuerySelectorAll("a[data-link]")); got != 3 {
		t.Errorf("QuerySelectorAll(a) = %d, want 3", got)
	}
}

func TestNodeClassesAndText(t *testing.T) {
	h := New("/")
	n := h.Document().Append("a", "class", "btn")

	n.SetClass("active", true)
	n.SetClass("active", true)
	if c, _ := n.Attr("class"); c != "btn active" {
		t.Errorf("class = %q", c)
	}
	if !n.HasClass("active") || !n.Matches("a.btn.active") {
		t.Error("active class missing")
	}

	n.SetClass("active", false)
	n.SetClass("btn", false)
	if _, ok := n.Attr("class"); ok {
		t.Error("class attribute should be removed when empty")
	}

	n.SetAttr("data-replace", "")
	if _, ok := n.Attr("data-replace"); !ok {
		t.Error("SetAttr lost attribute")
	}

	n.SetText("hello")
	if n.Text() != "hello" {
		t.Errorf("Text() = %q", n.Text())
	}
	if n.Parent() != host.Element(h.Document()) || h.Document().Parent() != nil {
		t.Error("parent links broken")
	}
	if len(h.Document().Children()) != 1 {
		t.Error("Children() count")
	}
}

func TestScrolls(t *testing.T) {
	h := New("/")
	h.ScrollToTop()
	h.RestoreScroll()
	got := h.Scrolls()
	if len(got) != 2 || got[0] != "top" || got[1] != "restore" {
		t.Errorf("Scrolls() = %v", got)
	}
}
