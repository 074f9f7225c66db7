package router

import (
	"context"
	"net/url"

	"github.com/vango-dev/routestate/pkg/host"
	"github.com/vango-dev/routestate/pkg/routepath"
)

// bind registers the click and popstate listeners for a bind epoch and
// returns their removers. navMu must be held.
func (r *Router) bind(epoch uint64) []func() {
	return []func(){
		r.host.OnClick(func(ev *host.ClickEvent) { r.handleClick(ev, epoch) }),
		r.host.OnPopState(func(loc host.Location) { r.handlePopState(loc, epoch) }),
	}
}

// handleClick intercepts plain primary clicks on links matching the link
// selector. Everything else is left to the host.
func (r *Router) handleClick(ev *host.ClickEvent, epoch uint64) {
	if ev.DefaultPrevented() || ev.Button != 0 || ev.Modified() || ev.Target == nil {
		return
	}
	link := host.Closest(ev.Target, r.cfg.LinkSelector)
	if link == nil {
		return
	}
	if target, ok := link.Attr("target"); ok && target != "" && target != "_self" {
		return
	}
	if _, ok := link.Attr("download"); ok {
		return
	}
	href, ok := link.Attr("href")
	if !ok {
		return
	}
	loc, ok := r.resolveHref(href)
	if !ok {
		r.diag("not intercepting cross-origin link", "href", href)
		return
	}

	ev.PreventDefault()
	replace := false
	if v, ok := link.Attr("data-replace"); ok && v != "false" {
		replace = true
	}
	r.dispatch(context.Background(), request{
		pathname: loc.Pathname,
		search:   loc.Search,
		replace:  replace,
		source:   sourceClick,
		epoch:    epoch,
	})
}

// handlePopState navigates to the location the host moved to without
// adding a history entry. With Config.RestoreScroll it restores scroll once
// the view settles.
func (r *Router) handlePopState(loc host.Location, epoch uint64) {
	r.dispatch(context.Background(), request{
		pathname:      loc.Pathname,
		search:        loc.Search,
		replace:       true,
		restoreScroll: r.cfg.RestoreScroll,
		source:        sourcePopState,
		epoch:         epoch,
	})
}

// resolveHref resolves href against the current location. It reports false
// for links that leave the current origin.
func (r *Router) resolveHref(href string) (host.Location, bool) {
	cur := r.host.Location()
	ref, err := url.Parse(href)
	if err != nil {
		return host.Location{}, false
	}
	if ref.Scheme != "" && ref.Scheme != "http" && ref.Scheme != "https" {
		return host.Location{}, false
	}
	if ref.Host != "" && ref.Host != cur.Host {
		return host.Location{}, false
	}

	base := &url.URL{Path: cur.Pathname, RawQuery: trimQuestion(cur.Search)}
	ref.Scheme, ref.Host, ref.User = "", "", nil
	u := base.ResolveReference(ref)

	loc := host.Location{Host: cur.Host, Pathname: u.EscapedPath()}
	if u.RawQuery != "" {
		loc.Search = "?" + u.RawQuery
	}
	if loc.Pathname == "" {
		loc.Pathname = "/"
	}
	return loc, true
}

// markActive toggles ActiveClass on nav links according to whether their
// resolved path is path. navMu must be held.
func (r *Router) markActive(path string) {
	for _, el := range r.host.QuerySelectorAll(r.cfg.NavSelector) {
		active := false
		if href, ok := el.Attr("href"); ok {
			if loc, ok := r.resolveHref(href); ok {
				if canon, err := routepath.Canonicalize(loc.Pathname); err == nil {
					active = canon.Path == path
				}
			}
		}
		el.SetClass(ActiveClass, active)
	}
}

func trimQuestion(search string) string {
	if len(search) > 0 && search[0] == '?' {
		return search[1:]
	}
	return search
}
