package router

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/routestate/internal/errors"
	"github.com/vango-dev/routestate/pkg/host"
	"github.com/vango-dev/routestate/pkg/mount"
	"github.com/vango-dev/routestate/pkg/query"
	"github.com/vango-dev/routestate/pkg/routepath"
)

// ErrInvalidPath is wrapped by the error returned for an unusable target
// path (backslash, NUL byte, bad escape, ".." above root).
var ErrInvalidPath = routepath.ErrInvalidPath

// Navigation sources, used for metrics and spans.
const (
	sourceAPI      = "api"
	sourceClick    = "click"
	sourcePopState = "popstate"
	sourceStore    = "store"
	sourceStart    = "start"
)

// request is one navigation attempt.
type request struct {
	pathname      string
	search        string
	replace       bool
	restoreScroll bool
	source        string

	// epoch is the bind epoch of the listener that issued the request, or
	// zero for direct calls.
	epoch uint64
}

// pending is a navigation that has begun and not yet settled.
type pending struct {
	gen     uint64
	req     request
	route   Route
	path    string
	search  string
	params  map[string]string
	query   map[string]string
	signal  context.Context
	el      host.Element
	span    trace.Span
	started time.Time

	// released is the cleanup detached from the previous view.
	released mount.Cleanup
}

// Navigate navigates to target ("/path" or "/path?search") and returns once
// the navigation has settled or been superseded.
//
// An unmatched path without a fallback is a no-op, and a failing component
// boot still commits the route; neither is reported as an error. The only
// error is an unusable target path, which leaves all state untouched.
func (r *Router) Navigate(ctx context.Context, target string, opts ...NavigateOption) error {
	var o NavigateOptions
	for _, opt := range opts {
		opt(&o)
	}

	pathname, search := routepath.Split(target)
	if o.SearchSet {
		search = o.Search
	}
	return r.navigate(ctx, request{
		pathname:      pathname,
		search:        search,
		replace:       o.Replace,
		restoreScroll: o.RestoreScroll,
		source:        sourceAPI,
	})
}

// NavigateQuery merges patch onto the current query and navigates to the
// current pathname with the result. A nil patch value removes that key.
func (r *Router) NavigateQuery(ctx context.Context, patch query.Patch, opts ...NavigateOption) error {
	return r.navigate(ctx, r.queryRequest(patch, sourceAPI, opts))
}

// NavigatePath navigates to path keeping the current search string.
//
// Navigate, NavigateQuery and NavigatePath may be called from store
// subscribers and component cleanups. Such nested calls return once their
// navigation has settled; the store writes they cause are delivered after
// the write being delivered when they were called.
func (r *Router) NavigatePath(ctx context.Context, path string, opts ...NavigateOption) error {
	return r.navigate(ctx, r.pathRequest(path, sourceAPI, opts))
}

func (r *Router) queryRequest(patch query.Patch, source string, opts []NavigateOption) request {
	var o NavigateOptions
	for _, opt := range opts {
		opt(&o)
	}

	loc := r.host.Location()
	merged := query.Merge(query.Parse(loc.Search), patch)
	return request{
		pathname:      loc.Pathname,
		search:        query.Stringify(merged),
		replace:       o.Replace,
		restoreScroll: o.RestoreScroll,
		source:        source,
	}
}

func (r *Router) pathRequest(path, source string, opts []NavigateOption) request {
	var o NavigateOptions
	for _, opt := range opts {
		opt(&o)
	}

	pathname, _ := routepath.Split(path)
	return request{
		pathname:      pathname,
		search:        r.host.Location().Search,
		replace:       o.Replace,
		restoreScroll: o.RestoreScroll,
		source:        source,
	}
}

// navigate runs a navigation to settlement on the calling goroutine.
func (r *Router) navigate(ctx context.Context, req request) error {
	p, err := r.begin(ctx, req)
	if err != nil || p == nil {
		return err
	}
	r.launch(p)
	r.finish(p)
	return nil
}

// dispatch begins a navigation on the calling goroutine, fixing its place
// in issuance order, and lets it settle in the background.
func (r *Router) dispatch(ctx context.Context, req request) {
	p, err := r.begin(ctx, req)
	if err != nil || p == nil {
		return
	}
	r.launch(p)
	go r.finish(p)
}

// launch delivers the writes of the begin phase and releases the previous
// view. navMu must not be held.
func (r *Router) launch(p *pending) {
	r.flush()
	r.runCleanup(p.released)
}

// resolve finds the route for a canonical path.
func (r *Router) resolve(path string) (Route, map[string]string, bool) {
	if res, ok := r.table.Match(path); ok {
		return r.cfg.Routes[res.Index], res.Params, true
	}
	if r.cfg.Fallback != nil {
		return *r.cfg.Fallback, map[string]string{}, true
	}
	return Route{}, nil, false
}

// begin moves the router into Transitioning for a new generation: it
// cancels the navigation in flight, queues the transitioning write, updates
// history and detaches the mounted component's cleanup. It returns nil when
// nothing matches or when the request came from listeners Stop released.
func (r *Router) begin(ctx context.Context, req request) (*pending, error) {
	canon, err := routepath.Canonicalize(req.pathname)
	if err != nil {
		r.diag("invalid navigation path", "path", req.pathname, "error", err)
		r.metrics.navigation(req.source, outcomeInvalid)
		return nil, errors.New("R201").WithDetailf("%q: %v", req.pathname, err).Wrap(stderrors.Join(ErrInvalidPath, err))
	}
	search := normalizeSearch(req.search)

	route, params, ok := r.resolve(canon.Path)
	if !ok {
		r.diag("no route matches", "path", canon.Path)
		r.metrics.navigation(req.source, outcomeNoMatch)
		return nil, nil
	}

	r.navMu.Lock()
	defer r.navMu.Unlock()

	if req.epoch != 0 && req.epoch != r.epoch {
		r.diag("dropping navigation from released listener", "path", canon.Path, "source", req.source)
		r.metrics.navigation(req.source, outcomeStopped)
		return nil, nil
	}

	r.gen++
	if r.cancel != nil {
		r.cancel()
	}
	signal, cancel := context.WithCancel(r.lifecycle)
	r.cancel = cancel

	_, span := r.tracer.Start(ctx, "routestate.navigate",
		trace.WithAttributes(
			attribute.String("routestate.path", canon.Path),
			attribute.String("routestate.view", route.View),
			attribute.String("routestate.source", req.source),
			attribute.Int64("routestate.generation", int64(r.gen)),
			attribute.Bool("routestate.replace", req.replace),
		),
	)
	signal = trace.ContextWithSpan(signal, span)

	r.navigating = true
	if !r.busy {
		r.busy = true
		r.idle = make(chan struct{})
	}
	r.stateMu.Lock()
	r.state.Transitioning = true
	r.stateMu.Unlock()
	r.emit(PathTransitioning, true)
	r.metrics.setTransitioning(true)

	loc := host.Location{Pathname: canon.Path, Search: search}
	if req.replace {
		r.host.ReplaceState(loc)
	} else {
		r.host.PushState(loc)
	}

	released := r.mounter.Detach()

	r.diag("navigation started", "path", canon.Path, "view", route.View, "generation", r.gen, "source", req.source)
	return &pending{
		gen:      r.gen,
		req:      req,
		route:    route,
		path:     canon.Path,
		search:   search,
		params:   params,
		query:    query.Parse(search),
		signal:   signal,
		el:       r.host.QuerySelector(r.cfg.RootSelector),
		span:     span,
		started:  time.Now(),
		released: released,
	}, nil
}

// finish boots the route's component, if any, and settles.
func (r *Router) finish(p *pending) {
	var bootErr error
	if p.route.Component != nil {
		bootErr = r.mounter.Mount(mount.BootContext{
			Store:  r.store,
			El:     p.el,
			Signal: p.signal,
			Params: copyMap(p.params),
			Query:  copyMap(p.query),
			View:   p.route.View,
		}, p.route.Component)
	}
	r.settle(p, bootErr)
}

// settle commits p if it is still the latest navigation.
func (r *Router) settle(p *pending, bootErr error) {
	defer p.span.End()
	r.navMu.Lock()

	if p.gen != r.gen {
		r.navMu.Unlock()
		r.diag("discarding superseded navigation", "path", p.path, "generation", p.gen, "latest", r.gen)
		r.metrics.navigation(p.req.source, outcomeSuperseded)
		p.span.SetAttributes(attribute.String("routestate.outcome", outcomeSuperseded))
		return
	}

	outcome := outcomeCommitted
	if bootErr != nil {
		outcome = outcomeBootError
		r.diag("component boot failed", "path", p.path, "view", p.route.View, "error", bootErr)
		p.span.RecordError(bootErr)
		p.span.SetStatus(codes.Error, "boot failed")
	}
	p.span.SetAttributes(attribute.String("routestate.outcome", outcome))

	r.commit(p)
	r.navigating = false
	r.metrics.navigation(p.req.source, outcome)
	r.metrics.observe(time.Since(p.started))
	r.navMu.Unlock()

	r.flush()
}

// commit records the settled state and queues its store writes. navMu must
// be held.
func (r *Router) commit(p *pending) {
	r.stateMu.Lock()
	r.state = State{
		View:          p.route.View,
		Path:          p.path,
		Params:        copyMap(p.params),
		Query:         copyMap(p.query),
		Search:        p.search,
		Transitioning: false,
	}
	r.stateMu.Unlock()

	r.emit(PathView, p.route.View)
	r.emit(PathPath, p.path)
	r.emit(PathParams, copyMap(p.params))
	r.emit(PathQuery, copyMap(p.query))
	r.emit(PathTransitioning, false)
	r.metrics.setTransitioning(false)

	r.markActive(p.path)

	switch {
	case p.req.restoreScroll:
		r.host.RestoreScroll()
	case !p.req.replace:
		r.host.ScrollToTop()
	}
}

func normalizeSearch(search string) string {
	search, _, _ = strings.Cut(search, "#")
	if search == "" || search == "?" {
		return ""
	}
	if !strings.HasPrefix(search, "?") {
		return "?" + search
	}
	return search
}

// diag logs a diagnostic when Config.Debug is set.
func (r *Router) diag(msg string, args ...any) {
	if r.debug {
		r.logger.Debug(msg, args...)
	}
}
