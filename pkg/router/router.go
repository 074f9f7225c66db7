package router

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/routestate/internal/errors"
	"github.com/vango-dev/routestate/pkg/host"
	"github.com/vango-dev/routestate/pkg/host/memhost"
	"github.com/vango-dev/routestate/pkg/mount"
	"github.com/vango-dev/routestate/pkg/pattern"
	"github.com/vango-dev/routestate/pkg/store"
)

const tracerName = "github.com/vango-dev/routestate/pkg/router"

// State is the router state mirrored into the store.
type State struct {
	View          string
	Path          string
	Params        map[string]string
	Query         map[string]string
	Search        string
	Transitioning bool
}

// Current is the result of Router.Current.
type Current struct {
	View   string
	Path   string
	Search string
}

// Router is the navigation controller.
type Router struct {
	cfg     Config
	table   *pattern.Table
	store   store.Store
	host    host.Host
	mounter *mount.Mounter
	logger  *slog.Logger
	debug   bool
	metrics *metrics
	tracer  trace.Tracer

	// navMu serializes the begin and settle phases of navigations and
	// guards the fields below. It is never held while store subscribers or
	// view cleanups run.
	navMu      sync.Mutex
	gen        uint64
	cancel     context.CancelFunc
	lifecycle  context.Context
	endLife    context.CancelFunc
	navigating bool
	busy       bool
	idle       chan struct{}
	outbox     []write
	flushing   bool
	running    bool
	epoch      uint64
	release    []func()

	stateMu sync.RWMutex
	state   State
}

// New compiles the route table and returns a stopped router. A malformed
// pattern or a route without a view is reported as an error.
func New(cfg Config, opts ...Option) (*Router, error) {
	cfg.applyDefaults()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	raws := make([]string, len(cfg.Routes))
	for i, route := range cfg.Routes {
		if route.View == "" {
			return nil, errors.New("R104").WithDetailf("route %d (%q)", i, route.Path)
		}
		raws[i] = route.Path
	}
	table, err := pattern.CompileTable(raws...)
	if err != nil {
		return nil, err
	}
	if cfg.Fallback != nil && cfg.Fallback.View == "" {
		return nil, errors.New("R104").WithDetail("fallback route")
	}

	routes := make([]Route, len(cfg.Routes))
	copy(routes, cfg.Routes)
	cfg.Routes = routes

	r := &Router{
		cfg:     cfg,
		table:   table,
		store:   cfg.Store,
		host:    cfg.Host,
		mounter: mount.New(),
		debug:   cfg.Debug,
		metrics: newMetrics(o.registerer),
		idle:    make(chan struct{}),
		state:   emptyState(),
	}
	close(r.idle)

	if r.store == nil {
		r.store = store.NewMemory()
	}
	if r.host == nil {
		r.host = memhost.New("/")
	}

	switch {
	case o.logger != nil:
		r.logger = o.logger
	case cfg.Debug:
		r.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("component", "router")

	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	r.tracer = tp.Tracer(tracerName)

	r.lifecycle, r.endLife = context.WithCancel(context.Background())
	return r, nil
}

func emptyState() State {
	return State{
		Params: map[string]string{},
		Query:  map[string]string{},
	}
}

// Store returns the store the router writes to.
func (r *Router) Store() store.Store {
	return r.store
}

// Host returns the router's host.
func (r *Router) Host() host.Host {
	return r.host
}

// Routes returns a copy of the route table in match order.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.cfg.Routes))
	copy(out, r.cfg.Routes)
	return out
}

// Start binds click, popstate and ui.route.go listeners and navigates to
// the host's current location without adding a history entry. The initial
// navigation settles asynchronously; use WaitIdle to wait for it.
//
// Start on a running router does nothing. After Stop, Start binds a fresh
// set of listeners.
func (r *Router) Start() *Router {
	r.navMu.Lock()
	if r.running {
		r.navMu.Unlock()
		return r
	}
	r.running = true
	r.epoch++
	epoch := r.epoch
	r.release = append(r.release, r.bind(epoch)...)
	r.release = append(r.release, r.bindStore(epoch))
	r.navMu.Unlock()

	loc := r.host.Location()
	r.dispatch(context.Background(), request{
		pathname: loc.Pathname,
		search:   loc.Search,
		replace:  true,
		source:   sourceStart,
		epoch:    epoch,
	})
	return r
}

// Stop releases the listeners bound by Start, cancels any navigation in
// flight, runs the mounted component's cleanup and resets the route state
// in the store. Stop is idempotent.
//
// A stopped router can still be navigated directly; it just no longer
// reacts to clicks, popstate or ui.route.go.
func (r *Router) Stop() *Router {
	r.navMu.Lock()

	r.running = false
	r.epoch++
	release := r.release
	r.release = nil
	for _, fn := range release {
		fn()
	}

	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.endLife()
	r.lifecycle, r.endLife = context.WithCancel(context.Background())

	released := r.mounter.Detach()

	r.stateMu.Lock()
	r.state = emptyState()
	r.stateMu.Unlock()

	r.emit(PathView, nil)
	r.emit(PathPath, nil)
	r.emit(PathParams, map[string]string{})
	r.emit(PathQuery, map[string]string{})
	r.emit(PathTransitioning, false)
	r.metrics.setTransitioning(false)
	r.navigating = false
	r.navMu.Unlock()

	r.runCleanup(released)
	r.flush()
	return r
}

// Running reports whether the router is started.
func (r *Router) Running() bool {
	r.navMu.Lock()
	defer r.navMu.Unlock()
	return r.running
}

// Current returns the committed view, path and search. It has no side
// effects.
func (r *Router) Current() Current {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return Current{View: r.state.View, Path: r.state.Path, Search: r.state.Search}
}

// State returns a copy of the full router state.
func (r *Router) State() State {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	s := r.state
	s.Params = copyMap(s.Params)
	s.Query = copyMap(s.Query)
	return s
}

// WaitIdle blocks until no navigation is in flight and the store has
// received every route write, or ctx is done. Called from a store
// subscriber it can only return through ctx.
func (r *Router) WaitIdle(ctx context.Context) error {
	r.navMu.Lock()
	ch := r.idle
	r.navMu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
