package router

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/routestate/pkg/host"
	"github.com/vango-dev/routestate/pkg/mount"
	"github.com/vango-dev/routestate/pkg/store"
)

// Store paths written and observed by the router.
const (
	PathView          = "ui.route.view"
	PathPath          = "ui.route.path"
	PathParams        = "ui.route.params"
	PathQuery         = "ui.route.query"
	PathTransitioning = "ui.route.transitioning"
	PathGo            = "ui.route.go"
)

// Defaults for Config selectors.
const (
	DefaultRootSelector = "[data-route-root]"
	DefaultLinkSelector = "a[data-link]"
	DefaultNavSelector  = "nav a[data-link]"

	// ActiveClass is toggled on nav links whose path is the current path.
	ActiveClass = "active"
)

// Route binds a path pattern to a view.
type Route struct {
	// Path is the pattern, e.g. "/users/:id".
	Path string `json:"path" yaml:"path"`

	// View is the key written to ui.route.view.
	View string `json:"view" yaml:"view"`

	// Component is booted when the route becomes active. Optional.
	Component mount.Component `json:"-" yaml:"-"`

	// Meta holds application-defined extension fields.
	Meta map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// Config configures a Router.
type Config struct {
	// Routes are matched in order; the first match wins.
	Routes []Route

	// Store receives route state. Default: a new store.Memory.
	Store store.Store

	// Host is the environment. Default: an in-memory host at "/".
	Host host.Host

	// RootSelector finds the element handed to components as El.
	// Default: "[data-route-root]".
	RootSelector string

	// Fallback is used when no route matches. Its Path is ignored; the
	// requested pathname is committed. Without a fallback an unmatched
	// navigation does nothing.
	Fallback *Route

	// Debug enables diagnostic logging.
	Debug bool

	// LinkSelector selects links whose clicks are intercepted.
	// Default: "a[data-link]".
	LinkSelector string

	// NavSelector selects links that receive the active class.
	// Default: "nav a[data-link]".
	NavSelector string

	// RestoreScroll makes back/forward navigations ask the host to restore
	// the scroll position once the view settles. Without it they leave
	// scroll alone.
	RestoreScroll bool
}

func (c *Config) applyDefaults() {
	if c.RootSelector == "" {
		c.RootSelector = DefaultRootSelector
	}
	if c.LinkSelector == "" {
		c.LinkSelector = DefaultLinkSelector
	}
	if c.NavSelector == "" {
		c.NavSelector = DefaultNavSelector
	}
}

type options struct {
	logger         *slog.Logger
	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider
}

// Option configures the ambient stack of a Router.
type Option func(*options)

// WithLogger sets the logger for diagnostics. Diagnostics are only emitted
// when Config.Debug is set.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics registers navigation metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithTracerProvider sets the provider for navigation spans.
// Default: the global OpenTelemetry provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// NavigateOptions configures a single navigation.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Search overrides the query of the target when SearchSet is true.
	Search    string
	SearchSet bool

	// RestoreScroll requests scroll restoration once the view settles.
	RestoreScroll bool
}

// NavigateOption is a functional option for navigation calls.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithSearch sets the search string ("?a=1" or "a=1") of the target,
// overriding any query in the path.
func WithSearch(search string) NavigateOption {
	return func(o *NavigateOptions) {
		o.Search = search
		o.SearchSet = true
	}
}

// WithRestoreScroll requests scroll restoration instead of scrolling to top.
func WithRestoreScroll() NavigateOption {
	return func(o *NavigateOptions) {
		o.RestoreScroll = true
	}
}
