package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/vango-dev/routestate/internal/config"
	"github.com/vango-dev/routestate/pkg/host/wshost"
	"github.com/vango-dev/routestate/pkg/mount"
	"github.com/vango-dev/routestate/pkg/router"
	"github.com/vango-dev/routestate/pkg/store"
	"github.com/vango-dev/routestate/pkg/store/redisstore"
)

const hostPrefix = "/_routestate"

func serveCmd() *cobra.Command {
	var (
		addr  string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live demo of the route table",
		Long: `Serve a page whose navigation is driven by a server-side router.

Each browser tab gets its own router over a WebSocket. Link clicks and
back/forward are handled on the server, which pushes history entries
and renders the view of the active route into the page.

When the routes file configures redis, route state for each connection
is kept in Redis under <prefix><connection id>: and other processes can
navigate a tab by writing ui.route.go there.

Examples:
  navctl serve
  navctl serve --addr :9000 --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRoutes(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			if debug {
				cfg.Debug = true
			}
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from routes file)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable router diagnostics")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
	}

	reg := prometheus.NewRegistry()
	hostConfig := &wshost.Config{Logger: logger}
	routerOpts := []router.Option{router.WithLogger(logger)}
	if cfg.Serve.Metrics {
		hostConfig.Registerer = reg
		routerOpts = append(routerOpts, router.WithMetrics(reg))
	}

	srv := wshost.New(hostConfig, func(c *wshost.Conn) (func(), error) {
		var st store.Store = store.NewMemory()
		var closeStore func() error
		if rdb != nil {
			rs := redisstore.NewFromClient(rdb,
				redisstore.WithPrefix(cfg.Redis.Prefix+c.ID()+":"),
				redisstore.WithLogger(logger))
			st, closeStore = rs, rs.Close
		}

		rc := cfg.RouterConfig()
		rc.Host = c
		rc.Store = st
		for i := range rc.Routes {
			rc.Routes[i].Component = viewComponent(c)
		}
		if rc.Fallback != nil {
			rc.Fallback.Component = viewComponent(c)
		}

		r, err := router.New(rc, routerOpts...)
		if err != nil {
			return nil, err
		}
		r.Start()
		logger.Info("tab connected", "conn_id", c.ID(), "path", c.Location().Pathname)

		return func() {
			r.Stop()
			if closeStore != nil {
				closeStore()
			}
			logger.Info("tab disconnected", "conn_id", c.ID())
		}, nil
	})
	defer srv.Close()

	mux := chi.NewRouter()
	mux.Mount(hostPrefix, srv.Handler())
	if cfg.Serve.Metrics {
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	mux.Get("/*", shellHandler(cfg))

	httpSrv := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	w := cmd.OutOrStdout()
	success(w, "Serving %d routes on http://%s", len(cfg.Routes), cfg.Serve.Addr)
	if cfg.Redis.Addr != "" {
		info(w, "store: redis %s (prefix %s<conn>:)", cfg.Redis.Addr, cfg.Redis.Prefix)
	}
	if cfg.Serve.Metrics {
		info(w, "metrics: http://%s/metrics", cfg.Serve.Addr)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	info(w, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Close()
	return httpSrv.Shutdown(shutdownCtx)
}

var viewTemplate = template.Must(template.New("view").Parse(
	`<h1>{{.View}}</h1>
<dl>
<dt>path</dt><dd><code>{{.Path}}</code></dd>
{{range $k, $v := .Params}}<dt>:{{$k}}</dt><dd><code>{{$v}}</code></dd>
{{end}}{{range $k, $v := .Query}}<dt>?{{$k}}</dt><dd><code>{{$v}}</code></dd>
{{end}}</dl>
`))

// viewComponent renders a summary of the active route into the root.
func viewComponent(c *wshost.Conn) mount.Component {
	return mount.ComponentFunc(func(bc mount.BootContext) (mount.Cleanup, error) {
		if bc.El == nil {
			return nil, nil
		}

		var buf bytes.Buffer
		err := viewTemplate.Execute(&buf, map[string]any{
			"View":   bc.View,
			"Path":   c.Location().Pathname,
			"Params": bc.Params,
			"Query":  bc.Query,
		})
		if err != nil {
			return nil, err
		}
		if err := c.SetHTML(bc.El, buf.String()); err != nil {
			return nil, err
		}
		return func() {
			c.SetHTML(bc.El, "")
		}, nil
	})
}

var shellTemplate = template.Must(template.New("shell").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>routestate</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; }
nav a { margin-right: 1rem; }
nav a.active { font-weight: bold; }
</style>
</head>
<body>
<nav>
{{range .}}<a href="{{.}}" data-link>{{.}}</a>
{{end}}</nav>
<main data-route-root></main>
<script src="/_routestate/client.js" data-endpoint="/_routestate/ws"></script>
</body>
</html>
`))

// shellHandler serves the page every path loads; the router renders the
// view once the WebSocket connects.
func shellHandler(cfg *config.Config) http.HandlerFunc {
	var links []string
	for _, route := range cfg.Routes {
		links = append(links, examplePath(route.Path))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := shellTemplate.Execute(w, links); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// examplePath fills pattern parameters with sample values.
func examplePath(pattern string) string {
	parts := strings.Split(pattern, "/")
	for i, part := range parts {
		switch {
		case strings.HasPrefix(part, ":"):
			parts[i] = "1"
		case strings.HasPrefix(part, "*"):
			parts[i] = "a/b"
		}
	}
	return strings.Join(parts, "/")
}
