package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/routestate/internal/errors"
	"github.com/vango-dev/routestate/pkg/router"
)

// FileNames are the routes file names Load looks for, in order.
var FileNames = []string{"routes.yaml", "routes.yml", "routes.json"}

const (
	// DefaultAddr is the default listen address of navctl serve.
	DefaultAddr = "localhost:8080"

	// DefaultRedisPrefix is the default key prefix of the Redis store.
	DefaultRedisPrefix = "routestate:"
)

// Config is a routes file.
type Config struct {
	// Routes are matched in order.
	Routes []router.Route `json:"routes" yaml:"routes"`

	// Fallback is used when no route matches. Optional.
	Fallback *router.Route `json:"fallback,omitempty" yaml:"fallback,omitempty"`

	// Selectors override the router defaults when set.
	RootSelector string `json:"rootSelector,omitempty" yaml:"rootSelector,omitempty"`
	LinkSelector string `json:"linkSelector,omitempty" yaml:"linkSelector,omitempty"`
	NavSelector  string `json:"navSelector,omitempty" yaml:"navSelector,omitempty"`

	// Debug enables router diagnostics.
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`

	// RestoreScroll restores scroll position on back/forward.
	RestoreScroll bool `json:"restoreScroll,omitempty" yaml:"restoreScroll,omitempty"`

	// Serve configures navctl serve.
	Serve ServeConfig `json:"serve,omitempty" yaml:"serve,omitempty"`

	// Redis, when Addr is set, backs the store with Redis.
	Redis RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`

	// path stores the file the config was loaded from.
	path string
}

// ServeConfig configures the development server.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// Metrics exposes Prometheus metrics at /metrics.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// New creates a Config with a starter route table.
func New() *Config {
	return &Config{
		Routes: []router.Route{
			{Path: "/", View: "home"},
			{Path: "/about", View: "about"},
			{Path: "/users/:id", View: "user"},
		},
		Fallback:      &router.Route{View: "notfound"},
		RestoreScroll: true,
		Serve: ServeConfig{
			Addr: DefaultAddr,
		},
	}
}

// Load reads the first routes file found in dir.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("R110").
		WithDetail("No routes file found in " + dir).
		WithSuggestion("Run 'navctl init' or create " + FileNames[0])
}

// LoadFile reads a routes file. The format follows the extension: .json is
// JSON, anything else is YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("R110").WithDetail(path).Wrap(err)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// Parse decodes a routes file in the given format ("json" or "yaml").
func Parse(data []byte, format string) (*Config, error) {
	cfg := &Config{}

	var err error
	if format == "json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("R111").WithDetail(err.Error()).Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Validate checks the route table the way router.New would, without
// building a router.
func (c *Config) Validate() error {
	_, err := router.New(c.RouterConfig())
	return err
}

// RouterConfig returns the router configuration described by the file.
// Components are not part of a routes file; callers attach them.
func (c *Config) RouterConfig() router.Config {
	routes := make([]router.Route, len(c.Routes))
	copy(routes, c.Routes)

	var fallback *router.Route
	if c.Fallback != nil {
		fb := *c.Fallback
		fallback = &fb
	}

	return router.Config{
		Routes:        routes,
		Fallback:      fallback,
		RootSelector:  c.RootSelector,
		LinkSelector:  c.LinkSelector,
		NavSelector:   c.NavSelector,
		Debug:         c.Debug,
		RestoreScroll: c.RestoreScroll,
	}
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.Newf(errors.CategoryConfig, "no routes file path set")
	}
	return c.SaveTo(c.path)
}

// SaveTo writes the configuration to path in the format its extension
// names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if formatOf(path) == "json" {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.New("R111").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("R110").WithDetail(path).Wrap(err)
	}

	c.path = path
	return nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyDefaults() {
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Redis.Addr != "" && c.Redis.Prefix == "" {
		c.Redis.Prefix = DefaultRedisPrefix
	}
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}
