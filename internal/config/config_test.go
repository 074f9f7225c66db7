package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	rerrors "github.com/vango-dev/routestate/internal/errors"
	"github.com/vango-dev/routestate/pkg/pattern"
	"github.com/vango-dev/routestate/pkg/router"
)

func code(err error) string {
	var e *rerrors.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func TestNew(t *testing.T) {
	cfg := New()

	if len(cfg.Routes) == 0 {
		t.Fatal("New() has no routes")
	}
	if cfg.Serve.Addr != DefaultAddr {
		t.Errorf("Serve.Addr = %q, want %q", cfg.Serve.Addr, DefaultAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(dir); code(err) != "R110" {
		t.Errorf("Load(empty dir) error = %v, want R110", err)
	}

	yamlData := `
routes:
  - path: /users/:id
    view: user
    meta:
      title: User
  - path: /about
    view: about
fallback:
  view: notfound
rootSelector: "#app"
debug: true
restoreScroll: true
redis:
  addr: localhost:6379
`
	if err := os.WriteFile(filepath.Join(dir, "routes.yaml"), []byte(yamlData), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []router.Route{
		{Path: "/users/:id", View: "user", Meta: map[string]any{"title": "User"}},
		{Path: "/about", View: "about"},
	}
	if !reflect.DeepEqual(cfg.Routes, want) {
		t.Errorf("Routes = %+v, want %+v", cfg.Routes, want)
	}
	if cfg.Fallback == nil || cfg.Fallback.View != "notfound" {
		t.Errorf("Fallback = %+v", cfg.Fallback)
	}
	if cfg.Serve.Addr != DefaultAddr {
		t.Errorf("Serve.Addr = %q, want default", cfg.Serve.Addr)
	}
	if cfg.Redis.Prefix != DefaultRedisPrefix {
		t.Errorf("Redis.Prefix = %q, want default", cfg.Redis.Prefix)
	}
	if cfg.Path() != filepath.Join(dir, "routes.yaml") {
		t.Errorf("Path() = %q", cfg.Path())
	}

	rc := cfg.RouterConfig()
	if rc.RootSelector != "#app" || !rc.Debug || !rc.RestoreScroll || rc.Fallback.View != "notfound" {
		t.Errorf("RouterConfig() = %+v", rc)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	jsonData := `{"routes": [{"path": "/files/*rest", "view": "files"}], "serve": {"addr": ":9000", "metrics": true}}`
	if err := os.WriteFile(filepath.Join(dir, "routes.json"), []byte(jsonData), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Routes) != 1 || cfg.Routes[0].View != "files" {
		t.Errorf("Routes = %+v", cfg.Routes)
	}
	if cfg.Serve.Addr != ":9000" || !cfg.Serve.Metrics {
		t.Errorf("Serve = %+v", cfg.Serve)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		format   string
		wantCode string
		wantIs   error
	}{
		{name: "bad yaml", data: "routes: [", format: "yaml", wantCode: "R111"},
		{name: "bad json", data: "{", format: "json", wantCode: "R111"},
		{name: "bad pattern", data: "routes:\n  - path: users\n    view: u\n", format: "yaml", wantCode: "R101", wantIs: pattern.ErrInvalidPattern},
		{name: "catch-all not last", data: `{"routes":[{"path":"/a/*rest/b","view":"a"}]}`, format: "json", wantCode: "R103", wantIs: pattern.ErrInvalidPattern},
		{name: "missing view", data: "routes:\n  - path: /a\n", format: "yaml", wantCode: "R104"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			if got := code(err); got != tt.wantCode {
				t.Errorf("Parse() error = %v, want code %s", err, tt.wantCode)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("Parse() error = %v, want errors.Is %v", err, tt.wantIs)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"routes.yaml", "routes.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := New()
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo() error = %v", err)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q", cfg.Path())
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if !reflect.DeepEqual(loaded.Routes, cfg.Routes) {
				t.Errorf("Routes = %+v, want %+v", loaded.Routes, cfg.Routes)
			}

			loaded.Debug = true
			if err := loaded.Save(); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			again, err := LoadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !again.Debug {
				t.Error("Save() did not persist Debug")
			}
		})
	}

	if err := (&Config{}).Save(); err == nil {
		t.Error("Save() without a path succeeded")
	}
}
