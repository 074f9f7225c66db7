package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeRoutes(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routes.yaml")
	data := `
routes:
  - path: /users/:id
    view: user
  - path: /about
    view: about
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMatchCommand(t *testing.T) {
	file := writeRoutes(t)

	out, err := run(t, "match", "-f", file, "/users/42?tab=posts", "/missing", "/a\\b")
	if err != nil {
		t.Fatalf("match error = %v", err)
	}
	for _, want := range []string{
		"view:   user",
		"path:   /users/42",
		"params: id=42",
		"query:  tab=posts",
		"no match",
		"error:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMatchCommandJSON(t *testing.T) {
	file := writeRoutes(t)

	out, err := run(t, "match", "-f", file, "--json", "/about/")
	if err != nil {
		t.Fatal(err)
	}
	var results []matchResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(results) != 1 || !results[0].Matched || results[0].View != "about" || results[0].Path != "/about" {
		t.Errorf("results = %+v", results)
	}
}

func TestMatchCommandMissingFile(t *testing.T) {
	if _, err := run(t, "match", "-f", filepath.Join(t.TempDir(), "nope.yaml"), "/"); err == nil {
		t.Error("match with a missing file succeeded")
	}
}

func TestQueryCommands(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"query", "parse", "?tab=posts&q=a+b&flag"}, want: `{"flag":"","q":"a b","tab":"posts"}`},
		{args: []string{"query", "stringify", "tab=posts", "page=2"}, want: "?page=2&tab=posts"},
		{args: []string{"query", "stringify"}, want: ""},
		{args: []string{"query", "merge", "?tab=posts&page=2", "--set", "page=3", "--del", "tab"}, want: "?page=3"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			if got := strings.TrimSpace(out); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.json")

	if _, err := run(t, "init", path); err != nil {
		t.Fatalf("init error = %v", err)
	}
	if _, err := run(t, "init", path); err == nil {
		t.Error("init over an existing file succeeded without --force")
	}
	if _, err := run(t, "init", "--force", path); err != nil {
		t.Errorf("init --force error = %v", err)
	}

	out, err := run(t, "match", "-f", path, "/users/7")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "view:   user") {
		t.Errorf("starter routes do not match /users/7:\n%s", out)
	}
}

func TestExamplePath(t *testing.T) {
	tests := map[string]string{
		"/":            "/",
		"/users/:id":   "/users/1",
		"/files/*rest": "/files/a/b",
		"/a/:x/b/:y":   "/a/1/b/1",
	}
	for in, want := range tests {
		if got := examplePath(in); got != want {
			t.Errorf("examplePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version = %q", out)
	}
}
