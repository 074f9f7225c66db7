package pattern

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/vango-dev/routestate/internal/errors"
)

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		pattern  string
		wantCode string
	}{
		{"users", "R101"},
		{"", "R101"},
		{"/users/:", "R101"},
		{"/users/:id-x", "R101"},
		{"/a//b", "R101"},
		{"/files/*", "R101"},
		{"/bad/%zz", "R101"},
		{"/users/:id/posts/:id", "R102"},
		{"/a/:x/*x", "R102"},
		{"/files/*rest/more", "R103"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			_, err := Compile(tt.pattern)
			if err == nil {
				t.Fatalf("Compile(%q) succeeded, want error", tt.pattern)
			}
			if !stderrors.Is(err, ErrInvalidPattern) {
				t.Errorf("error %v does not wrap ErrInvalidPattern", err)
			}
			var re *errors.Error
			if !stderrors.As(err, &re) || re.Code != tt.wantCode {
				t.Errorf("error code = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestCompileNames(t *testing.T) {
	p := MustCompile("/orgs/:org/repos/:repo/*path")
	want := []string{"org", "repo", "path"}
	if got := p.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if p.String() != "/orgs/:org/repos/:repo/*path" {
		t.Errorf("String() = %q", p.String())
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile should panic on malformed pattern")
		}
	}()
	MustCompile("no-slash")
}

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    map[string]string
		ok      bool
	}{
		{"/", "/", map[string]string{}, true},
		{"/", "", map[string]string{}, true},
		{"/", "/about", nil, false},
		{"/about", "/about", map[string]string{}, true},
		{"/about", "/about/", map[string]string{}, true},
		{"/about", "/About", nil, false},
		{"/about", "/about/team", nil, false},
		{"/users/:id", "/users/42", map[string]string{"id": "42"}, true},
		{"/users/:id", "/users/42/", map[string]string{"id": "42"}, true},
		{"/users/:id", "/users", nil, false},
		{"/users/:id", "/users/42/posts", nil, false},
		{"/users/:id", "/users/a%20b", map[string]string{"id": "a b"}, true},
		{"/users/:id", "/users/a%2Fb", nil, false},
		{"/users/:id/posts/:post", "/users/7/posts/9", map[string]string{"id": "7", "post": "9"}, true},
		{"/files/*rest", "/files/a/b/c", map[string]string{"rest": "a/b/c"}, true},
		{"/files/*rest", "/files/a%2Fb", map[string]string{"rest": "a/b"}, true},
		{"/files/*rest", "/files", nil, false},
		{"/café", "/caf%C3%A9", map[string]string{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			got, ok := MustCompile(tt.pattern).Match(tt.path)
			if ok != tt.ok {
				t.Fatalf("Match(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestParamsFollowDeclaredOrder(t *testing.T) {
	p := MustCompile("/:a/:b/:c")
	params, ok := p.Match("/x/y/z")
	if !ok {
		t.Fatal("expected match")
	}
	segs := []string{"x", "y", "z"}
	for i, name := range p.Names() {
		if params[name] != segs[i] {
			t.Errorf("param %s = %q, want %q", name, params[name], segs[i])
		}
	}
}

func TestTableFirstMatchWins(t *testing.T) {
	table, err := CompileTable("/users/new", "/users/:id", "/users/:name", "/*any")
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 4 {
		t.Errorf("Len() = %d, want 4", table.Len())
	}

	tests := []struct {
		path      string
		wantIndex int
	}{
		{"/users/new", 0},
		{"/users/42", 1},
		{"/elsewhere/deep", 3},
	}
	for _, tt := range tests {
		res, ok := table.Match(tt.path)
		if !ok {
			t.Fatalf("Match(%q) found nothing", tt.path)
		}
		if res.Index != tt.wantIndex {
			t.Errorf("Match(%q).Index = %d, want %d", tt.path, res.Index, tt.wantIndex)
		}
	}

	reversed, err := CompileTable("/users/:id", "/users/new")
	if err != nil {
		t.Fatal(err)
	}
	res, _ := reversed.Match("/users/new")
	if res.Index != 0 || res.Params["id"] != "new" {
		t.Errorf("earlier route must win: got %+v", res)
	}
}

func TestTableNoMatch(t *testing.T) {
	table, err := CompileTable("/users/:id", "/about")
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"/unknown", "/users", "/a\\b", "/../x"} {
		if _, ok := table.Match(p); ok {
			t.Errorf("Match(%q) should fail", p)
		}
	}
}

func TestCompileTableError(t *testing.T) {
	if _, err := CompileTable("/ok", "bad"); !stderrors.Is(err, ErrInvalidPattern) {
		t.Errorf("CompileTable error = %v", err)
	}
}

func TestTableResultParamsNeverNil(t *testing.T) {
	table, _ := CompileTable("/about")
	res, ok := table.Match("/about")
	if !ok || res.Params == nil {
		t.Errorf("Params = %v, ok = %v", res.Params, ok)
	}
}
