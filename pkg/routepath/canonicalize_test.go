package routepath

import (
	"errors"
	"reflect"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantPath    string
		wantSearch  string
		wantChanged bool
		wantErr     error
	}{
		{name: "root", input: "/", wantPath: "/"},
		{name: "empty string", input: "", wantPath: "/", wantChanged: true},
		{name: "no leading slash", input: "about", wantPath: "/about", wantChanged: true},
		{name: "trailing slash", input: "/users/42/", wantPath: "/users/42", wantChanged: true},
		{name: "collapse slashes", input: "/blog//post", wantPath: "/blog/post", wantChanged: true},
		{name: "single dot", input: "/blog/./post", wantPath: "/blog/post", wantChanged: true},
		{name: "double dot", input: "/blog/posts/../other", wantPath: "/blog/other", wantChanged: true},
		{name: "double dot to root", input: "/blog/../", wantPath: "/", wantChanged: true},
		{name: "search kept", input: "/users/42?tab=posts", wantPath: "/users/42", wantSearch: "?tab=posts"},
		{name: "empty search dropped", input: "/about?", wantPath: "/about"},
		{name: "fragment dropped", input: "/about#team", wantPath: "/about"},
		{name: "valid escape", input: "/files/a%20b", wantPath: "/files/a%20b"},
		{name: "backslash", input: "/a\\b", wantErr: ErrBackslashInPath},
		{name: "null byte", input: "/a%00b", wantErr: ErrNullByteInPath},
		{name: "bad escape", input: "/a%zz", wantErr: ErrInvalidPercentEscape},
		{name: "short escape", input: "/a%2", wantErr: ErrInvalidPercentEscape},
		{name: "escapes root", input: "/../secret", wantErr: ErrPathEscapesRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Canonicalize(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Canonicalize(%q) unexpected error: %v", tt.input, err)
			}
			if got.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", got.Path, tt.wantPath)
			}
			if got.Search != tt.wantSearch {
				t.Errorf("Search = %q, want %q", got.Search, tt.wantSearch)
			}
			if got.Changed != tt.wantChanged {
				t.Errorf("Changed = %v, want %v", got.Changed, tt.wantChanged)
			}
		})
	}
}

func TestResultURL(t *testing.T) {
	r, err := Canonicalize("/users/42/?tab=posts")
	if err != nil {
		t.Fatal(err)
	}
	if got := r.URL(); got != "/users/42?tab=posts" {
		t.Errorf("URL() = %q", got)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in, path, search string
	}{
		{"/a", "/a", ""},
		{"/a?x=1", "/a", "?x=1"},
		{"/a?", "/a", ""},
		{"/a?x=1#frag", "/a", "?x=1"},
	}
	for _, tt := range tests {
		p, s := Split(tt.in)
		if p != tt.path || s != tt.search {
			t.Errorf("Split(%q) = (%q, %q), want (%q, %q)", tt.in, p, s, tt.path, tt.search)
		}
	}
}

func TestSegments(t *testing.T) {
	if got := Segments("/"); got != nil {
		t.Errorf("Segments(/) = %v, want nil", got)
	}
	if got := Segments("/users/42"); !reflect.DeepEqual(got, []string{"users", "42"}) {
		t.Errorf("Segments = %v", got)
	}
}

func TestDecodeSegment(t *testing.T) {
	got, err := DecodeSegment("a%20b", false)
	if err != nil || got != "a b" {
		t.Errorf("DecodeSegment = %q, %v", got, err)
	}
	if _, err := DecodeSegment("a%2Fb", false); !errors.Is(err, ErrEncodedSlash) {
		t.Errorf("encoded slash error = %v", err)
	}
	got, err = DecodeSegment("a%2Fb", true)
	if err != nil || got != "a/b" {
		t.Errorf("DecodeSegment(allowSlash) = %q, %v", got, err)
	}
}
