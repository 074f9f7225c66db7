package query

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"question mark only", "?", map[string]string{}},
		{"single", "?tab=posts", map[string]string{"tab": "posts"}},
		{"without prefix", "tab=posts&sort=new", map[string]string{"tab": "posts", "sort": "new"}},
		{"empty value", "?q=", map[string]string{"q": ""}},
		{"bare key", "?flag", map[string]string{"flag": ""}},
		{"plus is space", "?q=hello+world", map[string]string{"q": "hello world"}},
		{"escapes", "?q=a%26b%3Dc", map[string]string{"q": "a&b=c"}},
		{"last wins", "?a=1&a=2", map[string]string{"a": "2"}},
		{"empty pairs", "?&a=1&&", map[string]string{"a": "1"}},
		{"bad escape skipped", "?a=%zz&b=1", map[string]string{"b": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.search)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.search, got, tt.want)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]string
		want string
	}{
		{"nil", nil, ""},
		{"empty", map[string]string{}, ""},
		{"sorted", map[string]string{"sort": "new", "tab": "posts"}, "?sort=new&tab=posts"},
		{"empty value", map[string]string{"q": ""}, "?q="},
		{"escaped", map[string]string{"q": "a&b c"}, "?q=a%26b+c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Stringify(tt.in); got != tt.want {
				t.Errorf("Stringify(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"?a=1",
		"?q=&flag",
		"?q=hello+world&x=%2F%3F%23",
		"?unicode=%C3%A9t%C3%A9&a=1&a=2",
		"b=2&a=1",
	}
	for _, s := range inputs {
		first := Parse(s)
		again := Parse(Stringify(first))
		if !reflect.DeepEqual(first, again) {
			t.Errorf("round trip %q: %v != %v", s, first, again)
		}
	}
}

func TestStringifyPatchDropsNil(t *testing.T) {
	p := Patch{"tab": Value("posts"), "gone": nil, "empty": Value("")}
	got := Parse(StringifyPatch(p))
	want := map[string]string{"tab": "posts", "empty": ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse(StringifyPatch) = %v, want %v", got, want)
	}
}

func TestMerge(t *testing.T) {
	current := map[string]string{"tab": "posts", "sort": "new"}

	got := Merge(current, Patch{"tab": nil})
	if want := map[string]string{"sort": "new"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Merge remove = %v, want %v", got, want)
	}

	got = Merge(current, Patch{"page": Value("2"), "sort": Value("old")})
	want := map[string]string{"tab": "posts", "sort": "old", "page": "2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge set = %v, want %v", got, want)
	}

	if current["tab"] != "posts" || len(current) != 2 {
		t.Errorf("Merge modified its input: %v", current)
	}

	if got := Merge(nil, Patch{"x": nil}); len(got) != 0 {
		t.Errorf("Merge(nil) = %v, want empty", got)
	}
}

func TestMergeIdempotent(t *testing.T) {
	current := map[string]string{"tab": "posts", "sort": "new"}
	patch := Patch{"tab": nil, "page": Value("3")}

	once := Merge(current, patch)
	twice := Merge(once, patch)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Merge not idempotent: %v != %v", once, twice)
	}
}
