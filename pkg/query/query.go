// Package query converts between search strings and flat key/value maps.
//
// The encoding follows application/x-www-form-urlencoded as browsers apply it
// to location.search: "+" decodes to a space, a key without "=" has an empty
// value, and when a key repeats the last value wins.
//
//	q := query.Parse("?tab=posts&sort=new")
//	q = query.Merge(q, query.Patch{"tab": nil, "page": query.Value("2")})
//	query.Stringify(q) // "?page=2&sort=new"
package query

import (
	"net/url"
	"sort"
	"strings"
)

// Patch describes a query update. A nil value removes the key; keys not
// present in the patch are left as they are.
type Patch map[string]*string

// Value returns a pointer to s for use in a Patch.
func Value(s string) *string {
	return &s
}

// Parse parses a search string with or without its leading "?".
// Pairs that cannot be decoded are skipped.
func Parse(search string) map[string]string {
	search = strings.TrimPrefix(search, "?")
	out := make(map[string]string)
	if search == "" {
		return out
	}

	for _, pair := range strings.Split(search, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}
		out[key] = value
	}
	return out
}

// Stringify encodes m as a "?"-prefixed search string with keys in sorted
// order. An empty map yields "".
func Stringify(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(m[k]))
	}
	return b.String()
}

// StringifyPatch encodes only the non-nil entries of p.
func StringifyPatch(p Patch) string {
	m := make(map[string]string, len(p))
	for k, v := range p {
		if v != nil {
			m[k] = *v
		}
	}
	return Stringify(m)
}

// Merge applies patch to a copy of current and returns it. current is not
// modified.
func Merge(current map[string]string, patch Patch) map[string]string {
	out := make(map[string]string, len(current)+len(patch))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = *v
	}
	return out
}
