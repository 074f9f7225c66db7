// Package routepath normalizes navigation targets before they are matched.
//
// A pathname with a trailing slash (other than root) is the same route as the
// one without it, repeated slashes collapse, and "." / ".." segments are
// resolved. Inputs that could smuggle a different path past the matcher
// (backslashes, NUL bytes, malformed escapes, ".." above root) are rejected.
package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Result is a canonicalized navigation target.
type Result struct {
	// Path is the canonical pathname, always starting with "/".
	Path string

	// Search is the query string including its leading "?", or "".
	Search string

	// Changed reports whether Path differs from the input pathname.
	Changed bool
}

// URL returns Path followed by Search.
func (r Result) URL() string {
	return r.Path + r.Search
}

// Canonicalization errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
	ErrEncodedSlash         = errors.New("encoded slash in path segment")
)

// Canonicalize normalizes a navigation target of the form "/path?search".
// A "#fragment" suffix is dropped. An empty input is the root path.
func Canonicalize(input string) (Result, error) {
	input, _, _ = strings.Cut(input, "#")
	raw, query, hasQuery := strings.Cut(input, "?")

	if strings.Contains(raw, "\\") {
		return Result{}, ErrBackslashInPath
	}
	if strings.Contains(raw, "\x00") || strings.Contains(strings.ToUpper(raw), "%00") {
		return Result{}, ErrNullByteInPath
	}
	if strings.Contains(raw, "%") && !validEscapes(raw) {
		return Result{}, ErrInvalidPercentEscape
	}

	segments := make([]string, 0, strings.Count(raw, "/"))
	for _, seg := range strings.Split(raw, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				return Result{}, ErrPathEscapesRoot
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}

	path := "/" + strings.Join(segments, "/")
	res := Result{Path: path, Changed: path != raw}
	if hasQuery && query != "" {
		res.Search = "?" + query
	}
	return res, nil
}

// Split returns the pathname and the search string (with "?") of target.
func Split(target string) (pathname, search string) {
	target, _, _ = strings.Cut(target, "#")
	pathname, query, ok := strings.Cut(target, "?")
	if ok && query != "" {
		search = "?" + query
	}
	return pathname, search
}

// Segments returns the raw (still escaped) segments of a canonical path.
// The root path has no segments.
func Segments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// DecodeSegment percent-decodes one path segment. A segment that decodes to
// something containing "/" is rejected unless allowSlash is set.
func DecodeSegment(segment string, allowSlash bool) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if !allowSlash && strings.Contains(decoded, "/") {
		return "", ErrEncodedSlash
	}
	return decoded, nil
}

func validEscapes(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			return false
		}
		i += 2
	}
	return true
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
