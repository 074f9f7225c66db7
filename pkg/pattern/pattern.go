// Package pattern compiles route patterns and matches pathnames against them.
//
// Pattern syntax:
//
//	/about          literal segments
//	/users/:id      :name captures exactly one non-empty segment
//	/files/*rest    *name, last segment only, captures the non-empty remainder
//
// Matching is segment-count exact unless the pattern ends in a catch-all.
// A Table preserves definition order and the first pattern that matches wins.
package pattern

import (
	stderrors "errors"
	"strings"

	"github.com/vango-dev/routestate/internal/errors"
	"github.com/vango-dev/routestate/pkg/routepath"
)

// ErrInvalidPattern is wrapped by every compile error.
var ErrInvalidPattern = stderrors.New("invalid route pattern")

type segmentKind uint8

const (
	literal segmentKind = iota
	param
	catchAll
)

type segment struct {
	kind  segmentKind
	value string // literal text or parameter name
}

// Pattern is a compiled route pattern. It is immutable and safe for
// concurrent use.
type Pattern struct {
	raw      string
	segments []segment
	names    []string
}

// Compile parses a single pattern.
func Compile(raw string) (*Pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return nil, invalid("R101", raw, "pattern must start with \"/\"")
	}

	p := &Pattern{raw: raw}
	parts := routepath.Segments(raw)
	seen := make(map[string]bool, len(parts))

	for i, part := range parts {
		if part == "" {
			return nil, invalid("R101", raw, "pattern has an empty segment")
		}

		var seg segment
		switch part[0] {
		case ':':
			seg = segment{kind: param, value: part[1:]}
		case '*':
			if i != len(parts)-1 {
				return nil, invalid("R103", raw, "catch-all "+part+" is followed by more segments")
			}
			seg = segment{kind: catchAll, value: part[1:]}
		default:
			decoded, err := routepath.DecodeSegment(part, false)
			if err != nil {
				return nil, invalid("R101", raw, "literal segment "+part+" is not a valid path segment: "+err.Error())
			}
			p.segments = append(p.segments, segment{kind: literal, value: decoded})
			continue
		}

		if !validName(seg.value) {
			return nil, invalid("R101", raw, "parameter name "+quote(seg.value)+" must be non-empty letters, digits or underscores")
		}
		if seen[seg.value] {
			return nil, invalid("R102", raw, "parameter "+quote(seg.value)+" appears more than once")
		}
		seen[seg.value] = true
		p.segments = append(p.segments, seg)
		p.names = append(p.names, seg.value)
	}
	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(raw string) *Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source pattern.
func (p *Pattern) String() string {
	return p.raw
}

// Names returns the parameter names in declaration order.
func (p *Pattern) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Match reports whether pathname matches p and returns the captured
// parameters. pathname is canonicalized first, so "/users/42/" matches
// "/users/:id".
func (p *Pattern) Match(pathname string) (map[string]string, bool) {
	canon, err := routepath.Canonicalize(pathname)
	if err != nil {
		return nil, false
	}
	return p.match(routepath.Segments(canon.Path))
}

func (p *Pattern) match(parts []string) (map[string]string, bool) {
	params := make(map[string]string, len(p.names))

	for i, seg := range p.segments {
		if seg.kind == catchAll {
			if i >= len(parts) {
				return nil, false
			}
			rest, err := routepath.DecodeSegment(strings.Join(parts[i:], "/"), true)
			if err != nil {
				return nil, false
			}
			params[seg.value] = rest
			return params, true
		}

		if i >= len(parts) {
			return nil, false
		}
		decoded, err := routepath.DecodeSegment(parts[i], false)
		if err != nil {
			return nil, false
		}

		switch seg.kind {
		case literal:
			if decoded != seg.value {
				return nil, false
			}
		case param:
			if decoded == "" {
				return nil, false
			}
			params[seg.value] = decoded
		}
	}

	if len(parts) != len(p.segments) {
		return nil, false
	}
	return params, true
}

// Table is an ordered list of compiled patterns.
type Table struct {
	patterns []*Pattern
}

// Result is a successful table lookup.
type Result struct {
	// Index is the position of the matching pattern in the table.
	Index int

	// Pattern is the matching pattern.
	Pattern *Pattern

	// Params are the captured parameters. Never nil.
	Params map[string]string
}

// CompileTable compiles patterns in order. The first error aborts.
func CompileTable(raws ...string) (*Table, error) {
	t := &Table{patterns: make([]*Pattern, 0, len(raws))}
	for _, raw := range raws {
		p, err := Compile(raw)
		if err != nil {
			return nil, err
		}
		t.patterns = append(t.patterns, p)
	}
	return t, nil
}

// Len returns the number of patterns in the table.
func (t *Table) Len() int {
	return len(t.patterns)
}

// Match returns the first pattern matching pathname.
func (t *Table) Match(pathname string) (Result, bool) {
	canon, err := routepath.Canonicalize(pathname)
	if err != nil {
		return Result{}, false
	}
	parts := routepath.Segments(canon.Path)

	for i, p := range t.patterns {
		if params, ok := p.match(parts); ok {
			return Result{Index: i, Pattern: p, Params: params}, true
		}
	}
	return Result{}, false
}

func invalid(code, raw, detail string) *errors.Error {
	return errors.New(code).WithDetailf("%s: %s", quote(raw), detail).Wrap(ErrInvalidPattern)
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

func quote(s string) string {
	return `"` + s + `"`
}
