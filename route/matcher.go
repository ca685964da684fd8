package route

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Values holds the typed parameter values a Matcher extracted from a path.
type Values map[string]any

// Int returns the value of an int parameter.
func (v Values) Int(name string) (int, bool) {
	n, ok := v[name].(int)
	return n, ok
}

// String returns the value of a string or path parameter.
func (v Values) String(name string) (string, bool) {
	s, ok := v[name].(string)
	return s, ok
}

// UUID returns the value of a uuid parameter.
func (v Values) UUID(name string) (uuid.UUID, bool) {
	u, ok := v[name].(uuid.UUID)
	return u, ok
}

// A Matcher tests request paths against a compiled Pattern.
// A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	pattern *Pattern
}

// Pattern returns the *Pattern the Matcher was compiled from.
func (m *Matcher) Pattern() *Pattern { return m.pattern }

// Match reports whether path fits the Pattern, extracting typed Values if so.
//
// path is expected in its escaped form, e.g., *url.URL.EscapedPath().
// Each segment is unescaped before comparison or parsing.
// The segment count must match exactly unless the Pattern ends in a catch-all,
// which consumes one or more remaining segments.
// A failed match is not an error: the caller tries the next candidate.
func (m *Matcher) Match(path string) (Values, bool) {
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}

	trimmed := strings.TrimPrefix(path, "/")
	if trimmed != "" {
		trimmed = strings.TrimSuffix(trimmed, "/")
	}

	segs := m.pattern.Segments
	if trimmed == "" {
		return Values{}, len(segs) == 0
	}

	pieces := strings.Split(trimmed, "/")
	if m.pattern.catchAll() {
		if len(pieces) < len(segs) {
			return nil, false
		}
	} else if len(pieces) != len(segs) {
		return nil, false
	}

	vals := make(Values)
	for i, seg := range segs {
		if seg.Kind == CatchAllSegment {
			rest := make([]string, 0, len(pieces)-i)
			for _, piece := range pieces[i:] {
				un, err := url.PathUnescape(piece)
				if err != nil {
					return nil, false
				}
				rest = append(rest, un)
			}

			v, err := seg.Type.Parse(strings.Join(rest, "/"))
			if err != nil {
				return nil, false
			}

			vals[seg.Name] = v
			break
		}

		piece, err := url.PathUnescape(pieces[i])
		if err != nil {
			return nil, false
		}

		switch seg.Kind {
		case LiteralSegment:
			if piece != seg.Literal {
				return nil, false
			}
		case ParamSegment:
			v, err := seg.Type.Parse(piece)
			if err != nil {
				return nil, false
			}
			vals[seg.Name] = v
		}
	}

	return vals, true
}
