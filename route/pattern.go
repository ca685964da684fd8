package route

import (
	"fmt"
	"strings"
)

// SegmentKind distinguishes the segments of a Pattern.
type SegmentKind int

const (
	LiteralSegment SegmentKind = iota
	ParamSegment
	CatchAllSegment
)

// A Segment is one "/"-separated piece of a Pattern.
type Segment struct {
	Kind    SegmentKind
	Literal string
	Name    string
	Type    Type
}

// A Pattern is a parsed path pattern, e.g., "/items/{id:int}".
type Pattern struct {
	Raw      string
	Segments []Segment
}

// Signature returns the ordered typed parameters of the Pattern.
func (p *Pattern) Signature() Signature {
	sig := make(Signature, 0, len(p.Segments))
	for _, s := range p.Segments {
		if s.Kind == LiteralSegment {
			continue
		}
		sig = append(sig, Param{Name: s.Name, Type: s.Type})
	}

	return sig
}

func (p *Pattern) catchAll() bool {
	return len(p.Segments) > 0 && p.Segments[len(p.Segments)-1].Kind == CatchAllSegment
}

// A Param is a single named, typed parameter of a Signature.
type Param struct {
	Name string
	Type Type
}

// A Signature is the ordered parameter list a Builder requires.
type Signature []Param

// String renders the Signature as "name int, slug string".
func (s Signature) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = p.Name + " " + p.Type.Name()
	}

	return strings.Join(parts, ", ")
}

// Names returns the parameter names in order.
func (s Signature) Names() []string {
	names := make([]string, len(s))
	for i, p := range s {
		names[i] = p.Name
	}

	return names
}

// A Compiler turns raw patterns into Patterns, Matchers and Signatures.
// A Compiler is safe for concurrent use once constructed.
type Compiler struct {
	types map[string]Type
}

// NewCompiler constructs a *Compiler knowing the int (alias integer),
// string, uuid and path parameter types.
func NewCompiler(opts ...CompilerOptFn) *Compiler {
	c := &Compiler{types: defaultTypes()}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

var defaultCompiler = NewCompiler()

// Compile compiles raw with the default parameter types.
func Compile(raw string) (*Matcher, Signature, error) {
	return defaultCompiler.Compile(raw)
}

// Compile parses raw into a *Matcher and its Signature.
func (c *Compiler) Compile(raw string) (*Matcher, Signature, error) {
	p, err := c.Parse(raw)
	if err != nil {
		return nil, nil, err
	}

	return &Matcher{pattern: p}, p.Signature(), nil
}

// Parse parses raw into a *Pattern.
//
// Patterns begin with "/"; "/" alone is the root.
// A segment is either entirely literal or entirely one parameter,
// written "{name}" or "{name:type}". An untyped parameter is a string.
// A single trailing slash is ignored.
func (c *Compiler) Parse(raw string) (*Pattern, error) {
	malformed := func(seg int, format string, args ...any) error {
		return &RouteError{Kind: Malformed, Pattern: raw, Segment: seg, Msg: fmt.Sprintf(format, args...)}
	}

	if !strings.HasPrefix(raw, "/") {
		return nil, malformed(-1, "must begin with /")
	}

	p := &Pattern{Raw: raw}
	trimmed := strings.TrimPrefix(raw, "/")
	if trimmed != "" {
		trimmed = strings.TrimSuffix(trimmed, "/")
	}

	if trimmed == "" {
		return p, nil
	}

	seen := make(map[string]bool)
	pieces := strings.Split(trimmed, "/")
	for i, piece := range pieces {
		if piece == "" {
			return nil, malformed(i, "empty segment")
		}

		if !strings.ContainsAny(piece, "{}") {
			p.Segments = append(p.Segments, Segment{Kind: LiteralSegment, Literal: piece})
			continue
		}

		if !strings.HasPrefix(piece, "{") || !strings.HasSuffix(piece, "}") || strings.Count(piece, "{") != 1 || strings.Count(piece, "}") != 1 {
			return nil, malformed(i, "parameter must fill the whole segment: %q", piece)
		}

		name, typeName, typed := strings.Cut(piece[1:len(piece)-1], ":")
		if !validName(name) {
			return nil, malformed(i, "invalid parameter name: %q", name)
		}

		if !typed {
			typeName = String.Name()
		}

		t, ok := c.types[typeName]
		if !ok {
			return nil, malformed(i, "unknown parameter type: %q", typeName)
		}

		if seen[name] {
			return nil, &RouteError{Kind: DuplicateParam, Pattern: raw, Segment: i, Msg: fmt.Sprintf("parameter %q declared twice", name)}
		}
		seen[name] = true

		kind := ParamSegment
		if isSpan(t) {
			if i != len(pieces)-1 {
				return nil, malformed(i, "%s parameter %q must be the last segment", t.Name(), name)
			}
			kind = CatchAllSegment
		}

		p.Segments = append(p.Segments, Segment{Kind: kind, Name: name, Type: t})
	}

	return p, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}

	return true
}
