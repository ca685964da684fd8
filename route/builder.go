package route

import (
	"fmt"
	"net/url"
	"strings"
)

// A Builder constructs Endpoints for a single route.
// A Builder is immutable and safe for concurrent use.
type Builder struct {
	name    string
	method  string
	pattern *Pattern
}

// NewBuilder constructs a *Builder producing Endpoints
// for the route named name, served on method at p.
func NewBuilder(name, method string, p *Pattern) *Builder {
	return &Builder{name: name, method: strings.ToUpper(method), pattern: p}
}

// Name returns the name of the route the Builder constructs Endpoints for.
func (b *Builder) Name() string { return b.name }

// Method returns the HTTP method of the route.
func (b *Builder) Method() string { return b.method }

// Pattern returns the *Pattern of the route.
func (b *Builder) Pattern() *Pattern { return b.pattern }

// Signature returns the ordered parameters Build expects.
func (b *Builder) Signature() Signature { return b.pattern.Signature() }

// Build substitutes args, in order, for the parameters of the route.
//
// Each argument is formatted by its parameter's Type and percent-encoded;
// literal segments pass through unchanged.
// The resulting Endpoint has exactly the segment shape of the Pattern.
func (b *Builder) Build(args ...any) (Endpoint, error) {
	sig := b.Signature()
	if err := sig.check(b.name, args); err != nil {
		return Endpoint{}, err
	}

	var sb strings.Builder
	arg := 0
	for _, seg := range b.pattern.Segments {
		sb.WriteByte('/')
		if seg.Kind == LiteralSegment {
			sb.WriteString(url.PathEscape(seg.Literal))
			continue
		}

		s, err := seg.Type.Format(args[arg])
		if err != nil {
			return Endpoint{}, &BuilderError{Route: b.name, Expected: sig, Got: typeNames(args), Param: seg.Name, Err: err}
		}
		arg++

		if seg.Kind == CatchAllSegment {
			pieces := strings.Split(s, "/")
			for i, piece := range pieces {
				pieces[i] = url.PathEscape(piece)
			}
			sb.WriteString(strings.Join(pieces, "/"))
			continue
		}

		sb.WriteString(url.PathEscape(s))
	}

	path := sb.String()
	if path == "" {
		path = "/"
	}

	return Endpoint{method: b.method, route: b.name, path: path}, nil
}

// MustBuild calls Build, panicking on error.
// MustBuild suits call sites whose arguments are fixed in Go code.
func (b *Builder) MustBuild(args ...any) Endpoint {
	ep, err := b.Build(args...)
	if err != nil {
		panic(err)
	}

	return ep
}

// Check validates args against the Signature without building anything.
func (s Signature) Check(args ...any) error {
	return s.check("", args)
}

func (s Signature) check(name string, args []any) error {
	if len(args) != len(s) {
		return &BuilderError{Route: name, Expected: s, Got: typeNames(args)}
	}

	for i, p := range s {
		if _, err := p.Type.Format(args[i]); err != nil {
			return &BuilderError{Route: name, Expected: s, Got: typeNames(args), Param: p.Name, Err: err}
		}
	}

	return nil
}

func typeNames(args []any) []string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = fmt.Sprintf("%T", a)
	}

	return names
}
