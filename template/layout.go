package template

import (
	"context"
	"io/fs"
	"sync"
)

// DefaultHTMXSrc is where the default layout loads htmx from.
const DefaultHTMXSrc = "https://unpkg.com/htmx.org@1.9.12"

const (
	// LayoutID is the layout template embedded in the package.
	// A file at the same path in a Set's filesystem replaces it.
	// Declare it with LayoutEnv.
	LayoutID = "tmpl/layout.html"

	// ErrorID is the template embedded in the package rendering unexpected errors.
	// Declare it with ErrorEnv.
	ErrorID = "tmpl/error.html"

	defaultLayoutID = LayoutID
)

// A Layout wraps the body of a Page into a complete document.
type Layout interface {
	Wrap(ctx context.Context, p Page) (Fragment, error)
}

// A Page is a Fragment rendered as a complete document.
type Page struct {
	Title string
	Body  Fragment

	// Layout wraps Body; DefaultLayout when nil.
	Layout Layout

	// Values are passed to the Layout alongside the title and body.
	Values Values
}

// Render wraps p.Body with p.Layout.
func (p Page) Render(ctx context.Context) (Fragment, error) {
	l := p.Layout
	if l == nil {
		var err error
		if l, err = DefaultLayout(); err != nil {
			return Fragment{}, err
		}
	}

	return l.Wrap(ctx, p)
}

// LayoutEnv returns the Env layouts are bound with:
// title and htmx_src strings and the body Fragment, plus opts.
func LayoutEnv(opts ...EnvOptFn) *Env {
	return NewEnv(
		Var[string]("title"),
		Var[Fragment]("body"),
		Var[string]("htmx_src"),
	).With(opts...)
}

// ErrorEnv returns the Env error templates are bound with:
// contact and error strings, plus opts.
func ErrorEnv(opts ...EnvOptFn) *Env {
	return NewEnv(
		Var[string]("contact"),
		Var[string]("error"),
	).With(opts...)
}

// A BoundLayout is a Layout rendering a template bound with LayoutEnv.
type BoundLayout struct {
	bound   *Bound
	htmxSrc string
}

// A LayoutOptFn is a functional option configuring a BoundLayout when constructing a new one.
type LayoutOptFn func(*BoundLayout)

// WithHTMXSrc sets where the layout loads htmx from.
func WithHTMXSrc(src string) LayoutOptFn {
	return func(l *BoundLayout) {
		l.htmxSrc = src
	}
}

// NewLayout constructs a *BoundLayout rendering b.
func NewLayout(b *Bound, opts ...LayoutOptFn) *BoundLayout {
	l := &BoundLayout{bound: b, htmxSrc: DefaultHTMXSrc}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Wrap renders p with the layout template.
func (l *BoundLayout) Wrap(ctx context.Context, p Page) (Fragment, error) {
	vals := make(Values, len(p.Values)+3)
	for k, v := range p.Values {
		vals[k] = v
	}
	vals["title"] = p.Title
	vals["body"] = p.Body
	vals["htmx_src"] = l.htmxSrc

	return l.bound.Render(ctx, vals)
}

var defaultLayout = sync.OnceValues(func() (*BoundLayout, error) {
	text, err := fs.ReadFile(pkgFS, defaultLayoutID)
	if err != nil {
		return nil, err
	}

	tree, err := Parse(Source{ID: defaultLayoutID, Text: string(text)})
	if err != nil {
		return nil, err
	}

	b, err := Bind(tree, LayoutEnv())
	if err != nil {
		return nil, err
	}

	return NewLayout(b), nil
})

// DefaultLayout returns the Layout embedded in the package:
// a doctype, charset and viewport meta tags, the title, and the htmx script tag.
func DefaultLayout() (*BoundLayout, error) {
	return defaultLayout()
}
