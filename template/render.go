package template

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/xy-planning-network/canopy/hx"
	"github.com/xy-planning-network/canopy/route"
)

// maxDepth bounds how deeply components may render one another.
const maxDepth = 32

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

type renderer struct {
	ctx   context.Context
	bound *Bound
	vals  Values
	buf   *bytes.Buffer
	depth int
}

// Render evaluates b against vals.
//
// Render is deterministic: the same vals always produce the same Fragment.
// Maps are iterated in sorted key order.
// Failures are returned as a *RenderError.
func (b *Bound) Render(ctx context.Context, vals Values) (Fragment, error) {
	return b.render(ctx, vals, 0)
}

func (b *Bound) render(ctx context.Context, vals Values, depth int) (Fragment, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	r := &renderer{ctx: ctx, bound: b, vals: vals, depth: depth}
	return r.capture(b.tree.Nodes, nil)
}

// capture renders nodes into a pooled buffer and returns the result.
func (r *renderer) capture(nodes []Node, f *frame) (Fragment, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	outer := r.buf
	r.buf = buf
	defer func() { r.buf = outer }()

	if err := r.nodes(nodes, f); err != nil {
		return Fragment{}, err
	}

	return Fragment{html: buf.String()}, nil
}

func (r *renderer) errorf(offset int, err error) error {
	src := r.bound.tree.Source
	line, col := src.position(offset)
	return &RenderError{Source: src.ID, Offset: offset, Line: line, Col: col, Err: err}
}

func (r *renderer) nodes(nodes []Node, f *frame) error {
	for _, n := range nodes {
		if err := r.node(n, f); err != nil {
			return err
		}
	}

	return nil
}

func (r *renderer) node(n Node, f *frame) error {
	switch n := n.(type) {
	case *Doctype:
		r.buf.WriteString("<!" + n.Value + ">")

	case *Text:
		if n.Raw {
			r.buf.WriteString(n.Value)
		} else {
			r.buf.WriteString(escapeText(n.Value))
		}

	case *Expression:
		return r.expression(n, f)

	case *Element:
		return r.element(n, f)

	case *If:
		v, err := r.eval(n.Cond, f)
		if err != nil {
			return err
		}

		if truthy(v) {
			return r.nodes(n.Then, f)
		}
		return r.nodes(n.Else, f)

	case *For:
		return r.forNode(n, f)

	case *Match:
		return r.match(n, f)

	case *Component:
		return r.component(n, f)

	default:
		return r.errorf(n.Pos(), fmt.Errorf("unsupported node %T", n))
	}

	return nil
}

func (r *renderer) expression(n *Expression, f *frame) error {
	v, err := r.eval(n.X, f)
	if err != nil {
		return err
	}

	if frag, ok := v.(Fragment); ok {
		r.buf.WriteString(frag.html)
		return nil
	}

	s, err := stringify(v)
	if err != nil {
		return r.errorf(n.Offset, err)
	}

	if n.Raw {
		r.buf.WriteString(s)
	} else {
		r.buf.WriteString(EscapeHTML(s))
	}

	return nil
}

func (r *renderer) element(n *Element, f *frame) error {
	r.buf.WriteString("<" + n.Tag)
	for _, a := range n.Attrs {
		if err := r.attr(a, f); err != nil {
			return err
		}
	}

	for _, d := range n.Directives {
		v, err := r.eval(d.Endpoint, f)
		if err != nil {
			return err
		}

		ep, ok := v.(route.Endpoint)
		if !ok {
			return r.errorf(d.Offset, fmt.Errorf("%w: %T", ErrNotEndpoint, v))
		}

		for _, a := range hx.Resolve(d.Directive, ep) {
			r.buf.WriteString(" " + a.Name + `="` + EscapeAttr(a.Value) + `"`)
		}
	}
	r.buf.WriteByte('>')

	if n.Void {
		return nil
	}

	if err := r.nodes(n.Children, f); err != nil {
		return err
	}

	r.buf.WriteString("</" + n.Tag + ">")
	return nil
}

func (r *renderer) attr(a Attr, f *frame) error {
	switch a.Kind {
	case AttrBare:
		r.buf.WriteString(" " + a.Name)
		return nil

	case AttrLiteral:
		r.buf.WriteString(" " + a.Name + `="` + escapeText(a.Value) + `"`)
		return nil
	}

	v, err := r.eval(a.Expr, f)
	if err != nil {
		return err
	}

	if isNil(v) {
		return nil
	}

	if booleanAttrs[strings.ToLower(a.Name)] {
		if truthy(v) {
			r.buf.WriteString(" " + a.Name)
		}
		return nil
	}

	var s string
	if frag, ok := v.(Fragment); ok {
		s = strings.ReplaceAll(frag.html, `"`, "&quot;")
	} else {
		raw, err := stringify(v)
		if err != nil {
			return r.errorf(a.Offset, err)
		}
		s = EscapeAttr(raw)
	}

	r.buf.WriteString(" " + a.Name + `="` + s + `"`)
	return nil
}

func (r *renderer) forNode(n *For, f *frame) error {
	v, err := r.eval(n.Iter, f)
	if err != nil {
		return err
	}

	err = iterate(v, func(index, elem any) error {
		if err := r.ctx.Err(); err != nil {
			return err
		}

		names := make(map[string]any, 2)
		if n.Binding != "_" {
			names[n.Binding] = elem
		}
		if n.Index != "" && n.Index != "_" {
			names[n.Index] = index
		}

		return r.nodes(n.Body, f.with(names))
	})

	switch err.(type) {
	case nil, *RenderError:
		return err
	default:
		return r.errorf(n.Offset, err)
	}
}

func (r *renderer) match(n *Match, f *frame) error {
	v, err := r.eval(n.Scrutinee, f)
	if err != nil {
		return err
	}

	for _, arm := range n.Arms {
		switch arm.Kind {
		case PatternWildcard:
			return r.nodes(arm.Body, f)

		case PatternBinding:
			return r.nodes(arm.Body, f.with(map[string]any{arm.Binding: v}))

		case PatternLiteral:
			if equal(v, arm.Literal) {
				return r.nodes(arm.Body, f)
			}
		}
	}

	return nil
}

func (r *renderer) component(n *Component, f *frame) error {
	if err := r.ctx.Err(); err != nil {
		return r.errorf(n.Offset, err)
	}

	if r.depth >= maxDepth {
		return r.errorf(n.Offset, fmt.Errorf("components nested deeper than %d", maxDepth))
	}

	if r.bound.env.components == nil {
		return r.errorf(n.Offset, fmt.Errorf("%w: %s", ErrUnknownName, n.Name))
	}

	comp, err := r.bound.env.components.Component(n.Name)
	if err != nil {
		return r.errorf(n.Offset, err)
	}

	// NOTE(dlk): props left unset render as the zero value of their declared type
	props := make(Values, len(comp.env.vars))
	for name, t := range comp.env.vars {
		if t != nil {
			props[name] = reflect.Zero(t).Interface()
		}
	}

	for _, p := range n.Props {
		switch p.Kind {
		case AttrLiteral:
			props[p.Name] = p.Value
		case AttrBare:
			props[p.Name] = true
		case AttrExpr:
			v, err := r.eval(p.Expr, f)
			if err != nil {
				return err
			}
			props[p.Name] = v
		}
	}

	if len(n.Children) > 0 {
		children, err := r.capture(n.Children, f)
		if err != nil {
			return err
		}
		props["children"] = children
	}

	out, err := comp.render(r.ctx, props, r.depth+1)
	if err != nil {
		return err
	}

	r.buf.WriteString(out.html)
	return nil
}
