package template

import (
	"errors"
	"reflect"
	"strings"

	"github.com/xy-planning-network/canopy/route"
)

var (
	endpointType = reflect.TypeOf(route.Endpoint{})
	fragmentType = reflect.TypeOf(Fragment{})
	boolType     = reflect.TypeOf(false)
	intType      = reflect.TypeOf(0)
	stringType   = reflect.TypeOf("")
)

// A Bound is a Tree whose every name has been resolved against an Env.
// A Bound is immutable and safe to render concurrently.
type Bound struct {
	tree  *Tree
	env   *Env
	calls map[*Call]callee
}

// Tree returns the *Tree the Bound was bound from.
func (b *Bound) Tree() *Tree { return b.tree }

// callee is what a Call resolved to when binding.
type callee struct {
	fn      reflect.Value
	builder *route.Builder
}

// scope is a link in the chain of names visible at a point of a Tree.
type scope struct {
	names  map[string]reflect.Type
	parent *scope
}

func (s *scope) lookup(name string) (reflect.Type, bool) {
	for ; s != nil; s = s.parent {
		if t, ok := s.names[name]; ok {
			return t, true
		}
	}

	return nil, false
}

func (s *scope) with(names map[string]reflect.Type) *scope {
	return &scope{names: names, parent: s}
}

type binder struct {
	tree  *Tree
	env   *Env
	calls map[*Call]callee
	errs  []error
}

// Bind resolves every expression and action directive of tree against env.
//
// Bind never evaluates an expression and never modifies tree.
// All failures found are joined into the returned error;
// each is a *BindError.
func Bind(tree *Tree, env *Env) (*Bound, error) {
	if env == nil {
		env = NewEnv()
	}

	b := &binder{tree: tree, env: env, calls: make(map[*Call]callee)}
	b.nodes(tree.Nodes, (*scope)(nil).with(env.vars))
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	return &Bound{tree: tree, env: env, calls: b.calls}, nil
}

func (b *binder) fail(kind BindErrorKind, offset int, name, expected, got string) {
	line, col := b.tree.Source.position(offset)
	b.errs = append(b.errs, &BindError{
		Kind:     kind,
		Name:     name,
		Expected: expected,
		Got:      got,
		Source:   b.tree.Source.ID,
		Offset:   offset,
		Line:     line,
		Col:      col,
	})
}

func (b *binder) nodes(nodes []Node, sc *scope) {
	for _, n := range nodes {
		b.node(n, sc)
	}
}

func (b *binder) node(n Node, sc *scope) {
	switch n := n.(type) {
	case *Text, *Doctype:

	case *Expression:
		b.expr(n.X, sc)

	case *Element:
		for _, a := range n.Attrs {
			if a.Kind == AttrExpr {
				b.expr(a.Expr, sc)
			}
		}

		for _, d := range n.Directives {
			b.directive(d, sc)
		}

		b.nodes(n.Children, sc)

	case *If:
		b.expr(n.Cond, sc)
		b.nodes(n.Then, sc)
		b.nodes(n.Else, sc)

	case *For:
		b.forNode(n, sc)

	case *Match:
		b.match(n, sc)

	case *Component:
		b.component(n, sc)
	}
}

func (b *binder) directive(d *ActionDirective, sc *scope) {
	t := b.expr(d.Endpoint, sc)
	if t != nil && t != endpointType {
		b.fail(NotEndpoint, d.Endpoint.Pos(), d.Endpoint.String(), endpointType.String(), t.String())
		return
	}

	// NOTE(dlk): look through ep.WithQuery(...) and the like
	// to the builder call producing the Endpoint
	x := d.Endpoint
	for {
		call, ok := x.(*Call)
		if !ok {
			return
		}

		if sel, ok := call.Fn.(*Selector); ok {
			x = sel.X
			continue
		}

		if c, ok := b.calls[call]; ok && c.builder != nil && c.builder.Method() != d.Verb.Method() {
			b.fail(VerbMismatch, call.Pos(), c.builder.Name(), d.Verb.Method(), c.builder.Method())
		}
		return
	}
}

func (b *binder) forNode(n *For, sc *scope) {
	var index, elem reflect.Type
	if t := b.expr(n.Iter, sc); t != nil {
		switch t.Kind() {
		case reflect.Slice, reflect.Array:
			index, elem = intType, t.Elem()
		case reflect.Map:
			index, elem = t.Key(), t.Elem()
		default:
			b.fail(NotIterable, n.Iter.Pos(), n.Iter.String(), "slice, array or map", t.String())
		}
	}

	names := make(map[string]reflect.Type)
	if n.Binding != "_" {
		names[n.Binding] = elem
	}

	if n.Index != "" && n.Index != "_" {
		names[n.Index] = index
	}

	b.nodes(n.Body, sc.with(names))
}

func (b *binder) match(n *Match, sc *scope) {
	t := b.expr(n.Scrutinee, sc)
	for _, arm := range n.Arms {
		switch arm.Kind {
		case PatternLiteral:
			if t != nil && !literalFits(arm.Literal, t) {
				b.fail(ArgMismatch, arm.Offset, n.Scrutinee.String(), t.String(), reflect.TypeOf(arm.Literal).String())
			}
			b.nodes(arm.Body, sc)

		case PatternBinding:
			b.nodes(arm.Body, sc.with(map[string]reflect.Type{arm.Binding: t}))

		default:
			b.nodes(arm.Body, sc)
		}
	}
}

func literalFits(lit any, t reflect.Type) bool {
	if t.Kind() == reflect.Interface {
		return true
	}

	switch lit.(type) {
	case int:
		return isNumeric(t)
	case string:
		return t.Kind() == reflect.String
	case bool:
		return t.Kind() == reflect.Bool
	default:
		return false
	}
}

func (b *binder) component(n *Component, sc *scope) {
	var (
		cenv *Env
		ok   bool
	)
	if b.env.components != nil {
		cenv, ok = b.env.components.ComponentEnv(n.Name)
	}

	if !ok {
		b.fail(UnknownName, n.Offset, n.Name, "", "")
		b.nodes(n.Children, sc)
		return
	}

	for _, prop := range n.Props {
		pt, declared := cenv.vars[prop.Name]
		if !declared {
			b.fail(UnknownName, prop.Offset, n.Name+"."+prop.Name, "", "")
			continue
		}

		var at reflect.Type
		switch prop.Kind {
		case AttrLiteral:
			at = stringType
		case AttrBare:
			at = boolType
		case AttrExpr:
			at = b.expr(prop.Expr, sc)
		}

		if !assignable(at, pt, prop.Expr) {
			b.fail(ArgMismatch, prop.Offset, n.Name+"."+prop.Name, pt.String(), at.String())
		}
	}

	if len(n.Children) > 0 {
		if _, declared := cenv.vars["children"]; !declared {
			b.fail(UnknownName, n.Offset, n.Name+".children", "", "")
		}
	}

	b.nodes(n.Children, sc)
}

// expr returns the static type of x, or nil when it is only known at render time.
func (b *binder) expr(x Expr, sc *scope) reflect.Type {
	t := b.exprType(x, sc)
	if t != nil && t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return nil
	}

	return t
}

func (b *binder) exprType(x Expr, sc *scope) reflect.Type {
	switch x := x.(type) {
	case *Ident:
		t, ok := sc.lookup(x.Name)
		if !ok {
			b.fail(UnknownName, x.Offset, x.Name, "", "")
			return nil
		}
		return t

	case *IntLit:
		return intType

	case *StringLit:
		return stringType

	case *BoolLit:
		return boolType

	case *NilLit:
		return nil

	case *Selector:
		xt := b.expr(x.X, sc)
		if xt == nil {
			return nil
		}

		t, ok := selectorType(xt, x.Sel)
		if !ok {
			b.fail(UnknownName, x.Offset, x.String(), "", xt.String())
		}
		return t

	case *Call:
		return b.call(x, sc)

	case *Unary:
		t := b.expr(x.X, sc)
		if x.Op == "!" {
			return boolType
		}

		if t != nil && !isNumeric(t) {
			b.fail(ArgMismatch, x.Offset, x.String(), "number", t.String())
			return nil
		}
		return t

	case *Binary:
		return b.binary(x, sc)

	default:
		return nil
	}
}

func (b *binder) binary(x *Binary, sc *scope) reflect.Type {
	lt := b.expr(x.X, sc)
	rt := b.expr(x.Y, sc)

	switch x.Op {
	case "&&", "||", "==", "!=":
		return boolType

	case "<", "<=", ">", ">=":
		for _, t := range []reflect.Type{lt, rt} {
			if t != nil && !isNumeric(t) && t.Kind() != reflect.String {
				b.fail(ArgMismatch, x.Offset, x.String(), "number or string", t.String())
			}
		}
		return boolType

	default:
		if lt == nil || rt == nil {
			return nil
		}

		switch {
		case x.Op == "+" && lt.Kind() == reflect.String && rt.Kind() == reflect.String:
			return stringType
		case isNumeric(lt) && isNumeric(rt):
			if _, ok := x.X.(*IntLit); ok {
				return rt
			}
			return lt
		}

		b.fail(ArgMismatch, x.Offset, x.String(), lt.String(), rt.String())
		return nil
	}
}

func (b *binder) call(x *Call, sc *scope) reflect.Type {
	switch fn := x.Fn.(type) {
	case *Ident:
		if _, shadowed := sc.lookup(fn.Name); !shadowed {
			if v, ok := b.fn(fn.Name); ok {
				b.calls[x] = callee{fn: v}
				return b.checkArgs(x, fn.Name, v.Type(), 0, sc)
			}

			if b.env.builders != nil {
				if rb, ok := b.env.builders.Builder(fn.Name); ok {
					b.calls[x] = callee{builder: rb}
					b.checkBuilderArgs(x, rb, sc)
					return endpointType
				}
			}
		}

		b.fail(UnknownName, fn.Offset, fn.Name, "", "")
		b.argTypes(x.Args, sc)
		return nil

	case *Selector:
		xt := b.expr(fn.X, sc)
		if xt == nil {
			b.argTypes(x.Args, sc)
			return nil
		}

		m, skip, ok := methodType(xt, fn.Sel)
		if !ok {
			b.fail(UnknownName, fn.Offset, fn.String(), "", xt.String())
			b.argTypes(x.Args, sc)
			return nil
		}

		if m == nil {
			b.argTypes(x.Args, sc)
			return nil
		}
		return b.checkArgs(x, fn.String(), m, skip, sc)

	default:
		b.fail(ArgMismatch, x.Offset, x.Fn.String(), "function", "value")
		b.argTypes(x.Args, sc)
		return nil
	}
}

func (b *binder) fn(name string) (reflect.Value, bool) {
	if v, ok := b.env.fns[name]; ok {
		return v, true
	}

	v, ok := builtins[name]
	return v, ok
}

func (b *binder) argTypes(args []Expr, sc *scope) []reflect.Type {
	types := make([]reflect.Type, len(args))
	for i, a := range args {
		types[i] = b.expr(a, sc)
	}

	return types
}

// checkArgs checks the arguments of x against ft, skipping its first skip parameters,
// and returns the type of the first result.
func (b *binder) checkArgs(x *Call, name string, ft reflect.Type, skip int, sc *scope) reflect.Type {
	types := b.argTypes(x.Args, sc)

	var params []reflect.Type
	for i := skip; i < ft.NumIn(); i++ {
		params = append(params, ft.In(i))
	}

	ok := len(types) == len(params)
	if ft.IsVariadic() {
		ok = len(types) >= len(params)-1
	}

	for i := 0; ok && i < len(types); i++ {
		pt := params[min(i, len(params)-1)]
		if ft.IsVariadic() && i >= len(params)-1 {
			pt = pt.Elem()
		}
		ok = assignable(types[i], pt, x.Args[i])
	}

	if !ok {
		b.fail(ArgMismatch, x.Offset, name, typeList(params), typeList(types))
	}

	if !validFnOut(ft) {
		b.fail(ArgMismatch, x.Offset, name, "a value, or a value and an error", typeList(outTypes(ft)))
		return nil
	}

	return ft.Out(0)
}

func (b *binder) checkBuilderArgs(x *Call, rb *route.Builder, sc *scope) {
	types := b.argTypes(x.Args, sc)
	sig := rb.Signature()

	ok := len(types) == len(sig)
	for i := 0; ok && i < len(types); i++ {
		ok = types[i] == nil || types[i].Kind() == reflect.Interface || sig[i].Type.Accepts(types[i])
	}

	if !ok {
		b.fail(BuilderArgMismatch, x.Offset, rb.Name(), sig.String(), typeList(types))
	}
}

// assignable reports whether a value of static type at may be passed as pt.
// x is the expression producing the value, if any, so untyped literals convert.
func assignable(at, pt reflect.Type, x Expr) bool {
	if at == nil || pt == nil {
		return true
	}

	if at.AssignableTo(pt) {
		return true
	}

	if n, ok := intLit(x); ok && isNumeric(pt) {
		return fits(reflect.ValueOf(n), pt)
	}

	return false
}

// intLit returns the value of an integer literal, negated or not.
func intLit(x Expr) (int64, bool) {
	switch x := x.(type) {
	case *IntLit:
		return int64(x.Value), true
	case *Unary:
		if lit, ok := x.X.(*IntLit); ok && x.Op == "-" {
			return -int64(lit.Value), true
		}
	}

	return 0, false
}

func isNumeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// selectorType resolves sel on t as a zero-argument method, field or map key.
// A nil type with ok reports a selector only resolvable at render time.
func selectorType(t reflect.Type, sel string) (reflect.Type, bool) {
	if m, skip, ok := methodType(t, sel); ok {
		if m == nil {
			return nil, true
		}

		if m.NumIn() != skip || !validFnOut(m) {
			return nil, false
		}
		return m.Out(0), true
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Interface:
		return nil, true

	case reflect.Struct:
		f, ok := t.FieldByName(sel)
		if !ok || !f.IsExported() {
			return nil, false
		}
		return f.Type, true

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, false
		}
		return t.Elem(), true

	default:
		return nil, false
	}
}

// methodType finds the method sel on t or *t,
// returning its func type and how many leading receiver parameters to skip.
// Methods of interfaces without the method resolve at render time, reported as a nil type.
func methodType(t reflect.Type, sel string) (reflect.Type, int, bool) {
	if t.Kind() == reflect.Interface {
		m, ok := t.MethodByName(sel)
		if !ok {
			return nil, 0, true
		}
		return m.Type, 0, true
	}

	for _, candidate := range []reflect.Type{t, reflect.PointerTo(t)} {
		if m, ok := candidate.MethodByName(sel); ok {
			return m.Type, 1, true
		}
	}

	if t.Kind() == reflect.Pointer {
		return methodType(t.Elem(), sel)
	}

	return nil, 0, false
}

func typeList(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		if t == nil {
			names[i] = "?"
			continue
		}
		names[i] = t.String()
	}

	return strings.Join(names, ", ")
}

func outTypes(ft reflect.Type) []reflect.Type {
	out := make([]reflect.Type, ft.NumOut())
	for i := range out {
		out[i] = ft.Out(i)
	}

	return out
}
