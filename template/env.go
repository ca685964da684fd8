package template

import (
	"fmt"
	"reflect"

	"github.com/xy-planning-network/canopy/route"
)

// A BuilderLookup finds the route Builder a template calls by name,
// e.g., item_url(42).
// *route.Table satisfies BuilderLookup.
type BuilderLookup interface {
	Builder(name string) (*route.Builder, bool)
}

// A ComponentLookup finds the templates uppercase tags render.
// *Set satisfies ComponentLookup.
type ComponentLookup interface {
	// ComponentEnv returns the Env the named component is bound with.
	ComponentEnv(name string) (*Env, bool)

	// Component returns the bound template of the named component.
	Component(name string) (*Bound, error)
}

// Values are the runtime values a Bound template renders with.
type Values map[string]any

// An Env declares the names a template may reference and their static types.
//
// Variables of an interface type are checked when rendering instead of binding.
type Env struct {
	vars       map[string]reflect.Type
	fns        map[string]reflect.Value
	builders   BuilderLookup
	components ComponentLookup
}

// An EnvOptFn is a functional option configuring an Env when constructing a new one.
type EnvOptFn func(*Env)

// NewEnv constructs an *Env.
func NewEnv(opts ...EnvOptFn) *Env {
	e := &Env{
		vars: make(map[string]reflect.Type),
		fns:  make(map[string]reflect.Value),
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// With returns a copy of e with opts applied.
func (e *Env) With(opts ...EnvOptFn) *Env {
	c := NewEnv()
	if e != nil {
		for k, v := range e.vars {
			c.vars[k] = v
		}

		for k, v := range e.fns {
			c.fns[k] = v
		}

		c.builders = e.builders
		c.components = e.components
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Var declares name with the static type of T.
func Var[T any](name string) EnvOptFn {
	return WithVarType(name, reflect.TypeOf((*T)(nil)).Elem())
}

// WithVar declares name with the dynamic type of sample.
// A nil sample declares name with an unknown type.
func WithVar(name string, sample any) EnvOptFn {
	var t reflect.Type
	if sample != nil {
		t = reflect.TypeOf(sample)
	}

	return WithVarType(name, t)
}

// WithVarType declares name with type t.
// A nil t declares name with an unknown type.
func WithVarType(name string, t reflect.Type) EnvOptFn {
	return func(e *Env) {
		e.vars[name] = t
	}
}

// WithFn makes fn callable by name.
// fn must be a function returning a single value, or a value and an error.
func WithFn(name string, fn any) EnvOptFn {
	return func(e *Env) {
		v := reflect.ValueOf(fn)
		if v.Kind() != reflect.Func {
			panic(fmt.Sprintf("template: fn %q is %T, not a function", name, fn))
		}

		if !validFnOut(v.Type()) {
			panic(fmt.Sprintf("template: fn %q must return a value, or a value and an error", name))
		}

		e.fns[name] = v
	}
}

// WithBuilders makes the route Builders found by l callable by route name.
func WithBuilders(l BuilderLookup) EnvOptFn {
	return func(e *Env) {
		e.builders = l
	}
}

// WithComponents makes the templates found by l renderable as uppercase tags.
func WithComponents(l ComponentLookup) EnvOptFn {
	return func(e *Env) {
		e.components = l
	}
}

// Names returns the declared variable names with their types.
func (e *Env) Names() map[string]reflect.Type {
	names := make(map[string]reflect.Type, len(e.vars))
	for k, v := range e.vars {
		names[k] = v
	}

	return names
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func validFnOut(t reflect.Type) bool {
	switch t.NumOut() {
	case 1:
		return true
	case 2:
		return t.Out(1) == errorType
	default:
		return false
	}
}

// merge returns a copy of e overlaid with the names, functions and lookups of o.
func (e *Env) merge(o *Env) *Env {
	c := e.With()
	if o == nil {
		return c
	}

	for k, v := range o.vars {
		c.vars[k] = v
	}

	for k, v := range o.fns {
		c.fns[k] = v
	}

	if o.builders != nil {
		c.builders = o.builders
	}

	if o.components != nil {
		c.components = o.components
	}

	return c
}
