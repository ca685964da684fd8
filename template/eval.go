package template

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/route"
)

// frame holds the names a directive binds while rendering its body.
type frame struct {
	names  map[string]any
	parent *frame
}

func (f *frame) with(names map[string]any) *frame {
	return &frame{names: names, parent: f}
}

func (r *renderer) lookup(name string, f *frame) (any, error) {
	for ; f != nil; f = f.parent {
		if v, ok := f.names[name]; ok {
			return v, nil
		}
	}

	if v, ok := r.vals[name]; ok {
		return v, nil
	}

	return nil, fmt.Errorf("%w: %s", canopy.ErrMissingData, name)
}

func (r *renderer) eval(x Expr, f *frame) (any, error) {
	switch x := x.(type) {
	case *Ident:
		v, err := r.lookup(x.Name, f)
		if err != nil {
			return nil, r.errorf(x.Offset, err)
		}
		return v, nil

	case *IntLit:
		return x.Value, nil

	case *StringLit:
		return x.Value, nil

	case *BoolLit:
		return x.Value, nil

	case *NilLit:
		return nil, nil

	case *Selector:
		v, err := r.eval(x.X, f)
		if err != nil {
			return nil, err
		}

		out, err := selectValue(v, x.Sel)
		if err != nil {
			return nil, r.errorf(x.Offset, err)
		}
		return out, nil

	case *Call:
		return r.call(x, f)

	case *Unary:
		v, err := r.eval(x.X, f)
		if err != nil {
			return nil, err
		}

		if x.Op == "!" {
			return !truthy(v), nil
		}

		out, err := negate(v)
		if err != nil {
			return nil, r.errorf(x.Offset, err)
		}
		return out, nil

	case *Binary:
		return r.binary(x, f)

	default:
		return nil, r.errorf(x.Pos(), fmt.Errorf("unsupported expression %T", x))
	}
}

func (r *renderer) binary(x *Binary, f *frame) (any, error) {
	l, err := r.eval(x.X, f)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case "&&":
		if !truthy(l) {
			return false, nil
		}
		rv, err := r.eval(x.Y, f)
		return truthy(rv), err

	case "||":
		if truthy(l) {
			return true, nil
		}
		rv, err := r.eval(x.Y, f)
		return truthy(rv), err
	}

	rv, err := r.eval(x.Y, f)
	if err != nil {
		return nil, err
	}

	var out any
	switch x.Op {
	case "==":
		return equal(l, rv), nil
	case "!=":
		return !equal(l, rv), nil
	case "<", "<=", ">", ">=":
		var c int
		c, err = compare(l, rv)
		if err == nil {
			out = map[string]bool{"<": c < 0, "<=": c <= 0, ">": c > 0, ">=": c >= 0}[x.Op]
		}
	case "+":
		out, err = add(l, rv)
	case "-":
		var neg any
		if neg, err = negate(rv); err == nil {
			out, err = add(l, neg)
		}
	}

	if err != nil {
		return nil, r.errorf(x.Offset, err)
	}

	return out, nil
}

func (r *renderer) call(x *Call, f *frame) (any, error) {
	args := make([]any, len(x.Args))
	for i, a := range x.Args {
		v, err := r.eval(a, f)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if c, ok := r.bound.calls[x]; ok {
		if c.builder != nil {
			ep, err := c.builder.Build(args...)
			if err != nil {
				return nil, r.errorf(x.Offset, err)
			}
			return ep, nil
		}

		out, err := callFunc(c.fn, args)
		if err != nil {
			return nil, r.errorf(x.Offset, err)
		}
		return out, nil
	}

	sel, ok := x.Fn.(*Selector)
	if !ok {
		return nil, r.errorf(x.Offset, fmt.Errorf("%s is not callable", x.Fn))
	}

	recv, err := r.eval(sel.X, f)
	if err != nil {
		return nil, err
	}

	m, ok := methodValue(reflect.ValueOf(recv), sel.Sel)
	if !ok {
		return nil, r.errorf(sel.Offset, fmt.Errorf("%T has no method %s", recv, sel.Sel))
	}

	out, err := callFunc(m, args)
	if err != nil {
		return nil, r.errorf(x.Offset, err)
	}

	return out, nil
}

// methodValue finds the method name on v, taking the address of a copy
// so methods with pointer receivers resolve on values.
func methodValue(v reflect.Value, name string) (reflect.Value, bool) {
	for v.IsValid() {
		if m := v.MethodByName(name); m.IsValid() {
			return m, true
		}

		switch v.Kind() {
		case reflect.Pointer, reflect.Interface:
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
			continue
		}

		if !v.CanAddr() {
			ptr := reflect.New(v.Type())
			ptr.Elem().Set(v)
			if m := ptr.MethodByName(name); m.IsValid() {
				return m, true
			}
		}
		return reflect.Value{}, false
	}

	return reflect.Value{}, false
}

func selectValue(v any, sel string) (any, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("cannot select %s on nil", sel)
	}

	if m, ok := methodValue(rv, sel); ok {
		return callFunc(m, nil)
	}

	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot select %s on nil %s", sel, rv.Type())
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if sf, ok := rv.Type().FieldByName(sel); ok && sf.IsExported() {
			return rv.FieldByIndex(sf.Index).Interface(), nil
		}

	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			mv := rv.MapIndex(reflect.ValueOf(sel).Convert(rv.Type().Key()))
			if !mv.IsValid() {
				return reflect.Zero(rv.Type().Elem()).Interface(), nil
			}
			return mv.Interface(), nil
		}
	}

	return nil, fmt.Errorf("%s has no field or method %s", rv.Type(), sel)
}

// callFunc calls fn with args converted to its parameter types.
func callFunc(fn reflect.Value, args []any) (any, error) {
	ft := fn.Type()
	n := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < n-1 {
			return nil, fmt.Errorf("%w: expected at least %d arguments, got %d", ErrArgMismatch, n-1, len(args))
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("%w: expected %d arguments, got %d", ErrArgMismatch, n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= n-1 {
			pt = ft.In(n - 1).Elem()
		} else {
			pt = ft.In(i)
		}

		v, err := convert(a, pt)
		if err != nil {
			return nil, err
		}
		in[i] = v
	}

	out := fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}

	if len(out) == 0 {
		return nil, nil
	}

	return out[0].Interface(), nil
}

func convert(a any, pt reflect.Type) (reflect.Value, error) {
	if a == nil {
		switch pt.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: cannot use nil as %s", ErrArgMismatch, pt)
	}

	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(pt) {
		return v, nil
	}

	if isNumeric(v.Type()) && isNumeric(pt) {
		if !fits(v, pt) {
			return reflect.Value{}, fmt.Errorf("%w: %v overflows %s", ErrArgMismatch, a, pt)
		}
		return v.Convert(pt), nil
	}

	return reflect.Value{}, fmt.Errorf("%w: cannot use %T as %s", ErrArgMismatch, a, pt)
}

// fits reports whether the numeric value v converts to pt without losing its value.
func fits(v reflect.Value, pt reflect.Type) bool {
	dst := reflect.Zero(pt)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		switch pt.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return !dst.OverflowInt(n)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return n >= 0 && !dst.OverflowUint(uint64(n))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		switch pt.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return u <= math.MaxInt64 && !dst.OverflowInt(int64(u))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return !dst.OverflowUint(u)
		}

	case reflect.Float32, reflect.Float64:
		f := v.Float()
		switch pt.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && !dst.OverflowInt(int64(f))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 && !dst.OverflowUint(uint64(f))
		}
	}

	// NOTE(dlk): floats may lose precision but never wrap.
	return pt.Kind() != reflect.Float32 || !dst.OverflowFloat(toFloat(v))
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case Fragment:
		return !v.Empty()
	case route.Endpoint:
		return !v.IsZero()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	default:
		return true
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// number is a numeric value widened for comparison and arithmetic.
type number struct {
	i       int64
	f       float64
	isFloat bool
}

func asNumber(v any) (number, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{i: rv.Int(), f: float64(rv.Int())}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return number{i: int64(rv.Uint()), f: float64(rv.Uint())}, true
	case reflect.Float32, reflect.Float64:
		return number{f: rv.Float(), isFloat: true}, true
	default:
		return number{}, false
	}
}

func equal(a, b any) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}

	if na, ok := asNumber(a); ok {
		if nb, ok := asNumber(b); ok {
			if na.isFloat || nb.isFloat {
				return na.f == nb.f
			}
			return na.i == nb.i
		}
		return false
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.String && rb.Kind() == reflect.String {
		return ra.String() == rb.String()
	}

	// NOTE(dlk): == panics on structs and arrays holding uncomparable values
	// even though their types report Comparable.
	switch ra.Kind() {
	case reflect.Struct, reflect.Array:
		return reflect.DeepEqual(a, b)
	}

	if ra.Type() == rb.Type() && ra.Type().Comparable() {
		return a == b
	}

	return reflect.DeepEqual(a, b)
}

func compare(a, b any) (int, error) {
	if na, ok := asNumber(a); ok {
		if nb, ok := asNumber(b); ok {
			switch {
			case na.isFloat || nb.isFloat:
				return cmpOrdered(na.f, nb.f), nil
			default:
				return cmpOrdered(na.i, nb.i), nil
			}
		}
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.String && rb.Kind() == reflect.String {
		return cmpOrdered(ra.String(), rb.String()), nil
	}

	return 0, fmt.Errorf("%w: cannot compare %T and %T", ErrArgMismatch, a, b)
}

func cmpOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func add(a, b any) (any, error) {
	if na, ok := asNumber(a); ok {
		if nb, ok := asNumber(b); ok {
			if na.isFloat || nb.isFloat {
				return na.f + nb.f, nil
			}
			return int(na.i + nb.i), nil
		}
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.String && rb.Kind() == reflect.String {
		return ra.String() + rb.String(), nil
	}

	return nil, fmt.Errorf("%w: cannot add %T and %T", ErrArgMismatch, a, b)
}

func negate(v any) (any, error) {
	n, ok := asNumber(v)
	if !ok {
		return nil, fmt.Errorf("%w: cannot negate %T", ErrArgMismatch, v)
	}

	if n.isFloat {
		return -n.f, nil
	}

	return int(-n.i), nil
}

// stringify renders v as text; Fragments are handled by the caller.
func stringify(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case error:
		return v.Error(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return "", nil
		}
		return stringify(rv.Elem().Interface())
	default:
		return "", fmt.Errorf("%w: cannot render %T as text", ErrRender, v)
	}
}

// iterate calls fn for each index and element of v in a stable order.
// Map keys are sorted.
func iterate(v any, fn func(index, elem any) error) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return nil

	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := fn(i, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			c, err := compare(keys[i].Interface(), keys[j].Interface())
			if err != nil {
				return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
			}
			return c < 0
		})

		for _, k := range keys {
			if err := fn(k.Interface(), rv.MapIndex(k).Interface()); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: %T", ErrNotIterable, v)
	}
}
