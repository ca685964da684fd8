package route

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAmbiguous     = errors.New("ambiguous route")
	ErrArgMismatch   = errors.New("argument mismatch")
	ErrDuplicateName = errors.New("duplicate route name")
	ErrMalformed     = errors.New("malformed pattern")
	ErrNotFound      = errors.New("route not found")
)

// Kind categorizes a RouteError.
type Kind int

const (
	Malformed Kind = iota + 1
	DuplicateParam
	DuplicateName
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case DuplicateParam:
		return "duplicate param"
	case DuplicateName:
		return "duplicate name"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// A RouteError reports a pattern that cannot be compiled or registered.
//
// RouteError matches ErrMalformed, ErrDuplicateName or ErrAmbiguous with errors.Is.
// A DuplicateParam RouteError also matches ErrMalformed.
type RouteError struct {
	Kind    Kind
	Pattern string

	// Segment is the zero-based index of the offending segment, or -1.
	Segment int

	// Conflict names the already registered route, if any.
	Conflict string
	Msg      string
}

func (e *RouteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "route %q: %s", e.Pattern, e.Kind)
	if e.Segment >= 0 {
		fmt.Fprintf(&b, " at segment %d", e.Segment)
	}

	if e.Msg != "" {
		b.WriteString(": " + e.Msg)
	}

	if e.Conflict != "" {
		fmt.Fprintf(&b, " (conflicts with %q)", e.Conflict)
	}

	return b.String()
}

func (e *RouteError) Is(target error) bool {
	switch target {
	case ErrMalformed:
		return e.Kind == Malformed || e.Kind == DuplicateParam
	case ErrDuplicateName:
		return e.Kind == DuplicateName
	case ErrAmbiguous:
		return e.Kind == Ambiguous
	default:
		return false
	}
}

// A BuilderError reports arguments that do not fit a route's Signature.
// BuilderError matches ErrArgMismatch with errors.Is.
type BuilderError struct {
	Route    string
	Expected Signature

	// Got describes the supplied arguments by Go type.
	Got []string

	// Param is the name of the parameter that rejected its argument, if any.
	Param string
	Err   error
}

func (e *BuilderError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: route %q: param %q: %v", ErrArgMismatch, e.Route, e.Param, e.Err)
	}

	return fmt.Sprintf("%s: route %q: expected (%s), got (%s)", ErrArgMismatch, e.Route, e.Expected, strings.Join(e.Got, ", "))
}

func (e *BuilderError) Is(target error) bool { return target == ErrArgMismatch }

func (e *BuilderError) Unwrap() error { return e.Err }
