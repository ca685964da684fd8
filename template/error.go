package template

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrArgMismatch        = errors.New("argument mismatch")
	ErrBuilderArgMismatch = errors.New("builder argument mismatch")
	ErrNotEndpoint        = errors.New("not an endpoint")
	ErrNotIterable        = errors.New("not iterable")
	ErrParse              = errors.New("parse error")
	ErrRender             = errors.New("render error")
	ErrUnknownName        = errors.New("unknown name")
	ErrVerbMismatch       = errors.New("verb does not match route method")
)

// A ParseErrorKind categorizes a ParseError.
type ParseErrorKind int

const (
	MalformedTag ParseErrorKind = iota + 1
	UnmatchedDirective
	UnbalancedBrace
	UnknownDirective
	BadExpression
)

func (k ParseErrorKind) String() string {
	switch k {
	case MalformedTag:
		return "malformed tag"
	case UnmatchedDirective:
		return "unmatched directive"
	case UnbalancedBrace:
		return "unbalanced brace"
	case UnknownDirective:
		return "unknown directive"
	case BadExpression:
		return "bad expression"
	default:
		return "unknown"
	}
}

// A ParseError reports source text that is not a valid template.
// ParseError matches ErrParse with errors.Is.
type ParseError struct {
	Kind   ParseErrorKind
	Source string
	Offset int
	Line   int
	Col    int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.Source, e.Line, e.Col, e.Kind, e.Msg)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// A BindErrorKind categorizes a BindError.
type BindErrorKind int

const (
	UnknownName BindErrorKind = iota + 1
	BuilderArgMismatch
	ArgMismatch
	NotEndpoint
	VerbMismatch
	NotIterable
)

func (k BindErrorKind) String() string {
	return k.sentinel().Error()
}

func (k BindErrorKind) sentinel() error {
	switch k {
	case UnknownName:
		return ErrUnknownName
	case BuilderArgMismatch:
		return ErrBuilderArgMismatch
	case ArgMismatch:
		return ErrArgMismatch
	case NotEndpoint:
		return ErrNotEndpoint
	case VerbMismatch:
		return ErrVerbMismatch
	case NotIterable:
		return ErrNotIterable
	default:
		return errors.New("unknown")
	}
}

// A BindError reports an expression that does not resolve against an Env.
// BindError matches the sentinel of its Kind with errors.Is, e.g., ErrUnknownName.
type BindError struct {
	Kind BindErrorKind

	// Name is the identifier, selector or callee at fault.
	Name     string
	Expected string
	Got      string
	Source   string
	Offset   int
	Line     int
	Col      int
}

func (e *BindError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%d:%d: %s: %s", e.Source, e.Line, e.Col, e.Kind, e.Name)
	if e.Expected != "" || e.Got != "" {
		fmt.Fprintf(&b, ": expected (%s), got (%s)", e.Expected, e.Got)
	}

	return b.String()
}

func (e *BindError) Is(target error) bool { return target == e.Kind.sentinel() }

// A RenderError reports a failure evaluating a bound template.
// RenderError matches ErrRender with errors.Is and unwraps to its cause.
type RenderError struct {
	Source string
	Offset int
	Line   int
	Col    int
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.Source, e.Line, e.Col, ErrRender, e.Err)
}

func (e *RenderError) Is(target error) bool { return target == ErrRender }

func (e *RenderError) Unwrap() error { return e.Err }
