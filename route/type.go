package route

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var (
	errEmptySegment = errors.New("empty segment")
	errDotSegment   = errors.New("dot segment")
	uuidType        = reflect.TypeOf(uuid.UUID{})
)

// A Type parses and formats the value of a typed path parameter.
//
// Parse receives an unescaped segment and reports whether it belongs to the Type.
// Format renders a value as an unescaped segment;
// the Builder percent-encodes it.
// Accepts reports whether a statically known Go type may be passed to Format,
// so template call sites can be checked before any request is served.
type Type interface {
	Name() string
	Parse(s string) (any, error)
	Format(v any) (string, error)
	Accepts(t reflect.Type) bool
}

// A SpanType is a Type whose parameter consumes every remaining segment of a path.
// A parameter of a SpanType must be the last segment of a pattern.
type SpanType interface {
	Type
	Span()
}

var (
	Int    Type = intType{}
	String Type = stringType{}
	UUID   Type = uuidParam{}
	Path   Type = pathType{}
)

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Parse(s string) (any, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid integer: %q", s)
	}

	return n, nil
}

func (intType) Format(v any) (string, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		// NOTE(dlk): Parse yields an int, so larger values could never match.
		if rv.Uint() > math.MaxInt {
			return "", fmt.Errorf("integer out of range: %d", rv.Uint())
		}
		return strconv.FormatUint(rv.Uint(), 10), nil
	default:
		return "", fmt.Errorf("expected integer, got %T", v)
	}
}

func (intType) Accepts(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Parse(s string) (any, error) {
	if err := checkPiece(s); err != nil {
		return nil, err
	}

	return s, nil
}

func (stringType) Format(v any) (string, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return "", fmt.Errorf("expected string, got %T", v)
	}

	s := rv.String()
	if err := checkPiece(s); err != nil {
		return "", err
	}

	return s, nil
}

func (stringType) Accepts(t reflect.Type) bool { return t.Kind() == reflect.String }

type uuidParam struct{}

func (uuidParam) Name() string { return "uuid" }

func (uuidParam) Parse(s string) (any, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid uuid: %q", s)
	}

	return u, nil
}

func (uuidParam) Format(v any) (string, error) {
	switch u := v.(type) {
	case uuid.UUID:
		return u.String(), nil
	case string:
		parsed, err := uuid.Parse(u)
		if err != nil {
			return "", fmt.Errorf("invalid uuid: %q", u)
		}
		return parsed.String(), nil
	default:
		return "", fmt.Errorf("expected uuid, got %T", v)
	}
}

func (uuidParam) Accepts(t reflect.Type) bool {
	return t == uuidType || t.Kind() == reflect.String
}

// pathType matches one or more segments, joined by "/".
type pathType struct{}

func (pathType) Name() string { return "path" }

func (pathType) Span() {}

func (pathType) Parse(s string) (any, error) {
	for _, piece := range strings.Split(s, "/") {
		if err := checkPiece(piece); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (pathType) Format(v any) (string, error) {
	var pieces []string
	switch p := v.(type) {
	case string:
		pieces = strings.Split(strings.Trim(p, "/"), "/")
	case []string:
		pieces = p
	default:
		return "", fmt.Errorf("expected path, got %T", v)
	}

	for _, piece := range pieces {
		if err := checkPiece(piece); err != nil {
			return "", err
		}
	}

	return strings.Join(pieces, "/"), nil
}

func (pathType) Accepts(t reflect.Type) bool {
	return t.Kind() == reflect.String || (t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.String)
}

// checkPiece rejects segment values that would change the shape of a path
// once a client or proxy normalizes it.
func checkPiece(s string) error {
	switch s {
	case "":
		return errEmptySegment
	case ".", "..":
		return fmt.Errorf("%w: %q", errDotSegment, s)
	default:
		return nil
	}
}

func defaultTypes() map[string]Type {
	return map[string]Type{
		"int":     Int,
		"integer": Int,
		"string":  String,
		"uuid":    UUID,
		"path":    Path,
	}
}

func isSpan(t Type) bool {
	_, ok := t.(SpanType)
	return ok
}
