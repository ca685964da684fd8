package route

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/logger"
)

// A Route is a named pattern served on a single HTTP method.
type Route struct {
	Name    string
	Method  string
	Pattern *Pattern
	Matcher *Matcher
	Builder *Builder
}

// A Table is the registry of every Route in an application.
//
// Routes are added at startup; Add rejects duplicate names and
// any Route that could match the same request as one already registered.
// Once frozen, a Table is read-only and lookups take no locks.
type Table struct {
	compiler *Compiler
	logger   logger.Logger

	mu     sync.RWMutex
	frozen atomic.Bool
	routes []*Route
	byName map[string]*Route
}

// NewTable constructs an empty *Table.
func NewTable(opts ...TableOptFn) *Table {
	t := &Table{
		compiler: defaultCompiler,
		byName:   make(map[string]*Route),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.logger == nil {
		t.logger = logger.New()
	}

	return t
}

// Add compiles raw and registers it under name for method.
//
// Add returns a *RouteError if raw is malformed, name is taken,
// or the new Route is ambiguous with a registered Route of the same method.
func (t *Table) Add(name, method, raw string) (*Route, error) {
	p, err := t.compiler.Parse(raw)
	if err != nil {
		return nil, err
	}

	method = strings.ToUpper(method)
	r := &Route{
		Name:    name,
		Method:  method,
		Pattern: p,
		Matcher: &Matcher{pattern: p},
		Builder: NewBuilder(name, method, p),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen.Load() {
		return nil, fmt.Errorf("%w: cannot add route %q", canopy.ErrFrozen, name)
	}

	if prev, ok := t.byName[name]; ok {
		return nil, &RouteError{Kind: DuplicateName, Pattern: raw, Segment: -1, Conflict: prev.Pattern.Raw, Msg: fmt.Sprintf("name %q already registered", name)}
	}

	for _, prev := range t.routes {
		if prev.Method != method {
			continue
		}

		if seg, ok := overlap(prev.Pattern.Segments, p.Segments); ok && precedence(prev.Pattern.Segments, p.Segments) == 0 {
			return nil, &RouteError{Kind: Ambiguous, Pattern: raw, Segment: seg, Conflict: prev.Name, Msg: fmt.Sprintf("matches the same paths as %s", prev.Pattern.Raw)}
		}
	}

	t.routes = append(t.routes, r)
	t.byName[name] = r
	t.logger.Debug(fmt.Sprintf("registered route %s %s %s", name, method, raw), nil)

	return r, nil
}

// MustAdd calls Add, panicking on error.
func (t *Table) MustAdd(name, method, raw string) *Route {
	r, err := t.Add(name, method, raw)
	if err != nil {
		panic(err)
	}

	return r
}

// Freeze makes the Table read-only.
func (t *Table) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.frozen.Load() {
		t.logger.Info(fmt.Sprintf("route table frozen with %d routes", len(t.routes)), nil)
	}
	t.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (t *Table) Frozen() bool { return t.frozen.Load() }

// Match finds the Route for method serving path, along with its extracted Values.
// When several Routes match, the one with literal segments where the others have parameters wins,
// whatever the order they were registered in.
func (t *Table) Match(method, path string) (*Route, Values, bool) {
	if !t.frozen.Load() {
		t.mu.RLock()
		defer t.mu.RUnlock()
	}

	var (
		best     *Route
		bestVals Values
	)

	method = strings.ToUpper(method)
	for _, r := range t.routes {
		if r.Method != method {
			continue
		}

		vals, ok := r.Matcher.Match(path)
		if !ok {
			continue
		}

		if best == nil || precedence(r.Pattern.Segments, best.Pattern.Segments) > 0 {
			best, bestVals = r, vals
		}
	}

	return best, bestVals, best != nil
}

// Route returns the Route registered under name.
func (t *Table) Route(name string) (*Route, bool) {
	if !t.frozen.Load() {
		t.mu.RLock()
		defer t.mu.RUnlock()
	}

	r, ok := t.byName[name]
	return r, ok
}

// Builder returns the *Builder of the Route registered under name.
func (t *Table) Builder(name string) (*Builder, bool) {
	r, ok := t.Route(name)
	if !ok {
		return nil, false
	}

	return r.Builder, true
}

// Build constructs an Endpoint for the Route registered under name.
func (t *Table) Build(name string, args ...any) (Endpoint, error) {
	b, ok := t.Builder(name)
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	return b.Build(args...)
}

// Routes returns every Route in registration order.
func (t *Table) Routes() []*Route {
	if !t.frozen.Load() {
		t.mu.RLock()
		defer t.mu.RUnlock()
	}

	return append([]*Route(nil), t.routes...)
}

// overlap reports whether some path could match both a and b,
// returning the index of the segment at which the patterns become indistinguishable.
//
// Two parameters overlap regardless of their types,
// a literal and a parameter overlap when the parameter parses the literal,
// and a catch-all overlaps any non-empty remainder.
// Overlapping patterns may still coexist when precedence picks a winner.
func overlap(a, b []Segment) (int, bool) {
	for i := 0; ; i++ {
		switch {
		case i == len(a) && i == len(b):
			return len(a) - 1, true
		case i == len(a) || i == len(b):
			return -1, false
		case a[i].Kind == CatchAllSegment || b[i].Kind == CatchAllSegment:
			return i, true
		case !segmentsOverlap(a[i], b[i]):
			return -1, false
		}
	}
}

func segmentsOverlap(a, b Segment) bool {
	switch {
	case a.Kind == LiteralSegment && b.Kind == LiteralSegment:
		return a.Literal == b.Literal
	case a.Kind == LiteralSegment:
		_, err := b.Type.Parse(a.Literal)
		return err == nil
	case b.Kind == LiteralSegment:
		_, err := a.Type.Parse(b.Literal)
		return err == nil
	default:
		return true
	}
}

// precedence compares patterns a and b segment by segment.
// It returns 1 when a is at least as specific as b everywhere and more specific somewhere,
// -1 for the reverse and 0 when neither is: literals beat parameters, which beat a catch-all.
// Parameters of different types are equally specific.
func precedence(a, b []Segment) int {
	var aWins, bWins bool
	for i := 0; i < len(a) && i < len(b); i++ {
		sa, sb := specificity(a[i]), specificity(b[i])
		switch {
		case sa > sb:
			aWins = true
		case sb > sa:
			bWins = true
		}

		if a[i].Kind == CatchAllSegment || b[i].Kind == CatchAllSegment {
			break
		}
	}

	switch {
	case aWins && !bWins:
		return 1
	case bWins && !aWins:
		return -1
	default:
		return 0
	}
}

func specificity(s Segment) int {
	switch s.Kind {
	case LiteralSegment:
		return 2
	case ParamSegment:
		return 1
	default:
		return 0
	}
}
