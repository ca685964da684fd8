package template

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/logger"
)

// A Set compiles templates on first use and caches the result.
//
// Each template compiles at most once, even when requested concurrently:
// callers wait on the one compile and never observe partial state.
// A failed compile is cached as its error.
//
// *Set satisfies ComponentLookup, so templates of a Set render one another as components.
type Set struct {
	fs     fs.FS
	base   *Env
	logger logger.Logger

	mu         sync.RWMutex
	entries    map[string]*entry
	components map[string]string

	frozen atomic.Bool
}

type entry struct {
	id     string
	env    *Env
	inline *Source

	once  sync.Once
	bound *Bound
	err   error
}

// A SetOptFn is a functional option configuring a Set when constructing a new one.
type SetOptFn func(*Set)

// WithFS sets the filesystem template sources are read from.
// Sources not found fall back to those embedded in the package.
func WithFS(filesys fs.FS) SetOptFn {
	return func(s *Set) {
		s.fs = filesys
	}
}

// WithEnv applies opts to the Env every template of the Set is bound with,
// e.g., WithFn or WithBuilders.
func WithEnv(opts ...EnvOptFn) SetOptFn {
	return func(s *Set) {
		s.base = s.base.With(opts...)
	}
}

// WithLogger sets the logger a Set reports compiles with.
func WithLogger(l logger.Logger) SetOptFn {
	return func(s *Set) {
		s.logger = l
	}
}

// NewSet constructs a *Set.
func NewSet(opts ...SetOptFn) *Set {
	s := &Set{
		base:       NewEnv(),
		entries:    make(map[string]*entry),
		components: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	userFS := s.fs
	if userFS == nil {
		userFS = os.DirFS(".")
	}
	s.fs = newMergeFS(userFS)

	if s.logger == nil {
		s.logger = logger.New()
	}

	return s
}

// Declare registers the template read from the Set's filesystem at id,
// bound with env.
func (s *Set) Declare(id string, env *Env) error {
	return s.declare(&entry{id: id, env: env}, "")
}

// Add registers the inline template src, bound with env.
func (s *Set) Add(src Source, env *Env) error {
	return s.declare(&entry{id: src.ID, env: env, inline: &src}, "")
}

// DeclareComponent registers the template at id, bound with env,
// and makes it renderable as the uppercase tag name.
func (s *Set) DeclareComponent(name, id string, env *Env) error {
	return s.declare(&entry{id: id, env: env}, name)
}

// declare registers e and, when component is not empty, the tag rendering it.
// Neither is registered if either conflicts.
func (s *Set) declare(e *entry, component string) error {
	if e.id == "" {
		return fmt.Errorf("%w: template id is empty", canopy.ErrNotValid)
	}

	e.env = s.base.With().merge(e.env).With(WithComponents(s))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen.Load() {
		return fmt.Errorf("%w: cannot declare template %s", canopy.ErrFrozen, e.id)
	}

	if _, ok := s.entries[e.id]; ok {
		return fmt.Errorf("%w: template %s already declared", canopy.ErrNotValid, e.id)
	}

	if component != "" {
		if _, ok := s.components[component]; ok {
			return fmt.Errorf("%w: component %s already declared", canopy.ErrNotValid, component)
		}
		s.components[component] = e.id
	}
	s.entries[e.id] = e

	return nil
}

// Freeze prevents further declarations.
// Declarations racing Freeze either complete before it or fail with canopy.ErrFrozen.
func (s *Set) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen.CompareAndSwap(false, true) {
		s.logger.Info(fmt.Sprintf("template set frozen with %d templates", len(s.entries)), nil)
	}
}

// Get returns the compiled template declared at id, compiling it on first use.
func (s *Set) Get(id string) (*Bound, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: template %s", canopy.ErrNotExist, id)
	}

	e.once.Do(func() { e.bound, e.err = s.compile(e) })
	return e.bound, e.err
}

func (s *Set) compile(e *entry) (*Bound, error) {
	src := e.inline
	if src == nil {
		text, err := fs.ReadFile(s.fs, e.id)
		if err != nil {
			return nil, err
		}
		src = &Source{ID: e.id, Text: string(text)}
	}

	tree, err := Parse(*src)
	if err != nil {
		return nil, err
	}

	b, err := Bind(tree, e.env)
	if err != nil {
		return nil, err
	}

	s.logger.Debug(fmt.Sprintf("compiled template %s", e.id), nil)
	return b, nil
}

// CompileAll compiles every declared template, joining all failures.
func (s *Set) CompileAll() error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		if _, err := s.Get(id); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Error("templates failed to compile", &logger.LogContext{Error: err})
		return err
	}

	s.logger.Info(fmt.Sprintf("compiled %d templates", len(ids)), nil)
	return nil
}

// Render renders the template declared at id with vals.
func (s *Set) Render(ctx context.Context, id string, vals Values) (Fragment, error) {
	b, err := s.Get(id)
	if err != nil {
		return Fragment{}, err
	}

	return b.Render(ctx, vals)
}

// Layout returns the template declared at id as a Layout.
// Declare layouts with LayoutEnv.
func (s *Set) Layout(id string, opts ...LayoutOptFn) (*BoundLayout, error) {
	b, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	return NewLayout(b, opts...), nil
}

// ComponentEnv returns the Env the component name is bound with.
func (s *Set) ComponentEnv(name string) (*Env, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.components[name]
	if !ok {
		return nil, false
	}

	return s.entries[id].env, true
}

// Component returns the compiled template of the component name.
func (s *Set) Component(name string) (*Bound, error) {
	s.mu.RLock()
	id, ok := s.components[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: component %s", ErrUnknownName, name)
	}

	return s.Get(id)
}
