package route

import "github.com/xy-planning-network/canopy/logger"

// A CompilerOptFn is a functional option configuring a Compiler when constructing a new one.
type CompilerOptFn func(*Compiler)

// WithType registers t under t.Name(),
// replacing any Type already registered under that name.
func WithType(t Type) CompilerOptFn {
	return func(c *Compiler) {
		c.types[t.Name()] = t
	}
}

// WithTypeAlias registers t under alias in addition to t.Name().
func WithTypeAlias(alias string, t Type) CompilerOptFn {
	return func(c *Compiler) {
		c.types[alias] = t
	}
}

// A TableOptFn is a functional option configuring a Table when constructing a new one.
type TableOptFn func(*Table)

// WithCompiler sets the Compiler a Table compiles patterns with.
func WithCompiler(c *Compiler) TableOptFn {
	return func(t *Table) {
		t.compiler = c
	}
}

// WithLogger sets the logger.Logger a Table reports registrations with.
func WithLogger(l logger.Logger) TableOptFn {
	return func(t *Table) {
		t.logger = l
	}
}
