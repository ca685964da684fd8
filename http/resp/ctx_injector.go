package resp

import (
	"context"

	"github.com/xy-planning-network/canopy/template"
)

// ContextInjector is the interface for describing how values from context.Context can be
// merged with the template.Values a template renders with.
type ContextInjector interface {
	Inject(vals template.Values, ctx context.Context)
}

// A DefaultInjector maps the names templates read values under
// to the keys required to pull those values from a context.Context.
//
// DefaultInjector implements ContextInjector
type DefaultInjector struct {
	Keys map[string]any
}

// Inject merges into vals the values pulled from ctx using i.Keys
// if the value for a certain key is not nil.
//
// Values already set are not overwritten.
func (i DefaultInjector) Inject(vals template.Values, ctx context.Context) {
	if vals == nil || ctx == nil || i.Keys == nil {
		return
	}

	for name, k := range i.Keys {
		if _, ok := vals[name]; ok {
			continue
		}

		if val := ctx.Value(k); val != nil {
			vals[name] = val
		}
	}
}

// A NoopInjector implements ContextInjector and performs no operation.
type NoopInjector struct{}

func (NoopInjector) Inject(_ template.Values, _ context.Context) {}
