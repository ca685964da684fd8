package resp

import (
	"net/url"

	"github.com/xy-planning-network/canopy/logger"
	"github.com/xy-planning-network/canopy/template"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer Html starts render spans from.
const TracerName = "github.com/xy-planning-network/canopy/http/resp"

// A ResponderOptFn mutates the provided *Responder in some way.
// A ResponderOptFn is used when constructing a new Responder.
type ResponderOptFn func(*Responder)

// WithCache sets the FragmentCacher bodies rendered with Cached are stored in.
func WithCache(c FragmentCacher) ResponderOptFn {
	return func(d *Responder) {
		d.cache = c
	}
}

// WithContactErrMsg sets the error message rendered by the error template under "contact".
func WithContactErrMsg(msg string) ResponderOptFn {
	return func(d *Responder) {
		d.contactErrMsg = msg
	}
}

// WithCtxInjector sets the ContextInjector pulling values for templates out of the request context.
func WithCtxInjector(i ContextInjector) ResponderOptFn {
	return func(d *Responder) {
		d.injector = i
	}
}

// WithErrTemplate sets the template declared at id to use for rendering
// when an unexpected, unhandled error occurs while rendering HTML.
//
// The template renders with two strings: "contact", see WithContactErrMsg, and "error".
func WithErrTemplate(id string) ResponderOptFn {
	return func(d *Responder) {
		d.templates.err = id
	}
}

// WithLayout sets the template declared at id as the layout wrapping full pages.
// Declare layouts with template.LayoutEnv.
//
// If no layout is provided through this option, template.DefaultLayout is used.
func WithLayout(id string, opts ...template.LayoutOptFn) ResponderOptFn {
	return func(d *Responder) {
		d.templates.layout = id
		d.templates.layoutOpts = opts
	}
}

// WithLogger sets the provided implementation of Logger in order to log all statements through it.
//
// If no Logger is provided through this option, logger.New configures one.
func WithLogger(log logger.Logger) ResponderOptFn {
	return func(d *Responder) {
		d.logger = log
	}
}

// WithRootUrl sets the provided URL after parsing it into a *url.URL to use for redirecting.
//
// NOTE: If u fails parsing by url.ParseRequestURI, the root URL becomes https://example.com
func WithRootUrl(u string) ResponderOptFn {
	good, err := url.ParseRequestURI(u)
	if err != nil {
		good, _ = url.ParseRequestURI("https://example.com")
	}

	return func(d *Responder) {
		d.rootUrl = good
	}
}

// WithSet sets the *template.Set templates are rendered from.
//
// Html requires this option.
func WithSet(s *template.Set) ResponderOptFn {
	return func(d *Responder) {
		d.set = s
	}
}

// WithTracerProvider sets the trace.TracerProvider Html starts render spans from.
//
// If no provider is provided through this option, the global one is used.
func WithTracerProvider(tp trace.TracerProvider) ResponderOptFn {
	return func(d *Responder) {
		d.tracer = tp.Tracer(TracerName)
	}
}

// WithVerboseErrors sets whether error responses include the error itself.
// See canopy.Environment.VerboseErrors.
func WithVerboseErrors(verbose bool) ResponderOptFn {
	return func(d *Responder) {
		d.verbose = verbose
	}
}
