package middleware

import (
	"fmt"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/hx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer request spans start from.
const TracerName = "github.com/xy-planning-network/canopy/http/middleware"

type traceConfig struct {
	propagator propagation.TextMapPropagator
	provider   trace.TracerProvider
}

// A TraceOptFn configures Trace.
type TraceOptFn func(*traceConfig)

// WithPropagator sets how a parent span context is extracted from request headers.
// By default, the global propagator is used.
func WithPropagator(p propagation.TextMapPropagator) TraceOptFn {
	return func(c *traceConfig) {
		c.propagator = p
	}
}

// WithTracerProvider sets the trace.TracerProvider spans start from.
// By default, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) TraceOptFn {
	return func(c *traceConfig) {
		c.provider = tp
	}
}

// Trace starts a server span for each request, continuing any trace propagated in the request headers.
// The span is available to handlers through trace.SpanFromContext.
//
// Responses with a 5xx status mark the span as errored.
func Trace(opts ...TraceOptFn) Adapter {
	cfg := &traceConfig{
		propagator: otel.GetTextMapPropagator(),
		provider:   otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tracer := cfg.provider.Tracer(TracerName)

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := cfg.propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			name := canopy.RouteNameFromContext(ctx)
			if name == "" {
				name = r.URL.Path
			}

			ctx, span := tracer.Start(
				ctx,
				fmt.Sprintf("%s %s", r.Method, name),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.RequestURI()),
					attribute.String("http.route", name),
					attribute.Bool("hx.request", hx.IsRequest(r)),
				),
			)
			defer span.End()

			m := httpsnoop.CaptureMetrics(h, w, r.WithContext(ctx))

			span.SetAttributes(
				attribute.Int("http.status_code", m.Code),
				attribute.Int64("http.response_size", m.Written),
			)
			if m.Code >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(m.Code))
			}
		})
	}
}
