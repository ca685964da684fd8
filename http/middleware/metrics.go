package middleware

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/xy-planning-network/canopy"
)

// UnmatchedRoute labels requests no named route matched.
const UnmatchedRoute = "unmatched"

type metricsConfig struct {
	buckets   []float64
	namespace string
	registry  prometheus.Registerer
}

// A MetricsOptFn configures the collectors Metrics registers.
type MetricsOptFn func(*metricsConfig)

// WithBuckets sets the histogram buckets request durations fall into.
func WithBuckets(buckets []float64) MetricsOptFn {
	return func(c *metricsConfig) {
		c.buckets = buckets
	}
}

// WithNamespace sets the namespace prefixing every metric name.
func WithNamespace(namespace string) MetricsOptFn {
	return func(c *metricsConfig) {
		c.namespace = namespace
	}
}

// WithRegistry sets the prometheus.Registerer collectors register with.
func WithRegistry(reg prometheus.Registerer) MetricsOptFn {
	return func(c *metricsConfig) {
		c.registry = reg
	}
}

// Metrics counts requests and observes their durations, labeled by route name, method and status.
//
// Metrics collected:
//   - canopy_http_requests_total
//   - canopy_http_request_duration_seconds
//
// Collectors register once per call; calling Metrics twice against the same registry panics.
func Metrics(opts ...MetricsOptFn) Adapter {
	cfg := &metricsConfig{
		buckets:   prometheus.DefBuckets,
		namespace: "canopy",
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	factory := promauto.With(cfg.registry)
	total := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"route", "method", "status"})

	duration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request handling duration in seconds.",
		Buckets:   cfg.buckets,
	}, []string{"route", "method"})

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(h, w, r)

			name := canopy.RouteNameFromContext(r.Context())
			if name == "" {
				name = UnmatchedRoute
			}

			total.WithLabelValues(name, r.Method, strconv.Itoa(m.Code)).Inc()
			duration.WithLabelValues(name, r.Method).Observe(m.Duration.Seconds())
		})
	}
}
