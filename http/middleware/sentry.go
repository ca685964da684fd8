package middleware

import (
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/xy-planning-network/canopy"
)

// ReportPanic recovers panics raised while handling a request and ships them to Sentry
// whenever env reports panics (see canopy.Environment.ReportsPanics).
//
// Otherwise, NoopAdapter returns and panics propagate as usual.
//
// The Sentry client itself is initialized by logger.New when SENTRY_DSN is set.
func ReportPanic(env canopy.Environment) Adapter {
	if !env.ReportsPanics() {
		return NoopAdapter
	}

	sh := sentryhttp.New(sentryhttp.Options{
		Repanic:         false,
		WaitForDelivery: true,
		Timeout:         2 * time.Second,
	})

	return func(handler http.Handler) http.Handler {
		return sh.Handle(handler)
	}
}
