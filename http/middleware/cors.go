package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/xy-planning-network/canopy/hx"
)

// CORS sets "Access-Control-Allowed" style headers on a response.
// The handler including this middleware must also handle the http.MethodOptions method
// and not just the HTTP method it's designed for.
//
// Partial-update request headers are allowed and response headers exposed
// so cross-origin htmx requests can swap content.
//
// If no origins are passed in, NoopAdapter returns.
func CORS(origins ...string) Adapter {
	if len(origins) == 0 {
		return NoopAdapter
	}

	return handlers.CORS(
		handlers.AllowedHeaders([]string{
			"Content-Type",
			"X-CSRF-Token",
			hx.HeaderRequest,
			hx.HeaderBoosted,
			hx.HeaderCurrentURL,
			hx.HeaderTarget,
			hx.HeaderTriggerName,
		}),
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{
			http.MethodDelete,
			http.MethodGet,
			http.MethodHead,
			http.MethodOptions,
			http.MethodPatch,
			http.MethodPost,
			http.MethodPut,
		}),
		handlers.ExposedHeaders([]string{
			hx.HeaderLocation,
			hx.HeaderPushURL,
			hx.HeaderRedirect,
			hx.HeaderRefresh,
			hx.HeaderReswap,
			hx.HeaderRetarget,
			hx.HeaderTrigger,
		}),
	)
}
