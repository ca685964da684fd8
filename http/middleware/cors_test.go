package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/canopy/http/middleware"
	"github.com/xy-planning-network/canopy/hx"
)

func TestCORS(t *testing.T) {
	// Arrange + Act
	actual := middleware.CORS()

	// Assert
	require.Equal(t, fmt.Sprintf("%p", middleware.NoopAdapter), fmt.Sprintf("%p", actual))

	// Arrange + Act
	actual = middleware.CORS("https://example.com")

	// Assert
	require.NotEqual(t, fmt.Sprintf("%p", middleware.NoopAdapter), fmt.Sprintf("%p", actual))
}

func TestCORSPreflight(t *testing.T) {
	tcs := []struct {
		name     string
		origin   string
		method   string
		headers  string
		expected int
	}{
		{"Allowed", "https://example.com", http.MethodDelete, hx.HeaderRequest + ", " + hx.HeaderTarget, http.StatusOK},
		{"Disallowed-Header", "https://example.com", http.MethodPost, "X-Nope", http.StatusForbidden},
		{"Disallowed-Method", "https://example.com", "TRACE", "", http.StatusMethodNotAllowed},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodOptions, "https://api.example.com/items/1", nil)
			r.Header.Set("Origin", tc.origin)
			r.Header.Set("Access-Control-Request-Method", tc.method)
			if tc.headers != "" {
				r.Header.Set("Access-Control-Request-Headers", tc.headers)
			}

			// Act
			middleware.CORS("https://example.com")(teapotHandler()).ServeHTTP(w, r)

			// Assert
			require.Equal(t, tc.expected, w.Code)
		})
	}
}

func TestCORSExposesHXHeaders(t *testing.T) {
	// Arrange
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "https://api.example.com/items", nil)
	r.Header.Set("Origin", "https://example.com")

	// Act
	middleware.CORS("https://example.com")(teapotHandler()).ServeHTTP(w, r)

	// Assert
	require.Equal(t, http.StatusTeapot, w.Code)
	require.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), http.CanonicalHeaderKey(hx.HeaderTrigger))
	require.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), http.CanonicalHeaderKey(hx.HeaderRedirect))
}
