package hx

import "net/http"

// Request headers sent by the client library.
const (
	HeaderRequest     = "HX-Request"
	HeaderBoosted     = "HX-Boosted"
	HeaderCurrentURL  = "HX-Current-URL"
	HeaderTarget      = "HX-Target"
	HeaderTriggerName = "HX-Trigger-Name"
)

// Response headers understood by the client library.
const (
	HeaderLocation = "HX-Location"
	HeaderPushURL  = "HX-Push-Url"
	HeaderRedirect = "HX-Redirect"
	HeaderRefresh  = "HX-Refresh"
	HeaderReswap   = "HX-Reswap"
	HeaderRetarget = "HX-Retarget"
	HeaderTrigger  = "HX-Trigger"
)

// IsRequest reports whether r was issued by the client library
// and so expects a Fragment rather than a full Page.
//
// Boosted requests navigate whole pages and are not partial.
func IsRequest(r *http.Request) bool {
	return r.Header.Get(HeaderRequest) == "true" && r.Header.Get(HeaderBoosted) != "true"
}

// CurrentURL returns the URL of the page that issued r, if known.
func CurrentURL(r *http.Request) string {
	return r.Header.Get(HeaderCurrentURL)
}
