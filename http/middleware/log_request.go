package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/hx"
	"github.com/xy-planning-network/canopy/logger"
)

// LogMaskVal replaces the values of sensitive query parameters in logs.
const LogMaskVal = "xxxxxxx"

// maskedParams are query parameters whose values never reach the logs.
var maskedParams = []string{"password", "token"}

// A LogRequestRecord is what LogRequest records about a request and its response.
type LogRequestRecord struct {
	BodySize       int64         `json:"bodySize"`
	Duration       time.Duration `json:"duration"`
	HX             bool          `json:"hx,omitempty"`
	HXTarget       string        `json:"hxTarget,omitempty"`
	Host           string        `json:"host"`
	ID             string        `json:"id"`
	IPAddr         string        `json:"ipAddr,omitempty"`
	Method         string        `json:"method"`
	Path           string        `json:"path"`
	Protocol       string        `json:"protocol"`
	Referrer       string        `json:"referrer,omitempty"`
	ReqContentType string        `json:"reqContentType,omitempty"`
	Route          string        `json:"route,omitempty"`
	Scheme         string        `json:"scheme,omitempty"`
	Status         int           `json:"status"`
	URI            string        `json:"uri"`
	UserAgent      string        `json:"userAgent,omitempty"`
}

// LogRequest logs a LogRequestRecord for each request once it has been responded to,
// using the enclosed implementation of logger.Logger.
//
// LogRequest masks the values for the following query parameters:
// - password
// - token
//
// if logger.Logger is nil, NoopAdapter returns and this middleware does nothing.
func LogRequest(ls logger.Logger) Adapter {
	if ls == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(h, w, r)

			rec := newLogRequestRecord(r)
			rec.BodySize = m.Written
			rec.Duration = m.Duration
			rec.Status = m.Code

			ls.Info(
				fmt.Sprintf("%s %s %d", rec.Method, rec.URI, rec.Status),
				&logger.LogContext{Data: map[string]any{"request": rec}},
			)
		})
	}
}

func newLogRequestRecord(r *http.Request) LogRequestRecord {
	q := r.URL.Query()
	for _, k := range maskedParams {
		if q.Has(k) {
			q.Set(k, LogMaskVal)
		}
	}

	uri := r.URL.Path
	if len(q) > 0 {
		uri += "?" + q.Encode()
	}

	rec := LogRequestRecord{
		HX:             hx.IsRequest(r),
		HXTarget:       r.Header.Get(hx.HeaderTarget),
		Host:           r.Host,
		Method:         r.Method,
		Path:           r.URL.Path,
		Protocol:       r.Proto,
		Referrer:       r.Referer(),
		ReqContentType: r.Header.Get("Content-Type"),
		Scheme:         r.URL.Scheme,
		URI:            uri,
		UserAgent:      r.UserAgent(),
	}

	rec.ID, _ = r.Context().Value(canopy.RequestIDKey).(string)
	rec.Route = canopy.RouteNameFromContext(r.Context())
	rec.IPAddr, _ = r.Context().Value(canopy.IpAddrKey).(string)

	return rec
}
