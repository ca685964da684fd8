package resp

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xy-planning-network/canopy/hx"
	"github.com/xy-planning-network/canopy/route"
	"github.com/xy-planning-network/canopy/template"
)

// A Fn is a functional option that mutates the state of the Response.
type Fn func(Responder, *Response) error

// A Response is the internal object a Responder response method builds while applying all
// functional options.
//
// Notably, a Response holds the template.Values the template renders with
// and the partial-update headers sent alongside it.
type Response struct {
	w         http.ResponseWriter
	r         *http.Request
	closeBody bool
	code      int
	data      any
	tmpl      string
	title     string
	layout    string
	vals      template.Values
	url       *url.URL

	cache struct {
		key string
		ttl time.Duration
	}

	hx struct {
		pushURL  string
		reswap   string
		retarget string
		trigger  []string
	}
}

// Cached stores the body rendered by Html in the Responder's FragmentCacher under key for ttl,
// serving it from the cache on later calls with the same key.
//
// The key ought to identify everything the body depends on,
// e.g., "items:" + the last modified time of the items.
//
// If WithCache was not called setting up the Responder, Cached does nothing.
func Cached(key string, ttl time.Duration) Fn {
	return func(_ Responder, r *Response) error {
		if key == "" {
			return fmt.Errorf("%w: empty cache key", ErrInvalid)
		}

		r.cache.key = key
		r.cache.ttl = ttl
		return nil
	}
}

// Code sets the response status code.
func Code(c int) Fn {
	return func(_ Responder, r *Response) error {
		r.code = c
		return nil
	}
}

// Data stores the provided value for writing to the client.
//
// Used with Responder.Json.
func Data(d any) Fn {
	return func(_ Responder, r *Response) error {
		r.data = d
		return nil
	}
}

// Endpoint sets the URL of the Response to the route.Endpoint.
//
// Used with Responder.Redirect.
func Endpoint(ep route.Endpoint) Fn {
	return func(d Responder, r *Response) error {
		if ep.IsZero() {
			return fmt.Errorf("%w: zero endpoint", ErrInvalid)
		}

		return Url(ep.String())(d, r)
	}
}

// Err sets the status code http.StatusInternalServerError and logs the error.
func Err(e error) Fn {
	return func(d Responder, r *Response) error {
		if e != nil {
			d.logger.Error(e.Error(), newLogContext(r.r, e, nil))
		}

		return Code(http.StatusInternalServerError)(d, r)
	}
}

// Layout sets the template declared at id as the layout wrapping the body Html renders.
//
// Used with Responder.Html.
func Layout(id string) Fn {
	return func(_ Responder, r *Response) error {
		r.layout = id
		return nil
	}
}

// Param adds the query parameter to the response's URL.
//
// Used with Responder.Redirect.
func Param(key, val string) Fn {
	return func(_ Responder, r *Response) error {
		if r.url == nil {
			return fmt.Errorf("%w: Url() has not been called", ErrMissingData)
		}

		q := r.url.Query()
		q.Add(key, val)
		r.url.RawQuery = q.Encode()
		return nil
	}
}

// Params adds the query parameters to the response's URL.
//
// Used with Responder.Redirect.
func Params(params map[string]string) Fn {
	return func(d Responder, r *Response) error {
		for k, v := range params {
			if err := Param(k, v)(d, r); err != nil {
				return err
			}
		}

		return nil
	}
}

// PushURL sets the URL the client library pushes into the browser history
// after swapping the response in.
func PushURL(u string) Fn {
	return func(_ Responder, r *Response) error {
		r.hx.pushURL = u
		return nil
	}
}

// Reswap overrides how the client library swaps the response in.
func Reswap(s hx.Swap) Fn {
	return func(_ Responder, r *Response) error {
		if _, ok := hx.ParseSwap(s.String()); !ok {
			return fmt.Errorf("%w: swap %q", ErrInvalid, s)
		}

		r.hx.reswap = s.String()
		return nil
	}
}

// Retarget overrides the element the client library swaps the response into.
func Retarget(selector string) Fn {
	return func(_ Responder, r *Response) error {
		r.hx.retarget = selector
		return nil
	}
}

// Title sets the title of the page Html renders.
//
// Used with Responder.Html.
func Title(title string) Fn {
	return func(_ Responder, r *Response) error {
		r.title = title
		return nil
	}
}

// Tmpl sets the template rendered as the body of the response.
//
// Used with Responder.Html.
func Tmpl(id string) Fn {
	return func(_ Responder, r *Response) error {
		r.tmpl = id
		return nil
	}
}

// ToRoot calls URL with the Responder's default, root URL.
func ToRoot() Fn {
	return func(d Responder, r *Response) error {
		if d.rootUrl == nil {
			return nil
		}

		u := *d.rootUrl
		r.url = &u
		return nil
	}
}

// Trigger appends to the events the client library fires after swapping the response in.
func Trigger(events ...string) Fn {
	return func(_ Responder, r *Response) error {
		r.hx.trigger = append(r.hx.trigger, events...)
		return nil
	}
}

// Url parses raw the URL string and sets it in the *Response if successful.
//
// Used with Responder.Redirect.
func Url(u string) Fn {
	return func(_ Responder, r *Response) error {
		parsed, err := url.ParseRequestURI(u)
		if err != nil {
			return fmt.Errorf("%w: u is not a valid URL: %v", ErrInvalid, err)
		}
		r.url = parsed
		return nil
	}
}

// Values merges vals into the template.Values the template renders with.
// Later calls overwrite values set by earlier ones.
//
// Used with Responder.Html.
func Values(vals template.Values) Fn {
	return func(_ Responder, r *Response) error {
		if r.vals == nil {
			r.vals = make(template.Values, len(vals))
		}

		for k, v := range vals {
			r.vals[k] = v
		}

		return nil
	}
}

// writeHeaders sets the partial-update headers on the response.
func (r *Response) writeHeaders() {
	h := r.w.Header()
	if r.hx.pushURL != "" {
		h.Set(hx.HeaderPushURL, r.hx.pushURL)
	}

	if r.hx.reswap != "" {
		h.Set(hx.HeaderReswap, r.hx.reswap)
	}

	if r.hx.retarget != "" {
		h.Set(hx.HeaderRetarget, r.hx.retarget)
	}

	if len(r.hx.trigger) > 0 {
		h.Set(hx.HeaderTrigger, strings.Join(r.hx.trigger, ", "))
	}
}
