package route

import (
	"net/url"
	"strings"
)

// An Endpoint is a validated, already escaped URL for a registered route.
//
// Endpoints only come from a Builder,
// so the path always has the shape of the route's Pattern.
// The zero value is not a usable Endpoint; check IsZero.
type Endpoint struct {
	method   string
	route    string
	path     string
	query    url.Values
	fragment string
}

// Method returns the HTTP method of the route the Endpoint targets.
func (e Endpoint) Method() string { return e.method }

// Route returns the name of the route the Endpoint targets.
func (e Endpoint) Route() string { return e.route }

// Path returns the escaped path of the Endpoint.
func (e Endpoint) Path() string { return e.path }

// Query returns a copy of the query parameters of the Endpoint.
func (e Endpoint) Query() url.Values { return cloneValues(e.query) }

// Fragment returns the unescaped fragment of the Endpoint.
func (e Endpoint) Fragment() string { return e.fragment }

// IsZero reports whether the Endpoint was not produced by a Builder.
func (e Endpoint) IsZero() bool { return e.path == "" }

// WithQuery returns a copy of the Endpoint with key set to values.
func (e Endpoint) WithQuery(key string, values ...string) Endpoint {
	q := cloneValues(e.query)
	if q == nil {
		q = make(url.Values)
	}
	q[key] = append([]string(nil), values...)

	e.query = q
	return e
}

// WithFragment returns a copy of the Endpoint with its fragment set to f.
func (e Endpoint) WithFragment(f string) Endpoint {
	e.fragment = f
	return e
}

// String renders the Endpoint as path[?query][#fragment].
func (e Endpoint) String() string {
	var sb strings.Builder
	sb.WriteString(e.path)
	if len(e.query) > 0 {
		sb.WriteByte('?')
		sb.WriteString(e.query.Encode())
	}

	if e.fragment != "" {
		sb.WriteByte('#')
		sb.WriteString((&url.URL{Fragment: e.fragment}).EscapedFragment())
	}

	return sb.String()
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}

	c := make(url.Values, len(v))
	for k, vals := range v {
		c[k] = append([]string(nil), vals...)
	}

	return c
}
