package resp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/xy-planning-network/canopy/hx"
	"github.com/xy-planning-network/canopy/logger"
	"github.com/xy-planning-network/canopy/template"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	htmlMediaType   = "text/html; charset=utf-8"
	jsonMediaType   = "application/json; charset=UTF-8"
	responderFrames = 0
)

// Responder maintains reusable pieces for responding to HTTP requests.
// It exposes many common methods for writing structured data as an HTTP response.
// These are the forms of response Responder can execute:
//
//	Html
//	Fragment
//	Json
//	Redirect
//
// Most oftentimes, setting up a single instance of a Responder suffices for an application.
// Meaning, one needs only application-wide configuration of how HTTP responses should look.
//
// When handling a specific HTTP request, calling code supplies additional data, structure,
// and so forth through Fn functions. While one can create functions of the same type,
// the Responder and Response structs do not expose much - if anything - to interact with.
type Responder struct {
	logger logger.Logger

	// Compiled templates to render responses with
	set *template.Set

	// Pool of *bytes.Buffer to prerender responses into
	pool *sync.Pool

	// Cache of rendered bodies, see Cached
	cache FragmentCacher

	// Error message to use for "contact us" style client-side error messages
	contactErrMsg string

	// Whether error pages include the error itself
	verbose bool

	// Root URL the responder is listening on, also used when in an error state
	rootUrl *url.URL

	// Pulls values out of the *http.Request.Context for templates
	injector ContextInjector

	tracer trace.Tracer

	templates struct {
		// Template to render when an error occurs
		// and no other response can be formed
		err string

		// Layout wrapping full pages
		layout     string
		layoutOpts []template.LayoutOptFn
	}
}

// NewResponder constructs a *Responder using the ResponderOptFns passed in.
func NewResponder(opts ...ResponderOptFn) *Responder {
	// ranging over opts may or may not overwrite defaults
	d := &Responder{
		injector: NoopInjector{},
		pool:     &sync.Pool{New: func() any { return new(bytes.Buffer) }},
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logger.New()
	}

	if l, ok := d.logger.(logger.SkipLogger); ok {
		d.logger = l.AddSkip(responderFrames)
	}

	if d.tracer == nil {
		d.tracer = otel.GetTracerProvider().Tracer(TracerName)
	}

	return d
}

// Err wraps http.Error(), logging the error causing the failure state.
//
// Use in exceptional circumstances when no Redirect or Html can occur.
func (doer *Responder) Err(w http.ResponseWriter, r *http.Request, err error, opts ...Fn) {
	rr, nested := doer.do(w, r, append(opts, Err(err))...)
	defer r.Body.Close()
	if nested != nil {
		err = fmt.Errorf("%w: %s", err, nested)
	}

	msg := http.StatusText(http.StatusInternalServerError)
	if err != nil && doer.verbose {
		msg = err.Error()
	}

	code := http.StatusInternalServerError
	if rr != nil && rr.code != 0 {
		code = rr.code
	}

	http.Error(w, msg, code)
}

// Fragment writes frag as the response, as is, along with any partial-update headers.
//
// Use Fragment when a handler already rendered what it responds with.
func (doer *Responder) Fragment(w http.ResponseWriter, r *http.Request, frag template.Fragment, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		return err
	}

	if rr.closeBody {
		defer r.Body.Close()
	}

	return doer.write(rr, frag)
}

// Html renders the template set by Tmpl with the template.Values set by Values.
//
// Requests issued by the client library (see hx.IsRequest) receive the bare Fragment
// to swap in; all others receive a full page, the Fragment wrapped in a layout.
// The layout is the one set by Layout, else WithLayout, else template.DefaultLayout.
func (doer *Responder) Html(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		return doer.handleHtmlError(w, r, err)
	}

	// TODO(dlk): call Error() instead of silently closing Body?
	if rr.closeBody {
		defer r.Body.Close()
	}

	if doer.set == nil {
		return doer.handleHtmlError(w, r, fmt.Errorf("%w: no template set configured", ErrBadConfig))
	}

	if rr.tmpl == "" {
		return doer.handleHtmlError(w, r, fmt.Errorf("%w: no template to render", ErrMissingData))
	}

	partial := hx.IsRequest(r)
	ctx, span := doer.tracer.Start(
		r.Context(),
		"resp.Html "+rr.tmpl,
		trace.WithAttributes(
			attribute.String("template.id", rr.tmpl),
			attribute.Bool("hx.request", partial),
		),
	)
	defer span.End()

	frag, err := doer.body(ctx, rr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return doer.handleHtmlError(w, r, err)
	}

	if !partial {
		page := template.Page{Title: rr.title, Body: frag, Values: rr.vals}
		if page.Layout, err = doer.layout(rr); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return doer.handleHtmlError(w, r, err)
		}

		if frag, err = page.Render(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return doer.handleHtmlError(w, r, err)
		}
	}

	return doer.write(rr, frag)
}

type jsonSchema struct {
	D any `json:"data,omitempty"`
}

// Json responds with data in JSON format, collating it from Data() and setting appropriate headers.
//
// The JSON schema will look like this:
//
//	{
//		"data": {}
//	}
func (doer *Responder) Json(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	// TODO(dlk): call Error() instead of silently closing Body?
	if err != nil {
		return err
	}

	if rr.closeBody {
		defer r.Body.Close()
	}

	if rr.code == 0 {
		rr.code = http.StatusOK
	}

	b := doer.pool.Get().(*bytes.Buffer)
	b.Reset()
	defer doer.pool.Put(b)

	if err := json.NewEncoder(b).Encode(jsonSchema{D: rr.data}); err != nil {
		doer.Err(w, r, err)
		return err
	}

	rr.writeHeaders()
	w.Header().Set("Content-Type", jsonMediaType)
	w.WriteHeader(rr.code)

	if _, err := b.WriteTo(w); err != nil {
		doer.Err(w, r, err)
		return err
	}

	return nil
}

// Redirect calls http.Redirect, given Url() set the redirect destination.
// If Url() is not passed in opts, then ToRoot() sets the redirect destination.
//
// Requests issued by the client library receive http.StatusOK and the HX-Redirect header instead,
// since the client library does not follow 3xx responses into a full page load.
//
// The default status code used is http.StatusSeeOther.
// A 3xx status code set by Code is kept.
func (doer *Responder) Redirect(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, append([]Fn{ToRoot()}, opts...)...)
	if err != nil {
		doer.Err(w, r, err)
		return err
	}

	if rr.closeBody {
		defer r.Body.Close()
	}

	// NOTE(dlk): because of the default ToRoot(),
	// this check safeguards against a Responder configured without a root URL.
	if rr.url == nil {
		return fmt.Errorf("%w: cannot redirect, no resp.url", ErrMissingData)
	}

	if hx.IsRequest(r) {
		rr.writeHeaders()
		w.Header().Set(hx.HeaderRedirect, rr.url.String())
		w.WriteHeader(http.StatusOK)
		return nil
	}

	if rr.code < http.StatusMultipleChoices || rr.code > http.StatusPermanentRedirect {
		rr.code = http.StatusSeeOther
	}

	http.Redirect(w, r, rr.url.String(), rr.code)
	return nil
}

// body renders the template of rr, going through the cache when Cached was applied.
func (doer *Responder) body(ctx context.Context, rr *Response) (template.Fragment, error) {
	cached := doer.cache != nil && rr.cache.key != ""
	if cached {
		if frag, ok := doer.cache.Get(ctx, rr.cache.key); ok {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("cache.hit", true))
			return frag, nil
		}
	}

	if rr.vals == nil {
		rr.vals = make(template.Values)
	}
	doer.injector.Inject(rr.vals, rr.r.Context())

	frag, err := doer.set.Render(ctx, rr.tmpl, rr.vals)
	if err != nil {
		return template.Fragment{}, err
	}

	if cached {
		doer.cache.Set(ctx, rr.cache.key, frag, rr.cache.ttl)
	}

	return frag, nil
}

// do applies all options to the passed in http.ResponseWriter and *http.Request.
//
// do closes the *http.Request.Body, which no calling code can read from again.
//
// Calling code ought to pass Options in the correct order.
// An option requiring something set by another one should come after.
// do nonetheless attempts to retry calling functional options until all do not return errors or,
// a set of options unable to not return errors is reached.
//
// Should all options apply successfully, do returns a validly formed *Response.
func (doer *Responder) do(w http.ResponseWriter, r *http.Request, opts ...Fn) (*Response, error) {
	resp := &Response{
		closeBody: true,
		w:         w,
		r:         r,
	}

	redos := make([]Fn, 0)
	for _, opt := range opts {
		select {
		case <-r.Context().Done():
			return nil, fmt.Errorf("%w", ErrDone)
		default:
			if err := opt(*doer, resp); err != nil {
				redos = append(redos, opt)
			}
		}
	}

	// NOTE(dlk): redo shrinks redos while options keep succeeding,
	// stopping once a pass leaves its length unchanged.
	for n := -1; len(redos) > 0 && n != len(redos); {
		select {
		case <-r.Context().Done():
			return nil, fmt.Errorf("%w", ErrDone)
		default:
			n = len(redos)
			redos = doer.redo(resp, redos...)
		}
	}

	// NOTE(dlk): wrapup errors to send back
	var err error
	for _, opt := range redos {
		nested := opt(*doer, resp)
		if err == nil {
			err = nested
			continue
		}
		err = fmt.Errorf("%w: %s", nested, err)
	}

	if err != nil {
		return resp, err
	}

	return resp, nil
}

// handleHtmlError specially renders the error template set on the Responder
// and reports errors.
func (doer *Responder) handleHtmlError(w http.ResponseWriter, r *http.Request, err error) error {
	doer.logger.Error(err.Error(), newLogContext(r, err, nil))

	msg := http.StatusText(http.StatusInternalServerError)
	if doer.verbose {
		msg = err.Error()
	}

	if doer.templates.err == "" || doer.set == nil {
		http.Error(w, msg, http.StatusInternalServerError)
		return err
	}

	frag, nested := doer.set.Render(r.Context(), doer.templates.err, template.Values{
		"contact": doer.contactErrMsg,
		"error":   msg,
	})
	if nested != nil {
		err = fmt.Errorf("%w: %s", nested, err)
		doer.logger.Error(err.Error(), nil)
		http.Error(w, msg, http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", htmlMediaType)
	w.WriteHeader(http.StatusInternalServerError)
	if _, nested = io.WriteString(w, frag.String()); nested != nil {
		err = fmt.Errorf("%w: %s", nested, err)
		doer.logger.Error(err.Error(), nil)
	}

	return err
}

// layout finds the layout wrapping full pages rendered for rr.
// A nil Layout means template.DefaultLayout.
func (doer *Responder) layout(rr *Response) (template.Layout, error) {
	id := rr.layout
	if id == "" {
		id = doer.templates.layout
	}

	if id == "" {
		return nil, nil
	}

	return doer.set.Layout(id, doer.templates.layoutOpts...)
}

// redo applies as many may Options as it can, returning those Options that continue to throw an error.
func (doer *Responder) redo(r *Response, opts ...Fn) []Fn {
	bad := make([]Fn, 0)
	for _, opt := range opts {
		if err := opt(*doer, r); err != nil {
			bad = append(bad, opt)
		}
	}

	return bad
}

// write sends frag with the partial-update headers of rr.
func (doer *Responder) write(rr *Response, frag template.Fragment) error {
	if rr.code == 0 {
		rr.code = http.StatusOK
	}

	rr.writeHeaders()
	rr.w.Header().Set("Content-Type", htmlMediaType)
	rr.w.WriteHeader(rr.code)

	if _, err := io.WriteString(rr.w, frag.String()); err != nil {
		doer.logger.Error(err.Error(), newLogContext(rr.r, err, nil))
		return err
	}

	return nil
}
