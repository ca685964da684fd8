package resp_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/http/resp"
	"github.com/xy-planning-network/canopy/hx"
	"github.com/xy-planning-network/canopy/logger/loggertest"
	"github.com/xy-planning-network/canopy/template"
	"github.com/xy-planning-network/canopy/template/templatetest"
)

const (
	htmlMediaType = "text/html; charset=utf-8"
	jsonMediaType = "application/json; charset=UTF-8"
	itemHTML      = `<p id="item">Widget</p>`
)

var files = map[string]string{
	"tmpl/item.html":   `<p id="item">{name}</p>`,
	"tmpl/err.html":    `<p>{error} {contact}</p>`,
	"tmpl/app.html":    `<main data-title={title}>{body}</main>`,
	"tmpl/broken.html": `<p>{missing}</p>`,
}

func newResponder(t *testing.T, opts ...resp.ResponderOptFn) *resp.Responder {
	t.Helper()

	ctrl := gomock.NewController(t)
	l := loggertest.NewMockLogger(ctrl)
	l.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	l.EXPECT().Error(gomock.Any(), gomock.Any()).AnyTimes()

	set := templatetest.NewSet(files, template.WithLogger(l))
	require.Nil(t, set.Declare("tmpl/item.html", template.NewEnv(template.Var[string]("name"))))
	require.Nil(t, set.Declare("tmpl/err.html", template.NewEnv(template.Var[string]("contact"), template.Var[string]("error"))))
	require.Nil(t, set.Declare("tmpl/app.html", template.LayoutEnv()))
	require.Nil(t, set.Declare("tmpl/broken.html", template.NewEnv()))

	return resp.NewResponder(append([]resp.ResponderOptFn{resp.WithLogger(l), resp.WithSet(set)}, opts...)...)
}

func newRequest(method string, headers ...string) *http.Request {
	r := httptest.NewRequest(method, "https://example.com/items/1", nil)
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}

	return r
}

func TestResponderDo(t *testing.T) {
	t.Run("Cancelled", func(t *testing.T) {
		// Arrange
		r := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
		ctx, cancel := context.WithCancel(r.Context())
		r = r.Clone(ctx)

		w := httptest.NewRecorder()
		w.WriteHeader(http.StatusPaymentRequired)

		cancel()

		d := newResponder(t)

		// Act
		err := d.Json(w, r, resp.Code(http.StatusTeapot))

		// Assert
		require.ErrorIs(t, err, resp.ErrDone)
		require.Equal(t, http.StatusPaymentRequired, w.Code)
	})
}

func TestResponderErr(t *testing.T) {
	tcs := []struct {
		name     string
		verbose  bool
		expected string
	}{
		{"Quiet", false, "Internal Server Error\n"},
		{"Verbose", true, "oh no\n"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			d := newResponder(t, resp.WithVerboseErrors(tc.verbose))
			w := httptest.NewRecorder()

			// Act
			d.Err(w, newRequest(http.MethodGet), errors.New("oh no"))

			// Assert
			require.Equal(t, http.StatusInternalServerError, w.Code)
			require.Equal(t, tc.expected, w.Body.String())
		})
	}
}

func TestResponderHtml(t *testing.T) {
	tcs := []struct {
		name   string
		opts   []resp.ResponderOptFn
		req    *http.Request
		fns    []resp.Fn
		assert func(*testing.T, *httptest.ResponseRecorder, error)
	}{
		{
			"Full-Page",
			nil,
			newRequest(http.MethodGet),
			[]resp.Fn{resp.Tmpl("tmpl/item.html"), resp.Title("Item"), resp.Values(template.Values{"name": "Widget"})},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.Nil(t, err)
				require.Equal(t, http.StatusOK, w.Code)
				require.Equal(t, htmlMediaType, w.Header().Get("Content-Type"))

				body := w.Body.String()
				require.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
				require.Contains(t, body, "<title>Item</title>")
				require.Contains(t, body, itemHTML)
			},
		},
		{
			"Partial",
			nil,
			newRequest(http.MethodGet, hx.HeaderRequest, "true"),
			[]resp.Fn{resp.Tmpl("tmpl/item.html"), resp.Title("Item"), resp.Values(template.Values{"name": "Widget"})},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.Nil(t, err)
				require.Equal(t, http.StatusOK, w.Code)
				require.Equal(t, itemHTML, w.Body.String())
			},
		},
		{
			"Boosted",
			nil,
			newRequest(http.MethodGet, hx.HeaderRequest, "true", hx.HeaderBoosted, "true"),
			[]resp.Fn{resp.Tmpl("tmpl/item.html"), resp.Values(template.Values{"name": "Widget"})},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.Nil(t, err)
				require.True(t, strings.HasPrefix(w.Body.String(), "<!DOCTYPE html>"))
			},
		},
		{
			"Layout",
			nil,
			newRequest(http.MethodGet),
			[]resp.Fn{
				resp.Tmpl("tmpl/item.html"),
				resp.Layout("tmpl/app.html"),
				resp.Title("Item"),
				resp.Values(template.Values{"name": "Widget"}),
			},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.Nil(t, err)
				require.Equal(t, `<main data-title="Item">`+itemHTML+`</main>`, w.Body.String())
			},
		},
		{
			"WithLayout",
			[]resp.ResponderOptFn{resp.WithLayout("tmpl/app.html")},
			newRequest(http.MethodGet),
			[]resp.Fn{resp.Tmpl("tmpl/item.html"), resp.Title("Item"), resp.Values(template.Values{"name": "Widget"})},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.Nil(t, err)
				require.Equal(t, `<main data-title="Item">`+itemHTML+`</main>`, w.Body.String())
			},
		},
		{
			"Headers-And-Code",
			nil,
			newRequest(http.MethodPost, hx.HeaderRequest, "true"),
			[]resp.Fn{
				resp.Tmpl("tmpl/item.html"),
				resp.Values(template.Values{"name": "Widget"}),
				resp.Code(http.StatusCreated),
				resp.Trigger("item-created"),
				resp.Retarget("#items"),
				resp.Reswap(hx.BeforeEnd),
				resp.PushURL("/items/1"),
			},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.Nil(t, err)
				require.Equal(t, http.StatusCreated, w.Code)
				require.Equal(t, "item-created", w.Header().Get(hx.HeaderTrigger))
				require.Equal(t, "#items", w.Header().Get(hx.HeaderRetarget))
				require.Equal(t, "beforeend", w.Header().Get(hx.HeaderReswap))
				require.Equal(t, "/items/1", w.Header().Get(hx.HeaderPushURL))
				require.Equal(t, itemHTML, w.Body.String())
			},
		},
		{
			"No-Tmpl",
			nil,
			newRequest(http.MethodGet),
			nil,
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.ErrorIs(t, err, resp.ErrMissingData)
				require.Equal(t, http.StatusInternalServerError, w.Code)
			},
		},
		{
			"Unknown-Tmpl",
			nil,
			newRequest(http.MethodGet),
			[]resp.Fn{resp.Tmpl("tmpl/nope.html")},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.ErrorIs(t, err, canopy.ErrNotExist)
				require.Equal(t, http.StatusInternalServerError, w.Code)
			},
		},
		{
			"Bind-Error",
			nil,
			newRequest(http.MethodGet),
			[]resp.Fn{resp.Tmpl("tmpl/broken.html")},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.ErrorIs(t, err, template.ErrUnknownName)
				require.Equal(t, http.StatusInternalServerError, w.Code)
				require.Equal(t, "Internal Server Error\n", w.Body.String())
			},
		},
		{
			"Err-Template",
			[]resp.ResponderOptFn{resp.WithErrTemplate("tmpl/err.html"), resp.WithContactErrMsg("call us")},
			newRequest(http.MethodGet),
			[]resp.Fn{resp.Tmpl("tmpl/broken.html")},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.ErrorIs(t, err, template.ErrUnknownName)
				require.Equal(t, http.StatusInternalServerError, w.Code)
				require.Equal(t, "<p>Internal Server Error call us</p>", w.Body.String())
			},
		},
		{
			"Bad-Fn",
			nil,
			newRequest(http.MethodGet),
			[]resp.Fn{resp.Tmpl("tmpl/item.html"), resp.Reswap("sideways")},
			func(t *testing.T, w *httptest.ResponseRecorder, err error) {
				require.ErrorIs(t, err, resp.ErrInvalid)
				require.Equal(t, http.StatusInternalServerError, w.Code)
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			d := newResponder(t, tc.opts...)
			w := httptest.NewRecorder()

			// Act
			err := d.Html(w, tc.req, tc.fns...)

			// Assert
			tc.assert(t, w, err)
		})
	}
}

func TestResponderHtmlNoSet(t *testing.T) {
	// Arrange
	ctrl := gomock.NewController(t)
	l := loggertest.NewMockLogger(ctrl)
	l.EXPECT().Error(gomock.Any(), gomock.Any())

	d := resp.NewResponder(resp.WithLogger(l))
	w := httptest.NewRecorder()

	// Act
	err := d.Html(w, newRequest(http.MethodGet), resp.Tmpl("tmpl/item.html"))

	// Assert
	require.ErrorIs(t, err, resp.ErrBadConfig)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResponderHtmlCached(t *testing.T) {
	// Arrange
	d := newResponder(t, resp.WithCache(resp.NewFragmentMap()))
	serve := func(name string) string {
		w := httptest.NewRecorder()
		err := d.Html(w, newRequest(http.MethodGet, hx.HeaderRequest, "true"),
			resp.Tmpl("tmpl/item.html"),
			resp.Values(template.Values{"name": name}),
			resp.Cached("item:1", time.Minute),
		)
		require.Nil(t, err)
		return w.Body.String()
	}

	// Act
	first := serve("Widget")
	second := serve("Gadget")

	// Assert
	require.Equal(t, itemHTML, first)
	require.Equal(t, itemHTML, second)
}

func TestResponderHtmlInjector(t *testing.T) {
	// Arrange
	d := newResponder(t, resp.WithCtxInjector(resp.DefaultInjector{Keys: map[string]any{"name": canopy.RequestIDKey}}))
	r := newRequest(http.MethodGet, hx.HeaderRequest, "true")
	r = r.WithContext(context.WithValue(r.Context(), canopy.RequestIDKey, "Widget"))
	w := httptest.NewRecorder()

	// Act
	err := d.Html(w, r, resp.Tmpl("tmpl/item.html"))

	// Assert
	require.Nil(t, err)
	require.Equal(t, itemHTML, w.Body.String())
}

func TestResponderFragment(t *testing.T) {
	// Arrange
	d := newResponder(t)
	w := httptest.NewRecorder()

	// Act
	err := d.Fragment(w, newRequest(http.MethodDelete, hx.HeaderRequest, "true"), template.EscapedFragment("<gone>"), resp.Trigger("item-deleted"))

	// Assert
	require.Nil(t, err)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "&lt;gone&gt;", w.Body.String())
	require.Equal(t, "item-deleted", w.Header().Get(hx.HeaderTrigger))
}

func TestResponderJson(t *testing.T) {
	tcs := []struct {
		name     string
		fns      []resp.Fn
		code     int
		expected string
	}{
		{"Zero-Value", nil, http.StatusOK, "{}\n"},
		{"Data", []resp.Fn{resp.Data(map[string]any{"go": "rocks"})}, http.StatusOK, `{"data":{"go":"rocks"}}` + "\n"},
		{"Code", []resp.Fn{resp.Code(http.StatusAccepted), resp.Data(1)}, http.StatusAccepted, `{"data":1}` + "\n"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			d := newResponder(t)
			w := httptest.NewRecorder()

			// Act
			err := d.Json(w, newRequest(http.MethodGet), tc.fns...)

			// Assert
			require.Nil(t, err)
			require.Equal(t, tc.code, w.Code)
			require.Equal(t, jsonMediaType, w.Header().Get("Content-Type"))
			require.Equal(t, tc.expected, w.Body.String())
		})
	}
}

func TestResponderRedirect(t *testing.T) {
	tcs := []struct {
		name     string
		opts     []resp.ResponderOptFn
		req      *http.Request
		fns      []resp.Fn
		code     int
		location string
		hxRedir  string
		err      error
	}{
		{"Url", nil, newRequest(http.MethodPost), []resp.Fn{resp.Url("/items/1")}, http.StatusSeeOther, "/items/1", "", nil},
		{"Code-Kept", nil, newRequest(http.MethodGet), []resp.Fn{resp.Url("/items/1"), resp.Code(http.StatusMovedPermanently)}, http.StatusMovedPermanently, "/items/1", "", nil},
		{"Code-Not-3xx", nil, newRequest(http.MethodGet), []resp.Fn{resp.Url("/items/1"), resp.Code(http.StatusBadRequest)}, http.StatusSeeOther, "/items/1", "", nil},
		{"Param-Before-Url", nil, newRequest(http.MethodGet), []resp.Fn{resp.Param("tab", "1"), resp.Url("/items")}, http.StatusSeeOther, "/items?tab=1", "", nil},
		{"To-Root", []resp.ResponderOptFn{resp.WithRootUrl("https://example.com")}, newRequest(http.MethodGet), nil, http.StatusSeeOther, "https://example.com", "", nil},
		{"HX", nil, newRequest(http.MethodPost, hx.HeaderRequest, "true"), []resp.Fn{resp.Url("/items/1")}, http.StatusOK, "", "/items/1", nil},
		{"No-Url", nil, newRequest(http.MethodGet), nil, http.StatusOK, "", "", resp.ErrMissingData},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			d := newResponder(t, tc.opts...)
			w := httptest.NewRecorder()

			// Act
			err := d.Redirect(w, tc.req, tc.fns...)

			// Assert
			require.ErrorIs(t, err, tc.err)
			require.Equal(t, tc.code, w.Code)
			require.Equal(t, tc.location, w.Header().Get("Location"))
			require.Equal(t, tc.hxRedir, w.Header().Get(hx.HeaderRedirect))
		})
	}
}
