package hx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/hx"
	"github.com/xy-planning-network/canopy/route"
)

func endpoint(t *testing.T, method, pattern string, args ...any) route.Endpoint {
	t.Helper()

	m, _, err := route.Compile(pattern)
	require.Nil(t, err)

	ep, err := route.NewBuilder("test", method, m.Pattern()).Build(args...)
	require.Nil(t, err)

	return ep
}

func TestResolve(t *testing.T) {
	tcs := []struct {
		name     string
		d        hx.Directive
		method   string
		expected hx.AttributeSet
	}{
		{
			"load",
			hx.Directive{Verb: hx.Load},
			http.MethodGet,
			hx.AttributeSet{{"hx-get", "/items/42"}, {"hx-target", "this"}, {"hx-swap", "innerHTML"}},
		},
		{
			"submit",
			hx.Directive{Verb: hx.Submit},
			http.MethodPost,
			hx.AttributeSet{{"hx-post", "/items/42"}, {"hx-target", "this"}, {"hx-swap", "innerHTML"}},
		},
		{
			"replace",
			hx.Directive{Verb: hx.Replace},
			http.MethodPut,
			hx.AttributeSet{{"hx-put", "/items/42"}, {"hx-target", "this"}, {"hx-swap", "outerHTML"}},
		},
		{
			"remove",
			hx.Directive{Verb: hx.Remove},
			http.MethodDelete,
			hx.AttributeSet{{"hx-delete", "/items/42"}, {"hx-target", "this"}, {"hx-swap", "delete"}},
		},
		{
			"patch",
			hx.Directive{Verb: hx.Patch},
			http.MethodPatch,
			hx.AttributeSet{{"hx-patch", "/items/42"}, {"hx-target", "this"}, {"hx-swap", "outerHTML"}},
		},
		{
			"swappable-ancestor",
			hx.Directive{Verb: hx.Remove, Swappable: true},
			http.MethodDelete,
			hx.AttributeSet{{"hx-delete", "/items/42"}, {"hx-target", "closest [data-swappable]"}, {"hx-swap", "delete"}},
		},
		{
			"explicit-target-wins",
			hx.Directive{Verb: hx.Submit, Target: hx.Selector("#items"), Swap: hx.BeforeEnd, Swappable: true},
			http.MethodPost,
			hx.AttributeSet{{"hx-post", "/items/42"}, {"hx-target", "#items"}, {"hx-swap", "beforeend"}},
		},
		{
			"closest",
			hx.Directive{Verb: hx.Remove, Target: hx.Closest("li"), Swap: hx.OuterHTML},
			http.MethodDelete,
			hx.AttributeSet{{"hx-delete", "/items/42"}, {"hx-target", "closest li"}, {"hx-swap", "outerHTML"}},
		},
		{
			"confirm-and-push",
			hx.Directive{Verb: hx.Load, Target: hx.This(), Confirm: "Sure?", PushURL: true},
			http.MethodGet,
			hx.AttributeSet{{"hx-get", "/items/42"}, {"hx-target", "this"}, {"hx-swap", "innerHTML"}, {"hx-confirm", "Sure?"}, {"hx-push-url", "true"}},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			ep := endpoint(t, tc.method, "/items/{id:int}", 42)

			// Act
			actual := hx.Resolve(tc.d, ep)

			// Assert
			require.Equal(t, tc.expected, actual)
			require.Equal(t, tc.method, tc.d.Verb.Method())
		})
	}
}

func TestResolveKeepsQuery(t *testing.T) {
	// Arrange
	ep := endpoint(t, http.MethodGet, "/items").WithQuery("page", "2")

	// Act
	actual := hx.Resolve(hx.Directive{Verb: hx.Load}, ep)

	// Assert
	v, ok := actual.Get("hx-get")
	require.True(t, ok)
	require.Equal(t, "/items?page=2", v)

	_, ok = actual.Get("hx-confirm")
	require.False(t, ok)
}

func TestAttributeSetString(t *testing.T) {
	// Arrange
	as := hx.AttributeSet{{"hx-get", "/items?a=1&b=2"}, {"hx-confirm", `Say "yes"`}}

	// Act
	actual := as.String()

	// Assert
	require.Equal(t, `hx-get="/items?a=1&amp;b=2" hx-confirm="Say &#34;yes&#34;"`, actual)
}

func TestParseVerb(t *testing.T) {
	for _, v := range hx.Verbs() {
		actual, ok := hx.ParseVerb(v.String())
		require.True(t, ok)
		require.Equal(t, v, actual)
		require.NoError(t, v.Valid())
	}

	_, ok := hx.ParseVerb("fetch")
	require.False(t, ok)
	require.ErrorIs(t, hx.Verb("fetch").Valid(), canopy.ErrNotValid)
}

func TestParseSwap(t *testing.T) {
	tcs := []struct {
		val string
		ok  bool
	}{
		{"innerHTML", true},
		{"outerHTML", true},
		{"beforebegin", true},
		{"afterbegin", true},
		{"beforeend", true},
		{"afterend", true},
		{"delete", true},
		{"none", true},
		{"innerhtml", false},
		{"", false},
	}

	for _, tc := range tcs {
		t.Run(tc.val, func(t *testing.T) {
			actual, ok := hx.ParseSwap(tc.val)
			require.Equal(t, tc.ok, ok)
			if ok {
				require.Equal(t, tc.val, actual.String())
				require.NoError(t, actual.Valid())
				return
			}

			require.ErrorIs(t, hx.Swap(tc.val).Valid(), canopy.ErrNotValid)
		})
	}
}

func TestIsRequest(t *testing.T) {
	tcs := []struct {
		name     string
		headers  map[string]string
		expected bool
	}{
		{"plain", nil, false},
		{"htmx", map[string]string{hx.HeaderRequest: "true"}, true},
		{"boosted", map[string]string{hx.HeaderRequest: "true", hx.HeaderBoosted: "true"}, false},
		{"false", map[string]string{hx.HeaderRequest: "false"}, false},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}

			// Act + Assert
			require.Equal(t, tc.expected, hx.IsRequest(r))
		})
	}
}
