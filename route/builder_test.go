package route_test

import (
	"math"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/canopy/route"
)

func newBuilder(t *testing.T, pattern string) *route.Builder {
	t.Helper()

	m, _, err := route.Compile(pattern)
	require.Nil(t, err)

	return route.NewBuilder("test", http.MethodGet, m.Pattern())
}

func TestBuilderBuild(t *testing.T) {
	id := uuid.MustParse("5f1d7a4c-0b43-4c5e-9a55-3b2e4b1f6c11")

	tcs := []struct {
		name     string
		pattern  string
		args     []any
		expected string
	}{
		{"root", "/", nil, "/"},
		{"zero-params", "/items", nil, "/items"},
		{"int", "/items/{id:int}", []any{42}, "/items/42"},
		{"int64", "/items/{id:int}", []any{int64(9)}, "/items/9"},
		{"uint", "/items/{id:int}", []any{uint(3)}, "/items/3"},
		{"space", "/tags/{tag}", []any{"green tea"}, "/tags/green%20tea"},
		{"slash", "/tags/{tag}", []any{"a/b"}, "/tags/a%2Fb"},
		{"query-chars", "/tags/{tag}", []any{"a?b#c"}, "/tags/a%3Fb%23c"},
		{"uuid", "/users/{user:uuid}", []any{id}, "/users/5f1d7a4c-0b43-4c5e-9a55-3b2e4b1f6c11"},
		{"uuid-string", "/users/{user:uuid}", []any{"5F1D7A4C-0B43-4C5E-9A55-3B2E4B1F6C11"}, "/users/5f1d7a4c-0b43-4c5e-9a55-3b2e4b1f6c11"},
		{"catch-all", "/docs/{rest:path}", []any{"guide/a b"}, "/docs/guide/a%20b"},
		{"catch-all-slice", "/docs/{rest:path}", []any{[]string{"guide", "intro"}}, "/docs/guide/intro"},
		{"catch-all-trims", "/docs/{rest:path}", []any{"/guide/"}, "/docs/guide"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			b := newBuilder(t, tc.pattern)

			// Act
			ep, err := b.Build(tc.args...)

			// Assert
			require.Nil(t, err)
			require.Equal(t, tc.expected, ep.String())
			require.Equal(t, http.MethodGet, ep.Method())
			require.Equal(t, "test", ep.Route())
		})
	}
}

func TestBuilderBuildArgMismatch(t *testing.T) {
	tcs := []struct {
		name    string
		pattern string
		args    []any
		param   string
	}{
		{"too-few", "/items/{id:int}", nil, ""},
		{"too-many", "/items/{id:int}", []any{1, 2}, ""},
		{"args-for-literal", "/items", []any{1}, ""},
		{"string-for-int", "/items/{id:int}", []any{"42"}, "id"},
		{"int-for-string", "/tags/{tag}", []any{42}, "tag"},
		{"empty-string", "/tags/{tag}", []any{""}, "tag"},
		{"dot-dot", "/tags/{tag}", []any{".."}, "tag"},
		{"bad-uuid", "/users/{user:uuid}", []any{"nope"}, "user"},
		{"uint-overflows-int", "/items/{id:int}", []any{uint64(math.MaxUint64)}, "id"},
		{"catch-all-empty-piece", "/docs/{rest:path}", []any{"a//b"}, "rest"},
		{"catch-all-dot", "/docs/{rest:path}", []any{"a/../b"}, "rest"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			b := newBuilder(t, tc.pattern)

			// Act
			ep, err := b.Build(tc.args...)

			// Assert
			require.True(t, ep.IsZero())
			require.ErrorIs(t, err, route.ErrArgMismatch)

			var be *route.BuilderError
			require.ErrorAs(t, err, &be)
			require.Equal(t, "test", be.Route)
			require.Equal(t, tc.param, be.Param)
		})
	}
}

func TestBuilderMustBuild(t *testing.T) {
	// Arrange
	b := newBuilder(t, "/items/{id:int}")

	// Act + Assert
	require.Equal(t, "/items/42", b.MustBuild(42).String())
	require.Panics(t, func() { b.MustBuild("42") })
}

func TestSignatureCheck(t *testing.T) {
	// Arrange
	_, sig, err := route.Compile("/items/{id:int}/{tag}")
	require.Nil(t, err)

	// Act + Assert
	require.Nil(t, sig.Check(1, "tea"))
	require.ErrorIs(t, sig.Check(1), route.ErrArgMismatch)
	require.ErrorIs(t, sig.Check("tea", 1), route.ErrArgMismatch)
}

func TestEndpoint(t *testing.T) {
	// Arrange
	b := newBuilder(t, "/items/{id:int}")
	ep := b.MustBuild(42)

	// Act
	withQuery := ep.WithQuery("page", "2").WithQuery("sort", "name")
	withFragment := withQuery.WithFragment("row 4")

	// Assert
	require.Equal(t, "/items/42", ep.String())
	require.Empty(t, ep.Query())
	require.Equal(t, "/items/42?page=2&sort=name", withQuery.String())
	require.Equal(t, "/items/42?page=2&sort=name#row%204", withFragment.String())
	require.Equal(t, "row 4", withFragment.Fragment())
	require.Equal(t, "/items/42", withFragment.Path())

	// Act
	q := withQuery.Query()
	q.Set("page", "9")

	// Assert
	require.Equal(t, "2", withQuery.Query().Get("page"))
	require.True(t, route.Endpoint{}.IsZero())
}
