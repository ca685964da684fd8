package template_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/canopy/template"
)

func TestBind(t *testing.T) {
	tbl := newTable(t)
	env := template.NewEnv(
		template.Var[string]("name"),
		template.Var[int]("n"),
		template.Var[item]("item"),
		template.Var[*item]("ptr"),
		template.Var[[]item]("items"),
		template.Var[map[string]int]("counts"),
		template.Var[any]("anything"),
		template.Var[status]("status"),
		template.WithFn("upper", strings.ToUpper),
		template.WithFn("shrink", shrink),
		template.WithFn("count", count),
		template.WithBuilders(tbl),
	)

	tcs := []struct {
		name string
		text string
	}{
		{"var", `<p>{name}</p>`},
		{"field", `{item.Name}`},
		{"method", `{item.Label}`},
		{"method-call", `{item.Label()}`},
		{"pointer-method", `{item.Rename("x")}`},
		{"pointer-field", `{ptr.Name}`},
		{"map-key", `{counts.open}`},
		{"dynamic", `{anything.Whatever.Deeper}`},
		{"fn", `{upper(name)}`},
		{"fn-int-literal", `{shrink(127)}{shrink(-128)}{count(255)}`},
		{"builtin", `{len(items)}`},
		{"arith", `{n + 1}{n - 1}{-n}{name + "!"}`},
		{"compare", `@if n > 0 && name != "" {x}`},
		{"for", `@for item in items {{item.Name}}`},
		{"for-index", `@for i, item in items {{i}:{item.Name}}`},
		{"for-map", `@for k, v in counts {{k}{v + 1}}`},
		{"for-nested", `@for item in items {@for tag in item.Tags {{tag}}}`},
		{"match", `@match n { 1 => {one}, other => {{other + 1}}, _ => {} }`},
		{"match-stringer", `@match status { 0 => {closed}, _ => {{status}} }`},
		{"directive", `<a {load(item_url(42))}>View</a>`},
		{"directive-var", `<a {remove(delete_item(n))}>x</a>`},
		{"directive-with-query", `<a {load(items_url().WithQuery("page", "2"))}>x</a>`},
		{"directive-catch-all", `<a {load(doc_url("guide/intro"))}>x</a>`},
		{"attr", `<input value={name} disabled={n > 1}>`},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange + Act
			b, err := compile(t, tc.text, env)

			// Assert
			require.Nil(t, err)
			require.NotNil(t, b)
		})
	}
}

func TestBindErrors(t *testing.T) {
	tbl := newTable(t)
	env := template.NewEnv(
		template.Var[string]("name"),
		template.Var[int]("n"),
		template.Var[item]("item"),
		template.Var[[]item]("items"),
		template.WithFn("upper", strings.ToUpper),
		template.WithFn("shrink", shrink),
		template.WithFn("count", count),
		template.WithBuilders(tbl),
	)

	tcs := []struct {
		name   string
		text   string
		kind   template.BindErrorKind
		ident  string
		sentry error
	}{
		{"unknown-var", `{missing}`, template.UnknownName, "missing", template.ErrUnknownName},
		{"for-binding-leaks", `@for it in items {{it.Name}}{it}`, template.UnknownName, "it", template.ErrUnknownName},
		{"match-binding-leaks", `@match n { x => {{x}} }{x}`, template.UnknownName, "x", template.ErrUnknownName},
		{"unknown-field", `{item.Nope}`, template.UnknownName, "item.Nope", template.ErrUnknownName},
		{"unexported-field", `{item.secret}`, template.UnknownName, "item.secret", template.ErrUnknownName},
		{"unknown-fn", `{nope(1)}`, template.UnknownName, "nope", template.ErrUnknownName},
		{"unknown-builder", `<a {load(nope_url(1))}>x</a>`, template.UnknownName, "nope_url", template.ErrUnknownName},
		{"builder-arity", `<a {load(item_url())}>x</a>`, template.BuilderArgMismatch, "item_url", template.ErrBuilderArgMismatch},
		{"builder-extra-arg", `<a {load(item_url(1, 2))}>x</a>`, template.BuilderArgMismatch, "item_url", template.ErrBuilderArgMismatch},
		{"builder-arg-type", `<a {load(item_url(name))}>x</a>`, template.BuilderArgMismatch, "item_url", template.ErrBuilderArgMismatch},
		{"verb-mismatch", `<a {submit(item_url(1))}>x</a>`, template.VerbMismatch, "item_url", template.ErrVerbMismatch},
		{"verb-mismatch-delete", `<a {remove(update_item(1))}>x</a>`, template.VerbMismatch, "update_item", template.ErrVerbMismatch},
		{"not-endpoint", `<a {load(name)}>x</a>`, template.NotEndpoint, "name", template.ErrNotEndpoint},
		{"not-iterable", `@for x in n {{x}}`, template.NotIterable, "n", template.ErrNotIterable},
		{"match-literal-type", `@match n { "a" => {a} }`, template.ArgMismatch, "n", template.ErrArgMismatch},
		{"fn-arg-type", `{upper(n)}`, template.ArgMismatch, "upper", template.ErrArgMismatch},
		{"fn-arity", `{upper()}`, template.ArgMismatch, "upper", template.ErrArgMismatch},
		{"fn-int-literal-overflows", `{shrink(300)}`, template.ArgMismatch, "shrink", template.ErrArgMismatch},
		{"fn-int-literal-underflows", `{shrink(-129)}`, template.ArgMismatch, "shrink", template.ErrArgMismatch},
		{"fn-negative-for-uint", `{count(-1)}`, template.ArgMismatch, "count", template.ErrArgMismatch},
		{"compare-struct", `@if item > 1 {x}`, template.ArgMismatch, "item > 1", template.ErrArgMismatch},
		{"add-mismatch", `{name + 1}`, template.ArgMismatch, `name + 1`, template.ErrArgMismatch},
		{"negate-string", `{-name}`, template.ArgMismatch, "-name", template.ErrArgMismatch},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange + Act
			b, err := compile(t, tc.text, env)

			// Assert
			require.Nil(t, b)
			require.ErrorIs(t, err, tc.sentry)

			var be *template.BindError
			require.True(t, errors.As(err, &be))
			require.Equal(t, tc.kind, be.Kind, be.Error())
			require.Equal(t, tc.ident, be.Name)
			require.Equal(t, "test.html", be.Source)
		})
	}
}

func TestBindJoinsErrors(t *testing.T) {
	// Arrange
	text := "<p>{first}</p>\n<p>{second}</p>"

	// Act
	_, err := compile(t, text, template.NewEnv())

	// Assert
	require.ErrorIs(t, err, template.ErrUnknownName)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	errs := joined.Unwrap()
	require.Len(t, errs, 2)

	first := errs[0].(*template.BindError)
	require.Equal(t, "first", first.Name)
	require.Equal(t, 1, first.Line)
	require.Equal(t, 5, first.Col)

	second := errs[1].(*template.BindError)
	require.Equal(t, "second", second.Name)
	require.Equal(t, 2, second.Line)
	require.Equal(t, 5, second.Col)
	require.Equal(t, "test.html:2:5: unknown name: second", second.Error())
}

func TestBindShadowing(t *testing.T) {
	// Arrange
	env := template.NewEnv(
		template.Var[string]("item"),
		template.Var[[]item]("items"),
	)

	// Act
	_, err := compile(t, `@for item in items {{item.Name}}{item}`, env)

	// Assert
	require.Nil(t, err)
}

func TestBindComponents(t *testing.T) {
	set := newSet(t, map[string]string{
		"card.html": `<div class="card"><h2>{title}</h2>{children}</div>`,
		"badge.html": `<span>{count}</span>`,
	})
	require.Nil(t, set.DeclareComponent("Card", "card.html", template.NewEnv(
		template.Var[string]("title"),
		template.Var[template.Fragment]("children"),
	)))
	require.Nil(t, set.DeclareComponent("Badge", "badge.html", template.NewEnv(
		template.Var[int]("count"),
	)))

	env := template.NewEnv(
		template.Var[string]("name"),
		template.Var[int]("n"),
		template.WithComponents(set),
	)

	tcs := []struct {
		name  string
		text  string
		err   error
		ident string
	}{
		{"ok", `<Card title={name}><p>hi</p></Card>`, nil, ""},
		{"literal-prop", `<Card title="Hello"/>`, nil, ""},
		{"int-literal-prop", `<Badge count={3}/>`, nil, ""},
		{"unknown-component", `<Nope/>`, template.ErrUnknownName, "Nope"},
		{"unknown-prop", `<Card title="x" subtitle="y"/>`, template.ErrUnknownName, "Card.subtitle"},
		{"prop-type", `<Badge count={name}/>`, template.ErrArgMismatch, "Badge.count"},
		{"no-children", `<Badge count={n}><p>x</p></Badge>`, template.ErrUnknownName, "Badge.children"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange + Act
			_, err := compile(t, tc.text, env)

			// Assert
			if tc.err == nil {
				require.Nil(t, err)
				return
			}

			require.ErrorIs(t, err, tc.err)

			var be *template.BindError
			require.True(t, errors.As(err, &be))
			require.Equal(t, tc.ident, be.Name)
		})
	}
}
