package template_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/canopy/hx"
	"github.com/xy-planning-network/canopy/template"
)

func parse(t *testing.T, text string) *template.Tree {
	t.Helper()

	tree, err := template.Parse(template.Source{ID: "test.html", Text: text})
	require.Nil(t, err)
	return tree
}

func TestParseElement(t *testing.T) {
	// Arrange + Act
	tree := parse(t, `<div class="card" hidden title={name}>Hi {name}<br></div>`)

	// Assert
	require.Len(t, tree.Nodes, 1)
	el, ok := tree.Nodes[0].(*template.Element)
	require.True(t, ok)
	require.Equal(t, "div", el.Tag)
	require.Len(t, el.Attrs, 3)
	require.Equal(t, template.Attr{Kind: template.AttrLiteral, Name: "class", Value: "card", Offset: 5}, el.Attrs[0])
	require.Equal(t, template.AttrBare, el.Attrs[1].Kind)
	require.Equal(t, template.AttrExpr, el.Attrs[2].Kind)
	require.Equal(t, "name", el.Attrs[2].Expr.String())

	require.Len(t, el.Children, 3)
	text, ok := el.Children[0].(*template.Text)
	require.True(t, ok)
	require.Equal(t, "Hi ", text.Value)

	x, ok := el.Children[1].(*template.Expression)
	require.True(t, ok)
	require.Equal(t, "name", x.X.String())
	require.False(t, x.Raw)

	br, ok := el.Children[2].(*template.Element)
	require.True(t, ok)
	require.True(t, br.Void)
}

func TestParseAttrValues(t *testing.T) {
	tcs := []struct {
		name     string
		text     string
		expected string
	}{
		{"double-quoted", `<p title="a b"></p>`, "a b"},
		{"single-quoted", `<p title='a "b"'></p>`, `a "b"`},
		{"escaped-quote", `<p title="a \"b\""></p>`, `a "b"`},
		{"unquoted", `<p title=ab></p>`, "ab"},
		{"braces-in-literal", `<p title="{not an expression}"></p>`, "{not an expression}"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange + Act
			tree := parse(t, tc.text)

			// Assert
			el := tree.Nodes[0].(*template.Element)
			require.Equal(t, tc.expected, el.Attrs[0].Value)
		})
	}
}

func TestParseDirectives(t *testing.T) {
	// Arrange
	text := `@if open {<b>open</b>} else if closed {<i>closed</i>} else {?}` +
		`@for i, item in items {{item}}` +
		`@match status { "a" => {A}, 1 => {one}, true => {yes}, other => {{other}}, _ => {none} }`

	// Act
	tree := parse(t, text)

	// Assert
	require.Len(t, tree.Nodes, 3)

	n, ok := tree.Nodes[0].(*template.If)
	require.True(t, ok)
	require.Equal(t, "open", n.Cond.String())
	require.Len(t, n.Else, 1)
	nested, ok := n.Else[0].(*template.If)
	require.True(t, ok)
	require.Equal(t, "closed", nested.Cond.String())
	require.Len(t, nested.Else, 1)

	f, ok := tree.Nodes[1].(*template.For)
	require.True(t, ok)
	require.Equal(t, "i", f.Index)
	require.Equal(t, "item", f.Binding)
	require.Equal(t, "items", f.Iter.String())

	m, ok := tree.Nodes[2].(*template.Match)
	require.True(t, ok)
	require.Len(t, m.Arms, 5)
	require.Equal(t, "a", m.Arms[0].Literal)
	require.Equal(t, 1, m.Arms[1].Literal)
	require.Equal(t, true, m.Arms[2].Literal)
	require.Equal(t, template.PatternBinding, m.Arms[3].Kind)
	require.Equal(t, "other", m.Arms[3].Binding)
	require.Equal(t, template.PatternWildcard, m.Arms[4].Kind)
}

func TestParseActionDirective(t *testing.T) {
	tcs := []struct {
		name     string
		text     string
		expected hx.Directive
	}{
		{
			"bare",
			`<a {load(item_url(42))}>View</a>`,
			hx.Directive{Verb: hx.Load},
		},
		{
			"into-push",
			`<a {load(item_url(42)).into("#detail").push()}>View</a>`,
			hx.Directive{Verb: hx.Load, Target: hx.Selector("#detail"), PushURL: true},
		},
		{
			"closest-append",
			`<form {submit(create_item()).closest("ul").append()}></form>`,
			hx.Directive{Verb: hx.Submit, Target: hx.Closest("ul"), Swap: hx.BeforeEnd},
		},
		{
			"target-this-swap",
			`<a {replace(item_url(1)).target("this").swap("outerHTML")}>x</a>`,
			hx.Directive{Verb: hx.Replace, Target: hx.This(), Swap: hx.OuterHTML},
		},
		{
			"confirm-prepend",
			`<a {remove(item_url(1)).confirm("Sure?").prepend()}>x</a>`,
			hx.Directive{Verb: hx.Remove, Confirm: "Sure?", Swap: hx.AfterBegin},
		},
		{
			"swappable-ancestor",
			`<ul data-swappable><li><a {patch(item_url(1))}>x</a></li></ul>`,
			hx.Directive{Verb: hx.Patch, Swappable: true},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange + Act
			tree := parse(t, tc.text)

			// Assert
			el := tree.Nodes[0].(*template.Element)
			for len(el.Directives) == 0 {
				el = el.Children[0].(*template.Element)
			}
			require.Len(t, el.Directives, 1)
			require.Equal(t, tc.expected, el.Directives[0].Directive)
		})
	}
}

func TestParseSpecialText(t *testing.T) {
	// Arrange + Act
	tree := parse(t, `<script>if (a < b) { go() }</script>me@@example.com<!-- dropped -->{raw(html)}`)

	// Assert
	require.Len(t, tree.Nodes, 5)

	script := tree.Nodes[0].(*template.Element)
	require.Equal(t, []template.Node{&template.Text{Value: "if (a < b) { go() }", Raw: true, Offset: 8}}, script.Children)
	require.Equal(t, "me", tree.Nodes[1].(*template.Text).Value)
	require.Equal(t, "@", tree.Nodes[2].(*template.Text).Value)
	require.Equal(t, "example.com", tree.Nodes[3].(*template.Text).Value)

	x := tree.Nodes[4].(*template.Expression)
	require.True(t, x.Raw)
	require.Equal(t, "html", x.X.String())
}

func TestParseErrors(t *testing.T) {
	tcs := []struct {
		name   string
		text   string
		kind   template.ParseErrorKind
		offset int
	}{
		{"unclosed-element", `<div>`, template.MalformedTag, 0},
		{"mismatched-close", `<div></span>`, template.MalformedTag, 5},
		{"stray-close", `hi</p>`, template.MalformedTag, 2},
		{"unterminated-tag", `<div class="a"`, template.MalformedTag, 0},
		{"unterminated-attr", `<div class="a></div>`, template.MalformedTag, 11},
		{"unterminated-comment", `<!-- hi`, template.MalformedTag, 0},
		{"if-missing-brace", `@if x <p>hi</p>`, template.UnmatchedDirective, 0},
		{"if-unclosed-body", `@if x {<p>hi</p>`, template.UnmatchedDirective, 0},
		{"else-missing-brace", `@if x {a} else b`, template.UnmatchedDirective, 10},
		{"element-unclosed-in-directive", `@if x {<p>hi}`, template.MalformedTag, 7},
		{"stray-brace", `<p>}</p>`, template.UnbalancedBrace, 3},
		{"unclosed-interpolation", `<p>{name</p>`, template.UnbalancedBrace, 3},
		{"unknown-directive", `@while x {}`, template.UnknownDirective, 0},
		{"unknown-verb", `<a {fetch(x)}>x</a>`, template.UnknownDirective, 4},
		{"unknown-modifier", `<a {load(x).sideways("y")}>x</a>`, template.UnknownDirective, 12},
		{"modifier-arg-not-literal", `<a {load(x).into(sel)}>x</a>`, template.BadExpression, 17},
		{"verb-arity", `<a {load(x, y)}>x</a>`, template.BadExpression, 4},
		{"bad-expression", `<p>{1 +}</p>`, template.BadExpression, 7},
		{"empty-expression", `<p>{ }</p>`, template.BadExpression, 3},
		{"for-missing-in", `@for x items {}`, template.BadExpression, 7},
		{"component-directive", `<Card {load(x)}></Card>`, template.MalformedTag, 6},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange + Act
			_, err := template.Parse(template.Source{ID: "test.html", Text: tc.text})

			// Assert
			require.ErrorIs(t, err, template.ErrParse)

			var pe *template.ParseError
			require.True(t, errors.As(err, &pe))
			require.Equal(t, tc.kind, pe.Kind, pe.Error())
			require.Equal(t, tc.offset, pe.Offset, pe.Error())
			require.Equal(t, "test.html", pe.Source)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	// Arrange
	text := "<div>\n  <p>\n    }\n  </p>\n</div>"

	// Act
	_, err := template.Parse(template.Source{ID: "card.html", Text: text})

	// Assert
	var pe *template.ParseError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, template.UnbalancedBrace, pe.Kind)
	require.Equal(t, 3, pe.Line)
	require.Equal(t, 5, pe.Col)
	require.Contains(t, pe.Error(), "card.html:3:5: unbalanced brace")
}

func TestParseExpr(t *testing.T) {
	tcs := []struct {
		src      string
		expected string
	}{
		{`a`, "a"},
		{`a.b.c`, "a.b.c"},
		{`f(1, "x")`, `f(1, "x")`},
		{`a + b - 1`, "a + b - 1"},
		{`!done && n > 0 || force`, "!done && n > 0 || force"},
		{`-1`, "-1"},
		{`(a)`, "a"},
		{`item.Name()`, "item.Name()"},
	}

	for _, tc := range tcs {
		t.Run(tc.src, func(t *testing.T) {
			// Arrange + Act
			x, err := template.ParseExpr(tc.src)

			// Assert
			require.Nil(t, err)
			require.Equal(t, tc.expected, x.String())
		})
	}
}
