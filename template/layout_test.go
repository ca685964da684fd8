package template_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/canopy/template"
)

func TestPageRenderDefaultLayout(t *testing.T) {
	// Arrange
	p := template.Page{Title: "Items <all>", Body: template.RawFragment("<ul><li>a</li></ul>")}

	// Act
	out, err := p.Render(context.Background())

	// Assert
	require.Nil(t, err)

	html := out.String()
	require.True(t, strings.HasPrefix(html, "<!DOCTYPE html>\n"))
	require.Contains(t, html, `<meta charset="utf-8">`)
	require.Contains(t, html, `<meta name="viewport" content="width=device-width, initial-scale=1">`)
	require.Contains(t, html, "<title>Items &lt;all&gt;</title>")
	require.Contains(t, html, `<script src="`+template.DefaultHTMXSrc+`"></script>`)
	require.Contains(t, html, "<body>\n<ul><li>a</li></ul>\n</body>")
}

func TestPageRenderLayout(t *testing.T) {
	// Arrange
	set := newSet(t, map[string]string{
		"layouts/app.html": `<main data-user={user} title={title}>{body}</main>`,
	})
	require.Nil(t, set.Declare("layouts/app.html", template.LayoutEnv(template.Var[string]("user"))))

	l, err := set.Layout("layouts/app.html")
	require.Nil(t, err)

	p := template.Page{
		Title:  "Home",
		Body:   template.EscapedFragment("a & b"),
		Layout: l,
		Values: template.Values{"user": "dlk"},
	}

	// Act
	out, err := p.Render(context.Background())

	// Assert
	require.Nil(t, err)
	require.Equal(t, `<main data-user="dlk" title="Home">a &amp; b</main>`, out.String())
}

func TestSetErrorTemplate(t *testing.T) {
	// Arrange
	set := newSet(t, map[string]string{})
	require.Nil(t, set.Declare(template.ErrorID, template.ErrorEnv()))

	// Act
	out, err := set.Render(context.Background(), template.ErrorID, template.Values{
		"contact": "Email us at <help@example.com>",
		"error":   "Internal Server Error",
	})

	// Assert
	require.Nil(t, err)
	require.Contains(t, out.String(), "<p>Internal Server Error</p>")
	require.Contains(t, out.String(), "<p>Email us at &lt;help@example.com&gt;</p>")
}
