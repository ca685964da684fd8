package template

import (
	"regexp"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"\n", "&#10;",
	"\r", "&#13;",
	"\t", "&#9;",
)

// EscapeHTML escapes s for use as element text.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// EscapeAttr escapes s for use as a quoted attribute value.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

var entityRef = regexp.MustCompile(`^&(#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)

// escapeText escapes literal template text,
// leaving character references the author wrote, e.g., &amp;, intact.
func escapeText(s string) string {
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '&' {
			if ref := entityRef.FindString(s[i:]); ref != "" {
				b.WriteString(ref)
				i += len(ref)
				continue
			}
		}

		j := i + 1
		for j < len(s) && s[j] != '&' {
			j++
		}
		b.WriteString(htmlEscaper.Replace(s[i:j]))
		i = j
	}

	return b.String()
}
