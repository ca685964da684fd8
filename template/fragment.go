package template

import "strings"

// A Fragment is rendered, escaped markup.
// Interpolating a Fragment into a template emits it unescaped.
type Fragment struct {
	html string
}

// RawFragment marks s as safe markup.
// s is emitted verbatim: never pass it user input.
func RawFragment(s string) Fragment {
	return Fragment{html: s}
}

// EscapedFragment escapes s into a Fragment.
func EscapedFragment(s string) Fragment {
	return Fragment{html: EscapeHTML(s)}
}

// Empty reports whether f holds no markup.
func (f Fragment) Empty() bool { return f.html == "" }

// String returns the markup of f.
func (f Fragment) String() string { return f.html }

// Concat returns f followed by others.
func (f Fragment) Concat(others ...Fragment) Fragment {
	return JoinFragments(append([]Fragment{f}, others...), "")
}

// JoinFragments concatenates frags, placing the literal markup sep between each.
func JoinFragments(frags []Fragment, sep string) Fragment {
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.html
	}

	return Fragment{html: strings.Join(parts, sep)}
}
