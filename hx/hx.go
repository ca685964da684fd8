package hx

import (
	"html"
	"net/http"
	"strings"

	"github.com/xy-planning-network/canopy"
	"github.com/xy-planning-network/canopy/route"
)

var (
	_ canopy.Enumerable = Verb("")
	_ canopy.Enumerable = Swap("")
)

// SwappableAttr marks an element as the default target
// of action directives on its descendants.
const SwappableAttr = "data-swappable"

// A Verb names the kind of request an action directive issues.
type Verb string

const (
	Load    Verb = "load"
	Submit  Verb = "submit"
	Replace Verb = "replace"
	Remove  Verb = "remove"
	Patch   Verb = "patch"
)

// Verbs lists every Verb in declaration order.
func Verbs() []Verb { return []Verb{Load, Submit, Replace, Remove, Patch} }

// ParseVerb returns the Verb named s.
func ParseVerb(s string) (Verb, bool) {
	for _, v := range Verbs() {
		if string(v) == s {
			return v, true
		}
	}

	return "", false
}

func (v Verb) String() string { return string(v) }

func (v Verb) Valid() error {
	if _, ok := ParseVerb(string(v)); !ok {
		return canopy.ErrNotValid
	}

	return nil
}

// Method returns the HTTP method requests for v use.
func (v Verb) Method() string {
	switch v {
	case Load:
		return http.MethodGet
	case Submit:
		return http.MethodPost
	case Replace:
		return http.MethodPut
	case Remove:
		return http.MethodDelete
	case Patch:
		return http.MethodPatch
	default:
		return ""
	}
}

// Attr returns the attribute carrying the request URL for v, e.g., hx-get.
func (v Verb) Attr() string {
	return "hx-" + strings.ToLower(v.Method())
}

// DefaultSwap returns the Swap used when a directive names none.
func (v Verb) DefaultSwap() Swap {
	switch v {
	case Replace, Patch:
		return OuterHTML
	case Remove:
		return Delete
	default:
		return InnerHTML
	}
}

// A Swap is a strategy for placing a response into its target.
type Swap string

const (
	InnerHTML   Swap = "innerHTML"
	OuterHTML   Swap = "outerHTML"
	BeforeBegin Swap = "beforebegin"
	AfterBegin  Swap = "afterbegin"
	BeforeEnd   Swap = "beforeend"
	AfterEnd    Swap = "afterend"
	Delete      Swap = "delete"
	None        Swap = "none"
)

// ParseSwap returns the Swap named s.
func ParseSwap(s string) (Swap, bool) {
	switch sw := Swap(s); sw {
	case InnerHTML, OuterHTML, BeforeBegin, AfterBegin, BeforeEnd, AfterEnd, Delete, None:
		return sw, true
	default:
		return "", false
	}
}

func (s Swap) String() string { return string(s) }

func (s Swap) Valid() error {
	if _, ok := ParseSwap(string(s)); !ok {
		return canopy.ErrNotValid
	}

	return nil
}

// TargetKind distinguishes how a Target selects an element.
type TargetKind int

const (
	// TargetDefault defers to the nearest swappable ancestor, or else the element itself.
	TargetDefault TargetKind = iota
	TargetThis
	TargetClosest
	TargetSelector
)

// A Target selects the element a response is swapped into.
type Target struct {
	Kind     TargetKind
	Selector string
}

// This targets the element carrying the directive.
func This() Target { return Target{Kind: TargetThis} }

// Closest targets the nearest ancestor matching sel.
func Closest(sel string) Target { return Target{Kind: TargetClosest, Selector: sel} }

// Selector targets the first element in the document matching sel.
func Selector(sel string) Target { return Target{Kind: TargetSelector, Selector: sel} }

// String renders the Target as an hx-target value.
// TargetDefault renders as "this".
func (t Target) String() string {
	switch t.Kind {
	case TargetClosest:
		return "closest " + t.Selector
	case TargetSelector:
		return t.Selector
	default:
		return "this"
	}
}

// A Directive describes a partial-update request attached to an element.
type Directive struct {
	Verb   Verb
	Target Target

	// Swap is empty when the Verb's default applies.
	Swap    Swap
	Confirm string
	PushURL bool

	// Swappable reports whether the element carrying the Directive
	// has an ancestor marked with SwappableAttr.
	Swappable bool
}

// An Attr is a single output attribute.
type Attr struct {
	Name  string
	Value string
}

// An AttributeSet is an ordered list of attributes.
type AttributeSet []Attr

// Get returns the value of the attribute named name.
func (as AttributeSet) Get(name string) (string, bool) {
	for _, a := range as {
		if a.Name == name {
			return a.Value, true
		}
	}

	return "", false
}

// String renders the AttributeSet as space-separated name="value" pairs
// with values HTML-escaped.
func (as AttributeSet) String() string {
	parts := make([]string, len(as))
	for i, a := range as {
		parts[i] = a.Name + `="` + html.EscapeString(a.Value) + `"`
	}

	return strings.Join(parts, " ")
}

// Resolve maps d and ep onto the attributes the client library understands.
//
// Attributes are emitted in a fixed order:
// the request attribute (e.g., hx-get), hx-target, hx-swap,
// then hx-confirm and hx-push-url when set.
// An unset Target resolves to the nearest swappable ancestor when d.Swappable,
// otherwise to the element itself.
func Resolve(d Directive, ep route.Endpoint) AttributeSet {
	target := d.Target
	if target.Kind == TargetDefault && d.Swappable {
		target = Closest("[" + SwappableAttr + "]")
	}

	swap := d.Swap
	if swap == "" {
		swap = d.Verb.DefaultSwap()
	}

	as := AttributeSet{
		{Name: d.Verb.Attr(), Value: ep.String()},
		{Name: "hx-target", Value: target.String()},
		{Name: "hx-swap", Value: swap.String()},
	}

	if d.Confirm != "" {
		as = append(as, Attr{Name: "hx-confirm", Value: d.Confirm})
	}

	if d.PushURL {
		as = append(as, Attr{Name: "hx-push-url", Value: "true"})
	}

	return as
}
