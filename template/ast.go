package template

import "github.com/xy-planning-network/canopy/hx"

// A Node is one of the markup node types of a Tree:
// *Element, *Text, *Expression, *If, *For, *Match, *Component or *Doctype.
type Node interface {
	node()
	Pos() int
}

// A Tree is the parsed form of a Source.
type Tree struct {
	Source Source
	Nodes  []Node
}

// AttrKind distinguishes how an attribute value is written.
type AttrKind int

const (
	// AttrLiteral is written name="value".
	AttrLiteral AttrKind = iota
	// AttrExpr is written name={expr}.
	AttrExpr
	// AttrBare is written name, without a value.
	AttrBare
)

// An Attr is an attribute of an Element or a prop of a Component.
type Attr struct {
	Kind   AttrKind
	Name   string
	Value  string
	Expr   Expr
	Offset int
}

// An Element is a markup tag with attributes and children.
type Element struct {
	Tag        string
	Attrs      []Attr
	Directives []*ActionDirective
	Children   []Node

	// Void elements never have children or a closing tag.
	Void bool

	// SelfClosed reports whether the tag was written <tag/>.
	SelfClosed bool
	Offset     int
}

// Text is literal markup text.
// Raw text, the body of a script or style element, is never escaped.
type Text struct {
	Value  string
	Raw    bool
	Offset int
}

// An Expression is an interpolated {expr}.
// {raw(expr)} sets Raw, emitting the value without escaping.
type Expression struct {
	X      Expr
	Raw    bool
	Src    string
	Offset int
}

// An If is an @if directive; else if chains nest in Else.
type If struct {
	Cond   Expr
	Then   []Node
	Else   []Node
	Offset int
}

// A For is an @for directive.
// Index is empty unless written @for i, x in items.
type For struct {
	Index   string
	Binding string
	Iter    Expr
	Body    []Node
	Offset  int
}

// A Match is an @match directive.
type Match struct {
	Scrutinee Expr
	Arms      []Arm
	Offset    int
}

// PatternKind distinguishes the patterns of a Match Arm.
type PatternKind int

const (
	PatternLiteral PatternKind = iota
	PatternWildcard
	PatternBinding
)

// An Arm is a single pattern => { body } of a Match.
type Arm struct {
	Kind PatternKind

	// Literal is set for PatternLiteral: an int, string or bool.
	Literal any

	// Binding is set for PatternBinding.
	Binding string
	Body    []Node
	Offset  int
}

// A Modifier adjusts an ActionDirective, e.g., .into("#items").
type Modifier struct {
	Name   string
	Args   []string
	Offset int
}

// An ActionDirective is an attribute-position {verb(endpoint).modifier(...)} block.
// Its Directive holds the modifiers already applied.
type ActionDirective struct {
	Verb      hx.Verb
	Endpoint  Expr
	Mods      []Modifier
	Directive hx.Directive
	Offset    int
}

// A Component is an uppercase tag rendering another template.
// Attributes are props; children render into the children prop.
type Component struct {
	Name     string
	Props    []Attr
	Children []Node
	Offset   int
}

// A Doctype is a <!DOCTYPE ...> declaration.
type Doctype struct {
	Value  string
	Offset int
}

func (*Element) node()    {}
func (*Text) node()       {}
func (*Expression) node() {}
func (*If) node()         {}
func (*For) node()        {}
func (*Match) node()      {}
func (*Component) node()  {}
func (*Doctype) node()    {}

func (n *Element) Pos() int    { return n.Offset }
func (n *Text) Pos() int       { return n.Offset }
func (n *Expression) Pos() int { return n.Offset }
func (n *If) Pos() int         { return n.Offset }
func (n *For) Pos() int        { return n.Offset }
func (n *Match) Pos() int      { return n.Offset }
func (n *Component) Pos() int  { return n.Offset }
func (n *Doctype) Pos() int    { return n.Offset }

// voidElements never carry children or a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// booleanAttrs render as a bare name when truthy and are omitted otherwise.
var booleanAttrs = map[string]bool{
	"autofocus": true, "checked": true, "disabled": true, "hidden": true,
	"multiple": true, "readonly": true, "required": true, "selected": true,
}

// rawTextElements hold text that is neither parsed nor escaped.
var rawTextElements = map[string]bool{
	"script": true,
	"style":  true,
}
