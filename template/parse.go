package template

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xy-planning-network/canopy/hx"
)

// stop names what ends a run of nodes.
type stop int

const (
	stopEOF stop = iota
	stopClose
	stopBrace
)

// parser is a recursive-descent parser over the text of a single Source.
type parser struct {
	src  Source
	text string
	pos  int

	// dirDepth counts the directive bodies currently open.
	dirDepth int

	// swappable counts the open elements carrying hx.SwappableAttr.
	swappable int
}

// Parse parses src into a *Tree.
//
// Parse is deterministic and touches no shared state.
// Failures are a *ParseError locating the offending text.
func Parse(src Source) (*Tree, error) {
	p := &parser{src: src, text: src.Text}
	nodes, err := p.parseNodes(stopEOF, "", 0)
	if err != nil {
		return nil, err
	}

	return &Tree{Source: src, Nodes: nodes}, nil
}

func (p *parser) errorf(kind ParseErrorKind, offset int, format string, args ...any) error {
	line, col := p.src.position(offset)
	return &ParseError{
		Kind:   kind,
		Source: p.src.ID,
		Offset: offset,
		Line:   line,
		Col:    col,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// exprErr converts an expression parsing failure into a *ParseError.
func (p *parser) exprErr(err error) error {
	var ee *exprError
	if errors.As(err, &ee) {
		return p.errorf(BadExpression, ee.offset, "%s", ee.msg)
	}

	return err
}

func (p *parser) eof() bool { return p.pos >= len(p.text) }

func (p *parser) peekAt(i int) byte {
	if i >= len(p.text) {
		return 0
	}

	return p.text[i]
}

func (p *parser) hasPrefix(s string) bool { return strings.HasPrefix(p.text[p.pos:], s) }

// hasWord reports whether the keyword w starts at the current position.
func (p *parser) hasWord(w string) bool {
	return p.hasPrefix(w) && !isIdentPart(p.peekAt(p.pos+len(w)))
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.text[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

// special reports whether the text at i begins something other than plain text.
func (p *parser) special(i int) bool {
	switch p.text[i] {
	case '{', '}':
		return true
	case '@':
		next := p.peekAt(i + 1)
		return next == '@' || isLetter(next)
	case '<':
		next := p.peekAt(i + 1)
		return next == '/' || next == '!' || isLetter(next)
	default:
		return false
	}
}

// parseNodes parses nodes until the end named by until.
// tag is the element being closed by stopClose; open is the offset of whatever began the run.
func (p *parser) parseNodes(until stop, tag string, open int) ([]Node, error) {
	var nodes []Node
	for {
		if p.eof() {
			switch until {
			case stopClose:
				return nil, p.errorf(MalformedTag, open, "unclosed <%s>", tag)
			case stopBrace:
				return nil, p.errorf(UnmatchedDirective, open, "missing closing }")
			default:
				return nodes, nil
			}
		}

		var (
			n   Node
			err error
		)

		switch c := p.text[p.pos]; {
		case p.hasPrefix("</"):
			start := p.pos
			name, err := p.parseClosingTag()
			if err != nil {
				return nil, err
			}

			if until == stopClose && name == tag {
				return nodes, nil
			}

			if until == stopClose {
				return nil, p.errorf(MalformedTag, start, "expected </%s>, found </%s>", tag, name)
			}
			return nil, p.errorf(MalformedTag, start, "unexpected </%s>", name)

		case p.hasPrefix("<!--"):
			err = p.skipComment()

		case p.hasPrefix("<!"):
			n, err = p.parseDoctype()

		case c == '<' && isLetter(p.peekAt(p.pos+1)):
			n, err = p.parseElement()

		case c == '{':
			n, err = p.parseInterpolation()

		case c == '}':
			switch {
			case until == stopBrace:
				p.pos++
				return nodes, nil
			case until == stopClose && p.dirDepth > 0:
				return nil, p.errorf(MalformedTag, open, "unclosed <%s>", tag)
			default:
				return nil, p.errorf(UnbalancedBrace, p.pos, "unexpected }")
			}

		case p.hasPrefix("@@"):
			n = &Text{Value: "@", Offset: p.pos}
			p.pos += 2

		case c == '@' && isLetter(p.peekAt(p.pos+1)):
			n, err = p.parseDirective()

		default:
			n = p.parseText()
		}

		if err != nil {
			return nil, err
		}

		if n != nil {
			nodes = append(nodes, n)
		}
	}
}

func (p *parser) parseText() Node {
	start := p.pos
	p.pos++
	for !p.eof() && !p.special(p.pos) {
		p.pos++
	}

	return &Text{Value: p.text[start:p.pos], Offset: start}
}

func (p *parser) readName() string {
	start := p.pos
	for !p.eof() {
		c := p.text[p.pos]
		if !isIdentPart(c) && c != '-' && c != ':' && c != '.' {
			break
		}
		p.pos++
	}

	return p.text[start:p.pos]
}

func (p *parser) parseClosingTag() (string, error) {
	start := p.pos
	p.pos += 2
	name := p.readName()
	p.skipSpace()
	if name == "" || p.eof() || p.text[p.pos] != '>' {
		return "", p.errorf(MalformedTag, start, "malformed closing tag")
	}
	p.pos++

	return name, nil
}

func (p *parser) skipComment() error {
	start := p.pos
	end := strings.Index(p.text[p.pos+4:], "-->")
	if end < 0 {
		return p.errorf(MalformedTag, start, "unterminated comment")
	}
	p.pos += 4 + end + 3

	return nil
}

func (p *parser) parseDoctype() (Node, error) {
	start := p.pos
	end := strings.IndexByte(p.text[p.pos:], '>')
	if end < 0 {
		return nil, p.errorf(MalformedTag, start, "unterminated declaration")
	}

	value := p.text[p.pos+2 : p.pos+end]
	if !strings.HasPrefix(strings.ToLower(value), "doctype") {
		return nil, p.errorf(MalformedTag, start, "unknown declaration <!%s>", value)
	}
	p.pos += end + 1

	return &Doctype{Value: value, Offset: start}, nil
}

func (p *parser) parseElement() (Node, error) {
	start := p.pos
	p.pos++
	name := p.readName()

	attrs, directives, selfClosed, err := p.parseAttrs(start, name)
	if err != nil {
		return nil, err
	}

	if isUpper(name[0]) {
		if len(directives) > 0 {
			return nil, p.errorf(MalformedTag, directives[0].Offset, "action directives are not allowed on component <%s>", name)
		}

		c := &Component{Name: name, Props: attrs, Offset: start}
		if !selfClosed {
			if c.Children, err = p.parseNodes(stopClose, name, start); err != nil {
				return nil, err
			}
		}
		return c, nil
	}

	lower := strings.ToLower(name)
	el := &Element{
		Tag:        name,
		Attrs:      attrs,
		Directives: directives,
		Void:       voidElements[lower],
		SelfClosed: selfClosed,
		Offset:     start,
	}

	switch {
	case el.Void || selfClosed:
		return el, nil

	case rawTextElements[lower]:
		body, err := p.parseRawText(start, name)
		if err != nil {
			return nil, err
		}

		if body != nil {
			el.Children = []Node{body}
		}
		return el, nil
	}

	swappable := hasAttr(attrs, hx.SwappableAttr)
	if swappable {
		p.swappable++
	}

	el.Children, err = p.parseNodes(stopClose, name, start)
	if swappable {
		p.swappable--
	}

	if err != nil {
		return nil, err
	}

	return el, nil
}

func hasAttr(attrs []Attr, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}

	return false
}

// parseRawText consumes the body of a script or style element through its closing tag.
func (p *parser) parseRawText(start int, name string) (Node, error) {
	closing := "</" + strings.ToLower(name)
	end := strings.Index(strings.ToLower(p.text[p.pos:]), closing)
	if end < 0 {
		return nil, p.errorf(MalformedTag, start, "unclosed <%s>", name)
	}

	bodyStart := p.pos
	body := p.text[p.pos : p.pos+end]
	p.pos += end
	if _, err := p.parseClosingTag(); err != nil {
		return nil, err
	}

	if body == "" {
		return nil, nil
	}

	return &Text{Value: body, Raw: true, Offset: bodyStart}, nil
}

func (p *parser) parseAttrs(start int, tag string) ([]Attr, []*ActionDirective, bool, error) {
	var (
		attrs      []Attr
		directives []*ActionDirective
	)

	for {
		p.skipSpace()
		if p.eof() {
			return nil, nil, false, p.errorf(MalformedTag, start, "unterminated <%s", tag)
		}

		switch {
		case p.text[p.pos] == '>':
			p.pos++
			return attrs, directives, false, nil

		case p.hasPrefix("/>"):
			p.pos += 2
			return attrs, directives, true, nil

		case p.text[p.pos] == '{':
			d, err := p.parseActionDirective()
			if err != nil {
				return nil, nil, false, err
			}
			directives = append(directives, d)

		default:
			a, err := p.parseAttr()
			if err != nil {
				return nil, nil, false, err
			}
			attrs = append(attrs, a)
		}
	}
}

func (p *parser) parseAttr() (Attr, error) {
	start := p.pos
	for !p.eof() && !strings.ContainsRune(" \t\n\r=>/\"'{}<", rune(p.text[p.pos])) {
		p.pos++
	}

	name := p.text[start:p.pos]
	if name == "" {
		return Attr{}, p.errorf(MalformedTag, start, "unexpected %q in tag", p.text[start])
	}

	save := p.pos
	p.skipSpace()
	if p.eof() || p.text[p.pos] != '=' {
		p.pos = save
		return Attr{Kind: AttrBare, Name: name, Offset: start}, nil
	}
	p.pos++
	p.skipSpace()

	if p.eof() {
		return Attr{}, p.errorf(MalformedTag, start, "missing value for attribute %s", name)
	}

	switch q := p.text[p.pos]; q {
	case '"', '\'':
		valStart := p.pos
		p.pos++
		var b strings.Builder
		for {
			if p.eof() {
				return Attr{}, p.errorf(MalformedTag, valStart, "unterminated value for attribute %s", name)
			}

			c := p.text[p.pos]
			if c == '\\' && p.peekAt(p.pos+1) == q {
				b.WriteByte(q)
				p.pos += 2
				continue
			}

			p.pos++
			if c == q {
				break
			}
			b.WriteByte(c)
		}
		return Attr{Kind: AttrLiteral, Name: name, Value: b.String(), Offset: start}, nil

	case '{':
		open := p.pos
		inner, err := p.braced()
		if err != nil {
			return Attr{}, err
		}

		if strings.TrimSpace(inner) == "" {
			return Attr{}, p.errorf(BadExpression, open, "empty expression")
		}

		x, err := parseExpr(inner, open+1)
		if err != nil {
			return Attr{}, p.exprErr(err)
		}
		return Attr{Kind: AttrExpr, Name: name, Expr: x, Offset: start}, nil

	default:
		valStart := p.pos
		for !p.eof() && !strings.ContainsRune(" \t\n\r>", rune(p.text[p.pos])) {
			p.pos++
		}
		return Attr{Kind: AttrLiteral, Name: name, Value: p.text[valStart:p.pos], Offset: start}, nil
	}
}

// braced consumes a balanced {...} starting at the current position,
// returning the text between the braces.
// Nested braces are counted and string literals are skipped.
func (p *parser) braced() (string, error) {
	open := p.pos
	depth := 0
	for i := p.pos; i < len(p.text); i++ {
		switch p.text[i] {
		case '"', '`':
			end := skipString(p.text, i)
			if end < 0 {
				return "", p.errorf(UnbalancedBrace, open, "unterminated string in {")
			}
			i = end - 1
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				p.pos = i + 1
				return p.text[open+1 : i], nil
			}
		}
	}

	return "", p.errorf(UnbalancedBrace, open, "unclosed {")
}

func (p *parser) parseInterpolation() (Node, error) {
	open := p.pos
	inner, err := p.braced()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(inner) == "" {
		return nil, p.errorf(BadExpression, open, "empty expression")
	}

	x, err := parseExpr(inner, open+1)
	if err != nil {
		return nil, p.exprErr(err)
	}

	e := &Expression{X: x, Src: inner, Offset: open}
	if call, ok := x.(*Call); ok && len(call.Args) == 1 {
		if fn, ok := call.Fn.(*Ident); ok && fn.Name == "raw" {
			e.X = call.Args[0]
			e.Raw = true
		}
	}

	return e, nil
}

// parseActionDirective parses an attribute-position {verb(endpoint).modifier(...)} block.
func (p *parser) parseActionDirective() (*ActionDirective, error) {
	open := p.pos
	inner, err := p.braced()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(inner) == "" {
		return nil, p.errorf(BadExpression, open, "empty action directive")
	}

	x, err := parseExpr(inner, open+1)
	if err != nil {
		return nil, p.exprErr(err)
	}

	var mods []Modifier
	for {
		call, ok := x.(*Call)
		if !ok {
			return nil, p.errorf(UnknownDirective, x.Pos(), "expected verb(endpoint), found %s", x)
		}

		sel, ok := call.Fn.(*Selector)
		if !ok {
			break
		}

		args := make([]string, len(call.Args))
		for i, a := range call.Args {
			lit, ok := a.(*StringLit)
			if !ok {
				return nil, p.errorf(BadExpression, a.Pos(), "modifier %s takes string literals", sel.Sel)
			}
			args[i] = lit.Value
		}

		mods = append([]Modifier{{Name: sel.Sel, Args: args, Offset: sel.Offset}}, mods...)
		x = sel.X
	}

	call := x.(*Call)
	ident, ok := call.Fn.(*Ident)
	if !ok {
		return nil, p.errorf(UnknownDirective, call.Pos(), "expected an action verb, found %s", call.Fn)
	}

	verb, ok := hx.ParseVerb(ident.Name)
	if !ok {
		return nil, p.errorf(UnknownDirective, ident.Offset, "unknown action verb %q", ident.Name)
	}

	if len(call.Args) != 1 {
		return nil, p.errorf(BadExpression, call.Pos(), "%s takes exactly one endpoint", verb)
	}

	d := &ActionDirective{
		Verb:      verb,
		Endpoint:  call.Args[0],
		Mods:      mods,
		Directive: hx.Directive{Verb: verb, Swappable: p.swappable > 0},
		Offset:    open,
	}

	for _, m := range mods {
		if err := p.applyModifier(&d.Directive, m); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func (p *parser) applyModifier(d *hx.Directive, m Modifier) error {
	want := 1
	switch m.Name {
	case "append", "prepend", "push":
		want = 0
	case "target", "closest", "into", "swap", "confirm":
	default:
		return p.errorf(UnknownDirective, m.Offset, "unknown modifier %q", m.Name)
	}

	if len(m.Args) != want {
		return p.errorf(BadExpression, m.Offset, "modifier %s takes %d argument(s), got %d", m.Name, want, len(m.Args))
	}

	switch m.Name {
	case "target":
		if m.Args[0] == "this" {
			d.Target = hx.This()
		} else {
			d.Target = hx.Selector(m.Args[0])
		}
	case "closest":
		d.Target = hx.Closest(m.Args[0])
	case "into":
		d.Target = hx.Selector(m.Args[0])
	case "swap":
		s, ok := hx.ParseSwap(m.Args[0])
		if !ok {
			return p.errorf(UnknownDirective, m.Offset, "unknown swap %q", m.Args[0])
		}
		d.Swap = s
	case "append":
		d.Swap = hx.BeforeEnd
	case "prepend":
		d.Swap = hx.AfterBegin
	case "confirm":
		d.Confirm = m.Args[0]
	case "push":
		d.PushURL = true
	}

	return nil
}

func (p *parser) parseDirective() (Node, error) {
	start := p.pos
	p.pos++

	switch {
	case p.hasWord("if"):
		p.pos += len("if")
		return p.parseIf(start)
	case p.hasWord("for"):
		p.pos += len("for")
		return p.parseFor(start)
	case p.hasWord("match"):
		p.pos += len("match")
		return p.parseMatch(start)
	}

	word := p.readName()
	return nil, p.errorf(UnknownDirective, start, "unknown directive @%s", word)
}

// header consumes the text between a directive keyword and the { opening its body.
func (p *parser) header(start int) (string, int, error) {
	hStart := p.pos
	for i := p.pos; i < len(p.text); i++ {
		switch p.text[i] {
		case '"', '`':
			end := skipString(p.text, i)
			if end < 0 {
				return "", 0, p.errorf(UnmatchedDirective, start, "unterminated string in directive")
			}
			i = end - 1
		case '}':
			return "", 0, p.errorf(UnmatchedDirective, start, "missing { after directive")
		case '{':
			p.pos = i + 1
			return p.text[hStart:i], hStart, nil
		}
	}

	return "", 0, p.errorf(UnmatchedDirective, start, "missing { after directive")
}

func (p *parser) body(open int) ([]Node, error) {
	p.dirDepth++
	defer func() { p.dirDepth-- }()

	return p.parseNodes(stopBrace, "", open)
}

func (p *parser) headerExpr(start int, what string) (Expr, error) {
	h, base, err := p.header(start)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(h) == "" {
		return nil, p.errorf(BadExpression, start, "missing %s", what)
	}

	x, err := parseExpr(h, base)
	if err != nil {
		return nil, p.exprErr(err)
	}

	return x, nil
}

func (p *parser) parseIf(start int) (Node, error) {
	cond, err := p.headerExpr(start, "condition")
	if err != nil {
		return nil, err
	}

	n := &If{Cond: cond, Offset: start}
	if n.Then, err = p.body(start); err != nil {
		return nil, err
	}

	save := p.pos
	p.skipSpace()
	if !p.hasWord("else") {
		p.pos = save
		return n, nil
	}

	elseStart := p.pos
	p.pos += len("else")
	p.skipSpace()

	switch {
	case p.hasWord("if"):
		ifStart := p.pos
		p.pos += len("if")
		nested, err := p.parseIf(ifStart)
		if err != nil {
			return nil, err
		}
		n.Else = []Node{nested}

	case !p.eof() && p.text[p.pos] == '{':
		p.pos++
		if n.Else, err = p.body(elseStart); err != nil {
			return nil, err
		}

	default:
		return nil, p.errorf(UnmatchedDirective, elseStart, "else without {")
	}

	return n, nil
}

func (p *parser) parseFor(start int) (Node, error) {
	h, base, err := p.header(start)
	if err != nil {
		return nil, err
	}

	toks, err := lexExpr(h, base)
	if err != nil {
		return nil, p.exprErr(err)
	}

	n := &For{Offset: start}
	i := 0
	if toks[i].kind != tokIdent {
		return nil, p.errorf(BadExpression, toks[i].pos, "expected @for name in expression")
	}
	n.Binding = toks[i].text
	i++

	if toks[i].kind == tokOp && toks[i].text == "," {
		if toks[i+1].kind != tokIdent {
			return nil, p.errorf(BadExpression, toks[i+1].pos, "expected name after ,")
		}
		n.Index, n.Binding = n.Binding, toks[i+1].text
		i += 2
	}

	if toks[i].kind != tokIdent || toks[i].text != "in" {
		return nil, p.errorf(BadExpression, toks[i].pos, "expected in")
	}

	rest := toks[i].pos - base + len("in")
	if strings.TrimSpace(h[rest:]) == "" {
		return nil, p.errorf(BadExpression, toks[i].pos, "missing expression after in")
	}

	if n.Iter, err = parseExpr(h[rest:], base+rest); err != nil {
		return nil, p.exprErr(err)
	}

	if n.Body, err = p.body(start); err != nil {
		return nil, err
	}

	return n, nil
}

func (p *parser) parseMatch(start int) (Node, error) {
	scrutinee, err := p.headerExpr(start, "expression")
	if err != nil {
		return nil, err
	}

	n := &Match{Scrutinee: scrutinee, Offset: start}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf(UnmatchedDirective, start, "missing closing }")
		}

		if p.text[p.pos] == '}' {
			p.pos++
			return n, nil
		}

		arm, err := p.parseArm()
		if err != nil {
			return nil, err
		}
		n.Arms = append(n.Arms, arm)

		p.skipSpace()
		if !p.eof() && p.text[p.pos] == ',' {
			p.pos++
		}
	}
}

func (p *parser) parseArm() (Arm, error) {
	arm := Arm{Offset: p.pos}
	c := p.text[p.pos]

	switch {
	case c == '"' || c == '`':
		end := skipString(p.text, p.pos)
		if end < 0 {
			return Arm{}, p.errorf(BadExpression, p.pos, "unterminated string")
		}

		s, err := strconv.Unquote(p.text[p.pos:end])
		if err != nil {
			return Arm{}, p.errorf(BadExpression, p.pos, "invalid string: %s", err)
		}
		arm.Kind, arm.Literal = PatternLiteral, s
		p.pos = end

	case c == '-' || (c >= '0' && c <= '9'):
		numStart := p.pos
		p.pos++
		for !p.eof() && p.text[p.pos] >= '0' && p.text[p.pos] <= '9' {
			p.pos++
		}

		n, err := strconv.Atoi(p.text[numStart:p.pos])
		if err != nil {
			return Arm{}, p.errorf(BadExpression, numStart, "invalid integer pattern")
		}
		arm.Kind, arm.Literal = PatternLiteral, n

	case isIdentStart(c):
		name := p.readName()
		switch name {
		case "_":
			arm.Kind = PatternWildcard
		case "true", "false":
			arm.Kind, arm.Literal = PatternLiteral, name == "true"
		default:
			if !validIdent(name) {
				return Arm{}, p.errorf(BadExpression, arm.Offset, "invalid pattern %q", name)
			}
			arm.Kind, arm.Binding = PatternBinding, name
		}

	default:
		return Arm{}, p.errorf(BadExpression, p.pos, "invalid pattern")
	}

	p.skipSpace()
	if !p.hasPrefix("=>") {
		return Arm{}, p.errorf(BadExpression, p.pos, "expected => after pattern")
	}
	p.pos += 2
	p.skipSpace()

	if p.eof() || p.text[p.pos] != '{' {
		return Arm{}, p.errorf(UnmatchedDirective, arm.Offset, "missing { after =>")
	}
	p.pos++

	body, err := p.body(arm.Offset)
	if err != nil {
		return Arm{}, err
	}
	arm.Body = body

	return arm, nil
}

func validIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}

	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}

	return true
}
