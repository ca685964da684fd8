package template

import (
	"fmt"
	"strconv"
	"strings"
)

// An Expr is an embedded value expression:
// *Ident, *Selector, *Call, *IntLit, *StringLit, *BoolLit, *NilLit, *Unary or *Binary.
type Expr interface {
	expr()
	Pos() int
	String() string
}

// An Ident names a variable, function or route builder.
type Ident struct {
	Name   string
	Offset int
}

// A Selector is X.Sel: a field, zero-argument method or map key.
type Selector struct {
	X      Expr
	Sel    string
	Offset int
}

// A Call is Fn(Args...).
type Call struct {
	Fn     Expr
	Args   []Expr
	Offset int
}

type IntLit struct {
	Value  int
	Offset int
}

type StringLit struct {
	Value  string
	Offset int
}

type BoolLit struct {
	Value  bool
	Offset int
}

type NilLit struct {
	Offset int
}

// A Unary is !X or -X.
type Unary struct {
	Op     string
	X      Expr
	Offset int
}

// A Binary is X Op Y for ==, !=, <, <=, >, >=, &&, ||, + and -.
type Binary struct {
	Op     string
	X, Y   Expr
	Offset int
}

func (*Ident) expr()     {}
func (*Selector) expr()  {}
func (*Call) expr()      {}
func (*IntLit) expr()    {}
func (*StringLit) expr() {}
func (*BoolLit) expr()   {}
func (*NilLit) expr()    {}
func (*Unary) expr()     {}
func (*Binary) expr()    {}

func (e *Ident) Pos() int     { return e.Offset }
func (e *Selector) Pos() int  { return e.Offset }
func (e *Call) Pos() int      { return e.Offset }
func (e *IntLit) Pos() int    { return e.Offset }
func (e *StringLit) Pos() int { return e.Offset }
func (e *BoolLit) Pos() int   { return e.Offset }
func (e *NilLit) Pos() int    { return e.Offset }
func (e *Unary) Pos() int     { return e.Offset }
func (e *Binary) Pos() int    { return e.Offset }

func (e *Ident) String() string     { return e.Name }
func (e *Selector) String() string  { return e.X.String() + "." + e.Sel }
func (e *IntLit) String() string    { return strconv.Itoa(e.Value) }
func (e *StringLit) String() string { return strconv.Quote(e.Value) }
func (e *BoolLit) String() string   { return strconv.FormatBool(e.Value) }
func (e *NilLit) String() string    { return "nil" }
func (e *Unary) String() string     { return e.Op + e.X.String() }
func (e *Binary) String() string    { return e.X.String() + " " + e.Op + " " + e.Y.String() }

func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}

	return e.Fn.String() + "(" + strings.Join(args, ", ") + ")"
}

// exprError reports an expression that cannot be parsed at an absolute offset.
type exprError struct {
	offset int
	msg    string
}

func (e *exprError) Error() string { return e.msg }

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokInt
	tokString
	tokOp
)

type token struct {
	kind tokKind
	text string
	pos  int
}

// twoCharOps must be checked before single characters.
var twoCharOps = []string{"==", "!=", "<=", ">=", "&&", "||"}

const oneCharOps = ".,()!-+<>"

// lexExpr splits src into tokens, offsetting positions by base.
func lexExpr(src string, base int) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: base + start})

		case c >= '0' && c <= '9':
			start := i
			for i < len(src) && src[i] >= '0' && src[i] <= '9' {
				i++
			}
			toks = append(toks, token{kind: tokInt, text: src[start:i], pos: base + start})

		case c == '"' || c == '`':
			end := skipString(src, i)
			if end < 0 {
				return nil, &exprError{offset: base + i, msg: "unterminated string"}
			}

			s, err := strconv.Unquote(src[i:end])
			if err != nil {
				return nil, &exprError{offset: base + i, msg: fmt.Sprintf("invalid string: %s", err)}
			}

			toks = append(toks, token{kind: tokString, text: s, pos: base + i})
			i = end

		default:
			op := ""
			for _, two := range twoCharOps {
				if strings.HasPrefix(src[i:], two) {
					op = two
					break
				}
			}

			if op == "" && strings.IndexByte(oneCharOps, c) >= 0 {
				op = string(c)
			}

			if op == "" {
				return nil, &exprError{offset: base + i, msg: fmt.Sprintf("unexpected %q", c)}
			}

			toks = append(toks, token{kind: tokOp, text: op, pos: base + i})
			i += len(op)
		}
	}

	return append(toks, token{kind: tokEOF, pos: base + len(src)}), nil
}

// skipString returns the index just past the string literal starting at src[i],
// or -1 if it is unterminated.
func skipString(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch {
		case src[j] == '\\' && quote == '"':
			j++
		case src[j] == quote:
			return j + 1
		}
	}

	return -1
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// exprParser is a precedence-climbing parser over tokens.
type exprParser struct {
	toks []token
	i    int
}

// ParseExpr parses src as a single expression.
// Offsets in the result are relative to the start of src.
func ParseExpr(src string) (Expr, error) {
	return parseExpr(src, 0)
}

func parseExpr(src string, base int) (Expr, error) {
	toks, err := lexExpr(src, base)
	if err != nil {
		return nil, err
	}

	p := &exprParser{toks: toks}
	x, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t.kind != tokEOF {
		return nil, &exprError{offset: t.pos, msg: fmt.Sprintf("unexpected %q after expression", t.text)}
	}

	return x, nil
}

func (p *exprParser) peek() token { return p.toks[p.i] }

func (p *exprParser) advance() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}

	return t
}

func precedence(op string) int {
	switch op {
	case "||":
		return 1
	case "&&":
		return 2
	case "==", "!=", "<", "<=", ">", ">=":
		return 3
	case "+", "-":
		return 4
	default:
		return 0
	}
}

func (p *exprParser) parseBinary(min int) (Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		prec := precedence(t.text)
		if t.kind != tokOp || prec < min {
			return x, nil
		}
		p.advance()

		y, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}

		x = &Binary{Op: t.text, X: x, Y: y, Offset: t.pos}
	}
}

func (p *exprParser) parseUnary() (Expr, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "!" || t.text == "-") {
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		if lit, ok := x.(*IntLit); ok && t.text == "-" {
			return &IntLit{Value: -lit.Value, Offset: t.pos}, nil
		}

		return &Unary{Op: t.text, X: x, Offset: t.pos}, nil
	}

	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		switch {
		case t.kind == tokOp && t.text == ".":
			p.advance()
			sel := p.advance()
			if sel.kind != tokIdent {
				return nil, &exprError{offset: sel.pos, msg: "expected name after ."}
			}
			x = &Selector{X: x, Sel: sel.text, Offset: sel.pos}

		case t.kind == tokOp && t.text == "(":
			p.advance()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			x = &Call{Fn: x, Args: args, Offset: x.Pos()}

		default:
			return x, nil
		}
	}
}

func (p *exprParser) parseArgs() ([]Expr, error) {
	var args []Expr
	if t := p.peek(); t.kind == tokOp && t.text == ")" {
		p.advance()
		return args, nil
	}

	for {
		arg, err := p.parseBinary(1)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		t := p.advance()
		switch {
		case t.kind == tokOp && t.text == ")":
			return args, nil
		case t.kind == tokOp && t.text == ",":
		default:
			return nil, &exprError{offset: t.pos, msg: "expected , or ) in argument list"}
		}
	}
}

func (p *exprParser) parsePrimary() (Expr, error) {
	t := p.advance()
	switch t.kind {
	case tokIdent:
		switch t.text {
		case "true", "false":
			return &BoolLit{Value: t.text == "true", Offset: t.pos}, nil
		case "nil":
			return &NilLit{Offset: t.pos}, nil
		default:
			return &Ident{Name: t.text, Offset: t.pos}, nil
		}

	case tokInt:
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, &exprError{offset: t.pos, msg: fmt.Sprintf("invalid integer %s", t.text)}
		}
		return &IntLit{Value: n, Offset: t.pos}, nil

	case tokString:
		return &StringLit{Value: t.text, Offset: t.pos}, nil

	case tokOp:
		if t.text == "(" {
			x, err := p.parseBinary(1)
			if err != nil {
				return nil, err
			}

			if closing := p.advance(); closing.kind != tokOp || closing.text != ")" {
				return nil, &exprError{offset: closing.pos, msg: "expected )"}
			}
			return x, nil
		}
		return nil, &exprError{offset: t.pos, msg: fmt.Sprintf("unexpected %q", t.text)}

	default:
		return nil, &exprError{offset: t.pos, msg: "expected an expression"}
	}
}
