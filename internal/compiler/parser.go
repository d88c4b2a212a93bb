package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aretw0/bramble/pkg/model"
)

// Scope resolves bare identifiers while compiling an expression. Fluents and
// objects come from the problem; parameters are present when compiling the
// conditions of a lifted action.
type Scope struct {
	Problem *model.Problem
	Params  map[string]*model.Parameter
	Vars    map[string]*model.Variable
}

// Parser compiles expression source text into interned nodes of the
// problem's factory.
type Parser struct {
	scope Scope
	f     *model.Factory

	src string
	pos int
	tok token
}

// NewParser creates a parser bound to a resolution scope.
func NewParser(scope Scope) *Parser {
	return &Parser{
		scope: scope,
		f:     scope.Problem.Environment().Factory(),
	}
}

// Parse compiles a single expression, requiring the whole input to be
// consumed.
func (p *Parser) Parse(src string) (*model.Node, error) {
	p.src = src
	p.pos = 0
	if err := p.next(); err != nil {
		return nil, err
	}
	n, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf("unexpected %q after expression", p.tok.text)
	}
	return n, nil
}

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokLParen
	tokRParen
	tokComma
	tokOp
)

type token struct {
	kind tokenKind
	text string
	at   int
}

func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%s at offset %d in %q", fmt.Sprintf(format, args...), p.tok.at, p.src)
}

func (p *Parser) next() error {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(p.src) {
		p.tok = token{kind: tokEOF, at: start}
		return nil
	}
	c := p.src[p.pos]
	switch {
	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "(", at: start}
	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")", at: start}
	case c == ',':
		p.pos++
		p.tok = token{kind: tokComma, text: ",", at: start}
	case strings.ContainsRune("&|!=<>+-*/", rune(c)):
		// Longest match: two-char operators before one-char forms.
		two := ""
		if p.pos+1 < len(p.src) {
			two = p.src[p.pos : p.pos+2]
		}
		switch two {
		case "&&", "||", "==", "!=", "<=", ">=", "->":
			p.pos += 2
			p.tok = token{kind: tokOp, text: two, at: start}
		default:
			p.pos++
			p.tok = token{kind: tokOp, text: string(c), at: start}
		}
	case unicode.IsDigit(rune(c)) || c == '.':
		for p.pos < len(p.src) && (unicode.IsDigit(rune(p.src[p.pos])) || p.src[p.pos] == '.') {
			p.pos++
		}
		p.tok = token{kind: tokNumber, text: p.src[start:p.pos], at: start}
	case unicode.IsLetter(rune(c)) || c == '_':
		for p.pos < len(p.src) && (unicode.IsLetter(rune(p.src[p.pos])) ||
			unicode.IsDigit(rune(p.src[p.pos])) || p.src[p.pos] == '_') {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:p.pos], at: start}
	default:
		p.tok = token{at: start}
		return p.errorf("unexpected character %q", string(c))
	}
	return nil
}

// binding powers, loosest first.
func bindingPower(op string) int {
	switch op {
	case "->", "implies", "iff":
		return 1
	case "||", "or":
		return 2
	case "&&", "and":
		return 3
	case "==", "!=", "<", "<=", ">", ">=":
		return 4
	case "+", "-":
		return 5
	case "*", "/":
		return 6
	}
	return 0
}

func (p *Parser) parseExpr(minBP int) (*model.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := ""
		switch p.tok.kind {
		case tokOp:
			op = p.tok.text
		case tokIdent:
			// Word operators keep the YAML sources readable.
			switch p.tok.text {
			case "and", "or", "implies", "iff":
				op = p.tok.text
			}
		}
		bp := bindingPower(op)
		if op == "" || bp == 0 || bp < minBP {
			return left, nil
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseExpr(bp + 1)
		if err != nil {
			return nil, err
		}
		left, err = p.combine(op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) combine(op string, a, b *model.Node) (*model.Node, error) {
	switch op {
	case "&&", "and":
		return p.f.And(a, b)
	case "||", "or":
		return p.f.Or(a, b)
	case "->", "implies":
		return p.f.Implies(a, b)
	case "iff":
		return p.f.Iff(a, b)
	case "==":
		return p.f.Equals(a, b)
	case "!=":
		eq, err := p.f.Equals(a, b)
		if err != nil {
			return nil, err
		}
		return p.f.Not(eq)
	case "<":
		return p.f.LT(a, b)
	case "<=":
		return p.f.LE(a, b)
	case ">":
		return p.f.GT(a, b)
	case ">=":
		return p.f.GE(a, b)
	case "+":
		return p.f.Plus(a, b)
	case "-":
		return p.f.Minus(a, b)
	case "*":
		return p.f.Times(a, b)
	case "/":
		return p.f.Div(a, b)
	}
	return nil, fmt.Errorf("unknown operator %q", op)
}

func (p *Parser) parseUnary() (*model.Node, error) {
	switch p.tok.kind {
	case tokOp:
		switch p.tok.text {
		case "!":
			if err := p.next(); err != nil {
				return nil, err
			}
			arg, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return p.f.Not(arg)
		case "-":
			if err := p.next(); err != nil {
				return nil, err
			}
			arg, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return p.f.Minus(p.f.Int(0), arg)
		}
		return nil, p.errorf("unexpected operator %q", p.tok.text)
	case tokNumber:
		text := p.tok.text
		if err := p.next(); err != nil {
			return nil, err
		}
		if strings.Contains(text, ".") {
			r, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q: %w", text, err)
			}
			return p.f.Real(r), nil
		}
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", text, err)
		}
		return p.f.Int(i), nil
	case tokLParen:
		if err := p.next(); err != nil {
			return nil, err
		}
		n, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.errorf("expected closing parenthesis")
		}
		return n, p.next()
	case tokIdent:
		switch p.tok.text {
		case "not":
			if err := p.next(); err != nil {
				return nil, err
			}
			arg, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return p.f.Not(arg)
		case "true":
			n := p.f.TRUE()
			return n, p.next()
		case "false":
			n := p.f.FALSE()
			return n, p.next()
		}
		return p.parseCallOrName()
	}
	return nil, p.errorf("unexpected token %q", p.tok.text)
}

// parseCallOrName resolves an identifier: a fluent application when followed
// by an argument list, otherwise a parameter, variable, object or arity-zero
// fluent, in that order.
func (p *Parser) parseCallOrName() (*model.Node, error) {
	name := p.tok.text
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.tok.kind == tokLParen {
		fl, ok := p.scope.Problem.Fluent(name)
		if !ok {
			return nil, fmt.Errorf("unknown fluent %q", name)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		var args []any
		for p.tok.kind != tokRParen {
			arg, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.tok.kind == tokComma {
				if err := p.next(); err != nil {
					return nil, err
				}
			}
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		return p.f.FluentExp(fl, args...)
	}

	if param, ok := p.scope.Params[name]; ok {
		return p.f.ParamExp(param), nil
	}
	if v, ok := p.scope.Vars[name]; ok {
		return p.f.VarExp(v), nil
	}
	if obj, ok := p.scope.Problem.Object(name); ok {
		return p.f.ObjectExp(obj)
	}
	if fl, ok := p.scope.Problem.Fluent(name); ok {
		return p.f.FluentExp(fl)
	}
	return nil, fmt.Errorf("unknown identifier %q", name)
}
