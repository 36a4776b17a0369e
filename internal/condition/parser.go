package condition

import "fmt"

// Parse parses expression text into an AST. The grammar, lowest precedence
// first:
//
//	expr       = or
//	or         = and { OR and }
//	and        = unary { AND unary }
//	unary      = NOT unary | primary
//	primary    = "(" or ")" | comparison
//	comparison = IDENT op literal
//	           | IDENT [NOT] IN "[" literal { "," literal } "]"
//	op         = "==" | "!=" | ">" | ">=" | "<" | "<="
//
// Malformed input returns a *ParseError carrying the byte offset of the
// offending token.
func Parse(input string) (Expr, error) {
	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tkEOF {
		return nil, p.errorf(p.peek(), "unexpected %q after expression", p.peek().text)
	}
	return expr, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tkEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &ParseError{Offset: t.offset, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tkOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tkAnd {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.peek().kind == tkNot {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()

	if t.kind == tkLParen {
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if closing := p.peek(); closing.kind != tkRParen {
			return nil, p.errorf(closing, "expected ')'")
		}
		p.next()
		return inner, nil
	}

	if t.kind != tkIdent {
		if t.kind == tkEOF {
			return nil, p.errorf(t, "unexpected end of expression")
		}
		return nil, p.errorf(t, "expected identifier, got %q", t.text)
	}
	p.next()
	return p.parseComparisonTail(t)
}

// parseComparisonTail parses everything after the identifier of a comparison.
func (p *parser) parseComparisonTail(ident token) (Expr, error) {
	t := p.next()
	switch t.kind {
	case tkOp:
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return &CompareExpr{Key: ident.text, Op: t.text, Literal: lit}, nil

	case tkIn:
		return p.parseMembershipTail(ident, false)

	case tkNot:
		if in := p.next(); in.kind != tkIn {
			return nil, p.errorf(in, "expected IN after NOT")
		}
		return p.parseMembershipTail(ident, true)

	case tkEOF:
		return nil, p.errorf(t, "incomplete comparison after %q", ident.text)
	default:
		return nil, p.errorf(t, "expected comparison operator, got %q", t.text)
	}
}

func (p *parser) parseMembershipTail(ident token, negate bool) (Expr, error) {
	if open := p.next(); open.kind != tkLBracket {
		return nil, p.errorf(open, "expected '[' after IN")
	}

	var lits []Literal
	if p.peek().kind != tkRBracket {
		for {
			lit, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			lits = append(lits, lit)
			if p.peek().kind != tkComma {
				break
			}
			p.next()
		}
	}
	if closing := p.next(); closing.kind != tkRBracket {
		return nil, p.errorf(closing, "expected ']' to close IN list")
	}
	return &MembershipExpr{Key: ident.text, Negate: negate, Literals: lits}, nil
}

func (p *parser) parseLiteral() (Literal, error) {
	t := p.next()
	switch t.kind {
	case tkString:
		return Literal{Kind: LiteralString, Raw: t.text}, nil
	case tkNumber:
		return Literal{Kind: LiteralNumber, Raw: t.text}, nil
	case tkBool:
		return Literal{Kind: LiteralBool, Raw: t.text}, nil
	case tkEOF:
		return Literal{}, p.errorf(t, "expected literal, got end of expression")
	default:
		return Literal{}, p.errorf(t, "expected literal, got %q", t.text)
	}
}
