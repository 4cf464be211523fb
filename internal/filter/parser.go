package filter

import (
	"fmt"
	"strconv"
)

type parser struct {
	toks   []token
	i      int
	params map[string]any
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &logicNode{or: true, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &logicNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (node, error) {
	t := p.next()
	switch t.kind {
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, fmt.Errorf("%w: expected ')' at %d", ErrSyntax, c.pos)
		}
		return inner, nil
	case tokIdent:
		op := p.next()
		if op.kind != tokEq && op.kind != tokNeq {
			return nil, fmt.Errorf("%w: expected '=' or '!=' at %d", ErrSyntax, op.pos)
		}
		v, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return &cmpNode{field: t.text, neg: op.kind == tokNeq, value: v}, nil
	default:
		return nil, fmt.Errorf("%w: expected field at %d", ErrSyntax, t.pos)
	}
}

func (p *parser) parseOperand() (any, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		return t.text, nil
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q at %d", ErrSyntax, t.text, t.pos)
		}
		return f, nil
	case tokParam:
		v, ok := p.params[t.text]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingParam, t.text)
		}
		return v, nil
	case tokIdent:
		switch t.text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: expected value at %d", ErrSyntax, t.pos)
}
