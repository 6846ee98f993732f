package expr

import "strings"

// ParseCondition parses a boolean condition: comparisons over quoted
// strings, references and bare tokens, combined with And/Or, !, and
// parentheses, plus the Exists(...)/HasTrailingSlash(...) function forms.
func ParseCondition(input string) (*Node, error) {
	p := &parser{in: input}
	n, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if !p.eof() {
		return nil, errAt(p.pos, "unexpected %q after condition", string(p.peek()))
	}
	return n, nil
}

// orExpr = andExpr ("Or" andExpr)*.
func (p *parser) orExpr() (*Node, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.keyword("Or") {
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = &Node{
			Kind: KindLogical, Name: "Or",
			Start: left.Start, End: right.End,
			Children: []*Node{left, right},
		}
	}
	return left, nil
}

// andExpr = unary ("And" unary)*.
func (p *parser) andExpr() (*Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.keyword("And") {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &Node{
			Kind: KindLogical, Name: "And",
			Start: left.Start, End: right.End,
			Children: []*Node{left, right},
		}
	}
	return left, nil
}

// unary = "!" unary | comparison. A "!" immediately followed by "=" is
// the != operator, not negation.
func (p *parser) unary() (*Node, error) {
	p.skipSpaces()
	if p.peek() == '!' && !(p.pos+1 < len(p.in) && p.in[p.pos+1] == '=') {
		start := p.pos
		p.pos++
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindNot, Start: start, End: inner.End, Children: []*Node{inner}}, nil
	}
	return p.comparison()
}

var comparisonOps = []string{"==", "!=", "<=", ">=", "<", ">"}

// comparison = operand (op operand)?.
func (p *parser) comparison() (*Node, error) {
	left, err := p.operand()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	for _, op := range comparisonOps {
		if strings.HasPrefix(p.in[p.pos:], op) {
			p.pos += len(op)
			right, err := p.operand()
			if err != nil {
				return nil, err
			}
			return &Node{
				Kind: KindComparison, Name: op,
				Start: left.Start, End: right.End,
				Children: []*Node{left, right},
			}, nil
		}
	}
	return left, nil
}

// operand = quoted string | reference | "(" orExpr ")" | function call |
// bare token.
func (p *parser) operand() (*Node, error) {
	p.skipSpaces()
	if p.eof() {
		return nil, errAt(p.pos, "expected an operand")
	}
	switch c := p.peek(); {
	case c == '\'':
		return p.quotedString()
	case c == '(':
		return p.group()
	default:
		if ref, ok := p.refAhead(); ok {
			return ref()
		}
		return p.bareToken()
	}
}

// group = "(" orExpr ")".
func (p *parser) group() (*Node, error) {
	start := p.pos
	p.pos++
	inner, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.peek() != ')' {
		return nil, errAt(p.pos, "expected \")\"")
	}
	p.pos++
	return &Node{Kind: KindGroup, Start: start, End: p.pos, Children: []*Node{inner}}, nil
}

// quotedString parses '...' with embedded references resolved into
// children; literal runs between references are not materialized, the
// string value carries them.
func (p *parser) quotedString() (*Node, error) {
	start := p.pos
	p.pos++
	n := &Node{Kind: KindString, Start: start}
	for !p.eof() && p.peek() != '\'' {
		if ref, ok := p.refAhead(); ok {
			child, err := ref()
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
			continue
		}
		p.pos++
	}
	if p.eof() {
		return nil, errAt(p.pos, "string is never closed")
	}
	n.Value = p.in[start+1 : p.pos]
	p.pos++
	n.End = p.pos
	return n, nil
}

// bareToken = identifier or number; identifiers followed by "(" become
// function calls (Exists, HasTrailingSlash, ...).
func (p *parser) bareToken() (*Node, error) {
	start := p.pos
	if name, ok := p.ident(); ok {
		if p.peek() == '(' {
			return p.functionCall(start, name)
		}
		return &Node{Kind: KindLiteral, Start: start, End: p.pos, Value: name}, nil
	}
	for !p.eof() && (p.peek() >= '0' && p.peek() <= '9' || p.peek() == '.') {
		p.pos++
	}
	if p.pos == start {
		return nil, errAt(p.pos, "unexpected %q in condition", string(p.peek()))
	}
	return &Node{Kind: KindLiteral, Start: start, End: p.pos, Value: p.in[start:p.pos]}, nil
}

// functionCall = ident "(" operand ("," operand)* ")".
func (p *parser) functionCall(start int, name string) (*Node, error) {
	n := &Node{Kind: KindFunctionCall, Start: start, Name: name}
	p.pos++ // "("
	p.skipSpaces()
	if p.peek() != ')' {
		for {
			arg, err := p.operand()
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, arg)
			p.skipSpaces()
			if p.peek() != ',' {
				break
			}
			p.pos++
		}
	}
	if p.peek() != ')' {
		return nil, errAt(p.pos, "call to %s is never closed", name)
	}
	p.pos++
	n.End = p.pos
	return n, nil
}

// keyword consumes the word if it appears next (case-insensitive),
// restoring the cursor otherwise.
func (p *parser) keyword(word string) bool {
	save := p.pos
	p.skipSpaces()
	got, ok := p.ident()
	if ok && strings.EqualFold(got, word) {
		return true
	}
	p.pos = save
	return false
}
