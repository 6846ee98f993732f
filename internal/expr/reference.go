package expr

import "strings"

// ParseExpression parses a full attribute value or text run: a simple
// list whose items may contain $(Property), @(Item) and %(Metadata)
// references mixed with literal text. Malformed references fail with a
// ParseError naming the first unexpected byte; there is no partial tree.
func ParseExpression(input string) (*Node, error) {
	p := &parser{in: input}
	list := &Node{Kind: KindSimpleList, Start: 0}
	item, err := p.expressionItem()
	if err != nil {
		return nil, err
	}
	list.Children = append(list.Children, item)
	for !p.eof() {
		switch p.peek() {
		case ';':
			list.Children = append(list.Children, p.listSeparator())
		case '\r', '\n':
			list.Children = append(list.Children, p.lineBreak())
		}
		item, err := p.expressionItem()
		if err != nil {
			return nil, err
		}
		list.Children = append(list.Children, item)
	}
	list.End = p.pos
	return list, nil
}

// expressionItem is the item rule with reference parsing switched on:
// literal runs and references alternate until a separator or line end.
func (p *parser) expressionItem() (*Node, error) {
	item := &Node{Kind: KindSimpleListItem, Start: p.pos}
	for !p.eof() {
		c := p.peek()
		if c == ';' || c == '\r' || c == '\n' {
			break
		}
		if ref, ok := p.refAhead(); ok {
			n, err := ref()
			if err != nil {
				return nil, err
			}
			item.Children = append(item.Children, n)
			continue
		}
		item.Children = append(item.Children, p.literalRun())
	}
	item.End = p.pos
	item.Value = p.in[item.Start:item.End]
	// A single literal child spanning the whole item adds nothing.
	if len(item.Children) == 1 && item.Children[0].Kind == KindLiteral {
		item.Children = nil
	}
	return item, nil
}

// refAhead reports whether a reference opener sits at the cursor and
// which rule parses it.
func (p *parser) refAhead() (func() (*Node, error), bool) {
	if p.pos+1 >= len(p.in) || p.in[p.pos+1] != '(' {
		return nil, false
	}
	switch p.in[p.pos] {
	case '$':
		return p.propertyRef, true
	case '@':
		return p.itemRef, true
	case '%':
		return p.metadataRef, true
	}
	return nil, false
}

// literalRun consumes plain item text up to the next reference opener,
// separator or line ending.
func (p *parser) literalRun() *Node {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if c == ';' || c == '\r' || c == '\n' {
			break
		}
		if _, ok := p.refAhead(); ok {
			break
		}
		p.pos++
	}
	return &Node{Kind: KindLiteral, Start: start, End: p.pos, Value: p.in[start:p.pos]}
}

// propertyRef = "$(" ident ")".
func (p *parser) propertyRef() (*Node, error) {
	start := p.pos
	p.pos += 2
	name, ok := p.ident()
	if !ok {
		return nil, errAt(p.pos, "expected a property name after \"$(\"")
	}
	if p.eof() || p.peek() != ')' {
		return nil, errAt(p.pos, "property reference $(%s is never closed", name)
	}
	p.pos++
	return &Node{Kind: KindPropertyRef, Start: start, End: p.pos, Name: name}, nil
}

// itemRef = "@(" ident transform? ")" where transform = "->" "'...'".
func (p *parser) itemRef() (*Node, error) {
	start := p.pos
	p.pos += 2
	name, ok := p.ident()
	if !ok {
		return nil, errAt(p.pos, "expected an item name after \"@(\"")
	}
	n := &Node{Kind: KindItemRef, Name: name}
	n.Start = start
	if strings.HasPrefix(p.in[p.pos:], "->") {
		xform, err := p.itemTransform()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, xform)
	}
	if p.eof() || p.peek() != ')' {
		return nil, errAt(p.pos, "item reference @(%s is never closed", name)
	}
	p.pos++
	n.End = p.pos
	return n, nil
}

func (p *parser) itemTransform() (*Node, error) {
	start := p.pos
	p.pos += 2 // "->"
	if p.eof() || p.peek() != '\'' {
		return nil, errAt(p.pos, "expected a quoted transform after \"->\"")
	}
	p.pos++
	valueStart := p.pos
	for !p.eof() && p.peek() != '\'' {
		p.pos++
	}
	if p.eof() {
		return nil, errAt(p.pos, "item transform is never closed")
	}
	value := p.in[valueStart:p.pos]
	p.pos++
	return &Node{Kind: KindItemTransform, Start: start, End: p.pos, Value: value}, nil
}

// metadataRef = "%(" ident ("." ident)? ")". A qualified name records the
// item part in Value and the metadata part in Name.
func (p *parser) metadataRef() (*Node, error) {
	start := p.pos
	p.pos += 2
	name, ok := p.ident()
	if !ok {
		return nil, errAt(p.pos, "expected a metadata name after \"%%(\"")
	}
	n := &Node{Kind: KindMetadataRef, Start: start, Name: name}
	if !p.eof() && p.peek() == '.' {
		p.pos++
		meta, ok := p.ident()
		if !ok {
			return nil, errAt(p.pos, "expected a metadata name after %q", name+".")
		}
		n.Value = name
		n.Name = meta
	}
	if p.eof() || p.peek() != ')' {
		return nil, errAt(p.pos, "metadata reference %%(%s is never closed", name)
	}
	p.pos++
	n.End = p.pos
	return n, nil
}

// NameSpan returns the offsets of a reference's name within the parsed
// substring. Only meaningful for reference kinds.
func (n *Node) NameSpan() (int, int) {
	start := n.Start + 2
	if n.Kind == KindMetadataRef && n.Value != "" {
		start += len(n.Value) + 1
	}
	return start, start + len(n.Name)
}
