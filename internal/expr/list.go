package expr

// ParseSimpleList splits input into list items the way a plain
// strings.Split(input, ";") would, while recording the offset of every
// item and separator. It succeeds on any input, including the empty
// string, which still yields one empty item: an empty item is just the
// zero-length match of the item rule, not a special case.
func ParseSimpleList(input string) *Node {
	p := &parser{in: input}
	return p.simpleList()
}

// simpleList = item (separator item)* — with line breaks recorded as
// their own tokens so the children reassemble the input byte for byte.
func (p *parser) simpleList() *Node {
	list := &Node{Kind: KindSimpleList, Start: p.pos}
	list.Children = append(list.Children, p.listItem())
	for !p.eof() {
		switch p.peek() {
		case ';':
			list.Children = append(list.Children, p.listSeparator())
			list.Children = append(list.Children, p.listItem())
		case '\r', '\n':
			list.Children = append(list.Children, p.lineBreak())
			list.Children = append(list.Children, p.listItem())
		default:
			// The item rule is maximal; anything else is unreachable.
			list.End = p.pos
			return list
		}
	}
	list.End = p.pos
	return list
}

// listItem consumes the maximal run of bytes that are neither the list
// separator nor a line ending, leading and trailing whitespace included.
// It always succeeds, possibly with a zero-length match.
func (p *parser) listItem() *Node {
	start := p.pos
	for !p.eof() {
		switch p.in[p.pos] {
		case ';', '\r', '\n':
			return &Node{
				Kind:  KindSimpleListItem,
				Start: start,
				End:   p.pos,
				Value: p.in[start:p.pos],
			}
		}
		p.pos++
	}
	return &Node{
		Kind:  KindSimpleListItem,
		Start: start,
		End:   p.pos,
		Value: p.in[start:p.pos],
	}
}

// listSeparator matches exactly one ';'.
func (p *parser) listSeparator() *Node {
	n := &Node{Kind: KindListSeparator, Start: p.pos, End: p.pos + 1, Value: ";"}
	p.pos++
	return n
}

// lineBreak consumes one \n, \r or \r\n.
func (p *parser) lineBreak() *Node {
	start := p.pos
	if p.in[p.pos] == '\r' {
		p.pos++
		if !p.eof() && p.in[p.pos] == '\n' {
			p.pos++
		}
	} else {
		p.pos++
	}
	return &Node{Kind: KindLineBreak, Start: start, End: p.pos, Value: p.in[start:p.pos]}
}

// Items returns the item nodes of a simple list in order.
func (n *Node) Items() []*Node {
	var items []*Node
	for _, c := range n.Children {
		if c.Kind == KindSimpleListItem {
			items = append(items, c)
		}
	}
	return items
}

// ItemAt returns the list item containing the offset. The end offset of
// an item is admitted so a cursor just past the last typed byte still
// lands on the item being edited.
func (n *Node) ItemAt(off int) *Node {
	for _, c := range n.Children {
		if c.Kind == KindSimpleListItem && c.Start <= off && off <= c.End {
			return c
		}
	}
	return nil
}
