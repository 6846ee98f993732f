package syntax

import (
	"fmt"
	"strings"

	"anvil/internal/position"
)

// scanner builds the node arena from raw text. It never fails: malformed
// markup produces nodes with IsValid=false plus a Problem, so incomplete
// documents stay fully navigable while being edited.
type scanner struct {
	text     string
	ix       *position.Index
	pos      int
	nodes    []Node
	starts   map[int]int
	problems []Problem
}

func scan(text string, ix *position.Index) ([]Node, map[int]int, []Problem) {
	s := &scanner{
		text:   text,
		ix:     ix,
		starts: make(map[int]int),
	}
	s.scanContent(None, "")
	return s.nodes, s.starts, s.problems
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == ':'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9' || c == '-' || c == '.'
}

func (s *scanner) posAt(off int) position.Position {
	p, _ := s.ix.ToPosition(off)
	return p
}

func (s *scanner) problem(start, end int, code, message string) {
	s.problems = append(s.problems, Problem{
		Range:   position.Range{Start: s.posAt(start), End: s.posAt(end)},
		Code:    code,
		Message: message,
	})
}

// add appends a node and records its start offset for exact lookups.
// Children are appended after their parent, so on a start collision the
// later (inner) node wins.
func (s *scanner) add(n Node) int {
	n.Prev, n.Next, n.FirstChild = None, None, None
	idx := len(s.nodes)
	s.nodes = append(s.nodes, n)
	s.starts[n.Start] = idx
	return idx
}

// finish seals the node's end offset and computed range.
func (s *scanner) finish(idx, end int) {
	n := &s.nodes[idx]
	n.End = end
	n.Range = position.Range{Start: s.posAt(n.Start), End: s.posAt(end)}
}

// link chains idx into parent's child list. last tracks the previous
// sibling at the current nesting level.
func (s *scanner) link(parent, idx int, last *int) {
	if *last != None {
		s.nodes[*last].Next = idx
		s.nodes[idx].Prev = *last
	} else if parent != None {
		s.nodes[parent].FirstChild = idx
	}
	*last = idx
}

// scanContent scans element content (or the whole document when parent is
// None) until EOF or a closing tag. A closing tag matching closeName is
// consumed and reported back; a closing tag for some ancestor stops the
// scan without consuming so the ancestor can claim it.
func (s *scanner) scanContent(parent int, closeName string) (closeStart, closeEnd int, closed bool) {
	last := None
	for s.pos < len(s.text) {
		if s.text[s.pos] != '<' {
			s.scanTextRun(parent, &last)
			continue
		}
		rest := s.text[s.pos:]
		switch {
		case strings.HasPrefix(rest, "</"):
			name, end := s.peekClosingTag()
			if parent != None && name == closeName {
				start := s.pos
				s.pos = end
				return start, end, true
			}
			if parent != None {
				return 0, 0, false
			}
			s.scanStrayClosing(parent, &last, name, end)
		case strings.HasPrefix(rest, "<!--"):
			s.scanComment(parent, &last)
		case strings.HasPrefix(rest, "<!"), strings.HasPrefix(rest, "<?"):
			s.scanDirective(parent, &last)
		default:
			if s.pos+1 < len(s.text) && isNameStart(s.text[s.pos+1]) {
				s.scanElement(parent, &last)
			} else {
				s.scanBogusMarkup(parent, &last)
			}
		}
	}
	return 0, 0, false
}

// peekClosingTag reads a "</name ... >" ahead of the cursor without
// consuming it, returning the tag name and the offset just past it.
func (s *scanner) peekClosingTag() (string, int) {
	i := s.pos + 2
	nameStart := i
	for i < len(s.text) && isNameChar(s.text[i]) {
		i++
	}
	name := s.text[nameStart:i]
	for i < len(s.text) && isSpace(s.text[i]) {
		i++
	}
	if i < len(s.text) && s.text[i] == '>' {
		return name, i + 1
	}
	return name, i
}

func (s *scanner) scanStrayClosing(parent int, last *int, name string, end int) {
	start := s.pos
	s.pos = end
	idx := s.add(Node{
		Kind:       KindElement,
		Name:       name,
		Start:      start,
		NameStart:  start + 2,
		NameEnd:    start + 2 + len(name),
		ValueStart: -1, ValueEnd: -1,
		OpenEnd: -1, CloseStart: start,
		Parent: parent,
	})
	s.link(parent, idx, last)
	s.finish(idx, end)
	s.problem(start, end, "unexpected-closing-tag",
		fmt.Sprintf("closing tag </%s> has no matching opening tag", name))
}

func (s *scanner) scanTextRun(parent int, last *int) {
	start := s.pos
	for s.pos < len(s.text) && s.text[s.pos] != '<' {
		s.pos++
	}
	run := s.text[start:s.pos]
	kind := KindText
	if strings.TrimSpace(run) == "" {
		kind = KindWhitespace
	}
	idx := s.add(Node{
		Kind:    kind,
		IsValid: true,
		Start:   start,
		NameStart: -1, NameEnd: -1,
		ValueStart: -1, ValueEnd: -1,
		OpenEnd: -1, CloseStart: -1,
		Parent: parent,
	})
	s.link(parent, idx, last)
	s.finish(idx, s.pos)
}

func (s *scanner) scanComment(parent int, last *int) {
	start := s.pos
	end := len(s.text)
	valid := false
	if i := strings.Index(s.text[start+4:], "-->"); i >= 0 {
		end = start + 4 + i + 3
		valid = true
	}
	s.pos = end
	idx := s.add(Node{
		Kind:    KindComment,
		IsValid: valid,
		Start:   start,
		NameStart: -1, NameEnd: -1,
		ValueStart: -1, ValueEnd: -1,
		OpenEnd: -1, CloseStart: -1,
		Parent: parent,
	})
	s.link(parent, idx, last)
	s.finish(idx, end)
	if !valid {
		s.problem(start, end, "unterminated-comment", "comment is never terminated")
	}
}

// scanDirective consumes "<?...?>" and "<!...>" markup. Declarations and
// processing instructions carry no build semantics, so they are stored as
// comment nodes to keep every byte accounted for.
func (s *scanner) scanDirective(parent int, last *int) {
	start := s.pos
	end := len(s.text)
	valid := false
	if i := strings.IndexByte(s.text[start:], '>'); i >= 0 {
		end = start + i + 1
		valid = true
	}
	s.pos = end
	idx := s.add(Node{
		Kind:    KindComment,
		IsValid: valid,
		Start:   start,
		NameStart: -1, NameEnd: -1,
		ValueStart: -1, ValueEnd: -1,
		OpenEnd: -1, CloseStart: -1,
		Parent: parent,
	})
	s.link(parent, idx, last)
	s.finish(idx, end)
	if !valid {
		s.problem(start, end, "unterminated-directive", "markup declaration is never terminated")
	}
}

func (s *scanner) scanBogusMarkup(parent int, last *int) {
	start := s.pos
	s.pos++ // '<'
	for s.pos < len(s.text) && s.text[s.pos] != '<' {
		if s.text[s.pos] == '>' {
			s.pos++
			break
		}
		s.pos++
	}
	idx := s.add(Node{
		Kind:  KindElement,
		Start: start,
		NameStart: -1, NameEnd: -1,
		ValueStart: -1, ValueEnd: -1,
		OpenEnd: -1, CloseStart: -1,
		Parent: parent,
	})
	s.link(parent, idx, last)
	s.finish(idx, s.pos)
	s.problem(start, s.pos, "malformed-markup", "expected an element name after '<'")
}

func (s *scanner) scanElement(parent int, last *int) {
	start := s.pos
	s.pos++ // '<'
	nameStart := s.pos
	for s.pos < len(s.text) && isNameChar(s.text[s.pos]) {
		s.pos++
	}
	nameEnd := s.pos
	name := s.text[nameStart:nameEnd]

	idx := s.add(Node{
		Kind:      KindElement,
		Name:      name,
		Start:     start,
		NameStart: nameStart,
		NameEnd:   nameEnd,
		ValueStart: -1, ValueEnd: -1,
		OpenEnd: -1, CloseStart: -1,
		Parent: parent,
	})
	s.link(parent, idx, last)

	childLast := None
	valid := true
	openClosed := false
	selfClosing := false

tag:
	for s.pos < len(s.text) {
		c := s.text[s.pos]
		switch {
		case strings.HasPrefix(s.text[s.pos:], "/>"):
			s.pos += 2
			openClosed, selfClosing = true, true
			break tag
		case c == '>':
			s.pos++
			openClosed = true
			break tag
		case isSpace(c):
			s.pos++
		case isNameStart(c):
			if !s.scanAttribute(idx, &childLast) {
				valid = false
			}
		case c == '<':
			break tag
		default:
			s.problem(s.pos, s.pos+1, "bad-token",
				fmt.Sprintf("unexpected %q in tag", string(c)))
			valid = false
			s.pos++
		}
	}

	if !openClosed {
		s.problem(start, s.pos, "unclosed-tag",
			fmt.Sprintf("tag <%s is never closed", name))
		n := &s.nodes[idx]
		n.IsValid = false
		n.OpenEnd = s.pos
		s.finish(idx, s.pos)
		return
	}

	openEnd := s.pos
	if selfClosing {
		n := &s.nodes[idx]
		n.IsValid = valid
		n.OpenEnd = openEnd
		n.SelfClosing = true
		s.finish(idx, openEnd)
		return
	}

	closeStart, closeEnd, closed := s.scanContent(idx, name)
	n := &s.nodes[idx]
	n.OpenEnd = openEnd
	if closed {
		n.IsValid = valid
		n.CloseStart = closeStart
		s.finish(idx, closeEnd)
		return
	}
	s.problem(start, nameEnd, "missing-closing-tag",
		fmt.Sprintf("element <%s> is missing its closing tag", name))
	n.IsValid = false
	s.finish(idx, s.pos)
}

// scanAttribute reads name="value". It reports false when the attribute
// is malformed; the attribute node is still emitted, marked invalid.
func (s *scanner) scanAttribute(parent int, last *int) bool {
	start := s.pos
	nameStart := s.pos
	for s.pos < len(s.text) && isNameChar(s.text[s.pos]) {
		s.pos++
	}
	nameEnd := s.pos
	name := s.text[nameStart:nameEnd]

	idx := s.add(Node{
		Kind:      KindAttribute,
		Name:      name,
		Start:     start,
		NameStart: nameStart,
		NameEnd:   nameEnd,
		ValueStart: -1, ValueEnd: -1,
		OpenEnd: -1, CloseStart: -1,
		Parent: parent,
	})
	s.link(parent, idx, last)

	fail := func(code, message string) bool {
		s.problem(start, s.pos, code, message)
		s.nodes[idx].IsValid = false
		s.finish(idx, s.pos)
		return false
	}

	i := s.pos
	for i < len(s.text) && isSpace(s.text[i]) {
		i++
	}
	if i >= len(s.text) || s.text[i] != '=' {
		return fail("missing-equals", fmt.Sprintf("attribute %q has no value", name))
	}
	s.pos = i + 1
	for s.pos < len(s.text) && isSpace(s.text[s.pos]) {
		s.pos++
	}
	if s.pos >= len(s.text) || s.text[s.pos] != '"' && s.text[s.pos] != '\'' {
		return fail("missing-quote", fmt.Sprintf("attribute %q value is not quoted", name))
	}
	quote := s.text[s.pos]
	s.pos++
	valueStart := s.pos
	for s.pos < len(s.text) && s.text[s.pos] != quote {
		s.pos++
	}
	if s.pos >= len(s.text) {
		n := &s.nodes[idx]
		n.ValueStart = valueStart
		n.ValueEnd = s.pos
		return fail("unterminated-value", fmt.Sprintf("attribute %q value is never terminated", name))
	}
	valueEnd := s.pos
	s.pos++ // closing quote

	n := &s.nodes[idx]
	n.IsValid = true
	n.ValueStart = valueStart
	n.ValueEnd = valueEnd
	s.finish(idx, s.pos)
	return true
}
