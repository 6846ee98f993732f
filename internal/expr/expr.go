// Package expr parses the expression language embedded in build files:
// semicolon-separated lists, $(Property), @(Item) and %(Metadata)
// references, and boolean conditions.
//
// All node offsets are relative to the parsed substring, not to the
// document; callers add the substring's document offset when mapping
// back. Every byte of the input ends up inside exactly one node or
// separator token.
package expr

import "fmt"

// Kind identifies the variant of an expression node.
type Kind uint8

const (
	KindSimpleList Kind = iota
	KindSimpleListItem
	KindListSeparator
	KindLineBreak
	KindLiteral
	KindPropertyRef
	KindItemRef
	KindItemTransform
	KindMetadataRef
	KindComparison
	KindLogical
	KindNot
	KindGroup
	KindString
	KindFunctionCall
)

func (k Kind) String() string {
	switch k {
	case KindSimpleList:
		return "simple-list"
	case KindSimpleListItem:
		return "simple-list-item"
	case KindListSeparator:
		return "list-separator"
	case KindLineBreak:
		return "line-break"
	case KindLiteral:
		return "literal"
	case KindPropertyRef:
		return "property-ref"
	case KindItemRef:
		return "item-ref"
	case KindItemTransform:
		return "item-transform"
	case KindMetadataRef:
		return "metadata-ref"
	case KindComparison:
		return "comparison"
	case KindLogical:
		return "logical"
	case KindNot:
		return "not"
	case KindGroup:
		return "group"
	case KindString:
		return "string"
	case KindFunctionCall:
		return "function-call"
	default:
		return "unknown"
	}
}

// Node is one node of the expression tree. Start and End are half-open
// offsets relative to the parsed substring. Children cover the parent's
// span contiguously.
type Node struct {
	Kind     Kind
	Start    int
	End      int
	Name     string // reference/function name, logical or comparison operator
	Value    string // item text, literal run, string content
	Children []*Node
}

// Span returns the node's text given the substring it was parsed from.
func (n *Node) Span(input string) string {
	return input[n.Start:n.End]
}

// Find returns the innermost node containing the offset, or nil.
func (n *Node) Find(off int) *Node {
	if off < n.Start || off >= n.End {
		return nil
	}
	for _, c := range n.Children {
		if inner := c.Find(off); inner != nil {
			return inner
		}
	}
	return n
}

// ParseError reports the first unexpected byte of a malformed
// expression. The offset is relative to the parsed substring.
type ParseError struct {
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

func errAt(off int, format string, args ...any) *ParseError {
	return &ParseError{Offset: off, Message: fmt.Sprintf(format, args...)}
}

// parser is shared cursor state for all rules. Each rule consumes from
// the front of the remaining input and returns an offset-annotated node.
type parser struct {
	in  string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.in)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.in[p.pos]
}

func (p *parser) skipSpaces() {
	for !p.eof() && (p.in[p.pos] == ' ' || p.in[p.pos] == '\t') {
		p.pos++
	}
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9' || c == '-'
}

// ident consumes an identifier, reporting false on no progress.
func (p *parser) ident() (string, bool) {
	start := p.pos
	if p.eof() || !isIdentStart(p.in[p.pos]) {
		return "", false
	}
	for !p.eof() && isIdentChar(p.in[p.pos]) {
		p.pos++
	}
	return p.in[start:p.pos], true
}
