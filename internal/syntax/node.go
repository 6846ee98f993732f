package syntax

import (
	"strings"

	"anvil/internal/position"
)

// None marks an empty arena index (no parent, no sibling).
const None = -1

// Kind identifies the syntactic variant of a node. The set is closed;
// consumers switch over it exhaustively.
type Kind uint8

const (
	KindElement Kind = iota
	KindAttribute
	KindText
	KindWhitespace
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindAttribute:
		return "attribute"
	case KindText:
		return "text"
	case KindWhitespace:
		return "whitespace"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Flags describe what a resolved position structurally represents.
type Flags uint16

const (
	FlagName Flags = 1 << iota
	FlagValue
	FlagText
	FlagWhitespace
	FlagAttribute
	FlagElement
	FlagEmpty
	FlagOpeningTag
	FlagClosingTag
	FlagAttributesGap
	FlagInvalid
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagName, "name"},
	{FlagValue, "value"},
	{FlagText, "text"},
	{FlagWhitespace, "whitespace"},
	{FlagAttribute, "attribute"},
	{FlagElement, "element"},
	{FlagEmpty, "empty"},
	{FlagOpeningTag, "opening-tag"},
	{FlagClosingTag, "closing-tag"},
	{FlagAttributesGap, "attributes-gap"},
	{FlagInvalid, "invalid"},
}

// Has reports whether all bits of f are set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

func (fl Flags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if fl.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Node is one syntactic construct. Nodes live in the tree's arena;
// Parent, Prev, Next and FirstChild are arena indices (None if absent),
// navigation aids only — the tree owns all node storage.
type Node struct {
	Kind    Kind
	Name    string
	IsValid bool

	// Start and End are absolute byte offsets; the range is half-open.
	Start int
	End   int

	// Range mirrors [Start, End) in line/column terms.
	Range position.Range

	// Name span within the node (element or attribute name), or -1.
	NameStart int
	NameEnd   int

	// Attribute value span (between the quotes), or -1.
	ValueStart int
	ValueEnd   int

	// Elements only: offset just past the opening tag's '>', offset of
	// the closing tag's "</" (-1 when missing or self-closing).
	OpenEnd     int
	CloseStart  int
	SelfClosing bool

	Parent     int
	Prev       int
	Next       int
	FirstChild int
}

// Value returns the attribute's value text, given the document text.
func (n *Node) Value(text string) string {
	if n.ValueStart < 0 || n.ValueEnd > len(text) || n.ValueStart > n.ValueEnd {
		return ""
	}
	return text[n.ValueStart:n.ValueEnd]
}

// Contains reports whether the absolute offset falls inside the node's
// half-open range.
func (n *Node) Contains(off int) bool {
	return n.Start <= off && off < n.End
}

// Problem is a syntax defect found while scanning. The affected node is
// marked invalid; the problem carries the user-facing description.
type Problem struct {
	Range   position.Range
	Code    string
	Message string
}
