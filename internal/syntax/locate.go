package syntax

import (
	"errors"
	"fmt"

	"anvil/internal/position"
)

// ErrNoNode is returned by Inspect when the position does not resolve to
// any node (before the first or after the last).
var ErrNoNode = errors.New("no node at position")

// Location is the immutable result of resolving a position against a
// tree. It is created per query and must not be cached across edits.
type Location struct {
	Position position.Position
	Offset   int
	NodeIdx  int
	Node     *Node
	Flags    Flags
}

// Inspect resolves a position to the nearest node plus contextual flags.
// A cursor sitting exactly on the boundary between two abutting siblings
// belongs to the following one. The resolver looks at most one sibling
// ahead; flags derive from the resolved node alone.
func (t *Tree) Inspect(p position.Position) (Location, error) {
	off, err := t.ix.ToOffset(p)
	if err != nil {
		return Location{}, err
	}
	idx := t.FindNode(off)
	if idx == None {
		return Location{}, fmt.Errorf("%w: %s", ErrNoNode, p)
	}
	n := &t.nodes[idx]
	if off == n.End && n.Next != None && t.nodes[n.Next].Start == off {
		idx = n.Next
		n = &t.nodes[idx]
	}
	return Location{
		Position: p,
		Offset:   off,
		NodeIdx:  idx,
		Node:     n,
		Flags:    t.flagsFor(n, off),
	}, nil
}

// flagsFor computes the location flags from the resolved node's variant
// and validity. Whitespace between elements always reads as
// whitespace-in-element-value; inside a tag the flags narrow down to the
// name, the attribute area, or the closing tag.
func (t *Tree) flagsFor(n *Node, off int) Flags {
	var f Flags
	switch n.Kind {
	case KindWhitespace:
		f = FlagWhitespace | FlagElement | FlagValue
	case KindText:
		f = FlagText | FlagValue
	case KindComment:
		// Comments carry no structural flags.
	case KindAttribute:
		f = FlagAttribute
		if n.NameStart >= 0 && off >= n.NameStart && off <= n.NameEnd {
			f |= FlagName
		}
		if n.ValueStart >= 0 && off >= n.ValueStart && off <= n.ValueEnd {
			f |= FlagValue
			if n.ValueStart == n.ValueEnd {
				f |= FlagEmpty
			}
		}
	case KindElement:
		f = FlagElement
		switch {
		case n.NameStart >= 0 && off >= n.NameStart && off <= n.NameEnd:
			f |= FlagName | FlagOpeningTag
		case n.CloseStart >= 0 && off >= n.CloseStart:
			f |= FlagClosingTag
		case n.OpenEnd >= 0 && off < n.OpenEnd:
			f |= FlagOpeningTag | FlagAttributesGap
		}
		if n.SelfClosing {
			f |= FlagEmpty
		}
	}
	if !n.IsValid {
		f |= FlagInvalid
	}
	return f
}
