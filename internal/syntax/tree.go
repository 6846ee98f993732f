package syntax

import (
	"anvil/internal/position"
)

// Tree is the parsed source node tree for one text snapshot. It owns the
// node arena exclusively; all links between nodes are arena indices. A
// tree is immutable once built — edits produce a fresh tree.
type Tree struct {
	text     string
	ix       *position.Index
	nodes    []Node
	starts   map[int]int
	problems []Problem
}

// Parse builds the tree for text. ix may be nil, in which case a fresh
// position index is built; passing one avoids indexing the text twice.
func Parse(text string, ix *position.Index) *Tree {
	if ix == nil {
		ix = position.NewIndex(text)
	}
	nodes, starts, problems := scan(text, ix)
	return &Tree{
		text:     text,
		ix:       ix,
		nodes:    nodes,
		starts:   starts,
		problems: problems,
	}
}

// Text returns the snapshot the tree was built from.
func (t *Tree) Text() string {
	return t.text
}

// Index returns the position index for the snapshot.
func (t *Tree) Index() *position.Index {
	return t.ix
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node at arena index i. The pointer aliases the
// arena; callers must not retain it across snapshots.
func (t *Tree) Node(i int) *Node {
	return &t.nodes[i]
}

// Problems returns the syntax defects found while scanning, in document
// order.
func (t *Tree) Problems() []Problem {
	return t.problems
}

// Roots returns the arena indices of the top-level nodes in document
// order.
func (t *Tree) Roots() []int {
	var roots []int
	for i := range t.nodes {
		if t.nodes[i].Parent == None {
			roots = append(roots, i)
		}
	}
	return roots
}

// Children returns the arena indices of i's children by walking the
// sibling chain from FirstChild.
func (t *Tree) Children(i int) []int {
	var kids []int
	for c := t.nodes[i].FirstChild; c != None; c = t.nodes[c].Next {
		kids = append(kids, c)
	}
	return kids
}

// Attribute returns element i's attribute child with the given name, or
// None.
func (t *Tree) Attribute(i int, name string) int {
	for c := t.nodes[i].FirstChild; c != None; c = t.nodes[c].Next {
		if t.nodes[c].Kind == KindAttribute && t.nodes[c].Name == name {
			return c
		}
	}
	return None
}

// FindNode returns the arena index of the tightest node whose range
// contains the absolute offset, preferring the latest-starting match.
// Exact range starts resolve through the start map. Returns None when the
// offset precedes the first node or follows the last.
func (t *Tree) FindNode(off int) int {
	if len(t.nodes) == 0 {
		return None
	}
	if idx, ok := t.starts[off]; ok {
		return idx
	}
	if off < t.nodes[0].Start {
		return None
	}
	// Last node starting at or before off; nodes are appended in
	// document order, so starts are nondecreasing.
	lo, hi := 0, len(t.nodes)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if t.nodes[mid].Start <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	for i := lo; i >= 0; i-- {
		n := &t.nodes[i]
		if n.Contains(off) {
			return i
		}
		// End of document: the final position is inside the node that
		// ends there (exclusive-inclusive at EOF).
		if off == len(t.text) && off == n.End {
			return i
		}
		// A top-level node ending at or before off closes off every
		// earlier candidate as well.
		if n.Parent == None && n.End <= off {
			break
		}
	}
	return None
}
