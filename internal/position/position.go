package position

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a position or offset lies outside the
// indexed text.
var ErrOutOfRange = errors.New("position out of range")

// Position is a 1-based (line, column) pair. Columns count bytes.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p comes strictly before q in document order.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Compare returns -1, 0 or 1 depending on the document order of p and q.
func (p Position) Compare(q Position) int {
	switch {
	case p.Before(q):
		return -1
	case q.Before(p):
		return 1
	default:
		return 0
	}
}

// Range is a half-open [Start, End) span of text.
type Range struct {
	Start Position
	End   Position
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// Contains reports whether p falls inside the half-open range.
func (r Range) Contains(p Position) bool {
	return r.Start.Compare(p) <= 0 && p.Before(r.End)
}

// ContainsInclusive is Contains with the end position admitted as well.
// Used for end-of-document queries where the cursor may sit past the
// last character.
func (r Range) ContainsInclusive(p Position) bool {
	return r.Start.Compare(p) <= 0 && p.Compare(r.End) <= 0
}

// Compare orders ranges by (Start, End) for document-order sorting.
func (r Range) Compare(o Range) int {
	if c := r.Start.Compare(o.Start); c != 0 {
		return c
	}
	return r.End.Compare(o.End)
}

// Index converts between positions and absolute byte offsets for one
// text snapshot. It is immutable once built.
type Index struct {
	text       string
	lineStarts []int
}

// NewIndex builds the line table for text. A line break belongs to the
// line it terminates, so the offset of a '\n' maps back to the line it
// ends, never to the following line.
func NewIndex(text string) *Index {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Index{text: text, lineStarts: starts}
}

// Len returns the length of the indexed text.
func (ix *Index) Len() int {
	return len(ix.text)
}

// LineCount returns the number of lines, counting a trailing line
// terminator as ending its line (an empty final line still counts).
func (ix *Index) LineCount() int {
	return len(ix.lineStarts)
}

// lineSpan returns the byte span of 1-based line, terminator included.
func (ix *Index) lineSpan(line int) (start, end int) {
	start = ix.lineStarts[line-1]
	if line < len(ix.lineStarts) {
		return start, ix.lineStarts[line]
	}
	return start, len(ix.text)
}

// ToOffset converts a 1-based position to an absolute byte offset.
// The offset one past the end of the final line (EOF) is valid.
func (ix *Index) ToOffset(p Position) (int, error) {
	if p.Line < 1 || p.Column < 1 || p.Line > len(ix.lineStarts) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, p)
	}
	start, end := ix.lineSpan(p.Line)
	offset := start + p.Column - 1
	// Only the final line extends one column past its last byte (EOF);
	// on interior lines the terminator is the last addressable column.
	limit := end
	if p.Line == len(ix.lineStarts) {
		limit = end + 1
	}
	if offset >= limit {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, p)
	}
	return offset, nil
}

// ToPosition converts an absolute byte offset to a 1-based position.
// len(text) is a valid offset, mapping one past the end of the last line.
func (ix *Index) ToPosition(offset int) (Position, error) {
	if offset < 0 || offset > len(ix.text) {
		return Position{}, fmt.Errorf("%w: offset %d", ErrOutOfRange, offset)
	}
	// Greatest line start <= offset. The '\n' at end of line L sits
	// before lineStarts[L], so it resolves to line L.
	lo, hi := 0, len(ix.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if ix.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return Position{Line: lo + 1, Column: offset - ix.lineStarts[lo] + 1}, nil
}

// RangeToOffsets converts a range to absolute (start, end) offsets.
func (ix *Index) RangeToOffsets(r Range) (int, int, error) {
	start, err := ix.ToOffset(r.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err := ix.ToOffset(r.End)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
