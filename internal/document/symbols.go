package document

import (
	"strings"

	"anvil/internal/position"
	"anvil/internal/syntax"
)

// SymbolKind classifies a harvested definition.
type SymbolKind uint8

const (
	SymbolProperty SymbolKind = iota
	SymbolItem
	SymbolTarget
	SymbolTask
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolProperty:
		return "property"
	case SymbolItem:
		return "item"
	case SymbolTarget:
		return "target"
	case SymbolTask:
		return "task"
	default:
		return "unknown"
	}
}

// Symbol is one definition site found in the document.
type Symbol struct {
	Name   string
	Kind   SymbolKind
	Range  position.Range // the name's range, for definition jumps
	Detail string         // value text or Include pattern, possibly empty
}

// Symbols is the per-snapshot definition table, in document order.
type Symbols struct {
	Properties []Symbol
	Items      []Symbol
	Targets    []Symbol
	Tasks      []Symbol
}

// All returns every symbol in document order of its category lists.
func (s *Symbols) All() []Symbol {
	out := make([]Symbol, 0, len(s.Properties)+len(s.Items)+len(s.Targets)+len(s.Tasks))
	out = append(out, s.Properties...)
	out = append(out, s.Items...)
	out = append(out, s.Targets...)
	out = append(out, s.Tasks...)
	return out
}

// Definitions returns the definition sites matching name (case
// insensitive), across all categories.
func (s *Symbols) Definitions(name string) []Symbol {
	var out []Symbol
	for _, sym := range s.All() {
		if strings.EqualFold(sym.Name, name) {
			out = append(out, sym)
		}
	}
	return out
}

// harvestSymbols walks the tree and records property, item, target and
// task definitions. This is the "richer project semantics" layer: purely
// syntactic queries work without it.
func harvestSymbols(tree *syntax.Tree) *Symbols {
	syms := &Symbols{}
	for i := 0; i < tree.Len(); i++ {
		n := tree.Node(i)
		if n.Kind != syntax.KindElement || n.Name == "" {
			continue
		}
		switch {
		case parentName(tree, n) == "PropertyGroup":
			syms.Properties = append(syms.Properties, Symbol{
				Name:   n.Name,
				Kind:   SymbolProperty,
				Range:  nameRange(tree, n),
				Detail: elementText(tree, i),
			})
		case parentName(tree, n) == "ItemGroup":
			inc := ""
			if a := tree.Attribute(i, "Include"); a != syntax.None {
				inc = tree.Node(a).Value(tree.Text())
			}
			syms.Items = append(syms.Items, Symbol{
				Name:   n.Name,
				Kind:   SymbolItem,
				Range:  nameRange(tree, n),
				Detail: inc,
			})
		case n.Name == "Target":
			if a := tree.Attribute(i, "Name"); a != syntax.None {
				attr := tree.Node(a)
				syms.Targets = append(syms.Targets, Symbol{
					Name:  attr.Value(tree.Text()),
					Kind:  SymbolTarget,
					Range: valueRange(tree, attr),
				})
			}
		case n.Name == "UsingTask":
			if a := tree.Attribute(i, "TaskName"); a != syntax.None {
				attr := tree.Node(a)
				syms.Tasks = append(syms.Tasks, Symbol{
					Name:  attr.Value(tree.Text()),
					Kind:  SymbolTask,
					Range: valueRange(tree, attr),
				})
			}
		}
	}
	return syms
}

func parentName(tree *syntax.Tree, n *syntax.Node) string {
	if n.Parent == syntax.None {
		return ""
	}
	return tree.Node(n.Parent).Name
}

func nameRange(tree *syntax.Tree, n *syntax.Node) position.Range {
	return offsetRange(tree, n.NameStart, n.NameEnd)
}

func valueRange(tree *syntax.Tree, n *syntax.Node) position.Range {
	return offsetRange(tree, n.ValueStart, n.ValueEnd)
}

func offsetRange(tree *syntax.Tree, start, end int) position.Range {
	s, _ := tree.Index().ToPosition(start)
	e, _ := tree.Index().ToPosition(end)
	return position.Range{Start: s, End: e}
}

// elementText concatenates the direct text content of element i,
// trimmed. Property values are short; no size guard needed.
func elementText(tree *syntax.Tree, i int) string {
	var sb strings.Builder
	for _, c := range tree.Children(i) {
		n := tree.Node(c)
		if n.Kind == syntax.KindText {
			sb.WriteString(tree.Text()[n.Start:n.End])
		}
	}
	return strings.TrimSpace(sb.String())
}
