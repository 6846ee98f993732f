package completion

import (
	"context"
	"strings"

	"anvil/internal/schema"
	"anvil/internal/syntax"
)

// attributeProvider offers attribute names inside an opening tag,
// excluding attributes the tag already carries.
type attributeProvider struct{}

func (p *attributeProvider) Name() string { return "attribute" }

func (p *attributeProvider) Provide(ctx context.Context, req *Request) (*Result, error) {
	loc := req.Location
	tree := req.Snapshot.Tree

	var elemIdx int
	switch {
	case loc.Flags.Has(syntax.FlagAttributesGap):
		elemIdx = loc.NodeIdx
	case loc.Flags.Has(syntax.FlagAttribute) && loc.Flags.Has(syntax.FlagName):
		elemIdx = loc.Node.Parent
	default:
		return nil, nil
	}
	if elemIdx == syntax.None {
		return nil, nil
	}
	elem := tree.Node(elemIdx)

	present := make(map[string]bool)
	for _, c := range tree.Children(elemIdx) {
		if c == loc.NodeIdx {
			// The attribute being completed does not shadow itself.
			continue
		}
		n := tree.Node(c)
		if n.Kind == syntax.KindAttribute {
			present[strings.ToLower(n.Name)] = true
		}
	}

	var items []Item
	for _, name := range schema.AttributesOf(elem.Name) {
		if present[strings.ToLower(name)] {
			continue
		}
		items = append(items, Item{Label: name, Kind: KindAttribute, Priority: 10})
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &Result{Items: items}, nil
}
