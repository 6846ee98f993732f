package completion

import (
	"context"

	"anvil/internal/schema"
	"anvil/internal/syntax"
)

// elementProvider offers element names that may open at the cursor:
// schema children of the containing element, plus property and item
// names when the container is a group.
type elementProvider struct{}

func (p *elementProvider) Name() string { return "element" }

func (p *elementProvider) Provide(ctx context.Context, req *Request) (*Result, error) {
	parent, ok := enclosingElement(req)
	if !ok {
		return nil, nil
	}
	// Task names inside targets come from the task provider.
	if parent == "Target" {
		return nil, nil
	}

	var items []Item
	for _, name := range schema.ChildrenOf(parent) {
		item := Item{Label: name, Kind: KindElement, Priority: 10}
		if e, ok := schema.LookupElement(name); ok {
			item.Documentation = e.Description
		}
		items = append(items, item)
	}

	switch parent {
	case "PropertyGroup":
		for _, prop := range schema.WellKnownProperties {
			items = append(items, Item{
				Label:         prop.Name,
				Kind:          KindProperty,
				Documentation: prop.Description,
				Priority:      5,
			})
		}
		for _, sym := range req.Snapshot.Symbols.Properties {
			items = append(items, Item{
				Label:    sym.Name,
				Kind:     KindProperty,
				Detail:   sym.Detail,
				Priority: 6,
			})
		}
	case "ItemGroup":
		for _, sym := range req.Snapshot.Symbols.Items {
			items = append(items, Item{
				Label:    sym.Name,
				Kind:     KindItem,
				Detail:   sym.Detail,
				Priority: 6,
			})
		}
	}

	if len(items) == 0 {
		return nil, nil
	}
	return &Result{Items: items}, nil
}

// enclosingElement resolves the element whose content (or opening tag
// name) the cursor sits in. Reports false when the cursor is not in a
// place where an element name could be typed.
func enclosingElement(req *Request) (string, bool) {
	loc := req.Location
	tree := req.Snapshot.Tree
	switch {
	case loc.Flags.Has(syntax.FlagElement) && loc.Flags.Has(syntax.FlagName):
		// Completing the name of an existing (possibly partial) tag.
		if loc.Node.Parent == syntax.None {
			return "", true
		}
		return tree.Node(loc.Node.Parent).Name, true
	case loc.Flags.Has(syntax.FlagWhitespace), loc.Flags.Has(syntax.FlagText):
		if loc.Node.Parent == syntax.None {
			return "", true
		}
		return tree.Node(loc.Node.Parent).Name, true
	default:
		return "", false
	}
}
