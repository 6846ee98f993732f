package completion

import (
	"context"

	"anvil/internal/schema"
	"anvil/internal/syntax"
)

// referenceProvider offers names inside an open $( , @( or %( reference
// in attribute values and text content.
type referenceProvider struct{}

func (p *referenceProvider) Name() string { return "reference" }

func (p *referenceProvider) Provide(ctx context.Context, req *Request) (*Result, error) {
	loc := req.Location

	var start int
	switch {
	case loc.Flags.Has(syntax.FlagAttribute) && loc.Flags.Has(syntax.FlagValue):
		start = loc.Node.ValueStart
	case loc.Flags.Has(syntax.FlagText):
		start = loc.Node.Start
	default:
		return nil, nil
	}

	opener, ok := openReference(req.Snapshot.Text[start:loc.Offset])
	if !ok {
		// Outside a reference, a Condition attribute still completes
		// its function forms.
		if loc.Flags.Has(syntax.FlagAttribute) && loc.Node.Name == "Condition" {
			var items []Item
			for _, fn := range schema.ConditionFunctions {
				items = append(items, Item{
					Label:    fn,
					Kind:     KindFunction,
					Detail:   fn + "(...)",
					Priority: 6,
				})
			}
			return &Result{Items: items}, nil
		}
		return nil, nil
	}

	var items []Item
	switch opener {
	case '$':
		for _, prop := range schema.WellKnownProperties {
			items = append(items, Item{
				Label:         prop.Name,
				Kind:          KindProperty,
				Documentation: prop.Description,
				Priority:      8,
			})
		}
		for _, sym := range req.Snapshot.Symbols.Properties {
			items = append(items, Item{
				Label:    sym.Name,
				Kind:     KindProperty,
				Detail:   sym.Detail,
				Priority: 9,
			})
		}
	case '@':
		for _, sym := range req.Snapshot.Symbols.Items {
			items = append(items, Item{
				Label:    sym.Name,
				Kind:     KindItem,
				Detail:   sym.Detail,
				Priority: 9,
			})
		}
	case '%':
		for _, md := range schema.WellKnownMetadata {
			items = append(items, Item{
				Label:         md.Name,
				Kind:          KindMetadata,
				Documentation: md.Description,
				Priority:      8,
			})
		}
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &Result{Items: items}, nil
}

// openReference scans the text before the cursor for a reference opener
// that has not been closed yet. Reports the sigil ('$', '@' or '%').
func openReference(before string) (byte, bool) {
	for i := len(before) - 1; i > 0; i-- {
		switch before[i] {
		case ')':
			return 0, false
		case '(':
			switch before[i-1] {
			case '$', '@', '%':
				return before[i-1], true
			}
			return 0, false
		}
	}
	return 0, false
}
