package document

import (
	"errors"
	"fmt"

	"anvil/internal/expr"
	"anvil/internal/position"
	"anvil/internal/schema"
	"anvil/internal/syntax"
)

// collectDiagnostics turns scanner problems and shallow schema checks
// into the snapshot's diagnostic list. Malformed input never errors:
// affected nodes are already flagged invalid, these entries surface why.
func collectDiagnostics(tree *syntax.Tree) []Diagnostic {
	var diags []Diagnostic
	for _, p := range tree.Problems() {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Code:     p.Code,
			Message:  p.Message,
			Range:    p.Range,
		})
	}
	diags = append(diags, conditionDiagnostics(tree)...)
	diags = append(diags, schemaDiagnostics(tree)...)
	return diags
}

// conditionDiagnostics parses every Condition attribute value and maps
// expression failures back to document ranges.
func conditionDiagnostics(tree *syntax.Tree) []Diagnostic {
	var diags []Diagnostic
	for i := 0; i < tree.Len(); i++ {
		n := tree.Node(i)
		if n.Kind != syntax.KindAttribute || n.Name != "Condition" || !n.IsValid {
			continue
		}
		value := n.Value(tree.Text())
		if value == "" {
			continue
		}
		if _, err := expr.ParseCondition(value); err != nil {
			var perr *expr.ParseError
			off := n.ValueStart
			if errors.As(err, &perr) {
				off += perr.Offset
			}
			start, _ := tree.Index().ToPosition(off)
			end, _ := tree.Index().ToPosition(n.ValueEnd)
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     "invalid-condition",
				Message:  fmt.Sprintf("condition does not parse: %v", err),
				Range:    position.Range{Start: start, End: end},
			})
		}
	}
	return diags
}

// schemaDiagnostics flags element names that the dialect does not allow
// under their parent. Only parents with a closed child set are checked;
// item and property names are user-defined.
func schemaDiagnostics(tree *syntax.Tree) []Diagnostic {
	var diags []Diagnostic
	for i := 0; i < tree.Len(); i++ {
		n := tree.Node(i)
		if n.Kind != syntax.KindElement || n.Name == "" || !n.IsValid {
			continue
		}
		parent := ""
		if n.Parent != syntax.None {
			parent = tree.Node(n.Parent).Name
		}
		if parent == "Target" {
			// Any task may appear inside a target.
			continue
		}
		allowed := schema.ChildrenOf(parent)
		if allowed == nil {
			continue
		}
		found := false
		for _, name := range allowed {
			if name == n.Name {
				found = true
				break
			}
		}
		if !found {
			start, _ := tree.Index().ToPosition(n.NameStart)
			end, _ := tree.Index().ToPosition(n.NameEnd)
			diags = append(diags, Diagnostic{
				Severity: SeverityInformation,
				Code:     "unknown-element",
				Message:  fmt.Sprintf("element <%s> is not expected under <%s>", n.Name, parent),
				Range:    position.Range{Start: start, End: end},
			})
		}
	}
	return diags
}
