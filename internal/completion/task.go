package completion

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// taskProvider offers task names for elements directly under a target.
// Candidates come from the task metadata cache and from UsingTask
// declarations in the current document.
type taskProvider struct{}

func (p *taskProvider) Name() string { return "task" }

func (p *taskProvider) Provide(ctx context.Context, req *Request) (*Result, error) {
	parent, ok := enclosingElement(req)
	if !ok || parent != "Target" {
		return nil, nil
	}

	var items []Item
	if req.Tasks != nil {
		records, err := req.Tasks.All()
		if err != nil {
			return nil, fmt.Errorf("failed to list cached tasks: %w", err)
		}
		for _, rec := range records {
			items = append(items, Item{
				Label:         rec.Name,
				Kind:          KindTask,
				Detail:        rec.Assembly,
				Documentation: parameterSummary(rec.Parameters),
				Priority:      7,
			})
		}
	}
	for _, sym := range req.Snapshot.Symbols.Tasks {
		items = append(items, Item{
			Label:    sym.Name,
			Kind:     KindTask,
			Detail:   "declared by UsingTask",
			Priority: 9,
		})
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &Result{Items: items}, nil
}

func parameterSummary(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return "Parameters: " + strings.Join(names, ", ")
}
