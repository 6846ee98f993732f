// Package completion computes completion items for a cursor location.
// Independent providers run concurrently; the orchestrator merges their
// results into one deterministic list.
package completion

import (
	"context"
	"fmt"
	"sort"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"anvil/internal/document"
	"anvil/internal/syntax"
	"anvil/internal/taskmeta"
)

// ItemKind classifies a completion item for presentation.
type ItemKind uint8

const (
	KindElement ItemKind = iota
	KindAttribute
	KindProperty
	KindItem
	KindMetadata
	KindTask
	KindFunction
)

// Item is one completion candidate.
type Item struct {
	Label         string
	Kind          ItemKind
	Detail        string
	Documentation string
	Priority      int // higher sorts first
}

// Result is a provider's (or the merged) contribution.
type Result struct {
	Items      []Item
	Incomplete bool
}

// TaskSource lists known tasks. *taskmeta.Store implements it; tests
// substitute fixed lists.
type TaskSource interface {
	All() ([]taskmeta.TaskRecord, error)
}

// Request carries everything a provider may consult. The snapshot is
// immutable; providers read it without further locking.
type Request struct {
	Location syntax.Location
	Snapshot *document.Snapshot
	Tasks    TaskSource
}

// Provider computes candidates for one concern. Returning (nil, nil)
// means "nothing to offer here".
type Provider interface {
	Name() string
	Provide(ctx context.Context, req *Request) (*Result, error)
}

// Orchestrator fans a request out to its providers and merges what
// comes back.
type Orchestrator struct {
	providers []Provider
	log       commonlog.Logger
}

// NewOrchestrator builds an orchestrator over the default provider set.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		providers: []Provider{
			&elementProvider{},
			&attributeProvider{},
			&referenceProvider{},
			&taskProvider{},
		},
		log: commonlog.GetLogger("anvil.completion"),
	}
}

// NewOrchestratorWith builds an orchestrator over an explicit provider
// set, mainly for tests.
func NewOrchestratorWith(providers ...Provider) *Orchestrator {
	return &Orchestrator{
		providers: providers,
		log:       commonlog.GetLogger("anvil.completion"),
	}
}

// Complete runs all providers and merges their items. A failing or
// panicking provider is logged and dropped; its siblings still
// contribute. A nil result means no completions apply.
func (o *Orchestrator) Complete(ctx context.Context, req *Request) (*Result, error) {
	results := make([]*Result, len(o.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range o.providers {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					o.log.Errorf("provider %s panicked: %v", p.Name(), r)
				}
			}()
			res, err := p.Provide(gctx, req)
			if err != nil {
				// One broken provider must not take the request down.
				o.log.Errorf("provider %s failed: %v", p.Name(), err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("completion aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return merge(results), nil
}

// merge dedupes by label, keeping the highest-priority occurrence, and
// sorts by (priority desc, label asc). Zero items yields nil.
func merge(results []*Result) *Result {
	byLabel := make(map[string]Item)
	incomplete := false
	for _, res := range results {
		if res == nil {
			continue
		}
		incomplete = incomplete || res.Incomplete
		for _, item := range res.Items {
			if prev, ok := byLabel[item.Label]; ok && prev.Priority >= item.Priority {
				continue
			}
			byLabel[item.Label] = item
		}
	}
	if len(byLabel) == 0 && !incomplete {
		return nil
	}

	items := make([]Item, 0, len(byLabel))
	for _, item := range byLabel {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority > items[j].Priority
		}
		return items[i].Label < items[j].Label
	})
	return &Result{Items: items, Incomplete: incomplete}
}
