package server

import (
	"errors"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"anvil/internal/completion"
	"anvil/internal/document"
	"anvil/internal/position"
	"anvil/internal/schema"
	"anvil/internal/syntax"
	"anvil/internal/taskmeta"
)

// resolvable reports whether the position resolved to something the
// query layer can work with; misses answer null, not an error.
func resolvable(err error) bool {
	return !errors.Is(err, position.ErrOutOfRange) && !errors.Is(err, syntax.ErrNoNode)
}

func (s *Server) textDocumentCompletion(
	glspCtx *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	doc, ok := s.workspace.Get(params.TextDocument.URI)
	if !ok {
		return nil, fmt.Errorf("document not found: %s", params.TextDocument.URI)
	}

	ctx := requestContext(glspCtx)
	var result *completion.Result
	err := doc.WithSnapshot(ctx, func(snap *document.Snapshot) error {
		loc, err := snap.Tree.Inspect(fromProtocolPosition(params.Position))
		if err != nil {
			if resolvable(err) {
				return err
			}
			return nil
		}
		req := &completion.Request{Location: loc, Snapshot: snap}
		if s.tasks != nil {
			req.Tasks = s.tasks
		}
		result, err = s.complete.Complete(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	if result == nil {
		if s.cfg.NullForNoCompletions {
			return nil, nil
		}
		return protocol.CompletionList{Items: []protocol.CompletionItem{}}, nil
	}

	items := result.Items
	incomplete := result.Incomplete
	if limit := s.cfg.MaxCompletionItems; limit > 0 && len(items) > limit {
		items = items[:limit]
		incomplete = true
	}

	out := make([]protocol.CompletionItem, len(items))
	for i, item := range items {
		kind := toProtocolCompletionKind(item.Kind)
		// Keep the orchestrator's priority order under client-side
		// resorting.
		sortText := fmt.Sprintf("%03d_%s", 100-item.Priority, item.Label)
		out[i] = protocol.CompletionItem{
			Label:    item.Label,
			Kind:     &kind,
			SortText: &sortText,
		}
		if item.Detail != "" {
			detail := item.Detail
			out[i].Detail = &detail
		}
		if item.Documentation != "" {
			out[i].Documentation = item.Documentation
		}
	}
	return protocol.CompletionList{IsIncomplete: incomplete, Items: out}, nil
}

func (s *Server) textDocumentHover(
	glspCtx *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	doc, ok := s.workspace.Get(params.TextDocument.URI)
	if !ok {
		return nil, fmt.Errorf("document not found: %s", params.TextDocument.URI)
	}

	var hover *protocol.Hover
	err := doc.WithSnapshot(requestContext(glspCtx), func(snap *document.Snapshot) error {
		loc, err := snap.Tree.Inspect(fromProtocolPosition(params.Position))
		if err != nil {
			if resolvable(err) {
				return err
			}
			return nil
		}
		content, rng, ok := s.hoverContent(snap, loc)
		if !ok {
			return nil
		}
		protoRange := toProtocolRange(rng)
		hover = &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: content,
			},
			Range: &protoRange,
		}
		return nil
	})
	return hover, err
}

// hoverContent resolves what the cursor points at to a markdown blurb.
func (s *Server) hoverContent(snap *document.Snapshot, loc syntax.Location) (string, position.Range, bool) {
	tree := snap.Tree

	if loc.Flags.Has(syntax.FlagElement) && loc.Flags.Has(syntax.FlagName) {
		name := loc.Node.Name
		rng := offsetRange(snap, loc.Node.NameStart, loc.Node.NameEnd)
		if e, ok := schema.LookupElement(name); ok {
			return fmt.Sprintf("**<%s>**\n\n%s", e.Name, e.Description), rng, true
		}
		parent := ""
		if loc.Node.Parent != syntax.None {
			parent = tree.Node(loc.Node.Parent).Name
		}
		switch parent {
		case "PropertyGroup":
			return fmt.Sprintf("**%s** (property)", name), rng, true
		case "ItemGroup":
			return fmt.Sprintf("**%s** (item)", name), rng, true
		case "Target":
			if blurb, ok := s.taskBlurb(snap, name); ok {
				return blurb, rng, true
			}
		}
		return "", position.Range{}, false
	}

	word, start, end, ok := wordAt(snap.Text, loc.Offset)
	if !ok {
		return "", position.Range{}, false
	}
	rng := offsetRange(snap, start, end)
	if p, ok := schema.LookupProperty(word); ok {
		return fmt.Sprintf("**$(%s)**\n\n%s", p.Name, p.Description), rng, true
	}
	if m, ok := schema.LookupMetadata(word); ok {
		return fmt.Sprintf("**%%(%s)**\n\n%s", m.Name, m.Description), rng, true
	}
	if defs := snap.Symbols.Definitions(word); len(defs) > 0 {
		d := defs[0]
		if d.Detail != "" {
			return fmt.Sprintf("**%s** (%s)\n\n`%s`", d.Name, d.Kind, d.Detail), rng, true
		}
		return fmt.Sprintf("**%s** (%s)", d.Name, d.Kind), rng, true
	}
	return "", position.Range{}, false
}

func (s *Server) taskBlurb(snap *document.Snapshot, name string) (string, bool) {
	if s.tasks != nil {
		if rec, err := s.tasks.Get(name); err == nil {
			return fmt.Sprintf("**%s** (task)\n\nAssembly: `%s`", rec.Name, rec.Assembly), true
		} else if !errors.Is(err, taskmeta.ErrNotFound) {
			s.log.Warningf("task lookup failed: %v", err)
		}
	}
	for _, sym := range snap.Symbols.Tasks {
		if sym.Name == name {
			return fmt.Sprintf("**%s** (task)\n\ndeclared by UsingTask", name), true
		}
	}
	return "", false
}

func (s *Server) textDocumentDocumentSymbol(
	glspCtx *glsp.Context,
	params *protocol.DocumentSymbolParams,
) (any, error) {
	doc, ok := s.workspace.Get(params.TextDocument.URI)
	if !ok {
		return nil, fmt.Errorf("document not found: %s", params.TextDocument.URI)
	}

	var out []protocol.DocumentSymbol
	err := doc.WithSnapshot(requestContext(glspCtx), func(snap *document.Snapshot) error {
		for _, sym := range snap.Symbols.All() {
			rng := toProtocolRange(sym.Range)
			ds := protocol.DocumentSymbol{
				Name:           sym.Name,
				Kind:           toProtocolSymbolKind(sym.Kind),
				Range:          rng,
				SelectionRange: rng,
			}
			if sym.Detail != "" {
				detail := sym.Detail
				ds.Detail = &detail
			}
			out = append(out, ds)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Server) textDocumentDefinition(
	glspCtx *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	uri := params.TextDocument.URI
	doc, ok := s.workspace.Get(uri)
	if !ok {
		return nil, fmt.Errorf("document not found: %s", uri)
	}

	var locations []protocol.Location
	err := doc.WithSnapshot(requestContext(glspCtx), func(snap *document.Snapshot) error {
		loc, err := snap.Tree.Inspect(fromProtocolPosition(params.Position))
		if err != nil {
			if resolvable(err) {
				return err
			}
			return nil
		}
		name, ok := referencedName(snap, loc)
		if !ok {
			return nil
		}
		for _, def := range snap.Symbols.Definitions(name) {
			locations = append(locations, protocol.Location{
				URI:   uri,
				Range: toProtocolRange(def.Range),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(locations) == 0 {
		return nil, nil
	}
	return locations, nil
}

// referencedName extracts the symbol name the cursor refers to: an
// element name, or the identifier under the cursor in values and text.
func referencedName(snap *document.Snapshot, loc syntax.Location) (string, bool) {
	if loc.Flags.Has(syntax.FlagElement) && loc.Flags.Has(syntax.FlagName) {
		return loc.Node.Name, loc.Node.Name != ""
	}
	word, _, _, ok := wordAt(snap.Text, loc.Offset)
	return word, ok
}

func isWordChar(b byte) bool {
	return b == '_' ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z') ||
		('0' <= b && b <= '9')
}

// wordAt returns the identifier run around off and its byte range.
func wordAt(text string, off int) (string, int, int, bool) {
	if off > len(text) {
		return "", 0, 0, false
	}
	start, end := off, off
	for start > 0 && isWordChar(text[start-1]) {
		start--
	}
	for end < len(text) && isWordChar(text[end]) {
		end++
	}
	if start == end {
		return "", 0, 0, false
	}
	return text[start:end], start, end, true
}

func offsetRange(snap *document.Snapshot, start, end int) position.Range {
	s, _ := snap.Index.ToPosition(start)
	e, _ := snap.Index.ToPosition(end)
	return position.Range{Start: s, End: e}
}
