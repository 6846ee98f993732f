// Package document owns the per-file state of the workspace: one text
// snapshot with its position index and node tree, diagnostics, and the
// reader/writer lock arbitrating edits against queries.
package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"anvil/internal/position"
	"anvil/internal/syntax"
)

// ErrUnloaded is returned for operations on a document that has been
// unloaded or never populated. Unload is terminal: a new Document is
// required to serve the URI again.
var ErrUnloaded = errors.New("document is not loaded")

// Kind classifies a build file by its role, derived from the extension.
type Kind uint8

const (
	KindProject Kind = iota
	KindProps
	KindTargets
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindProject:
		return "project"
	case KindProps:
		return "props"
	case KindTargets:
		return "targets"
	default:
		return "other"
	}
}

// KindForPath derives the document kind from the file extension.
func KindForPath(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".props":
		return KindProps
	case ext == ".targets":
		return KindTargets
	case ext == ".proj" || strings.HasSuffix(ext, "proj"):
		return KindProject
	default:
		return KindOther
	}
}

// Severity of a diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInformation
)

// Diagnostic is one finding against the current snapshot.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Range    position.Range
}

// Snapshot is the immutable parsed state of one text version. It is
// built in full before being installed, so a query holding the read
// lock never observes a half-updated snapshot.
type Snapshot struct {
	Text    string
	Index   *position.Index
	Tree    *syntax.Tree
	Symbols *Symbols
}

// Document is the in-memory state for one build file. Load, Update and
// Unload take the writer lock; every query runs under the reader lock
// via WithSnapshot and must not re-acquire it.
type Document struct {
	uri  string
	path string
	kind Kind
	log  commonlog.Logger

	mu       sync.RWMutex
	snap     *Snapshot
	diags    []Diagnostic
	dirty    bool
	unloaded bool
}

// New constructs an empty document for the URI. path is the backing
// file used by Load; it may be empty for documents that only ever see
// in-memory updates.
func New(uri, path string) *Document {
	return &Document{
		uri:  uri,
		path: path,
		kind: KindForPath(path),
		log:  commonlog.GetLogger("anvil.document"),
	}
}

// URI returns the document's URI.
func (d *Document) URI() string { return d.uri }

// Path returns the backing file path.
func (d *Document) Path() string { return d.path }

// Kind returns the document kind derived from the file extension.
func (d *Document) Kind() Kind { return d.kind }

// Dirty reports whether the snapshot came from an in-memory edit rather
// than disk.
func (d *Document) Dirty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dirty
}

// Loaded reports whether a snapshot is installed.
func (d *Document) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap != nil
}

// Load reads the backing file and rebuilds the snapshot from scratch.
// The returned bool reports whether project semantics (symbol harvest)
// were materialized; its failure does not make Load fail. On an I/O
// error the previous snapshot and diagnostics are kept untouched.
func (d *Document) Load(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	data, err := os.ReadFile(d.path)
	if err != nil {
		d.log.Errorf("load %s: %v", d.uri, err)
		return false, fmt.Errorf("failed to read %s: %w", d.path, err)
	}
	return d.install(string(data), false)
}

// Update rebuilds the snapshot from an in-memory edit and marks the
// document dirty.
func (d *Document) Update(ctx context.Context, text string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return d.install(text, true)
}

// install builds the complete new snapshot and swaps it in under the
// writer lock. Diagnostics are cleared and repopulated as part of the
// same swap.
func (d *Document) install(text string, dirty bool) (bool, error) {
	ix := position.NewIndex(text)
	tree := syntax.Parse(text, ix)
	snap := &Snapshot{Text: text, Index: ix, Tree: tree}

	// Every snapshot carries a symbol table regardless of kind; the
	// returned bool reports whether the kind has project semantics.
	semantics := d.kind != KindOther
	snap.Symbols = harvestSymbols(tree)
	diags := collectDiagnostics(tree)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unloaded {
		return false, ErrUnloaded
	}
	d.snap = snap
	d.diags = diags
	d.dirty = dirty
	return semantics, nil
}

// Unload releases the snapshot state and clears diagnostics. The
// document is terminal afterwards.
func (d *Document) Unload() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap = nil
	d.diags = nil
	d.dirty = false
	d.unloaded = true
}

// Diagnostics returns a copy of the current diagnostics in document
// order.
func (d *Document) Diagnostics() []Diagnostic {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Diagnostic, len(d.diags))
	copy(out, d.diags)
	return out
}

// WithSnapshot runs fn under the reader lock against the installed
// snapshot. fn must not mutate document state or re-acquire the lock;
// a pending writer would deadlock against it.
func (d *Document) WithSnapshot(ctx context.Context, fn func(*Snapshot) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.snap == nil {
		return ErrUnloaded
	}
	return fn(d.snap)
}

// Inspect resolves a position against the current snapshot.
func (d *Document) Inspect(ctx context.Context, p position.Position) (syntax.Location, error) {
	var loc syntax.Location
	err := d.WithSnapshot(ctx, func(s *Snapshot) error {
		var err error
		loc, err = s.Tree.Inspect(p)
		return err
	})
	return loc, err
}
