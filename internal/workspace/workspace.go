// Package workspace owns the table of known documents, keyed by URI.
// It arbitrates creation, reload, update and removal; per-document
// state and locking live in the document package.
package workspace

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"anvil/internal/document"
)

// Workspace is the process-wide document table. All operations are safe
// under concurrent request handling; operations on different URIs never
// contend with each other beyond the table lock itself.
type Workspace struct {
	mu     sync.RWMutex
	docs   map[string]*document.Document
	master string
	log    commonlog.Logger
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{
		docs: make(map[string]*document.Document),
		log:  commonlog.GetLogger("anvil.workspace"),
	}
}

// PathForURI strips the file scheme from a document URI. Non-file URIs
// are returned as-is minus the scheme; Load will fail for them and the
// document stays usable for in-memory updates.
func PathForURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		return uri
	}
	if u.Scheme == "file" {
		return u.Path
	}
	return strings.TrimPrefix(uri, u.Scheme+":")
}

// Open installs a document for the URI with the given in-memory text,
// replacing any previous entry for the same URI.
func (w *Workspace) Open(ctx context.Context, uri, text string) (*document.Document, error) {
	doc := document.New(uri, PathForURI(uri))
	if _, err := doc.Update(ctx, text); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", uri, err)
	}

	w.mu.Lock()
	if old, ok := w.docs[uri]; ok {
		old.Unload()
	}
	w.docs[uri] = doc
	w.mu.Unlock()

	w.log.Debugf("opened %s (%s)", uri, doc.Kind())
	return doc, nil
}

// Get returns the document for the URI if one is known.
func (w *Workspace) Get(uri string) (*document.Document, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	doc, ok := w.docs[uri]
	return doc, ok
}

// GetOrLoad returns the document for the URI, loading it from disk on
// first access. The read-modify-write on one key is atomic with respect
// to concurrent accesses of the same key.
func (w *Workspace) GetOrLoad(ctx context.Context, uri string) (*document.Document, error) {
	if doc, ok := w.Get(uri); ok {
		return doc, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// Another request may have won the race while we upgraded the lock.
	if doc, ok := w.docs[uri]; ok {
		return doc, nil
	}
	doc := document.New(uri, PathForURI(uri))
	if _, err := doc.Load(ctx); err != nil {
		return nil, err
	}
	w.docs[uri] = doc
	w.log.Debugf("loaded %s (%s)", uri, doc.Kind())
	return doc, nil
}

// Update replaces the text of a known document. Updating an unknown URI
// creates the entry, mirroring editors that send changes before opens.
func (w *Workspace) Update(ctx context.Context, uri, text string) (*document.Document, error) {
	if doc, ok := w.Get(uri); ok {
		if _, err := doc.Update(ctx, text); err != nil {
			return nil, err
		}
		return doc, nil
	}
	return w.Open(ctx, uri, text)
}

// Reload rebuilds a known document from disk, discarding in-memory
// edits.
func (w *Workspace) Reload(ctx context.Context, uri string) (*document.Document, error) {
	doc, ok := w.Get(uri)
	if !ok {
		return w.GetOrLoad(ctx, uri)
	}
	if _, err := doc.Load(ctx); err != nil {
		return nil, err
	}
	return doc, nil
}

// Close unloads and removes the document. Closing an unknown URI is a
// no-op.
func (w *Workspace) Close(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[uri]
	if !ok {
		return
	}
	doc.Unload()
	delete(w.docs, uri)
	if w.master == uri {
		w.master = ""
	}
	w.log.Debugf("closed %s", uri)
}

// CloseAll unloads every document, e.g. on shutdown.
func (w *Workspace) CloseAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for uri, doc := range w.docs {
		doc.Unload()
		delete(w.docs, uri)
	}
	w.master = ""
}

// SetMaster marks the distinguished entry-point document.
func (w *Workspace) SetMaster(uri string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.master = uri
}

// Master returns the distinguished document, if set and still known.
func (w *Workspace) Master() (*document.Document, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.master == "" {
		return nil, false
	}
	doc, ok := w.docs[w.master]
	return doc, ok
}

// URIs returns the known document URIs in no particular order.
func (w *Workspace) URIs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	uris := make([]string, 0, len(w.docs))
	for uri := range w.docs {
		uris = append(uris, uri)
	}
	return uris
}
