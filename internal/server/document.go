package server

import (
	"fmt"
	"reflect"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"anvil/internal/document"
)

func (s *Server) textDocumentDidOpen(
	glspCtx *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	doc, err := s.workspace.Open(requestContext(glspCtx), uri, params.TextDocument.Text)
	if err != nil {
		return err
	}
	// The first opened project file becomes the entry point until the
	// client says otherwise.
	if doc.Kind() == document.KindProject {
		if _, ok := s.workspace.Master(); !ok {
			s.workspace.SetMaster(uri)
		}
	}
	s.publishDiagnostics(glspCtx, uri, doc)
	return nil
}

func (s *Server) textDocumentDidChange(
	glspCtx *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	for _, rawChange := range params.ContentChanges {
		whole, ok := rawChange.(protocol.TextDocumentContentChangeEventWhole)
		if !ok {
			// Sync is negotiated as full; anything else is a client bug.
			return fmt.Errorf("only full document sync is supported")
		}
		doc, err := s.workspace.Update(requestContext(glspCtx), uri, whole.Text)
		if err != nil {
			return err
		}
		s.publishDiagnostics(glspCtx, uri, doc)
	}
	return nil
}

func (s *Server) textDocumentDidSave(
	glspCtx *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	// A save may write text the server never saw (e.g. format on save
	// by another tool); reload from disk to stay authoritative.
	doc, err := s.workspace.Reload(requestContext(glspCtx), uri)
	if err != nil {
		s.log.Warningf("failed to reload %s after save: %v", uri, err)
		return nil
	}
	s.publishDiagnostics(glspCtx, uri, doc)
	return nil
}

func (s *Server) textDocumentDidClose(
	glspCtx *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	s.workspace.Close(uri)
	delete(s.diagnosticCache, uri)
	// An empty publish clears stale squiggles on the client.
	glspCtx.Notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *Server) publishDiagnostics(glspCtx *glsp.Context, uri string, doc *document.Document) {
	diags := doc.Diagnostics()
	out := make([]protocol.Diagnostic, len(diags))
	source := Name
	for i, d := range diags {
		severity := toProtocolSeverity(d.Severity)
		code := protocol.IntegerOrString{Value: d.Code}
		out[i] = protocol.Diagnostic{
			Range:    toProtocolRange(d.Range),
			Severity: &severity,
			Code:     &code,
			Source:   &source,
			Message:  d.Message,
		}
	}

	if previous, exists := s.diagnosticCache[uri]; exists && reflect.DeepEqual(previous, out) {
		return
	}
	s.diagnosticCache[uri] = out

	glspCtx.Notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: out,
	})
}
