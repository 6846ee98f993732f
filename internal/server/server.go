// Package server speaks the language server protocol over stdio and
// translates requests into workspace and completion calls.
package server

import (
	"context"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"anvil/internal/completion"
	"anvil/internal/config"
	"anvil/internal/taskmeta"
	"anvil/internal/workspace"
)

const Name = "anvil"

type Server struct {
	handler   *protocol.Handler
	workspace *workspace.Workspace
	complete  *completion.Orchestrator
	tasks     *taskmeta.Store
	cfg       config.Config
	log       commonlog.Logger

	// Last published diagnostics per URI, to skip redundant notifies.
	diagnosticCache map[string][]protocol.Diagnostic
}

// New wires the protocol handler. The task cache opens during
// initialize, once configuration is known.
func New() *Server {
	s := &Server{
		workspace:       workspace.New(),
		complete:        completion.NewOrchestrator(),
		log:             commonlog.GetLogger("anvil.server"),
		diagnosticCache: make(map[string][]protocol.Diagnostic),
	}

	s.handler = &protocol.Handler{
		Initialize:                 s.initialize,
		Initialized:                s.initialized,
		TextDocumentDidOpen:        s.textDocumentDidOpen,
		TextDocumentDidChange:      s.textDocumentDidChange,
		TextDocumentDidSave:        s.textDocumentDidSave,
		TextDocumentDidClose:       s.textDocumentDidClose,
		TextDocumentCompletion:     s.textDocumentCompletion,
		TextDocumentHover:          s.textDocumentHover,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
		TextDocumentDefinition:     s.textDocumentDefinition,
		Shutdown:                   s.shutdown,
	}

	return s
}

// RunStdio serves the protocol on stdin/stdout until the client
// disconnects.
func (s *Server) RunStdio() error {
	return server.NewServer(s.handler, Name, false).RunStdio()
}

// requestContext returns the request's cancellable context. glsp leaves
// the field nil on some paths; those requests are uncancellable.
func requestContext(glspCtx *glsp.Context) context.Context {
	if glspCtx != nil && glspCtx.Context != nil {
		return glspCtx.Context
	}
	return context.Background()
}
