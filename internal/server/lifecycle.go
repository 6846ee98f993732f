package server

import (
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"anvil/internal/config"
	"anvil/internal/taskmeta"
)

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	cfg, err := config.Load(params.InitializationOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load initialization options: %w", err)
	}
	s.cfg = cfg

	cachePath, err := cfg.CachePath()
	if err != nil {
		return nil, err
	}
	tasks, err := taskmeta.Open(cachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open task cache: %w", err)
	}
	s.tasks = tasks
	s.log.Infof("task cache at %s", cachePath)

	capabilities := s.handler.CreateServerCapabilities()

	// Documents are small; full-text sync keeps the snapshot pipeline
	// trivial and the scanner fast enough to re-run per change.
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
		Save:      true,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"<", "$", "(", "@", "%", "."},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	s.log.Info("client initialized")
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	s.log.Info("shutdown")
	s.workspace.CloseAll()
	if s.tasks != nil {
		if err := s.tasks.Close(); err != nil {
			return fmt.Errorf("failed to close task cache: %w", err)
		}
	}
	return nil
}
