package main

import (
	"context"
	"encoding/json"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
)

func (s *LanguageServer) handleInitialize(_ context.Context, _ jsonrpc2.JSONRPC2, raw json.RawMessage) (any, error) {
	var params lsp.InitializeParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	if params.RootURI != "" || params.RootPath != "" {
		s.rootPath = uriToPath(params.Root())
	}
	s.logger.Info("initialize", "root", s.rootPath)

	return &lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Options: &lsp.TextDocumentSyncOptions{
					OpenClose: true,
					Change:    lsp.TDSKFull,
				},
			},
			HoverProvider:      true,
			DefinitionProvider: true,
			CompletionProvider: &lsp.CompletionOptions{TriggerCharacters: []string{"(", "."}},
		},
	}, nil
}

func (s *LanguageServer) handleExit(_ context.Context, conn jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return nil, conn.Close()
}
