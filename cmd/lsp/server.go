package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
)

var (
	errMethodNotFound = &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams  = &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

// LanguageServer keeps the open documents and their latest analysis.
// Requests are handled one at a time, in arrival order.
type LanguageServer struct {
	documents map[lsp.DocumentURI]*DocumentState
	mu        sync.RWMutex
	rootPath  string // workspace root, searched for imports
	logger    *slog.Logger
}

func NewLanguageServer(logger *slog.Logger) *LanguageServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LanguageServer{
		documents: make(map[lsp.DocumentURI]*DocumentState),
		logger:    logger,
	}
}

type method func(ctx context.Context, conn jsonrpc2.JSONRPC2, params json.RawMessage) (any, error)

func noop(context.Context, jsonrpc2.JSONRPC2, json.RawMessage) (any, error) { return nil, nil }

// Handler routes JSON-RPC requests to the server.
func (s *LanguageServer) Handler() jsonrpc2.Handler {
	methods := map[string]method{
		"initialize":              s.handleInitialize,
		"shutdown":                noop,
		"exit":                    s.handleExit,
		"textDocument/didOpen":    s.handleDidOpen,
		"textDocument/didChange":  s.handleDidChange,
		"textDocument/didClose":   s.handleDidClose,
		"textDocument/hover":      s.handleHover,
		"textDocument/definition": s.handleDefinition,
		"textDocument/completion": s.handleCompletion,

		"initialized":                     noop,
		"workspace/didChangeWatchedFiles": noop,
	}

	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		s.logger.Debug("lsp message", "method", req.Method, "notification", req.Notif)
		fn, ok := methods[req.Method]
		if !ok {
			if req.Notif {
				return nil, nil
			}
			return nil, errMethodNotFound
		}
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		return fn(ctx, conn, params)
	})
}

func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 || json.Unmarshal(raw, v) != nil {
		return errInvalidParams
	}
	return nil
}

func (s *LanguageServer) document(uri lsp.DocumentURI) (*DocumentState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[uri]
	return doc, ok
}
