package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/funvibe/iris/internal/analyzer"
	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/lexer"
	"github.com/funvibe/iris/internal/modules"
	"github.com/funvibe/iris/internal/parser"
	"github.com/funvibe/iris/internal/pipeline"
)

// DocumentState is one open document and its latest analysis.
type DocumentState struct {
	Content string
	Context *pipeline.PipelineContext

	// Program is the last AST that parsed, kept while the text is broken
	// so navigation still works.
	Program  *ast.Program
	Resolver ast.ModuleResolver

	Mu sync.RWMutex
}

func (d *DocumentState) snapshot() (string, *pipeline.PipelineContext, *ast.Program, ast.ModuleResolver) {
	d.Mu.RLock()
	defer d.Mu.RUnlock()
	return d.Content, d.Context, d.Program, d.Resolver
}

func (s *LanguageServer) handleDidOpen(ctx context.Context, conn jsonrpc2.JSONRPC2, raw json.RawMessage) (any, error) {
	var params lsp.DidOpenTextDocumentParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	uri := params.TextDocument.URI
	doc := &DocumentState{}

	s.mu.Lock()
	s.documents[uri] = doc
	s.mu.Unlock()

	s.logger.Debug("opened", "uri", uri)
	return nil, s.update(ctx, conn, uri, doc, params.TextDocument.Text)
}

func (s *LanguageServer) handleDidChange(ctx context.Context, conn jsonrpc2.JSONRPC2, raw json.RawMessage) (any, error) {
	var params lsp.DidChangeTextDocumentParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	// only full sync is advertised
	if len(params.ContentChanges) == 0 {
		return nil, nil
	}
	uri := params.TextDocument.URI
	doc, ok := s.document(uri)
	if !ok {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "document not open: " + string(uri)}
	}
	s.logger.Debug("changed", "uri", uri, "version", params.TextDocument.Version)
	return nil, s.update(ctx, conn, uri, doc, params.ContentChanges[len(params.ContentChanges)-1].Text)
}

func (s *LanguageServer) handleDidClose(_ context.Context, _ jsonrpc2.JSONRPC2, raw json.RawMessage) (any, error) {
	var params lsp.DidCloseTextDocumentParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	s.mu.Lock()
	delete(s.documents, params.TextDocument.URI)
	s.mu.Unlock()
	s.logger.Debug("closed", "uri", params.TextDocument.URI)
	return nil, nil
}

// update re-analyzes content and publishes the diagnostics.
func (s *LanguageServer) update(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI, doc *DocumentState, content string) error {
	result := s.analyzeDocument(content, uri)

	doc.Mu.Lock()
	doc.Content = content
	doc.Context = result
	if result.AstRoot != nil {
		doc.Program = result.AstRoot
		doc.Resolver = result.Resolver
	}
	doc.Mu.Unlock()

	return s.publishDiagnostics(ctx, conn, uri, result)
}

// analyzeDocument runs the front end the way `iris check` does: imports
// are searched next to the file, then in the iris.yaml module paths, then
// in the workspace root.
func (s *LanguageServer) analyzeDocument(content string, uri lsp.DocumentURI) *pipeline.PipelineContext {
	path := uriToPath(uri)
	dir := filepath.Dir(path)

	roots := []string{dir}
	profile := ""
	if cfgPath, err := config.FindConfig(dir); err == nil && cfgPath != "" {
		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			s.logger.Warn("ignoring config", "path", cfgPath, "error", err)
		} else {
			roots = append(roots, cfg.ModulePaths...)
			profile = cfg.Profile
		}
	}
	if s.rootPath != "" && s.rootPath != dir {
		roots = append(roots, s.rootPath)
	}

	ctx := pipeline.NewPipelineContext(content)
	ctx.FilePath = path
	ctx.Profile = profile
	return pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&modules.LoaderProcessor{Loader: modules.NewLoader(modules.DirSource{Roots: roots}).WithLogger(s.logger)},
		&analyzer.SemanticAnalyzerProcessor{},
	).Run(ctx)
}

func uriToPath(uri lsp.DocumentURI) string {
	return strings.TrimPrefix(string(uri), "file://")
}

func pathToURI(path string) lsp.DocumentURI {
	return lsp.DocumentURI("file://" + path)
}
