package main

import (
	"context"
	"path/filepath"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/pipeline"
)

func (s *LanguageServer) publishDiagnostics(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI, result *pipeline.PipelineContext) error {
	return conn.Notify(ctx, "textDocument/publishDiagnostics", lsp.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: convertDiagnostics(result.Errors, uriToPath(uri)),
	})
}

// convertDiagnostics keeps the errors reported against filePath. Errors
// inside imported modules carry their own file and are left out.
func convertDiagnostics(errs []*diagnostics.DiagnosticError, filePath string) []lsp.Diagnostic {
	result := make([]lsp.Diagnostic, 0, len(errs))
	target := filepath.Clean(filePath)

	for _, err := range errs {
		if err.File != "" && filePath != "" && filepath.Clean(err.File) != target {
			continue
		}
		// tokens are 1-based, LSP positions 0-based
		line := max(err.Token.Line-1, 0)
		col := max(err.Token.Column-1, 0)
		width := max(len(err.Token.Lexeme), 1)

		result = append(result, lsp.Diagnostic{
			Range: lsp.Range{
				Start: lsp.Position{Line: line, Character: col},
				End:   lsp.Position{Line: line, Character: col + width},
			},
			Severity: lsp.Error,
			Code:     string(err.Code),
			Source:   "iris",
			Message:  err.Error(),
		})
	}
	return result
}
