package main

import (
	"context"
	"encoding/json"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/funvibe/iris/internal/ast"
)

func (s *LanguageServer) handleDefinition(_ context.Context, _ jsonrpc2.JSONRPC2, raw json.RawMessage) (any, error) {
	var params lsp.TextDocumentPositionParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	content, _, prog, resolver := doc.snapshot()

	word, _, _ := symbolAt(content, params.Position)
	if word == "" || prog == nil {
		return nil, nil
	}

	// an import alias jumps to the top of the module
	if mod, ok := importedProgram(word, prog, resolver); ok && mod.File != "" {
		return &lsp.Location{URI: pathToURI(mod.File)}, nil
	}

	found, ok := lookupSymbol(word, prog, resolver)
	if !ok {
		return nil, nil
	}
	if found.imported {
		if found.prog.File == "" {
			return nil, nil
		}
		start := tokenPosition(found.def)
		return &lsp.Location{URI: pathToURI(found.prog.File), Range: lsp.Range{Start: start, End: start}}, nil
	}
	return &lsp.Location{URI: params.TextDocument.URI, Range: nameRange(content, found.def)}, nil
}

func tokenPosition(n ast.Node) lsp.Position {
	tok := n.GetToken()
	return lsp.Position{Line: max(tok.Line-1, 0), Character: max(tok.Column-1, 0)}
}

// nameRange locates the name of def in content, falling back to the
// opening parenthesis of the definition.
func nameRange(content string, def ast.Definition) lsp.Range {
	start := tokenPosition(def)
	off := findSymbol(content, def.DefName(), offsetOf(content, start))
	if off < 0 {
		return lsp.Range{Start: start, End: start}
	}
	return lsp.Range{
		Start: positionOf(content, off),
		End:   positionOf(content, off+len(def.DefName())),
	}
}
