package main

import (
	"context"
	"encoding/json"
	"fmt"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/funvibe/iris/internal/analyzer"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/pipeline"
)

func (s *LanguageServer) handleHover(_ context.Context, _ jsonrpc2.JSONRPC2, raw json.RawMessage) (any, error) {
	var params lsp.TextDocumentPositionParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	content, result, prog, resolver := doc.snapshot()

	word, start, end := symbolAt(content, params.Position)
	if word == "" {
		return nil, nil
	}
	rng := lsp.Range{Start: positionOf(content, start), End: positionOf(content, end)}

	if info, ok := config.LookupIntrinsic(word); ok {
		return &lsp.Hover{Contents: intrinsicHover(word, info), Range: &rng}, nil
	}

	found, ok := lookupSymbol(word, prog, resolver)
	if !ok {
		return nil, nil
	}
	var summaries map[string]pipeline.DefSummary
	if !found.imported && result != nil {
		summaries = result.Summaries
	}
	contents := []lsp.MarkedString{{
		Language: "iris",
		Value:    fmt.Sprintf("%s %s : %s", defKind(found.def), found.def.DefName(), signatureOf(found.def, summaries)),
	}}
	if d := docOf(found.def); d != "" {
		contents = append(contents, lsp.RawMarkedString(d))
	}
	if found.imported {
		contents = append(contents, lsp.RawMarkedString("from "+found.prog.File))
	}
	return &lsp.Hover{Contents: contents, Range: &rng}, nil
}

func intrinsicHover(op string, info config.IntrinsicInfo) []lsp.MarkedString {
	sig, ok := analyzer.IntrinsicSignature(op)
	if !ok {
		sig = "generic " + info.Eff.String()
	}
	contents := []lsp.MarkedString{{Language: "iris", Value: op + " : " + sig}}
	if info.Async {
		contents = append(contents, lsp.RawMarkedString("May block; not allowed in synchronous mode."))
	}
	return contents
}
