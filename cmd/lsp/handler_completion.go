package main

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"unicode"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/funvibe/iris/internal/analyzer"
	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/pipeline"
)

// keywords are the form heads and section tags of the surface syntax.
var keywords = []string{
	"program", "module", "version", "imports", "import", "as", "defs",
	"deffn", "deftool", "defconst", "deftype", "name", "args", "ret", "eff", "body",
	"type", "value", "doc", "requires", "ensures", "caps",
	"let", "if", "match", "case", "call", "lambda", "record", "tag", "union",
	"list", "list-of", "tuple", "true", "false", "None", "nil",
	"!Pure", "!IO", "!Net", "!Infer",
}

var typeNames = []string{"I64", "Bool", "Str", "Option", "Result", "List", "Tuple", "Record", "Union", "Map", "Fn"}

func (s *LanguageServer) handleCompletion(_ context.Context, _ jsonrpc2.JSONRPC2, raw json.RawMessage) (any, error) {
	var params lsp.CompletionParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	empty := lsp.CompletionList{Items: []lsp.CompletionItem{}}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return empty, nil
	}
	content, result, prog, resolver := doc.snapshot()

	var summaries map[string]pipeline.DefSummary
	if result != nil {
		summaries = result.Summaries
	}
	items := completionItems(prefixAt(content, params.Position), prog, resolver, summaries)
	return lsp.CompletionList{Items: items}, nil
}

// completionItems lists keywords, types, intrinsics, the definitions of
// prog and alias.def for its imports, keeping those that start with
// prefix. Items are sorted by label.
func completionItems(prefix string, prog *ast.Program, resolver ast.ModuleResolver, summaries map[string]pipeline.DefSummary) []lsp.CompletionItem {
	items := []lsp.CompletionItem{}
	seen := make(map[string]bool)
	add := func(item lsp.CompletionItem) {
		if seen[item.Label] || !strings.HasPrefix(item.Label, prefix) {
			return
		}
		seen[item.Label] = true
		items = append(items, item)
	}

	for _, kw := range keywords {
		add(lsp.CompletionItem{Label: kw, Kind: lsp.CIKKeyword})
	}
	for _, t := range typeNames {
		add(lsp.CompletionItem{Label: t, Kind: lsp.CIKClass, Detail: "type"})
	}
	for op, info := range config.Intrinsics {
		detail, ok := analyzer.IntrinsicSignature(op)
		if !ok {
			detail = info.Eff.String()
		}
		kind := lsp.CIKFunction
		if !unicode.IsLetter(rune(op[0])) {
			kind = lsp.CIKOperator
		}
		add(lsp.CompletionItem{Label: op, Kind: kind, Detail: detail})
	}

	if prog != nil {
		for _, def := range prog.Defs {
			add(defItem(def.DefName(), def, summaries))
		}
		for _, imp := range prog.Imports {
			add(lsp.CompletionItem{Label: imp.Alias, Kind: lsp.CIKModule, Detail: imp.Path})
			mod, ok := importedProgram(imp.Alias, prog, resolver)
			if !ok {
				continue
			}
			for _, def := range mod.Defs {
				add(defItem(imp.Alias+"."+def.DefName(), def, nil))
			}
		}
	}

	slices.SortFunc(items, func(a, b lsp.CompletionItem) int { return strings.Compare(a.Label, b.Label) })
	return items
}

func defItem(label string, def ast.Definition, summaries map[string]pipeline.DefSummary) lsp.CompletionItem {
	kind := lsp.CIKFunction
	switch def.(type) {
	case *ast.DefConst:
		kind = lsp.CIKConstant
	case *ast.TypeDef:
		kind = lsp.CIKStruct
	}
	return lsp.CompletionItem{
		Label:         label,
		Kind:          kind,
		Detail:        signatureOf(def, summaries),
		Documentation: docOf(def),
	}
}
