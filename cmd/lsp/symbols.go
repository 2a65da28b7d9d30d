package main

import (
	"strings"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/pipeline"
)

// resolved is a definition found for a symbol, possibly in an imported
// module.
type resolved struct {
	def  ast.Definition
	prog *ast.Program
	// imported is false for definitions of the document itself.
	imported bool
}

// lookupSymbol finds the definition name refers to: a definition of
// prog or alias.def of an imported module.
func lookupSymbol(name string, prog *ast.Program, resolver ast.ModuleResolver) (resolved, bool) {
	if prog == nil {
		return resolved{}, false
	}
	if def := prog.Lookup(name); def != nil {
		return resolved{def: def, prog: prog}, true
	}
	alias, member, ok := strings.Cut(name, ".")
	if !ok {
		return resolved{}, false
	}
	mod, ok := importedProgram(alias, prog, resolver)
	if !ok {
		return resolved{}, false
	}
	// a.b.c on a record reads fields; only the first segment names a def
	member, _, _ = strings.Cut(member, ".")
	if def := mod.Lookup(member); def != nil {
		return resolved{def: def, prog: mod, imported: true}, true
	}
	return resolved{}, false
}

func importedProgram(alias string, prog *ast.Program, resolver ast.ModuleResolver) (*ast.Program, bool) {
	if resolver == nil {
		return nil, false
	}
	path, ok := prog.ImportPath(alias)
	if !ok {
		return nil, false
	}
	return resolver.Resolve(path)
}

func defKind(def ast.Definition) string {
	switch def.(type) {
	case *ast.DefFn:
		return "deffn"
	case *ast.DefTool:
		return "deftool"
	case *ast.DefConst:
		return "defconst"
	case *ast.TypeDef:
		return "deftype"
	}
	return "def"
}

// signatureOf renders the checked type of def when the analyzer produced
// one, else its declared type.
func signatureOf(def ast.Definition, summaries map[string]pipeline.DefSummary) string {
	if s, ok := summaries[def.DefName()]; ok && s.Type != nil {
		return s.Type.String()
	}
	switch d := def.(type) {
	case *ast.DefFn:
		return d.Signature().String()
	case *ast.DefTool:
		return d.Signature().String()
	case *ast.DefConst:
		return d.Type.String()
	case *ast.TypeDef:
		return d.Type.String()
	}
	return ""
}

func docOf(def ast.Definition) string {
	switch d := def.(type) {
	case *ast.DefFn:
		return d.Meta.Doc
	case *ast.DefTool:
		return d.Meta.Doc
	case *ast.DefConst:
		return d.Doc
	case *ast.TypeDef:
		return d.Doc
	}
	return ""
}
