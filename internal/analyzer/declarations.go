package analyzer

import (
	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/pipeline"
	"github.com/funvibe/iris/internal/typesystem"
)

// loadImportedTypes registers the TypeDefs of every imported module under
// "alias.Name" so qualified signatures resolve.
func (a *Analyzer) loadImportedTypes() {
	for _, imp := range a.program.Imports {
		mod, ok := a.resolve(imp.Path)
		if !ok {
			a.addError(newError(diagnostics.ErrM001, imp, "Module not found: %s", imp.Path))
			continue
		}
		exported := exportedTypes(mod)
		for _, def := range mod.Defs {
			if td, ok := def.(*ast.TypeDef); ok {
				a.types.Define(imp.Alias+"."+td.Name, typesystem.Qualify(td.Type, imp.Alias, exported))
			}
		}
	}
}

func (a *Analyzer) resolve(path string) (*ast.Program, bool) {
	if a.resolver == nil {
		return nil, false
	}
	return a.resolver.Resolve(path)
}

func exportedTypes(mod *ast.Program) map[string]bool {
	names := make(map[string]bool)
	for _, def := range mod.Defs {
		if td, ok := def.(*ast.TypeDef); ok {
			names[td.Name] = true
		}
	}
	return names
}

// collect records every signature, constant type and TypeDef before any
// body is checked, so definitions may reference each other in any order.
func (a *Analyzer) collect() {
	for _, def := range a.program.Defs {
		switch d := def.(type) {
		case *ast.DefFn:
			a.checkDuplicateArgs(d, d.Args)
			a.functions[d.Name] = d.Signature()
		case *ast.DefTool:
			a.checkDuplicateArgs(d, d.Args)
			a.functions[d.Name] = d.Signature()
		case *ast.DefConst:
			a.constants[d.Name] = d.Type
		case *ast.TypeDef:
			a.types.Define(d.Name, d.Type)
		}
	}
}

func (a *Analyzer) checkDuplicateArgs(node ast.Node, args []ast.Arg) {
	seen := make(map[string]bool, len(args))
	for _, arg := range args {
		if seen[arg.Name] {
			a.addError(newError(diagnostics.ErrT006, node, "Duplicate argument name: %s", arg.Name))
		}
		seen[arg.Name] = true
	}
}

func (a *Analyzer) checkDefinition(def ast.Definition) {
	switch d := def.(type) {
	case *ast.DefConst:
		a.checkConst(d)
	case *ast.DefFn:
		a.checkFunction(d)
	case *ast.DefTool:
		a.summaries[d.Name] = pipeline.DefSummary{Type: d.Signature(), Eff: callEffect(d.Eff)}
	}
}

func (a *Analyzer) checkConst(d *ast.DefConst) {
	a.summaries[d.Name] = pipeline.DefSummary{Type: d.Type, Eff: typesystem.EffPure}

	t, eff, err := a.check(d.Value, nil, d.Type)
	if err != nil {
		a.addError(err)
		return
	}
	if err := a.expect(d.Type, t, d, "constant "+d.Name); err != nil {
		a.addError(err)
		return
	}
	if eff != typesystem.EffPure && eff != typesystem.EffInfer {
		a.addError(newError(diagnostics.ErrT002, d, "EffectMismatch: Constant %s must be Pure: Inferred %s but declared %s", d.Name, eff, typesystem.EffPure))
	}
}

func (a *Analyzer) checkFunction(d *ast.DefFn) {
	sig := d.Signature()
	a.summaries[d.Name] = pipeline.DefSummary{Type: sig, Eff: d.Eff}

	var env *scope
	for _, arg := range d.Args {
		env = env.bind(arg.Name, arg.Type)
	}
	t, eff, err := a.check(d.Body, env, d.Ret)
	if err != nil {
		a.addError(err)
		return
	}
	if !a.types.Equal(d.Ret, t) {
		a.addError(newError(diagnostics.ErrT001, d, "Function %s return type mismatch: Expected %s, got %s", d.Name, d.Ret, t))
		return
	}

	if d.Eff == typesystem.EffInfer {
		sig.Eff = eff
		a.summaries[d.Name] = pipeline.DefSummary{Type: sig, Eff: eff}
		return
	}
	if !typesystem.Permits(d.Eff, eff) {
		a.addError(newError(diagnostics.ErrT002, d, "EffectMismatch: Function %s: Inferred %s but declared %s", d.Name, eff, d.Eff))
	}
}

// importedFunction returns the signature of alias.name with the module's
// type names qualified by alias.
func (a *Analyzer) importedFunction(alias, name string) (typesystem.TFn, bool) {
	key := alias + "." + name
	if sig, ok := a.imported[key]; ok {
		return sig, true
	}
	path, ok := a.program.ImportPath(alias)
	if !ok {
		return typesystem.TFn{}, false
	}
	mod, ok := a.resolve(path)
	if !ok {
		return typesystem.TFn{}, false
	}

	var sig typesystem.TFn
	switch d := mod.Lookup(name).(type) {
	case *ast.DefFn:
		sig = d.Signature()
	case *ast.DefTool:
		sig = d.Signature()
	default:
		return typesystem.TFn{}, false
	}
	sig = typesystem.Qualify(sig, alias, exportedTypes(mod)).(typesystem.TFn)
	a.imported[key] = sig
	return sig, true
}
