// Package analyzer is the static type and effect checker. It walks every
// definition of a program once, computes the (type, effect) of each
// expression with the expected type flowing down, and reports mismatches
// as diagnostics.
package analyzer

import (
	"fmt"
	"sort"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/pipeline"
	"github.com/funvibe/iris/internal/typesystem"
)

// Analyzer checks one program. It is not safe for concurrent use.
type Analyzer struct {
	program  *ast.Program
	resolver ast.ModuleResolver
	profile  string

	types     *typesystem.Table
	functions map[string]typesystem.TFn // declared signatures, Infer kept
	constants map[string]typesystem.Type
	imported  map[string]typesystem.TFn // "alias.f" with qualified types

	summaries map[string]pipeline.DefSummary
	prepared  bool
	errorSet  map[string]bool
	errors    []*diagnostics.DiagnosticError
}

// New creates an Analyzer for prog. resolver may be nil when the program
// has no imports.
func New(prog *ast.Program, resolver ast.ModuleResolver) *Analyzer {
	return &Analyzer{
		program:   prog,
		resolver:  resolver,
		types:     typesystem.NewTable(),
		functions: make(map[string]typesystem.TFn),
		constants: make(map[string]typesystem.Type),
		imported:  make(map[string]typesystem.TFn),
		summaries: make(map[string]pipeline.DefSummary),
	}
}

// SetProfile enables capability checking against the named profile.
func (a *Analyzer) SetProfile(profile string) {
	a.profile = profile
}

// Analyze checks every definition and returns the collected errors. Each
// definition reports at most its first type error; checking continues
// with the next definition.
func (a *Analyzer) Analyze() []*diagnostics.DiagnosticError {
	a.prepare()
	for _, def := range a.program.Defs {
		a.checkDefinition(def)
	}
	if a.profile != "" {
		a.checkCapabilities()
	}
	return a.errors
}

// prepare loads imported types and collects the signatures once.
func (a *Analyzer) prepare() {
	if a.prepared {
		return
	}
	a.prepared = true
	a.loadImportedTypes()
	a.collect()
}

// Summaries returns the checked type and effect of every constant,
// function and tool. A function declared with an inferred effect reports
// the effect of its body.
func (a *Analyzer) Summaries() map[string]pipeline.DefSummary {
	return a.summaries
}

// Types exposes the type table, including imported "alias.Name" entries.
func (a *Analyzer) Types() *typesystem.Table {
	return a.types
}

// addError records err once per position and code.
func (a *Analyzer) addError(err *diagnostics.DiagnosticError) {
	if err.File == "" {
		err.File = a.program.File
	}
	key := fmt.Sprintf("%d:%d:%s:%s", err.Token.Line, err.Token.Column, err.Code, err.Message)
	if a.errorSet == nil {
		a.errorSet = make(map[string]bool)
	}
	if a.errorSet[key] {
		return
	}
	a.errorSet[key] = true
	a.errors = append(a.errors, err)
}

// SortedErrors returns the errors ordered by position.
func SortedErrors(errs []*diagnostics.DiagnosticError) []*diagnostics.DiagnosticError {
	out := append([]*diagnostics.DiagnosticError(nil), errs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Token.Line != out[j].Token.Line {
			return out[i].Token.Line < out[j].Token.Line
		}
		return out[i].Token.Column < out[j].Token.Column
	})
	return out
}

func newError(code diagnostics.ErrorCode, node ast.Node, format string, args ...interface{}) *diagnostics.DiagnosticError {
	return diagnostics.NewError(code, node.GetToken(), fmt.Sprintf(format, args...))
}

// expect reports a T001 mismatch unless got equals want.
func (a *Analyzer) expect(want, got typesystem.Type, node ast.Node, context string) *diagnostics.DiagnosticError {
	if a.types.Equal(want, got) {
		return nil
	}
	return newError(diagnostics.ErrT001, node, "Type mismatch in %s: Expected %s, got %s", context, want, got)
}

// scope is the persistent type environment of local bindings.
type scope struct {
	name   string
	typ    typesystem.Type
	parent *scope
}

func (s *scope) bind(name string, t typesystem.Type) *scope {
	return &scope{name: name, typ: t, parent: s}
}

func (s *scope) lookup(name string) (typesystem.Type, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.typ, true
		}
	}
	return nil, false
}

// callEffect is the effect a call site pays for a callee declared with
// eff. An inferred callee is not known yet and counts as Any.
func callEffect(eff typesystem.Effect) typesystem.Effect {
	if eff == typesystem.EffInfer {
		return typesystem.EffAny
	}
	return eff
}
