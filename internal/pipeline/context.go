package pipeline

import (
	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/token"
	"github.com/funvibe/iris/internal/typesystem"
)

// DefSummary is the checked type and effect of one top-level definition.
type DefSummary struct {
	Type typesystem.Type
	Eff  typesystem.Effect
}

// PipelineContext carries the state shared between pipeline stages.
type PipelineContext struct {
	SourceCode  string
	FilePath    string
	TokenStream []token.Token
	AstRoot     *ast.Program

	// Resolver supplies imported modules to the checker and the backend.
	Resolver ast.ModuleResolver

	// Profile is the capability profile to enforce; empty disables it.
	Profile string

	// Summaries is filled by the analyzer, keyed by definition name.
	Summaries map[string]DefSummary

	Errors []*diagnostics.DiagnosticError
}

func NewPipelineContext(source string) *PipelineContext {
	return &PipelineContext{SourceCode: source}
}

// Failed reports whether any stage has recorded an error.
func (c *PipelineContext) Failed() bool {
	return len(c.Errors) > 0
}

// AddError records err, stamping it with the file being processed.
func (c *PipelineContext) AddError(err *diagnostics.DiagnosticError) {
	if err.File == "" {
		err.File = c.FilePath
	}
	c.Errors = append(c.Errors, err)
}
