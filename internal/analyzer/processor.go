package analyzer

import (
	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/pipeline"
)

// programLister is implemented by resolvers that know every module they
// loaded, such as modules.Loader.
type programLister interface {
	Programs() []*ast.Program
}

type SemanticAnalyzerProcessor struct{}

// Process checks ctx.AstRoot and every module the resolver loaded, and
// exports the summaries of the entry program. It does nothing when an
// earlier stage failed.
func (sap *SemanticAnalyzerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() || ctx.AstRoot == nil {
		return ctx
	}

	analyzer := New(ctx.AstRoot, ctx.Resolver)
	if ctx.Profile != "" {
		analyzer.SetProfile(ctx.Profile)
	}
	errors := analyzer.Analyze()
	ctx.Summaries = analyzer.Summaries()

	for _, err := range SortedErrors(errors) {
		ctx.AddError(err)
	}

	// Imported modules are checked without a profile; capabilities are
	// enforced where the entry program calls into them.
	if lister, ok := ctx.Resolver.(programLister); ok {
		for _, prog := range lister.Programs() {
			for _, err := range SortedErrors(New(prog, ctx.Resolver).Analyze()) {
				ctx.AddError(err)
			}
		}
	}
	return ctx
}
