package parser

import (
	"github.com/funvibe/iris/internal/pipeline"
)

type ParserProcessor struct {
	Debug bool
}

// Process parses ctx.TokenStream into ctx.AstRoot. It does nothing once
// an earlier stage has failed.
func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() || ctx.TokenStream == nil {
		return ctx
	}

	parser := New(ctx.TokenStream)
	parser.Debug = pp.Debug
	prog, err := parser.ParseProgram()
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	prog.File = ctx.FilePath
	ctx.AstRoot = prog
	return ctx
}
