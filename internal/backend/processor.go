package backend

import (
	"errors"
	"strconv"
	"strings"

	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/evaluator"
	"github.com/funvibe/iris/internal/pipeline"
	"github.com/funvibe/iris/internal/token"
)

// ExecutionProcessor runs a Backend as the last pipeline stage and keeps
// the value main returned.
type ExecutionProcessor struct {
	Backend Backend
	Result  evaluator.Object
}

func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.AstRoot == nil || ctx.Failed() {
		return ctx
	}

	result, err := p.Backend.Run(ctx)
	if err != nil {
		var evalErr *evaluator.Error
		if errors.As(err, &evalErr) {
			p.handleEvaluatorError(ctx, evalErr)
		} else {
			ctx.AddError(diagnostics.NewError(diagnostics.ErrR001, token.Token{}, err.Error()))
		}
		return ctx
	}
	p.Result = result
	return ctx
}

func (p *ExecutionProcessor) handleEvaluatorError(ctx *pipeline.PipelineContext, err *evaluator.Error) {
	tok := token.Token{Line: err.Line, Column: err.Column}
	msg := err.Message

	if len(err.StackTrace) > 0 {
		var sb strings.Builder
		sb.WriteString(msg)
		sb.WriteString("\nStack trace:")
		for i := len(err.StackTrace) - 1; i >= 0; i-- {
			frame := err.StackTrace[i]
			file := frame.File
			if file == "" {
				file = ctx.FilePath
			}
			sb.WriteString("\n  at " + frame.Name)
			if file != "" {
				sb.WriteString(" (" + file + ":" + strconv.Itoa(frame.Line) + ")")
			}
		}
		msg = sb.String()
	}

	ctx.AddError(diagnostics.NewError(diagnostics.ErrR001, tok, msg))
}
