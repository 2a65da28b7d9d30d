// Package backend runs checked programs and builds the hosts they run
// against.
package backend

import (
	"github.com/funvibe/iris/internal/evaluator"
	"github.com/funvibe/iris/internal/pipeline"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run executes the main function of ctx.AstRoot and returns its value
	Run(ctx *pipeline.PipelineContext) (evaluator.Object, error)

	// Name returns the backend name for display
	Name() string
}
