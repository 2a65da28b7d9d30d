package backend

import (
	"context"
	"fmt"

	"github.com/funvibe/iris/internal/evaluator"
	"github.com/funvibe/iris/internal/pipeline"
	"github.com/funvibe/iris/internal/process"
)

// TreeWalkBackend runs main with the tree-walking evaluator.
type TreeWalkBackend struct {
	// Context bounds the run; cancelling it stops blocked intrinsics.
	// Defaults to context.Background().
	Context context.Context

	// Options are passed to the evaluator. The resolver is taken from
	// the pipeline context when unset. Without a process manager the
	// backend makes one and waits for the processes main spawned; a
	// caller that passes its own manager waits on it.
	Options evaluator.Options
}

func NewTreeWalk(ctx context.Context, opts evaluator.Options) *TreeWalkBackend {
	return &TreeWalkBackend{Context: ctx, Options: opts}
}

func (b *TreeWalkBackend) Name() string { return "tree-walk" }

// Run executes the program using tree-walk interpretation
func (b *TreeWalkBackend) Run(ctx *pipeline.PipelineContext) (evaluator.Object, error) {
	if ctx.AstRoot == nil {
		return nil, fmt.Errorf("no AST to execute")
	}
	if len(ctx.Errors) > 0 {
		return nil, ctx.Errors[0]
	}

	opts := b.Options
	if opts.Resolver == nil {
		opts.Resolver = ctx.Resolver
	}
	runCtx := b.Context
	if runCtx == nil {
		runCtx = context.Background()
	}
	owned := opts.Processes == nil
	if owned {
		opts.Processes = process.NewManager()
	}
	res, err := evaluator.New(ctx.AstRoot, opts).RunMain(runCtx)
	if err != nil || !owned {
		return res, err
	}
	if err := opts.Processes.Wait(runCtx); err != nil {
		return nil, err
	}
	return res, nil
}
