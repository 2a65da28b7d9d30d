package modules

import (
	"path/filepath"

	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/pipeline"
)

// LoaderProcessor loads the import graph of ctx.AstRoot and installs the
// loader as ctx.Resolver for the later stages.
type LoaderProcessor struct {
	Loader *Loader
	// Entry is the import path of the entry program. Defaults to
	// EntryPath(ctx.FilePath).
	Entry string
}

func (lp *LoaderProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() || ctx.AstRoot == nil {
		return ctx
	}

	ctx.Resolver = lp.Loader
	entry := lp.Entry
	if entry == "" {
		entry = EntryPath(ctx.FilePath)
	}
	for _, err := range lp.Loader.LoadAll(entry, ctx.AstRoot) {
		ctx.AddError(err)
	}
	return ctx
}

// EntryPath is the import path a file would be known by from its own
// directory: its base name without the extension.
func EntryPath(file string) string {
	if file == "" {
		return config.MainFuncName
	}
	return config.TrimSourceExt(filepath.Base(file))
}
