package backend

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/funvibe/iris/internal/analyzer"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/evaluator"
	"github.com/funvibe/iris/internal/host"
	"github.com/funvibe/iris/internal/lexer"
	"github.com/funvibe/iris/internal/modules"
	"github.com/funvibe/iris/internal/parser"
	"github.com/funvibe/iris/internal/pipeline"
)

func runPipeline(t *testing.T, src string, libs modules.MapSource, opts evaluator.Options) (*pipeline.PipelineContext, *ExecutionProcessor) {
	t.Helper()
	ctx := pipeline.NewPipelineContext(src)
	ctx.FilePath = "main.iris"
	exec := NewExecutionProcessor(NewTreeWalk(context.Background(), opts))
	ctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&modules.LoaderProcessor{Loader: modules.NewLoader(libs)},
		&analyzer.SemanticAnalyzerProcessor{},
		exec,
	).Run(ctx)
	return ctx, exec
}

const mathLib = `
(program (module (name "mathlib") (version 1))
  (defs
    (deffn (name square) (args (x I64)) (ret I64) (eff !Pure) (body (* x x)))))`

func TestExecutionProcessorRunsMain(t *testing.T) {
	src := `
(program
  (imports (import "mathlib" (as "m")))
  (defs
    (deffn (name main) (args) (ret I64) (eff !IO)
      (body
        (let (w (io.write_file "n.txt" "7"))
          (m.square 12))))))`

	fs := host.NewMemoryFS(nil)
	ctx, exec := runPipeline(t, src, modules.MapSource{"mathlib": mathLib}, evaluator.Options{FS: fs})
	if ctx.Failed() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if got := evaluator.PrintValue(exec.Result); got != "144" {
		t.Errorf("result = %s, want 144", got)
	}
	if content, ok := fs.ReadFile("n.txt"); !ok || content != "7" {
		t.Errorf("n.txt = %q, %v", content, ok)
	}
	if got := ctx.Summaries["main"].Eff.String(); got != "!IO" {
		t.Errorf("main effect = %s, want !IO", got)
	}
}

func TestExecutionProcessorSkipsAfterTypeErrors(t *testing.T) {
	src := `(program (defs (deffn (name main) (args) (ret I64) (eff !Pure) (body (io.print "x")))))`
	var out bytes.Buffer
	ctx, exec := runPipeline(t, src, nil, evaluator.Options{Out: &out})
	if !ctx.Failed() || ctx.Errors[0].Family() != "TypeError" {
		t.Fatalf("expected a type error, got %v", ctx.Errors)
	}
	if exec.Result != nil || out.Len() != 0 {
		t.Errorf("main ran despite type errors: result %v, output %q", exec.Result, out.String())
	}
}

func TestRuntimeErrorsBecomeDiagnostics(t *testing.T) {
	src := `
(program
  (defs
    (deffn (name inner) (args (x I64)) (ret I64) (eff !Pure) (body (/ x 0)))
    (deffn (name main) (args) (ret I64) (eff !Pure) (body (+ 1 (inner 5))))))`

	ctx, _ := runPipeline(t, src, nil, evaluator.Options{})
	if len(ctx.Errors) != 1 {
		t.Fatalf("got %d errors, want 1: %v", len(ctx.Errors), ctx.Errors)
	}
	err := ctx.Errors[0]
	if err.Code != diagnostics.ErrR001 {
		t.Errorf("code = %s, want %s", err.Code, diagnostics.ErrR001)
	}
	if !strings.HasPrefix(err.Error(), "RuntimeError: Division by zero\nStack trace:\n  at inner") {
		t.Errorf("error = %q", err.Error())
	}
	if err.Token.Line != 4 {
		t.Errorf("line = %d, want 4", err.Token.Line)
	}
}

func TestMissingMainIsRuntimeError(t *testing.T) {
	ctx, _ := runPipeline(t, `(program (defs (defconst (name c) (type I64) (value 1))))`, nil, evaluator.Options{})
	if len(ctx.Errors) != 1 || ctx.Errors[0].Error() != "RuntimeError: No main function defined" {
		t.Errorf("errors = %v", ctx.Errors)
	}
}

func TestTreeWalkWaitsForSpawnedProcesses(t *testing.T) {
	src := `
(program
  (defs
    (deffn (name worker) (args) (ret I64) (eff !IO)
      (body (let (s (sys.sleep 10)) (io.print "late"))))
    (deffn (name main) (args) (ret I64) (eff !Net)
      (body (let (p (sys.spawn "worker")) 1)))))`

	var out bytes.Buffer
	ctx, exec := runPipeline(t, src, nil, evaluator.Options{Out: &out})
	if ctx.Failed() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if got := evaluator.PrintValue(exec.Result); got != "1" {
		t.Errorf("result = %s, want 1", got)
	}
	if out.String() != "late\n" {
		t.Errorf("output = %q, want the worker line", out.String())
	}
}

func TestNewHosts(t *testing.T) {
	tests := []struct {
		name   string
		fs     config.FSConfig
		wantFS string
	}{
		{"os", config.FSConfig{Driver: "os", Root: t.TempDir()}, "*host.OSFS"},
		{"memory", config.FSConfig{Driver: "memory"}, "*host.MemoryFS"},
		{"sqlite", config.FSConfig{Driver: "sqlite", DSN: ":memory:"}, "*host.SQLiteFS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.FS = tt.fs
			h, err := NewHosts(cfg, nil)
			if err != nil {
				t.Fatalf("NewHosts: %v", err)
			}
			defer h.Close()

			if got := typeName(h.FS); got != tt.wantFS {
				t.Errorf("FS = %s, want %s", got, tt.wantFS)
			}
			if err := h.FS.WriteFile("a.txt", "hi"); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if got, ok := h.FS.ReadFile("a.txt"); !ok || got != "hi" {
				t.Errorf("ReadFile = %q, %v", got, ok)
			}
			if h.Tools != nil {
				t.Error("tool host opened without bindings")
			}

			opts := h.Apply(evaluator.Options{HTTP: host.MockHTTP{}})
			if opts.FS != h.FS || opts.Net != h.Net {
				t.Error("Apply did not fill the unset hosts")
			}
			if _, ok := opts.HTTP.(host.MockHTTP); !ok {
				t.Error("Apply replaced an explicit HTTP client")
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *host.OSFS:
		return "*host.OSFS"
	case *host.MemoryFS:
		return "*host.MemoryFS"
	case *host.SQLiteFS:
		return "*host.SQLiteFS"
	}
	return "unknown"
}
