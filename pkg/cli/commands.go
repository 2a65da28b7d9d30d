package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/funvibe/iris/internal/analyzer"
	"github.com/funvibe/iris/internal/backend"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/evaluator"
	"github.com/funvibe/iris/internal/lexer"
	"github.com/funvibe/iris/internal/modules"
	"github.com/funvibe/iris/internal/parser"
	"github.com/funvibe/iris/internal/pipeline"
	"github.com/funvibe/iris/internal/prettyprinter"
	"github.com/funvibe/iris/internal/process"
)

type environment struct {
	stdout io.Writer
	stderr io.Writer
	debug  bool
}

// project is what one entry file runs with: its iris.yaml and a loader
// searching its directory and the configured module paths.
type project struct {
	file   string
	cfg    *config.Config
	loader *modules.Loader
	logger *slog.Logger
}

func (env *environment) openProject(file string) (*project, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", file, err)
	}
	dir := filepath.Dir(abs)

	cfg := config.Default()
	cfgPath, err := config.FindConfig(dir)
	if err != nil {
		return nil, err
	}
	if cfgPath != "" {
		if cfg, err = config.LoadConfig(cfgPath); err != nil {
			return nil, err
		}
	}

	logger := env.newLogger(cfg)
	if cfgPath != "" {
		logger.Debug("config loaded", "path", cfgPath)
	}
	roots := append([]string{dir}, cfg.ModulePaths...)
	return &project{
		file:   file,
		cfg:    cfg,
		loader: modules.NewLoader(modules.DirSource{Roots: roots}).WithLogger(logger),
		logger: logger,
	}, nil
}

// newLogger writes text logs to stderr at the configured level; --debug
// lowers it to Debug and routes the parser trace there as well.
func (env *environment) newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelWarn
	}
	if env.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(env.stderr, &slog.HandlerOptions{Level: level})).
		With("session", uuid.NewString())
	if env.debug {
		slog.SetDefault(logger)
	}
	return logger
}

func (env *environment) frontEnd(p *project) []pipeline.Processor {
	return []pipeline.Processor{
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{Debug: env.debug},
		&modules.LoaderProcessor{Loader: p.loader},
		&analyzer.SemanticAnalyzerProcessor{},
	}
}

func (p *project) newContext(src string) *pipeline.PipelineContext {
	ctx := pipeline.NewPipelineContext(src)
	ctx.FilePath = p.file
	ctx.Profile = p.cfg.Profile
	return ctx
}

// load reads the entry file and opens its project.
func (env *environment) load(file string) (*project, string, bool) {
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(env.stderr, "iris: %v\n", err)
		return nil, "", false
	}
	proj, err := env.openProject(file)
	if err != nil {
		fmt.Fprintf(env.stderr, "iris: %v\n", err)
		return nil, "", false
	}
	return proj, string(src), true
}

func (env *environment) handleRun(file string, args []string) int {
	proj, src, ok := env.load(file)
	if !ok {
		return 1
	}

	hosts, err := backend.NewHosts(proj.cfg, proj.logger)
	if err != nil {
		fmt.Fprintf(env.stderr, "iris: %v\n", err)
		return 1
	}
	defer hosts.Close()

	// spawned processes may still print after main returns
	out := &syncWriter{w: env.stdout}
	procs := process.NewManager()

	mode, _ := evaluator.ParseMode(proj.cfg.Mode)
	opts := hosts.Apply(evaluator.Options{
		Args:      args,
		Out:       out,
		Logger:    proj.logger,
		Mode:      mode,
		Processes: procs,
	})

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	exec := backend.NewExecutionProcessor(backend.NewTreeWalk(runCtx, opts))
	ctx := pipeline.New(append(env.frontEnd(proj), exec)...).Run(proj.newContext(src))
	if ctx.Failed() {
		env.printErrors(ctx.Errors)
		return 1
	}
	fmt.Fprintln(out, evaluator.PrintValue(exec.Result))

	if n := procs.Live(); n > 0 {
		proj.logger.Debug("waiting for processes", "live", n)
	}
	if err := procs.Wait(runCtx); err != nil {
		fmt.Fprintf(env.stderr, "iris: %v\n", err)
		return 1
	}
	return 0
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// handleCheck prints "name : Type !Effect" for every checked definition.
func (env *environment) handleCheck(file string) int {
	proj, src, ok := env.load(file)
	if !ok {
		return 1
	}

	ctx := pipeline.New(env.frontEnd(proj)...).Run(proj.newContext(src))
	if ctx.Failed() {
		env.printErrors(ctx.Errors)
		return 1
	}
	for _, def := range ctx.AstRoot.Defs {
		s, ok := ctx.Summaries[def.DefName()]
		if !ok {
			continue
		}
		fmt.Fprintf(env.stdout, "%s : %s %s\n", def.DefName(), s.Type, s.Eff)
	}
	return 0
}

func (env *environment) handleFmt(file string, write bool) int {
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(env.stderr, "iris: %v\n", err)
		return 1
	}
	out, err := prettyprinter.FormatSource(string(src))
	if err != nil {
		var d *diagnostics.DiagnosticError
		if errors.As(err, &d) {
			d.File = file
			env.printErrors([]*diagnostics.DiagnosticError{d})
		} else {
			fmt.Fprintf(env.stderr, "iris: %v\n", err)
		}
		return 1
	}
	if !write {
		fmt.Fprint(env.stdout, out)
		return 0
	}
	if err := os.WriteFile(file, []byte(out), 0o644); err != nil {
		fmt.Fprintf(env.stderr, "iris: %v\n", err)
		return 1
	}
	return 0
}

func (env *environment) printErrors(errs []*diagnostics.DiagnosticError) {
	color := false
	if f, ok := env.stderr.(*os.File); ok {
		color = diagnostics.IsTerminal(f)
	}
	diagnostics.Print(env.stderr, errs, color)
}
