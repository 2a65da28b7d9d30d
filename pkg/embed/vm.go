// Package embed runs Iris programs inside a Go application. Deftools are
// served by Go functions registered with Bind, and values cross the
// boundary through a Marshaller.
package embed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/funvibe/iris/internal/analyzer"
	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/evaluator"
	"github.com/funvibe/iris/internal/host"
	"github.com/funvibe/iris/internal/lexer"
	"github.com/funvibe/iris/internal/modules"
	"github.com/funvibe/iris/internal/parser"
	"github.com/funvibe/iris/internal/pipeline"
	"github.com/funvibe/iris/internal/process"
	"github.com/funvibe/iris/internal/tools"
)

type (
	Object     = evaluator.Object
	FileSystem = evaluator.FileSystem
	Network    = evaluator.Network
	HTTPClient = evaluator.HTTPClient
	Diagnostic = diagnostics.DiagnosticError
)

// MemoryFS returns a file system held in memory, seeded with files.
func MemoryFS(files map[string]string) FileSystem { return host.NewMemoryFS(files) }

// OSFS returns a file system rooted at dir on disk.
func OSFS(dir string) FileSystem { return host.NewOSFS(dir) }

// Options configures a VM. Zero hosts are sandboxed: an empty in-memory
// file system and the mock network and HTTP client.
type Options struct {
	// Modules maps import paths to source. They are searched before
	// ModulePaths.
	Modules     map[string]string
	ModulePaths []string

	// Profile is the capability profile programs are checked against.
	Profile string

	FS   FileSystem
	Net  Network
	HTTP HTTPClient

	Args   []string
	Stdout io.Writer
	Logger *slog.Logger
}

// CheckError carries the diagnostics that kept a program from loading.
type CheckError struct {
	Diagnostics []*Diagnostic
}

func (e *CheckError) Error() string {
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.Location() + ": " + d.Error()
	}
	return strings.Join(lines, "\n")
}

// Program is a checked program.
type Program struct {
	AST       *ast.Program
	Summaries map[string]pipeline.DefSummary
	resolver  ast.ModuleResolver
}

// Signature renders the checked type and effect of a definition, such
// as "(Fn (I64) I64 !Pure) !Pure".
func (p *Program) Signature(name string) (string, bool) {
	s, ok := p.Summaries[name]
	if !ok {
		return "", false
	}
	return s.Type.String() + " " + s.Eff.String(), true
}

// VM loads Iris programs and runs them against Go hosts. A VM is not safe
// for concurrent use.
type VM struct {
	opts       Options
	marshaller *Marshaller
	tools      *tools.FuncTools

	program *Program
	interp  *evaluator.Interpreter
	procs   *process.Manager
}

func New(opts Options) *VM {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &VM{
		opts:       opts,
		marshaller: NewMarshaller(),
		tools:      tools.NewFuncTools(),
	}
}

// Marshaller returns the converter the VM uses for arguments and results.
func (v *VM) Marshaller() *Marshaller { return v.marshaller }

// Check parses src, loads its imports and type checks the result.
// Diagnostics come back as a *CheckError.
func (v *VM) Check(src string) (*Program, error) {
	return v.check(src, "", nil)
}

func (v *VM) check(src, file string, extraRoots []string) (*Program, error) {
	sources := []modules.Source{modules.MapSource(trimKeys(v.opts.Modules))}
	roots := append(append([]string(nil), extraRoots...), v.opts.ModulePaths...)
	if len(roots) > 0 {
		sources = append(sources, modules.DirSource{Roots: roots})
	}
	loader := modules.NewLoader(sources...).WithLogger(v.opts.Logger)

	ctx := pipeline.NewPipelineContext(src)
	ctx.FilePath = file
	ctx.Profile = v.opts.Profile
	ctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&modules.LoaderProcessor{Loader: loader},
		&analyzer.SemanticAnalyzerProcessor{},
	).Run(ctx)

	if ctx.Failed() {
		return nil, &CheckError{Diagnostics: ctx.Errors}
	}
	return &Program{AST: ctx.AstRoot, Summaries: ctx.Summaries, resolver: loader}, nil
}

// trimKeys accepts module keys with or without the source extension.
func trimKeys(mods map[string]string) map[string]string {
	out := make(map[string]string, len(mods))
	for k, src := range mods {
		out[config.TrimSourceExt(k)] = src
	}
	return out
}

// Load checks src and makes it the program Run and Call use.
func (v *VM) Load(src string) error {
	prog, err := v.Check(src)
	if err != nil {
		return err
	}
	v.install(prog)
	return nil
}

// LoadFile loads a program from disk. Its directory is searched for
// imports ahead of ModulePaths.
func (v *VM) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	prog, err := v.check(string(data), path, []string{filepath.Dir(path)})
	if err != nil {
		return err
	}
	v.install(prog)
	return nil
}

func (v *VM) install(prog *Program) {
	v.program = prog
	v.procs = process.NewManager()
	v.interp = evaluator.New(prog.AST, evaluator.Options{
		FS:        v.opts.FS,
		Net:       v.opts.Net,
		HTTP:      v.opts.HTTP,
		Tools:     v.tools,
		Resolver:  prog.resolver,
		Processes: v.procs,
		Args:      v.opts.Args,
		Out:       v.opts.Stdout,
		Logger:    v.opts.Logger,
	})
}

// Program returns the loaded program, or nil.
func (v *VM) Program() *Program { return v.program }

// Run loads src and runs its main function, returning the result as a Go
// value. It returns once every process main spawned has finished.
func (v *VM) Run(ctx context.Context, src string) (any, error) {
	if err := v.Load(src); err != nil {
		return nil, err
	}
	res, err := v.interp.RunMain(ctx)
	if err != nil {
		return nil, err
	}
	if err := v.procs.Wait(ctx); err != nil {
		return nil, err
	}
	return v.marshaller.FromValue(res, nil)
}

// Call invokes a function of the loaded program. Constants the program
// has already evaluated are reused across calls.
func (v *VM) Call(ctx context.Context, funcName string, args ...any) (any, error) {
	if v.interp == nil {
		return nil, errors.New("no program loaded")
	}
	objs, err := v.toValues(args)
	if err != nil {
		return nil, err
	}
	res, err := v.interp.CallFunction(ctx, funcName, objs)
	if err != nil {
		return nil, err
	}
	return v.marshaller.FromValue(res, nil)
}

// Apply calls a lambda that an earlier Run or Call returned.
func (v *VM) Apply(ctx context.Context, fn Object, args ...any) (any, error) {
	if v.interp == nil {
		return nil, errors.New("no program loaded")
	}
	objs, err := v.toValues(args)
	if err != nil {
		return nil, err
	}
	res, err := v.interp.Apply(ctx, fn, objs)
	if err != nil {
		return nil, err
	}
	return v.marshaller.FromValue(res, nil)
}

func (v *VM) toValues(args []any) ([]evaluator.Object, error) {
	objs := make([]evaluator.Object, len(args))
	for i, arg := range args {
		obj, err := v.marshaller.ToValue(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		objs[i] = obj
	}
	return objs, nil
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Bind serves the deftool called name with fn. fn may take a
// context.Context first; its other parameters receive the tool's
// arguments. It returns at most one value, optionally followed by an
// error, which fails the tool call.
func (v *VM) Bind(name string, fn any) error {
	f, err := v.hostFunc(fn)
	if err != nil {
		return fmt.Errorf("binding %s: %w", name, err)
	}
	v.tools.Register(name, f)
	return nil
}

// Tools lists the bound tool names.
func (v *VM) Tools() []string { return v.tools.Tools() }

func (v *VM) hostFunc(fn any) (tools.Func, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %T", fn)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, errors.New("variadic functions are not supported")
	}

	withCtx := ft.NumIn() > 0 && ft.In(0) == contextType
	var params []reflect.Type
	for i := 0; i < ft.NumIn(); i++ {
		if i == 0 && withCtx {
			continue
		}
		params = append(params, ft.In(i))
	}

	switch {
	case ft.NumOut() > 2:
		return nil, errors.New("too many results")
	case ft.NumOut() == 2 && ft.Out(1) != errorType:
		return nil, errors.New("second result must be an error")
	}

	return func(ctx context.Context, args []evaluator.Object) (evaluator.Object, error) {
		if len(args) != len(params) {
			return nil, fmt.Errorf("expected %d arguments, got %d", len(params), len(args))
		}
		in := make([]reflect.Value, 0, ft.NumIn())
		if withCtx {
			in = append(in, reflect.ValueOf(ctx))
		}
		for i, arg := range args {
			val, err := v.marshaller.convert(arg, params[i])
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i+1, err)
			}
			in = append(in, val)
		}
		return v.results(fv.Call(in), ft)
	}, nil
}

func (v *VM) results(out []reflect.Value, ft reflect.Type) (evaluator.Object, error) {
	if n := len(out); n > 0 && ft.Out(n-1) == errorType {
		if err, _ := out[n-1].Interface().(error); err != nil {
			return nil, err
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return evaluator.Unit, nil
	}
	return v.marshaller.ToValue(out[0].Interface())
}
