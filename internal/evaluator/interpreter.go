package evaluator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/host"
	"github.com/funvibe/iris/internal/process"
	"github.com/funvibe/iris/internal/typesystem"
)

// Options configures an Interpreter. Zero fields get mock hosts, a fresh
// process manager and a fresh module cache.
type Options struct {
	FS        FileSystem
	Net       Network
	HTTP      HTTPClient
	Tools     ToolHost
	Resolver  ast.ModuleResolver
	Processes *process.Manager
	Cache     *ModuleCache

	// Args are returned by sys.args.
	Args []string
	// Out receives io.print output. Defaults to os.Stdout.
	Out io.Writer
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Mode overrides the mode RunMain derives from main's effect.
	Mode Mode
}

func (o *Options) setDefaults() {
	if o.FS == nil {
		o.FS = host.NewMemoryFS(nil)
	}
	if o.Net == nil {
		o.Net = host.MockNetwork{}
	}
	if o.HTTP == nil {
		o.HTTP = host.MockHTTP{}
	}
	if o.Processes == nil {
		o.Processes = process.NewManager()
	}
	if o.Cache == nil {
		o.Cache = NewModuleCache()
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

type constState int

const (
	constPending constState = iota
	constInitializing
	constDone
)

type constSlot struct {
	def   *ast.DefConst
	state constState
	value Object
}

// Interpreter holds the runtime state of one Program: its function table,
// its memoized constants and its pid. It is not safe for concurrent use;
// every spawned process runs its own Interpreter.
type Interpreter struct {
	Program *ast.Program

	opts      Options
	pid       int64
	functions map[string]ast.Definition
	consts    map[string]*constSlot
	outMu     *sync.Mutex

	// constInits counts constant evaluations, for tests.
	constInits int
}

// New builds the root Interpreter of a call tree.
func New(prog *ast.Program, opts Options) *Interpreter {
	opts.setDefaults()
	return newInterpreter(prog, opts, &sync.Mutex{})
}

func newInterpreter(prog *ast.Program, opts Options, outMu *sync.Mutex) *Interpreter {
	in := &Interpreter{
		Program:   prog,
		opts:      opts,
		functions: make(map[string]ast.Definition),
		consts:    make(map[string]*constSlot),
		outMu:     outMu,
	}
	in.pid = opts.Processes.NextPid()
	opts.Processes.Register(in.pid)

	for _, def := range prog.Defs {
		switch d := def.(type) {
		case *ast.DefFn, *ast.DefTool:
			in.functions[d.DefName()] = d
		case *ast.DefConst:
			in.consts[d.Name] = &constSlot{def: d}
		}
	}
	return in
}

// Pid is the process id of this interpreter.
func (in *Interpreter) Pid() int64 { return in.pid }

// Processes returns the manager shared by the call tree.
func (in *Interpreter) Processes() *process.Manager { return in.opts.Processes }

// Cache returns the module cache shared by the call tree.
func (in *Interpreter) Cache() *ModuleCache { return in.opts.Cache }

// RunMain runs the zero-argument main function. Main declared !Pure or
// !IO runs synchronously unless Options.Mode says otherwise.
func (in *Interpreter) RunMain(ctx context.Context) (Object, error) {
	def, ok := in.functions[config.MainFuncName]
	if !ok {
		return nil, fmt.Errorf("No main function defined")
	}
	main, ok := def.(*ast.DefFn)
	if !ok {
		return nil, fmt.Errorf("Main must be a function")
	}

	mode := in.opts.Mode
	if mode == ModeAuto {
		mode = ModeAsync
		if main.Eff == typesystem.EffPure || main.Eff == typesystem.EffIO {
			mode = ModeSync
		}
	}

	runID := uuid.NewString()
	log := in.opts.Logger.With("run", runID, "pid", in.pid)
	log.Debug("run main", "mode", mode.String(), "module", in.Program.Module.Name)

	res, err := in.invoke(newEvaluator(ctx, mode, in), config.MainFuncName, nil)
	if err != nil {
		log.Debug("main failed", "error", err)
	}
	return res, err
}

// CallFunction invokes a function of this program in Async mode.
func (in *Interpreter) CallFunction(ctx context.Context, name string, args []Object) (Object, error) {
	return in.invoke(newEvaluator(ctx, ModeAsync, in), name, args)
}

// CallFunctionSync invokes a function of this program in Sync mode.
func (in *Interpreter) CallFunctionSync(ctx context.Context, name string, args []Object) (Object, error) {
	return in.invoke(newEvaluator(ctx, ModeSync, in), name, args)
}

// Apply calls a function value, such as a lambda returned by an earlier
// call, in Async mode. A Str names a function of this program.
func (in *Interpreter) Apply(ctx context.Context, fn Object, args []Object) (Object, error) {
	return toResult(newEvaluator(ctx, ModeAsync, in).Apply(fn, args))
}

// EvalExpr evaluates a standalone expression against this program's
// functions and constants.
func (in *Interpreter) EvalExpr(ctx context.Context, expr ast.Expression, mode Mode) (Object, error) {
	return toResult(newEvaluator(ctx, mode, in).Eval(expr, nil))
}

func (in *Interpreter) invoke(e *Evaluator, name string, args []Object) (Object, error) {
	def, ok := in.functions[name]
	if !ok {
		return nil, fmt.Errorf("Unknown function: %s", name)
	}
	tail := e.callDef(in, name, def, args)
	if tail.result != nil {
		return toResult(tail.result)
	}
	e.CallStack = append(e.CallStack, StackFrame{Name: name, File: in.Program.File})
	return toResult(e.Eval(tail.body, tail.env))
}

func toResult(obj Object) (Object, error) {
	if err, ok := obj.(*Error); ok {
		return nil, err
	}
	return obj, nil
}

// constant returns the value of a top-level constant, evaluating it on
// first use.
func (in *Interpreter) constant(e *Evaluator, name string) (Object, bool) {
	slot, ok := in.consts[name]
	if !ok {
		return nil, false
	}
	switch slot.state {
	case constDone:
		return slot.value, true
	case constInitializing:
		return newError("Circular constant definition: %s", name), true
	}

	slot.state = constInitializing
	in.constInits++
	saved := e.in
	e.in = in
	val := e.Eval(slot.def.Value, nil)
	e.in = saved

	if isError(val) {
		slot.state = constPending
		return val, true
	}
	slot.value, slot.state = val, constDone
	return val, true
}

// importedModule returns the interpreter of the module bound to alias,
// creating and caching it on first use.
func (in *Interpreter) importedModule(alias string) (*Interpreter, bool) {
	path, ok := in.Program.ImportPath(alias)
	if !ok {
		return nil, false
	}
	return in.opts.Cache.GetOrCreate(path, func() (*Interpreter, bool) {
		if in.opts.Resolver == nil {
			return nil, false
		}
		prog, ok := in.opts.Resolver.Resolve(path)
		if !ok {
			in.opts.Logger.Debug("module not resolved", "path", path, "from", in.Program.Module.Name)
			return nil, false
		}
		return newInterpreter(prog, in.opts, in.outMu), true
	})
}

func (in *Interpreter) callTool(ctx context.Context, name string, args []Object) Object {
	if in.opts.Tools == nil {
		return newError("Tool not implemented: %s", name)
	}
	in.opts.Logger.Debug("tool call", "tool", name, "args", len(args))
	res, err := in.opts.Tools.CallTool(ctx, name, args)
	if err != nil {
		return newError("Tool %s failed: %v", name, err)
	}
	if res == nil {
		return newError("Tool %s returned no value", name)
	}
	return res
}

// spawn starts fn as a tracked process inside a detached interpreter with
// its own pid and module cache. Failures are only logged.
func (in *Interpreter) spawn(ctx context.Context, fn string) int64 {
	opts := in.opts
	opts.Cache = NewModuleCache()
	child := newInterpreter(in.Program, opts, in.outMu)

	procID := uuid.NewString()
	log := in.opts.Logger.With("proc", procID, "pid", child.pid, "parent", in.pid)

	in.opts.Processes.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("process panicked", "panic", r, "stack", string(debug.Stack()))
			}
		}()
		log.Debug("process started", "fn", fn)
		if _, err := child.CallFunction(ctx, fn, nil); err != nil {
			log.Error("process crashed", "fn", fn, "error", err)
			return
		}
		log.Debug("process finished", "fn", fn)
	})
	return child.pid
}

func (in *Interpreter) print(s string) {
	in.outMu.Lock()
	defer in.outMu.Unlock()
	fmt.Fprintln(in.opts.Out, s)
}

// ModuleCache holds at most one Interpreter per module path for a call
// tree. Entries are never removed.
type ModuleCache struct {
	mu      sync.Mutex
	interps map[string]*Interpreter
}

func NewModuleCache() *ModuleCache {
	return &ModuleCache{interps: make(map[string]*Interpreter)}
}

func (c *ModuleCache) Get(path string) (*Interpreter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	in, ok := c.interps[path]
	return in, ok
}

// GetOrCreate returns the cached interpreter for path, calling create on
// a miss. A failed create caches nothing.
func (c *ModuleCache) GetOrCreate(path string, create func() (*Interpreter, bool)) (*Interpreter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if in, ok := c.interps[path]; ok {
		return in, true
	}
	in, ok := create()
	if !ok {
		return nil, false
	}
	c.interps[path] = in
	return in, true
}

func (c *ModuleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.interps)
}
