package evaluator

import (
	"context"
	"strconv"
	"strings"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
)

// maxEvalDepth bounds non-tail recursion. Tail calls do not count.
const maxEvalDepth = 10000

// Mode selects how blocking intrinsics behave.
type Mode int

const (
	// ModeAuto picks Sync or Async from the declared effect of main.
	ModeAuto Mode = iota
	// ModeSync never blocks; async intrinsics fail.
	ModeSync
	// ModeAsync lets net.*, http.get/post, sys.recv and sys.sleep block
	// the calling goroutine.
	ModeAsync
)

func (m Mode) String() string {
	switch m {
	case ModeSync:
		return "sync"
	case ModeAsync:
		return "async"
	}
	return "auto"
}

// ParseMode reads the mode names used in iris.yaml.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "auto":
		return ModeAuto, true
	case "sync":
		return ModeSync, true
	case "async":
		return ModeAsync, true
	}
	return ModeAuto, false
}

// Evaluator runs one top-level invocation. It is not safe for concurrent
// use; spawned processes get their own.
type Evaluator struct {
	ctx  context.Context
	mode Mode
	// in owns the code currently running; cross-module calls switch it.
	in    *Interpreter
	depth int

	// CallStack holds one frame per active non-tail call.
	CallStack []StackFrame
}

func newEvaluator(ctx context.Context, mode Mode, in *Interpreter) *Evaluator {
	if mode == ModeAuto {
		mode = ModeAsync
	}
	return &Evaluator{ctx: ctx, mode: mode, in: in}
}

// Mode returns the mode this evaluator runs in.
func (e *Evaluator) Mode() Mode { return e.mode }

// Eval evaluates node in env. Tail positions loop instead of recursing, so
// a self tail call runs in constant Go stack.
func (e *Evaluator) Eval(node ast.Expression, env *Environment) (result Object) {
	e.depth++
	if e.depth > maxEvalDepth {
		e.depth--
		return newError("maximum recursion depth exceeded")
	}

	savedIn := e.in
	baseStack := len(e.CallStack)
	defer func() {
		if err, ok := result.(*Error); ok {
			if err.Line == 0 && node != nil {
				tok := node.GetToken()
				err.Line, err.Column = tok.Line, tok.Column
			}
			if err.StackTrace == nil && len(e.CallStack) > 0 {
				err.StackTrace = append([]StackFrame(nil), e.CallStack...)
			}
		}
		e.in = savedIn
		e.CallStack = e.CallStack[:baseStack]
		e.depth--
	}()

	for {
		if err := e.ctx.Err(); err != nil {
			return newError("execution cancelled: %v", err)
		}

		switch n := node.(type) {
		case *ast.Literal:
			return evalLiteral(n)

		case *ast.Var:
			return e.evalVar(n, env)

		case *ast.Let:
			val := e.Eval(n.Value, env)
			if isError(val) {
				return val
			}
			env = env.Bind(n.Name, val)
			node = n.Body

		case *ast.If:
			cond := e.Eval(n.Cond, env)
			if isError(cond) {
				return cond
			}
			b, ok := cond.(*Boolean)
			if !ok {
				return newError("If condition must be Bool, got %s", cond.Type())
			}
			if b.Value {
				node = n.Then
			} else {
				node = n.Else
			}

		case *ast.Match:
			target := e.Eval(n.Target, env)
			if isError(target) {
				return target
			}
			body, caseEnv, err := matchCase(n, target, env)
			if err != nil {
				return err
			}
			node, env = body, caseEnv

		case *ast.Call:
			args, err := e.evalArgs(n.Args, env)
			if err != nil {
				return err
			}
			tail := e.resolveCall(n, args, env)
			if tail.result != nil {
				return tail.result
			}
			e.enterFrame(baseStack, tail.name, n)
			e.in = tail.owner
			node, env = tail.body, tail.env

		case *ast.Record:
			fields := make(map[string]Object, len(n.Fields))
			for _, f := range n.Fields {
				val := e.Eval(f.Value, env)
				if isError(val) {
					return val
				}
				fields[f.Key] = val
			}
			return &Record{Fields: fields}

		case *ast.Tuple:
			items, err := e.evalArgs(n.Items, env)
			if err != nil {
				return err
			}
			return &Tuple{Elements: items}

		case *ast.List:
			items, err := e.evalArgs(n.Items, env)
			if err != nil {
				return err
			}
			return &List{Elements: items}

		case *ast.Tagged:
			val := e.Eval(n.Value, env)
			if isError(val) {
				return val
			}
			return &Tagged{Tag: n.Tag, Value: val}

		case *ast.Intrinsic:
			args, err := e.evalArgs(n.Args, env)
			if err != nil {
				return err
			}
			return e.applyIntrinsic(n.Op, args, true)

		case *ast.Lambda:
			return &Lambda{Args: n.Args, Ret: n.Ret, Eff: n.Eff, Body: n.Body, Env: env, Owner: e.in}

		case nil:
			return newError("cannot evaluate an empty expression")

		default:
			return newError("unknown expression type: %T", node)
		}
	}
}

// enterFrame records a call made from the Eval invocation whose stack base
// is base. A tail call replaces the frame of the call it leaves.
func (e *Evaluator) enterFrame(base int, name string, call *ast.Call) {
	tok := call.GetToken()
	frame := StackFrame{Name: name, File: e.in.Program.File, Line: tok.Line, Column: tok.Column}
	if len(e.CallStack) > base {
		e.CallStack[len(e.CallStack)-1] = frame
		return
	}
	e.CallStack = append(e.CallStack, frame)
}

func (e *Evaluator) evalArgs(exprs []ast.Expression, env *Environment) ([]Object, Object) {
	out := make([]Object, 0, len(exprs))
	for _, ex := range exprs {
		val := e.Eval(ex, env)
		if isError(val) {
			return nil, val
		}
		out = append(out, val)
	}
	return out, nil
}

func evalLiteral(n *ast.Literal) Object {
	switch n.Kind {
	case ast.LitI64:
		return &Integer{Value: n.Int}
	case ast.LitBool:
		return nativeBool(n.Bool)
	case ast.LitStr:
		return NewString(n.Str)
	case ast.LitNone:
		return NONE
	case ast.LitNil:
		return &List{}
	}
	return newError("unknown literal kind %d", n.Kind)
}

func (e *Evaluator) evalVar(n *ast.Var, env *Environment) Object {
	if val, ok := env.Get(n.Name); ok {
		return val
	}
	if val, ok := e.in.constant(e, n.Name); ok {
		return val
	}

	if !strings.Contains(n.Name, ".") {
		return newError("Unknown variable: %s", n.Name)
	}
	parts := strings.Split(n.Name, ".")
	cur, ok := env.Get(parts[0])
	if !ok {
		cur, ok = e.in.constant(e, parts[0])
	}
	if !ok {
		return newError("Unknown variable: %s", n.Name)
	}
	for _, part := range parts[1:] {
		if isError(cur) {
			return cur
		}
		cur = project(cur, part)
	}
	return cur
}

// project reads one dotted step: a record field or a tuple index.
func project(v Object, part string) Object {
	switch v := v.(type) {
	case *Record:
		field, ok := v.Fields[part]
		if !ok {
			return newError("Unknown field %s", part)
		}
		return field
	case *Tuple:
		idx, err := strconv.Atoi(part)
		if err != nil {
			return newError("Tuple index must be number, got %s", part)
		}
		if idx < 0 || idx >= len(v.Elements) {
			return newError("Tuple index out of bounds: %d", idx)
		}
		return v.Elements[idx]
	}
	return newError("Cannot access field %s of %s", part, v.Type())
}

// tailCall is what resolveCall hands back to the trampoline: either a
// finished result or a body to continue with.
type tailCall struct {
	result Object

	name  string
	owner *Interpreter
	body  ast.Expression
	env   *Environment
}

func (e *Evaluator) resolveCall(n *ast.Call, args []Object, env *Environment) tailCall {
	if val, ok := env.Get(n.Fn); ok {
		if fn, ok := val.(*Lambda); ok {
			return e.callLambda(n.Fn, fn, args)
		}
	}

	if def, ok := e.in.functions[n.Fn]; ok {
		return e.callDef(e.in, n.Fn, def, args)
	}

	if alias, fname, ok := strings.Cut(n.Fn, "."); ok {
		if sub, ok := e.in.importedModule(alias); ok {
			def, ok := sub.functions[fname]
			if !ok {
				return tailCall{result: newError("Unknown function: %s", n.Fn)}
			}
			return e.callDef(sub, n.Fn, def, args)
		}
	}

	if _, ok := config.LookupIntrinsic(n.Fn); ok {
		return tailCall{result: e.applyIntrinsic(n.Fn, args, false)}
	}
	return tailCall{result: newError("Unknown function: %s", n.Fn)}
}

func (e *Evaluator) callLambda(name string, fn *Lambda, args []Object) tailCall {
	if len(args) != len(fn.Args) {
		return tailCall{result: newError("Arity mismatch for %s: expected %d args, got %d", name, len(fn.Args), len(args))}
	}
	env := fn.Env
	for i, a := range fn.Args {
		env = env.Bind(a.Name, args[i])
	}
	return tailCall{name: name, owner: fn.Owner, body: fn.Body, env: env}
}

func (e *Evaluator) callDef(owner *Interpreter, name string, def ast.Definition, args []Object) tailCall {
	switch def := def.(type) {
	case *ast.DefTool:
		return tailCall{result: owner.callTool(e.ctx, def.Name, args)}
	case *ast.DefFn:
		if len(args) != len(def.Args) {
			return tailCall{result: newError("Arity mismatch for %s: expected %d args, got %d", name, len(def.Args), len(args))}
		}
		var env *Environment
		for i, a := range def.Args {
			env = env.Bind(a.Name, args[i])
		}
		return tailCall{name: name, owner: owner, body: def.Body, env: env}
	}
	return tailCall{result: newError("%s is not callable", name)}
}

// Apply calls a function value or a named function of the current
// interpreter with already evaluated arguments.
func (e *Evaluator) Apply(fn Object, args []Object) Object {
	var tail tailCall
	switch fn := fn.(type) {
	case *Lambda:
		tail = e.callLambda("lambda", fn, args)
	case *String:
		def, ok := e.in.functions[fn.Value]
		if !ok {
			return newError("Unknown function: %s", fn.Value)
		}
		tail = e.callDef(e.in, fn.Value, def, args)
	default:
		return newError("%s is not callable", fn.Type())
	}
	if tail.result != nil {
		return tail.result
	}

	saved := e.in
	e.in = tail.owner
	e.CallStack = append(e.CallStack, StackFrame{Name: tail.name, File: tail.owner.Program.File})
	res := e.Eval(tail.body, tail.env)
	e.CallStack = e.CallStack[:len(e.CallStack)-1]
	e.in = saved
	return res
}
