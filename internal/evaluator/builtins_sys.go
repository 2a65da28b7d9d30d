package evaluator

import (
	"math"
	"math/big"
	"time"
)

// SysBuiltins returns the process intrinsics.
func SysBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"sys.self":  {Fn: builtinSelf, Name: "sys.self", Arity: 0},
		"sys.args":  {Fn: builtinArgs, Name: "sys.args", Arity: 0},
		"sys.spawn": {Fn: builtinSpawn, Name: "sys.spawn", Arity: 1},
		"sys.send":  {Fn: builtinSend, Name: "sys.send", Arity: 2},
		"sys.recv":  {Fn: builtinRecv, Name: "sys.recv", Arity: 0},
		"sys.sleep": {Fn: builtinSleep, Name: "sys.sleep", Arity: 1},
	}
}

func builtinSelf(e *Evaluator, args ...Object) Object {
	return NewInt(e.in.pid)
}

func builtinArgs(e *Evaluator, args ...Object) Object {
	items := make([]Object, len(e.in.opts.Args))
	for i, a := range e.in.opts.Args {
		items[i] = NewString(a)
	}
	return &List{Elements: items}
}

func builtinSpawn(e *Evaluator, args ...Object) Object {
	name, ok := args[0].(*String)
	if !ok {
		return newError("sys.spawn expects function name (Str)")
	}
	return NewInt(e.in.spawn(e.ctx, name.Value))
}

func builtinSend(e *Evaluator, args ...Object) Object {
	pid, ok := args[0].(*Integer)
	if !ok || !pid.Value.IsInt64() {
		return newError("sys.send expects PID (I64)")
	}
	msg, ok := args[1].(*String)
	if !ok {
		return newError("sys.send expects Msg (Str)")
	}
	return nativeBool(e.in.opts.Processes.Send(pid.Value.Int64(), msg.Value))
}

func builtinRecv(e *Evaluator, args ...Object) Object {
	msg, err := e.in.opts.Processes.Recv(e.ctx, e.in.pid)
	if err != nil {
		return newError("%s", err.Error())
	}
	return NewString(msg)
}

// maxSleepMs is the longest sleep a time.Duration can hold.
var maxSleepMs = big.NewInt(math.MaxInt64 / int64(time.Millisecond))

func builtinSleep(e *Evaluator, args ...Object) Object {
	ms, ok := args[0].(*Integer)
	if !ok {
		return newError("sys.sleep expects I64 ms")
	}
	if ms.Value.Sign() <= 0 {
		return TRUE
	}
	if ms.Value.Cmp(maxSleepMs) > 0 {
		return newError("sys.sleep duration too long: %s ms", ms.Value)
	}
	t := time.NewTimer(time.Duration(ms.Value.Int64()) * time.Millisecond)
	defer t.Stop()
	select {
	case <-t.C:
		return TRUE
	case <-e.ctx.Done():
		return newError("execution cancelled: %v", e.ctx.Err())
	}
}
