package evaluator

import (
	"fmt"

	"github.com/funvibe/iris/internal/config"
)

// BuiltinFunction implements one intrinsic. Arguments are already
// evaluated and counted.
type BuiltinFunction func(e *Evaluator, args ...Object) Object

type Builtin struct {
	Fn   BuiltinFunction
	Name string
	// Arity is the exact argument count, or -1 for any count.
	Arity int
}

// Builtins maps every catalog intrinsic to its implementation.
var Builtins = map[string]*Builtin{}

func init() {
	for _, group := range []map[string]*Builtin{
		MathBuiltins(),
		StringBuiltins(),
		DataBuiltins(),
		IOBuiltins(),
		NetBuiltins(),
		HTTPBuiltins(),
		SysBuiltins(),
	} {
		for name, b := range group {
			Builtins[name] = b
		}
	}

	// Verify the runtime covers the checker's catalog
	for name := range config.Intrinsics {
		if _, ok := Builtins[name]; !ok {
			panic(fmt.Sprintf("intrinsic %q has no implementation", name))
		}
	}
}

// applyIntrinsic runs op. direct is set when op came from an intrinsic
// form rather than a call that fell through to the catalog.
func (e *Evaluator) applyIntrinsic(op string, args []Object, direct bool) Object {
	b, ok := Builtins[op]
	if !ok {
		if direct {
			return newError("Unknown intrinsic: %s", op)
		}
		return newError("Unknown function: %s", op)
	}
	if info, _ := config.LookupIntrinsic(op); info.Async && e.mode == ModeSync {
		return newError("Cannot call async intrinsic %s from synchronous evaluation path", op)
	}
	if b.Arity >= 0 && len(args) != b.Arity {
		return newError("%s expects %d argument(s), got %d", op, b.Arity, len(args))
	}
	return b.Fn(e, args...)
}
