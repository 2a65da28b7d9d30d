package evaluator

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
)

// MathBuiltins returns arithmetic, comparison, logic and the Option and
// Result constructors.
func MathBuiltins() map[string]*Builtin {
	m := map[string]*Builtin{
		"=":               {Fn: builtinEquals, Name: "=", Arity: 2},
		"&&":              {Fn: builtinAnd, Name: "&&", Arity: 2},
		"||":              {Fn: builtinOr, Name: "||", Arity: 2},
		"!":               {Fn: builtinNot, Name: "!", Arity: 1},
		"i64.from_string": {Fn: builtinI64FromString, Name: "i64.from_string", Arity: 1},
		"i64.to_string":   {Fn: builtinI64ToString, Name: "i64.to_string", Arity: 1},
		"rand.u64":        {Fn: builtinRandU64, Name: "rand.u64", Arity: 0},

		"Some": {Fn: func(e *Evaluator, args ...Object) Object { return Some(args[0]) }, Name: "Some", Arity: 1},
		"Ok":   {Fn: func(e *Evaluator, args ...Object) Object { return Ok(args[0]) }, Name: "Ok", Arity: 1},
		"Err":  {Fn: func(e *Evaluator, args ...Object) Object { return Err(args[0]) }, Name: "Err", Arity: 1},
	}
	for _, op := range []string{"+", "-", "*", "/", "%", "<", "<=", ">", ">="} {
		m[op] = &Builtin{Fn: arithmetic(op), Name: op, Arity: 2}
	}
	return m
}

func arithmetic(op string) BuiltinFunction {
	return func(e *Evaluator, args ...Object) Object {
		a, ok1 := args[0].(*Integer)
		b, ok2 := args[1].(*Integer)
		if !ok1 || !ok2 {
			return newError("Math expects I64 for %s, got %s and %s", op, args[0].Type(), args[1].Type())
		}
		x, y := a.Value, b.Value
		switch op {
		case "+":
			return &Integer{Value: new(big.Int).Add(x, y)}
		case "-":
			return &Integer{Value: new(big.Int).Sub(x, y)}
		case "*":
			return &Integer{Value: new(big.Int).Mul(x, y)}
		case "/":
			if y.Sign() == 0 {
				return newError("Division by zero")
			}
			return &Integer{Value: new(big.Int).Quo(x, y)}
		case "%":
			if y.Sign() == 0 {
				return newError("Modulo by zero")
			}
			return &Integer{Value: new(big.Int).Rem(x, y)}
		case "<":
			return nativeBool(x.Cmp(y) < 0)
		case "<=":
			return nativeBool(x.Cmp(y) <= 0)
		case ">":
			return nativeBool(x.Cmp(y) > 0)
		case ">=":
			return nativeBool(x.Cmp(y) >= 0)
		}
		return newError("unknown arithmetic operator %s", op)
	}
}

// builtinEquals compares I64, Str and Bool; values of other or mixed
// kinds are never equal.
func builtinEquals(e *Evaluator, args ...Object) Object {
	switch a := args[0].(type) {
	case *Integer:
		if b, ok := args[1].(*Integer); ok {
			return nativeBool(a.Value.Cmp(b.Value) == 0)
		}
	case *String:
		if b, ok := args[1].(*String); ok {
			return nativeBool(a.Value == b.Value)
		}
	case *Boolean:
		if b, ok := args[1].(*Boolean); ok {
			return nativeBool(a.Value == b.Value)
		}
	}
	return FALSE
}

func builtinAnd(e *Evaluator, args ...Object) Object {
	a, ok1 := args[0].(*Boolean)
	b, ok2 := args[1].(*Boolean)
	if !ok1 || !ok2 {
		return newError("&& expects Bool")
	}
	return nativeBool(a.Value && b.Value)
}

func builtinOr(e *Evaluator, args ...Object) Object {
	a, ok1 := args[0].(*Boolean)
	b, ok2 := args[1].(*Boolean)
	if !ok1 || !ok2 {
		return newError("|| expects Bool")
	}
	return nativeBool(a.Value || b.Value)
}

func builtinNot(e *Evaluator, args ...Object) Object {
	a, ok := args[0].(*Boolean)
	if !ok {
		return newError("! expects Bool")
	}
	return nativeBool(!a.Value)
}

func builtinI64FromString(e *Evaluator, args ...Object) Object {
	s, ok := args[0].(*String)
	if !ok {
		return newError("i64.from_string expects Str")
	}
	if s.Value == "" {
		return newError("i64.from_string: empty string")
	}
	n, ok := new(big.Int).SetString(s.Value, 10)
	if !ok {
		return newError("i64.from_string: invalid integer %q", s.Value)
	}
	return &Integer{Value: n}
}

func builtinI64ToString(e *Evaluator, args ...Object) Object {
	n, ok := args[0].(*Integer)
	if !ok {
		return newError("i64.to_string expects I64")
	}
	return NewString(n.Value.String())
}

func builtinRandU64(e *Evaluator, args ...Object) Object {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return newError("rand.u64: %v", err)
	}
	return &Integer{Value: new(big.Int).SetUint64(binary.BigEndian.Uint64(buf[:]))}
}
