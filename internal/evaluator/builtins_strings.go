package evaluator

import (
	"math/big"
	"strings"
	"unicode/utf16"
)

// Strings index by UTF-16 code unit.

func StringBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"str.concat":      {Fn: builtinStrConcat, Name: "str.concat", Arity: 2},
		"str.concat_temp": {Fn: builtinStrConcat, Name: "str.concat_temp", Arity: 2},
		"str.temp_reset":  {Fn: func(e *Evaluator, args ...Object) Object { return NewInt(0) }, Name: "str.temp_reset", Arity: 0},
		"str.eq":          {Fn: builtinStrEq, Name: "str.eq", Arity: 2},
		"str.len":         {Fn: builtinStrLen, Name: "str.len", Arity: 1},
		"str.get":         {Fn: builtinStrGet, Name: "str.get", Arity: 2},
		"str.substring":   {Fn: builtinStrSubstring, Name: "str.substring", Arity: 3},
		"str.from_code":   {Fn: builtinStrFromCode, Name: "str.from_code", Arity: 1},
		"str.index_of":    {Fn: builtinStrIndexOf, Name: "str.index_of", Arity: 2},
		"str.contains":    {Fn: builtinStrContains, Name: "str.contains", Arity: 2},
		"str.ends_with":   {Fn: builtinStrEndsWith, Name: "str.ends_with", Arity: 2},
	}
}

func strArgs(name string, args []Object) ([]string, *Error) {
	out := make([]string, len(args))
	for i, a := range args {
		s, ok := a.(*String)
		if !ok {
			return nil, newError("%s expects Str, got %s", name, a.Type())
		}
		out[i] = s.Value
	}
	return out, nil
}

func intArg(name string, arg Object) (int64, *Error) {
	n, ok := arg.(*Integer)
	if !ok {
		return 0, newError("%s expects I64, got %s", name, arg.Type())
	}
	if !n.Value.IsInt64() {
		return 0, newError("%s: %s out of range", name, n.Value.String())
	}
	return n.Value.Int64(), nil
}

func units(s string) []uint16 { return utf16.Encode([]rune(s)) }

func fromUnits(u []uint16) string { return string(utf16.Decode(u)) }

func builtinStrConcat(e *Evaluator, args ...Object) Object {
	s, err := strArgs("str.concat", args)
	if err != nil {
		return err
	}
	return NewString(s[0] + s[1])
}

func builtinStrEq(e *Evaluator, args ...Object) Object {
	s, err := strArgs("str.eq", args)
	if err != nil {
		return err
	}
	return nativeBool(s[0] == s[1])
}

func builtinStrLen(e *Evaluator, args ...Object) Object {
	s, err := strArgs("str.len", args)
	if err != nil {
		return err
	}
	return NewInt(int64(len(units(s[0]))))
}

func builtinStrGet(e *Evaluator, args ...Object) Object {
	s, err := strArgs("str.get", args[:1])
	if err != nil {
		return err
	}
	i, err := intArg("str.get", args[1])
	if err != nil {
		return err
	}
	u := units(s[0])
	if i < 0 || i >= int64(len(u)) {
		return NONE
	}
	return Some(NewInt(int64(u[i])))
}

// builtinStrSubstring clamps both bounds and swaps them when reversed.
func builtinStrSubstring(e *Evaluator, args ...Object) Object {
	s, err := strArgs("str.substring", args[:1])
	if err != nil {
		return err
	}
	from, err := intArg("str.substring", args[1])
	if err != nil {
		return err
	}
	to, err := intArg("str.substring", args[2])
	if err != nil {
		return err
	}
	u := units(s[0])
	clamp := func(n int64) int64 {
		if n < 0 {
			return 0
		}
		if n > int64(len(u)) {
			return int64(len(u))
		}
		return n
	}
	from, to = clamp(from), clamp(to)
	if from > to {
		from, to = to, from
	}
	return NewString(fromUnits(u[from:to]))
}

func builtinStrFromCode(e *Evaluator, args ...Object) Object {
	code, err := intArg("str.from_code", args[0])
	if err != nil {
		return err
	}
	return NewString(fromUnits([]uint16{uint16(code)}))
}

func builtinStrIndexOf(e *Evaluator, args ...Object) Object {
	s, err := strArgs("str.index_of", args)
	if err != nil {
		return err
	}
	idx := strings.Index(s[0], s[1])
	if idx < 0 {
		return NONE
	}
	// byte offset to code-unit offset
	return Some(&Integer{Value: big.NewInt(int64(len(units(s[0][:idx]))))})
}

func builtinStrContains(e *Evaluator, args ...Object) Object {
	s, err := strArgs("str.contains", args)
	if err != nil {
		return err
	}
	return nativeBool(strings.Contains(s[0], s[1]))
}

func builtinStrEndsWith(e *Evaluator, args ...Object) Object {
	s, err := strArgs("str.ends_with", args)
	if err != nil {
		return err
	}
	return nativeBool(strings.HasSuffix(s[0], s[1]))
}
