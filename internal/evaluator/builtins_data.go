package evaluator

import "github.com/funvibe/iris/internal/config"

// DataBuiltins returns the list, map, record and tuple intrinsics.
// Every operation copies; inputs are never modified.
func DataBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"cons":        {Fn: builtinCons, Name: "cons", Arity: 2},
		"list.length": {Fn: builtinListLength, Name: "list.length", Arity: 1},
		"list.get":    {Fn: builtinListGet, Name: "list.get", Arity: 2},
		"list.concat": {Fn: builtinListConcat, Name: "list.concat", Arity: 2},
		"list.unique": {Fn: builtinListUnique, Name: "list.unique", Arity: 1},

		"map.make":     {Fn: func(e *Evaluator, args ...Object) Object { return EmptyMap() }, Name: "map.make", Arity: -1},
		"map.put":      {Fn: builtinMapPut, Name: "map.put", Arity: 3},
		"map.get":      {Fn: builtinMapGet, Name: "map.get", Arity: 2},
		"map.contains": {Fn: builtinMapContains, Name: "map.contains", Arity: 2},
		"map.keys":     {Fn: builtinMapKeys, Name: "map.keys", Arity: 1},

		"record.get": {Fn: builtinRecordGet, Name: "record.get", Arity: 2},
		"record.set": {Fn: builtinRecordSet, Name: "record.set", Arity: 3},
		"tuple.get":  {Fn: builtinTupleGet, Name: "tuple.get", Arity: 2},
	}
}

func listArg(name string, arg Object) (*List, *Error) {
	l, ok := arg.(*List)
	if !ok {
		return nil, newError("%s expects List, got %s", name, arg.Type())
	}
	return l, nil
}

func mapArg(name string, arg Object) (*Map, *Error) {
	m, ok := arg.(*Map)
	if !ok {
		return nil, newError("%s expects Map, got %s", name, arg.Type())
	}
	return m, nil
}

// builtinCons prepends to a list. A Tagged "nil" tail stands for the
// empty list.
func builtinCons(e *Evaluator, args ...Object) Object {
	head, tail := args[0], args[1]
	if t, ok := tail.(*Tagged); ok && t.Tag == config.NilCtorName {
		return &List{Elements: []Object{head}}
	}
	l, ok := tail.(*List)
	if !ok {
		return newError("cons arguments must be (head, tail-list)")
	}
	elems := make([]Object, 0, len(l.Elements)+1)
	elems = append(elems, head)
	return &List{Elements: append(elems, l.Elements...)}
}

func builtinListLength(e *Evaluator, args ...Object) Object {
	l, err := listArg("list.length", args[0])
	if err != nil {
		return err
	}
	return NewInt(int64(len(l.Elements)))
}

func builtinListGet(e *Evaluator, args ...Object) Object {
	l, err := listArg("list.get", args[0])
	if err != nil {
		return err
	}
	i, err := intArg("list.get", args[1])
	if err != nil {
		return err
	}
	if i < 0 || i >= int64(len(l.Elements)) {
		return NONE
	}
	return Some(l.Elements[i])
}

func builtinListConcat(e *Evaluator, args ...Object) Object {
	a, err := listArg("list.concat", args[0])
	if err != nil {
		return err
	}
	b, err := listArg("list.concat", args[1])
	if err != nil {
		return err
	}
	elems := make([]Object, 0, len(a.Elements)+len(b.Elements))
	elems = append(elems, a.Elements...)
	return &List{Elements: append(elems, b.Elements...)}
}

// builtinListUnique keeps the first element of each structural key.
func builtinListUnique(e *Evaluator, args ...Object) Object {
	l, err := listArg("list.unique", args[0])
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	var out []Object
	for _, el := range l.Elements {
		k, err := structuralKey(el)
		if err != nil {
			return err
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, el)
	}
	return &List{Elements: out}
}

func builtinMapPut(e *Evaluator, args ...Object) Object {
	m, err := mapArg("map.put", args[0])
	if err != nil {
		return err
	}
	out, err := m.Put(args[1], args[2])
	if err != nil {
		return err
	}
	return out
}

func builtinMapGet(e *Evaluator, args ...Object) Object {
	m, err := mapArg("map.get", args[0])
	if err != nil {
		return err
	}
	v, err := m.Get(args[1])
	if err != nil {
		return err
	}
	if v == nil {
		return NONE
	}
	return Some(v)
}

func builtinMapContains(e *Evaluator, args ...Object) Object {
	m, err := mapArg("map.contains", args[0])
	if err != nil {
		return err
	}
	v, err := m.Get(args[1])
	if err != nil {
		return err
	}
	return nativeBool(v != nil)
}

func builtinMapKeys(e *Evaluator, args ...Object) Object {
	m, err := mapArg("map.keys", args[0])
	if err != nil {
		return err
	}
	return &List{Elements: m.Keys()}
}

func builtinRecordGet(e *Evaluator, args ...Object) Object {
	r, ok := args[0].(*Record)
	f, isStr := args[1].(*String)
	if !ok {
		name := "?"
		if isStr {
			name = f.Value
		}
		return newError("Cannot access field %s of non-record %s", name, args[0].Type())
	}
	if !isStr {
		return newError("record.get expects Record and Str")
	}
	val, ok := r.Fields[f.Value]
	if !ok {
		return newError("Unknown field %s in record", f.Value)
	}
	return val
}

func builtinRecordSet(e *Evaluator, args ...Object) Object {
	r, ok1 := args[0].(*Record)
	f, ok2 := args[1].(*String)
	if !ok1 || !ok2 {
		return newError("record.set expects Record and Str")
	}
	fields := make(map[string]Object, len(r.Fields)+1)
	for k, v := range r.Fields {
		fields[k] = v
	}
	fields[f.Value] = args[2]
	return &Record{Fields: fields}
}

func builtinTupleGet(e *Evaluator, args ...Object) Object {
	t, ok1 := args[0].(*Tuple)
	i, ok2 := args[1].(*Integer)
	if !ok1 || !ok2 {
		return newError("tuple.get expects Tuple and I64")
	}
	if !i.Value.IsInt64() || i.Value.Int64() < 0 || i.Value.Int64() >= int64(len(t.Elements)) {
		return newError("Tuple index out of bounds: %s", i.Value.String())
	}
	return t.Elements[i.Value.Int64()]
}
