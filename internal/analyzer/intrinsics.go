package analyzer

import (
	"fmt"
	"strings"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/diagnostics"
	ts "github.com/funvibe/iris/internal/typesystem"
)

// opSig is the signature of an intrinsic whose argument and result types
// are fixed. A nil argument accepts any type.
type opSig struct {
	args []ts.Type
	ret  ts.Type
}

var (
	httpHeader   = ts.TRecord{Fields: map[string]ts.Type{"key": ts.Str, "val": ts.Str}}
	httpRequest  = ts.TRecord{Fields: map[string]ts.Type{"method": ts.Str, "path": ts.Str, "headers": ts.TList{Inner: httpHeader}, "body": ts.Str}}
	httpResponse = ts.TRecord{Fields: map[string]ts.Type{"version": ts.Str, "status": ts.I64, "headers": ts.TList{Inner: httpHeader}, "body": ts.Str}}
)

func result(ok ts.Type) ts.Type { return ts.TResult{Ok: ok, Err: ts.Str} }

func sig(ret ts.Type, args ...ts.Type) opSig { return opSig{args: args, ret: ret} }

var signatures = map[string]opSig{
	"+": sig(ts.I64, ts.I64, ts.I64),
	"-": sig(ts.I64, ts.I64, ts.I64),
	"*": sig(ts.I64, ts.I64, ts.I64),
	"/": sig(ts.I64, ts.I64, ts.I64),
	"%": sig(ts.I64, ts.I64, ts.I64),

	"<":  sig(ts.Bool, ts.I64, ts.I64),
	"<=": sig(ts.Bool, ts.I64, ts.I64),
	">":  sig(ts.Bool, ts.I64, ts.I64),
	">=": sig(ts.Bool, ts.I64, ts.I64),

	"&&": sig(ts.Bool, ts.Bool, ts.Bool),
	"||": sig(ts.Bool, ts.Bool, ts.Bool),
	"!":  sig(ts.Bool, ts.Bool),

	"i64.from_string": sig(ts.I64, ts.Str),
	"i64.to_string":   sig(ts.Str, ts.I64),
	"rand.u64":        sig(ts.I64),

	"str.concat":      sig(ts.Str, ts.Str, ts.Str),
	"str.concat_temp": sig(ts.Str, ts.Str, ts.Str),
	"str.temp_reset":  sig(ts.I64),
	"str.eq":          sig(ts.Bool, ts.Str, ts.Str),
	"str.len":         sig(ts.I64, ts.Str),
	"str.get":         sig(ts.TOption{Inner: ts.I64}, ts.Str, ts.I64),
	"str.substring":   sig(ts.Str, ts.Str, ts.I64, ts.I64),
	"str.from_code":   sig(ts.Str, ts.I64),
	"str.index_of":    sig(ts.TOption{Inner: ts.I64}, ts.Str, ts.Str),
	"str.contains":    sig(ts.Bool, ts.Str, ts.Str),
	"str.ends_with":   sig(ts.Bool, ts.Str, ts.Str),

	"io.print":       sig(ts.I64, nil),
	"io.read_file":   sig(result(ts.Str), ts.Str),
	"io.write_file":  sig(result(ts.I64), ts.Str, ts.Str),
	"io.file_exists": sig(ts.Bool, ts.Str),
	"io.read_dir":    sig(result(ts.TList{Inner: ts.Str}), ts.Str),

	"net.listen":  sig(result(ts.I64), ts.I64),
	"net.accept":  sig(result(ts.I64), ts.I64),
	"net.read":    sig(result(ts.Str), ts.I64),
	"net.write":   sig(result(ts.I64), ts.I64, ts.Str),
	"net.close":   sig(result(ts.Bool), ts.I64),
	"net.connect": sig(result(ts.I64), ts.Str, ts.I64),

	"http.parse_request":  sig(result(httpRequest), ts.Str),
	"http.parse_response": sig(result(httpResponse), ts.Str),
	"http.get":            sig(result(httpResponse), ts.Str),
	"http.post":           sig(result(httpResponse), ts.Str, ts.Str),

	"sys.self":  sig(ts.I64),
	"sys.args":  sig(ts.TList{Inner: ts.Str}),
	"sys.spawn": sig(ts.I64, ts.Str),
	"sys.send":  sig(ts.Bool, ts.I64, ts.Str),
	"sys.recv":  sig(ts.Str),
	"sys.sleep": sig(ts.Bool, ts.I64),
}

// IntrinsicSignature renders the fixed signature of op, such as
// "(Fn (Str Str) Str !Pure)". An argument that accepts any type shows as
// "_". Generic intrinsics report false.
func IntrinsicSignature(op string) (string, bool) {
	s, ok := signatures[op]
	if !ok {
		return "", false
	}
	info, _ := config.LookupIntrinsic(op)
	args := make([]string, len(s.args))
	for i, t := range s.args {
		if t == nil {
			args[i] = "_"
			continue
		}
		args[i] = t.String()
	}
	return fmt.Sprintf("(Fn (%s) %s %s)", strings.Join(args, " "), s.ret, info.Eff), true
}

// checkIntrinsic types op applied to args. The catalog effect of op is
// joined with the effects of the arguments.
func (a *Analyzer) checkIntrinsic(op string, node ast.Node, args []ast.Expression, env *scope, expected ts.Type) (ts.Type, ts.Effect, diag) {
	info, ok := config.LookupIntrinsic(op)
	if !ok {
		return nil, ts.EffPure, newError(diagnostics.ErrT009, node, "Unknown intrinsic: %s", op)
	}

	var (
		t   ts.Type
		eff ts.Effect
		err diag
	)
	if s, ok := signatures[op]; ok {
		t, eff, err = a.checkFixed(op, node, s, args, env)
	} else {
		t, eff, err = a.checkPolymorphic(op, node, args, env, expected)
	}
	if err != nil {
		return nil, eff, err
	}
	return t, ts.Join(eff, info.Eff), nil
}

func arity(op string, node ast.Node, args []ast.Expression, n int) diag {
	if len(args) != n {
		return newError(diagnostics.ErrT005, node, "%s expects %d argument(s), got %d", op, n, len(args))
	}
	return nil
}

func (a *Analyzer) checkFixed(op string, node ast.Node, s opSig, args []ast.Expression, env *scope) (ts.Type, ts.Effect, diag) {
	if err := arity(op, node, args, len(s.args)); err != nil {
		return nil, ts.EffPure, err
	}
	eff := ts.EffPure
	for i, arg := range args {
		at, aeff, err := a.check(arg, env, s.args[i])
		if err != nil {
			return nil, aeff, err
		}
		eff = ts.Join(eff, aeff)
		if s.args[i] == nil {
			continue
		}
		if err := a.expect(s.args[i], at, arg, fmt.Sprintf("%s operand %d", op, i+1)); err != nil {
			return nil, eff, err
		}
	}
	return s.ret, eff, nil
}

// operands checks args in order. hint supplies the expected type of the
// i-th argument from the types of the earlier ones.
func (a *Analyzer) operands(args []ast.Expression, env *scope, hint func(i int, prev []ts.Type) ts.Type) ([]ts.Type, ts.Effect, diag) {
	types := make([]ts.Type, 0, len(args))
	eff := ts.EffPure
	for i, arg := range args {
		var h ts.Type
		if hint != nil {
			h = hint(i, types)
		}
		at, aeff, err := a.check(arg, env, h)
		if err != nil {
			return nil, aeff, err
		}
		types = append(types, at)
		eff = ts.Join(eff, aeff)
	}
	return types, eff, nil
}

func (a *Analyzer) checkPolymorphic(op string, node ast.Node, args []ast.Expression, env *scope, expected ts.Type) (ts.Type, ts.Effect, diag) {
	var resolved ts.Type
	if expected != nil {
		resolved = a.types.Resolve(expected)
	}

	switch op {
	case "=":
		if err := arity(op, node, args, 2); err != nil {
			return nil, ts.EffPure, err
		}
		types, eff, err := a.operands(args, env, func(i int, prev []ts.Type) ts.Type {
			if i == 1 {
				return prev[0]
			}
			return nil
		})
		if err != nil {
			return nil, eff, err
		}
		if err := a.expect(types[0], types[1], args[1], "= operands"); err != nil {
			return nil, eff, err
		}
		return ts.Bool, eff, nil

	case config.SomeCtorName:
		if err := arity(op, node, args, 1); err != nil {
			return nil, ts.EffPure, err
		}
		var hint ts.Type
		if opt, ok := resolved.(ts.TOption); ok {
			hint = opt.Inner
		}
		types, eff, err := a.operands(args, env, func(int, []ts.Type) ts.Type { return hint })
		if err != nil {
			return nil, eff, err
		}
		return ts.TOption{Inner: types[0]}, eff, nil

	case config.OkCtorName, config.ErrCtorName:
		if err := arity(op, node, args, 1); err != nil {
			return nil, ts.EffPure, err
		}
		res := ts.TResult{Ok: ts.I64, Err: ts.Str}
		if r, ok := resolved.(ts.TResult); ok {
			res = r
		}
		hint := res.Ok
		if op == config.ErrCtorName {
			hint = res.Err
		}
		types, eff, err := a.operands(args, env, func(int, []ts.Type) ts.Type { return hint })
		if err != nil {
			return nil, eff, err
		}
		if op == config.OkCtorName {
			return ts.TResult{Ok: types[0], Err: res.Err}, eff, nil
		}
		return ts.TResult{Ok: res.Ok, Err: types[0]}, eff, nil

	case config.ConsCtorName:
		if err := arity(op, node, args, 2); err != nil {
			return nil, ts.EffPure, err
		}
		var headHint ts.Type
		if l, ok := resolved.(ts.TList); ok {
			headHint = l.Inner
		}
		types, eff, err := a.operands(args, env, func(i int, prev []ts.Type) ts.Type {
			if i == 0 {
				return headHint
			}
			return ts.TList{Inner: prev[0]}
		})
		if err != nil {
			return nil, eff, err
		}
		list := ts.TList{Inner: types[0]}
		if err := a.expect(list, types[1], args[1], "cons tail"); err != nil {
			return nil, eff, err
		}
		return list, eff, nil

	case "list.length", "list.unique":
		if err := arity(op, node, args, 1); err != nil {
			return nil, ts.EffPure, err
		}
		types, eff, err := a.operands(args, env, func(int, []ts.Type) ts.Type { return expectedList(resolved) })
		if err != nil {
			return nil, eff, err
		}
		l, err := a.listOperand(op, args[0], types[0])
		if err != nil {
			return nil, eff, err
		}
		if op == "list.length" {
			return ts.I64, eff, nil
		}
		return l, eff, nil

	case "list.get":
		if err := arity(op, node, args, 2); err != nil {
			return nil, ts.EffPure, err
		}
		types, eff, err := a.operands(args, env, func(i int, _ []ts.Type) ts.Type {
			if i == 1 {
				return ts.I64
			}
			return nil
		})
		if err != nil {
			return nil, eff, err
		}
		l, err := a.listOperand(op, args[0], types[0])
		if err != nil {
			return nil, eff, err
		}
		if err := a.expect(ts.I64, types[1], args[1], op+" index"); err != nil {
			return nil, eff, err
		}
		return ts.TOption{Inner: l.Inner}, eff, nil

	case "list.concat":
		if err := arity(op, node, args, 2); err != nil {
			return nil, ts.EffPure, err
		}
		types, eff, err := a.operands(args, env, func(i int, prev []ts.Type) ts.Type {
			if i == 1 {
				return prev[0]
			}
			return expectedList(resolved)
		})
		if err != nil {
			return nil, eff, err
		}
		l, err := a.listOperand(op, args[0], types[0])
		if err != nil {
			return nil, eff, err
		}
		if err := a.expect(l, types[1], args[1], op); err != nil {
			return nil, eff, err
		}
		return l, eff, nil
	}

	return a.checkStructured(op, node, args, env, resolved, expected)
}

func expectedList(resolved ts.Type) ts.Type {
	if l, ok := resolved.(ts.TList); ok {
		return l
	}
	return nil
}

func (a *Analyzer) listOperand(op string, arg ast.Expression, t ts.Type) (ts.TList, diag) {
	l, ok := a.types.Resolve(t).(ts.TList)
	if !ok {
		return ts.TList{}, newError(diagnostics.ErrT001, arg, "%s expects List, got %s", op, t)
	}
	return l, nil
}

func (a *Analyzer) mapOperand(op string, arg ast.Expression, t ts.Type) (ts.TMap, diag) {
	m, ok := a.types.Resolve(t).(ts.TMap)
	if !ok {
		return ts.TMap{}, newError(diagnostics.ErrT001, arg, "%s expects Map as first arg, got %s", op, t)
	}
	return m, nil
}

// checkStructured handles maps, records and tuples.
func (a *Analyzer) checkStructured(op string, node ast.Node, args []ast.Expression, env *scope, resolved, expected ts.Type) (ts.Type, ts.Effect, diag) {
	switch op {
	case "map.make":
		// with an expected Map the witnesses may be omitted
		if _, ok := resolved.(ts.TMap); ok && len(args) == 0 {
			return expected, ts.EffPure, nil
		}
		if len(args) != 2 {
			return nil, ts.EffPure, newError(diagnostics.ErrT005, node, "map.make expects 2 arguments (key_witness, value_witness), got %d", len(args))
		}
		types, eff, err := a.operands(args, env, nil)
		if err != nil {
			return nil, eff, err
		}
		return ts.TMap{Key: types[0], Value: types[1]}, eff, nil

	case "map.put", "map.get", "map.contains", "map.keys":
		want := map[string]int{"map.put": 3, "map.get": 2, "map.contains": 2, "map.keys": 1}[op]
		if err := arity(op, node, args, want); err != nil {
			return nil, ts.EffPure, err
		}
		var m ts.TMap
		types, eff, err := a.operands(args, env, func(i int, prev []ts.Type) ts.Type {
			switch i {
			case 0:
				if op == "map.put" {
					if em, ok := resolved.(ts.TMap); ok {
						return em
					}
				}
				return nil
			case 1:
				m, _ = a.types.Resolve(prev[0]).(ts.TMap)
				return m.Key
			}
			return m.Value
		})
		if err != nil {
			return nil, eff, err
		}
		if m, err = a.mapOperand(op, args[0], types[0]); err != nil {
			return nil, eff, err
		}
		if len(args) > 1 {
			if err := a.expect(m.Key, types[1], args[1], op+" key mismatch"); err != nil {
				return nil, eff, err
			}
		}
		switch op {
		case "map.put":
			if err := a.expect(m.Value, types[2], args[2], op+" value mismatch"); err != nil {
				return nil, eff, err
			}
			return types[0], eff, nil
		case "map.get":
			return ts.TOption{Inner: m.Value}, eff, nil
		case "map.contains":
			return ts.Bool, eff, nil
		}
		return ts.TList{Inner: m.Key}, eff, nil

	case "record.get", "record.set":
		want := 2
		if op == "record.set" {
			want = 3
		}
		if err := arity(op, node, args, want); err != nil {
			return nil, ts.EffPure, err
		}
		types, eff, err := a.operands(args, env, nil)
		if err != nil {
			return nil, eff, err
		}
		key, isLit := literalString(args[1])
		rec, ok := a.types.Resolve(types[0]).(ts.TRecord)
		if !ok {
			name := "field"
			if isLit {
				name = key
			}
			if v, isVar := args[0].(*ast.Var); isVar {
				return nil, eff, newError(diagnostics.ErrT001, args[0], "Cannot access field %s of non-record %s", name, v.Name)
			}
			return nil, eff, newError(diagnostics.ErrT001, args[0], "Cannot access field %s of non-record", name)
		}
		if err := a.expect(ts.Str, types[1], args[1], op+" key"); err != nil {
			return nil, eff, err
		}
		if !isLit {
			return nil, eff, newError(diagnostics.ErrT008, args[1], "%s requires literal string key", op)
		}
		field, ok := rec.Fields[key]
		if !ok {
			return nil, eff, newError(diagnostics.ErrT001, args[1], "Unknown field %s in record", key)
		}
		if op == "record.get" {
			return field, eff, nil
		}
		if err := a.expect(field, types[2], args[2], fmt.Sprintf("record.set value mismatch for '%s'", key)); err != nil {
			return nil, eff, err
		}
		return types[0], eff, nil

	case "tuple.get":
		if err := arity(op, node, args, 2); err != nil {
			return nil, ts.EffPure, err
		}
		types, eff, err := a.operands(args, env, nil)
		if err != nil {
			return nil, eff, err
		}
		tup, ok := a.types.Resolve(types[0]).(ts.TTuple)
		if !ok {
			return nil, eff, newError(diagnostics.ErrT001, args[0], "tuple.get expects Tuple, got %s", types[0])
		}
		if err := a.expect(ts.I64, types[1], args[1], "tuple.get index"); err != nil {
			return nil, eff, err
		}
		lit, isLit := args[1].(*ast.Literal)
		if !isLit || lit.Kind != ast.LitI64 {
			return nil, eff, newError(diagnostics.ErrT008, args[1], "tuple.get requires literal index for type safety")
		}
		if !lit.Int.IsInt64() || lit.Int.Int64() < 0 || lit.Int.Int64() >= int64(len(tup.Items)) {
			return nil, eff, newError(diagnostics.ErrT001, args[1], "Tuple index out of bounds: %s", lit.Int.String())
		}
		return tup.Items[lit.Int.Int64()], eff, nil
	}

	return nil, ts.EffPure, newError(diagnostics.ErrT009, node, "Unknown intrinsic: %s", op)
}

func literalString(e ast.Expression) (string, bool) {
	if lit, ok := e.(*ast.Literal); ok && lit.Kind == ast.LitStr {
		return lit.Str, true
	}
	return "", false
}
