package analyzer

import (
	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/typesystem"
)

func (a *Analyzer) checkRecord(n *ast.Record, env *scope, expected typesystem.Type) (typesystem.Type, typesystem.Effect, diag) {
	var hints map[string]typesystem.Type
	if expected != nil {
		if rec, ok := a.types.Resolve(expected).(typesystem.TRecord); ok {
			hints = rec.Fields
		}
	}

	fields := make(map[string]typesystem.Type, len(n.Fields))
	eff := typesystem.EffPure
	for _, f := range n.Fields {
		ft, feff, err := a.check(f.Value, env, hints[f.Key])
		if err != nil {
			return nil, feff, err
		}
		fields[f.Key] = ft
		eff = typesystem.Join(eff, feff)
	}
	return typesystem.TRecord{Fields: fields}, eff, nil
}

// checkTagged types a variant value. With a Union, Result or Option
// expected that knows the tag, the value takes the expected type;
// otherwise it forms a single-variant Union.
func (a *Analyzer) checkTagged(n *ast.Tagged, env *scope, expected typesystem.Type) (typesystem.Type, typesystem.Effect, diag) {
	var hint typesystem.Type
	known := false
	if expected != nil {
		switch t := a.types.Resolve(expected).(type) {
		case typesystem.TUnion:
			hint, known = t.Variants[n.Tag]
		case typesystem.TResult:
			switch n.Tag {
			case config.OkCtorName:
				hint, known = t.Ok, true
			case config.ErrCtorName:
				hint, known = t.Err, true
			}
		case typesystem.TOption:
			switch n.Tag {
			case config.SomeCtorName:
				hint, known = t.Inner, true
			case config.NoneCtorName:
				known = true
			}
		}
	}

	vt, eff, err := a.check(n.Value, env, hint)
	if err != nil {
		return nil, eff, err
	}
	if !known {
		return typesystem.TUnion{Variants: map[string]typesystem.Type{n.Tag: vt}}, eff, nil
	}
	if hint != nil {
		if err := a.expect(hint, vt, n.Value, "variant "+n.Tag); err != nil {
			return nil, eff, err
		}
	}
	return expected, eff, nil
}

func (a *Analyzer) checkTuple(n *ast.Tuple, env *scope, expected typesystem.Type) (typesystem.Type, typesystem.Effect, diag) {
	var hints []typesystem.Type
	if expected != nil {
		if tup, ok := a.types.Resolve(expected).(typesystem.TTuple); ok {
			hints = tup.Items
		}
	}

	items := make([]typesystem.Type, len(n.Items))
	eff := typesystem.EffPure
	for i, item := range n.Items {
		var hint typesystem.Type
		if i < len(hints) {
			hint = hints[i]
		}
		it, ieff, err := a.check(item, env, hint)
		if err != nil {
			return nil, ieff, err
		}
		items[i] = it
		eff = typesystem.Join(eff, ieff)
	}
	return typesystem.TTuple{Items: items}, eff, nil
}

// checkList takes the element type from the expected type, then the
// list-of argument, then the first item. An empty list with neither
// defaults to I64.
func (a *Analyzer) checkList(n *ast.List, env *scope, expected typesystem.Type) (typesystem.Type, typesystem.Effect, diag) {
	inner := n.TypeArg
	if expected != nil {
		if lt, ok := a.types.Resolve(expected).(typesystem.TList); ok {
			inner = lt.Inner
		}
	}
	if len(n.Items) == 0 {
		if inner == nil {
			inner = typesystem.I64
		}
		return typesystem.TList{Inner: inner}, typesystem.EffPure, nil
	}

	eff := typesystem.EffPure
	for _, item := range n.Items {
		it, ieff, err := a.check(item, env, inner)
		if err != nil {
			return nil, ieff, err
		}
		if inner == nil {
			inner = it
		} else if err := a.expect(inner, it, item, "List item type mismatch"); err != nil {
			return nil, ieff, err
		}
		eff = typesystem.Join(eff, ieff)
	}
	return typesystem.TList{Inner: inner}, eff, nil
}
