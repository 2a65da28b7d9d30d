package analyzer

import (
	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/typesystem"
)

func (a *Analyzer) checkMatch(n *ast.Match, env *scope, expected typesystem.Type) (typesystem.Type, typesystem.Effect, diag) {
	tt, eff, err := a.check(n.Target, env, nil)
	if err != nil {
		return nil, eff, err
	}
	if len(n.Cases) == 0 {
		return nil, eff, newError(diagnostics.ErrT007, n, "Match has no cases")
	}

	target := a.types.Resolve(tt)
	switch target.(type) {
	case typesystem.TOption, typesystem.TResult, typesystem.TList, typesystem.TUnion:
	default:
		return nil, eff, newError(diagnostics.ErrT007, n, "Match target must be Option, Result, List, or Union (got %s)", target.Kind())
	}

	var ret typesystem.Type
	for _, c := range n.Cases {
		caseEnv, err := a.bindCase(c, tt, target, env)
		if err != nil {
			return nil, eff, err
		}
		hint := expected
		if hint == nil {
			hint = ret
		}
		bt, beff, err := a.check(c.Body, caseEnv, hint)
		if err != nil {
			return nil, beff, err
		}
		eff = typesystem.Join(eff, beff)
		if ret == nil {
			ret = bt
			continue
		}
		if err := a.expect(ret, bt, c.Body, "Match arms mismatch"); err != nil {
			return nil, eff, err
		}
	}
	return ret, eff, nil
}

// bindCase checks the pattern of c against target, the resolved form of
// declared, and binds its variables.
func (a *Analyzer) bindCase(c *ast.MatchCase, declared, target typesystem.Type, env *scope) (*scope, diag) {
	if c.Tag == config.WildcardTag {
		if len(c.Vars) != 0 {
			return nil, newError(diagnostics.ErrT007, c, "Wildcard case binds no variables")
		}
		return env, nil
	}

	var bound []typesystem.Type
	switch t := target.(type) {
	case typesystem.TOption:
		switch c.Tag {
		case config.SomeCtorName:
			bound = []typesystem.Type{t.Inner}
		case config.NoneCtorName:
		default:
			return nil, newError(diagnostics.ErrT007, c, "Unknown Option case %s", c.Tag)
		}
	case typesystem.TResult:
		switch c.Tag {
		case config.OkCtorName:
			bound = []typesystem.Type{t.Ok}
		case config.ErrCtorName:
			bound = []typesystem.Type{t.Err}
		default:
			return nil, newError(diagnostics.ErrT007, c, "Unknown Result case %s", c.Tag)
		}
	case typesystem.TList:
		switch c.Tag {
		case config.ConsCtorName:
			bound = []typesystem.Type{t.Inner, t}
		case config.NilCtorName:
		default:
			return nil, newError(diagnostics.ErrT007, c, "Unknown List case %s", c.Tag)
		}
	case typesystem.TUnion:
		payload, ok := t.Variants[c.Tag]
		if !ok {
			return nil, newError(diagnostics.ErrT007, c, "Union %s has no variant %s", declared, c.Tag)
		}
		return a.bindPayload(c, payload, env)
	}

	if len(c.Vars) != len(bound) {
		return nil, newError(diagnostics.ErrT007, c, "Match case %s expects %d variable(s), got %d", c.Tag, len(bound), len(c.Vars))
	}
	for i, name := range c.Vars {
		env = env.bind(name, bound[i])
	}
	return env, nil
}

// bindPayload binds a union case. No variables ignore the payload, one
// binds it whole and several destructure a tuple payload.
func (a *Analyzer) bindPayload(c *ast.MatchCase, payload typesystem.Type, env *scope) (*scope, diag) {
	switch len(c.Vars) {
	case 0:
		return env, nil
	case 1:
		return env.bind(c.Vars[0], payload), nil
	}
	tup, ok := a.types.Resolve(payload).(typesystem.TTuple)
	if !ok || len(tup.Items) != len(c.Vars) {
		return nil, newError(diagnostics.ErrT007, c, "Match case %s expects 1 variable (payload binding), got %d", c.Tag, len(c.Vars))
	}
	for i, name := range c.Vars {
		env = env.bind(name, tup.Items[i])
	}
	return env, nil
}
