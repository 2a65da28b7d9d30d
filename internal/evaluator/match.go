package evaluator

import (
	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
)

// matchCase picks the first case accepting target and returns its body
// with the case variables bound.
func matchCase(m *ast.Match, target Object, env *Environment) (ast.Expression, *Environment, Object) {
	for _, c := range m.Cases {
		if caseEnv, ok := matchOne(c, target, env); ok {
			return c.Body, caseEnv, nil
		}
		if c.Tag == config.WildcardTag {
			return c.Body, env, nil
		}
	}
	return nil, nil, newError("No matching case for value %s", PrintValue(target))
}

func matchOne(c *ast.MatchCase, target Object, env *Environment) (*Environment, bool) {
	bindFirst := func(v Object) *Environment {
		if len(c.Vars) > 0 {
			return env.Bind(c.Vars[0], v)
		}
		return env
	}

	switch t := target.(type) {
	case *Option:
		switch {
		case c.Tag == config.NoneCtorName && t.Value == nil:
			return env, true
		case c.Tag == config.SomeCtorName && t.Value != nil:
			return bindFirst(t.Value), true
		}

	case *Result:
		if (c.Tag == config.OkCtorName && t.IsOk) || (c.Tag == config.ErrCtorName && !t.IsOk) {
			return bindFirst(t.Value), true
		}

	case *List:
		switch {
		case c.Tag == config.NilCtorName && len(t.Elements) == 0:
			return env, true
		case c.Tag == config.ConsCtorName && len(t.Elements) > 0:
			out := env
			if len(c.Vars) >= 1 {
				out = out.Bind(c.Vars[0], t.Elements[0])
			}
			if len(c.Vars) >= 2 {
				out = out.Bind(c.Vars[1], &List{Elements: t.Elements[1:]})
			}
			return out, true
		}

	case *Tagged:
		if c.Tag != t.Tag {
			return nil, false
		}
		// several variables destructure a tuple payload
		if tup, ok := t.Value.(*Tuple); ok && len(c.Vars) > 1 {
			return bindItems(env, c.Vars, tup.Elements), true
		}
		return bindFirst(t.Value), true

	case *Tuple:
		// ("Tag" args...) tuples built before union values existed
		if len(t.Elements) == 0 {
			return nil, false
		}
		tag, ok := t.Elements[0].(*String)
		if !ok || tag.Value != c.Tag {
			return nil, false
		}
		return bindItems(env, c.Vars, t.Elements[1:]), true
	}
	return nil, false
}

func bindItems(env *Environment, names []string, items []Object) *Environment {
	for i, name := range names {
		if i < len(items) {
			env = env.Bind(name, items[i])
		}
	}
	return env
}
