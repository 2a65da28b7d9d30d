package analyzer

import (
	"strconv"
	"strings"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/typesystem"
)

type diag = *diagnostics.DiagnosticError

// CheckExpr checks a standalone expression against the definitions of the
// program, with expected as the type hint (nil for none).
func (a *Analyzer) CheckExpr(expr ast.Expression, expected typesystem.Type) (typesystem.Type, typesystem.Effect, error) {
	a.prepare()
	t, eff, err := a.check(expr, nil, expected)
	if err != nil {
		return nil, eff, err
	}
	return t, eff, nil
}

// check returns the type and effect of expr. expected, when not nil,
// resolves literals that cannot be typed on their own.
func (a *Analyzer) check(expr ast.Expression, env *scope, expected typesystem.Type) (typesystem.Type, typesystem.Effect, diag) {
	switch n := expr.(type) {
	case *ast.Literal:
		return a.checkLiteral(n, expected), typesystem.EffPure, nil
	case *ast.Var:
		t, err := a.checkVar(n, env)
		return t, typesystem.EffPure, err
	case *ast.Let:
		return a.checkLet(n, env, expected)
	case *ast.If:
		return a.checkIf(n, env, expected)
	case *ast.Match:
		return a.checkMatch(n, env, expected)
	case *ast.Call:
		return a.checkCall(n, env, expected)
	case *ast.Record:
		return a.checkRecord(n, env, expected)
	case *ast.Tagged:
		return a.checkTagged(n, env, expected)
	case *ast.Tuple:
		return a.checkTuple(n, env, expected)
	case *ast.List:
		return a.checkList(n, env, expected)
	case *ast.Intrinsic:
		return a.checkIntrinsic(n.Op, n, n.Args, env, expected)
	case *ast.Lambda:
		return a.checkLambda(n, env)
	}
	return nil, typesystem.EffPure, diagnostics.NewError(diagnostics.ErrT001, expr.GetToken(), "Unsupported expression")
}

func (a *Analyzer) checkLiteral(n *ast.Literal, expected typesystem.Type) typesystem.Type {
	switch n.Kind {
	case ast.LitI64:
		return typesystem.I64
	case ast.LitBool:
		return typesystem.Bool
	case ast.LitStr:
		return typesystem.Str
	case ast.LitNone:
		if expected != nil {
			if _, ok := a.types.Resolve(expected).(typesystem.TOption); ok {
				return expected
			}
		}
		return typesystem.TOption{Inner: typesystem.I64}
	case ast.LitNil:
		if expected != nil {
			if _, ok := a.types.Resolve(expected).(typesystem.TList); ok {
				return expected
			}
		}
		return typesystem.TList{Inner: typesystem.I64}
	}
	return typesystem.Unit
}

func (a *Analyzer) checkVar(n *ast.Var, env *scope) (typesystem.Type, diag) {
	if t, ok := env.lookup(n.Name); ok {
		return t, nil
	}
	if t, ok := a.constants[n.Name]; ok {
		return t, nil
	}

	parts := strings.Split(n.Name, ".")
	if len(parts) == 1 {
		return nil, newError(diagnostics.ErrT003, n, "Unknown variable: %s", n.Name)
	}
	cur, ok := env.lookup(parts[0])
	if !ok {
		cur, ok = a.constants[parts[0]]
	}
	if !ok {
		return nil, newError(diagnostics.ErrT003, n, "Unknown variable: %s", n.Name)
	}
	for _, part := range parts[1:] {
		switch t := a.types.Resolve(cur).(type) {
		case typesystem.TTuple:
			idx, err := strconv.Atoi(part)
			if err != nil {
				return nil, newError(diagnostics.ErrT001, n, "Tuple index must be number: %s", part)
			}
			if idx < 0 || idx >= len(t.Items) {
				return nil, newError(diagnostics.ErrT001, n, "Tuple index out of bounds: %d", idx)
			}
			cur = t.Items[idx]
		case typesystem.TRecord:
			field, ok := t.Fields[part]
			if !ok {
				return nil, newError(diagnostics.ErrT001, n, "Unknown field %s in %s", part, t)
			}
			cur = field
		default:
			return nil, newError(diagnostics.ErrT001, n, "Cannot access field %s of %s", part, t)
		}
	}
	return cur, nil
}

func (a *Analyzer) checkLet(n *ast.Let, env *scope, expected typesystem.Type) (typesystem.Type, typesystem.Effect, diag) {
	vt, veff, err := a.check(n.Value, env, nil)
	if err != nil {
		return nil, veff, err
	}
	bt, beff, err := a.check(n.Body, env.bind(n.Name, vt), expected)
	if err != nil {
		return nil, beff, err
	}
	return bt, typesystem.Join(veff, beff), nil
}

func (a *Analyzer) checkIf(n *ast.If, env *scope, expected typesystem.Type) (typesystem.Type, typesystem.Effect, diag) {
	ct, ceff, err := a.check(n.Cond, env, typesystem.Bool)
	if err != nil {
		return nil, ceff, err
	}
	if err := a.expect(typesystem.Bool, ct, n.Cond, "If condition"); err != nil {
		return nil, ceff, err
	}
	tt, teff, err := a.check(n.Then, env, expected)
	if err != nil {
		return nil, teff, err
	}
	hint := expected
	if hint == nil {
		hint = tt
	}
	et, eeff, err := a.check(n.Else, env, hint)
	if err != nil {
		return nil, eeff, err
	}
	if err := a.expect(tt, et, n.Else, "If branches mismatch"); err != nil {
		return nil, eeff, err
	}
	// The branch type goes up unchanged; callers compare it with what they
	// expected.
	return tt, typesystem.JoinAll(ceff, teff, eeff), nil
}

// checkCall resolves the callee in the order the evaluator does: a lambda
// in scope, a local definition, an imported one, then the intrinsic
// catalog.
func (a *Analyzer) checkCall(n *ast.Call, env *scope, expected typesystem.Type) (typesystem.Type, typesystem.Effect, diag) {
	if t, ok := env.lookup(n.Fn); ok {
		if fn, ok := a.types.Resolve(t).(typesystem.TFn); ok {
			return a.checkApplication(n, fn, env)
		}
	}
	if sig, ok := a.functions[n.Fn]; ok {
		return a.checkApplication(n, sig, env)
	}
	if alias, name, ok := strings.Cut(n.Fn, "."); ok {
		if _, isImport := a.program.ImportPath(alias); isImport {
			if sig, ok := a.importedFunction(alias, name); ok {
				return a.checkApplication(n, sig, env)
			}
			return nil, typesystem.EffPure, newError(diagnostics.ErrT004, n, "Unknown function call: %s", n.Fn)
		}
	}
	if _, ok := config.LookupIntrinsic(n.Fn); ok {
		return a.checkIntrinsic(n.Fn, n, n.Args, env, expected)
	}
	return nil, typesystem.EffPure, newError(diagnostics.ErrT004, n, "Unknown function call: %s", n.Fn)
}

func (a *Analyzer) checkApplication(n *ast.Call, sig typesystem.TFn, env *scope) (typesystem.Type, typesystem.Effect, diag) {
	if len(n.Args) != len(sig.Args) {
		return nil, typesystem.EffPure, newError(diagnostics.ErrT005, n, "Arity mismatch for %s: expected %d args, got %d", n.Fn, len(sig.Args), len(n.Args))
	}
	eff := typesystem.EffPure
	for i, arg := range n.Args {
		at, aeff, err := a.check(arg, env, sig.Args[i])
		if err != nil {
			return nil, aeff, err
		}
		if !a.types.Equal(sig.Args[i], at) {
			return nil, aeff, newError(diagnostics.ErrT001, arg, "Argument %d mismatch for %s: Expected %s, got %s", i, n.Fn, sig.Args[i], at)
		}
		eff = typesystem.Join(eff, aeff)
	}
	return sig.Ret, typesystem.Join(eff, callEffect(sig.Eff)), nil
}

// checkLambda checks the body against the declared signature. Building
// the closure is itself pure; the body's effect is paid at each call.
func (a *Analyzer) checkLambda(n *ast.Lambda, env *scope) (typesystem.Type, typesystem.Effect, diag) {
	a.checkDuplicateArgs(n, n.Args)
	inner := env
	for _, arg := range n.Args {
		inner = inner.bind(arg.Name, arg.Type)
	}
	bt, beff, err := a.check(n.Body, inner, n.Ret)
	if err != nil {
		return nil, typesystem.EffPure, err
	}
	if err := a.expect(n.Ret, bt, n, "lambda body"); err != nil {
		return nil, typesystem.EffPure, err
	}
	if n.Eff != typesystem.EffInfer && !typesystem.Permits(n.Eff, beff) {
		return nil, typesystem.EffPure, newError(diagnostics.ErrT002, n, "EffectMismatch: Lambda declared %s but body is %s", n.Eff, beff)
	}

	sig := n.Signature()
	if sig.Eff == typesystem.EffInfer {
		sig.Eff = beff
	}
	return sig, typesystem.EffPure, nil
}
