package typesystem

// Table holds the type definitions visible to one checker, including
// imported ones registered under their qualified "alias.Name".
type Table struct {
	types map[string]Type
}

func NewTable() *Table {
	return &Table{types: make(map[string]Type)}
}

func (tb *Table) Define(name string, t Type) {
	tb.types[name] = t
}

func (tb *Table) Lookup(name string) (Type, bool) {
	t, ok := tb.types[name]
	return t, ok
}

// Resolve follows Named references until a structural type or an
// unknown name is reached.
func (tb *Table) Resolve(t Type) Type {
	for steps := 0; steps <= len(tb.types); steps++ {
		n, ok := t.(TNamed)
		if !ok {
			return t
		}
		next, found := tb.types[n.Name]
		if !found {
			return t
		}
		t = next
	}
	return t
}

type namePair struct{ a, b string }

// Equal is structural type equality. Named types resolve through the
// table; a Union also equals a one-tuple or a (Str, payload) tuple whose
// payload matches one of its variants.
func (tb *Table) Equal(t1, t2 Type) bool {
	return tb.equal(t1, t2, make(map[namePair]bool))
}

func (tb *Table) equal(t1, t2 Type, assumed map[namePair]bool) bool {
	if t1 == nil || t2 == nil {
		return t1 == nil && t2 == nil
	}
	n1, ok1 := t1.(TNamed)
	n2, ok2 := t2.(TNamed)
	if ok1 && ok2 {
		if n1.Name == n2.Name {
			return true
		}
		pair := namePair{n1.Name, n2.Name}
		if assumed[pair] {
			return true
		}
		assumed[pair] = true
	}

	t1 = tb.Resolve(t1)
	t2 = tb.Resolve(t2)

	if t1.Kind() != t2.Kind() {
		if u, ok := t1.(TUnion); ok {
			if tup, ok := t2.(TTuple); ok {
				return tb.unionAcceptsTuple(u, tup, assumed)
			}
		}
		return false
	}

	switch a := t1.(type) {
	case TNamed:
		return a.Name == t2.(TNamed).Name
	case TI64, TBool, TStr:
		return true
	case TOption:
		return tb.equal(a.Inner, t2.(TOption).Inner, assumed)
	case TResult:
		b := t2.(TResult)
		return tb.equal(a.Ok, b.Ok, assumed) && tb.equal(a.Err, b.Err, assumed)
	case TList:
		return tb.equal(a.Inner, t2.(TList).Inner, assumed)
	case TMap:
		b := t2.(TMap)
		return tb.equal(a.Key, b.Key, assumed) && tb.equal(a.Value, b.Value, assumed)
	case TTuple:
		b := t2.(TTuple)
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !tb.equal(a.Items[i], b.Items[i], assumed) {
				return false
			}
		}
		return true
	case TRecord:
		b := t2.(TRecord)
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for k, ft := range a.Fields {
			other, ok := b.Fields[k]
			if !ok || !tb.equal(ft, other, assumed) {
				return false
			}
		}
		return true
	case TUnion:
		// every variant of the right side must exist on the left
		b := t2.(TUnion)
		for tag, vt := range b.Variants {
			mine, ok := a.Variants[tag]
			if !ok || !tb.equal(mine, vt, assumed) {
				return false
			}
		}
		return true
	case TFn:
		b := t2.(TFn)
		if len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !tb.equal(a.Args[i], b.Args[i], assumed) {
				return false
			}
		}
		return tb.equal(a.Ret, b.Ret, assumed) && a.Eff == b.Eff
	}
	return false
}

func (tb *Table) unionAcceptsTuple(u TUnion, tup TTuple, assumed map[namePair]bool) bool {
	var payload Type
	switch {
	case len(tup.Items) == 1:
		payload = tup.Items[0]
	case len(tup.Items) == 2 && tb.Resolve(tup.Items[0]).Kind() == KindStr:
		payload = tup.Items[1]
	default:
		return false
	}
	for _, vt := range u.Variants {
		if tb.equal(vt, payload, assumed) {
			return true
		}
	}
	return false
}

// Qualify rewrites references to exported type names as "alias.Name",
// so identically named types from different modules never alias.
func Qualify(t Type, alias string, exported map[string]bool) Type {
	switch a := t.(type) {
	case TNamed:
		if exported[a.Name] {
			return TNamed{Name: alias + "." + a.Name}
		}
		return a
	case TOption:
		return TOption{Inner: Qualify(a.Inner, alias, exported)}
	case TResult:
		return TResult{Ok: Qualify(a.Ok, alias, exported), Err: Qualify(a.Err, alias, exported)}
	case TList:
		return TList{Inner: Qualify(a.Inner, alias, exported)}
	case TMap:
		return TMap{Key: Qualify(a.Key, alias, exported), Value: Qualify(a.Value, alias, exported)}
	case TTuple:
		items := make([]Type, len(a.Items))
		for i, it := range a.Items {
			items[i] = Qualify(it, alias, exported)
		}
		return TTuple{Items: items}
	case TRecord:
		fields := make(map[string]Type, len(a.Fields))
		for k, ft := range a.Fields {
			fields[k] = Qualify(ft, alias, exported)
		}
		return TRecord{Fields: fields}
	case TUnion:
		variants := make(map[string]Type, len(a.Variants))
		for k, vt := range a.Variants {
			variants[k] = Qualify(vt, alias, exported)
		}
		return TUnion{Variants: variants}
	case TFn:
		args := make([]Type, len(a.Args))
		for i, at := range a.Args {
			args[i] = Qualify(at, alias, exported)
		}
		return TFn{Args: args, Ret: Qualify(a.Ret, alias, exported), Eff: a.Eff}
	}
	return t
}
