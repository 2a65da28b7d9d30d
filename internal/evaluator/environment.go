package evaluator

// Environment is a persistent chain of single bindings. Extending never
// mutates the parent, so closures can capture any node safely.
// The nil *Environment is the empty scope.
type Environment struct {
	name   string
	value  Object
	parent *Environment
}

// Bind returns env extended with name = val.
func (env *Environment) Bind(name string, val Object) *Environment {
	return &Environment{name: name, value: val, parent: env}
}

// Get resolves name from the innermost binding outwards.
func (env *Environment) Get(name string) (Object, bool) {
	for cur := env; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.value, true
		}
	}
	return nil, false
}
