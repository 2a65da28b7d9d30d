package typesystem

import "fmt"

// Effect bounds the side effects an expression may perform.
// Pure < IO < Net < Any; Infer is a placeholder resolved per function.
type Effect int

const (
	EffInfer Effect = -1
	EffPure  Effect = 0
	EffIO    Effect = 1
	EffNet   Effect = 2
	EffAny   Effect = 3
)

var effectNames = map[Effect]string{
	EffInfer: "!Infer",
	EffPure:  "!Pure",
	EffIO:    "!IO",
	EffNet:   "!Net",
	EffAny:   "!Any",
}

func (e Effect) String() string {
	if s, ok := effectNames[e]; ok {
		return s
	}
	return fmt.Sprintf("!Effect(%d)", int(e))
}

// ParseEffect reads an effect symbol such as "!IO".
func ParseEffect(s string) (Effect, bool) {
	for eff, name := range effectNames {
		if name == s {
			return eff, true
		}
	}
	return EffPure, false
}

// Join is the least upper bound of two effects. An unresolved Infer
// operand is ignored, so it never lowers or raises the result.
func Join(a, b Effect) Effect {
	if a == EffInfer {
		return b
	}
	if b == EffInfer {
		return a
	}
	if a > b {
		return a
	}
	return b
}

// JoinAll folds Join over effs starting from Pure.
func JoinAll(effs ...Effect) Effect {
	out := EffPure
	for _, e := range effs {
		out = Join(out, e)
	}
	return out
}

// Permits reports whether a body inferred as required fits a function
// declared with declared. Any and Infer accept everything.
func Permits(declared, required Effect) bool {
	if declared == EffAny || declared == EffInfer {
		return true
	}
	if required == EffInfer {
		return true
	}
	return required <= declared
}
