package evaluator

// structuralKey encodes a map key. Str and I64 keys encode by value; a
// Tagged "Str" or "I64" wrapper collapses onto the value it wraps so the
// two spellings address the same entry. Other tags encode tag and payload.
func structuralKey(v Object) (string, *Error) {
	switch v := v.(type) {
	case *Integer:
		return "I64:" + v.Value.String(), nil
	case *String:
		return "Str:" + v.Value, nil
	case *Tagged:
		switch inner := v.Value.(type) {
		case *String:
			if v.Tag == "Str" {
				return "Str:" + inner.Value, nil
			}
		case *Integer:
			if v.Tag == "I64" {
				return "I64:" + inner.Value.String(), nil
			}
		}
		return "Tagged:" + v.Tag + ":" + PrintValue(v.Value), nil
	case nil:
		return "", newError("Invalid map key type: undefined")
	}
	return "", newError("Invalid map key type: %s", v.Type())
}
