package embed

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/funvibe/iris/internal/evaluator"
)

// Tuple is the Go form of an Iris tuple.
type Tuple []any

// Result is the Go form of an Iris Result.
type Result struct {
	Ok    bool
	Value any
}

// Tagged is the Go form of a variant value. Value is nil for a tag
// without payload.
type Tagged struct {
	Tag   string
	Value any
}

var (
	objectType = reflect.TypeOf((*evaluator.Object)(nil)).Elem()
	bigIntType = reflect.TypeOf((*big.Int)(nil))
	resultType = reflect.TypeOf(Result{})
	taggedType = reflect.TypeOf(Tagged{})
)

// Marshaller handles conversion between Go and Iris values.
//
// Going to Iris, integers of any width become I64 values, strings and
// []byte become Str, slices and arrays become lists, maps become Maps and
// structs become records. A nil pointer or nil interface becomes None;
// other pointers are followed. A Go error becomes (Err "message").
//
// Coming back without a target type, I64 becomes int64 (or *big.Int when
// it does not fit), lists become []any, records become map[string]any,
// and None becomes nil.
type Marshaller struct {
	// TagName is the struct tag that renames record fields. A tag of "-"
	// skips the field.
	TagName string
}

func NewMarshaller() *Marshaller {
	return &Marshaller{TagName: "iris"}
}

// ToValue converts a Go value to an Iris Object.
func (m *Marshaller) ToValue(val any) (evaluator.Object, error) {
	switch v := val.(type) {
	case nil:
		return evaluator.NONE, nil
	case evaluator.Object:
		return v, nil
	case *big.Int:
		if v == nil {
			return evaluator.NONE, nil
		}
		return &evaluator.Integer{Value: new(big.Int).Set(v)}, nil
	case []byte:
		return evaluator.NewString(string(v)), nil
	case Tuple:
		elems, err := m.toValues(v)
		if err != nil {
			return nil, err
		}
		return &evaluator.Tuple{Elements: elems}, nil
	case Result:
		inner, err := m.payload(v.Value)
		if err != nil {
			return nil, err
		}
		if v.Ok {
			return evaluator.Ok(inner), nil
		}
		return evaluator.Err(inner), nil
	case Tagged:
		inner, err := m.payload(v.Value)
		if err != nil {
			return nil, err
		}
		return &evaluator.Tagged{Tag: v.Tag, Value: inner}, nil
	case error:
		return evaluator.ErrString(v.Error()), nil
	}
	return m.reflectToValue(reflect.ValueOf(val))
}

// payload converts the value carried by a tag, where nil means Unit.
func (m *Marshaller) payload(val any) (evaluator.Object, error) {
	if val == nil {
		return evaluator.Unit, nil
	}
	return m.ToValue(val)
}

func (m *Marshaller) toValues(vals []any) ([]evaluator.Object, error) {
	elems := make([]evaluator.Object, len(vals))
	for i, val := range vals {
		obj, err := m.ToValue(val)
		if err != nil {
			return nil, err
		}
		elems[i] = obj
	}
	return elems, nil
}

func (m *Marshaller) reflectToValue(v reflect.Value) (evaluator.Object, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &evaluator.Integer{Value: big.NewInt(v.Int())}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &evaluator.Integer{Value: new(big.Int).SetUint64(v.Uint())}, nil
	case reflect.Bool:
		if v.Bool() {
			return evaluator.TRUE, nil
		}
		return evaluator.FALSE, nil
	case reflect.String:
		return evaluator.NewString(v.String()), nil
	case reflect.Slice, reflect.Array:
		return m.sliceToList(v)
	case reflect.Map:
		return m.mapToIrisMap(v)
	case reflect.Struct:
		return m.structToRecord(v)
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return evaluator.NONE, nil
		}
		return m.ToValue(v.Elem().Interface())
	default:
		return nil, fmt.Errorf("cannot convert %s to an Iris value", v.Type())
	}
}

func (m *Marshaller) sliceToList(v reflect.Value) (*evaluator.List, error) {
	elements := make([]evaluator.Object, v.Len())
	for i := 0; i < v.Len(); i++ {
		val, err := m.ToValue(v.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		elements[i] = val
	}
	return &evaluator.List{Elements: elements}, nil
}

func (m *Marshaller) mapToIrisMap(v reflect.Value) (*evaluator.Map, error) {
	out := evaluator.EmptyMap()
	iter := v.MapRange()
	for iter.Next() {
		key, err := m.ToValue(iter.Key().Interface())
		if err != nil {
			return nil, err
		}
		val, err := m.ToValue(iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		next, perr := out.Put(key, val)
		if perr != nil {
			return nil, fmt.Errorf("map key %s: %s", key.Inspect(), perr.Message)
		}
		out = next
	}
	return out, nil
}

func (m *Marshaller) structToRecord(v reflect.Value) (*evaluator.Record, error) {
	t := v.Type()
	fields := make(map[string]evaluator.Object, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, ok := m.fieldName(t.Field(i))
		if !ok {
			continue
		}
		val, err := m.ToValue(v.Field(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", t.Field(i).Name, err)
		}
		fields[name] = val
	}
	return &evaluator.Record{Fields: fields}, nil
}

func (m *Marshaller) fieldName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	tag := ""
	if m.TagName != "" {
		tag = f.Tag.Get(m.TagName)
	}
	switch tag {
	case "-":
		return "", false
	case "":
		return f.Name, true
	}
	return tag, true
}

// FromValue converts an Iris Object to a Go value. targetType is
// optional; when given, the result has that type.
func (m *Marshaller) FromValue(obj evaluator.Object, targetType reflect.Type) (any, error) {
	if obj == nil {
		return nil, nil
	}
	if targetType == objectType {
		return obj, nil
	}
	if targetType == nil || (targetType.Kind() == reflect.Interface && targetType.NumMethod() == 0) {
		return m.natural(obj)
	}
	v, err := m.convert(obj, targetType)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// natural picks the Go type an Object converts to when the caller does
// not ask for one.
func (m *Marshaller) natural(obj evaluator.Object) (any, error) {
	switch o := obj.(type) {
	case *evaluator.Integer:
		if o.Value.IsInt64() {
			return o.Value.Int64(), nil
		}
		return new(big.Int).Set(o.Value), nil
	case *evaluator.Boolean:
		return o.Value, nil
	case *evaluator.String:
		return o.Value, nil
	case *evaluator.Option:
		if o.Value == nil {
			return nil, nil
		}
		return m.natural(o.Value)
	case *evaluator.Result:
		v, err := m.natural(o.Value)
		if err != nil {
			return nil, err
		}
		return Result{Ok: o.IsOk, Value: v}, nil
	case *evaluator.List:
		return m.naturalSlice(o.Elements)
	case *evaluator.Tuple:
		elems, err := m.naturalSlice(o.Elements)
		if err != nil {
			return nil, err
		}
		return Tuple(elems), nil
	case *evaluator.Record:
		out := make(map[string]any, len(o.Fields))
		for k, f := range o.Fields {
			v, err := m.natural(f)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	case *evaluator.Tagged:
		if isUnit(o.Value) {
			return Tagged{Tag: o.Tag}, nil
		}
		v, err := m.natural(o.Value)
		if err != nil {
			return nil, err
		}
		return Tagged{Tag: o.Tag, Value: v}, nil
	case *evaluator.Map:
		return m.naturalMap(o)
	case *evaluator.Lambda:
		// opaque; pass it back to VM.Apply
		return o, nil
	default:
		return nil, fmt.Errorf("cannot convert %s to a Go value", obj.Type())
	}
}

func (m *Marshaller) naturalSlice(elems []evaluator.Object) ([]any, error) {
	out := make([]any, len(elems))
	for i, el := range elems {
		v, err := m.natural(el)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// naturalMap returns map[string]any when every key is a Str and
// map[any]any otherwise.
func (m *Marshaller) naturalMap(o *evaluator.Map) (any, error) {
	entries := o.Entries()
	stringKeys := true
	for _, e := range entries {
		if _, ok := e.Key.(*evaluator.String); !ok {
			stringKeys = false
			break
		}
	}

	if stringKeys {
		out := make(map[string]any, len(entries))
		for _, e := range entries {
			v, err := m.natural(e.Value)
			if err != nil {
				return nil, err
			}
			out[e.Key.(*evaluator.String).Value] = v
		}
		return out, nil
	}

	out := make(map[any]any, len(entries))
	for _, e := range entries {
		k, err := m.natural(e.Key)
		if err != nil {
			return nil, err
		}
		if k != nil && !reflect.ValueOf(k).Comparable() {
			return nil, fmt.Errorf("map key %s has no comparable Go form", e.Key.Inspect())
		}
		v, err := m.natural(e.Value)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func isUnit(obj evaluator.Object) bool {
	t, ok := obj.(*evaluator.Tuple)
	return ok && len(t.Elements) == 0
}

// convert builds a value of type t from obj.
func (m *Marshaller) convert(obj evaluator.Object, t reflect.Type) (reflect.Value, error) {
	if t == objectType {
		v := reflect.New(t).Elem()
		v.Set(reflect.ValueOf(obj))
		return v, nil
	}

	switch t.Kind() {
	case reflect.Interface:
		nat, err := m.natural(obj)
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.New(t).Elem()
		if nat == nil {
			return v, nil
		}
		nv := reflect.ValueOf(nat)
		if !nv.Type().AssignableTo(t) {
			return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", obj.Type(), t)
		}
		v.Set(nv)
		return v, nil
	case reflect.Pointer:
		if opt, ok := obj.(*evaluator.Option); ok {
			if opt.Value == nil {
				return reflect.Zero(t), nil
			}
			obj = opt.Value
		}
		if t == bigIntType {
			if i, ok := obj.(*evaluator.Integer); ok {
				return reflect.ValueOf(new(big.Int).Set(i.Value)), nil
			}
			return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", obj.Type(), t)
		}
		elem, err := m.convert(obj, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	}

	// Some converts as its payload; None as the zero value.
	if opt, ok := obj.(*evaluator.Option); ok {
		if opt.Value == nil {
			return reflect.Zero(t), nil
		}
		obj = opt.Value
	}

	v := reflect.New(t).Elem()
	switch o := obj.(type) {
	case *evaluator.Integer:
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if !o.Value.IsInt64() || v.OverflowInt(o.Value.Int64()) {
				return reflect.Value{}, fmt.Errorf("%s overflows %s", o.Value, t)
			}
			v.SetInt(o.Value.Int64())
			return v, nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if !o.Value.IsUint64() || v.OverflowUint(o.Value.Uint64()) {
				return reflect.Value{}, fmt.Errorf("%s overflows %s", o.Value, t)
			}
			v.SetUint(o.Value.Uint64())
			return v, nil
		}
	case *evaluator.Boolean:
		if t.Kind() == reflect.Bool {
			v.SetBool(o.Value)
			return v, nil
		}
	case *evaluator.String:
		if t.Kind() == reflect.String {
			v.SetString(o.Value)
			return v, nil
		}
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			v.SetBytes([]byte(o.Value))
			return v, nil
		}
	case *evaluator.List:
		return m.convertSeq(o.Elements, t, obj)
	case *evaluator.Tuple:
		return m.convertSeq(o.Elements, t, obj)
	case *evaluator.Record:
		if t.Kind() == reflect.Struct && t != resultType && t != taggedType {
			return m.recordToStruct(o, t)
		}
		if t.Kind() == reflect.Map && t.Key().Kind() == reflect.String {
			v.Set(reflect.MakeMapWithSize(t, len(o.Fields)))
			for k, f := range o.Fields {
				fv, err := m.convert(f, t.Elem())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("field %s: %w", k, err)
				}
				v.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), fv)
			}
			return v, nil
		}
	case *evaluator.Map:
		if t.Kind() == reflect.Map {
			v.Set(reflect.MakeMapWithSize(t, o.Len()))
			for _, e := range o.Entries() {
				kv, err := m.convert(e.Key, t.Key())
				if err != nil {
					return reflect.Value{}, err
				}
				ev, err := m.convert(e.Value, t.Elem())
				if err != nil {
					return reflect.Value{}, err
				}
				v.SetMapIndex(kv, ev)
			}
			return v, nil
		}
	case *evaluator.Result, *evaluator.Tagged:
		if t == resultType || t == taggedType {
			nat, err := m.natural(obj)
			if err != nil {
				return reflect.Value{}, err
			}
			nv := reflect.ValueOf(nat)
			if nv.Type() == t {
				return nv, nil
			}
		}
	}
	return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", obj.Type(), t)
}

func (m *Marshaller) convertSeq(elems []evaluator.Object, t reflect.Type, obj evaluator.Object) (reflect.Value, error) {
	var v reflect.Value
	switch t.Kind() {
	case reflect.Slice:
		v = reflect.MakeSlice(t, len(elems), len(elems))
	case reflect.Array:
		if t.Len() != len(elems) {
			return reflect.Value{}, fmt.Errorf("cannot convert %s of length %d to %s", obj.Type(), len(elems), t)
		}
		v = reflect.New(t).Elem()
	default:
		return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", obj.Type(), t)
	}
	for i, el := range elems {
		ev, err := m.convert(el, t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("item %d: %w", i, err)
		}
		v.Index(i).Set(ev)
	}
	return v, nil
}

// recordToStruct fills the fields the record has; the rest keep their
// zero value.
func (m *Marshaller) recordToStruct(rec *evaluator.Record, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	for i := 0; i < t.NumField(); i++ {
		name, ok := m.fieldName(t.Field(i))
		if !ok {
			continue
		}
		f, ok := rec.Fields[name]
		if !ok {
			continue
		}
		fv, err := m.convert(f, t.Field(i).Type)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("field %s: %w", name, err)
		}
		v.Field(i).Set(fv)
	}
	return v, nil
}
