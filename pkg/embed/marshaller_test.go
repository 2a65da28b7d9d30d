package embed_test

import (
	"errors"
	"math"
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/iris/internal/evaluator"
	"github.com/funvibe/iris/pkg/embed"
)

type point struct {
	X      int    `iris:"x"`
	Y      int    `iris:"y"`
	Label  string `iris:"-"`
	Weight *int
}

func TestToValue(t *testing.T) {
	var nilInt *int
	seven := 7

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"int", 42, "42"},
		{"max_uint64", uint64(math.MaxUint64), "18446744073709551615"},
		{"big", new(big.Int).Lsh(big.NewInt(1), 70), "1180591620717411303424"},
		{"bool", true, "true"},
		{"string", "hi", `"hi"`},
		{"bytes", []byte("raw"), `"raw"`},
		{"slice", []int{1, 2}, "(list 1 2)"},
		{"array", [2]string{"a", "b"}, `(list "a" "b")`},
		{"map", map[string]int{"b": 2, "a": 1}, `(map ("a" 1) ("b" 2))`},
		{"struct", point{X: 1, Y: 2, Label: "skip"}, "(record (Weight None) (x 1) (y 2))"},
		{"pointer", &point{X: 3, Weight: &seven}, "(record (Weight 7) (x 3) (y 0))"},
		{"nil_pointer", nilInt, "None"},
		{"nil", nil, "None"},
		{"tuple", embed.Tuple{1, "a"}, `(tuple 1 "a")`},
		{"ok", embed.Result{Ok: true, Value: "x"}, `(Ok "x")`},
		{"err", embed.Result{Value: "bad"}, `(Err "bad")`},
		{"error", errors.New("boom"), `(Err "boom")`},
		{"tagged", embed.Tagged{Tag: "Circle", Value: 2}, `(tag "Circle" 2)`},
		{"object", evaluator.Some(evaluator.NewInt(1)), "(Some 1)"},
	}

	m := embed.NewMarshaller()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := m.ToValue(tt.in)
			if err != nil {
				t.Fatalf("ToValue(%v) failed: %v", tt.in, err)
			}
			if got := evaluator.PrintValue(obj); got != tt.want {
				t.Errorf("ToValue(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestToValueRejectsUnsupported(t *testing.T) {
	m := embed.NewMarshaller()
	for _, in := range []any{func() {}, make(chan int), 1.5} {
		if _, err := m.ToValue(in); err == nil {
			t.Errorf("ToValue(%T) succeeded, want an error", in)
		}
	}
}

func TestFromValueNatural(t *testing.T) {
	m := embed.NewMarshaller()
	intKeys, _ := evaluator.EmptyMap().Put(evaluator.NewInt(1), evaluator.NewString("a"))
	strKeys, _ := evaluator.EmptyMap().Put(evaluator.NewString("k"), evaluator.TRUE)
	huge := &evaluator.Integer{Value: new(big.Int).Lsh(big.NewInt(1), 70)}

	tests := []struct {
		name string
		in   evaluator.Object
		want any
	}{
		{"int", evaluator.NewInt(-3), int64(-3)},
		{"big", huge, new(big.Int).Lsh(big.NewInt(1), 70)},
		{"none", evaluator.NONE, nil},
		{"some", evaluator.Some(evaluator.NewString("x")), "x"},
		{"list", &evaluator.List{Elements: []evaluator.Object{evaluator.NewInt(1), evaluator.FALSE}}, []any{int64(1), false}},
		{"record", &evaluator.Record{Fields: map[string]evaluator.Object{"a": evaluator.NewInt(1)}}, map[string]any{"a": int64(1)}},
		{"err", evaluator.ErrString("bad"), embed.Result{Value: "bad"}},
		{"tag_unit", &evaluator.Tagged{Tag: "Empty", Value: evaluator.Unit}, embed.Tagged{Tag: "Empty"}},
		{"str_map", strKeys, map[string]any{"k": true}},
		{"int_map", intKeys, map[any]any{int64(1): "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.FromValue(tt.in, nil)
			if err != nil {
				t.Fatalf("FromValue(%s) failed: %v", tt.in.Inspect(), err)
			}
			if diff := cmp.Diff(tt.want, got, cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })); diff != "" {
				t.Errorf("FromValue(%s) mismatch (-want +got):\n%s", tt.in.Inspect(), diff)
			}
		})
	}
}

func TestFromValueTyped(t *testing.T) {
	m := embed.NewMarshaller()
	seven := 7

	rec := &evaluator.Record{Fields: map[string]evaluator.Object{
		"x":      evaluator.NewInt(1),
		"y":      evaluator.NewInt(2),
		"Weight": evaluator.Some(evaluator.NewInt(7)),
		"extra":  evaluator.TRUE,
	}}
	got, err := m.FromValue(rec, reflect.TypeOf(point{}))
	if err != nil {
		t.Fatalf("FromValue(record) failed: %v", err)
	}
	if diff := cmp.Diff(point{X: 1, Y: 2, Weight: &seven}, got); diff != "" {
		t.Errorf("struct mismatch (-want +got):\n%s", diff)
	}

	list := &evaluator.List{Elements: []evaluator.Object{evaluator.NewString("a"), evaluator.NewString("b")}}
	got, err = m.FromValue(list, reflect.TypeOf([]string(nil)))
	if err != nil {
		t.Fatalf("FromValue(list) failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("slice mismatch (-want +got):\n%s", diff)
	}

	got, err = m.FromValue(evaluator.NONE, reflect.TypeOf((*int)(nil)))
	if err != nil {
		t.Fatalf("FromValue(None) failed: %v", err)
	}
	if p := got.(*int); p != nil {
		t.Errorf("None = %v, want a nil pointer", *p)
	}

	obj := evaluator.NewString("kept")
	got, err = m.FromValue(obj, reflect.TypeOf((*evaluator.Object)(nil)).Elem())
	if err != nil || got != evaluator.Object(obj) {
		t.Errorf("FromValue(Object) = %v, %v", got, err)
	}
}

func TestFromValueErrors(t *testing.T) {
	m := embed.NewMarshaller()
	tests := []struct {
		name    string
		in      evaluator.Object
		target  reflect.Type
		wantErr string
	}{
		{"overflow", evaluator.NewInt(300), reflect.TypeOf(int8(0)), "overflows int8"},
		{"negative_uint", evaluator.NewInt(-1), reflect.TypeOf(uint(0)), "overflows uint"},
		{"kind", evaluator.NewString("x"), reflect.TypeOf(0), "cannot convert Str to int"},
		{"array_length", &evaluator.List{Elements: []evaluator.Object{evaluator.NewInt(1)}}, reflect.TypeOf([2]int{}), "length 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.FromValue(tt.in, tt.target)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("FromValue(%s, %s) error = %v, want %q", tt.in.Inspect(), tt.target, err, tt.wantErr)
			}
		})
	}
}
