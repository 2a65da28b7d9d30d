package evaluator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMapPutGet(t *testing.T) {
	m := EmptyMap()
	const n = 2000
	for i := 0; i < n; i++ {
		var err *Error
		m, err = m.Put(NewString(fmt.Sprintf("k%d", i)), NewInt(int64(i)))
		if err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if m.Len() != n {
		t.Fatalf("Len = %d, want %d", m.Len(), n)
	}
	for i := 0; i < n; i++ {
		v, err := m.Get(NewString(fmt.Sprintf("k%d", i)))
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if v == nil || v.Inspect() != fmt.Sprint(i) {
			t.Fatalf("k%d = %v", i, v)
		}
	}
	if v, _ := m.Get(NewString("missing")); v != nil {
		t.Errorf("missing key returned %s", v.Inspect())
	}
}

func TestMapIsPersistent(t *testing.T) {
	m1, _ := EmptyMap().Put(NewString("a"), NewInt(1))
	m2, _ := m1.Put(NewString("a"), NewInt(2))
	m3, _ := m2.Put(NewString("b"), NewInt(3))

	if got := m1.Inspect(); got != `(map ("a" 1))` {
		t.Errorf("m1 = %s", got)
	}
	if got := m2.Inspect(); got != `(map ("a" 2))` {
		t.Errorf("m2 = %s", got)
	}
	if m2.Len() != 1 || m3.Len() != 2 {
		t.Errorf("lengths = %d, %d", m2.Len(), m3.Len())
	}
}

func TestMapOrderIndependentOfInsertion(t *testing.T) {
	keys := make([]int, 300)
	for i := range keys {
		keys[i] = i
	}

	build := func(order []int) *Map {
		m := EmptyMap()
		for _, k := range order {
			m, _ = m.Put(NewInt(int64(k)), NewString(fmt.Sprint(k)))
		}
		return m
	}
	want := build(keys)

	r := rand.New(rand.NewSource(7))
	shuffled := append([]int(nil), keys...)
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	got := build(shuffled)

	if diff := cmp.Diff(want.Inspect(), got.Inspect()); diff != "" {
		t.Errorf("map differs by insertion order (-want +got):\n%s", diff)
	}
}

func TestStructuralKeys(t *testing.T) {
	tests := []struct {
		key     Object
		want    string
		wantErr string
	}{
		{NewInt(5), "I64:5", ""},
		{NewString("x"), "Str:x", ""},
		{&Tagged{Tag: "Str", Value: NewString("x")}, "Str:x", ""},
		{&Tagged{Tag: "I64", Value: NewInt(5)}, "I64:5", ""},
		{&Tagged{Tag: "Point", Value: &Tuple{Elements: []Object{NewInt(1), NewInt(2)}}}, "Tagged:Point:(tuple 1 2)", ""},
		{TRUE, "", "Invalid map key type: Bool"},
		{&List{}, "", "Invalid map key type: List"},
		{nil, "", "Invalid map key type: undefined"},
	}
	for _, tt := range tests {
		got, err := structuralKey(tt.key)
		if tt.wantErr != "" {
			if err == nil || err.Message != tt.wantErr {
				t.Errorf("structuralKey(%s) error = %v, want %q", PrintValue(tt.key), err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("structuralKey(%s): %v", PrintValue(tt.key), err)
			continue
		}
		if got != tt.want {
			t.Errorf("structuralKey(%s) = %q, want %q", PrintValue(tt.key), got, tt.want)
		}
	}
}
