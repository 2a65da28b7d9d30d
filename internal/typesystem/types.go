package typesystem

import (
	"fmt"
	"sort"
	"strings"
)

// Kind names the constructor of a Type.
type Kind string

const (
	KindI64    Kind = "I64"
	KindBool   Kind = "Bool"
	KindStr    Kind = "Str"
	KindOption Kind = "Option"
	KindResult Kind = "Result"
	KindList   Kind = "List"
	KindTuple  Kind = "Tuple"
	KindRecord Kind = "Record"
	KindUnion  Kind = "Union"
	KindMap    Kind = "Map"
	KindFn     Kind = "Fn"
	KindNamed  Kind = "Named"
)

// Type is a static Iris type. Named types stay unresolved until
// compared through a Table.
type Type interface {
	Kind() Kind
	String() string
}

type TI64 struct{}
type TBool struct{}
type TStr struct{}

// TOption is (Option Inner).
type TOption struct{ Inner Type }

// TResult is (Result Ok Err).
type TResult struct{ Ok, Err Type }

type TList struct{ Inner Type }

type TTuple struct{ Items []Type }

// TRecord is a closed record; equality compares the full field set.
type TRecord struct{ Fields map[string]Type }

// TUnion maps each variant tag to its payload type. A variant without
// payload carries the empty tuple.
type TUnion struct{ Variants map[string]Type }

type TMap struct{ Key, Value Type }

// TFn is the type of a lambda value.
type TFn struct {
	Args []Type
	Ret  Type
	Eff  Effect
}

// TNamed refers to a type definition, possibly qualified as "alias.Name".
type TNamed struct{ Name string }

var (
	I64  Type = TI64{}
	Bool Type = TBool{}
	Str  Type = TStr{}
	Unit Type = TTuple{}
)

func (TI64) Kind() Kind    { return KindI64 }
func (TBool) Kind() Kind   { return KindBool }
func (TStr) Kind() Kind    { return KindStr }
func (TOption) Kind() Kind { return KindOption }
func (TResult) Kind() Kind { return KindResult }
func (TList) Kind() Kind   { return KindList }
func (TTuple) Kind() Kind  { return KindTuple }
func (TRecord) Kind() Kind { return KindRecord }
func (TUnion) Kind() Kind  { return KindUnion }
func (TMap) Kind() Kind    { return KindMap }
func (TFn) Kind() Kind     { return KindFn }
func (TNamed) Kind() Kind  { return KindNamed }

func (TI64) String() string  { return "I64" }
func (TBool) String() string { return "Bool" }
func (TStr) String() string  { return "Str" }

func (t TOption) String() string { return fmt.Sprintf("(Option %s)", str(t.Inner)) }
func (t TResult) String() string { return fmt.Sprintf("(Result %s %s)", str(t.Ok), str(t.Err)) }
func (t TList) String() string   { return fmt.Sprintf("(List %s)", str(t.Inner)) }
func (t TMap) String() string    { return fmt.Sprintf("(Map %s %s)", str(t.Key), str(t.Value)) }
func (t TNamed) String() string  { return t.Name }

func (t TTuple) String() string {
	parts := make([]string, 0, len(t.Items)+1)
	parts = append(parts, "Tuple")
	for _, it := range t.Items {
		parts = append(parts, str(it))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (t TRecord) String() string {
	var sb strings.Builder
	sb.WriteString("(Record")
	for _, k := range SortedKeys(t.Fields) {
		fmt.Fprintf(&sb, " (%s %s)", k, str(t.Fields[k]))
	}
	sb.WriteString(")")
	return sb.String()
}

func (t TUnion) String() string {
	var sb strings.Builder
	sb.WriteString("(Union")
	for _, k := range SortedKeys(t.Variants) {
		fmt.Fprintf(&sb, " (tag %q %s)", k, str(t.Variants[k]))
	}
	sb.WriteString(")")
	return sb.String()
}

func (t TFn) String() string {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = str(a)
	}
	return fmt.Sprintf("(Fn (%s) %s %s)", strings.Join(args, " "), str(t.Ret), t.Eff)
}

func str(t Type) string {
	if t == nil {
		return "undefined"
	}
	return t.String()
}

// SortedKeys returns the keys of a field or variant map in order.
func SortedKeys(m map[string]Type) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
