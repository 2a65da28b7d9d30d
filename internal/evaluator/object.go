package evaluator

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/typesystem"
)

// ObjectType is the runtime kind of a value; it doubles as the kind name
// used in error messages.
type ObjectType string

const (
	INTEGER_OBJ ObjectType = "I64"
	BOOLEAN_OBJ ObjectType = "Bool"
	STRING_OBJ  ObjectType = "Str"
	OPTION_OBJ  ObjectType = "Option"
	RESULT_OBJ  ObjectType = "Result"
	LIST_OBJ    ObjectType = "List"
	TUPLE_OBJ   ObjectType = "Tuple"
	RECORD_OBJ  ObjectType = "Record"
	TAGGED_OBJ  ObjectType = "Tagged"
	MAP_OBJ     ObjectType = "Map"
	LAMBDA_OBJ  ObjectType = "Lambda"
	ERROR_OBJ   ObjectType = "ERROR"
)

// Object is an Iris runtime value. Values are immutable once built.
type Object interface {
	Type() ObjectType
	Inspect() string
}

type Integer struct {
	Value *big.Int
}

func NewInt(n int64) *Integer { return &Integer{Value: big.NewInt(n)} }

func (i *Integer) Type() ObjectType { return INTEGER_OBJ }
func (i *Integer) Inspect() string  { return i.Value.String() }

type Boolean struct {
	Value bool
}

var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return fmt.Sprint(b.Value) }

func nativeBool(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

type String struct {
	Value string
}

func NewString(s string) *String { return &String{Value: s} }

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return quote(s.Value) }

var stringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

func quote(s string) string {
	return `"` + stringEscaper.Replace(s) + `"`
}

// Option is None when Value is nil.
type Option struct {
	Value Object
}

var NONE = &Option{}

func Some(v Object) *Option { return &Option{Value: v} }

func (o *Option) Type() ObjectType { return OPTION_OBJ }
func (o *Option) Inspect() string {
	if o.Value == nil {
		return "None"
	}
	return "(Some " + o.Value.Inspect() + ")"
}

type Result struct {
	IsOk  bool
	Value Object
}

func Ok(v Object) *Result  { return &Result{IsOk: true, Value: v} }
func Err(v Object) *Result { return &Result{Value: v} }

func ErrString(msg string) *Result { return Err(NewString(msg)) }

func (r *Result) Type() ObjectType { return RESULT_OBJ }
func (r *Result) Inspect() string {
	if r.IsOk {
		return "(Ok " + r.Value.Inspect() + ")"
	}
	return "(Err " + r.Value.Inspect() + ")"
}

type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string  { return inspectSeq("list", l.Elements) }

type Tuple struct {
	Elements []Object
}

func (t *Tuple) Type() ObjectType { return TUPLE_OBJ }
func (t *Tuple) Inspect() string  { return inspectSeq("tuple", t.Elements) }

func inspectSeq(head string, elems []Object) string {
	var sb strings.Builder
	sb.WriteString("(" + head)
	for _, el := range elems {
		sb.WriteString(" " + el.Inspect())
	}
	sb.WriteString(")")
	return sb.String()
}

type Record struct {
	Fields map[string]Object
}

func (r *Record) Type() ObjectType { return RECORD_OBJ }
func (r *Record) Inspect() string {
	var sb strings.Builder
	sb.WriteString("(record")
	for _, k := range r.Keys() {
		fmt.Fprintf(&sb, " (%s %s)", k, r.Fields[k].Inspect())
	}
	sb.WriteString(")")
	return sb.String()
}

// Keys returns the field names in order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tagged is a variant value: a declared Union member or ad hoc tagged data.
type Tagged struct {
	Tag   string
	Value Object
}

func (t *Tagged) Type() ObjectType { return TAGGED_OBJ }
func (t *Tagged) Inspect() string {
	return fmt.Sprintf("(tag %s %s)", quote(t.Tag), t.Value.Inspect())
}

// Lambda is a closure. Owner is the interpreter whose functions and
// imports the body resolves against.
type Lambda struct {
	Args  []ast.Arg
	Ret   typesystem.Type
	Eff   typesystem.Effect
	Body  ast.Expression
	Env   *Environment
	Owner *Interpreter
}

func (l *Lambda) Type() ObjectType { return LAMBDA_OBJ }
func (l *Lambda) Inspect() string  { return "Lambda" }

// Unit is the empty tuple carried by payload-less tags.
var Unit = &Tuple{}

// PrintValue renders v in the canonical S-expression form.
func PrintValue(v Object) string {
	if v == nil {
		return "undefined"
	}
	return v.Inspect()
}
