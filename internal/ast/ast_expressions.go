package ast

import (
	"math/big"

	"github.com/funvibe/iris/internal/token"
	"github.com/funvibe/iris/internal/typesystem"
)

// LiteralKind is the kind of value a Literal embeds.
type LiteralKind int

const (
	LitI64 LiteralKind = iota
	LitBool
	LitStr
	LitNone // the empty Option
	LitNil  // the empty List
)

// Literal embeds a constant value. Only the field matching Kind is set.
type Literal struct {
	Token token.Token
	Kind  LiteralKind
	Int   *big.Int
	Bool  bool
	Str   string
}

func (l *Literal) GetToken() token.Token { return l.Token }
func (l *Literal) expressionNode()       {}

func IntLit(n int64) *Literal { return &Literal{Kind: LitI64, Int: big.NewInt(n)} }
func StrLit(s string) *Literal { return &Literal{Kind: LitStr, Str: s} }
func BoolLit(b bool) *Literal  { return &Literal{Kind: LitBool, Bool: b} }

// Var references a binding, a constant or a dotted path a.b.c.
type Var struct {
	Token token.Token
	Name  string
}

func (v *Var) GetToken() token.Token { return v.Token }
func (v *Var) expressionNode()       {}

// Let is (let (name value) body).
type Let struct {
	Token token.Token
	Name  string
	Value Expression
	Body  Expression
}

func (l *Let) GetToken() token.Token { return l.Token }
func (l *Let) expressionNode()       {}

type If struct {
	Token token.Token
	Cond  Expression
	Then  Expression
	Else  Expression
}

func (i *If) GetToken() token.Token { return i.Token }
func (i *If) expressionNode()       {}

// MatchCase is (case (tag "T" (vars...)) body). Tag "_" matches anything.
type MatchCase struct {
	Token token.Token
	Tag   string
	Vars  []string
	Body  Expression
}

func (c *MatchCase) GetToken() token.Token { return c.Token }

type Match struct {
	Token  token.Token
	Target Expression
	Cases  []*MatchCase
}

func (m *Match) GetToken() token.Token { return m.Token }
func (m *Match) expressionNode()       {}

// Call invokes a named function: local, imported (alias.f), a lambda
// bound in scope or an intrinsic.
type Call struct {
	Token token.Token
	Fn    string
	Args  []Expression
}

func (c *Call) GetToken() token.Token { return c.Token }
func (c *Call) expressionNode()       {}

type RecordField struct {
	Key   string
	Value Expression
}

type Record struct {
	Token  token.Token
	Fields []RecordField
}

func (r *Record) GetToken() token.Token { return r.Token }
func (r *Record) expressionNode()       {}

// Tagged builds a variant value. Both (tag "T" v) and (union "T" args...)
// produce it.
type Tagged struct {
	Token token.Token
	Tag   string
	Value Expression
}

func (t *Tagged) GetToken() token.Token { return t.Token }
func (t *Tagged) expressionNode()       {}

type Tuple struct {
	Token token.Token
	Items []Expression
}

func (t *Tuple) GetToken() token.Token { return t.Token }
func (t *Tuple) expressionNode()       {}

// List is (list ...) or (list-of T ...); TypeArg is nil for the former.
type List struct {
	Token   token.Token
	Items   []Expression
	TypeArg typesystem.Type
}

func (l *List) GetToken() token.Token { return l.Token }
func (l *List) expressionNode()       {}

// Intrinsic applies a built-in operation.
type Intrinsic struct {
	Token token.Token
	Op    string
	Args  []Expression
}

func (i *Intrinsic) GetToken() token.Token { return i.Token }
func (i *Intrinsic) expressionNode()       {}

type Lambda struct {
	Token token.Token
	Args  []Arg
	Ret   typesystem.Type
	Eff   typesystem.Effect
	Body  Expression
}

func (l *Lambda) GetToken() token.Token { return l.Token }
func (l *Lambda) expressionNode()       {}

func (l *Lambda) Signature() typesystem.TFn {
	return signature(l.Args, l.Ret, l.Eff)
}
