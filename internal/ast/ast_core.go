package ast

import (
	"github.com/funvibe/iris/internal/token"
	"github.com/funvibe/iris/internal/typesystem"
)

// TokenProvider is an interface for any AST node that can provide its primary token.
// This is useful for error reporting.
type TokenProvider interface {
	GetToken() token.Token
}

// Node is the base interface for all AST nodes.
type Node interface {
	TokenProvider
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Definition is a top-level entry of the defs section.
type Definition interface {
	Node
	definitionNode()
	DefName() string
}

// ModuleDecl is the (module (name "x") (version n)) header.
type ModuleDecl struct {
	Name    string
	Version int64
}

// Import binds Alias to the module found at Path.
type Import struct {
	Token token.Token
	Path  string
	Alias string
}

func (i *Import) GetToken() token.Token { return i.Token }

// Program is the root node of every AST our parser produces.
// It is never mutated after parsing.
type Program struct {
	File    string // Source file path
	Module  ModuleDecl
	Imports []*Import
	Defs    []Definition
}

// ImportPath returns the module path bound to alias.
func (p *Program) ImportPath(alias string) (string, bool) {
	for _, imp := range p.Imports {
		if imp.Alias == alias {
			return imp.Path, true
		}
	}
	return "", false
}

// Lookup finds a top-level definition by name.
func (p *Program) Lookup(name string) Definition {
	for _, d := range p.Defs {
		if d.DefName() == name {
			return d
		}
	}
	return nil
}

// Arg is a typed parameter of a function, tool or lambda.
type Arg struct {
	Name string
	Type typesystem.Type
}

// Capability is one (name Type) entry of a caps section.
type Capability struct {
	Name string
	Type typesystem.Type
}

// Meta is the optional documentation and contract attached to functions.
type Meta struct {
	Doc      string
	Requires string
	Ensures  string
	Caps     []Capability
}

// DefConst is (defconst (name c) (type T) (value e)).
type DefConst struct {
	Token token.Token
	Name  string
	Type  typesystem.Type
	Value Expression
	Doc   string
}

func (d *DefConst) GetToken() token.Token { return d.Token }
func (d *DefConst) definitionNode()       {}
func (d *DefConst) DefName() string       { return d.Name }

// DefFn is a named function with a declared effect.
type DefFn struct {
	Token token.Token
	Name  string
	Args  []Arg
	Ret   typesystem.Type
	Eff   typesystem.Effect
	Body  Expression
	Meta  Meta
}

func (d *DefFn) GetToken() token.Token { return d.Token }
func (d *DefFn) definitionNode()       {}
func (d *DefFn) DefName() string       { return d.Name }

// Signature returns the function type of d.
func (d *DefFn) Signature() typesystem.TFn {
	return signature(d.Args, d.Ret, d.Eff)
}

// DefTool declares a function whose body is supplied by a tool host.
type DefTool struct {
	Token token.Token
	Name  string
	Args  []Arg
	Ret   typesystem.Type
	Eff   typesystem.Effect
	Meta  Meta
}

func (d *DefTool) GetToken() token.Token { return d.Token }
func (d *DefTool) definitionNode()       {}
func (d *DefTool) DefName() string       { return d.Name }

func (d *DefTool) Signature() typesystem.TFn {
	return signature(d.Args, d.Ret, d.Eff)
}

// TypeDef names a type; the name may be referenced before it is defined.
type TypeDef struct {
	Token token.Token
	Name  string
	Type  typesystem.Type
	Doc   string
}

func (d *TypeDef) GetToken() token.Token { return d.Token }
func (d *TypeDef) definitionNode()       {}
func (d *TypeDef) DefName() string       { return d.Name }

func signature(args []Arg, ret typesystem.Type, eff typesystem.Effect) typesystem.TFn {
	types := make([]typesystem.Type, len(args))
	for i, a := range args {
		types[i] = a.Type
	}
	return typesystem.TFn{Args: types, Ret: ret, Eff: eff}
}

// ModuleResolver maps an import path to its parsed Program.
type ModuleResolver interface {
	Resolve(path string) (*Program, bool)
}

// ResolverFunc adapts a function to ModuleResolver.
type ResolverFunc func(path string) (*Program, bool)

func (f ResolverFunc) Resolve(path string) (*Program, bool) { return f(path) }
