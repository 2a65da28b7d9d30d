package parser_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/lexer"
	"github.com/funvibe/iris/internal/parser"
	"github.com/funvibe/iris/internal/pipeline"
	"github.com/funvibe/iris/internal/typesystem"
)

// dump renders an expression tree compactly for comparisons.
func dump(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.Literal:
		switch n.Kind {
		case ast.LitI64:
			return n.Int.String()
		case ast.LitBool:
			return fmt.Sprint(n.Bool)
		case ast.LitStr:
			return fmt.Sprintf("%q", n.Str)
		case ast.LitNone:
			return "None"
		case ast.LitNil:
			return "nil"
		}
	case *ast.Var:
		return n.Name
	case *ast.Let:
		return fmt.Sprintf("{let %s %s %s}", n.Name, dump(n.Value), dump(n.Body))
	case *ast.If:
		return fmt.Sprintf("{if %s %s %s}", dump(n.Cond), dump(n.Then), dump(n.Else))
	case *ast.Match:
		parts := []string{"{match", dump(n.Target)}
		for _, c := range n.Cases {
			parts = append(parts, fmt.Sprintf("[%s%v %s]", c.Tag, c.Vars, dump(c.Body)))
		}
		return strings.Join(parts, " ") + "}"
	case *ast.Call:
		return "{call " + n.Fn + dumpAll(n.Args) + "}"
	case *ast.Intrinsic:
		return "{op " + n.Op + dumpAll(n.Args) + "}"
	case *ast.Record:
		var sb strings.Builder
		sb.WriteString("{record")
		for _, f := range n.Fields {
			fmt.Fprintf(&sb, " %s=%s", f.Key, dump(f.Value))
		}
		return sb.String() + "}"
	case *ast.Tagged:
		return fmt.Sprintf("{tag %s %s}", n.Tag, dump(n.Value))
	case *ast.Tuple:
		return "{tuple" + dumpAll(n.Items) + "}"
	case *ast.List:
		if n.TypeArg != nil {
			return "{list-of " + n.TypeArg.String() + dumpAll(n.Items) + "}"
		}
		return "{list" + dumpAll(n.Items) + "}"
	case *ast.Lambda:
		return fmt.Sprintf("{lambda %s %s}", n.Signature(), dump(n.Body))
	}
	return fmt.Sprintf("?%T", e)
}

func dumpAll(es []ast.Expression) string {
	var sb strings.Builder
	for _, e := range es {
		sb.WriteString(" " + dump(e))
	}
	return sb.String()
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`42`, "42"},
		{`-7`, "-7"},
		{`"hi"`, `"hi"`},
		{`true`, "true"},
		{`None`, "None"},
		{`nil`, "nil"},
		{`x.y.0`, "x.y.0"},
		{`(1)`, "1"},
		{`(1 2)`, "{tuple 1 2}"},
		{`(let (x 1) (+ x 2))`, "{let x 1 {op + x 2}}"},
		{`(if (< a b) a b)`, "{if {op < a b} a b}"},
		{`(record (a 1) (b "s"))`, `{record a=1 b="s"}`},
		{`(call f 1 2)`, "{call f 1 2}"},
		{`(f 1 2)`, "{call f 1 2}"},
		{`(lib.g)`, "{call lib.g}"},
		{`(io.print "x")`, `{op io.print "x"}`},
		{`(Some 1)`, "{op Some 1}"},
		{`(cons 1 nil)`, "{op cons 1 nil}"},
		{`(list 1 2 3)`, "{list 1 2 3}"},
		{`(list-of I64)`, "{list-of I64}"},
		{`(tuple)`, "{tuple}"},
		{`(tag "A")`, "{tag A {tuple}}"},
		{`(tag "A" 5)`, "{tag A 5}"},
		{`(union "A")`, "{tag A {tuple}}"},
		{`(union "A" 1)`, "{tag A 1}"},
		{`(union "A" 1 2)`, "{tag A {tuple 1 2}}"},
		{
			`(match o (case (tag "Some" (v)) v) (case (tag "None") 0))`,
			"{match o [Some[v] v] [None[] 0]}",
		},
		{
			`(match l (case (tag "cons" (h t)) h) (case (tag "_") 0))`,
			"{match l [cons[h t] h] [_[] 0]}",
		},
		{
			`(lambda (args (x I64)) (ret I64) (eff !Pure) (body (+ x 1)))`,
			"{lambda (Fn (I64) I64 !Pure) {op + x 1}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := parser.ParseExpressionSource(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := dump(expr); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func parseTypeDef(t *testing.T, typ string) typesystem.Type {
	t.Helper()
	src := fmt.Sprintf("(program (defs (type T %s)))", typ)
	prog, err := parser.ParseSource(src)
	if err != nil {
		t.Fatalf("parse %s: %v", typ, err)
	}
	return prog.Defs[0].(*ast.TypeDef).Type
}

func TestParseTypes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"I64", "I64"},
		{"Bool", "Bool"},
		{"Str", "Str"},
		{"Point", "Point"},
		{"(Option I64)", "(Option I64)"},
		{"(Result Str Str)", "(Result Str Str)"},
		{"(List (Option Bool))", "(List (Option Bool))"},
		{"(Map Str I64)", "(Map Str I64)"},
		{"(Tuple I64 Str)", "(Tuple I64 Str)"},
		{"(Tuple)", "(Tuple)"},
		{"(Record (y I64) (x I64))", "(Record (x I64) (y I64))"},
		{"(Union (tag \"A\" I64) (tag \"B\" (Tuple)))", "(Union (tag \"A\" I64) (tag \"B\" (Tuple)))"},
		{"(union (tag \"A\" (I64)) (tag \"B\" (I64 Str)) (tag \"C\"))", "(Union (tag \"A\" I64) (tag \"B\" (Tuple I64 Str)) (tag \"C\" (Tuple)))"},
		{"(Fn (I64 Str) Bool)", "(Fn (I64 Str) Bool !Pure)"},
		{"(Fn () I64 !IO)", "(Fn () I64 !IO)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseTypeDef(t, tt.input).String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseBareTypeForms(t *testing.T) {
	// Bare Record and Union read entries up to the closing paren of the
	// enclosing form.
	prog, err := parser.ParseSource(`(program (defs
		(type P Record (x I64) (y I64))
		(deftype U Union (tag "L" I64) (tag "R" Str))))`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog.Defs) != 2 {
		t.Fatalf("got %d defs", len(prog.Defs))
	}
	if got := prog.Defs[0].(*ast.TypeDef).Type.String(); got != "(Record (x I64) (y I64))" {
		t.Errorf("P = %s", got)
	}
	if got := prog.Defs[1].(*ast.TypeDef).Type.String(); got != `(Union (tag "L" I64) (tag "R" Str))` {
		t.Errorf("U = %s", got)
	}
}

func TestParseProgram(t *testing.T) {
	src := `
(program
  (module (name "app") (version 2))
  (imports
    (import "lib/math.iris" (as "m"))
    (import (path "util") (alias "u"))
    (import "std/list"))
  (defs
    (defconst (name limit) (type I64) (doc "upper bound") (value 10))
    (deffn (name main) (args) (ret I64) (eff !IO)
      (doc "entry")
      (requires "true")
      (ensures "result >= 0")
      (caps (fs FS) (clock Clock))
      (custom ignored (nested form))
      (body (m.add limit 1)))
    (deftool (name lookup) (args (city Str)) (ret (Result Str Str)) (eff !Net)
      (doc "weather"))))`

	prog, err := parser.ParseSource(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff(ast.ModuleDecl{Name: "app", Version: 2}, prog.Module); diff != "" {
		t.Errorf("module (-want +got):\n%s", diff)
	}

	var imports [][2]string
	for _, imp := range prog.Imports {
		imports = append(imports, [2]string{imp.Path, imp.Alias})
	}
	wantImports := [][2]string{{"lib/math.iris", "m"}, {"util", "u"}, {"std/list", "list"}}
	if diff := cmp.Diff(wantImports, imports); diff != "" {
		t.Errorf("imports (-want +got):\n%s", diff)
	}

	if len(prog.Defs) != 3 {
		t.Fatalf("expected 3 defs, got %d", len(prog.Defs))
	}

	c, ok := prog.Defs[0].(*ast.DefConst)
	if !ok {
		t.Fatalf("def 0 is %T", prog.Defs[0])
	}
	if c.Name != "limit" || c.Doc != "upper bound" || dump(c.Value) != "10" {
		t.Errorf("unexpected const %+v", c)
	}

	fn, ok := prog.Defs[1].(*ast.DefFn)
	if !ok {
		t.Fatalf("def 1 is %T", prog.Defs[1])
	}
	if fn.Eff != typesystem.EffIO {
		t.Errorf("eff = %s", fn.Eff)
	}
	if fn.Meta.Doc != "entry" || fn.Meta.Requires != "true" || fn.Meta.Ensures != "result >= 0" {
		t.Errorf("meta = %+v", fn.Meta)
	}
	var caps []string
	for _, cp := range fn.Meta.Caps {
		caps = append(caps, cp.Name+":"+cp.Type.String())
	}
	if diff := cmp.Diff([]string{"fs:FS", "clock:Clock"}, caps); diff != "" {
		t.Errorf("caps (-want +got):\n%s", diff)
	}
	if got := dump(fn.Body); got != "{call m.add limit 1}" {
		t.Errorf("body = %s", got)
	}

	tool, ok := prog.Defs[2].(*ast.DefTool)
	if !ok {
		t.Fatalf("def 2 is %T", prog.Defs[2])
	}
	if got := tool.Signature().String(); got != "(Fn (Str) (Result Str Str) !Net)" {
		t.Errorf("tool signature = %s", got)
	}
	if path, ok := prog.ImportPath("u"); !ok || path != "util" {
		t.Errorf("ImportPath(u) = %q, %v", path, ok)
	}
}

func TestParseProgram_DefaultsAndOrder(t *testing.T) {
	prog, err := parser.ParseSource(`(program (defs) (module (name "late") (version 1)))`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prog.Module.Name != "late" {
		t.Errorf("module name = %q", prog.Module.Name)
	}

	prog, err = parser.ParseSource(`(program)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(ast.ModuleDecl{Name: "unknown"}, prog.Module); diff != "" {
		t.Errorf("default module (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  diagnostics.ErrorCode
		want  string
	}{
		{"unknown section", "(program (module (name \"a\") (version 1))\n(stuff))", diagnostics.ErrP002, "Unknown program section: stuff at line 2. Note: Previous section 'module' closed at 1:40"},
		{"unknown def", "(program (defs (defmacro x)))", diagnostics.ErrP002, "Unknown definition kind: defmacro"},
		{"unknown type", "(program (defs (type T (Set I64))))", diagnostics.ErrP003, "Unknown type constructor: Set"},
		{"unknown effect", "(program (defs (deffn (name f) (args) (ret I64) (eff !Disk) (body 1))))", diagnostics.ErrP004, "Unknown effect: !Disk"},
		{"effect without bang", "(program (defs (deffn (name f) (args) (ret I64) (eff IO) (body 1))))", diagnostics.ErrP004, "Expected effect starting with !"},
		{"missing body", "(program (defs (deffn (name f) (args) (ret I64) (eff !Pure))))", diagnostics.ErrP001, "Expected ( at 1:60, got )"},
		{"unexpected eof", "(program (defs", diagnostics.ErrP005, "Expected ( at"},
		{"wrong keyword", "(project)", diagnostics.ErrP001, "Expected symbol 'program' at 1:2, got 'project'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseSource(tt.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			de, ok := err.(*diagnostics.DiagnosticError)
			if !ok {
				t.Fatalf("error is %T", err)
			}
			if de.Code != tt.code {
				t.Errorf("code = %s, want %s (%s)", de.Code, tt.code, de.Message)
			}
			if !strings.Contains(de.Message, tt.want) {
				t.Errorf("message = %q, want it to contain %q", de.Message, tt.want)
			}
		})
	}
}

func TestParserProcessor(t *testing.T) {
	ctx := pipeline.NewPipelineContext(`(program (defs (defconst (name x) (type I64) (value 1))))`)
	ctx.FilePath = "main.iris"
	ctx = (&lexer.LexerProcessor{}).Process(ctx)
	ctx = (&parser.ParserProcessor{}).Process(ctx)
	if ctx.Failed() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if ctx.AstRoot == nil || ctx.AstRoot.File != "main.iris" {
		t.Fatalf("AstRoot = %+v", ctx.AstRoot)
	}

	ctx = pipeline.NewPipelineContext(`(program (bogus))`)
	ctx.FilePath = "bad.iris"
	ctx = (&lexer.LexerProcessor{}).Process(ctx)
	ctx = (&parser.ParserProcessor{}).Process(ctx)
	if len(ctx.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(ctx.Errors))
	}
	if ctx.Errors[0].File != "bad.iris" {
		t.Errorf("error file = %q", ctx.Errors[0].File)
	}
}
