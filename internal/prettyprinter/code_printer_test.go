package prettyprinter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/iris/internal/parser"
)

const messyProgram = `(program (module (name "demo") (version 2)) (imports (import "lib/geo" (as "g")))
 (defs (type Point (Record (y I64) (x I64)))
  (defconst (name origin) (type Point) (value (record (x 0) (y 0))))
  (deffn (name norm) (args (p Point)) (ret I64) (eff !Pure) (doc "squared length")
    (body (+ (* p.x p.x) (* p.y p.y))))
  (deftool (name ask) (args (q Str)) (ret Str) (eff !Net))
  ; comments are dropped
  (deffn (name main) (args) (ret I64) (eff !IO) (body (let (n (norm origin)) (let (u (io.print (i64.to_string n))) n))))))`

const formattedProgram = `(program
  (module (name "demo") (version 2))
  (imports
    (import "lib/geo" (as "g")))
  (defs
    (type Point (Record (x I64) (y I64)))
    (defconst (name origin) (type Point)
      (value (record (x 0) (y 0))))
    (deffn (name norm) (args (p Point)) (ret I64) (eff !Pure)
      (doc "squared length")
      (body (+ (* p.x p.x) (* p.y p.y))))
    (deftool (name ask) (args (q Str)) (ret Str) (eff !Net))
    (deffn (name main) (args) (ret I64) (eff !IO)
      (body
        (let (n (norm origin))
          (let (u (io.print (i64.to_string n)))
            n))))))
`

func TestPrintProgram(t *testing.T) {
	prog, err := parser.ParseSource(messyProgram)
	if err != nil {
		t.Fatal(err)
	}
	got := NewCodePrinterWithWidth(48).Print(prog)
	if diff := cmp.Diff(formattedProgram, got); diff != "" {
		t.Errorf("formatted program mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintExpr(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`42`, `42`},
		{`"a\"b\n"`, `"a\"b\n"`},
		{`None`, `None`},
		{`nil`, `nil`},
		{`((+ 1 2))`, `(+ 1 2)`},
		{`(1 "x")`, `(tuple 1 "x")`},
		{`(union "Pair" 1 2)`, `(tag "Pair" (tuple 1 2))`},
		{`(union "One" 1)`, `(tag "One" 1)`},
		{`(tag "None")`, `(tag "None")`},
		{`(call tuple 1 2)`, `(call tuple 1 2)`},
		{`(call f 1)`, `(f 1)`},
		{`(list-of Str)`, `(list-of Str)`},
		{`(match o (case (tag "Some" (v)) v) (case (tag "_") 0))`, `(match o (case (tag "Some" (v)) v) (case (tag "_") 0))`},
		{`(lambda (args (x I64)) (ret I64) (eff !Infer) (body x))`, `(lambda (args (x I64)) (ret I64) (eff !Infer) (body x))`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := parser.ParseExpressionSource(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if got := NewCodePrinter().PrintExpr(expr); got != tt.want {
				t.Errorf("PrintExpr(%s) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestBrokenExpressions(t *testing.T) {
	expr, err := parser.ParseExpressionSource(`(match (f 1) (case (tag "Ok" (v)) (+ v 1)) (case (tag "Err" (e)) 0))`)
	if err != nil {
		t.Fatal(err)
	}
	want := `(match (f 1)
  (case (tag "Ok" (v))
    (+ v 1))
  (case (tag "Err" (e))
    0))`
	if got := NewCodePrinterWithWidth(20).PrintExpr(expr); got != want {
		t.Errorf("PrintExpr =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatIsIdempotent(t *testing.T) {
	sources := []string{
		messyProgram,
		`(program (defs (deffn (name f) (args (xs (List I64))) (ret I64) (eff !Pure)
			(body (match xs (case (tag "cons" (h t)) (+ h (f t))) (case (tag "nil") 0))))))`,
		`(program (defs (deffn (name g) (args) (ret (Fn (I64) I64 !Pure)) (eff !Pure) (caps (fs FS))
			(body (lambda (args (x I64)) (ret I64) (eff !Pure) (body (if (< x 0) (- 0 x) x)))))))`,
		`(program (defs (type Shape (Union (tag "Circle" I64) (tag "Rect" (Tuple I64 I64))))
			(defconst (name s) (type Shape) (doc "a shape") (value (union "Rect" 1 2)))))`,
	}

	for _, src := range sources {
		once, err := FormatSource(src)
		if err != nil {
			t.Fatalf("FormatSource: %v\n%s", err, src)
		}
		twice, err := FormatSource(once)
		if err != nil {
			t.Fatalf("formatted output does not parse: %v\n%s", err, once)
		}
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("format is not idempotent (-once +twice):\n%s", diff)
		}
	}
}

func TestFormatSourceReportsParseErrors(t *testing.T) {
	if _, err := FormatSource(`(program (defs`); err == nil {
		t.Error("expected a parse error")
	}
}
