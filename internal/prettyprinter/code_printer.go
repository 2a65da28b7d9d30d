package prettyprinter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/parser"
	"github.com/funvibe/iris/internal/typesystem"
)

// --- Code Printer (output is canonical Iris source) ---

const indentWidth = 2

// reservedHeads are form heads with their own syntax; calls to functions
// with these names must be spelled (call f ...).
var reservedHeads = map[string]bool{
	"let": true, "record": true, "if": true, "match": true, "call": true,
	"list": true, "list-of": true, "tuple": true, "union": true, "tag": true,
	"lambda": true,
}

var stringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

type CodePrinter struct {
	buf       bytes.Buffer
	indent    int
	lineWidth int // max line width (0 = unlimited)
	column    int // current column position
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{lineWidth: 80}
}

func NewCodePrinterWithWidth(width int) *CodePrinter {
	return &CodePrinter{lineWidth: width}
}

func (p *CodePrinter) SetLineWidth(width int) {
	p.lineWidth = width
}

// Format prints prog with the default line width.
func Format(prog *ast.Program) string {
	return NewCodePrinter().Print(prog)
}

// FormatSource parses src and prints it back in canonical form.
// Comments are not preserved.
func FormatSource(src string) (string, error) {
	prog, err := parser.ParseSource(src)
	if err != nil {
		return "", err
	}
	return Format(prog), nil
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
	if idx := strings.LastIndex(s, "\n"); idx != -1 {
		p.column = len(s) - idx - 1
	} else {
		p.column += len(s)
	}
}

// newline starts a new line at the current indent.
func (p *CodePrinter) newline() {
	p.buf.WriteString("\n")
	p.buf.WriteString(strings.Repeat(" ", p.indent))
	p.column = p.indent
}

func (p *CodePrinter) fits(s string) bool {
	return p.lineWidth == 0 || (!strings.Contains(s, "\n") && p.column+len(s) <= p.lineWidth)
}

// nested runs fn one indent level deeper.
func (p *CodePrinter) nested(fn func()) {
	p.indent += indentWidth
	fn()
	p.indent -= indentWidth
}

// Print renders a whole program.
func (p *CodePrinter) Print(prog *ast.Program) string {
	p.buf.Reset()
	p.indent, p.column = 0, 0

	p.write("(program")
	p.nested(func() {
		if prog.Module.Name != "" && prog.Module.Name != "unknown" {
			p.newline()
			p.write("(module (name " + quote(prog.Module.Name) + ") (version " + strconv.FormatInt(prog.Module.Version, 10) + "))")
		}
		if len(prog.Imports) > 0 {
			p.newline()
			p.write("(imports")
			p.nested(func() {
				for _, imp := range prog.Imports {
					p.newline()
					p.write("(import " + quote(imp.Path) + " (as " + quote(imp.Alias) + "))")
				}
			})
			p.write(")")
		}
		p.newline()
		p.write("(defs")
		p.nested(func() {
			for _, def := range prog.Defs {
				p.newline()
				p.printDefinition(def)
			}
		})
		p.write(")")
	})
	p.write(")\n")
	return p.buf.String()
}

func (p *CodePrinter) printDefinition(def ast.Definition) {
	switch d := def.(type) {
	case *ast.DefConst:
		p.write("(defconst (name " + d.Name + ") (type " + typeString(d.Type) + ")")
		p.nested(func() {
			p.printMeta(ast.Meta{Doc: d.Doc})
			p.newline()
			p.printSection("value", d.Value)
		})
		p.write(")")
	case *ast.DefFn:
		p.write("(deffn " + signatureString(d.Name, d.Args, d.Ret, d.Eff))
		p.nested(func() {
			p.printMeta(d.Meta)
			p.newline()
			p.printSection("body", d.Body)
		})
		p.write(")")
	case *ast.DefTool:
		p.write("(deftool " + signatureString(d.Name, d.Args, d.Ret, d.Eff))
		p.nested(func() { p.printMeta(d.Meta) })
		p.write(")")
	case *ast.TypeDef:
		p.write("(type " + d.Name + " " + typeString(d.Type))
		p.nested(func() { p.printMeta(ast.Meta{Doc: d.Doc}) })
		p.write(")")
	}
}

func (p *CodePrinter) printMeta(m ast.Meta) {
	tags := []struct{ name, value string }{
		{"doc", m.Doc}, {"requires", m.Requires}, {"ensures", m.Ensures},
	}
	for _, t := range tags {
		if t.value != "" {
			p.newline()
			p.write("(" + t.name + " " + quote(t.value) + ")")
		}
	}
	if len(m.Caps) > 0 {
		parts := make([]string, len(m.Caps))
		for i, c := range m.Caps {
			parts[i] = "(" + c.Name + " " + typeString(c.Type) + ")"
		}
		p.newline()
		p.write("(caps " + strings.Join(parts, " ") + ")")
	}
}

// printSection writes (name expr), breaking after name when expr does
// not fit on the line.
func (p *CodePrinter) printSection(name string, expr ast.Expression) {
	flat := "(" + name + " " + flatExpr(expr) + ")"
	if p.fits(flat) {
		p.write(flat)
		return
	}
	p.write("(" + name)
	p.nested(func() {
		p.newline()
		p.printExpr(expr)
	})
	p.write(")")
}

// PrintExpr renders a single expression.
func (p *CodePrinter) PrintExpr(expr ast.Expression) string {
	p.buf.Reset()
	p.indent, p.column = 0, 0
	p.printExpr(expr)
	return p.buf.String()
}

// printExpr writes expr on one line when it fits and otherwise breaks
// it with children indented under the head.
func (p *CodePrinter) printExpr(expr ast.Expression) {
	flat := flatExpr(expr)
	if p.fits(flat) {
		p.write(flat)
		return
	}

	switch e := expr.(type) {
	case *ast.Let:
		p.write("(let (" + e.Name + " ")
		p.printExpr(e.Value)
		p.write(")")
		p.nested(func() {
			p.newline()
			p.printExpr(e.Body)
		})
		p.write(")")
	case *ast.If:
		p.write("(if ")
		p.printExpr(e.Cond)
		p.nested(func() {
			p.newline()
			p.printExpr(e.Then)
			p.newline()
			p.printExpr(e.Else)
		})
		p.write(")")
	case *ast.Match:
		p.write("(match ")
		p.printExpr(e.Target)
		p.nested(func() {
			for _, c := range e.Cases {
				p.newline()
				p.printCase(c)
			}
		})
		p.write(")")
	case *ast.Lambda:
		p.write("(lambda " + argsString(e.Args) + " (ret " + typeString(e.Ret) + ") (eff " + e.Eff.String() + ")")
		p.nested(func() {
			p.newline()
			p.printSection("body", e.Body)
		})
		p.write(")")
	case *ast.Record:
		p.write("(record")
		p.nested(func() {
			for _, f := range e.Fields {
				p.newline()
				p.printSection(f.Key, f.Value)
			}
		})
		p.write(")")
	case *ast.Tagged:
		p.write("(tag " + quote(e.Tag))
		p.nested(func() {
			p.newline()
			p.printExpr(e.Value)
		})
		p.write(")")
	case *ast.Call:
		p.printApplication(callHead(e.Fn), e.Args)
	case *ast.Intrinsic:
		p.printApplication(e.Op, e.Args)
	case *ast.Tuple:
		p.printApplication("tuple", e.Items)
	case *ast.List:
		head := "list"
		if e.TypeArg != nil {
			head = "list-of " + typeString(e.TypeArg)
		}
		p.printApplication(head, e.Items)
	default:
		// atoms never break
		p.write(flat)
	}
}

func (p *CodePrinter) printCase(c *ast.MatchCase) {
	pattern := casePattern(c)
	flat := "(case " + pattern + " " + flatExpr(c.Body) + ")"
	if p.fits(flat) {
		p.write(flat)
		return
	}
	p.write("(case " + pattern)
	p.nested(func() {
		p.newline()
		p.printExpr(c.Body)
	})
	p.write(")")
}

func (p *CodePrinter) printApplication(head string, args []ast.Expression) {
	p.write("(" + head)
	p.nested(func() {
		for _, a := range args {
			p.newline()
			p.printExpr(a)
		}
	})
	p.write(")")
}

// flatExpr renders expr on a single line.
func flatExpr(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Literal:
		switch e.Kind {
		case ast.LitI64:
			return e.Int.String()
		case ast.LitBool:
			return strconv.FormatBool(e.Bool)
		case ast.LitStr:
			return quote(e.Str)
		case ast.LitNone:
			return config.NoneLiteral
		case ast.LitNil:
			return config.NilLiteral
		}
	case *ast.Var:
		return e.Name
	case *ast.Let:
		return "(let (" + e.Name + " " + flatExpr(e.Value) + ") " + flatExpr(e.Body) + ")"
	case *ast.If:
		return "(if " + flatExpr(e.Cond) + " " + flatExpr(e.Then) + " " + flatExpr(e.Else) + ")"
	case *ast.Match:
		parts := []string{"match", flatExpr(e.Target)}
		for _, c := range e.Cases {
			parts = append(parts, "(case "+casePattern(c)+" "+flatExpr(c.Body)+")")
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *ast.Call:
		return flatApplication(callHead(e.Fn), e.Args)
	case *ast.Intrinsic:
		return flatApplication(e.Op, e.Args)
	case *ast.Record:
		parts := []string{"record"}
		for _, f := range e.Fields {
			parts = append(parts, "("+f.Key+" "+flatExpr(f.Value)+")")
		}
		return "(" + strings.Join(parts, " ") + ")"
	case *ast.Tagged:
		if t, ok := e.Value.(*ast.Tuple); ok && len(t.Items) == 0 {
			return "(tag " + quote(e.Tag) + ")"
		}
		return "(tag " + quote(e.Tag) + " " + flatExpr(e.Value) + ")"
	case *ast.Tuple:
		return flatApplication("tuple", e.Items)
	case *ast.List:
		if e.TypeArg != nil {
			return flatApplication("list-of "+typeString(e.TypeArg), e.Items)
		}
		return flatApplication("list", e.Items)
	case *ast.Lambda:
		return "(lambda " + argsString(e.Args) + " (ret " + typeString(e.Ret) + ") (eff " + e.Eff.String() + ") (body " + flatExpr(e.Body) + "))"
	}
	return "<?>"
}

func flatApplication(head string, args []ast.Expression) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, head)
	for _, a := range args {
		parts = append(parts, flatExpr(a))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func callHead(fn string) string {
	if reservedHeads[fn] || config.IsIntrinsicHead(fn) {
		return "call " + fn
	}
	return fn
}

func casePattern(c *ast.MatchCase) string {
	if len(c.Vars) == 0 {
		return "(tag " + quote(c.Tag) + ")"
	}
	return "(tag " + quote(c.Tag) + " (" + strings.Join(c.Vars, " ") + "))"
}

func signatureString(name string, args []ast.Arg, ret typesystem.Type, eff typesystem.Effect) string {
	return "(name " + name + ") " + argsString(args) + " (ret " + typeString(ret) + ") (eff " + eff.String() + ")"
}

func argsString(args []ast.Arg) string {
	parts := []string{"args"}
	for _, a := range args {
		parts = append(parts, "("+a.Name+" "+typeString(a.Type)+")")
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func typeString(t typesystem.Type) string {
	if t == nil {
		return "<?>"
	}
	return t.String()
}

func quote(s string) string {
	return `"` + stringEscaper.Replace(s) + `"`
}
