package parser

import (
	"fmt"
	"log/slog"
	"math/big"
	"path"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/lexer"
	"github.com/funvibe/iris/internal/token"
)

// MaxRecursionDepth bounds form nesting.
const MaxRecursionDepth = 2000

// Parser is a recursive descent parser over a token slice. It stops at
// the first error; every parse method returns a zero value once failed.
type Parser struct {
	tokens []token.Token
	pos    int
	depth  int
	err    *diagnostics.DiagnosticError

	// Debug traces section and definition parsing through slog.
	Debug bool

	lastClosed *closedSection
}

type closedSection struct {
	name string
	tok  token.Token
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseSource lexes and parses a whole program.
func ParseSource(src string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, diagnostics.NewError(diagnostics.ErrL001, token.Token{}, err.Error())
	}
	prog, perr := New(tokens).ParseProgram()
	if perr != nil {
		return nil, perr
	}
	return prog, nil
}

// ParseExpressionSource parses a single expression.
func ParseExpressionSource(src string) (ast.Expression, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, diagnostics.NewError(diagnostics.ErrL001, token.Token{}, err.Error())
	}
	p := New(tokens)
	expr := p.parseExpr()
	if p.err == nil && !p.check(token.EOF) {
		p.fail(diagnostics.ErrP001, p.peek(), fmt.Sprintf("Unexpected trailing input at %s", p.peek().Pos()))
	}
	if p.err != nil {
		return nil, p.err
	}
	return expr, nil
}

func (p *Parser) log(msg string, args ...any) {
	if p.Debug {
		slog.Debug("[Parser] "+msg, args...)
	}
}

// ParseProgram parses (program (module ...) (imports ...) (defs ...)).
// Sections may appear in any order.
func (p *Parser) ParseProgram() (*ast.Program, *diagnostics.DiagnosticError) {
	prog := &ast.Program{Module: ast.ModuleDecl{Name: "unknown"}}

	p.expect(token.LPAREN)
	p.expectSymbol("program")

	for p.ok() && !p.check(token.RPAREN) {
		p.expect(token.LPAREN)
		sectionTok := p.peek()
		section := p.expectSymbol("")
		if !p.ok() {
			break
		}
		p.log("start section", "section", section, "line", sectionTok.Line)

		switch section {
		case "module":
			prog.Module = p.parseModuleDecl()
		case "imports":
			for p.ok() && !p.check(token.RPAREN) {
				if imp := p.parseImport(); imp != nil {
					prog.Imports = append(prog.Imports, imp)
				}
			}
			p.expect(token.RPAREN)
		case "defs":
			for p.ok() && !p.check(token.RPAREN) {
				if def := p.parseDefinition(); def != nil {
					prog.Defs = append(prog.Defs, def)
				}
			}
			p.expect(token.RPAREN)
		default:
			msg := fmt.Sprintf("Unknown program section: %s at line %d", section, sectionTok.Line)
			if p.lastClosed != nil {
				msg += fmt.Sprintf(". Note: Previous section '%s' closed at %s", p.lastClosed.name, p.lastClosed.tok.Pos())
			}
			p.fail(diagnostics.ErrP002, sectionTok, msg)
		}
		if p.ok() {
			p.lastClosed = &closedSection{name: section, tok: p.tokens[p.pos-1]}
		}
	}
	p.expect(token.RPAREN)

	if p.err != nil {
		return nil, p.err
	}
	return prog, nil
}

func (p *Parser) parseModuleDecl() ast.ModuleDecl {
	p.expect(token.LPAREN)
	p.expectSymbol("name")
	name := p.expectString()
	p.expect(token.RPAREN)
	p.expect(token.LPAREN)
	p.expectSymbol("version")
	version := p.expectInt()
	p.expect(token.RPAREN)
	p.expect(token.RPAREN)
	p.log("parsed module", "name", name, "version", version)
	return ast.ModuleDecl{Name: name, Version: version}
}

// parseImport accepts (import "path" (as "alias")) and
// (import (path "p") (alias "a")). Without an alias the last path
// segment is used.
func (p *Parser) parseImport() *ast.Import {
	tok := p.peek()
	p.expect(token.LPAREN)
	p.expectSymbol("import")
	imp := &ast.Import{Token: tok}

	if p.check(token.STRING) {
		imp.Path = p.expectString()
	}
	for p.ok() && p.check(token.LPAREN) {
		p.expect(token.LPAREN)
		key := p.expectSymbol("")
		switch key {
		case "as", "alias":
			imp.Alias = p.expectString()
		case "path":
			imp.Path = p.expectString()
		default:
			p.fail(diagnostics.ErrP002, p.prev(), fmt.Sprintf("Unknown import option: %s", key))
		}
		p.expect(token.RPAREN)
	}
	p.expect(token.RPAREN)
	if !p.ok() {
		return nil
	}
	if imp.Path == "" {
		p.fail(diagnostics.ErrP001, tok, fmt.Sprintf("Import at %s has no path", tok.Pos()))
		return nil
	}
	if imp.Alias == "" {
		imp.Alias = config.TrimSourceExt(path.Base(imp.Path))
	}
	return imp
}

// --- token helpers ---

func (p *Parser) ok() bool { return p.err == nil }

func (p *Parser) fail(code diagnostics.ErrorCode, tok token.Token, msg string) {
	if p.err == nil {
		p.err = diagnostics.NewError(code, tok, msg)
		p.log("error", "msg", msg)
	}
}

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) prev() token.Token {
	if p.pos == 0 || p.pos > len(p.tokens) {
		return token.Token{}
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(t token.TokenType) bool {
	return p.peek().Type == t
}

// checkForm reports whether the next tokens open a form headed by sym.
func (p *Parser) checkForm(sym string) bool {
	if !p.check(token.LPAREN) || p.pos+1 >= len(p.tokens) {
		return false
	}
	next := p.tokens[p.pos+1]
	return next.Type == token.SYMBOL && next.Lexeme == sym
}

func describe(tok token.Token) string {
	if tok.Lexeme == "" {
		return string(tok.Type)
	}
	return fmt.Sprintf("%s '%s'", tok.Type, tok.Lexeme)
}

func (p *Parser) expect(t token.TokenType) token.Token {
	if !p.ok() {
		return token.Token{}
	}
	tok := p.peek()
	if tok.Type != t {
		code := diagnostics.ErrP001
		if tok.Type == token.EOF {
			code = diagnostics.ErrP005
		}
		p.fail(code, tok, fmt.Sprintf("Expected %s at %s, got %s", t, tok.Pos(), describe(tok)))
		return token.Token{}
	}
	return p.advance()
}

// expectSymbol consumes a symbol; a non-empty want must match exactly.
func (p *Parser) expectSymbol(want string) string {
	if !p.ok() {
		return ""
	}
	tok := p.peek()
	if tok.Type != token.SYMBOL {
		p.fail(diagnostics.ErrP001, tok, fmt.Sprintf("Expected Symbol at %s, got %s", tok.Pos(), describe(tok)))
		return ""
	}
	if want != "" && tok.Lexeme != want {
		p.fail(diagnostics.ErrP001, tok, fmt.Sprintf("Expected symbol '%s' at %s, got '%s'", want, tok.Pos(), tok.Lexeme))
		return ""
	}
	p.advance()
	return tok.Lexeme
}

func (p *Parser) expectString() string {
	if !p.ok() {
		return ""
	}
	tok := p.peek()
	if tok.Type != token.STRING {
		p.fail(diagnostics.ErrP001, tok, fmt.Sprintf("Expected String at %s, got %s", tok.Pos(), describe(tok)))
		return ""
	}
	p.advance()
	return tok.Literal.(string)
}

func (p *Parser) expectInt() int64 {
	if !p.ok() {
		return 0
	}
	tok := p.peek()
	if tok.Type != token.INT {
		p.fail(diagnostics.ErrP001, tok, fmt.Sprintf("Expected Int at %s, got %s", tok.Pos(), describe(tok)))
		return 0
	}
	p.advance()
	return tok.Literal.(*big.Int).Int64()
}

// skipForm skips one token or one balanced parenthesized form.
func (p *Parser) skipForm() {
	if !p.check(token.LPAREN) {
		p.advance()
		return
	}
	depth := 0
	for !p.check(token.EOF) {
		switch p.advance().Type {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
		}
		if depth == 0 {
			return
		}
	}
	p.fail(diagnostics.ErrP005, p.peek(), "Unexpected end of input")
}
