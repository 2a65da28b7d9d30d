package parser

import (
	"fmt"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/token"
	"github.com/funvibe/iris/internal/typesystem"
)

// metaTags selects which meta sections a definition accepts; the rest
// are skipped.
type metaTags struct {
	doc, requires, ensures, caps bool
}

var (
	docOnly = metaTags{doc: true}
	allMeta = metaTags{doc: true, requires: true, ensures: true, caps: true}
)

func (p *Parser) parseDefinition() ast.Definition {
	tok := p.peek()
	p.expect(token.LPAREN)
	kindTok := p.peek()
	kind := p.expectSymbol("")
	if !p.ok() {
		return nil
	}
	p.log("parsing definition", "kind", kind, "pos", tok.Pos())

	switch kind {
	case "defconst":
		return p.parseDefConst(tok)
	case "deffn":
		return p.parseDefFn(tok)
	case "deftool":
		return p.parseDefTool(tok)
	case "type", "deftype":
		return p.parseTypeDef(tok)
	}
	p.fail(diagnostics.ErrP002, kindTok, fmt.Sprintf("Unknown definition kind: %s", kind))
	return nil
}

func (p *Parser) parseDefConst(tok token.Token) ast.Definition {
	def := &ast.DefConst{Token: tok}
	def.Name = p.parseNamed("name")
	p.expect(token.LPAREN)
	p.expectSymbol("type")
	def.Type = p.parseType()
	p.expect(token.RPAREN)

	var meta ast.Meta
	for p.ok() && p.check(token.LPAREN) && !p.checkForm("value") {
		p.parseMeta(&meta, docOnly)
	}
	def.Doc = meta.Doc

	p.expect(token.LPAREN)
	p.expectSymbol("value")
	def.Value = p.parseExpr()
	p.expect(token.RPAREN)
	p.expect(token.RPAREN)
	if !p.ok() {
		return nil
	}
	return def
}

func (p *Parser) parseDefFn(tok token.Token) ast.Definition {
	def := &ast.DefFn{Token: tok}
	def.Name = p.parseNamed("name")
	def.Args = p.parseArgs()
	def.Ret = p.parseRet()
	def.Eff = p.parseEffSection()

	for p.ok() && p.check(token.LPAREN) && !p.checkForm("body") {
		p.parseMeta(&def.Meta, allMeta)
	}

	p.expect(token.LPAREN)
	p.expectSymbol("body")
	def.Body = p.parseExpr()
	p.expect(token.RPAREN)
	p.expect(token.RPAREN)
	if !p.ok() {
		return nil
	}
	return def
}

func (p *Parser) parseDefTool(tok token.Token) ast.Definition {
	def := &ast.DefTool{Token: tok}
	def.Name = p.parseNamed("name")
	def.Args = p.parseArgs()
	def.Ret = p.parseRet()
	def.Eff = p.parseEffSection()
	for p.ok() && p.check(token.LPAREN) {
		p.parseMeta(&def.Meta, allMeta)
	}
	p.expect(token.RPAREN)
	if !p.ok() {
		return nil
	}
	return def
}

func (p *Parser) parseTypeDef(tok token.Token) ast.Definition {
	def := &ast.TypeDef{Token: tok}
	def.Name = p.expectSymbol("")
	def.Type = p.parseType()
	var meta ast.Meta
	for p.ok() && p.check(token.LPAREN) {
		p.parseMeta(&meta, docOnly)
	}
	def.Doc = meta.Doc
	p.expect(token.RPAREN)
	if !p.ok() {
		return nil
	}
	return def
}

// parseNamed reads (tag symbol).
func (p *Parser) parseNamed(tag string) string {
	p.expect(token.LPAREN)
	p.expectSymbol(tag)
	name := p.expectSymbol("")
	p.expect(token.RPAREN)
	return name
}

// parseArgs reads (args (x T)...).
func (p *Parser) parseArgs() []ast.Arg {
	p.expect(token.LPAREN)
	p.expectSymbol("args")
	var args []ast.Arg
	for p.ok() && !p.check(token.RPAREN) {
		p.expect(token.LPAREN)
		name := p.expectSymbol("")
		typ := p.parseType()
		p.expect(token.RPAREN)
		args = append(args, ast.Arg{Name: name, Type: typ})
	}
	p.expect(token.RPAREN)
	return args
}

func (p *Parser) parseRet() typesystem.Type {
	p.expect(token.LPAREN)
	p.expectSymbol("ret")
	t := p.parseType()
	p.expect(token.RPAREN)
	return t
}

func (p *Parser) parseEffSection() typesystem.Effect {
	p.expect(token.LPAREN)
	p.expectSymbol("eff")
	eff := p.parseEffect()
	p.expect(token.RPAREN)
	return eff
}

// parseMeta reads one (doc ...), (requires ...), (ensures ...) or
// (caps ...) section. Unknown or disallowed sections are skipped whole.
func (p *Parser) parseMeta(meta *ast.Meta, allowed metaTags) {
	if p.pos+1 >= len(p.tokens) || p.tokens[p.pos+1].Type != token.SYMBOL {
		p.skipForm()
		return
	}
	tag := p.tokens[p.pos+1].Lexeme
	switch {
	case tag == "doc" && allowed.doc:
		meta.Doc = p.parseTagString()
	case tag == "requires" && allowed.requires:
		meta.Requires = p.parseTagString()
	case tag == "ensures" && allowed.ensures:
		meta.Ensures = p.parseTagString()
	case tag == "caps" && allowed.caps:
		p.expect(token.LPAREN)
		p.expectSymbol("caps")
		var caps []ast.Capability
		for p.ok() && !p.check(token.RPAREN) {
			p.expect(token.LPAREN)
			name := p.expectSymbol("")
			typ := p.parseType()
			p.expect(token.RPAREN)
			caps = append(caps, ast.Capability{Name: name, Type: typ})
		}
		p.expect(token.RPAREN)
		meta.Caps = caps
	default:
		p.skipForm()
	}
}

func (p *Parser) parseTagString() string {
	p.expect(token.LPAREN)
	p.expectSymbol("")
	s := p.expectString()
	p.expect(token.RPAREN)
	return s
}
