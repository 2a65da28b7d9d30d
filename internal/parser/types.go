package parser

import (
	"fmt"
	"strings"

	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/token"
	"github.com/funvibe/iris/internal/typesystem"
)

// parseType reads a type. Bare symbols are primitives or references to
// named types; parenthesized forms are constructors.
func (p *Parser) parseType() typesystem.Type {
	if !p.ok() {
		return nil
	}
	tok := p.peek()
	switch tok.Type {
	case token.SYMBOL:
		p.advance()
		switch tok.Lexeme {
		case "I64":
			return typesystem.I64
		case "Bool":
			return typesystem.Bool
		case "Str":
			return typesystem.Str
		case "Union":
			// bare forms read entries up to the enclosing paren
			return p.parseTagVariants(false)
		case "Record":
			return p.parseRecordFields()
		}
		return typesystem.TNamed{Name: tok.Lexeme}
	case token.LPAREN:
		return p.parseTypeForm()
	}
	p.fail(diagnostics.ErrP003, tok, fmt.Sprintf("Unexpected token in type at %s, got %s", tok.Pos(), describe(tok)))
	return nil
}

func (p *Parser) parseTypeForm() typesystem.Type {
	if !p.enter() {
		return nil
	}
	defer p.leave()

	p.expect(token.LPAREN)
	headTok := p.peek()
	if headTok.Type != token.SYMBOL {
		p.fail(diagnostics.ErrP003, headTok, fmt.Sprintf("Expected type constructor at %s", headTok.Pos()))
		return nil
	}
	p.advance()

	var t typesystem.Type
	switch headTok.Lexeme {
	case "Option":
		t = typesystem.TOption{Inner: p.parseType()}
	case "Result":
		ok := p.parseType()
		t = typesystem.TResult{Ok: ok, Err: p.parseType()}
	case "List":
		t = typesystem.TList{Inner: p.parseType()}
	case "Map":
		key := p.parseType()
		t = typesystem.TMap{Key: key, Value: p.parseType()}
	case "Record":
		t = p.parseRecordFields()
	case "Tuple":
		var items []typesystem.Type
		for p.ok() && !p.check(token.RPAREN) {
			items = append(items, p.parseType())
		}
		t = typesystem.TTuple{Items: items}
	case "Union":
		t = p.parseTagVariants(false)
	case "union":
		t = p.parseTagVariants(true)
	case "Fn":
		t = p.parseFnType()
	default:
		p.fail(diagnostics.ErrP003, headTok, fmt.Sprintf("Unknown type constructor: %s", headTok.Lexeme))
		return nil
	}
	p.expect(token.RPAREN)
	if !p.ok() {
		return nil
	}
	return t
}

// parseRecordFields reads (f T)... up to, not including, ')'.
func (p *Parser) parseRecordFields() typesystem.Type {
	fields := make(map[string]typesystem.Type)
	for p.ok() && !p.check(token.RPAREN) {
		p.expect(token.LPAREN)
		name := p.expectSymbol("")
		fields[name] = p.parseType()
		p.expect(token.RPAREN)
	}
	if !p.ok() {
		return nil
	}
	return typesystem.TRecord{Fields: fields}
}

// parseTagVariants reads (tag "Name" payload)... up to ')'.
// In the lowercase union form the payload is a parenthesized list of
// types: one type stands for itself, any other count forms a tuple.
func (p *Parser) parseTagVariants(grouped bool) typesystem.Type {
	variants := make(map[string]typesystem.Type)
	for p.ok() && !p.check(token.RPAREN) {
		p.expect(token.LPAREN)
		p.expectSymbol("tag")
		name := p.expectString()
		if grouped {
			var args []typesystem.Type
			if p.check(token.LPAREN) {
				p.expect(token.LPAREN)
				for p.ok() && !p.check(token.RPAREN) {
					args = append(args, p.parseType())
				}
				p.expect(token.RPAREN)
			}
			if len(args) == 1 {
				variants[name] = args[0]
			} else {
				variants[name] = typesystem.TTuple{Items: args}
			}
		} else {
			variants[name] = p.parseType()
		}
		p.expect(token.RPAREN)
	}
	if !p.ok() {
		return nil
	}
	return typesystem.TUnion{Variants: variants}
}

// parseFnType reads the body of (Fn (Args...) Ret [!Eff]).
func (p *Parser) parseFnType() typesystem.Type {
	p.expect(token.LPAREN)
	var args []typesystem.Type
	for p.ok() && !p.check(token.RPAREN) {
		args = append(args, p.parseType())
	}
	p.expect(token.RPAREN)
	ret := p.parseType()
	eff := typesystem.EffPure
	if p.check(token.SYMBOL) {
		eff = p.parseEffect()
	}
	return typesystem.TFn{Args: args, Ret: ret, Eff: eff}
}

func (p *Parser) parseEffect() typesystem.Effect {
	if !p.ok() {
		return typesystem.EffPure
	}
	tok := p.peek()
	if tok.Type != token.SYMBOL || !strings.HasPrefix(tok.Lexeme, "!") {
		p.fail(diagnostics.ErrP004, tok, "Expected effect starting with !")
		return typesystem.EffPure
	}
	p.advance()
	eff, ok := typesystem.ParseEffect(tok.Lexeme)
	if !ok {
		p.fail(diagnostics.ErrP004, tok, fmt.Sprintf("Unknown effect: %s", tok.Lexeme))
	}
	return eff
}

func (p *Parser) enter() bool {
	p.depth++
	if p.depth > MaxRecursionDepth {
		p.fail(diagnostics.ErrP001, p.peek(), fmt.Sprintf("Nesting too deep at %s", p.peek().Pos()))
		return false
	}
	return true
}

func (p *Parser) leave() { p.depth-- }
