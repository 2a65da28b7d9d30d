package parser

import (
	"fmt"
	"math/big"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/token"
)

func (p *Parser) parseExpr() ast.Expression {
	if !p.ok() {
		return nil
	}
	tok := p.peek()
	switch tok.Type {
	case token.INT:
		p.advance()
		return &ast.Literal{Token: tok, Kind: ast.LitI64, Int: tok.Literal.(*big.Int)}
	case token.BOOL:
		p.advance()
		return &ast.Literal{Token: tok, Kind: ast.LitBool, Bool: tok.Literal.(bool)}
	case token.STRING:
		p.advance()
		return &ast.Literal{Token: tok, Kind: ast.LitStr, Str: tok.Literal.(string)}
	case token.SYMBOL:
		p.advance()
		switch tok.Lexeme {
		case config.NoneLiteral:
			return &ast.Literal{Token: tok, Kind: ast.LitNone}
		case config.NilLiteral:
			return &ast.Literal{Token: tok, Kind: ast.LitNil}
		}
		return &ast.Var{Token: tok, Name: tok.Lexeme}
	case token.LPAREN:
		if !p.enter() {
			return nil
		}
		defer p.leave()
		return p.parseForm()
	}
	code := diagnostics.ErrP001
	if tok.Type == token.EOF {
		code = diagnostics.ErrP005
	}
	p.fail(code, tok, fmt.Sprintf("Unexpected token for expression: %s at %s", tok.Type, tok.Pos()))
	return nil
}

// parseForm reads a parenthesized expression.
func (p *Parser) parseForm() ast.Expression {
	tok := p.expect(token.LPAREN)
	head := p.peek()

	if head.Type != token.SYMBOL {
		// (e) groups, (e1 e2 ...) is a tuple
		items := p.parseExprsUntilClose()
		if !p.ok() {
			return nil
		}
		if len(items) == 1 {
			return items[0]
		}
		return &ast.Tuple{Token: tok, Items: items}
	}
	p.advance()
	op := head.Lexeme

	var expr ast.Expression
	switch op {
	case "let":
		expr = p.parseLet(tok)
	case "record":
		expr = p.parseRecord(tok)
	case "if":
		cond := p.parseExpr()
		then := p.parseExpr()
		els := p.parseExpr()
		p.expect(token.RPAREN)
		expr = &ast.If{Token: tok, Cond: cond, Then: then, Else: els}
	case "match":
		expr = p.parseMatch(tok)
	case "call":
		fn := p.expectSymbol("")
		expr = &ast.Call{Token: tok, Fn: fn, Args: p.parseExprsUntilClose()}
	case "list":
		expr = &ast.List{Token: tok, Items: p.parseExprsUntilClose()}
	case "list-of":
		typeArg := p.parseType()
		expr = &ast.List{Token: tok, TypeArg: typeArg, Items: p.parseExprsUntilClose()}
	case "tuple":
		expr = &ast.Tuple{Token: tok, Items: p.parseExprsUntilClose()}
	case "union":
		tag := p.expectString()
		args := p.parseExprsUntilClose()
		var value ast.Expression
		if len(args) == 1 {
			value = args[0]
		} else {
			value = &ast.Tuple{Token: tok, Items: args}
		}
		expr = &ast.Tagged{Token: tok, Tag: tag, Value: value}
	case "tag":
		tag := p.expectString()
		var value ast.Expression = &ast.Tuple{Token: tok}
		if !p.check(token.RPAREN) {
			value = p.parseExpr()
		}
		p.expect(token.RPAREN)
		expr = &ast.Tagged{Token: tok, Tag: tag, Value: value}
	case "lambda":
		expr = p.parseLambda(tok)
	default:
		args := p.parseExprsUntilClose()
		if config.IsIntrinsicHead(op) {
			expr = &ast.Intrinsic{Token: tok, Op: op, Args: args}
		} else {
			expr = &ast.Call{Token: tok, Fn: op, Args: args}
		}
	}
	if !p.ok() {
		return nil
	}
	return expr
}

// parseExprsUntilClose reads expressions up to and including ')'.
func (p *Parser) parseExprsUntilClose() []ast.Expression {
	var items []ast.Expression
	for p.ok() && !p.check(token.RPAREN) {
		items = append(items, p.parseExpr())
	}
	p.expect(token.RPAREN)
	return items
}

func (p *Parser) parseLet(tok token.Token) ast.Expression {
	p.expect(token.LPAREN)
	name := p.expectSymbol("")
	value := p.parseExpr()
	p.expect(token.RPAREN)
	body := p.parseExpr()
	p.expect(token.RPAREN)
	return &ast.Let{Token: tok, Name: name, Value: value, Body: body}
}

func (p *Parser) parseRecord(tok token.Token) ast.Expression {
	rec := &ast.Record{Token: tok}
	for p.ok() && !p.check(token.RPAREN) {
		p.expect(token.LPAREN)
		key := p.expectSymbol("")
		value := p.parseExpr()
		p.expect(token.RPAREN)
		rec.Fields = append(rec.Fields, ast.RecordField{Key: key, Value: value})
	}
	p.expect(token.RPAREN)
	return rec
}

// parseMatch reads (match target (case (tag "T" [(vars...)]) body)...).
func (p *Parser) parseMatch(tok token.Token) ast.Expression {
	m := &ast.Match{Token: tok, Target: p.parseExpr()}
	for p.ok() && !p.check(token.RPAREN) {
		caseTok := p.expect(token.LPAREN)
		p.expectSymbol("case")
		p.expect(token.LPAREN)
		p.expectSymbol("tag")
		c := &ast.MatchCase{Token: caseTok, Tag: p.expectString()}
		if p.check(token.LPAREN) {
			p.expect(token.LPAREN)
			for p.ok() && !p.check(token.RPAREN) {
				c.Vars = append(c.Vars, p.expectSymbol(""))
			}
			p.expect(token.RPAREN)
		}
		p.expect(token.RPAREN)
		c.Body = p.parseExpr()
		p.expect(token.RPAREN)
		m.Cases = append(m.Cases, c)
	}
	p.expect(token.RPAREN)
	return m
}

// parseLambda reads (lambda (args ...) (ret T) (eff !E) (body e)).
func (p *Parser) parseLambda(tok token.Token) ast.Expression {
	lam := &ast.Lambda{Token: tok}
	lam.Args = p.parseArgs()
	lam.Ret = p.parseRet()
	lam.Eff = p.parseEffSection()
	p.expect(token.LPAREN)
	p.expectSymbol("body")
	lam.Body = p.parseExpr()
	p.expect(token.RPAREN)
	p.expect(token.RPAREN)
	return lam
}
