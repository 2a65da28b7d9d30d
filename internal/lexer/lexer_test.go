package lexer

import (
	"strings"
	"testing"

	"github.com/funvibe/iris/internal/pipeline"
	"github.com/funvibe/iris/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `(deffn (name f) ; comment
  (body (+ -12 "a\"b\n" true)))`

	tests := []struct {
		typ    token.TokenType
		lexeme string
	}{
		{token.LPAREN, "("},
		{token.SYMBOL, "deffn"},
		{token.LPAREN, "("},
		{token.SYMBOL, "name"},
		{token.SYMBOL, "f"},
		{token.RPAREN, ")"},
		{token.LPAREN, "("},
		{token.SYMBOL, "body"},
		{token.LPAREN, "("},
		{token.SYMBOL, "+"},
		{token.INT, "-12"},
		{token.STRING, "a\"b\n"},
		{token.BOOL, "true"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.RPAREN, ")"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - type wrong. expected=%q, got=%q (%s)", i, tt.typ, tok.Type, tok)
		}
		if tok.Lexeme != tt.lexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.lexeme, tok.Lexeme)
		}
	}
}

func TestPositions(t *testing.T) {
	l := New("(a\n  \"s\")")
	want := [][2]int{{1, 1}, {1, 2}, {2, 3}, {2, 6}}
	for i, pos := range want {
		tok := l.NextToken()
		if tok.Line != pos[0] || tok.Column != pos[1] {
			t.Errorf("token %d (%s) at %d:%d, want %d:%d", i, tok.Lexeme, tok.Line, tok.Column, pos[0], pos[1])
		}
	}
}

func TestLiterals(t *testing.T) {
	l := New(`42 - -7 false x.y`)
	tok := l.NextToken()
	if n, ok := tok.Literal.(interface{ Int64() int64 }); !ok || n.Int64() != 42 {
		t.Errorf("literal of 42 = %#v", tok.Literal)
	}
	if tok = l.NextToken(); tok.Type != token.SYMBOL || tok.Lexeme != "-" {
		t.Errorf("lone minus should be a symbol, got %s", tok)
	}
	if tok = l.NextToken(); tok.Type != token.INT || tok.Lexeme != "-7" {
		t.Errorf("negative int, got %s", tok)
	}
	if tok = l.NextToken(); tok.Literal != false {
		t.Errorf("bool literal = %#v", tok.Literal)
	}
	if tok = l.NextToken(); tok.Lexeme != "x.y" {
		t.Errorf("dotted symbol = %s", tok)
	}
}

func TestUnterminatedString(t *testing.T) {
	_, err := Tokenize("(a \"oops")
	if err == nil || err.Error() != "Unterminated string starting at 1:4" {
		t.Errorf("err = %v", err)
	}
}

func TestLexerProcessor(t *testing.T) {
	ctx := pipeline.NewPipelineContext("(x \"y")
	ctx.FilePath = "bad.iris"
	ctx = (&LexerProcessor{}).Process(ctx)
	if len(ctx.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(ctx.Errors))
	}
	e := ctx.Errors[0]
	if e.File != "bad.iris" || !strings.HasPrefix(e.Error(), "ParseError: Unterminated string") {
		t.Errorf("unexpected diagnostic %s %q", e.File, e.Error())
	}
}
