package token

import "fmt"

type TokenType string

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	LPAREN TokenType = "("
	RPAREN TokenType = ")"

	INT    TokenType = "INT"
	STRING TokenType = "STRING"
	BOOL   TokenType = "BOOL"
	SYMBOL TokenType = "SYMBOL"
)

// Token is a single lexeme of Iris source.
// Literal holds the decoded value: *big.Int for INT, bool for BOOL,
// the unescaped text for STRING and the raw text for SYMBOL.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Lexeme, t.Line, t.Column)
}

// Pos renders the token position the way diagnostics print it.
func (t Token) Pos() string {
	return fmt.Sprintf("%d:%d", t.Line, t.Column)
}
