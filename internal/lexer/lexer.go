package lexer

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/iris/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

// NextToken returns the next token. A malformed string yields an ILLEGAL
// token whose Lexeme carries the error message.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	line, col := l.line, l.column
	if l.atEOF() {
		return token.Token{Type: token.EOF, Line: line, Column: col}
	}

	switch {
	case l.ch == '(':
		l.readChar()
		return token.Token{Type: token.LPAREN, Lexeme: "(", Literal: "(", Line: line, Column: col}
	case l.ch == ')':
		l.readChar()
		return token.Token{Type: token.RPAREN, Lexeme: ")", Literal: ")", Line: line, Column: col}
	case l.ch == '"':
		return l.readString(line, col)
	case l.ch == '-' && isDigit(l.peekChar()):
		l.readChar()
		digits := l.readDigits()
		return intToken("-"+digits, line, col)
	case isDigit(l.ch):
		return intToken(l.readDigits(), line, col)
	case isSymbolChar(l.ch):
		sym := l.readSymbol()
		switch sym {
		case "true":
			return token.Token{Type: token.BOOL, Lexeme: sym, Literal: true, Line: line, Column: col}
		case "false":
			return token.Token{Type: token.BOOL, Lexeme: sym, Literal: false, Line: line, Column: col}
		}
		return token.Token{Type: token.SYMBOL, Lexeme: sym, Literal: sym, Line: line, Column: col}
	}

	ch := l.ch
	l.readChar()
	return token.Token{
		Type:   token.ILLEGAL,
		Lexeme: fmt.Sprintf("Unexpected character '%c' at %d:%d", ch, line, col),
		Line:   line,
		Column: col,
	}
}

// Tokenize lexes the whole input, stopping at the first ILLEGAL token.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.ILLEGAL {
			return nil, fmt.Errorf("%s", tok.Lexeme)
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) skipWhitespace() {
	for !l.atEOF() {
		if unicode.IsSpace(l.ch) {
			l.readChar()
			continue
		}
		if l.ch == ';' {
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
			continue
		}
		return
	}
}

func (l *Lexer) readString(line, col int) token.Token {
	var sb strings.Builder
	l.readChar() // opening quote
	for !l.atEOF() && l.ch != '"' {
		if l.ch == '\\' && l.peekChar() != 0 {
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			default:
				// \" and \\ and any other escaped char stand for themselves
				sb.WriteRune(l.ch)
			}
			l.readChar()
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	if l.atEOF() {
		return token.Token{
			Type:   token.ILLEGAL,
			Lexeme: fmt.Sprintf("Unterminated string starting at %d:%d", line, col),
			Line:   line,
			Column: col,
		}
	}
	l.readChar() // closing quote
	s := sb.String()
	return token.Token{Type: token.STRING, Lexeme: s, Literal: s, Line: line, Column: col}
}

func (l *Lexer) readDigits() string {
	start := l.position
	for !l.atEOF() && isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readSymbol() string {
	start := l.position
	for !l.atEOF() && isSymbolChar(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func intToken(text string, line, col int) token.Token {
	n, _ := new(big.Int).SetString(text, 10)
	return token.Token{Type: token.INT, Lexeme: text, Literal: n, Line: line, Column: col}
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isSymbolChar(ch rune) bool {
	return ch != '(' && ch != ')' && ch != '"' && ch != 0 && !unicode.IsSpace(ch)
}
