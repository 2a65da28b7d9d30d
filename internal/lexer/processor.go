package lexer

import (
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/pipeline"
	"github.com/funvibe/iris/internal/token"
)

type LexerProcessor struct{}

// Process tokenizes ctx.SourceCode into ctx.TokenStream. Lexing stops at
// the first malformed token.
func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	l := New(ctx.SourceCode)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.ILLEGAL {
			ctx.AddError(diagnostics.NewError(diagnostics.ErrL001, tok, tok.Lexeme))
			break
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	ctx.TokenStream = tokens
	return ctx
}
