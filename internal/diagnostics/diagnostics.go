package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/iris/internal/token"
)

// ErrorCode identifies a class of diagnostic.
type ErrorCode string

const (
	// Lexer and parser
	ErrL001 ErrorCode = "L001" // malformed token
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // unknown section or form
	ErrP003 ErrorCode = "P003" // malformed type
	ErrP004 ErrorCode = "P004" // malformed effect
	ErrP005 ErrorCode = "P005" // unexpected end of input

	// Module loading
	ErrM001 ErrorCode = "M001" // module not found
	ErrM002 ErrorCode = "M002" // circular import

	// Type and effect checking
	ErrT001 ErrorCode = "T001" // type mismatch
	ErrT002 ErrorCode = "T002" // effect mismatch
	ErrT003 ErrorCode = "T003" // unknown variable
	ErrT004 ErrorCode = "T004" // unknown function
	ErrT005 ErrorCode = "T005" // arity mismatch
	ErrT006 ErrorCode = "T006" // duplicate argument
	ErrT007 ErrorCode = "T007" // bad match
	ErrT008 ErrorCode = "T008" // non-literal key or index
	ErrT009 ErrorCode = "T009" // unknown intrinsic
	ErrC001 ErrorCode = "E_CAPABILITY"

	// Runtime
	ErrR001 ErrorCode = "R001"
)

// DiagnosticError is a positioned error produced by a pipeline stage.
type DiagnosticError struct {
	Code    ErrorCode
	Token   token.Token
	File    string
	Message string
}

func NewError(code ErrorCode, tok token.Token, msg string) *DiagnosticError {
	return &DiagnosticError{Code: code, Token: tok, Message: msg}
}

// Error renders the message with the prefix of its family,
// e.g. "TypeError: Unknown variable: x".
func (e *DiagnosticError) Error() string {
	return e.Family() + ": " + e.Message
}

// Family is the user facing error taxonomy of the code.
func (e *DiagnosticError) Family() string {
	switch {
	case e.Code == ErrC001:
		return "CapabilityError"
	case strings.HasPrefix(string(e.Code), "L"), strings.HasPrefix(string(e.Code), "P"):
		return "ParseError"
	case strings.HasPrefix(string(e.Code), "M"):
		return "ModuleError"
	case strings.HasPrefix(string(e.Code), "T"):
		return "TypeError"
	}
	return "RuntimeError"
}

// Location returns "file:line:col" with unknown parts left out.
func (e *DiagnosticError) Location() string {
	var parts []string
	if e.File != "" {
		parts = append(parts, e.File)
	}
	if e.Token.Line > 0 {
		parts = append(parts, fmt.Sprintf("%d:%d", e.Token.Line, e.Token.Column))
	}
	return strings.Join(parts, ":")
}

const (
	colorRed   = "\033[31m"
	colorGray  = "\033[90m"
	colorReset = "\033[0m"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Print writes every diagnostic on its own line, colored when color is set.
func Print(w io.Writer, errs []*DiagnosticError, color bool) {
	for _, e := range errs {
		loc := e.Location()
		switch {
		case color && loc != "":
			fmt.Fprintf(w, "%s%s%s %s[%s]%s %s\n", colorGray, loc, colorReset, colorRed, e.Code, colorReset, e.Error())
		case color:
			fmt.Fprintf(w, "%s[%s]%s %s\n", colorRed, e.Code, colorReset, e.Error())
		case loc != "":
			fmt.Fprintf(w, "%s [%s] %s\n", loc, e.Code, e.Error())
		default:
			fmt.Fprintf(w, "[%s] %s\n", e.Code, e.Error())
		}
	}
}

// PrintStderr prints to stderr, coloring only when it is a terminal.
func PrintStderr(errs []*DiagnosticError) {
	Print(os.Stderr, errs, IsTerminal(os.Stderr))
}
