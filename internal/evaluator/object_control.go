package evaluator

import (
	"fmt"
	"strings"
)

// Error is a runtime failure. It travels through evaluation as an Object
// and leaves the public API as a Go error.
type Error struct {
	Message    string
	Line       int
	Column     int
	StackTrace []StackFrame
}

// StackFrame for error stack traces
type StackFrame struct {
	Name   string
	File   string
	Line   int
	Column int
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }

func (e *Error) Error() string { return e.Message }

func (e *Error) Inspect() string {
	var sb strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&sb, "ERROR at %d:%d: %s", e.Line, e.Column, e.Message)
	} else {
		sb.WriteString("ERROR: " + e.Message)
	}

	// innermost call first
	if len(e.StackTrace) > 0 {
		sb.WriteString("\nStack trace:")
		for i := len(e.StackTrace) - 1; i >= 0; i-- {
			frame := e.StackTrace[i]
			fmt.Fprintf(&sb, "\n  at %s", frame.Name)
			if frame.File != "" {
				fmt.Fprintf(&sb, " (%s:%d)", frame.File, frame.Line)
			} else if frame.Line > 0 {
				fmt.Fprintf(&sb, " (line %d)", frame.Line)
			}
		}
	}
	return sb.String()
}

func newError(format string, a ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, a...)}
}

func isError(obj Object) bool {
	if obj != nil {
		return obj.Type() == ERROR_OBJ
	}
	return false
}
