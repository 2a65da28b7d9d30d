package main

import (
	lsp "github.com/sourcegraph/go-lsp"
)

// isSymbolChar matches the characters the lexer accepts inside a symbol.
func isSymbolChar(b byte) bool {
	switch b {
	case '(', ')', '"', ' ', '\t', '\n', '\r', ';':
		return false
	}
	return true
}

// offsetOf converts a position to a byte offset, clamped to content.
// Characters are counted in bytes.
func offsetOf(content string, pos lsp.Position) int {
	line, i := 0, 0
	for i < len(content) && line < pos.Line {
		if content[i] == '\n' {
			line++
		}
		i++
	}
	end := i
	for end < len(content) && content[end] != '\n' {
		end++
	}
	return min(i+max(pos.Character, 0), end)
}

func positionOf(content string, offset int) lsp.Position {
	var pos lsp.Position
	for i := 0; i < offset && i < len(content); i++ {
		if content[i] == '\n' {
			pos.Line++
			pos.Character = 0
		} else {
			pos.Character++
		}
	}
	return pos
}

// symbolAt returns the symbol under pos and its byte span. A cursor just
// past the end of a symbol still selects it.
func symbolAt(content string, pos lsp.Position) (string, int, int) {
	off := offsetOf(content, pos)
	start, end := off, off
	for start > 0 && isSymbolChar(content[start-1]) {
		start--
	}
	for end < len(content) && isSymbolChar(content[end]) {
		end++
	}
	return content[start:end], start, end
}

// prefixAt returns the part of the symbol before pos.
func prefixAt(content string, pos lsp.Position) string {
	off := offsetOf(content, pos)
	start := off
	for start > 0 && isSymbolChar(content[start-1]) {
		start--
	}
	return content[start:off]
}

// findSymbol returns the offset of the first whole-symbol occurrence of
// name at or after from, or -1.
func findSymbol(content, name string, from int) int {
	for i := max(from, 0); i+len(name) <= len(content); i++ {
		if content[i:i+len(name)] != name {
			continue
		}
		before := i == 0 || !isSymbolChar(content[i-1])
		after := i+len(name) == len(content) || !isSymbolChar(content[i+len(name)])
		if before && after {
			return i
		}
	}
	return -1
}
