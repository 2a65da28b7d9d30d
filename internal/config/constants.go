package config

import (
	"path/filepath"
	"strings"
)

const SourceFileExt = ".iris"

// Version is printed by `iris version`.
const Version = "IRIS v0.4.0"

// Reserved names of the language
const (
	MainFuncName = "main"
	WildcardTag  = "_"
	NoneLiteral  = "None"
	NilLiteral   = "nil"
)

// Constructor tags understood by match
const (
	SomeCtorName = "Some"
	NoneCtorName = "None"
	OkCtorName   = "Ok"
	ErrCtorName  = "Err"
	ConsCtorName = "cons"
	NilCtorName  = "nil"
)

// HasSourceExt reports whether path ends in the Iris source extension.
func HasSourceExt(path string) bool {
	return strings.HasSuffix(path, SourceFileExt)
}

// TrimSourceExt removes the source extension from name, if present.
func TrimSourceExt(name string) string {
	return strings.TrimSuffix(name, SourceFileExt)
}

// ModuleFile returns the file an import path refers to inside dir.
func ModuleFile(dir, importPath string) string {
	p := filepath.Join(dir, filepath.FromSlash(importPath))
	if !HasSourceExt(p) {
		p += SourceFileExt
	}
	return p
}
