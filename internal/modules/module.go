package modules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"golang.org/x/tools/txtar"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
)

// Module is a parsed source file reachable through an import path.
type Module struct {
	Path    string // import path, e.g. "lib/geo"
	File    string // where the source was found
	Program *ast.Program
}

// Source finds module text by import path. ok is false when the source
// does not know the path; err reports a read failure.
type Source interface {
	Open(importPath string) (src, file string, ok bool, err error)
}

// DirSource looks for <root>/<path>.iris in each root in turn.
type DirSource struct {
	Roots []string
}

func (d DirSource) Open(importPath string) (string, string, bool, error) {
	for _, root := range d.Roots {
		file := config.ModuleFile(root, importPath)
		data, err := os.ReadFile(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", file, false, fmt.Errorf("reading module %s: %w", importPath, err)
		}
		return string(data), file, true, nil
	}
	return "", "", false, nil
}

// MapSource serves modules from memory, keyed by import path.
type MapSource map[string]string

func (m MapSource) Open(importPath string) (string, string, bool, error) {
	src, ok := m[config.TrimSourceExt(importPath)]
	if !ok {
		return "", "", false, nil
	}
	return src, importPath + config.SourceFileExt, true, nil
}

// ArchiveSource turns the .iris files of a txtar archive into a
// MapSource. "-- lib/geo.iris --" serves the import path "lib/geo".
// Other files are ignored.
func ArchiveSource(a *txtar.Archive) MapSource {
	m := make(MapSource)
	for _, f := range a.Files {
		if !config.HasSourceExt(f.Name) {
			continue
		}
		m[config.TrimSourceExt(f.Name)] = string(f.Data)
	}
	return m
}

// Paths returns the import paths a MapSource knows, sorted.
func (m MapSource) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
