package modules

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/parser"
)

// Loader parses imported modules on demand and caches them by import
// path. It implements ast.ModuleResolver and is safe for concurrent use:
// spawned processes resolve modules from their own goroutines.
type Loader struct {
	sources []Source
	logger  *slog.Logger

	mu      sync.Mutex
	modules map[string]*Module
	failed  map[string]error
}

// NewLoader searches sources in order for every import path.
func NewLoader(sources ...Source) *Loader {
	return &Loader{
		sources: sources,
		logger:  slog.Default(),
		modules: make(map[string]*Module),
		failed:  make(map[string]error),
	}
}

func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	l.logger = logger
	return l
}

// Resolve implements ast.ModuleResolver.
func (l *Loader) Resolve(path string) (*ast.Program, bool) {
	mod, err := l.load(path)
	if err != nil || mod == nil {
		return nil, false
	}
	return mod.Program, true
}

// load returns nil, nil when no source knows path.
func (l *Loader) load(path string) (*Module, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if mod, ok := l.modules[path]; ok {
		return mod, nil
	}
	if err, ok := l.failed[path]; ok {
		return nil, err
	}

	for _, s := range l.sources {
		src, file, ok, err := s.Open(path)
		if err != nil {
			l.failed[path] = err
			return nil, err
		}
		if !ok {
			continue
		}

		prog, err := parser.ParseSource(src)
		if err != nil {
			var d *diagnostics.DiagnosticError
			if errors.As(err, &d) {
				d.File = file
			}
			l.failed[path] = err
			return nil, err
		}
		prog.File = file
		mod := &Module{Path: path, File: file, Program: prog}
		l.modules[path] = mod
		l.logger.Debug("module loaded", "path", path, "file", file)
		return mod, nil
	}

	l.logger.Debug("module not found", "path", path)
	return nil, nil
}

// Modules returns the modules loaded so far, sorted by import path.
func (l *Loader) Modules() []*Module {
	l.mu.Lock()
	defer l.mu.Unlock()

	mods := make([]*Module, 0, len(l.modules))
	for _, m := range l.modules {
		mods = append(mods, m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Path < mods[j].Path })
	return mods
}

// Programs returns the parsed programs of Modules.
func (l *Loader) Programs() []*ast.Program {
	mods := l.Modules()
	progs := make([]*ast.Program, len(mods))
	for i, m := range mods {
		progs[i] = m.Program
	}
	return progs
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

// LoadAll loads every module reachable from prog, whose own import path
// is entry. It reports modules that cannot be found or parsed and the
// first import closing each cycle.
func (l *Loader) LoadAll(entry string, prog *ast.Program) []*diagnostics.DiagnosticError {
	w := &walker{
		loader: l,
		stack:  []string{entry},
		state:  map[string]visitState{entry: visiting},
	}
	w.visit(prog)
	return w.errs
}

type walker struct {
	loader *Loader
	stack  []string
	state  map[string]visitState
	errs   []*diagnostics.DiagnosticError
}

func (w *walker) visit(prog *ast.Program) {
	for _, imp := range prog.Imports {
		switch w.state[imp.Path] {
		case visiting:
			w.report(diagnostics.ErrM002, prog, imp, "Circular import detected: "+strings.Join(w.cycle(imp.Path), " -> "))
			continue
		case visited:
			continue
		}

		mod, err := w.loader.load(imp.Path)
		if err != nil {
			w.state[imp.Path] = visited
			var d *diagnostics.DiagnosticError
			if errors.As(err, &d) {
				w.errs = append(w.errs, d)
			} else {
				w.report(diagnostics.ErrM001, prog, imp, err.Error())
			}
			continue
		}
		if mod == nil {
			w.state[imp.Path] = visited
			w.report(diagnostics.ErrM001, prog, imp, "Module not found: "+imp.Path)
			continue
		}

		w.state[imp.Path] = visiting
		w.stack = append(w.stack, imp.Path)
		w.visit(mod.Program)
		w.stack = w.stack[:len(w.stack)-1]
		w.state[imp.Path] = visited
	}
}

// cycle returns the import chain from the first visit of path back to it.
func (w *walker) cycle(path string) []string {
	for i, p := range w.stack {
		if p == path {
			chain := append([]string(nil), w.stack[i:]...)
			return append(chain, path)
		}
	}
	return []string{path, path}
}

func (w *walker) report(code diagnostics.ErrorCode, prog *ast.Program, imp *ast.Import, msg string) {
	err := diagnostics.NewError(code, imp.Token, msg)
	err.File = prog.File
	w.errs = append(w.errs, err)
}
