package modules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/lexer"
	"github.com/funvibe/iris/internal/parser"
	"github.com/funvibe/iris/internal/pipeline"
)

func module(name string, imports ...string) string {
	var b strings.Builder
	b.WriteString(`(program (module (name "` + name + `") (version 0)) (imports`)
	for _, imp := range imports {
		b.WriteString(` (import "` + imp + `" (as "` + strings.ReplaceAll(imp, "/", "_") + `"))`)
	}
	b.WriteString(`) (defs (deffn (name f) (args) (ret I64) (eff !Pure) (body 1))))`)
	return b.String()
}

func loadEntry(t *testing.T, src string, sources ...Source) (*Loader, []*diagnostics.DiagnosticError) {
	t.Helper()
	prog, err := parser.ParseSource(src)
	if err != nil {
		t.Fatalf("parse entry: %v", err)
	}
	prog.File = "main.iris"
	l := NewLoader(sources...)
	return l, l.LoadAll("main", prog)
}

func messages(errs []*diagnostics.DiagnosticError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

func TestLoadAllResolvesTransitiveImports(t *testing.T) {
	src := MapSource{
		"a":     module("a", "b", "lib/c"),
		"b":     module("b", "lib/c"),
		"lib/c": module("c"),
	}
	l, errs := loadEntry(t, module("main", "a"), src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", messages(errs))
	}

	var paths []string
	for _, m := range l.Modules() {
		paths = append(paths, m.Path)
	}
	if diff := cmp.Diff([]string{"a", "b", "lib/c"}, paths); diff != "" {
		t.Errorf("loaded modules mismatch (-want +got):\n%s", diff)
	}

	prog, ok := l.Resolve("lib/c")
	if !ok {
		t.Fatal("Resolve(lib/c) missed after LoadAll")
	}
	if prog.Module.Name != "c" || prog.File != "lib/c.iris" {
		t.Errorf("Resolve(lib/c) = module %q from %q", prog.Module.Name, prog.File)
	}
	again, _ := l.Resolve("lib/c")
	if again != prog {
		t.Error("Resolve parsed lib/c twice")
	}
}

func TestLoadAllDetectsCycles(t *testing.T) {
	tests := []struct {
		name    string
		entry   string
		modules MapSource
		want    []string
	}{
		{
			name:    "two modules",
			entry:   module("main", "a"),
			modules: MapSource{"a": module("a", "b"), "b": module("b", "a")},
			want:    []string{"ModuleError: Circular import detected: a -> b -> a"},
		},
		{
			name:    "back to entry",
			entry:   module("main", "a"),
			modules: MapSource{"a": module("a", "main")},
			want:    []string{"ModuleError: Circular import detected: main -> a -> main"},
		},
		{
			name:    "self import",
			entry:   module("main", "a"),
			modules: MapSource{"a": module("a", "a")},
			want:    []string{"ModuleError: Circular import detected: a -> a"},
		},
		{
			name:    "diamond is not a cycle",
			entry:   module("main", "a", "b"),
			modules: MapSource{"a": module("a", "c"), "b": module("b", "c"), "c": module("c")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := loadEntry(t, tt.entry, tt.modules)
			if diff := cmp.Diff(tt.want, messages(errs)); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
			for _, e := range errs {
				if e.Code != diagnostics.ErrM002 {
					t.Errorf("code = %s, want %s", e.Code, diagnostics.ErrM002)
				}
			}
		})
	}
}

func TestLoadAllReportsMissingAndBrokenModules(t *testing.T) {
	src := MapSource{"broken": `(program (defs (deffn`}
	_, errs := loadEntry(t, module("main", "nope", "broken"), src)
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), messages(errs))
	}

	if errs[0].Error() != "ModuleError: Module not found: nope" {
		t.Errorf("errs[0] = %q", errs[0].Error())
	}
	if errs[0].File != "main.iris" || errs[0].Token.Line == 0 {
		t.Errorf("missing module reported at %s", errs[0].Location())
	}
	if errs[1].Family() != "ParseError" {
		t.Errorf("errs[1] = %q, want a ParseError", errs[1].Error())
	}
	if errs[1].File != "broken.iris" {
		t.Errorf("parse error file = %q, want broken.iris", errs[1].File)
	}
}

func TestDirSourceSearchesRootsInOrder(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	write := func(root, rel, content string) {
		t.Helper()
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(first, "util.iris", module("first_util"))
	write(second, "util.iris", module("second_util"))
	write(second, "lib/geo.iris", module("geo"))

	l := NewLoader(DirSource{Roots: []string{first, second}})
	util, ok := l.Resolve("util")
	if !ok || util.Module.Name != "first_util" {
		t.Fatalf("Resolve(util) = %v, %v; want the module from the first root", util, ok)
	}
	geo, ok := l.Resolve("lib/geo")
	if !ok || geo.File != filepath.Join(second, "lib", "geo.iris") {
		t.Fatalf("Resolve(lib/geo) = %v, %v", geo, ok)
	}
	if _, ok := l.Resolve("absent"); ok {
		t.Error("Resolve(absent) should miss")
	}
}

func TestArchiveSource(t *testing.T) {
	a := txtar.Parse([]byte(`comment
-- main.iris --
` + module("main", "lib/geo") + `
-- lib/geo.iris --
` + module("geo") + `
-- expected.txt --
1
`))
	src := ArchiveSource(a)
	if diff := cmp.Diff([]string{"lib/geo", "main"}, src.Paths()); diff != "" {
		t.Errorf("archive paths mismatch (-want +got):\n%s", diff)
	}

	main, _, ok, err := src.Open("main")
	if !ok || err != nil {
		t.Fatalf("Open(main) = %v, %v", ok, err)
	}
	_, errs := loadEntry(t, main, src)
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", messages(errs))
	}
}

func TestLoaderProcessor(t *testing.T) {
	ctx := pipeline.NewPipelineContext(module("app", "a"))
	ctx.FilePath = "/tmp/project/app.iris"
	loader := NewLoader(MapSource{"a": module("a", "app")})

	ctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&LoaderProcessor{Loader: loader},
	).Run(ctx)

	if ctx.Resolver != loader {
		t.Error("LoaderProcessor did not install the loader as resolver")
	}
	if diff := cmp.Diff([]string{"ModuleError: Circular import detected: app -> a -> app"}, messages(ctx.Errors)); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestEntryPath(t *testing.T) {
	tests := map[string]string{
		"":                     "main",
		"main.iris":            "main",
		"/src/app/server.iris": "server",
	}
	for file, want := range tests {
		if got := EntryPath(file); got != want {
			t.Errorf("EntryPath(%q) = %q, want %q", file, got, want)
		}
	}
}
