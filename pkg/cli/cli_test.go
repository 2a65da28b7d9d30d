package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"github.com/funvibe/iris/internal/config"
)

// TestScripts runs every testdata/*.txtar archive. The first line of the
// archive comment is the command line; "stdout" must match exactly and
// every line of "stderr" must appear in the error output, with $WORK
// standing for the directory the archive was unpacked into. A "stderr"
// file means the command is expected to fail.
func TestScripts(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no testdata archives")
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".txtar")
		t.Run(name, func(t *testing.T) {
			a, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}
			dir := t.TempDir()

			var wantStdout, wantStderr *string
			for _, f := range a.Files {
				content := string(f.Data)
				switch f.Name {
				case "stdout":
					wantStdout = &content
					continue
				case "stderr":
					wantStderr = &content
					continue
				}
				path := filepath.Join(dir, filepath.FromSlash(f.Name))
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(path, f.Data, 0o644); err != nil {
					t.Fatal(err)
				}
			}

			args := commandLine(t, a.Comment)
			for i, arg := range args {
				if config.HasSourceExt(arg) {
					args[i] = filepath.Join(dir, arg)
				}
			}

			var stdout, stderr bytes.Buffer
			code := Main(args, &stdout, &stderr)

			wantCode := 0
			if wantStderr != nil {
				wantCode = 1
			}
			if code != wantCode {
				t.Errorf("exit code = %d, want %d\nstderr:\n%s", code, wantCode, stderr.String())
			}
			if wantStdout != nil {
				if diff := cmp.Diff(*wantStdout, stdout.String()); diff != "" {
					t.Errorf("stdout mismatch (-want +got):\n%s", diff)
				}
			}
			if wantStderr != nil {
				got := strings.ReplaceAll(stderr.String(), dir, "$WORK")
				for _, line := range strings.Split(strings.TrimSpace(*wantStderr), "\n") {
					if !strings.Contains(got, line) {
						t.Errorf("stderr does not contain %q:\n%s", line, got)
					}
				}
			}
		})
	}
}

func commandLine(t *testing.T, comment []byte) []string {
	t.Helper()
	first, _, _ := strings.Cut(string(comment), "\n")
	fields := strings.Fields(first)
	if len(fields) < 2 || fields[0] != "iris" {
		t.Fatalf("archive comment must start with an iris command line, got %q", first)
	}
	return fields[1:]
}

func TestUsage(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", nil, 2, "", "Usage: iris"},
		{"unknown command", []string{"frobnicate"}, 2, "", "iris: unknown command frobnicate"},
		{"run without file", []string{"run"}, 2, "", "iris: run needs a file"},
		{"version", []string{"version"}, 0, config.Version + "\n", ""},
		{"help", []string{"help"}, 0, usage, ""},
		{"missing file", []string{"run", "does-not-exist.iris"}, 1, "", "does-not-exist.iris"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := Main(tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if stdout.String() != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr == "" && stderr.Len() != 0 {
				t.Errorf("unexpected stderr %q", stderr.String())
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestFmtWrite(t *testing.T) {
	file := filepath.Join(t.TempDir(), "main.iris")
	src := `(program (defs (deffn (name main) (args) (ret I64) (eff !Pure) (body 1))))`
	if err := os.WriteFile(file, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := Main([]string{"fmt", "-w", file}, &stdout, &stderr); code != 0 {
		t.Fatalf("fmt -w failed (%d): %s", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("fmt -w wrote to stdout: %q", stdout.String())
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	want := "(program\n  (defs\n    (deffn (name main) (args) (ret I64) (eff !Pure)\n      (body 1))))\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("rewritten file mismatch (-want +got):\n%s", diff)
	}
}
