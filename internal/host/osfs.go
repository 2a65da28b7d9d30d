package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// OSFS serves files from the real file system below Root. Paths that
// escape Root are treated as missing.
type OSFS struct {
	Root string
}

func NewOSFS(root string) *OSFS {
	if root == "" {
		root = "."
	}
	return &OSFS{Root: root}
}

func (f *OSFS) resolve(path string) (string, error) {
	full := filepath.Join(f.Root, filepath.FromSlash(path))
	rel, err := filepath.Rel(f.Root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %s", path, f.Root)
	}
	return full, nil
}

func (f *OSFS) ReadFile(path string) (string, bool) {
	full, err := f.resolve(path)
	if err != nil {
		return "", false
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (f *OSFS) WriteFile(path, content string) error {
	full, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", path, err)
	}
	return os.WriteFile(full, []byte(content), 0o644)
}

func (f *OSFS) Exists(path string) bool {
	full, err := f.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return !errors.Is(err, os.ErrNotExist) && err == nil
}

// ReadDir returns the entry names of a directory, sorted.
func (f *OSFS) ReadDir(path string) ([]string, error) {
	full, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)
	return names, nil
}
