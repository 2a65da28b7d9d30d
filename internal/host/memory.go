// Package host provides the file system, network and HTTP backends the
// interpreter talks to: in-memory mocks for tests and embedding, and real
// implementations for the CLI.
package host

import (
	"sort"
	"strings"
	"sync"
)

// MemoryFS is a flat path → content map. It is safe for concurrent use
// by spawned processes.
type MemoryFS struct {
	mu    sync.RWMutex
	files map[string]string
}

func NewMemoryFS(files map[string]string) *MemoryFS {
	m := &MemoryFS{files: make(map[string]string, len(files))}
	for k, v := range files {
		m.files[k] = v
	}
	return m
}

func (m *MemoryFS) ReadFile(path string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.files[path]
	return s, ok
}

func (m *MemoryFS) WriteFile(path, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
	return nil
}

func (m *MemoryFS) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[path]
	return ok
}

// ReadDir lists every stored path for ".", otherwise the paths under
// path + "/". Entries are sorted.
func (m *MemoryFS) ReadDir(path string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := []string{}
	for k := range m.files {
		if path == "." || strings.HasPrefix(k, path+"/") {
			entries = append(entries, k)
		}
	}
	sort.Strings(entries)
	return entries, nil
}
