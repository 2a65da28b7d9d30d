package host

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fileSystem interface {
	ReadFile(path string) (string, bool)
	WriteFile(path, content string) error
	Exists(path string) bool
	ReadDir(path string) ([]string, error)
}

func fileSystems(t *testing.T) map[string]fileSystem {
	t.Helper()
	sq, err := OpenSQLiteFS(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLiteFS: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]fileSystem{
		"memory": NewMemoryFS(nil),
		"sqlite": sq,
	}
}

func TestFlatFileSystems(t *testing.T) {
	for name, fs := range fileSystems(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok := fs.ReadFile("a.txt"); ok {
				t.Fatalf("ReadFile on empty fs succeeded")
			}
			if fs.Exists("a.txt") {
				t.Fatalf("Exists on empty fs = true")
			}
			for _, p := range []string{"a.txt", "dir/b.txt", "dir/c.txt", "dirx/d.txt"} {
				if err := fs.WriteFile(p, "content of "+p); err != nil {
					t.Fatalf("WriteFile(%q): %v", p, err)
				}
			}
			if err := fs.WriteFile("a.txt", "new"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, ok := fs.ReadFile("a.txt")
			if !ok || got != "new" {
				t.Errorf("ReadFile(a.txt) = %q, %v; want %q, true", got, ok, "new")
			}

			all, err := fs.ReadDir(".")
			if err != nil {
				t.Fatalf("ReadDir(.): %v", err)
			}
			if diff := cmp.Diff([]string{"a.txt", "dir/b.txt", "dir/c.txt", "dirx/d.txt"}, all); diff != "" {
				t.Errorf("ReadDir(.) mismatch (-want +got):\n%s", diff)
			}
			sub, err := fs.ReadDir("dir")
			if err != nil {
				t.Fatalf("ReadDir(dir): %v", err)
			}
			if diff := cmp.Diff([]string{"dir/b.txt", "dir/c.txt"}, sub); diff != "" {
				t.Errorf("ReadDir(dir) mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOSFS(t *testing.T) {
	root := t.TempDir()
	fs := NewOSFS(root)

	if err := fs.WriteFile("sub/x.txt", "hi"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got, ok := fs.ReadFile("sub/x.txt"); !ok || got != "hi" {
		t.Errorf("ReadFile = %q, %v", got, ok)
	}
	if !fs.Exists("sub/x.txt") {
		t.Errorf("Exists = false")
	}
	names, err := fs.ReadDir("sub")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if diff := cmp.Diff([]string{"x.txt"}, names); diff != "" {
		t.Errorf("ReadDir mismatch (-want +got):\n%s", diff)
	}
	if _, err := fs.ReadDir("missing"); err == nil {
		t.Errorf("ReadDir(missing) succeeded")
	}

	if err := fs.WriteFile("../escape.txt", "x"); err == nil {
		t.Errorf("write outside root succeeded")
	}
	if fs.Exists("..") {
		t.Errorf("Exists outside root = true")
	}
}

func TestMockNetwork(t *testing.T) {
	ctx := context.Background()
	var n MockNetwork
	if h, _ := n.Listen(ctx, 8080); h != 1 {
		t.Errorf("Listen = %d, want 1", h)
	}
	if h, _ := n.Accept(ctx, 1); h != 2 {
		t.Errorf("Accept = %d, want 2", h)
	}
	if s, _ := n.Read(ctx, 2); s != MockRequest {
		t.Errorf("Read = %q", s)
	}
	if h, _ := n.Connect(ctx, "localhost", 80); h != 3 {
		t.Errorf("Connect = %d, want 3", h)
	}
}

func TestTCPNetworkRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := NewTCPNetwork()
	defer n.CloseAll()

	srv, err := n.Listen(ctx, 0)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	n.mu.Lock()
	addr := n.listeners[srv].Addr().String()
	n.mu.Unlock()
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("SplitHostPort(%q): %v", addr, err)
	}
	port, err := strconv.ParseInt(portStr, 10, 64)
	if err != nil {
		t.Fatalf("port %q: %v", portStr, err)
	}

	accepted := make(chan int64, 1)
	go func() {
		h, err := n.Accept(ctx, srv)
		if err != nil {
			t.Errorf("Accept: %v", err)
		}
		accepted <- h
	}()

	client, err := n.Connect(ctx, "127.0.0.1", port)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	peer := <-accepted

	if err := n.Write(ctx, client, "ping"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := n.Read(ctx, peer)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "ping" {
		t.Errorf("Read = %q, want %q", got, "ping")
	}

	if err := n.Close(ctx, client); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := n.Close(ctx, client); !errors.Is(err, errUnknownHandle) {
		t.Errorf("second Close error = %v, want unknown handle", err)
	}
}

func TestMockHTTP(t *testing.T) {
	ctx := context.Background()
	var m MockHTTP

	res, err := m.Do(ctx, "GET", MockOKURL, "")
	if err != nil {
		t.Fatalf("Do(ok): %v", err)
	}
	want := &HTTPResponse{Version: "HTTP/1.1", Status: 200, Body: "OK"}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}

	if _, err := m.Do(ctx, "GET", MockFailURL, ""); !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Do(fail) error = %v, want ErrFetchFailed", err)
	}
	if _, err := m.Do(ctx, "GET", "http://other.test", ""); !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Do without fallback error = %v", err)
	}
}

func TestStdHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Method", r.Method)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	client := MockHTTP{Fallback: NewStdHTTP(5 * time.Second)}
	res, err := client.Do(context.Background(), "POST", srv.URL, "payload")
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if res.Status != 201 || res.Body != "hello" {
		t.Errorf("got status %d body %q", res.Status, res.Body)
	}
	found := false
	for _, h := range res.Headers {
		if h.Key == "x-method" && h.Val == "POST" {
			found = true
		}
	}
	if !found {
		t.Errorf("x-method header missing from %v", res.Headers)
	}
}
