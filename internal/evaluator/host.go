package evaluator

import (
	"context"

	"github.com/funvibe/iris/internal/host"
)

// FileSystem backs the io.* intrinsics. A missing file is reported with
// ok=false rather than an error.
type FileSystem interface {
	ReadFile(path string) (content string, ok bool)
	WriteFile(path, content string) error
	Exists(path string) bool
}

// DirReader is implemented by file systems that can list entries.
// Without it io.read_dir answers (Err "Not supported").
type DirReader interface {
	ReadDir(path string) ([]string, error)
}

// Network backs the net.* intrinsics. Handles are opaque integers owned by
// the implementation.
type Network interface {
	Listen(ctx context.Context, port int64) (int64, error)
	Accept(ctx context.Context, server int64) (int64, error)
	Read(ctx context.Context, conn int64) (string, error)
	Write(ctx context.Context, conn int64, data string) error
	Close(ctx context.Context, conn int64) error
	Connect(ctx context.Context, addr string, port int64) (int64, error)
}

// HTTPClient backs http.get and http.post. An empty body with method GET
// sends no payload.
type HTTPClient interface {
	Do(ctx context.Context, method, url, body string) (*host.HTTPResponse, error)
}

// ToolHost supplies the bodies of deftool declarations.
type ToolHost interface {
	CallTool(ctx context.Context, name string, args []Object) (Object, error)
}

// ToolFunc adapts a function to ToolHost.
type ToolFunc func(ctx context.Context, name string, args []Object) (Object, error)

func (f ToolFunc) CallTool(ctx context.Context, name string, args []Object) (Object, error) {
	return f(ctx, name, args)
}
