// Package tools supplies the bodies of deftool declarations: unary gRPC
// methods described by .proto files, or plain Go functions.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/evaluator"
)

// LoadProtos parses proto files. Paths may be absolute; they are resolved
// against importPaths when one of them contains the file.
func LoadProtos(importPaths []string, files ...string) ([]*desc.FileDescriptor, error) {
	paths := append([]string(nil), importPaths...)
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f
		if !filepath.IsAbs(f) {
			continue
		}
		found := false
		for _, ip := range importPaths {
			abs, err := filepath.Abs(ip)
			if err != nil {
				continue
			}
			rel, err := filepath.Rel(abs, f)
			if err == nil && !strings.HasPrefix(rel, "..") {
				names[i], found = filepath.ToSlash(rel), true
				break
			}
		}
		if !found {
			paths = append(paths, filepath.Dir(f))
			names[i] = filepath.Base(f)
		}
	}

	parser := protoparse.Parser{ImportPaths: paths}
	fds, err := parser.ParseFiles(names...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proto: %w", err)
	}
	return fds, nil
}

// GrpcHost calls one unary gRPC method per bound tool. Arguments become
// request fields in declaration order; a single Record argument is matched
// by field name instead. A response with exactly one field is unwrapped to
// that field's value, any other response becomes a Record.
type GrpcHost struct {
	conn    grpc.ClientConnInterface
	methods map[string]*desc.MethodDescriptor
	closer  func() error
	logger  *slog.Logger
}

// NewGrpcHost resolves every binding against files. Streaming methods are
// rejected.
func NewGrpcHost(conn grpc.ClientConnInterface, files []*desc.FileDescriptor, bindings []config.ToolBinding) (*GrpcHost, error) {
	h := &GrpcHost{
		conn:    conn,
		methods: make(map[string]*desc.MethodDescriptor, len(bindings)),
		logger:  slog.Default(),
	}
	for _, b := range bindings {
		md, err := findMethod(files, b.Method)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", b.Tool, err)
		}
		if md.IsClientStreaming() || md.IsServerStreaming() {
			return nil, fmt.Errorf("tool %s: method %s is streaming", b.Tool, b.Method)
		}
		h.methods[b.Tool] = md
	}
	return h, nil
}

// Dial connects to the configured target and binds the configured tools.
// The connection is lazy; nothing is sent until the first call.
func Dial(cfg config.ToolsConfig) (*GrpcHost, error) {
	files, err := LoadProtos(cfg.ImportPaths, cfg.Protos...)
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(cfg.Target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc client for %s: %w", cfg.Target, err)
	}
	h, err := NewGrpcHost(conn, files, cfg.Bindings)
	if err != nil {
		conn.Close()
		return nil, err
	}
	h.closer = conn.Close
	return h, nil
}

// WithLogger sets the logger used for call tracing.
func (h *GrpcHost) WithLogger(l *slog.Logger) *GrpcHost {
	h.logger = l
	return h
}

// Tools lists the bound tool names.
func (h *GrpcHost) Tools() []string {
	names := make([]string, 0, len(h.methods))
	for name := range h.methods {
		names = append(names, name)
	}
	return names
}

func (h *GrpcHost) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer()
}

func (h *GrpcHost) CallTool(ctx context.Context, name string, args []evaluator.Object) (evaluator.Object, error) {
	md, ok := h.methods[name]
	if !ok {
		return nil, fmt.Errorf("no gRPC binding for tool %s", name)
	}

	req := dynamic.NewMessage(md.GetInputType())
	if err := argsToMessage(args, req); err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp := dynamic.NewMessage(md.GetOutputType())

	method := "/" + md.GetService().GetFullyQualifiedName() + "/" + md.GetName()
	h.logger.Debug("grpc invoke", "tool", name, "method", method)
	if err := h.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, fmt.Errorf("RPC failed: %w", err)
	}

	out := messageToObject(resp)
	if fields := md.GetOutputType().GetFields(); len(fields) == 1 {
		return out.Fields[fields[0].GetName()], nil
	}
	return out, nil
}

// findMethod looks up "pkg.Service/Method". A leading slash is allowed.
func findMethod(files []*desc.FileDescriptor, path string) (*desc.MethodDescriptor, error) {
	path = strings.TrimPrefix(path, "/")
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return nil, fmt.Errorf("invalid method path %q, expected 'package.Service/Method'", path)
	}
	service, method := path[:i], path[i+1:]
	for _, fd := range files {
		if svc := fd.FindService(service); svc != nil {
			if md := svc.FindMethodByName(method); md != nil {
				return md, nil
			}
		}
	}
	return nil, fmt.Errorf("method %q not found in loaded protos", path)
}
