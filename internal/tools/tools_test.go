package tools

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/evaluator"
	"github.com/funvibe/iris/internal/parser"
)

const demoProto = `
syntax = "proto3";
package demo;

enum Mood {
  CALM = 0;
  LOUD = 1;
}

message ShoutRequest {
  string text = 1;
  int64 times = 2;
  Mood mood = 3;
}

message ShoutReply {
  string text = 1;
}

message StatsRequest {
  repeated int64 values = 1;
}

message StatsReply {
  int64 sum = 1;
  int64 count = 2;
  Mood mood = 3;
}

service Demo {
  rpc Shout(ShoutRequest) returns (ShoutReply);
  rpc Stats(StatsRequest) returns (StatsReply);
}
`

func loadDemo(t *testing.T) []*desc.FileDescriptor {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.proto")
	if err := os.WriteFile(path, []byte(demoProto), 0o644); err != nil {
		t.Fatal(err)
	}
	files, err := LoadProtos([]string{dir}, path)
	if err != nil {
		t.Fatalf("LoadProtos: %v", err)
	}
	return files
}

type demoServer struct{}

func (demoServer) handle(md *desc.MethodDescriptor, in *dynamic.Message) (*dynamic.Message, error) {
	out := dynamic.NewMessage(md.GetOutputType())
	switch md.GetName() {
	case "Shout":
		text := in.GetFieldByName("text").(string)
		times := in.GetFieldByName("times").(int64)
		if in.GetFieldByName("mood").(int32) == 1 {
			text = strings.ToUpper(text)
		}
		out.SetFieldByName("text", strings.Repeat(text, int(times)))
	case "Stats":
		var sum int64
		values, _ := in.GetFieldByName("values").([]interface{})
		for _, v := range values {
			sum += v.(int64)
		}
		out.SetFieldByName("sum", sum)
		out.SetFieldByName("count", int64(len(values)))
		if sum > 10 {
			out.SetFieldByName("mood", int32(1))
		}
	default:
		return nil, errors.New("unknown method")
	}
	return out, nil
}

// startDemo serves the Demo service over an in-memory listener.
func startDemo(t *testing.T, files []*desc.FileDescriptor) *grpc.ClientConn {
	t.Helper()
	sd := files[0].FindService("demo.Demo")
	if sd == nil {
		t.Fatal("service demo.Demo not found")
	}

	svc := &grpc.ServiceDesc{
		ServiceName: sd.GetFullyQualifiedName(),
		HandlerType: (*interface{})(nil),
		Metadata:    sd.GetFile().GetName(),
	}
	for _, m := range sd.GetMethods() {
		md := m
		svc.Methods = append(svc.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
				in := dynamic.NewMessage(md.GetInputType())
				if err := dec(in); err != nil {
					return nil, err
				}
				return srv.(demoServer).handle(md, in)
			},
		})
	}

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	server.RegisterService(svc, demoServer{})
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGrpcHostCallTool(t *testing.T) {
	files := loadDemo(t)
	conn := startDemo(t, files)
	h, err := NewGrpcHost(conn, files, []config.ToolBinding{
		{Tool: "shout", Method: "demo.Demo/Shout"},
		{Tool: "stats", Method: "/demo.Demo/Stats"},
	})
	if err != nil {
		t.Fatalf("NewGrpcHost: %v", err)
	}

	tests := []struct {
		name string
		tool string
		args []evaluator.Object
		want string
	}{
		{
			name: "positional arguments, single field reply",
			tool: "shout",
			args: []evaluator.Object{evaluator.NewString("hi"), evaluator.NewInt(2)},
			want: `"hihi"`,
		},
		{
			name: "record argument with enum tag",
			tool: "shout",
			args: []evaluator.Object{&evaluator.Record{Fields: map[string]evaluator.Object{
				"text":  evaluator.NewString("hey"),
				"times": evaluator.NewInt(1),
				"mood":  &evaluator.Tagged{Tag: "LOUD", Value: evaluator.Unit},
				"extra": evaluator.TRUE,
			}}},
			want: `"HEY"`,
		},
		{
			name: "repeated field, record reply",
			tool: "stats",
			args: []evaluator.Object{&evaluator.List{Elements: []evaluator.Object{evaluator.NewInt(4), evaluator.NewInt(9)}}},
			want: `(record (count 2) (mood (tag "LOUD" (tuple))) (sum 13))`,
		},
		{
			name: "empty reply fields keep their defaults",
			tool: "stats",
			args: []evaluator.Object{&evaluator.List{}},
			want: `(record (count 0) (mood (tag "CALM" (tuple))) (sum 0))`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.CallTool(context.Background(), tt.tool, tt.args)
			if err != nil {
				t.Fatalf("CallTool: %v", err)
			}
			if diff := cmp.Diff(tt.want, evaluator.PrintValue(got)); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGrpcHostErrors(t *testing.T) {
	files := loadDemo(t)

	if _, err := NewGrpcHost(nil, files, []config.ToolBinding{{Tool: "x", Method: "demo.Demo/Missing"}}); err == nil {
		t.Error("expected error for a missing method")
	}
	if _, err := NewGrpcHost(nil, files, []config.ToolBinding{{Tool: "x", Method: "Shout"}}); err == nil {
		t.Error("expected error for a path without service")
	}

	conn := startDemo(t, files)
	h, err := NewGrpcHost(conn, files, []config.ToolBinding{{Tool: "shout", Method: "demo.Demo/Shout"}})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		tool string
		args []evaluator.Object
		want string
	}{
		{"unbound tool", "other", nil, "no gRPC binding for tool other"},
		{"wrong argument type", "shout", []evaluator.Object{evaluator.NewInt(1)}, "failed to build request: field text: unsupported conversion from I64 to TYPE_STRING"},
		{"too many arguments", "shout", []evaluator.Object{evaluator.NewString("a"), evaluator.NewInt(1), evaluator.NewInt(0), evaluator.NewInt(0)}, "failed to build request: demo.ShoutRequest has 3 fields, got 4 arguments"},
		{"unknown enum", "shout", []evaluator.Object{evaluator.NewString("a"), evaluator.NewInt(1), evaluator.NewString("SAD")}, "failed to build request: field mood: unknown enum value SAD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.CallTool(context.Background(), tt.tool, tt.args)
			if err == nil || err.Error() != tt.want {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestGrpcToolFromProgram(t *testing.T) {
	files := loadDemo(t)
	conn := startDemo(t, files)
	h, err := NewGrpcHost(conn, files, []config.ToolBinding{{Tool: "shout", Method: "demo.Demo/Shout"}})
	if err != nil {
		t.Fatal(err)
	}

	prog, err := parser.ParseSource(`
(program
  (defs
    (deftool (name shout) (args (text Str) (times I64)) (ret Str) (eff !Net))
    (deffn (name main) (args) (ret Str) (eff !Net)
      (body (str.concat (shout "ab" 3) "!")))))`)
	if err != nil {
		t.Fatal(err)
	}
	got, err := evaluator.New(prog, evaluator.Options{Tools: h, Out: io.Discard}).RunMain(context.Background())
	if err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if evaluator.PrintValue(got) != `"ababab!"` {
		t.Errorf("main = %s", evaluator.PrintValue(got))
	}
}

func TestFuncToolsChain(t *testing.T) {
	upper := NewFuncTools().Register("upper", func(_ context.Context, args []evaluator.Object) (evaluator.Object, error) {
		return evaluator.NewString(strings.ToUpper(args[0].(*evaluator.String).Value)), nil
	})
	count := NewFuncTools().
		Register("count", func(_ context.Context, args []evaluator.Object) (evaluator.Object, error) {
			return evaluator.NewInt(int64(len(args))), nil
		}).
		Register("upper", func(context.Context, []evaluator.Object) (evaluator.Object, error) {
			return nil, errors.New("shadowed")
		})

	chain := Chain{upper, count}
	got, err := chain.CallTool(context.Background(), "upper", []evaluator.Object{evaluator.NewString("x")})
	if err != nil || evaluator.PrintValue(got) != `"X"` {
		t.Errorf("upper = %v, %v", got, err)
	}
	got, err = chain.CallTool(context.Background(), "count", []evaluator.Object{evaluator.TRUE, evaluator.FALSE})
	if err != nil || evaluator.PrintValue(got) != "2" {
		t.Errorf("count = %v, %v", got, err)
	}
	if _, err := chain.CallTool(context.Background(), "missing", nil); err == nil {
		t.Error("expected error for an unserved tool")
	}
	if diff := cmp.Diff([]string{"count", "upper"}, count.Tools()); diff != "" {
		t.Errorf("Tools() mismatch (-want +got):\n%s", diff)
	}
}
