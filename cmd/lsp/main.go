// Command lsp serves the Language Server Protocol for Iris over stdio.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sourcegraph/jsonrpc2"
)

func main() {
	// stdout carries the protocol
	level := slog.LevelInfo
	if os.Getenv("IRIS_LSP_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(stdrwc{}, jsonrpc2.VSCodeObjectCodec{}),
		NewLanguageServer(logger).Handler())
	<-conn.DisconnectNotify()
}

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdrwc) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		os.Stdout.Close()
		return err
	}
	return os.Stdout.Close()
}
