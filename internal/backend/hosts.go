package backend

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/evaluator"
	"github.com/funvibe/iris/internal/host"
	"github.com/funvibe/iris/internal/tools"
)

// Hosts are the implementations of the effectful intrinsics selected by
// a project configuration.
type Hosts struct {
	FS    evaluator.FileSystem
	Net   evaluator.Network
	HTTP  evaluator.HTTPClient
	Tools evaluator.ToolHost

	closers []func() error
}

// NewHosts opens what cfg asks for: the fs driver, a TCP network, an
// HTTP client with the configured timeout and, when tool bindings exist,
// a gRPC tool host. The caller must Close the result.
func NewHosts(cfg *config.Config, logger *slog.Logger) (*Hosts, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hosts{}

	switch cfg.FS.Driver {
	case "memory":
		h.FS = host.NewMemoryFS(nil)
	case "sqlite":
		fs, err := host.OpenSQLiteFS(cfg.FS.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite fs: %w", err)
		}
		h.FS = fs
		h.closers = append(h.closers, fs.Close)
	default:
		h.FS = host.NewOSFS(cfg.FS.Root)
	}
	logger.Debug("fs driver", "driver", cfg.FS.Driver)

	tcp := host.NewTCPNetwork()
	h.Net = tcp
	h.closers = append(h.closers, func() error {
		tcp.CloseAll()
		return nil
	})

	h.HTTP = host.NewStdHTTP(cfg.HTTPTimeout())

	if len(cfg.Tools.Bindings) > 0 {
		gh, err := tools.Dial(cfg.Tools)
		if err != nil {
			h.Close()
			return nil, fmt.Errorf("connecting tools: %w", err)
		}
		h.Tools = gh.WithLogger(logger)
		h.closers = append(h.closers, gh.Close)
		logger.Debug("tool host", "target", cfg.Tools.Target, "tools", len(cfg.Tools.Bindings))
	}
	return h, nil
}

// Apply copies the hosts into opts, keeping fields opts already sets.
func (h *Hosts) Apply(opts evaluator.Options) evaluator.Options {
	if opts.FS == nil {
		opts.FS = h.FS
	}
	if opts.Net == nil {
		opts.Net = h.Net
	}
	if opts.HTTP == nil {
		opts.HTTP = h.HTTP
	}
	if opts.Tools == nil {
		opts.Tools = h.Tools
	}
	return opts
}

// Close releases the hosts in reverse order of opening.
func (h *Hosts) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}
