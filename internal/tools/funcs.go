package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/funvibe/iris/internal/evaluator"
)

// Func is a tool implemented in Go.
type Func func(ctx context.Context, args []evaluator.Object) (evaluator.Object, error)

// FuncTools is a ToolHost backed by registered Go functions. It is safe for
// concurrent use.
type FuncTools struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

func NewFuncTools() *FuncTools {
	return &FuncTools{funcs: make(map[string]Func)}
}

// Register binds name to fn, replacing any earlier binding.
func (t *FuncTools) Register(name string, fn Func) *FuncTools {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.funcs[name] = fn
	return t
}

func (t *FuncTools) Tools() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.funcs))
	for name := range t.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *FuncTools) CallTool(ctx context.Context, name string, args []evaluator.Object) (evaluator.Object, error) {
	t.mu.RLock()
	fn, ok := t.funcs[name]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no function registered for tool %s", name)
	}
	return fn(ctx, args)
}

// Chain tries each host in order and uses the first one that knows the
// tool. Hosts report the tools they serve through Tools().
type Chain []interface {
	evaluator.ToolHost
	Tools() []string
}

func (c Chain) CallTool(ctx context.Context, name string, args []evaluator.Object) (evaluator.Object, error) {
	for _, h := range c {
		for _, t := range h.Tools() {
			if t == name {
				return h.CallTool(ctx, name, args)
			}
		}
	}
	return nil, fmt.Errorf("no host serves tool %s", name)
}
