// Package process implements the mailboxes behind sys.spawn, sys.send and
// sys.recv. Every interpreter owns one pid; a spawned process is a
// goroutine running its own interpreter.
package process

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

type mailbox struct {
	queue []string
	// notify holds at most one pending wake-up
	notify chan struct{}
}

// Manager hands out pids and routes messages between them.
// It is safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	nextPid   int64
	mailboxes map[int64]*mailbox

	live sync.WaitGroup
	n    atomic.Int64
}

func NewManager() *Manager {
	return &Manager{nextPid: 1, mailboxes: make(map[int64]*mailbox)}
}

// NextPid reserves a fresh pid. Pids start at 1.
func (m *Manager) NextPid() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	pid := m.nextPid
	m.nextPid++
	return pid
}

// Register creates an empty mailbox for pid.
func (m *Manager) Register(pid int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mailboxes[pid] = &mailbox{notify: make(chan struct{}, 1)}
}

// Go runs fn on a new goroutine that counts as a live process until fn
// returns.
func (m *Manager) Go(fn func()) {
	m.live.Add(1)
	m.n.Add(1)
	go func() {
		defer m.live.Done()
		defer m.n.Add(-1)
		fn()
	}()
}

// Live returns the number of processes started with Go that have not
// returned yet.
func (m *Manager) Live() int { return int(m.n.Load()) }

// Wait blocks until every process started with Go has returned, including
// the ones they start, or until ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.live.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send queues msg for pid. It reports false when pid is unknown.
func (m *Manager) Send(pid int64, msg string) bool {
	m.mu.Lock()
	mb, ok := m.mailboxes[pid]
	if ok {
		mb.queue = append(mb.queue, msg)
	}
	m.mu.Unlock()
	if !ok {
		slog.Debug("send to unknown process", "pid", pid)
		return false
	}

	select {
	case mb.notify <- struct{}{}:
	default:
	}
	return true
}

// Recv takes the oldest message for pid, blocking until one arrives or
// ctx is done. Messages are delivered in send order.
func (m *Manager) Recv(ctx context.Context, pid int64) (string, error) {
	m.mu.Lock()
	mb, ok := m.mailboxes[pid]
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("Process %d not registered", pid)
	}

	for {
		m.mu.Lock()
		if len(mb.queue) > 0 {
			msg := mb.queue[0]
			mb.queue = mb.queue[1:]
			more := len(mb.queue) > 0
			m.mu.Unlock()
			if more {
				// pass the wake-up on to another receiver of the same pid
				select {
				case mb.notify <- struct{}{}:
				default:
				}
			}
			return msg, nil
		}
		m.mu.Unlock()

		select {
		case <-mb.notify:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Pending returns the number of queued messages for pid.
func (m *Manager) Pending(pid int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mb, ok := m.mailboxes[pid]; ok {
		return len(mb.queue)
	}
	return 0
}

// Reset forgets every mailbox and restarts pids at 1.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextPid = 1
	m.mailboxes = make(map[int64]*mailbox)
}
