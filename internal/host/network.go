package host

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

// MockRequest is what MockNetwork.Read returns for every connection.
const MockRequest = "GET / HTTP/1.1\r\n\r\n"

// MockNetwork answers every call with fixed handles: listen 1, accept 2,
// connect 3.
type MockNetwork struct{}

func (MockNetwork) Listen(ctx context.Context, port int64) (int64, error) { return 1, nil }

func (MockNetwork) Accept(ctx context.Context, server int64) (int64, error) { return 2, nil }

func (MockNetwork) Read(ctx context.Context, conn int64) (string, error) { return MockRequest, nil }

func (MockNetwork) Write(ctx context.Context, conn int64, data string) error { return nil }

func (MockNetwork) Close(ctx context.Context, conn int64) error { return nil }

func (MockNetwork) Connect(ctx context.Context, addr string, port int64) (int64, error) {
	return 3, nil
}

const readChunk = 4096

// aLongTimeAgo is a deadline in the past; setting it aborts blocked I/O.
var aLongTimeAgo = time.Unix(1, 0)

var errUnknownHandle = errors.New("unknown handle")

// TCPNetwork maps integer handles to real listeners and connections.
type TCPNetwork struct {
	mu        sync.Mutex
	next      int64
	listeners map[int64]net.Listener
	conns     map[int64]net.Conn
}

func NewTCPNetwork() *TCPNetwork {
	return &TCPNetwork{
		next:      1,
		listeners: make(map[int64]net.Listener),
		conns:     make(map[int64]net.Conn),
	}
}

func (n *TCPNetwork) add(l net.Listener, c net.Conn) int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	h := n.next
	n.next++
	if l != nil {
		n.listeners[h] = l
	} else {
		n.conns[h] = c
	}
	return h
}

func (n *TCPNetwork) conn(h int64) (net.Conn, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.conns[h]
	if !ok {
		return nil, fmt.Errorf("connection %d: %w", h, errUnknownHandle)
	}
	return c, nil
}

func (n *TCPNetwork) Listen(ctx context.Context, port int64) (int64, error) {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", ":"+strconv.FormatInt(port, 10))
	if err != nil {
		return 0, err
	}
	return n.add(l, nil), nil
}

func (n *TCPNetwork) Accept(ctx context.Context, server int64) (int64, error) {
	n.mu.Lock()
	l, ok := n.listeners[server]
	n.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("listener %d: %w", server, errUnknownHandle)
	}

	type accepted struct {
		c   net.Conn
		err error
	}
	ch := make(chan accepted, 1)
	go func() {
		c, err := l.Accept()
		ch <- accepted{c, err}
	}()

	select {
	case a := <-ch:
		if a.err != nil {
			return 0, a.err
		}
		return n.add(nil, a.c), nil
	case <-ctx.Done():
		// the pending Accept completes when the listener is closed
		return 0, ctx.Err()
	}
}

// Read returns the next chunk of data available on the connection.
func (n *TCPNetwork) Read(ctx context.Context, conn int64) (string, error) {
	c, err := n.conn(conn)
	if err != nil {
		return "", err
	}
	stop := context.AfterFunc(ctx, func() { c.SetReadDeadline(aLongTimeAgo) })
	defer stop()

	buf := make([]byte, readChunk)
	k, err := c.Read(buf)
	if err != nil && k == 0 {
		return "", err
	}
	return string(buf[:k]), nil
}

func (n *TCPNetwork) Write(ctx context.Context, conn int64, data string) error {
	c, err := n.conn(conn)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { c.SetWriteDeadline(aLongTimeAgo) })
	defer stop()
	_, err = c.Write([]byte(data))
	return err
}

// Close closes a connection or a listener.
func (n *TCPNetwork) Close(ctx context.Context, h int64) error {
	n.mu.Lock()
	c, isConn := n.conns[h]
	l, isListener := n.listeners[h]
	delete(n.conns, h)
	delete(n.listeners, h)
	n.mu.Unlock()

	switch {
	case isConn:
		return c.Close()
	case isListener:
		return l.Close()
	}
	return fmt.Errorf("handle %d: %w", h, errUnknownHandle)
}

func (n *TCPNetwork) Connect(ctx context.Context, addr string, port int64) (int64, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", net.JoinHostPort(addr, strconv.FormatInt(port, 10)))
	if err != nil {
		return 0, err
	}
	return n.add(nil, c), nil
}

// CloseAll releases every open handle.
func (n *TCPNetwork) CloseAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for h, c := range n.conns {
		c.Close()
		delete(n.conns, h)
	}
	for h, l := range n.listeners {
		l.Close()
		delete(n.listeners, h)
	}
}
