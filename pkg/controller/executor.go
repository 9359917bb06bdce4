package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/getmockd/mockapp/pkg/server"
)

// Executor starts a mock server in an execution context of its own.
//
// Spawn must not block until the server is ready; the controller probes
// readiness through the returned Handle.
type Executor interface {
	Name() string
	Spawn(ctx context.Context, srv *server.Server) (Handle, error)
}

// Handle is a running execution context.
type Handle interface {
	// Addr returns the bound listener address, or "" until the server
	// reports that it is bound.
	Addr() string

	// Done is closed when the execution context has exited.
	Done() <-chan struct{}

	// Err is the exit error. It is only meaningful after Done is closed.
	Err() error

	// Kill terminates the execution context abruptly. It does not wait
	// for the exit; use Done for that.
	Kill() error
}

// InProcess serves from a goroutine in the current process.
type InProcess struct{}

// Name implements Executor.
func (InProcess) Name() string { return "in-process" }

// Spawn implements Executor. The serve loop outlives ctx; it ends on Kill.
func (InProcess) Spawn(ctx context.Context, srv *server.Server) (Handle, error) {
	serveCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h := &inProcessHandle{
		srv:    srv,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.setErr(fmt.Errorf("mock server panicked: %v", r))
			}
		}()
		h.setErr(srv.Serve(serveCtx))
	}()
	return h, nil
}

type inProcessHandle struct {
	srv    *server.Server
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func (h *inProcessHandle) Addr() string {
	select {
	case <-h.srv.Bound():
	default:
		return ""
	}
	if a := h.srv.BoundAddr(); a != nil {
		return a.String()
	}
	return ""
}

func (h *inProcessHandle) Done() <-chan struct{} { return h.done }

func (h *inProcessHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *inProcessHandle) setErr(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

func (h *inProcessHandle) Kill() error {
	h.cancel()
	return h.srv.Close()
}
