// Package server provides the mock HTTP server: one listener, one route
// table, one blocking serve loop.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/getmockd/mockapp/pkg/logging"
	"github.com/getmockd/mockapp/pkg/route"
)

// Server serves canned JSON responses for registered POST paths.
type Server struct {
	host   string
	port   int
	routes *route.Table
	log    *slog.Logger

	onBound           func(net.Addr)
	readHeaderTimeout time.Duration

	bound chan struct{}

	mu         sync.Mutex
	serving    bool
	closed     bool
	listener   net.Listener
	httpServer *http.Server
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRoutes makes the server serve an existing route table.
func WithRoutes(t *route.Table) Option {
	return func(s *Server) {
		if t != nil {
			s.routes = t
		}
	}
}

// OnBound registers a callback invoked once the listener is bound and
// before connections are served.
func OnBound(fn func(net.Addr)) Option {
	return func(s *Server) {
		s.onBound = fn
	}
}

// New creates a server for host:port. Port 0 lets the kernel choose.
func New(host string, port int, opts ...Option) *Server {
	s := &Server{
		host:              host,
		port:              port,
		routes:            route.NewTable(),
		log:               logging.Nop(),
		readHeaderTimeout: 5 * time.Second,
		bound:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Host returns the configured host.
func (s *Server) Host() string { return s.host }

// Port returns the configured port.
func (s *Server) Port() int { return s.port }

// Addr returns the configured host:port.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// BoundAddr returns the listener address, or nil before the server is bound.
func (s *Server) BoundAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Bound returns a channel closed once the listener is bound.
func (s *Server) Bound() <-chan struct{} { return s.bound }

// Routes returns the server's route table.
func (s *Server) Routes() *route.Table { return s.routes }

// Register adds a canned response for POST requests to path.
// It fails with route.ErrSealed once Serve has been called.
func (s *Server) Register(path string, response any) error {
	return s.routes.Register(path, response)
}

// Serve binds host:port and serves until ctx is done or Close is called.
// A bind failure is returned as a *BindError. Routes are sealed on entry.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.serving {
		s.mu.Unlock()
		return ErrAlreadyServing
	}
	s.serving = true
	s.mu.Unlock()

	s.routes.Seal()

	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		s.log.Error("failed to bind mock server", "addr", s.Addr(), "error", err)
		return &BindError{Addr: s.Addr(), Err: err}
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelDebug),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	s.listener = ln
	s.httpServer = hs
	s.mu.Unlock()
	close(s.bound)

	s.log.Info("mock server listening", "addr", ln.Addr().String(), "routes", s.routes.Len())
	if s.onBound != nil {
		s.onBound(ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hs.Serve(ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		return hs.Close()
	})

	err := g.Wait()
	if err == nil || errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		s.log.Info("mock server stopped", "addr", ln.Addr().String())
		return nil
	}
	return err
}

// Close stops the server immediately. Active connections are closed
// without waiting for in-flight requests. Close before Serve makes a
// later Serve return right after binding.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	hs := s.httpServer
	s.mu.Unlock()

	if hs == nil {
		return nil
	}
	return hs.Close()
}
