package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/mockapp/internal/ports"
	"github.com/getmockd/mockapp/pkg/config"
	"github.com/getmockd/mockapp/pkg/logging"
	"github.com/getmockd/mockapp/pkg/route"
	"github.com/getmockd/mockapp/pkg/server"
)

// Controller owns one mock server and the execution context serving it.
// Its methods are safe for concurrent use.
type Controller struct {
	srv     *server.Server
	exec    Executor
	log     *slog.Logger
	session string

	probeInterval time.Duration
	probeAttempts int
	dialTimeout   time.Duration
	stopGrace     time.Duration

	mu        sync.Mutex
	state     State
	err       error
	handle    Handle
	boundAddr string

	// spawned is closed once Start has either stored the handle or given
	// up before spawning. Nil until Start runs.
	spawned chan struct{}
}

// Option is a functional option for configuring a Controller.
type Option func(*Controller)

// WithLogger sets the logger for the controller and its server.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithExecutor selects how the server is run. The default is InProcess.
func WithExecutor(e Executor) Option {
	return func(c *Controller) {
		if e != nil {
			c.exec = e
		}
	}
}

// WithSettings applies the probe and stop timings from s.
func WithSettings(s config.Settings) Option {
	return func(c *Controller) {
		WithProbeInterval(s.ProbeInterval)(c)
		WithProbeAttempts(s.ProbeAttempts)(c)
		WithDialTimeout(s.DialTimeout)(c)
		WithStopGrace(s.StopGrace)(c)
	}
}

// WithProbeInterval sets the delay between readiness attempts.
func WithProbeInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.probeInterval = d
		}
	}
}

// WithProbeAttempts sets how many readiness attempts Start makes.
func WithProbeAttempts(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.probeAttempts = n
		}
	}
}

// WithDialTimeout bounds each readiness connect.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

// WithStopGrace bounds how long Stop waits for a killed context to exit.
func WithStopGrace(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.stopGrace = d
		}
	}
}

// New returns an idle controller for a server on host:port.
func New(host string, port int, opts ...Option) *Controller {
	c := &Controller{
		exec:          InProcess{},
		log:           logging.Nop(),
		session:       uuid.NewString(),
		probeInterval: config.DefaultProbeInterval,
		probeAttempts: config.DefaultProbeAttempts,
		dialTimeout:   config.DefaultDialTimeout,
		stopGrace:     config.DefaultStopGrace,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.srv = server.New(host, port, server.WithLogger(c.log.With("session", c.session)))
	return c
}

// Run creates a controller, passes it to fn and stops it when fn returns or
// panics. The panic is re-raised after Stop.
func Run(ctx context.Context, host string, port int, fn func(context.Context, *Controller) error, opts ...Option) error {
	c := New(host, port, opts...)
	defer c.Stop()
	return fn(ctx, c)
}

// Register adds a canned response for POST requests to path. It must be
// called before Start; afterwards it returns route.ErrSealed.
func (c *Controller) Register(path string, response any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state == StateTerminated:
		return ErrTerminated
	case c.state.started():
		return route.ErrSealed
	}

	if err := c.srv.Register(path, response); err != nil {
		return err
	}
	c.state = StateRegistering
	return nil
}

// Start spawns the server and blocks until it accepts connections.
//
// Only the first call spawns; later calls return ErrAlreadyStarted. On
// failure the controller moves to StateFailed and Err returns the cause,
// which is a *server.BindError, *ReadinessTimeoutError, *ExitError or the
// context error. Stop must still be called. A Stop that interrupts Start
// makes it return ErrTerminated.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state == StateTerminated:
		c.mu.Unlock()
		return ErrTerminated
	case c.state.started():
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.state = StateStarting
	spawned := make(chan struct{})
	c.spawned = spawned
	markSpawned := sync.OnceFunc(func() { close(spawned) })
	defer markSpawned()
	c.srv.Routes().Seal()
	c.mu.Unlock()

	log := c.log.With("session", c.session, "addr", c.srv.Addr(), "executor", c.exec.Name())

	if c.srv.Port() != 0 {
		if err := ports.Check(c.srv.Host(), c.srv.Port()); err != nil {
			return c.fail(log, &server.BindError{Addr: c.srv.Addr(), Err: err})
		}
	}

	log.Debug("spawning mock server", "routes", c.srv.Routes().Len())
	h, err := c.exec.Spawn(ctx, c.srv)
	if err != nil {
		return c.fail(log, fmt.Errorf("spawn mock server: %w", err))
	}

	c.mu.Lock()
	c.handle = h
	stopped := c.state == StateTerminated
	markSpawned()
	c.mu.Unlock()

	if stopped {
		// Stop ran while spawning. It may have given up waiting for the
		// handle, so the context is reaped here as well.
		c.killAndWait(log, h, c.stopGrace)
		return ErrTerminated
	}

	addr, err := c.waitReady(ctx, h)
	if err != nil {
		return c.fail(log, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateTerminated {
		return ErrTerminated
	}
	c.state = StateReady
	c.boundAddr = addr
	log.Info("mock server ready", "bound", addr)
	return nil
}

// fail records err and moves to StateFailed, unless Stop already ran, in
// which case the failure is a consequence of stopping and ErrTerminated is
// returned instead.
func (c *Controller) fail(log *slog.Logger, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateTerminated {
		log.Debug("mock server start interrupted by stop", "error", err)
		return ErrTerminated
	}
	c.state = StateFailed
	c.err = err
	log.Error("mock server failed to start", "error", err)
	return err
}

// Stop terminates the execution context and waits, up to the stop grace
// period, for it to exit. When Start is still spawning, Stop waits for the
// spawn within the same grace period. It is idempotent, safe before Start,
// and never panics; problems are logged.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == StateTerminated {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = StateTerminated
	h := c.handle
	spawned := c.spawned
	c.mu.Unlock()

	log := c.log.With("session", c.session, "addr", c.srv.Addr())
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while stopping mock server", "panic", r)
		}
	}()

	deadline := time.Now().Add(c.stopGrace)
	if h == nil && spawned != nil {
		timer := time.NewTimer(c.stopGrace)
		select {
		case <-spawned:
		case <-timer.C:
			log.Warn("mock server still spawning after grace period", "grace", c.stopGrace)
		}
		timer.Stop()
		c.mu.Lock()
		h = c.handle
		c.mu.Unlock()
	}

	if h == nil {
		log.Debug("mock server stopped before it was spawned", "state", prev.String())
		return
	}
	if c.killAndWait(log, h, time.Until(deadline)) {
		log.Info("mock server stopped", "state", prev.String())
	}
}

func (c *Controller) killAndWait(log *slog.Logger, h Handle, grace time.Duration) bool {
	if err := h.Kill(); err != nil {
		log.Warn("failed to kill mock server", "error", err)
	}

	timer := time.NewTimer(max(grace, 0))
	defer timer.Stop()
	select {
	case <-h.Done():
		return true
	case <-timer.C:
		log.Warn("mock server did not exit within grace period", "grace", c.stopGrace)
		return false
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error that moved the controller to StateFailed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Addr returns the bound address once ready, else the configured host:port.
func (c *Controller) Addr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.boundAddr != "" {
		return c.boundAddr
	}
	return c.srv.Addr()
}

// URL returns the base URL of the server, without a trailing slash.
func (c *Controller) URL() string {
	return "http://" + c.Addr()
}

// Port returns the bound port once ready, else the configured port.
func (c *Controller) Port() int {
	_, p, err := net.SplitHostPort(c.Addr())
	if err != nil {
		return c.srv.Port()
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return c.srv.Port()
	}
	return port
}

// SessionID identifies this controller in logs.
func (c *Controller) SessionID() string { return c.session }

// Routes returns the route table.
func (c *Controller) Routes() *route.Table { return c.srv.Routes() }
