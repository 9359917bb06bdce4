package controller

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retry runs op up to attempts times, interval apart, and returns how many
// attempts ran. A backoff.Permanent error stops it early.
func retry(ctx context.Context, interval time.Duration, attempts int, op func() error, notify backoff.Notify) (int, error) {
	if attempts < 1 {
		attempts = 1
	}
	var n int
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(attempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(func() error {
		n++
		return op()
	}, b, notify)
	return n, err
}

func dial(ctx context.Context, addr string, timeout time.Duration) error {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

// canceled reports whether err is ctx's own cancellation or deadline error.
func canceled(ctx context.Context, err error) bool {
	cerr := ctx.Err()
	return cerr != nil && errors.Is(err, cerr)
}

// WaitReachable blocks until a TCP connection to addr succeeds. It gives up
// after attempts tries spaced interval apart with a *ReadinessTimeoutError,
// or returns the context error when ctx ends first.
//
// A successful connect only shows that something listens on addr. Start
// uses a stricter check that also needs the server to report its own bind.
func WaitReachable(ctx context.Context, addr string, interval time.Duration, attempts int, dialTimeout time.Duration) error {
	start := time.Now()
	n, err := retry(ctx, interval, attempts, func() error {
		return dial(ctx, addr, dialTimeout)
	}, nil)
	if err == nil {
		return nil
	}
	if canceled(ctx, err) {
		return err
	}
	return &ReadinessTimeoutError{Addr: addr, Attempts: n, Elapsed: time.Since(start), Err: err}
}

// waitReady probes h until its server is bound and accepts connections.
// It returns the bound address.
func (c *Controller) waitReady(ctx context.Context, h Handle) (string, error) {
	var (
		addr   string
		exited bool
		start  = time.Now()
	)

	op := func() error {
		select {
		case <-h.Done():
			exited = true
			return backoff.Permanent(exitError(h.Err()))
		default:
		}
		addr = h.Addr()
		if addr == "" {
			return errNotBound
		}
		return dial(ctx, addr, c.dialTimeout)
	}
	notify := func(err error, next time.Duration) {
		c.log.Debug("mock server not ready", "session", c.session, "error", err, "retry_in", next)
	}

	n, err := retry(ctx, c.probeInterval, c.probeAttempts, op, notify)
	switch {
	case err == nil:
		return addr, nil
	case exited, canceled(ctx, err):
		return "", err
	}

	target := addr
	if target == "" {
		target = c.srv.Addr()
	}
	return "", &ReadinessTimeoutError{Addr: target, Attempts: n, Elapsed: time.Since(start), Err: err}
}
