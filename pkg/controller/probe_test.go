package controller

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitReachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = WaitReachable(t.Context(), ln.Addr().String(), 10*time.Millisecond, 3, 100*time.Millisecond)
	assert.NoError(t, err)
}

func TestWaitReachable_Timeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	err = WaitReachable(t.Context(), addr, 5*time.Millisecond, 4, 50*time.Millisecond)
	require.ErrorIs(t, err, ErrReadinessTimeout)

	var timeoutErr *ReadinessTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, addr, timeoutErr.Addr)
	assert.Equal(t, 4, timeoutErr.Attempts)
	assert.NotNil(t, timeoutErr.Err)
}

func TestWaitReachable_LateListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	lateCh := make(chan net.Listener, 1)
	go func() {
		time.Sleep(50 * time.Millisecond)
		late, err := net.Listen("tcp", addr)
		if err != nil {
			lateCh <- nil
			return
		}
		lateCh <- late
	}()

	err = WaitReachable(t.Context(), addr, 20*time.Millisecond, 50, 50*time.Millisecond)
	late := <-lateCh
	require.NotNil(t, late, "could not re-bind %s", addr)
	defer late.Close()
	assert.NoError(t, err)
}

func TestWaitReachable_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := WaitReachable(ctx, "127.0.0.1:1", time.Second, 10, 50*time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrReadinessTimeout)
}

func TestRetry_Permanent(t *testing.T) {
	stop := errors.New("stop")
	n, err := retry(t.Context(), time.Millisecond, 10, func() error {
		return backoff.Permanent(stop)
	}, nil)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, stop)
}

func TestRetry_MinimumOneAttempt(t *testing.T) {
	n, err := retry(t.Context(), time.Millisecond, 0, func() error { return errNotBound }, nil)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, errNotBound)
}

func TestErrors(t *testing.T) {
	e := &ReadinessTimeoutError{Addr: "127.0.0.1:80", Attempts: 3, Elapsed: 1234 * time.Millisecond, Err: errNotBound}
	assert.Equal(t, "mock server at 127.0.0.1:80 not ready after 3 attempts (1.234s): listener not bound yet", e.Error())

	assert.Equal(t, "mock server exited before becoming ready", (&ExitError{}).Error())
	assert.Equal(t, "mock server exited before becoming ready: boom", (&ExitError{Err: errors.New("boom")}).Error())
}
