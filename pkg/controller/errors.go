package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/getmockd/mockapp/pkg/server"
)

var (
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("mock server already started")

	// ErrTerminated is returned by Start and Register after Stop.
	ErrTerminated = errors.New("mock server controller terminated")

	// ErrReadinessTimeout is matched by every ReadinessTimeoutError.
	ErrReadinessTimeout = errors.New("mock server readiness timeout")

	errNotBound = errors.New("listener not bound yet")
)

// ReadinessTimeoutError is returned when the server did not accept
// connections within the probe budget.
type ReadinessTimeoutError struct {
	Addr     string
	Attempts int
	Elapsed  time.Duration
	Err      error // last probe failure
}

func (e *ReadinessTimeoutError) Error() string {
	msg := fmt.Sprintf("mock server at %s not ready after %d attempts (%s)",
		e.Addr, e.Attempts, e.Elapsed.Round(time.Millisecond))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ReadinessTimeoutError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrReadinessTimeout) succeed.
func (e *ReadinessTimeoutError) Is(target error) bool {
	return target == ErrReadinessTimeout
}

// ExitError reports an execution context that ended before the server
// became ready, for a reason other than a bind failure.
type ExitError struct {
	Err error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "mock server exited before becoming ready"
	}
	return "mock server exited before becoming ready: " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitError classifies the error of an execution context that has exited.
// Bind failures are passed through so callers can match server.ErrBind.
func exitError(err error) error {
	if errors.Is(err, server.ErrBind) {
		return err
	}
	return &ExitError{Err: err}
}
