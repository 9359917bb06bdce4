package server

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

var (
	// ErrBind is matched by every BindError.
	ErrBind = errors.New("bind failed")

	// ErrAlreadyServing is returned when Serve is called on a server that is
	// already serving or has served.
	ErrAlreadyServing = errors.New("server already serving")
)

// BindError reports that the listener could not be bound to Addr.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	switch {
	case IsAddrInUse(e.Err):
		return fmt.Sprintf("bind %s: address already in use", e.Addr)
	case IsPermissionDenied(e.Err):
		return fmt.Sprintf("bind %s: permission denied", e.Addr)
	}
	return fmt.Sprintf("bind %s: %v", e.Addr, e.Err)
}

// Unwrap returns the underlying listen error.
func (e *BindError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrBind) succeed.
func (e *BindError) Is(target error) bool { return target == ErrBind }

// IsAddrInUse reports whether err is an "address already in use" failure.
func IsAddrInUse(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	// Windows reports WSAEADDRINUSE, which does not map onto EADDRINUSE.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "address already in use") ||
		strings.Contains(msg, "only one usage of each socket address")
}

// IsPermissionDenied reports whether err is a privileged-port or similar
// permission failure.
func IsPermissionDenied(err error) bool {
	return err != nil && (errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM))
}
