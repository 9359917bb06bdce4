// Package ports provides port availability checking.
package ports

import (
	"fmt"
	"net"
	"strconv"
)

// Check reports whether host:port can currently be bound. It returns the
// bind error when it cannot.
func Check(host string, port int) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	_ = ln.Close()
	return nil
}

// IsAvailable checks if host:port is available for binding.
func IsAvailable(host string, port int) bool {
	return Check(host, port) == nil
}

// Free asks the kernel for an unused TCP port on host.
// The port is released before returning, so callers racing other
// processes may still lose it.
func Free(host string) (int, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, fmt.Errorf("allocating port on %s: %w", host, err)
	}
	defer func() { _ = ln.Close() }()

	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected listener address %s", ln.Addr())
	}
	return addr.Port, nil
}
