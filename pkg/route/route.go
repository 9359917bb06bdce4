// Package route holds the table of canned JSON responses served by a mock server.
//
// A Table maps URL paths to pre-encoded JSON bodies. It is filled before the
// server starts and sealed when serving begins; a sealed table never changes,
// so request handlers read it without locking against registration.
package route

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrSealed is returned when a route is registered after serving began.
	ErrSealed = errors.New("routes immutable after start")

	// ErrDuplicateRoute is matched by every DuplicateRouteError.
	ErrDuplicateRoute = errors.New("duplicate route")

	// ErrInvalidPath is returned for paths that do not start with "/".
	ErrInvalidPath = errors.New("invalid route path")

	// ErrInvalidJSON is returned when a response cannot be used as a JSON body.
	ErrInvalidJSON = errors.New("invalid JSON response")
)

// DuplicateRouteError reports a second registration of the same path.
// The first registration stays in effect.
type DuplicateRouteError struct {
	Path string
}

func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("route %q already registered", e.Path)
}

// Is makes errors.Is(err, ErrDuplicateRoute) succeed.
func (e *DuplicateRouteError) Is(target error) bool {
	return target == ErrDuplicateRoute
}

// Table is a set of path -> JSON body entries. The zero value is ready to use.
type Table struct {
	mu     sync.RWMutex
	routes map[string][]byte
	sealed bool
}

// NewTable returns an empty, unsealed table.
func NewTable() *Table {
	return &Table{}
}

// Register stores response under path.
//
// A json.RawMessage or []byte response is stored byte for byte once it is
// known to be valid JSON. Any other value is encoded with encoding/json.
func (t *Table) Register(path string, response any) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: %q must start with /", ErrInvalidPath, path)
	}

	body, err := Encode(response)
	if err != nil {
		return fmt.Errorf("route %q: %w", path, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sealed {
		return ErrSealed
	}
	if _, ok := t.routes[path]; ok {
		return &DuplicateRouteError{Path: path}
	}
	if t.routes == nil {
		t.routes = make(map[string][]byte)
	}
	t.routes[path] = body
	return nil
}

// Encode turns a response value into the bytes served for it.
func Encode(response any) ([]byte, error) {
	switch v := response.(type) {
	case json.RawMessage:
		return validRaw(v)
	case []byte:
		return validRaw(v)
	}

	body, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return body, nil
}

func validRaw(b []byte) ([]byte, error) {
	if !json.Valid(b) {
		return nil, ErrInvalidJSON
	}
	return slices.Clone(b), nil
}

// Seal makes the table immutable. Sealing twice is a no-op.
func (t *Table) Seal() {
	t.mu.Lock()
	t.sealed = true
	t.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (t *Table) Sealed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sealed
}

// Lookup returns the body registered for path.
func (t *Table) Lookup(path string) ([]byte, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	body, ok := t.routes[path]
	return body, ok
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

// Paths returns the registered paths in lexical order.
func (t *Table) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Sorted(maps.Keys(t.routes))
}

// Entries returns a copy of the table contents.
func (t *Table) Entries() map[string]json.RawMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(t.routes))
	for path, body := range t.routes {
		out[path] = slices.Clone(body)
	}
	return out
}
