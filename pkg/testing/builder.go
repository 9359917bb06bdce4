package testing

import (
	"encoding/json"
	"errors"
)

// MockBuilder builds one route using a fluent API.
type MockBuilder struct {
	server   *MockServer
	path     string
	response any
	set      bool
}

// WithJSON serves v encoded with encoding/json.
func (b *MockBuilder) WithJSON(v any) *MockBuilder {
	b.response = v
	b.set = true
	return b
}

// WithBody serves body verbatim. It must be valid JSON.
func (b *MockBuilder) WithBody(body string) *MockBuilder {
	b.response = json.RawMessage(body)
	b.set = true
	return b
}

// Err registers the route and returns the error instead of failing the test.
func (b *MockBuilder) Err() error {
	if !b.set {
		return errors.New("mock " + b.path + ": no response set")
	}
	return b.server.Register(b.path, b.response)
}

// Reply registers the route. The test fails if registration fails.
func (b *MockBuilder) Reply() {
	b.server.t.Helper()
	if err := b.Err(); err != nil {
		b.server.t.Fatalf("mockapp: %v", err)
	}
}
