package testing

import (
	"testing"

	"github.com/getmockd/mockapp/pkg/config"
	"github.com/getmockd/mockapp/pkg/controller"
	"github.com/getmockd/mockapp/pkg/logging"
)

// MockServer is a test-scoped mock server.
type MockServer struct {
	t    testing.TB
	ctrl *controller.Controller
	url  string
}

// New creates a mock server for host:port that is stopped when the test
// completes. Options are applied after the environment settings.
func New(t testing.TB, host string, port int, opts ...controller.Option) *MockServer {
	t.Helper()

	settings, err := config.FromEnv()
	if err != nil {
		t.Fatalf("mockapp: %v", err)
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(settings.LogLevel),
		Format: logging.ParseFormat(settings.LogFormat),
		Output: t.Output(),
	})

	all := append([]controller.Option{
		controller.WithSettings(settings),
		controller.WithLogger(log),
	}, opts...)

	m := &MockServer{
		t:    t,
		ctrl: controller.New(host, port, all...),
	}
	t.Cleanup(m.Stop)
	return m
}

// Mock starts a route definition for path. Finish it with Reply.
func (m *MockServer) Mock(path string) *MockBuilder {
	return &MockBuilder{server: m, path: path}
}

// Register adds a canned response and returns any registration error.
func (m *MockServer) Register(path string, response any) error {
	return m.ctrl.Register(path, response)
}

// Start starts the server and returns its base URL. The test fails
// immediately if the server does not become ready.
func (m *MockServer) Start() string {
	m.t.Helper()

	if m.url != "" {
		return m.url
	}
	if err := m.ctrl.Start(m.t.Context()); err != nil {
		m.t.Fatalf("mockapp: start mock server: %v", err)
	}
	m.url = m.ctrl.URL()
	return m.url
}

// Stop stops the server. It is safe to call more than once.
func (m *MockServer) Stop() {
	m.ctrl.Stop()
}

// URL returns the base URL of the mock server.
// Returns empty string if the server is not started.
func (m *MockServer) URL() string {
	return m.url
}

// Controller exposes the underlying controller.
func (m *MockServer) Controller() *controller.Controller {
	return m.ctrl
}
