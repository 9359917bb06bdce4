package testing

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	stdtesting "testing"

	"github.com/getmockd/mockapp/pkg/controller"
	"github.com/getmockd/mockapp/pkg/route"
)

func post(t *stdtesting.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestNew(t *stdtesting.T) {
	mock := New(t, "127.0.0.1", 0)
	if mock == nil {
		t.Fatal("New() returned nil")
	}
	if mock.t != t {
		t.Error("New() did not set testing.TB")
	}
	if mock.URL() != "" {
		t.Errorf("URL() before Start: expected empty, got %s", mock.URL())
	}
}

func TestStartAndStop(t *stdtesting.T) {
	mock := New(t, "127.0.0.1", 0)

	mock.Mock("/api/v1/status").
		WithJSON(map[string]any{"data": map[string]string{"status": "all_good"}}).
		Reply()
	mock.Mock("/api/v1/price").
		WithBody(`{"data": {"price": 200}}`).
		Reply()

	url := mock.Start()
	if !strings.HasPrefix(url, "http://127.0.0.1:") {
		t.Fatalf("Expected URL to start with http://127.0.0.1:, got %s", url)
	}
	if again := mock.Start(); again != url {
		t.Errorf("second Start() returned %s, want %s", again, url)
	}

	status, body := post(t, url+"/api/v1/status")
	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if body != `{"data":{"status":"all_good"}}` {
		t.Errorf("unexpected body %q", body)
	}

	_, body = post(t, url+"/api/v1/price")
	if body != `{"data": {"price": 200}}` {
		t.Errorf("raw body not preserved: %q", body)
	}

	mock.Stop()
	if state := mock.Controller().State(); state != controller.StateTerminated {
		t.Errorf("state after Stop = %s", state)
	}
	if _, err := net.Dial("tcp", strings.TrimPrefix(url, "http://")); err == nil {
		t.Error("server still accepting connections after Stop")
	}
}

func TestCleanupStopsServer(t *stdtesting.T) {
	var ctrl *controller.Controller
	t.Run("inner", func(t *stdtesting.T) {
		mock := New(t, "127.0.0.1", 0)
		mock.Mock("/ping").WithJSON("pong").Reply()
		mock.Start()
		ctrl = mock.Controller()
	})

	if ctrl == nil {
		t.Fatal("inner test did not run")
	}
	if ctrl.State() != controller.StateTerminated {
		t.Errorf("expected cleanup to stop the server, state = %s", ctrl.State())
	}
}

func TestBuilderErrors(t *stdtesting.T) {
	mock := New(t, "127.0.0.1", 0)

	if err := mock.Mock("/empty").Err(); err == nil {
		t.Error("expected error for a mock without response")
	}
	if err := mock.Mock("/bad").WithBody(`{"unterminated"`).Err(); !errors.Is(err, route.ErrInvalidJSON) {
		t.Errorf("expected ErrInvalidJSON, got %v", err)
	}

	mock.Mock("/dup").WithJSON(1).Reply()
	if err := mock.Mock("/dup").WithJSON(2).Err(); !errors.Is(err, route.ErrDuplicateRoute) {
		t.Errorf("expected ErrDuplicateRoute, got %v", err)
	}

	mock.Start()
	if err := mock.Register("/late", 1); !errors.Is(err, route.ErrSealed) {
		t.Errorf("expected ErrSealed, got %v", err)
	}
}
