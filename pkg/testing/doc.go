// Package testing provides helpers for using mockapp in Go tests.
//
// A MockServer wraps a controller.Controller and ties its lifetime to the
// test: it is stopped by t.Cleanup even when the test fails or panics.
//
// # Basic Usage
//
//	func TestClient(t *testing.T) {
//	    mock := mocktesting.New(t, "127.0.0.1", 0)
//
//	    mock.Mock("/api/v1/status").
//	        WithJSON(map[string]any{"data": map[string]string{"status": "all_good"}}).
//	        Reply()
//
//	    url := mock.Start()
//
//	    resp, err := http.Post(url+"/api/v1/status", "application/json", nil)
//	    // ...
//	}
//
// Port 0 picks a free port; the bound address is part of the URL returned by
// Start. Mocks must be registered before Start.
//
// # Raw Bodies
//
// WithBody serves a JSON document exactly as written, whitespace included:
//
//	mock.Mock("/api/v1/price").WithBody(`{"data": {"price": 200}}`).Reply()
//
// # Settings
//
// Probe timings and log level come from the MOCKAPP_* environment variables
// (see the config package). Server logs go to the test output.
package testing
