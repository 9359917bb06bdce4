// Package controller runs a mock server as a scoped resource.
//
// A Controller owns one server.Server. Routes are registered first, then
// Start spawns the server in an execution context and blocks until the
// listener accepts connections or a bounded retry budget runs out. Stop
// terminates the execution context abruptly and is safe to call on every
// exit path, including when Start was never called or failed.
//
//	c := controller.New("127.0.0.1", 5050)
//	defer c.Stop()
//
//	_ = c.Register("/api/v1/status", map[string]any{"data": map[string]string{"status": "all_good"}})
//	if err := c.Start(ctx); err != nil {
//		return err
//	}
//	// POST to c.URL() + "/api/v1/status"
//
// Run wraps the same sequence around a callback.
//
// # Execution contexts
//
// The default executor, InProcess, serves from a goroutine in the calling
// process. Subprocess re-executes a mockapp binary with "serve" and hands the
// routes over in a temporary file; it is killed with SIGKILL on its process
// group. Both report when their listener is bound, and readiness requires that
// report in addition to a successful TCP connect. A port already held by
// another process therefore never looks ready.
package controller
