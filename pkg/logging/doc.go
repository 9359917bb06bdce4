// Package logging provides structured logging configuration for mockapp.
//
// This package wraps log/slog so the controller, the mock server and the CLI
// log the same way.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//
//	ctrl := controller.New("127.0.0.1", 5050, controller.WithLogger(logger))
//
// # Integration
//
// Components accept a *slog.Logger through a WithLogger option. When none is
// provided they use logging.Nop().
package logging
