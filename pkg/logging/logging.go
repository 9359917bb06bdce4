package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level represents a log level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format represents the log output format.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level Level

	// Format is the output format (text or json).
	Format Format

	// Output is the writer to send logs to. Defaults to os.Stderr.
	Output io.Writer

	// AddSource adds source file and line to log entries.
	AddSource bool
}

// DefaultConfig returns the configuration used by the mockapp CLI.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
		Output: os.Stderr,
	}
}

// New creates a new slog.Logger with the given configuration.
func New(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	default:
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	return slog.New(handler)
}

// Nop returns a logger that discards all output.
// Components default to it when no logger is supplied.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel parses a log level string, ignoring case.
// Valid values: "debug", "info", "warn"/"warning", "error".
// Returns LevelInfo if the string is not recognized.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat parses a log format string, ignoring case.
// Returns FormatText if the string is not recognized.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}
