package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variable names
const (
	EnvProbeInterval = "MOCKAPP_PROBE_INTERVAL"
	EnvProbeAttempts = "MOCKAPP_PROBE_ATTEMPTS"
	EnvDialTimeout   = "MOCKAPP_DIAL_TIMEOUT"
	EnvStopGrace     = "MOCKAPP_STOP_GRACE"
	EnvLogLevel      = "MOCKAPP_LOG_LEVEL"
	EnvLogFormat     = "MOCKAPP_LOG_FORMAT"

	// EnvChild marks a process started by the subprocess executor.
	EnvChild = "MOCKAPP_CHILD"
)

// Default readiness budget: 30 attempts, 400ms apart.
const (
	DefaultProbeInterval = 400 * time.Millisecond
	DefaultProbeAttempts = 30
	DefaultDialTimeout   = 200 * time.Millisecond
	DefaultStopGrace     = 5 * time.Second
)

// Settings are the tunables shared by the CLI and the testing helpers.
type Settings struct {
	ProbeInterval time.Duration
	ProbeAttempts int
	DialTimeout   time.Duration
	StopGrace     time.Duration
	LogLevel      string
	LogFormat     string
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		ProbeInterval: DefaultProbeInterval,
		ProbeAttempts: DefaultProbeAttempts,
		DialTimeout:   DefaultDialTimeout,
		StopGrace:     DefaultStopGrace,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// LoadEnv overrides s with any MOCKAPP_* variables present in the
// environment. Unset variables leave the field untouched.
func LoadEnv(s *Settings) error {
	if err := envDuration(EnvProbeInterval, &s.ProbeInterval); err != nil {
		return err
	}
	if v := os.Getenv(EnvProbeAttempts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s: must be a positive integer, got %q", EnvProbeAttempts, v)
		}
		s.ProbeAttempts = n
	}
	if err := envDuration(EnvDialTimeout, &s.DialTimeout); err != nil {
		return err
	}
	if err := envDuration(EnvStopGrace, &s.StopGrace); err != nil {
		return err
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		s.LogFormat = v
	}
	return nil
}

// FromEnv returns DefaultSettings with environment overrides applied.
func FromEnv() (Settings, error) {
	s := DefaultSettings()
	if err := LoadEnv(&s); err != nil {
		return DefaultSettings(), err
	}
	return s, nil
}

// IsChild reports whether this process was spawned by the subprocess executor.
func IsChild() bool {
	return os.Getenv(EnvChild) == "1"
}

// envDuration accepts Go durations ("250ms") or bare milliseconds ("250").
func envDuration(name string, dst *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		if ms <= 0 {
			return fmt.Errorf("%s: must be positive, got %q", name, v)
		}
		*dst = time.Duration(ms) * time.Millisecond
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fmt.Errorf("%s: invalid duration %q", name, v)
	}
	*dst = d
	return nil
}
