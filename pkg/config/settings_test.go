package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 400*time.Millisecond, s.ProbeInterval)
	assert.Equal(t, 30, s.ProbeAttempts)
	assert.Equal(t, 5*time.Second, s.StopGrace)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "text", s.LogFormat)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv(EnvProbeInterval, "50ms")
	t.Setenv(EnvProbeAttempts, "7")
	t.Setenv(EnvDialTimeout, "75")
	t.Setenv(EnvStopGrace, "2s")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogFormat, "json")

	s, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, s.ProbeInterval)
	assert.Equal(t, 7, s.ProbeAttempts)
	assert.Equal(t, 75*time.Millisecond, s.DialTimeout)
	assert.Equal(t, 2*time.Second, s.StopGrace)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "json", s.LogFormat)
}

func TestLoadEnv_Unset(t *testing.T) {
	t.Setenv(EnvProbeAttempts, "")
	s := DefaultSettings()
	require.NoError(t, LoadEnv(&s))
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoadEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"attempts not a number", EnvProbeAttempts, "many"},
		{"attempts zero", EnvProbeAttempts, "0"},
		{"interval garbage", EnvProbeInterval, "soon"},
		{"negative grace", EnvStopGrace, "-1s"},
		{"zero millis", EnvDialTimeout, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestIsChild(t *testing.T) {
	t.Setenv(EnvChild, "")
	assert.False(t, IsChild())
	t.Setenv(EnvChild, "1")
	assert.True(t, IsChild())
}
