package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://localhost:8080", cfg.ServiceBaseURL)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.StubSeed)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVICE_BASE_URL", "https://api.clinic.example")
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("STUB_SEED", "false")
	t.Setenv("REQUEST_TIMEOUT", "bogus")

	cfg := Load()

	assert.Equal(t, "https://api.clinic.example", cfg.ServiceBaseURL)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.False(t, cfg.StubSeed)
	// Unparseable durations keep the default.
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}
