package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Satisfy the fields with no defaults.
	t.Setenv("LOOKBOOK_AUTH_API_KEYS", "0123456789abcdef0123456789abcdef")
	t.Setenv("LOOKBOOK_PROVIDERS_GEMINI_API_KEY", "test-gemini-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 100, cfg.Queue.Capacity)
	assert.Equal(t, 10, cfg.Queue.WorkerCount)
	assert.Equal(t, 3, cfg.Queue.MaxAttempts)
	assert.Equal(t, 1*time.Second, cfg.Queue.RetryBaseDelay)
	assert.Equal(t, 10, cfg.Generation.MaxConcurrent)
	assert.Equal(t, 4, cfg.Upscale.WorkerCount)
	assert.Equal(t, "local", cfg.Storage.Backend)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LOOKBOOK_AUTH_API_KEYS", "0123456789abcdef0123456789abcdef")
	t.Setenv("LOOKBOOK_PROVIDERS_GEMINI_API_KEY", "test-gemini-key")
	t.Setenv("LOOKBOOK_SERVER_PORT", "9090")
	t.Setenv("LOOKBOOK_SERVER_LOG_LEVEL", "debug")
	t.Setenv("LOOKBOOK_QUEUE_WORKER_COUNT", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 4, cfg.Queue.WorkerCount)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	t.Setenv("LOOKBOOK_AUTH_API_KEYS", "0123456789abcdef0123456789abcdef")
	t.Setenv("LOOKBOOK_PROVIDERS_GEMINI_API_KEY", "test-gemini-key")
	t.Setenv("LOOKBOOK_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadRequiresAPIKeys(t *testing.T) {
	t.Setenv("LOOKBOOK_PROVIDERS_GEMINI_API_KEY", "test-gemini-key")
	t.Setenv("LOOKBOOK_AUTH_API_KEYS", "")

	_, err := Load()
	require.Error(t, err)
}
