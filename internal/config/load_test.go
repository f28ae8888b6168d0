package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the minimum environment for a successful Load.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STUDYDECK_DATABASE_URL", "postgres://localhost:5432/studydeck")
	t.Setenv("STUDYDECK_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestLoad_DefaultsApplied(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.ModelName)
	assert.Equal(t, 5, cfg.LLM.MaxAttempts)
	assert.Equal(t, 2000, cfg.LLM.BaseDelayMs)
	assert.Equal(t, 2, cfg.Task.WorkerCount)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STUDYDECK_SERVER_PORT", "9090")
	t.Setenv("STUDYDECK_SERVER_LOG_LEVEL", "debug")
	t.Setenv("STUDYDECK_LLM_MAX_ATTEMPTS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 3, cfg.LLM.MaxAttempts)
}

func TestLoad_MissingRequiredFails(t *testing.T) {
	// No database URL or JWT secret set.
	t.Setenv("STUDYDECK_DATABASE_URL", "")
	t.Setenv("STUDYDECK_AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoad_ShortJWTSecretFails(t *testing.T) {
	t.Setenv("STUDYDECK_DATABASE_URL", "postgres://localhost:5432/studydeck")
	t.Setenv("STUDYDECK_AUTH_JWT_SECRET", "tooshort")

	_, err := Load()
	require.Error(t, err)
}

func TestLLMConfig_APIKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{"empty", "", nil},
		{"single", "key-a", []string{"key-a"}},
		{"multiple", "key-a,key-b,key-c", []string{"key-a", "key-b", "key-c"}},
		{"empty_entries_preserved", "key-a,,key-b", []string{"key-a", "", "key-b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := LLMConfig{GeminiAPIKeys: tt.raw}
			assert.Equal(t, tt.expected, cfg.APIKeys())
		})
	}
}
