package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SIXU_DATABASE_URL", "postgres://localhost:5432/sixu")
	t.Setenv("SIXU_LLM_GEMINI_API_KEY", "test-api-key")
}

func TestLoadFromEnvironment(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/sixu", cfg.Database.URL)
	assert.Equal(t, "test-api-key", cfg.LLM.GeminiAPIKey)

	// Everything else falls back to defaults
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.ModelName)
	assert.Equal(t, 5, cfg.Generation.Concurrency)
	assert.Equal(t, 3000, cfg.Generation.MaxChunkSize)
	assert.Equal(t, 10, cfg.Generation.DefaultCardCount)
	assert.Equal(t, ".", cfg.Generation.NotesDir)
	assert.Equal(t, 20, cfg.Study.NewPerDay)
	assert.Equal(t, 200, cfg.Study.ReviewPerDay)
}

func TestLoadEnvironmentOverridesDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SIXU_SERVER_PORT", "9090")
	t.Setenv("SIXU_SERVER_LOG_LEVEL", "debug")
	t.Setenv("SIXU_GENERATION_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 8, cfg.Generation.Concurrency)
}

func TestLoadMissingRequiredValues(t *testing.T) {
	// Only one of the two required secrets is present
	t.Setenv("SIXU_DATABASE_URL", "postgres://localhost:5432/sixu")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SIXU_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
