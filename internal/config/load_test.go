package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PAWZ_DATABASE_URL", "postgres://localhost:5432/pawz_test")
	t.Setenv("PAWZ_LLM_GEMINI_API_KEY", "test-api-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.ModelName)
	assert.Equal(t, 3, cfg.Queue.MaxConcurrent)
	assert.Equal(t, 3, cfg.Queue.MaxRetry)
	assert.Equal(t, 120, cfg.Queue.ScoreTimeoutSeconds)
	assert.Equal(t, 180, cfg.Queue.StuckThresholdSeconds)
	assert.Equal(t, 60, cfg.Queue.RetryDelaySeconds)
	assert.Equal(t, 60, cfg.Queue.WatchdogIntervalSeconds)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAWZ_SERVER_PORT", "9090")
	t.Setenv("PAWZ_QUEUE_MAX_CONCURRENT", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Queue.MaxConcurrent)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("PAWZ_LLM_GEMINI_API_KEY", "test-api-key")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_StuckThresholdMustExceedTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAWZ_QUEUE_SCORE_TIMEOUT_SECONDS", "180")
	t.Setenv("PAWZ_QUEUE_STUCK_THRESHOLD_SECONDS", "180")

	_, err := Load()
	assert.Error(t, err, "stuck threshold equal to the score timeout must be rejected")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAWZ_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	assert.Error(t, err)
}
