package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "slog", cfg.LogFormat)
	assert.Equal(t, BackendMemory, cfg.Cache.Backend)
	assert.EqualValues(t, 10<<20, cfg.Cache.QuotaBytes)
	assert.Equal(t, 60*time.Second, cfg.AvailabilityTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)

	r := cfg.RetryConfig()
	assert.Equal(t, 3, r.MaxRetries)
	assert.Equal(t, time.Second, r.BaseDelay)
	assert.Equal(t, 10*time.Second, r.MaxDelay)
	assert.Equal(t, 0.2, r.JitterFraction)
	assert.Equal(t, 15*time.Second, r.AttemptTimeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("CACHE_BACKEND", "valkey")
	t.Setenv("VALKEY_ADDR", "cache:6379")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("RETRY_JITTER", "0")
	t.Setenv("CACHE_QUOTA_BYTES", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, BackendValkey, cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Valkey.Addr)
	assert.Equal(t, 5, cfg.RetryConfig().MaxRetries)
	assert.Negative(t, cfg.RetryConfig().JitterFraction, "zero jitter disables it")
	assert.Negative(t, cfg.StoreOptions().QuotaBytes, "zero quota means unlimited")
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_FORMAT=zap\nOPENAI_API_KEY=from-file\n"), 0o600))
	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("LOG_FORMAT", "")
	os.Unsetenv("LOG_FORMAT")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "zap", cfg.LogFormat)
	assert.Equal(t, "from-env", cfg.OpenAI.APIKey)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_FORMAT", "xml")
	t.Setenv("CACHE_BACKEND", "memcached")
	t.Setenv("RETRY_BASE_DELAY", "30s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
	assert.Contains(t, err.Error(), "CACHE_BACKEND")
	assert.Contains(t, err.Error(), "RETRY_BASE_DELAY")
}

func TestLoadBadValue(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RETRY_MAX_ATTEMPTS", "many")
	_, err := Load()
	assert.Error(t, err)
}
