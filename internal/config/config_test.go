package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/logaudit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv(envPrefix+"AI_API_KEY", "")
}

func TestLoad_Defaults(t *testing.T) {
	clearCredentials(t)
	t.Setenv(envPrefix+"AI_API_KEY", "secret")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, AIProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "https://generativelanguage.googleapis.com", cfg.AI.BaseURL)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 32000, cfg.Processing.MaxLogChars)
	assert.True(t, cfg.Processing.RedactSecrets)
	assert.False(t, cfg.Processing.RedactPII)
	assert.Equal(t, "secret", cfg.AI.APIKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearCredentials(t)
	t.Setenv(envPrefix+"AI_PROVIDER", "OpenAI")
	t.Setenv(envPrefix+"AI_API_KEY", "sk-test")
	t.Setenv(envPrefix+"AI_TIMEOUT", "45s")
	t.Setenv(envPrefix+"SERVER_PORT", "9090")
	t.Setenv(envPrefix+"SERVER_RATE_LIMIT_BURST", "7")
	t.Setenv(envPrefix+"PROCESSING_MAX_LOG_CHARS", "5000")
	t.Setenv(envPrefix+"PROCESSING_REDACT_SECRETS", "false")
	t.Setenv(envPrefix+"PROCESSING_REDACT_PII", "true")
	t.Setenv(envPrefix+"LOG_LEVEL", "debug")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, AIProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, "https://api.openai.com/v1", cfg.AI.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 7, cfg.Server.RateLimit.Burst)
	assert.Equal(t, 5000, cfg.Processing.MaxLogChars)
	assert.False(t, cfg.Processing.RedactSecrets)
	assert.True(t, cfg.Processing.RedactPII)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_File(t *testing.T) {
	clearCredentials(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
ai:
  mock_mode: true
  model: gemini-2.5-flash
processing:
  max_log_chars: 2000
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.True(t, cfg.AI.MockMode)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, 2000, cfg.Processing.MaxLogChars)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_FallbackCredential(t *testing.T) {
	clearCredentials(t)
	t.Setenv("API_KEY", "from-plain-env")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "from-plain-env", cfg.AI.APIKey)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg := Defaults()
		cfg.AI.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing api key", func(c *Config) { c.AI.APIKey = "" }},
		{"unknown provider", func(c *Config) { c.AI.Provider = "claude" }},
		{"timeout too short", func(c *Config) { c.AI.Timeout = 100 * time.Millisecond }},
		{"too few tokens", func(c *Config) { c.AI.MaxTokens = 10 }},
		{"write timeout below ai timeout", func(c *Config) { c.Server.WriteTimeout = 30 * time.Second }},
		{"negative rate", func(c *Config) { c.Server.RateLimit.RequestsPerSecond = -1 }},
		{"tiny log bound", func(c *Config) { c.Processing.MaxLogChars = 10 }},
		{"tiny upload bound", func(c *Config) { c.Processing.MaxUploadBytes = 10 }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), domain.ErrInvalidConfig)
		})
	}

	t.Run("mock mode needs no key", func(t *testing.T) {
		cfg := valid()
		cfg.AI.APIKey = ""
		cfg.AI.MockMode = true
		assert.NoError(t, cfg.Validate())
	})
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "ai.api_key", envKey("LOGAUDIT_AI_API_KEY"))
	assert.Equal(t, "server.rate_limit.requests_per_second", envKey("LOGAUDIT_SERVER_RATE_LIMIT_REQUESTS_PER_SECOND"))
	assert.Equal(t, "server.read_timeout", envKey("LOGAUDIT_SERVER_READ_TIMEOUT"))
	assert.Equal(t, "processing.max_log_chars", envKey("LOGAUDIT_PROCESSING_MAX_LOG_CHARS"))
	assert.Equal(t, "log_level", envKey("LOGAUDIT_LOG_LEVEL"))
}
