// Package config handles application configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables prefixed with LOGAUDIT_ (for example
// LOGAUDIT_AI_API_KEY sets ai.api_key).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/logaudit/internal/domain"
)

const (
	envPrefix = "LOGAUDIT_"

	// FileEnvVar names the environment variable holding the optional YAML path.
	FileEnvVar = envPrefix + "CONFIG_FILE"
)

// envSections maps env key prefixes to nested config paths, longest first.
var envSections = []string{"server_rate_limit", "server", "ai", "processing"}

// Config holds all application configuration.
type Config struct {
	// LogLevel overrides the logger level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`

	// Development switches to human-friendly logs and gin debug mode.
	Development bool `koanf:"development"`

	Server     ServerConfig     `koanf:"server"`
	AI         AIConfig         `koanf:"ai"`
	Processing ProcessingConfig `koanf:"processing"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP port to listen on.
	Port string `koanf:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout must leave room for a full inference call.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig bounds how often one client may submit analyses.
// A zero RequestsPerSecond disables the limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// AIProvider represents the AI provider to use.
type AIProvider string

const (
	// AIProviderOpenAI uses OpenAI-compatible API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini uses Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// AIConfig contains AI service settings.
type AIConfig struct {
	// Provider specifies which AI provider to use (gemini, openai).
	Provider AIProvider `koanf:"provider"`

	// APIKey is the credential for the AI provider. It is never logged.
	APIKey string `koanf:"api_key"`

	// BaseURL is the base URL for the AI API (provider-specific default when empty).
	BaseURL string `koanf:"base_url"`

	// Model is the AI model to use (provider-specific default when empty).
	Model string `koanf:"model"`

	// Timeout bounds a single inference call.
	Timeout time.Duration `koanf:"timeout"`

	// MaxTokens is the maximum tokens for AI response.
	MaxTokens int `koanf:"max_tokens"`

	// MockMode enables canned responses for running without API calls.
	MockMode bool `koanf:"mock_mode"`
}

// ProcessingConfig contains log processing settings.
type ProcessingConfig struct {
	// MaxLogChars is the number of characters sent to the AI service;
	// longer input is truncated silently.
	MaxLogChars int `koanf:"max_log_chars"`

	// RedactSecrets masks credentials before transmission.
	RedactSecrets bool `koanf:"redact_secrets"`

	// RedactPII also masks emails and IP:port pairs. Requires RedactSecrets.
	RedactPII bool `koanf:"redact_pii"`

	// MaxUploadBytes caps the size of an HTTP request body.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LogLevel:    "info",
		Development: os.Getenv("GIN_MODE") != "release",
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 1,
				Burst:             3,
			},
		},
		AI: AIConfig{
			Provider:  AIProviderGemini,
			Timeout:   60 * time.Second,
			MaxTokens: 8192,
		},
		Processing: ProcessingConfig{
			MaxLogChars:    32000,
			RedactSecrets:  true,
			MaxUploadBytes: 10 << 20,
		},
	}
}

// Load reads configuration from defaults, the file named by
// LOGAUDIT_CONFIG_FILE (if set) and LOGAUDIT_* environment variables.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnvVar))
}

// LoadFile is Load with an explicit YAML path; an empty path skips the file.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := Defaults()
	if err := k.Load(structs.Provider(&defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.applyProviderDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps LOGAUDIT_AI_API_KEY to ai.api_key and
// LOGAUDIT_SERVER_RATE_LIMIT_BURST to server.rate_limit.burst.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range envSections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return strings.ReplaceAll(section, "_", ".") + "." + rest
		}
	}
	return key
}

// applyProviderDefaults fills provider-specific values left empty.
func (c *Config) applyProviderDefaults() {
	c.AI.Provider = AIProvider(strings.ToLower(string(c.AI.Provider)))

	var defaultBaseURL, defaultModel string
	switch c.AI.Provider {
	case AIProviderGemini:
		defaultBaseURL = "https://generativelanguage.googleapis.com"
		defaultModel = "gemini-2.0-flash"
	case AIProviderOpenAI:
		defaultBaseURL = "https://api.openai.com/v1"
		defaultModel = "gpt-4o-mini"
	}

	if c.AI.BaseURL == "" {
		c.AI.BaseURL = defaultBaseURL
	}
	if c.AI.Model == "" {
		c.AI.Model = defaultModel
	}

	// Conventional unprefixed credential variables.
	if c.AI.APIKey == "" {
		c.AI.APIKey = firstEnv("GEMINI_API_KEY", "API_KEY")
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.AI.Provider != AIProviderGemini && c.AI.Provider != AIProviderOpenAI {
		return fmt.Errorf("%w: ai.provider must be gemini or openai, got %q", domain.ErrInvalidConfig, c.AI.Provider)
	}

	// AI API key is required unless in mock mode
	if !c.AI.MockMode && c.AI.APIKey == "" {
		return fmt.Errorf("%w: LOGAUDIT_AI_API_KEY is required when not in mock mode", domain.ErrInvalidConfig)
	}

	if c.AI.Timeout < time.Second {
		return fmt.Errorf("%w: ai.timeout must be at least 1 second", domain.ErrInvalidConfig)
	}

	if c.AI.MaxTokens < 100 {
		return fmt.Errorf("%w: ai.max_tokens must be at least 100", domain.ErrInvalidConfig)
	}

	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.AI.Timeout {
		return fmt.Errorf("%w: server.write_timeout must exceed ai.timeout", domain.ErrInvalidConfig)
	}

	if c.Server.RateLimit.RequestsPerSecond < 0 || c.Server.RateLimit.Burst < 0 {
		return fmt.Errorf("%w: server.rate_limit values must not be negative", domain.ErrInvalidConfig)
	}

	if c.Processing.MaxLogChars < 1000 {
		return fmt.Errorf("%w: processing.max_log_chars must be at least 1000", domain.ErrInvalidConfig)
	}

	if c.Processing.MaxUploadBytes < 1024 {
		return fmt.Errorf("%w: processing.max_upload_bytes must be at least 1024", domain.ErrInvalidConfig)
	}

	return nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return ""
}
