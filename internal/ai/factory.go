// Package ai provides the inference client interface and implementations.
package ai

import (
	"fmt"

	"github.com/logaudit/internal/config"
	"github.com/logaudit/internal/domain"
	"go.uber.org/zap"
)

// NewClient builds the client selected by the configuration.
func NewClient(cfg *config.AIConfig, logger *zap.Logger) (Client, error) {
	if cfg.MockMode {
		logger.Warn("running in mock mode - AI responses are simulated")
		return NewMockClient(logger), nil
	}

	prompter, err := NewDefaultPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("create prompt builder: %w", err)
	}

	switch cfg.Provider {
	case config.AIProviderGemini:
		return NewGeminiClient(cfg, prompter, logger), nil
	case config.AIProviderOpenAI:
		return NewOpenAIClient(cfg, prompter, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown AI provider %q", domain.ErrInvalidConfig, cfg.Provider)
	}
}
