// Package service contains the business logic layer.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/logaudit/internal/ai"
	"github.com/logaudit/internal/domain"
	"github.com/logaudit/internal/metrics"
	"github.com/logaudit/internal/schema"
	"github.com/logaudit/pkg/sanitizer"
	"go.uber.org/zap"
)

const fence = "```"

// Analyzer orchestrates one analysis: bound the input, ask the AI service,
// then decode and validate what it returned. It keeps no state between calls.
type Analyzer struct {
	aiClient  ai.Client
	sanitizer *sanitizer.Sanitizer
	timeout   time.Duration
	logger    *zap.Logger
}

// AnalyzerConfig contains configuration for the Analyzer.
type AnalyzerConfig struct {
	// Timeout bounds the inference call. Zero leaves it to the caller's context.
	Timeout time.Duration
}

// NewAnalyzer creates a new Analyzer with all dependencies.
// The sanitizer decides the character bound and whether secrets are masked.
func NewAnalyzer(
	aiClient ai.Client,
	sanitizer *sanitizer.Sanitizer,
	config AnalyzerConfig,
	logger *zap.Logger,
) *Analyzer {
	return &Analyzer{
		aiClient:  aiClient,
		sanitizer: sanitizer,
		timeout:   config.Timeout,
		logger:    logger.Named("analyzer"),
	}
}

// Analyze runs the pipeline for one log text. It returns either a validated
// result or an *domain.AnalysisError, never both and never a partial result.
func (a *Analyzer) Analyze(ctx context.Context, logText string) (*domain.AnalysisResult, error) {
	startTime := time.Now()

	result, err := a.analyze(ctx, logText)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	metrics.ObserveAnalysis(time.Since(startTime), outcome)

	if err != nil {
		a.logger.Warn("analysis failed",
			zap.String("kind", outcome),
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)),
		)
		return nil, err
	}

	a.logger.Info("analysis completed",
		zap.Int("entries", len(result.ParsedLogs)),
		zap.Int("anomalies", len(result.Anomalies)),
		zap.Int("threats", len(result.SecurityThreats)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return result, nil
}

func (a *Analyzer) analyze(ctx context.Context, logText string) (*domain.AnalysisResult, error) {
	// Step 1: Validate input
	if a.sanitizer.IsEmpty(logText) {
		return nil, domain.NewError(domain.KindInput, "validate_input", domain.ErrEmptyLog)
	}

	// Step 2: Mask and bound the log
	sanitizedLog, stats := a.sanitizer.Sanitize(logText)
	if stats.Truncated {
		metrics.InputTruncated()
	}
	a.logger.Debug("log sanitized",
		zap.Int("original_chars", stats.OriginalChars),
		zap.Int("sanitized_chars", stats.SanitizedChars),
		zap.Int("secrets_found", stats.SecretsFound),
		zap.Bool("truncated", stats.Truncated),
	)

	// Step 3: Ask the AI service
	raw, err := a.generate(ctx, sanitizedLog)
	if err != nil {
		return nil, err
	}

	// Step 4: Decode
	var decoded any
	if err := json.Unmarshal([]byte(stripFence(raw)), &decoded); err != nil {
		a.logger.Debug("response is not JSON",
			zap.Error(err),
			zap.Int("response_length", len(raw)),
		)
		return nil, domain.NewError(domain.KindParse, "decode_response",
			fmt.Errorf("%w: %v", domain.ErrInvalidJSON, err))
	}

	// Step 5: Validate
	return schema.Validate(decoded)
}

func (a *Analyzer) generate(ctx context.Context, log string) (string, error) {
	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.aiClient.Generate(callCtx, ai.Request{
		Log:    log,
		Schema: schema.Descriptor(),
	})
	if err == nil {
		return raw, nil
	}

	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrAITimeout) {
		return "", domain.WrapError("generate", fmt.Errorf("%w: %v", domain.ErrAITimeout, err), true)
	}

	// Whatever the client reports, a failed call is a service failure.
	var ae *domain.AnalysisError
	if !errors.As(err, &ae) || ae.Kind != domain.KindService {
		return "", domain.WrapError("generate", err, domain.IsRetryable(err))
	}
	return "", err
}

// stripFence removes a single markdown code fence wrapping the whole text,
// with or without a language tag. Anything else is returned unchanged.
func stripFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, fence) || !strings.HasSuffix(trimmed, fence) || len(trimmed) < 2*len(fence) {
		return s
	}

	inner := strings.TrimSuffix(trimmed, fence)
	newline := strings.IndexByte(inner, '\n')
	if newline == -1 {
		return s
	}

	return strings.TrimSpace(inner[newline+1:])
}
