// Package ai provides the inference client interface and implementations.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/logaudit/internal/config"
	"github.com/logaudit/internal/domain"
	"github.com/logaudit/internal/schema"
	"go.uber.org/zap"
)

// apiKeyHeader carries the Gemini API key.
const apiKeyHeader = "x-goog-api-key"

// GeminiClient implements the Client interface using Google's Gemini API.
type GeminiClient struct {
	config     *config.AIConfig
	httpClient *http.Client
	prompter   PromptBuilder
	logger     *zap.Logger
}

// Gemini API request/response structures

// geminiRequest represents the request body for Gemini API.
type geminiRequest struct {
	Contents          []geminiContent          `json:"contents"`
	SystemInstruction *geminiSystemInstruction `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig   `json:"generationConfig"`
	SafetySettings    []geminiSafetySetting    `json:"safetySettings,omitempty"`
}

// geminiSystemInstruction represents the system instruction for Gemini.
type geminiSystemInstruction struct {
	Parts []geminiPart `json:"parts"`
}

// geminiContent represents a content block in Gemini API.
type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart represents a part of content.
// Thinking models flag their reasoning parts with Thought.
type geminiPart struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

// geminiGenerationConfig contains generation parameters.
type geminiGenerationConfig struct {
	Temperature      float64      `json:"temperature"`
	MaxOutputTokens  int          `json:"maxOutputTokens"`
	TopP             float64      `json:"topP,omitempty"`
	TopK             int          `json:"topK,omitempty"`
	ResponseMimeType string       `json:"responseMimeType,omitempty"`
	ResponseSchema   *schema.Node `json:"responseSchema,omitempty"`
}

// geminiSafetySetting represents a safety setting for content filtering.
type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// geminiResponse represents the response from Gemini API.
type geminiResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
	Error          *geminiError          `json:"error,omitempty"`
	UsageMetadata  *geminiUsageMetadata  `json:"usageMetadata,omitempty"`
}

// geminiUsageMetadata contains token usage info.
type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// geminiCandidate represents a response candidate.
type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
	Index        int           `json:"index,omitempty"`
}

// geminiPromptFeedback contains feedback about the prompt.
type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// geminiError represents an error response from Gemini API.
type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewGeminiClient creates a new Gemini AI client.
func NewGeminiClient(cfg *config.AIConfig, prompter PromptBuilder, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		prompter: prompter,
		logger:   logger.Named("gemini_client"),
	}
}

// Generate sends the log to the Gemini API and returns the raw JSON text.
// Failures are not retried; the caller decides whether to submit again.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	startTime := time.Now()
	c.logger.Debug("starting Gemini analysis", zap.Int("log_length", len(req.Log)))

	// Calculate max tokens - thinking models (2.5+) need more tokens
	// since thinking tokens count against the output limit
	maxTokens := c.config.MaxTokens
	if isThinkingModel(c.config.Model) {
		maxTokens = c.config.MaxTokens * 4
		if maxTokens < 16384 {
			maxTokens = 16384
		}
		c.logger.Debug("using increased token limit for thinking model",
			zap.String("model", c.config.Model),
			zap.Int("max_tokens", maxTokens),
		)
	}

	reqBody := geminiRequest{
		SystemInstruction: &geminiSystemInstruction{
			Parts: []geminiPart{{Text: c.prompter.BuildSystemPrompt()}},
		},
		Contents: []geminiContent{
			{
				Role: "user",
				Parts: []geminiPart{
					{Text: c.prompter.BuildUserPrompt(req.Log, req.Schema)},
				},
			},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.1, // Low temperature for deterministic output
			MaxOutputTokens:  maxTokens,
			TopP:             0.95,
			TopK:             40,
			ResponseMimeType: "application/json",
			ResponseSchema:   req.Schema,
		},
		// Logs under audit routinely contain attack payloads.
		SafetySettings: []geminiSafetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", domain.WrapError("marshal_request", err, false)
	}

	text, err := c.executeRequest(ctx, c.buildURL(), jsonBody)
	if err != nil {
		return "", err
	}

	c.logger.Debug("Gemini analysis completed",
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("response_length", len(text)),
	)

	return text, nil
}

// buildURL constructs the Gemini API URL. The key travels in the
// x-goog-api-key header so it never appears in a URL or a url.Error.
func (c *GeminiClient) buildURL() string {
	return fmt.Sprintf("%s/models/%s:generateContent", c.apiRoot(), c.config.Model)
}

// apiRoot returns the versioned API root, accepting both a bare host and a
// base URL that already carries the version.
func (c *GeminiClient) apiRoot() string {
	baseURL := strings.TrimSuffix(c.config.BaseURL, "/")
	if strings.Contains(baseURL, "/v1") {
		return baseURL
	}
	return baseURL + "/v1beta"
}

// executeRequest performs a single HTTP request to the Gemini API.
func (c *GeminiClient) executeRequest(ctx context.Context, url string, jsonBody []byte) (string, error) {
	c.logger.Debug("sending Gemini request",
		zap.String("url", url),
		zap.Int("body_size", len(jsonBody)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", domain.WrapError("create_request", err, false)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return "", domain.WrapError("gemini_timeout", domain.ErrAITimeout, true)
		}
		return "", domain.WrapError("http_request", err, true)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.WrapError("read_response", err, true)
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.handleHTTPError(resp.StatusCode, body)
	}

	c.logger.Debug("raw Gemini response",
		zap.String("body", truncate(string(body), 2000)),
	)

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		c.logger.Warn("failed to unmarshal Gemini envelope",
			zap.Error(err),
			zap.String("body_preview", truncate(string(body), 500)),
		)
		return "", domain.WrapError("parse_envelope", err, false)
	}

	if geminiResp.Error != nil {
		return "", domain.WrapError("gemini_api_error",
			fmt.Errorf("[%d] %s: %s", geminiResp.Error.Code, geminiResp.Error.Status, geminiResp.Error.Message), false)
	}

	if geminiResp.PromptFeedback != nil && geminiResp.PromptFeedback.BlockReason != "" {
		return "", domain.WrapError("content_blocked",
			fmt.Errorf("%w: prompt blocked: %s", domain.ErrContentBlocked, geminiResp.PromptFeedback.BlockReason), false)
	}

	if len(geminiResp.Candidates) == 0 {
		c.logger.Warn("no candidates in response",
			zap.String("body", truncate(string(body), 1000)),
		)
		return "", domain.WrapError("empty_response", domain.ErrAIUnavailable, false)
	}

	candidate := geminiResp.Candidates[0]

	c.logger.Debug("gemini candidate",
		zap.String("finish_reason", candidate.FinishReason),
		zap.Int("parts_count", len(candidate.Content.Parts)),
	)

	if candidate.FinishReason == "SAFETY" {
		return "", domain.WrapError("safety_filter",
			fmt.Errorf("%w: response blocked by safety filter", domain.ErrContentBlocked), false)
	}

	var textContent strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Thought {
			continue
		}
		textContent.WriteString(part.Text)
	}

	// An empty answer is handed back as-is; JSON parsing will reject it.
	if textContent.Len() == 0 {
		c.logger.Warn("empty text in candidate",
			zap.String("finish_reason", candidate.FinishReason),
		)
	}

	if geminiResp.UsageMetadata != nil {
		c.logger.Debug("gemini token usage",
			zap.Int("prompt_tokens", geminiResp.UsageMetadata.PromptTokenCount),
			zap.Int("candidate_tokens", geminiResp.UsageMetadata.CandidatesTokenCount),
		)
	}

	return textContent.String(), nil
}

// handleHTTPError processes HTTP error responses.
func (c *GeminiClient) handleHTTPError(statusCode int, body []byte) error {
	var errResp geminiResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		c.logger.Warn("Gemini API error",
			zap.Int("status", statusCode),
			zap.String("error_status", errResp.Error.Status),
			zap.String("error_message", errResp.Error.Message),
		)
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return domain.WrapError("rate_limit", domain.ErrRateLimited, true)
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.WrapError("auth_error",
			fmt.Errorf("%w (status %d): check your API key", domain.ErrAuthFailed, statusCode), false)
	case http.StatusBadRequest:
		return domain.WrapError("bad_request",
			fmt.Errorf("bad request: %s", truncate(string(body), 200)), false)
	case http.StatusNotFound:
		return domain.WrapError("model_not_found",
			fmt.Errorf("model not found: check model name in configuration"), false)
	default:
		if statusCode >= 500 {
			return domain.WrapError("gemini_unavailable", domain.ErrAIUnavailable, true)
		}
		return domain.WrapError("gemini_error",
			fmt.Errorf("Gemini API returned status %d: %s", statusCode, truncate(string(body), 200)), false)
	}
}

// HealthCheck verifies the Gemini API is reachable.
func (c *GeminiClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiRoot()+"/models", nil)
	if err != nil {
		return domain.WrapError("create_request", err, false)
	}
	req.Header.Set(apiKeyHeader, c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError("health_check", domain.ErrAIUnavailable, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.WrapError("health_check", domain.ErrAIUnavailable, true)
	}

	return nil
}

// isThinkingModel returns true if the model is a thinking/reasoning model
// that uses tokens for internal reasoning (e.g., gemini-2.5-pro).
func isThinkingModel(model string) bool {
	return strings.Contains(model, "2.5") ||
		strings.Contains(model, "gemini-3") ||
		strings.Contains(model, "thinking") ||
		strings.Contains(model, "reasoning")
}
