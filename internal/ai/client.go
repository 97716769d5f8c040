// Package ai provides the inference client interface and implementations.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/logaudit/internal/config"
	"github.com/logaudit/internal/domain"
	"go.uber.org/zap"
)

// OpenAIClient implements the Client interface using OpenAI-compatible API.
type OpenAIClient struct {
	config     *config.AIConfig
	httpClient *http.Client
	prompter   PromptBuilder
	logger     *zap.Logger
}

// OpenAI API request/response structures
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAIClient creates a new OpenAI-compatible AI client.
func NewOpenAIClient(cfg *config.AIConfig, prompter PromptBuilder, logger *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		prompter: prompter,
		logger:   logger.Named("ai_client"),
	}
}

// Generate sends the log to the chat completions endpoint and returns the
// raw message content. The schema travels inside the user prompt.
func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	startTime := time.Now()
	c.logger.Debug("starting AI analysis", zap.Int("log_length", len(req.Log)))

	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.prompter.BuildSystemPrompt()},
			{Role: "user", Content: c.prompter.BuildUserPrompt(req.Log, req.Schema)},
		},
		MaxTokens:      c.config.MaxTokens,
		Temperature:    0.1, // Low temperature for deterministic output
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", domain.WrapError("marshal_request", err, false)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimSuffix(c.config.BaseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", domain.WrapError("create_request", err, false)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.config.APIKey))

	content, err := c.executeRequest(ctx, httpReq)
	if err != nil {
		return "", err
	}

	c.logger.Debug("AI analysis completed",
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("response_length", len(content)),
	)

	return content, nil
}

// executeRequest performs a single HTTP request to the AI service.
func (c *OpenAIClient) executeRequest(ctx context.Context, req *http.Request) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return "", domain.WrapError("ai_timeout", domain.ErrAITimeout, true)
		}
		return "", domain.WrapError("http_request", err, true)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.WrapError("read_response", err, true)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", domain.WrapError("rate_limit", domain.ErrRateLimited, true)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", domain.WrapError("auth_error",
			fmt.Errorf("%w (status %d): check your API key", domain.ErrAuthFailed, resp.StatusCode), false)
	case resp.StatusCode >= 500:
		return "", domain.WrapError("ai_unavailable", domain.ErrAIUnavailable, true)
	default:
		return "", domain.WrapError("ai_error",
			fmt.Errorf("AI API returned status %d: %s", resp.StatusCode, truncate(string(body), 200)), false)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", domain.WrapError("parse_envelope", err, false)
	}

	if chatResp.Error != nil {
		return "", domain.WrapError("ai_api_error",
			fmt.Errorf("%s: %s", chatResp.Error.Type, chatResp.Error.Message), false)
	}

	if len(chatResp.Choices) == 0 {
		return "", domain.WrapError("empty_response", domain.ErrAIUnavailable, false)
	}

	if chatResp.Choices[0].FinishReason == "content_filter" {
		return "", domain.WrapError("content_filter", domain.ErrContentBlocked, false)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// HealthCheck verifies the AI service is reachable.
func (c *OpenAIClient) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/models", strings.TrimSuffix(c.config.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.config.APIKey))

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

// Helper functions

// isTimeout reports whether err is a transport-level deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
