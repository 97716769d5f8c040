// Package ai provides the inference client interface and implementations.
package ai

import (
	"context"

	"github.com/logaudit/internal/domain"
	"go.uber.org/zap"
)

// mockResponse is a schema-valid audit used when no real service is configured.
const mockResponse = `{
  "summary": "This is a mock audit. Set LOGAUDIT_AI_MOCK_MODE=false and provide an API key for real analysis.",
  "parsedLogs": [
    {"timestamp": "2024-01-01 00:00:00", "severity": "INFO", "source": "mock", "message": "Service started"},
    {"timestamp": "2024-01-01 00:00:05", "severity": "WARNING", "source": "auth", "message": "Failed login for user admin"},
    {"timestamp": "2024-01-01 00:00:06", "severity": "ERROR", "source": "db", "message": "Possible SQL injection in query parameter id"}
  ],
  "anomalies": [
    {"type": "sequence", "description": "Failed login immediately followed by a malformed query", "confidence": 0.6, "relatedEntries": [1, 2]}
  ],
  "securityThreats": [
    {"category": "SQL Injection", "riskScore": 7, "details": "Query parameter contains SQL syntax", "mitigation": "Use parameterized queries"}
  ],
  "performanceInsights": [
    {"metric": "Startup time", "value": "5s", "assessment": "GOOD"}
  ],
  "recommendations": [
    "Configure LOGAUDIT_AI_API_KEY",
    "Set LOGAUDIT_AI_MOCK_MODE=false to enable real analysis"
  ]
}`

// MockClient implements the Client interface for testing.
type MockClient struct {
	logger *zap.Logger
}

// NewMockClient creates a new mock AI client for testing.
func NewMockClient(logger *zap.Logger) *MockClient {
	return &MockClient{
		logger: logger.Named("mock_ai_client"),
	}
}

// Generate returns a canned audit regardless of the input.
func (c *MockClient) Generate(ctx context.Context, req Request) (string, error) {
	c.logger.Debug("mock AI analysis", zap.Int("log_length", len(req.Log)))

	if err := ctx.Err(); err != nil {
		return "", domain.WrapError("context_cancelled", err, false)
	}

	return mockResponse, nil
}

// HealthCheck always returns success for mock client.
func (c *MockClient) HealthCheck(ctx context.Context) error {
	return nil
}
