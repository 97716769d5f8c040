// Package ai provides the inference client interface and implementations.
package ai

import (
	"context"

	"github.com/logaudit/internal/schema"
)

// Request is what the analyzer sends to the inference service.
type Request struct {
	// Log is the bounded, sanitized log text.
	Log string

	// Schema describes the JSON shape the service must answer with.
	Schema *schema.Node
}

// Client defines the interface for inference service interactions.
// Implementations return the raw response text; parsing and schema
// validation are the caller's job, so providers can be swapped freely.
type Client interface {
	// Generate sends the request and returns the raw text of the answer.
	// The context should carry timeout and cancellation signals.
	Generate(ctx context.Context, req Request) (string, error)

	// HealthCheck verifies the inference service is reachable.
	HealthCheck(ctx context.Context) error
}

// PromptBuilder defines the interface for constructing AI prompts.
type PromptBuilder interface {
	// BuildSystemPrompt returns the system prompt that defines the AI's role.
	BuildSystemPrompt() string

	// BuildUserPrompt constructs the user prompt with the log content and
	// the expected response shape.
	BuildUserPrompt(log string, shape *schema.Node) string
}
