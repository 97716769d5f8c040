package ai

import (
	"strings"
	"testing"

	"github.com/logaudit/internal/schema"
)

func TestDefaultPromptBuilder(t *testing.T) {
	builder, err := NewDefaultPromptBuilder()
	if err != nil {
		t.Fatalf("failed to create prompt builder: %v", err)
	}

	// Test system prompt
	sysPrompt := builder.BuildSystemPrompt()
	if sysPrompt == "" {
		t.Error("system prompt should not be empty")
	}
	for _, sev := range []string{"INFO", "WARNING", "ERROR", "CRITICAL"} {
		if !strings.Contains(sysPrompt, sev) {
			t.Errorf("system prompt should name severity %s", sev)
		}
	}

	// Test user prompt
	testLog := "ERROR: something went wrong"
	userPrompt := builder.BuildUserPrompt(testLog, schema.Descriptor())
	if !strings.Contains(userPrompt, testLog) {
		t.Error("user prompt should contain the log")
	}
	for _, field := range []string{"parsedLogs", "securityThreats", "riskScore", "relatedEntries"} {
		if !strings.Contains(userPrompt, field) {
			t.Errorf("user prompt should describe field %s", field)
		}
	}
}

func TestDefaultPromptBuilder_NilShapeUsesDescriptor(t *testing.T) {
	builder, err := NewDefaultPromptBuilder()
	if err != nil {
		t.Fatalf("failed to create prompt builder: %v", err)
	}

	withNil := builder.BuildUserPrompt("log", nil)
	withDescriptor := builder.BuildUserPrompt("log", schema.Descriptor())

	if withNil != withDescriptor {
		t.Error("nil shape should fall back to the result descriptor")
	}
}
