// Package ai provides the inference client interface and implementations.
package ai

import (
	"bytes"
	"encoding/json"
	"text/template"

	"github.com/logaudit/internal/schema"
)

// DefaultPromptBuilder implements PromptBuilder with templated prompts.
type DefaultPromptBuilder struct {
	systemPrompt string
	userTemplate *template.Template
}

// systemPromptText defines the AI's role and behavior.
// This prompt is versioned as code and can be reviewed/tested.
const systemPromptText = `You are a senior security and reliability engineer auditing raw log files.

Your responsibilities:
1. Split the raw text into individual log entries and structure each one
2. Classify every entry as INFO, WARNING, ERROR or CRITICAL
3. Detect anomalies (bursts, gaps, unusual sequences) with a confidence between 0.0 and 1.0
4. Identify security threats such as brute-force attempts, SQL injection, path traversal or suspicious IPs, scored 0 to 10
5. Report performance insights (latency, error rates, throughput) graded GOOD, FAIR or POOR
6. Recommend concrete, actionable next steps

Guidelines:
- Keep entries in the order they appear in the input
- Copy timestamps exactly as written; do not reformat them
- Use relatedEntries to point at zero-based indices of parsedLogs
- Do not invent entries that are not present in the input
- Severity levels:
  - CRITICAL: outages, data loss, active compromise
  - ERROR: failed operations, exceptions, rejected requests
  - WARNING: degraded behaviour, retries, deprecated usage
  - INFO: routine operational messages

CRITICAL: You MUST respond with ONLY valid JSON matching the exact schema provided. No markdown, no explanations, just the JSON object.`

// userPromptTemplate defines how log content is presented to the AI.
const userPromptTemplate = `Analyze the following log file content. Identify errors, anomalies, security threats and performance bottlenecks, and return valid JSON exactly matching this schema:

{{.Schema}}

Log data:
---
{{.Log}}
---

Respond with ONLY the JSON object, no additional text.`

// NewDefaultPromptBuilder creates a new prompt builder with default templates.
func NewDefaultPromptBuilder() (*DefaultPromptBuilder, error) {
	tmpl, err := template.New("user_prompt").Parse(userPromptTemplate)
	if err != nil {
		return nil, err
	}

	return &DefaultPromptBuilder{
		systemPrompt: systemPromptText,
		userTemplate: tmpl,
	}, nil
}

// BuildSystemPrompt returns the system prompt.
func (p *DefaultPromptBuilder) BuildSystemPrompt() string {
	return p.systemPrompt
}

// BuildUserPrompt constructs the user prompt with the log content.
func (p *DefaultPromptBuilder) BuildUserPrompt(log string, shape *schema.Node) string {
	if shape == nil {
		shape = schema.Descriptor()
	}

	shapeJSON, err := json.MarshalIndent(shape, "", "  ")
	if err != nil {
		shapeJSON = []byte("{}")
	}

	var buf bytes.Buffer
	data := struct {
		Log    string
		Schema string
	}{
		Log:    log,
		Schema: string(shapeJSON),
	}

	if err := p.userTemplate.Execute(&buf, data); err != nil {
		// Fallback to simple format if template fails
		return "Analyze this log and return JSON:\n\n" + log
	}

	return buf.String()
}
