// Package sanitizer bounds log text and masks secrets before it leaves the process.
package sanitizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Sanitizer handles log preprocessing and secret masking.
type Sanitizer struct {
	patterns []*regexp.Regexp
	maxChars int
}

// Pattern definitions for common secrets and sensitive data.
var defaultPatterns = []*regexp.Regexp{
	// API Keys (generic patterns)
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['"]?([a-zA-Z0-9_\-]{20,})['"]?`),
	regexp.MustCompile(`(?i)(secret[_-]?key|secretkey)\s*[:=]\s*['"]?([a-zA-Z0-9_\-]{20,})['"]?`),
	regexp.MustCompile(`(?i)(access[_-]?key|accesskey)\s*[:=]\s*['"]?([a-zA-Z0-9_\-]{16,})['"]?`),

	// Authentication tokens
	regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9_\-\.]+`),
	regexp.MustCompile(`(?i)(authorization:[ \t]*)[^\r\n]+`),
	regexp.MustCompile(`(?i)(token|auth[_-]?token)\s*[:=]\s*['"]?([a-zA-Z0-9_\-\.]{20,})['"]?`),

	// Passwords
	regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*['"]?([^\s'"]{4,})['"]?`),

	// AWS credentials
	regexp.MustCompile(`(?i)AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*['"]?([a-zA-Z0-9/+=]{40})['"]?`),

	// Private keys
	regexp.MustCompile(`-----BEGIN\s+(RSA|DSA|EC|OPENSSH)?\s*PRIVATE KEY-----`),
	regexp.MustCompile(`-----BEGIN\s+PGP\s+PRIVATE\s+KEY\s+BLOCK-----`),

	// Database connection strings
	regexp.MustCompile(`(?i)(mongodb|mysql|postgres|postgresql|redis):\/\/[^@]+@[^\s]+`),
	regexp.MustCompile(`(?i)(connection[_-]?string)\s*[:=]\s*['"]?([^\s'"]+)['"]?`),

	// GitHub tokens
	regexp.MustCompile(`ghp_[a-zA-Z0-9]{36}`),
	regexp.MustCompile(`gho_[a-zA-Z0-9]{36}`),
	regexp.MustCompile(`ghu_[a-zA-Z0-9]{36}`),
	regexp.MustCompile(`ghs_[a-zA-Z0-9]{36}`),
	regexp.MustCompile(`ghr_[a-zA-Z0-9]{36}`),

	// JWT tokens
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),

	// Slack tokens
	regexp.MustCompile(`xox[baprs]-[0-9a-zA-Z-]+`),

	// Generic high-entropy strings that look like secrets
	regexp.MustCompile(`(?i)(secret|private|credential)\s*[:=]\s*['"]?([a-zA-Z0-9_\-]{16,})['"]?`),
}

// piiPatterns mask infrastructure addresses and personal data.
// They are not part of the default set.
var piiPatterns = []*regexp.Regexp{
	// IP addresses with ports (might be internal infrastructure)
	regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}:\d{4,5}\b`),

	// Email addresses (PII)
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
}

// DefaultPatterns returns the credential patterns used by New.
func DefaultPatterns() []*regexp.Regexp {
	return append([]*regexp.Regexp(nil), defaultPatterns...)
}

// PIIPatterns returns the address and personal-data patterns.
func PIIPatterns() []*regexp.Regexp {
	return append([]*regexp.Regexp(nil), piiPatterns...)
}

// New creates a new Sanitizer with the credential patterns.
// maxChars bounds the output length in characters (runes), not bytes.
func New(maxChars int) *Sanitizer {
	return &Sanitizer{
		patterns: defaultPatterns,
		maxChars: maxChars,
	}
}

// NewWithPatterns creates a Sanitizer with custom patterns.
// A nil pattern list disables masking and keeps only the size bound.
func NewWithPatterns(maxChars int, patterns []*regexp.Regexp) *Sanitizer {
	return &Sanitizer{
		patterns: patterns,
		maxChars: maxChars,
	}
}

// SanitizationStats describes what Sanitize changed.
type SanitizationStats struct {
	OriginalChars  int
	SanitizedChars int
	Truncated      bool
	SecretsFound   int
}

// Sanitize masks secrets and then enforces the size bound.
// Masking runs first so a secret cut by the bound is still hidden.
func (s *Sanitizer) Sanitize(log string) (string, SanitizationStats) {
	stats := SanitizationStats{
		OriginalChars: utf8.RuneCountInString(log),
	}

	masked, found := s.maskSecrets(log)
	stats.SecretsFound = found

	sanitized, truncated := s.Truncate(masked)
	stats.Truncated = truncated
	stats.SanitizedChars = utf8.RuneCountInString(sanitized)

	return sanitized, stats
}

// Truncate cuts log to at most maxChars characters without splitting a
// multi-byte character. It reports whether anything was removed.
func (s *Sanitizer) Truncate(log string) (string, bool) {
	if s.maxChars <= 0 || len(log) <= s.maxChars {
		return log, false
	}

	count := 0
	for i := range log {
		if count == s.maxChars {
			return log[:i], true
		}
		count++
	}

	return log, false
}

// maskSecrets replaces sensitive patterns with masked versions.
func (s *Sanitizer) maskSecrets(log string) (string, int) {
	result := log
	found := 0

	for _, pattern := range s.patterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			found++
			return maskValue(match)
		})
	}

	return result, found
}

// maskValue creates a masked version of a matched secret.
func maskValue(match string) string {
	if len(match) <= 8 {
		return "[REDACTED]"
	}

	// Keep the key name so the AI still sees what kind of value was there
	if idx := strings.IndexAny(match, ":="); idx != -1 {
		prefix := match[:idx+1]
		return prefix + "[REDACTED]"
	}

	// For tokens and keys, show format but redact content
	if len(match) > 10 {
		return match[:4] + "****" + match[len(match)-4:]
	}

	return "[REDACTED]"
}

// IsEmpty checks if the log is empty or whitespace only.
func (s *Sanitizer) IsEmpty(log string) bool {
	return strings.TrimSpace(log) == ""
}

// IsTooLarge checks if the log exceeds the character bound.
func (s *Sanitizer) IsTooLarge(log string) bool {
	return s.maxChars > 0 && utf8.RuneCountInString(log) > s.maxChars
}

// MaxChars returns the configured character bound.
func (s *Sanitizer) MaxChars() int {
	return s.maxChars
}
