package view

import (
	"fmt"
	"strings"

	"github.com/logaudit/internal/domain"
)

// AllSeverities is the severity query that matches every entry.
const AllSeverities SeverityQuery = "ALL"

// SeverityQuery is either AllSeverities or one severity value.
type SeverityQuery string

// ParseSeverityQuery accepts "ALL" or a severity name in any letter case.
// An empty string means ALL.
func ParseSeverityQuery(s string) (SeverityQuery, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	if normalized == "" || normalized == string(AllSeverities) {
		return AllSeverities, nil
	}
	if !domain.Severity(normalized).IsValid() {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return SeverityQuery(normalized), nil
}

func (q SeverityQuery) matches(sev domain.Severity) bool {
	return q == AllSeverities || domain.Severity(q) == sev
}

// Filter returns the entries whose message or source contains text
// (case-insensitive) and whose severity satisfies sev. An empty text
// matches everything; an absent source never matches. Order is preserved.
func Filter(logs []domain.LogEntry, text string, sev SeverityQuery) []domain.LogEntry {
	needle := strings.ToLower(text)

	filtered := make([]domain.LogEntry, 0, len(logs))
	for _, entry := range logs {
		if !sev.matches(entry.Severity) {
			continue
		}
		if needle != "" && !containsFold(entry.Message, needle) && !containsFold(entry.Source, needle) {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

func containsFold(haystack, lowerNeedle string) bool {
	return haystack != "" && strings.Contains(strings.ToLower(haystack), lowerNeedle)
}
