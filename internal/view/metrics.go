// Package view derives read-only presentations from a validated result.
// Every function returns freshly allocated data and never modifies its input.
package view

import (
	"strconv"
	"strings"

	"github.com/logaudit/internal/domain"
)

// ChartPoint is one bar of the severity distribution chart.
type ChartPoint struct {
	Name  domain.Severity `json:"name"`
	Value int             `json:"value"`
}

// TimelinePoint places one entry on the event timeline.
type TimelinePoint struct {
	Time     string          `json:"time"`
	Severity domain.Severity `json:"severity"`
	Message  string          `json:"message"`
}

// ThreatStats summarises the security threats of a result.
type ThreatStats struct {
	Count        int     `json:"count"`
	MaxRiskScore float64 `json:"maxRiskScore"`
	AvgRiskScore float64 `json:"avgRiskScore"`

	// HighRisk counts threats scored 7 or more.
	HighRisk int `json:"highRisk"`
}

const highRiskScore = 7

// SeverityCounts counts entries per severity. Severities that do not occur
// are absent from the map rather than present with zero.
func SeverityCounts(logs []domain.LogEntry) map[domain.Severity]int {
	counts := make(map[domain.Severity]int)
	for _, entry := range logs {
		counts[entry.Severity]++
	}
	return counts
}

// SeverityChart returns the distribution in display order, skipping
// severities with no entries.
func SeverityChart(logs []domain.LogEntry) []ChartPoint {
	counts := SeverityCounts(logs)

	points := make([]ChartPoint, 0, len(counts))
	for _, sev := range domain.AllSeverities {
		if n, ok := counts[sev]; ok {
			points = append(points, ChartPoint{Name: sev, Value: n})
		}
	}
	return points
}

// Timeline returns one point per entry in input order. The time label is the
// second space-separated token of the timestamp ("2024-01-01 10:00:00"
// yields "10:00:00"), or T<index> when the timestamp has no such token.
func Timeline(logs []domain.LogEntry) []TimelinePoint {
	points := make([]TimelinePoint, 0, len(logs))
	for i, entry := range logs {
		points = append(points, TimelinePoint{
			Time:     timeLabel(entry.Timestamp, i),
			Severity: entry.Severity,
			Message:  entry.Message,
		})
	}
	return points
}

func timeLabel(timestamp string, index int) string {
	parts := strings.Split(timestamp, " ")
	if len(parts) > 1 && parts[1] != "" {
		return parts[1]
	}
	return "T" + strconv.Itoa(index)
}

// ThreatSummary aggregates risk scores. An empty list yields zero values.
func ThreatSummary(threats []domain.SecurityThreat) ThreatStats {
	stats := ThreatStats{Count: len(threats)}
	if len(threats) == 0 {
		return stats
	}

	var total float64
	for _, threat := range threats {
		total += threat.RiskScore
		if threat.RiskScore > stats.MaxRiskScore {
			stats.MaxRiskScore = threat.RiskScore
		}
		if threat.RiskScore >= highRiskScore {
			stats.HighRisk++
		}
	}
	stats.AvgRiskScore = total / float64(len(threats))

	return stats
}
