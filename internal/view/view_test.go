package view

import (
	"testing"

	"github.com/logaudit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourEntries() []domain.LogEntry {
	return []domain.LogEntry{
		{Timestamp: "2024-01-01 10:00:00", Severity: domain.SeverityInfo, Source: "api", Message: "request served"},
		{Timestamp: "2024-01-01 10:00:01", Severity: domain.SeverityError, Source: "db", Message: "connection refused"},
		{Timestamp: "2024-01-01 10:00:02", Severity: domain.SeverityCritical, Source: "db", Message: "disk full"},
		{Timestamp: "1704103203", Severity: domain.SeverityError, Message: "Possible SQL injection"},
	}
}

func TestSeverityCounts(t *testing.T) {
	counts := SeverityCounts(fourEntries())

	assert.Equal(t, map[domain.Severity]int{
		domain.SeverityInfo:     1,
		domain.SeverityError:    2,
		domain.SeverityCritical: 1,
	}, counts)
	_, hasWarning := counts[domain.SeverityWarning]
	assert.False(t, hasWarning, "absent severities must not appear as keys")
}

func TestSeverityCounts_Empty(t *testing.T) {
	assert.Empty(t, SeverityCounts(nil))
}

func TestFilter(t *testing.T) {
	logs := fourEntries()

	tests := []struct {
		name     string
		text     string
		sev      SeverityQuery
		wantMsgs []string
	}{
		{
			name:     "severity only keeps order",
			sev:      SeverityQuery(domain.SeverityError),
			wantMsgs: []string{"connection refused", "Possible SQL injection"},
		},
		{
			name:     "message match without source",
			text:     "sql",
			sev:      AllSeverities,
			wantMsgs: []string{"Possible SQL injection"},
		},
		{
			name:     "source match",
			text:     "DB",
			sev:      AllSeverities,
			wantMsgs: []string{"connection refused", "disk full"},
		},
		{
			name:     "text and severity combined",
			text:     "db",
			sev:      SeverityQuery(domain.SeverityCritical),
			wantMsgs: []string{"disk full"},
		},
		{
			name:     "no filter",
			sev:      AllSeverities,
			wantMsgs: []string{"request served", "connection refused", "disk full", "Possible SQL injection"},
		},
		{
			name:     "no match",
			text:     "kernel panic",
			sev:      AllSeverities,
			wantMsgs: []string{},
		},
		{
			name:     "severity case-sensitive",
			sev:      SeverityQuery("error"),
			wantMsgs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(logs, tt.text, tt.sev)

			msgs := make([]string, 0, len(got))
			for _, e := range got {
				msgs = append(msgs, e.Message)
			}
			assert.Equal(t, tt.wantMsgs, msgs)
		})
	}
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	logs := fourEntries()
	before := fourEntries()

	got := Filter(logs, "", SeverityQuery(domain.SeverityError))
	got[0].Message = "changed"

	assert.Equal(t, before, logs)
}

func TestParseSeverityQuery(t *testing.T) {
	tests := []struct {
		input   string
		want    SeverityQuery
		wantErr bool
	}{
		{"", AllSeverities, false},
		{"ALL", AllSeverities, false},
		{"all", AllSeverities, false},
		{"warning", SeverityQuery(domain.SeverityWarning), false},
		{" CRITICAL ", SeverityQuery(domain.SeverityCritical), false},
		{"DEBUG", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSeverityQuery(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityChart(t *testing.T) {
	assert.Equal(t, []ChartPoint{
		{Name: domain.SeverityInfo, Value: 1},
		{Name: domain.SeverityError, Value: 2},
		{Name: domain.SeverityCritical, Value: 1},
	}, SeverityChart(fourEntries()))

	assert.Empty(t, SeverityChart(nil))
}

func TestTimeline(t *testing.T) {
	points := Timeline(fourEntries())

	require.Len(t, points, 4)
	assert.Equal(t, "10:00:00", points[0].Time)
	assert.Equal(t, "10:00:02", points[2].Time)
	assert.Equal(t, "T3", points[3].Time, "timestamp without a time token falls back to its index")
	assert.Equal(t, domain.SeverityError, points[3].Severity)
}

func TestThreatSummary(t *testing.T) {
	stats := ThreatSummary([]domain.SecurityThreat{
		{Category: "Brute Force", RiskScore: 8},
		{Category: "Path Traversal", RiskScore: 4},
		{Category: "SQL Injection", RiskScore: 9},
	})

	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 9.0, stats.MaxRiskScore)
	assert.InDelta(t, 7.0, stats.AvgRiskScore, 1e-9)
	assert.Equal(t, 2, stats.HighRisk)

	assert.Equal(t, ThreatStats{}, ThreatSummary(nil))
}
