// Package domain contains the core domain models and types.
// These models represent the analysis contract shared by the inference
// client, the schema validator and the derived views, and are independent
// of any infrastructure concerns.
package domain

// Severity represents the importance of a single log entry.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// AllSeverities lists every severity in display order.
// The order is for chart grouping only; severities are not ranked.
var AllSeverities = []Severity{
	SeverityInfo,
	SeverityWarning,
	SeverityError,
	SeverityCritical,
}

// IsValid checks if the severity value is one of the allowed values.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return true
	default:
		return false
	}
}

// Assessment grades a performance insight.
type Assessment string

const (
	AssessmentGood Assessment = "GOOD"
	AssessmentFair Assessment = "FAIR"
	AssessmentPoor Assessment = "POOR"
)

// IsValid checks if the assessment value is one of the allowed values.
func (a Assessment) IsValid() bool {
	switch a {
	case AssessmentGood, AssessmentFair, AssessmentPoor:
		return true
	default:
		return false
	}
}

// LogEntry is one structured line returned by the inference service.
type LogEntry struct {
	// Timestamp is kept verbatim; its format is chosen by the inference service.
	Timestamp string `json:"timestamp"`

	Severity Severity `json:"severity" validate:"oneof=INFO WARNING ERROR CRITICAL"`

	// Source is optional and empty when the service did not supply one.
	Source string `json:"source,omitempty"`

	Message string `json:"message"`

	// Metadata is optional free-form structured context.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Anomaly describes an unusual pattern spotted across entries.
type Anomaly struct {
	Type        string `json:"type"`
	Description string `json:"description"`

	// Confidence lies within [0, 1].
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`

	// RelatedEntries are indices into AnalysisResult.ParsedLogs.
	RelatedEntries []int `json:"relatedEntries,omitempty" validate:"omitempty,dive,gte=0"`
}

// SecurityThreat describes a detected threat and how to mitigate it.
type SecurityThreat struct {
	Category string `json:"category"`

	// RiskScore lies within [0, 10].
	RiskScore float64 `json:"riskScore" validate:"gte=0,lte=10"`

	Details    string `json:"details"`
	Mitigation string `json:"mitigation"`
}

// PerformanceInsight is a single already-formatted performance metric.
type PerformanceInsight struct {
	Metric     string     `json:"metric"`
	Value      string     `json:"value"`
	Assessment Assessment `json:"assessment" validate:"oneof=GOOD FAIR POOR"`
}

// AnalysisResult represents the structured output of a log audit.
// It is built once by the schema validator and must not be mutated
// afterwards; views derive new values from it.
type AnalysisResult struct {
	Summary string `json:"summary"`

	// ParsedLogs keeps the order returned by the inference service.
	ParsedLogs []LogEntry `json:"parsedLogs"`

	Anomalies           []Anomaly            `json:"anomalies"`
	SecurityThreats     []SecurityThreat     `json:"securityThreats"`
	PerformanceInsights []PerformanceInsight `json:"performanceInsights"`
	Recommendations     []string             `json:"recommendations"`
}

// Clone returns a deep copy of the result.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}

	out := &AnalysisResult{
		Summary:             r.Summary,
		ParsedLogs:          cloneSlice(r.ParsedLogs),
		Anomalies:           cloneSlice(r.Anomalies),
		SecurityThreats:     cloneSlice(r.SecurityThreats),
		PerformanceInsights: cloneSlice(r.PerformanceInsights),
		Recommendations:     cloneSlice(r.Recommendations),
	}

	for i := range out.ParsedLogs {
		if out.ParsedLogs[i].Metadata != nil {
			out.ParsedLogs[i].Metadata = cloneMap(out.ParsedLogs[i].Metadata)
		}
	}

	for i := range out.Anomalies {
		out.Anomalies[i].RelatedEntries = cloneSlice(out.Anomalies[i].RelatedEntries)
	}

	return out
}

// cloneSlice keeps nil and empty slices distinct so JSON output is unchanged.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		cp := make([]any, len(t))
		for i, item := range t {
			cp[i] = cloneValue(item)
		}
		return cp
	default:
		return v
	}
}

// AnalysisRequest represents an incoming log analysis request.
type AnalysisRequest struct {
	// Log is the raw log content to be analyzed. An empty log is accepted
	// here and rejected by the analyzer so the failure reaches the state.
	Log string `json:"log"`
}
