// Package schema holds the result contract every inference response must
// satisfy before it is trusted.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/logaudit/internal/domain"
)

// requiredFields are the top-level keys every result must carry.
// performanceInsights is optional and may be absent or empty.
var requiredFields = []string{
	"summary",
	"parsedLogs",
	"anomalies",
	"securityThreats",
	"recommendations",
}

var constraints = newConstraintValidator()

func newConstraintValidator() *validator.Validate {
	v := validator.New()

	// Report JSON names so violation paths match the wire format.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Validate checks a decoded JSON value against the result schema.
//
// raw is expected to come from encoding/json decoding into an interface
// value. Validation stops at the first violation and never returns a
// partial result. Checks run in order: top-level required fields, log
// entries (required fields and severity), then anomalies, threats,
// insights and recommendations (types, enums and numeric ranges).
func Validate(raw any) (*domain.AnalysisResult, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, violation("$", "expected object, got %s", jsonType(raw))
	}

	for _, name := range requiredFields {
		if v, ok := obj[name]; !ok || v == nil {
			return nil, violation(name, "required field is missing")
		}
	}

	summary, err := stringAt(obj, "summary", "")
	if err != nil {
		return nil, err
	}

	result := &domain.AnalysisResult{Summary: summary}

	if result.ParsedLogs, err = decodeList(obj, "parsedLogs", decodeLogEntry); err != nil {
		return nil, err
	}
	if result.Anomalies, err = decodeList(obj, "anomalies", decodeAnomaly); err != nil {
		return nil, err
	}
	if err := checkRelatedEntries(result.Anomalies, len(result.ParsedLogs)); err != nil {
		return nil, err
	}
	if result.SecurityThreats, err = decodeList(obj, "securityThreats", decodeThreat); err != nil {
		return nil, err
	}

	result.PerformanceInsights = []domain.PerformanceInsight{}
	if v, ok := obj["performanceInsights"]; ok && v != nil {
		if result.PerformanceInsights, err = decodeList(obj, "performanceInsights", decodeInsight); err != nil {
			return nil, err
		}
	}

	if result.Recommendations, err = decodeList(obj, "recommendations", decodeString); err != nil {
		return nil, err
	}

	// Detach from raw so later edits to the decoded value cannot leak in.
	return result.Clone(), nil
}

// decodeList decodes the array stored under key with fn, one element at a time.
func decodeList[T any](obj map[string]any, key string, fn func(v any, path string) (T, error)) ([]T, error) {
	items, ok := obj[key].([]any)
	if !ok {
		return nil, violation(key, "expected array, got %s", jsonType(obj[key]))
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		decoded, err := fn(item, fmt.Sprintf("%s[%d]", key, i))
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}

	return out, nil
}

func decodeLogEntry(v any, path string) (domain.LogEntry, error) {
	var entry domain.LogEntry

	obj, err := objectAt(v, path)
	if err != nil {
		return entry, err
	}

	if entry.Timestamp, err = stringAt(obj, "timestamp", path); err != nil {
		return entry, err
	}
	severity, err := stringAt(obj, "severity", path)
	if err != nil {
		return entry, err
	}
	entry.Severity = domain.Severity(severity)
	if entry.Message, err = stringAt(obj, "message", path); err != nil {
		return entry, err
	}
	if entry.Source, err = optionalStringAt(obj, "source", path); err != nil {
		return entry, err
	}

	if meta, ok := obj["metadata"]; ok && meta != nil {
		m, ok := meta.(map[string]any)
		if !ok {
			return entry, violation(path+".metadata", "expected object, got %s", jsonType(meta))
		}
		entry.Metadata = m
	}

	return entry, checkConstraints(path, entry)
}

func decodeAnomaly(v any, path string) (domain.Anomaly, error) {
	var anomaly domain.Anomaly

	obj, err := objectAt(v, path)
	if err != nil {
		return anomaly, err
	}

	if anomaly.Type, err = stringAt(obj, "type", path); err != nil {
		return anomaly, err
	}
	if anomaly.Description, err = stringAt(obj, "description", path); err != nil {
		return anomaly, err
	}
	if anomaly.Confidence, err = numberAt(obj, "confidence", path); err != nil {
		return anomaly, err
	}

	if related, ok := obj["relatedEntries"]; ok && related != nil {
		items, ok := related.([]any)
		if !ok {
			return anomaly, violation(path+".relatedEntries", "expected array, got %s", jsonType(related))
		}
		anomaly.RelatedEntries = make([]int, 0, len(items))
		for i, item := range items {
			idx, ok := asIndex(item)
			if !ok {
				return anomaly, violation(fmt.Sprintf("%s.relatedEntries[%d]", path, i),
					"expected integer, got %s", jsonType(item))
			}
			anomaly.RelatedEntries = append(anomaly.RelatedEntries, idx)
		}
	}

	return anomaly, checkConstraints(path, anomaly)
}

func decodeThreat(v any, path string) (domain.SecurityThreat, error) {
	var threat domain.SecurityThreat

	obj, err := objectAt(v, path)
	if err != nil {
		return threat, err
	}

	if threat.Category, err = stringAt(obj, "category", path); err != nil {
		return threat, err
	}
	if threat.RiskScore, err = numberAt(obj, "riskScore", path); err != nil {
		return threat, err
	}
	if threat.Details, err = stringAt(obj, "details", path); err != nil {
		return threat, err
	}
	if threat.Mitigation, err = stringAt(obj, "mitigation", path); err != nil {
		return threat, err
	}

	return threat, checkConstraints(path, threat)
}

func decodeInsight(v any, path string) (domain.PerformanceInsight, error) {
	var insight domain.PerformanceInsight

	obj, err := objectAt(v, path)
	if err != nil {
		return insight, err
	}

	if insight.Metric, err = stringAt(obj, "metric", path); err != nil {
		return insight, err
	}
	if insight.Value, err = stringAt(obj, "value", path); err != nil {
		return insight, err
	}
	assessment, err := stringAt(obj, "assessment", path)
	if err != nil {
		return insight, err
	}
	insight.Assessment = domain.Assessment(assessment)

	return insight, checkConstraints(path, insight)
}

func decodeString(v any, path string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", violation(path, "expected string, got %s", jsonType(v))
	}
	return s, nil
}

// checkRelatedEntries rejects anomaly indices that point past the parsed logs.
func checkRelatedEntries(anomalies []domain.Anomaly, logCount int) error {
	for i, anomaly := range anomalies {
		for j, idx := range anomaly.RelatedEntries {
			if idx >= logCount {
				return violation(fmt.Sprintf("anomalies[%d].relatedEntries[%d]", i, j),
					"index %d out of range for %d parsed logs", idx, logCount)
			}
		}
	}
	return nil
}

// checkConstraints runs the enum and range tags declared on the domain types.
func checkConstraints(path string, v any) error {
	err := constraints.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return violation(path+"."+fe.Field(), "%s", describe(fe))
	}

	return violation(path, "%v", err)
}

// describe turns a validator failure into a readable message.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %v", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("must be >= %s, got %v", fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("must be <= %s, got %v", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %q constraint, got %v", fe.Tag(), fe.Value())
	}
}

func objectAt(v any, path string) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, violation(path, "expected object, got %s", jsonType(v))
	}
	return obj, nil
}

func stringAt(obj map[string]any, key, path string) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", violation(join(path, key), "required field is missing")
	}
	s, ok := v.(string)
	if !ok {
		return "", violation(join(path, key), "expected string, got %s", jsonType(v))
	}
	return s, nil
}

func optionalStringAt(obj map[string]any, key, path string) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", violation(join(path, key), "expected string, got %s", jsonType(v))
	}
	return s, nil
}

func numberAt(obj map[string]any, key, path string) (float64, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return 0, violation(join(path, key), "required field is missing")
	}
	n, ok := asNumber(v)
	if !ok {
		return 0, violation(join(path, key), "expected number, got %s", jsonType(v))
	}
	return n, nil
}

// asNumber accepts the numeric shapes produced by encoding/json, with or
// without UseNumber, plus plain Go integers for hand-built values.
func asNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asIndex(v any) (int, bool) {
	f, ok := asNumber(v)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func violation(path, format string, args ...any) error {
	return domain.NewError(domain.KindSchema, "validate",
		fmt.Errorf("%w: %s: %s", domain.ErrSchemaViolation, path, fmt.Sprintf(format, args...)))
}
