package diagnosis

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseError is returned when a provider reply cannot be turned into a
// Result.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse AI response: %s: %v", e.Reason, e.Err)
	}
	return "failed to parse AI response: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// extractJSON returns the text from the first '{' to the last '}'.
func extractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// Parse normalizes a provider reply. The reply may wrap the JSON object in
// prose or code fences. Parse either returns a complete Result or a
// *ParseError, never a partial result.
func Parse(raw string) (*Result, error) {
	obj, ok := extractJSON(raw)
	if !ok {
		return nil, &ParseError{Reason: "no JSON object found in response"}
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}

	conditions, err := parseConditions(payload["conditions"])
	if err != nil {
		return nil, err
	}

	r := &Result{
		Conditions:     conditions,
		VisualFindings: stringField(payload, "visual_findings"),
		GeneralAdvice:  stringField(payload, "general_advice"),
		WhenToSeekHelp: stringField(payload, "when_to_seek_help"),
		Disclaimer:     stringField(payload, "disclaimer"),
	}

	flagged, _ := payload["insufficient"].(bool)
	r.Insufficient = flagged || len(conditions) == 0 || r.MaxConfidence() < ConfidenceThreshold

	return r, nil
}

func parseConditions(v any) ([]Condition, error) {
	if v == nil {
		return []Condition{}, nil
	}

	list, ok := v.([]any)
	if !ok {
		return nil, &ParseError{Reason: fmt.Sprintf("conditions must be an array, got %s", jsonType(v))}
	}

	conditions := make([]Condition, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, &ParseError{Reason: fmt.Sprintf("condition %d must be an object, got %s", i, jsonType(item))}
		}

		urgency := Urgency(strings.TrimSpace(stringField(obj, "urgency")))
		if urgency == "" {
			urgency = UrgencyLow
		}

		conditions = append(conditions, Condition{
			Name:           stringField(obj, "condition"),
			Confidence:     clampConfidence(obj["confidence"]),
			Urgency:        urgency,
			Steps:          stringList(obj["steps"]),
			Description:    stringField(obj, "description"),
			VisualAnalysis: stringField(obj, "visual_analysis"),
		})
	}
	return conditions, nil
}

// clampConfidence maps v into [0,1]. Missing and non-numeric values are 0;
// numeric strings are accepted.
func clampConfidence(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return math.Min(math.Max(f, 0), 1)
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
