// Package diagnosis turns provider replies into diagnosis results and
// decides how confident a result has to be before it is shown.
package diagnosis

// ConfidenceThreshold is the confidence the top condition must reach for a
// result to count as a usable diagnosis.
const ConfidenceThreshold = 0.35

// Urgency is how soon a condition needs attention. Providers may return
// values outside the known set; those are kept as-is.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Condition is one candidate diagnosis.
type Condition struct {
	Name           string   `json:"condition" yaml:"condition"`
	Confidence     float64  `json:"confidence" yaml:"confidence"`
	Urgency        Urgency  `json:"urgency" yaml:"urgency"`
	Steps          []string `json:"steps" yaml:"steps"`
	Description    string   `json:"description" yaml:"description"`
	VisualAnalysis string   `json:"visual_analysis,omitempty" yaml:"visual_analysis,omitempty"`
}

// Result is the normalized outcome of one diagnosis request.
type Result struct {
	Insufficient   bool        `json:"insufficient" yaml:"insufficient"`
	Conditions     []Condition `json:"conditions" yaml:"conditions"`
	VisualFindings string      `json:"visual_findings,omitempty" yaml:"visual_findings,omitempty"`
	GeneralAdvice  string      `json:"general_advice" yaml:"general_advice"`
	WhenToSeekHelp string      `json:"when_to_seek_help" yaml:"when_to_seek_help"`
	Disclaimer     string      `json:"disclaimer" yaml:"disclaimer"`
}

// Insufficient returns the result used whenever no usable diagnosis could
// be produced. Each call returns a new value.
func Insufficient() *Result {
	return &Result{
		Insufficient: true,
		Conditions:   []Condition{},
	}
}

// MaxConfidence returns the highest confidence among the conditions, or 0.
func (r *Result) MaxConfidence() float64 {
	var m float64
	for _, c := range r.Conditions {
		if c.Confidence > m {
			m = c.Confidence
		}
	}
	return m
}
