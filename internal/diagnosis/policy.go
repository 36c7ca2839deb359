package diagnosis

import (
	"sort"
)

const (
	// MaxOtherConditions is how many runner-up conditions are shown.
	MaxOtherConditions = 5
	// StepCount is how many next steps are shown for the top condition.
	StepCount = 5
)

// DefaultSteps pad the top condition's steps when the provider returned
// fewer than StepCount.
var DefaultSteps = []string{
	"Stay hydrated with water or oral rehydration solutions",
	"Rest and avoid strenuous activity",
	"Monitor symptoms and temperature regularly",
	"Avoid alcohol and smoking",
	"Seek medical attention if symptoms worsen or you feel faint",
}

// InsufficientHints are shown when a result is not confident enough.
var InsufficientHints = []string{
	"When it started and how it changed over time",
	"Where it hurts or what feels uncomfortable",
	"Any fever, cough, dizziness, nausea, rash or shortness of breath",
	"Relevant conditions (e.g. diabetes, asthma) or recent travel and contacts",
}

// Assessment is what gets shown for a Result.
type Assessment struct {
	Insufficient bool        `json:"insufficient" yaml:"insufficient"`
	Top          *Condition  `json:"top,omitempty" yaml:"top,omitempty"`
	Others       []Condition `json:"others" yaml:"others"`
}

// Evaluate ranks conditions by confidence, keeping provider order for ties,
// and applies the confidence threshold again regardless of what the
// normalizer decided.
func Evaluate(r *Result) Assessment {
	if r == nil {
		return Assessment{Insufficient: true, Others: []Condition{}}
	}

	sorted := make([]Condition, len(r.Conditions))
	copy(sorted, r.Conditions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	a := Assessment{Others: []Condition{}}
	if len(sorted) > 0 {
		top := sorted[0]
		a.Top = &top
		rest := sorted[1:]
		if len(rest) > MaxOtherConditions {
			rest = rest[:MaxOtherConditions]
		}
		a.Others = append(a.Others, rest...)
	}

	a.Insufficient = r.Insufficient || a.Top == nil || a.Top.Confidence < ConfidenceThreshold
	return a
}

// Steps returns exactly StepCount steps for the top condition: its own
// first steps, padded from fallback. Nil when there is no top condition.
func (a Assessment) Steps(fallback []string) []string {
	if a.Top == nil {
		return nil
	}
	steps := make([]string, 0, StepCount)
	for _, s := range a.Top.Steps {
		if len(steps) == StepCount {
			break
		}
		steps = append(steps, s)
	}
	for _, s := range fallback {
		if len(steps) == StepCount {
			break
		}
		steps = append(steps, s)
	}
	return steps
}
