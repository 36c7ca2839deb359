package diagnosis

import (
	"errors"
	"strings"

	"github.com/kamilpajak/medguide/internal/llm"
)

// ErrNoSymptoms is returned when a request has no usable symptom text.
var ErrNoSymptoms = errors.New("at least one symptom is required")

// SplitSymptoms splits each entry on commas, trims the pieces and drops
// empty ones, keeping the order they were given in.
func SplitSymptoms(raw ...string) []string {
	var out []string
	for _, entry := range raw {
		for _, s := range strings.Split(entry, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// NewRequest builds a provider request from raw user input.
func NewRequest(symptoms []string, images []llm.Image, existingConditions string) (llm.Request, error) {
	split := SplitSymptoms(symptoms...)
	if len(split) == 0 {
		return llm.Request{}, ErrNoSymptoms
	}
	return llm.Request{
		Symptoms:           split,
		Images:             images,
		ExistingConditions: strings.TrimSpace(existingConditions),
	}, nil
}
