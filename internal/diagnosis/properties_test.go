package diagnosis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/kamilpajak/medguide/internal/config"
	"github.com/kamilpajak/medguide/internal/llm"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func properties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	return gopter.NewProperties(parameters)
}

func conditionsJSON(confidences []float64) string {
	items := make([]map[string]any, 0, len(confidences))
	for i, c := range confidences {
		items = append(items, map[string]any{"condition": fmt.Sprintf("c%d", i), "confidence": c})
	}
	b, _ := json.Marshal(map[string]any{"insufficient": false, "conditions": items})
	return string(b)
}

func TestProperty_ConfidenceIsClamped(t *testing.T) {
	props := properties()

	props.Property("numeric confidence always lands in [0,1]", prop.ForAll(
		func(c float64) bool {
			r, err := Parse(conditionsJSON([]float64{c}))
			if err != nil {
				return false
			}
			got := r.Conditions[0].Confidence
			return got >= 0 && got <= 1
		},
		gen.Float64Range(-1e6, 1e6),
	))

	props.Property("non-numeric confidence becomes 0", prop.ForAll(
		func(s string) bool {
			raw, _ := json.Marshal(map[string]any{"conditions": []any{map[string]any{"condition": "x", "confidence": "~" + s}}})
			r, err := Parse(string(raw))
			return err == nil && r.Conditions[0].Confidence == 0
		},
		gen.AlphaString(),
	))

	props.TestingRun(t)
}

func TestProperty_EmptyConditionsAreInsufficient(t *testing.T) {
	props := properties()

	props.Property("no conditions means insufficient whatever the flag says", prop.ForAll(
		func(flag bool, advice string) bool {
			raw, _ := json.Marshal(map[string]any{"insufficient": flag, "conditions": []any{}, "general_advice": advice})
			r, err := Parse(string(raw))
			return err == nil && r.Insufficient
		},
		gen.Bool(),
		gen.AlphaString(),
	))

	props.TestingRun(t)
}

func TestProperty_LowConfidenceRendersInsufficient(t *testing.T) {
	props := properties()

	props.Property("policy rejects results whose best confidence is below the threshold", prop.ForAll(
		func(confidences []float64) bool {
			conds := make([]Condition, 0, len(confidences))
			for i, c := range confidences {
				conds = append(conds, Condition{Name: fmt.Sprintf("c%d", i), Confidence: c})
			}
			// Flag deliberately left false.
			return Evaluate(&Result{Insufficient: false, Conditions: conds}).Insufficient
		},
		gen.SliceOf(gen.Float64Range(0, ConfidenceThreshold-1e-9)),
	))

	props.Property("parsed low-confidence replies are flagged too", prop.ForAll(
		func(confidences []float64) bool {
			r, err := Parse(conditionsJSON(confidences))
			return err == nil && r.Insufficient && Evaluate(r).Insufficient
		},
		gen.SliceOf(gen.Float64Range(0, ConfidenceThreshold-1e-9)),
	))

	props.TestingRun(t)
}

func TestProperty_ProseAroundJSONIsIgnored(t *testing.T) {
	props := properties()

	// Prose without braces, so the object is the only brace-delimited span.
	prose := gen.AlphaString().Map(func(s string) string { return strings.TrimSpace(s) + " " })

	props.Property("prose before and after one object parses to that object", prop.ForAll(
		func(before, after string, c float64) bool {
			body := conditionsJSON([]float64{c})
			withProse, err := Parse(before + body + "\n" + after)
			if err != nil {
				return false
			}
			bare, err := Parse(body)
			if err != nil {
				return false
			}
			return fmt.Sprint(withProse) == fmt.Sprint(bare)
		},
		prose,
		prose,
		gen.Float64Range(0, 1),
	))

	props.TestingRun(t)
}

func TestProperty_FallbackIsIdempotent(t *testing.T) {
	props := properties()

	props.Property("a failing configuration always yields the same sentinel", prop.ForAll(
		func(service string, symptoms []string) bool {
			cfg := &config.Config{AI: config.AIConfig{Service: service}}
			svc := FromConfig(cfg, nil)

			req := llm.Request{Symptoms: symptoms}
			a := svc.Diagnose(context.Background(), req)
			b := svc.Diagnose(context.Background(), req)
			return a.Insufficient && len(a.Conditions) == 0 &&
				fmt.Sprint(a) == fmt.Sprint(b) && fmt.Sprint(a) == fmt.Sprint(Insufficient())
		},
		gen.OneConstOf("gemini", "openai", "azure", "anthropic", "unknown", ""),
		gen.SliceOf(gen.AlphaString()),
	))

	props.TestingRun(t)
}
