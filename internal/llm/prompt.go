package llm

import (
	"fmt"
	"strings"
)

const noConditions = "None reported"

const responseSchema = `{
  "insufficient": false,
  "conditions": [
    {
      "condition": "Name of the possible condition",
      "confidence": 0.0,
      "urgency": "low | medium | high",
      "steps": ["What the person should do next", "..."],
      "description": "One or two sentences explaining the condition"%s
    }
  ],%s
  "general_advice": "General self-care advice",
  "when_to_seek_help": "Warning signs that need a doctor",
  "disclaimer": "This is not a substitute for professional medical advice."
}`

const symptomPrompt = `You are a careful medical triage assistant helping a person understand their symptoms.

Reported symptoms: {symptoms}
Existing medical conditions: {existing_conditions}

Consider the existing conditions when ranking possibilities. List up to six possible
conditions, most likely first, with a confidence between 0 and 1. Be conservative:
never claim certainty and always recommend professional care for anything serious.

If the description has fewer than three meaningful words, or is too vague to reason
about, set "insufficient" to true and return an empty "conditions" array.

Reply with a single JSON object and nothing else, in exactly this shape:
%s`

const symptomImagePrompt = `You are a careful medical triage assistant helping a person understand their symptoms.
The person has also attached photos of the affected area.

Reported symptoms: {symptoms}
Existing medical conditions: {existing_conditions}

Examine the photos together with the symptoms. Describe what is visible (color,
texture, size, pattern) and use it to refine your assessment. Consider the existing
conditions when ranking possibilities. List up to six possible conditions, most likely
first, with a confidence between 0 and 1. Be conservative: never claim certainty and
always recommend professional care for anything serious.

If neither the description nor the photos give enough to reason about, set
"insufficient" to true and return an empty "conditions" array.

Reply with a single JSON object and nothing else, in exactly this shape:
%s`

var (
	textTemplate  = fmt.Sprintf(symptomPrompt, fmt.Sprintf(responseSchema, "", ""))
	imageTemplate = fmt.Sprintf(symptomImagePrompt, fmt.Sprintf(responseSchema,
		",\n      \"visual_analysis\": \"What the photos show that supports this condition\"",
		"\n  \"visual_findings\": \"Summary of everything observed in the photos\","))
)

// BuildPrompt renders the prompt for req. The image template is used
// whenever req carries at least one image.
func BuildPrompt(req Request) string {
	tmpl := textTemplate
	if len(req.Images) > 0 {
		tmpl = imageTemplate
	}

	conditions := strings.TrimSpace(req.ExistingConditions)
	if conditions == "" {
		conditions = noConditions
	}

	return strings.NewReplacer(
		"{symptoms}", strings.Join(req.Symptoms, ", "),
		"{existing_conditions}", conditions,
	).Replace(tmpl)
}
