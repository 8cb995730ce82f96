package ai

import (
	"encoding/json"
	"strings"
)

// Insight is the structured weekly-insight payload the model is asked
// to return.
type Insight struct {
	Observation string `json:"observation"`
	Advice      string `json:"advice"`
}

// Defaults used when the model output cannot be parsed. The dashboard
// always has something to show.
var fallbackInsight = Insight{
	Observation: "I sense complex emotions in your recent entries.",
	Advice:      "Take a moment to breathe deeply before your next task.",
}

// ParseInsight extracts an Insight from raw model output. The accepted
// grammar is a JSON object, optionally wrapped in a Markdown code
// fence. Parsing fails closed: any malformed output yields the fixed
// fallback, never an error.
func ParseInsight(raw string) Insight {
	cleaned := stripFences(raw)

	// Models sometimes prepend prose; scan for the object itself.
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return fallbackInsight
	}

	var out Insight
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &out); err != nil {
		return fallbackInsight
	}
	if out.Observation == "" {
		out.Observation = fallbackInsight.Observation
	}
	if out.Advice == "" {
		out.Advice = fallbackInsight.Advice
	}
	return out
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
