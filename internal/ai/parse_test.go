package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInsightPlainJSON(t *testing.T) {
	got := ParseInsight(`{"observation": "You write more on Mondays.", "advice": "Schedule hard tasks early."}`)
	assert.Equal(t, "You write more on Mondays.", got.Observation)
	assert.Equal(t, "Schedule hard tasks early.", got.Advice)
}

func TestParseInsightFencedJSON(t *testing.T) {
	raw := "```json\n{\"observation\": \"Stress peaks midweek.\", \"advice\": \"Try a short walk.\"}\n```"
	got := ParseInsight(raw)
	assert.Equal(t, "Stress peaks midweek.", got.Observation)
	assert.Equal(t, "Try a short walk.", got.Advice)
}

func TestParseInsightWithLeadingProse(t *testing.T) {
	raw := `Sure! Here is the analysis you asked for:
{"observation": "Sleep shows up a lot.", "advice": "Focus on sleep hygiene."}`
	got := ParseInsight(raw)
	assert.Equal(t, "Sleep shows up a lot.", got.Observation)
}

func TestParseInsightGarbageFallsBack(t *testing.T) {
	got := ParseInsight("I cannot produce JSON today, sorry.")
	assert.Equal(t, fallbackInsight, got)
}

func TestParseInsightEmptyFallsBack(t *testing.T) {
	assert.Equal(t, fallbackInsight, ParseInsight(""))
}

func TestParseInsightInvalidJSONFallsBack(t *testing.T) {
	assert.Equal(t, fallbackInsight, ParseInsight(`{"observation": unquoted}`))
}

func TestParseInsightFillsMissingFields(t *testing.T) {
	got := ParseInsight(`{"observation": "Only half an answer."}`)
	assert.Equal(t, "Only half an answer.", got.Observation)
	assert.Equal(t, fallbackInsight.Advice, got.Advice)
}
