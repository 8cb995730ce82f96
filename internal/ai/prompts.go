package ai

import (
	"fmt"
	"strings"
)

// The two fixed personas. "rant" mode talks to the Void, which only
// absorbs; "journal" mode talks to Celi.
const (
	personaVoid = "You are 'The Void'. Infinite, safe emptiness. Absorb pain."
	personaCeli = "You are Celi. Analyze the user's day. Be warm and concise."
)

// SystemInstruction builds the role-conditioned instruction for a turn:
// persona plus a rendered block of retrieved memories, when present.
func SystemInstruction(mode string, memories []Memory) string {
	base := personaCeli
	if mode == "rant" {
		base = personaVoid
	}
	return base + renderMemories(memories)
}

func renderMemories(memories []Memory) string {
	if len(memories) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nRELEVANT PAST MEMORIES:\n")
	for _, mem := range memories {
		fmt.Fprintf(&b, "- [%s]: %s\n", mem.Date, mem.Message)
	}
	return b.String()
}

// Prompts for the deferred enrichment tasks. All of them address the
// user as 'You' so the patched text can be shown verbatim.
func AnalysisPrompt(entry string) string {
	return "Provide a warm, human-like psychological insight about this journal entry. Speak directly to 'You'. Keep it to 1 or 2 sentences max. Entry: " + entry
}

func SummaryPrompt(entry string) string {
	return "Write a 1 or 2 sentence recap of this entry addressed to 'You', as if you are a supportive friend remembering it. Do not start with 'You mentioned'. Entry: " + entry
}

func ConstellationPrompt(entriesBlock string) string {
	return "Here are 7 days of journal entries. Give them a mystical 'Constellation Name' (e.g., 'The Week of Rain'). Just the name. Entries: " + entriesBlock
}

func WeeklyInsightPrompt(entriesBlock string) string {
	return `Act as Celi, a warm, psychological AI companion.
Analyze these user journal entries from the last 7 days.

Return a valid JSON object (no markdown formatting) with exactly two fields:
1. "observation": A 1-sentence observation about their mood patterns or recurring themes.
2. "advice": A 1-sentence specific, actionable micro-strategy or concept (e.g., 'Try the Pomodoro technique', 'Focus on sleep hygiene'). Do not recommend specific URLs.

Entries:
` + entriesBlock
}

func TriviaPrompt(topic string) string {
	return fmt.Sprintf(`Tell me a fascinating, lesser-known fact about %s.
It should be short (minimum 20 words but not more than 40 words), awe-inspiring, and sound like something a smart friend would share.
Return ONLY the fact as plain text. No 'Here is a fact:' prefix.`, topic)
}
