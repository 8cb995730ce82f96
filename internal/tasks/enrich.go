package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/markolybrx/Celi-AI/internal/ai"
	"github.com/markolybrx/Celi-AI/internal/models"
	"github.com/markolybrx/Celi-AI/internal/store"
)

// Candidate models for deferred generation; cheaper and shorter than
// the interactive path, same descending-capability order.
var taskModels = []string{"gemini-2.5-flash", "gemini-2.0-flash"}

var triviaTopics = []string{
	"astronomy", "psychology", "nature", "ancient history",
	"quantum physics", "philosophy", "neuroscience",
}

// Args for the individual tasks.
type EnrichEntryArgs struct {
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
	Text      string `json:"text"`
}

type ConstellationArgs struct {
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
	TextBlock string `json:"text_block"`
}

type UserArgs struct {
	UserID string `json:"user_id"`
}

// HistoryPatcher is the slice of the history store the worker writes
// through.
type HistoryPatcher interface {
	PatchEnrichment(ctx context.Context, userID string, timestamp int64, patch store.EnrichmentPatch) error
	SetConstellationName(ctx context.Context, userID string, timestamp int64, name string) error
	Recent(ctx context.Context, userID string, n int) ([]models.JournalEntry, error)
}

// ProfileWriter is the slice of the users store the worker writes
// through.
type ProfileWriter interface {
	SetWeeklyInsight(ctx context.Context, userID string, insight models.WeeklyInsight) error
	SetDailyTrivia(ctx context.Context, userID string, trivia models.DailyTrivia) error
}

// EmbedFunc embeds document text for the vector index. Nil when the AI
// core is offline; enrichment then skips the embedding field.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Enricher implements the deferred enrichment handlers. Every handler
// is idempotent: re-running a task re-applies the same field-level
// $set, never duplicating or corrupting the entry.
type Enricher struct {
	History HistoryPatcher
	Users   ProfileWriter
	Invoker ai.Invoker
	Embed   EmbedFunc
}

// RegisterAll wires the enricher's handlers into a worker.
func (e *Enricher) RegisterAll(w *Worker) {
	w.Register(TaskEnrichEntry, e.handleEnrichEntry)
	w.Register(TaskConstellation, e.handleConstellation)
	w.Register(TaskWeeklyInsight, e.handleWeeklyInsight)
	w.Register(TaskDailyTrivia, e.handleDailyTrivia)
}

// handleEnrichEntry computes embedding + analysis + summary and patches
// the persisted entry. Individual failures degrade per-field; the patch
// applies whatever was computed.
func (e *Enricher) handleEnrichEntry(ctx context.Context, raw json.RawMessage) error {
	var args EnrichEntryArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}
	log.Printf("⚙️ [Worker] Processing entry %s/%d", args.UserID, args.Timestamp)

	var patch store.EnrichmentPatch

	if e.Embed != nil && len(args.Text) > 5 {
		if vec, err := e.Embed(ctx, args.Text); err != nil {
			log.Printf("⚠️ Embedding failed: %v", err)
		} else {
			patch.Embedding = vec
		}
	}

	if text, ok := e.generate(ctx, ai.AnalysisPrompt(args.Text)); ok {
		patch.AIAnalysis = text
	} else {
		patch.AIAnalysis = "Analysis unavailable due to signal interference."
	}

	if text, ok := e.generate(ctx, ai.SummaryPrompt(args.Text)); ok {
		patch.Summary = stripQuotes(text)
	} else {
		patch.Summary = truncate(args.Text, 50) + "..."
	}

	return e.History.PatchEnrichment(ctx, args.UserID, args.Timestamp, patch)
}

// handleConstellation names a completed 7-star group and stamps the
// name onto its closing entry.
func (e *Enricher) handleConstellation(ctx context.Context, raw json.RawMessage) error {
	var args ConstellationArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	name := "Unknown Constellation"
	if text, ok := e.generate(ctx, ai.ConstellationPrompt(args.TextBlock)); ok {
		name = stripQuotes(text)
	}
	return e.History.SetConstellationName(ctx, args.UserID, args.Timestamp, name)
}

// handleWeeklyInsight analyzes the last 7 entries into a pattern +
// advice block on the profile. An empty history gets the persuasion
// state without spending an API call.
func (e *Enricher) handleWeeklyInsight(ctx context.Context, raw json.RawMessage) error {
	var args UserArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	entries, err := e.History.Recent(ctx, args.UserID, 7)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return e.Users.SetWeeklyInsight(ctx, args.UserID, models.WeeklyInsight{
			Status:         "empty",
			Text:           "The galaxy is quiet. I cannot navigate your stars if they do not exist. Share one small moment from today?",
			Recommendation: "Start small. Just write one sentence.",
		})
	}

	var block strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&block, "[%s]: %s\n", entry.Date, entry.FullMessage)
	}

	insight := ai.ParseInsight("")
	if text, ok := e.generate(ctx, ai.WeeklyInsightPrompt(block.String())); ok {
		insight = ai.ParseInsight(text)
	}
	return e.Users.SetWeeklyInsight(ctx, args.UserID, models.WeeklyInsight{
		Status:         "active",
		Text:           insight.Observation,
		Recommendation: insight.Advice,
	})
}

// handleDailyTrivia stores one fact per user per day; the stored date
// keeps it from regenerating until tomorrow.
func (e *Enricher) handleDailyTrivia(ctx context.Context, raw json.RawMessage) error {
	var args UserArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return err
	}

	topic := triviaTopics[rand.Intn(len(triviaTopics))]
	text, ok := e.generate(ctx, ai.TriviaPrompt(topic))
	if !ok {
		return fmt.Errorf("trivia generation failed for %s", args.UserID)
	}

	return e.Users.SetDailyTrivia(ctx, args.UserID, models.DailyTrivia{
		Date:  time.Now().Format("2006-01-02"),
		Fact:  text,
		Topic: topic,
	})
}

// generate walks the task candidate list, returning the first non-empty
// text.
func (e *Enricher) generate(ctx context.Context, prompt string) (string, bool) {
	if e.Invoker == nil {
		return "", false
	}
	for _, model := range taskModels {
		text, err := e.Invoker.Generate(ctx, model, ai.Request{Text: prompt})
		if err != nil {
			log.Printf("⚠️ Task generation error (%s): %v", model, err)
			continue
		}
		if text != "" {
			return text, true
		}
	}
	return "", false
}

func stripQuotes(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	return strings.ReplaceAll(s, "'", "")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
