package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markolybrx/Celi-AI/internal/ai"
	"github.com/markolybrx/Celi-AI/internal/models"
	"github.com/markolybrx/Celi-AI/internal/store"
)

type fakeHistoryPatcher struct {
	patches        map[int64]store.EnrichmentPatch
	constellations map[int64]string
	recent         []models.JournalEntry
}

func newFakeHistoryPatcher() *fakeHistoryPatcher {
	return &fakeHistoryPatcher{
		patches:        map[int64]store.EnrichmentPatch{},
		constellations: map[int64]string{},
	}
}

func (f *fakeHistoryPatcher) PatchEnrichment(ctx context.Context, userID string, timestamp int64, patch store.EnrichmentPatch) error {
	f.patches[timestamp] = patch
	return nil
}

func (f *fakeHistoryPatcher) SetConstellationName(ctx context.Context, userID string, timestamp int64, name string) error {
	f.constellations[timestamp] = name
	return nil
}

func (f *fakeHistoryPatcher) Recent(ctx context.Context, userID string, n int) ([]models.JournalEntry, error) {
	return f.recent, nil
}

type fakeProfileWriter struct {
	insight *models.WeeklyInsight
	trivia  *models.DailyTrivia
}

func (f *fakeProfileWriter) SetWeeklyInsight(ctx context.Context, userID string, insight models.WeeklyInsight) error {
	f.insight = &insight
	return nil
}

func (f *fakeProfileWriter) SetDailyTrivia(ctx context.Context, userID string, trivia models.DailyTrivia) error {
	f.trivia = &trivia
	return nil
}

type stubInvoker struct {
	reply string
	err   error
}

func (s stubInvoker) Generate(ctx context.Context, model string, req ai.Request) (string, error) {
	return s.reply, s.err
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestEnrichEntryAppliesAllFields(t *testing.T) {
	history := newFakeHistoryPatcher()
	e := &Enricher{
		History: history,
		Invoker: stubInvoker{reply: "A gentle observation."},
		Embed: func(ctx context.Context, text string) ([]float32, error) {
			return []float32{0.1, 0.2}, nil
		},
	}

	args := mustJSON(t, EnrichEntryArgs{UserID: "u1", Timestamp: 42, Text: "a long enough entry"})
	require.NoError(t, e.handleEnrichEntry(context.Background(), args))

	patch := history.patches[42]
	assert.Equal(t, []float32{0.1, 0.2}, patch.Embedding)
	assert.Equal(t, "A gentle observation.", patch.AIAnalysis)
	assert.NotEmpty(t, patch.Summary)
}

func TestEnrichEntryOfflineFallbacks(t *testing.T) {
	history := newFakeHistoryPatcher()
	e := &Enricher{History: history} // no invoker, no embedder

	args := mustJSON(t, EnrichEntryArgs{UserID: "u1", Timestamp: 42, Text: "today was strange and long"})
	require.NoError(t, e.handleEnrichEntry(context.Background(), args))

	patch := history.patches[42]
	assert.Nil(t, patch.Embedding)
	assert.Equal(t, "Analysis unavailable due to signal interference.", patch.AIAnalysis)
	assert.Equal(t, "today was strange and long...", patch.Summary)
}

func TestEnrichEntrySkipsEmbeddingForShortText(t *testing.T) {
	history := newFakeHistoryPatcher()
	embedCalls := 0
	e := &Enricher{
		History: history,
		Invoker: stubInvoker{reply: "ok"},
		Embed: func(ctx context.Context, text string) ([]float32, error) {
			embedCalls++
			return []float32{1}, nil
		},
	}

	args := mustJSON(t, EnrichEntryArgs{UserID: "u1", Timestamp: 1, Text: "hey"})
	require.NoError(t, e.handleEnrichEntry(context.Background(), args))
	assert.Zero(t, embedCalls)
}

func TestConstellationFallbackName(t *testing.T) {
	history := newFakeHistoryPatcher()
	e := &Enricher{History: history, Invoker: stubInvoker{err: errors.New("down")}}

	args := mustJSON(t, ConstellationArgs{UserID: "u1", Timestamp: 7, TextBlock: "[2026-08-31]: day\n"})
	require.NoError(t, e.handleConstellation(context.Background(), args))
	assert.Equal(t, "Unknown Constellation", history.constellations[7])
}

func TestConstellationStripsQuotes(t *testing.T) {
	history := newFakeHistoryPatcher()
	e := &Enricher{History: history, Invoker: stubInvoker{reply: `"The Week of Rain"`}}

	args := mustJSON(t, ConstellationArgs{UserID: "u1", Timestamp: 7, TextBlock: "x"})
	require.NoError(t, e.handleConstellation(context.Background(), args))
	assert.Equal(t, "The Week of Rain", history.constellations[7])
}

func TestWeeklyInsightEmptyHistory(t *testing.T) {
	users := &fakeProfileWriter{}
	e := &Enricher{History: newFakeHistoryPatcher(), Users: users, Invoker: stubInvoker{reply: "unused"}}

	require.NoError(t, e.handleWeeklyInsight(context.Background(), mustJSON(t, UserArgs{UserID: "u1"})))

	require.NotNil(t, users.insight)
	assert.Equal(t, "empty", users.insight.Status)
	assert.NotEmpty(t, users.insight.Text)
}

func TestWeeklyInsightActiveHistory(t *testing.T) {
	history := newFakeHistoryPatcher()
	history.recent = []models.JournalEntry{{Date: "2026-08-30", FullMessage: "slept badly"}}
	users := &fakeProfileWriter{}
	e := &Enricher{
		History: history,
		Users:   users,
		Invoker: stubInvoker{reply: `{"observation": "Sleep is a theme.", "advice": "Wind down earlier."}`},
	}

	require.NoError(t, e.handleWeeklyInsight(context.Background(), mustJSON(t, UserArgs{UserID: "u1"})))

	require.NotNil(t, users.insight)
	assert.Equal(t, "active", users.insight.Status)
	assert.Equal(t, "Sleep is a theme.", users.insight.Text)
	assert.Equal(t, "Wind down earlier.", users.insight.Recommendation)
}

func TestDailyTriviaStoresTodaysFact(t *testing.T) {
	users := &fakeProfileWriter{}
	e := &Enricher{History: newFakeHistoryPatcher(), Users: users, Invoker: stubInvoker{reply: "Octopuses have three hearts."}}

	require.NoError(t, e.handleDailyTrivia(context.Background(), mustJSON(t, UserArgs{UserID: "u1"})))

	require.NotNil(t, users.trivia)
	assert.Equal(t, "Octopuses have three hearts.", users.trivia.Fact)
	assert.NotEmpty(t, users.trivia.Date)
	assert.NotEmpty(t, users.trivia.Topic)
}

func TestDailyTriviaFailsWithoutModel(t *testing.T) {
	users := &fakeProfileWriter{}
	e := &Enricher{History: newFakeHistoryPatcher(), Users: users}

	err := e.handleDailyTrivia(context.Background(), mustJSON(t, UserArgs{UserID: "u1"}))
	assert.Error(t, err, "trivia has no fallback text; the task retries instead")
	assert.Nil(t, users.trivia)
}
