package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/markolybrx/Celi-AI/internal/ai"
)

type fakeSearcher struct {
	results []ai.Memory
	err     error

	gotUserID string
	gotVector []float32
	calls     int
}

func (f *fakeSearcher) VectorSearch(ctx context.Context, userID string, vector []float32, numCandidates, limit int) ([]ai.Memory, error) {
	f.calls++
	f.gotUserID = userID
	f.gotVector = vector
	return f.results, f.err
}

func okEmbed(vec []float32) EmbedFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return vec, nil
	}
}

func TestFindShortQuerySkipsEmbedding(t *testing.T) {
	embedCalls := 0
	embed := func(ctx context.Context, text string) ([]float32, error) {
		embedCalls++
		return []float32{1}, nil
	}
	search := &fakeSearcher{}
	r := NewRecall(embed, search)

	got := r.Find(context.Background(), "u1", "hey")

	assert.Empty(t, got)
	assert.Zero(t, embedCalls)
	assert.Zero(t, search.calls)
}

func TestFindTrimsBeforeLengthCheck(t *testing.T) {
	search := &fakeSearcher{}
	r := NewRecall(okEmbed([]float32{1}), search)

	got := r.Find(context.Background(), "u1", "   hi   ")

	assert.Empty(t, got)
	assert.Zero(t, search.calls)
}

func TestFindEmbeddingErrorDegradesToEmpty(t *testing.T) {
	embed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("quota exceeded")
	}
	search := &fakeSearcher{}
	r := NewRecall(embed, search)

	got := r.Find(context.Background(), "u1", "a long enough query")

	assert.Empty(t, got)
	assert.Zero(t, search.calls, "no search without a vector")
}

func TestFindSearchErrorDegradesToEmpty(t *testing.T) {
	search := &fakeSearcher{err: errors.New("index missing")}
	r := NewRecall(okEmbed([]float32{0.1, 0.2}), search)

	got := r.Find(context.Background(), "u1", "a long enough query")
	assert.Empty(t, got)
}

func TestFindFiltersByScore(t *testing.T) {
	search := &fakeSearcher{results: []ai.Memory{
		{Date: "2026-08-01", Message: "strong match", Score: 0.91},
		{Date: "2026-08-02", Message: "borderline", Score: 0.65},
		{Date: "2026-08-03", Message: "weak", Score: 0.40},
	}}
	r := NewRecall(okEmbed([]float32{0.5}), search)

	got := r.Find(context.Background(), "u1", "a long enough query")

	// The threshold is exclusive: exactly 0.65 does not surface.
	assert.Len(t, got, 1)
	assert.Equal(t, "strong match", got[0].Message)
}

func TestFindScopesToUser(t *testing.T) {
	search := &fakeSearcher{}
	r := NewRecall(okEmbed([]float32{0.5}), search)

	r.Find(context.Background(), "user-42", "a long enough query")

	assert.Equal(t, "user-42", search.gotUserID)
	assert.Equal(t, []float32{0.5}, search.gotVector)
}

func TestFindNilDependenciesAreSafe(t *testing.T) {
	r := NewRecall(nil, nil)
	assert.Empty(t, r.Find(context.Background(), "u1", "a long enough query"))
}
