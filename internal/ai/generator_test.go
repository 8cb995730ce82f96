package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedInvoker records every call and replies per model id.
type scriptedInvoker struct {
	replies map[string]string
	errs    map[string]error
	calls   []string
	texts   []string
}

func (s *scriptedInvoker) Generate(ctx context.Context, model string, req Request) (string, error) {
	s.calls = append(s.calls, model)
	s.texts = append(s.texts, req.Text)
	if err, ok := s.errs[model]; ok {
		return "", err
	}
	return s.replies[model], nil
}

func fixedResolver(model string) *Resolver {
	return NewResolver(func(ctx context.Context) ([]string, error) {
		return []string{model}, nil
	})
}

func TestGenerateUsesResolvedModelFirst(t *testing.T) {
	inv := &scriptedInvoker{replies: map[string]string{"gemini-2.5-flash": "hello"}}
	g := NewGenerator(inv, fixedResolver("gemini-2.5-flash"))

	got := g.Generate(context.Background(), Turn{Message: "hi", Mode: "journal"})

	assert.Equal(t, "hello", got)
	require.Len(t, inv.calls, 1)
	assert.Equal(t, "gemini-2.5-flash", inv.calls[0])
}

func TestGenerateFallsThroughOnError(t *testing.T) {
	inv := &scriptedInvoker{
		errs:    map[string]error{"gemini-2.5-flash": errors.New("overloaded")},
		replies: map[string]string{"gemini-2.5-flash-lite": "second choice"},
	}
	g := NewGenerator(inv, fixedResolver("gemini-2.5-flash"))

	got := g.Generate(context.Background(), Turn{Message: "hi"})

	assert.Equal(t, "second choice", got)
	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}, inv.calls)
}

func TestGenerateSkipsEmptyReplies(t *testing.T) {
	inv := &scriptedInvoker{replies: map[string]string{
		"gemini-2.5-flash":      "",
		"gemini-2.5-flash-lite": "",
		"gemini-2.0-flash":      "finally",
	}}
	g := NewGenerator(inv, fixedResolver("gemini-2.5-flash"))

	assert.Equal(t, "finally", g.Generate(context.Background(), Turn{Message: "hi"}))
}

func TestGenerateAllModelsFailReturnsDegradedReply(t *testing.T) {
	inv := &scriptedInvoker{errs: map[string]error{
		"gemini-2.5-flash":      errors.New("down"),
		"gemini-2.5-flash-lite": errors.New("down"),
		"gemini-2.0-flash":      errors.New("down"),
	}}
	g := NewGenerator(inv, fixedResolver("gemini-2.5-flash"))

	got := g.Generate(context.Background(), Turn{Message: "hi"})
	assert.Equal(t, DegradedReply, got, "generation is total: canned text, not an error")
}

func TestGenerateDeduplicatesResolvedModel(t *testing.T) {
	// Resolved model already appears in the fallback list; it must not
	// be tried twice.
	inv := &scriptedInvoker{errs: map[string]error{
		"gemini-2.5-flash":      errors.New("down"),
		"gemini-2.5-flash-lite": errors.New("down"),
		"gemini-2.0-flash":      errors.New("down"),
	}}
	g := NewGenerator(inv, fixedResolver("gemini-2.0-flash"))

	g.Generate(context.Background(), Turn{Message: "hi"})

	seen := map[string]int{}
	for _, m := range inv.calls {
		seen[m]++
	}
	for model, count := range seen {
		assert.Equal(t, 1, count, "model %s tried more than once", model)
	}
}

func TestGenerateImageRetryTextOnly(t *testing.T) {
	// Every candidate rejects the image; the text-only retry, which
	// carries the weak-signal note instead of image bytes, succeeds.
	callCount := 0
	inv := invokerFunc(func(ctx context.Context, model string, req Request) (string, error) {
		callCount++
		if len(req.ImageData) == 0 && strings.Contains(req.Text, "[Image attached but signal weak]") {
			return "saw your note", nil
		}
		return "", errors.New("image rejected")
	})
	g := NewGenerator(inv, fixedResolver("gemini-2.5-flash"))

	got := g.Generate(context.Background(), Turn{
		Message:   "look at this",
		ImageMIME: "image/png",
		ImageData: []byte{1, 2, 3},
	})

	assert.Equal(t, "saw your note", got)
	assert.Equal(t, 4, callCount, "3 candidates plus the text-only retry")
}

func TestGenerateNoImageNoRetry(t *testing.T) {
	calls := 0
	inv := invokerFunc(func(ctx context.Context, model string, req Request) (string, error) {
		calls++
		return "", errors.New("down")
	})
	g := NewGenerator(inv, fixedResolver("gemini-2.5-flash"))

	got := g.Generate(context.Background(), Turn{Message: "hi"})

	assert.Equal(t, DegradedReply, got)
	assert.Equal(t, 3, calls, "text-only turns skip the image retry")
}

func TestGenerateIncludesMemoriesInSystemPrompt(t *testing.T) {
	var captured Request
	inv := invokerFunc(func(ctx context.Context, model string, req Request) (string, error) {
		captured = req
		return "ok", nil
	})
	g := NewGenerator(inv, fixedResolver("gemini-2.5-flash"))

	g.Generate(context.Background(), Turn{
		Message: "today again",
		Mode:    "journal",
		Memories: []Memory{
			{Date: "2026-08-01", Message: "felt lighter after the walk"},
		},
	})

	assert.Contains(t, captured.System, "RELEVANT PAST MEMORIES:")
	assert.Contains(t, captured.System, "felt lighter after the walk")
}

func TestGenerateRantModeUsesVoidPersona(t *testing.T) {
	var captured Request
	inv := invokerFunc(func(ctx context.Context, model string, req Request) (string, error) {
		captured = req
		return "ok", nil
	})
	g := NewGenerator(inv, fixedResolver("gemini-2.5-flash"))

	g.Generate(context.Background(), Turn{Message: "everything is too much", Mode: "rant"})
	assert.Contains(t, captured.System, "The Void")

	g.Generate(context.Background(), Turn{Message: "a normal day", Mode: "journal"})
	assert.Contains(t, captured.System, "Celi")
}

type invokerFunc func(ctx context.Context, model string, req Request) (string, error)

func (f invokerFunc) Generate(ctx context.Context, model string, req Request) (string, error) {
	return f(ctx, model, req)
}
