package ai

import (
	"context"
	"log"
	"strings"
)

// DegradedReply is the terminal, user-visible text returned when every
// candidate model fails. It is an answer, not an error: the turn is
// still persisted with this string as the reply.
const DegradedReply = "Signal Lost. Visual/Text processing failed. Check your API key or connection."

// imageFallbackModel handles the final text-only retry when an attached
// image could not be processed by any candidate.
const imageFallbackModel = "gemini-2.5-flash-lite"

// Invoker is the single generation call the generator drives. *Client
// satisfies it; tests substitute fakes.
type Invoker interface {
	Generate(ctx context.Context, model string, req Request) (string, error)
}

// Turn is one reply-generation request.
type Turn struct {
	Message   string
	Mode      string // "journal" or "rant"
	ImageMIME string
	ImageData []byte
	Memories  []Memory
}

// Generator produces the assistant reply for a turn. Generate is total:
// it never returns an error and never returns an empty string.
type Generator struct {
	invoker   Invoker
	resolver  *Resolver
	fallbacks []string
}

func NewGenerator(invoker Invoker, resolver *Resolver) *Generator {
	return &Generator{
		invoker:   invoker,
		resolver:  resolver,
		fallbacks: PreferredModels,
	}
}

// Generate tries the resolved model first, then walks the fallback list
// in order, stopping at the first non-empty reply. With an image
// attached, one last text-only attempt flags the image as unprocessable
// before giving up to the canned degraded reply.
func (g *Generator) Generate(ctx context.Context, turn Turn) string {
	req := Request{
		System: SystemInstruction(turn.Mode, turn.Memories),
		Text:   turn.Message,
	}
	hasImage := len(turn.ImageData) > 0 && strings.Contains(turn.ImageMIME, "image")
	if hasImage {
		req.ImageMIME = turn.ImageMIME
		req.ImageData = turn.ImageData
	}

	for _, model := range g.candidates(ctx) {
		text, err := g.invoker.Generate(ctx, model, req)
		if err != nil {
			log.Printf("DEBUG: Model error (%s, kind=%s): %v", model, KindOf(err), err)
			continue
		}
		if text != "" {
			return text
		}
	}

	if hasImage {
		retry := Request{
			System: req.System,
			Text:   turn.Message + " [Image attached but signal weak]",
		}
		text, err := g.invoker.Generate(ctx, imageFallbackModel, retry)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			log.Printf("Fallback error (%s): %v", imageFallbackModel, err)
		}
	}

	return DegradedReply
}

// candidates returns the resolved model followed by the fallback list,
// deduplicated, order preserved.
func (g *Generator) candidates(ctx context.Context) []string {
	out := make([]string, 0, len(g.fallbacks)+1)
	seen := make(map[string]bool, len(g.fallbacks)+1)

	add := func(model string) {
		if model != "" && !seen[model] {
			seen[model] = true
			out = append(out, model)
		}
	}

	if g.resolver != nil {
		add(g.resolver.Resolve(ctx))
	}
	for _, m := range g.fallbacks {
		add(m)
	}
	return out
}
