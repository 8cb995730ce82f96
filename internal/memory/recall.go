package memory

import (
	"context"
	"log"
	"strings"

	"github.com/markolybrx/Celi-AI/internal/ai"
)

const (
	// Queries below this length are not worth an embedding round trip.
	minQueryLength = 5
	// Over-fetch so the score filter still leaves enough results.
	searchCandidates = 50
	searchLimit      = 3
	// Minimum cosine-style relevance for a memory to surface.
	minScore = 0.65
)

// EmbedFunc converts a query string to a vector.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Searcher runs a nearest-neighbour lookup scoped to one user.
type Searcher interface {
	VectorSearch(ctx context.Context, userID string, vector []float32, numCandidates, limit int) ([]ai.Memory, error)
}

// Recall retrieves semantically similar past entries. Find never fails:
// any upstream error degrades to an empty result so reply generation is
// never blocked by the memory path.
type Recall struct {
	embed  EmbedFunc
	search Searcher
}

func NewRecall(embed EmbedFunc, search Searcher) *Recall {
	return &Recall{embed: embed, search: search}
}

// Find returns at most 3 memories above the relevance threshold, most
// similar first. Short queries, embedding failures and search failures
// all return an empty slice.
func (r *Recall) Find(ctx context.Context, userID, query string) []ai.Memory {
	query = strings.TrimSpace(query)
	if len(query) < minQueryLength || r.embed == nil || r.search == nil {
		return nil
	}

	vector, err := r.embed(ctx, query)
	if err != nil || len(vector) == 0 {
		if err != nil {
			log.Printf("Embedding error: %v", err)
		}
		return nil
	}

	results, err := r.search.VectorSearch(ctx, userID, vector, searchCandidates, searchLimit)
	if err != nil {
		log.Printf("Vector search error: %v", err)
		return nil
	}

	memories := make([]ai.Memory, 0, len(results))
	for _, m := range results {
		if m.Score > minScore {
			memories = append(memories, m)
		}
	}
	return memories
}
