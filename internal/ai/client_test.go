package ai

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestEmbeddingTaskTypes(t *testing.T) {
	// The API takes these as plain strings; a typo here silently
	// degrades retrieval quality, so pin the exact spellings.
	assert.Equal(t, "RETRIEVAL_DOCUMENT", taskRetrievalDocument)
	assert.Equal(t, "RETRIEVAL_QUERY", taskRetrievalQuery)
	assert.Equal(t, "text-embedding-004", EmbeddingModel)
}

func TestClassifyAuthAndQuotaCodes(t *testing.T) {
	for _, code := range []int{401, 403, 429} {
		ce := classify(genai.APIError{Code: code, Message: "rejected"})
		assert.Equal(t, KindAuthOrQuota, ce.Kind, "code %d", code)
	}
}

func TestClassifyServerErrorsAreNetwork(t *testing.T) {
	ce := classify(genai.APIError{Code: 500, Message: "internal"})
	assert.Equal(t, KindNetwork, ce.Kind)

	ce = classify(errors.New("dial tcp: connection refused"))
	assert.Equal(t, KindNetwork, ce.Kind)
}

func TestClassifyWrappedAPIError(t *testing.T) {
	wrapped := fmt.Errorf("embed call: %w", genai.APIError{Code: 429})
	assert.Equal(t, KindAuthOrQuota, classify(wrapped).Kind)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindAuthOrQuota, KindOf(&CallError{Kind: KindAuthOrQuota}))
	assert.Equal(t, KindEmpty, KindOf(fmt.Errorf("outer: %w", &CallError{Kind: KindEmpty})))
	assert.Equal(t, KindNetwork, KindOf(errors.New("plain")))
}
