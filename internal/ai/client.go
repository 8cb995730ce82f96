package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// EmbeddingModel is the fixed embedding model; vectors in the history
// collection are tied to its dimensionality, so changing it means
// re-embedding everything.
const EmbeddingModel = "text-embedding-004"

const (
	catalogTimeout  = 15 * time.Second
	generateTimeout = 45 * time.Second
	embedTimeout    = 15 * time.Second
)

// ErrorKind classifies a provider failure so callers can decide how to
// degrade instead of swallowing everything in one catch-all.
type ErrorKind int

const (
	// KindNetwork covers transport errors, timeouts and 5xx responses.
	KindNetwork ErrorKind = iota
	// KindAuthOrQuota covers rejected credentials and exhausted quota.
	KindAuthOrQuota
	// KindEmpty means the call succeeded but produced no usable content.
	KindEmpty
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthOrQuota:
		return "auth_or_quota"
	case KindEmpty:
		return "empty"
	default:
		return "network"
	}
}

// CallError is the structured failure surfaced by every provider call.
type CallError struct {
	Kind ErrorKind
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("gemini %s error: %v", e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from an error chain, defaulting to
// KindNetwork for anything unclassified.
func KindOf(err error) ErrorKind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindNetwork
}

func classify(err error) *CallError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403, 429:
			return &CallError{Kind: KindAuthOrQuota, Err: err}
		}
	}
	return &CallError{Kind: KindNetwork, Err: err}
}

// Request is one generation call: prompt text, optional system
// instruction, optional inline image.
type Request struct {
	System    string
	Text      string
	ImageMIME string
	ImageData []byte
}

// Memory is a retrieved past entry rendered into the system instruction.
type Memory struct {
	Date    string  `json:"date"`
	Message string  `json:"message"`
	Score   float64 `json:"score"`
}

// Client wraps the Gemini SDK behind the three capabilities the app
// consumes: catalog listing, content generation and text embedding.
type Client struct {
	client *genai.Client
}

// NewClient creates a Gemini client from an API key.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{client: client}, nil
}

// ListGenerativeModels returns the ids of all catalog models that
// support content generation, without the "models/" prefix.
func (c *Client) ListGenerativeModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	var names []string
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, classify(err)
		}
		if m == nil || !supportsGeneration(m) {
			continue
		}
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	if len(names) == 0 {
		return nil, &CallError{Kind: KindEmpty, Err: errors.New("catalog returned no generation-capable models")}
	}
	return names, nil
}

func supportsGeneration(m *genai.Model) bool {
	for _, action := range m.SupportedActions {
		if action == "generateContent" {
			return true
		}
	}
	return false
}

// Generate runs one generation call against the given model. An empty
// response body is reported as a KindEmpty CallError so the fallback
// loop treats it like any other failure.
func (c *Client) Generate(ctx context.Context, model string, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	parts := []*genai.Part{genai.NewPartFromText(req.Text)}
	if len(req.ImageData) > 0 && req.ImageMIME != "" {
		parts = append(parts, genai.NewPartFromBytes(req.ImageData, req.ImageMIME))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	var cfg *genai.GenerateContentConfig
	if req.System != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", classify(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &CallError{Kind: KindEmpty, Err: errors.New("empty response body")}
	}
	return text, nil
}

// Embedding task types as the API spells them. Documents and queries
// must use their matching type or similarity scores drift.
const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// EmbedDocument embeds journal text for storage in the vector index.
func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, taskRetrievalDocument)
}

// EmbedQuery embeds a lookup query for similarity search.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, taskRetrievalQuery)
}

func (c *Client) embed(ctx context.Context, text, task string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}
	result, err := c.client.Models.EmbedContent(ctx, EmbeddingModel, contents, &genai.EmbedContentConfig{
		TaskType: task,
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, &CallError{Kind: KindEmpty, Err: errors.New("no embeddings returned")}
	}
	return result.Embeddings[0].Values, nil
}
