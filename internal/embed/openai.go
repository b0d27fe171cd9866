package embed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/verdana-eu/verdana-agent/internal/apperr"
)

// OpenAICompatClient talks to any OpenAI-embeddings-compatible endpoint via
// the official SDK, grounded on the pack's internal/llm/openai client
// construction idiom (manifold). Unlike Ollama, this endpoint natively
// batches: one request carries the whole input slice.
type OpenAICompatClient struct {
	sdk       openai.Client
	model     string
	dimension int
	maxTokens int
}

// NewOpenAICompatClient constructs a client against baseURL (empty means
// the default OpenAI endpoint) using apiKey for bearer auth. timeout bounds
// every request's underlying HTTP client, grounded on manifold's
// internal/llm/openai client construction (option.WithHTTPClient) — without
// it a hung call on this provider would block indefinitely, since the SDK
// sets no timeout of its own.
func NewOpenAICompatClient(baseURL, apiKey, model string, dimension int, timeout time.Duration) *OpenAICompatClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithHTTPClient(&http.Client{Timeout: timeout})}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAICompatClient{
		sdk:       openai.NewClient(opts...),
		model:     model,
		dimension: dimension,
		maxTokens: 8192,
	}
}

func (c *OpenAICompatClient) Dimensions() int { return c.dimension }

func (c *OpenAICompatClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, t := range texts {
		if estimateTokens(t) > c.maxTokens {
			return nil, apperr.New(apperr.KindEmbedding, fmt.Sprintf("input exceeds %d token limit", c.maxTokens), nil)
		}
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	}

	resp, err := c.sdk.Embeddings.New(ctx, params)
	if err != nil {
		return nil, apperr.New(apperr.KindEmbedding, "call openai embeddings api", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, apperr.New(apperr.KindEmbedding, fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)), nil)
	}

	results := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		if c.dimension > 0 && len(vec) != c.dimension {
			return nil, apperr.New(apperr.KindEmbedding, fmt.Sprintf("dimension mismatch: expected %d, got %d", c.dimension, len(vec)), nil)
		}
		results[d.Index] = vec
	}

	return results, nil
}
