package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/verdana-eu/verdana-agent/internal/apperr"
)

// OllamaClient talks to a local Ollama server's /api/embeddings endpoint,
// grounded on fbrzx-airplane-chat's internal/embeddings/ollama.go.
// Ollama's embeddings endpoint accepts one prompt per request, so batching
// across multiple texts is handled by the caller (BatchingClient), not
// here.
type OllamaClient struct {
	host      string
	model     string
	dimension int
	maxTokens int
	client    *http.Client
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaClient constructs an Ollama-backed embedding client.
func NewOllamaClient(host, model string, dimension int, timeout time.Duration) *OllamaClient {
	return &OllamaClient{
		host:      strings.TrimRight(host, "/"),
		model:     model,
		dimension: dimension,
		maxTokens: 8192,
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *OllamaClient) Dimensions() int { return c.dimension }

func (c *OllamaClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, 0, len(texts))
	url := c.host + "/api/embeddings"

	for _, text := range texts {
		if estimateTokens(text) > c.maxTokens {
			return nil, apperr.New(apperr.KindEmbedding, fmt.Sprintf("input exceeds %d token limit", c.maxTokens), nil)
		}

		reqBody, err := json.Marshal(ollamaEmbedRequest{Model: c.model, Prompt: text})
		if err != nil {
			return nil, apperr.New(apperr.KindEmbedding, "marshal ollama request", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
		if err != nil {
			return nil, apperr.New(apperr.KindEmbedding, "create ollama request", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, apperr.New(apperr.KindEmbedding, "call ollama embeddings api", err)
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, apperr.New(apperr.KindEmbedding, fmt.Sprintf("ollama embeddings transient status %d", resp.StatusCode), nil)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, apperr.New(apperr.KindEmbedding, fmt.Sprintf("ollama embeddings status %d", resp.StatusCode), nil)
		}

		var payload ollamaEmbedResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			resp.Body.Close()
			return nil, apperr.New(apperr.KindEmbedding, "decode ollama response", err)
		}
		resp.Body.Close()

		vec := make([]float32, len(payload.Embedding))
		for i, v := range payload.Embedding {
			vec[i] = float32(v)
		}

		if c.dimension > 0 && len(vec) != c.dimension {
			return nil, apperr.New(apperr.KindEmbedding, fmt.Sprintf("dimension mismatch: expected %d, got %d", c.dimension, len(vec)), nil)
		}

		results = append(results, vec)
	}

	return results, nil
}

func estimateTokens(text string) int {
	return len(strings.Fields(text))
}
