package embed

import "context"

// BatchingClient splits a large Embed call into fixed-size sub-batches
// against an inner Client, preserving input order in the result. Every
// provider benefits from this: Ollama because each request only carries one
// text anyway, and OpenAI-compatible providers because very large corpora
// still want a request-size cap.
type BatchingClient struct {
	inner     Client
	batchSize int
}

const defaultBatchSize = 64

// NewBatchingClient wraps inner so every Embed call is split into batches of
// at most batchSize texts. A non-positive batchSize falls back to the
// default.
func NewBatchingClient(inner Client, batchSize int) *BatchingClient {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &BatchingClient{inner: inner, batchSize: batchSize}
}

func (c *BatchingClient) Dimensions() int { return c.inner.Dimensions() }

func (c *BatchingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) <= c.batchSize {
		return c.inner.Embed(ctx, texts)
	}

	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.inner.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}
