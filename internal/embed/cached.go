package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedClient wraps an inner Client with an LRU cache keyed by the exact
// text content. This decorator is applied only to the retrieval-time
// query-embedding path; ingestion always embeds through the uncached
// inner client, since chunk text is unique per document and a cache there
// would never hit.
type CachedClient struct {
	inner Client
	cache *lru.Cache[string, []float32]
}

const defaultEmbeddingCacheSize = 2048

// NewCachedClient wraps inner with an LRU cache holding up to size entries.
// A non-positive size falls back to the default.
func NewCachedClient(inner Client, size int) *CachedClient {
	if size <= 0 {
		size = defaultEmbeddingCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		// size is always > 0 here, so lru.New cannot fail in practice.
		panic(err)
	}
	return &CachedClient{inner: inner, cache: cache}
}

func (c *CachedClient) Dimensions() int { return c.inner.Dimensions() }

func (c *CachedClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))
	keys := make([]string, len(texts))

	for i, text := range texts {
		key := cacheKey(text)
		keys[i] = key
		if vec, ok := c.cache.Get(key); ok {
			results[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	computed, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for n, idx := range missIdx {
		results[idx] = computed[n]
		c.cache.Add(keys[idx], computed[n])
	}

	return results, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
