// Package embed computes embedding vectors for text via a remote provider.
// Client is order-preserving: Embed(texts) returns one vector per input
// text in the same order. Implementations never silently truncate an
// oversize input — that is always the caller's error, surfaced as
// apperr.KindEmbedding.
package embed

import "context"

// Client is the provider-facing embedding interface. Every concrete
// provider and every decorator (batching, retry, caching) implements it,
// so they compose transparently.
type Client interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}
