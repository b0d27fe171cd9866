package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdana-eu/verdana-agent/internal/apperr"
	"github.com/verdana-eu/verdana-agent/internal/source"
	"github.com/verdana-eu/verdana-agent/internal/vectorstore"
	"github.com/verdana-eu/verdana-agent/internal/websearch"
)

type fakeEmbedder struct {
	vec [][]float32
	err error
}

func (f fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return f.vec, f.err
}
func (f fakeEmbedder) Dimensions() int { return 3 }

type fakeStore struct {
	chunks []vectorstore.Chunk
	err    error
}

func (f fakeStore) Search(ctx context.Context, embedding []float32, topK int) ([]vectorstore.Chunk, error) {
	return f.chunks, f.err
}

type fakeSearcher struct {
	eu    []source.Ref
	broad []source.Ref
}

func (f fakeSearcher) Search(ctx context.Context, query string, mode websearch.Mode, maxResults int) []source.Ref {
	if mode == websearch.ModeEURestricted {
		return f.eu
	}
	return f.broad
}

func TestRetrieveMergesAndRanks(t *testing.T) {
	coord := New(
		fakeEmbedder{vec: [][]float32{{0.1, 0.2, 0.3}}},
		fakeStore{chunks: []vectorstore.Chunk{
			{DocumentID: "doc-1", Title: "CBAM Regulation", ChunkIndex: 0, Similarity: 0.7},
		}},
		fakeSearcher{
			eu:    []source.Ref{source.FromWebVerification("EU CBAM page", "https://europa.eu/cbam", 0.5)},
			broad: []source.Ref{source.FromWebSearch("Blog about CBAM", "https://example.com/cbam", 0.4)},
		},
		5,
		time.Minute,
	)

	result, err := coord.Retrieve(context.Background(), "what is CBAM", 5, 0.3)
	require.NoError(t, err)
	require.Len(t, result.Sources, 3)

	// kb chunk similarity 0.7 > 0.6 threshold gets +0.1 boost -> 0.8, highest.
	assert.Equal(t, source.TypeKnowledgeBase, result.Sources[0].Type)
	assert.InDelta(t, 0.8, result.Sources[0].EffectiveScore(), 0.001)
}

func TestRetrieveFiltersBelowThreshold(t *testing.T) {
	coord := New(
		fakeEmbedder{vec: [][]float32{{0.1, 0.2, 0.3}}},
		fakeStore{chunks: []vectorstore.Chunk{
			{DocumentID: "doc-1", Title: "Low match", ChunkIndex: 0, Similarity: 0.1},
		}},
		fakeSearcher{},
		5,
		time.Minute,
	)

	result, err := coord.Retrieve(context.Background(), "q", 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, result.Sources)
}

func TestRetrieveDegradesOnVectorStoreError(t *testing.T) {
	coord := New(
		fakeEmbedder{vec: [][]float32{{0.1, 0.2, 0.3}}},
		fakeStore{err: apperr.New(apperr.KindVectorStore, "connection refused", nil)},
		fakeSearcher{
			broad: []source.Ref{source.FromWebSearch("Some result", "https://example.com/x", 0.6)},
		},
		5,
		time.Minute,
	)

	result, err := coord.Retrieve(context.Background(), "q", 5, 0.3)
	require.NoError(t, err)
	assert.Contains(t, result.Degraded, "vector_store")
	assert.Len(t, result.Sources, 1)
}

func TestRetrieveDedupesAcrossProviders(t *testing.T) {
	coord := New(
		fakeEmbedder{vec: [][]float32{{0.1, 0.2, 0.3}}},
		fakeStore{},
		fakeSearcher{
			eu:    []source.Ref{source.FromWebVerification("Same page", "https://europa.eu/x/", 0.5)},
			broad: []source.Ref{source.FromWebSearch("Same page dup", "https://europa.eu/x", 0.4)},
		},
		5,
		time.Minute,
	)

	result, err := coord.Retrieve(context.Background(), "q", 5, 0.3)
	require.NoError(t, err)
	assert.Len(t, result.Sources, 1)
}

func TestRetrieveEmitsVerificationRefOnTitleOverlap(t *testing.T) {
	coord := New(
		fakeEmbedder{vec: [][]float32{{0.1, 0.2, 0.3}}},
		fakeStore{chunks: []vectorstore.Chunk{
			{DocumentID: "doc-1", Title: "Carbon Border Adjustment Mechanism", ChunkIndex: 0, Similarity: 0.7},
		}},
		fakeSearcher{
			eu: []source.Ref{source.FromWebVerification("Carbon Border Adjustment overview", "https://europa.eu/cbam-overview", 0.5)},
		},
		5,
		time.Minute,
	)

	result, err := coord.Retrieve(context.Background(), "what is the carbon border adjustment mechanism", 5, 0.3)
	require.NoError(t, err)

	var verification *source.Ref
	for i := range result.Sources {
		if result.Sources[i].Type == source.TypeVerification {
			verification = &result.Sources[i]
		}
	}
	require.NotNil(t, verification, "expected a verification ref corroborating the knowledge_base hit")
	require.NotNil(t, verification.Verified)
	assert.True(t, *verification.Verified)
	require.NotNil(t, verification.URL)
	assert.Equal(t, "https://europa.eu/cbam-overview", *verification.URL)
}

func TestRetrieveEmptyWhenEverythingFails(t *testing.T) {
	coord := New(
		fakeEmbedder{vec: [][]float32{{0.1, 0.2, 0.3}}},
		fakeStore{err: apperr.New(apperr.KindVectorStore, "down", nil)},
		fakeSearcher{},
		5,
		time.Minute,
	)

	result, err := coord.Retrieve(context.Background(), "q", 5, 0.3)
	require.NoError(t, err)
	assert.Empty(t, result.Sources)
	assert.Len(t, result.Degraded, 3)
}
