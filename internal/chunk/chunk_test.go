package chunk_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdana-eu/verdana-agent/internal/chunk"
)

func TestChunkEmptyInput(t *testing.T) {
	got := chunk.Chunk("", chunk.DefaultChunkSize, chunk.DefaultOverlap)
	assert.Empty(t, got)

	got = chunk.Chunk("   \n\n  ", 800, 300)
	assert.Empty(t, got)
}

func TestChunkContiguousIndices(t *testing.T) {
	text := strings.Repeat("The CBAM mechanism applies to imports of cement, iron and steel. ", 400)
	chunks := chunk.Chunk(text, 200, 50)
	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestChunkAdjacentWindowsOverlap(t *testing.T) {
	text := strings.Repeat("Article 10a governs free allocation under the Emissions Trading System. ", 500)
	size, overlap := 300, 100

	chunks := chunk.Chunk(text, size, overlap)
	require.GreaterOrEqual(t, len(chunks), 2)

	for i := 0; i+1 < len(chunks); i++ {
		cur, next := chunks[i], chunks[i+1]
		if next.StartOffset >= cur.EndOffset {
			// Short final windows may have no overlap left to give; that's
			// only acceptable at the tail, never mid-sequence for this
			// repetitive fixture.
			assert.Equal(t, len(chunks)-2, i, "only the final pair may lack overlap")
			continue
		}
		overlapRunes := cur.EndOffset - next.StartOffset
		assert.Greater(t, overlapRunes, 0)
	}
}

func TestChunkOrderMatchesInput(t *testing.T) {
	text := "Paragraph one sentence one. Paragraph one sentence two.\n\nParagraph two sentence one. Paragraph two sentence two."
	chunks := chunk.Chunk(text, 1000, 10)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "Paragraph one")
	assert.Contains(t, chunks[0].Text, "Paragraph two")
}
