package memory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdana-eu/verdana-agent/internal/memory"
)

func TestAppendAndHistoryOrder(t *testing.T) {
	store := memory.NewStore(10, 5)

	store.Append("s1", memory.Turn{Role: "user", Content: "what is CBAM?"})
	store.Append("s1", memory.Turn{Role: "assistant", Content: "CBAM is..."})

	history := store.History("s1")
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)
}

func TestHistoryTrimsToLength(t *testing.T) {
	store := memory.NewStore(10, 3)
	for i := 0; i < 5; i++ {
		store.Append("s1", memory.Turn{Role: "user", Content: "turn"})
	}
	assert.Len(t, store.History("s1"), 3)
}

func TestLanguagePinIsWriteOnce(t *testing.T) {
	store := memory.NewStore(10, 5)

	_, pinned := store.Language("s1")
	assert.False(t, pinned)

	got := store.PinLanguage("s1", "fr")
	assert.Equal(t, "fr", got)

	got = store.PinLanguage("s1", "de")
	assert.Equal(t, "fr", got, "second pin attempt must not override the first")

	code, pinned := store.Language("s1")
	assert.True(t, pinned)
	assert.Equal(t, "fr", code)
}

func TestResetClearsLanguageNotHistory(t *testing.T) {
	store := memory.NewStore(10, 5)
	store.PinLanguage("s1", "nl")
	store.Append("s1", memory.Turn{Role: "user", Content: "hallo"})

	store.Reset("s1")

	_, pinned := store.Language("s1")
	assert.False(t, pinned)
	assert.Len(t, store.History("s1"), 1)
}

func TestSessionsAreIsolated(t *testing.T) {
	store := memory.NewStore(10, 5)
	store.Append("a", memory.Turn{Role: "user", Content: "hi"})
	assert.Empty(t, store.History("b"))
}
