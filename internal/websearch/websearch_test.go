package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdana-eu/verdana-agent/internal/source"
)

func TestSearchReturnsRankedRefs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "EU CBAM Overview", "url": "https://taxation-customs.ec.europa.eu/cbam"},
				{"title": "CBAM Guidance", "url": "https://example.org/cbam"},
			},
		})
	}))
	defer srv.Close()

	searcher := New(srv.URL, 2*time.Second, 2, nil)
	refs := searcher.Search(context.Background(), "CBAM", ModeBroad, 5)

	require.Len(t, refs, 2)
	assert.Equal(t, source.TypeWebSearch, refs[0].Type)
	assert.Greater(t, refs[0].EffectiveScore(), refs[1].EffectiveScore())
}

func TestSearchDegradesOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	searcher := New(srv.URL, 500*time.Millisecond, 2, nil)
	refs := searcher.Search(context.Background(), "CBAM", ModeBroad, 5)

	assert.Empty(t, refs, "a persistently failing search must degrade to empty, not panic or error the caller")
}

func TestSearchEURestrictedAppliesDomainFilter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []map[string]string{}})
	}))
	defer srv.Close()

	searcher := New(srv.URL, 2*time.Second, 2, []string{"europa.eu"})
	searcher.Search(context.Background(), "CBAM", ModeEURestricted, 5)

	assert.Contains(t, gotQuery, "site:europa.eu")
}
