// Package retrieval fans out a query to the vector store and the web
// searcher concurrently, then merges, deduplicates, and ranks the results
// into one ordered evidence list. Each subtask runs in its own goroutine and
// recovers its own failure locally into the Degraded map rather than
// canceling the other two — plain goroutines and buffered channels, not
// errgroup.Group, since errgroup's first-error cancellation is exactly the
// behavior this package needs to avoid.
package retrieval

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/verdana-eu/verdana-agent/internal/embed"
	"github.com/verdana-eu/verdana-agent/internal/source"
	"github.com/verdana-eu/verdana-agent/internal/vectorstore"
	"github.com/verdana-eu/verdana-agent/internal/websearch"
)

// Named boost constants for the ranking pass.
const (
	kbHighSimilarityBoost     = 0.1
	kbHighSimilarityThreshold = 0.6
	euDomainBoost             = 0.05
)

// defaultDeadlineCeiling is used when New is given a non-positive deadline.
const defaultDeadlineCeiling = 15 * time.Second

// Store is the subset of vectorstore.Store the coordinator needs, so tests
// can substitute a fake.
type Store interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]vectorstore.Chunk, error)
}

// Searcher is the subset of websearch.Searcher the coordinator needs.
type Searcher interface {
	Search(ctx context.Context, query string, mode websearch.Mode, maxResults int) []source.Ref
}

// Result is the ranked, deduplicated evidence list plus which providers
// degraded, so the orchestrator can reflect that in metadata without
// failing the overall query.
type Result struct {
	Sources  []source.Ref
	Degraded map[string]string // provider name -> reason
}

// Coordinator implements retrieve(query, ...).
type Coordinator struct {
	embedder   embed.Client
	store      Store
	websearch  Searcher
	maxResults int
	deadline   time.Duration
}

// New constructs a Coordinator. maxResults bounds how many hits each web
// query requests before merging. deadline caps the whole three-way fan-out
// regardless of the caller's own context deadline (context.WithTimeout
// always resolves to the earlier of the two); a non-positive deadline falls
// back to defaultDeadlineCeiling.
func New(embedder embed.Client, store Store, searcher Searcher, maxResults int, deadline time.Duration) *Coordinator {
	if maxResults <= 0 {
		maxResults = 5
	}
	if deadline <= 0 {
		deadline = defaultDeadlineCeiling
	}
	return &Coordinator{embedder: embedder, store: store, websearch: searcher, maxResults: maxResults, deadline: deadline}
}

// Retrieve runs the three-way fan-out and returns ranked, deduplicated,
// top_k-truncated evidence.
func (c *Coordinator) Retrieve(ctx context.Context, query string, topK int, similarityThreshold float64) (Result, error) {
	if topK <= 0 {
		topK = 5
	}

	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	vectors, err := c.embedder.Embed(ctx, []string{query})
	if err != nil {
		// Without a query vector there is nothing to search in the vector
		// store; web results alone still have value, so degrade rather
		// than fail.
		res := c.retrieveWebOnly(ctx, query, map[string]string{"vector_store": err.Error()})
		if len(res.Sources) > topK {
			res.Sources = res.Sources[:topK]
		}
		return res, nil
	}

	type kbResult struct {
		chunks []vectorstore.Chunk
		err    error
	}
	type webResult struct {
		refs []source.Ref
	}

	kbCh := make(chan kbResult, 1)
	euCh := make(chan webResult, 1)
	broadCh := make(chan webResult, 1)

	go func() {
		chunks, err := c.store.Search(ctx, vectors[0], topK*2)
		kbCh <- kbResult{chunks: chunks, err: err}
	}()
	go func() {
		refs := c.websearch.Search(ctx, query, websearch.ModeEURestricted, c.maxResults)
		euCh <- webResult{refs: refs}
	}()
	go func() {
		refs := c.websearch.Search(ctx, query, websearch.ModeBroad, c.maxResults)
		broadCh <- webResult{refs: refs}
	}()

	kb := <-kbCh
	eu := <-euCh
	broad := <-broadCh

	degraded := map[string]string{}
	var all []source.Ref
	var kbRefs []source.Ref

	if kb.err != nil {
		degraded["vector_store"] = kb.err.Error()
	} else {
		for _, chunk := range kb.chunks {
			if chunk.Similarity < similarityThreshold {
				continue
			}
			ref := source.FromKnowledgeBase(chunk.Title, chunk.DocumentID, chunk.ChunkIndex, chunk.Similarity)
			if chunk.Filename != "" {
				ref = ref.WithFilename(chunk.Filename)
			}
			kbRefs = append(kbRefs, ref)
		}
		all = append(all, kbRefs...)
	}
	if len(eu.refs) == 0 {
		degraded["web_eu_restricted"] = "no results"
	}
	if len(broad.refs) == 0 {
		degraded["web_broad"] = "no results"
	}
	all = append(all, eu.refs...)
	all = append(all, broad.refs...)
	all = append(all, corroborate(kbRefs, eu.refs)...)

	deduped := dedupe(all)
	ranked := rank(deduped)

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	return Result{Sources: ranked, Degraded: degraded}, nil
}

func (c *Coordinator) retrieveWebOnly(ctx context.Context, query string, degraded map[string]string) Result {
	eu := c.websearch.Search(ctx, query, websearch.ModeEURestricted, c.maxResults)
	broad := c.websearch.Search(ctx, query, websearch.ModeBroad, c.maxResults)

	if len(eu) == 0 {
		degraded["web_eu_restricted"] = "no results"
	}
	if len(broad) == 0 {
		degraded["web_broad"] = "no results"
	}

	all := append(append([]source.Ref{}, eu...), broad...)
	return Result{Sources: rank(dedupe(all)), Degraded: degraded}
}

// corroborate marks knowledge_base hits independently confirmed by an
// EU-restricted web hit on the same topic, emitting a verification-type
// ref alongside the original rather than overloading the knowledge_base
// ref's own Similarity field with a second, unrelated signal.
func corroborate(kbRefs, euRefs []source.Ref) []source.Ref {
	var out []source.Ref
	for _, kb := range kbRefs {
		for _, eu := range euRefs {
			if !titlesOverlap(kb.Title, eu.Title) {
				continue
			}
			ref := source.FromVerification(kb.Title, "", true)
			if eu.URL != nil {
				ref = ref.WithURL(*eu.URL)
			}
			out = append(out, ref.WithScore(kb.EffectiveScore()))
			break
		}
	}
	return out
}

// titlesOverlap reports whether two titles share at least two words longer
// than 4 characters, a cheap proxy for "about the same policy topic" that
// needs no extra dependency beyond what C6/C7 already import.
func titlesOverlap(a, b string) bool {
	bWords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(b)) {
		if len(w) > 4 {
			bWords[w] = struct{}{}
		}
	}

	matches := 0
	for _, w := range strings.Fields(strings.ToLower(a)) {
		if len(w) <= 4 {
			continue
		}
		if _, ok := bWords[w]; ok {
			matches++
		}
	}
	return matches >= 2
}

// rank applies the configured boosts and sorts descending by effective
// score, breaking ties by title for determinism.
func rank(refs []source.Ref) []source.Ref {
	out := make([]source.Ref, len(refs))
	for i, r := range refs {
		score := r.EffectiveScore()
		switch r.Type {
		case source.TypeKnowledgeBase:
			if score > kbHighSimilarityThreshold {
				score += kbHighSimilarityBoost
			}
		case source.TypeWebVerification:
			score += euDomainBoost
		}
		out[i] = r.WithScore(score)
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].EffectiveScore(), out[j].EffectiveScore()
		if si != sj {
			return si > sj
		}
		return out[i].Title < out[j].Title
	})

	return out
}
