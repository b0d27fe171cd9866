// Package classify assigns each incoming query a QueryClass so the agent
// orchestrator can branch between templated small-talk replies and full
// retrieval-backed answers. It tries a cheap pattern match first and falls
// back to an LLM prompt, caching results in an LRU keyed by normalized
// query text — grounded on Aman-CERP's
// HybridClassifier/LLMClassifier/PatternClassifier split.
package classify

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// QueryClass is the tagged variant describing how a query should be handled.
type QueryClass string

const (
	ClassSmallTalk QueryClass = "small_talk"
	ClassIdentity  QueryClass = "identity"
	ClassPolicy    QueryClass = "policy"
	ClassMeta      QueryClass = "meta"
)

// Classifier assigns a QueryClass to a query. On failure, the orchestrator
// falls through to ClassPolicy, the safer branch; classifiers themselves
// should prefer returning an error over guessing wrong.
type Classifier interface {
	Classify(ctx context.Context, query string, history []string) (QueryClass, error)
}

const defaultCacheSize = 10000

// HybridClassifier tries a rule-based pattern match first (cheap, fast)
// and falls back to an LLM prompt when the patterns don't recognize the
// query. Results cache by normalized query text.
type HybridClassifier struct {
	llm      *LLMClassifier // nil disables the fallback
	patterns *PatternClassifier
	cache    *lru.Cache[string, QueryClass]
}

// NewHybridClassifier builds a classifier with an optional LLM fallback. A
// nil llm means pattern-only classification.
func NewHybridClassifier(llm *LLMClassifier, cacheSize int) *HybridClassifier {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, QueryClass](cacheSize)
	if err != nil {
		panic(err)
	}
	return &HybridClassifier{llm: llm, patterns: NewPatternClassifier(), cache: cache}
}

func (h *HybridClassifier) Classify(ctx context.Context, query string, history []string) (QueryClass, error) {
	key := normalize(query)
	if key == "" {
		return ClassPolicy, nil
	}

	if cached, ok := h.cache.Get(key); ok {
		return cached, nil
	}

	if class, ok := h.patterns.classifyRule(query); ok {
		h.cache.Add(key, class)
		return class, nil
	}

	if h.llm != nil {
		class, err := h.llm.Classify(ctx, query, history)
		if err == nil {
			h.cache.Add(key, class)
			return class, nil
		}
	}

	// Neither rules nor LLM resolved it: fall through to the safer branch,
	// uncached so a transient LLM failure doesn't poison future lookups.
	return ClassPolicy, nil
}

func normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
