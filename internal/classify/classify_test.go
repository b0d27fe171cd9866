package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdana-eu/verdana-agent/internal/llmclient"
)

func TestPatternClassifierRules(t *testing.T) {
	p := NewPatternClassifier()

	tests := []struct {
		name  string
		query string
		want  QueryClass
		ok    bool
	}{
		{"greeting", "Hello!", ClassSmallTalk, true},
		{"thanks", "Thank you", ClassSmallTalk, true},
		{"identity", "who are you?", ClassIdentity, true},
		{"meta", "what documents do you have?", ClassMeta, true},
		{"policy noun", "CBAM", ClassPolicy, true},
		{"ambiguous", "how does the carbon border adjustment mechanism affect steel importers in poland", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, ok := p.classifyRule(tt.query)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, class)
			}
		})
	}
}

type stubLLM struct {
	response string
	err      error
}

func (s stubLLM) Complete(ctx context.Context, messages []llmclient.Message, opts llmclient.Options) (string, error) {
	return s.response, s.err
}

func TestHybridClassifierUsesPatternsFirst(t *testing.T) {
	hc := NewHybridClassifier(NewLLMClassifier(stubLLM{response: "META"}), 10)

	class, err := hc.Classify(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, ClassSmallTalk, class)
}

func TestHybridClassifierFallsBackToLLM(t *testing.T) {
	hc := NewHybridClassifier(NewLLMClassifier(stubLLM{response: "POLICY"}), 10)

	class, err := hc.Classify(context.Background(), "how does the carbon border adjustment mechanism affect steel importers", nil)
	require.NoError(t, err)
	assert.Equal(t, ClassPolicy, class)
}

func TestHybridClassifierCachesResult(t *testing.T) {
	calls := 0
	countingLLM := &countingClassifier{responses: []string{"IDENTITY"}, calls: &calls}
	hc := NewHybridClassifier(NewLLMClassifier(countingLLM), 10)

	query := "tell me something ambiguous about carbon leakage provisions"
	_, err := hc.Classify(context.Background(), query, nil)
	require.NoError(t, err)
	_, err = hc.Classify(context.Background(), query, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second call should hit the cache, not the LLM")
}

type countingClassifier struct {
	responses []string
	calls     *int
}

func (c *countingClassifier) Complete(ctx context.Context, messages []llmclient.Message, opts llmclient.Options) (string, error) {
	*c.calls++
	return c.responses[0], nil
}

func TestHybridClassifierFallsThroughToPolicyOnLLMFailure(t *testing.T) {
	hc := NewHybridClassifier(NewLLMClassifier(stubLLM{err: assertErr{}}), 10)

	class, err := hc.Classify(context.Background(), "some unrecognized freeform question about allowances", nil)
	require.NoError(t, err)
	assert.Equal(t, ClassPolicy, class)
}

type assertErr struct{}

func (assertErr) Error() string { return "llm unavailable" }
