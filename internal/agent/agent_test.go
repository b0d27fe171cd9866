package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdana-eu/verdana-agent/internal/classify"
	"github.com/verdana-eu/verdana-agent/internal/llmclient"
	"github.com/verdana-eu/verdana-agent/internal/memory"
	"github.com/verdana-eu/verdana-agent/internal/retrieval"
	"github.com/verdana-eu/verdana-agent/internal/source"
	"github.com/verdana-eu/verdana-agent/internal/vectorstore"
	"github.com/verdana-eu/verdana-agent/internal/websearch"
)

// stubClassifier always returns a fixed class.
type stubClassifier struct {
	class classify.QueryClass
	err   error
}

func (c stubClassifier) Classify(ctx context.Context, query string, history []string) (classify.QueryClass, error) {
	return c.class, c.err
}

// stubEmbedder returns a fixed vector, or an error to exercise the
// embed-failure degraded path.
type stubEmbedder struct {
	err error
}

func (e stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (e stubEmbedder) Dimensions() int { return 3 }

// stubStore returns fixed knowledge-base chunks, or an error to exercise
// the vector-store-degraded path.
type stubStore struct {
	chunks []vectorstore.Chunk
	err    error
}

func (s stubStore) Search(ctx context.Context, embedding []float32, topK int) ([]vectorstore.Chunk, error) {
	return s.chunks, s.err
}

// stubSearcher returns fixed web results regardless of mode.
type stubSearcher struct {
	refs []source.Ref
}

func (s stubSearcher) Search(ctx context.Context, query string, mode websearch.Mode, maxResults int) []source.Ref {
	return s.refs
}

// stubLLM returns a fixed completion, or an error to exercise the
// llm-unavailable branch.
type stubLLM struct {
	text string
	err  error
}

func (l stubLLM) Complete(ctx context.Context, messages []llmclient.Message, opts llmclient.Options) (string, error) {
	return l.text, l.err
}

func newTestOrchestrator(classifier classify.Classifier, coordinator *retrieval.Coordinator, llm llmclient.Client, stats func(ctx context.Context) (CorpusStats, error)) *Orchestrator {
	mem := memory.NewStore(10, 20)
	return New(mem, classifier, coordinator, llm, stats, Config{
		SupportedLanguages: []string{"en", "fr", "de", "nl"},
		FallbackLanguage:   "en",
		TopK:               5,
	})
}

// S1: small-talk never touches retrieval or the LLM.
func TestHandleSmallTalkSkipsRetrievalAndLLM(t *testing.T) {
	coordinator := retrieval.New(stubEmbedder{}, stubStore{}, stubSearcher{}, 5, 0)
	llm := stubLLM{err: errors.New("should never be called")}
	o := newTestOrchestrator(stubClassifier{class: classify.ClassSmallTalk}, coordinator, llm, nil)

	resp, err := o.Handle(context.Background(), "s1", "hello there")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Metadata.Status)
	assert.Equal(t, classify.ClassSmallTalk, resp.Metadata.QueryClass)
	assert.Empty(t, resp.Sources)
	assert.NotEmpty(t, resp.Text)
}

// S2: identity question gets the fixed identity reply.
func TestHandleIdentityReturnsFixedReply(t *testing.T) {
	coordinator := retrieval.New(stubEmbedder{}, stubStore{}, stubSearcher{}, 5, 0)
	o := newTestOrchestrator(stubClassifier{class: classify.ClassIdentity}, coordinator, stubLLM{}, nil)

	resp, err := o.Handle(context.Background(), "s2", "who are you?")
	require.NoError(t, err)
	assert.Equal(t, classify.ClassIdentity, resp.Metadata.QueryClass)
	assert.Contains(t, resp.Text, "Verdana")
}

// S3: meta question reports corpus stats from the injected stats func.
func TestHandleMetaReportsCorpusStats(t *testing.T) {
	coordinator := retrieval.New(stubEmbedder{}, stubStore{}, stubSearcher{}, 5, 0)
	stats := func(ctx context.Context) (CorpusStats, error) {
		return CorpusStats{DocumentCount: 42, ChunkCount: 999}, nil
	}
	o := newTestOrchestrator(stubClassifier{class: classify.ClassMeta}, coordinator, stubLLM{}, stats)

	resp, err := o.Handle(context.Background(), "s3", "what do you know about?")
	require.NoError(t, err)
	assert.Equal(t, classify.ClassMeta, resp.Metadata.QueryClass)
	assert.Contains(t, resp.Text, "42")
	assert.Contains(t, resp.Text, "999")
}

// S4: a policy question with evidence and a working LLM returns a grounded,
// citation-verified answer with sources attached.
func TestHandlePolicyReturnsGroundedAnswer(t *testing.T) {
	chunks := []vectorstore.Chunk{
		{DocumentID: "d1", Title: "CBAM Regulation", ChunkIndex: 0, Content: "CBAM applies to imports of cement, iron, steel...", Similarity: 0.75},
	}
	coordinator := retrieval.New(stubEmbedder{}, stubStore{chunks: chunks}, stubSearcher{}, 5, 0)
	llm := stubLLM{text: "CBAM covers cement and steel imports [1]. It does not cover [7] unrelated goods."}
	o := newTestOrchestrator(stubClassifier{class: classify.ClassPolicy}, coordinator, llm, nil)

	resp, err := o.Handle(context.Background(), "s4", "what does CBAM cover?")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Metadata.Status)
	assert.NotEmpty(t, resp.Sources)
	assert.Contains(t, resp.Text, "[1]")
	assert.NotContains(t, resp.Text, "[7]", "citation referencing an out-of-range index must be stripped")
}

// S5: no evidence from any provider falls back to the insufficient-evidence
// template without calling the LLM.
func TestHandlePolicyNoEvidenceFallsBackToTemplate(t *testing.T) {
	coordinator := retrieval.New(stubEmbedder{}, stubStore{}, stubSearcher{}, 5, 0)
	llm := stubLLM{err: errors.New("should never be called")}
	o := newTestOrchestrator(stubClassifier{class: classify.ClassPolicy}, coordinator, llm, nil)

	resp, err := o.Handle(context.Background(), "s5", "some obscure question nobody has evidence for")
	require.NoError(t, err)
	assert.Equal(t, StatusNoEvidence, resp.Metadata.Status)
	assert.Empty(t, resp.Sources)
}

// S6: evidence exists but the LLM is unavailable; the response still carries
// the gathered sources with a degraded status rather than failing outright.
func TestHandlePolicyLLMUnavailableStillReturnsSources(t *testing.T) {
	chunks := []vectorstore.Chunk{
		{DocumentID: "d1", Title: "ETS Directive", ChunkIndex: 0, Content: "The ETS covers power and industrial installations.", Similarity: 0.8},
	}
	coordinator := retrieval.New(stubEmbedder{}, stubStore{chunks: chunks}, stubSearcher{}, 5, 0)
	llm := stubLLM{err: errors.New("model host unreachable")}
	o := newTestOrchestrator(stubClassifier{class: classify.ClassPolicy}, coordinator, llm, nil)

	resp, err := o.Handle(context.Background(), "s6", "what does the ETS cover?")
	require.NoError(t, err)
	assert.Equal(t, StatusLLMUnavailable, resp.Metadata.Status)
	assert.NotEmpty(t, resp.Sources)
}

// Classifier failure falls through to the safer policy branch instead of
// propagating the error.
func TestHandleClassifierFailureFallsThroughToPolicy(t *testing.T) {
	chunks := []vectorstore.Chunk{
		{DocumentID: "d1", Title: "Taxonomy Regulation", ChunkIndex: 0, Content: "The EU Taxonomy defines sustainable activities.", Similarity: 0.7},
	}
	coordinator := retrieval.New(stubEmbedder{}, stubStore{chunks: chunks}, stubSearcher{}, 5, 0)
	llm := stubLLM{text: "The Taxonomy defines green activities [1]."}
	o := newTestOrchestrator(stubClassifier{err: errors.New("classifier down")}, coordinator, llm, nil)

	resp, err := o.Handle(context.Background(), "s7", "tell me about the taxonomy")
	require.NoError(t, err)
	assert.Equal(t, classify.ClassPolicy, resp.Metadata.QueryClass)
}

// Language is detected once per session and then pinned for subsequent
// turns, even if later text looks like a different language.
func TestHandlePinsLanguageOnFirstTurn(t *testing.T) {
	coordinator := retrieval.New(stubEmbedder{}, stubStore{}, stubSearcher{}, 5, 0)
	o := newTestOrchestrator(stubClassifier{class: classify.ClassSmallTalk}, coordinator, stubLLM{}, nil)

	_, err := o.Handle(context.Background(), "s8", "hello")
	require.NoError(t, err)

	lang, pinned := o.memory.Language("s8")
	require.True(t, pinned)

	_, err = o.Handle(context.Background(), "s8", "bonjour et merci")
	require.NoError(t, err)

	secondLang, _ := o.memory.Language("s8")
	assert.Equal(t, lang, secondLang, "language pin must not change after the first turn")
}

// Every Handle call appends both the user turn and the assistant reply to
// session history, in order.
func TestHandleAppendsHistoryInOrder(t *testing.T) {
	coordinator := retrieval.New(stubEmbedder{}, stubStore{}, stubSearcher{}, 5, 0)
	o := newTestOrchestrator(stubClassifier{class: classify.ClassSmallTalk}, coordinator, stubLLM{}, nil)

	_, err := o.Handle(context.Background(), "s9", "hi")
	require.NoError(t, err)

	history := o.memory.History("s9")
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
}
