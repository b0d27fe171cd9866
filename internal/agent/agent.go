// Package agent implements the central state machine that turns an
// inbound (session_id, text) pair into a grounded, source-attributed,
// AI-content-marked response.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/verdana-eu/verdana-agent/internal/classify"
	"github.com/verdana-eu/verdana-agent/internal/language"
	"github.com/verdana-eu/verdana-agent/internal/llmclient"
	"github.com/verdana-eu/verdana-agent/internal/memory"
	"github.com/verdana-eu/verdana-agent/internal/retrieval"
	"github.com/verdana-eu/verdana-agent/internal/retry"
	"github.com/verdana-eu/verdana-agent/internal/source"
)

// Re-exported llmclient aliases so callers constructing prompts don't need
// a second import for plain message plumbing.
type (
	Message = llmclient.Message
	Role    = llmclient.Role
)

const (
	RoleSystem    = llmclient.RoleSystem
	RoleUser      = llmclient.RoleUser
	RoleAssistant = llmclient.RoleAssistant
)

// Status reports how the response was produced, surfaced in metadata.
type Status string

const (
	StatusOK             Status = "ok"
	StatusLLMUnavailable Status = "llm_unavailable"
	StatusNoEvidence     Status = "no_evidence"
)

// Marker is the AI-Act-style content marker stamped on every assistant
// response.
type Marker struct {
	GeneratedBy string    `json:"generated_by"`
	Model       string    `json:"model"`
	Timestamp   time.Time `json:"timestamp"`
	SessionID   string    `json:"session_id"`
	QueryClass  string    `json:"query_class"`
}

// Metadata accompanies every response: degraded providers, status, and the
// content marker.
type Metadata struct {
	Status     Status              `json:"status"`
	QueryClass classify.QueryClass `json:"query_class"`
	Degraded   map[string]string   `json:"degraded,omitempty"`
	Marker     Marker              `json:"marker"`
}

// Response is what Handle returns to the HTTP layer.
type Response struct {
	Text     string       `json:"text"`
	Sources  []source.Ref `json:"sources"`
	Metadata Metadata     `json:"metadata"`
}

// CorpusStats reports what the Meta branch describes to the user.
type CorpusStats struct {
	DocumentCount int
	ChunkCount    int
}

// Orchestrator wires together the session memory, classifier, language
// detector, retrieval coordinator, and LLM client into the full turn-
// handling state machine. No package-level globals: every dependency is
// constructed explicitly and injected here.
type Orchestrator struct {
	memory             *memory.Store
	classifier         classify.Classifier
	coordinator        *retrieval.Coordinator
	llm                llmclient.Client
	historyTurns       int
	model              string
	temperature        float64
	maxOutput          int
	topK               int
	similarity         float64
	supportedLanguages []string
	fallbackLanguage   string
	overallDeadline    time.Duration
	stats              func(ctx context.Context) (CorpusStats, error)
}

// Config bundles the orchestrator's tunables.
type Config struct {
	HistoryTurns        int
	Model               string
	Temperature         float64
	MaxOutputTokens     int
	TopK                int
	SimilarityThreshold float64
	SupportedLanguages  []string
	FallbackLanguage    string
	// OverallDeadline bounds the whole Handle call (classify, retrieve,
	// LLM call). A non-positive value disables the wrap, leaving only the
	// caller's own context deadline in effect.
	OverallDeadline time.Duration
}

// New constructs an Orchestrator.
func New(
	mem *memory.Store,
	classifier classify.Classifier,
	coordinator *retrieval.Coordinator,
	llm llmclient.Client,
	stats func(ctx context.Context) (CorpusStats, error),
	cfg Config,
) *Orchestrator {
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 6
	}
	if cfg.FallbackLanguage == "" {
		cfg.FallbackLanguage = "en"
	}
	return &Orchestrator{
		memory:             mem,
		classifier:         classifier,
		coordinator:        coordinator,
		llm:                llm,
		historyTurns:       cfg.HistoryTurns,
		model:              cfg.Model,
		temperature:        cfg.Temperature,
		maxOutput:          cfg.MaxOutputTokens,
		topK:               cfg.TopK,
		similarity:         cfg.SimilarityThreshold,
		supportedLanguages: cfg.SupportedLanguages,
		fallbackLanguage:   cfg.FallbackLanguage,
		overallDeadline:    cfg.OverallDeadline,
		stats:              stats,
	}
}

// Handle runs the full state machine for one inbound turn, bounded by the
// configured overall deadline regardless of how long the caller's own
// context allows (context.WithTimeout always resolves to the earlier of
// the two deadlines).
func (o *Orchestrator) Handle(ctx context.Context, sessionID, text string) (Response, error) {
	if o.overallDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.overallDeadline)
		defer cancel()
	}

	lang, pinned := o.memory.Language(sessionID)
	if !pinned {
		detected := language.Detect(text, o.supportedLanguages, o.fallbackLanguage)
		lang = o.memory.PinLanguage(sessionID, detected)
	}

	history := o.memory.History(sessionID)

	class, err := o.classifier.Classify(ctx, text, turnsToStrings(history))
	if err != nil {
		class = classify.ClassPolicy
	}

	var resp Response
	switch class {
	case classify.ClassSmallTalk:
		resp = o.templatedResponse(sessionID, class, lookupTemplate(smallTalkReplies, lang))
	case classify.ClassIdentity:
		resp = o.templatedResponse(sessionID, class, lookupTemplate(identityReplies, lang))
	case classify.ClassMeta:
		resp = o.handleMeta(ctx, sessionID, lang)
	default:
		resp = o.handlePolicy(ctx, sessionID, lang, text, history)
	}

	o.memory.Append(sessionID, memory.Turn{Role: "user", Content: text})
	o.memory.Append(sessionID, memory.Turn{Role: "assistant", Content: resp.Text})

	return resp, nil
}

func (o *Orchestrator) templatedResponse(sessionID string, class classify.QueryClass, text string) Response {
	return Response{
		Text:    text,
		Sources: []source.Ref{},
		Metadata: Metadata{
			Status:     StatusOK,
			QueryClass: class,
			Marker:     o.marker(sessionID, class),
		},
	}
}

func (o *Orchestrator) handleMeta(ctx context.Context, sessionID, lang string) Response {
	var stats CorpusStats
	if o.stats != nil {
		if s, err := o.stats(ctx); err == nil {
			stats = s
		}
	}
	text := renderMeta(stats)
	_ = lang // meta reply is not language-templated beyond English today; tracked as a known gap.
	return Response{
		Text:    text,
		Sources: []source.Ref{},
		Metadata: Metadata{
			Status:     StatusOK,
			QueryClass: classify.ClassMeta,
			Marker:     o.marker(sessionID, classify.ClassMeta),
		},
	}
}

func (o *Orchestrator) handlePolicy(ctx context.Context, sessionID, lang, text string, history []memory.Turn) Response {
	result, err := o.coordinator.Retrieve(ctx, text, o.topK, o.similarity)
	if err != nil || len(result.Sources) == 0 {
		return Response{
			Text:    lookupTemplate(insufficientEvidenceReplies, lang),
			Sources: []source.Ref{},
			Metadata: Metadata{
				Status:     StatusNoEvidence,
				QueryClass: classify.ClassPolicy,
				Degraded:   result.Degraded,
				Marker:     o.marker(sessionID, classify.ClassPolicy),
			},
		}
	}

	recent := history
	if len(recent) > o.historyTurns {
		recent = recent[len(recent)-o.historyTurns:]
	}

	prompt := BuildPrompt(lang, recent, result.Sources, text)

	var answer string
	err = retry.Do(ctx, retry.DefaultLLMPolicy(), func() error {
		out, callErr := o.llm.Complete(ctx, prompt, llmclient.Options{Temperature: o.temperature, MaxOutputTokens: o.maxOutput})
		if callErr != nil {
			return callErr
		}
		answer = out
		return nil
	})

	if err != nil {
		return Response{
			Text:    lookupTemplate(llmUnavailableReplies, lang),
			Sources: result.Sources,
			Metadata: Metadata{
				Status:     StatusLLMUnavailable,
				QueryClass: classify.ClassPolicy,
				Degraded:   result.Degraded,
				Marker:     o.marker(sessionID, classify.ClassPolicy),
			},
		}
	}

	answer = VerifyCitations(answer, len(result.Sources))

	return Response{
		Text:    answer,
		Sources: result.Sources,
		Metadata: Metadata{
			Status:     StatusOK,
			QueryClass: classify.ClassPolicy,
			Degraded:   result.Degraded,
			Marker:     o.marker(sessionID, classify.ClassPolicy),
		},
	}
}

func (o *Orchestrator) marker(sessionID string, class classify.QueryClass) Marker {
	return Marker{
		GeneratedBy: "agent",
		Model:       o.model,
		Timestamp:   time.Now().UTC(),
		SessionID:   sessionID,
		QueryClass:  string(class),
	}
}

func renderMeta(stats CorpusStats) string {
	return fmt.Sprintf(metaReplyTemplate, stats.DocumentCount, stats.ChunkCount)
}

func turnsToStrings(turns []memory.Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Content
	}
	return out
}
