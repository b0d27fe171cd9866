// Package httpapi implements the thin HTTP ingress: request decode,
// orchestrator/corpus call, response encode. No business logic lives
// here — that belongs to internal/agent, internal/ingest, and
// internal/vectorstore. Grounded on fbrzx-airplane-chat's server.go for
// middleware/routing shape, generalized from its conversation-centric
// routes to chat/health/documents routes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/verdana-eu/verdana-agent/internal/agent"
	"github.com/verdana-eu/verdana-agent/internal/speech"
	"github.com/verdana-eu/verdana-agent/internal/vectorstore"
)

const maxAudioUploadBytes = 25 << 20

// Orchestrator is the subset of agent.Orchestrator the HTTP layer needs.
type Orchestrator interface {
	Handle(ctx context.Context, sessionID, text string) (agent.Response, error)
}

// Corpus is the subset of vectorstore.Store the HTTP layer needs for
// health and document-listing endpoints.
type Corpus interface {
	Stats(ctx context.Context) (vectorstore.Stats, error)
	ListDocuments(ctx context.Context) ([]vectorstore.Document, error)
}

// Server wires HTTP handlers to the agent orchestrator, corpus store, and
// speech transcriber.
type Server struct {
	router       http.Handler
	orchestrator Orchestrator
	corpus       Corpus
	transcriber  speech.Transcriber // nil disables /chat/speech-to-text
}

// New constructs a Server. transcriber may be nil if no speech-to-text
// backend is configured; the endpoint then answers 503.
func New(orchestrator Orchestrator, corpus Corpus, transcriber speech.Transcriber, allowedOrigins []string) *Server {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{
		router:       mux,
		orchestrator: orchestrator,
		corpus:       corpus,
		transcriber:  transcriber,
	}

	mux.Get("/health", s.handleHealth)
	mux.Post("/chat/message", s.handleChatMessage)
	mux.Post("/chat/speech-to-text", s.handleSpeechToText)
	mux.Get("/documents/knowledge-base", s.handleListDocuments)

	return s
}

// ServeHTTP exposes the router so Server satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.corpus.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("read corpus stats: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"document_count": stats.DocumentCount,
		"chunk_count":    stats.ChunkCount,
	})
}

type consentPayload struct {
	Accepted bool `json:"accepted"`
}

type chatMessageRequest struct {
	Message   string         `json:"message"`
	SessionID string         `json:"session_id"`
	Language  string         `json:"language,omitempty"`
	AIConsent consentPayload `json:"ai_consent"`
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("decode request: %w", err))
		return
	}

	if !req.AIConsent.Accepted {
		writeError(w, http.StatusForbidden, "consent_required", errors.New("ai_consent.accepted must be true"))
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("session_id is required"))
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("message is required"))
		return
	}

	resp, err := s.orchestrator.Handle(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("handle message: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response": resp.Text,
		"sources":  resp.Sources,
		"metadata": resp.Metadata,
	})
}

func (s *Server) handleSpeechToText(w http.ResponseWriter, r *http.Request) {
	if s.transcriber == nil {
		writeError(w, http.StatusServiceUnavailable, "speech_unavailable", errors.New("speech-to-text backend is not configured"))
		return
	}

	if err := r.ParseMultipartForm(maxAudioUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("parse form: %w", err))
		return
	}

	file, _, err := r.FormFile("audio_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("read audio_file: %w", err))
		return
	}
	defer file.Close()

	language := r.FormValue("language")

	limited := io.LimitReader(file, maxAudioUploadBytes+1)
	transcript, err := s.transcriber.Transcribe(r.Context(), limited, language)
	if err != nil {
		writeError(w, http.StatusBadGateway, "speech_error", fmt.Errorf("transcribe: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transcript":        transcript.Text,
		"detected_language": language,
	})
}

type documentListItem struct {
	Filename   string `json:"filename"`
	Title      string `json:"title"`
	ChunkCount int    `json:"chunk_count"`
	Type       string `json:"type"`
	URL        string `json:"url,omitempty"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.corpus.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("list documents: %w", err))
		return
	}

	items := make([]documentListItem, len(docs))
	for i, d := range docs {
		items[i] = documentListItem{
			Filename:   d.Filename,
			Title:      d.Title,
			ChunkCount: d.ChunkCount,
			Type:       "knowledge_base",
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_documents": len(items),
		"documents":       items,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fmt.Printf("failed to write JSON response: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, map[string]any{
		"error":   code,
		"message": err.Error(),
	})
}
