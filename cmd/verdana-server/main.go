package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verdana-eu/verdana-agent/internal/agent"
	"github.com/verdana-eu/verdana-agent/internal/classify"
	"github.com/verdana-eu/verdana-agent/internal/config"
	"github.com/verdana-eu/verdana-agent/internal/embed"
	"github.com/verdana-eu/verdana-agent/internal/httpapi"
	"github.com/verdana-eu/verdana-agent/internal/llmclient"
	"github.com/verdana-eu/verdana-agent/internal/memory"
	"github.com/verdana-eu/verdana-agent/internal/retrieval"
	"github.com/verdana-eu/verdana-agent/internal/retry"
	"github.com/verdana-eu/verdana-agent/internal/speech"
	"github.com/verdana-eu/verdana-agent/internal/vectorstore"
	"github.com/verdana-eu/verdana-agent/internal/websearch"
)

// supportedLanguages lists all 24 official EU languages; Detect scores
// against this whole set and falls back to English only when no language
// clears the stopword-overlap threshold.
var supportedLanguages = []string{
	"bg", "hr", "cs", "da", "nl", "en", "et", "fi",
	"fr", "de", "el", "hu", "ga", "it", "lv", "lt",
	"mt", "pl", "pt", "ro", "sk", "sl", "es", "sv",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var showVersion bool
	var whisperModelPath string
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.StringVar(&whisperModelPath, "whisper-model", os.Getenv("WHISPER_MODEL_PATH"), "path to a whisper.cpp model; leave empty to disable speech-to-text")
	flag.Parse()

	if showVersion {
		fmt.Println("verdana-agent dev build")
		return
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Deadlines.DB)
	defer cancel()

	store, err := vectorstore.NewPostgresStore(ctx, cfg.Database.URL, cfg.Database.MaxConnections, cfg.Embed.Dimension)
	if err != nil {
		log.Fatalf("failed to connect vector store: %v", err)
	}
	defer store.Close()

	embedder := buildEmbedder(cfg)
	llm := buildLLMClient(cfg)

	searcher := websearch.New(cfg.WebSearch.Endpoint, cfg.Deadlines.Web, cfg.WebSearch.MaxInFlight, cfg.WebSearch.EUDomains)
	coordinator := retrieval.New(embedder, store, searcher, cfg.WebSearch.MaxResults, cfg.Deadlines.Retrieval)

	classifierLLM := llmclient.NewRetryingClient(buildClassifierLLMClient(cfg), retry.DefaultLLMPolicy())
	classifier := classify.NewHybridClassifier(classify.NewLLMClassifier(classifierLLM), 10000)

	mem := memory.NewStore(cfg.Session.Capacity, cfg.Session.HistoryLength)

	corpusStats := func(ctx context.Context) (agent.CorpusStats, error) {
		st, err := store.Stats(ctx)
		return agent.CorpusStats{DocumentCount: st.DocumentCount, ChunkCount: st.ChunkCount}, err
	}

	orchestrator := agent.New(mem, classifier, coordinator, llm, corpusStats, agent.Config{
		HistoryTurns:        cfg.Session.HistoryLength,
		Model:               cfg.LLM.Model,
		Temperature:         cfg.LLM.Temperature,
		MaxOutputTokens:     cfg.LLM.MaxOutputTokens,
		TopK:                cfg.Retrieval.TopK,
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		SupportedLanguages:  supportedLanguages,
		FallbackLanguage:    "en",
		OverallDeadline:     cfg.Deadlines.Overall,
	})

	var transcriber speech.Transcriber
	if whisperModelPath != "" {
		t, err := speech.NewWhisperCppTranscriber(whisperModelPath)
		if err != nil {
			log.Printf("speech-to-text disabled: %v", err)
		} else {
			transcriber = t
			defer t.Close()
		}
	}

	srv := httpapi.New(orchestrator, store, transcriber, []string{"http://localhost:5173", "http://127.0.0.1:5173"})

	httpServer := &http.Server{
		Addr:    cfg.Address,
		Handler: srv,
	}

	log.Printf("starting server on %s (embed provider: %s, llm provider: %s)", cfg.Address, cfg.Embed.Provider, cfg.LLM.Provider)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	waitForShutdown(httpServer)
}

func buildEmbedder(cfg config.Config) embed.Client {
	var inner embed.Client
	switch cfg.Embed.Provider {
	case "openai":
		inner = embed.NewOpenAICompatClient(cfg.Embed.Host, cfg.Embed.APIKey, cfg.Embed.Model, cfg.Embed.Dimension, cfg.Deadlines.Embedding)
	default:
		inner = embed.NewOllamaClient(cfg.Embed.Host, cfg.Embed.Model, cfg.Embed.Dimension, cfg.Deadlines.Embedding)
	}
	batched := embed.NewBatchingClient(inner, cfg.Embed.BatchSize)
	retrying := embed.NewRetryingClient(batched, retry.DefaultEmbeddingPolicy())
	return embed.NewCachedClient(retrying, 2048)
}

func buildLLMClient(cfg config.Config) llmclient.Client {
	// The orchestrator applies retry.DefaultLLMPolicy around each generation
	// call itself, so this client is not wrapped a second time.
	return rawLLMClient(cfg.LLM.Provider, cfg.LLM.Host, cfg.LLM.APIKey, cfg.LLM.Model, cfg.Deadlines.LLM)
}

func buildClassifierLLMClient(cfg config.Config) llmclient.Client {
	return rawLLMClient(cfg.LLM.Provider, cfg.LLM.Host, cfg.LLM.APIKey, cfg.LLM.ClassifierModel, cfg.Deadlines.LLM)
}

func rawLLMClient(provider, host, apiKey, model string, timeout time.Duration) llmclient.Client {
	if provider == "openai" {
		return llmclient.NewOpenAICompatClient(host, apiKey, model, timeout)
	}
	return llmclient.NewOllamaClient(host, model, timeout)
}

func waitForShutdown(srv *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		if err := srv.Close(); err != nil {
			log.Printf("forced close failed: %v", err)
		}
	}

	log.Println("server stopped")
}
