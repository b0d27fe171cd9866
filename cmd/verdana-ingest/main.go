package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/verdana-eu/verdana-agent/internal/config"
	"github.com/verdana-eu/verdana-agent/internal/embed"
	"github.com/verdana-eu/verdana-agent/internal/ingest"
	"github.com/verdana-eu/verdana-agent/internal/retry"
	"github.com/verdana-eu/verdana-agent/internal/vectorstore"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	flag.Parse()

	dir := flag.Arg(0)
	if dir == "" {
		fmt.Fprintln(os.Stderr, "usage: verdana-ingest <directory>")
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Printf("config error: %v", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Deadlines.DB)
	defer cancel()

	store, err := vectorstore.NewPostgresStore(ctx, cfg.Database.URL, cfg.Database.MaxConnections, cfg.Embed.Dimension)
	if err != nil {
		log.Printf("config error: %v", err)
		os.Exit(2)
	}
	defer store.Close()

	var embedder embed.Client
	if cfg.Embed.Provider == "openai" {
		embedder = embed.NewOpenAICompatClient(cfg.Embed.Host, cfg.Embed.APIKey, cfg.Embed.Model, cfg.Embed.Dimension, cfg.Deadlines.Embedding)
	} else {
		embedder = embed.NewOllamaClient(cfg.Embed.Host, cfg.Embed.Model, cfg.Embed.Dimension, cfg.Deadlines.Embedding)
	}
	embedder = embed.NewBatchingClient(embedder, cfg.Embed.BatchSize)
	embedder = embed.NewRetryingClient(embedder, retry.DefaultEmbeddingPolicy())

	driver := ingest.New(store, embedder, cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap, cfg.Ingestion.MaxParallelDocuments)

	report, err := driver.IngestDirectory(context.Background(), dir)
	if err != nil {
		log.Printf("ingestion failed: %v", err)
		os.Exit(2)
	}

	failed := 0
	for _, outcome := range report.Outcomes {
		log.Printf("%s: %s %s", outcome.Path, outcome.Status, outcome.Reason)
		if outcome.Status == "failed" {
			failed++
		}
	}

	log.Printf("ingested %d files, %d failed", len(report.Outcomes), failed)
	if failed > 0 {
		os.Exit(1)
	}
}
