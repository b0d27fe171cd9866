// Package ingest drives extraction, chunking, embedding, and storage over
// a directory of source documents. It bounds parallelism across documents
// with golang.org/x/sync/errgroup + semaphore.Weighted, grounded on a
// structured-concurrency pattern in place of ad-hoc goroutine fan-out:
// each document's failure is isolated and reported, never canceling its
// siblings.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/verdana-eu/verdana-agent/internal/apperr"
	"github.com/verdana-eu/verdana-agent/internal/chunk"
	"github.com/verdana-eu/verdana-agent/internal/embed"
	"github.com/verdana-eu/verdana-agent/internal/extract"
	"github.com/verdana-eu/verdana-agent/internal/vectorstore"
)

const defaultMaxParallelDocuments = 4

// FileOutcome reports what happened to a single file.
type FileOutcome struct {
	Path   string
	Status string // "ok", "skipped", "failed"
	Reason string
}

// Report summarizes a full ingestion run.
type Report struct {
	Outcomes []FileOutcome
}

// Driver orchestrates extraction, chunking, embedding, and storage for a
// directory of documents.
type Driver struct {
	store        *vectorstore.Store
	embedder     embed.Client
	chunkSize    int
	chunkOverlap int
	maxParallel  int
}

// New constructs a Driver. maxParallel bounds how many documents are
// processed concurrently (default 4).
func New(store *vectorstore.Store, embedder embed.Client, chunkSize, chunkOverlap, maxParallel int) *Driver {
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallelDocuments
	}
	return &Driver{
		store:        store,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		maxParallel:  maxParallel,
	}
}

// IngestDirectory walks dir, extracting, chunking, embedding, and upserting
// every supported file. Already-ingested files (matching content hash) are
// skipped without re-embedding, making repeated runs idempotent.
func (d *Driver) IngestDirectory(ctx context.Context, dir string) (Report, error) {
	paths, err := discoverFiles(dir)
	if err != nil {
		return Report{}, apperr.New(apperr.KindConfig, "walk ingest directory", err)
	}

	outcomes := make([]FileOutcome, len(paths))
	sem := semaphore.NewWeighted(int64(d.maxParallel))
	g, gctx := errgroup.WithContext(ctx)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				outcomes[i] = FileOutcome{Path: path, Status: "failed", Reason: err.Error()}
				return nil
			}
			defer sem.Release(1)

			outcomes[i] = d.ingestOne(gctx, path)
			return nil
		})
	}

	// The group itself never returns an error: per-file failures are
	// recorded in outcomes, not propagated, so one bad document never
	// aborts the run for its siblings.
	_ = g.Wait()

	return Report{Outcomes: outcomes}, nil
}

func (d *Driver) ingestOne(ctx context.Context, path string) FileOutcome {
	if !extract.Supported(path) {
		return FileOutcome{Path: path, Status: "skipped", Reason: "unsupported file type"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FileOutcome{Path: path, Status: "failed", Reason: fmt.Sprintf("read file: %v", err)}
	}
	contentHash := hashContent(data)

	existing, err := d.store.DocumentByHash(ctx, contentHash)
	if err != nil {
		return FileOutcome{Path: path, Status: "failed", Reason: fmt.Sprintf("check existing document: %v", err)}
	}
	if existing != nil {
		return FileOutcome{Path: path, Status: "skipped", Reason: "content hash already ingested"}
	}

	result, err := extract.Extract(path, extract.Format(""))
	if err != nil {
		return FileOutcome{Path: path, Status: "failed", Reason: fmt.Sprintf("extract: %v", err)}
	}

	chunks := chunk.Chunk(result.Text, d.chunkSize, d.chunkOverlap)
	if len(chunks) == 0 {
		return FileOutcome{Path: path, Status: "failed", Reason: "document produced no chunks"}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := d.embedder.Embed(ctx, texts)
	if err != nil {
		// The document row is never created without its chunks (see
		// UpsertDocument), so a failed embed here simply leaves nothing
		// behind for the next run to retry, satisfying the "incomplete
		// document is marked or rolled back" requirement by construction.
		return FileOutcome{Path: path, Status: "failed", Reason: fmt.Sprintf("embed: %v", err)}
	}

	title := filepath.Base(path)
	if _, err := d.store.UpsertDocument(ctx, title, filepath.Base(path), contentHash, texts, vectors); err != nil {
		return FileOutcome{Path: path, Status: "failed", Reason: fmt.Sprintf("store: %v", err)}
	}

	return FileOutcome{Path: path, Status: "ok"}
}

func discoverFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	return paths, err
}

func hashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
