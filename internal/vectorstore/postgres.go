// Package vectorstore persists the knowledge base corpus in Postgres +
// pgvector. Schema is corpus-wide: documents are deduplicated by content
// hash, chunks carry their owning document, and similarity search runs
// over an HNSW index rather than the IVFFlat index fbrzx-airplane-chat used for
// its per-conversation memory store — HNSW needs no training-row
// threshold, so schema creation never has to
// swallow an "insufficient rows" failure the way ensureSchema once did.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/verdana-eu/verdana-agent/internal/apperr"
)

// Document is one ingested knowledge-base source file.
type Document struct {
	ID          string
	Title       string
	Filename    string
	ContentHash string
	ChunkCount  int
	CreatedAt   time.Time
}

// Chunk is one retrieved passage plus the similarity score of the query
// that found it.
type Chunk struct {
	ID         uuid.UUID
	DocumentID string
	Title      string
	Filename   string
	ChunkIndex int
	Content    string
	Similarity float64
}

// Stats summarizes corpus size, surfaced on GET /health and in the agent's
// meta replies.
type Stats struct {
	DocumentCount int
	ChunkCount    int
}

// Store persists documents and their chunk embeddings in Postgres.
type Store struct {
	pool      *pgxpool.Pool
	dimension int
}

// NewPostgresStore connects to Postgres and ensures the schema exists.
// dimension must match the embedding provider's output size; a later
// VerifySchema call catches drift if the provider is swapped without a
// matching migration.
func NewPostgresStore(ctx context.Context, dsn string, maxConns int, dimension int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apperr.New(apperr.KindVectorStore, "parse database url", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, apperr.New(apperr.KindVectorStore, "connect database", err)
	}

	store := &Store{pool: pool, dimension: dimension}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := store.VerifySchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const statements = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS documents (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	filename TEXT NOT NULL,
	content_hash TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS document_chunks (
	id UUID PRIMARY KEY,
	document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	chunk_index INT NOT NULL,
	content TEXT NOT NULL,
	embedding vector(%[1]d) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (document_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS document_chunks_document_idx
	ON document_chunks (document_id);

CREATE INDEX IF NOT EXISTS document_chunks_embedding_idx
	ON document_chunks USING hnsw (embedding vector_cosine_ops);
`
	_, err := s.pool.Exec(ctx, fmt.Sprintf(statements, s.dimension))
	if err != nil {
		return apperr.New(apperr.KindVectorStore, "ensure schema", err)
	}
	return nil
}

// VerifySchema checks the embedding column's declared dimension matches the
// store's configured dimension, catching a provider/migration mismatch at
// startup rather than at the first failed insert.
func (s *Store) VerifySchema(ctx context.Context) error {
	var atttypmod int
	err := s.pool.QueryRow(ctx, `
SELECT atttypmod
FROM pg_attribute
WHERE attrelid = 'document_chunks'::regclass AND attname = 'embedding'`).Scan(&atttypmod)
	if err != nil {
		return apperr.New(apperr.KindVectorStore, "read embedding column metadata", err)
	}
	if atttypmod != s.dimension {
		return apperr.New(apperr.KindConfig,
			fmt.Sprintf("embedding column dimension %d does not match configured dimension %d", atttypmod, s.dimension), nil)
	}
	return nil
}

// ContentHash computed by the ingestion driver to dedup documents; exposed
// here so callers can check existence before doing any extraction/chunking
// work at all.
func (s *Store) DocumentByHash(ctx context.Context, contentHash string) (*Document, error) {
	var d Document
	err := s.pool.QueryRow(ctx, `
SELECT id, title, filename, content_hash, created_at
FROM documents WHERE content_hash = $1`, contentHash).
		Scan(&d.ID, &d.Title, &d.Filename, &d.ContentHash, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.New(apperr.KindVectorStore, "lookup document by hash", err)
	}
	return &d, nil
}

// UpsertDocument inserts a document, replacing any prior chunks for the same
// content hash so re-ingesting the same content is idempotent. Returns the
// document's ID.
func (s *Store) UpsertDocument(ctx context.Context, title, filename, contentHash string, contents []string, vectors [][]float32) (string, error) {
	if len(contents) != len(vectors) {
		return "", apperr.New(apperr.KindVectorStore, "contents and vectors length mismatch", nil)
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return "", apperr.New(apperr.KindVectorStore,
				fmt.Sprintf("vector dimension mismatch: expected %d got %d", s.dimension, len(v)), nil)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", apperr.New(apperr.KindVectorStore, "begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
INSERT INTO documents (id, title, filename, content_hash)
VALUES ($1, $2, $3, $4)
ON CONFLICT (content_hash) DO UPDATE SET title = EXCLUDED.title, filename = EXCLUDED.filename
RETURNING id`, uuid.New(), title, filename, contentHash).Scan(&id)
	if err != nil {
		return "", apperr.New(apperr.KindVectorStore, "upsert document", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, id); err != nil {
		return "", apperr.New(apperr.KindVectorStore, "delete existing chunks", err)
	}

	batch := &pgx.Batch{}
	for idx, content := range contents {
		batch.Queue(`
INSERT INTO document_chunks (id, document_id, chunk_index, content, embedding)
VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), id, idx, content, pgvector.NewVector(vectors[idx]))
	}
	br := tx.SendBatch(ctx, batch)
	for range contents {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return "", apperr.New(apperr.KindVectorStore, "insert chunk", err)
		}
	}
	if err := br.Close(); err != nil {
		return "", apperr.New(apperr.KindVectorStore, "close chunk batch", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", apperr.New(apperr.KindVectorStore, "commit transaction", err)
	}

	return id.String(), nil
}

// Search returns the topK chunks closest to embedding by cosine similarity.
func (s *Store) Search(ctx context.Context, embedding []float32, topK int) ([]Chunk, error) {
	if len(embedding) != s.dimension {
		return nil, apperr.New(apperr.KindVectorStore,
			fmt.Sprintf("embedding dimension mismatch: expected %d got %d", s.dimension, len(embedding)), nil)
	}
	if topK <= 0 {
		topK = 5
	}

	rows, err := s.pool.Query(ctx, `
SELECT c.id, c.document_id, d.title, d.filename, c.chunk_index, c.content,
       1 - (c.embedding <=> $1) AS similarity
FROM document_chunks c
JOIN documents d ON d.id = c.document_id
ORDER BY c.embedding <=> $1, c.id
LIMIT $2`, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, apperr.New(apperr.KindVectorStore, "search chunks", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var docID uuid.UUID
		if err := rows.Scan(&c.ID, &docID, &c.Title, &c.Filename, &c.ChunkIndex, &c.Content, &c.Similarity); err != nil {
			return nil, apperr.New(apperr.KindVectorStore, "scan chunk", err)
		}
		c.DocumentID = docID.String()
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.New(apperr.KindVectorStore, "iterate chunks", err)
	}

	return chunks, nil
}

// DeleteDocument removes a document and all its chunks.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	id, err := uuid.Parse(documentID)
	if err != nil {
		return apperr.New(apperr.KindVectorStore, "parse document id", err)
	}
	_, err = s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return apperr.New(apperr.KindVectorStore, "delete document", err)
	}
	return nil
}

// Stats reports the corpus's document and chunk counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
SELECT (SELECT COUNT(*) FROM documents), (SELECT COUNT(*) FROM document_chunks)`).
		Scan(&st.DocumentCount, &st.ChunkCount)
	if err != nil {
		return Stats{}, apperr.New(apperr.KindVectorStore, "read corpus stats", err)
	}
	return st, nil
}

// ListDocuments returns every document in the corpus, most recent first.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.pool.Query(ctx, `
SELECT d.id, d.title, d.filename, d.content_hash, d.created_at,
       (SELECT COUNT(*) FROM document_chunks c WHERE c.document_id = d.id)
FROM documents d
ORDER BY d.created_at DESC`)
	if err != nil {
		return nil, apperr.New(apperr.KindVectorStore, "list documents", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var id uuid.UUID
		if err := rows.Scan(&id, &d.Title, &d.Filename, &d.ContentHash, &d.CreatedAt, &d.ChunkCount); err != nil {
			return nil, apperr.New(apperr.KindVectorStore, "scan document", err)
		}
		d.ID = id.String()
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.New(apperr.KindVectorStore, "iterate documents", err)
	}
	return docs, nil
}
