package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// documentsTable holds ingested chunks. The serial column preserves
// insertion order so equal-distance results rank deterministically.
const documentsTable = "personakit_documents"

// PostgresStore is a VectorStore backed by PostgreSQL with the pgvector
// extension. It replaces the in-memory linear scan for corpora where
// O(n*d) per query is no longer acceptable, while preserving the same
// ordering contract: strict descending similarity, insertion-order ties.
//
// PostgresStore is safe for concurrent use; the database serializes
// mutations.
type PostgresStore struct {
	pool      *pgxpool.Pool
	dimension int
	logger    *slog.Logger
}

// NewPostgresStore connects to connString, registers pgvector types, and
// bootstraps the documents table for the given embedding dimension.
func NewPostgresStore(ctx context.Context, connString string, dimension int, logger *slog.Logger) (*PostgresStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("postgres store: dimension must be positive, got %d", dimension)
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, dimension: dimension, logger: logger}
	if err := s.bootstrap(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) bootstrap(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL PRIMARY KEY,
			chunk_id TEXT NOT NULL,
			content TEXT NOT NULL,
			source TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d) NOT NULL
		)`, documentsTable, s.dimension)
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

// Add inserts the documents with their embeddings in a single transaction.
func (s *PostgresStore) Add(ctx context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("%w: %d documents, %d embeddings", ErrCountMismatch, len(docs), len(embeddings))
	}

	for i, embedding := range embeddings {
		if len(embedding) != s.dimension {
			return &DimensionError{Want: s.dimension, Got: len(embedding)}
		}
		if norm(embedding) == 0 {
			return fmt.Errorf("document %q: %w", docs[i].ID, ErrZeroVector)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insert := fmt.Sprintf(
		`INSERT INTO %s (chunk_id, content, source, metadata, embedding) VALUES ($1, $2, $3, $4, $5)`,
		documentsTable)
	for i, doc := range docs {
		metadata, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %q: %w", doc.ID, err)
		}
		if _, err := tx.Exec(ctx, insert, doc.ID, doc.Content, doc.Source, metadata,
			pgvector.NewVector(embeddings[i])); err != nil {
			return fmt.Errorf("insert document %q: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("added documents", "count", len(docs))
	return nil
}

// Search ranks stored documents by cosine similarity to the query vector.
func (s *PostgresStore) Search(ctx context.Context, query []float32, limit int) ([]Result, error) {
	if limit <= 0 {
		return nil, nil
	}
	if len(query) != s.dimension {
		return nil, &DimensionError{Want: s.dimension, Got: len(query)}
	}
	if norm(query) == 0 {
		return nil, fmt.Errorf("query: %w", ErrZeroVector)
	}

	// <=> is cosine distance; score = 1 - distance. Ordering by distance
	// then seq matches the reference store's descending-score, insertion-
	// order-tie contract.
	q := fmt.Sprintf(`
		SELECT chunk_id, content, source, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1 ASC, seq ASC
		LIMIT $2`, documentsTable)

	rows, err := s.pool.Query(ctx, q, pgvector.NewVector(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			doc      Document
			metadata []byte
			score    float64
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &doc.Source, &metadata, &score); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
			s.logger.Warn("unparseable document metadata", "chunk_id", doc.ID, "error", err)
			doc.Metadata = map[string]any{}
		}
		results = append(results, Result{Document: doc, Score: float32(score)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows: %w", err)
	}

	return results, nil
}

// Clear removes all stored documents.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`TRUNCATE %s`, documentsTable)); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// Count returns the number of stored documents.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, documentsTable)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return int(count), nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
