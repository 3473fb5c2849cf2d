package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// tracer instruments ingestion and search. Spans are no-ops until a tracer
// provider is registered at startup.
var tracer = otel.Tracer("personakit/knowledge")

// DefaultSearchLimit is the number of results returned when a caller passes
// a non-positive limit to Search.
const DefaultSearchLimit = 5

// Config configures a knowledge base.
//
// Embedder and VectorStore are required: there are no process-wide defaults,
// so tests and callers stay hermetic. NewMemoryStore is the ready-made store
// for small corpora.
type Config struct {
	// Sources to ingest, in order: file paths, directories, or URLs.
	Sources []string

	// Embedder converts chunk and query texts to vectors. Required.
	Embedder Embedder

	// VectorStore persists and ranks the vectors. Required.
	VectorStore VectorStore

	// ChunkSize is the approximate chunk length in characters.
	// Default: DefaultChunkSize.
	ChunkSize int

	// ChunkOverlap is the approximate carry between adjacent chunks in
	// characters. Default: DefaultChunkOverlap. Callers must keep it below
	// ChunkSize or risk degenerate chunking; the base does not enforce it.
	ChunkOverlap int

	// Logger for ingestion diagnostics (nil = slog.Default()).
	Logger *slog.Logger
}

// Base is the knowledge base orchestrator: it routes sources to loaders,
// batch-embeds the resulting chunks, and delegates queries to the vector
// store.
type Base struct {
	embedder Embedder
	store    VectorStore
	loaders  []DocumentLoader
	logger   *slog.Logger

	mu    sync.Mutex
	count int
}

// New creates a knowledge base and eagerly ingests every configured source.
// The base is fully queryable once New returns.
//
// Ingestion is not atomic across sources: a failing source aborts New before
// anything reaches the vector store, but work done for earlier sources is
// discarded.
func New(ctx context.Context, cfg Config) (*Base, error) {
	if cfg.Embedder == nil {
		return nil, ErrNoEmbedder
	}
	if cfg.VectorStore == nil {
		return nil, ErrNoVectorStore
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunkOverlap := cfg.ChunkOverlap
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Base{
		embedder: cfg.Embedder,
		store:    cfg.VectorStore,
		// Selection precedence: web loader first, file loader accepts
		// whatever remains.
		loaders: []DocumentLoader{
			NewWebLoader(chunkSize, chunkOverlap),
			NewFileLoader(chunkSize, chunkOverlap),
		},
		logger: logger,
	}

	ctx, span := tracer.Start(ctx, "knowledge.ingest")
	defer span.End()
	span.SetAttributes(attribute.Int("knowledge.sources", len(cfg.Sources)))

	var docs []Document
	for _, source := range cfg.Sources {
		loaded, err := b.loadSource(ctx, source)
		if err != nil {
			err = fmt.Errorf("load source %s: %w", source, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "ingest failed")
			return nil, err
		}
		b.logger.Debug("loaded source", "source", source, "chunks", len(loaded))
		docs = append(docs, loaded...)
	}
	span.SetAttributes(attribute.Int("knowledge.chunks", len(docs)))

	if len(docs) > 0 {
		if err := b.Add(ctx, docs); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "ingest failed")
			return nil, err
		}
	}

	return b, nil
}

func (b *Base) loadSource(ctx context.Context, source string) ([]Document, error) {
	for _, loader := range b.loaders {
		if loader.CanHandle(source) {
			return loader.Load(ctx, source)
		}
	}
	// Unreachable: FileLoader.CanHandle is always true.
	return nil, fmt.Errorf("no loader for source %s", source)
}

// Search embeds the query text and returns the most similar documents in
// descending score order. A non-positive limit means DefaultSearchLimit.
func (b *Base) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	ctx, span := tracer.Start(ctx, "knowledge.search")
	defer span.End()
	span.SetAttributes(attribute.Int("knowledge.limit", limit))

	embeddings, err := b.embedder.Embed(ctx, []string{query})
	if err != nil {
		err = fmt.Errorf("embed query: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}
	if len(embeddings) != 1 {
		err = fmt.Errorf("embed query: want 1 embedding, got %d", len(embeddings))
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}

	results, err := b.store.Search(ctx, embeddings[0], limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, err
	}
	return results, nil
}

// Add embeds the documents in one batch call and stores them in one store
// call. The embedder's position-aligned contract guarantees embeddings[i]
// belongs to docs[i].
func (b *Base) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	embeddings, err := b.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(embeddings) != len(docs) {
		return fmt.Errorf("embed documents: want %d embeddings, got %d", len(docs), len(embeddings))
	}

	if err := b.store.Add(ctx, docs, embeddings); err != nil {
		return fmt.Errorf("store documents: %w", err)
	}

	b.mu.Lock()
	b.count += len(docs)
	b.mu.Unlock()

	b.logger.Debug("added documents", "count", len(docs))
	return nil
}

// Clear removes all documents and resets the count.
func (b *Base) Clear(ctx context.Context) error {
	if err := b.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}

	b.mu.Lock()
	b.count = 0
	b.mu.Unlock()
	return nil
}

// Count returns the number of documents added minus cleared. It is not
// deduplicated: adding the same document twice counts twice.
func (b *Base) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
