package knowledge

import "context"

// Metadata keys set by every loader. Values are ints and satisfy
// 0 <= chunkIndex < totalChunks.
const (
	MetaChunkIndex  = "chunkIndex"
	MetaTotalChunks = "totalChunks"
)

// Document is a single retrievable chunk of text. Documents are created by a
// loader at ingestion time and immutable afterwards.
type Document struct {
	// ID is unique within the output of one loader invocation
	// (e.g. "readme.md-3"), not globally.
	ID string `json:"id"`

	// Content is the chunk text. Loaders never emit all-whitespace content.
	Content string `json:"content"`

	// Source identifies the origin: a file path or a URL.
	Source string `json:"source"`

	// Metadata carries chunk position plus loader-specific fields such as
	// front-matter values or the original URL.
	Metadata map[string]any `json:"metadata"`
}

// Result is a search hit. Score is a cosine similarity in [-1, 1]; for
// normalized real embeddings values typically fall in [0, 1].
type Result struct {
	Document Document `json:"document"`
	Score    float32  `json:"score"`
}

// Embedder converts texts into fixed-dimension vectors.
//
// Embed must return exactly one vector per input text, in input order, each
// of length Dimension. Empty input yields empty output without calling the
// backend.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// VectorStore persists document/vector pairs and answers nearest-neighbor
// queries.
//
// Search returns at most limit results in strictly descending score order;
// equal scores are broken by insertion order so results are deterministic.
// Implementations must be safe for concurrent use.
type VectorStore interface {
	// Add stores the documents with their position-aligned embeddings.
	// It fails fast when lengths or dimensions do not match.
	Add(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search ranks stored documents against the query vector.
	Search(ctx context.Context, query []float32, limit int) ([]Result, error)

	// Clear removes all stored documents. Idempotent.
	Clear(ctx context.Context) error
}

// DocumentLoader fetches raw content from a source identifier and produces
// chunked documents.
type DocumentLoader interface {
	// CanHandle reports whether this loader understands the source.
	CanHandle(source string) bool

	// Load reads the source and returns its chunks with metadata.
	Load(ctx context.Context, source string) ([]Document, error)
}
