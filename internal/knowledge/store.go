package knowledge

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
)

// MemoryStore is the in-memory reference VectorStore: a linear cosine
// similarity scan over every stored vector, O(n*d) per query. Suitable for
// small corpora; PostgresStore covers production scale with the same
// ordering contract.
//
// MemoryStore is safe for concurrent use. Mutations take an exclusive lock;
// searches share a read lock.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []storeEntry
}

type storeEntry struct {
	doc       Document
	embedding []float32
}

// NewMemoryStore creates an empty in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add stores the documents with their position-aligned embeddings. It fails
// fast on count mismatches, dimension mismatches against already-stored
// vectors, and zero-norm vectors.
func (s *MemoryStore) Add(_ context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("%w: %d documents, %d embeddings", ErrCountMismatch, len(docs), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimensionLocked()
	for i, embedding := range embeddings {
		if dim == 0 {
			dim = len(embedding)
		}
		if len(embedding) != dim {
			return &DimensionError{Want: dim, Got: len(embedding)}
		}
		if norm(embedding) == 0 {
			return fmt.Errorf("document %q: %w", docs[i].ID, ErrZeroVector)
		}
	}

	for i := range docs {
		s.entries = append(s.entries, storeEntry{doc: docs[i], embedding: embeddings[i]})
	}
	return nil
}

// Search returns up to limit results in strictly descending score order.
// Ties are broken by insertion order for determinism.
func (s *MemoryStore) Search(_ context.Context, query []float32, limit int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 || limit <= 0 {
		return nil, nil
	}

	if dim := s.dimensionLocked(); len(query) != dim {
		return nil, &DimensionError{Want: dim, Got: len(query)}
	}
	queryNorm := norm(query)
	if queryNorm == 0 {
		return nil, fmt.Errorf("query: %w", ErrZeroVector)
	}

	results := make([]Result, 0, len(s.entries))
	for _, entry := range s.entries {
		results = append(results, Result{
			Document: entry.doc,
			Score:    cosineSimilarity(query, queryNorm, entry.embedding),
		})
	}

	// Stable sort keeps insertion order on equal scores.
	slices.SortStableFunc(results, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

// Clear removes all stored documents.
func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) dimensionLocked() int {
	if len(s.entries) == 0 {
		return 0
	}
	return len(s.entries[0].embedding)
}

// cosineSimilarity computes dot(a,b) / (||a|| * ||b||). Accumulation is in
// float64 to limit rounding drift on long vectors. Callers guarantee equal
// lengths and a non-zero query norm; Add guarantees non-zero stored norms.
func cosineSimilarity(query []float32, queryNorm float64, stored []float32) float32 {
	var dot float64
	for i := range query {
		dot += float64(query[i]) * float64(stored[i])
	}
	return float32(dot / (queryNorm * norm(stored)))
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
