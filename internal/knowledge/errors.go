package knowledge

import (
	"errors"
	"fmt"
)

// Sentinel errors for the retrieval pipeline. Check with errors.Is().
var (
	// ErrCountMismatch indicates document and embedding counts differ in a
	// VectorStore.Add call.
	ErrCountMismatch = errors.New("document and embedding counts differ")

	// ErrZeroVector indicates a zero-norm vector was submitted. Cosine
	// similarity is undefined for zero vectors, so stores reject them
	// instead of producing NaN scores.
	ErrZeroVector = errors.New("zero-norm embedding vector")

	// ErrNoEmbedder indicates a Base was constructed without an embedder.
	ErrNoEmbedder = errors.New("embedder is required")

	// ErrNoVectorStore indicates a Base was constructed without a vector store.
	ErrNoVectorStore = errors.New("vector store is required")
)

// DimensionError indicates an embedding vector whose length does not match
// the store's dimension.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// HTTPError indicates a web source responded with a non-2xx status.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}
