package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/personakit/personakit/internal/knowledge"
	"github.com/personakit/personakit/internal/memory"
)

// Defaults applied by New when Config leaves them unset.
const (
	// DefaultSearchLimit is the number of context chunks retrieved per turn.
	DefaultSearchLimit = 5

	// DefaultGenerateTimeout bounds a single generation call so abandoned
	// streams do not hold backend resources indefinitely.
	DefaultGenerateTimeout = 60 * time.Second

	// persistTimeout bounds the background history write.
	persistTimeout = 10 * time.Second
)

// Searcher retrieves context chunks for a query. *knowledge.Base satisfies
// it; the agent only needs this one method.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]knowledge.Result, error)
}

// TokenStream yields incremental generated text. Recv returns io.EOF when
// the stream is complete.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// Generator is the text-generation backend: given a system prompt and the
// full message list, it returns a cancellable token stream.
type Generator interface {
	Stream(ctx context.Context, system string, messages []memory.Message) (TokenStream, error)
}

// Config configures an Agent.
type Config struct {
	// Name identifies the agent in its system prompt. Required.
	Name string

	// Personality is inline text or a path to a markdown/text file
	// (resolved once at construction).
	Personality string

	// Instructions are rendered into the system prompt verbatim.
	Instructions string

	// Knowledge supplies RAG context. Nil disables retrieval.
	Knowledge Searcher

	// Memory persists session history. Nil disables memory.
	Memory memory.Store

	// Generator produces the streamed response. Required.
	Generator Generator

	// MaxHistory bounds loaded history to this many non-system messages
	// (system messages always survive). Zero disables trimming.
	MaxHistory int

	// SearchLimit is the number of context chunks retrieved per turn.
	// Default: DefaultSearchLimit.
	SearchLimit int

	// GenerateTimeout is the per-request deadline for the generation call.
	// Default: DefaultGenerateTimeout.
	GenerateTimeout time.Duration

	// OnPersistError observes background history-persistence failures,
	// which are otherwise only logged. Optional.
	OnPersistError func(error)

	// Logger for request diagnostics (nil = slog.Default()).
	Logger *slog.Logger
}

// ChatRequest is a parsed chat request: the new turns plus the resolved
// session id (empty when the caller supplied none).
type ChatRequest struct {
	Messages  []memory.Message
	SessionID string
}

// ValidationError indicates a malformed request. Handlers surface it as a
// 400-class response; it never causes a backend call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// BackendError wraps a generation or embedding backend failure. Handlers
// surface it as a 500-class response.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend: %v", e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
