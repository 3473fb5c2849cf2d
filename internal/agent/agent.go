// Package agent orchestrates a single chat turn: it loads session history,
// retrieves knowledge-base context for the latest user message, assembles
// the system prompt, streams the generated response, and persists the
// extended history once the stream completes.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/personakit/personakit/internal/knowledge"
	"github.com/personakit/personakit/internal/memory"
)

// Agent is the top-level orchestrator. Construct with New; the zero value
// is not usable.
//
// Agent is safe for concurrent use: per-request state lives on the stack
// and the collaborators are required to be concurrency-safe.
type Agent struct {
	name         string
	personality  string
	instructions string

	knowledge Searcher
	memory    memory.Store
	generator Generator

	maxHistory      int
	searchLimit     int
	generateTimeout time.Duration
	onPersistError  func(error)
	logger          *slog.Logger

	persistWG sync.WaitGroup
}

// New creates an Agent, resolving the personality (reading it from disk if
// the config value is a file path).
func New(cfg Config) (*Agent, error) {
	if cfg.Name == "" {
		return nil, errors.New("agent name is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("generator is required")
	}

	personality, err := ResolvePersonality(cfg.Personality)
	if err != nil {
		return nil, err
	}

	searchLimit := cfg.SearchLimit
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	generateTimeout := cfg.GenerateTimeout
	if generateTimeout <= 0 {
		generateTimeout = DefaultGenerateTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		name:            cfg.Name,
		personality:     personality,
		instructions:    cfg.Instructions,
		knowledge:       cfg.Knowledge,
		memory:          cfg.Memory,
		generator:       cfg.Generator,
		maxHistory:      cfg.MaxHistory,
		searchLimit:     searchLimit,
		generateTimeout: generateTimeout,
		onPersistError:  cfg.OnPersistError,
		logger:          logger,
	}, nil
}

// Name returns the agent's name.
func (a *Agent) Name() string {
	return a.name
}

// SystemPrompt returns the base system prompt without retrieved context.
func (a *Agent) SystemPrompt() string {
	return BuildSystemPrompt(a.name, a.personality, a.instructions, nil)
}

// Search queries the knowledge base directly. Without a knowledge base it
// returns an empty result, not an error.
func (a *Agent) Search(ctx context.Context, query string, limit int) ([]knowledge.Result, error) {
	if a.knowledge == nil {
		return nil, nil
	}
	return a.knowledge.Search(ctx, query, limit)
}

// Respond runs one chat turn. Each generated token is passed to emit as it
// arrives; an error from emit (typically a disconnected client) stops
// generation. History is persisted in the background only after the stream
// was fully consumed, and its failure reaches OnPersistError rather than
// the caller.
func (a *Agent) Respond(ctx context.Context, req *ChatRequest, emit func(token string) error) error {
	history, err := a.loadHistory(ctx, req.SessionID)
	if err != nil {
		return err
	}

	all := make([]memory.Message, 0, len(history)+len(req.Messages))
	all = append(all, history...)
	all = append(all, req.Messages...)

	retrieved, err := a.retrieveContext(ctx, req.Messages)
	if err != nil {
		return err
	}

	system := BuildSystemPrompt(a.name, a.personality, a.instructions, retrieved)

	genCtx, cancel := context.WithTimeout(ctx, a.generateTimeout)
	defer cancel()

	stream, err := a.generator.Stream(genCtx, system, all)
	if err != nil {
		return &BackendError{Err: err}
	}
	defer func() { _ = stream.Close() }()

	var response strings.Builder
	for {
		token, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &BackendError{Err: err}
		}
		if token == "" {
			continue
		}
		response.WriteString(token)
		if err := emit(token); err != nil {
			// Consumer stopped reading; release the stream and skip
			// persistence since the turn never completed.
			return fmt.Errorf("emit token: %w", err)
		}
	}

	a.schedulePersist(req.SessionID, all, response.String())
	return nil
}

// loadHistory returns the session's prior messages, trimmed to the
// configured bound. Empty without a memory store or session id.
func (a *Agent) loadHistory(ctx context.Context, sessionID string) ([]memory.Message, error) {
	if a.memory == nil || sessionID == "" {
		return nil, nil
	}

	history, err := a.memory.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history for session %s: %w", sessionID, err)
	}
	if a.maxHistory > 0 {
		history = memory.TrimHistory(history, a.maxHistory)
	}
	return history, nil
}

// retrieveContext searches the knowledge base for the last user-role
// message among the new turns.
func (a *Agent) retrieveContext(ctx context.Context, messages []memory.Message) ([]knowledge.Result, error) {
	if a.knowledge == nil {
		return nil, nil
	}

	var query string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == memory.RoleUser {
			query = messages[i].Content
			break
		}
	}
	if query == "" {
		return nil, nil
	}

	results, err := a.knowledge.Search(ctx, query, a.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	return results, nil
}

// schedulePersist appends the assistant's reply to the conversation and
// writes the full list in the background. The write uses its own context:
// a client disconnect after the stream completed must not cancel it.
func (a *Agent) schedulePersist(sessionID string, conversation []memory.Message, response string) {
	if a.memory == nil || sessionID == "" {
		return
	}

	final := make([]memory.Message, 0, len(conversation)+1)
	final = append(final, conversation...)
	final = append(final, memory.Message{
		ID:        uuid.NewString(),
		Role:      memory.RoleAssistant,
		Content:   response,
		CreatedAt: time.Now(),
	})

	a.persistWG.Add(1)
	go func() {
		defer a.persistWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := a.memory.Set(ctx, sessionID, final); err != nil {
			a.logger.Error("failed to persist history", "sessionId", sessionID, "error", err)
			if a.onPersistError != nil {
				a.onPersistError(err)
			}
		}
	}()
}

// Flush blocks until all scheduled history writes have finished. Call
// during graceful shutdown.
func (a *Agent) Flush() {
	a.persistWG.Wait()
}
