package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/personakit/personakit/internal/agent"
	"github.com/personakit/personakit/internal/config"
	"github.com/personakit/personakit/internal/embed"
	"github.com/personakit/personakit/internal/knowledge"
	"github.com/personakit/personakit/internal/llm"
	"github.com/personakit/personakit/internal/log"
	"github.com/personakit/personakit/internal/memory"
)

// closers collects resources that need teardown after a command finishes.
type closers []func() error

func (c closers) closeAll(logger log.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			logger.Warn("close resource", "error", err)
		}
	}
}

func newLogger(cfg *config.Config) log.Logger {
	return log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})
}

// newKnowledgeBase builds the configured vector store and knowledge base,
// ingesting cfg.Sources. Returns (nil, nil, nil) when no sources are
// configured and the memory store is selected, since an empty in-memory base
// has nothing to serve.
func newKnowledgeBase(ctx context.Context, cfg *config.Config, logger log.Logger) (*knowledge.Base, closers, error) {
	if len(cfg.Sources) == 0 && cfg.VectorStore == config.VectorStoreMemory {
		return nil, nil, nil
	}

	embedder, err := embed.NewOpenAI(embed.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  openai.EmbeddingModel(cfg.EmbeddingModel),
	})
	if err != nil {
		return nil, nil, err
	}

	var (
		store knowledge.VectorStore
		cs    closers
	)
	switch cfg.VectorStore {
	case config.VectorStorePostgres:
		pg, err := knowledge.NewPostgresStore(ctx, cfg.PostgresURL, embedder.Dimension(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres vector store: %w", err)
		}
		cs = append(cs, func() error { pg.Close(); return nil })
		store = pg
	default:
		store = knowledge.NewMemoryStore()
	}

	base, err := knowledge.New(ctx, knowledge.Config{
		Sources:      cfg.Sources,
		Embedder:     embedder,
		VectorStore:  store,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		Logger:       logger,
	})
	if err != nil {
		cs.closeAll(logger)
		return nil, nil, err
	}
	return base, cs, nil
}

func newMemoryStore(cfg *config.Config, logger log.Logger) (memory.Store, closers, error) {
	opts := memory.Options{Prefix: cfg.MemoryPrefix, TTL: cfg.MemoryTTL}

	switch cfg.MemoryBackend {
	case config.MemoryBackendNone:
		return nil, nil, nil
	case config.MemoryBackendMap:
		return memory.NewMapStore(), nil, nil
	case config.MemoryBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		cs := closers{client.Close}
		return memory.NewRedisStore(client, opts), cs, nil
	case config.MemoryBackendSQLite:
		store, err := memory.NewSQLiteStore(cfg.SQLitePath, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite memory store: %w", err)
		}
		return store, closers{store.Close}, nil
	default:
		// Unreachable after config.Validate, kept for defense.
		return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidMemoryBackend, cfg.MemoryBackend)
	}
}

// newAgent assembles the full pipeline behind the chat endpoint.
func newAgent(ctx context.Context, cfg *config.Config, logger log.Logger) (*agent.Agent, memory.Store, closers, error) {
	var all closers

	base, cs, err := newKnowledgeBase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	all = append(all, cs...)

	store, cs, err := newMemoryStore(cfg, logger)
	if err != nil {
		all.closeAll(logger)
		return nil, nil, nil, err
	}
	all = append(all, cs...)

	generator, err := llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.Model)
	if err != nil {
		all.closeAll(logger)
		return nil, nil, nil, err
	}

	agentCfg := agent.Config{
		Name:         cfg.Name,
		Personality:  cfg.Personality,
		Instructions: cfg.Instructions,
		Memory:       store,
		Generator:    generator,
		MaxHistory:   cfg.MaxHistory,
		Logger:       logger,
	}
	if base != nil {
		agentCfg.Knowledge = base
	}

	a, err := agent.New(agentCfg)
	if err != nil {
		all.closeAll(logger)
		return nil, nil, nil, err
	}
	return a, store, all, nil
}

// loadConfig reads and validates the configuration for commands that talk to
// OpenAI.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func formatSources(sources []string) string {
	if len(sources) == 0 {
		return "(none)"
	}
	return strings.Join(sources, ", ")
}
