// Package config provides application configuration with multi-source
// priority.
//
// Sources (highest to lowest):
//  1. Environment variables (PERSONAKIT_* overrides)
//  2. Config file (YAML, path given on the command line)
//  3. Defaults
//
// Validation uses sentinel errors so callers can branch with errors.Is().
// Secrets are masked in MarshalJSON; never log a Config except through its
// JSON form.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	// ErrMissingName indicates the agent name is not set.
	ErrMissingName = errors.New("missing agent name")

	// ErrMissingAPIKey indicates the OpenAI API key is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidChunkSize indicates chunk_size is not positive.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidChunkOverlap indicates chunk_overlap is negative or not
	// smaller than chunk_size.
	ErrInvalidChunkOverlap = errors.New("invalid chunk overlap")

	// ErrInvalidMemoryBackend indicates an unknown memory backend name.
	ErrInvalidMemoryBackend = errors.New("invalid memory backend")

	// ErrInvalidVectorStore indicates an unknown vector store name.
	ErrInvalidVectorStore = errors.New("invalid vector store")

	// ErrMissingPostgresURL indicates the postgres vector store was
	// selected without a connection string.
	ErrMissingPostgresURL = errors.New("missing postgres URL")

	// ErrMissingSQLitePath indicates the sqlite memory backend was
	// selected without a database path.
	ErrMissingSQLitePath = errors.New("missing sqlite path")
)

// Memory backend identifiers used in Config.MemoryBackend.
const (
	MemoryBackendNone   = "none"
	MemoryBackendMap    = "map"
	MemoryBackendRedis  = "redis"
	MemoryBackendSQLite = "sqlite"
)

// Vector store identifiers used in Config.VectorStore.
const (
	VectorStoreMemory   = "memory"
	VectorStorePostgres = "postgres"
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON. When adding new
// secrets (API keys, passwords, connection strings), update MarshalJSON.
type Config struct {
	// Agent identity
	Name         string `mapstructure:"name" json:"name"`
	Personality  string `mapstructure:"personality" json:"personality"` // inline text or a .md/.txt path
	Instructions string `mapstructure:"instructions" json:"instructions"`

	// Knowledge base
	Sources      []string `mapstructure:"sources" json:"sources"` // file paths, directories, URLs
	ChunkSize    int      `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int      `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	VectorStore  string   `mapstructure:"vector_store" json:"vector_store"` // "memory" or "postgres"
	PostgresURL  string   `mapstructure:"postgres_url" json:"-"`

	// Backends
	OpenAIAPIKey   string `mapstructure:"openai_api_key" json:"-"`
	Model          string `mapstructure:"model" json:"model"`
	EmbeddingModel string `mapstructure:"embedding_model" json:"embedding_model"`

	// Memory
	MemoryBackend string        `mapstructure:"memory_backend" json:"memory_backend"` // none|map|redis|sqlite
	RedisAddr     string        `mapstructure:"redis_addr" json:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" json:"-"`
	SQLitePath    string        `mapstructure:"sqlite_path" json:"sqlite_path"`
	MemoryPrefix  string        `mapstructure:"memory_prefix" json:"memory_prefix"`
	MemoryTTL     time.Duration `mapstructure:"memory_ttl" json:"memory_ttl"`
	MaxHistory    int           `mapstructure:"max_history" json:"max_history"`

	// Server
	Addr string `mapstructure:"addr" json:"addr"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`

	// Tracing (OTLP HTTP export to a local collector)
	TracingEnabled  bool   `mapstructure:"tracing_enabled" json:"tracing_enabled"`
	TracingEndpoint string `mapstructure:"tracing_endpoint" json:"tracing_endpoint"`
	Environment     string `mapstructure:"environment" json:"environment"`
}

// Load reads configuration from defaults, an optional YAML file, and
// PERSONAKIT_* environment variables, then validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("name", "Assistant")
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 200)
	v.SetDefault("vector_store", VectorStoreMemory)
	v.SetDefault("model", "gpt-4o-mini")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("memory_backend", MemoryBackendMap)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("memory_prefix", "personakit")
	v.SetDefault("max_history", 50)
	v.SetDefault("addr", "127.0.0.1:8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("tracing_endpoint", "localhost:4318")
	v.SetDefault("environment", "development")

	v.SetEnvPrefix("PERSONAKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Name == "" {
		return ErrMissingName
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d", ErrInvalidChunkOverlap, c.ChunkOverlap)
	}

	switch c.VectorStore {
	case VectorStoreMemory:
	case VectorStorePostgres:
		if c.PostgresURL == "" {
			return ErrMissingPostgresURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidVectorStore, c.VectorStore)
	}

	switch c.MemoryBackend {
	case MemoryBackendNone, MemoryBackendMap, MemoryBackendRedis:
	case MemoryBackendSQLite:
		if c.SQLitePath == "" {
			return ErrMissingSQLitePath
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMemoryBackend, c.MemoryBackend)
	}

	return nil
}

// RequireAPIKey validates that the OpenAI API key is present. Split from
// Validate so offline commands (version, config inspection) work without
// credentials.
func (c *Config) RequireAPIKey() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("%w: set PERSONAKIT_OPENAI_API_KEY", ErrMissingAPIKey)
	}
	return nil
}

// MarshalJSON masks secret fields.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config // drop methods to avoid recursion

	masked := alias(c)
	if masked.OpenAIAPIKey != "" {
		masked.OpenAIAPIKey = "***"
	}
	if masked.RedisPassword != "" {
		masked.RedisPassword = "***"
	}
	if masked.PostgresURL != "" {
		masked.PostgresURL = "***"
	}
	return json.Marshal(masked)
}
