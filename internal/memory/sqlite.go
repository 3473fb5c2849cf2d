package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const createMemoryTable = `
CREATE TABLE IF NOT EXISTS personakit_memory (
	key TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore is a Store backed by a SQLite database file. Suitable for
// single-host deployments that need history to survive restarts without an
// external service.
type SQLiteStore struct {
	db     *sql.DB
	prefix string
}

// NewSQLiteStore opens (or creates) the database at path and bootstraps the
// session table. Use ":memory:" for an ephemeral database.
func NewSQLiteStore(path string, opts Options) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(createMemoryTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create memory table: %w", err)
	}

	return &SQLiteStore{db: db, prefix: opts.prefix()}, nil
}

// Get returns the session's messages, or (nil, nil) if the key is unknown.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]Message, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM personakit_memory WHERE key = ?`,
		applyPrefix(s.prefix, key)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %q: %w", key, err)
	}

	var data SessionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("unmarshal session %q: %w", key, err)
	}
	return data.Messages, nil
}

// Set replaces the session's messages, preserving the original creation
// time across updates.
func (s *SQLiteStore) Set(ctx context.Context, key string, messages []Message) error {
	fullKey := applyPrefix(s.prefix, key)
	now := time.Now().UnixMilli()

	createdAt := now
	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM personakit_memory WHERE key = ?`, fullKey).Scan(&existing)
	switch {
	case err == nil:
		createdAt = existing
	case errors.Is(err, sql.ErrNoRows):
		// first write
	default:
		return fmt.Errorf("lookup session %q: %w", key, err)
	}

	payload, err := json.Marshal(SessionData{
		Messages:  messages,
		CreatedAt: createdAt,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("marshal session %q: %w", key, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO personakit_memory (key, data, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		fullKey, string(payload), createdAt, now); err != nil {
		return fmt.Errorf("set session %q: %w", key, err)
	}
	return nil
}

// Delete removes the session. Deleting an unknown key is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM personakit_memory WHERE key = ?`,
		applyPrefix(s.prefix, key)); err != nil {
		return fmt.Errorf("delete session %q: %w", key, err)
	}
	return nil
}

// List returns caller-facing keys starting with keyPrefix, the namespace
// prefix stripped.
func (s *SQLiteStore) List(ctx context.Context, keyPrefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM personakit_memory WHERE key LIKE ? ESCAPE '\'`,
		likePattern(applyPrefix(s.prefix, keyPrefix)))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan session key: %w", err)
		}
		keys = append(keys, stripPrefix(s.prefix, key))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return keys, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// likePattern escapes LIKE wildcards in prefix and appends %.
func likePattern(prefix string) string {
	escaped := make([]byte, 0, len(prefix)+1)
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '%', '_', '\\':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, prefix[i])
	}
	return string(escaped) + "%"
}
