package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by a Redis-compatible key-value server.
// Sessions live under "<prefix>:<key>" and can expire via Options.TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. The client's lifecycle stays
// with the caller.
func NewRedisStore(client redis.UniversalClient, opts Options) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: opts.prefix(),
		ttl:    opts.TTL,
	}
}

// Get returns the session's messages, or (nil, nil) if the key is unknown.
func (s *RedisStore) Get(ctx context.Context, key string) ([]Message, error) {
	data, err := s.load(ctx, applyPrefix(s.prefix, key))
	if err != nil || data == nil {
		return nil, err
	}
	return data.Messages, nil
}

// Set replaces the session's messages, preserving the original creation
// time across updates and refreshing the TTL when one is configured.
func (s *RedisStore) Set(ctx context.Context, key string, messages []Message) error {
	fullKey := applyPrefix(s.prefix, key)
	now := time.Now().UnixMilli()

	createdAt := now
	if existing, err := s.load(ctx, fullKey); err != nil {
		return err
	} else if existing != nil {
		createdAt = existing.CreatedAt
	}

	payload, err := json.Marshal(SessionData{
		Messages:  messages,
		CreatedAt: createdAt,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("marshal session %q: %w", key, err)
	}

	if err := s.client.Set(ctx, fullKey, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session %q: %w", key, err)
	}
	return nil
}

// Delete removes the session. Deleting an unknown key is a no-op.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, applyPrefix(s.prefix, key)).Err(); err != nil {
		return fmt.Errorf("delete session %q: %w", key, err)
	}
	return nil
}

// List returns caller-facing keys starting with keyPrefix, the namespace
// prefix stripped.
func (s *RedisStore) List(ctx context.Context, keyPrefix string) ([]string, error) {
	pattern := scanPattern(applyPrefix(s.prefix, keyPrefix))

	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, stripPrefix(s.prefix, iter.Val()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return keys, nil
}

// scanPattern escapes SCAN glob metacharacters in prefix and appends *.
func scanPattern(prefix string) string {
	escaped := make([]byte, 0, len(prefix)+1)
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '*', '?', '[', ']', '\\':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, prefix[i])
	}
	return string(escaped) + "*"
}

func (s *RedisStore) load(ctx context.Context, fullKey string) (*SessionData, error) {
	raw, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %q: %w", fullKey, err)
	}

	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal session %q: %w", fullKey, err)
	}
	return &data, nil
}
