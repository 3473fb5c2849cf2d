// Package memory provides per-session conversation history persistence.
//
// A Store maps a session key to an ordered message list. The agent treats
// history as append-only: it reads the list, extends it with new turns, and
// rewrites the whole list. Backends wrap the list in a session record that
// tracks creation and update times.
//
// Three implementations ship with the package: MapStore (in-process, for
// tests and development), RedisStore, and SQLiteStore.
package memory

import (
	"context"
	"strings"
	"time"
)

// Store persists per-session message history.
//
// Get returns (nil, nil) for an unknown key. Set replaces the full message
// list. List returns caller-facing keys (internal namespace prefixes
// stripped) for sessions whose key starts with keyPrefix.
type Store interface {
	Get(ctx context.Context, key string) ([]Message, error)
	Set(ctx context.Context, key string, messages []Message) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, keyPrefix string) ([]string, error)
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ValidRole reports whether role is one of user, assistant, or system.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant || role == RoleSystem
}

// Message is a single conversation turn.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// SessionData is the persisted payload for one session. CreatedAt is set on
// first write and preserved across updates; UpdatedAt refreshes on every
// write. Both are epoch milliseconds.
type SessionData struct {
	Messages  []Message `json:"messages"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
}

// DefaultPrefix namespaces keys in shared backends.
const DefaultPrefix = "personakit"

// Options configures backing stores.
type Options struct {
	// Prefix namespaces keys. Empty means DefaultPrefix; prefix stripping
	// round-trips, so List always returns caller-facing keys.
	Prefix string

	// TTL expires sessions after the given duration where the backend
	// supports it. Zero means no expiry.
	TTL time.Duration
}

func (o Options) prefix() string {
	if o.Prefix == "" {
		return DefaultPrefix
	}
	return o.Prefix
}

func applyPrefix(prefix, key string) string {
	return prefix + ":" + key
}

func stripPrefix(prefix, key string) string {
	return strings.TrimPrefix(key, prefix+":")
}
