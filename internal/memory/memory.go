package memory

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MapStore is an in-process Store for development and tests. Safe for
// concurrent use.
type MapStore struct {
	mu       sync.RWMutex
	sessions map[string]SessionData
}

// NewMapStore creates an empty in-process store.
func NewMapStore() *MapStore {
	return &MapStore{sessions: make(map[string]SessionData)}
}

// Get returns the session's messages, or (nil, nil) if the key is unknown.
func (s *MapStore) Get(_ context.Context, key string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.sessions[key]
	if !ok {
		return nil, nil
	}
	messages := make([]Message, len(data.Messages))
	copy(messages, data.Messages)
	return messages, nil
}

// Set replaces the session's messages, preserving the original creation
// time across updates.
func (s *MapStore) Set(_ context.Context, key string, messages []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	createdAt := now
	if existing, ok := s.sessions[key]; ok {
		createdAt = existing.CreatedAt
	}

	stored := make([]Message, len(messages))
	copy(stored, messages)
	s.sessions[key] = SessionData{
		Messages:  stored,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	return nil
}

// Delete removes the session. Deleting an unknown key is a no-op.
func (s *MapStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// List returns keys starting with keyPrefix.
func (s *MapStore) List(_ context.Context, keyPrefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.sessions))
	for key := range s.sessions {
		if strings.HasPrefix(key, keyPrefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
