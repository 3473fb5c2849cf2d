package memory

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
)

func newTestSQLiteStore(t *testing.T, opts Options) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "memory.db"), opts)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t, Options{})

	messages := []Message{
		{ID: "m1", Role: RoleUser, Content: "hello"},
		{ID: "m2", Role: RoleAssistant, Content: "hi"},
	}
	if err := s.Set(ctx, "session-1", messages); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "m1" || got[1].Content != "hi" {
		t.Errorf("Get() = %+v, want stored messages", got)
	}
}

func TestSQLiteStoreGetUnknownKey(t *testing.T) {
	s := newTestSQLiteStore(t, Options{})

	got, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %v, want nil for unknown key", got)
	}
}

func TestSQLiteStoreSetReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t, Options{})

	if err := s.Set(ctx, "k", []Message{{ID: "a", Role: RoleUser}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", []Message{{ID: "b", Role: RoleUser}, {ID: "c", Role: RoleAssistant}}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "b" {
		t.Errorf("Get() = %+v, want replacement list", got)
	}
}

func TestSQLiteStorePreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t, Options{})

	if err := s.Set(ctx, "k", nil); err != nil {
		t.Fatal(err)
	}
	var created int64
	if err := s.db.QueryRow(`SELECT created_at FROM personakit_memory`).Scan(&created); err != nil {
		t.Fatal(err)
	}

	if err := s.Set(ctx, "k", []Message{{ID: "a", Role: RoleUser}}); err != nil {
		t.Fatal(err)
	}
	var after int64
	if err := s.db.QueryRow(`SELECT created_at FROM personakit_memory`).Scan(&after); err != nil {
		t.Fatal(err)
	}
	if after != created {
		t.Errorf("created_at changed on update: %d -> %d", created, after)
	}
}

func TestSQLiteStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t, Options{})

	if err := s.Set(ctx, "k", []Message{{ID: "a", Role: RoleUser}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Get() after Delete = %v, want nil", got)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() of unknown key error = %v", err)
	}
}

func TestSQLiteStoreList(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t, Options{Prefix: "app"})

	for _, key := range []string{"chat-1", "chat-2", "other-1"} {
		if err := s.Set(ctx, key, nil); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.List(ctx, "chat-")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	slices.Sort(got)
	if !slices.Equal(got, []string{"chat-1", "chat-2"}) {
		t.Errorf("List(chat-) = %v, want prefix-stripped chat keys", got)
	}

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("List(\"\") = %d keys, want 3", len(all))
	}
}

func TestSQLiteStoreListEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t, Options{})

	if err := s.Set(ctx, "a_b", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "axb", nil); err != nil {
		t.Fatal(err)
	}

	got, err := s.List(ctx, "a_")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 || got[0] != "a_b" {
		t.Errorf("List(a_) = %v, want only the literal underscore key", got)
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "plain", want: "plain%"},
		{prefix: "a_b", want: `a\_b%`},
		{prefix: "50%", want: `50\%%`},
		{prefix: `back\slash`, want: `back\\slash%`},
		{prefix: "", want: "%"},
	}
	for _, tt := range tests {
		if got := likePattern(tt.prefix); got != tt.want {
			t.Errorf("likePattern(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}
