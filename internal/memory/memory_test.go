package memory

import (
	"context"
	"slices"
	"testing"
)

func TestValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{role: RoleUser, want: true},
		{role: RoleAssistant, want: true},
		{role: RoleSystem, want: true},
		{role: "tool", want: false},
		{role: "", want: false},
		{role: "User", want: false},
	}
	for _, tt := range tests {
		if got := ValidRole(tt.role); got != tt.want {
			t.Errorf("ValidRole(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestMapStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMapStore()

	messages := []Message{
		{ID: "m1", Role: RoleUser, Content: "hello"},
		{ID: "m2", Role: RoleAssistant, Content: "hi there"},
	}
	if err := s.Set(ctx, "session-1", messages); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got) != 2 || got[0].Content != "hello" || got[1].Role != RoleAssistant {
		t.Errorf("Get() = %+v, want stored messages", got)
	}
}

func TestMapStoreGetUnknownKey(t *testing.T) {
	got, err := NewMapStore().Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %v, want nil for unknown key", got)
	}
}

func TestMapStoreSetReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMapStore()

	if err := s.Set(ctx, "k", []Message{{ID: "a", Role: RoleUser, Content: "one"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", []Message{{ID: "b", Role: RoleUser, Content: "two"}}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("Get() = %+v, want full replacement", got)
	}
}

func TestMapStorePreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewMapStore()

	if err := s.Set(ctx, "k", nil); err != nil {
		t.Fatal(err)
	}
	created := s.sessions["k"].CreatedAt

	if err := s.Set(ctx, "k", []Message{{ID: "a", Role: RoleUser}}); err != nil {
		t.Fatal(err)
	}
	if got := s.sessions["k"].CreatedAt; got != created {
		t.Errorf("CreatedAt changed on update: %d -> %d", created, got)
	}
	if s.sessions["k"].UpdatedAt < created {
		t.Error("UpdatedAt went backwards")
	}
}

func TestMapStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMapStore()

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

	// Deleting again is a no-op.
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() of unknown key error = %v", err)
	}
}

func TestMapStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMapStore()
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
	want := []string{"chat-1", "chat-2"}
	if !slices.Equal(got, want) {
		t.Errorf("List(chat-) = %v, want %v", got, want)
	}

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("List(\"\") = %d keys, want 3", len(all))
	}
}

func TestMapStoreDefensiveCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMapStore()

	original := []Message{{ID: "a", Role: RoleUser, Content: "hello"}}
	if err := s.Set(ctx, "k", original); err != nil {
		t.Fatal(err)
	}
	original[0].Content = "mutated"

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Content != "hello" {
		t.Errorf("stored message mutated through caller slice: %q", got[0].Content)
	}

	got[0].Content = "mutated again"
	again, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if again[0].Content != "hello" {
		t.Errorf("stored message mutated through returned slice: %q", again[0].Content)
	}
}

func TestOptionsPrefix(t *testing.T) {
	if got := (Options{}).prefix(); got != DefaultPrefix {
		t.Errorf("empty Options prefix = %q, want %q", got, DefaultPrefix)
	}
	if got := (Options{Prefix: "custom"}).prefix(); got != "custom" {
		t.Errorf("prefix = %q, want custom", got)
	}

	full := applyPrefix("app", "session-1")
	if full != "app:session-1" {
		t.Errorf("applyPrefix = %q", full)
	}
	if got := stripPrefix("app", full); got != "session-1" {
		t.Errorf("stripPrefix = %q, want session-1", got)
	}
}
