package agent

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsPersonaPath(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{value: "persona.md", want: true},
		{value: "persona.txt", want: true},
		{value: "./persona", want: true},
		{value: "/etc/persona", want: true},
		{value: "You are a helpful assistant.", want: false},
		{value: "", want: false},
		{value: "markdown lover", want: false},
	}
	for _, tt := range tests {
		if got := isPersonaPath(tt.value); got != tt.want {
			t.Errorf("isPersonaPath(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestResolvePersonalityInline(t *testing.T) {
	inline := "Warm, patient, a little sarcastic."
	got, err := ResolvePersonality(inline)
	if err != nil {
		t.Fatalf("ResolvePersonality() error = %v", err)
	}
	if got != inline {
		t.Errorf("ResolvePersonality() = %q, want passthrough", got)
	}
}

func TestResolvePersonalityFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.md")
	if err := os.WriteFile(path, []byte("  File persona.\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ResolvePersonality(path)
	if err != nil {
		t.Fatalf("ResolvePersonality() error = %v", err)
	}
	if got != "File persona." {
		t.Errorf("ResolvePersonality() = %q, want trimmed file content", got)
	}
}

func TestResolvePersonalityMissingFile(t *testing.T) {
	if _, err := ResolvePersonality(filepath.Join(t.TempDir(), "absent.md")); err == nil {
		t.Fatal("ResolvePersonality() error = nil, want read error")
	}
}

func TestResolvePersonalityEmpty(t *testing.T) {
	got, err := ResolvePersonality("")
	if err != nil {
		t.Fatalf("ResolvePersonality() error = %v", err)
	}
	if got != "" {
		t.Errorf("ResolvePersonality(\"\") = %q, want empty", got)
	}
}
