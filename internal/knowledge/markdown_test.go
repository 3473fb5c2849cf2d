package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantMeta map[string]any
		wantBody string
	}{
		{
			name:     "no front matter",
			content:  "# Title\n\nBody text.",
			wantMeta: map[string]any{},
			wantBody: "# Title\n\nBody text.",
		},
		{
			name:     "basic fields",
			content:  "---\ntitle: Hello\nauthor: Ada\n---\nBody.",
			wantMeta: map[string]any{"title": "Hello", "author": "Ada"},
			wantBody: "Body.",
		},
		{
			name:     "splits on first colon only",
			content:  "---\nurl: https://example.com/page\n---\nBody.",
			wantMeta: map[string]any{"url": "https://example.com/page"},
			wantBody: "Body.",
		},
		{
			name:     "skips lines without colon",
			content:  "---\ntitle: Hi\njust a line\n---\nBody.",
			wantMeta: map[string]any{"title": "Hi"},
			wantBody: "Body.",
		},
		{
			name:     "unterminated block is body",
			content:  "---\ntitle: Hi\nBody without close.",
			wantMeta: map[string]any{},
			wantBody: "---\ntitle: Hi\nBody without close.",
		},
		{
			name:     "dashes mid-document are ignored",
			content:  "Intro.\n---\ntitle: Hi\n---\nMore.",
			wantMeta: map[string]any{},
			wantBody: "Intro.\n---\ntitle: Hi\n---\nMore.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, body := parseFrontMatter(tt.content)
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
			if len(meta) != len(tt.wantMeta) {
				t.Fatalf("metadata = %v, want %v", meta, tt.wantMeta)
			}
			for k, want := range tt.wantMeta {
				if got := meta[k]; got != want {
					t.Errorf("metadata[%q] = %v, want %v", k, got, want)
				}
			}
		})
	}
}

func TestMarkdownLoaderCanHandle(t *testing.T) {
	l := NewMarkdownLoader(0, -1)

	tests := []struct {
		source string
		want   bool
	}{
		{source: "notes.md", want: true},
		{source: "guide.markdown", want: true},
		{source: "doc/readme.md", want: true},
		{source: "notes.txt", want: false},
		{source: "page.html", want: false},
		{source: "md", want: false},
	}
	for _, tt := range tests {
		if got := l.CanHandle(tt.source); got != tt.want {
			t.Errorf("CanHandle(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}

func TestMarkdownLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.md")
	content := "---\ntitle: Guide\n---\nFirst paragraph.\n\nSecond paragraph."
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	docs, err := NewMarkdownLoader(1000, 200).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("Load() = %d documents, want 1", len(docs))
	}

	doc := docs[0]
	if doc.ID != "guide.md-0" {
		t.Errorf("ID = %q, want %q", doc.ID, "guide.md-0")
	}
	if doc.Source != path {
		t.Errorf("Source = %q, want %q", doc.Source, path)
	}
	if doc.Content != "First paragraph.\n\nSecond paragraph." {
		t.Errorf("Content = %q", doc.Content)
	}
	if got := doc.Metadata["title"]; got != "Guide" {
		t.Errorf("Metadata[title] = %v, want Guide", got)
	}
	if got := doc.Metadata[MetaChunkIndex]; got != 0 {
		t.Errorf("Metadata[%s] = %v, want 0", MetaChunkIndex, got)
	}
	if got := doc.Metadata[MetaTotalChunks]; got != 1 {
		t.Errorf("Metadata[%s] = %v, want 1", MetaTotalChunks, got)
	}
}

func TestMarkdownLoaderLoadMissingFile(t *testing.T) {
	_, err := NewMarkdownLoader(0, -1).Load(context.Background(), filepath.Join(t.TempDir(), "absent.md"))
	if err == nil {
		t.Fatal("Load() error = nil, want error for missing file")
	}
}

func TestFileLoaderSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.md")
	if err := os.WriteFile(path, []byte("Hello world."), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewFileLoader(1000, 200)
	if !l.CanHandle(path) {
		t.Error("CanHandle() = false, want true")
	}

	docs, err := l.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 1 || docs[0].Content != "Hello world." {
		t.Errorf("Load() = %+v, want one chunk", docs)
	}
}

func TestFileLoaderSkipsUnknownTypes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	if err := os.WriteFile(path, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	docs, err := NewFileLoader(1000, 200).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("Load() = %d documents, want 0 for unsupported type", len(docs))
	}
}

func TestFileLoaderWalksDirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		filepath.Join(dir, "a.md"):      "Alpha.",
		filepath.Join(sub, "b.md"):      "Beta.",
		filepath.Join(dir, "skip.txt"):  "not markdown",
		filepath.Join(sub, "skip.json"): "{}",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := NewFileLoader(1000, 200).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Load() = %d documents, want 2", len(docs))
	}

	contents := map[string]bool{}
	for _, d := range docs {
		contents[d.Content] = true
	}
	if !contents["Alpha."] || !contents["Beta."] {
		t.Errorf("loaded contents = %v, want Alpha. and Beta.", contents)
	}
}

func TestFileLoaderMissingSource(t *testing.T) {
	_, err := NewFileLoader(1000, 200).Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("Load() error = nil, want stat error")
	}
}
