package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// frontMatterBlock matches a leading front-matter block: a line of three
// dashes, a body, and a closing line of three dashes.
var frontMatterBlock = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n`)

// parseFrontMatter strips a leading front-matter block from content and
// returns its fields alongside the remaining body. The parse is shallow:
// each line splits on the first colon only, with no nested structures.
func parseFrontMatter(content string) (map[string]any, string) {
	metadata := make(map[string]any)

	m := frontMatterBlock.FindStringSubmatch(content)
	if m == nil {
		return metadata, content
	}

	for _, line := range strings.Split(m[1], "\n") {
		colon := strings.Index(line, ":")
		if colon <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		metadata[key] = value
	}

	return metadata, content[len(m[0]):]
}

// MarkdownLoader loads a single markdown file, stripping front-matter and
// chunking the body. Front-matter fields merge into every chunk's metadata.
type MarkdownLoader struct {
	chunkSize    int
	chunkOverlap int
}

// NewMarkdownLoader creates a markdown loader with the given chunking
// parameters. Non-positive chunkSize falls back to DefaultChunkSize and a
// negative overlap to DefaultChunkOverlap.
func NewMarkdownLoader(chunkSize, chunkOverlap int) *MarkdownLoader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &MarkdownLoader{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// CanHandle reports whether source has a markdown extension.
func (*MarkdownLoader) CanHandle(source string) bool {
	return strings.HasSuffix(source, ".md") || strings.HasSuffix(source, ".markdown")
}

// Load reads the file, strips front-matter, and chunks the body. Chunk IDs
// are "<basename>-<index>".
func (l *MarkdownLoader) Load(_ context.Context, source string) ([]Document, error) {
	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	frontMatter, body := parseFrontMatter(string(raw))
	chunks := Chunk(body, l.chunkSize, l.chunkOverlap)

	base := filepath.Base(source)
	docs := make([]Document, 0, len(chunks))
	for i, text := range chunks {
		metadata := make(map[string]any, len(frontMatter)+2)
		for k, v := range frontMatter {
			metadata[k] = v
		}
		metadata[MetaChunkIndex] = i
		metadata[MetaTotalChunks] = len(chunks)

		docs = append(docs, Document{
			ID:       fmt.Sprintf("%s-%d", base, i),
			Content:  text,
			Source:   source,
			Metadata: metadata,
		})
	}

	return docs, nil
}
