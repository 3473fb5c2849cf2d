package knowledge

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileLoader dispatches filesystem sources: directories are walked
// recursively and filtered to files the markdown loader recognizes; single
// files are delegated directly. Unrecognized file types are skipped without
// error.
type FileLoader struct {
	markdown *MarkdownLoader
}

// NewFileLoader creates a file loader with the given chunking parameters.
func NewFileLoader(chunkSize, chunkOverlap int) *FileLoader {
	return &FileLoader{markdown: NewMarkdownLoader(chunkSize, chunkOverlap)}
}

// CanHandle always reports true: the file loader is the fallback for any
// source no other loader claimed.
func (*FileLoader) CanHandle(string) bool {
	return true
}

// Load reads a file or directory source and returns all chunks produced by
// the delegated loaders.
func (l *FileLoader) Load(ctx context.Context, source string) ([]Document, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", source, err)
	}

	if !info.IsDir() {
		if !l.markdown.CanHandle(source) {
			return nil, nil
		}
		return l.markdown.Load(ctx, source)
	}

	var docs []Document
	err = filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !l.markdown.CanHandle(path) {
			return nil
		}
		loaded, err := l.markdown.Load(ctx, path)
		if err != nil {
			return err
		}
		docs = append(docs, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", source, err)
	}

	return docs, nil
}
