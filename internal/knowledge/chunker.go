package knowledge

import (
	"regexp"
	"strings"
)

// Default chunking parameters, applied by Config when unset.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// paragraphSep matches paragraph boundaries: runs of two or more newlines.
var paragraphSep = regexp.MustCompile(`\n{2,}`)

// Chunk splits content into segments of roughly chunkSize characters at
// paragraph boundaries, carrying an overlap from the end of each closed
// segment into the next.
//
// The overlap is approximate: the last overlap/5 whitespace-delimited words
// of the closed segment are kept, using 5 characters as an average word
// length. Treat the overlap parameter as a hint measured in characters, not
// an exact carry.
//
// Whitespace-only paragraphs are skipped entirely. Empty input returns no
// chunks; input shorter than chunkSize returns a single trimmed chunk.
func Chunk(content string, chunkSize, overlap int) []string {
	paragraphs := paragraphSep.Split(content, -1)

	var chunks []string
	var current string

	for _, paragraph := range paragraphs {
		trimmed := strings.TrimSpace(paragraph)
		if trimmed == "" {
			continue
		}

		if len(current)+len(trimmed) > chunkSize && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			current = joinOverlap(overlapTail(current, overlap), trimmed)
			continue
		}

		if current == "" {
			current = trimmed
		} else {
			current += "\n\n" + trimmed
		}
	}

	if final := strings.TrimSpace(current); final != "" {
		chunks = append(chunks, final)
	}

	return chunks
}

// overlapTail returns the last overlap/5 words of chunk joined with spaces.
func overlapTail(chunk string, overlap int) string {
	keep := overlap / 5
	if keep <= 0 {
		return ""
	}

	words := strings.Fields(chunk)
	if keep > len(words) {
		keep = len(words)
	}
	return strings.Join(words[len(words)-keep:], " ")
}

func joinOverlap(tail, paragraph string) string {
	if tail == "" {
		return paragraph
	}
	return tail + "\n\n" + paragraph
}
