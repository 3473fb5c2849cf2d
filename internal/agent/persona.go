package agent

import (
	"fmt"
	"os"
	"strings"
)

// isPersonaPath reports whether value looks like a file path rather than
// inline personality text.
func isPersonaPath(value string) bool {
	return strings.HasSuffix(value, ".md") ||
		strings.HasSuffix(value, ".txt") ||
		strings.HasPrefix(value, "./") ||
		strings.HasPrefix(value, "/")
}

// ResolvePersonality turns a personality config value into text: a path is
// read from disk and trimmed, anything else passes through as-is.
func ResolvePersonality(personality string) (string, error) {
	if personality == "" || !isPersonaPath(personality) {
		return personality, nil
	}

	content, err := os.ReadFile(personality)
	if err != nil {
		return "", fmt.Errorf("load persona file %s: %w", personality, err)
	}
	return strings.TrimSpace(string(content)), nil
}
