package agent

import (
	"strings"

	"github.com/personakit/personakit/internal/knowledge"
)

// BuildSystemPrompt renders the agent identity, personality, instructions,
// and retrieved context into one system prompt. It is deterministic and
// side-effect-free; sections with empty input are omitted entirely.
//
// Context entries appear in the order given (descending similarity from
// retrieval). Repeated sources are not deduplicated and no token budget is
// applied: callers bound prompt size through chunk size and search limit.
func BuildSystemPrompt(name, personality, instructions string, context []knowledge.Result) string {
	parts := []string{"You are " + name + "."}

	if personality != "" {
		parts = append(parts, "", "## Personality", personality)
	}

	if instructions != "" {
		parts = append(parts, "", "## Instructions", instructions)
	}

	if len(context) > 0 {
		parts = append(parts, "", "## Relevant Context",
			"Use the following information to answer the user's question:", "")
		for _, result := range context {
			parts = append(parts, "### Source: "+result.Document.Source, result.Document.Content, "")
		}
	}

	return strings.Join(parts, "\n")
}
