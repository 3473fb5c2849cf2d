package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/personakit/personakit/internal/config"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Query the knowledge base",
	Long: `search embeds the query and prints the most similar chunks with their
scores. With the in-memory vector store the configured sources are ingested
first; with postgres the existing index is queried directly.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Sources) == 0 && cfg.VectorStore == config.VectorStoreMemory {
		return fmt.Errorf("nothing to search: configure sources or a postgres vector store")
	}
	logger := newLogger(cfg)

	base, cs, err := newKnowledgeBase(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cs.closeAll(logger)

	query := strings.Join(args, " ")
	results, err := base.Search(cmd.Context(), query, searchLimit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no results")
		return nil
	}

	out := cmd.OutOrStdout()
	for i, r := range results {
		fmt.Fprintf(out, "%d. [%.4f] %s (%s)\n", i+1, r.Score, r.Document.ID, r.Document.Source)
		fmt.Fprintf(out, "   %s\n", firstLine(r.Document.Content))
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 120
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}
