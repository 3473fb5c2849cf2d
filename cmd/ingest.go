package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [source...]",
	Short: "Load sources into the knowledge base",
	Long: `ingest loads the given sources (file paths, directories, or URLs) in
addition to any configured in the config file, embeds their chunks, and
writes them to the configured vector store.

With the in-memory vector store this only verifies that the sources load and
embed cleanly; nothing survives the process. Use the postgres store to build
a persistent index.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Sources = append(cfg.Sources, args...)
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("no sources given: pass paths or URLs, or set sources in the config file")
	}
	logger := newLogger(cfg)

	base, cs, err := newKnowledgeBase(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer cs.closeAll(logger)

	fmt.Fprintf(cmd.OutOrStdout(), "ingested %d chunks from %d sources\n", base.Count(), len(cfg.Sources))
	return nil
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
