// Package cmd implements the personakit command-line interface.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "personakit",
	Short: "personakit - toolkit for persona-driven AI chat agents",
	Long: `personakit serves a conversational AI agent composed from a persona,
instructions, an optional knowledge base (RAG), and optional session memory.

Commands:
  serve    start the HTTP chat server
  ingest   load the configured sources and report chunk counts
  search   query the knowledge base from the command line`,
	PersistentPreRun: func(*cobra.Command, []string) {
		// Best effort: a missing .env file is not an error.
		_ = godotenv.Load()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML)")
}
