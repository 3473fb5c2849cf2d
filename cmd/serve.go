package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/personakit/personakit/api"
	"github.com/personakit/personakit/internal/observability"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat server",
	Long: `serve assembles the agent from the configuration and serves the chat
API until interrupted. SIGINT and SIGTERM trigger a graceful shutdown.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.TracingEndpoint,
			Environment: cfg.Environment,
		}, logger)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Warn("tracing shutdown failed", "error", err)
			}
		}()
	}

	a, store, cs, err := newAgent(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cs.closeAll(logger)

	logger.Info("agent ready",
		"name", a.Name(),
		"memory", cfg.MemoryBackend,
		"vector_store", cfg.VectorStore,
		"sources", formatSources(cfg.Sources))

	addr := serveAddr
	if addr == "" {
		addr = cfg.Addr
	}

	server := api.NewServer(a, store, logger)
	if err := server.Run(ctx, addr); err != nil {
		return err
	}

	// Wait for in-flight history writes before closing the stores.
	a.Flush()
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
