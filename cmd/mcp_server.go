package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kfreiman/interviewcoach/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"mcp-server"},
	Short:   "Start the MCP server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := setupLogger()

		cfg, err := mcp.LoadConfig()
		if err != nil {
			logger.ErrorContext(ctx, "failed to load MCP config",
				"error", err,
			)
			os.Exit(1)
		}

		logger.InfoContext(ctx, "mcp server starting",
			"port", cfg.Port,
			"storage_path", cfg.StoragePath,
			"storage_ttl", cfg.StorageTTL,
			"db_driver", cfg.DBDriver,
			"model", cfg.GeminiModel,
			"events", cfg.AMQPURL != "",
		)

		srv, err := mcp.NewServer(ctx, cfg, logger)
		if err != nil {
			logger.ErrorContext(ctx, "failed to create MCP server",
				"error", err,
			)
			os.Exit(1)
		}
		defer func() {
			if err := srv.Close(); err != nil {
				logger.WarnContext(ctx, "failed to release server resources", "error", err)
			}
		}()

		if err := srv.ListenAndServe(ctx); err != nil {
			logger.ErrorContext(ctx, "MCP server stopped with error",
				"error", err,
			)
			stop()
			srv.Close()
			os.Exit(1)
		}
		logger.InfoContext(ctx, "mcp server stopped")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
