package main

import (
	"cmp"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/metadex/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the lookup tools over MCP on stdio",
	Long: `Serve meta_search, meta_list, meta_types and meta_reload as MCP tools on
stdin/stdout. Logs go to stderr so they never mix with the protocol.

Examples:
  # Register with an MCP client
  metadex mcp --config ~/.config/metadex/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, logSettings{out: os.Stderr, level: cmp.Or(logLevel, "warn"), console: true})
	if err != nil {
		return err
	}
	defer a.close(context.Background())
	log := a.logger.Underlying()

	if a.cfg.Reload.OnStart {
		if _, err := a.reload(ctx); err != nil {
			log.Error("initial reload failed", zap.Error(err))
		}
	}

	srv, err := mcp.NewServer(&mcp.Config{
		Name:    "metadex",
		Version: version,
		Logger:  log.Named("mcp"),
	}, a.index, a.lookup)
	if err != nil {
		return fmt.Errorf("creating mcp server: %w", err)
	}
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
