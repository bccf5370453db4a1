// Metadex indexes meta documentation kept in source comments and answers
// fuzzy lookups over it from the command line, over HTTP and over MCP.
//
// Usage:
//
//	# Serve the HTTP API, reloading on start and on the configured schedule
//	metadex serve
//
//	# One-off lookup
//	metadex search command tele
//
//	# MCP over stdio
//	metadex mcp
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var (
	configPath string
	logLevel   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "metadex",
	Short: "Index and search meta documentation embedded in source comments",
	Long: `metadex reads meta records (commands, events, conditions, ...) from
comment blocks in source repositories and answers fuzzy lookups over them.

Configuration is read from ~/.config/metadex/config.yaml (or --config) and
METADEX_* environment variables.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/metadex/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")
	rootCmd.SetVersionTemplate(versionString() + "\n")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}

func versionString() string {
	return fmt.Sprintf("metadex by Fyrsmith Labs\nVersion:    %s\nCommit:     %s\nBuild Date: %s",
		version, gitCommit, buildDate)
}
