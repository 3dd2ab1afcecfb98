package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ignite/reachpoint/internal/app"
	"github.com/ignite/reachpoint/internal/config"
	"github.com/ignite/reachpoint/internal/pkg/logger"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reachpoint",
	Short: "ReachPoint outreach campaign tools",
	Long: `reachpoint works directly against the configured storage backend.

It lists campaigns, renders their CSV exports and delivers them to the
configured export destination, without going through the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(logger.DEBUG)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(campaignsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(datasetCmd)
}

// commandContext returns the command's context, or a background one when
// the command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openApp loads configuration and wires the services for one command.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if !verbose {
		logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	}
	logger.SetRedactPII(cfg.Log.Redact())
	return app.Build(ctx, cfg)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
