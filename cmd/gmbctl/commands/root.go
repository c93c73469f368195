package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marshallshelly/gmbctl/cmd/gmbctl/output"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	apiURL     string
	envFile    string
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gmbctl",
	Short: "gmbctl - manage Google Business Profile locations, posts and reviews",
	Long: `gmbctl is a terminal client for the GMB Automation API.

Features:
  - Sync Google Business Profile locations and toggle automation per location
  - Write posts by hand or have them generated, then publish them
  - Read reviews, draft AI replies and post them
  - Interactive TUI (gmbctl ui) and scriptable CLI with --json output
  - Local fake API for development (gmbctl dev-server)`,
	Version:       "0.4.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			output.Out = os.Stderr
		}
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (default $GMB_API_URL or "+defaultAPIURLHint+")")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file to load")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}
