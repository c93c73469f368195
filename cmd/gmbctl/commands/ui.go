package commands

import (
	"context"
	"io"

	"github.com/marshallshelly/gmbctl/cmd/gmbctl/output"
	"github.com/marshallshelly/gmbctl/cmd/gmbctl/tui"
	"github.com/marshallshelly/gmbctl/pkg/config"
	"github.com/marshallshelly/gmbctl/pkg/logging"
	"github.com/spf13/cobra"
)

// uiCmd starts the interactive interface
var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Start the interactive terminal UI",
	Long: `Start the interactive terminal UI with dashboard, locations, posts and
reviews pages. Logs go to the file named by $GMB_LOG_FILE (default: next to
the stored token).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUI(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(ctx context.Context) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.NewFile(cfg.LogFile, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	// The session hook prints; the UI routes to login by itself.
	output.Out = io.Discard

	a, err := newApp(logger)
	if err != nil {
		return err
	}
	return tui.Run(ctx, tui.Deps{
		Session: a.session,
		API:     a.api,
		Logger:  a.logger,
	})
}
