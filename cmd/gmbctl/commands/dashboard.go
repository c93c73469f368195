package commands

import (
	"context"
	"fmt"

	"github.com/marshallshelly/gmbctl/cmd/gmbctl/output"
	"github.com/marshallshelly/gmbctl/pkg/views"
	"github.com/spf13/cobra"
)

// dashboardCmd prints the account summary
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show location, post and review totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(ctx context.Context) error {
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	page := views.NewDashboard(a.api.Locations, a.api.Posts, a.api.Reviews, a.viewOptions()...)
	if err := page.Refresh(page.Activate(ctx)); err != nil {
		return err
	}
	stats := page.Snapshot().Stats

	if jsonOutput {
		return printJSON(stats)
	}
	output.Section("Dashboard")
	fmt.Printf("Total locations:  %d\n", stats.Locations)
	fmt.Printf("Total posts:      %d\n", stats.Posts)
	fmt.Printf("Total reviews:    %d\n", stats.Reviews)
	fmt.Printf("Average rating:   %.1f\n", stats.AvgRating)
	if stats.Locations == 0 {
		fmt.Println()
		output.Muted("Get started by syncing your Google Business Profile locations.")
	}
	return nil
}
