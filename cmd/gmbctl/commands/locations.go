package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/marshallshelly/gmbctl/cmd/gmbctl/output"
	"github.com/marshallshelly/gmbctl/pkg/models"
	"github.com/marshallshelly/gmbctl/pkg/views"
	"github.com/spf13/cobra"
)

var (
	// Location create flags
	locationCreate models.LocationCreate
)

// locationsCmd groups the location commands
var locationsCmd = &cobra.Command{
	Use:     "locations",
	Aliases: []string{"location", "loc"},
	Short:   "Manage business locations",
	Long: `Manage Google Business Profile locations.

Subcommands:
  list               - List locations
  get                - Show one location
  create             - Register a location by hand
  delete             - Remove a location
  sync               - Import locations from the linked Google account
  toggle-auto-reply  - Turn automatic review replies on or off
  toggle-auto-post   - Turn automatic posting on or off`,
}

var locationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocationsList(cmd.Context())
	},
}

var locationsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocationsGet(cmd.Context(), args[0])
	},
}

var locationsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a location by hand",
	Long: `Register a location by hand.

Examples:
  gmbctl locations create --name "Main Street Cafe" --google-id locations/123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocationsCreate(cmd.Context())
	},
}

var locationsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocationsDelete(cmd.Context(), args[0])
	},
}

var locationsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import locations from the linked Google account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocationsSync(cmd.Context())
	},
}

var locationsToggleReplyCmd = &cobra.Command{
	Use:   "toggle-auto-reply <id>",
	Short: "Turn automatic review replies on or off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocationsToggle(cmd.Context(), args[0], (*views.Locations).ToggleAutoReply)
	},
}

var locationsTogglePostCmd = &cobra.Command{
	Use:   "toggle-auto-post <id>",
	Short: "Turn automatic posting on or off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocationsToggle(cmd.Context(), args[0], (*views.Locations).ToggleAutoPost)
	},
}

func init() {
	rootCmd.AddCommand(locationsCmd)
	locationsCmd.AddCommand(locationsListCmd, locationsGetCmd, locationsCreateCmd, locationsDeleteCmd,
		locationsSyncCmd, locationsToggleReplyCmd, locationsTogglePostCmd)

	f := locationsCreateCmd.Flags()
	f.StringVar(&locationCreate.Name, "name", "", "Location name")
	f.StringVar(&locationCreate.GoogleLocationID, "google-id", "", "Google location resource name")
	f.StringVar(&locationCreate.Address, "address", "", "Street address")
	f.StringVar(&locationCreate.Phone, "phone", "", "Phone number")
	f.StringVar(&locationCreate.Website, "website", "", "Website URL")
	f.StringVar(&locationCreate.Category, "category", "", "Business category")
}

// locationsPage activates a locations controller and loads it.
func locationsPage(ctx context.Context, a *app) (*views.Locations, context.Context, error) {
	page := views.NewLocations(a.api.Locations, a.viewOptions()...)
	pctx := page.Activate(ctx)
	if err := page.Refresh(pctx); err != nil {
		return nil, nil, err
	}
	return page, pctx, nil
}

func runLocationsList(ctx context.Context) error {
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}
	page, _, err := locationsPage(ctx, a)
	if err != nil {
		return err
	}
	return printLocations(page.Snapshot().Locations)
}

func runLocationsGet(ctx context.Context, arg string) error {
	id, err := parseID(arg, "location")
	if err != nil {
		return err
	}
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	loc, err := a.api.Locations.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get location: %w", err)
	}
	if jsonOutput {
		return printJSON(loc)
	}

	output.Section(loc.Name)
	fmt.Printf("ID:          %d\n", loc.ID)
	fmt.Printf("Google ID:   %s\n", loc.GoogleLocationID)
	fmt.Printf("Address:     %s\n", orDash(loc.Address))
	fmt.Printf("Phone:       %s\n", orDash(loc.Phone))
	fmt.Printf("Website:     %s\n", orDash(loc.Website))
	fmt.Printf("Category:    %s\n", orDash(loc.Category))
	fmt.Printf("Auto reply:  %s\n", output.OnOff(loc.AutoReplyEnabled))
	fmt.Printf("Auto post:   %s\n", output.OnOff(loc.AutoPostEnabled))
	fmt.Printf("Added:       %s\n", loc.CreatedAt.Display())
	return nil
}

func runLocationsCreate(ctx context.Context) error {
	if err := models.Validate(locationCreate); err != nil {
		return err
	}
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	loc, err := a.api.Locations.Create(ctx, locationCreate)
	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	output.Success("Created location %d (%s)", loc.ID, loc.Name)

	page, _, err := locationsPage(ctx, a)
	if err != nil {
		return err
	}
	return printLocations(page.Snapshot().Locations)
}

func runLocationsDelete(ctx context.Context, arg string) error {
	id, err := parseID(arg, "location")
	if err != nil {
		return err
	}
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}

	if err := a.api.Locations.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	output.Success("Deleted location %d", id)

	page, _, err := locationsPage(ctx, a)
	if err != nil {
		return err
	}
	return printLocations(page.Snapshot().Locations)
}

func runLocationsSync(ctx context.Context) error {
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}
	page := views.NewLocations(a.api.Locations, a.viewOptions()...)
	if err := page.Sync(page.Activate(ctx)); err != nil {
		return err
	}
	return printLocations(page.Snapshot().Locations)
}

func runLocationsToggle(ctx context.Context, arg string, toggle func(*views.Locations, context.Context, int64) error) error {
	id, err := parseID(arg, "location")
	if err != nil {
		return err
	}
	a, err := authenticated(ctx)
	if err != nil {
		return err
	}
	page, pctx, err := locationsPage(ctx, a)
	if err != nil {
		return err
	}
	if err := toggle(page, pctx, id); err != nil {
		return err
	}
	return printLocations(page.Snapshot().Locations)
}

func printLocations(locations []models.Location) error {
	if jsonOutput {
		return printJSON(locations)
	}
	if len(locations) == 0 {
		output.Warning("No locations yet")
		output.Muted("Get started by syncing your Google Business Profile locations.")
		return nil
	}

	output.Section(fmt.Sprintf("Locations (%d)", len(locations)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tADDRESS\tAUTO REPLY\tAUTO POST")
	_, _ = fmt.Fprintln(w, "--\t----\t-------\t----------\t---------")
	for _, loc := range locations {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			loc.ID,
			loc.Name,
			orDash(loc.Address),
			output.OnOff(loc.AutoReplyEnabled),
			output.OnOff(loc.AutoPostEnabled),
		)
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
