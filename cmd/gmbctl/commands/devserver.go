package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/marshallshelly/gmbctl/cmd/gmbctl/output"
	"github.com/marshallshelly/gmbctl/pkg/apitest"
	"github.com/marshallshelly/gmbctl/pkg/logging"
	"github.com/marshallshelly/gmbctl/pkg/models"
	"github.com/spf13/cobra"
)

var (
	// Dev server flags
	devAddr     string
	devEmail    string
	devPassword string
	devSeed     bool
	devGoogle   bool
)

// devServerCmd serves the in-memory API
var devServerCmd = &cobra.Command{
	Use:   "dev-server",
	Short: "Run an in-memory API for local development",
	Long: `Run an in-memory implementation of the API. State lives only as long
as the process.

Examples:
  gmbctl dev-server                                   # Listen on :8000 with demo data
  gmbctl dev-server --addr :9000 --seed=false
  GMB_API_URL=http://localhost:8000/api/v1 gmbctl ui`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDevServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(devServerCmd)

	devServerCmd.Flags().StringVar(&devAddr, "addr", ":8000", "Listen address")
	devServerCmd.Flags().StringVar(&devEmail, "email", "demo@example.com", "Demo account email")
	devServerCmd.Flags().StringVar(&devPassword, "password", "demo", "Demo account password")
	devServerCmd.Flags().BoolVar(&devSeed, "seed", true, "Seed demo locations, posts and reviews")
	devServerCmd.Flags().BoolVar(&devGoogle, "google-linked", true, "Treat the Google account as connected")
}

func runDevServer(ctx context.Context) error {
	logger := logging.New(verbose)
	defer func() { _ = logger.Sync() }()

	fake := apitest.New()
	fake.AddUser(devEmail, devPassword, "Demo Owner")
	fake.LinkGoogle(devGoogle)
	if devSeed {
		seedDemo(fake, devEmail)
	}

	srv := &http.Server{
		Addr:              devAddr,
		Handler:           fake,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("dev server listening", "addr", devAddr, "base_path", apitest.BasePath)
		errCh <- srv.ListenAndServe()
	}()

	output.Success("API at http://localhost%s%s", devAddr, apitest.BasePath)
	output.Info("Sign in with %s / %s", devEmail, devPassword)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dev server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Infow("shutting down dev server")
	return srv.Shutdown(shutdownCtx)
}

// seedDemo stores two locations with a few posts and reviews, and stages one
// more location and review for the sync commands to import.
func seedDemo(s *apitest.Server, email string) {
	cafe := s.SeedLocation(email, models.Location{
		Name:             "Main Street Cafe",
		GoogleLocationID: "locations/1001",
		Address:          "12 Main Street",
		Phone:            "+1 555 0100",
		Website:          "https://cafe.example.com",
		Category:         "Cafe",
		AutoReplyEnabled: true,
	})
	bakery := s.SeedLocation(email, models.Location{
		Name:             "Harbor Bakery",
		GoogleLocationID: "locations/1002",
		Address:          "3 Harbor Road",
		Category:         "Bakery",
	})

	s.SeedPost(models.Post{LocationID: cafe.ID, Content: "Fresh pastries every morning from 7am.", Status: models.PostStatusPublished})
	s.SeedPost(models.Post{LocationID: cafe.ID, Content: "Live music this Friday night!", PostType: models.PostTypeEvent})
	s.SeedPost(models.Post{LocationID: bakery.ID, Content: "20% off sourdough all week.", PostType: models.PostTypeOffer, AIGenerated: true})

	s.SeedReview(models.Review{LocationID: cafe.ID, ReviewerName: "Ana", Rating: 5, Comment: "Best flat white in town."})
	s.SeedReview(models.Review{LocationID: cafe.ID, ReviewerName: "Ben", Rating: 4, Comment: "Cozy spot, a bit busy at lunch.", ReplyText: "Thanks Ben! Try us mid-afternoon."})
	s.SeedReview(models.Review{LocationID: bakery.ID, ReviewerName: "Chris", Rating: 2, Comment: "Bread was stale."})

	s.AddGoogleLocation(models.Location{Name: "Airport Kiosk", GoogleLocationID: "locations/1003", Category: "Cafe"})
	s.AddGoogleReview(models.Review{LocationID: bakery.ID, ReviewerName: "Dana", Rating: 5, Comment: "Lovely croissants."})
}
