package views

import (
	"context"
	"fmt"

	"github.com/marshallshelly/gmbctl/pkg/models"
	"golang.org/x/sync/errgroup"
)

// LocationLister lists locations.
type LocationLister interface {
	List(ctx context.Context) ([]models.Location, error)
}

// PostLister lists posts, optionally for one location.
type PostLister interface {
	List(ctx context.Context, locationID *int64) ([]models.Post, error)
}

// ReviewLister lists reviews, optionally for one location.
type ReviewLister interface {
	List(ctx context.Context, locationID *int64) ([]models.Review, error)
}

// Stats are the dashboard counters.
type Stats struct {
	Locations int     `json:"total_locations"`
	Posts     int     `json:"total_posts"`
	Reviews   int     `json:"total_reviews"`
	AvgRating float64 `json:"avg_rating"`
}

// DashboardState is a snapshot of the dashboard page.
type DashboardState struct {
	Loading bool
	// Stats is nil until a load has fully succeeded.
	Stats *Stats
}

// Dashboard aggregates the three collections into Stats.
type Dashboard struct {
	controller
	locations LocationLister
	posts     PostLister
	reviews   ReviewLister
	stats     *Stats
}

// NewDashboard creates the dashboard controller.
func NewDashboard(locations LocationLister, posts PostLister, reviews ReviewLister, opts ...Option) *Dashboard {
	return &Dashboard{
		controller: newController(opts),
		locations:  locations,
		posts:      posts,
		reviews:    reviews,
	}
}

// Snapshot returns a copy of the page state.
func (d *Dashboard) Snapshot() DashboardState {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := DashboardState{Loading: d.loading}
	if d.stats != nil {
		stats := *d.stats
		s.Stats = &stats
	}
	return s
}

// Refresh fetches all three collections concurrently. If any of them fails
// the previous stats are kept and the error is returned.
func (d *Dashboard) Refresh(ctx context.Context) error {
	gen := d.beginLoad()
	defer d.endLoad(gen)

	var (
		locations []models.Location
		posts     []models.Post
		reviews   []models.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		locations, err = d.locations.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		posts, err = d.posts.List(gctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = d.reviews.List(gctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		d.logger.Errorw("failed to fetch dashboard stats", "error", err)
		return fmt.Errorf("failed to fetch dashboard stats: %w", err)
	}

	stats := &Stats{
		Locations: len(locations),
		Posts:     len(posts),
		Reviews:   len(reviews),
		AvgRating: models.AverageRating(reviews),
	}
	return d.commit(ctx, gen, func() { d.stats = stats })
}
