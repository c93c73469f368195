package views

import (
	"context"
	"fmt"

	"github.com/marshallshelly/gmbctl/pkg/models"
)

// Alert texts of the locations page.
const (
	MsgLocationsSynced     = "Locations synced successfully"
	MsgLocationsSyncFailed = "Failed to sync locations. Make sure your Google account is connected."
)

// LocationAPI is what the locations page needs from the server.
type LocationAPI interface {
	LocationLister
	Update(ctx context.Context, id int64, req models.LocationUpdate) (*models.Location, error)
	Sync(ctx context.Context) (*models.MessageResponse, error)
}

// LocationsState is a snapshot of the locations page.
type LocationsState struct {
	Loading   bool
	Syncing   bool
	Locations []models.Location
}

// Locations drives the locations page.
type Locations struct {
	controller
	api       LocationAPI
	syncing   bool
	locations []models.Location
}

// NewLocations creates the locations controller.
func NewLocations(api LocationAPI, opts ...Option) *Locations {
	return &Locations{controller: newController(opts), api: api}
}

// Snapshot returns a copy of the page state.
func (l *Locations) Snapshot() LocationsState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LocationsState{
		Loading:   l.loading,
		Syncing:   l.syncing,
		Locations: append([]models.Location(nil), l.locations...),
	}
}

// Refresh re-fetches the location list.
func (l *Locations) Refresh(ctx context.Context) error {
	gen := l.beginLoad()
	defer l.endLoad(gen)

	locations, err := l.api.List(ctx)
	if err != nil {
		l.logger.Errorw("failed to fetch locations", "error", err)
		return fmt.Errorf("failed to fetch locations: %w", err)
	}
	return l.commit(ctx, gen, func() { l.locations = locations })
}

// Sync imports locations from the linked Google account, alerts the outcome
// and re-fetches on success.
func (l *Locations) Sync(ctx context.Context) error {
	l.setFlag(&l.syncing, true)
	defer l.setFlag(&l.syncing, false)

	if _, err := l.api.Sync(ctx); err != nil {
		l.logger.Errorw("failed to sync locations", "error", err)
		l.notifier.Alert(MsgLocationsSyncFailed)
		return fmt.Errorf("failed to sync locations: %w", err)
	}
	l.notifier.Alert(MsgLocationsSynced)
	return l.Refresh(ctx)
}

// ToggleAutoReply flips auto_reply_enabled for one location.
func (l *Locations) ToggleAutoReply(ctx context.Context, id int64) error {
	return l.toggle(ctx, id, "auto-reply", func(loc models.Location) models.LocationUpdate {
		v := !loc.AutoReplyEnabled
		return models.LocationUpdate{AutoReplyEnabled: &v}
	})
}

// ToggleAutoPost flips auto_post_enabled for one location.
func (l *Locations) ToggleAutoPost(ctx context.Context, id int64) error {
	return l.toggle(ctx, id, "auto-post", func(loc models.Location) models.LocationUpdate {
		v := !loc.AutoPostEnabled
		return models.LocationUpdate{AutoPostEnabled: &v}
	})
}

func (l *Locations) toggle(ctx context.Context, id int64, what string, update func(models.Location) models.LocationUpdate) error {
	l.mu.Lock()
	i := locationIndex(l.locations, id)
	var loc models.Location
	if i >= 0 {
		loc = l.locations[i]
	}
	l.mu.Unlock()
	if i < 0 {
		return fmt.Errorf("location %d: %w", id, ErrNotFound)
	}

	if _, err := l.api.Update(ctx, id, update(loc)); err != nil {
		l.logger.Errorw("failed to toggle "+what, "location_id", id, "error", err)
		return fmt.Errorf("failed to toggle %s: %w", what, err)
	}
	return l.Refresh(ctx)
}
