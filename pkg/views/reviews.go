package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marshallshelly/gmbctl/pkg/models"
)

// Alert texts of the reviews page.
const (
	MsgReviewsSyncStarted = "Reviews sync started"
	MsgReviewsSyncFailed  = "Failed to sync reviews"
)

// DefaultSyncRefreshDelay is how long the reviews page waits before
// re-fetching after a sync request; the server imports asynchronously.
const DefaultSyncRefreshDelay = 2 * time.Second

// ReviewAPI is what the reviews page needs from the server.
type ReviewAPI interface {
	ReviewLister
	Reply(ctx context.Context, id int64, text string) (*models.MessageResponse, error)
	GenerateReply(ctx context.Context, id int64, tone string) (*models.ReplySuggestion, error)
	Sync(ctx context.Context, locationID *int64) (*models.MessageResponse, error)
}

// ReviewsState is a snapshot of the reviews page.
type ReviewsState struct {
	Loading         bool
	GeneratingReply bool
	Submitting      bool
	Syncing         bool
	Reviews         []models.Review
	// Selected is the review whose reply modal is open.
	Selected  *models.Review
	ReplyText string
}

// Reviews drives the reviews page.
type Reviews struct {
	controller
	api ReviewAPI

	// SyncRefreshDelay is the pause between Sync and its re-fetch.
	SyncRefreshDelay time.Duration

	generating bool
	submitting bool
	syncing    bool
	reviews    []models.Review
	selected   *models.Review
	replyText  string
}

// NewReviews creates the reviews controller.
func NewReviews(api ReviewAPI, opts ...Option) *Reviews {
	return &Reviews{
		controller:       newController(opts),
		api:              api,
		SyncRefreshDelay: DefaultSyncRefreshDelay,
	}
}

// Snapshot returns a copy of the page state.
func (r *Reviews) Snapshot() ReviewsState {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := ReviewsState{
		Loading:         r.loading,
		GeneratingReply: r.generating,
		Submitting:      r.submitting,
		Syncing:         r.syncing,
		Reviews:         append([]models.Review(nil), r.reviews...),
		ReplyText:       r.replyText,
	}
	if r.selected != nil {
		sel := *r.selected
		s.Selected = &sel
	}
	return s
}

// Refresh re-fetches the review list.
func (r *Reviews) Refresh(ctx context.Context) error {
	gen := r.beginLoad()
	defer r.endLoad(gen)

	reviews, err := r.api.List(ctx, nil)
	if err != nil {
		r.logger.Errorw("failed to fetch reviews", "error", err)
		return fmt.Errorf("failed to fetch reviews: %w", err)
	}
	return r.commit(ctx, gen, func() {
		r.reviews = reviews
		if r.selected != nil {
			for i := range reviews {
				if reviews[i].ID == r.selected.ID {
					sel := reviews[i]
					r.selected = &sel
				}
			}
		}
	})
}

// Select opens the reply modal for a review with an empty draft.
func (r *Reviews) Select(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.reviews {
		if r.reviews[i].ID == id {
			sel := r.reviews[i]
			r.selected = &sel
			r.replyText = ""
			return nil
		}
	}
	return fmt.Errorf("review %d: %w", id, ErrNotFound)
}

// ClearSelection closes the reply modal and drops the draft.
func (r *Reviews) ClearSelection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = nil
	r.replyText = ""
}

// SetReplyText edits the draft.
func (r *Reviews) SetReplyText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replyText = text
}

// GenerateReply fills the draft with a suggestion for the selected review.
// Nothing is submitted.
func (r *Reviews) GenerateReply(ctx context.Context, tone string) (string, error) {
	r.mu.Lock()
	sel := r.selected
	r.mu.Unlock()
	if sel == nil {
		return "", ErrNothingSelected
	}
	if tone == "" {
		tone = models.DefaultReplyTone
	}

	r.setFlag(&r.generating, true)
	defer r.setFlag(&r.generating, false)

	suggestion, err := r.api.GenerateReply(ctx, sel.ID, tone)
	if err != nil {
		r.logger.Errorw("failed to generate reply", "review_id", sel.ID, "error", err)
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}

	r.mu.Lock()
	if r.selected != nil && r.selected.ID == sel.ID {
		r.replyText = suggestion.ReplyText
	}
	r.mu.Unlock()
	return suggestion.ReplyText, nil
}

// SubmitReply posts the draft for the selected review, closes the modal and
// re-fetches. On failure the draft is kept.
func (r *Reviews) SubmitReply(ctx context.Context) error {
	r.mu.Lock()
	sel, text := r.selected, r.replyText
	r.mu.Unlock()
	if sel == nil {
		return ErrNothingSelected
	}
	if strings.TrimSpace(text) == "" {
		return &models.ValidationError{Field: "reply_text", Message: "is required"}
	}

	r.setFlag(&r.submitting, true)
	defer r.setFlag(&r.submitting, false)

	if _, err := r.api.Reply(ctx, sel.ID, text); err != nil {
		r.logger.Errorw("failed to submit reply", "review_id", sel.ID, "error", err)
		return fmt.Errorf("failed to submit reply: %w", err)
	}

	r.ClearSelection()
	return r.Refresh(ctx)
}

// Sync asks the server to import reviews, alerts that it started and
// re-fetches after SyncRefreshDelay.
func (r *Reviews) Sync(ctx context.Context, locationID *int64) error {
	r.setFlag(&r.syncing, true)
	defer r.setFlag(&r.syncing, false)

	if _, err := r.api.Sync(ctx, locationID); err != nil {
		r.logger.Errorw("failed to sync reviews", "error", err)
		r.notifier.Alert(MsgReviewsSyncFailed)
		return fmt.Errorf("failed to sync reviews: %w", err)
	}
	r.notifier.Alert(MsgReviewsSyncStarted)

	if r.SyncRefreshDelay > 0 {
		t := time.NewTimer(r.SyncRefreshDelay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.Refresh(ctx)
}
