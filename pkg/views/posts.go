package views

import (
	"context"
	"fmt"

	"github.com/marshallshelly/gmbctl/pkg/models"
	"golang.org/x/sync/errgroup"
)

// MsgPostQueued is shown after a publish request is accepted.
const (
	MsgPostQueued        = "Post queued for publishing"
	MsgPostPublishFailed = "Failed to publish post"
)

// PostAPI is what the posts page needs from the server.
type PostAPI interface {
	PostLister
	Create(ctx context.Context, req models.PostCreate) (*models.Post, error)
	Generate(ctx context.Context, req models.PostGenerate) (*models.Post, error)
	Publish(ctx context.Context, id int64) (*models.MessageResponse, error)
	Delete(ctx context.Context, id int64) error
}

// PostForm is the create-post draft. With UseAI the server writes the
// content from Topic; otherwise Content is sent as is.
type PostForm struct {
	LocationID int64           `json:"location_id" validate:"required,gt=0"`
	UseAI      bool            `json:"use_ai"`
	Content    string          `json:"content" validate:"required_without=UseAI"`
	Topic      string          `json:"topic"`
	PostType   models.PostType `json:"post_type" validate:"omitempty,posttype"`
}

// PostsState is a snapshot of the posts page.
type PostsState struct {
	Loading    bool
	Generating bool
	Submitting bool
	FormOpen   bool
	Form       PostForm
	Posts      []models.Post
	Locations  []models.Location
}

// LocationName returns the name of a location in the snapshot, or "".
func (s PostsState) LocationName(id int64) string {
	if i := locationIndex(s.Locations, id); i >= 0 {
		return s.Locations[i].Name
	}
	return ""
}

// Posts drives the posts page.
type Posts struct {
	controller
	api       PostAPI
	locations LocationLister

	generating bool
	submitting bool
	formOpen   bool
	form       PostForm
	posts      []models.Post
	locs       []models.Location
}

// NewPosts creates the posts controller.
func NewPosts(api PostAPI, locations LocationLister, opts ...Option) *Posts {
	return &Posts{controller: newController(opts), api: api, locations: locations}
}

// Snapshot returns a copy of the page state.
func (p *Posts) Snapshot() PostsState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PostsState{
		Loading:    p.loading,
		Generating: p.generating,
		Submitting: p.submitting,
		FormOpen:   p.formOpen,
		Form:       p.form,
		Posts:      append([]models.Post(nil), p.posts...),
		Locations:  append([]models.Location(nil), p.locs...),
	}
}

// Refresh fetches posts and locations concurrently.
func (p *Posts) Refresh(ctx context.Context) error {
	gen := p.beginLoad()
	defer p.endLoad(gen)

	var (
		posts     []models.Post
		locations []models.Location
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = p.api.List(gctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		locations, err = p.locations.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		p.logger.Errorw("failed to fetch posts", "error", err)
		return fmt.Errorf("failed to fetch posts: %w", err)
	}
	return p.commit(ctx, gen, func() {
		p.posts = posts
		p.locs = locations
	})
}

// OpenForm opens the create modal with an empty draft.
func (p *Posts) OpenForm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.formOpen = true
	p.form = PostForm{}
}

// CloseForm closes the create modal and drops the draft.
func (p *Posts) CloseForm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.formOpen = false
	p.form = PostForm{}
}

// SetForm replaces the draft.
func (p *Posts) SetForm(form PostForm) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.form = form
}

// Submit validates the draft and creates the post, either literally or by
// generation. On success the form is reset, the modal closed and the list
// re-fetched. On failure the draft is kept.
func (p *Posts) Submit(ctx context.Context) (*models.Post, error) {
	p.mu.Lock()
	form := p.form
	p.mu.Unlock()

	if err := models.Validate(form); err != nil {
		return nil, err
	}

	p.setFlag(&p.submitting, true)
	defer p.setFlag(&p.submitting, false)

	var (
		post *models.Post
		err  error
	)
	if form.UseAI {
		p.setFlag(&p.generating, true)
		post, err = p.api.Generate(ctx, models.PostGenerate{
			LocationID: form.LocationID,
			Topic:      form.Topic,
			PostType:   form.PostType,
		})
		p.setFlag(&p.generating, false)
	} else {
		post, err = p.api.Create(ctx, models.PostCreate{
			LocationID: form.LocationID,
			Content:    form.Content,
			PostType:   form.PostType,
		})
	}
	if err != nil {
		p.logger.Errorw("failed to create post", "location_id", form.LocationID, "ai", form.UseAI, "error", err)
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	p.CloseForm()
	if err := p.Refresh(ctx); err != nil {
		return post, err
	}
	return post, nil
}

// Publish asks the server to publish a post, alerts the outcome and
// re-fetches on success.
func (p *Posts) Publish(ctx context.Context, id int64) error {
	if _, err := p.api.Publish(ctx, id); err != nil {
		p.logger.Errorw("failed to publish post", "post_id", id, "error", err)
		p.notifier.Alert(MsgPostPublishFailed)
		return fmt.Errorf("failed to publish post: %w", err)
	}
	p.notifier.Alert(MsgPostQueued)
	return p.Refresh(ctx)
}

// Delete removes a post and re-fetches. Confirmation is the caller's job.
func (p *Posts) Delete(ctx context.Context, id int64) error {
	if err := p.api.Delete(ctx, id); err != nil {
		p.logger.Errorw("failed to delete post", "post_id", id, "error", err)
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return p.Refresh(ctx)
}
