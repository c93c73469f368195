package resources

import (
	"context"

	"github.com/marshallshelly/gmbctl/pkg/apiclient"
	"github.com/marshallshelly/gmbctl/pkg/models"
)

// PostService covers /posts.
type PostService struct {
	client *apiclient.Client
}

// List returns posts, optionally only those of one location.
func (s *PostService) List(ctx context.Context, locationID *int64) ([]models.Post, error) {
	var posts []models.Post
	if err := s.client.Get(ctx, "/posts/", locationFilter(locationID), &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Get returns one post.
func (s *PostService) Get(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := s.client.Get(ctx, idPath("/posts/", id, ""), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Create stores a post with explicit content.
func (s *PostService) Create(ctx context.Context, req models.PostCreate) (*models.Post, error) {
	var post models.Post
	if err := s.client.Post(ctx, "/posts/", nil, req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Update applies a partial update.
func (s *PostService) Update(ctx context.Context, id int64, req models.PostUpdate) (*models.Post, error) {
	var post models.Post
	if err := s.client.Put(ctx, idPath("/posts/", id, ""), req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes a post.
func (s *PostService) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, idPath("/posts/", id, ""))
}

// Publish queues a draft for publishing. The status change happens
// server-side; callers re-fetch to observe it.
func (s *PostService) Publish(ctx context.Context, id int64) (*models.MessageResponse, error) {
	var resp models.MessageResponse
	if err := s.client.Post(ctx, idPath("/posts/", id, "/publish"), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Generate asks the server to write and store a post with its generative
// backend. Expect noticeably higher latency than other calls.
func (s *PostService) Generate(ctx context.Context, req models.PostGenerate) (*models.Post, error) {
	var post models.Post
	if err := s.client.Post(ctx, "/posts/generate", nil, req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}
