package resources

import (
	"context"
	"net/url"

	"github.com/marshallshelly/gmbctl/pkg/apiclient"
	"github.com/marshallshelly/gmbctl/pkg/models"
)

// ReviewService covers /reviews.
type ReviewService struct {
	client *apiclient.Client
}

// List returns reviews, optionally only those of one location.
func (s *ReviewService) List(ctx context.Context, locationID *int64) ([]models.Review, error) {
	var reviews []models.Review
	if err := s.client.Get(ctx, "/reviews/", locationFilter(locationID), &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Get returns one review.
func (s *ReviewService) Get(ctx context.Context, id int64) (*models.Review, error) {
	var review models.Review
	if err := s.client.Get(ctx, idPath("/reviews/", id, ""), nil, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// Update applies a partial update.
func (s *ReviewService) Update(ctx context.Context, id int64, req models.ReviewUpdate) (*models.Review, error) {
	var review models.Review
	if err := s.client.Put(ctx, idPath("/reviews/", id, ""), req, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// Reply posts a reply to Google. The API takes the text as the reply_text
// query parameter, not as a body field.
func (s *ReviewService) Reply(ctx context.Context, id int64, text string) (*models.MessageResponse, error) {
	var resp models.MessageResponse
	query := url.Values{"reply_text": {text}}
	if err := s.client.Post(ctx, idPath("/reviews/", id, "/reply"), query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateReply asks for an AI reply suggestion in the given tone. The
// suggestion is returned only; it is not submitted.
func (s *ReviewService) GenerateReply(ctx context.Context, id int64, tone string) (*models.ReplySuggestion, error) {
	var suggestion models.ReplySuggestion
	req := models.ReplyGenerate{ReviewID: id, Tone: tone}
	if err := s.client.Post(ctx, idPath("/reviews/", id, "/generate-reply"), nil, req, &suggestion); err != nil {
		return nil, err
	}
	return &suggestion, nil
}

// Sync starts a background import of reviews, optionally for one location.
func (s *ReviewService) Sync(ctx context.Context, locationID *int64) (*models.MessageResponse, error) {
	var resp models.MessageResponse
	if err := s.client.Post(ctx, "/reviews/sync", locationFilter(locationID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
