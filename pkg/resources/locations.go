package resources

import (
	"context"

	"github.com/marshallshelly/gmbctl/pkg/apiclient"
	"github.com/marshallshelly/gmbctl/pkg/models"
)

// LocationService covers /locations.
type LocationService struct {
	client *apiclient.Client
}

// List returns every location of the user.
func (s *LocationService) List(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	if err := s.client.Get(ctx, "/locations/", nil, &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// Get returns one location.
func (s *LocationService) Get(ctx context.Context, id int64) (*models.Location, error) {
	var location models.Location
	if err := s.client.Get(ctx, idPath("/locations/", id, ""), nil, &location); err != nil {
		return nil, err
	}
	return &location, nil
}

// Create registers a location.
func (s *LocationService) Create(ctx context.Context, req models.LocationCreate) (*models.Location, error) {
	var location models.Location
	if err := s.client.Post(ctx, "/locations/", nil, req, &location); err != nil {
		return nil, err
	}
	return &location, nil
}

// Update applies a partial update; only the fields set in req are sent.
func (s *LocationService) Update(ctx context.Context, id int64, req models.LocationUpdate) (*models.Location, error) {
	var location models.Location
	if err := s.client.Put(ctx, idPath("/locations/", id, ""), req, &location); err != nil {
		return nil, err
	}
	return &location, nil
}

// Delete removes a location.
func (s *LocationService) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, idPath("/locations/", id, ""))
}

// Sync imports locations from the linked Google account.
func (s *LocationService) Sync(ctx context.Context) (*models.MessageResponse, error) {
	var resp models.MessageResponse
	if err := s.client.Post(ctx, "/locations/sync", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
