// Package resources maps every GMB Automation API operation to exactly one
// HTTP call. The services share nothing but the underlying client and return
// outcomes unmodified: no retries, no client-side validation.
package resources

import (
	"net/url"
	"strconv"

	"github.com/marshallshelly/gmbctl/pkg/apiclient"
)

// API bundles the four resource namespaces.
type API struct {
	Auth      *AuthService
	Locations *LocationService
	Posts     *PostService
	Reviews   *ReviewService
}

// New creates all services on top of client.
func New(client *apiclient.Client) *API {
	return &API{
		Auth:      &AuthService{client: client},
		Locations: &LocationService{client: client},
		Posts:     &PostService{client: client},
		Reviews:   &ReviewService{client: client},
	}
}

func idPath(prefix string, id int64, suffix string) string {
	return prefix + strconv.FormatInt(id, 10) + suffix
}

// locationFilter builds the optional location_id query parameter.
func locationFilter(locationID *int64) url.Values {
	if locationID == nil {
		return nil
	}
	return url.Values{"location_id": {strconv.FormatInt(*locationID, 10)}}
}
