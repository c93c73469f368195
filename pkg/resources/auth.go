package resources

import (
	"context"
	"net/url"

	"github.com/marshallshelly/gmbctl/pkg/apiclient"
	"github.com/marshallshelly/gmbctl/pkg/models"
)

// AuthService covers /auth.
type AuthService struct {
	client *apiclient.Client
}

// Login exchanges credentials for a token. The endpoint is a password grant,
// so credentials are form-encoded rather than JSON.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Token, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
	}
	var token models.Token
	if err := s.client.PostForm(ctx, "/auth/login", form, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// Register creates an account.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var user models.User
	if err := s.client.Post(ctx, "/auth/register", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the user owning the current token.
func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.client.Get(ctx, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GoogleAuthorize begins linking a Google account and returns the URL the
// user must visit.
func (s *AuthService) GoogleAuthorize(ctx context.Context) (*models.AuthorizeResponse, error) {
	var resp models.AuthorizeResponse
	if err := s.client.Get(ctx, "/auth/google/authorize", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
