package models

// User is the account behind a session.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt Timestamp `json:"created_at"`
}

// DisplayName returns the full name, falling back to the email.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// Token is the password-grant response of POST /auth/login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name,omitempty"`
}

// AuthorizeResponse is returned when external account linking begins.
type AuthorizeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

// MessageResponse is the generic acknowledgement body of sync, publish and
// reply endpoints.
type MessageResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"task_id,omitempty"`
}
