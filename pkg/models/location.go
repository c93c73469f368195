package models

// Location is a Google Business Profile location managed by the user.
type Location struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	GoogleLocationID string    `json:"google_location_id"`
	Name             string    `json:"name"`
	Address          string    `json:"address,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Website          string    `json:"website,omitempty"`
	Category         string    `json:"category,omitempty"`
	AutoReplyEnabled bool      `json:"auto_reply_enabled"`
	AutoPostEnabled  bool      `json:"auto_post_enabled"`
	CreatedAt        Timestamp `json:"created_at"`
}

// LocationCreate is the body of POST /locations/.
type LocationCreate struct {
	Name             string `json:"name" validate:"required"`
	GoogleLocationID string `json:"google_location_id" validate:"required"`
	Address          string `json:"address,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Website          string `json:"website,omitempty" validate:"omitempty,url"`
	Category         string `json:"category,omitempty"`
}

// LocationUpdate is a partial update. Only non-nil fields are sent.
type LocationUpdate struct {
	Name             *string `json:"name,omitempty"`
	Address          *string `json:"address,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	Website          *string `json:"website,omitempty"`
	Category         *string `json:"category,omitempty"`
	AutoReplyEnabled *bool   `json:"auto_reply_enabled,omitempty"`
	AutoPostEnabled  *bool   `json:"auto_post_enabled,omitempty"`
}
