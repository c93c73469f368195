package models

import "time"

// PostStatus is driven entirely by the server: DRAFT → (SCHEDULED) → PUBLISHED,
// or FAILED when publishing was rejected.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "DRAFT"
	PostStatusScheduled PostStatus = "SCHEDULED"
	PostStatusPublished PostStatus = "PUBLISHED"
	PostStatusFailed    PostStatus = "FAILED"
)

// PostType is the Google post kind.
type PostType string

const (
	PostTypeUpdate PostType = "UPDATE"
	PostTypeEvent  PostType = "EVENT"
	PostTypeOffer  PostType = "OFFER"
)

// PreviewLength is the number of characters of post content shown in lists.
const PreviewLength = 100

// Post is a Google Business Profile post.
type Post struct {
	ID           int64      `json:"id"`
	LocationID   int64      `json:"location_id"`
	GooglePostID string     `json:"google_post_id,omitempty"`
	Title        string     `json:"title,omitempty"`
	Content      string     `json:"content"`
	PostType     PostType   `json:"post_type,omitempty"`
	MediaURL     string     `json:"media_url,omitempty"`
	Status       PostStatus `json:"status"`
	ScheduledAt  Timestamp  `json:"scheduled_at"`
	PublishedAt  Timestamp  `json:"published_at"`
	AIGenerated  bool       `json:"ai_generated"`
	CreatedAt    Timestamp  `json:"created_at"`
}

// Publishable reports whether the user may request publishing.
func (p Post) Publishable() bool {
	return p.Status == PostStatusDraft
}

// Preview returns the first PreviewLength runes of the content.
func (p Post) Preview() string {
	runes := []rune(p.Content)
	if len(runes) <= PreviewLength {
		return p.Content
	}
	return string(runes[:PreviewLength]) + "..."
}

// PostCreate is the body of POST /posts/.
type PostCreate struct {
	LocationID  int64      `json:"location_id" validate:"required,gt=0"`
	Content     string     `json:"content" validate:"required"`
	Title       string     `json:"title,omitempty"`
	PostType    PostType   `json:"post_type,omitempty" validate:"omitempty,posttype"`
	MediaURL    string     `json:"media_url,omitempty" validate:"omitempty,url"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// PostUpdate is a partial update. Only non-nil fields are sent.
type PostUpdate struct {
	Title       *string     `json:"title,omitempty"`
	Content     *string     `json:"content,omitempty"`
	PostType    *PostType   `json:"post_type,omitempty"`
	MediaURL    *string     `json:"media_url,omitempty"`
	ScheduledAt *time.Time  `json:"scheduled_at,omitempty"`
	Status      *PostStatus `json:"status,omitempty"`
}

// PostGenerate asks the server to write a post with its generative backend.
type PostGenerate struct {
	LocationID int64    `json:"location_id" validate:"required,gt=0"`
	Topic      string   `json:"topic,omitempty"`
	PostType   PostType `json:"post_type,omitempty" validate:"omitempty,posttype"`
}
