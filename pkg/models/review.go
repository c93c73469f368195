package models

import "math"

// DefaultReplyTone is used when no tone is requested for AI replies.
const DefaultReplyTone = "professional"

// Review is a customer review synced from Google.
type Review struct {
	ID                   int64     `json:"id"`
	LocationID           int64     `json:"location_id"`
	GoogleReviewID       string    `json:"google_review_id,omitempty"`
	ReviewerName         string    `json:"reviewer_name"`
	ReviewerProfilePhoto string    `json:"reviewer_profile_photo,omitempty"`
	Rating               float64   `json:"rating"`
	Comment              string    `json:"comment,omitempty"`
	ReplyText            string    `json:"reply_text,omitempty"`
	ReplyAt              Timestamp `json:"reply_at"`
	AIGeneratedReply     bool      `json:"ai_generated_reply"`
	ReviewCreatedAt      Timestamp `json:"review_created_at"`
	CreatedAt            Timestamp `json:"created_at"`
}

// Replied reports whether the review already has a reply.
func (r Review) Replied() bool {
	return r.ReplyText != ""
}

// Stars returns the rating as a whole number of stars in [0, 5].
func (r Review) Stars() int {
	return int(math.Max(0, math.Min(5, math.Round(r.Rating))))
}

// ReviewUpdate is the body of PUT /reviews/{id}.
type ReviewUpdate struct {
	ReplyText *string `json:"reply_text,omitempty"`
}

// ReplyGenerate is the body of POST /reviews/{id}/generate-reply.
type ReplyGenerate struct {
	ReviewID int64  `json:"review_id"`
	Tone     string `json:"tone,omitempty"`
}

// ReplySuggestion is a server-generated reply. It is never submitted
// automatically.
type ReplySuggestion struct {
	ReplyText string `json:"reply_text"`
}

// AverageRating is the arithmetic mean of the ratings rounded to one decimal
// place, or 0 for no reviews.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(sum/float64(len(reviews))*10) / 10
}
