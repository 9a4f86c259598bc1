package models

import (
	"time"

	"github.com/google/uuid"
)

// Question is an audience question in the moderated Q&A of a webinar.
// Hidden questions are excluded from audience-facing queries.
type Question struct {
	ID            uuid.UUID `json:"id"`
	WebinarID     uuid.UUID `json:"webinar_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Text          string    `json:"text"`
	Upvotes       int       `json:"upvotes"`
	IsPinned      bool      `json:"is_pinned"`
	IsAnswered    bool      `json:"is_answered"`
	IsHidden      bool      `json:"is_hidden"`
	IsFeatured    bool      `json:"is_featured"`
	CreatedAt     time.Time `json:"created_at"`
}
