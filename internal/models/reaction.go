package models

import (
	"time"

	"github.com/google/uuid"
)

// ReactionType is one of the four quick-feedback signals an audience can send.
type ReactionType string

const (
	ReactionUnderstood ReactionType = "understood"
	ReactionRepeat     ReactionType = "repeat"
	ReactionExcellent  ReactionType = "excellent"
	ReactionImportant  ReactionType = "important"
)

// ReactionTypes lists all valid reaction types in display order.
var ReactionTypes = []ReactionType{ReactionUnderstood, ReactionRepeat, ReactionExcellent, ReactionImportant}

// Valid reports whether t is a known reaction type.
func (t ReactionType) Valid() bool {
	switch t {
	case ReactionUnderstood, ReactionRepeat, ReactionExcellent, ReactionImportant:
		return true
	}
	return false
}

// Reaction is one append-only audience reaction event, scoped to a webinar
// rather than to a single interaction.
type Reaction struct {
	ID            uuid.UUID    `json:"id"`
	WebinarID     uuid.UUID    `json:"webinar_id"`
	ParticipantID uuid.UUID    `json:"participant_id"`
	Type          ReactionType `json:"type"`
	CreatedAt     time.Time    `json:"created_at"`
}
