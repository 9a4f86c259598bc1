package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant is one viewer attending a webinar session. Identity comes from
// the platform's auth service; this engine only references the user id.
type Participant struct {
	ID        uuid.UUID  `json:"id"`
	WebinarID uuid.UUID  `json:"webinar_id"`
	UserID    uuid.UUID  `json:"user_id"`
	JoinedAt  time.Time  `json:"joined_at"`
	LeftAt    *time.Time `json:"left_at,omitempty"`
}
