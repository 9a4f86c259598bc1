package models

import (
	"time"

	"github.com/google/uuid"
)

// Webinar is the thin view of a webinar session this engine needs: enough to
// scope interactions and to check who is hosting. Full webinar CRUD lives in
// the platform service.
type Webinar struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	HostID      uuid.UUID  `json:"host_id"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	PeakViewers int        `json:"peak_viewers"`
	CreatedAt   time.Time  `json:"created_at"`
}
