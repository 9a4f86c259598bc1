package state

import (
	"github.com/google/uuid"

	"github.com/lyra-academy/live-engine/internal/models"
	"github.com/lyra-academy/live-engine/internal/tally"
)

// Snapshot is the per-viewer view of a webinar's live state, sent over the
// WebSocket as a "sync" event. Interactions are sanitized (no answer key) and
// tallies are filtered by the result-visibility policy for this viewer.
type Snapshot struct {
	WebinarID        uuid.UUID                   `json:"webinar_id"`
	Active           *models.Interaction         `json:"active,omitempty"`
	Previous         []models.Interaction        `json:"previous"`
	Questions        []models.Question           `json:"questions"`
	Reactions        map[models.ReactionType]int `json:"reactions"`
	ParticipantCount int                         `json:"participant_count"`
	Answered         []uuid.UUID                 `json:"answered"`
	Tallies          []tally.Tally               `json:"tallies"`
}

// SnapshotFor builds the snapshot a specific participant may see. A viewer
// who has not answered a still-active poll/quiz gets no tally for it unless
// the interaction shows results immediately.
func (c *Client) SnapshotFor(participantID uuid.UUID) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		WebinarID:        c.webinarID,
		Previous:         []models.Interaction{},
		Questions:        append([]models.Question{}, c.questions...),
		Reactions:        make(map[models.ReactionType]int, len(c.reactions)),
		ParticipantCount: c.participants,
		Answered:         []uuid.UUID{},
		Tallies:          []tally.Tally{},
	}
	for k, v := range c.reactions {
		snap.Reactions[k] = v
	}

	answered := make(map[uuid.UUID]bool)
	for _, r := range c.responses {
		if r.ParticipantID == participantID {
			answered[r.InteractionID] = true
			snap.Answered = append(snap.Answered, r.InteractionID)
		}
	}

	for _, in := range c.interactions {
		switch in.Status {
		case models.StatusActive:
			sanitized := in.Sanitized()
			snap.Active = &sanitized
		case models.StatusEnded:
			snap.Previous = append(snap.Previous, in.Sanitized())
		default:
			continue // drafts are host-only
		}
		if tally.VisibleTo(in, answered[in.ID]) {
			snap.Tallies = append(snap.Tallies, tally.Aggregate(in, c.responsesOfLocked(in.ID)))
		}
	}
	return snap
}
