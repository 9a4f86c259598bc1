package participants

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lyra-academy/live-engine/internal/realtime"
)

// Tracker records presence changes reported by the realtime hub and fans the
// resulting participant counts back out through it.
type Tracker struct {
	repo   *Repository
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewTracker creates a presence tracker.
func NewTracker(repo *Repository, hub *realtime.Hub, logger *zap.Logger) *Tracker {
	return &Tracker{repo: repo, hub: hub, logger: logger}
}

// Attach registers the tracker's callbacks on the hub.
func (t *Tracker) Attach() {
	t.hub.SetPresenceHandlers(t.onJoin, t.onLeave)
	t.hub.SetAudienceChangeHandler(t.onAudienceChange)
}

func (t *Tracker) onJoin(webinarID, userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.repo.LogJoin(ctx, webinarID, userID); err != nil {
		t.logger.Error("failed to log participant join",
			zap.String("webinar_id", webinarID.String()),
			zap.Error(err))
		return
	}
	t.publishCount(ctx, webinarID)
}

func (t *Tracker) onLeave(webinarID, userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.repo.LogLeave(ctx, webinarID, userID); err != nil {
		t.logger.Error("failed to log participant leave",
			zap.String("webinar_id", webinarID.String()),
			zap.Error(err))
		return
	}
	t.publishCount(ctx, webinarID)
}

func (t *Tracker) onAudienceChange(webinarID uuid.UUID, count int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := t.repo.UpdatePeak(ctx, webinarID, count); err != nil {
		t.logger.Warn("failed to update peak audience",
			zap.String("webinar_id", webinarID.String()),
			zap.Error(err))
	}
}

func (t *Tracker) publishCount(ctx context.Context, webinarID uuid.UUID) {
	count, err := t.repo.CountActive(ctx, webinarID)
	if err != nil {
		t.logger.Warn("failed to count participants",
			zap.String("webinar_id", webinarID.String()),
			zap.Error(err))
		return
	}
	t.hub.PublishToWebinar(webinarID, realtime.EventParticipantChanged, map[string]int{"count": count})
}
