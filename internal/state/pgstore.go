package state

import (
	"context"

	"github.com/google/uuid"

	"github.com/lyra-academy/live-engine/internal/interactions"
	"github.com/lyra-academy/live-engine/internal/models"
	"github.com/lyra-academy/live-engine/internal/participants"
	"github.com/lyra-academy/live-engine/internal/questions"
	"github.com/lyra-academy/live-engine/internal/reactions"
	"github.com/lyra-academy/live-engine/internal/submissions"
)

// PGStore adapts the feature repositories to the sync client's Store.
type PGStore struct {
	interactions interactions.Store
	submissions  submissions.Store
	questions    *questions.Repository
	reactions    *reactions.Repository
	participants *participants.Repository
}

// NewPGStore builds a Store over the Postgres repositories.
func NewPGStore(
	in interactions.Store,
	sub submissions.Store,
	q *questions.Repository,
	re *reactions.Repository,
	p *participants.Repository,
) *PGStore {
	return &PGStore{
		interactions: in,
		submissions:  sub,
		questions:    q,
		reactions:    re,
		participants: p,
	}
}

func (s *PGStore) InteractionsByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Interaction, error) {
	return s.interactions.ListByWebinar(ctx, webinarID)
}

func (s *PGStore) ResponsesByInteractions(ctx context.Context, interactionIDs []uuid.UUID) ([]models.Response, error) {
	return s.submissions.ListByInteractions(ctx, interactionIDs)
}

func (s *PGStore) VisibleQuestions(ctx context.Context, webinarID uuid.UUID) ([]models.Question, error) {
	return s.questions.ListVisible(ctx, webinarID)
}

func (s *PGStore) ReactionCounts(ctx context.Context, webinarID uuid.UUID) (map[models.ReactionType]int, error) {
	return s.reactions.Counts(ctx, webinarID)
}

func (s *PGStore) ParticipantCount(ctx context.Context, webinarID uuid.UUID) (int, error) {
	return s.participants.CountActive(ctx, webinarID)
}
