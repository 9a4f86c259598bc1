// Package memstore is an in-memory implementation of the engine's store
// contracts, mirroring the Postgres repositories. It backs the unit tests and
// keeps the lifecycle and gate semantics exercisable without a database.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lyra-academy/live-engine/internal/interactions"
	"github.com/lyra-academy/live-engine/internal/models"
	"github.com/lyra-academy/live-engine/internal/submissions"
)

type responseKey struct {
	interactionID uuid.UUID
	participantID uuid.UUID
}

// Store holds all engine collections behind one mutex. It implements
// interactions.Store, submissions.Store and the sync package's Store.
type Store struct {
	mu           sync.RWMutex
	now          func() time.Time
	interactions map[uuid.UUID]*models.Interaction
	responses    map[responseKey]*models.Response
	questions    map[uuid.UUID]*models.Question
	reactions    []models.Reaction
	participants map[uuid.UUID]*models.Participant
}

// New creates an empty store with the wall clock.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock creates a store with a deterministic clock for tests.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		now:          now,
		interactions: make(map[uuid.UUID]*models.Interaction),
		responses:    make(map[responseKey]*models.Response),
		questions:    make(map[uuid.UUID]*models.Question),
		participants: make(map[uuid.UUID]*models.Participant),
	}
}

// Create inserts a draft interaction at the end of the webinar's order.
func (s *Store) Create(_ context.Context, in *models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := 0
	for _, existing := range s.interactions {
		if existing.WebinarID == in.WebinarID && existing.OrderIndex >= next {
			next = existing.OrderIndex + 1
		}
	}
	in.ID = uuid.New()
	in.Status = models.StatusDraft
	in.OrderIndex = next
	in.CreatedAt = s.now()
	cp := *in
	s.interactions[in.ID] = &cp
	return nil
}

// GetByID returns a copy of the interaction.
func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.interactions[id]
	if !ok {
		return nil, interactions.ErrNotFound
	}
	cp := *in
	return &cp, nil
}

// ListByWebinar returns the webinar's interactions by order_index.
func (s *Store) ListByWebinar(_ context.Context, webinarID uuid.UUID) ([]models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Interaction
	for _, in := range s.interactions {
		if in.WebinarID == webinarID {
			out = append(out, *in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

// CurrentActive returns the single active interaction, or nil.
func (s *Store) CurrentActive(_ context.Context, webinarID uuid.UUID) (*models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, in := range s.interactions {
		if in.WebinarID == webinarID && in.Status == models.StatusActive {
			cp := *in
			return &cp, nil
		}
	}
	return nil, nil
}

// Activate promotes the target and ends the previously active interaction
// under the same lock, preserving the single-active invariant.
func (s *Store) Activate(_ context.Context, id uuid.UUID) (*models.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.interactions[id]
	if !ok {
		return nil, interactions.ErrNotFound
	}
	switch target.Status {
	case models.StatusEnded:
		return nil, interactions.ErrInvalidTransition
	case models.StatusActive:
		cp := *target
		return &cp, nil
	}

	now := s.now()
	for _, in := range s.interactions {
		if in.WebinarID == target.WebinarID && in.Status == models.StatusActive && in.ID != id {
			in.Status = models.StatusEnded
			endedAt := now
			in.EndedAt = &endedAt
		}
	}
	target.Status = models.StatusActive
	activatedAt := now
	target.ActivatedAt = &activatedAt
	cp := *target
	return &cp, nil
}

// End marks the interaction ended, keeping the first ended_at.
func (s *Store) End(_ context.Context, id uuid.UUID) (*models.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.interactions[id]
	if !ok {
		return nil, interactions.ErrNotFound
	}
	if in.Status != models.StatusEnded {
		in.Status = models.StatusEnded
		endedAt := s.now()
		in.EndedAt = &endedAt
	}
	cp := *in
	return &cp, nil
}

// SetBannerKey records a banner object key.
func (s *Store) SetBannerKey(_ context.Context, id uuid.UUID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.interactions[id]
	if !ok {
		return interactions.ErrNotFound
	}
	in.BannerKey = &key
	return nil
}

// Insert writes one response, enforcing the per-participant uniqueness
// constraint the way the database does.
func (s *Store) Insert(_ context.Context, resp *models.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := responseKey{resp.InteractionID, resp.ParticipantID}
	if _, exists := s.responses[key]; exists {
		return submissions.ErrDuplicate
	}
	resp.ID = uuid.New()
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = s.now()
	}
	cp := *resp
	s.responses[key] = &cp
	return nil
}

// Get returns a participant's response, or nil.
func (s *Store) Get(_ context.Context, interactionID, participantID uuid.UUID) (*models.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.responses[responseKey{interactionID, participantID}]
	if !ok {
		return nil, nil
	}
	cp := *resp
	return &cp, nil
}

// ListByInteraction returns all responses to one interaction.
func (s *Store) ListByInteraction(_ context.Context, interactionID uuid.UUID) ([]models.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Response
	for key, resp := range s.responses {
		if key.interactionID == interactionID {
			out = append(out, *resp)
		}
	}
	return out, nil
}

// ListByInteractions returns responses filtered to a set of interactions.
func (s *Store) ListByInteractions(_ context.Context, interactionIDs []uuid.UUID) ([]models.Response, error) {
	wanted := make(map[uuid.UUID]struct{}, len(interactionIDs))
	for _, id := range interactionIDs {
		wanted[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Response
	for key, resp := range s.responses {
		if _, ok := wanted[key.interactionID]; ok {
			out = append(out, *resp)
		}
	}
	return out, nil
}

// InteractionsByWebinar satisfies the sync store contract.
func (s *Store) InteractionsByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Interaction, error) {
	return s.ListByWebinar(ctx, webinarID)
}

// ResponsesByInteractions satisfies the sync store contract.
func (s *Store) ResponsesByInteractions(ctx context.Context, interactionIDs []uuid.UUID) ([]models.Response, error) {
	return s.ListByInteractions(ctx, interactionIDs)
}

// VisibleQuestions returns non-hidden questions, newest first.
func (s *Store) VisibleQuestions(_ context.Context, webinarID uuid.UUID) ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Question
	for _, q := range s.questions {
		if q.WebinarID == webinarID && !q.IsHidden {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ReactionCounts returns the per-type reaction tally for a webinar.
func (s *Store) ReactionCounts(_ context.Context, webinarID uuid.UUID) (map[models.ReactionType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.ReactionType]int, len(models.ReactionTypes))
	for _, t := range models.ReactionTypes {
		counts[t] = 0
	}
	for _, r := range s.reactions {
		if r.WebinarID == webinarID {
			counts[r.Type]++
		}
	}
	return counts, nil
}

// ParticipantCount counts participants currently in the webinar.
func (s *Store) ParticipantCount(_ context.Context, webinarID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.participants {
		if p.WebinarID == webinarID && p.LeftAt == nil {
			n++
		}
	}
	return n, nil
}

// AddQuestion seeds a question (test helper).
func (s *Store) AddQuestion(q models.Question) models.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.now()
	}
	cp := q
	s.questions[q.ID] = &cp
	return q
}

// AddReaction seeds a reaction event (test helper).
func (s *Store) AddReaction(r models.Reaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	s.reactions = append(s.reactions, r)
}

// AddParticipant seeds a participant row (test helper).
func (s *Store) AddParticipant(p models.Participant) models.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = s.now()
	}
	cp := p
	s.participants[p.ID] = &cp
	return p
}
