// Package state implements the realtime sync client: a per-webinar mirror of
// the store's interactions, responses, questions, reaction tallies and
// participant count, kept fresh by re-fetching collections as change-feed
// events arrive. Audiences are small enough that whole-collection re-fetch
// beats incremental patching.
package state

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lyra-academy/live-engine/internal/models"
	"github.com/lyra-academy/live-engine/internal/realtime"
	"github.com/lyra-academy/live-engine/internal/tally"
)

// Store is the read side of the interaction record store, scoped to the five
// queries the sync client issues.
type Store interface {
	InteractionsByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Interaction, error)
	ResponsesByInteractions(ctx context.Context, interactionIDs []uuid.UUID) ([]models.Response, error)
	VisibleQuestions(ctx context.Context, webinarID uuid.UUID) ([]models.Question, error)
	ReactionCounts(ctx context.Context, webinarID uuid.UUID) (map[models.ReactionType]int, error)
	ParticipantCount(ctx context.Context, webinarID uuid.UUID) (int, error)
}

// Feed is the per-webinar change-feed subscription.
type Feed interface {
	SubscribeWebinar(webinarID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Client mirrors one webinar's live state. Safe for concurrent readers; all
// refreshes run on the feed goroutine.
type Client struct {
	webinarID uuid.UUID
	store     Store
	feed      Feed
	logger    *zap.Logger
	onUpdate  func()

	ctx        context.Context
	cancelCtx  context.CancelFunc
	cancelFeed func()

	mu           sync.RWMutex
	interactions []models.Interaction
	responses    []models.Response
	questions    []models.Question
	reactions    map[models.ReactionType]int
	participants int
}

// NewClient creates a sync client for one webinar. onUpdate, when non-nil, is
// invoked after every successful refresh.
func NewClient(webinarID uuid.UUID, store Store, feed Feed, logger *zap.Logger, onUpdate func()) *Client {
	return &Client{
		webinarID: webinarID,
		store:     store,
		feed:      feed,
		logger:    logger,
		onUpdate:  onUpdate,
		reactions: make(map[models.ReactionType]int),
	}
}

// Start performs the initial full fetch and opens the feed subscription.
func (c *Client) Start(ctx context.Context) error {
	c.ctx, c.cancelCtx = context.WithCancel(ctx)

	c.refreshInteractions()
	c.refreshResponses()
	c.refreshQuestions()
	c.refreshReactions()
	c.refreshParticipants()
	c.notify()

	cancel, err := c.feed.SubscribeWebinar(c.webinarID, c.handleEvent)
	if err != nil {
		c.cancelCtx()
		return err
	}
	c.cancelFeed = cancel
	return nil
}

// Close tears down the subscription and cancels any in-flight fetch.
func (c *Client) Close() {
	if c.cancelFeed != nil {
		c.cancelFeed()
	}
	if c.cancelCtx != nil {
		c.cancelCtx()
	}
}

// handleEvent re-fetches the collection the event touches. A failed fetch
// keeps the previous snapshot; the next feed tick retries.
func (c *Client) handleEvent(event string, _ []byte) {
	switch event {
	case realtime.EventInteractionChanged:
		c.refreshInteractions()
		c.refreshResponses()
	case realtime.EventResponseAdded:
		c.refreshResponses()
	case realtime.EventQuestionChanged:
		c.refreshQuestions()
	case realtime.EventReactionAdded:
		c.refreshReactions()
	case realtime.EventParticipantChanged:
		c.refreshParticipants()
	default:
		return
	}
	c.notify()
}

func (c *Client) notify() {
	if c.onUpdate != nil {
		c.onUpdate()
	}
}

func (c *Client) refreshInteractions() {
	list, err := c.store.InteractionsByWebinar(c.ctx, c.webinarID)
	if err != nil {
		c.logger.Warn("refresh interactions failed", zap.String("webinar_id", c.webinarID.String()), zap.Error(err))
		return
	}
	c.mu.Lock()
	c.interactions = list
	c.mu.Unlock()
}

func (c *Client) refreshResponses() {
	c.mu.RLock()
	ids := make([]uuid.UUID, 0, len(c.interactions))
	for _, in := range c.interactions {
		ids = append(ids, in.ID)
	}
	c.mu.RUnlock()

	list, err := c.store.ResponsesByInteractions(c.ctx, ids)
	if err != nil {
		c.logger.Warn("refresh responses failed", zap.String("webinar_id", c.webinarID.String()), zap.Error(err))
		return
	}
	c.mu.Lock()
	c.responses = list
	c.mu.Unlock()
}

func (c *Client) refreshQuestions() {
	list, err := c.store.VisibleQuestions(c.ctx, c.webinarID)
	if err != nil {
		c.logger.Warn("refresh questions failed", zap.String("webinar_id", c.webinarID.String()), zap.Error(err))
		return
	}
	c.mu.Lock()
	c.questions = list
	c.mu.Unlock()
}

func (c *Client) refreshReactions() {
	counts, err := c.store.ReactionCounts(c.ctx, c.webinarID)
	if err != nil {
		c.logger.Warn("refresh reactions failed", zap.String("webinar_id", c.webinarID.String()), zap.Error(err))
		return
	}
	c.mu.Lock()
	c.reactions = counts
	c.mu.Unlock()
}

func (c *Client) refreshParticipants() {
	n, err := c.store.ParticipantCount(c.ctx, c.webinarID)
	if err != nil {
		c.logger.Warn("refresh participant count failed", zap.String("webinar_id", c.webinarID.String()), zap.Error(err))
		return
	}
	c.mu.Lock()
	c.participants = n
	c.mu.Unlock()
}

// ActiveInteraction returns the webinar's current interaction, or false.
func (c *Client) ActiveInteraction() (models.Interaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, in := range c.interactions {
		if in.Status == models.StatusActive {
			return in, true
		}
	}
	return models.Interaction{}, false
}

// PreviousInteractions returns the ended interactions in list order.
func (c *Client) PreviousInteractions() []models.Interaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Interaction
	for _, in := range c.interactions {
		if in.Status == models.StatusEnded {
			out = append(out, in)
		}
	}
	return out
}

// HasAnswered reports whether the participant answered the interaction, from
// local state only. The store constraint remains the authority on submit.
func (c *Client) HasAnswered(interactionID, participantID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.responses {
		if r.InteractionID == interactionID && r.ParticipantID == participantID {
			return true
		}
	}
	return false
}

// Tally aggregates the locally held responses of one interaction.
func (c *Client) Tally(interactionID uuid.UUID) (tally.Tally, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, in := range c.interactions {
		if in.ID == interactionID {
			return tally.Aggregate(in, c.responsesOfLocked(interactionID)), true
		}
	}
	return tally.Tally{}, false
}

// Questions returns the visible question list, newest first.
func (c *Client) Questions() []models.Question {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// ReactionCounts returns the per-type reaction tally.
func (c *Client) ReactionCounts() map[models.ReactionType]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[models.ReactionType]int, len(c.reactions))
	for k, v := range c.reactions {
		out[k] = v
	}
	return out
}

// ParticipantCount returns the current participant count.
func (c *Client) ParticipantCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.participants
}

func (c *Client) responsesOfLocked(interactionID uuid.UUID) []models.Response {
	var out []models.Response
	for _, r := range c.responses {
		if r.InteractionID == interactionID {
			out = append(out, r)
		}
	}
	return out
}
