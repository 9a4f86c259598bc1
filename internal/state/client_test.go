package state_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lyra-academy/live-engine/internal/interactions"
	"github.com/lyra-academy/live-engine/internal/memstore"
	"github.com/lyra-academy/live-engine/internal/models"
	"github.com/lyra-academy/live-engine/internal/realtime"
	"github.com/lyra-academy/live-engine/internal/state"
	"github.com/lyra-academy/live-engine/internal/submissions"
)

// fakeFeed delivers events synchronously to subscribed handlers.
type fakeFeed struct {
	handlers  map[uuid.UUID]func(event string, payload []byte)
	cancelled int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{handlers: make(map[uuid.UUID]func(event string, payload []byte))}
}

func (f *fakeFeed) SubscribeWebinar(webinarID uuid.UUID, handler func(event string, payload []byte)) (func(), error) {
	f.handlers[webinarID] = handler
	return func() {
		delete(f.handlers, webinarID)
		f.cancelled++
	}, nil
}

func (f *fakeFeed) emit(webinarID uuid.UUID, event string) {
	if h, ok := f.handlers[webinarID]; ok {
		h(event, nil)
	}
}

type env struct {
	store     *memstore.Store
	feed      *fakeFeed
	ctrl      *interactions.Controller
	gate      *submissions.Gate
	webinarID uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memstore.New()
	return &env{
		store:     store,
		feed:      newFakeFeed(),
		ctrl:      interactions.NewController(store, zap.NewNop()),
		gate:      submissions.NewGate(store, store, zap.NewNop()),
		webinarID: uuid.New(),
	}
}

func (e *env) startClient(t *testing.T) *state.Client {
	t.Helper()
	c := state.NewClient(e.webinarID, e.store, e.feed, zap.NewNop(), nil)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Close)
	return c
}

func (e *env) addActivePoll(t *testing.T, settings models.Settings) *models.Interaction {
	t.Helper()
	in := &models.Interaction{
		WebinarID: e.webinarID,
		Type:      models.InteractionPoll,
		Title:     "poll",
		Settings:  settings,
		Options:   models.OptionList{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
	}
	require.NoError(t, e.ctrl.Create(context.Background(), in))
	activated, err := e.ctrl.Activate(context.Background(), in.ID)
	require.NoError(t, err)
	return activated
}

func TestInitialFetch(t *testing.T) {
	e := newEnv(t)
	in := e.addActivePoll(t, models.Settings{})
	e.store.AddQuestion(models.Question{WebinarID: e.webinarID, ParticipantID: uuid.New(), Text: "why?"})
	e.store.AddReaction(models.Reaction{WebinarID: e.webinarID, ParticipantID: uuid.New(), Type: models.ReactionExcellent})
	e.store.AddParticipant(models.Participant{WebinarID: e.webinarID, UserID: uuid.New()})

	c := e.startClient(t)

	active, ok := c.ActiveInteraction()
	require.True(t, ok)
	assert.Equal(t, in.ID, active.ID)
	assert.Len(t, c.Questions(), 1)
	assert.Equal(t, 1, c.ReactionCounts()[models.ReactionExcellent])
	assert.Equal(t, 1, c.ParticipantCount())
}

func TestRefetchOnInteractionEvent(t *testing.T) {
	e := newEnv(t)
	first := e.addActivePoll(t, models.Settings{})
	c := e.startClient(t)

	// Host advances to a new interaction; the client re-fetches on the event.
	second := e.addActivePoll(t, models.Settings{})
	e.feed.emit(e.webinarID, realtime.EventInteractionChanged)

	active, ok := c.ActiveInteraction()
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)

	prev := c.PreviousInteractions()
	require.Len(t, prev, 1)
	assert.Equal(t, first.ID, prev[0].ID)
}

func TestRefetchOnResponseEvent(t *testing.T) {
	e := newEnv(t)
	in := e.addActivePoll(t, models.Settings{})
	c := e.startClient(t)
	participant := uuid.New()

	res, err := e.gate.Submit(context.Background(), in.ID, participant, models.Answer{OptionID: "a"})
	require.NoError(t, err)
	require.Equal(t, submissions.StatusAccepted, res.Status)

	assert.False(t, c.HasAnswered(in.ID, participant), "stale until the feed ticks")
	e.feed.emit(e.webinarID, realtime.EventResponseAdded)
	assert.True(t, c.HasAnswered(in.ID, participant))

	tl, ok := c.Tally(in.ID)
	require.True(t, ok)
	assert.Equal(t, 1, tl.Total)
	assert.Equal(t, 100, tl.Options[0].Percentage)
}

func TestQuestionAndReactionEvents(t *testing.T) {
	e := newEnv(t)
	c := e.startClient(t)

	e.store.AddQuestion(models.Question{WebinarID: e.webinarID, ParticipantID: uuid.New(), Text: "visible"})
	e.store.AddQuestion(models.Question{WebinarID: e.webinarID, ParticipantID: uuid.New(), Text: "hidden", IsHidden: true})
	e.feed.emit(e.webinarID, realtime.EventQuestionChanged)

	qs := c.Questions()
	require.Len(t, qs, 1)
	assert.Equal(t, "visible", qs[0].Text)

	e.store.AddReaction(models.Reaction{WebinarID: e.webinarID, ParticipantID: uuid.New(), Type: models.ReactionRepeat})
	e.feed.emit(e.webinarID, realtime.EventReactionAdded)
	assert.Equal(t, 1, c.ReactionCounts()[models.ReactionRepeat])
}

func TestSnapshotVisibilityPolicy(t *testing.T) {
	e := newEnv(t)
	in := e.addActivePoll(t, models.Settings{})
	c := e.startClient(t)

	answered := uuid.New()
	other := uuid.New()
	_, err := e.gate.Submit(context.Background(), in.ID, answered, models.Answer{OptionID: "b"})
	require.NoError(t, err)
	e.feed.emit(e.webinarID, realtime.EventResponseAdded)

	snapAnswered := c.SnapshotFor(answered)
	require.NotNil(t, snapAnswered.Active)
	assert.Equal(t, []uuid.UUID{in.ID}, snapAnswered.Answered)
	require.Len(t, snapAnswered.Tallies, 1, "answered viewer sees the tally")

	snapOther := c.SnapshotFor(other)
	assert.Empty(t, snapOther.Tallies, "unanswered viewer of an active poll sees no tally")
	assert.Empty(t, snapOther.Answered)
}

func TestSnapshotStripsAnswerKey(t *testing.T) {
	e := newEnv(t)
	in := &models.Interaction{
		WebinarID: e.webinarID,
		Type:      models.InteractionQuiz,
		Title:     "quiz",
		Options:   models.OptionList{{ID: "a", Text: "A", IsCorrect: true}, {ID: "b", Text: "B"}},
	}
	require.NoError(t, e.ctrl.Create(context.Background(), in))
	_, err := e.ctrl.Activate(context.Background(), in.ID)
	require.NoError(t, err)
	c := e.startClient(t)

	snap := c.SnapshotFor(uuid.New())
	require.NotNil(t, snap.Active)
	for _, opt := range snap.Active.Options {
		assert.False(t, opt.IsCorrect)
	}
}

func TestSnapshotExcludesDrafts(t *testing.T) {
	e := newEnv(t)
	draft := &models.Interaction{WebinarID: e.webinarID, Type: models.InteractionPoll, Title: "upcoming",
		Options: models.OptionList{{ID: "a", Text: "A"}}}
	require.NoError(t, e.ctrl.Create(context.Background(), draft))
	c := e.startClient(t)

	snap := c.SnapshotFor(uuid.New())
	assert.Nil(t, snap.Active)
	assert.Empty(t, snap.Previous)
}

func TestCloseCancelsSubscription(t *testing.T) {
	e := newEnv(t)
	c := state.NewClient(e.webinarID, e.store, e.feed, zap.NewNop(), nil)
	require.NoError(t, c.Start(context.Background()))

	c.Close()
	assert.Equal(t, 1, e.feed.cancelled)
}

func TestSupervisorPushesSnapshots(t *testing.T) {
	e := newEnv(t)
	in := e.addActivePoll(t, models.Settings{ShowResultsImmediately: true})

	hub := &fakePusher{viewers: map[string]uuid.UUID{"conn-1": uuid.New()}}
	sup := state.NewSupervisor(e.store, e.feed, hub, zap.NewNop())

	sup.RoomOpened(e.webinarID)
	require.GreaterOrEqual(t, len(hub.sent), 1, "initial snapshot pushed on open")

	_, err := e.gate.Submit(context.Background(), in.ID, uuid.New(), models.Answer{OptionID: "a"})
	require.NoError(t, err)
	before := len(hub.sent)
	e.feed.emit(e.webinarID, realtime.EventResponseAdded)
	assert.Greater(t, len(hub.sent), before, "update pushed after feed event")

	last := hub.sent[len(hub.sent)-1].(state.Snapshot)
	require.Len(t, last.Tallies, 1)
	assert.Equal(t, 1, last.Tallies[0].Total)

	sup.RoomClosed(e.webinarID)
	assert.Equal(t, 1, e.feed.cancelled)
}

type fakePusher struct {
	viewers map[string]uuid.UUID
	sent    []interface{}
}

func (f *fakePusher) EachClient(_ uuid.UUID, fn func(clientID string, userID uuid.UUID)) {
	for id, userID := range f.viewers {
		fn(id, userID)
	}
}

func (f *fakePusher) SendToClient(_ uuid.UUID, _ string, _ string, payload interface{}) {
	f.sent = append(f.sent, payload)
}
