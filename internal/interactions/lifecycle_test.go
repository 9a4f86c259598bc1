package interactions_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lyra-academy/live-engine/internal/interactions"
	"github.com/lyra-academy/live-engine/internal/memstore"
	"github.com/lyra-academy/live-engine/internal/models"
)

func newController(t *testing.T) (*interactions.Controller, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return interactions.NewController(store, zap.NewNop()), store
}

func createDraft(t *testing.T, c *interactions.Controller, webinarID uuid.UUID, typ models.InteractionType) *models.Interaction {
	t.Helper()
	in := &models.Interaction{WebinarID: webinarID, Type: typ, Title: string(typ)}
	require.NoError(t, c.Create(context.Background(), in))
	return in
}

func TestSingleActiveInvariant(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)
	webinarID := uuid.New()

	first := createDraft(t, c, webinarID, models.InteractionPoll)
	second := createDraft(t, c, webinarID, models.InteractionQuiz)
	third := createDraft(t, c, webinarID, models.InteractionCheckin)

	for _, id := range []uuid.UUID{first.ID, second.ID, third.ID} {
		_, err := c.Activate(ctx, id)
		require.NoError(t, err)

		all, err := c.Ordered(ctx, webinarID)
		require.NoError(t, err)
		active := 0
		for _, in := range all {
			if in.Status == models.StatusActive {
				active++
			}
		}
		assert.Equal(t, 1, active, "exactly one active interaction after each activation")
	}

	current, err := c.CurrentActive(ctx, webinarID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, third.ID, current.ID)
}

func TestActivateEndsPredecessor(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)
	webinarID := uuid.New()

	first := createDraft(t, c, webinarID, models.InteractionPoll)
	second := createDraft(t, c, webinarID, models.InteractionPoll)

	_, err := c.Activate(ctx, first.ID)
	require.NoError(t, err)
	_, err = c.Activate(ctx, second.ID)
	require.NoError(t, err)

	prev, err := c.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnded, prev.Status)
	require.NotNil(t, prev.EndedAt)
}

func TestActivateEndedFails(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)
	webinarID := uuid.New()

	in := createDraft(t, c, webinarID, models.InteractionPoll)
	_, err := c.Activate(ctx, in.ID)
	require.NoError(t, err)
	_, err = c.End(ctx, in.ID)
	require.NoError(t, err)

	_, err = c.Activate(ctx, in.ID)
	assert.ErrorIs(t, err, interactions.ErrInvalidTransition)

	// Failed activation leaves no active interaction behind.
	current, err := c.CurrentActive(ctx, webinarID)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestActivateActiveIsNoop(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)
	webinarID := uuid.New()

	in := createDraft(t, c, webinarID, models.InteractionPoll)
	activated, err := c.Activate(ctx, in.ID)
	require.NoError(t, err)

	again, err := c.Activate(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, activated.ActivatedAt, again.ActivatedAt)
	assert.Equal(t, models.StatusActive, again.Status)
}

func TestEndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := base
	store := memstore.NewWithClock(func() time.Time { return clock })
	c := interactions.NewController(store, zap.NewNop())
	webinarID := uuid.New()

	in := &models.Interaction{WebinarID: webinarID, Type: models.InteractionTask, Title: "task"}
	require.NoError(t, c.Create(context.Background(), in))
	_, err := c.Activate(ctx, in.ID)
	require.NoError(t, err)

	ended, err := c.End(ctx, in.ID)
	require.NoError(t, err)
	require.NotNil(t, ended.EndedAt)

	clock = base.Add(time.Minute)
	again, err := c.End(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnded, again.Status)
	assert.True(t, ended.EndedAt.Equal(*again.EndedAt), "second end keeps the original ended_at")
}

func TestOrderingIsCreationOrder(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)
	webinarID := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		ids = append(ids, createDraft(t, c, webinarID, models.InteractionPoll).ID)
	}

	all, err := c.Ordered(ctx, webinarID)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, in := range all {
		assert.Equal(t, ids[i], in.ID)
		assert.Equal(t, i, in.OrderIndex)
	}
}

func TestPreviousListsEndedInOrder(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)
	webinarID := uuid.New()

	first := createDraft(t, c, webinarID, models.InteractionPoll)
	second := createDraft(t, c, webinarID, models.InteractionQuiz)
	third := createDraft(t, c, webinarID, models.InteractionCTA)

	_, err := c.Activate(ctx, first.ID)
	require.NoError(t, err)
	_, err = c.Activate(ctx, second.ID)
	require.NoError(t, err)
	_, err = c.Activate(ctx, third.ID)
	require.NoError(t, err)

	prev, err := c.Previous(ctx, webinarID)
	require.NoError(t, err)
	require.Len(t, prev, 2)
	assert.Equal(t, first.ID, prev[0].ID)
	assert.Equal(t, second.ID, prev[1].ID)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	c, _ := newController(t)
	in := &models.Interaction{WebinarID: uuid.New(), Type: "karaoke"}
	err := c.Create(context.Background(), in)
	assert.ErrorIs(t, err, interactions.ErrInvalidTransition)
}

func TestCreateRejectsNonResponseTypes(t *testing.T) {
	ctx := context.Background()
	c, store := newController(t)
	webinarID := uuid.New()

	// Reactions and Q&A have their own tables; they never enter the
	// interaction lifecycle or the submission gate.
	for _, typ := range []models.InteractionType{"reaction", "qa"} {
		in := &models.Interaction{WebinarID: webinarID, Type: typ, Title: string(typ)}
		err := c.Create(ctx, in)
		assert.ErrorIs(t, err, interactions.ErrInvalidTransition, "type %s", typ)
	}

	all, err := store.ListByWebinar(ctx, webinarID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAdvanceWalksDraftsInOrder(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)
	webinarID := uuid.New()

	first := createDraft(t, c, webinarID, models.InteractionPoll)
	second := createDraft(t, c, webinarID, models.InteractionQuiz)

	in, err := c.Advance(ctx, webinarID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, in.ID)
	assert.Equal(t, models.StatusActive, in.Status)

	in, err = c.Advance(ctx, webinarID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, in.ID)
	assert.Equal(t, models.StatusActive, in.Status)

	// No drafts left: advancing ends the current interaction.
	in, err = c.Advance(ctx, webinarID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, in.ID)
	assert.Equal(t, models.StatusEnded, in.Status)

	_, err = c.Advance(ctx, webinarID)
	assert.ErrorIs(t, err, interactions.ErrDone)
}
