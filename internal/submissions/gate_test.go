package submissions_test

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
	"github.com/lyra-academy/live-engine/internal/submissions"
)

type fixture struct {
	store *memstore.Store
	ctrl  *interactions.Controller
	gate  *submissions.Gate
	clock *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := memstore.NewWithClock(func() time.Time { return clock })
	return &fixture{
		store: store,
		ctrl:  interactions.NewController(store, zap.NewNop()),
		gate:  submissions.NewGateWithClock(store, store, zap.NewNop(), func() time.Time { return clock }),
		clock: &clock,
	}
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func (f *fixture) activeQuiz(t *testing.T, settings models.Settings) *models.Interaction {
	t.Helper()
	in := &models.Interaction{
		WebinarID: uuid.New(),
		Type:      models.InteractionQuiz,
		Title:     "quiz",
		Settings:  settings,
		Options: models.OptionList{
			{ID: "a", Text: "Right", IsCorrect: true},
			{ID: "b", Text: "Wrong"},
		},
	}
	require.NoError(t, f.ctrl.Create(context.Background(), in))
	activated, err := f.ctrl.Activate(context.Background(), in.ID)
	require.NoError(t, err)
	return activated
}

func TestSubmitRequiresParticipant(t *testing.T) {
	f := newFixture(t)
	in := f.activeQuiz(t, models.Settings{})

	res, err := f.gate.Submit(context.Background(), in.ID, uuid.Nil, models.Answer{OptionID: "a"})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusRejected, res.Status)
	assert.Equal(t, submissions.ReasonNoParticipant, res.Reason)
}

func TestSubmitScoresQuiz(t *testing.T) {
	f := newFixture(t)
	in := f.activeQuiz(t, models.Settings{PointsEnabled: true})

	res, err := f.gate.Submit(context.Background(), in.ID, uuid.New(), models.Answer{OptionID: "a"})
	require.NoError(t, err)
	require.Equal(t, submissions.StatusAccepted, res.Status)
	require.NotNil(t, res.Response.IsCorrect)
	assert.True(t, *res.Response.IsCorrect)
	assert.Equal(t, 10, res.Response.Points)

	res, err = f.gate.Submit(context.Background(), in.ID, uuid.New(), models.Answer{OptionID: "b"})
	require.NoError(t, err)
	require.Equal(t, submissions.StatusAccepted, res.Status)
	require.NotNil(t, res.Response.IsCorrect)
	assert.False(t, *res.Response.IsCorrect)
	assert.Equal(t, 0, res.Response.Points)
}

func TestSubmitTwiceIsAlreadyAnswered(t *testing.T) {
	f := newFixture(t)
	in := f.activeQuiz(t, models.Settings{})
	participant := uuid.New()

	first, err := f.gate.Submit(context.Background(), in.ID, participant, models.Answer{OptionID: "a"})
	require.NoError(t, err)
	require.Equal(t, submissions.StatusAccepted, first.Status)

	second, err := f.gate.Submit(context.Background(), in.ID, participant, models.Answer{OptionID: "b"})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusAlreadyAnswered, second.Status)
	require.NotNil(t, second.Response)
	assert.Equal(t, first.Response.ID, second.Response.ID, "original response returned, no second row")
	assert.Equal(t, "a", second.Response.Answer.OptionID)

	all, err := f.store.ListByInteraction(context.Background(), in.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSubmitToDraftRejected(t *testing.T) {
	f := newFixture(t)
	in := &models.Interaction{WebinarID: uuid.New(), Type: models.InteractionPoll, Title: "p",
		Options: models.OptionList{{ID: "a", Text: "A"}}}
	require.NoError(t, f.ctrl.Create(context.Background(), in))

	res, err := f.gate.Submit(context.Background(), in.ID, uuid.New(), models.Answer{OptionID: "a"})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusRejected, res.Status)
	assert.Equal(t, submissions.ReasonNotOpen, res.Reason)
}

func TestSubmitAfterEnd(t *testing.T) {
	f := newFixture(t)

	closed := f.activeQuiz(t, models.Settings{})
	_, err := f.ctrl.End(context.Background(), closed.ID)
	require.NoError(t, err)

	res, err := f.gate.Submit(context.Background(), closed.ID, uuid.New(), models.Answer{OptionID: "a"})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusRejected, res.Status)
	assert.Equal(t, submissions.ReasonClosed, res.Reason)

	open := f.activeQuiz(t, models.Settings{AllowLate: true})
	_, err = f.ctrl.End(context.Background(), open.ID)
	require.NoError(t, err)

	res, err = f.gate.Submit(context.Background(), open.ID, uuid.New(), models.Answer{OptionID: "a"})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusAccepted, res.Status)
	assert.True(t, res.Response.Late, "post-end submission flagged late")
}

func TestSubmitTimerExpiry(t *testing.T) {
	f := newFixture(t)
	in := f.activeQuiz(t, models.Settings{TimerDuration: 30})

	f.advance(29 * time.Second)
	res, err := f.gate.Submit(context.Background(), in.ID, uuid.New(), models.Answer{OptionID: "a"})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusAccepted, res.Status)
	assert.False(t, res.Response.Late)

	f.advance(2 * time.Second)
	res, err = f.gate.Submit(context.Background(), in.ID, uuid.New(), models.Answer{OptionID: "a"})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusRejected, res.Status)
	assert.Equal(t, submissions.ReasonClosed, res.Reason)
}

func TestSubmitTimerExpiryWithAllowLate(t *testing.T) {
	f := newFixture(t)
	in := f.activeQuiz(t, models.Settings{TimerDuration: 30, AllowLate: true})

	f.advance(45 * time.Second)
	res, err := f.gate.Submit(context.Background(), in.ID, uuid.New(), models.Answer{OptionID: "a"})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusAccepted, res.Status)
	assert.True(t, res.Response.Late)
}

func TestSubmitValidatesPayloadShape(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	quiz := f.activeQuiz(t, models.Settings{})
	res, err := f.gate.Submit(ctx, quiz.ID, uuid.New(), models.Answer{OptionID: "nope"})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusRejected, res.Status)
	assert.Equal(t, submissions.ReasonBadAnswer, res.Reason)

	task := &models.Interaction{WebinarID: uuid.New(), Type: models.InteractionTask, Title: "t",
		Settings: models.Settings{CharLimit: 10}}
	require.NoError(t, f.ctrl.Create(ctx, task))
	_, err = f.ctrl.Activate(ctx, task.ID)
	require.NoError(t, err)

	res, err = f.gate.Submit(ctx, task.ID, uuid.New(), models.Answer{Text: "this is far too long"})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusRejected, res.Status)
	assert.Equal(t, submissions.ReasonTextTooLong, res.Reason)

	res, err = f.gate.Submit(ctx, task.ID, uuid.New(), models.Answer{Text: "short"})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusAccepted, res.Status)

	checkin := &models.Interaction{WebinarID: uuid.New(), Type: models.InteractionCheckin, Title: "c",
		Settings: models.Settings{ScaleMax: 5}}
	require.NoError(t, f.ctrl.Create(ctx, checkin))
	_, err = f.ctrl.Activate(ctx, checkin.ID)
	require.NoError(t, err)

	res, err = f.gate.Submit(ctx, checkin.ID, uuid.New(), models.Answer{Scale: 9})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusRejected, res.Status)
}

// Mirrors the full timed-quiz flow: two participants answer inside the
// window, a duplicate is absorbed, and a submission after expiry is refused.
func TestTimedQuizFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := f.activeQuiz(t, models.Settings{PointsEnabled: true, TimerDuration: 30})

	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()

	f.advance(5 * time.Second)
	res, err := f.gate.Submit(ctx, in.ID, p1, models.Answer{OptionID: "a"})
	require.NoError(t, err)
	require.Equal(t, submissions.StatusAccepted, res.Status)
	assert.True(t, *res.Response.IsCorrect)
	assert.Equal(t, 10, res.Response.Points)

	f.advance(5 * time.Second)
	res, err = f.gate.Submit(ctx, in.ID, p2, models.Answer{OptionID: "b"})
	require.NoError(t, err)
	require.Equal(t, submissions.StatusAccepted, res.Status)
	assert.False(t, *res.Response.IsCorrect)
	assert.Equal(t, 0, res.Response.Points)

	f.advance(2 * time.Second)
	res, err = f.gate.Submit(ctx, in.ID, p1, models.Answer{OptionID: "a"})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusAlreadyAnswered, res.Status)

	f.advance(19 * time.Second) // t = 31s
	res, err = f.gate.Submit(ctx, in.ID, p3, models.Answer{OptionID: "a"})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusRejected, res.Status)
	assert.Equal(t, submissions.ReasonClosed, res.Reason)
}

func TestHasAnswered(t *testing.T) {
	f := newFixture(t)
	in := f.activeQuiz(t, models.Settings{})
	participant := uuid.New()

	answered, err := f.gate.HasAnswered(context.Background(), in.ID, participant)
	require.NoError(t, err)
	assert.False(t, answered)

	_, err = f.gate.Submit(context.Background(), in.ID, participant, models.Answer{OptionID: "a"})
	require.NoError(t, err)

	answered, err = f.gate.HasAnswered(context.Background(), in.ID, participant)
	require.NoError(t, err)
	assert.True(t, answered)
}

func TestSubmitRejectsUnknownInteractionType(t *testing.T) {
	f := newFixture(t)

	// Rows with a type outside the five response-bearing kinds can only
	// appear by writing to the store directly; the gate still refuses them
	// rather than accepting an empty answer.
	in := &models.Interaction{WebinarID: uuid.New(), Type: "qa", Title: "qa"}
	require.NoError(t, f.store.Create(context.Background(), in))
	_, err := f.store.Activate(context.Background(), in.ID)
	require.NoError(t, err)

	res, err := f.gate.Submit(context.Background(), in.ID, uuid.New(), models.Answer{})
	require.NoError(t, err)
	assert.Equal(t, submissions.StatusRejected, res.Status)
	assert.Equal(t, submissions.ReasonBadAnswer, res.Reason)
}
