package tally_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyra-academy/live-engine/internal/models"
	"github.com/lyra-academy/live-engine/internal/tally"
)

func pollInteraction(typ models.InteractionType) models.Interaction {
	return models.Interaction{
		ID:     uuid.New(),
		Type:   typ,
		Status: models.StatusActive,
		Options: models.OptionList{
			{ID: "a", Text: "Alpha"},
			{ID: "b", Text: "Beta"},
			{ID: "c", Text: "Gamma"},
		},
	}
}

func optionResponses(optionIDs ...string) []models.Response {
	out := make([]models.Response, 0, len(optionIDs))
	for _, id := range optionIDs {
		out = append(out, models.Response{ID: uuid.New(), Answer: models.Answer{OptionID: id}})
	}
	return out
}

func TestAggregatePollPercentages(t *testing.T) {
	in := pollInteraction(models.InteractionPoll)
	got := tally.Aggregate(in, optionResponses("a", "a", "a", "b", "b"))

	require.Len(t, got.Options, 3)
	assert.Equal(t, 5, got.Total)
	assert.Equal(t, 3, got.Options[0].Count)
	assert.Equal(t, 60, got.Options[0].Percentage)
	assert.Equal(t, 2, got.Options[1].Count)
	assert.Equal(t, 40, got.Options[1].Percentage)
	assert.Equal(t, 0, got.Options[2].Count)
	assert.Equal(t, 0, got.Options[2].Percentage)
}

func TestAggregateEmptyPoll(t *testing.T) {
	in := pollInteraction(models.InteractionPoll)
	got := tally.Aggregate(in, nil)

	assert.Equal(t, 0, got.Total)
	for _, oc := range got.Options {
		assert.Equal(t, 0, oc.Count)
		assert.Equal(t, 0, oc.Percentage)
	}
}

func TestAggregateIgnoresUnknownOptions(t *testing.T) {
	in := pollInteraction(models.InteractionPoll)
	got := tally.Aggregate(in, optionResponses("a", "zzz"))

	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Options[0].Count)
	assert.Equal(t, 50, got.Options[0].Percentage)
}

func TestAggregateCTAClicks(t *testing.T) {
	in := models.Interaction{ID: uuid.New(), Type: models.InteractionCTA}
	got := tally.Aggregate(in, []models.Response{
		{Answer: models.Answer{Clicked: true}},
		{Answer: models.Answer{Clicked: true}},
		{Answer: models.Answer{Clicked: false}},
	})

	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 2, got.Clicks)
}

func TestAggregateCheckinHistogram(t *testing.T) {
	in := models.Interaction{
		ID:       uuid.New(),
		Type:     models.InteractionCheckin,
		Settings: models.Settings{ScaleMax: 5},
	}
	got := tally.Aggregate(in, []models.Response{
		{Answer: models.Answer{Scale: 5}},
		{Answer: models.Answer{Scale: 5}},
		{Answer: models.Answer{Scale: 3}},
		{Answer: models.Answer{Scale: 9}}, // out of range, counted in total only
	})

	assert.Equal(t, 4, got.Total)
	assert.Equal(t, []int{0, 0, 1, 0, 2}, got.Histogram)
}

func TestAggregateBinaryCheckin(t *testing.T) {
	in := models.Interaction{ID: uuid.New(), Type: models.InteractionCheckin}
	got := tally.Aggregate(in, []models.Response{{}, {}})

	assert.Equal(t, 2, got.Total)
	assert.Nil(t, got.Histogram)
}

func TestAggregateCountsLate(t *testing.T) {
	in := pollInteraction(models.InteractionQuiz)
	got := tally.Aggregate(in, []models.Response{
		{Answer: models.Answer{OptionID: "a"}, Late: true},
		{Answer: models.Answer{OptionID: "b"}},
	})

	assert.Equal(t, 1, got.LateCount)
}

func TestScoreQuiz(t *testing.T) {
	in := models.Interaction{
		Type:     models.InteractionQuiz,
		Settings: models.Settings{PointsEnabled: true},
		Options: models.OptionList{
			{ID: "a", IsCorrect: true},
			{ID: "b"},
		},
	}

	correct, points := tally.Score(in, "a")
	assert.True(t, correct)
	assert.Equal(t, 10, points)

	correct, points = tally.Score(in, "b")
	assert.False(t, correct)
	assert.Equal(t, 0, points)
}

func TestScoreWithoutPointsEnabled(t *testing.T) {
	in := models.Interaction{
		Type:    models.InteractionQuiz,
		Options: models.OptionList{{ID: "a", IsCorrect: true}},
	}

	correct, points := tally.Score(in, "a")
	assert.True(t, correct)
	assert.Equal(t, 0, points)
}

func TestScoreNonQuiz(t *testing.T) {
	in := pollInteraction(models.InteractionPoll)
	correct, points := tally.Score(in, "a")
	assert.False(t, correct)
	assert.Equal(t, 0, points)
}

func TestVisibility(t *testing.T) {
	active := models.Interaction{Type: models.InteractionQuiz, Status: models.StatusActive}
	ended := models.Interaction{Type: models.InteractionQuiz, Status: models.StatusEnded}
	open := models.Interaction{
		Type:     models.InteractionPoll,
		Status:   models.StatusActive,
		Settings: models.Settings{ShowResultsImmediately: true},
	}

	assert.False(t, tally.VisibleTo(active, false), "unanswered active quiz hides results")
	assert.True(t, tally.VisibleTo(active, true), "answered viewer sees results")
	assert.True(t, tally.VisibleTo(ended, false), "ended interaction shows results")
	assert.True(t, tally.VisibleTo(open, false), "show_results_immediately overrides")
}
