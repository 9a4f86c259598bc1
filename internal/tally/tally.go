// Package tally computes aggregates over the responses of one interaction.
// It is pure: no store access, no clocks. Callers pass the interaction and the
// full response set and get counts, percentages and scores back.
package tally

import (
	"github.com/google/uuid"

	"github.com/lyra-academy/live-engine/internal/models"
)

// OptionCount is the per-option slice of a poll/quiz tally.
type OptionCount struct {
	OptionID   string `json:"option_id"`
	Text       string `json:"text"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// Tally is the aggregate view of one interaction's responses.
type Tally struct {
	InteractionID uuid.UUID     `json:"interaction_id"`
	Total         int           `json:"total"`
	Options       []OptionCount `json:"options,omitempty"`  // poll/quiz
	Clicks        int           `json:"clicks,omitempty"`   // cta
	Histogram     []int         `json:"histogram,omitempty"` // checkin scale buckets 1..scale_max
	LateCount     int           `json:"late_count,omitempty"`
}

// Aggregate computes the tally for one interaction from its response set.
func Aggregate(in models.Interaction, responses []models.Response) Tally {
	t := Tally{InteractionID: in.ID, Total: len(responses)}
	for _, r := range responses {
		if r.Late {
			t.LateCount++
		}
	}

	switch in.Type {
	case models.InteractionPoll, models.InteractionQuiz:
		counts := make(map[string]int, len(in.Options))
		for _, r := range responses {
			counts[r.Answer.OptionID]++
		}
		t.Options = make([]OptionCount, 0, len(in.Options))
		for _, opt := range in.Options {
			n := counts[opt.ID]
			t.Options = append(t.Options, OptionCount{
				OptionID:   opt.ID,
				Text:       opt.Text,
				Count:      n,
				Percentage: percentage(n, len(responses)),
			})
		}
	case models.InteractionCTA:
		for _, r := range responses {
			if r.Answer.Clicked {
				t.Clicks++
			}
		}
	case models.InteractionCheckin:
		if max := in.Settings.ScaleMax; max > 0 {
			t.Histogram = make([]int, max)
			for _, r := range responses {
				if r.Answer.Scale >= 1 && r.Answer.Scale <= max {
					t.Histogram[r.Answer.Scale-1]++
				}
			}
		}
	}
	// task: only Total matters; the UI flips on existence of a response.
	return t
}

// percentage guards the zero-total case: an empty tally reports 0 everywhere.
func percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(count)/float64(total)*100 + 0.5)
}

// Score resolves a quiz submission against the interaction's answer key.
// Correctness is computed at submission time, never at aggregation time.
// A correct answer earns the flat reward only when points are enabled.
func Score(in models.Interaction, optionID string) (correct bool, points int) {
	if in.Type != models.InteractionQuiz {
		return false, 0
	}
	key, ok := in.CorrectOption()
	if !ok || key.ID != optionID {
		return false, 0
	}
	if in.Settings.PointsEnabled {
		return true, models.QuizReward
	}
	return true, 0
}

// VisibleTo reports whether per-option tallies may be shown to a viewer.
// A participant who has not answered a still-active poll/quiz must not see
// partial results, to avoid biasing their vote.
func VisibleTo(in models.Interaction, answered bool) bool {
	if in.Settings.ShowResultsImmediately {
		return true
	}
	if answered {
		return true
	}
	return in.Status == models.StatusEnded
}
