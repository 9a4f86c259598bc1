package submissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lyra-academy/live-engine/internal/models"
	"github.com/lyra-academy/live-engine/internal/tally"
)

// Status classifies the outcome of a submission. Only store failures surface
// as errors; everything else is a typed outcome the caller renders directly.
type Status string

const (
	StatusAccepted        Status = "accepted"
	StatusAlreadyAnswered Status = "already_answered"
	StatusRejected        Status = "rejected"
)

// Rejection reasons.
const (
	ReasonNoParticipant = "no participant"
	ReasonNotOpen       = "interaction not open"
	ReasonClosed        = "interaction closed"
	ReasonBadAnswer     = "invalid answer payload"
	ReasonTextTooLong   = "answer text too long"
)

// Result is the outcome of one submission attempt. Response is set for
// accepted submissions and, for already_answered, carries the participant's
// original response so the caller can show it instead of an error.
type Result struct {
	Status   Status           `json:"status"`
	Reason   string           `json:"reason,omitempty"`
	Response *models.Response `json:"response,omitempty"`
}

// InteractionGetter is the slice of the interaction store the gate needs.
type InteractionGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Interaction, error)
}

// Gate validates and records audience submissions. It is the only viewer-
// facing write path into the response store. Uniqueness is checked
// optimistically here but enforced authoritatively by the store constraint;
// both layers treat a duplicate as a benign outcome.
type Gate struct {
	interactions InteractionGetter
	responses    Store
	logger       *zap.Logger
	now          func() time.Time
}

// NewGate creates a submission gate.
func NewGate(interactionStore InteractionGetter, responseStore Store, logger *zap.Logger) *Gate {
	return &Gate{
		interactions: interactionStore,
		responses:    responseStore,
		logger:       logger,
		now:          time.Now,
	}
}

// NewGateWithClock is for tests that need a deterministic clock.
func NewGateWithClock(interactionStore InteractionGetter, responseStore Store, logger *zap.Logger, now func() time.Time) *Gate {
	g := NewGate(interactionStore, responseStore, logger)
	g.now = now
	return g
}

// Submit runs the validation sequence in order, short-circuiting on the first
// failure, and on success writes exactly one response row.
func (g *Gate) Submit(ctx context.Context, interactionID, participantID uuid.UUID, answer models.Answer) (Result, error) {
	if participantID == uuid.Nil {
		return rejected(ReasonNoParticipant), nil
	}

	in, err := g.interactions.GetByID(ctx, interactionID)
	if err != nil {
		return Result{}, fmt.Errorf("load interaction: %w", err)
	}

	// Optimistic duplicate check for responsiveness; the insert below is the
	// authority under concurrent writers.
	if prior, err := g.responses.Get(ctx, interactionID, participantID); err != nil {
		return Result{}, fmt.Errorf("check prior response: %w", err)
	} else if prior != nil {
		return Result{Status: StatusAlreadyAnswered, Response: prior}, nil
	}

	now := g.now()
	late := false
	switch in.Status {
	case models.StatusDraft:
		return rejected(ReasonNotOpen), nil
	case models.StatusEnded:
		if !in.Settings.AllowLate {
			return rejected(ReasonClosed), nil
		}
		late = true
	}
	if deadline, ok := in.Deadline(); ok && !now.Before(deadline) {
		if !in.Settings.AllowLate {
			return rejected(ReasonClosed), nil
		}
		late = true
	}

	if reason := validateAnswer(in, answer); reason != "" {
		return rejected(reason), nil
	}

	resp := &models.Response{
		InteractionID: interactionID,
		ParticipantID: participantID,
		Answer:        answer,
		Late:          late,
		CreatedAt:     now,
	}
	if in.Type == models.InteractionQuiz {
		correct, points := tally.Score(*in, answer.OptionID)
		resp.IsCorrect = &correct
		resp.Points = points
	}

	if err := g.responses.Insert(ctx, resp); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Lost the race to our own earlier submission (double-click, two
			// tabs). Return the winning row.
			prior, getErr := g.responses.Get(ctx, interactionID, participantID)
			if getErr != nil {
				return Result{}, fmt.Errorf("load winning response: %w", getErr)
			}
			return Result{Status: StatusAlreadyAnswered, Response: prior}, nil
		}
		return Result{}, fmt.Errorf("insert response: %w", err)
	}

	g.logger.Debug("response recorded",
		zap.String("interaction_id", interactionID.String()),
		zap.String("participant_id", participantID.String()),
		zap.Bool("late", late))
	return Result{Status: StatusAccepted, Response: resp}, nil
}

// HasAnswered reports whether a participant already responded.
func (g *Gate) HasAnswered(ctx context.Context, interactionID, participantID uuid.UUID) (bool, error) {
	prior, err := g.responses.Get(ctx, interactionID, participantID)
	if err != nil {
		return false, err
	}
	return prior != nil, nil
}

func validateAnswer(in *models.Interaction, answer models.Answer) string {
	switch in.Type {
	case models.InteractionPoll, models.InteractionQuiz:
		if answer.OptionID == "" {
			return ReasonBadAnswer
		}
		for _, opt := range in.Options {
			if opt.ID == answer.OptionID {
				return ""
			}
		}
		return ReasonBadAnswer
	case models.InteractionCheckin:
		if max := in.Settings.ScaleMax; max > 0 && (answer.Scale < 1 || answer.Scale > max) {
			return ReasonBadAnswer
		}
	case models.InteractionTask:
		if answer.Text == "" {
			return ReasonBadAnswer
		}
		if len([]rune(answer.Text)) > in.Settings.TaskCharLimit() {
			return ReasonTextTooLong
		}
	case models.InteractionCTA:
		if !answer.Clicked {
			return ReasonBadAnswer
		}
	default:
		return ReasonBadAnswer
	}
	return ""
}

func rejected(reason string) Result {
	return Result{Status: StatusRejected, Reason: reason}
}
