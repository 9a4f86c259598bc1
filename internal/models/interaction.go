package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// InteractionType identifies the kind of prompt shown to the audience.
type InteractionType string

// Reactions and Q&A are separate append-only tables, not interaction types;
// every type here carries responses through the submission gate.
const (
	InteractionPoll    InteractionType = "poll"
	InteractionQuiz    InteractionType = "quiz"
	InteractionCheckin InteractionType = "checkin"
	InteractionTask    InteractionType = "task"
	InteractionCTA     InteractionType = "cta"
)

// Valid reports whether t is a known interaction type.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionPoll, InteractionQuiz, InteractionCheckin, InteractionTask, InteractionCTA:
		return true
	}
	return false
}

// InteractionStatus is the lifecycle state of an interaction.
type InteractionStatus string

const (
	StatusDraft  InteractionStatus = "draft"
	StatusActive InteractionStatus = "active"
	StatusEnded  InteractionStatus = "ended"
)

// Option is one selectable answer for a poll or quiz.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

// OptionList is stored as JSONB.
type OptionList []Option

// Scan implements sql.Scanner for reading JSONB.
func (o *OptionList) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	}
	return errors.New("unsupported JSONB source for OptionList")
}

// Value implements driver.Valuer for writing JSONB.
func (o OptionList) Value() (driver.Value, error) {
	if o == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// DefaultTaskCharLimit is the free-text ceiling when settings.char_limit is unset.
const DefaultTaskCharLimit = 200

// Settings is the per-interaction configuration bag, stored as JSONB.
type Settings struct {
	ShowResultsImmediately bool `json:"show_results_immediately,omitempty"`
	PointsEnabled          bool `json:"points_enabled,omitempty"`
	TimerDuration          int  `json:"timer_duration,omitempty"` // seconds; 0 = no timer
	AllowLate              bool `json:"allow_late,omitempty"`
	ScaleMax               int  `json:"scale_max,omitempty"` // checkin scale 1..ScaleMax; 0 = binary
	CharLimit              int  `json:"char_limit,omitempty"` // task text ceiling; 0 = DefaultTaskCharLimit
}

// Scan implements sql.Scanner for reading JSONB.
func (s *Settings) Scan(value interface{}) error {
	if value == nil {
		*s = Settings{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return errors.New("unsupported JSONB source for Settings")
}

// Value implements driver.Valuer for writing JSONB.
func (s Settings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// TaskCharLimit returns the effective free-text ceiling.
func (s Settings) TaskCharLimit() int {
	if s.CharLimit > 0 {
		return s.CharLimit
	}
	return DefaultTaskCharLimit
}

// Interaction is one poll/quiz/check-in/task/CTA prompt within a webinar.
type Interaction struct {
	ID          uuid.UUID         `json:"id"`
	WebinarID   uuid.UUID         `json:"webinar_id"`
	Type        InteractionType   `json:"type"`
	Title       string            `json:"title"`
	Question    *string           `json:"question,omitempty"`
	Options     OptionList        `json:"options,omitempty"`
	Settings    Settings          `json:"settings"`
	Status      InteractionStatus `json:"status"`
	OrderIndex  int               `json:"order_index"`
	BannerKey   *string           `json:"banner_key,omitempty"` // S3 object key for CTA banner image
	ActivatedAt *time.Time        `json:"activated_at,omitempty"`
	EndedAt     *time.Time        `json:"ended_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// CorrectOption returns the option flagged correct, if any.
func (i *Interaction) CorrectOption() (Option, bool) {
	for _, opt := range i.Options {
		if opt.IsCorrect {
			return opt, true
		}
	}
	return Option{}, false
}

// Deadline returns the submission cutoff for a timed quiz. The zero time and
// false mean no timer applies (not a quiz, no timer configured, or not yet active).
func (i *Interaction) Deadline() (time.Time, bool) {
	if i.Type != InteractionQuiz || i.Settings.TimerDuration <= 0 || i.ActivatedAt == nil {
		return time.Time{}, false
	}
	return i.ActivatedAt.Add(time.Duration(i.Settings.TimerDuration) * time.Second), true
}

// Sanitized returns a copy safe to send to the audience: correct-answer flags
// are stripped so quiz clients cannot read the answer key.
func (i Interaction) Sanitized() Interaction {
	if len(i.Options) == 0 {
		return i
	}
	opts := make(OptionList, len(i.Options))
	for idx, opt := range i.Options {
		opt.IsCorrect = false
		opts[idx] = opt
	}
	i.Options = opts
	return i
}
