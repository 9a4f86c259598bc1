package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Answer is the variant payload of a response. Exactly one group of fields is
// meaningful depending on the interaction type: OptionID for poll/quiz, Scale
// for check-ins, Text for tasks, Clicked for CTAs.
type Answer struct {
	OptionID string `json:"option_id,omitempty"`
	Scale    int    `json:"scale,omitempty"`
	Text     string `json:"text,omitempty"`
	Clicked  bool   `json:"clicked,omitempty"`
}

// Scan implements sql.Scanner for reading JSONB.
func (a *Answer) Scan(value interface{}) error {
	if value == nil {
		*a = Answer{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	}
	return errors.New("unsupported JSONB source for Answer")
}

// Value implements driver.Valuer for writing JSONB.
func (a Answer) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// QuizReward is the flat score for a correct quiz answer when points are enabled.
const QuizReward = 10

// Response is one participant's answer to one interaction. The pair
// (interaction_id, participant_id) is unique in the store; a participant
// answers each interaction at most once and responses are never updated.
type Response struct {
	ID            uuid.UUID `json:"id"`
	InteractionID uuid.UUID `json:"interaction_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Answer        Answer    `json:"answer"`
	IsCorrect     *bool     `json:"is_correct,omitempty"` // set only for quiz answers
	Points        int       `json:"points"`
	Late          bool      `json:"late"` // accepted after the deadline under allow_late
	CreatedAt     time.Time `json:"created_at"`
}
