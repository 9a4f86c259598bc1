package questions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lyra-academy/live-engine/internal/models"
)

const questionColumns = `id, webinar_id, participant_id, text, upvotes, is_pinned, is_answered, is_hidden, is_featured, created_at`

// Repository handles question persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a questions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new question.
func (r *Repository) Create(ctx context.Context, q *models.Question) error {
	const query = `INSERT INTO questions (id, webinar_id, participant_id, text)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, q.WebinarID, q.ParticipantID, q.Text).
		Scan(&q.ID, &q.CreatedAt)
}

// GetByID returns a question by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	const query = `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	var q models.Question
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&q.ID, &q.WebinarID, &q.ParticipantID, &q.Text, &q.Upvotes, &q.IsPinned, &q.IsAnswered, &q.IsHidden, &q.IsFeatured, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListVisible returns a webinar's non-hidden questions, newest first.
func (r *Repository) ListVisible(ctx context.Context, webinarID uuid.UUID) ([]models.Question, error) {
	const query = `SELECT ` + questionColumns + ` FROM questions
		WHERE webinar_id = $1 AND is_hidden = FALSE
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, webinarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.WebinarID, &q.ParticipantID, &q.Text, &q.Upvotes, &q.IsPinned, &q.IsAnswered, &q.IsHidden, &q.IsFeatured, &q.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Upvote adds one upvote per participant per question and returns the new
// count. Voting twice leaves the count unchanged.
func (r *Repository) Upvote(ctx context.Context, questionID, participantID uuid.UUID) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `INSERT INTO question_upvotes (question_id, participant_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, questionID, participantID)
	if err != nil {
		return 0, err
	}
	var votes int
	if tag.RowsAffected() > 0 {
		err = tx.QueryRow(ctx, `UPDATE questions SET upvotes = upvotes + 1 WHERE id = $1 RETURNING upvotes`, questionID).Scan(&votes)
	} else {
		err = tx.QueryRow(ctx, `SELECT upvotes FROM questions WHERE id = $1`, questionID).Scan(&votes)
	}
	if err != nil {
		return 0, err
	}
	return votes, tx.Commit(ctx)
}

// Moderation flags.
const (
	FlagPinned   = "is_pinned"
	FlagAnswered = "is_answered"
	FlagHidden   = "is_hidden"
	FlagFeatured = "is_featured"
)

// SetFlag sets one of the moderation flags.
func (r *Repository) SetFlag(ctx context.Context, id uuid.UUID, flag string, value bool) error {
	var query string
	switch flag {
	case FlagPinned:
		query = `UPDATE questions SET is_pinned = $2 WHERE id = $1`
	case FlagAnswered:
		query = `UPDATE questions SET is_answered = $2 WHERE id = $1`
	case FlagHidden:
		query = `UPDATE questions SET is_hidden = $2 WHERE id = $1`
	case FlagFeatured:
		query = `UPDATE questions SET is_featured = $2 WHERE id = $1`
	default:
		return errors.New("unknown question flag")
	}
	_, err := r.pool.Exec(ctx, query, id, value)
	return err
}
