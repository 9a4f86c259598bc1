package submissions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lyra-academy/live-engine/internal/models"
)

// ErrDuplicate is returned by Insert when the (interaction_id, participant_id)
// uniqueness constraint fires. The gate treats it as "already answered", never
// as a failure: it is the expected outcome of a double-click or a second tab.
var ErrDuplicate = errors.New("response already exists")

const responseColumns = `id, interaction_id, participant_id, answer, is_correct, points, late, created_at`

// Store is the response persistence contract used by the gate and the sync
// layer. Implemented by Repository (Postgres) and the in-memory store.
type Store interface {
	Insert(ctx context.Context, resp *models.Response) error
	Get(ctx context.Context, interactionID, participantID uuid.UUID) (*models.Response, error)
	ListByInteraction(ctx context.Context, interactionID uuid.UUID) ([]models.Response, error)
	ListByInteractions(ctx context.Context, interactionIDs []uuid.UUID) ([]models.Response, error)
}

// Repository handles response persistence. Responses are append-only: this is
// the single write path and rows are never updated or deleted.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a responses repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert writes one response row. A uniqueness violation on
// (interaction_id, participant_id) is translated to ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, resp *models.Response) error {
	const query = `INSERT INTO responses (id, interaction_id, participant_id, answer, is_correct, points, late)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		resp.InteractionID, resp.ParticipantID, resp.Answer, resp.IsCorrect, resp.Points, resp.Late).
		Scan(&resp.ID, &resp.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Get returns a participant's response to an interaction, or nil when they
// have not answered.
func (r *Repository) Get(ctx context.Context, interactionID, participantID uuid.UUID) (*models.Response, error) {
	const query = `SELECT ` + responseColumns + ` FROM responses
		WHERE interaction_id = $1 AND participant_id = $2`
	var resp models.Response
	err := scanResponse(r.pool.QueryRow(ctx, query, interactionID, participantID), &resp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListByInteraction returns all responses to one interaction.
func (r *Repository) ListByInteraction(ctx context.Context, interactionID uuid.UUID) ([]models.Response, error) {
	const query = `SELECT ` + responseColumns + ` FROM responses WHERE interaction_id = $1`
	return r.list(ctx, query, interactionID)
}

// ListByInteractions returns responses filtered to a set of interaction ids,
// as the sync client holds only the interactions of one webinar.
func (r *Repository) ListByInteractions(ctx context.Context, interactionIDs []uuid.UUID) ([]models.Response, error) {
	if len(interactionIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + responseColumns + ` FROM responses WHERE interaction_id = ANY($1)`
	return r.list(ctx, query, interactionIDs)
}

func (r *Repository) list(ctx context.Context, query string, arg interface{}) ([]models.Response, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Response
	for rows.Next() {
		var resp models.Response
		if err := scanResponse(rows, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

func scanResponse(row pgx.Row, resp *models.Response) error {
	return row.Scan(&resp.ID, &resp.InteractionID, &resp.ParticipantID, &resp.Answer,
		&resp.IsCorrect, &resp.Points, &resp.Late, &resp.CreatedAt)
}
