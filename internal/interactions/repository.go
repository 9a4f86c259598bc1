package interactions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lyra-academy/live-engine/internal/models"
)

const interactionColumns = `id, webinar_id, type, title, question, options, settings, status, order_index, banner_key, activated_at, ended_at, created_at`

// Store is the persistence contract the lifecycle controller and handlers use.
// Implemented by Repository (Postgres) and by the in-memory store in tests.
type Store interface {
	Create(ctx context.Context, in *models.Interaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Interaction, error)
	ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Interaction, error)
	CurrentActive(ctx context.Context, webinarID uuid.UUID) (*models.Interaction, error)
	Activate(ctx context.Context, id uuid.UUID) (*models.Interaction, error)
	End(ctx context.Context, id uuid.UUID) (*models.Interaction, error)
	SetBannerKey(ctx context.Context, id uuid.UUID, key string) error
}

// Repository handles interaction persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an interactions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new draft interaction at the end of the webinar's order.
func (r *Repository) Create(ctx context.Context, in *models.Interaction) error {
	const query = `INSERT INTO interactions (id, webinar_id, type, title, question, options, settings, status, order_index)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, 'draft',
			(SELECT COALESCE(MAX(order_index), -1) + 1 FROM interactions WHERE webinar_id = $1))
		RETURNING id, status, order_index, created_at`
	return r.pool.QueryRow(ctx, query, in.WebinarID, in.Type, in.Title, in.Question, in.Options, in.Settings).
		Scan(&in.ID, &in.Status, &in.OrderIndex, &in.CreatedAt)
}

// GetByID returns an interaction by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Interaction, error) {
	const query = `SELECT ` + interactionColumns + ` FROM interactions WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// ListByWebinar returns all interactions of a webinar ordered by order_index.
// This ordering is fixed at creation time and is the sole basis for the
// previous/current/upcoming split.
func (r *Repository) ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Interaction, error) {
	const query = `SELECT ` + interactionColumns + ` FROM interactions
		WHERE webinar_id = $1 ORDER BY order_index ASC`
	rows, err := r.pool.Query(ctx, query, webinarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Interaction
	for rows.Next() {
		var in models.Interaction
		if err := scanInteraction(rows, &in); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// CurrentActive returns the webinar's single active interaction, or nil.
func (r *Repository) CurrentActive(ctx context.Context, webinarID uuid.UUID) (*models.Interaction, error) {
	const query = `SELECT ` + interactionColumns + ` FROM interactions
		WHERE webinar_id = $1 AND status = 'active' LIMIT 1`
	in, err := r.scanOne(r.pool.QueryRow(ctx, query, webinarID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return in, err
}

// Activate promotes an interaction to active and ends the webinar's previously
// active interaction in the same transaction, so at most one interaction per
// webinar is ever active. Activating an already-active interaction is a no-op;
// activating an ended one returns ErrInvalidTransition.
func (r *Repository) Activate(ctx context.Context, id uuid.UUID) (*models.Interaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var webinarID uuid.UUID
	var status models.InteractionStatus
	err = tx.QueryRow(ctx, `SELECT webinar_id, status FROM interactions WHERE id = $1 FOR UPDATE`, id).
		Scan(&webinarID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	switch status {
	case models.StatusEnded:
		return nil, ErrInvalidTransition
	case models.StatusActive:
		return r.scanOne(tx.QueryRow(ctx, `SELECT `+interactionColumns+` FROM interactions WHERE id = $1`, id))
	}

	_, err = tx.Exec(ctx, `UPDATE interactions SET status = 'ended', ended_at = NOW()
		WHERE webinar_id = $1 AND status = 'active' AND id <> $2`, webinarID, id)
	if err != nil {
		return nil, err
	}
	in, err := r.scanOne(tx.QueryRow(ctx, `UPDATE interactions SET status = 'active', activated_at = NOW()
		WHERE id = $1 RETURNING `+interactionColumns, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return in, nil
}

// End marks an interaction ended. Idempotent: the first ended_at is kept.
func (r *Repository) End(ctx context.Context, id uuid.UUID) (*models.Interaction, error) {
	const query = `UPDATE interactions SET status = 'ended', ended_at = COALESCE(ended_at, NOW())
		WHERE id = $1 RETURNING ` + interactionColumns
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// SetBannerKey records the S3 object key of a CTA banner image.
func (r *Repository) SetBannerKey(ctx context.Context, id uuid.UUID, key string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE interactions SET banner_key = $2 WHERE id = $1`, id, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) scanOne(row pgx.Row) (*models.Interaction, error) {
	var in models.Interaction
	if err := scanInteraction(row, &in); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &in, nil
}

func scanInteraction(row pgx.Row, in *models.Interaction) error {
	return row.Scan(&in.ID, &in.WebinarID, &in.Type, &in.Title, &in.Question, &in.Options, &in.Settings,
		&in.Status, &in.OrderIndex, &in.BannerKey, &in.ActivatedAt, &in.EndedAt, &in.CreatedAt)
}
