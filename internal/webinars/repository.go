package webinars

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lyra-academy/live-engine/internal/models"
)

// ErrNotFound is returned when a webinar does not exist.
var ErrNotFound = errors.New("webinar not found")

// Repository reads the webinars this engine attaches interactions to.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a webinars repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a webinar row. Used by seeds and tests; the platform service
// owns webinar CRUD in production.
func (r *Repository) Create(ctx context.Context, w *models.Webinar) error {
	const query = `INSERT INTO webinars (id, title, host_id, starts_at)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, w.Title, w.HostID, w.StartsAt).
		Scan(&w.ID, &w.CreatedAt)
}

// GetByID returns a webinar by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Webinar, error) {
	const query = `SELECT id, title, host_id, starts_at, ends_at, peak_viewers, created_at
		FROM webinars WHERE id = $1`
	var w models.Webinar
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&w.ID, &w.Title, &w.HostID, &w.StartsAt, &w.EndsAt, &w.PeakViewers, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// IsHost reports whether the user hosts the webinar. Admins pass regardless,
// checked by the caller via role middleware.
func (r *Repository) IsHost(ctx context.Context, webinarID, userID uuid.UUID) (bool, error) {
	var hostID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT host_id FROM webinars WHERE id = $1`, webinarID).Scan(&hostID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}
	return hostID == userID, nil
}
