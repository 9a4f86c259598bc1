package participants

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lyra-academy/live-engine/internal/models"
)

// Repository handles participant session rows. Each join opens a row; leave
// closes the most recent open row for that user.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a participants repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LogJoin inserts an open session row for a user in a webinar.
func (r *Repository) LogJoin(ctx context.Context, webinarID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO participants (id, webinar_id, user_id, joined_at) VALUES (gen_random_uuid(), $1, $2, NOW())`,
		webinarID, userID)
	return err
}

// LogLeave closes the most recent open session for this user in this webinar.
func (r *Repository) LogLeave(ctx context.Context, webinarID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE participants p SET left_at = NOW()
		 FROM (SELECT id FROM participants WHERE webinar_id = $1 AND user_id = $2 AND left_at IS NULL ORDER BY joined_at DESC LIMIT 1) AS sub
		 WHERE p.id = sub.id`,
		webinarID, userID)
	return err
}

// CountActive returns the number of open sessions in a webinar.
func (r *Repository) CountActive(ctx context.Context, webinarID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM participants WHERE webinar_id = $1 AND left_at IS NULL`,
		webinarID).Scan(&n)
	return n, err
}

// UpdatePeak raises the webinar's recorded peak audience when current exceeds it.
func (r *Repository) UpdatePeak(ctx context.Context, webinarID uuid.UUID, current int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE webinars SET peak_viewers = $2 WHERE id = $1 AND $2 > peak_viewers`,
		webinarID, current)
	return err
}

// Peak returns the webinar's recorded peak audience.
func (r *Repository) Peak(ctx context.Context, webinarID uuid.UUID) (int, error) {
	var peak int
	err := r.pool.QueryRow(ctx, `SELECT peak_viewers FROM webinars WHERE id = $1`, webinarID).Scan(&peak)
	return peak, err
}

// ListByWebinar returns a webinar's session rows, newest join first.
func (r *Repository) ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Participant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, webinar_id, user_id, joined_at, left_at
		 FROM participants WHERE webinar_id = $1 ORDER BY joined_at DESC`,
		webinarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.WebinarID, &p.UserID, &p.JoinedAt, &p.LeftAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
