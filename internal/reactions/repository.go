package reactions

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lyra-academy/live-engine/internal/models"
)

// Repository handles reaction persistence. Reactions are append-only; a
// participant may send the same type any number of times.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a reactions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a reaction event.
func (r *Repository) Create(ctx context.Context, reaction *models.Reaction) error {
	const query = `INSERT INTO reactions (id, webinar_id, participant_id, type)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, reaction.WebinarID, reaction.ParticipantID, reaction.Type).
		Scan(&reaction.ID, &reaction.CreatedAt)
}

// Counts returns per-type reaction totals for a webinar. Types with no
// reactions yet are present with a zero count.
func (r *Repository) Counts(ctx context.Context, webinarID uuid.UUID) (map[models.ReactionType]int, error) {
	const query = `SELECT type, COUNT(*) FROM reactions WHERE webinar_id = $1 GROUP BY type`
	rows, err := r.pool.Query(ctx, query, webinarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.ReactionType]int, len(models.ReactionTypes))
	for _, t := range models.ReactionTypes {
		counts[t] = 0
	}
	for rows.Next() {
		var t models.ReactionType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}
