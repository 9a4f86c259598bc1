package interactions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lyra-academy/live-engine/internal/models"
)

// Controller owns the lifecycle state machine for interactions within a
// webinar: draft, active, ended, one way only, with at most one interaction
// active per webinar at any time.
type Controller struct {
	store  Store
	logger *zap.Logger
}

// NewController creates a lifecycle controller.
func NewController(store Store, logger *zap.Logger) *Controller {
	return &Controller{store: store, logger: logger}
}

// Create inserts a new draft interaction at the end of the webinar's order.
func (c *Controller) Create(ctx context.Context, in *models.Interaction) error {
	if !in.Type.Valid() {
		return ErrInvalidTransition
	}
	return c.store.Create(ctx, in)
}

// Get returns an interaction by ID.
func (c *Controller) Get(ctx context.Context, id uuid.UUID) (*models.Interaction, error) {
	return c.store.GetByID(ctx, id)
}

// Activate makes the target interaction the webinar's current one. The
// previously active interaction, if any, is ended as part of the same store
// transaction. Re-activating an ended interaction is a contract violation.
func (c *Controller) Activate(ctx context.Context, id uuid.UUID) (*models.Interaction, error) {
	in, err := c.store.Activate(ctx, id)
	if errors.Is(err, ErrInvalidTransition) {
		// Not expected in normal host flows; log and surface unchanged.
		c.logger.Warn("activation of ended interaction rejected", zap.String("interaction_id", id.String()))
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	c.logger.Info("interaction activated",
		zap.String("interaction_id", in.ID.String()),
		zap.String("webinar_id", in.WebinarID.String()),
		zap.String("type", string(in.Type)))
	return in, nil
}

// End marks an interaction ended. Ending an already-ended interaction is a
// no-op that preserves the original ended_at.
func (c *Controller) End(ctx context.Context, id uuid.UUID) (*models.Interaction, error) {
	in, err := c.store.End(ctx, id)
	if err != nil {
		return nil, err
	}
	c.logger.Info("interaction ended",
		zap.String("interaction_id", in.ID.String()),
		zap.String("webinar_id", in.WebinarID.String()))
	return in, nil
}

// Advance activates the webinar's first remaining draft in creation order,
// ending the currently active interaction as part of the activation. When no
// drafts remain it only ends the current one, if any.
func (c *Controller) Advance(ctx context.Context, webinarID uuid.UUID) (*models.Interaction, error) {
	all, err := c.store.ListByWebinar(ctx, webinarID)
	if err != nil {
		return nil, err
	}
	for _, in := range all {
		if in.Status == models.StatusDraft {
			return c.Activate(ctx, in.ID)
		}
	}
	current, err := c.store.CurrentActive(ctx, webinarID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrDone
	}
	return c.End(ctx, current.ID)
}

// SetBanner records the S3 object key of a CTA banner image.
func (c *Controller) SetBanner(ctx context.Context, id uuid.UUID, key string) error {
	return c.store.SetBannerKey(ctx, id, key)
}

// CurrentActive returns the webinar's single active interaction, or nil.
func (c *Controller) CurrentActive(ctx context.Context, webinarID uuid.UUID) (*models.Interaction, error) {
	return c.store.CurrentActive(ctx, webinarID)
}

// Ordered returns all of a webinar's interactions by order_index ascending.
func (c *Controller) Ordered(ctx context.Context, webinarID uuid.UUID) ([]models.Interaction, error) {
	return c.store.ListByWebinar(ctx, webinarID)
}

// Previous returns the ended interactions of a webinar in creation order.
func (c *Controller) Previous(ctx context.Context, webinarID uuid.UUID) ([]models.Interaction, error) {
	all, err := c.store.ListByWebinar(ctx, webinarID)
	if err != nil {
		return nil, err
	}
	var out []models.Interaction
	for _, in := range all {
		if in.Status == models.StatusEnded {
			out = append(out, in)
		}
	}
	return out, nil
}
