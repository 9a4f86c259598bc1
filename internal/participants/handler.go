package participants

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lyra-academy/live-engine/pkg/response"
)

// Handler handles participant HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a participants handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Count handles GET /webinars/:id/participants/count.
func (h *Handler) Count(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	count, err := h.repo.CountActive(c.Request.Context(), webinarID)
	if err != nil {
		response.Internal(c, "failed to count participants")
		return
	}
	peak, err := h.repo.Peak(c.Request.Context(), webinarID)
	if err != nil {
		response.Internal(c, "failed to read peak audience")
		return
	}
	response.OK(c, gin.H{"count": count, "peak": peak})
}

// List handles GET /webinars/:id/participants (host view of session rows).
func (h *Handler) List(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	list, err := h.repo.ListByWebinar(c.Request.Context(), webinarID)
	if err != nil {
		response.Internal(c, "failed to list participants")
		return
	}
	response.OK(c, gin.H{"participants": list})
}
