package reactions

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lyra-academy/live-engine/internal/middleware"
	"github.com/lyra-academy/live-engine/internal/models"
	"github.com/lyra-academy/live-engine/internal/realtime"
	"github.com/lyra-academy/live-engine/pkg/response"
)

// CreateRequest is the body for POST /webinars/:id/reactions.
type CreateRequest struct {
	Type string `json:"type" binding:"required"`
}

// Handler handles reaction HTTP endpoints.
type Handler struct {
	repo *Repository
	hub  *realtime.Hub
}

// NewHandler creates a reactions handler.
func NewHandler(repo *Repository, hub *realtime.Hub) *Handler {
	return &Handler{repo: repo, hub: hub}
}

// Create handles POST /webinars/:id/reactions.
func (h *Handler) Create(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	rt := models.ReactionType(req.Type)
	if !rt.Valid() {
		response.BadRequest(c, "unknown reaction type")
		return
	}

	reaction := &models.Reaction{
		WebinarID:     webinarID,
		ParticipantID: userID,
		Type:          rt,
	}
	if err := h.repo.Create(c.Request.Context(), reaction); err != nil {
		response.Internal(c, "failed to record reaction")
		return
	}

	h.hub.PublishToWebinar(webinarID, realtime.EventReactionAdded, gin.H{"type": rt})
	response.Created(c, reaction)
}

// Counts handles GET /webinars/:id/reactions.
func (h *Handler) Counts(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	counts, err := h.repo.Counts(c.Request.Context(), webinarID)
	if err != nil {
		response.Internal(c, "failed to count reactions")
		return
	}
	response.OK(c, gin.H{"reactions": counts})
}
