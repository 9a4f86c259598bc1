package submissions

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lyra-academy/live-engine/internal/interactions"
	"github.com/lyra-academy/live-engine/internal/middleware"
	"github.com/lyra-academy/live-engine/internal/models"
	"github.com/lyra-academy/live-engine/internal/realtime"
	"github.com/lyra-academy/live-engine/internal/tally"
	"github.com/lyra-academy/live-engine/internal/webinars"
	"github.com/lyra-academy/live-engine/pkg/response"
)

// SubmitRequest is the body for POST /interactions/:id/responses.
type SubmitRequest struct {
	Answer models.Answer `json:"answer"`
}

// Handler handles response submission and tally HTTP endpoints.
type Handler struct {
	gate        *Gate
	responses   Store
	ctrl        *interactions.Controller
	webinarRepo *webinars.Repository
	hub         *realtime.Hub
}

// NewHandler creates a submissions handler.
func NewHandler(gate *Gate, responses Store, ctrl *interactions.Controller, webinarRepo *webinars.Repository, hub *realtime.Hub) *Handler {
	return &Handler{gate: gate, responses: responses, ctrl: ctrl, webinarRepo: webinarRepo, hub: hub}
}

// Submit handles POST /interactions/:id/responses (audience). Benign outcomes
// (already answered, rejected) come back as 200 with a typed status, never as
// error states.
func (h *Handler) Submit(c *gin.Context) {
	interactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid interaction id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.gate.Submit(c.Request.Context(), interactionID, userID, req.Answer)
	if err != nil {
		response.Internal(c, "failed to record response")
		return
	}

	if result.Status == StatusAccepted {
		in, err := h.ctrl.Get(c.Request.Context(), interactionID)
		if err == nil {
			h.hub.PublishToWebinar(in.WebinarID, realtime.EventResponseAdded, gin.H{
				"interaction_id": interactionID, "participant_id": userID,
			})
		}
	}
	response.OK(c, result)
}

// HasAnswered handles GET /interactions/:id/answered (audience).
func (h *Handler) HasAnswered(c *gin.Context) {
	interactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid interaction id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	answered, err := h.gate.HasAnswered(c.Request.Context(), interactionID, userID)
	if err != nil {
		response.Internal(c, "failed to check response")
		return
	}
	response.OK(c, gin.H{"interaction_id": interactionID, "answered": answered})
}

// Tally handles GET /interactions/:id/tally (audience). Results are withheld
// from viewers who have not answered a still-active interaction unless it
// shows results immediately.
func (h *Handler) Tally(c *gin.Context) {
	interactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid interaction id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	in, err := h.ctrl.Get(c.Request.Context(), interactionID)
	if err != nil {
		response.NotFound(c, "interaction not found")
		return
	}
	answered, err := h.gate.HasAnswered(c.Request.Context(), interactionID, userID)
	if err != nil {
		response.Internal(c, "failed to check response")
		return
	}
	if !tally.VisibleTo(*in, answered) {
		response.OK(c, gin.H{"interaction_id": interactionID, "visible": false})
		return
	}

	list, err := h.responses.ListByInteraction(c.Request.Context(), interactionID)
	if err != nil {
		response.Internal(c, "failed to load responses")
		return
	}
	response.OK(c, gin.H{"visible": true, "tally": tally.Aggregate(*in, list)})
}

// HostTally handles GET /interactions/:id/tally/host (host/admin): the live
// tally with no visibility gating, for the hosting console.
func (h *Handler) HostTally(c *gin.Context) {
	interactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid interaction id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	in, err := h.ctrl.Get(c.Request.Context(), interactionID)
	if err != nil {
		response.NotFound(c, "interaction not found")
		return
	}
	ok, err := h.webinarRepo.IsHost(c.Request.Context(), in.WebinarID, userID)
	if err != nil || !ok {
		response.Forbidden(c, "only the host can view the live tally")
		return
	}

	list, err := h.responses.ListByInteraction(c.Request.Context(), interactionID)
	if err != nil {
		response.Internal(c, "failed to load responses")
		return
	}
	response.OK(c, gin.H{"tally": tally.Aggregate(*in, list)})
}
