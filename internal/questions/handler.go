package questions

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lyra-academy/live-engine/internal/middleware"
	"github.com/lyra-academy/live-engine/internal/models"
	"github.com/lyra-academy/live-engine/internal/realtime"
	"github.com/lyra-academy/live-engine/pkg/response"
)

// CreateRequest is the body for POST /webinars/:id/questions.
type CreateRequest struct {
	Text string `json:"text" binding:"required"`
}

// FlagRequest is the body for PATCH /questions/:id/flag.
type FlagRequest struct {
	Flag  string `json:"flag" binding:"required,oneof=is_pinned is_answered is_hidden is_featured"`
	Value bool   `json:"value"`
}

// Handler handles Q&A HTTP endpoints.
type Handler struct {
	repo *Repository
	hub  *realtime.Hub
}

// NewHandler creates a questions handler.
func NewHandler(repo *Repository, hub *realtime.Hub) *Handler {
	return &Handler{repo: repo, hub: hub}
}

// Create handles POST /webinars/:id/questions (audience asks a question).
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

	q := &models.Question{
		WebinarID:     webinarID,
		ParticipantID: userID,
		Text:          req.Text,
	}
	if err := h.repo.Create(c.Request.Context(), q); err != nil {
		response.Internal(c, "failed to create question")
		return
	}

	h.hub.PublishToWebinar(webinarID, realtime.EventQuestionChanged, gin.H{"id": q.ID})
	response.Created(c, q)
}

// ListVisible handles GET /webinars/:id/questions (hidden questions excluded).
func (h *Handler) ListVisible(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	list, err := h.repo.ListVisible(c.Request.Context(), webinarID)
	if err != nil {
		response.Internal(c, "failed to list questions")
		return
	}
	response.OK(c, gin.H{"questions": list})
}

// Upvote handles POST /questions/:id/upvote (one per participant).
func (h *Handler) Upvote(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	q, err := h.repo.GetByID(c.Request.Context(), questionID)
	if err != nil {
		response.NotFound(c, "question not found")
		return
	}
	votes, err := h.repo.Upvote(c.Request.Context(), questionID, userID)
	if err != nil {
		response.Internal(c, "failed to upvote question")
		return
	}

	h.hub.PublishToWebinar(q.WebinarID, realtime.EventQuestionChanged, gin.H{"id": q.ID, "upvotes": votes})
	response.OK(c, gin.H{"id": q.ID, "upvotes": votes})
}

// SetFlag handles PATCH /questions/:id/flag (host moderation: pin, hide,
// feature, mark answered).
func (h *Handler) SetFlag(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return
	}

	var req FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	q, err := h.repo.GetByID(c.Request.Context(), questionID)
	if err != nil {
		response.NotFound(c, "question not found")
		return
	}
	if err := h.repo.SetFlag(c.Request.Context(), questionID, req.Flag, req.Value); err != nil {
		response.Internal(c, "failed to update question")
		return
	}

	h.hub.PublishToWebinar(q.WebinarID, realtime.EventQuestionChanged, gin.H{"id": q.ID, req.Flag: req.Value})
	response.OK(c, gin.H{"id": q.ID, req.Flag: req.Value})
}
