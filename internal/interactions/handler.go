package interactions

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lyra-academy/live-engine/internal/middleware"
	"github.com/lyra-academy/live-engine/internal/models"
	"github.com/lyra-academy/live-engine/internal/realtime"
	"github.com/lyra-academy/live-engine/internal/webinars"
	"github.com/lyra-academy/live-engine/pkg/response"
	"github.com/lyra-academy/live-engine/pkg/storage"
)

// CreateRequest is the body for POST /webinars/:id/interactions.
type CreateRequest struct {
	Type     models.InteractionType `json:"type" binding:"required"`
	Title    string                 `json:"title" binding:"required"`
	Question *string                `json:"question"`
	Options  []models.Option        `json:"options"`
	Settings models.Settings        `json:"settings"`
}

// Handler handles interaction HTTP endpoints.
type Handler struct {
	ctrl        *Controller
	webinarRepo *webinars.Repository
	hub         *realtime.Hub
	s3          *storage.S3
	logger      *zap.Logger
}

// NewHandler creates an interactions handler. s3 may be nil when banner
// storage is not configured.
func NewHandler(ctrl *Controller, webinarRepo *webinars.Repository, hub *realtime.Hub, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{ctrl: ctrl, webinarRepo: webinarRepo, hub: hub, s3: s3, logger: logger}
}

// Create handles POST /webinars/:id/interactions (host/admin).
func (h *Handler) Create(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	ok, err := h.webinarRepo.IsHost(c.Request.Context(), webinarID, userID)
	if err != nil || !ok {
		response.Forbidden(c, "only the host can create interactions")
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !req.Type.Valid() {
		response.BadRequest(c, "unknown interaction type")
		return
	}

	in := &models.Interaction{
		WebinarID: webinarID,
		Type:      req.Type,
		Title:     req.Title,
		Question:  req.Question,
		Options:   req.Options,
		Settings:  req.Settings,
	}
	if err := h.ctrl.Create(c.Request.Context(), in); err != nil {
		response.Internal(c, "failed to create interaction")
		return
	}

	h.hub.PublishToWebinar(webinarID, realtime.EventInteractionChanged, gin.H{"id": in.ID, "status": in.Status})
	response.Created(c, in)
}

// ListByWebinar handles GET /webinars/:id/interactions (audience; answer key
// stripped).
func (h *Handler) ListByWebinar(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	list, err := h.ctrl.Ordered(c.Request.Context(), webinarID)
	if err != nil {
		response.Internal(c, "failed to list interactions")
		return
	}
	out := make([]models.Interaction, 0, len(list))
	for _, in := range list {
		out = append(out, in.Sanitized())
	}
	response.OK(c, gin.H{"interactions": out})
}

// ListForHost handles GET /webinars/:id/interactions/host (host/admin; full
// rows including correct-option flags).
func (h *Handler) ListForHost(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	list, err := h.ctrl.Ordered(c.Request.Context(), webinarID)
	if err != nil {
		response.Internal(c, "failed to list interactions")
		return
	}
	response.OK(c, gin.H{"interactions": list})
}

// Current handles GET /webinars/:id/interactions/current.
func (h *Handler) Current(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	in, err := h.ctrl.CurrentActive(c.Request.Context(), webinarID)
	if err != nil {
		response.Internal(c, "failed to load current interaction")
		return
	}
	if in == nil {
		response.OK(c, gin.H{"active": nil})
		return
	}
	sanitized := in.Sanitized()
	response.OK(c, gin.H{"active": sanitized})
}

// Activate handles POST /interactions/:id/activate (host/admin). The
// previously active interaction of the webinar ends atomically.
func (h *Handler) Activate(c *gin.Context) {
	in, ok := h.authorizedInteraction(c, "activate")
	if !ok {
		return
	}

	activated, err := h.ctrl.Activate(c.Request.Context(), in.ID)
	if errors.Is(err, ErrInvalidTransition) {
		response.Conflict(c, "interaction already ended")
		return
	}
	if err != nil {
		response.Internal(c, "failed to activate interaction")
		return
	}

	h.hub.PublishToWebinar(activated.WebinarID, realtime.EventInteractionChanged, gin.H{"id": activated.ID, "status": activated.Status})
	response.OK(c, gin.H{"id": activated.ID, "status": activated.Status, "activated_at": activated.ActivatedAt})
}

// End handles POST /interactions/:id/end (host/admin). Idempotent.
func (h *Handler) End(c *gin.Context) {
	in, ok := h.authorizedInteraction(c, "end")
	if !ok {
		return
	}

	ended, err := h.ctrl.End(c.Request.Context(), in.ID)
	if err != nil {
		response.Internal(c, "failed to end interaction")
		return
	}

	h.hub.PublishToWebinar(ended.WebinarID, realtime.EventInteractionChanged, gin.H{"id": ended.ID, "status": ended.Status})
	response.OK(c, gin.H{"id": ended.ID, "status": ended.Status, "ended_at": ended.EndedAt})
}

// Advance handles POST /webinars/:id/interactions/advance (host/admin):
// activates the next draft in order, or ends the current interaction when no
// drafts remain.
func (h *Handler) Advance(c *gin.Context) {
	webinarID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid webinar id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ok, err := h.webinarRepo.IsHost(c.Request.Context(), webinarID, userID)
	if err != nil || !ok {
		response.Forbidden(c, "only the host can advance interactions")
		return
	}

	in, err := h.ctrl.Advance(c.Request.Context(), webinarID)
	if errors.Is(err, ErrDone) {
		response.OK(c, gin.H{"done": true})
		return
	}
	if err != nil {
		response.Internal(c, "failed to advance interaction")
		return
	}

	h.hub.PublishToWebinar(webinarID, realtime.EventInteractionChanged, gin.H{"id": in.ID, "status": in.Status})
	response.OK(c, gin.H{"id": in.ID, "status": in.Status})
}

// UploadBanner handles POST /interactions/:id/banner (host/admin): stores a
// CTA banner image in S3 and records its key.
func (h *Handler) UploadBanner(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "banner storage not configured")
		return
	}
	in, ok := h.authorizedInteraction(c, "upload banner for")
	if !ok {
		return
	}
	if in.Type != models.InteractionCTA {
		response.BadRequest(c, "banners are only supported on cta interactions")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file field required")
		return
	}
	defer file.Close()

	if !storage.ValidateBannerFileType(header.Header.Get("Content-Type"), header.Filename) {
		response.BadRequest(c, "unsupported banner file type")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, storage.MaxBannerBytes+1))
	if err != nil || int64(len(data)) > storage.MaxBannerBytes {
		response.BadRequest(c, "banner too large")
		return
	}

	key, err := h.s3.UploadBanner(c.Request.Context(), in.ID, header.Filename, data)
	if err != nil {
		h.logger.Error("banner upload failed", zap.String("interaction_id", in.ID.String()), zap.Error(err))
		response.Internal(c, "failed to upload banner")
		return
	}
	if err := h.ctrl.SetBanner(c.Request.Context(), in.ID, key); err != nil {
		response.Internal(c, "failed to record banner")
		return
	}
	// Replacing a banner orphans the old object; best effort, the new key is
	// already recorded.
	if old := in.BannerKey; old != nil && *old != key {
		if err := h.s3.DeleteBanner(c.Request.Context(), *old); err != nil {
			h.logger.Warn("stale banner delete failed", zap.String("key", *old), zap.Error(err))
		}
	}

	h.hub.PublishToWebinar(in.WebinarID, realtime.EventInteractionChanged, gin.H{"id": in.ID})
	response.OK(c, gin.H{"id": in.ID, "banner_key": key})
}

// BannerURL handles GET /interactions/:id/banner-url: presigned download URL
// for the CTA banner.
func (h *Handler) BannerURL(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "banner storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid interaction id")
		return
	}
	in, err := h.ctrl.Get(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "interaction not found")
		return
	}
	if in.BannerKey == nil {
		response.NotFound(c, "interaction has no banner")
		return
	}
	url, err := h.s3.PresignBanner(c.Request.Context(), *in.BannerKey)
	if err != nil {
		response.Internal(c, "failed to presign banner url")
		return
	}
	response.OK(c, gin.H{"url": url})
}

// authorizedInteraction loads the interaction and verifies the caller hosts
// its webinar.
func (h *Handler) authorizedInteraction(c *gin.Context, action string) (*models.Interaction, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid interaction id")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	in, err := h.ctrl.Get(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "interaction not found")
		return nil, false
	}
	ok, err := h.webinarRepo.IsHost(c.Request.Context(), in.WebinarID, userID)
	if err != nil || !ok {
		response.Forbidden(c, "only the host can "+action+" interactions")
		return nil, false
	}
	return in, true
}
