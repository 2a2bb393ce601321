package volunteers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/events"
	"github.com/aura-events/backend/internal/httperr"
	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/scheduling"
	"github.com/aura-events/backend/pkg/response"
)

// InviteRequest is the body for POST /events/:id/volunteers.
type InviteRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

// RespondRequest is the body for POST /events/:id/volunteers/respond.
type RespondRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// Handler handles volunteer endpoints.
type Handler struct {
	sched  *scheduling.Scheduler
	logger *zap.Logger
}

// NewHandler creates a volunteer handler.
func NewHandler(sched *scheduling.Scheduler, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sched: sched, logger: logger}
}

// List handles GET /events/:id/volunteers (creator only).
func (h *Handler) List(c *gin.Context) {
	id, ok := events.ParseID(c)
	if !ok {
		return
	}
	list, err := h.sched.Volunteers(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Invite handles POST /events/:id/volunteers (creator only).
func (h *Handler) Invite(c *gin.Context) {
	id, ok := events.ParseID(c)
	if !ok {
		return
	}
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	r, err := h.sched.RequestVolunteer(c.Request.Context(), id, middleware.UserID(c), req.UserID, req.Role)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.Created(c, r)
}

// Respond handles POST /events/:id/volunteers/respond by the invited user.
func (h *Handler) Respond(c *gin.Context) {
	id, ok := events.ParseID(c)
	if !ok {
		return
	}
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	decision := scheduling.Decision(strings.ToLower(strings.TrimSpace(req.Decision)))
	r, slot, err := h.sched.RespondVolunteer(c.Request.Context(), id, middleware.UserID(c), decision)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"status": r.Status, "request": r, "volunteer": slot})
}

// Remove handles DELETE /events/:id/volunteers/:userId (creator only).
func (h *Handler) Remove(c *gin.Context) {
	id, ok := events.ParseID(c)
	if !ok {
		return
	}
	removed, err := h.sched.RemoveVolunteer(c.Request.Context(), id, middleware.UserID(c), c.Param("userId"))
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"removed": removed})
}

// Invitations handles GET /volunteers/invitations: the caller's open invitations.
func (h *Handler) Invitations(c *gin.Context) {
	list, err := h.sched.PendingInvitations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, list)
}
