package bookings

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/events"
	"github.com/aura-events/backend/internal/httperr"
	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/scheduling"
	"github.com/aura-events/backend/pkg/response"
)

// AdminCancelRequest is the body for POST /events/:id/tickets/admin-cancel.
type AdminCancelRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// Handler handles tickets and waitlist endpoints.
type Handler struct {
	sched  *scheduling.Scheduler
	logger *zap.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(sched *scheduling.Scheduler, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sched: sched, logger: logger}
}

// Book handles POST /events/:id/tickets.
func (h *Handler) Book(c *gin.Context) {
	id, ok := events.ParseID(c)
	if !ok {
		return
	}
	b, err := h.sched.Book(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.Created(c, b)
}

// Cancel handles DELETE /events/:id/tickets.
func (h *Handler) Cancel(c *gin.Context) {
	id, ok := events.ParseID(c)
	if !ok {
		return
	}
	promoted, err := h.sched.Cancel(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"cancelled": true, "promoted": promoted})
}

// AdminCancel handles POST /events/:id/tickets/admin-cancel (creator only).
func (h *Handler) AdminCancel(c *gin.Context) {
	id, ok := events.ParseID(c)
	if !ok {
		return
	}
	var req AdminCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	promoted, err := h.sched.AdminCancel(c.Request.Context(), id, req.UserID, middleware.UserID(c))
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"cancelled": true, "promoted": promoted})
}

// Tickets handles GET /tickets: the caller's bookings and waitlist positions.
func (h *Handler) Tickets(c *gin.Context) {
	list, err := h.sched.Tickets(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// JoinWaitlist handles POST /events/:id/waitlist.
func (h *Handler) JoinWaitlist(c *gin.Context) {
	id, ok := events.ParseID(c)
	if !ok {
		return
	}
	entry, position, err := h.sched.JoinWaitlist(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.Created(c, gin.H{"entry": entry, "position": position})
}

// LeaveWaitlist handles DELETE /events/:id/waitlist.
func (h *Handler) LeaveWaitlist(c *gin.Context) {
	id, ok := events.ParseID(c)
	if !ok {
		return
	}
	if err := h.sched.LeaveWaitlist(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"left": true})
}

// Waitlist handles GET /events/:id/waitlist (creator only).
func (h *Handler) Waitlist(c *gin.Context) {
	id, ok := events.ParseID(c)
	if !ok {
		return
	}
	list, err := h.sched.Waitlist(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, list)
}
