package events

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/httperr"
	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/scheduling"
	"github.com/aura-events/backend/pkg/response"
)

// EventRequest is the body for POST /events and PUT /events/:id.
// The start is either an RFC3339 "start" or a local "date" (2006-01-02) plus "time" (15:04).
type EventRequest struct {
	Title           string   `json:"title" binding:"required"`
	Venue           string   `json:"venue" binding:"required"`
	Category        string   `json:"category" binding:"required"`
	Start           string   `json:"start"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	DurationMinutes int      `json:"duration_minutes"`
	Capacity        int      `json:"capacity"`
	Resources       []string `json:"resources"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	sched  *scheduling.Scheduler
	loc    *time.Location
	logger *zap.Logger
}

// NewHandler creates an event handler. loc interprets date/time pairs.
func NewHandler(sched *scheduling.Scheduler, loc *time.Location, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sched: sched, loc: loc, logger: logger}
}

func (h *Handler) parseStart(req EventRequest) (time.Time, error) {
	if req.Start != "" {
		return time.Parse(time.RFC3339, req.Start)
	}
	if req.Date == "" || req.Time == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.Time, h.loc)
}

func (h *Handler) bind(c *gin.Context) (scheduling.EventInput, bool) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return scheduling.EventInput{}, false
	}
	start, err := h.parseStart(req)
	if err != nil {
		response.BadRequest(c, "invalid start time")
		return scheduling.EventInput{}, false
	}
	return scheduling.EventInput{
		Title:           req.Title,
		Venue:           req.Venue,
		Category:        req.Category,
		Start:           start,
		DurationMinutes: req.DurationMinutes,
		Capacity:        req.Capacity,
		Resources:       req.Resources,
	}, true
}

// ParseID reads the :id path parameter as an event UUID.
func ParseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}

// List handles GET /events. Listing runs the live and reminder sweep.
func (h *Handler) List(c *gin.Context) {
	list, err := h.sched.ListEvents(c.Request.Context())
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	ev, err := h.sched.GetEvent(c.Request.Context(), id)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, ev)
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	ev, err := h.sched.CreateEvent(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.Created(c, ev)
}

// Update handles PUT /events/:id (creator only).
func (h *Handler) Update(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	in, ok := h.bind(c)
	if !ok {
		return
	}
	ev, err := h.sched.UpdateEvent(c.Request.Context(), id, middleware.UserID(c), in)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, ev)
}

// Delete handles DELETE /events/:id (creator only).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	if err := h.sched.DeleteEvent(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"deleted": id})
}
