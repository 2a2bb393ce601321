package notifications

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/pkg/response"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// MarkReadRequest is the body for POST /notifications/read. Empty IDs marks everything read.
type MarkReadRequest struct {
	IDs []string `json:"ids"`
}

// Handler serves the caller's notification inbox.
type Handler struct {
	inbox  Inbox
	logger *zap.Logger
}

// NewHandler creates a notifications handler.
func NewHandler(inbox Inbox, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{inbox: inbox, logger: logger}
}

// List handles GET /notifications?unread=true&limit=N.
func (h *Handler) List(c *gin.Context) {
	limit := defaultLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.BadRequest(c, "invalid limit")
			return
		}
		limit = min(n, maxLimit)
	}
	unread := c.Query("unread") == "true"
	userID := middleware.UserID(c)
	list, err := h.inbox.ListByRecipient(c.Request.Context(), userID, unread, limit)
	if err != nil {
		h.logger.Error("list notifications failed", zap.Error(err), zap.String("user_id", userID))
		response.Internal(c, "failed to list notifications")
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	response.OK(c, list)
}

// MarkRead handles POST /notifications/read.
func (h *Handler) MarkRead(c *gin.Context) {
	var req MarkReadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid notification id: "+raw)
			return
		}
		ids = append(ids, id)
	}
	userID := middleware.UserID(c)
	n, err := h.inbox.MarkRead(c.Request.Context(), userID, ids)
	if err != nil {
		h.logger.Error("mark notifications read failed", zap.Error(err), zap.String("user_id", userID))
		response.Internal(c, "failed to update notifications")
		return
	}
	response.OK(c, gin.H{"updated": n})
}
