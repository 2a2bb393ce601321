package media

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/events"
	"github.com/aura-events/backend/internal/httperr"
	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/scheduling"
	"github.com/aura-events/backend/pkg/response"
	"github.com/aura-events/backend/pkg/storage"
)

// ObjectStore is the blob storage used for event media; *storage.S3 implements it.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// Handler handles event media endpoints.
type Handler struct {
	sched    *scheduling.Scheduler
	objects  ObjectStore
	maxBytes int64
	logger   *zap.Logger
}

// NewHandler creates a media handler. A nil objects store disables uploads.
func NewHandler(sched *scheduling.Scheduler, objects ObjectStore, maxUploadMB int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadMB <= 0 {
		maxUploadMB = 50
	}
	return &Handler{sched: sched, objects: objects, maxBytes: int64(maxUploadMB) << 20, logger: logger}
}

// Upload handles POST /events/:id/media (multipart "file", optional "name"; creator only).
func (h *Handler) Upload(c *gin.Context) {
	if h.objects == nil {
		response.Fail(c, http.StatusServiceUnavailable, "storage_unavailable", "media storage is not configured")
		return
	}
	eventID, ok := events.ParseID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fh.Size > h.maxBytes {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !storage.ValidateMediaFileType(contentType, fh.Filename) {
		response.BadRequest(c, "only photos and videos are allowed")
		return
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.ContentTypeForFilename(fh.Filename)
	}
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = fh.Filename
	}

	// Check ownership before touching storage.
	ev, err := h.sched.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	userID := middleware.UserID(c)
	if !ev.IsCreator(userID) {
		httperr.Write(c, h.logger, scheduling.ErrNotCreator)
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "cannot read file")
		return
	}
	defer f.Close()

	mediaID := uuid.New()
	key := storage.MediaKey(eventID.String(), mediaID.String(), fh.Filename)
	url, err := h.objects.Upload(c.Request.Context(), key, contentType, f, fh.Size)
	if err != nil {
		h.logger.Error("upload media failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to upload media")
		return
	}

	mediaType := models.MediaPhoto
	if storage.IsVideo(contentType) {
		mediaType = models.MediaVideo
	}
	m, err := h.sched.AddMedia(c.Request.Context(), eventID, userID, models.Media{
		ID:   mediaID,
		Name: name,
		Key:  key,
		URL:  url,
		Type: mediaType,
	})
	if err != nil {
		if delErr := h.objects.Delete(c.Request.Context(), key); delErr != nil {
			h.logger.Warn("delete orphaned media failed", zap.Error(delErr), zap.String("key", key))
		}
		httperr.Write(c, h.logger, err)
		return
	}
	response.Created(c, m)
}

// Delete handles DELETE /media/:id (creator only). The blob is purged after the reference is removed.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid media id")
		return
	}
	m, err := h.sched.RemoveMedia(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		httperr.Write(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"deleted": m.ID})
}
