package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/notify"
	"github.com/aura-events/backend/internal/scheduling"
	"github.com/aura-events/backend/internal/store"
	"github.com/aura-events/backend/pkg/queue"
)

type fakeObjects struct {
	mu        sync.Mutex
	uploaded  map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{uploaded: map[string][]byte{}}
}

func (f *fakeObjects) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded[key] = b
	return "https://media.test/" + key, nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.uploaded, key)
	return nil
}

type fakeQueue struct {
	jobs []queue.MediaPurgePayload
}

func (q *fakeQueue) EnqueueMediaPurge(_ context.Context, p queue.MediaPurgePayload) error {
	q.jobs = append(q.jobs, p)
	return nil
}

var start = time.Date(2030, 3, 14, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T, purger scheduling.MediaPurger) (*gin.Engine, *scheduling.Scheduler, *fakeObjects, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.NewMemory(&models.Snapshot{Users: []models.User{
		{ID: "ORG1", Name: "Olga", Role: models.RoleOrganizer},
		{ID: "A", Name: "userA", Role: models.RoleStudent},
	}})
	opts := []scheduling.Option{scheduling.WithClock(func() time.Time { return start })}
	if purger != nil {
		opts = append(opts, scheduling.WithMediaPurger(purger))
	}
	sched := scheduling.New(st, notify.Nop{}, opts...)
	ev, err := sched.CreateEvent(context.Background(), "ORG1", scheduling.EventInput{
		Title: "Gala", Venue: "Hall A", Category: "Social", Start: start.Add(48 * time.Hour), DurationMinutes: 60, Capacity: 10,
	})
	require.NoError(t, err)

	objects := newFakeObjects()
	h := NewHandler(sched, objects, 1, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, c.GetHeader("X-User"))
		c.Next()
	})
	r.POST("/events/:id/media", h.Upload)
	r.DELETE("/media/:id", h.Delete)
	return r, sched, objects, ev.ID
}

func multipartBody(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func upload(t *testing.T, r *gin.Engine, eventID uuid.UUID, user, filename, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, filename, contentType, []byte("data"))
	req := httptest.NewRequest(http.MethodPost, "/events/"+eventID.String()+"/media", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeMedia(t *testing.T, w *httptest.ResponseRecorder) models.Media {
	t.Helper()
	var body struct {
		Data models.Media `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Data
}

func TestUploadAttachesMedia(t *testing.T) {
	r, sched, objects, eventID := setup(t, nil)

	w := upload(t, r, eventID, "ORG1", "poster.png", "image/png")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	m := decodeMedia(t, w)
	assert.Equal(t, models.MediaPhoto, m.Type)
	assert.Equal(t, "poster.png", m.Name)
	assert.Contains(t, objects.uploaded, m.Key)

	view, err := sched.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	require.Len(t, view.Media, 1)
	assert.Equal(t, m.ID, view.Media[0].ID)
}

func TestUploadDetectsVideo(t *testing.T) {
	r, _, _, eventID := setup(t, nil)
	w := upload(t, r, eventID, "ORG1", "clip.mp4", "video/mp4")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.MediaVideo, decodeMedia(t, w).Type)
}

func TestUploadRejectsNonCreator(t *testing.T) {
	r, _, objects, eventID := setup(t, nil)
	w := upload(t, r, eventID, "A", "poster.png", "image/png")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, objects.uploaded)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	r, _, objects, eventID := setup(t, nil)
	w := upload(t, r, eventID, "ORG1", "notes.txt", "text/plain")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, objects.uploaded)
}

func TestUploadStorageFailure(t *testing.T) {
	r, sched, objects, eventID := setup(t, nil)
	objects.uploadErr = errors.New("bucket unavailable")

	w := upload(t, r, eventID, "ORG1", "poster.png", "image/png")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	view, err := sched.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Empty(t, view.Media)
}

func TestUploadUnknownEvent(t *testing.T) {
	r, _, _, _ := setup(t, nil)
	w := upload(t, r, uuid.New(), "ORG1", "poster.png", "image/png")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteEnqueuesPurge(t *testing.T) {
	q := &fakeQueue{}
	r, sched, _, eventID := setup(t, NewQueuePurger(q, nil))

	w := upload(t, r, eventID, "ORG1", "poster.png", "image/png")
	require.Equal(t, http.StatusCreated, w.Code)
	m := decodeMedia(t, w)

	req := httptest.NewRequest(http.MethodDelete, "/media/"+m.ID.String(), nil)
	req.Header.Set("X-User", "A")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, q.jobs)

	req = httptest.NewRequest(http.MethodDelete, "/media/"+m.ID.String(), nil)
	req.Header.Set("X-User", "ORG1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, q.jobs, 1)
	assert.Equal(t, queue.MediaPurgePayload{EventID: eventID, Key: m.Key}, q.jobs[0])

	view, err := sched.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Empty(t, view.Media)
}

func TestDeleteEventPurgesDirectly(t *testing.T) {
	objects := newFakeObjects()
	purger := NewDirectPurger(objects, nil)
	r, sched, uploads, eventID := setup(t, purger)

	w := upload(t, r, eventID, "ORG1", "poster.png", "image/png")
	require.Equal(t, http.StatusCreated, w.Code)
	m := decodeMedia(t, w)
	assert.Contains(t, uploads.uploaded, m.Key)

	require.NoError(t, sched.DeleteEvent(context.Background(), eventID, "ORG1"))
	assert.Equal(t, []string{m.Key}, objects.deleted)
}
