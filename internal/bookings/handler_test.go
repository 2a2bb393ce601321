package bookings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
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
)

var now = time.Date(2030, 3, 14, 9, 0, 0, 0, time.UTC)

type fixture struct {
	router *gin.Engine
	rec    *notify.Recorder
	path   string
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.NewMemory(&models.Snapshot{Users: []models.User{
		{ID: "ORG1", Name: "Olga", Role: models.RoleOrganizer},
		{ID: "A", Name: "userA", Role: models.RoleStudent},
		{ID: "B", Name: "userB", Role: models.RoleStudent},
	}})
	rec := notify.NewRecorder()
	sched := scheduling.New(st, rec, scheduling.WithClock(func() time.Time { return now }))
	ev, err := sched.CreateEvent(context.Background(), "ORG1", scheduling.EventInput{
		Title: "Gala", Venue: "Hall A", Category: "Social", Start: now.Add(48 * time.Hour), DurationMinutes: 60, Capacity: capacity,
	})
	require.NoError(t, err)
	rec.Reset()

	h := NewHandler(sched, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, c.GetHeader("X-User"))
		c.Next()
	})
	r.POST("/events/:id/tickets", h.Book)
	r.DELETE("/events/:id/tickets", h.Cancel)
	r.POST("/events/:id/tickets/admin-cancel", h.AdminCancel)
	r.GET("/tickets", h.Tickets)
	r.POST("/events/:id/waitlist", h.JoinWaitlist)
	r.DELETE("/events/:id/waitlist", h.LeaveWaitlist)
	r.GET("/events/:id/waitlist", h.Waitlist)
	return &fixture{router: r, rec: rec, path: "/events/" + ev.ID.String()}
}

func (f *fixture) do(method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", user)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Code string          `json:"code"`
}

func parse(t *testing.T, w *httptest.ResponseRecorder, into any) string {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
	return env.Code
}

func TestBookFullWaitlistAndPromotion(t *testing.T) {
	f := newFixture(t, 1)

	w := f.do(http.MethodPost, f.path+"/tickets", "A", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var b models.Booking
	parse(t, w, &b)
	assert.Equal(t, 1, b.Seat)

	w = f.do(http.MethodPost, f.path+"/tickets", "B", "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "full", parse(t, w, nil))

	w = f.do(http.MethodPost, f.path+"/waitlist", "B", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var joined struct {
		Position int `json:"position"`
	}
	parse(t, w, &joined)
	assert.Equal(t, 1, joined.Position)

	w = f.do(http.MethodGet, f.path+"/waitlist", "A", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	var members []scheduling.WaitlistMember
	w = f.do(http.MethodGet, f.path+"/waitlist", "ORG1", "")
	require.Equal(t, http.StatusOK, w.Code)
	parse(t, w, &members)
	require.Len(t, members, 1)
	assert.Equal(t, "B", members[0].UserID)

	w = f.do(http.MethodDelete, f.path+"/tickets", "A", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cancelled struct {
		Promoted *models.Booking `json:"promoted"`
	}
	parse(t, w, &cancelled)
	require.NotNil(t, cancelled.Promoted)
	assert.Equal(t, "B", cancelled.Promoted.UserID)

	var tickets []scheduling.Ticket
	parse(t, f.do(http.MethodGet, "/tickets", "B", ""), &tickets)
	require.Len(t, tickets, 1)
	assert.Equal(t, scheduling.TicketBooked, tickets[0].Status)
}

func TestAdminCancel(t *testing.T) {
	f := newFixture(t, 2)
	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, f.path+"/tickets", "A", "").Code)

	w := f.do(http.MethodPost, f.path+"/tickets/admin-cancel", "B", `{"user_id":"A"}`)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "not_creator", parse(t, w, nil))

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, f.path+"/tickets/admin-cancel", "ORG1", `{}`).Code)

	w = f.do(http.MethodPost, f.path+"/tickets/admin-cancel", "ORG1", `{"user_id":"A"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	notices := f.rec.For("A")
	require.NotEmpty(t, notices)
	assert.Equal(t, notify.TypeTicketCancelled, notices[len(notices)-1].Metadata[notify.MetaType])

	w = f.do(http.MethodPost, f.path+"/tickets/admin-cancel", "ORG1", `{"user_id":"A"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "booking_not_found", parse(t, w, nil))
}

func TestBookingErrors(t *testing.T) {
	f := newFixture(t, 2)

	w := f.do(http.MethodPost, f.path+"/tickets", "ORG1", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "self_booking_forbidden", parse(t, w, nil))

	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, f.path+"/tickets", "A", "").Code)
	w = f.do(http.MethodPost, f.path+"/tickets", "A", "")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_booked", parse(t, w, nil))

	w = f.do(http.MethodDelete, f.path+"/waitlist", "B", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_waitlisted", parse(t, w, nil))

	w = f.do(http.MethodPost, "/events/"+uuid.NewString()+"/tickets", "A", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "event_not_found", parse(t, w, nil))
}
