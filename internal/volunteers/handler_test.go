package volunteers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
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
	path   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.NewMemory(&models.Snapshot{Users: []models.User{
		{ID: "ORG1", Name: "Olga", Role: models.RoleOrganizer},
		{ID: "A", Name: "userA", Role: models.RoleStudent},
		{ID: "B", Name: "userB", Role: models.RoleStudent},
	}})
	sched := scheduling.New(st, notify.NewRecorder(), scheduling.WithClock(func() time.Time { return now }))
	ev, err := sched.CreateEvent(context.Background(), "ORG1", scheduling.EventInput{
		Title: "Gala", Venue: "Hall A", Category: "Social", Start: now.Add(48 * time.Hour), DurationMinutes: 60, Capacity: 10,
	})
	require.NoError(t, err)

	h := NewHandler(sched, nil)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, c.GetHeader("X-User"))
		c.Next()
	})
	r.GET("/volunteers/invitations", h.Invitations)
	r.GET("/events/:id/volunteers", h.List)
	r.POST("/events/:id/volunteers", h.Invite)
	r.POST("/events/:id/volunteers/respond", h.Respond)
	r.DELETE("/events/:id/volunteers/:userId", h.Remove)
	return &fixture{router: r, path: "/events/" + ev.ID.String() + "/volunteers"}
}

func (f *fixture) do(method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", user)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func parse(t *testing.T, w *httptest.ResponseRecorder, into any) string {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
		Code string          `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
	return env.Code
}

func TestInviteAcceptListRemove(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, f.path, "ORG1", `{"user_id":"A","role":"Usher"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var invitations []notify.Notification
	parse(t, f.do(http.MethodGet, "/volunteers/invitations", "A", ""), &invitations)
	require.Len(t, invitations, 1)
	assert.Equal(t, "Usher", invitations[0].Metadata[notify.MetaRole])

	w = f.do(http.MethodPost, f.path+"/respond", "A", `{"decision":" Accept "}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reply struct {
		Status    models.RequestStatus  `json:"status"`
		Volunteer *models.VolunteerSlot `json:"volunteer"`
	}
	parse(t, w, &reply)
	assert.Equal(t, models.RequestAccepted, reply.Status)
	require.NotNil(t, reply.Volunteer)
	assert.Equal(t, "Usher", reply.Volunteer.Role)

	var members []scheduling.VolunteerMember
	parse(t, f.do(http.MethodGet, f.path, "ORG1", ""), &members)
	require.NotEmpty(t, members)
	assert.Equal(t, "A", members[0].UserID)

	w = f.do(http.MethodDelete, f.path+"/A", "ORG1", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodDelete, f.path+"/A", "ORG1", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "volunteer_not_found", parse(t, w, nil))
}

func TestInviteErrors(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		user   string
		body   string
		status int
		code   string
	}{
		{"not creator", "A", `{"user_id":"B","role":"Usher"}`, http.StatusForbidden, "not_creator"},
		{"no role", "ORG1", `{"user_id":"B"}`, http.StatusBadRequest, "role_required"},
		{"unknown user", "ORG1", `{"user_id":"ZZ","role":"Usher"}`, http.StatusNotFound, "user_not_found"},
		{"creator", "ORG1", `{"user_id":"ORG1","role":"Usher"}`, http.StatusBadRequest, "creator_cannot_volunteer"},
		{"missing body", "ORG1", `{}`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, f.path, tt.user, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, parse(t, w, nil))
			}
		})
	}
}

func TestRespondErrors(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodPost, f.path+"/respond", "A", `{"decision":"accept"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no_pending_request", parse(t, w, nil))

	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, f.path, "ORG1", `{"user_id":"A","role":"Usher"}`).Code)
	w = f.do(http.MethodPost, f.path+"/respond", "A", `{"decision":"maybe"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_decision", parse(t, w, nil))

	w = f.do(http.MethodPost, f.path+"/respond", "A", `{"decision":"reject"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var reply struct {
		Status models.RequestStatus `json:"status"`
	}
	parse(t, w, &reply)
	assert.Equal(t, models.RequestRejected, reply.Status)
}
