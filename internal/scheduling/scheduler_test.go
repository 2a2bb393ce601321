package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/notify"
	"github.com/aura-events/backend/internal/store"
)

const organizer = "ORG1"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type harness struct {
	sched *Scheduler
	store *store.Memory
	rec   *notify.Recorder
	clock *fakeClock
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	users := []models.User{{ID: organizer, Name: "Olga", Surname: "Ng", Role: models.RoleOrganizer}}
	for _, id := range []string{"A", "B", "C", "D", "E"} {
		users = append(users, models.User{ID: id, Name: "user" + id, Role: models.RoleStudent})
	}
	h := &harness{
		store: store.NewMemory(&models.Snapshot{Users: users}),
		rec:   notify.NewRecorder(),
		clock: &fakeClock{now: base},
	}
	opts = append([]Option{WithClock(h.clock.Now)}, opts...)
	h.sched = New(h.store, h.rec, opts...)
	return h
}

func (h *harness) input(venue string, start time.Time, capacity int) EventInput {
	return EventInput{
		Title:           "Talk at " + venue,
		Venue:           venue,
		Category:        "tech",
		Start:           start,
		DurationMinutes: 60,
		Capacity:        capacity,
	}
}

func (h *harness) create(t *testing.T, capacity int) models.Event {
	t.Helper()
	ev, err := h.sched.CreateEvent(context.Background(), organizer, h.input("Hall A", base.Add(48*time.Hour), capacity))
	require.NoError(t, err)
	h.rec.Reset()
	return ev
}

func (h *harness) event(t *testing.T, id uuid.UUID) models.Event {
	t.Helper()
	snap, err := h.store.Load(context.Background())
	require.NoError(t, err)
	ev, ok := snap.Event(id)
	require.True(t, ok)
	return *ev
}

// assertLedgerInvariants checks seat contiguity, the capacity bound and exclusive allocation.
func assertLedgerInvariants(t *testing.T, ev models.Event) {
	t.Helper()
	assert.Equal(t, len(ev.Bookings), ev.Taken)
	assert.GreaterOrEqual(t, ev.Taken, 0)
	assert.LessOrEqual(t, ev.Taken, ev.Capacity)
	seen := make(map[int]bool)
	for _, b := range ev.Bookings {
		seen[b.Seat] = true
		assert.Zero(t, ev.WaitlistPosition(b.UserID), "%s booked and waitlisted", b.UserID)
		_, volunteer := ev.Volunteer(b.UserID)
		assert.False(t, volunteer, "%s booked and volunteering", b.UserID)
	}
	for seat := 1; seat <= ev.Taken; seat++ {
		assert.True(t, seen[seat], "seat %d missing", seat)
	}
}

func TestCreateEventBroadcastsToEveryUser(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ev, err := h.sched.CreateEvent(context.Background(), organizer, h.input("Hall A", base.Add(time.Hour), 10))
	require.NoError(t, err)

	assert.Equal(t, 0, ev.Taken)
	assert.Equal(t, organizer, ev.CreatorID)
	all := h.rec.All()
	require.Len(t, all, 6)
	for _, n := range all {
		assert.Equal(t, notify.TypeEventCreated, n.Metadata[notify.MetaType])
		assert.Equal(t, ev.ID.String(), n.Metadata[notify.MetaEventID])
		assert.Contains(t, n.Text, "2030-03-14")
	}
}

func TestCreateEventValidation(t *testing.T) {
	t.Parallel()

	future := base.Add(time.Hour)
	tests := []struct {
		name string
		in   EventInput
		want error
	}{
		{"missing title", EventInput{Venue: "Hall A", Category: "x", Start: future, DurationMinutes: 60, Capacity: 1}, ErrMissingFields},
		{"missing start", EventInput{Title: "t", Venue: "Hall A", Category: "x", DurationMinutes: 60, Capacity: 1}, ErrMissingFields},
		{"zero capacity", EventInput{Title: "t", Venue: "Hall A", Category: "x", Start: future, DurationMinutes: 60}, ErrInvalidCapacity},
		{"negative duration", EventInput{Title: "t", Venue: "Hall A", Category: "x", Start: future, DurationMinutes: -5, Capacity: 1}, ErrInvalidDuration},
		{"start now", EventInput{Title: "t", Venue: "Hall A", Category: "x", Start: base, DurationMinutes: 60, Capacity: 1}, ErrPastStart},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			_, err := h.sched.CreateEvent(context.Background(), organizer, tc.in)
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Empty(t, h.rec.All())
		})
	}
}

func TestCreateEventVenueConflictAndAdjacency(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	start := base.Add(24 * time.Hour)

	_, err := h.sched.CreateEvent(ctx, organizer, h.input("Hall A", start, 10))
	require.NoError(t, err)

	_, err = h.sched.CreateEvent(ctx, organizer, h.input("Hall A", start.Add(30*time.Minute), 10))
	require.ErrorIs(t, err, ErrVenueConflict)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = h.sched.CreateEvent(ctx, organizer, h.input("Hall A", start.Add(time.Hour), 10))
	assert.NoError(t, err, "adjacent window must be accepted")
}

func TestCreateEventResourceExclusivity(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	start := base.Add(24 * time.Hour)

	first := h.input("Hall A", start, 10)
	first.Resources = []string{"projector"}
	_, err := h.sched.CreateEvent(ctx, organizer, first)
	require.NoError(t, err)

	shared := h.input("Hall B", start.Add(15*time.Minute), 10)
	shared.Resources = []string{" projector ", "mic"}
	_, err = h.sched.CreateEvent(ctx, organizer, shared)
	require.ErrorIs(t, err, ErrResourceConflict)
	assert.Contains(t, err.Error(), "projector")

	disjoint := h.input("Hall C", start, 10)
	disjoint.Resources = []string{"mic"}
	_, err = h.sched.CreateEvent(ctx, organizer, disjoint)
	assert.NoError(t, err)

	later := h.input("Hall D", start.Add(time.Hour), 10)
	later.Resources = []string{"projector"}
	_, err = h.sched.CreateEvent(ctx, organizer, later)
	assert.NoError(t, err)
}

func TestUpdateEvent(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	ev := h.create(t, 2)

	_, err := h.sched.Book(ctx, ev.ID, "A")
	require.NoError(t, err)
	_, err = h.sched.Book(ctx, ev.ID, "B")
	require.NoError(t, err)
	h.rec.Reset()

	in := h.input("Hall A", ev.Start.Add(time.Hour), 1)
	_, err = h.sched.UpdateEvent(ctx, ev.ID, organizer, in)
	require.ErrorIs(t, err, ErrBelowBooked)
	assert.Contains(t, err.Error(), "2 seats")

	_, err = h.sched.UpdateEvent(ctx, ev.ID, "A", h.input("Hall A", ev.Start, 2))
	require.ErrorIs(t, err, ErrNotCreator)
	assert.Equal(t, KindAuthorization, KindOf(err))

	_, err = h.sched.UpdateEvent(ctx, ev.ID, organizer, h.input("Hall A", base.Add(-time.Hour), 2))
	require.ErrorIs(t, err, ErrPastStart)

	in = h.input("Hall A", ev.Start.Add(time.Hour), 3)
	in.Title = "Renamed"
	updated, err := h.sched.UpdateEvent(ctx, ev.ID, organizer, in)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 3, updated.Capacity)

	require.Len(t, h.rec.All(), 2)
	for _, n := range h.rec.All() {
		assert.Equal(t, notify.TypeEventUpdated, n.Metadata[notify.MetaType])
	}
}

func TestUpdateEventRejectsVenueConflictWithOtherEvents(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	ev := h.create(t, 2)
	other, err := h.sched.CreateEvent(ctx, organizer, h.input("Hall A", ev.Start.Add(2*time.Hour), 2))
	require.NoError(t, err)

	_, err = h.sched.UpdateEvent(ctx, ev.ID, organizer, h.input("Hall A", other.Start.Add(-30*time.Minute), 2))
	require.ErrorIs(t, err, ErrVenueConflict)

	// moving within its own window is not a conflict with itself
	_, err = h.sched.UpdateEvent(ctx, ev.ID, organizer, h.input("Hall A", ev.Start.Add(10*time.Minute), 2))
	assert.NoError(t, err)
}

func TestUpdateEventKeepsResourceExclusivityWhenMoved(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	first := h.input("Hall A", base.Add(48*time.Hour), 10)
	first.Resources = []string{"projector"}
	_, err := h.sched.CreateEvent(ctx, organizer, first)
	require.NoError(t, err)

	second := h.input("Hall B", base.Add(72*time.Hour), 10)
	second.Resources = []string{"projector"}
	ev, err := h.sched.CreateEvent(ctx, organizer, second)
	require.NoError(t, err)

	// nil Resources keeps the current list, which must still be checked at the new time
	moved := h.input("Hall B", base.Add(48*time.Hour), 10)
	_, err = h.sched.UpdateEvent(ctx, ev.ID, organizer, moved)
	require.ErrorIs(t, err, ErrResourceConflict)

	got := h.event(t, ev.ID)
	assert.True(t, got.Start.Equal(base.Add(72*time.Hour)))
	assert.Equal(t, []string{"projector"}, got.Resources)

	moved.Resources = []string{}
	updated, err := h.sched.UpdateEvent(ctx, ev.ID, organizer, moved)
	require.NoError(t, err)
	assert.Empty(t, updated.Resources)
}

func TestUpdateEventAfterStartIsTemporal(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ev := h.create(t, 2)
	h.clock.Set(ev.Start)

	_, err := h.sched.UpdateEvent(context.Background(), ev.ID, organizer, h.input("Hall A", ev.Start.Add(time.Hour), 2))
	require.ErrorIs(t, err, ErrEventLive)
	assert.Equal(t, KindTemporal, KindOf(err))
}

type purgeRecorder struct {
	mu     sync.Mutex
	purged []models.Media
}

func (p *purgeRecorder) Purge(_ context.Context, media []models.Media) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purged = append(p.purged, media...)
}

func TestDeleteEventCascadesMediaAndNotifiesBookers(t *testing.T) {
	t.Parallel()
	purger := &purgeRecorder{}
	h := newHarness(t, WithMediaPurger(purger))
	ctx := context.Background()
	ev := h.create(t, 3)

	_, err := h.sched.Book(ctx, ev.ID, "A")
	require.NoError(t, err)
	m, err := h.sched.AddMedia(ctx, ev.ID, organizer, models.Media{Name: "poster.png", Key: "events/x/poster.png", Type: models.MediaPhoto})
	require.NoError(t, err)
	h.rec.Reset()

	require.ErrorIs(t, h.sched.DeleteEvent(ctx, ev.ID, "A"), ErrNotCreator)
	require.NoError(t, h.sched.DeleteEvent(ctx, ev.ID, organizer))

	_, err = h.sched.GetEvent(ctx, ev.ID)
	require.ErrorIs(t, err, ErrEventNotFound)
	require.Len(t, purger.purged, 1)
	assert.Equal(t, m.ID, purger.purged[0].ID)

	got := h.rec.For("A")
	require.Len(t, got, 1)
	assert.Equal(t, notify.TypeEventCancelled, got[0].Metadata[notify.MetaType])

	snap, err := h.store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Media)
}

func TestRemoveMedia(t *testing.T) {
	t.Parallel()
	purger := &purgeRecorder{}
	h := newHarness(t, WithMediaPurger(purger))
	ctx := context.Background()
	ev := h.create(t, 3)

	_, err := h.sched.AddMedia(ctx, ev.ID, "A", models.Media{Name: "x", Key: "k"})
	require.ErrorIs(t, err, ErrNotCreator)
	_, err = h.sched.AddMedia(ctx, ev.ID, organizer, models.Media{Name: "x"})
	require.ErrorIs(t, err, ErrInvalidMedia)

	m, err := h.sched.AddMedia(ctx, ev.ID, organizer, models.Media{Name: "x", Key: "k"})
	require.NoError(t, err)
	assert.Equal(t, ev.ID, m.EventID)

	view, err := h.sched.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, view.Media, 1)
	assert.Equal(t, "Olga Ng", view.CreatorName)

	_, err = h.sched.RemoveMedia(ctx, m.ID, "A")
	require.ErrorIs(t, err, ErrNotCreator)
	_, err = h.sched.RemoveMedia(ctx, m.ID, organizer)
	require.NoError(t, err)
	_, err = h.sched.RemoveMedia(ctx, m.ID, organizer)
	require.ErrorIs(t, err, ErrMediaNotFound)
	assert.Len(t, purger.purged, 1)
}

func TestAddUser(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.sched.AddUser(ctx, models.User{ID: "NEW", Name: "Nia"}))
	require.ErrorIs(t, h.sched.AddUser(ctx, models.User{ID: "NEW"}), ErrUserExists)
	require.ErrorIs(t, h.sched.AddUser(ctx, models.User{ID: " "}), ErrMissingFields)

	_, err := h.sched.CreateEvent(ctx, organizer, h.input("Hall A", base.Add(time.Hour), 1))
	require.NoError(t, err)
	assert.Len(t, h.rec.For("NEW"), 1)
}

func TestPersistenceFailureEmitsNothing(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ev := h.create(t, 1)
	h.store.FailSave = errors.New("disk full")

	_, err := h.sched.Book(context.Background(), ev.ID, "A")
	require.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Empty(t, h.rec.All())
}

// conflictingStore fails the first n saves with a version conflict.
type conflictingStore struct {
	*store.Memory
	mu        sync.Mutex
	conflicts int
	saves     int
}

func (s *conflictingStore) Save(ctx context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	s.saves++
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		return store.ErrVersionConflict
	}
	s.mu.Unlock()
	return s.Memory.Save(ctx, snap)
}

func TestVersionConflictIsRetriedFromFreshLoad(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ev := h.create(t, 1)

	cs := &conflictingStore{Memory: h.store, conflicts: 2}
	sched := New(cs, h.rec, WithClock(h.clock.Now))
	_, err := sched.Book(context.Background(), ev.ID, "A")
	require.NoError(t, err)
	assert.Equal(t, 3, cs.saves)
	assert.Len(t, h.rec.For("A"), 1, "notifications of discarded attempts are never emitted")

	cs.conflicts = 3
	_, err = sched.Book(context.Background(), ev.ID, "B")
	require.ErrorIs(t, err, ErrPersistence)
}

func TestConcurrentBookingsNeverOversell(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	ev := h.create(t, 3)

	users := []string{"A", "B", "C", "D", "E"}
	var wg sync.WaitGroup
	errs := make([]error, len(users))
	for i, u := range users {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			_, errs[i] = h.sched.Book(ctx, ev.ID, u)
		}(i, u)
	}
	wg.Wait()

	full := 0
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, ErrFull)
			full++
		}
	}
	assert.Equal(t, 2, full)
	got := h.event(t, ev.ID)
	assert.Equal(t, 3, got.Taken)
	assertLedgerInvariants(t, got)
}

// slowStore delays every load, the way a database round-trip widens the window between read and save.
type slowStore struct {
	*store.Memory
	delay time.Duration
}

func (s *slowStore) Load(ctx context.Context) (*models.Snapshot, error) {
	snap, err := s.Memory.Load(ctx)
	time.Sleep(s.delay)
	return snap, err
}

func TestOperationsOnDifferentEventsDoNotConflict(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	sched := New(&slowStore{Memory: h.store, delay: 2 * time.Millisecond}, h.rec, WithClock(h.clock.Now))

	const events, rounds = 8, 20
	ids := make([]uuid.UUID, events)
	for i := range ids {
		ev, err := sched.CreateEvent(ctx, organizer, h.input(fmt.Sprintf("Hall %d", i), base.Add(48*time.Hour), 5))
		require.NoError(t, err)
		ids[i] = ev.ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, events*rounds*2)
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				if _, _, err := sched.JoinWaitlist(ctx, id, "A"); err != nil {
					errs <- err
				}
				if err := sched.LeaveWaitlist(ctx, id, "A"); err != nil {
					errs <- err
				}
			}
		}(id)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	for _, id := range ids {
		assert.Empty(t, h.event(t, id).Waitlist)
	}
}
