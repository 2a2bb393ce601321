package scheduling

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/notify"
	"github.com/aura-events/backend/internal/store"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 20 * time.Millisecond
)

// MediaPurger removes stored blobs for media references dropped by a committed operation.
type MediaPurger interface {
	Purge(ctx context.Context, media []models.Media)
}

// Scheduler runs every booking operation as a transaction over the snapshot store:
// lock, load, mutate, save with a version check, then emit buffered notifications in call order.
type Scheduler struct {
	store    store.EventStore
	emitter  notify.Emitter
	purger   MediaPurger
	clock    func() time.Time
	loc      *time.Location
	newID    func() uuid.UUID
	logger   *zap.Logger
	attempts int
	backoff  time.Duration

	// mu serializes writers. The schedule is stored as one versioned snapshot, so any two
	// writers in this process would otherwise race on the same version.
	mu sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the zone used for calendar-date comparisons and notification dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithIDGenerator overrides uuid.New.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Scheduler) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMediaPurger registers the purger called after media references are dropped.
func WithMediaPurger(p MediaPurger) Option {
	return func(s *Scheduler) {
		s.purger = p
	}
}

// New creates a Scheduler. A nil emitter drops notifications.
func New(st store.EventStore, emitter notify.Emitter, opts ...Option) *Scheduler {
	if emitter == nil {
		emitter = notify.Nop{}
	}
	s := &Scheduler{
		store:    st,
		emitter:  emitter,
		clock:    time.Now,
		loc:      time.UTC,
		newID:    uuid.New,
		logger:   zap.NewNop(),
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EventInput carries the editable fields of an event. On update a nil Resources keeps the current list.
type EventInput struct {
	Title           string
	Venue           string
	Category        string
	Start           time.Time
	DurationMinutes int
	Capacity        int
	Resources       []string
}

func (in EventInput) validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Venue) == "" ||
		strings.TrimSpace(in.Category) == "" || in.Start.IsZero() {
		return ErrMissingFields
	}
	if in.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if in.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

func normalizeResources(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		r = strings.TrimSpace(r)
		if r != "" && !containsString(out, r) {
			out = append(out, r)
		}
	}
	return out
}

type tx struct {
	snap *models.Snapshot
	opContext
	readOnly bool
}

func (t *tx) event(id uuid.UUID) (*models.Event, error) {
	ev, ok := t.snap.Event(id)
	if !ok {
		return nil, ErrEventNotFound
	}
	return ev, nil
}

func (s *Scheduler) begin(snap *models.Snapshot) *tx {
	return &tx{
		snap: snap,
		opContext: opContext{
			now:   s.clock(),
			users: snap.User,
			out:   &notify.Buffer{},
			newID: s.newID,
		},
	}
}

// run executes fn while holding the writer lock. A version conflict on save means another process
// committed first; fn is re-run from a fresh load after a short backoff. Domain failures abort with
// nothing persisted or emitted.
func (s *Scheduler) run(ctx context.Context, op string, fn func(t *tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if attempt > 1 {
			if err := s.wait(ctx, attempt); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		snap, err := s.store.Load(ctx)
		if err != nil {
			s.logger.Error("load snapshot failed", zap.String("op", op), zap.Error(err))
			return persistenceError(err)
		}

		t := s.begin(snap)
		opErr := fn(t)
		var committed *committedFailure
		if opErr != nil && !errors.As(opErr, &committed) {
			return opErr
		}

		if !t.readOnly {
			if err := s.store.Save(ctx, snap); err != nil {
				if errors.Is(err, store.ErrVersionConflict) {
					lastErr = err
					s.logger.Debug("snapshot version conflict, retrying", zap.String("op", op), zap.Int("attempt", attempt))
					continue
				}
				s.logger.Error("save snapshot failed", zap.String("op", op), zap.Error(err))
				return persistenceError(err)
			}
		}

		if n := t.out.Len(); n > 0 {
			s.logger.Debug("emitting notifications", zap.String("op", op), zap.Int("count", n))
		}
		t.out.Flush(ctx, s.emitter)
		if committed != nil {
			return committed.err
		}
		return nil
	}
	s.logger.Error("save snapshot failed after retries", zap.String("op", op), zap.Int("attempts", s.attempts), zap.Error(lastErr))
	return persistenceError(lastErr)
}

func (s *Scheduler) wait(ctx context.Context, attempt int) error {
	if s.backoff <= 0 {
		return nil
	}
	timer := time.NewTimer(s.backoff * time.Duration(attempt-1))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Scheduler) read(ctx context.Context) (*models.Snapshot, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("load snapshot failed", zap.String("op", "read"), zap.Error(err))
		return nil, persistenceError(err)
	}
	return snap, nil
}

// CreateEvent validates the input, rejects venue and resource conflicts and announces the event to every user.
func (s *Scheduler) CreateEvent(ctx context.Context, creatorID string, in EventInput) (models.Event, error) {
	var created models.Event
	err := s.run(ctx, "create_event", func(t *tx) error {
		if err := in.validate(); err != nil {
			return err
		}
		if !in.Start.After(t.now) {
			return ErrPastStart
		}
		ev := models.Event{
			ID:              t.newID(),
			Title:           strings.TrimSpace(in.Title),
			Venue:           strings.TrimSpace(in.Venue),
			Category:        strings.TrimSpace(in.Category),
			Start:           in.Start,
			DurationMinutes: in.DurationMinutes,
			Capacity:        in.Capacity,
			Resources:       normalizeResources(in.Resources),
			CreatorID:       creatorID,
			CreatedAt:       t.now,
		}
		if err := s.checkConflicts(&ev, t.snap.Events); err != nil {
			return err
		}
		t.snap.Events = append(t.snap.Events, ev)
		for _, u := range t.snap.Users {
			t.out.Add(createdNotice(u.ID, &ev, s.loc, t.now))
		}
		created = ev.Clone()
		return nil
	})
	if err != nil {
		return models.Event{}, err
	}
	s.logger.Info("event created", zap.String("event_id", created.ID.String()), zap.String("creator_id", creatorID))
	return created, nil
}

func (s *Scheduler) checkConflicts(candidate *models.Event, events []models.Event) error {
	if other := CheckVenueConflict(candidate, events, s.loc); other != nil {
		return ErrVenueConflict.withf("slot is booked: %s is already booked for '%s' at that time and date", candidate.Venue, other.Title)
	}
	if r, ok := CheckResourceConflict(candidate, events); ok {
		return ErrResourceConflict.withf("resource '%s' is already booked for another event in this time window", r)
	}
	return nil
}

// UpdateEvent edits an event that has not started yet. Extra capacity is filled from the waitlist and
// every ticket holder is told about the change.
func (s *Scheduler) UpdateEvent(ctx context.Context, eventID uuid.UUID, requesterID string, in EventInput) (models.Event, error) {
	var updated models.Event
	err := s.run(ctx, "update_event", func(t *tx) error {
		ev, err := t.event(eventID)
		if err != nil {
			return err
		}
		if !ev.IsCreator(requesterID) {
			return ErrNotCreator
		}
		if !t.now.Before(ev.Start) {
			return ErrEventLive
		}
		if err := in.validate(); err != nil {
			return err
		}
		ledger := newSeatLedger(ev, t.opContext)
		if err := ledger.checkCapacity(in.Capacity); err != nil {
			return err
		}
		if !in.Start.After(t.now) {
			return ErrPastStart
		}

		candidate := ev.Clone()
		candidate.Venue = strings.TrimSpace(in.Venue)
		candidate.Start = in.Start
		candidate.DurationMinutes = in.DurationMinutes
		if in.Resources != nil {
			candidate.Resources = normalizeResources(in.Resources)
		}
		if err := s.checkConflicts(&candidate, t.snap.Events); err != nil {
			return err
		}

		ev.Title = strings.TrimSpace(in.Title)
		ev.Venue = candidate.Venue
		ev.Category = strings.TrimSpace(in.Category)
		ev.Start = candidate.Start
		ev.DurationMinutes = candidate.DurationMinutes
		ev.Resources = candidate.Resources
		if _, err := ledger.Resize(in.Capacity); err != nil {
			return err
		}
		for _, b := range ev.Bookings {
			t.out.Add(updatedNotice(b.UserID, ev, t.now))
		}
		updated = ev.Clone()
		return nil
	})
	if err != nil {
		return models.Event{}, err
	}
	return updated, nil
}

// DeleteEvent removes an event that has not started, with its media references, and tells every
// ticket holder. Dropped media is handed to the purger after commit.
func (s *Scheduler) DeleteEvent(ctx context.Context, eventID uuid.UUID, requesterID string) error {
	var removed []models.Media
	err := s.run(ctx, "delete_event", func(t *tx) error {
		ev, err := t.event(eventID)
		if err != nil {
			return err
		}
		if !ev.IsCreator(requesterID) {
			return ErrNotCreator
		}
		if !t.now.Before(ev.Start) {
			return ErrEventLive
		}
		for _, b := range ev.Bookings {
			t.out.Add(cancelledNotice(b.UserID, ev, t.now))
		}
		removed = t.snap.RemoveEvent(eventID)
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("event deleted", zap.String("event_id", eventID.String()), zap.Int("media", len(removed)))
	s.purge(ctx, removed)
	return nil
}

func (s *Scheduler) purge(ctx context.Context, media []models.Media) {
	if s.purger != nil && len(media) > 0 {
		s.purger.Purge(ctx, media)
	}
}

// EventView is an event with its creator's display name and media references.
type EventView struct {
	models.Event
	CreatorName string         `json:"creator_name"`
	Media       []models.Media `json:"media"`
}

func viewOf(snap *models.Snapshot, ev *models.Event) EventView {
	v := EventView{Event: ev.Clone(), CreatorName: ev.CreatorID, Media: snap.MediaFor(ev.ID)}
	if u, ok := snap.User(ev.CreatorID); ok {
		v.CreatorName = u.FullName()
	}
	if v.Media == nil {
		v.Media = []models.Media{}
	}
	return v
}

// ListEvents runs the time-based sweep and returns every event.
func (s *Scheduler) ListEvents(ctx context.Context) ([]EventView, error) {
	var views []EventView
	err := s.run(ctx, "list_events", func(t *tx) error {
		t.readOnly = !s.sweep(t)
		views = make([]EventView, 0, len(t.snap.Events))
		for i := range t.snap.Events {
			views = append(views, viewOf(t.snap, &t.snap.Events[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// Sweep emits due live and reminder notifications without listing events.
func (s *Scheduler) Sweep(ctx context.Context) error {
	return s.run(ctx, "sweep", func(t *tx) error {
		t.readOnly = !s.sweep(t)
		return nil
	})
}

// GetEvent returns one event.
func (s *Scheduler) GetEvent(ctx context.Context, eventID uuid.UUID) (EventView, error) {
	snap, err := s.read(ctx)
	if err != nil {
		return EventView{}, err
	}
	ev, ok := snap.Event(eventID)
	if !ok {
		return EventView{}, ErrEventNotFound
	}
	return viewOf(snap, ev), nil
}

// Book reserves a seat for userID.
func (s *Scheduler) Book(ctx context.Context, eventID uuid.UUID, userID string) (models.Booking, error) {
	var booking models.Booking
	err := s.run(ctx, "book", func(t *tx) error {
		ev, err := t.event(eventID)
		if err != nil {
			return err
		}
		booking, err = newSeatLedger(ev, t.opContext).Book(userID)
		return err
	})
	if err != nil {
		return models.Booking{}, err
	}
	return booking, nil
}

// Cancel releases userID's own booking. It returns the booking promoted from the waitlist, if any.
func (s *Scheduler) Cancel(ctx context.Context, eventID uuid.UUID, userID string) (*models.Booking, error) {
	var promoted *models.Booking
	err := s.run(ctx, "cancel", func(t *tx) error {
		ev, err := t.event(eventID)
		if err != nil {
			return err
		}
		promoted, err = newSeatLedger(ev, t.opContext).Cancel(userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// AdminCancel releases targetID's booking on behalf of the event creator.
func (s *Scheduler) AdminCancel(ctx context.Context, eventID uuid.UUID, targetID, requesterID string) (*models.Booking, error) {
	var promoted *models.Booking
	err := s.run(ctx, "admin_cancel", func(t *tx) error {
		ev, err := t.event(eventID)
		if err != nil {
			return err
		}
		promoted, err = newSeatLedger(ev, t.opContext).AdminCancel(targetID, requesterID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// JoinWaitlist queues userID and returns the entry with its 1-based position.
func (s *Scheduler) JoinWaitlist(ctx context.Context, eventID uuid.UUID, userID string) (models.WaitlistEntry, int, error) {
	var (
		entry    models.WaitlistEntry
		position int
	)
	err := s.run(ctx, "join_waitlist", func(t *tx) error {
		ev, err := t.event(eventID)
		if err != nil {
			return err
		}
		entry, position, err = newSeatLedger(ev, t.opContext).JoinWaitlist(userID)
		return err
	})
	if err != nil {
		return models.WaitlistEntry{}, 0, err
	}
	return entry, position, nil
}

// LeaveWaitlist removes userID from the waitlist.
func (s *Scheduler) LeaveWaitlist(ctx context.Context, eventID uuid.UUID, userID string) error {
	return s.run(ctx, "leave_waitlist", func(t *tx) error {
		ev, err := t.event(eventID)
		if err != nil {
			return err
		}
		return newSeatLedger(ev, t.opContext).LeaveWaitlist(userID)
	})
}

// RequestVolunteer invites userID to a role on the organizer's event.
func (s *Scheduler) RequestVolunteer(ctx context.Context, eventID uuid.UUID, organizerID, userID, role string) (models.VolunteerRequest, error) {
	var req models.VolunteerRequest
	err := s.run(ctx, "request_volunteer", func(t *tx) error {
		ev, err := t.event(eventID)
		if err != nil {
			return err
		}
		req, err = newVolunteerRoster(ev, t.opContext).Request(organizerID, userID, role)
		return err
	})
	if err != nil {
		return models.VolunteerRequest{}, err
	}
	return req, nil
}

// RespondVolunteer accepts or rejects userID's pending invitation. The slot is set on accept.
func (s *Scheduler) RespondVolunteer(ctx context.Context, eventID uuid.UUID, userID string, decision Decision) (models.VolunteerRequest, *models.VolunteerSlot, error) {
	var (
		req  models.VolunteerRequest
		slot *models.VolunteerSlot
	)
	err := s.run(ctx, "respond_volunteer", func(t *tx) error {
		ev, err := t.event(eventID)
		if err != nil {
			return err
		}
		req, slot, err = newVolunteerRoster(ev, t.opContext).Respond(userID, decision)
		return err
	})
	if err != nil {
		return req, nil, err
	}
	return req, slot, nil
}

// RemoveVolunteer takes userID's accepted role away.
func (s *Scheduler) RemoveVolunteer(ctx context.Context, eventID uuid.UUID, organizerID, userID string) (models.VolunteerSlot, error) {
	var removed models.VolunteerSlot
	err := s.run(ctx, "remove_volunteer", func(t *tx) error {
		ev, err := t.event(eventID)
		if err != nil {
			return err
		}
		removed, err = newVolunteerRoster(ev, t.opContext).Remove(organizerID, userID)
		return err
	})
	if err != nil {
		return models.VolunteerSlot{}, err
	}
	return removed, nil
}

// AddUser registers a directory entry so the user receives broadcasts.
func (s *Scheduler) AddUser(ctx context.Context, u models.User) error {
	return s.run(ctx, "add_user", func(t *tx) error {
		if strings.TrimSpace(u.ID) == "" {
			return ErrMissingFields.withf("user id is required")
		}
		if _, ok := t.snap.User(u.ID); ok {
			return ErrUserExists
		}
		t.snap.Users = append(t.snap.Users, u)
		return nil
	})
}

// AddMedia attaches an uploaded media reference to the creator's event.
func (s *Scheduler) AddMedia(ctx context.Context, eventID uuid.UUID, requesterID string, m models.Media) (models.Media, error) {
	err := s.run(ctx, "add_media", func(t *tx) error {
		ev, err := t.event(eventID)
		if err != nil {
			return err
		}
		if !ev.IsCreator(requesterID) {
			return ErrNotCreator
		}
		if strings.TrimSpace(m.Key) == "" || strings.TrimSpace(m.Name) == "" {
			return ErrInvalidMedia
		}
		if m.ID == uuid.Nil {
			m.ID = t.newID()
		}
		m.EventID = eventID
		m.UploadedAt = t.now
		t.snap.Media = append(t.snap.Media, m)
		return nil
	})
	if err != nil {
		return models.Media{}, err
	}
	return m, nil
}

// RemoveMedia drops a media reference from the creator's event and purges the blob after commit.
func (s *Scheduler) RemoveMedia(ctx context.Context, mediaID uuid.UUID, requesterID string) (models.Media, error) {
	var removed models.Media
	err := s.run(ctx, "remove_media", func(t *tx) error {
		idx := -1
		for i := range t.snap.Media {
			if t.snap.Media[i].ID == mediaID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrMediaNotFound
		}
		removed = t.snap.Media[idx]
		if ev, ok := t.snap.Event(removed.EventID); ok && !ev.IsCreator(requesterID) {
			return ErrNotCreator
		}
		t.snap.Media = append(t.snap.Media[:idx], t.snap.Media[idx+1:]...)
		return nil
	})
	if err != nil {
		return models.Media{}, err
	}
	s.purge(ctx, []models.Media{removed})
	return removed, nil
}
