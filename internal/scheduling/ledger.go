package scheduling

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/notify"
)

// opContext is what a single operation sees besides the event: the operation instant, the user
// directory, the notification buffer and the id source.
type opContext struct {
	now   time.Time
	users func(id string) (models.User, bool)
	out   *notify.Buffer
	newID func() uuid.UUID
}

func (c opContext) displayName(userID string) string {
	if c.users != nil {
		if u, ok := c.users(userID); ok {
			return u.Name
		}
	}
	return userID
}

// SeatLedger manages capacity, bookings and the waitlist of one event.
// Seats are always the contiguous range 1..Taken.
type SeatLedger struct {
	ev *models.Event
	opContext
}

func newSeatLedger(ev *models.Event, c opContext) *SeatLedger {
	return &SeatLedger{ev: ev, opContext: c}
}

// Book assigns the next seat to userID. A full event still notifies the user, and that
// notification is committed with the failure.
func (l *SeatLedger) Book(userID string) (models.Booking, error) {
	ev := l.ev
	if _, ok := ev.Booking(userID); ok {
		return models.Booking{}, ErrAlreadyBooked
	}
	if ev.IsCreator(userID) {
		return models.Booking{}, ErrSelfBooking
	}
	if _, ok := ev.Volunteer(userID); ok {
		return models.Booking{}, ErrVolunteerCannotBook
	}
	if ev.Taken >= ev.Capacity {
		l.out.Add(fullNotice(userID, ev, l.now))
		return models.Booking{}, commitThenFail(ErrFull)
	}
	l.dropFromWaitlist(userID)
	b := l.seat(userID)
	l.out.Add(bookedNotice(b, ev, l.now))
	return b, nil
}

// Cancel releases userID's own booking and promotes the waitlist head into the freed seat.
func (l *SeatLedger) Cancel(userID string) (*models.Booking, error) {
	return l.release(userID, false)
}

// AdminCancel lets the event creator release another user's booking.
func (l *SeatLedger) AdminCancel(targetID, requesterID string) (*models.Booking, error) {
	if !l.ev.IsCreator(requesterID) {
		return nil, ErrNotCreator
	}
	return l.release(targetID, true)
}

func (l *SeatLedger) release(userID string, byOrganizer bool) (*models.Booking, error) {
	ev := l.ev
	idx := -1
	for i := range ev.Bookings {
		if ev.Bookings[i].UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrBookingNotFound
	}
	if !l.now.Before(ev.Start) {
		return nil, ErrEventLive
	}

	ev.Bookings = append(ev.Bookings[:idx], ev.Bookings[idx+1:]...)
	l.Renumber()
	l.out.Add(ticketCancelledNotice(userID, ev, byOrganizer, l.now))

	promoted := l.promote(1, promotedBySeat)
	if len(promoted) == 0 {
		return nil, nil
	}
	return &promoted[0], nil
}

// Resize changes capacity. Growth promotes min(added, free, waitlisted) users from the head of the waitlist.
func (l *SeatLedger) Resize(newCapacity int) ([]models.Booking, error) {
	if err := l.checkCapacity(newCapacity); err != nil {
		return nil, err
	}
	ev := l.ev
	added := newCapacity - ev.Capacity
	ev.Capacity = newCapacity
	if added <= 0 {
		return nil, nil
	}
	n := min(added, newCapacity-ev.Taken, len(ev.Waitlist))
	return l.promote(n, promotedByCapacity), nil
}

func (l *SeatLedger) checkCapacity(newCapacity int) error {
	if newCapacity <= 0 {
		return ErrInvalidCapacity
	}
	if newCapacity < l.ev.Taken {
		return ErrBelowBooked.withf("%d seats are already booked; capacity cannot be lower than that", l.ev.Taken)
	}
	return nil
}

// JoinWaitlist appends userID to the tail of the waitlist and returns the 1-based position.
func (l *SeatLedger) JoinWaitlist(userID string) (models.WaitlistEntry, int, error) {
	ev := l.ev
	if _, ok := ev.Booking(userID); ok {
		return models.WaitlistEntry{}, 0, ErrAlreadyBooked
	}
	if ev.WaitlistPosition(userID) > 0 {
		return models.WaitlistEntry{}, 0, ErrAlreadyWaitlisted
	}
	if ev.IsCreator(userID) {
		return models.WaitlistEntry{}, 0, ErrSelfJoin
	}
	// A promoted volunteer would hold a seat and a slot at once.
	if _, ok := ev.Volunteer(userID); ok {
		return models.WaitlistEntry{}, 0, ErrVolunteerCannotBook
	}
	entry := models.WaitlistEntry{ID: l.newID(), UserID: userID, JoinedAt: l.now}
	ev.Waitlist = append(ev.Waitlist, entry)
	l.out.Add(waitlistNotice(userID, ev, l.now))
	return entry, len(ev.Waitlist), nil
}

// LeaveWaitlist removes userID's entry, keeping the relative order of the rest.
func (l *SeatLedger) LeaveWaitlist(userID string) error {
	if !l.dropFromWaitlist(userID) {
		return ErrNotWaitlisted
	}
	return nil
}

// Renumber reassigns seats 1..n in current seat order and syncs Taken.
func (l *SeatLedger) Renumber() {
	ev := l.ev
	slices.SortStableFunc(ev.Bookings, func(a, b models.Booking) int { return cmp.Compare(a.Seat, b.Seat) })
	for i := range ev.Bookings {
		ev.Bookings[i].Seat = i + 1
	}
	ev.Taken = len(ev.Bookings)
}

func (l *SeatLedger) promote(n int, cause promotionCause) []models.Booking {
	ev := l.ev
	var promoted []models.Booking
	for i := 0; i < n && len(ev.Waitlist) > 0 && ev.Taken < ev.Capacity; i++ {
		head := ev.Waitlist[0]
		ev.Waitlist = ev.Waitlist[1:]
		b := l.seat(head.UserID)
		l.out.Add(autoBookedNotice(b, ev, cause, l.now))
		promoted = append(promoted, b)
	}
	return promoted
}

func (l *SeatLedger) seat(userID string) models.Booking {
	ev := l.ev
	b := models.Booking{
		UserID:   userID,
		Name:     l.displayName(userID),
		Seat:     ev.Taken + 1,
		EventID:  ev.ID,
		BookedAt: l.now,
	}
	ev.Bookings = append(ev.Bookings, b)
	ev.Taken = len(ev.Bookings)
	return b
}

func (l *SeatLedger) dropFromWaitlist(userID string) bool {
	ev := l.ev
	for i := range ev.Waitlist {
		if ev.Waitlist[i].UserID == userID {
			ev.Waitlist = append(ev.Waitlist[:i], ev.Waitlist[i+1:]...)
			return true
		}
	}
	return false
}
