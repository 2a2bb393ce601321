package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is a scheduled, capacity-bounded event at a venue.
// Bookings, waitlist entries, volunteer slots and requests are owned by the event and die with it.
type Event struct {
	ID                uuid.UUID          `json:"id"`
	Title             string             `json:"title"`
	Venue             string             `json:"venue"`
	Category          string             `json:"category"`
	Start             time.Time          `json:"start"`
	DurationMinutes   int                `json:"duration_minutes"`
	Capacity          int                `json:"capacity"`
	Taken             int                `json:"taken"`
	Resources         []string           `json:"resources"`
	CreatorID         string             `json:"creator_id"`
	Bookings          []Booking          `json:"bookings"`
	Waitlist          []WaitlistEntry    `json:"waitlist"`
	Volunteers        []VolunteerSlot    `json:"volunteers"`
	VolunteerRequests []VolunteerRequest `json:"volunteer_requests"`
	Markers           []string           `json:"markers,omitempty"` // one-shot notifications already emitted
	CreatedAt         time.Time          `json:"created_at"`
}

// Booking is a confirmed seat. Seats are a dense 1-based rank, renumbered after cancellations.
type Booking struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Seat     int       `json:"seat"`
	EventID  uuid.UUID `json:"event_id"`
	BookedAt time.Time `json:"booked_at"`
}

// WaitlistEntry is a FIFO waitlist position.
type WaitlistEntry struct {
	ID       uuid.UUID `json:"id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// VolunteerSlot is an accepted volunteer holding an exclusive role.
type VolunteerSlot struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	VolunteerID string `json:"volunteer_id"`
}

// RequestStatus is the lifecycle state of a volunteer request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// VolunteerRequest is an organizer invitation to take a role.
type VolunteerRequest struct {
	ID          uuid.UUID     `json:"id"`
	UserID      string        `json:"user_id"`
	Role        string        `json:"role"`
	Status      RequestStatus `json:"status"`
	RequestedAt time.Time     `json:"requested_at"`
}

// End returns the exclusive end of the event window.
func (e *Event) End() time.Time {
	return e.Start.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// IsCreator reports whether userID created the event.
func (e *Event) IsCreator(userID string) bool {
	return e.CreatorID == userID
}

// Booking returns the booking held by userID, if any.
func (e *Event) Booking(userID string) (*Booking, bool) {
	for i := range e.Bookings {
		if e.Bookings[i].UserID == userID {
			return &e.Bookings[i], true
		}
	}
	return nil, false
}

// WaitlistPosition returns the 1-based waitlist position of userID, or 0.
func (e *Event) WaitlistPosition(userID string) int {
	for i, w := range e.Waitlist {
		if w.UserID == userID {
			return i + 1
		}
	}
	return 0
}

// Volunteer returns the accepted slot held by userID, if any.
func (e *Event) Volunteer(userID string) (*VolunteerSlot, bool) {
	for i := range e.Volunteers {
		if e.Volunteers[i].UserID == userID {
			return &e.Volunteers[i], true
		}
	}
	return nil, false
}

// HasMarker reports whether a one-shot marker was already recorded.
func (e *Event) HasMarker(m string) bool {
	for _, v := range e.Markers {
		if v == m {
			return true
		}
	}
	return false
}

// Mark records a one-shot marker. It is a no-op when the marker exists.
func (e *Event) Mark(m string) {
	if !e.HasMarker(m) {
		e.Markers = append(e.Markers, m)
	}
}

// VolunteerIDFor returns the dense volunteer id for a 1-based rank (V01, V02, ...).
func VolunteerIDFor(rank int) string {
	return fmt.Sprintf("V%02d", rank)
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	out := e
	out.Resources = append([]string(nil), e.Resources...)
	out.Bookings = append([]Booking(nil), e.Bookings...)
	out.Waitlist = append([]WaitlistEntry(nil), e.Waitlist...)
	out.Volunteers = append([]VolunteerSlot(nil), e.Volunteers...)
	out.VolunteerRequests = append([]VolunteerRequest(nil), e.VolunteerRequests...)
	out.Markers = append([]string(nil), e.Markers...)
	return out
}
