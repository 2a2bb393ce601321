package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/notify"
)

// Ticket statuses.
const (
	TicketBooked  = "booked"
	TicketWaiting = "waiting"
)

// Ticket is one of a user's bookings or waitlist entries.
type Ticket struct {
	TicketID        string    `json:"ticket_id"`
	EventID         uuid.UUID `json:"event_id"`
	Title           string    `json:"title"`
	Venue           string    `json:"venue"`
	Category        string    `json:"category"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Seat            int       `json:"seat,omitempty"`
	Position        int       `json:"position,omitempty"`
}

func ticketCode(name, userID string) string {
	prefix := strings.ToLower(name)
	if r := []rune(prefix); len(r) > 3 {
		prefix = string(r[:3])
	}
	return prefix + userID
}

// Tickets lists userID's bookings and waitlist positions across events.
func (s *Scheduler) Tickets(ctx context.Context, userID string) ([]Ticket, error) {
	snap, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	out := []Ticket{}
	for i := range snap.Events {
		ev := &snap.Events[i]
		t := Ticket{
			EventID:         ev.ID,
			Title:           ev.Title,
			Venue:           ev.Venue,
			Category:        ev.Category,
			Start:           ev.Start,
			DurationMinutes: ev.DurationMinutes,
		}
		if b, ok := ev.Booking(userID); ok {
			t.Status = TicketBooked
			t.Seat = b.Seat
			t.TicketID = ticketCode(b.Name, userID)
			out = append(out, t)
			continue
		}
		if pos := ev.WaitlistPosition(userID); pos > 0 {
			t.Status = TicketWaiting
			t.Position = pos
			t.TicketID = "WAIT-" + userID
			out = append(out, t)
		}
	}
	return out, nil
}

// WaitlistMember is one waitlist entry as shown to the organizer.
type WaitlistMember struct {
	Position int       `json:"position"`
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}

// Waitlist returns the event's waitlist in FIFO order. Organizer only.
func (s *Scheduler) Waitlist(ctx context.Context, eventID uuid.UUID, organizerID string) ([]WaitlistMember, error) {
	snap, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	ev, ok := snap.Event(eventID)
	if !ok {
		return nil, ErrEventNotFound
	}
	if !ev.IsCreator(organizerID) {
		return nil, ErrNotCreator
	}
	out := make([]WaitlistMember, 0, len(ev.Waitlist))
	for i, w := range ev.Waitlist {
		m := WaitlistMember{Position: i + 1, UserID: w.UserID, Name: w.UserID, JoinedAt: w.JoinedAt}
		if u, ok := snap.User(w.UserID); ok {
			m.Name = u.FullName()
		}
		out = append(out, m)
	}
	return out, nil
}

// VolunteerMember is an accepted slot or an invitation as shown to the organizer.
type VolunteerMember struct {
	UserID      string               `json:"user_id"`
	Name        string               `json:"name"`
	Role        string               `json:"role"`
	VolunteerID string               `json:"volunteer_id,omitempty"`
	Status      models.RequestStatus `json:"status"`
}

// Volunteers lists accepted slots followed by every invitation. Organizer only.
func (s *Scheduler) Volunteers(ctx context.Context, eventID uuid.UUID, organizerID string) ([]VolunteerMember, error) {
	snap, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	ev, ok := snap.Event(eventID)
	if !ok {
		return nil, ErrEventNotFound
	}
	if !ev.IsCreator(organizerID) {
		return nil, ErrNotCreator
	}
	name := func(id string) string {
		if u, ok := snap.User(id); ok {
			return u.Name
		}
		return id
	}
	out := make([]VolunteerMember, 0, len(ev.Volunteers)+len(ev.VolunteerRequests))
	for _, v := range ev.Volunteers {
		out = append(out, VolunteerMember{
			UserID:      v.UserID,
			Name:        name(v.UserID),
			Role:        v.Role,
			VolunteerID: v.VolunteerID,
			Status:      models.RequestAccepted,
		})
	}
	for _, r := range ev.VolunteerRequests {
		out = append(out, VolunteerMember{UserID: r.UserID, Name: name(r.UserID), Role: r.Role, Status: r.Status})
	}
	return out, nil
}

// PendingInvitations returns the open volunteer invitations addressed to userID.
func (s *Scheduler) PendingInvitations(ctx context.Context, userID string) ([]notify.Notification, error) {
	snap, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	out := []notify.Notification{}
	for i := range snap.Events {
		ev := &snap.Events[i]
		for _, r := range ev.VolunteerRequests {
			if r.UserID == userID && r.Status == models.RequestPending {
				out = append(out, volunteerInviteNotice(userID, ev, r.Role, r.RequestedAt))
			}
		}
	}
	return out, nil
}
