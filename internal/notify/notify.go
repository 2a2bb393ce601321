// Package notify defines the notification emitter boundary used by the scheduling engine.
// The engine decides what to say and to whom; delivery is somebody else's job.
package notify

import (
	"context"
	"sync"
	"time"
)

// Metadata keys attached to notifications.
const (
	MetaType    = "type"
	MetaEventID = "event_id"
	MetaRole    = "role"
)

// Notification types carried in Metadata[MetaType].
const (
	TypeEventCreated     = "event_created"
	TypeEventUpdated     = "event_updated"
	TypeEventCancelled   = "event_cancelled"
	TypeEventLive        = "event_live"
	TypeReminder         = "reminder"
	TypeBooked           = "booked"
	TypeFull             = "full"
	TypeTicketCancelled  = "ticket_cancelled"
	TypeAutoBooked       = "auto_booked"
	TypeWaitlistJoined   = "waitlist_joined"
	TypeVolunteerRequest = "volunteer_request"
	TypeVolunteerReply   = "volunteer_reply"
	TypeVolunteerRemoved = "volunteer_removed"
)

// Notification is one (recipient, text, metadata) tuple.
type Notification struct {
	Recipient string            `json:"recipient"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	At        time.Time         `json:"at"`
}

// Emitter receives notifications. Push is fire-and-forget; implementations log their own failures.
type Emitter interface {
	Push(ctx context.Context, n Notification)
}

// Nop drops everything.
type Nop struct{}

// Push implements Emitter.
func (Nop) Push(context.Context, Notification) {}

// Recorder keeps every pushed notification in memory, in call order.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Push implements Emitter.
func (r *Recorder) Push(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, n)
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.all...)
}

// For returns notifications addressed to recipient, in push order.
func (r *Recorder) For(recipient string) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.all {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	return out
}

// Reset clears the recorder.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = nil
}

// Buffer collects notifications during a transaction so they are only emitted after commit.
type Buffer struct {
	pending []Notification
}

// Add appends a notification.
func (b *Buffer) Add(n Notification) {
	b.pending = append(b.pending, n)
}

// Len returns the number of buffered notifications.
func (b *Buffer) Len() int {
	return len(b.pending)
}

// Flush pushes buffered notifications to e in insertion order and empties the buffer.
func (b *Buffer) Flush(ctx context.Context, e Emitter) {
	for _, n := range b.pending {
		e.Push(ctx, n)
	}
	b.pending = nil
}
