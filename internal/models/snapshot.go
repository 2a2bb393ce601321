package models

import "github.com/google/uuid"

// Snapshot is the whole persisted state: users, events and media references.
// Version is owned by the store and bumped on every successful save.
type Snapshot struct {
	Version int64   `json:"version"`
	Users   []User  `json:"users"`
	Events  []Event `json:"events"`
	Media   []Media `json:"media"`
}

// Clone returns a deep copy so a failed operation can be discarded without touching the original.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{Version: s.Version}
	out.Users = append([]User(nil), s.Users...)
	out.Media = append([]Media(nil), s.Media...)
	out.Events = make([]Event, len(s.Events))
	for i := range s.Events {
		out.Events[i] = s.Events[i].Clone()
	}
	return out
}

// Event returns a pointer into Events for id.
func (s *Snapshot) Event(id uuid.UUID) (*Event, bool) {
	for i := range s.Events {
		if s.Events[i].ID == id {
			return &s.Events[i], true
		}
	}
	return nil, false
}

// User returns the directory entry for id.
func (s *Snapshot) User(id string) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// RemoveEvent deletes the event and returns the media references that belonged to it.
func (s *Snapshot) RemoveEvent(id uuid.UUID) []Media {
	for i := range s.Events {
		if s.Events[i].ID == id {
			s.Events = append(s.Events[:i], s.Events[i+1:]...)
			break
		}
	}
	var removed []Media
	kept := s.Media[:0]
	for _, m := range s.Media {
		if m.EventID == id {
			removed = append(removed, m)
			continue
		}
		kept = append(kept, m)
	}
	s.Media = kept
	return removed
}

// MediaFor returns media references for an event.
func (s *Snapshot) MediaFor(eventID uuid.UUID) []Media {
	var out []Media
	for _, m := range s.Media {
		if m.EventID == eventID {
			out = append(out, m)
		}
	}
	return out
}
