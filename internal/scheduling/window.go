package scheduling

import (
	"time"

	"github.com/aura-events/backend/internal/models"
)

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window from a start instant and a duration in minutes.
func NewWindow(start time.Time, durationMinutes int) Window {
	return Window{Start: start, End: start.Add(time.Duration(durationMinutes) * time.Minute)}
}

// WindowOf returns the event's window.
func WindowOf(e *models.Event) Window {
	return NewWindow(e.Start, e.DurationMinutes)
}

// Overlaps reports whether two windows share any instant. Adjacent windows do not overlap.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Contains reports whether t lies inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
