package scheduling

import (
	"time"

	"github.com/aura-events/backend/internal/models"
)

// CheckVenueConflict returns the first existing event at the candidate's venue, on the same calendar
// date in loc, whose window overlaps the candidate's. The candidate itself (same ID) is skipped.
func CheckVenueConflict(candidate *models.Event, existing []models.Event, loc *time.Location) *models.Event {
	w := WindowOf(candidate)
	for i := range existing {
		e := &existing[i]
		if e.ID == candidate.ID || e.Venue != candidate.Venue {
			continue
		}
		if !sameDate(e.Start, candidate.Start, loc) {
			continue
		}
		if w.Overlaps(WindowOf(e)) {
			return e
		}
	}
	return nil
}

// CheckResourceConflict returns the first candidate resource also declared by an overlapping event
// at any venue. Events are scanned in list order; within an event, candidate resources are tried
// in declaration order.
func CheckResourceConflict(candidate *models.Event, existing []models.Event) (string, bool) {
	if len(candidate.Resources) == 0 {
		return "", false
	}
	w := WindowOf(candidate)
	for i := range existing {
		e := &existing[i]
		if e.ID == candidate.ID || len(e.Resources) == 0 {
			continue
		}
		if !w.Overlaps(WindowOf(e)) {
			continue
		}
		for _, r := range candidate.Resources {
			if containsString(e.Resources, r) {
				return r, true
			}
		}
	}
	return "", false
}

func sameDate(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
