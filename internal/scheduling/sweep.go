package scheduling

import (
	"fmt"
	"time"
)

const markerLive = "live"

// reminderThresholds are minutes before start, each reminded once per event.
var reminderThresholds = []int{60, 45, 25, 10}

func reminderMarker(minutes int) string {
	return fmt.Sprintf("reminder:%d", minutes)
}

// sweep emits due live broadcasts and reminders and normalizes volunteer ids.
// It reports whether the snapshot changed.
func (s *Scheduler) sweep(t *tx) bool {
	changed := false
	for i := range t.snap.Events {
		ev := &t.snap.Events[i]

		if WindowOf(ev).Contains(t.now) && !ev.HasMarker(markerLive) {
			for _, u := range t.snap.Users {
				t.out.Add(liveNotice(u.ID, ev, t.now))
			}
			ev.Mark(markerLive)
			changed = true
		}

		until := ev.Start.Sub(t.now)
		for _, minutes := range reminderThresholds {
			key := reminderMarker(minutes)
			if until <= 0 || until > time.Duration(minutes)*time.Minute || ev.HasMarker(key) {
				continue
			}
			for _, b := range ev.Bookings {
				t.out.Add(reminderNotice(b.UserID, ev, minutes, t.now))
			}
			ev.Mark(key)
			changed = true
		}

		if newVolunteerRoster(ev, t.opContext).Renumber() {
			changed = true
		}
	}
	if changed {
		s.logger.Debug("sweep updated events")
	}
	return changed
}
