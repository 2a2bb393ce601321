package scheduling

import (
	"fmt"
	"time"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/notify"
)

func notice(recipient string, ev *models.Event, typ string, at time.Time, text string) notify.Notification {
	return notify.Notification{
		Recipient: recipient,
		Text:      text,
		Metadata: map[string]string{
			notify.MetaType:    typ,
			notify.MetaEventID: ev.ID.String(),
		},
		At: at,
	}
}

func createdNotice(recipient string, ev *models.Event, loc *time.Location, at time.Time) notify.Notification {
	return notice(recipient, ev, notify.TypeEventCreated, at,
		fmt.Sprintf("New Event: %s on %s", ev.Title, ev.Start.In(loc).Format("2006-01-02")))
}

func updatedNotice(recipient string, ev *models.Event, at time.Time) notify.Notification {
	return notice(recipient, ev, notify.TypeEventUpdated, at,
		fmt.Sprintf("Event Updated: Details for '%s' have changed.", ev.Title))
}

func cancelledNotice(recipient string, ev *models.Event, at time.Time) notify.Notification {
	return notice(recipient, ev, notify.TypeEventCancelled, at,
		fmt.Sprintf("Event Cancelled: '%s' has been cancelled.", ev.Title))
}

func liveNotice(recipient string, ev *models.Event, at time.Time) notify.Notification {
	return notice(recipient, ev, notify.TypeEventLive, at,
		fmt.Sprintf("Event Live: '%s' is now live!", ev.Title))
}

func reminderNotice(recipient string, ev *models.Event, minutes int, at time.Time) notify.Notification {
	return notice(recipient, ev, notify.TypeReminder, at,
		fmt.Sprintf("Reminder: '%s' starts in about %d minutes!", ev.Title, minutes))
}

func bookedNotice(b models.Booking, ev *models.Event, at time.Time) notify.Notification {
	return notice(b.UserID, ev, notify.TypeBooked, at,
		fmt.Sprintf("You booked a ticket for '%s'. Your seat: %d", ev.Title, b.Seat))
}

func fullNotice(recipient string, ev *models.Event, at time.Time) notify.Notification {
	return notice(recipient, ev, notify.TypeFull, at,
		fmt.Sprintf("Event '%s' is full.", ev.Title))
}

func ticketCancelledNotice(recipient string, ev *models.Event, byOrganizer bool, at time.Time) notify.Notification {
	text := fmt.Sprintf("Your ticket for '%s' has been cancelled.", ev.Title)
	if byOrganizer {
		text = fmt.Sprintf("Your ticket for '%s' was cancelled by the organizer.", ev.Title)
	}
	return notice(recipient, ev, notify.TypeTicketCancelled, at, text)
}

type promotionCause int

const (
	promotedBySeat promotionCause = iota
	promotedByCapacity
)

func autoBookedNotice(b models.Booking, ev *models.Event, cause promotionCause, at time.Time) notify.Notification {
	text := fmt.Sprintf("A seat opened up for '%s'. You have been auto-booked from the waitlist. Your seat: %d", ev.Title, b.Seat)
	if cause == promotedByCapacity {
		text = fmt.Sprintf("Great news! You've been auto-booked for '%s' due to increased capacity. Your seat: %d", ev.Title, b.Seat)
	}
	return notice(b.UserID, ev, notify.TypeAutoBooked, at, text)
}

func waitlistNotice(recipient string, ev *models.Event, at time.Time) notify.Notification {
	return notice(recipient, ev, notify.TypeWaitlistJoined, at,
		fmt.Sprintf("You joined the waitlist for '%s'. We'll auto-book you if a seat opens.", ev.Title))
}

func volunteerInviteNotice(recipient string, ev *models.Event, role string, at time.Time) notify.Notification {
	n := notice(recipient, ev, notify.TypeVolunteerRequest, at,
		fmt.Sprintf("Organizer invited you to volunteer for '%s' as '%s'.", ev.Title, role))
	n.Metadata[notify.MetaRole] = role
	return n
}

func volunteerReplyNotices(userID string, ev *models.Event, role string, accepted bool, at time.Time) []notify.Notification {
	verb := "rejected"
	if accepted {
		verb = "accepted"
	}
	user := notice(userID, ev, notify.TypeVolunteerReply, at,
		fmt.Sprintf("You %s volunteer role '%s' for '%s'.", verb, role, ev.Title))
	organizer := notice(ev.CreatorID, ev, notify.TypeVolunteerReply, at,
		fmt.Sprintf("%s %s volunteer role '%s' for '%s'.", userID, verb, role, ev.Title))
	user.Metadata[notify.MetaRole] = role
	organizer.Metadata[notify.MetaRole] = role
	return []notify.Notification{user, organizer}
}

func volunteerRemovedNotice(recipient string, ev *models.Event, at time.Time) notify.Notification {
	return notice(recipient, ev, notify.TypeVolunteerRemoved, at,
		fmt.Sprintf("Your volunteer role for '%s' has been cancelled.", ev.Title))
}
