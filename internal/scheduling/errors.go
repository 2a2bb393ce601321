package scheduling

import (
	"errors"
	"fmt"
)

// Kind is the error category a caller branches on.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthorization
	KindNotFound
	KindTemporal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindTemporal:
		return "temporal"
	default:
		return "internal"
	}
}

// Code is a machine-readable error code.
type Code string

// Error is a typed engine failure. Two errors are equal under errors.Is when their codes match,
// so a detailed error still matches its sentinel.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// withf returns a copy of e carrying a more specific message.
func (e *Error) withf(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

func newError(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrMissingFields    = newError(KindValidation, "missing_fields", "all fields are required to create an event")
	ErrInvalidCapacity  = newError(KindValidation, "invalid_capacity", "capacity must be a positive number")
	ErrInvalidDuration  = newError(KindValidation, "invalid_duration", "duration must be a positive number of minutes")
	ErrPastStart        = newError(KindValidation, "past_start", "event date and time must be in the future")
	ErrInvalidDecision  = newError(KindValidation, "invalid_decision", "decision must be accept or reject")
	ErrRoleRequired     = newError(KindValidation, "role_required", "role is required")
	ErrSelfBooking      = newError(KindValidation, "self_booking_forbidden", "you cannot book a ticket for your own event")
	ErrSelfJoin         = newError(KindValidation, "self_join_forbidden", "organizer cannot join the waitlist for their own event")
	ErrCreatorVolunteer = newError(KindValidation, "creator_cannot_volunteer", "organizer cannot be a volunteer")
	ErrInvalidMedia     = newError(KindValidation, "invalid_media", "media reference is incomplete")

	ErrVenueConflict         = newError(KindConflict, "venue_conflict", "slot is booked: this venue is already booked for that time and date")
	ErrResourceConflict      = newError(KindConflict, "resource_conflict", "resource is already booked for another event in this time window")
	ErrAlreadyBooked         = newError(KindConflict, "already_booked", "ticket already booked for this event")
	ErrAlreadyWaitlisted     = newError(KindConflict, "already_waitlisted", "already on the waitlist")
	ErrFull                  = newError(KindConflict, "full", "venue is full")
	ErrBelowBooked           = newError(KindConflict, "below_booked", "capacity cannot be lower than the booked seats")
	ErrVolunteerCannotBook   = newError(KindConflict, "volunteer_cannot_book", "volunteers cannot book tickets for this event")
	ErrBookedCannotVolunteer = newError(KindConflict, "booked_cannot_volunteer", "ticket holders cannot take a volunteer role for this event")
	ErrAlreadyVolunteer      = newError(KindConflict, "already_volunteer", "user is already a volunteer for this event")
	ErrPendingForUser        = newError(KindConflict, "pending_for_user", "there is already a pending request for this user")
	ErrRoleTaken             = newError(KindConflict, "role_taken", "this role is already assigned to another volunteer")
	ErrRolePending           = newError(KindConflict, "role_pending", "this role already has a pending request")
	ErrUserExists            = newError(KindConflict, "user_exists", "user already exists")

	ErrNotCreator = newError(KindAuthorization, "not_creator", "only the organizer can perform this action")

	ErrEventNotFound     = newError(KindNotFound, "event_not_found", "event not found")
	ErrUserNotFound      = newError(KindNotFound, "user_not_found", "user not found")
	ErrBookingNotFound   = newError(KindNotFound, "booking_not_found", "booking not found")
	ErrNotWaitlisted     = newError(KindNotFound, "not_waitlisted", "not on the waitlist")
	ErrNoPendingRequest  = newError(KindNotFound, "no_pending_request", "no pending request found")
	ErrVolunteerNotFound = newError(KindNotFound, "volunteer_not_found", "volunteer not found on this event")
	ErrMediaNotFound     = newError(KindNotFound, "media_not_found", "media not found")

	ErrEventLive  = newError(KindTemporal, "event_live", "event is live or has passed")
	ErrEventEnded = newError(KindTemporal, "event_ended", "this event has already started or passed")

	ErrPersistence = newError(KindInternal, "persistence", "failed to persist changes")
)

// KindOf returns the category of err, KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func persistenceError(cause error) *Error {
	return &Error{Kind: KindInternal, Code: ErrPersistence.Code, Message: ErrPersistence.Message, Cause: cause}
}

// committedFailure is a failure whose state changes and notifications are still committed,
// e.g. the "event is full" notice or a volunteer request flipped to rejected.
type committedFailure struct {
	err error
}

func (c *committedFailure) Error() string { return c.err.Error() }

func (c *committedFailure) Unwrap() error { return c.err }

func commitThenFail(err error) error {
	return &committedFailure{err: err}
}
