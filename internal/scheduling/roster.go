package scheduling

import (
	"strings"

	"github.com/aura-events/backend/internal/models"
)

// Decision is a volunteer's answer to an invitation.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// VolunteerRoster manages volunteer invitations and accepted role slots of one event.
// Each role is held by at most one accepted volunteer.
type VolunteerRoster struct {
	ev *models.Event
	opContext
}

func newVolunteerRoster(ev *models.Event, c opContext) *VolunteerRoster {
	return &VolunteerRoster{ev: ev, opContext: c}
}

// Request invites userID to take role. Inviting a ticket holder is allowed; the booking check
// happens when the invitation is accepted.
func (r *VolunteerRoster) Request(organizerID, userID, role string) (models.VolunteerRequest, error) {
	ev := r.ev
	if !ev.IsCreator(organizerID) {
		return models.VolunteerRequest{}, ErrNotCreator
	}
	if !r.now.Before(ev.Start) {
		return models.VolunteerRequest{}, ErrEventEnded
	}
	role = strings.TrimSpace(role)
	if role == "" {
		return models.VolunteerRequest{}, ErrRoleRequired
	}
	if r.users != nil {
		if _, ok := r.users(userID); !ok {
			return models.VolunteerRequest{}, ErrUserNotFound
		}
	}
	if ev.IsCreator(userID) {
		return models.VolunteerRequest{}, ErrCreatorVolunteer
	}
	if _, ok := ev.Volunteer(userID); ok {
		return models.VolunteerRequest{}, ErrAlreadyVolunteer
	}
	if r.pendingFor(userID) != nil {
		return models.VolunteerRequest{}, ErrPendingForUser
	}
	if r.roleHolder(role) != nil {
		return models.VolunteerRequest{}, ErrRoleTaken
	}
	for _, req := range ev.VolunteerRequests {
		if req.Status == models.RequestPending && req.Role == role {
			return models.VolunteerRequest{}, ErrRolePending
		}
	}

	req := models.VolunteerRequest{
		ID:          r.newID(),
		UserID:      userID,
		Role:        role,
		Status:      models.RequestPending,
		RequestedAt: r.now,
	}
	ev.VolunteerRequests = append(ev.VolunteerRequests, req)
	r.out.Add(volunteerInviteNotice(userID, ev, role, r.now))
	return req, nil
}

// Respond resolves userID's pending invitation. Accepting a role someone else took in the meantime
// flips the request to rejected; that flip is committed together with the RoleTaken failure.
func (r *VolunteerRoster) Respond(userID string, decision Decision) (models.VolunteerRequest, *models.VolunteerSlot, error) {
	ev := r.ev
	req := r.pendingFor(userID)
	if req == nil {
		return models.VolunteerRequest{}, nil, ErrNoPendingRequest
	}
	if !r.now.Before(ev.Start) {
		return models.VolunteerRequest{}, nil, ErrEventEnded
	}

	switch decision {
	case DecisionAccept:
		if r.roleHolder(req.Role) != nil {
			req.Status = models.RequestRejected
			return *req, nil, commitThenFail(ErrRoleTaken.withf("role '%s' is already assigned to someone else", req.Role))
		}
		if _, ok := ev.Booking(userID); ok {
			return models.VolunteerRequest{}, nil, ErrBookedCannotVolunteer
		}
		if ev.WaitlistPosition(userID) > 0 {
			return models.VolunteerRequest{}, nil, ErrBookedCannotVolunteer.withf("leave the waitlist before taking a volunteer role")
		}
		ev.Volunteers = append(ev.Volunteers, models.VolunteerSlot{
			UserID: userID,
			Name:   r.displayName(userID),
			Role:   req.Role,
		})
		r.Renumber()
		req.Status = models.RequestAccepted
		for _, n := range volunteerReplyNotices(userID, ev, req.Role, true, r.now) {
			r.out.Add(n)
		}
		slot, _ := ev.Volunteer(userID)
		out := *slot
		return *req, &out, nil
	case DecisionReject:
		req.Status = models.RequestRejected
		for _, n := range volunteerReplyNotices(userID, ev, req.Role, false, r.now) {
			r.out.Add(n)
		}
		return *req, nil, nil
	default:
		return models.VolunteerRequest{}, nil, ErrInvalidDecision
	}
}

// Remove takes userID's accepted slot away and renumbers the rest.
func (r *VolunteerRoster) Remove(organizerID, userID string) (models.VolunteerSlot, error) {
	ev := r.ev
	if !ev.IsCreator(organizerID) {
		return models.VolunteerSlot{}, ErrNotCreator
	}
	for i := range ev.Volunteers {
		if ev.Volunteers[i].UserID != userID {
			continue
		}
		removed := ev.Volunteers[i]
		ev.Volunteers = append(ev.Volunteers[:i], ev.Volunteers[i+1:]...)
		r.Renumber()
		r.out.Add(volunteerRemovedNotice(userID, ev, r.now))
		return removed, nil
	}
	return models.VolunteerSlot{}, ErrVolunteerNotFound
}

// Renumber derives volunteer ids V01, V02, ... from list order. It reports whether anything changed.
func (r *VolunteerRoster) Renumber() bool {
	changed := false
	for i := range r.ev.Volunteers {
		id := models.VolunteerIDFor(i + 1)
		if r.ev.Volunteers[i].VolunteerID != id {
			r.ev.Volunteers[i].VolunteerID = id
			changed = true
		}
	}
	return changed
}

func (r *VolunteerRoster) pendingFor(userID string) *models.VolunteerRequest {
	for i := range r.ev.VolunteerRequests {
		req := &r.ev.VolunteerRequests[i]
		if req.UserID == userID && req.Status == models.RequestPending {
			return req
		}
	}
	return nil
}

func (r *VolunteerRoster) roleHolder(role string) *models.VolunteerSlot {
	for i := range r.ev.Volunteers {
		if r.ev.Volunteers[i].Role == role {
			return &r.ev.Volunteers[i]
		}
	}
	return nil
}
