package models

import (
	"time"

	"beacon/internal/proximity"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
)

// RSVPStatus is an attendee's reply to an event.
type RSVPStatus string

const (
	RSVPGoing      RSVPStatus = "going"
	RSVPInterested RSVPStatus = "interested"
	RSVPDeclined   RSVPStatus = "declined"
)

func ParseRSVPStatus(s string) (RSVPStatus, error) {
	switch st := RSVPStatus(s); st {
	case RSVPGoing, RSVPInterested, RSVPDeclined:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "status must be going, interested or declined")
}

// Attendee tracks RSVP and check-in. It never implies proximity consent.
type Attendee struct {
	EventID      id.EventID
	UserID       id.UserID
	RSVPStatus   RSVPStatus
	RegisteredAt time.Time
	CheckedInAt  *time.Time
}

// CanCheckIn requires a standing RSVP that is not a decline.
func (a *Attendee) CanCheckIn() error {
	if a.RSVPStatus == RSVPDeclined {
		return dErrors.New(dErrors.CodeInvalidState, "declined attendees cannot check in")
	}
	return nil
}

// NearbyAttendee is one row of a proximity listing. It carries a category,
// never a coordinate.
type NearbyAttendee struct {
	UserID      id.UserID
	DisplayName string
	Category    proximity.Category
}
