package models

import (
	"time"

	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
)

// CloseReason records how an opt-in period ended.
type CloseReason string

const (
	CloseReasonOptedOut CloseReason = "opted_out"
	CloseReasonExpired  CloseReason = "expired"
)

// OptIn is a user's consent to appear in an event's proximity listing. There
// is at most one row per (EventID, UserID); opting in again reopens the row.
//
// The row is live while OptOutTime is nil and the clock is before ExpiresAt.
// ExpiresAt is the event end, or earlier when a duration was requested.
type OptIn struct {
	EventID     id.EventID
	UserID      id.UserID
	OptInTime   time.Time
	OptOutTime  *time.Time
	ExpiresAt   time.Time
	CloseReason CloseReason
}

// NewOptIn opens a live period from now until expiresAt.
func NewOptIn(eventID id.EventID, userID id.UserID, now, expiresAt time.Time) (*OptIn, error) {
	if eventID.IsNil() || userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event and user are required")
	}
	if !expiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "opt-in must expire after it starts")
	}
	return &OptIn{EventID: eventID, UserID: userID, OptInTime: now, ExpiresAt: expiresAt}, nil
}

// RecordID identifies the row in audit entries.
func (o *OptIn) RecordID() string {
	return RecordID(o.EventID, o.UserID)
}

// RecordID builds the audit record id of the (event, user) opt-in row.
func RecordID(eventID id.EventID, userID id.UserID) string {
	return eventID.String() + ":" + userID.String()
}

func (o *OptIn) IsLiveAt(now time.Time) bool {
	return o.OptOutTime == nil && now.Before(o.ExpiresAt)
}

// IsDue reports whether the row has lapsed but was never closed.
func (o *OptIn) IsDue(now time.Time) bool {
	return o.OptOutTime == nil && !now.Before(o.ExpiresAt)
}

func (o *OptIn) IsClosed() bool {
	return o.OptOutTime != nil
}

// ApplyClose ends the current period.
func (o *OptIn) ApplyClose(reason CloseReason, now time.Time) {
	o.OptOutTime = &now
	o.CloseReason = reason
}

// ApplyReopen starts a new period on a closed row.
func (o *OptIn) ApplyReopen(now, expiresAt time.Time) {
	o.OptInTime = now
	o.OptOutTime = nil
	o.ExpiresAt = expiresAt
	o.CloseReason = ""
}
