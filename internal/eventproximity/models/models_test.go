package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
)

func TestOptInLifecycle(t *testing.T) {
	t0 := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	eventID := id.EventID(uuid.New())
	userID := id.UserID(uuid.New())

	o, err := NewOptIn(eventID, userID, t0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, o.IsLiveAt(t0))
	assert.True(t, o.IsLiveAt(t0.Add(59*time.Minute)))
	assert.False(t, o.IsLiveAt(t0.Add(time.Hour)))
	assert.True(t, o.IsDue(t0.Add(time.Hour)))
	assert.Equal(t, eventID.String()+":"+userID.String(), o.RecordID())

	o.ApplyClose(CloseReasonOptedOut, t0.Add(10*time.Minute))
	assert.True(t, o.IsClosed())
	assert.False(t, o.IsLiveAt(t0.Add(11*time.Minute)))
	assert.False(t, o.IsDue(t0.Add(2*time.Hour)))

	o.ApplyReopen(t0.Add(20*time.Minute), t0.Add(time.Hour))
	assert.True(t, o.IsLiveAt(t0.Add(21*time.Minute)))
	assert.Empty(t, o.CloseReason)

	_, err = NewOptIn(eventID, userID, t0, t0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestAttendeeCheckInRules(t *testing.T) {
	a := &Attendee{RSVPStatus: RSVPInterested}
	assert.NoError(t, a.CanCheckIn())
	a.RSVPStatus = RSVPDeclined
	assert.True(t, dErrors.HasCode(a.CanCheckIn(), dErrors.CodeInvalidState))

	_, err := ParseRSVPStatus("maybe")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	st, err := ParseRSVPStatus("going")
	require.NoError(t, err)
	assert.Equal(t, RSVPGoing, st)
}
