package store

import (
	"context"
	"sync"
	"time"

	"beacon/internal/eventproximity/models"
	id "beacon/pkg/domain"
	"beacon/pkg/platform/sentinel"
)

type InMemoryAttendeeStore struct {
	mu   sync.RWMutex
	rows map[optInKey]*models.Attendee
}

func NewAttendees() *InMemoryAttendeeStore {
	return &InMemoryAttendeeStore{rows: make(map[optInKey]*models.Attendee)}
}

// UpsertRSVP records a reply. The first registration time is kept, and a
// decline clears any check-in.
func (s *InMemoryAttendeeStore) UpsertRSVP(_ context.Context, a *models.Attendee) (*models.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := optInKey{a.EventID, a.UserID}
	existing, ok := s.rows[k]
	if !ok {
		s.rows[k] = cloneAttendee(a)
		return cloneAttendee(a), nil
	}
	existing.RSVPStatus = a.RSVPStatus
	if a.RSVPStatus == models.RSVPDeclined {
		existing.CheckedInAt = nil
	}
	return cloneAttendee(existing), nil
}

func (s *InMemoryAttendeeStore) Find(_ context.Context, eventID id.EventID, userID id.UserID) (*models.Attendee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.rows[optInKey{eventID, userID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneAttendee(a), nil
}

// CheckIn stamps the first check-in of an attendee that has not declined.
// A repeated check-in keeps the original time.
func (s *InMemoryAttendeeStore) CheckIn(_ context.Context, eventID id.EventID, userID id.UserID, now time.Time) (*models.Attendee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[optInKey{eventID, userID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if a.CanCheckIn() != nil {
		return nil, sentinel.ErrInvalidState
	}
	if a.CheckedInAt == nil {
		a.CheckedInAt = &now
	}
	return cloneAttendee(a), nil
}

func cloneAttendee(a *models.Attendee) *models.Attendee {
	c := *a
	if a.CheckedInAt != nil {
		t := *a.CheckedInAt
		c.CheckedInAt = &t
	}
	return &c
}
