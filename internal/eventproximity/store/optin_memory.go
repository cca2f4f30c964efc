package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"beacon/internal/eventproximity/models"
	id "beacon/pkg/domain"
	"beacon/pkg/platform/sentinel"
)

type optInKey struct {
	event id.EventID
	user  id.UserID
}

// InMemoryOptInStore keeps one opt-in row per (event, user). Transitions are
// compare-and-set under the store lock.
type InMemoryOptInStore struct {
	mu   sync.RWMutex
	rows map[optInKey]*models.OptIn
}

func NewOptIns() *InMemoryOptInStore {
	return &InMemoryOptInStore{rows: make(map[optInKey]*models.OptIn)}
}

// Insert adds a new row. Returns sentinel.ErrAlreadyUsed when the pair
// already has one.
func (s *InMemoryOptInStore) Insert(_ context.Context, o *models.OptIn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := optInKey{o.EventID, o.UserID}
	if _, exists := s.rows[k]; exists {
		return fmt.Errorf("opt-in %s: %w", o.RecordID(), sentinel.ErrAlreadyUsed)
	}
	s.rows[k] = cloneOptIn(o)
	return nil
}

func (s *InMemoryOptInStore) Find(_ context.Context, eventID id.EventID, userID id.UserID) (*models.OptIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.rows[optInKey{eventID, userID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneOptIn(o), nil
}

// Reopen starts a new period on a closed row. Returns sentinel.ErrInvalidState
// when the row is still open.
func (s *InMemoryOptInStore) Reopen(_ context.Context, eventID id.EventID, userID id.UserID, now, expiresAt time.Time) (*models.OptIn, error) {
	return s.transition(eventID, userID, func(o *models.OptIn) bool {
		if !o.IsClosed() {
			return false
		}
		o.ApplyReopen(now, expiresAt)
		return true
	})
}

// OptOutIfLive closes a live row.
func (s *InMemoryOptInStore) OptOutIfLive(_ context.Context, eventID id.EventID, userID id.UserID, now time.Time) (*models.OptIn, error) {
	return s.transition(eventID, userID, func(o *models.OptIn) bool {
		if !o.IsLiveAt(now) {
			return false
		}
		o.ApplyClose(models.CloseReasonOptedOut, now)
		return true
	})
}

// ExpireIfDue closes a row whose period lapsed without an opt-out.
func (s *InMemoryOptInStore) ExpireIfDue(_ context.Context, eventID id.EventID, userID id.UserID, now time.Time) (*models.OptIn, error) {
	return s.transition(eventID, userID, func(o *models.OptIn) bool {
		if !o.IsDue(now) {
			return false
		}
		o.ApplyClose(models.CloseReasonExpired, now)
		return true
	})
}

func (s *InMemoryOptInStore) transition(eventID id.EventID, userID id.UserID, apply func(*models.OptIn) bool) (*models.OptIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.rows[optInKey{eventID, userID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !apply(o) {
		return nil, sentinel.ErrInvalidState
	}
	return cloneOptIn(o), nil
}

func (s *InMemoryOptInStore) ListLive(_ context.Context, eventID id.EventID, now time.Time) ([]*models.OptIn, error) {
	return s.list(func(o *models.OptIn) bool {
		return o.EventID == eventID && o.IsLiveAt(now)
	}, 0), nil
}

func (s *InMemoryOptInStore) ListDue(_ context.Context, now time.Time, limit int) ([]*models.OptIn, error) {
	return s.list(func(o *models.OptIn) bool { return o.IsDue(now) }, limit), nil
}

// list orders by expiry; limit <= 0 means unbounded.
func (s *InMemoryOptInStore) list(keep func(*models.OptIn) bool, limit int) []*models.OptIn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.OptIn
	for _, o := range s.rows {
		if keep(o) {
			out = append(out, cloneOptIn(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].RecordID() < out[j].RecordID()
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func cloneOptIn(o *models.OptIn) *models.OptIn {
	c := *o
	if o.OptOutTime != nil {
		t := *o.OptOutTime
		c.OptOutTime = &t
	}
	return &c
}
