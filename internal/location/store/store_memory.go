package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"beacon/internal/location/models"
	id "beacon/pkg/domain"
	"beacon/pkg/platform/sentinel"
)

// InMemoryStore keeps shares in a map. Every transition is a compare-and-set
// under the store lock, matching the conditional updates of the Postgres store.
type InMemoryStore struct {
	mu     sync.RWMutex
	shares map[id.ShareID]*models.LocationShare
}

func New() *InMemoryStore {
	return &InMemoryStore{shares: make(map[id.ShareID]*models.LocationShare)}
}

func (s *InMemoryStore) Create(_ context.Context, share *models.LocationShare) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.shares[share.ID]; exists {
		return fmt.Errorf("share %s: %w", share.ID, sentinel.ErrAlreadyUsed)
	}
	s.shares[share.ID] = clone(share)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, shareID id.ShareID) (*models.LocationShare, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	share, ok := s.shares[shareID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(share), nil
}

// RevokeIfActive closes an active share. Returns sentinel.ErrInvalidState when
// the share was already closed.
func (s *InMemoryStore) RevokeIfActive(_ context.Context, shareID id.ShareID, now time.Time) (*models.LocationShare, error) {
	return s.closeIf(shareID, models.EndReasonRevoked, now, func(*models.LocationShare) bool { return true })
}

// ExpireIfDue closes an active share whose end time has passed. Returns
// sentinel.ErrInvalidState when the share is closed or not yet due.
func (s *InMemoryStore) ExpireIfDue(_ context.Context, shareID id.ShareID, now time.Time) (*models.LocationShare, error) {
	return s.closeIf(shareID, models.EndReasonExpired, now, func(sh *models.LocationShare) bool { return sh.IsDue(now) })
}

func (s *InMemoryStore) closeIf(shareID id.ShareID, reason models.EndReason, now time.Time, guard func(*models.LocationShare) bool) (*models.LocationShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	share, ok := s.shares[shareID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if share.CanClose() != nil || !guard(share) {
		return nil, sentinel.ErrInvalidState
	}
	share.ApplyClose(reason, now)
	return clone(share), nil
}

func (s *InMemoryStore) ListActiveByGrantor(_ context.Context, grantor id.UserID, now time.Time) ([]*models.LocationShare, error) {
	return s.list(func(sh *models.LocationShare) bool {
		return sh.GrantorID == grantor && sh.IsActiveAt(now)
	}, 0), nil
}

func (s *InMemoryStore) ListActiveForRecipients(_ context.Context, recipients []models.Recipient, now time.Time) ([]*models.LocationShare, error) {
	want := make(map[models.Recipient]struct{}, len(recipients))
	for _, r := range recipients {
		want[r] = struct{}{}
	}
	return s.list(func(sh *models.LocationShare) bool {
		_, ok := want[sh.Recipient]
		return ok && sh.IsActiveAt(now)
	}, 0), nil
}

func (s *InMemoryStore) ListDue(_ context.Context, now time.Time, limit int) ([]*models.LocationShare, error) {
	return s.list(func(sh *models.LocationShare) bool { return sh.IsDue(now) }, limit), nil
}

// list returns matches ordered by start time; limit <= 0 means unbounded.
func (s *InMemoryStore) list(keep func(*models.LocationShare) bool, limit int) []*models.LocationShare {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.LocationShare
	for _, sh := range s.shares {
		if keep(sh) {
			out = append(out, clone(sh))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func clone(sh *models.LocationShare) *models.LocationShare {
	c := *sh
	if sh.EndedAt != nil {
		t := *sh.EndedAt
		c.EndedAt = &t
	}
	return &c
}
