package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	id "beacon/pkg/domain"
	audit "beacon/pkg/platform/audit"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Details = maps.Clone(entry.Details)
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) ListByRecord(_ context.Context, table audit.Table, recordID string) ([]audit.Entry, error) {
	return s.filter(func(e audit.Entry) bool {
		return e.Table == table && e.RecordID == recordID
	}), nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID, since time.Time) ([]audit.Entry, error) {
	return s.filter(func(e audit.Entry) bool {
		return e.UserID == userID && !e.Timestamp.Before(since)
	}), nil
}

// All returns every entry; tests use it to count transitions.
func (s *InMemoryStore) All() []audit.Entry {
	return s.filter(func(audit.Entry) bool { return true })
}

func (s *InMemoryStore) filter(keep func(audit.Entry) bool) []audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Entry
	for _, e := range s.entries {
		if keep(e) {
			e.Details = maps.Clone(e.Details)
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
