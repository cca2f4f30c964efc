// Package events is the event catalogue collaborator.
package events

import (
	"context"
	"sync"
	"time"

	"beacon/internal/proximity"
	id "beacon/pkg/domain"
	"beacon/pkg/platform/sentinel"
)

// Event is the slice of an event the proximity features need.
type Event struct {
	ID       id.EventID
	Name     string
	StartsAt time.Time
	EndTime  time.Time
	Geofence *proximity.Geofence
}

// HasEnded reports whether the event is over at now.
func (e *Event) HasEnded(now time.Time) bool {
	return now.After(e.EndTime)
}

// Catalog looks up events. FindEvent returns sentinel.ErrNotFound for unknown ids.
type Catalog interface {
	FindEvent(ctx context.Context, eventID id.EventID) (*Event, error)
}

// InMemory is a seeded catalogue for local runs and tests.
type InMemory struct {
	mu     sync.RWMutex
	events map[id.EventID]Event
}

func NewInMemory() *InMemory {
	return &InMemory{events: make(map[id.EventID]Event)}
}

func (c *InMemory) Add(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events[e.ID] = e
}

func (c *InMemory) FindEvent(_ context.Context, eventID id.EventID) (*Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &e, nil
}
