// Package positioning is the device positioning collaborator. Positions
// returned here must not be stored, cached or logged by callers.
package positioning

import (
	"context"
	"sync"

	"beacon/internal/proximity"
	id "beacon/pkg/domain"
	"beacon/pkg/platform/sentinel"
)

// Provider returns a user's current position. It returns sentinel.ErrUnavailable
// when no fix is available.
type Provider interface {
	CurrentPosition(ctx context.Context, userID id.UserID) (proximity.Position, error)
}

// InMemory serves positions set by tests and local tooling.
type InMemory struct {
	mu        sync.RWMutex
	positions map[id.UserID]proximity.Position
}

func NewInMemory() *InMemory {
	return &InMemory{positions: make(map[id.UserID]proximity.Position)}
}

func (p *InMemory) Set(userID id.UserID, pos proximity.Position) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positions[userID] = pos
}

func (p *InMemory) Clear(userID id.UserID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.positions, userID)
}

func (p *InMemory) CurrentPosition(ctx context.Context, userID id.UserID) (proximity.Position, error) {
	if err := ctx.Err(); err != nil {
		return proximity.Position{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	pos, ok := p.positions[userID]
	if !ok {
		return proximity.Position{}, sentinel.ErrUnavailable
	}
	return pos, nil
}
