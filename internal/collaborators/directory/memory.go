package directory

import (
	"context"
	"slices"
	"sync"

	id "beacon/pkg/domain"
	"beacon/pkg/platform/sentinel"
)

// InMemory is a seeded directory for local runs and tests.
type InMemory struct {
	mu          sync.RWMutex
	users       map[id.UserID]string
	communities map[id.CommunityID]struct{}
	members     map[id.UserID][]id.CommunityID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:       make(map[id.UserID]string),
		communities: make(map[id.CommunityID]struct{}),
		members:     make(map[id.UserID][]id.CommunityID),
	}
}

// AddUser registers a user with a display name.
func (d *InMemory) AddUser(userID id.UserID, displayName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[userID] = displayName
}

// AddCommunity registers a community and its members.
func (d *InMemory) AddCommunity(communityID id.CommunityID, members ...id.UserID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.communities[communityID] = struct{}{}
	for _, m := range members {
		if !slices.Contains(d.members[m], communityID) {
			d.members[m] = append(d.members[m], communityID)
		}
	}
}

func (d *InMemory) UserExists(_ context.Context, userID id.UserID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.users[userID]
	return ok, nil
}

func (d *InMemory) CommunityExists(_ context.Context, communityID id.CommunityID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.communities[communityID]
	return ok, nil
}

func (d *InMemory) DisplayName(_ context.Context, userID id.UserID) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.users[userID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return name, nil
}

func (d *InMemory) CommunitiesOf(_ context.Context, userID id.UserID) ([]id.CommunityID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.members[userID]), nil
}
