// Package directory is the users and communities collaborator. Profile and
// membership management live elsewhere; this package only answers lookups.
package directory

import (
	"context"

	id "beacon/pkg/domain"
)

// Directory answers existence, display-name and membership lookups.
// DisplayName returns sentinel.ErrNotFound for unknown users.
type Directory interface {
	UserExists(ctx context.Context, userID id.UserID) (bool, error)
	CommunityExists(ctx context.Context, communityID id.CommunityID) (bool, error)
	DisplayName(ctx context.Context, userID id.UserID) (string, error)
	CommunitiesOf(ctx context.Context, userID id.UserID) ([]id.CommunityID, error)
}
