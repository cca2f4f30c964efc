package service

import (
	"context"
	"time"

	"beacon/internal/location/models"
	id "beacon/pkg/domain"
	audit "beacon/pkg/platform/audit"
)

// ShareStore persists location shares. RevokeIfActive is a compare-and-set on
// active: it returns sentinel.ErrInvalidState when the share is already closed
// and sentinel.ErrNotFound for unknown ids.
type ShareStore interface {
	Create(ctx context.Context, share *models.LocationShare) error
	FindByID(ctx context.Context, shareID id.ShareID) (*models.LocationShare, error)
	RevokeIfActive(ctx context.Context, shareID id.ShareID, now time.Time) (*models.LocationShare, error)
	ListActiveByGrantor(ctx context.Context, grantor id.UserID, now time.Time) ([]*models.LocationShare, error)
	ListActiveForRecipients(ctx context.Context, recipients []models.Recipient, now time.Time) ([]*models.LocationShare, error)
}

// Directory resolves recipients and community membership.
type Directory interface {
	UserExists(ctx context.Context, userID id.UserID) (bool, error)
	CommunityExists(ctx context.Context, communityID id.CommunityID) (bool, error)
	CommunitiesOf(ctx context.Context, userID id.UserID) ([]id.CommunityID, error)
}

// AuditRecorder appends one audit entry inside the caller's unit of work.
type AuditRecorder interface {
	Record(ctx context.Context, action audit.Action, table audit.Table, recordID string, userID id.UserID, details map[string]any) error
}
