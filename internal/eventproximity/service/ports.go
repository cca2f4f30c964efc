package service

import (
	"context"
	"time"

	"beacon/internal/collaborators/events"
	"beacon/internal/eventproximity/models"
	"beacon/internal/proximity"
	id "beacon/pkg/domain"
	audit "beacon/pkg/platform/audit"
)

// OptInStore persists opt-in rows. Transitions are compare-and-set: they
// return sentinel.ErrInvalidState when the guard fails and sentinel.ErrNotFound
// when the row does not exist.
type OptInStore interface {
	Insert(ctx context.Context, o *models.OptIn) error
	Find(ctx context.Context, eventID id.EventID, userID id.UserID) (*models.OptIn, error)
	Reopen(ctx context.Context, eventID id.EventID, userID id.UserID, now, expiresAt time.Time) (*models.OptIn, error)
	OptOutIfLive(ctx context.Context, eventID id.EventID, userID id.UserID, now time.Time) (*models.OptIn, error)
	ExpireIfDue(ctx context.Context, eventID id.EventID, userID id.UserID, now time.Time) (*models.OptIn, error)
	ListLive(ctx context.Context, eventID id.EventID, now time.Time) ([]*models.OptIn, error)
}

type AttendeeStore interface {
	UpsertRSVP(ctx context.Context, a *models.Attendee) (*models.Attendee, error)
	CheckIn(ctx context.Context, eventID id.EventID, userID id.UserID, now time.Time) (*models.Attendee, error)
}

type EventCatalog interface {
	FindEvent(ctx context.Context, eventID id.EventID) (*events.Event, error)
}

type Positions interface {
	CurrentPosition(ctx context.Context, userID id.UserID) (proximity.Position, error)
}

type DisplayNames interface {
	DisplayName(ctx context.Context, userID id.UserID) (string, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, action audit.Action, table audit.Table, recordID string, userID id.UserID, details map[string]any) error
}
