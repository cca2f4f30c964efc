// Package service answers audit history queries. A caller sees the history of
// records they can see and the entries they acted on.
package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	lmodels "beacon/internal/location/models"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
	audit "beacon/pkg/platform/audit"
)

var tracer = otel.Tracer("beacon/internal/audit")

// Querier reads the audit log.
type Querier interface {
	QueryByRecord(ctx context.Context, table audit.Table, recordID string) ([]audit.Entry, error)
	QueryByUser(ctx context.Context, userID id.UserID, since time.Time) ([]audit.Entry, error)
}

// ShareVisibility returns a share only to its grantor or recipients.
type ShareVisibility interface {
	GetShare(ctx context.Context, shareID id.ShareID, requester id.UserID) (*lmodels.LocationShare, error)
}

type Service struct {
	log    Querier
	shares ShareVisibility
}

func New(log Querier, shares ShareVisibility) *Service {
	return &Service{log: log, shares: shares}
}

// RecordHistory returns the entries of one record. Shares are visible to the
// grantor and recipients; an opt-in only to its owner.
func (s *Service) RecordHistory(ctx context.Context, requester id.UserID, table audit.Table, recordID string) ([]audit.Entry, error) {
	ctx, span := tracer.Start(ctx, "audit.RecordHistory", trace.WithAttributes(
		attribute.String("table", string(table)),
	))
	defer span.End()

	if requester.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	switch table {
	case audit.TableLocationShares:
		shareID, err := id.ParseShareID(recordID)
		if err != nil {
			return nil, err
		}
		if _, err := s.shares.GetShare(ctx, shareID, requester); err != nil {
			return nil, err
		}
	case audit.TableEventOptIns:
		owner, err := optInOwner(recordID)
		if err != nil {
			return nil, err
		}
		if owner != requester {
			return nil, dErrors.New(dErrors.CodeForbidden, "opt-in history is visible to its owner only")
		}
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown table")
	}

	entries, err := s.log.QueryByRecord(ctx, table, recordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit log")
	}
	return entries, nil
}

// MyHistory returns the entries requester acted on since the given time.
func (s *Service) MyHistory(ctx context.Context, requester id.UserID, since time.Time) ([]audit.Entry, error) {
	ctx, span := tracer.Start(ctx, "audit.MyHistory")
	defer span.End()

	if requester.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	entries, err := s.log.QueryByUser(ctx, requester, since)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit log")
	}
	return entries, nil
}

// optInOwner extracts the user from an "<event>:<user>" record id.
func optInOwner(recordID string) (id.UserID, error) {
	eventPart, userPart, ok := strings.Cut(recordID, ":")
	if !ok {
		return id.UserID{}, dErrors.New(dErrors.CodeInvalidInput, "opt-in record id must be <eventId>:<userId>")
	}
	if _, err := id.ParseEventID(eventPart); err != nil {
		return id.UserID{}, err
	}
	userID, err := id.ParseUserID(userPart)
	if err != nil {
		return id.UserID{}, err
	}
	return userID, nil
}
