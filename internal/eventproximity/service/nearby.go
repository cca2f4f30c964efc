package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"beacon/internal/eventproximity/models"
	"beacon/internal/proximity"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/platform/sentinel"
	"beacon/pkg/requestcontext"
)

// ListNearbyAttendees categorizes every other live participant relative to
// requester. Positions are read for this call only and dropped once
// categorized. Participants whose position or name cannot be read are left
// out of the listing.
func (s *Service) ListNearbyAttendees(ctx context.Context, eventID id.EventID, requester id.UserID) ([]models.NearbyAttendee, error) {
	ctx, span := tracer.Start(ctx, "eventproximity.ListNearbyAttendees", trace.WithAttributes(
		attribute.String("event_id", eventID.String()),
	))
	defer span.End()
	start := time.Now()
	defer s.observe("list_nearby_attendees", start)

	if requester.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	if s.metrics != nil {
		s.metrics.IncrementNearbyRequest()
	}
	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	own, err := s.optIns.Find(ctx, eventID, requester)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load opt-in")
	}
	if own == nil || !own.IsLiveAt(now) {
		return nil, dErrors.New(dErrors.CodeNotOptedIn, "opt in to see nearby attendees")
	}

	live, err := s.optIns.ListLive(ctx, eventID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list opt-ins")
	}

	origin, err := s.positions.CurrentPosition(ctx, requester)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementPositioningFailure()
		}
		return nil, dErrors.Wrap(err, dErrors.CodePositioningUnavailable, "your position is unavailable")
	}

	others := make([]id.UserID, 0, len(live))
	for _, o := range live {
		if o.UserID != requester {
			others = append(others, o.UserID)
		}
	}

	results := make([]*models.NearbyAttendee, len(others))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.LookupParallelism)
	for i, userID := range others {
		g.Go(func() error {
			results[i] = s.categorize(gctx, userID, origin, event.Geofence)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "nearby lookup cancelled")
	}

	attendees := make([]models.NearbyAttendee, 0, len(results))
	for _, r := range results {
		if r != nil {
			attendees = append(attendees, *r)
		}
	}
	sort.SliceStable(attendees, func(i, j int) bool {
		a, b := attendees[i], attendees[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.UserID.String() < b.UserID.String()
	})
	span.SetAttributes(attribute.Int("attendees", len(attendees)))
	return attendees, nil
}

// categorize returns nil when the participant cannot be placed.
func (s *Service) categorize(ctx context.Context, userID id.UserID, origin proximity.Position, fence *proximity.Geofence) *models.NearbyAttendee {
	pos, err := s.positions.CurrentPosition(ctx, userID)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementPositioningFailure()
		}
		s.logger.DebugContext(ctx, "participant position unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil
	}
	name, err := s.names.DisplayName(ctx, userID)
	if err != nil {
		s.logger.DebugContext(ctx, "participant display name unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil
	}
	return &models.NearbyAttendee{
		UserID:      userID,
		DisplayName: name,
		Category:    proximity.Categorize(origin, pos, fence),
	}
}
