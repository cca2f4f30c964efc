package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"beacon/internal/collaborators/events"
	"beacon/internal/eventproximity/models"
	"beacon/internal/platform/metrics"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
	audit "beacon/pkg/platform/audit"
	"beacon/pkg/platform/sentinel"
	"beacon/pkg/platform/tx"
	"beacon/pkg/requestcontext"
)

var tracer = otel.Tracer("beacon/internal/eventproximity")

// Opt-in outcomes reported to metrics.
const (
	outcomeCreated     = "created"
	outcomeReactivated = "reactivated"
	outcomeUnchanged   = "unchanged"
)

// triggerOptIn marks expire entries written when an opt-in closes a lapsed row.
const triggerOptIn = "opt_in"

// Config bounds opt-in durations and the nearby fan-out.
type Config struct {
	MaxDurationMinutes int
	LookupParallelism  int
}

func DefaultConfig() Config {
	return Config{MaxDurationMinutes: 1440, LookupParallelism: 8}
}

// Service owns event proximity consent and attendance.
type Service struct {
	optIns    OptInStore
	attendees AttendeeStore
	catalog   EventCatalog
	positions Positions
	names     DisplayNames
	auditor   AuditRecorder
	tx        tx.Runner
	cfg       Config
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// Deps groups the collaborators of the service.
type Deps struct {
	OptIns    OptInStore
	Attendees AttendeeStore
	Catalog   EventCatalog
	Positions Positions
	Names     DisplayNames
	Auditor   AuditRecorder
	Tx        tx.Runner
}

func New(deps Deps, opts ...Option) *Service {
	s := &Service{
		optIns:    deps.OptIns,
		attendees: deps.Attendees,
		catalog:   deps.Catalog,
		positions: deps.Positions,
		names:     deps.Names,
		auditor:   deps.Auditor,
		tx:        deps.Tx,
		cfg:       DefaultConfig(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.LookupParallelism <= 0 {
		s.cfg.LookupParallelism = 1
	}
	return s
}

// OptIn makes userID visible in the event's proximity listing until the event
// ends, or for durationMinutes when that is shorter. A nil duration means
// until the event ends. Opting in while already live returns the live row.
func (s *Service) OptIn(ctx context.Context, eventID id.EventID, userID id.UserID, durationMinutes *int) (*models.OptIn, error) {
	ctx, span := tracer.Start(ctx, "eventproximity.OptIn", trace.WithAttributes(
		attribute.String("event_id", eventID.String()),
	))
	defer span.End()
	start := time.Now()
	defer s.observe("opt_in", start)

	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	if durationMinutes != nil && (*durationMinutes < 1 || *durationMinutes > s.cfg.MaxDurationMinutes) {
		return nil, dErrors.New(dErrors.CodeInvalidDuration, "durationMinutes must be within the allowed range")
	}
	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if event.HasEnded(now) {
		return nil, dErrors.New(dErrors.CodeEventEnded, "event has ended")
	}
	expiresAt := event.EndTime
	if durationMinutes != nil {
		if until := now.Add(time.Duration(*durationMinutes) * time.Minute); until.Before(expiresAt) {
			expiresAt = until
		}
	}
	if !expiresAt.After(now) {
		return nil, dErrors.New(dErrors.CodeEventEnded, "event has ended")
	}

	var (
		result  *models.OptIn
		outcome string
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var txErr error
		result, outcome, txErr = s.openOptIn(ctx, eventID, userID, now, expiresAt, durationMinutes)
		return txErr
	})
	if err != nil {
		span.RecordError(err)
		return nil, unitOfWorkError(err, "failed to opt in")
	}

	if outcome != outcomeUnchanged {
		s.logger.InfoContext(ctx, "proximity opt-in opened",
			"request_id", requestcontext.RequestID(ctx),
			"event_id", eventID.String(),
			"outcome", outcome,
		)
	}
	if s.metrics != nil {
		s.metrics.IncrementOptIn(outcome)
	}
	return result, nil
}

// openOptIn runs inside the unit of work.
func (s *Service) openOptIn(ctx context.Context, eventID id.EventID, userID id.UserID, now, expiresAt time.Time, durationMinutes *int) (*models.OptIn, string, error) {
	existing, err := s.optIns.Find(ctx, eventID, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		o, err := models.NewOptIn(eventID, userID, now, expiresAt)
		if err != nil {
			return nil, "", err
		}
		if err := s.optIns.Insert(ctx, o); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				// a concurrent first opt-in won
				current, err := s.optIns.Find(ctx, eventID, userID)
				return current, outcomeUnchanged, err
			}
			return nil, "", err
		}
		return o, outcomeCreated, s.recordOpen(ctx, o, durationMinutes)
	}
	if err != nil {
		return nil, "", err
	}
	if existing.IsLiveAt(now) {
		return existing, outcomeUnchanged, nil
	}

	if existing.IsDue(now) {
		// close the lapsed period first so it gets its own expire entry
		_, err = s.optIns.ExpireIfDue(ctx, eventID, userID, now)
		switch {
		case err == nil:
			if err := s.auditor.Record(ctx, audit.ActionExpire, audit.TableEventOptIns, existing.RecordID(), userID, map[string]any{
				audit.DetailEventID: eventID.String(),
				audit.DetailTrigger: triggerOptIn,
			}); err != nil {
				return nil, "", err
			}
		case !errors.Is(err, sentinel.ErrInvalidState):
			return nil, "", err
		}
	}

	reopened, err := s.optIns.Reopen(ctx, eventID, userID, now, expiresAt)
	if errors.Is(err, sentinel.ErrInvalidState) {
		// reopened concurrently
		current, err := s.optIns.Find(ctx, eventID, userID)
		return current, outcomeUnchanged, err
	}
	if err != nil {
		return nil, "", err
	}
	return reopened, outcomeReactivated, s.recordOpen(ctx, reopened, durationMinutes)
}

func (s *Service) recordOpen(ctx context.Context, o *models.OptIn, durationMinutes *int) error {
	details := map[string]any{
		audit.DetailEventID:   o.EventID.String(),
		audit.DetailExpiresAt: o.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if durationMinutes != nil {
		details[audit.DetailDurationMinutes] = *durationMinutes
	}
	return s.auditor.Record(ctx, audit.ActionCreate, audit.TableEventOptIns, o.RecordID(), o.UserID, details)
}

// OptOut closes userID's live opt-in. Nothing to close is a success.
func (s *Service) OptOut(ctx context.Context, eventID id.EventID, userID id.UserID) error {
	ctx, span := tracer.Start(ctx, "eventproximity.OptOut", trace.WithAttributes(
		attribute.String("event_id", eventID.String()),
	))
	defer span.End()
	start := time.Now()
	defer s.observe("opt_out", start)

	if userID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	now := requestcontext.Now(ctx)
	var closed bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		closed = false
		o, err := s.optIns.OptOutIfLive(ctx, eventID, userID, now)
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrInvalidState) {
			return nil
		}
		if err != nil {
			return err
		}
		closed = true
		return s.auditor.Record(ctx, audit.ActionDelete, audit.TableEventOptIns, o.RecordID(), userID, map[string]any{
			audit.DetailEventID: eventID.String(),
		})
	})
	if err != nil {
		span.RecordError(err)
		return unitOfWorkError(err, "failed to opt out")
	}
	if closed {
		s.logger.InfoContext(ctx, "proximity opt-in closed",
			"request_id", requestcontext.RequestID(ctx),
			"event_id", eventID.String(),
		)
		if s.metrics != nil {
			s.metrics.IncrementOptInClosed(string(models.CloseReasonOptedOut))
		}
	}
	return nil
}

// RSVP records userID's reply to an event. It has no effect on proximity
// consent.
func (s *Service) RSVP(ctx context.Context, eventID id.EventID, userID id.UserID, status models.RSVPStatus) (*models.Attendee, error) {
	ctx, span := tracer.Start(ctx, "eventproximity.RSVP", trace.WithAttributes(
		attribute.String("event_id", eventID.String()),
	))
	defer span.End()

	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if event.HasEnded(now) {
		return nil, dErrors.New(dErrors.CodeEventEnded, "event has ended")
	}
	a, err := s.attendees.UpsertRSVP(ctx, &models.Attendee{
		EventID:      eventID,
		UserID:       userID,
		RSVPStatus:   status,
		RegisteredAt: now,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record rsvp")
	}
	return a, nil
}

// CheckIn marks an attendee with a standing RSVP as present.
func (s *Service) CheckIn(ctx context.Context, eventID id.EventID, userID id.UserID) (*models.Attendee, error) {
	ctx, span := tracer.Start(ctx, "eventproximity.CheckIn", trace.WithAttributes(
		attribute.String("event_id", eventID.String()),
	))
	defer span.End()

	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if event.HasEnded(now) {
		return nil, dErrors.New(dErrors.CodeEventEnded, "event has ended")
	}
	a, err := s.attendees.CheckIn(ctx, eventID, userID, now)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "no rsvp for this event")
	case errors.Is(err, sentinel.ErrInvalidState):
		return nil, dErrors.New(dErrors.CodeInvalidState, "declined attendees cannot check in")
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check in")
	}
	return a, nil
}

func (s *Service) findEvent(ctx context.Context, eventID id.EventID) (*events.Event, error) {
	if eventID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "event ID required")
	}
	event, err := s.catalog.FindEvent(ctx, eventID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeEventNotFound, "event not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	return event, nil
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveServiceCall(operation, start)
	}
}

func unitOfWorkError(err error, message string) error {
	if dErrors.HasCode(err, dErrors.CodeTimeout) {
		return err
	}
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeValidation, err.Error())
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}
