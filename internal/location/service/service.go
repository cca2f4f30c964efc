package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"beacon/internal/location/models"
	"beacon/internal/platform/metrics"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
	audit "beacon/pkg/platform/audit"
	"beacon/pkg/platform/sentinel"
	"beacon/pkg/platform/tx"
	"beacon/pkg/requestcontext"
)

var tracer = otel.Tracer("beacon/internal/location")

// Config bounds share durations, in minutes.
type Config struct {
	MinDurationMinutes int
	MaxDurationMinutes int
}

// DefaultConfig allows shares from one minute to one day.
func DefaultConfig() Config {
	return Config{MinDurationMinutes: 1, MaxDurationMinutes: 1440}
}

// Service manages direct location-sharing grants. Every state change and its
// audit entry commit in one unit of work.
type Service struct {
	shares    ShareStore
	directory Directory
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

func New(shares ShareStore, directory Directory, auditor AuditRecorder, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		shares:    shares,
		directory: directory,
		auditor:   auditor,
		tx:        runner,
		cfg:       DefaultConfig(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateShare grants recipient visibility into grantor's position for
// durationMinutes starting now.
func (s *Service) CreateShare(ctx context.Context, grantor id.UserID, recipient models.Recipient, durationMinutes int, message string) (*models.LocationShare, error) {
	ctx, span := tracer.Start(ctx, "location.CreateShare", trace.WithAttributes(
		attribute.String("recipient.kind", string(recipient.Kind)),
		attribute.Int("duration_minutes", durationMinutes),
	))
	defer span.End()
	start := time.Now()
	defer s.observe("create_share", start)

	if grantor.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	if durationMinutes < s.cfg.MinDurationMinutes || durationMinutes > s.cfg.MaxDurationMinutes {
		return nil, dErrors.New(dErrors.CodeInvalidDuration, "durationMinutes must be within the allowed range")
	}
	if err := s.checkRecipient(ctx, grantor, recipient); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	share, err := models.NewLocationShare(id.NewShareID(), grantor, recipient, now, time.Duration(durationMinutes)*time.Minute, message)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.shares.Create(ctx, share); err != nil {
			return err
		}
		return s.auditor.Record(ctx, audit.ActionCreate, audit.TableLocationShares, share.ID.String(), grantor, map[string]any{
			audit.DetailRecipientID:     recipient.ID.String(),
			audit.DetailRecipientKind:   string(recipient.Kind),
			audit.DetailDurationMinutes: durationMinutes,
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, unitOfWorkError(err, "failed to create share")
	}

	span.SetAttributes(attribute.String("share_id", share.ID.String()))
	s.logger.InfoContext(ctx, "location share created",
		"request_id", requestcontext.RequestID(ctx),
		"share_id", share.ID.String(),
		"recipient_kind", string(recipient.Kind),
		"duration_minutes", durationMinutes,
	)
	if s.metrics != nil {
		s.metrics.IncrementShareCreated()
	}
	return share, nil
}

func (s *Service) checkRecipient(ctx context.Context, grantor id.UserID, recipient models.Recipient) error {
	var (
		exists bool
		err    error
	)
	switch recipient.Kind {
	case models.RecipientKindUser:
		userID, _ := recipient.UserID()
		if userID.IsNil() {
			return dErrors.New(dErrors.CodeInvalidRecipient, "recipient is required")
		}
		if userID == grantor {
			return dErrors.New(dErrors.CodeInvalidRecipient, "cannot share location with yourself")
		}
		exists, err = s.directory.UserExists(ctx, userID)
	case models.RecipientKindCommunity:
		communityID, _ := recipient.CommunityID()
		if communityID.IsNil() {
			return dErrors.New(dErrors.CodeInvalidRecipient, "recipient is required")
		}
		exists, err = s.directory.CommunityExists(ctx, communityID)
	default:
		return dErrors.New(dErrors.CodeInvalidRecipient, "recipient kind must be user or community")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up recipient")
	}
	if !exists {
		return dErrors.New(dErrors.CodeRecipientNotFound, "recipient not found")
	}
	return nil
}

// RevokeShare closes a share on behalf of its grantor. Revoking a share that
// is already inactive succeeds without a new audit entry.
func (s *Service) RevokeShare(ctx context.Context, shareID id.ShareID, requester id.UserID) error {
	ctx, span := tracer.Start(ctx, "location.RevokeShare", trace.WithAttributes(
		attribute.String("share_id", shareID.String()),
	))
	defer span.End()
	start := time.Now()
	defer s.observe("revoke_share", start)

	if requester.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	if shareID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "share ID required")
	}

	now := requestcontext.Now(ctx)
	var revoked bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		revoked = false
		share, err := s.shares.FindByID(ctx, shareID)
		if err != nil {
			return err
		}
		if !share.IsGrantedBy(requester) {
			return dErrors.New(dErrors.CodeNotAuthorized, "only the grantor can revoke a share")
		}
		if share.CanClose() != nil {
			return nil
		}
		if _, err := s.shares.RevokeIfActive(ctx, shareID, now); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				// lost the race to the sweep
				return nil
			}
			return err
		}
		revoked = true
		return s.auditor.Record(ctx, audit.ActionDelete, audit.TableLocationShares, shareID.String(), requester, map[string]any{
			audit.DetailRecipientID:   share.Recipient.ID.String(),
			audit.DetailRecipientKind: string(share.Recipient.Kind),
		})
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotAuthorized) {
			s.logger.WarnContext(ctx, "share revoke by non-grantor",
				"request_id", requestcontext.RequestID(ctx),
				"share_id", shareID.String(),
				"user_id", requester.String(),
			)
			return err
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "share not found")
		}
		span.RecordError(err)
		return unitOfWorkError(err, "failed to revoke share")
	}

	if revoked {
		s.logger.InfoContext(ctx, "location share revoked",
			"request_id", requestcontext.RequestID(ctx),
			"share_id", shareID.String(),
		)
		if s.metrics != nil {
			s.metrics.IncrementShareClosed(string(models.EndReasonRevoked))
		}
	}
	return nil
}

// ListActiveShares returns the shares userID granted and the shares visible
// to userID directly or through a community. A share the user granted to one
// of their own communities appears only under Initiated.
func (s *Service) ListActiveShares(ctx context.Context, userID id.UserID) (*models.ActiveShares, error) {
	ctx, span := tracer.Start(ctx, "location.ListActiveShares")
	defer span.End()
	start := time.Now()
	defer s.observe("list_active_shares", start)

	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	now := requestcontext.Now(ctx)

	initiated, err := s.shares.ListActiveByGrantor(ctx, userID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list initiated shares")
	}

	recipients, err := s.recipientsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.shares.ListActiveForRecipients(ctx, recipients, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list received shares")
	}
	received := make([]*models.LocationShare, 0, len(candidates))
	for _, share := range candidates {
		if share.IsGrantedBy(userID) {
			continue
		}
		received = append(received, share)
	}

	if initiated == nil {
		initiated = []*models.LocationShare{}
	}
	return &models.ActiveShares{Initiated: initiated, Received: received}, nil
}

func (s *Service) recipientsFor(ctx context.Context, userID id.UserID) ([]models.Recipient, error) {
	communities, err := s.directory.CommunitiesOf(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load communities")
	}
	recipients := make([]models.Recipient, 0, len(communities)+1)
	recipients = append(recipients, models.UserRecipient(userID))
	for _, c := range communities {
		recipients = append(recipients, models.CommunityRecipient(c))
	}
	return recipients, nil
}

// GetShare returns a share to its grantor or one of its recipients.
func (s *Service) GetShare(ctx context.Context, shareID id.ShareID, requester id.UserID) (*models.LocationShare, error) {
	ctx, span := tracer.Start(ctx, "location.GetShare", trace.WithAttributes(
		attribute.String("share_id", shareID.String()),
	))
	defer span.End()

	if requester.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	share, err := s.shares.FindByID(ctx, shareID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "share not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load share")
	}
	if share.IsGrantedBy(requester) {
		return share, nil
	}
	var communities []id.CommunityID
	if share.Recipient.Kind == models.RecipientKindCommunity {
		communities, err = s.directory.CommunitiesOf(ctx, requester)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load communities")
		}
	}
	if !share.IsReceivedBy(requester, communities) {
		return nil, dErrors.New(dErrors.CodeForbidden, "share is not visible to this user")
	}
	return share, nil
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveServiceCall(operation, start)
	}
}

// unitOfWorkError keeps timeouts visible and maps everything else to internal.
func unitOfWorkError(err error, message string) error {
	if dErrors.HasCode(err, dErrors.CodeTimeout) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}
