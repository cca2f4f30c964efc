// Package expiry closes shares and opt-ins whose time has run out. Every
// record closes in its own unit of work through a conditional update, so a
// revoke or opt-out racing the sweep produces exactly one closing entry.
package expiry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	emodels "beacon/internal/eventproximity/models"
	lmodels "beacon/internal/location/models"
	"beacon/internal/platform/metrics"
	id "beacon/pkg/domain"
	audit "beacon/pkg/platform/audit"
	"beacon/pkg/platform/sentinel"
	"beacon/pkg/platform/tx"
	"beacon/pkg/requestcontext"
)

var tracer = otel.Tracer("beacon/internal/expiry")

type ShareStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]*lmodels.LocationShare, error)
	ExpireIfDue(ctx context.Context, shareID id.ShareID, now time.Time) (*lmodels.LocationShare, error)
}

type OptInStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]*emodels.OptIn, error)
	ExpireIfDue(ctx context.Context, eventID id.EventID, userID id.UserID, now time.Time) (*emodels.OptIn, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, action audit.Action, table audit.Table, recordID string, userID id.UserID, details map[string]any) error
}

// Config controls sweep cadence and size.
type Config struct {
	Interval  time.Duration
	BatchSize int
	Budget    time.Duration
}

func DefaultConfig() Config {
	return Config{Interval: 60 * time.Second, BatchSize: 500, Budget: 10 * time.Second}
}

// SweepResult counts what one sweep did. Skipped records were closed by a
// concurrent revoke or opt-out before the sweep reached them.
type SweepResult struct {
	SharesExpired int
	OptInsExpired int
	Skipped       int
	Failed        int
}

type Scheduler struct {
	shares  ShareStore
	optIns  OptInStore
	auditor AuditRecorder
	tx      tx.Runner
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithConfig replaces the defaults. Zero fields keep their default.
func WithConfig(cfg Config) Option {
	return func(s *Scheduler) {
		if cfg.Interval > 0 {
			s.cfg.Interval = cfg.Interval
		}
		if cfg.BatchSize > 0 {
			s.cfg.BatchSize = cfg.BatchSize
		}
		if cfg.Budget > 0 {
			s.cfg.Budget = cfg.Budget
		}
	}
}

func New(shares ShareStore, optIns OptInStore, auditor AuditRecorder, runner tx.Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		shares:  shares,
		optIns:  optIns,
		auditor: auditor,
		tx:      runner,
		cfg:     DefaultConfig(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "expiry scheduler started",
		"interval", s.cfg.Interval.String(),
		"batch_size", s.cfg.BatchSize,
	)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "expiry scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep closes one batch of due shares and one batch of due opt-ins within
// the configured budget. Whatever is left waits for the next tick.
func (s *Scheduler) Sweep(ctx context.Context) SweepResult {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Budget)
	defer cancel()
	ctx, span := tracer.Start(ctx, "expiry.Sweep")
	defer span.End()
	start := time.Now()
	now := requestcontext.Now(ctx)

	var result SweepResult
	s.sweepShares(ctx, now, &result)
	s.sweepOptIns(ctx, now, &result)

	span.SetAttributes(
		attribute.Int("shares_expired", result.SharesExpired),
		attribute.Int("opt_ins_expired", result.OptInsExpired),
		attribute.Int("skipped", result.Skipped),
		attribute.Int("failed", result.Failed),
	)
	if result != (SweepResult{}) {
		s.logger.InfoContext(ctx, "expiry sweep finished",
			"shares_expired", result.SharesExpired,
			"opt_ins_expired", result.OptInsExpired,
			"skipped", result.Skipped,
			"failed", result.Failed,
		)
	}
	if s.metrics != nil {
		s.metrics.ObserveSweep(start, result.SharesExpired, result.OptInsExpired, result.Skipped, result.Failed)
	}
	return result
}

func (s *Scheduler) sweepShares(ctx context.Context, now time.Time, result *SweepResult) {
	due, err := s.shares.ListDue(ctx, now, s.cfg.BatchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list due shares", "error", err)
		result.Failed++
		return
	}
	for _, share := range due {
		if ctx.Err() != nil {
			return
		}
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			closed, err := s.shares.ExpireIfDue(ctx, share.ID, now)
			if err != nil {
				return err
			}
			return s.auditor.Record(ctx, audit.ActionExpire, audit.TableLocationShares, closed.ID.String(), closed.GrantorID, map[string]any{
				audit.DetailRecipientID:   closed.Recipient.ID.String(),
				audit.DetailRecipientKind: string(closed.Recipient.Kind),
				audit.DetailTrigger:       audit.TriggerExpirySweep,
			})
		})
		switch {
		case err == nil:
			result.SharesExpired++
			if s.metrics != nil {
				s.metrics.IncrementShareClosed(string(lmodels.EndReasonExpired))
			}
		case errors.Is(err, sentinel.ErrInvalidState), errors.Is(err, sentinel.ErrNotFound):
			result.Skipped++
		default:
			result.Failed++
			s.logger.ErrorContext(ctx, "failed to expire share",
				"share_id", share.ID.String(),
				"error", err,
			)
		}
	}
}

func (s *Scheduler) sweepOptIns(ctx context.Context, now time.Time, result *SweepResult) {
	due, err := s.optIns.ListDue(ctx, now, s.cfg.BatchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list due opt-ins", "error", err)
		result.Failed++
		return
	}
	for _, o := range due {
		if ctx.Err() != nil {
			return
		}
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			closed, err := s.optIns.ExpireIfDue(ctx, o.EventID, o.UserID, now)
			if err != nil {
				return err
			}
			return s.auditor.Record(ctx, audit.ActionExpire, audit.TableEventOptIns, closed.RecordID(), closed.UserID, map[string]any{
				audit.DetailEventID: closed.EventID.String(),
				audit.DetailTrigger: audit.TriggerExpirySweep,
			})
		})
		switch {
		case err == nil:
			result.OptInsExpired++
			if s.metrics != nil {
				s.metrics.IncrementOptInClosed(string(emodels.CloseReasonExpired))
			}
		case errors.Is(err, sentinel.ErrInvalidState), errors.Is(err, sentinel.ErrNotFound):
			result.Skipped++
		default:
			result.Failed++
			s.logger.ErrorContext(ctx, "failed to expire opt-in",
				"event_id", o.EventID.String(),
				"error", err,
			)
		}
	}
}
