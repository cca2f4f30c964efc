package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"beacon/pkg/platform/audit/store/postgres"
)

const (
	defaultPollInterval = time.Second
	defaultBatchSize    = 100
)

// OutboxStore is the outbox side of the audit store.
type OutboxStore interface {
	FetchUnpublished(ctx context.Context, limit int) ([]postgres.OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
}

// Publisher delivers one outbox payload to the broker. Delivery is
// at-least-once; the audit entry ID inside the payload lets consumers dedupe.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// RelayMetrics records relay outcomes.
type RelayMetrics interface {
	IncOutboxPublished(count int)
	IncOutboxFailed()
}

// Relay polls the outbox and forwards unpublished audit entries to Kafka.
type Relay struct {
	store     OutboxStore
	publisher Publisher
	logger    *slog.Logger
	metrics   RelayMetrics
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithMetrics(m RelayMetrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func NewRelay(store OutboxStore, publisher Publisher, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		publisher: publisher,
		logger:    slog.Default(),
		interval:  defaultPollInterval,
		batchSize: defaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch and returns how many rows were relayed. It
// stops at the first publish failure so ordering per record is preserved.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	records, err := r.store.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	published := 0
	for _, rec := range records {
		if err := r.publisher.Publish(ctx, rec.AggregateID, rec.Payload); err != nil {
			if r.metrics != nil {
				r.metrics.IncOutboxFailed()
			}
			r.report(published)
			return published, err
		}
		if err := r.store.MarkPublished(ctx, rec.ID, r.now()); err != nil {
			r.report(published)
			return published, err
		}
		published++
	}
	r.report(published)
	return published, nil
}

func (r *Relay) report(n int) {
	if r.metrics != nil && n > 0 {
		r.metrics.IncOutboxPublished(n)
	}
}
