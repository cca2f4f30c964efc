package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	audithandler "beacon/internal/audit/handler"
	auditservice "beacon/internal/audit/service"
	"beacon/internal/collaborators/directory"
	eventhandler "beacon/internal/eventproximity/handler"
	eventservice "beacon/internal/eventproximity/service"
	"beacon/internal/expiry"
	jwttoken "beacon/internal/jwt_token"
	locationhandler "beacon/internal/location/handler"
	locationservice "beacon/internal/location/service"
	"beacon/internal/platform/config"
	"beacon/internal/platform/httpserver"
	"beacon/internal/platform/kafka"
	"beacon/internal/platform/logger"
	"beacon/internal/platform/metrics"
	beaconredis "beacon/internal/platform/redis"
	"beacon/internal/platform/tracing"
	ratelimitmw "beacon/internal/ratelimit/middleware"
	ratelimitmodels "beacon/internal/ratelimit/models"
	"beacon/internal/ratelimit/store/bucket"
	httptransport "beacon/internal/transport/http"
	"beacon/pkg/platform/audit"
	"beacon/pkg/platform/audit/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "beacon: %v\n", err)
		os.Exit(1)
	}
}

// run wires the services, exposes the HTTP router and runs the background
// workers until SIGINT or SIGTERM.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()
	health := map[string]httptransport.HealthCheck{}
	if st.db != nil {
		health["postgres"] = st.db.PingContext
	}

	collab, err := loadCollaborators(cfg.SeedFile)
	if err != nil {
		return err
	}

	var names eventservice.DisplayNames = collab.directory
	var buckets ratelimitmw.BucketStore = bucket.NewInMemoryBucketStore()
	rc, err := beaconredis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rc != nil {
		defer rc.Close()
		names = directory.NewRedisCache(collab.directory, rc.Client,
			directory.WithCacheTTL(cfg.Redis.DisplayNameTTL),
			directory.WithCacheLogger(log),
			directory.WithCacheMetrics(m),
		)
		buckets = bucket.NewRedisBucketStore(rc.Client)
		health["redis"] = rc.Health
	}
	limiter := ratelimitmw.New(buckets, map[ratelimitmodels.Class]ratelimitmodels.Limit{
		ratelimitmodels.ClassDefault: {Requests: cfg.Limits.DefaultRequests, Window: cfg.Limits.Window},
		ratelimitmodels.ClassNearby:  {Requests: cfg.Limits.NearbyRequests, Window: cfg.Limits.Window},
	}, log, ratelimitmw.WithMetrics(m), ratelimitmw.WithDisabled(cfg.Limits.Disabled))

	recorder := audit.NewRecorder(st.audit)

	location := locationservice.New(st.shares, collab.directory, recorder, st.runner,
		locationservice.WithLogger(log),
		locationservice.WithMetrics(m),
		locationservice.WithConfig(locationservice.Config{
			MinDurationMinutes: cfg.Share.MinDurationMinutes,
			MaxDurationMinutes: cfg.Share.MaxDurationMinutes,
		}),
	)
	eventDeps := eventservice.Deps{
		OptIns:    st.optIns,
		Attendees: st.attendees,
		Catalog:   collab.catalog,
		Positions: collab.positions,
		Names:     names,
		Auditor:   recorder,
		Tx:        st.runner,
	}
	eventProximity := eventservice.New(eventDeps,
		eventservice.WithLogger(log),
		eventservice.WithMetrics(m),
		eventservice.WithConfig(eventservice.Config{
			MaxDurationMinutes: cfg.OptIn.MaxDurationMinutes,
			LookupParallelism:  cfg.OptIn.LookupParallelism,
		}),
	)
	history := auditservice.New(recorder, location)

	scheduler := expiry.New(st.shares, st.optIns, recorder, st.runner,
		expiry.WithLogger(log),
		expiry.WithMetrics(m),
		expiry.WithConfig(expiry.Config{
			Interval:  cfg.Expiry.Interval,
			BatchSize: cfg.Expiry.BatchSize,
			Budget:    cfg.Expiry.Budget,
		}),
	)

	relay, err := newRelay(ctx, cfg, st, m, log)
	if err != nil {
		return err
	}
	if relay != nil {
		defer relay.producer.Close()
		health["kafka"] = relay.producer.Ping
	}

	tokens := jwttoken.NewJWTService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   m,
		Gatherer:  registry,
		Validator: jwttoken.NewJWTServiceAdapter(tokens),
		Health:    health,
		RateLimit: limiter.PerUser(ratelimitmodels.ClassDefault),
		Handlers: []httptransport.Registrar{
			locationhandler.New(location, log),
			eventhandler.New(eventProximity, log,
				eventhandler.WithNearbyLimit(limiter.PerUser(ratelimitmodels.ClassNearby)),
			),
			audithandler.New(history, log),
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting beacon", "addr", cfg.Addr, "env", cfg.Environment, "storage", st.kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return ignoreCanceled(scheduler.Run(gctx))
	})
	if relay != nil {
		g.Go(func() error {
			return ignoreCanceled(relay.Run(gctx))
		})
	}

	err = g.Wait()
	log.Info("beacon stopped")
	return err
}

type auditRelay struct {
	*worker.Relay
	producer *kafka.Producer
}

// newRelay starts the outbox relay only when both Postgres and Kafka are
// configured; the in-memory audit store has no outbox.
func newRelay(ctx context.Context, cfg config.Config, st *storage, m *metrics.Metrics, log *slog.Logger) (*auditRelay, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	if st.outbox == nil {
		log.Warn("kafka brokers configured without a database; audit relay disabled")
		return nil, nil
	}
	producer, err := kafka.NewProducer(kafka.Config{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.AuditTopic,
		ProduceRetry: 3,
	}, log)
	if err != nil {
		return nil, err
	}
	if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
		producer.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", err)
	}
	relay := worker.NewRelay(st.outbox, producer,
		worker.WithLogger(log),
		worker.WithMetrics(m),
		worker.WithInterval(cfg.Kafka.RelayInterval),
		worker.WithBatchSize(cfg.Kafka.RelayBatch),
	)
	return &auditRelay{Relay: relay, producer: producer}, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
