package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	eventservice "beacon/internal/eventproximity/service"
	eventstore "beacon/internal/eventproximity/store"
	"beacon/internal/expiry"
	locationservice "beacon/internal/location/service"
	locationstore "beacon/internal/location/store"
	"beacon/internal/platform/config"
	"beacon/migrations"
	"beacon/pkg/platform/audit"
	auditmemory "beacon/pkg/platform/audit/store/memory"
	auditpostgres "beacon/pkg/platform/audit/store/postgres"
	"beacon/pkg/platform/tx"
)

type shareStore interface {
	locationservice.ShareStore
	expiry.ShareStore
}

type optInStore interface {
	eventservice.OptInStore
	expiry.OptInStore
}

// storage is the set of stores sharing one transaction runner.
type storage struct {
	kind      string
	db        *sql.DB
	shares    shareStore
	optIns    optInStore
	attendees eventservice.AttendeeStore
	audit     audit.Store
	outbox    *auditpostgres.Store
	runner    tx.Runner
}

// openStorage uses Postgres when a database URL is configured and falls back
// to in-memory stores otherwise.
func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (*storage, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("no database configured; using in-memory stores")
		return &storage{
			kind:      "memory",
			shares:    locationstore.New(),
			optIns:    eventstore.NewOptIns(),
			attendees: eventstore.NewAttendees(),
			audit:     auditmemory.NewInMemoryStore(),
			runner:    tx.NewLockRunner(),
		}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrations.Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	auditStore := auditpostgres.New(db)
	return &storage{
		kind:      "postgres",
		db:        db,
		shares:    locationstore.NewPostgres(db),
		optIns:    eventstore.NewPostgresOptIns(db),
		attendees: eventstore.NewPostgresAttendees(db),
		audit:     auditStore,
		outbox:    auditStore,
		runner:    tx.NewSQLRunner(db, cfg.TxTimeout),
	}, nil
}

func (s *storage) close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}
