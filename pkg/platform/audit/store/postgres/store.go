package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "beacon/pkg/domain"
	audit "beacon/pkg/platform/audit"
	txcontext "beacon/pkg/platform/tx"
)

// Store implements audit.Store on the append-only audit_log table and, in the
// same execer, writes an outbox row for the Kafka relay. The audit_log table has
// UPDATE and DELETE revoked for the application role.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append writes the entry and its outbox row. Both statements run on the
// ambient transaction when one is present.
func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	exec := s.execer(ctx)
	_, err = exec.ExecContext(ctx, `
		INSERT INTO audit_log (id, action, table_name, record_id, user_id, timestamp, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		entry.ID,
		string(entry.Action),
		string(entry.Table),
		entry.RecordID,
		uuid.UUID(entry.UserID),
		entry.Timestamp,
		details,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	_, err = exec.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.New(),
		string(entry.Table),
		entry.RecordID,
		string(entry.Action),
		payload,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

const selectEntries = `
	SELECT id, action, table_name, record_id, user_id, timestamp, details
	FROM audit_log
`

// ListByRecord returns entries for one record, oldest first.
func (s *Store) ListByRecord(ctx context.Context, table audit.Table, recordID string) ([]audit.Entry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, selectEntries+`
		WHERE table_name = $1 AND record_id = $2
		ORDER BY timestamp ASC, id ASC
	`, string(table), recordID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries by record: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListByUser returns entries acted by userID since the given instant, oldest first.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID, since time.Time) ([]audit.Entry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, selectEntries+`
		WHERE user_id = $1 AND timestamp >= $2
		ORDER BY timestamp ASC, id ASC
	`, uuid.UUID(userID), since)
	if err != nil {
		return nil, fmt.Errorf("query audit entries by user: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry
	for rows.Next() {
		var (
			entry   audit.Entry
			action  string
			table   string
			userID  uuid.UUID
			details []byte
		)
		if err := rows.Scan(&entry.ID, &action, &table, &entry.RecordID, &userID, &entry.Timestamp, &details); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Action = audit.Action(action)
		entry.Table = audit.Table(table)
		entry.UserID = id.UserID(userID)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// OutboxRecord is an unpublished outbox row.
type OutboxRecord struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// FetchUnpublished returns up to limit outbox rows not yet relayed, oldest first.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var records []OutboxRecord
	for rows.Next() {
		var r OutboxRecord
		if err := rows.Scan(&r.ID, &r.AggregateID, &r.EventType, &r.Payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return records, nil
}

// MarkPublished stamps outbox rows as relayed.
func (s *Store) MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE outbox SET published_at = $2 WHERE id = $1 AND published_at IS NULL
	`, outboxID, at)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
