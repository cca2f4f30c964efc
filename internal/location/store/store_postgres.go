package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"beacon/internal/location/models"
	id "beacon/pkg/domain"
	"beacon/pkg/platform/sentinel"
	txcontext "beacon/pkg/platform/tx"
)

// PostgresStore persists shares in location_shares. Closing a share is a
// single conditional UPDATE on active, so a revoke racing the sweep resolves
// in the database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const shareColumns = `id, grantor_id, recipient_kind, recipient_id, start_time, end_time, active, message, ended_at, end_reason`

func (s *PostgresStore) Create(ctx context.Context, share *models.LocationShare) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO location_shares (`+shareColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.UUID(share.ID),
		uuid.UUID(share.GrantorID),
		string(share.Recipient.Kind),
		share.Recipient.ID,
		share.StartTime,
		share.EndTime,
		share.Active,
		share.Message,
		share.EndedAt,
		nullableReason(share.EndReason),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("share %s: %w", share.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert location share: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, shareID id.ShareID) (*models.LocationShare, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT `+shareColumns+` FROM location_shares WHERE id = $1
	`, uuid.UUID(shareID))
	share, err := scanShare(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find location share: %w", err)
	}
	return share, nil
}

func (s *PostgresStore) RevokeIfActive(ctx context.Context, shareID id.ShareID, now time.Time) (*models.LocationShare, error) {
	return s.closeIf(ctx, `
		UPDATE location_shares
		SET active = false, ended_at = $2, end_reason = 'revoked'
		WHERE id = $1 AND active
		RETURNING `+shareColumns, shareID, now)
}

func (s *PostgresStore) ExpireIfDue(ctx context.Context, shareID id.ShareID, now time.Time) (*models.LocationShare, error) {
	return s.closeIf(ctx, `
		UPDATE location_shares
		SET active = false, ended_at = $2, end_reason = 'expired'
		WHERE id = $1 AND active AND end_time <= $2
		RETURNING `+shareColumns, shareID, now)
}

// closeIf runs a conditional update. No returned row means either the share
// does not exist or the guard failed; a follow-up lookup tells them apart.
func (s *PostgresStore) closeIf(ctx context.Context, query string, shareID id.ShareID, now time.Time) (*models.LocationShare, error) {
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(shareID), now)
	share, err := scanShare(row)
	if err == nil {
		return share, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("close location share: %w", err)
	}
	if _, err := s.FindByID(ctx, shareID); err != nil {
		return nil, err
	}
	return nil, sentinel.ErrInvalidState
}

func (s *PostgresStore) ListActiveByGrantor(ctx context.Context, grantor id.UserID, now time.Time) ([]*models.LocationShare, error) {
	return s.query(ctx, `
		SELECT `+shareColumns+` FROM location_shares
		WHERE grantor_id = $1 AND active AND end_time > $2
		ORDER BY start_time ASC, id ASC
	`, uuid.UUID(grantor), now)
}

func (s *PostgresStore) ListActiveForRecipients(ctx context.Context, recipients []models.Recipient, now time.Time) ([]*models.LocationShare, error) {
	if len(recipients) == 0 {
		return nil, nil
	}
	kinds := make([]string, len(recipients))
	ids := make([]string, len(recipients))
	for i, r := range recipients {
		kinds[i] = string(r.Kind)
		ids[i] = r.ID.String()
	}
	return s.query(ctx, `
		SELECT `+shareColumns+` FROM location_shares
		WHERE (recipient_kind, recipient_id) IN (
			SELECT k, i::uuid FROM unnest($1::text[], $2::text[]) AS r(k, i)
		)
		AND active AND end_time > $3
		ORDER BY start_time ASC, id ASC
	`, pq.Array(kinds), pq.Array(ids), now)
}

func (s *PostgresStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.LocationShare, error) {
	return s.query(ctx, `
		SELECT `+shareColumns+` FROM location_shares
		WHERE active AND end_time <= $1
		ORDER BY end_time ASC, id ASC
		LIMIT $2
	`, now, limit)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.LocationShare, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query location shares: %w", err)
	}
	defer rows.Close()

	var out []*models.LocationShare
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location share: %w", err)
		}
		out = append(out, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate location shares: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShare(row scanner) (*models.LocationShare, error) {
	var (
		share     models.LocationShare
		shareID   uuid.UUID
		grantorID uuid.UUID
		kind      string
		endedAt   sql.NullTime
		reason    sql.NullString
	)
	if err := row.Scan(&shareID, &grantorID, &kind, &share.Recipient.ID, &share.StartTime, &share.EndTime,
		&share.Active, &share.Message, &endedAt, &reason); err != nil {
		return nil, err
	}
	share.ID = id.ShareID(shareID)
	share.GrantorID = id.UserID(grantorID)
	share.Recipient.Kind = models.RecipientKind(kind)
	if endedAt.Valid {
		t := endedAt.Time
		share.EndedAt = &t
	}
	share.EndReason = models.EndReason(reason.String)
	return &share, nil
}

func nullableReason(r models.EndReason) sql.NullString {
	return sql.NullString{String: string(r), Valid: r != ""}
}
