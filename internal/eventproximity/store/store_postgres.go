package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"beacon/internal/eventproximity/models"
	id "beacon/pkg/domain"
	"beacon/pkg/platform/sentinel"
	txcontext "beacon/pkg/platform/tx"
)

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func execer(ctx context.Context, db *sql.DB) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

// PostgresOptInStore persists rows in event_proximity_opt_ins. Every
// transition is one conditional UPDATE.
type PostgresOptInStore struct {
	db *sql.DB
}

func NewPostgresOptIns(db *sql.DB) *PostgresOptInStore {
	return &PostgresOptInStore{db: db}
}

const optInColumns = `event_id, user_id, opt_in_time, opt_out_time, expires_at, close_reason`

// Insert uses ON CONFLICT DO NOTHING so a concurrent first opt-in does not
// abort the surrounding transaction.
func (s *PostgresOptInStore) Insert(ctx context.Context, o *models.OptIn) error {
	res, err := execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO event_proximity_opt_ins (`+optInColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`,
		uuid.UUID(o.EventID),
		uuid.UUID(o.UserID),
		o.OptInTime,
		o.OptOutTime,
		o.ExpiresAt,
		nullableReason(o.CloseReason),
	)
	if err != nil {
		return fmt.Errorf("insert opt-in: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert opt-in: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("opt-in %s: %w", o.RecordID(), sentinel.ErrAlreadyUsed)
	}
	return nil
}

func (s *PostgresOptInStore) Find(ctx context.Context, eventID id.EventID, userID id.UserID) (*models.OptIn, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx, `
		SELECT `+optInColumns+` FROM event_proximity_opt_ins
		WHERE event_id = $1 AND user_id = $2
	`, uuid.UUID(eventID), uuid.UUID(userID))
	o, err := scanOptIn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find opt-in: %w", err)
	}
	return o, nil
}

func (s *PostgresOptInStore) Reopen(ctx context.Context, eventID id.EventID, userID id.UserID, now, expiresAt time.Time) (*models.OptIn, error) {
	return s.transition(ctx, eventID, userID, `
		UPDATE event_proximity_opt_ins
		SET opt_in_time = $3, opt_out_time = NULL, expires_at = $4, close_reason = NULL
		WHERE event_id = $1 AND user_id = $2 AND opt_out_time IS NOT NULL
		RETURNING `+optInColumns, now, expiresAt)
}

func (s *PostgresOptInStore) OptOutIfLive(ctx context.Context, eventID id.EventID, userID id.UserID, now time.Time) (*models.OptIn, error) {
	return s.transition(ctx, eventID, userID, `
		UPDATE event_proximity_opt_ins
		SET opt_out_time = $3, close_reason = 'opted_out'
		WHERE event_id = $1 AND user_id = $2 AND opt_out_time IS NULL AND expires_at > $3
		RETURNING `+optInColumns, now)
}

func (s *PostgresOptInStore) ExpireIfDue(ctx context.Context, eventID id.EventID, userID id.UserID, now time.Time) (*models.OptIn, error) {
	return s.transition(ctx, eventID, userID, `
		UPDATE event_proximity_opt_ins
		SET opt_out_time = $3, close_reason = 'expired'
		WHERE event_id = $1 AND user_id = $2 AND opt_out_time IS NULL AND expires_at <= $3
		RETURNING `+optInColumns, now)
}

func (s *PostgresOptInStore) transition(ctx context.Context, eventID id.EventID, userID id.UserID, query string, args ...any) (*models.OptIn, error) {
	all := append([]any{uuid.UUID(eventID), uuid.UUID(userID)}, args...)
	o, err := scanOptIn(execer(ctx, s.db).QueryRowContext(ctx, query, all...))
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update opt-in: %w", err)
	}
	if _, err := s.Find(ctx, eventID, userID); err != nil {
		return nil, err
	}
	return nil, sentinel.ErrInvalidState
}

func (s *PostgresOptInStore) ListLive(ctx context.Context, eventID id.EventID, now time.Time) ([]*models.OptIn, error) {
	return s.query(ctx, `
		SELECT `+optInColumns+` FROM event_proximity_opt_ins
		WHERE event_id = $1 AND opt_out_time IS NULL AND expires_at > $2
		ORDER BY expires_at, user_id
	`, uuid.UUID(eventID), now)
}

func (s *PostgresOptInStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.OptIn, error) {
	if limit <= 0 {
		return s.query(ctx, `
			SELECT `+optInColumns+` FROM event_proximity_opt_ins
			WHERE opt_out_time IS NULL AND expires_at <= $1
			ORDER BY expires_at, event_id, user_id
		`, now)
	}
	return s.query(ctx, `
		SELECT `+optInColumns+` FROM event_proximity_opt_ins
		WHERE opt_out_time IS NULL AND expires_at <= $1
		ORDER BY expires_at, event_id, user_id
		LIMIT $2
	`, now, limit)
}

func (s *PostgresOptInStore) query(ctx context.Context, query string, args ...any) ([]*models.OptIn, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query opt-ins: %w", err)
	}
	defer rows.Close()
	var out []*models.OptIn
	for rows.Next() {
		o, err := scanOptIn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opt-in: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opt-ins: %w", err)
	}
	return out, nil
}

func scanOptIn(row rowScanner) (*models.OptIn, error) {
	var (
		eventID, userID uuid.UUID
		o               models.OptIn
		optOut          sql.NullTime
		reason          sql.NullString
	)
	if err := row.Scan(&eventID, &userID, &o.OptInTime, &optOut, &o.ExpiresAt, &reason); err != nil {
		return nil, err
	}
	o.EventID = id.EventID(eventID)
	o.UserID = id.UserID(userID)
	if optOut.Valid {
		t := optOut.Time
		o.OptOutTime = &t
	}
	o.CloseReason = models.CloseReason(reason.String)
	return &o, nil
}

func nullableReason(r models.CloseReason) any {
	if r == "" {
		return nil
	}
	return string(r)
}

// PostgresAttendeeStore persists RSVPs and check-ins in event_attendees.
type PostgresAttendeeStore struct {
	db *sql.DB
}

func NewPostgresAttendees(db *sql.DB) *PostgresAttendeeStore {
	return &PostgresAttendeeStore{db: db}
}

const attendeeColumns = `event_id, user_id, rsvp_status, registered_at, checked_in_at`

func (s *PostgresAttendeeStore) UpsertRSVP(ctx context.Context, a *models.Attendee) (*models.Attendee, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO event_attendees (`+attendeeColumns+`)
		VALUES ($1, $2, $3, $4, NULL)
		ON CONFLICT (event_id, user_id) DO UPDATE
		SET rsvp_status = EXCLUDED.rsvp_status,
		    checked_in_at = CASE WHEN EXCLUDED.rsvp_status = 'declined' THEN NULL ELSE event_attendees.checked_in_at END
		RETURNING `+attendeeColumns,
		uuid.UUID(a.EventID), uuid.UUID(a.UserID), string(a.RSVPStatus), a.RegisteredAt)
	out, err := scanAttendee(row)
	if err != nil {
		return nil, fmt.Errorf("upsert attendee: %w", err)
	}
	return out, nil
}

func (s *PostgresAttendeeStore) Find(ctx context.Context, eventID id.EventID, userID id.UserID) (*models.Attendee, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx, `
		SELECT `+attendeeColumns+` FROM event_attendees WHERE event_id = $1 AND user_id = $2
	`, uuid.UUID(eventID), uuid.UUID(userID))
	a, err := scanAttendee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find attendee: %w", err)
	}
	return a, nil
}

func (s *PostgresAttendeeStore) CheckIn(ctx context.Context, eventID id.EventID, userID id.UserID, now time.Time) (*models.Attendee, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx, `
		UPDATE event_attendees
		SET checked_in_at = COALESCE(checked_in_at, $3)
		WHERE event_id = $1 AND user_id = $2 AND rsvp_status <> 'declined'
		RETURNING `+attendeeColumns, uuid.UUID(eventID), uuid.UUID(userID), now)
	a, err := scanAttendee(row)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check in attendee: %w", err)
	}
	if _, err := s.Find(ctx, eventID, userID); err != nil {
		return nil, err
	}
	return nil, sentinel.ErrInvalidState
}

func scanAttendee(row rowScanner) (*models.Attendee, error) {
	var (
		eventID, userID uuid.UUID
		status          string
		a               models.Attendee
		checkedIn       sql.NullTime
	)
	if err := row.Scan(&eventID, &userID, &status, &a.RegisteredAt, &checkedIn); err != nil {
		return nil, err
	}
	a.EventID = id.EventID(eventID)
	a.UserID = id.UserID(userID)
	a.RSVPStatus = models.RSVPStatus(status)
	if checkedIn.Valid {
		t := checkedIn.Time
		a.CheckedInAt = &t
	}
	return &a, nil
}
