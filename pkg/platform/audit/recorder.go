package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "beacon/pkg/domain"
	"beacon/pkg/requestcontext"
)

// Store persists audit entries. Append must honour the ambient transaction
// carried by ctx so the entry commits with the mutation it describes.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByRecord(ctx context.Context, table Table, recordID string) ([]Entry, error)
	ListByUser(ctx context.Context, userID id.UserID, since time.Time) ([]Entry, error)
}

// Recorder is the append-only audit log. Record is only called from inside a
// unit of work owned by a manager or the expiry scheduler.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record appends one entry and fails closed: if the entry cannot be written the
// enclosing unit of work must abort.
func (r *Recorder) Record(ctx context.Context, action Action, table Table, recordID string, userID id.UserID, details map[string]any) error {
	if !action.IsValid() {
		return fmt.Errorf("audit: unsupported action %q", action)
	}
	if recordID == "" {
		return fmt.Errorf("audit: record id required")
	}
	entry := Entry{
		ID:        uuid.New(),
		Action:    action,
		Table:     table,
		RecordID:  recordID,
		UserID:    userID,
		Timestamp: requestcontext.Now(ctx),
		Details:   details,
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("audit persistence failed: %w", err)
	}
	return nil
}

// QueryByRecord returns every entry for one record in timestamp order.
func (r *Recorder) QueryByRecord(ctx context.Context, table Table, recordID string) ([]Entry, error) {
	return r.store.ListByRecord(ctx, table, recordID)
}

// QueryByUser returns entries acted by userID at or after since.
func (r *Recorder) QueryByUser(ctx context.Context, userID id.UserID, since time.Time) ([]Entry, error) {
	return r.store.ListByUser(ctx, userID, since)
}
