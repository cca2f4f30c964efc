package audit

import (
	"time"

	"github.com/google/uuid"

	id "beacon/pkg/domain"
)

// Action classifies a recorded state transition.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExpire Action = "expire"
)

// IsValid reports whether a is one of the supported actions.
func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionExpire:
		return true
	}
	return false
}

// Table names the source table of the audited record.
type Table string

const (
	TableLocationShares Table = "location_shares"
	TableEventOptIns    Table = "event_proximity_opt_ins"
)

// ParseTable validates a table name taken from external input.
func ParseTable(s string) (Table, bool) {
	switch t := Table(s); t {
	case TableLocationShares, TableEventOptIns:
		return t, true
	}
	return "", false
}

// Entry is one immutable audit record. UserID is the acting user; for expire
// entries it is the owner of the lapsed record.
type Entry struct {
	ID        uuid.UUID      `json:"id"`
	Action    Action         `json:"action"`
	Table     Table          `json:"table"`
	RecordID  string         `json:"record_id"`
	UserID    id.UserID      `json:"user_id"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// Details keys shared by the managers and the scheduler.
const (
	DetailRecipientID     = "recipient_id"
	DetailRecipientKind   = "recipient_kind"
	DetailDurationMinutes = "duration_minutes"
	DetailEventID         = "event_id"
	DetailTrigger         = "trigger"
	DetailExpiresAt       = "expires_at"
)

// TriggerExpirySweep marks entries written by the expiry scheduler.
const TriggerExpirySweep = "expiry_sweep"
