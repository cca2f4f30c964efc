package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "beacon/pkg/domain-errors"
)

// Typed identifiers. Each wraps a UUID so a ShareID can never be passed where an
// EventID is expected.
type (
	UserID      uuid.UUID
	CommunityID uuid.UUID
	ShareID     uuid.UUID
	EventID     uuid.UUID
)

// maxIDLength bounds input before it reaches uuid.Parse.
const maxIDLength = 36

func parseUUID(s, kind string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be empty")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return u, nil
}

// ParseUserID parses a user ID at a trust boundary.
// Errors: CodeInvalidInput when empty, malformed or the nil UUID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

func ParseCommunityID(s string) (CommunityID, error) {
	u, err := parseUUID(s, "community ID")
	return CommunityID(u), err
}

func ParseShareID(s string) (ShareID, error) {
	u, err := parseUUID(s, "share ID")
	return ShareID(u), err
}

func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event ID")
	return EventID(u), err
}

func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id CommunityID) String() string { return uuid.UUID(id).String() }
func (id ShareID) String() string     { return uuid.UUID(id).String() }
func (id EventID) String() string     { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id CommunityID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ShareID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// NewShareID allocates a random share identifier.
func NewShareID() ShareID {
	return ShareID(uuid.New())
}

func (id UserID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id CommunityID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ShareID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id EventID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error      { return unmarshalID((*uuid.UUID)(id), b) }
func (id *CommunityID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }
func (id *ShareID) UnmarshalText(b []byte) error     { return unmarshalID((*uuid.UUID)(id), b) }
func (id *EventID) UnmarshalText(b []byte) error     { return unmarshalID((*uuid.UUID)(id), b) }

func unmarshalID(dst *uuid.UUID, b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*dst = u
	return nil
}
