package models

import (
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
)

// MaxMessageLength bounds the optional note attached to a share, in runes.
const MaxMessageLength = 280

// RecipientKind discriminates the recipient of a share.
type RecipientKind string

const (
	RecipientKindUser      RecipientKind = "user"
	RecipientKindCommunity RecipientKind = "community"
)

func (k RecipientKind) IsValid() bool {
	return k == RecipientKindUser || k == RecipientKindCommunity
}

// ParseRecipientKind defaults an empty kind to user.
func ParseRecipientKind(s string) (RecipientKind, error) {
	if s == "" {
		return RecipientKindUser, nil
	}
	k := RecipientKind(s)
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidRecipient, "recipient kind must be user or community")
	}
	return k, nil
}

// Recipient is a tagged reference to either a user or a community. ID holds
// the UUID of whichever directory entry Kind names.
type Recipient struct {
	Kind RecipientKind
	ID   uuid.UUID
}

func UserRecipient(userID id.UserID) Recipient {
	return Recipient{Kind: RecipientKindUser, ID: uuid.UUID(userID)}
}

func CommunityRecipient(communityID id.CommunityID) Recipient {
	return Recipient{Kind: RecipientKindCommunity, ID: uuid.UUID(communityID)}
}

// UserID returns the recipient as a user id; ok is false for communities.
func (r Recipient) UserID() (id.UserID, bool) {
	return id.UserID(r.ID), r.Kind == RecipientKindUser
}

// CommunityID returns the recipient as a community id; ok is false for users.
func (r Recipient) CommunityID() (id.CommunityID, bool) {
	return id.CommunityID(r.ID), r.Kind == RecipientKindCommunity
}

// EndReason records how a share stopped being active.
type EndReason string

const (
	EndReasonRevoked EndReason = "revoked"
	EndReasonExpired EndReason = "expired"
)

// LocationShare grants Recipient visibility into Grantor's position between
// StartTime and EndTime.
//
// Invariants:
//   - EndTime is strictly after StartTime
//   - Active flips to false exactly once, by revocation or by expiry
//   - EndedAt and EndReason are set exactly when Active is false
type LocationShare struct {
	ID        id.ShareID
	GrantorID id.UserID
	Recipient Recipient
	StartTime time.Time
	EndTime   time.Time
	Active    bool
	Message   string
	EndedAt   *time.Time
	EndReason EndReason
}

// NewLocationShare builds an active share lasting duration from now.
func NewLocationShare(shareID id.ShareID, grantor id.UserID, recipient Recipient, now time.Time, duration time.Duration, message string) (*LocationShare, error) {
	if grantor.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "grantor is required")
	}
	if !recipient.Kind.IsValid() || recipient.ID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "recipient is invalid")
	}
	if duration <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "share must end after it starts")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "message must be 280 characters or less")
	}
	return &LocationShare{
		ID:        shareID,
		GrantorID: grantor,
		Recipient: recipient,
		StartTime: now,
		EndTime:   now.Add(duration),
		Active:    true,
		Message:   message,
	}, nil
}

// IsActiveAt reports whether the share still grants visibility at now.
func (s *LocationShare) IsActiveAt(now time.Time) bool {
	return s.Active && s.EndTime.After(now)
}

// IsDue reports whether the sweep should close the share at now.
func (s *LocationShare) IsDue(now time.Time) bool {
	return s.Active && !s.EndTime.After(now)
}

// DurationMinutes is the granted window length.
func (s *LocationShare) DurationMinutes() int {
	return int(s.EndTime.Sub(s.StartTime) / time.Minute)
}

// CanClose checks that the share has not already been closed.
func (s *LocationShare) CanClose() error {
	if !s.Active {
		return dErrors.New(dErrors.CodeInvalidState, "share is already inactive")
	}
	return nil
}

// ApplyClose marks the share inactive. Call CanClose first.
func (s *LocationShare) ApplyClose(reason EndReason, now time.Time) {
	s.Active = false
	s.EndedAt = &now
	s.EndReason = reason
}

// IsGrantedBy reports whether userID owns the share.
func (s *LocationShare) IsGrantedBy(userID id.UserID) bool {
	return s.GrantorID == userID
}

// IsReceivedBy reports whether userID is the recipient directly or through
// one of communities.
func (s *LocationShare) IsReceivedBy(userID id.UserID, communities []id.CommunityID) bool {
	if u, ok := s.Recipient.UserID(); ok {
		return u == userID
	}
	c, _ := s.Recipient.CommunityID()
	return slices.Contains(communities, c)
}

// ActiveShares splits a user's visible shares by direction. The two slices
// never share an element.
type ActiveShares struct {
	Initiated []*LocationShare
	Received  []*LocationShare
}
