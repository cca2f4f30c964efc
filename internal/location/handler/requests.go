package handler

import (
	"strings"

	"github.com/google/uuid"

	"beacon/internal/location/models"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
)

// ShareLiveRequest is the body of POST /location/share_live.
type ShareLiveRequest struct {
	RecipientID     string `json:"recipientId"`
	RecipientKind   string `json:"recipientKind,omitempty"`
	DurationMinutes int    `json:"durationMinutes"`
	Message         string `json:"message,omitempty"`

	recipient models.Recipient
}

// Validate parses the tagged recipient. Duration bounds are checked by the service.
func (r *ShareLiveRequest) Validate() error {
	kind, err := models.ParseRecipientKind(strings.TrimSpace(r.RecipientKind))
	if err != nil {
		return err
	}
	r.RecipientID = strings.TrimSpace(r.RecipientID)
	if r.RecipientID == "" {
		return dErrors.New(dErrors.CodeValidation, "recipientId is required")
	}
	var recipientID uuid.UUID
	switch kind {
	case models.RecipientKindCommunity:
		c, err := id.ParseCommunityID(r.RecipientID)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidRecipient, "recipientId is not a valid community id")
		}
		recipientID = uuid.UUID(c)
	default:
		u, err := id.ParseUserID(r.RecipientID)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidRecipient, "recipientId is not a valid user id")
		}
		recipientID = uuid.UUID(u)
	}
	r.recipient = models.Recipient{Kind: kind, ID: recipientID}
	return nil
}

func (r *ShareLiveRequest) ParsedRecipient() models.Recipient {
	return r.recipient
}

// StopSharingRequest is the body of POST /location/stop_sharing.
type StopSharingRequest struct {
	ShareID string `json:"shareId"`

	shareID id.ShareID
}

func (r *StopSharingRequest) Validate() error {
	shareID, err := id.ParseShareID(strings.TrimSpace(r.ShareID))
	if err != nil {
		return err
	}
	r.shareID = shareID
	return nil
}

func (r *StopSharingRequest) ParsedShareID() id.ShareID {
	return r.shareID
}
