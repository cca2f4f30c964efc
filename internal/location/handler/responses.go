package handler

import (
	"time"

	"beacon/internal/location/models"
)

type ShareCreatedResponse struct {
	ShareID   string    `json:"shareId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ShareView is the external shape of a share. It never carries coordinates.
type ShareView struct {
	ShareID       string     `json:"shareId"`
	GrantorID     string     `json:"grantorId"`
	RecipientID   string     `json:"recipientId"`
	RecipientKind string     `json:"recipientKind"`
	StartTime     time.Time  `json:"startTime"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	Active        bool       `json:"active"`
	Message       string     `json:"message,omitempty"`
	EndedAt       *time.Time `json:"endedAt,omitempty"`
	EndReason     string     `json:"endReason,omitempty"`
}

type ActiveSharesResponse struct {
	Initiated []ShareView `json:"initiated"`
	Received  []ShareView `json:"received"`
}

func toShareView(s *models.LocationShare) ShareView {
	return ShareView{
		ShareID:       s.ID.String(),
		GrantorID:     s.GrantorID.String(),
		RecipientID:   s.Recipient.ID.String(),
		RecipientKind: string(s.Recipient.Kind),
		StartTime:     s.StartTime,
		ExpiresAt:     s.EndTime,
		Active:        s.Active,
		Message:       s.Message,
		EndedAt:       s.EndedAt,
		EndReason:     string(s.EndReason),
	}
}

func toShareViews(shares []*models.LocationShare) []ShareView {
	views := make([]ShareView, 0, len(shares))
	for _, s := range shares {
		views = append(views, toShareView(s))
	}
	return views
}

func toActiveSharesResponse(a *models.ActiveShares) ActiveSharesResponse {
	return ActiveSharesResponse{
		Initiated: toShareViews(a.Initiated),
		Received:  toShareViews(a.Received),
	}
}
