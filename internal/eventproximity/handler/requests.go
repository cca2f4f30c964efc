package handler

import (
	"strings"

	"beacon/internal/eventproximity/models"
	dErrors "beacon/pkg/domain-errors"
)

// OptInRequest is the optional body of POST /events/{eventId}/proximity_opt_in.
type OptInRequest struct {
	DurationMinutes *int `json:"durationMinutes,omitempty"`
}

func (r *OptInRequest) Validate() error {
	return nil
}

// RSVPRequest is the body of POST /events/{eventId}/rsvp.
type RSVPRequest struct {
	Status string `json:"status"`

	status models.RSVPStatus
}

func (r *RSVPRequest) Validate() error {
	s := strings.TrimSpace(r.Status)
	if s == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	status, err := models.ParseRSVPStatus(strings.ToLower(s))
	if err != nil {
		return err
	}
	r.status = status
	return nil
}

func (r *RSVPRequest) ParsedStatus() models.RSVPStatus {
	return r.status
}
