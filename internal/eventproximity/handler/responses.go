package handler

import (
	"time"

	"beacon/internal/eventproximity/models"
	"beacon/internal/proximity"
)

type OptInResponse struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

type NearbyAttendeeView struct {
	UserID            string             `json:"userId"`
	DisplayName       string             `json:"displayName"`
	ProximityCategory proximity.Category `json:"proximityCategory"`
}

type NearbyAttendeesResponse struct {
	Attendees []NearbyAttendeeView `json:"attendees"`
}

func toNearbyResponse(list []models.NearbyAttendee) NearbyAttendeesResponse {
	views := make([]NearbyAttendeeView, 0, len(list))
	for _, a := range list {
		views = append(views, NearbyAttendeeView{
			UserID:            a.UserID.String(),
			DisplayName:       a.DisplayName,
			ProximityCategory: a.Category,
		})
	}
	return NearbyAttendeesResponse{Attendees: views}
}
