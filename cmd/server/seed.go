package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"beacon/internal/collaborators/directory"
	"beacon/internal/collaborators/events"
	"beacon/internal/collaborators/positioning"
	"beacon/internal/proximity"
	id "beacon/pkg/domain"
)

// collaborators are the in-memory stand-ins for the user directory, the event
// catalogue and the positioning service.
type collaborators struct {
	directory *directory.InMemory
	catalog   *events.InMemory
	positions *positioning.InMemory
}

type seedFile struct {
	Users []struct {
		ID          string        `json:"id"`
		DisplayName string        `json:"displayName"`
		Position    *seedPosition `json:"position,omitempty"`
	} `json:"users"`
	Communities []struct {
		ID      string   `json:"id"`
		Members []string `json:"members"`
	} `json:"communities"`
	Events []struct {
		ID       string        `json:"id"`
		Name     string        `json:"name"`
		StartsAt time.Time     `json:"startsAt"`
		EndTime  time.Time     `json:"endTime"`
		Geofence *seedGeofence `json:"geofence,omitempty"`
	} `json:"events"`
}

type seedPosition struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type seedGeofence struct {
	Vertices     []seedPosition `json:"vertices,omitempty"`
	Center       seedPosition   `json:"center"`
	RadiusMeters float64        `json:"radiusMeters"`
}

func (p seedPosition) position() proximity.Position {
	return proximity.Position{Lat: p.Lat, Lng: p.Lng}
}

// loadCollaborators builds empty collaborators, filled from path when set.
func loadCollaborators(path string) (*collaborators, error) {
	c := &collaborators{
		directory: directory.NewInMemory(),
		catalog:   events.NewInMemory(),
		positions: positioning.NewInMemory(),
	}
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if err := c.apply(seed); err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return c, nil
}

func (c *collaborators) apply(seed seedFile) error {
	for _, u := range seed.Users {
		userID, err := id.ParseUserID(u.ID)
		if err != nil {
			return err
		}
		c.directory.AddUser(userID, u.DisplayName)
		if u.Position != nil {
			c.positions.Set(userID, u.Position.position())
		}
	}
	for _, cm := range seed.Communities {
		communityID, err := id.ParseCommunityID(cm.ID)
		if err != nil {
			return err
		}
		members := make([]id.UserID, 0, len(cm.Members))
		for _, m := range cm.Members {
			userID, err := id.ParseUserID(m)
			if err != nil {
				return err
			}
			members = append(members, userID)
		}
		c.directory.AddCommunity(communityID, members...)
	}
	for _, e := range seed.Events {
		eventID, err := id.ParseEventID(e.ID)
		if err != nil {
			return err
		}
		event := events.Event{ID: eventID, Name: e.Name, StartsAt: e.StartsAt, EndTime: e.EndTime}
		if e.Geofence != nil {
			fence := &proximity.Geofence{Center: e.Geofence.Center.position(), RadiusMeters: e.Geofence.RadiusMeters}
			for _, v := range e.Geofence.Vertices {
				fence.Vertices = append(fence.Vertices, v.position())
			}
			if !fence.Valid() {
				return fmt.Errorf("event %s: invalid geofence", e.ID)
			}
			event.Geofence = fence
		}
		c.catalog.Add(event)
	}
	return nil
}
