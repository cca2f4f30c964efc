package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "beacon/pkg/domain"
)

const seedJSON = `{
  "users": [
    {"id": "6f0e2a5c-1d7b-4c1e-9a53-2f7d0c8b1a01", "displayName": "Alice", "position": {"lat": 52.52, "lng": 13.405}},
    {"id": "6f0e2a5c-1d7b-4c1e-9a53-2f7d0c8b1a02", "displayName": "Bob"}
  ],
  "communities": [
    {"id": "0b7f4d2e-5c1a-4e9b-8f3d-6a2c1e0d9b03", "members": ["6f0e2a5c-1d7b-4c1e-9a53-2f7d0c8b1a01"]}
  ],
  "events": [
    {"id": "9c3e1b7a-2d4f-4a6e-b8c0-1f5d3e7a9b04", "name": "Meetup",
     "startsAt": "2026-10-14T18:00:00Z", "endTime": "2026-10-14T22:00:00Z",
     "geofence": {"center": {"lat": 52.52, "lng": 13.405}, "radiusMeters": 150}}
  ]
}`

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadCollaborators(t *testing.T) {
	ctx := context.Background()

	t.Run("empty path gives empty collaborators", func(t *testing.T) {
		c, err := loadCollaborators("")
		require.NoError(t, err)
		ok, err := c.directory.UserExists(ctx, id.UserID{})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("seed file populates every collaborator", func(t *testing.T) {
		c, err := loadCollaborators(writeSeed(t, seedJSON))
		require.NoError(t, err)

		alice, _ := id.ParseUserID("6f0e2a5c-1d7b-4c1e-9a53-2f7d0c8b1a01")
		bob, _ := id.ParseUserID("6f0e2a5c-1d7b-4c1e-9a53-2f7d0c8b1a02")
		name, err := c.directory.DisplayName(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, "Bob", name)

		communities, err := c.directory.CommunitiesOf(ctx, alice)
		require.NoError(t, err)
		assert.Len(t, communities, 1)

		pos, err := c.positions.CurrentPosition(ctx, alice)
		require.NoError(t, err)
		assert.InDelta(t, 52.52, pos.Lat, 1e-9)
		_, err = c.positions.CurrentPosition(ctx, bob)
		assert.Error(t, err)

		eventID, _ := id.ParseEventID("9c3e1b7a-2d4f-4a6e-b8c0-1f5d3e7a9b04")
		event, err := c.catalog.FindEvent(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, "Meetup", event.Name)
		require.NotNil(t, event.Geofence)
		assert.InDelta(t, 150, event.Geofence.RadiusMeters, 1e-9)
	})

	t.Run("malformed ids are rejected", func(t *testing.T) {
		_, err := loadCollaborators(writeSeed(t, `{"users":[{"id":"nope","displayName":"X"}]}`))
		assert.Error(t, err)
	})

	t.Run("invalid geofence is rejected", func(t *testing.T) {
		_, err := loadCollaborators(writeSeed(t, `{"events":[{"id":"9c3e1b7a-2d4f-4a6e-b8c0-1f5d3e7a9b04",
			"endTime":"2026-10-14T22:00:00Z","geofence":{"center":{"lat":0,"lng":0},"radiusMeters":0}}]}`))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadCollaborators(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})
}
