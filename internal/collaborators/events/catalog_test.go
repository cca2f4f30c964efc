package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "beacon/pkg/domain"
	"beacon/pkg/platform/sentinel"
)

func TestInMemoryCatalog(t *testing.T) {
	end := time.Date(2026, 6, 1, 22, 0, 0, 0, time.UTC)
	cat := NewInMemory()
	eventID := id.EventID(uuid.New())
	cat.Add(Event{ID: eventID, Name: "Meetup", EndTime: end})

	e, err := cat.FindEvent(context.Background(), eventID)
	require.NoError(t, err)
	assert.Equal(t, "Meetup", e.Name)
	assert.False(t, e.HasEnded(end), "end time itself is not after the end")
	assert.True(t, e.HasEnded(end.Add(time.Second)))

	_, err = cat.FindEvent(context.Background(), id.EventID(uuid.New()))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
