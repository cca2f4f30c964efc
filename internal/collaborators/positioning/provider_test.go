package positioning

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/proximity"
	id "beacon/pkg/domain"
	"beacon/pkg/platform/sentinel"
)

func TestInMemoryProvider(t *testing.T) {
	p := NewInMemory()
	user := id.UserID(uuid.New())

	_, err := p.CurrentPosition(context.Background(), user)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)

	p.Set(user, proximity.Position{Lat: 1, Lng: 2})
	pos, err := p.CurrentPosition(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, proximity.Position{Lat: 1, Lng: 2}, pos)

	p.Clear(user)
	_, err = p.CurrentPosition(context.Background(), user)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.CurrentPosition(ctx, user)
	assert.ErrorIs(t, err, context.Canceled)
}
