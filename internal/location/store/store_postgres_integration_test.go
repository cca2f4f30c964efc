//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"beacon/internal/location/models"
	"beacon/internal/location/store"
	id "beacon/pkg/domain"
	"beacon/pkg/platform/sentinel"
	"beacon/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	t0       time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "location_shares"))
}

func (s *PostgresStoreSuite) create(recipient models.Recipient, d time.Duration) *models.LocationShare {
	share, err := models.NewLocationShare(id.NewShareID(), id.UserID(uuid.New()), recipient, s.t0, d, "hello")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), share))
	return share
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	share := s.create(models.CommunityRecipient(id.CommunityID(uuid.New())), time.Hour)

	found, err := s.store.FindByID(ctx, share.ID)
	s.Require().NoError(err)
	s.Equal(share.ID, found.ID)
	s.Equal(share.Recipient, found.Recipient)
	s.True(found.StartTime.Equal(share.StartTime))
	s.Equal("hello", found.Message)
	s.Nil(found.EndedAt)

	s.Require().ErrorIs(s.store.Create(ctx, share), sentinel.ErrAlreadyUsed)

	_, err = s.store.FindByID(ctx, id.NewShareID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConditionalClose() {
	ctx := context.Background()
	share := s.create(models.UserRecipient(id.UserID(uuid.New())), 30*time.Minute)

	_, err := s.store.ExpireIfDue(ctx, share.ID, s.t0.Add(10*time.Minute))
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	closed, err := s.store.RevokeIfActive(ctx, share.ID, s.t0.Add(11*time.Minute))
	s.Require().NoError(err)
	s.Equal(models.EndReasonRevoked, closed.EndReason)

	_, err = s.store.RevokeIfActive(ctx, share.ID, s.t0.Add(12*time.Minute))
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.ExpireIfDue(ctx, id.NewShareID(), s.t0)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRecipientsQuery() {
	ctx := context.Background()
	bob := id.UserID(uuid.New())
	hikers := id.CommunityID(uuid.New())
	s.create(models.UserRecipient(bob), time.Hour)
	s.create(models.CommunityRecipient(hikers), time.Hour)
	s.create(models.UserRecipient(id.UserID(uuid.New())), time.Hour)

	got, err := s.store.ListActiveForRecipients(ctx, []models.Recipient{
		models.UserRecipient(bob), models.CommunityRecipient(hikers),
	}, s.t0.Add(time.Minute))
	s.Require().NoError(err)
	s.Len(got, 2)

	// same bytes, different kind
	got, err = s.store.ListActiveForRecipients(ctx, []models.Recipient{
		{Kind: models.RecipientKindCommunity, ID: uuid.UUID(bob)},
	}, s.t0.Add(time.Minute))
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *PostgresStoreSuite) TestListDue() {
	ctx := context.Background()
	for range 3 {
		s.create(models.UserRecipient(id.UserID(uuid.New())), time.Minute)
	}
	s.create(models.UserRecipient(id.UserID(uuid.New())), time.Hour)

	due, err := s.store.ListDue(ctx, s.t0.Add(2*time.Minute), 2)
	s.Require().NoError(err)
	s.Len(due, 2)

	due, err = s.store.ListDue(ctx, s.t0.Add(2*time.Minute), 10)
	s.Require().NoError(err)
	s.Len(due, 3)
}

// TestRevokeRacesExpiry verifies the conditional updates give exactly one winner.
func (s *PostgresStoreSuite) TestRevokeRacesExpiry() {
	ctx := context.Background()
	share := s.create(models.UserRecipient(id.UserID(uuid.New())), time.Minute)
	now := s.t0.Add(5 * time.Minute)

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = s.store.RevokeIfActive(ctx, share.ID, now)
			} else {
				_, err = s.store.ExpireIfDue(ctx, share.ID, now)
			}
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}
