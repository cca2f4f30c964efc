package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"beacon/internal/collaborators/directory"
	"beacon/internal/location/models"
	"beacon/internal/location/store"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
	audit "beacon/pkg/platform/audit"
	auditmemory "beacon/pkg/platform/audit/store/memory"
	"beacon/pkg/platform/tx"
	"beacon/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	service    *Service
	shares     *store.InMemoryStore
	auditStore *auditmemory.InMemoryStore
	directory  *directory.InMemory
	t0         time.Time

	alice  id.UserID
	bob    id.UserID
	carol  id.UserID
	hikers id.CommunityID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.shares = store.New()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.directory = directory.NewInMemory()
	s.t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	s.alice = id.UserID(uuid.New())
	s.bob = id.UserID(uuid.New())
	s.carol = id.UserID(uuid.New())
	s.hikers = id.CommunityID(uuid.New())
	s.directory.AddUser(s.alice, "Alice")
	s.directory.AddUser(s.bob, "Bob")
	s.directory.AddUser(s.carol, "Carol")
	s.directory.AddCommunity(s.hikers, s.alice, s.carol)

	s.service = New(s.shares, s.directory, audit.NewRecorder(s.auditStore), tx.NewLockRunner())
}

func (s *ServiceSuite) at(d time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.t0.Add(d))
}

func (s *ServiceSuite) entriesFor(shareID id.ShareID) []audit.Entry {
	entries, err := s.auditStore.ListByRecord(context.Background(), audit.TableLocationShares, shareID.String())
	s.Require().NoError(err)
	return entries
}

func (s *ServiceSuite) TestCreateShare() {
	s.Run("creates an active share and one create entry", func() {
		share, err := s.service.CreateShare(s.at(0), s.alice, models.UserRecipient(s.bob), 30, "coffee?")
		s.Require().NoError(err)
		s.True(share.Active)
		s.Equal(s.t0.Add(30*time.Minute), share.EndTime)
		s.True(share.EndTime.After(share.StartTime))

		entries := s.entriesFor(share.ID)
		s.Require().Len(entries, 1)
		s.Equal(audit.ActionCreate, entries[0].Action)
		s.Equal(s.alice, entries[0].UserID)
		s.Equal(s.bob.String(), entries[0].Details[audit.DetailRecipientID])
		s.Equal("user", entries[0].Details[audit.DetailRecipientKind])
		s.Equal(30, entries[0].Details[audit.DetailDurationMinutes])
	})

	s.Run("duration bounds", func() {
		for _, minutes := range []int{0, -5, 1441} {
			_, err := s.service.CreateShare(s.at(0), s.alice, models.UserRecipient(s.bob), minutes, "")
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidDuration), "minutes=%d", minutes)
		}
		for _, minutes := range []int{1, 1440} {
			_, err := s.service.CreateShare(s.at(0), s.alice, models.UserRecipient(s.bob), minutes, "")
			s.NoError(err, "minutes=%d", minutes)
		}
	})

	s.Run("custom duration bounds", func() {
		svc := New(s.shares, s.directory, audit.NewRecorder(s.auditStore), tx.NewLockRunner(),
			WithConfig(Config{MinDurationMinutes: 5, MaxDurationMinutes: 60}))
		_, err := svc.CreateShare(s.at(0), s.alice, models.UserRecipient(s.bob), 4, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidDuration))
		_, err = svc.CreateShare(s.at(0), s.alice, models.UserRecipient(s.bob), 61, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidDuration))
	})

	s.Run("unknown recipients", func() {
		_, err := s.service.CreateShare(s.at(0), s.alice, models.UserRecipient(id.UserID(uuid.New())), 10, "")
		s.True(dErrors.HasCode(err, dErrors.CodeRecipientNotFound))

		_, err = s.service.CreateShare(s.at(0), s.alice, models.CommunityRecipient(id.CommunityID(uuid.New())), 10, "")
		s.True(dErrors.HasCode(err, dErrors.CodeRecipientNotFound))
	})

	s.Run("a user id is not accepted as a community", func() {
		_, err := s.service.CreateShare(s.at(0), s.alice, models.Recipient{Kind: models.RecipientKindCommunity, ID: uuid.UUID(s.bob)}, 10, "")
		s.True(dErrors.HasCode(err, dErrors.CodeRecipientNotFound))
	})

	s.Run("sharing with yourself is rejected", func() {
		_, err := s.service.CreateShare(s.at(0), s.alice, models.UserRecipient(s.alice), 10, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRecipient))
	})

	s.Run("community recipients", func() {
		share, err := s.service.CreateShare(s.at(0), s.bob, models.CommunityRecipient(s.hikers), 10, "")
		s.Require().NoError(err)
		s.Equal(models.RecipientKindCommunity, share.Recipient.Kind)
	})

	s.Run("over-long message is a validation error", func() {
		long := make([]rune, models.MaxMessageLength+1)
		for i := range long {
			long[i] = 'x'
		}
		_, err := s.service.CreateShare(s.at(0), s.alice, models.UserRecipient(s.bob), 10, string(long))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("nil grantor is unauthorized", func() {
		_, err := s.service.CreateShare(s.at(0), id.UserID{}, models.UserRecipient(s.bob), 10, "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestRevokeShare() {
	s.Run("grantor revokes once, second call is a silent success", func() {
		share, err := s.service.CreateShare(s.at(0), s.alice, models.UserRecipient(s.bob), 30, "")
		s.Require().NoError(err)

		s.Require().NoError(s.service.RevokeShare(s.at(time.Minute), share.ID, s.alice))
		s.Require().NoError(s.service.RevokeShare(s.at(2*time.Minute), share.ID, s.alice))

		entries := s.entriesFor(share.ID)
		s.Require().Len(entries, 2)
		s.Equal(audit.ActionCreate, entries[0].Action)
		s.Equal(audit.ActionDelete, entries[1].Action)

		stored, err := s.shares.FindByID(context.Background(), share.ID)
		s.Require().NoError(err)
		s.False(stored.Active)
		s.Equal(models.EndReasonRevoked, stored.EndReason)
	})

	s.Run("non-grantor is not authorized", func() {
		share, err := s.service.CreateShare(s.at(0), s.alice, models.UserRecipient(s.bob), 30, "")
		s.Require().NoError(err)

		err = s.service.RevokeShare(s.at(time.Minute), share.ID, s.bob)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
		s.Len(s.entriesFor(share.ID), 1)
	})

	s.Run("unknown share", func() {
		err := s.service.RevokeShare(s.at(0), id.NewShareID(), s.alice)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("concurrent revokes write one delete entry", func() {
		share, err := s.service.CreateShare(s.at(0), s.alice, models.UserRecipient(s.bob), 30, "")
		s.Require().NoError(err)

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.NoError(s.service.RevokeShare(s.at(time.Minute), share.ID, s.alice))
			}()
		}
		wg.Wait()
		s.Len(s.entriesFor(share.ID), 2)
	})
}

func (s *ServiceSuite) TestListActiveShares() {
	direct, err := s.service.CreateShare(s.at(0), s.alice, models.UserRecipient(s.bob), 30, "")
	s.Require().NoError(err)
	toHikers, err := s.service.CreateShare(s.at(0), s.bob, models.CommunityRecipient(s.hikers), 60, "")
	s.Require().NoError(err)
	ownCommunity, err := s.service.CreateShare(s.at(0), s.alice, models.CommunityRecipient(s.hikers), 60, "")
	s.Require().NoError(err)

	s.Run("bob sees the direct share as received", func() {
		result, err := s.service.ListActiveShares(s.at(29*time.Minute), s.bob)
		s.Require().NoError(err)
		s.Require().Len(result.Received, 1)
		s.Equal(direct.ID, result.Received[0].ID)
		s.Require().Len(result.Initiated, 1)
		s.Equal(toHikers.ID, result.Initiated[0].ID)
	})

	s.Run("alice sees community shares but not her own twice", func() {
		result, err := s.service.ListActiveShares(s.at(time.Minute), s.alice)
		s.Require().NoError(err)
		s.Len(result.Initiated, 2)
		s.Require().Len(result.Received, 1)
		s.Equal(toHikers.ID, result.Received[0].ID)
		for _, r := range result.Received {
			s.NotEqual(ownCommunity.ID, r.ID)
		}
	})

	s.Run("lapsed shares disappear before the sweep runs", func() {
		result, err := s.service.ListActiveShares(s.at(31*time.Minute), s.bob)
		s.Require().NoError(err)
		s.Empty(result.Received)
	})

	s.Run("revoked shares disappear", func() {
		s.Require().NoError(s.service.RevokeShare(s.at(2*time.Minute), toHikers.ID, s.bob))
		result, err := s.service.ListActiveShares(s.at(3*time.Minute), s.carol)
		s.Require().NoError(err)
		s.Require().Len(result.Received, 1)
		s.Equal(ownCommunity.ID, result.Received[0].ID)
	})
}

func (s *ServiceSuite) TestGetShare() {
	direct, err := s.service.CreateShare(s.at(0), s.alice, models.UserRecipient(s.bob), 30, "")
	s.Require().NoError(err)
	group, err := s.service.CreateShare(s.at(0), s.bob, models.CommunityRecipient(s.hikers), 30, "")
	s.Require().NoError(err)

	_, err = s.service.GetShare(s.at(0), direct.ID, s.alice)
	s.NoError(err)
	_, err = s.service.GetShare(s.at(0), direct.ID, s.bob)
	s.NoError(err)
	_, err = s.service.GetShare(s.at(0), direct.ID, s.carol)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.GetShare(s.at(0), group.ID, s.carol)
	s.NoError(err)
	_, err = s.service.GetShare(s.at(0), id.NewShareID(), s.carol)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, audit.Action, audit.Table, string, id.UserID, map[string]any) error {
	return errors.New("audit persistence failed: disk full")
}

func (s *ServiceSuite) TestAuditFailureFailsTheOperation() {
	svc := New(s.shares, s.directory, failingRecorder{}, tx.NewLockRunner())
	_, err := svc.CreateShare(s.at(0), s.alice, models.UserRecipient(s.bob), 30, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
