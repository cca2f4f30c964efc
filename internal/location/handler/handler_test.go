package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"beacon/internal/location/handler/mocks"
	"beacon/internal/location/models"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/location-mocks.go -package=mocks Service
type LocationHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	userID  id.UserID
	t0      time.Time
}

func TestLocationHandlerSuite(t *testing.T) {
	suite.Run(t, new(LocationHandlerSuite))
}

func (s *LocationHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
	s.userID = id.UserID(uuid.New())
	s.t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
}

func (s *LocationHandlerSuite) share(recipient models.Recipient) *models.LocationShare {
	return &models.LocationShare{
		ID:        id.NewShareID(),
		GrantorID: s.userID,
		Recipient: recipient,
		StartTime: s.t0,
		EndTime:   s.t0.Add(30 * time.Minute),
		Active:    true,
	}
}

func (s *LocationHandlerSuite) TestShareLive() {
	bob := id.UserID(uuid.New())

	s.Run("creates a user share", func() {
		share := s.share(models.UserRecipient(bob))
		s.service.EXPECT().
			CreateShare(gomock.Any(), s.userID, models.UserRecipient(bob), 30, "hi").
			Return(share, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/location/share_live", map[string]any{
			"recipientId": bob.String(), "durationMinutes": 30, "message": "hi",
		})
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, s.userID))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[ShareCreatedResponse](s.T(), rr)
		s.Equal(share.ID.String(), resp.ShareID)
		s.True(resp.ExpiresAt.Equal(share.EndTime))
	})

	s.Run("creates a community share", func() {
		hikers := id.CommunityID(uuid.New())
		s.service.EXPECT().
			CreateShare(gomock.Any(), s.userID, models.CommunityRecipient(hikers), 15, "").
			Return(s.share(models.CommunityRecipient(hikers)), nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/location/share_live", map[string]any{
			"recipientId": hikers.String(), "recipientKind": "community", "durationMinutes": 15,
		})
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, s.userID))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("service errors keep their code", func() {
		s.service.EXPECT().
			CreateShare(gomock.Any(), gomock.Any(), gomock.Any(), 5000, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidDuration, "durationMinutes must be within the allowed range"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/location/share_live", map[string]any{
			"recipientId": bob.String(), "durationMinutes": 5000,
		})
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, s.userID))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_duration")
	})

	s.Run("malformed recipient never reaches the service", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/location/share_live", map[string]any{
			"recipientId": "not-a-uuid", "durationMinutes": 5,
		})
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, s.userID))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_recipient")
	})

	s.Run("unknown recipient kind", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/location/share_live", map[string]any{
			"recipientId": bob.String(), "recipientKind": "group", "durationMinutes": 5,
		})
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, s.userID))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_recipient")
	})

	s.Run("unauthenticated", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/location/share_live", map[string]any{
			"recipientId": bob.String(), "durationMinutes": 5,
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *LocationHandlerSuite) TestStopSharing() {
	shareID := id.NewShareID()

	s.Run("returns 204", func() {
		s.service.EXPECT().RevokeShare(gomock.Any(), shareID, s.userID).Return(nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/location/stop_sharing", map[string]string{"shareId": shareID.String()})
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, s.userID))
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("non-grantor gets 403", func() {
		s.service.EXPECT().RevokeShare(gomock.Any(), shareID, s.userID).
			Return(dErrors.New(dErrors.CodeNotAuthorized, "only the grantor can revoke a share"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/location/stop_sharing", map[string]string{"shareId": shareID.String()})
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, s.userID))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "not_authorized")
	})

	s.Run("missing share id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/location/stop_sharing", map[string]string{})
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, s.userID))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *LocationHandlerSuite) TestActiveShares() {
	bob := id.UserID(uuid.New())
	initiated := s.share(models.UserRecipient(bob))
	s.service.EXPECT().ListActiveShares(gomock.Any(), s.userID).Return(&models.ActiveShares{
		Initiated: []*models.LocationShare{initiated},
	}, nil)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/location/active_shares")
	rr := testutil.DoRequest(s.router, testutil.WithAuth(req, s.userID))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[ActiveSharesResponse](s.T(), rr)
	s.Require().Len(resp.Initiated, 1)
	s.Equal(initiated.ID.String(), resp.Initiated[0].ShareID)
	s.Equal("user", resp.Initiated[0].RecipientKind)
	s.NotNil(resp.Received)
	s.Empty(resp.Received)
}

func (s *LocationHandlerSuite) TestGetShare() {
	share := s.share(models.UserRecipient(id.UserID(uuid.New())))

	s.Run("visible share", func() {
		s.service.EXPECT().GetShare(gomock.Any(), share.ID, s.userID).Return(share, nil)
		req := testutil.NewRequest(s.T(), http.MethodGet, "/location/shares/"+share.ID.String())
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, s.userID))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[ShareView](s.T(), rr)
		s.Equal(share.ID.String(), resp.ShareID)
		s.True(resp.Active)
	})

	s.Run("forbidden share", func() {
		s.service.EXPECT().GetShare(gomock.Any(), share.ID, s.userID).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "share is not visible to this user"))
		req := testutil.NewRequest(s.T(), http.MethodGet, "/location/shares/"+share.ID.String())
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, s.userID))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("malformed id", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/location/shares/nope")
		rr := testutil.DoRequest(s.router, testutil.WithAuth(req, s.userID))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}
