package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"beacon/internal/location/models"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/platform/httputil"
	"beacon/pkg/requestcontext"
)

// Service defines the location sharing operations the handler needs.
type Service interface {
	CreateShare(ctx context.Context, grantor id.UserID, recipient models.Recipient, durationMinutes int, message string) (*models.LocationShare, error)
	RevokeShare(ctx context.Context, shareID id.ShareID, requester id.UserID) error
	ListActiveShares(ctx context.Context, userID id.UserID) (*models.ActiveShares, error)
	GetShare(ctx context.Context, shareID id.ShareID, requester id.UserID) (*models.LocationShare, error)
}

// Handler serves the /location endpoints. Routes expect RequireAuth upstream.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts location endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/location/share_live", h.HandleShareLive)
	r.Post("/location/stop_sharing", h.HandleStopSharing)
	r.Get("/location/active_shares", h.HandleActiveShares)
	r.Get("/location/shares/{shareId}", h.HandleGetShare)
}

// HandleShareLive handles POST /location/share_live.
func (h *Handler) HandleShareLive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ShareLiveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	share, err := h.service.CreateShare(ctx, userID, req.ParsedRecipient(), req.DurationMinutes, req.Message)
	if err != nil {
		h.logFailure(ctx, "create share failed", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, ShareCreatedResponse{
		ShareID:   share.ID.String(),
		ExpiresAt: share.EndTime,
	})
}

// HandleStopSharing handles POST /location/stop_sharing.
func (h *Handler) HandleStopSharing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[StopSharingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.RevokeShare(ctx, req.ParsedShareID(), userID); err != nil {
		h.logFailure(ctx, "revoke share failed", err, "share_id", req.ShareID)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleActiveShares handles GET /location/active_shares.
func (h *Handler) HandleActiveShares(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	result, err := h.service.ListActiveShares(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "list active shares failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toActiveSharesResponse(result))
}

// HandleGetShare handles GET /location/shares/{shareId}.
func (h *Handler) HandleGetShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(w, ctx)
	if !ok {
		return
	}

	shareID, err := id.ParseShareID(chi.URLParam(r, "shareId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	share, err := h.service.GetShare(ctx, shareID, userID)
	if err != nil {
		h.logFailure(ctx, "get share failed", err, "share_id", shareID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toShareView(share))
}

func (h *Handler) requireUser(w http.ResponseWriter, ctx context.Context) (id.UserID, bool) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return userID, true
}

// logFailure logs client errors at warn and server errors at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, args ...any) {
	attrs := append([]any{"request_id", requestcontext.RequestID(ctx), "error", err}, args...)
	if de, ok := dErrors.As(err); ok && dErrors.ToHTTPStatus(de.Code) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, attrs...)
		return
	}
	h.logger.ErrorContext(ctx, msg, attrs...)
}
