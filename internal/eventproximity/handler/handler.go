package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"beacon/internal/eventproximity/models"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/platform/httputil"
	"beacon/pkg/requestcontext"
)

// Service defines the event proximity operations the handler needs.
type Service interface {
	OptIn(ctx context.Context, eventID id.EventID, userID id.UserID, durationMinutes *int) (*models.OptIn, error)
	OptOut(ctx context.Context, eventID id.EventID, userID id.UserID) error
	ListNearbyAttendees(ctx context.Context, eventID id.EventID, requester id.UserID) ([]models.NearbyAttendee, error)
	RSVP(ctx context.Context, eventID id.EventID, userID id.UserID, status models.RSVPStatus) (*models.Attendee, error)
	CheckIn(ctx context.Context, eventID id.EventID, userID id.UserID) (*models.Attendee, error)
}

// Handler serves the /events endpoints. Routes expect RequireAuth upstream.
type Handler struct {
	service     Service
	logger      *slog.Logger
	nearbyLimit func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithNearbyLimit wraps the nearby listing, the only route that reveals
// relative position, in its own middleware.
func WithNearbyLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.nearbyLimit = mw
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/events/{eventId}", func(r chi.Router) {
		r.Post("/proximity_opt_in", h.HandleOptIn)
		r.Post("/proximity_opt_out", h.HandleOptOut)
		if h.nearbyLimit != nil {
			r.With(h.nearbyLimit).Get("/nearby_attendees", h.HandleNearbyAttendees)
		} else {
			r.Get("/nearby_attendees", h.HandleNearbyAttendees)
		}
		r.Post("/rsvp", h.HandleRSVP)
		r.Post("/check_in", h.HandleCheckIn)
	})
}

// HandleOptIn handles POST /events/{eventId}/proximity_opt_in.
func (h *Handler) HandleOptIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, eventID, ok := h.prepare(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[OptInRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	o, err := h.service.OptIn(ctx, eventID, userID, req.DurationMinutes)
	if err != nil {
		h.logFailure(ctx, "proximity opt-in failed", err, "event_id", eventID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OptInResponse{ExpiresAt: o.ExpiresAt})
}

// HandleOptOut handles POST /events/{eventId}/proximity_opt_out.
func (h *Handler) HandleOptOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, eventID, ok := h.prepare(w, r)
	if !ok {
		return
	}
	if err := h.service.OptOut(ctx, eventID, userID); err != nil {
		h.logFailure(ctx, "proximity opt-out failed", err, "event_id", eventID.String())
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleNearbyAttendees handles GET /events/{eventId}/nearby_attendees.
func (h *Handler) HandleNearbyAttendees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, eventID, ok := h.prepare(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListNearbyAttendees(ctx, eventID, userID)
	if err != nil {
		h.logFailure(ctx, "nearby attendees failed", err, "event_id", eventID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toNearbyResponse(list))
}

// HandleRSVP handles POST /events/{eventId}/rsvp.
func (h *Handler) HandleRSVP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, eventID, ok := h.prepare(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RSVPRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if _, err := h.service.RSVP(ctx, eventID, userID, req.ParsedStatus()); err != nil {
		h.logFailure(ctx, "rsvp failed", err, "event_id", eventID.String())
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCheckIn handles POST /events/{eventId}/check_in.
func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, eventID, ok := h.prepare(w, r)
	if !ok {
		return
	}
	if _, err := h.service.CheckIn(ctx, eventID, userID); err != nil {
		h.logFailure(ctx, "check-in failed", err, "event_id", eventID.String())
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// prepare resolves the caller and the event path parameter.
func (h *Handler) prepare(w http.ResponseWriter, r *http.Request) (id.UserID, id.EventID, bool) {
	userID := requestcontext.UserID(r.Context())
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, id.EventID{}, false
	}
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventId"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.UserID{}, id.EventID{}, false
	}
	return userID, eventID, true
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error, args ...any) {
	attrs := append([]any{"request_id", requestcontext.RequestID(ctx), "error", err}, args...)
	if de, ok := dErrors.As(err); ok && dErrors.ToHTTPStatus(de.Code) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, attrs...)
		return
	}
	h.logger.ErrorContext(ctx, msg, attrs...)
}
