package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
	audit "beacon/pkg/platform/audit"
	"beacon/pkg/platform/httputil"
	"beacon/pkg/requestcontext"
)

// Service defines the audit history queries the handler needs.
type Service interface {
	RecordHistory(ctx context.Context, requester id.UserID, table audit.Table, recordID string) ([]audit.Entry, error)
	MyHistory(ctx context.Context, requester id.UserID, since time.Time) ([]audit.Entry, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/records/{table}/{recordId}", h.HandleRecordHistory)
	r.Get("/audit/me", h.HandleMyHistory)
}

// EntriesResponse lists audit entries oldest first.
type EntriesResponse struct {
	Entries []audit.Entry `json:"entries"`
}

// HandleRecordHistory handles GET /audit/records/{table}/{recordId}.
func (h *Handler) HandleRecordHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	table, ok := audit.ParseTable(chi.URLParam(r, "table"))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown table"))
		return
	}

	entries, err := h.service.RecordHistory(ctx, userID, table, chi.URLParam(r, "recordId"))
	if err != nil {
		h.logger.WarnContext(ctx, "record history failed",
			"request_id", requestcontext.RequestID(ctx),
			"table", string(table),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	writeEntries(w, entries)
}

// HandleMyHistory handles GET /audit/me?since=RFC3339.
func (h *Handler) HandleMyHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "since must be an RFC3339 timestamp"))
			return
		}
		since = parsed
	}

	entries, err := h.service.MyHistory(ctx, userID, since)
	if err != nil {
		h.logger.ErrorContext(ctx, "my history failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	writeEntries(w, entries)
}

func writeEntries(w http.ResponseWriter, entries []audit.Entry) {
	if entries == nil {
		entries = []audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, EntriesResponse{Entries: entries})
}
