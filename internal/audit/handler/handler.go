package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lifelink/internal/audit"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/platform/httputil"
)

// Store reads the audit trail.
type Store interface {
	ListByRequisition(ctx context.Context, id domain.RequisitionID) ([]audit.Event, error)
}

// Handler exposes the per-requisition audit trail.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// New constructs an audit handler with its dependencies.
func New(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/requisitions/{requisitionID}/audit", h.HandleList)
}

// EventResponse is the HTTP shape of one audit event.
type EventResponse struct {
	Actor      string    `json:"actor,omitempty"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// HandleList handles GET /requisitions/{requisitionID}/audit requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseRequisitionID(chi.URLParam(r, "requisitionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.store.ListByRequisition(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit trail read failed",
			"requisition_id", id,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit trail"))
		return
	}

	out := make([]EventResponse, len(events))
	for i, e := range events {
		out[i] = EventResponse{
			Actor:      e.Actor,
			Action:     string(e.Action),
			Detail:     e.Detail,
			OccurredAt: e.Timestamp,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
