package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"lifelink/internal/notify"
	"lifelink/pkg/domain"
	"lifelink/pkg/platform/httputil"
	"lifelink/pkg/requestcontext"
)

// Service defines the notification operations the handler exposes.
type Service interface {
	ListForRequisition(ctx context.Context, requisitionID domain.RequisitionID) ([]notify.Notification, error)
	ListForDonor(ctx context.Context, donorID domain.DonorID, page, limit int) ([]notify.Notification, error)
	MarkDelivered(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) error
	MarkRead(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) error
}

// Handler wires notification endpoints to the notification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a notification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts notification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/requisitions/{requisitionID}/notifications", h.HandleListForRequisition)
	r.Get("/donors/{donorID}/notifications", h.HandleListForDonor)
	r.Post("/requisitions/{requisitionID}/notifications/{donorID}/delivered", h.HandleMarkDelivered)
	r.Post("/requisitions/{requisitionID}/notifications/{donorID}/read", h.HandleMarkRead)
}

// NotificationResponse is the HTTP shape of one notification record.
type NotificationResponse struct {
	RequisitionID string    `json:"requisition_id"`
	DonorID       string    `json:"donor_id"`
	Message       string    `json:"message"`
	Status        string    `json:"status"`
	NotifiedAt    time.Time `json:"notified_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func fromNotifications(ns []notify.Notification) []NotificationResponse {
	out := make([]NotificationResponse, len(ns))
	for i, n := range ns {
		out[i] = NotificationResponse{
			RequisitionID: n.RequisitionID.String(),
			DonorID:       n.DonorID.String(),
			Message:       n.Message,
			Status:        string(n.Status),
			NotifiedAt:    n.NotifiedAt,
			UpdatedAt:     n.UpdatedAt,
		}
	}
	return out
}

// HandleListForRequisition handles GET /requisitions/{id}/notifications.
func (h *Handler) HandleListForRequisition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requisitionID, err := domain.ParseRequisitionID(chi.URLParam(r, "requisitionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out, err := h.service.ListForRequisition(ctx, requisitionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromNotifications(out))
}

// HandleListForDonor handles GET /donors/{donorID}/notifications.
func (h *Handler) HandleListForDonor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donorID, err := domain.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out, err := h.service.ListForDonor(ctx, donorID, queryInt(r, "page", 1), queryInt(r, "limit", 20))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromNotifications(out))
}

// HandleMarkDelivered handles the delivery receipt callback.
func (h *Handler) HandleMarkDelivered(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.service.MarkDelivered)
}

// HandleMarkRead handles the read receipt callback.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.service.MarkRead)
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.RequisitionID, domain.DonorID) error) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	requisitionID, err := domain.ParseRequisitionID(chi.URLParam(r, "requisitionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	donorID, err := domain.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := op(ctx, requisitionID, donorID); err != nil {
		h.logger.WarnContext(ctx, "notification receipt rejected",
			"request_id", requestID,
			"requisition_id", requisitionID,
			"donor_id", donorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
