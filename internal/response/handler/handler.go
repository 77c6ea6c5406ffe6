package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"lifelink/internal/response"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/platform/httputil"
	"lifelink/pkg/requestcontext"
)

// Aggregator defines the response operations the handler exposes.
type Aggregator interface {
	Record(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID, kind response.Kind, message string) (*response.Ack, error)
	Get(ctx context.Context, requisitionID domain.RequisitionID, donorID domain.DonorID) (*response.Response, error)
	ListForRequisition(ctx context.Context, requisitionID domain.RequisitionID) ([]response.Response, error)
}

// Handler wires response endpoints to the aggregator.
type Handler struct {
	aggregator Aggregator
	logger     *slog.Logger
}

// New constructs a response handler with its dependencies.
func New(aggregator Aggregator, logger *slog.Logger) *Handler {
	return &Handler{aggregator: aggregator, logger: logger}
}

// Register mounts response endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/requisitions/{requisitionID}/responses", h.HandleRecord)
	r.Get("/requisitions/{requisitionID}/responses", h.HandleList)
	r.Get("/requisitions/{requisitionID}/responses/{donorID}", h.HandleGet)
}

// RecordRequest is the body for POST /requisitions/{id}/responses.
type RecordRequest struct {
	DonorID  string `json:"donor_id"`
	Response string `json:"response"`
	Message  string `json:"message,omitempty"`

	parsedDonor domain.DonorID
	parsedKind  response.Kind
}

// Validate parses and validates the request.
func (r *RecordRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	donorID, err := domain.ParseDonorID(strings.TrimSpace(r.DonorID))
	if err != nil {
		return err
	}
	r.parsedDonor = donorID

	kind, err := response.ParseKind(strings.TrimSpace(r.Response))
	if err != nil {
		return err
	}
	r.parsedKind = kind
	return nil
}

// AckResponse is the HTTP response for a recorded answer.
type AckResponse struct {
	Response      string `json:"response"`
	WillingDonors int    `json:"willing_donors"`
	Fulfilled     bool   `json:"fulfilled"`
}

// ResponseBody is the HTTP shape of one recorded response.
type ResponseBody struct {
	RequisitionID string    `json:"requisition_id"`
	DonorID       string    `json:"donor_id"`
	Response      string    `json:"response"`
	Message       string    `json:"message,omitempty"`
	RespondedAt   time.Time `json:"responded_at"`
}

func fromResponse(r *response.Response) ResponseBody {
	return ResponseBody{
		RequisitionID: r.RequisitionID.String(),
		DonorID:       r.DonorID.String(),
		Response:      string(r.Kind),
		Message:       r.Message,
		RespondedAt:   r.RespondedAt,
	}
}

// HandleRecord handles POST /requisitions/{requisitionID}/responses requests.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	requisitionID, err := domain.ParseRequisitionID(chi.URLParam(r, "requisitionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[RecordRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	ack, err := h.aggregator.Record(ctx, requisitionID, req.parsedDonor, req.parsedKind, req.Message)
	if err != nil {
		h.logger.WarnContext(ctx, "response rejected",
			"request_id", requestID,
			"requisition_id", requisitionID,
			"donor_id", req.parsedDonor,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, AckResponse{
		Response:      string(ack.Kind),
		WillingDonors: ack.WillingDonors,
		Fulfilled:     ack.Fulfilled,
	})
}

// HandleList handles GET /requisitions/{requisitionID}/responses requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requisitionID, err := domain.ParseRequisitionID(chi.URLParam(r, "requisitionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out, err := h.aggregator.ListForRequisition(ctx, requisitionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bodies := make([]ResponseBody, len(out))
	for i := range out {
		bodies[i] = fromResponse(&out[i])
	}
	httputil.WriteJSON(w, http.StatusOK, bodies)
}

// HandleGet handles GET /requisitions/{requisitionID}/responses/{donorID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

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

	resp, err := h.aggregator.Get(ctx, requisitionID, donorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromResponse(resp))
}
