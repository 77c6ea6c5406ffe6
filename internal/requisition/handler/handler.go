package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"lifelink/internal/match"
	"lifelink/internal/requisition"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/platform/httputil"
	"lifelink/pkg/requestcontext"
)

// Lifecycle defines the requisition operations the handler exposes.
type Lifecycle interface {
	Create(ctx context.Context, in requisition.CreateInput) (*requisition.Requisition, error)
	Get(ctx context.Context, id domain.RequisitionID) (*requisition.Requisition, error)
	Cancel(ctx context.Context, id domain.RequisitionID, requesterID domain.RequesterID) error
	MarkFulfilled(ctx context.Context, id domain.RequisitionID, requesterID domain.RequesterID) error
	ListByRequester(ctx context.Context, requesterID domain.RequesterID, page, limit int) ([]requisition.Requisition, error)
	Discover(ctx context.Context, donorID domain.DonorID, page, limit int) ([]requisition.Requisition, error)
}

// Matcher runs the donor matching pipeline for a requisition.
type Matcher interface {
	Run(ctx context.Context, requisitionID domain.RequisitionID, message string) (*match.Result, error)
}

// Handler wires requisition endpoints to the lifecycle service and matcher.
type Handler struct {
	service Lifecycle
	matcher Matcher
	logger  *slog.Logger
}

// New constructs a requisition handler with its dependencies.
func New(service Lifecycle, matcher Matcher, logger *slog.Logger) *Handler {
	return &Handler{service: service, matcher: matcher, logger: logger}
}

// Register mounts requisition endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/requisitions", h.HandleCreate)
	r.Get("/requisitions", h.HandleListByRequester)
	r.Get("/requisitions/{requisitionID}", h.HandleGet)
	r.Post("/requisitions/{requisitionID}/cancel", h.HandleCancel)
	r.Post("/requisitions/{requisitionID}/fulfill", h.HandleFulfill)
	r.Post("/requisitions/{requisitionID}/match", h.HandleMatch)
	r.Get("/donors/{donorID}/feed", h.HandleDiscover)
}

// HandleCreate handles POST /requisitions requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.Create(ctx, req.Input())
	if err != nil {
		h.logger.ErrorContext(ctx, "requisition create failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "requisition created",
		"request_id", requestID,
		"requisition_id", created.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRequisition(created))
}

// HandleGet handles GET /requisitions/{requisitionID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseRequisitionID(chi.URLParam(r, "requisitionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequisition(req))
}

// HandleListByRequester handles GET /requisitions?requester_id=... requests.
func (h *Handler) HandleListByRequester(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requesterID, err := domain.ParseRequesterID(r.URL.Query().Get("requester_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "requester_id query parameter is required"))
		return
	}

	out, err := h.service.ListByRequester(ctx, requesterID, queryInt(r, "page", 1), queryInt(r, "limit", 20))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequisitions(out))
}

// HandleCancel handles POST /requisitions/{requisitionID}/cancel requests.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Cancel, "cancel")
}

// HandleFulfill handles POST /requisitions/{requisitionID}/fulfill requests.
func (h *Handler) HandleFulfill(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.MarkFulfilled, "fulfill")
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.RequisitionID, domain.RequesterID) error, name string) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseRequisitionID(chi.URLParam(r, "requisitionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := op(ctx, id, req.ParsedRequesterID()); err != nil {
		h.logger.WarnContext(ctx, "requisition transition rejected",
			"request_id", requestID,
			"requisition_id", id,
			"operation", name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequisition(updated))
}

// HandleMatch handles POST /requisitions/{requisitionID}/match requests.
func (h *Handler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	id, err := domain.ParseRequisitionID(chi.URLParam(r, "requisitionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// The body is optional: an empty or absent one means the standard
	// alert text.
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body must be valid JSON"))
		return
	}

	res, err := h.matcher.Run(ctx, id, strings.TrimSpace(req.Message))
	if err != nil {
		h.logger.WarnContext(ctx, "matching run failed",
			"request_id", requestID,
			"requisition_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "matching run served",
		"request_id", requestID,
		"requisition_id", id,
		"notified", res.Notify.Notified,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromMatchResult(res))
}

// HandleDiscover handles GET /donors/{donorID}/feed requests.
func (h *Handler) HandleDiscover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donorID, err := domain.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out, err := h.service.Discover(ctx, donorID, queryInt(r, "page", 1), queryInt(r, "limit", 20))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRequisitions(out))
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
