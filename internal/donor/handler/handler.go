package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"lifelink/internal/bloodtype"
	"lifelink/internal/donor"
	"lifelink/pkg/domain"
	dErrors "lifelink/pkg/domain-errors"
	"lifelink/pkg/platform/httputil"
	"lifelink/pkg/requestcontext"
)

// Directory defines the donor operations the handler exposes.
type Directory interface {
	SaveProfile(ctx context.Context, p donor.Profile) error
	GetProfile(ctx context.Context, id domain.DonorID) (*donor.Profile, error)
	FindCandidates(ctx context.Context, requiredGroup bloodtype.Group, location string, limit int) ([]donor.Candidate, error)
	RecordDonation(ctx context.Context, donorID domain.DonorID, date time.Time, location domain.Location, units int, notes string) (*donor.Donation, error)
	ListDonations(ctx context.Context, donorID domain.DonorID) ([]donor.Donation, error)
}

// Handler wires donor endpoints to the directory service.
type Handler struct {
	directory Directory
	logger    *slog.Logger
}

// New constructs a donor handler with its dependencies.
func New(directory Directory, logger *slog.Logger) *Handler {
	return &Handler{directory: directory, logger: logger}
}

// Register mounts donor endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/donors/search", h.HandleSearch)
	r.Put("/donors/{donorID}", h.HandleSaveProfile)
	r.Get("/donors/{donorID}", h.HandleGetProfile)
	r.Post("/donors/{donorID}/donations", h.HandleRecordDonation)
	r.Get("/donors/{donorID}/donations", h.HandleListDonations)
}

// HandleSaveProfile handles PUT /donors/{donorID} requests.
func (h *Handler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	donorID, err := domain.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[SaveProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.directory.SaveProfile(ctx, req.Profile(donorID)); err != nil {
		h.logger.ErrorContext(ctx, "profile save failed",
			"request_id", requestID,
			"donor_id", donorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.directory.GetProfile(ctx, donorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProfile(profile))
}

// HandleGetProfile handles GET /donors/{donorID} requests.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donorID, err := domain.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.directory.GetProfile(ctx, donorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromProfile(profile))
}

// HandleSearch handles GET /donors/search requests. blood_group names the
// group the patient needs; the result covers every compatible donor group.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	group, err := bloodtype.Parse(r.URL.Query().Get("blood_group"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "blood_group query parameter is required"))
		return
	}
	limit := queryInt(r, "limit", 50)

	candidates, err := h.directory.FindCandidates(ctx, group, r.URL.Query().Get("location"), limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "donor search failed",
			"request_id", requestID,
			"blood_group", group.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCandidates(candidates))
}

// HandleRecordDonation handles POST /donors/{donorID}/donations requests.
func (h *Handler) HandleRecordDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	donorID, err := domain.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[RecordDonationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	donation, err := h.directory.RecordDonation(ctx, donorID, req.ParsedDate(), req.Location(), req.Units, req.Notes)
	if err != nil {
		h.logger.ErrorContext(ctx, "donation record failed",
			"request_id", requestID,
			"donor_id", donorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "donation recorded",
		"request_id", requestID,
		"donor_id", donorID,
		"units", req.Units,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromDonation(donation))
}

// HandleListDonations handles GET /donors/{donorID}/donations requests.
func (h *Handler) HandleListDonations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donorID, err := domain.ParseDonorID(chi.URLParam(r, "donorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	donations, err := h.directory.ListDonations(ctx, donorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDonations(donations))
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
