// Package httputil centralizes JSON encoding and error mapping for HTTP
// handlers so every endpoint surfaces the same stable error codes.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "lifelink/pkg/domain-errors"
)

// errorResponse is the wire shape for all failures.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Validatable is implemented by request DTOs that parse and validate
// themselves after JSON decoding.
type Validatable interface {
	Validate() error
}

// WriteJSON encodes v with the given status. Encoding failures are logged by
// net/http; by then the status line has already been sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps a domain error to an HTTP status and a stable error code.
// Internal errors omit the description so store details never leak to callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if ok := asDomainError(err, &de); ok {
			resp.ErrorDescription = de.Message
		}
	}
	WriteJSON(w, statusFor(code), resp)
}

func asDomainError(err error, target **dErrors.Error) bool {
	for err != nil {
		if de, ok := err.(*dErrors.Error); ok {
			*target = de
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// statusFor is the single source of truth for code-to-status mapping.
func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeInvalidTransition,
		dErrors.CodeNotNotified, dErrors.CodeRequisitionNotActive:
		return http.StatusConflict
	case dErrors.CodeNoEligibleDonors:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DecodeAndPrepare decodes a JSON body into T and runs its validation,
// writing the error response itself on failure. Handlers just check ok.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "request body decode failed",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body must be valid JSON"))
		return nil, false
	}
	pt := PT(&req)
	if err := pt.Validate(); err != nil {
		WriteError(w, err)
		return nil, false
	}
	return pt, true
}
