package http

import (
	"net/http"

	"github.com/google/uuid"

	"lifelink/pkg/requestcontext"
)

const requestIDHeader = "X-Request-ID"

// requestScope stamps every request with an ID and a pinned timestamp.
// Pinning time once per request keeps eligibility and expiry checks
// consistent across every store call the request makes.
func requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, requestcontext.Now(ctx))

		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
