package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Timeouts stay generous because a matching run
// holds its request open across the notification fan-out and one retry pass.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
