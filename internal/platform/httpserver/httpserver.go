package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with timeouts suited to this API: document
// verification requests can legitimately take several seconds while OCR and
// the external provider run, so the write timeout stays generous.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
