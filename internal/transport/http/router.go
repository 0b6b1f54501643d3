package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the HTTP surface: verification endpoints, approval
// reads, the manual-review action endpoint, metrics, and health.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/v1/verifications", h.handleVerify)
	r.Post("/v1/verifications/batch", h.handleVerifyBatch)
	r.Get("/v1/entities/{entityID}/approval", h.handleGetApproval)
	r.Post("/v1/entities/{entityID}/review", h.handleReviewAction)
	r.Post("/v1/entities/{entityID}/reopen", h.handleReopen)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
