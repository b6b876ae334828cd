// Package httptransport assembles the HTTP surface: middleware chain, domain
// routes, health and metrics endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"membergate/internal/platform/middleware"
	"membergate/pkg/platform/httputil"
	"membergate/pkg/platform/middleware/metadata"
	"membergate/pkg/platform/middleware/requesttime"
)

const requestTimeout = 30 * time.Second

// Registerer is implemented by the domain handlers that mount routes.
type Registerer interface {
	Register(r chi.Router)
}

// HealthCheck reports the readiness of one dependency.
type HealthCheck func(ctx context.Context) error

// New builds the router. Health checks run on /healthz; a nil map means the
// process is healthy whenever it can serve.
func New(logger *slog.Logger, checks map[string]HealthCheck, handlers ...Registerer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", healthHandler(checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(r.Context()); err != nil {
					resp.Checks[name] = err.Error()
					resp.Status = "degraded"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}
		httputil.WriteJSON(w, status, resp)
	}
}
