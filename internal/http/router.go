// Package httpapi assembles the service's HTTP surface: middleware chain,
// operational endpoints, and the versioned API routes.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veritas/internal/platform/metrics"
	"veritas/internal/ratelimit"
	"veritas/pkg/platform/httputil"
	"veritas/pkg/platform/middleware/auth"
	"veritas/pkg/platform/middleware/requestid"
	"veritas/pkg/platform/middleware/requesttime"
)

// Registrar mounts a feature's routes on the API router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Config carries everything the router needs.
type Config struct {
	Logger   *slog.Logger
	Metrics  *metrics.HTTPMetrics
	Auth     auth.Config
	Limiter  ratelimit.Limiter
	Timeout  time.Duration
	Handlers []Registrar
	// Checks maps dependency names to their health probes.
	Checks map[string]HealthCheck
}

// NewRouter builds the full middleware chain and mounts all routes.
// Operational endpoints stay outside the auth boundary.
func NewRouter(cfg Config) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	if cfg.Timeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Timeout))
	}

	r.Get("/healthz", handleHealth(cfg.Checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(api chi.Router) {
		api.Use(auth.RequireAuth(cfg.Auth, cfg.Logger))
		if cfg.Limiter != nil {
			api.Use(ratelimit.Middleware(cfg.Limiter, cfg.Logger))
		}
		for _, h := range cfg.Handlers {
			h.Register(api)
		}
	})

	return r
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(deps) > 0 {
			body["dependencies"] = deps
		}
		httputil.WriteJSON(w, status, body)
	}
}
