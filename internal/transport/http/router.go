// Package httptransport is the gateway's HTTP edge: the credential and
// session API plus the catch-all navigation entrypoint.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clubgate/internal/platform/metrics"
	"clubgate/internal/platform/middleware"
)

// HealthCheck probes one backing dependency for the readiness endpoint.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// NewRouter wires the API endpoints and mounts the navigation catch-all
// last, so explicit routes always win.
func NewRouter(h *Handler, logger *slog.Logger, m *metrics.Metrics, checks ...HealthCheck) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", handleHealth(checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
	})

	r.Post("/nav/unload", h.handleUnload)

	r.Route("/session", func(r chi.Router) {
		r.Get("/menus", h.handleMenus)
		r.Get("/permissions/check", h.handlePermissionCheck)
		r.Get("/profile", h.handleProfile)
	})

	r.Get("/", h.serveNavigation)
	r.Get("/*", h.serveNavigation)

	return r
}

func handleHealth(checks []HealthCheck) http.HandlerFunc {
	type response struct {
		Status string            `json:"status"`
		Deps   map[string]string `json:"deps,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := response{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Deps = make(map[string]string, len(checks))
		}
		for _, c := range checks {
			if err := c.Probe(r.Context()); err != nil {
				resp.Deps[c.Name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Deps[c.Name] = "ok"
		}
		writeJSON(w, status, resp)
	}
}
