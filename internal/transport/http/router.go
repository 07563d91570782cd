// Package httptransport assembles the HTTP surface: health and metrics
// endpoints stay public, everything under /api requires a tenant-scoped
// bearer token.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"govgate/internal/platform/middleware"
	"govgate/pkg/platform/httputil"
)

// Registrar is implemented by every module handler; Register mounts its
// routes on the authenticated API router.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router needs. TenantGate and AdminKey are
// optional; without them the tenant check and the admin surface are skipped.
type Deps struct {
	Logger        *slog.Logger
	Validator     *middleware.TokenValidator
	Version       string
	Handlers      []Registrar
	TenantGate    middleware.TenantChecker
	AdminKey      string
	AdminHandlers []Registrar
}

// NewRouter wires middleware and mounts all module handlers.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestMetadata)
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"version": deps.Version})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		if deps.TenantGate != nil {
			api.Use(middleware.RequireActiveTenant(deps.TenantGate, deps.Logger))
		}
		for _, h := range deps.Handlers {
			h.Register(api)
		}
	})

	if len(deps.AdminHandlers) > 0 {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.RequireAdminKey(deps.AdminKey, deps.Logger))
			for _, h := range deps.AdminHandlers {
				h.Register(admin)
			}
		})
	}

	return r
}
