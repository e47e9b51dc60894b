package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatekeep-io/gatekeep/internal/audit"
	"github.com/gatekeep-io/gatekeep/internal/authz"
	"github.com/gatekeep-io/gatekeep/internal/catalog"
	"github.com/gatekeep-io/gatekeep/internal/observability"
	"github.com/gatekeep-io/gatekeep/internal/roles"
)

// Permission names gating the administrative API itself.
const (
	PermRolesRead   = "roles:read"
	PermRolesManage = "roles:manage"
	PermAuditRead   = "audit:read"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	RolesHandler   *roles.Handler
	CatalogHandler *catalog.Handler
	AuthzHandler   *authz.Handler
	AuditHandler   *audit.Handler
	Authz          authz.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Gatekeep defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}
	r.Use(params.Authz.FromHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/authz", func(r chi.Router) {
			params.AuthzHandler.MountRoutes(r)
		})
		r.Route("/permissions", func(r chi.Router) {
			r.Use(params.Authz.Require(PermRolesRead))
			params.CatalogHandler.MountRoutes(r)
		})
		r.Route("/roles", func(r chi.Router) {
			r.Use(params.Authz.Require(PermRolesManage))
			params.RolesHandler.MountRoutes(r)
		})
		r.Route("/audit", func(r chi.Router) {
			r.Use(params.Authz.Require(PermAuditRead))
			params.AuditHandler.MountRoutes(r)
		})
	})

	return r
}
