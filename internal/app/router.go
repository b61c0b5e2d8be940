package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	analytichttp "github.com/backoffice/superadmin/internal/analytics/http"
	audithttp "github.com/backoffice/superadmin/internal/audit/http"
	"github.com/backoffice/superadmin/internal/auth"
	"github.com/backoffice/superadmin/internal/observability"
	"github.com/backoffice/superadmin/internal/platform/httpx"
	"github.com/backoffice/superadmin/internal/rbac"
	"github.com/backoffice/superadmin/internal/roles"
	"github.com/backoffice/superadmin/internal/users"
	"github.com/backoffice/superadmin/jobs"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Metrics          *observability.Metrics
	Gate             *auth.Gate
	RBACMiddleware   rbac.Middleware
	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	RolesHandler     *roles.Handler
	AuditHandler     *audithttp.Handler
	AnalyticsHandler *analytichttp.Handler
	JobHandler       *jobs.Handler
	HealthChecks     map[string]HealthCheck
}

// NewRouter constructs the chi.Router with API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	if params.Logger == nil {
		params.Logger = slog.Default()
	}

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", healthHandler(params.Logger, params.HealthChecks))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.AuthHandler != nil {
		r.Route("/api/v1/auth", params.AuthHandler.MountRoutes)
	}

	superadminRole := "superadmin"
	if params.Config != nil && params.Config.SuperadminRole != "" {
		superadminRole = params.Config.SuperadminRole
	}

	r.Group(func(r chi.Router) {
		if params.Gate != nil {
			r.Use(params.Gate.Authenticate)
		}
		r.Use(params.RBACMiddleware.RequireRole(superadminRole))

		r.Route("/api/v1/superadmin", func(r chi.Router) {
			if params.UsersHandler != nil {
				r.Route("/users", params.UsersHandler.MountRoutes)
			}
			if params.RolesHandler != nil {
				r.Route("/roles", params.RolesHandler.MountRoutes)
			}
			if params.AuditHandler != nil {
				r.Route("/audit-logs", params.AuditHandler.MountRoutes)
			}
			if params.AnalyticsHandler != nil {
				r.Route("/analytics", params.AnalyticsHandler.MountRoutes)
			}
		})
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}

func healthHandler(logger *slog.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", slog.String("dependency", name), slog.Any("error", err))
				status[name] = "down"
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		httpx.JSON(w, code, status)
	}
}
