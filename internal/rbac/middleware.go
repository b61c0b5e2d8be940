// Package rbac enforces role membership on top of an authenticated principal.
package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/backoffice/superadmin/internal/platform/httpx"
	"github.com/backoffice/superadmin/internal/shared"
)

var (
	// ErrNoPrincipal is returned when no authenticated principal is present.
	ErrNoPrincipal = shared.NewError(shared.ErrUnauthorized, "unauthorized")
	// ErrRoleRequired is returned when the principal lacks the role.
	ErrRoleRequired = shared.NewError(shared.ErrForbidden, "superadmin role required")
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// Check reports whether the request principal carries any of roles.
func Check(r *http.Request, roles ...string) error {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		return ErrNoPrincipal
	}
	for _, role := range roles {
		if principal.HasRole(role) {
			return nil
		}
	}
	return ErrRoleRequired
}

// RequireRole ensures the current principal has at least one of roles.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	normalized := shared.NormalizeRoles(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := Check(r, normalized...); err != nil {
				if m.Logger != nil {
					p, _ := shared.PrincipalFromContext(r.Context())
					m.Logger.Info("rbac deny",
						slog.Int64("user_id", p.UserID),
						slog.String("required", strings.Join(normalized, ",")),
						slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
