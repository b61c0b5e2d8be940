package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/backoffice/superadmin/internal/platform/httpx"
	"github.com/backoffice/superadmin/internal/shared"
)

// RoleLoader resolves a user's current role names from storage.
type RoleLoader interface {
	RoleNames(ctx context.Context, userID int64) ([]string, error)
}

// Gate verifies bearer tokens and exposes the principal to handlers.
type Gate struct {
	tokens *TokenIssuer
	roles  RoleLoader
	logger *slog.Logger
}

// NewGate constructs a Gate. The roles claim is trusted as issued until
// WithRoleRevalidation is applied.
func NewGate(tokens *TokenIssuer, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{tokens: tokens, logger: logger}
}

// WithRoleRevalidation makes the gate replace the token's roles with the
// roles currently stored for the user on every request.
func (g *Gate) WithRoleRevalidation(loader RoleLoader) *Gate {
	g.roles = loader
	return g
}

// Authorize resolves the principal carried by the request.
func (g *Gate) Authorize(r *http.Request) (shared.Principal, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return shared.Principal{}, ErrMissingToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return shared.Principal{}, ErrMalformedToken
	}
	principal, err := g.tokens.Verify(parts[1])
	if err != nil {
		return shared.Principal{}, err
	}
	if g.roles != nil {
		roles, err := g.roles.RoleNames(r.Context(), principal.UserID)
		if err != nil {
			return shared.Principal{}, err
		}
		principal.Roles = shared.NormalizeRoles(roles)
	}
	return principal, nil
}

// Authenticate rejects requests without a valid token.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.Authorize(r)
		if err != nil {
			if httpx.StatusFor(err) == http.StatusInternalServerError {
				g.logger.Error("authorize request", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}
