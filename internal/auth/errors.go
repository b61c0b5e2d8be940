package auth

import "github.com/backoffice/superadmin/internal/shared"

// Login and gate failures. Each is a template; returned errors wrap a copy
// and still match with errors.Is.
var (
	ErrMissingCredentials = shared.Validation("email and password are required")
	ErrInvalidCredentials = shared.NewError(shared.ErrInvalidCredentials, "invalid credentials")
	ErrNotSuperadmin      = shared.NewError(shared.ErrForbidden, "superadmin role required")
	ErrTooManyAttempts    = shared.NewError(shared.ErrRateLimited, "too many login attempts, try again later")

	ErrMissingToken   = shared.NewError(shared.ErrUnauthorized, "missing token")
	ErrMalformedToken = shared.NewError(shared.ErrUnauthorized, "invalid token format")
	ErrInvalidToken   = shared.NewError(shared.ErrUnauthorized, "invalid or expired token")
)
