package users

import "github.com/backoffice/superadmin/internal/shared"

var (
	// ErrUserNotFound is returned when the target user does not exist.
	ErrUserNotFound = shared.NotFound("user not found")
	// ErrEmailExists is returned when the email is taken by another user.
	ErrEmailExists = shared.Conflict("email already exists")
	// ErrRolesMissing is returned when a submitted role id does not exist.
	ErrRolesMissing = shared.Validation("some roles do not exist")
	// ErrPasswordTooLong is returned when a password exceeds 72 bytes.
	ErrPasswordTooLong = shared.Validation("password must be at most 72 bytes long")
	// ErrInvalidID is returned for a malformed user id.
	ErrInvalidID = shared.Validation("invalid user id")
)
