package roles

import "github.com/backoffice/superadmin/internal/shared"

var (
	// ErrRoleNotFound is returned when the role does not exist.
	ErrRoleNotFound = shared.NotFound("role not found")
	// ErrUserNotFound is returned when assigning to a missing user.
	ErrUserNotFound = shared.NotFound("user not found")
	// ErrRoleExists is returned when the role name is taken.
	ErrRoleExists = shared.Conflict("role name already exists")
	// ErrInvalidID is returned for a malformed role id.
	ErrInvalidID = shared.Validation("invalid role id")
)
