package roles

import (
	"strings"
	"time"
)

// Role is a named bundle of permission strings.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UserRole links one user to one role.
type UserRole struct {
	UserID     int64     `json:"userId"`
	RoleID     int64     `json:"roleId"`
	AssignedAt time.Time `json:"assignedAt"`
}

// CreateRoleRequest is the payload for POST /roles.
type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=50"`
	Permissions []string `json:"permissions" validate:"omitempty,unique,dive,required"`
}

// UpdateRoleRequest is the payload for PUT /roles/{id}. Absent fields stay
// untouched.
type UpdateRoleRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=2,max=50"`
	Permissions *[]string `json:"permissions"`
}

// AssignRoleRequest is the payload for POST /roles/assign-role.
type AssignRoleRequest struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
	RoleID int64 `json:"roleId" validate:"required,gt=0"`
}

// Patch lists the columns an update may touch. Nil means unchanged.
type Patch struct {
	Name        *string
	Permissions []string
}

// trimPermissions trims each entry. The result is never nil.
func trimPermissions(perms []string) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
