package users

import (
	"strings"

	"github.com/backoffice/superadmin/internal/shared"
)

// CreateUserRequest is the payload for POST /users.
type CreateUserRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=50"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72,strongpassword"`
	RoleIDs  []int64 `json:"roleIds" validate:"omitempty,dive,gt=0"`
}

// UpdateUserRequest is the payload for PUT /users/{id}. Absent fields stay
// untouched. An empty password means no change. RoleIDs replaces the role
// set when present, an empty list removes every role.
type UpdateUserRequest struct {
	Name     *string  `json:"name" validate:"omitempty,min=2,max=50"`
	Email    *string  `json:"email" validate:"omitempty,email"`
	Password *string  `json:"password" validate:"omitempty,min=8,max=72,strongpassword"`
	RoleIDs  *[]int64 `json:"roleIds" validate:"omitempty"`
}

func (r *CreateUserRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = shared.NormalizeEmail(r.Email)
}

func (r *UpdateUserRequest) normalize() {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
	if r.Email != nil {
		email := shared.NormalizeEmail(*r.Email)
		r.Email = &email
	}
	if r.Password != nil && *r.Password == "" {
		r.Password = nil
	}
}

// auditDetails is the update payload as recorded in the audit trail, with
// the password reduced to a flag.
func (r UpdateUserRequest) auditDetails() map[string]any {
	details := map[string]any{"passwordChanged": r.Password != nil}
	if r.Name != nil {
		details["name"] = *r.Name
	}
	if r.Email != nil {
		details["email"] = *r.Email
	}
	if r.RoleIDs != nil {
		details["roleIds"] = *r.RoleIDs
	}
	return details
}

// dedupeIDs drops duplicates keeping first occurrence. A nil input stays nil.
func dedupeIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
