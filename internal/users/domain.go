package users

import "time"

// Role is a role resolved through the user's links.
type Role struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// User is the managed account as exposed to callers. The password hash
// never leaves the repository.
type User struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	LastLogin *time.Time `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Roles     []Role     `json:"roles"`
}

// NewUser is the row inserted on create.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
}

// Patch lists the columns an update may touch. Nil means unchanged.
type Patch struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether the patch changes no column.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil
}
