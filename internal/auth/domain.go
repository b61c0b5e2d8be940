package auth

import "time"

// User is the credential view of an account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	LastLogin    *time.Time
}

// LoginInput carries submitted credentials together with the caller's
// network identity.
type LoginInput struct {
	Email    string
	Password string
	ClientIP string
}

// UserSummary is the minimal user view returned by login.
type UserSummary struct {
	ID    int64    `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserSummary `json:"user"`
}
