package ratelimit

import (
	"context"
	"strings"
	"time"
)

// Login attempt defaults.
const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
)

// Limiter enforces at most limit attempts per key inside window.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

// NewLimiter constructs a Limiter. Non-positive values fall back to defaults.
func NewLimiter(store Store, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow records an attempt for key and reports whether it may proceed.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	return l.store.Hit(ctx, key, l.limit, l.window)
}

// Reset clears the attempts for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, key)
}

// Window returns the accounting window.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// LoginKey composes the limiter key from the submitted email and the
// caller's network identity.
func LoginKey(email, clientIP string) string {
	return strings.TrimSpace(email) + ":" + strings.TrimSpace(clientIP)
}
