// Package ratelimit counts login attempts per key inside a sliding window.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a single attempt.
type Result struct {
	Allowed bool
	// Count is the number of attempts inside the window, including this one
	// when it was allowed.
	Count int
	// RetryAfter is set when the attempt was denied.
	RetryAfter time.Duration
}

// Store records attempts per key. Implementations must make the
// check-and-record step atomic per key so the cap stays exact under
// concurrent attempts. Denied attempts are not recorded.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
	Reset(ctx context.Context, key string) error
}
