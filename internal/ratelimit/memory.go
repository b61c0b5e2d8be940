package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps attempt timestamps in process memory. Suitable for
// single-process deployments.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	mu   sync.Mutex
	hits []time.Time
	dead bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucket), now: time.Now}
}

// WithClock overrides the time source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	for {
		b := s.bucket(key)
		b.mu.Lock()
		if b.dead {
			// swept between lookup and lock
			b.mu.Unlock()
			continue
		}
		now := s.now()
		b.prune(now.Add(-window))
		if len(b.hits) >= limit {
			retry := b.hits[0].Add(window).Sub(now)
			count := len(b.hits)
			b.mu.Unlock()
			return Result{Allowed: false, Count: count, RetryAfter: retry}, nil
		}
		b.hits = append(b.hits, now)
		count := len(b.hits)
		b.mu.Unlock()
		return Result{Allowed: true, Count: count}, nil
	}
}

// Reset forgets all attempts for key.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buckets[key]; ok {
		b.mu.Lock()
		b.dead = true
		b.mu.Unlock()
		delete(s.buckets, key)
	}
	return nil
}

// Sweep drops keys whose attempts have all left the window.
func (s *MemoryStore) Sweep(window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-window)
	removed := 0
	for key, b := range s.buckets {
		b.mu.Lock()
		b.prune(cutoff)
		if len(b.hits) == 0 {
			b.dead = true
			delete(s.buckets, key)
			removed++
		}
		b.mu.Unlock()
	}
	return removed
}

// Run sweeps expired keys every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, window, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(window)
		}
	}
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

func (s *MemoryStore) bucket(key string) *bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{}
		s.buckets[key] = b
	}
	return b
}

func (b *bucket) prune(cutoff time.Time) {
	i := 0
	for i < len(b.hits) && !b.hits[i].After(cutoff) {
		i++
	}
	if i > 0 {
		b.hits = append(b.hits[:0], b.hits[i:]...)
	}
}

var _ Store = (*MemoryStore)(nil)
