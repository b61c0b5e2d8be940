// Package analytics serves the superadmin dashboard summary. Results are
// cached in Redis under a versioned key that user and role mutations bump.
package analytics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

const summaryKey = "summary"

// Service coordinates aggregation with the cache layer.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewService wires a Repository with a Cache helper. cache may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// WithClock overrides the service clock for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Summary returns the cached summary or computes it. Concurrent misses share
// one aggregation. Cache failures degrade to a direct read.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	key, err := s.cache.BuildKey(ctx, summaryKey)
	if err != nil {
		s.logger.Warn("analytics cache version", slog.Any("error", err))
		return s.compute(ctx)
	}
	summary, err, _ := share(ctx, &s.group, key, func(ctx context.Context) (Summary, error) {
		var (
			out     Summary
			loadErr error
		)
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			v, err := s.compute(ctx)
			loadErr = err
			return v, err
		})
		if err != nil && loadErr == nil {
			s.logger.Warn("analytics cache fetch", slog.String("key", key), slog.Any("error", err))
			return s.compute(ctx)
		}
		return out, err
	})
	return summary, err
}

// Refresh recomputes the summary and overwrites the current cache entry.
func (s *Service) Refresh(ctx context.Context) (Summary, error) {
	if s.cache == nil {
		return s.compute(ctx)
	}
	key, err := s.cache.BuildKey(ctx, summaryKey)
	if err != nil {
		return Summary{}, err
	}
	var out Summary
	err = s.cache.Store(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.compute(ctx)
	})
	return out, err
}

// Bump invalidates cached summaries.
func (s *Service) Bump(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) compute(ctx context.Context) (Summary, error) {
	if s.repo == nil {
		return Summary{}, errors.New("analytics: repository not configured")
	}
	now := s.now()
	counts, err := s.repo.Counts(ctx, now.Add(-ActivityWindow))
	if err != nil {
		return Summary{}, err
	}
	return counts.summary(now), nil
}
