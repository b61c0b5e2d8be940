package analytics

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// share collapses concurrent calls for key into one execution. A caller
// whose ctx ends stops waiting; the shared call keeps running for the rest.
func share[T any](ctx context.Context, group *singleflight.Group, key string, fn func(context.Context) (T, error)) (T, error, bool) {
	resultChan := group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err(), false
	case res := <-resultChan:
		if res.Err != nil {
			var zero T
			return zero, res.Err, res.Shared
		}
		return res.Val.(T), nil, res.Shared
	}
}
