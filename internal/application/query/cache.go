package query

import (
	"context"
	"log/slog"
	"time"
)

// Cache keys for reference data. Application figures are never cached so the
// listing, the counters and the unseen count always read the same rows.
const (
	CacheKeyDashboardReference = "dashboard:reference"
	CacheKeyOpenScholarships   = "scholarships:open"

	ReferenceCacheTTL = 30 * time.Second
)

// Cache stores JSON-serializable values. A miss is reported as an error.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// cachedRead returns the cached value when present, otherwise loads it and
// stores it if load reports the value as cacheable. cache may be nil.
func cachedRead[T any](
	ctx context.Context,
	cache Cache,
	logger *slog.Logger,
	key string,
	load func(context.Context) (T, bool),
) (T, bool) {
	if cache != nil {
		var cached T
		if err := cache.Get(ctx, key, &cached); err == nil {
			return cached, true
		}
	}

	value, ok := load(ctx)
	if ok && cache != nil {
		if err := cache.Set(ctx, key, value, ReferenceCacheTTL); err != nil {
			logger.Debug("cache write skipped", "key", key, "error", err)
		}
	}
	return value, ok
}
