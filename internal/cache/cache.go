// internal/cache/cache.go
package cache

import (
	"context"
	"time"
)

// Cache is the low-latency keyed store the queue and session layers depend
// on. Implementations must make HDel report how many fields were actually
// removed: that count is the atomic claim primitive the matchmaking queue
// relies on to close the double-match race.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	HGet(ctx context.Context, key, field string) (string, bool, error)
	HSet(ctx context.Context, key, field, value string) error
	HDel(ctx context.Context, key, field string) (int64, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	Expire(ctx context.Context, key string, ttl time.Duration) error
}
