// Package cachemanager provides typed caches over patrickmn/go-cache. The
// registry client uses it to remember image descriptors between the pull and
// push of a promotion.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a typed key/value cache with per-entry TTL.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}

// Stats counts cache lookups.
type Stats struct {
	Hits   int64
	Misses int64
}
