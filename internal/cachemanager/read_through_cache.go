package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache loads values with fn on a miss and stores them.
type ReadThroughCache[K comparable, V any, I any] struct {
	cache     CacheManager[K, V]
	fn        func(ctx context.Context, input I) (V, error)
	skipCache bool
}

// NewReadThroughCache wraps cache. With skipCache set every Get calls fn.
func NewReadThroughCache[K comparable, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
	skipCache bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{cache: cache, fn: fn, skipCache: skipCache}
}

// Get returns the cached value for key or loads it from input.
// Errors are never cached.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.skipCache {
		return r.fn(ctx, input)
	}
	if v, ok := r.cache.Get(ctx, key); ok {
		return v, nil
	}
	return r.load(ctx, key, input, ttl)
}

// Reload always calls fn and replaces the cached value.
func (r *ReadThroughCache[K, V, I]) Reload(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.skipCache {
		return r.fn(ctx, input)
	}
	return r.load(ctx, key, input, ttl)
}

// Peek returns the cached value without loading.
func (r *ReadThroughCache[K, V, I]) Peek(ctx context.Context, key K) (V, bool) {
	if r.skipCache {
		var zero V
		return zero, false
	}
	return r.cache.Get(ctx, key)
}

func (r *ReadThroughCache[K, V, I]) load(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	v, err := r.fn(ctx, input)
	if err != nil {
		return v, err
	}
	r.cache.Set(ctx, key, v, ttl)
	return v, nil
}
