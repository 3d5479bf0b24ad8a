package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache consults the cache first and falls back to the loader
// on a miss, caching whatever the loader returns.
type ReadThroughCache[K ~string, V any, I any] struct {
	cache     CacheManager[K, V]
	load      func(ctx context.Context, input I) (V, error)
	skipCache bool
}

// NewReadThroughCache wires a cache in front of a loader. With skipCache
// set every read goes straight to the loader, which keeps the call shape
// identical when caching is disabled by configuration.
func NewReadThroughCache[K ~string, V any, I any](
	cache CacheManager[K, V],
	load func(ctx context.Context, input I) (V, error),
	skipCache bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache:     cache,
		load:      load,
		skipCache: skipCache,
	}
}

// Get returns the cached value for key or loads, caches, and returns it.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.skipCache {
		return r.load(ctx, input)
	}

	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}

	value, err := r.load(ctx, input)
	if err != nil {
		return value, err
	}

	r.cache.Set(ctx, key, value, ttl)
	return value, nil
}

// Invalidate drops the cached entries for the given keys, forcing the
// next Get to hit the loader.
func (r *ReadThroughCache[K, V, I]) Invalidate(ctx context.Context, keys ...K) {
	if r.skipCache {
		return
	}
	r.cache.Delete(ctx, keys...)
}

// Flush drops every cached entry.
func (r *ReadThroughCache[K, V, I]) Flush(ctx context.Context) {
	if r.skipCache {
		return
	}
	r.cache.Flush(ctx)
}
