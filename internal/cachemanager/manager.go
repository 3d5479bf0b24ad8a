// Package cachemanager provides a small generic caching layer used by the
// snapshot store to avoid re-reading unchanged record sets.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is the caching contract the snapshot store depends on.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K)
	Flush(ctx context.Context)
}
