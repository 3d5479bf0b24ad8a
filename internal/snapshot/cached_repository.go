package snapshot

import (
	"context"
	"time"

	"github.com/loomkit/loom/internal/cachemanager"
)

const cacheTTL = 5 * time.Minute

// CachedRepository fronts a Repository with a read-through cache keyed by
// GUID. Writes and deletes invalidate their entry so readers never see a
// stale payload.
type CachedRepository struct {
	repo  *Repository
	cache *cachemanager.ReadThroughCache[string, *Snapshot, string]
}

// NewCachedRepository wires a cache in front of repo. With skipCache set
// every read goes straight to the database.
func NewCachedRepository(repo *Repository, skipCache bool) *CachedRepository {
	manager := cachemanager.NewInMemoryCacheManager[string, *Snapshot](
		"snapshots", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	return &CachedRepository{
		repo: repo,
		cache: cachemanager.NewReadThroughCache[string, *Snapshot, string](
			manager,
			func(ctx context.Context, guid string) (*Snapshot, error) {
				return repo.FindByGUID(guid)
			},
			skipCache,
		),
	}
}

// FindByGUID returns the cached snapshot or loads it from the database.
func (c *CachedRepository) FindByGUID(ctx context.Context, guid string) (*Snapshot, error) {
	return c.cache.Get(ctx, guid, guid, cacheTTL)
}

// Save writes through to the repository and drops the cached entry.
func (c *CachedRepository) Save(ctx context.Context, snap *Snapshot) error {
	if err := c.repo.Save(snap); err != nil {
		return err
	}
	c.cache.Invalidate(ctx, snap.GUID)
	return nil
}

// Delete soft-deletes through to the repository and drops the cached
// entry.
func (c *CachedRepository) Delete(ctx context.Context, guid string) error {
	if err := c.repo.Delete(guid); err != nil {
		return err
	}
	c.cache.Invalidate(ctx, guid)
	return nil
}

// List always reads the database; listings are cheap and must reflect
// deletes immediately.
func (c *CachedRepository) List(filter ListFilter) ([]*Snapshot, error) {
	return c.repo.List(filter)
}

// InvalidateAll drops every cached snapshot, used when the database file
// changed underneath us.
func (c *CachedRepository) InvalidateAll(ctx context.Context) {
	c.cache.Flush(ctx)
}
