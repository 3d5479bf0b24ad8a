package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCachedRepository_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestStore(t))
	cached := NewCachedRepository(repo, false)

	snap := &Snapshot{Name: "baseline", Records: testRecords("Alice")}
	require.NoError(t, cached.Save(ctx, snap))

	first, err := cached.FindByGUID(ctx, snap.GUID)
	require.NoError(t, err)
	second, err := cached.FindByGUID(ctx, snap.GUID)
	require.NoError(t, err)
	require.Same(t, first, second, "repeat read comes from the cache")
}

func TestCachedRepository_SaveInvalidates(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestStore(t))
	cached := NewCachedRepository(repo, false)

	snap := &Snapshot{Name: "baseline", Records: testRecords("Alice")}
	require.NoError(t, cached.Save(ctx, snap))
	_, err := cached.FindByGUID(ctx, snap.GUID)
	require.NoError(t, err)

	snap.Records = testRecords("Bob")
	require.NoError(t, cached.Save(ctx, snap))

	reloaded, err := cached.FindByGUID(ctx, snap.GUID)
	require.NoError(t, err)
	require.Equal(t, "Bob", reloaded.Records[1].Properties["name"])
}

func TestCachedRepository_DeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestStore(t))
	cached := NewCachedRepository(repo, false)

	snap := &Snapshot{Name: "baseline", Records: testRecords("Alice")}
	require.NoError(t, cached.Save(ctx, snap))
	_, err := cached.FindByGUID(ctx, snap.GUID)
	require.NoError(t, err)

	require.NoError(t, cached.Delete(ctx, snap.GUID))
	_, err = cached.FindByGUID(ctx, snap.GUID)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestCachedRepository_InvalidateAll(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewRepository(store)
	cached := NewCachedRepository(repo, false)

	snap := &Snapshot{Name: "baseline", Records: testRecords("Alice")}
	require.NoError(t, cached.Save(ctx, snap))
	_, err := cached.FindByGUID(ctx, snap.GUID)
	require.NoError(t, err)

	// External write through a second repository handle.
	other := NewRepository(store)
	loaded, err := other.FindByGUID(snap.GUID)
	require.NoError(t, err)
	loaded.Records = testRecords("Mallory")
	require.NoError(t, other.Save(loaded))

	cached.InvalidateAll(ctx)
	reloaded, err := cached.FindByGUID(ctx, snap.GUID)
	require.NoError(t, err)
	require.Equal(t, "Mallory", reloaded.Records[1].Properties["name"])
}
