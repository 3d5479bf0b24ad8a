package cmd

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom/internal/snapshot"
)

func TestWatchSnapshots_DropsCacheOnExternalWrite(t *testing.T) {
	withTestConfig(t)
	dbPath := filepath.Join(t.TempDir(), "snapshots.db")
	cfg.Snapshot.DBPath = dbPath

	store, repo, err := openRepository()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	snap := &snapshot.Snapshot{Name: "before", RootID: "node::aaaa1111::-::-"}
	require.NoError(t, repo.Save(ctx, snap))

	// Prime the cache.
	cached, err := repo.FindByGUID(ctx, snap.GUID)
	require.NoError(t, err)
	require.Equal(t, "before", cached.Name)

	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- watchSnapshots(watchCtx, dbPath, repo, 50*time.Millisecond, io.Discard)
	}()

	// Keep writing around the watcher startup race; once a debounced
	// signal lands the stale cache entry is dropped and the read sees
	// the new name.
	require.Eventually(t, func() bool {
		if _, err := store.DB().Exec(
			`UPDATE snapshots SET name = 'after' WHERE guid = ?`, snap.GUID); err != nil {
			return false
		}
		got, err := repo.FindByGUID(ctx, snap.GUID)
		return err == nil && got.Name == "after"
	}, 5*time.Second, 100*time.Millisecond, "external write must evict the cached snapshot")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(1 * time.Second):
		t.Fatal("watcher did not stop on cancellation")
	}
}

func TestSnapshotWatch_RequiresEnabledWatcher(t *testing.T) {
	withTestConfig(t)
	cfg.Watcher.Enabled = false

	err := snapshotWatchCmd.RunE(snapshotWatchCmd, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "watcher is disabled")
}
