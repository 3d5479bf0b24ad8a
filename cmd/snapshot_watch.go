package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/snapshot"
)

var snapshotWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the snapshot database for external writes",
	Long: `Watch the snapshot database file and drop cached snapshots after
each burst of external writes, so subsequent reads see the new state.
Runs until interrupted.

Examples:
  # Watch the configured database
  loom snapshot watch

  # Watch a specific database
  loom snapshot watch --db /srv/loom/snapshots.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Watcher.Enabled {
			return fmt.Errorf("watcher is disabled; set watcher.enabled in %s", configFilePath())
		}

		store, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		debounce := time.Duration(cfg.Watcher.DebounceMs) * time.Millisecond
		return watchSnapshots(ctx, store.Path(), repo, debounce, os.Stdout)
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotWatchCmd)
}

// watchSnapshots drops the repository cache after each debounced burst of
// writes to the database file, until ctx is cancelled.
func watchSnapshots(ctx context.Context, dbPath string, repo *snapshot.CachedRepository, debounce time.Duration, out io.Writer) error {
	watcher, err := snapshot.NewWatcher(snapshot.WatcherConfig{
		DBPath:      dbPath,
		DebounceDur: debounce,
	})
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Stop() }()

	changes, err := watcher.Start()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "watching %s\n", dbPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			repo.InvalidateAll(ctx)
			fmt.Fprintf(out, "%s database changed, cache dropped\n",
				time.Now().Format(time.RFC3339))
		}
	}
}
