package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/config"
	"github.com/loomkit/loom/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect stored snapshots",
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

// openRepository opens the configured snapshot database and returns a
// repository over it. The caller must close the store.
func openRepository() (*snapshot.Store, *snapshot.CachedRepository, error) {
	dbPath := config.ExpandHome(cfg.Snapshot.DBPath)
	store, err := snapshot.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening snapshot database %s: %w", dbPath, err)
	}
	repo := snapshot.NewCachedRepository(snapshot.NewRepository(store), !cfg.Cache.Enabled)
	return store, repo, nil
}
