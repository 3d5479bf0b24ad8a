package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/presentation"
	"github.com/loomkit/loom/internal/snapshot"
)

var (
	listName    string
	listDeleted bool
	listLimit   int
)

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	Long: `List stored snapshots as JSON, newest first.

Examples:
  # List all snapshots
  loom snapshot list

  # Filter by name
  loom snapshot list --name checkout-flow

  # Include soft-deleted snapshots
  loom snapshot list --deleted

  # Parse specific fields with jq
  loom snapshot list | jq '.[].guid'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		snaps, err := repo.List(snapshot.ListFilter{
			Name:           listName,
			IncludeDeleted: listDeleted,
			Limit:          listLimit,
		})
		if err != nil {
			return err
		}

		formatter := presentation.NewFormatter(os.Stdout)
		return formatter.FormatSnapshots(presentation.FromSnapshots(snaps))
	},
}

func init() {
	snapshotListCmd.Flags().StringVarP(&listName, "name", "n", "", "Filter by snapshot name")
	snapshotListCmd.Flags().BoolVar(&listDeleted, "deleted", false, "Include soft-deleted snapshots")
	snapshotListCmd.Flags().IntVar(&listLimit, "limit", 0, "Limit the number of results (0 = no limit)")
	snapshotCmd.AddCommand(snapshotListCmd)
}
