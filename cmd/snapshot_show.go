package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/presentation"
)

var showRecords bool

var snapshotShowCmd = &cobra.Command{
	Use:   "show <guid>",
	Short: "Show one snapshot",
	Long: `Show a snapshot's metadata as JSON.

With --records the serialized component records are printed instead,
including properties, parent links, and bindings.

Examples:
  loom snapshot show 2f1c9a
  loom snapshot show 2f1c9a --records | jq '.[].id'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		snap, err := repo.FindByGUID(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		formatter := presentation.NewFormatter(os.Stdout)
		if showRecords {
			return formatter.FormatRecords(presentation.FromRecords(snap.Records))
		}
		return formatter.FormatResult(presentation.FromSnapshot(snap))
	},
}

func init() {
	snapshotShowCmd.Flags().BoolVar(&showRecords, "records", false, "Print the serialized records instead of metadata")
	snapshotCmd.AddCommand(snapshotShowCmd)
}
