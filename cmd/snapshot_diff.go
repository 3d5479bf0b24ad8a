package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/presentation"
	"github.com/loomkit/loom/internal/snapshot"
)

var snapshotDiffCmd = &cobra.Command{
	Use:   "diff <guid-a> <guid-b>",
	Short: "Diff two snapshots",
	Long: `Print a line diff of two snapshots' canonical YAML encodings.

Lines only in the first snapshot are prefixed with "-", lines only in
the second with "+".

Examples:
  loom snapshot diff 2f1c9a 8b03de`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		before, err := repo.FindByGUID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		after, err := repo.FindByGUID(cmd.Context(), args[1])
		if err != nil {
			return err
		}

		diff, err := snapshot.DiffSnapshots(before, after)
		if err != nil {
			return err
		}

		return presentation.NewFormatter(os.Stdout).FormatDiff(diff)
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotDiffCmd)
}
