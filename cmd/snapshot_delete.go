package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/presentation"
)

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <guid>",
	Short: "Soft-delete a snapshot",
	Long: `Soft-delete a snapshot. The row is kept and still visible with
'loom snapshot list --deleted'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, repo, err := openRepository()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := repo.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}

		return presentation.NewFormatter(os.Stdout).FormatResult(map[string]string{
			"deleted": args[0],
		})
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotDeleteCmd)
}
