package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage loom configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config file",
	Long: `Write a fully commented default config file. Every setting is
present but commented out; uncomment a line to override its default.

The file is written to ~/.config/loom/config.yaml unless --config names
another location. Refuses to overwrite an existing file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultConfigPath()
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}
