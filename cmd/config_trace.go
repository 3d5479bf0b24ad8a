package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomkit/loom/internal/config"
)

var (
	traceExporter string
	traceFile     string
	traceEndpoint string
	traceSample   float64
)

var configTraceCmd = &cobra.Command{
	Use:   "trace <on|off>",
	Short: "Toggle tracing in the config file",
	Long: `Enable or disable tracing in the config file. Other sections and
their comments are left untouched.

Examples:
  # Trace to the default JSONL file
  loom config trace on

  # Trace to an OTLP collector
  loom config trace on --exporter otlp --endpoint collector:4317

  # Sample a tenth of traces
  loom config trace on --sample 0.1

  loom config trace off`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "on":
			cfg.Tracing.Enabled = true
		case "off":
			cfg.Tracing.Enabled = false
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}

		if cmd.Flags().Changed("exporter") {
			cfg.Tracing.Exporter = traceExporter
		}
		if cmd.Flags().Changed("file") {
			cfg.Tracing.FilePath = traceFile
		}
		if cmd.Flags().Changed("endpoint") {
			cfg.Tracing.OTLPEndpoint = traceEndpoint
		}
		if cmd.Flags().Changed("sample") {
			cfg.Tracing.SampleRate = traceSample
		}
		if cfg.Tracing.Enabled && cfg.Tracing.Exporter == "file" && cfg.Tracing.FilePath == "" {
			cfg.Tracing.FilePath = config.DefaultTracePath()
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		path := cfgFile
		if path == "" {
			path = configFilePath()
		}
		if err := config.SaveTracing(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", path)
		return nil
	},
}

func init() {
	configTraceCmd.Flags().StringVar(&traceExporter, "exporter", "file", "Exporter: none, file, stdout, otlp")
	configTraceCmd.Flags().StringVar(&traceFile, "file", "", "Trace output file for the file exporter")
	configTraceCmd.Flags().StringVar(&traceEndpoint, "endpoint", "", "Collector endpoint for the otlp exporter")
	configTraceCmd.Flags().Float64Var(&traceSample, "sample", 1.0, "Fraction of traces to sample")
	configCmd.AddCommand(configTraceCmd)
}
