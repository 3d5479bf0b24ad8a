// Package cmd wires the loom command line interface.
package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/loomkit/loom/internal/config"
	"github.com/loomkit/loom/internal/log"
	"github.com/loomkit/loom/internal/tracing"
)

var (
	version        = "dev"
	cfgFile        string
	cfg            config.Config
	logCleanup     func()
	tracerProvider *tracing.Provider
)

var rootCmd = &cobra.Command{
	Use:          "loom",
	Short:        "Inspect and manage loom component graph snapshots",
	Long:         `loom persists component graphs as snapshots and lets you list, inspect, and diff them from the command line.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/loom/config.yaml)")
	rootCmd.PersistentFlags().String("db", "",
		"snapshot database path")

	// Bind flags to viper
	_ = viper.BindPFlag("snapshot.db_path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("snapshot.db_path", defaults.Snapshot.DBPath)
	viper.SetDefault("cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("cache.ttl_minutes", defaults.Cache.TTLMinutes)
	viper.SetDefault("watcher.enabled", defaults.Watcher.Enabled)
	viper.SetDefault("watcher.debounce_ms", defaults.Watcher.DebounceMs)
	viper.SetDefault("log.enabled", defaults.Log.Enabled)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.path", defaults.Log.Path)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .loom/config.yaml (current directory)
		// 2. ~/.config/loom/config.yaml (user config)
		if _, err := os.Stat(filepath.Join(".loom", "config.yaml")); err == nil {
			viper.SetConfigFile(filepath.Join(".loom", "config.yaml"))
		} else {
			viper.AddConfigPath(config.DefaultConfigDir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// A missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()
	_ = viper.Unmarshal(&cfg)

	if cfg.Log.Enabled {
		if cleanup, err := log.Init(config.ExpandHome(cfg.Log.Path)); err == nil {
			logCleanup = cleanup
			if level, levelErr := config.ParseLevel(cfg.Log.Level); levelErr == nil {
				log.SetMinLevel(level)
			}
		}
	}

	initTracing()
}

// initTracing builds the trace provider from the loaded config. A broken
// tracing setup must not take the CLI down, so failures are logged and
// the provider stays nil.
func initTracing() {
	traceCfg := cfg.Tracing
	traceCfg.FilePath = config.ExpandHome(traceCfg.FilePath)

	provider, err := tracing.NewProvider(traceCfg)
	if err != nil {
		log.ErrorErr(log.CatTrace, "tracing disabled", err, "exporter", traceCfg.Exporter)
		return
	}
	tracerProvider = provider
}

// tracer returns the process tracer, or a no-op tracer before the
// provider is initialized.
func tracer() trace.Tracer {
	if tracerProvider == nil {
		return noop.NewTracerProvider().Tracer("loom")
	}
	return tracerProvider.Tracer()
}

// configFilePath returns the loaded config file, or the default location
// when no file was found.
func configFilePath() string {
	if path := viper.ConfigFileUsed(); path != "" {
		return path
	}
	return config.DefaultConfigPath()
}

// Execute runs the root command
func Execute() error {
	defer func() {
		if tracerProvider != nil {
			_ = tracerProvider.Shutdown(context.Background())
		}
		if logCleanup != nil {
			logCleanup()
		}
	}()
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
