// Command ribbons draws living emotion ribbons: one glowing, tapered,
// flowing stroke per shared feeling, fading over its week of life.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"ribbons/internal/config"
	"ribbons/internal/feed"
	"ribbons/internal/logging"
)

// glfw and GL calls must stay on the main thread.
func init() { runtime.LockOSThread() }

var (
	configPath string
	logLevel   string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ribbons",
		Short:         "Procedural emotion ribbon renderer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (watched for changes)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from config)")

	root.AddCommand(newRunCmd(), newSnapshotCmd(), newSynthCmd(), newRegenCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ribbons: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the config file and builds the logger.
func setup() (config.File, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	lvl := cfg.Log.Level
	if logLevel != "" {
		lvl = logLevel
	}
	level, err := logging.ParseLevel(lvl)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logging.New(os.Stderr, level), nil
}

func newSource(cfg config.File, log *slog.Logger) feed.Source {
	if cfg.Feed.Path != "" {
		return &feed.FileSource{Path: cfg.Feed.Path, Log: log}
	}
	return feed.NewDemo(cfg.Feed.DemoSize, cfg.Feed.DemoEvery, cfg.Feed.Seed)
}
