package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/padinfo/internal/app"
	"github.com/MrWong99/padinfo/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "padinfo",
	Short:         "Puzzle & Dragons monster lookup service",
	Long:          "Resolves free-text monster nicknames against PadGuide data, as a Discord bot, an HTTP API, or from the shell.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and prints its error, if any.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "padinfo: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(missesCmd)
}

// loadConfig reads --config with a friendlier message for a missing file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file %q not found; copy configs/example.yaml to get started", configPath)
	}
	return cfg, err
}

// buildOnce loads the config and publishes a single generation without
// starting any watcher, listener or bot. Logs go to stderr at warn level
// unless the config asks for more.
func buildOnce(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Refresh.WatchDataDir = false

	level := new(slog.LevelVar)
	level.Set(min(cfg.Server.LogLevel.Level(), slog.LevelWarn))
	log := newLogger(os.Stderr, cfg.Server.LogFormat, level)

	a, err := app.New(ctx, cfg, app.WithLogger(log, level), app.WithoutDiscord())
	if err != nil {
		return nil, err
	}
	if _, err := a.Refresh(ctx); err != nil {
		_ = a.Shutdown(ctx)
		return nil, err
	}
	return a, nil
}
