package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/padinfo/internal/app"
	"github.com/MrWong99/padinfo/internal/config"
	"github.com/MrWong99/padinfo/internal/observe"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lookup service",
	Long:  "Builds the nickname index, keeps it fresh, and serves the Discord bot and the HTTP API until interrupted.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := new(slog.LevelVar)
	level.Set(cfg.Server.LogLevel.Level())
	logger := newLogger(os.Stderr, cfg.Server.LogFormat, level)
	slog.SetDefault(logger)

	slog.Info("padinfo starting",
		"config", configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	application, err := app.New(ctx, cfg,
		app.WithLogger(logger, level),
		app.WithMetrics(observe.DefaultMetrics()),
		app.WithConfigFile(configPath),
	)
	if err != nil {
		return err
	}

	printStartupSummary(cfg)
	slog.Info("server ready, press Ctrl+C to shut down")

	runErr := application.Run(ctx)
	if runErr != nil {
		slog.Error("run error", "err", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("stopping")
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return runErr
}

func printStartupSummary(cfg *config.Config) {
	row := func(k, v string) { fmt.Printf("  %-18s: %s\n", k, v) }
	fmt.Println("padinfo startup summary")
	row("Data dir", cfg.Data.Dir)
	row("Integrity policy", cfg.Data.IntegrityPolicy)
	row("NA only", fmt.Sprint(cfg.Data.NAOnly))
	switch {
	case cfg.Overrides.PostgresDSN != "":
		row("Overrides", "postgres, csv fallback")
	case cfg.Data.NicknameOverrides != "" || cfg.Data.BasenameOverrides != "":
		row("Overrides", "csv")
	default:
		row("Overrides", "(none)")
	}
	row("Refresh", fmt.Sprintf("every %s, retry %s", cfg.Refresh.Interval, cfg.Refresh.RetryInterval))
	if cfg.Refresh.WatchDataDir {
		row("Watch data dir", "on, debounce "+cfg.Refresh.Debounce.String())
	}
	if cfg.Discord.Token != "" {
		row("Discord", "connected")
	} else {
		row("Discord", "(disabled)")
	}
	row("Listen addr", cfg.Server.ListenAddr)
}
