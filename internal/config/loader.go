package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/padinfo/internal/pgdata"
)

// Load reads, defaults and validates the YAML file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r. Unknown keys are errors. An empty
// document is valid apart from the required data.dir.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem in cfg at once.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if !cfg.Server.LogFormat.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_format %q is invalid; valid values: text, json, pretty", cfg.Server.LogFormat))
	}

	if cfg.Data.Dir == "" {
		errs = append(errs, errors.New("data.dir is required"))
	}
	if _, err := pgdata.ParsePolicy(cfg.Data.IntegrityPolicy); err != nil {
		errs = append(errs, fmt.Errorf("data.integrity_policy: %w", err))
	}

	if cfg.Refresh.Interval < 0 {
		errs = append(errs, fmt.Errorf("refresh.interval %s must be positive", cfg.Refresh.Interval))
	}
	if cfg.Refresh.RetryInterval < 0 {
		errs = append(errs, fmt.Errorf("refresh.retry_interval %s must be positive", cfg.Refresh.RetryInterval))
	}
	if cfg.Refresh.Interval > 0 && cfg.Refresh.RetryInterval > cfg.Refresh.Interval {
		slog.Warn("refresh.retry_interval is longer than refresh.interval; failed rebuilds will be retried late",
			"interval", cfg.Refresh.Interval, "retry_interval", cfg.Refresh.RetryInterval)
	}
	if cfg.Refresh.Debounce < 0 {
		errs = append(errs, fmt.Errorf("refresh.debounce %s must be positive", cfg.Refresh.Debounce))
	}

	if cfg.Overrides.BreakerFailures < 0 {
		errs = append(errs, fmt.Errorf("overrides.breaker_failures %d must be positive", cfg.Overrides.BreakerFailures))
	}
	if cfg.Overrides.PostgresDSN == "" && cfg.Data.NicknameOverrides == "" && cfg.Data.BasenameOverrides == "" {
		slog.Warn("no override source configured; only computed nicknames will resolve")
	}

	if cfg.Discord.Token == "" {
		slog.Warn("discord.token is empty; the chat bot is disabled")
	}

	return errors.Join(errs...)
}
