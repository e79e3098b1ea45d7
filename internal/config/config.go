// Package config defines the padinfo configuration file, its defaults and
// validation, and a watcher that reloads it while the service runs.
package config

import (
	"log/slog"
	"time"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to a slog level. Unknown values map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// LogFormat selects the log handler.
type LogFormat string

const (
	// LogFormatText is slog's key=value handler.
	LogFormatText LogFormat = "text"
	// LogFormatJSON is slog's JSON handler.
	LogFormatJSON LogFormat = "json"
	// LogFormatPretty is a colored handler for interactive terminals.
	LogFormatPretty LogFormat = "pretty"
)

// IsValid reports whether f is a recognised log format.
func (f LogFormat) IsValid() bool {
	switch f {
	case LogFormatText, LogFormatJSON, LogFormatPretty:
		return true
	}
	return false
}

// Config is the root of the YAML file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Discord   DiscordConfig   `yaml:"discord"`
	Data      DataConfig      `yaml:"data"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Overrides OverridesConfig `yaml:"overrides"`
}

// ServerConfig holds the HTTP listener and logging settings.
type ServerConfig struct {
	// ListenAddr serves /healthz, /readyz, /metrics and /v1/query.
	ListenAddr string    `yaml:"listen_addr"`
	LogLevel   LogLevel  `yaml:"log_level"`
	LogFormat  LogFormat `yaml:"log_format"`
}

// DiscordConfig enables the chat bot. An empty token disables it.
type DiscordConfig struct {
	Token string `yaml:"token"`

	// GuildID registers commands on one guild, which takes effect at once.
	// Empty registers them globally.
	GuildID string `yaml:"guild_id"`

	// AdminRoleID may run /debugid and /padguide. Empty means only members
	// with the Administrator permission.
	AdminRoleID string `yaml:"admin_role_id"`
}

// DataConfig locates the inputs of a generation.
type DataConfig struct {
	// Dir holds one "<kind>.json" file per dataset.
	Dir string `yaml:"dir"`

	NicknameOverrides string `yaml:"nickname_overrides"`
	BasenameOverrides string `yaml:"basename_overrides"`

	// IntegrityPolicy is "abort" or "exclude".
	IntegrityPolicy string `yaml:"integrity_policy"`

	// NAOnly hides monsters that are not released on NA from the index.
	NAOnly bool `yaml:"na_only"`

	// MissLog, when set, appends every unmatched query to this JSON lines
	// file for override curation.
	MissLog string `yaml:"miss_log"`
}

// RefreshConfig schedules index rebuilds.
type RefreshConfig struct {
	Interval      time.Duration `yaml:"interval"`
	RetryInterval time.Duration `yaml:"retry_interval"`

	// WatchDataDir rebuilds when dataset or override files change.
	WatchDataDir bool          `yaml:"watch_data_dir"`
	Debounce     time.Duration `yaml:"debounce"`
}

// OverridesConfig configures the override database. Without a DSN the CSV
// files are the only source.
type OverridesConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`

	// BreakerFailures consecutive database failures switch to the CSV files
	// for BreakerReset.
	BreakerFailures int           `yaml:"breaker_failures"`
	BreakerReset    time.Duration `yaml:"breaker_reset"`
}

// Defaults.
const (
	DefaultListenAddr      = ":8080"
	DefaultIntegrityPolicy = "abort"
	DefaultInterval        = 4 * time.Hour
	DefaultRetryInterval   = 60 * time.Second
	DefaultDebounce        = 2 * time.Second
	DefaultBreakerFailures = 3
	DefaultBreakerReset    = 5 * time.Minute
)

// ApplyDefaults fills every unset field that has a default.
func ApplyDefaults(cfg *Config) {
	setDefault(&cfg.Server.ListenAddr, DefaultListenAddr)
	setDefault(&cfg.Server.LogLevel, LogInfo)
	setDefault(&cfg.Server.LogFormat, LogFormatText)
	setDefault(&cfg.Data.IntegrityPolicy, DefaultIntegrityPolicy)
	setDefault(&cfg.Refresh.Interval, DefaultInterval)
	setDefault(&cfg.Refresh.RetryInterval, DefaultRetryInterval)
	setDefault(&cfg.Refresh.Debounce, DefaultDebounce)
	setDefault(&cfg.Overrides.BreakerFailures, DefaultBreakerFailures)
	setDefault(&cfg.Overrides.BreakerReset, DefaultBreakerReset)
}

func setDefault[T comparable](field *T, v T) {
	var zero T
	if *field == zero {
		*field = v
	}
}
