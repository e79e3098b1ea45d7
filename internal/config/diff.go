package config

import "time"

// ConfigDiff describes what changed between two configs. The service applies
// the hot-reloadable parts and reports the rest as needing a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RefreshChanged means the rebuild intervals changed.
	RefreshChanged   bool
	NewInterval      time.Duration
	NewRetryInterval time.Duration

	// InputsChanged means a rebuild is needed: an override path, the
	// integrity policy, or the NA filter changed.
	InputsChanged bool

	// RestartRequired lists changed keys that only take effect on restart.
	RestartRequired []string
}

// Changed reports whether anything differs.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.RefreshChanged || d.InputsChanged || len(d.RestartRequired) > 0
}

// Diff compares old and new.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Refresh.Interval != new.Refresh.Interval || old.Refresh.RetryInterval != new.Refresh.RetryInterval {
		d.RefreshChanged = true
		d.NewInterval = new.Refresh.Interval
		d.NewRetryInterval = new.Refresh.RetryInterval
	}

	if old.Data.NicknameOverrides != new.Data.NicknameOverrides ||
		old.Data.BasenameOverrides != new.Data.BasenameOverrides ||
		old.Data.IntegrityPolicy != new.Data.IntegrityPolicy ||
		old.Data.NAOnly != new.Data.NAOnly {
		d.InputsChanged = true
	}

	restart := []struct {
		key     string
		changed bool
	}{
		{"server.listen_addr", old.Server.ListenAddr != new.Server.ListenAddr},
		{"server.log_format", old.Server.LogFormat != new.Server.LogFormat},
		{"discord", old.Discord != new.Discord},
		{"data.dir", old.Data.Dir != new.Data.Dir},
		{"data.miss_log", old.Data.MissLog != new.Data.MissLog},
		{"refresh.watch_data_dir", old.Refresh.WatchDataDir != new.Refresh.WatchDataDir},
		{"refresh.debounce", old.Refresh.Debounce != new.Refresh.Debounce},
		{"overrides", old.Overrides != new.Overrides},
	}
	for _, r := range restart {
		if r.changed {
			d.RestartRequired = append(d.RestartRequired, r.key)
		}
	}
	return d
}
