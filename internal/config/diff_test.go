package config_test

import (
	"slices"
	"testing"
	"time"

	"github.com/MrWong99/padinfo/internal/config"
)

func baseConfig() *config.Config {
	cfg := &config.Config{Data: config.DataConfig{Dir: "data"}}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()

	if d := config.Diff(baseConfig(), baseConfig()); d.Changed() {
		t.Fatalf("Diff of equal configs = %+v, want no change", d)
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		check  func(*testing.T, config.ConfigDiff)
	}{
		{
			name:   "log level",
			mutate: func(c *config.Config) { c.Server.LogLevel = config.LogDebug },
			check: func(t *testing.T, d config.ConfigDiff) {
				if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
					t.Errorf("got %+v, want log level change to debug", d)
				}
			},
		},
		{
			name:   "refresh intervals",
			mutate: func(c *config.Config) { c.Refresh.RetryInterval = 5 * time.Second },
			check: func(t *testing.T, d config.ConfigDiff) {
				if !d.RefreshChanged || d.NewRetryInterval != 5*time.Second || d.NewInterval != config.DefaultInterval {
					t.Errorf("got %+v, want refresh change", d)
				}
			},
		},
		{
			name:   "override path",
			mutate: func(c *config.Config) { c.Data.NicknameOverrides = "nick.csv" },
			check: func(t *testing.T, d config.ConfigDiff) {
				if !d.InputsChanged || d.RefreshChanged || len(d.RestartRequired) != 0 {
					t.Errorf("got %+v, want only inputs changed", d)
				}
			},
		},
		{
			name: "restart keys",
			mutate: func(c *config.Config) {
				c.Server.ListenAddr = ":1"
				c.Discord.Token = "new"
				c.Overrides.PostgresDSN = "postgres://x"
			},
			check: func(t *testing.T, d config.ConfigDiff) {
				want := []string{"server.listen_addr", "discord", "overrides"}
				if !slices.Equal(d.RestartRequired, want) {
					t.Errorf("RestartRequired = %v, want %v", d.RestartRequired, want)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next := baseConfig()
			tt.mutate(next)
			d := config.Diff(baseConfig(), next)
			if !d.Changed() {
				t.Fatal("Changed() = false")
			}
			tt.check(t, d)
		})
	}
}
