// Package app wires the padinfo subsystems into a running service.
//
// The App owns the full lifecycle: New opens the inputs and builds the
// long-lived components, Run drives the refresh loop, the watchers, the HTTP
// listener and the chat bot until its context ends, and Shutdown releases
// what New opened.
//
// For testing, inject inputs via functional options (WithDataSource,
// WithOverrideSource, ...). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/padinfo/internal/config"
	"github.com/MrWong99/padinfo/internal/discord"
	"github.com/MrWong99/padinfo/internal/discord/commands"
	"github.com/MrWong99/padinfo/internal/feedback"
	"github.com/MrWong99/padinfo/internal/generation"
	"github.com/MrWong99/padinfo/internal/health"
	"github.com/MrWong99/padinfo/internal/lookup"
	"github.com/MrWong99/padinfo/internal/observe"
	"github.com/MrWong99/padinfo/internal/overrides"
	"github.com/MrWong99/padinfo/internal/pgdata"
	"github.com/MrWong99/padinfo/internal/resilience"
)

// shutdownTimeout bounds the HTTP server drain when Run's context ends.
const shutdownTimeout = 10 * time.Second

// App owns every subsystem of the lookup service.
type App struct {
	mu  sync.Mutex
	cfg *config.Config

	log     *slog.Logger
	level   *slog.LevelVar
	metrics *observe.Metrics

	data       pgdata.Source
	overrides  overrides.Source
	overrideDB overrides.DB
	store      *overrides.PostgresSource

	builder   *generation.Builder
	holder    *generation.Holder
	refresher *generation.Refresher
	resolver  *lookup.Resolver
	misses    *feedback.FileStore

	health     *health.Handler
	handler    http.Handler
	cfgWatcher *config.Watcher
	dirWatcher *generation.DirWatcher
	bot        *discord.Bot

	configPath string
	noDiscord  bool

	// closers are called in order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithLogger sets the logger and the level variable that config reloads
// adjust. Either may be nil.
func WithLogger(log *slog.Logger, level *slog.LevelVar) Option {
	return func(a *App) {
		a.log = log
		a.level = level
	}
}

// WithMetrics injects the instruments instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithDataSource injects the dataset source instead of reading data.dir.
func WithDataSource(src pgdata.Source) Option {
	return func(a *App) { a.data = src }
}

// WithOverrideSource injects the override source instead of the CSV files
// and the database. Config reloads keep it.
func WithOverrideSource(src overrides.Source) Option {
	return func(a *App) { a.overrides = src }
}

// WithOverrideDB injects the override database instead of connecting to
// overrides.postgres_dsn.
func WithOverrideDB(db overrides.DB) Option {
	return func(a *App) { a.overrideDB = db }
}

// WithConfigFile watches path and applies valid changes while Run runs.
func WithConfigFile(path string) Option {
	return func(a *App) { a.configPath = path }
}

// WithoutDiscord keeps the chat bot offline even when a token is set. One-off
// CLI commands use it.
func WithoutDiscord() Option {
	return func(a *App) { a.noDiscord = true }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App from cfg. It connects to the override database and to
// Discord when they are configured, but builds no index; the first
// generation is published by Run or Refresh.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.level == nil {
		a.level = new(slog.LevelVar)
		a.level.Set(cfg.Server.LogLevel.Level())
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initSources(ctx); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init sources: %w", err)
	}
	if err := a.initIndex(); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init index: %w", err)
	}
	if err := a.initWatchers(); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init watchers: %w", err)
	}
	a.initHTTP()
	if err := a.initDiscord(ctx); err != nil {
		a.closeAll()
		return nil, fmt.Errorf("app: init discord: %w", err)
	}
	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initSources opens the dataset directory and the override database.
func (a *App) initSources(ctx context.Context) error {
	if a.data == nil {
		a.data = pgdata.DirSource{Dir: a.cfg.Data.Dir, Log: a.log}
	}
	if a.overrides != nil {
		return nil
	}

	if a.overrideDB == nil && a.cfg.Overrides.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, a.cfg.Overrides.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect override database: %w", err)
		}
		a.overrideDB = pool
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})
	}
	if a.overrideDB != nil {
		a.store = overrides.NewPostgresSource(a.overrideDB)
		if err := a.store.Migrate(ctx); err != nil {
			return err
		}
		a.log.Info("override database ready")
	}
	return nil
}

// overrideSource returns the override source for cfg: the injected one, the
// CSV files alone, or the database with the CSV files as fallback.
func (a *App) overrideSource(cfg *config.Config) overrides.Source {
	if a.overrides != nil {
		return a.overrides
	}
	files := &overrides.FileSource{
		NicknamePath: cfg.Data.NicknameOverrides,
		BasenamePath: cfg.Data.BasenameOverrides,
		Log:          a.log,
	}
	if a.store == nil {
		return files
	}
	fs := overrides.NewFallbackSource("postgres", a.store, resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  cfg.Overrides.BreakerFailures,
			ResetTimeout: cfg.Overrides.BreakerReset,
			HalfOpenMax:  1,
			Logger:       a.log,
		},
	})
	fs.Add("csv", files)
	return fs
}

// acceptFilter hides JP-only monsters on an NA-only deployment.
func acceptFilter(cfg *config.Config) func(*pgdata.Monster) bool {
	if !cfg.Data.NAOnly {
		return nil
	}
	return func(m *pgdata.Monster) bool { return m.OnNA }
}

// initIndex creates the builder, the holder of the live generation, and the
// refresher that publishes into it.
func (a *App) initIndex() error {
	policy, err := pgdata.ParsePolicy(a.cfg.Data.IntegrityPolicy)
	if err != nil {
		return err
	}
	a.builder = &generation.Builder{
		Data:      a.data,
		Overrides: a.overrideSource(a.cfg),
		Policy:    policy,
		Accept:    acceptFilter(a.cfg),
		Log:       a.log,
	}
	a.holder = &generation.Holder{}
	a.refresher = generation.NewRefresher(a.builder.Build, a.holder, generation.RefresherConfig{
		Interval:      a.cfg.Refresh.Interval,
		RetryInterval: a.cfg.Refresh.RetryInterval,
		Metrics:       a.metrics,
		Log:           a.log,
	})
	var ropts []lookup.ResolverOption
	if path := a.cfg.Data.MissLog; path != "" {
		a.misses = feedback.NewFileStore(path)
		ropts = append(ropts, lookup.WithMissRecorder(a.misses))
	}
	a.resolver = lookup.NewResolver(a.holder, a.metrics, ropts...)
	return nil
}

// initWatchers sets up the config file poller and the data directory
// watcher, when enabled.
func (a *App) initWatchers() error {
	if a.configPath != "" {
		w, err := config.NewWatcher(a.configPath, a.ApplyConfig)
		if err != nil {
			return err
		}
		a.cfgWatcher = w
	}

	if !a.cfg.Refresh.WatchDataDir {
		return nil
	}
	dirs := []string{a.cfg.Data.Dir}
	for _, p := range []string{a.cfg.Data.NicknameOverrides, a.cfg.Data.BasenameOverrides} {
		if p != "" {
			dirs = append(dirs, filepath.Dir(p))
		}
	}
	w, err := generation.NewDirWatcher(dirs, a.cfg.Refresh.Debounce, a.refresher.Trigger, a.log)
	if err != nil {
		return err
	}
	a.dirWatcher = w
	return nil
}

// initHTTP assembles the probe, metrics and query routes.
func (a *App) initHTTP() {
	a.health = health.New(
		health.Checker{Name: "index", Check: a.holder.Ready},
		health.Checker{Name: "freshness", Check: a.refresher.Fresh},
	)
	a.health.Info = a.info

	mux := http.NewServeMux()
	a.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/query", a.handleQuery)
	mux.HandleFunc("GET /v1/monsters/{id}", a.handleMonster)
	a.handler = observe.Middleware(a.metrics)(mux)
}

// initDiscord connects the chat bot and registers its commands.
func (a *App) initDiscord(ctx context.Context) error {
	dc := a.cfg.Discord
	if a.noDiscord || dc.Token == "" {
		return nil
	}
	bot, err := discord.New(ctx, discord.Config{
		Token:       dc.Token,
		GuildID:     dc.GuildID,
		AdminRoleID: dc.AdminRoleID,
	})
	if err != nil {
		return err
	}
	a.bot = bot

	var store commands.OverrideStore
	if a.store != nil {
		store = a.store
	}
	commands.NewMonsterCommands(bot.Permissions(), a.resolver, a.holder).Register(bot.Router())
	pc := commands.NewPadguideCommands(bot.Permissions(), a.resolver, a.holder, a.refresher, store)
	if a.misses != nil {
		pc.SetMissLog(a.misses)
	}
	pc.Register(bot.Router())
	a.log.Info("discord bot connected", "guild_id", dc.GuildID)
	return nil
}

// info feeds /healthz.
func (a *App) info() map[string]string {
	out := map[string]string{"log_level": a.level.Level().String()}
	if g := a.holder.Current(); g != nil {
		out["generation"] = strconv.FormatUint(g.Seq, 10)
		out["built_at"] = g.BuiltAt.UTC().Format(time.RFC3339)
		out["monsters"] = strconv.Itoa(g.Monsters())
		out["nicknames"] = strconv.Itoa(g.Nicknames())
	}
	if _, err := a.refresher.Status(); err != nil {
		out["last_error"] = err.Error()
	}
	return out
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// Handler returns the HTTP handler serving probes, metrics and the query API.
func (a *App) Handler() http.Handler { return a.handler }

// Resolver returns the query resolver bound to the live generation.
func (a *App) Resolver() *lookup.Resolver { return a.resolver }

// Current returns the live generation, or nil before the first build.
func (a *App) Current() *generation.Generation { return a.holder.Current() }

// Config returns the config most recently applied.
func (a *App) Config() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// Refresh builds and publishes a generation now.
func (a *App) Refresh(ctx context.Context) (*generation.Generation, error) {
	return a.refresher.Refresh(ctx)
}

// ─── Config reload ───────────────────────────────────────────────────────────

// ApplyConfig applies the hot-reloadable differences between old and new.
// Keys that need a restart are logged and otherwise ignored.
func (a *App) ApplyConfig(old, new *config.Config) {
	d := config.Diff(old, new)
	if !d.Changed() {
		return
	}

	if d.LogLevelChanged {
		a.level.Set(d.NewLogLevel.Level())
		a.log.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.RefreshChanged {
		a.refresher.SetIntervals(d.NewInterval, d.NewRetryInterval)
		a.log.Info("refresh schedule changed", "interval", d.NewInterval, "retry_interval", d.NewRetryInterval)
	}
	if d.InputsChanged {
		policy, err := pgdata.ParsePolicy(new.Data.IntegrityPolicy)
		if err != nil {
			a.log.Error("config reload rejected", "err", err)
			return
		}
		src := a.overrideSource(new)
		a.builder.Reconfigure(func(b *generation.Builder) {
			b.Overrides = src
			b.Policy = policy
			b.Accept = acceptFilter(new)
		})
		a.refresher.Trigger()
		a.log.Info("index inputs changed, rebuild scheduled")
	}
	if len(d.RestartRequired) > 0 {
		a.log.Warn("config changes take effect after a restart", "keys", d.RestartRequired)
	}

	a.mu.Lock()
	a.cfg = new
	a.mu.Unlock()
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves until ctx is done. The first build starts immediately; queries
// are answered with "not ready" until it is published. Run returns nil after
// a clean stop and the first component error otherwise.
func (a *App) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error { return a.refresher.Run(ctx) })
	if a.cfgWatcher != nil {
		eg.Go(func() error { return a.cfgWatcher.Run(ctx) })
	}
	if a.dirWatcher != nil {
		eg.Go(func() error { return a.dirWatcher.Run(ctx) })
	}
	if a.bot != nil {
		eg.Go(func() error { return a.bot.Run(ctx) })
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	eg.Go(func() error {
		a.log.Info("http listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: http: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return eg.Wait()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown closes the chat bot and then everything New opened. It respects
// the context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		a.log.Info("shutting down", "closers", len(a.closers))

		if a.bot != nil {
			if err := a.bot.Close(); err != nil {
				a.log.Warn("discord bot close error", "err", err)
			}
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				a.log.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				a.log.Warn("closer error", "index", i, "err", err)
			}
		}
	})
	return shutdownErr
}

// closeAll releases what a failed New already opened.
func (a *App) closeAll() {
	for _, c := range a.closers {
		_ = c()
	}
	a.closers = nil
}
