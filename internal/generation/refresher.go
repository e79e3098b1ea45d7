package generation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrWong99/padinfo/internal/observe"
)

// Default refresh timing.
const (
	DefaultInterval      = 4 * time.Hour
	DefaultRetryInterval = 60 * time.Second
)

// RefresherConfig configures a [Refresher]. Zero durations take defaults.
type RefresherConfig struct {
	// Interval is the wait after a successful build.
	Interval time.Duration

	// RetryInterval is the wait after a failed build.
	RetryInterval time.Duration

	Metrics *observe.Metrics
	Log     *slog.Logger

	// OnPublish runs after each new generation goes live.
	OnPublish func(*Generation)

	// Now stamps successful builds and ages them in [Refresher.Fresh].
	// Defaults to time.Now.
	Now func() time.Time
}

// Refresher rebuilds generations on a schedule and on demand and publishes
// them into a [Holder]. At most one build runs at a time; triggers that
// arrive during a build collapse into a single follow-up build.
type Refresher struct {
	build  func(context.Context) (*Generation, error)
	holder *Holder
	cfg    RefresherConfig

	trigger chan struct{}
	buildMu sync.Mutex

	mu        sync.Mutex
	interval  time.Duration
	retry     time.Duration
	lastOK    time.Time
	lastErr   error
	intervals chan struct{}
}

// NewRefresher returns a refresher publishing the results of build into h.
func NewRefresher(build func(context.Context) (*Generation, error), h *Holder, cfg RefresherConfig) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Refresher{
		build:     build,
		holder:    h,
		cfg:       cfg,
		trigger:   make(chan struct{}, 1),
		interval:  cfg.Interval,
		retry:     cfg.RetryInterval,
		intervals: make(chan struct{}, 1),
	}
}

// Trigger asks [Refresher.Run] for an early rebuild. It never blocks.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// SetIntervals changes the schedule. A running loop re-arms its timer.
func (r *Refresher) SetIntervals(interval, retry time.Duration) {
	r.mu.Lock()
	if interval > 0 {
		r.interval = interval
	}
	if retry > 0 {
		r.retry = retry
	}
	r.mu.Unlock()
	select {
	case r.intervals <- struct{}{}:
	default:
	}
}

// Run builds immediately, then again after the interval following a
// success or the retry interval following a failure, until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.intervals:
			timer.Reset(r.next())
			continue
		case <-timer.C:
		case <-r.trigger:
		}
		_, _ = r.Refresh(ctx)
		timer.Reset(r.next())
	}
}

// next returns the wait before the following scheduled build.
func (r *Refresher) next() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastErr != nil {
		return r.retry
	}
	return r.interval
}

// Refresh builds and publishes one generation now. It waits for a build
// already in progress instead of starting a second one alongside it.
func (r *Refresher) Refresh(ctx context.Context) (*Generation, error) {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	start := time.Now()
	g, err := r.build(ctx)
	took := time.Since(start)
	r.cfg.Metrics.RecordRebuild(ctx, took, err)

	r.mu.Lock()
	r.lastErr = err
	if err == nil {
		r.lastOK = r.cfg.Now()
	}
	r.mu.Unlock()

	if err != nil {
		r.cfg.Log.Error("index rebuild failed", "err", err, "duration", took)
		return nil, fmt.Errorf("generation: refresh: %w", err)
	}

	old := r.holder.Swap(g)
	r.cfg.Metrics.SetIndexSize(ctx, g.Monsters(), g.Nicknames())
	attrs := []any{
		"seq", g.Seq,
		"duration", took,
		"monsters", g.Monsters(),
		"nicknames", g.Nicknames(),
		"overrides", g.Overrides.Len(),
	}
	if old != nil {
		attrs = append(attrs, "replaced", old.Seq)
	}
	r.cfg.Log.Info("index rebuilt", attrs...)
	if r.cfg.OnPublish != nil {
		r.cfg.OnPublish(g)
	}
	return g, nil
}

// Status reports the time of the last successful build and the error of the
// most recent build, if it failed.
func (r *Refresher) Status() (lastOK time.Time, lastErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastOK, r.lastErr
}

// Fresh fails when no build has succeeded within two intervals. It is a
// readiness check for deployments that must not serve stale data forever.
func (r *Refresher) Fresh(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastOK.IsZero() {
		return ErrNotReady
	}
	if age := r.cfg.Now().Sub(r.lastOK); age > 2*r.interval {
		return fmt.Errorf("generation: index is %s old, last error: %v", age.Round(time.Second), r.lastErr)
	}
	return nil
}
