// Package resilience guards flaky data sources.
//
// [CircuitBreaker] stops calling a source after repeated failures and probes
// it again once a cool-down has passed. [FallbackGroup] chains several
// sources of the same kind, each behind its own breaker, and serves from the
// first one that answers.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when a breaker rejects a call without running it.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// State is the operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota
	// StateOpen rejects calls until the reset timeout has passed.
	StateOpen
	// StateHalfOpen lets a limited number of probe calls through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes a [CircuitBreaker]. Zero fields take defaults.
type CircuitBreakerConfig struct {
	// Name labels log lines.
	Name string

	// MaxFailures consecutive failures open the breaker. Default 5.
	MaxFailures int

	// ResetTimeout is how long an open breaker waits before probing.
	// Default 30s.
	ResetTimeout time.Duration

	// HalfOpenMax successful probes close the breaker again. Default 3.
	HalfOpenMax int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Now defaults to time.Now. Tests replace it to move time forward.
	Now func() time.Time
}

// CircuitBreaker is safe for concurrent use.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probes   int
	probeOK  int
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CircuitBreaker{cfg: cfg}
}

// Name returns the configured label.
func (cb *CircuitBreaker) Name() string { return cb.cfg.Name }

// Execute runs fn unless the breaker is open. It returns [ErrCircuitOpen]
// without calling fn when rejected, and fn's error otherwise.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, err := cb.admit()
	if err != nil {
		return err
	}
	err = fn()
	cb.record(probe, err)
	return err
}

// admit decides whether a call may run and whether it counts as a probe.
func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.cfg.Now().Sub(cb.openedAt) < cb.cfg.ResetTimeout {
			return false, ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probes, cb.probeOK = 0, 0
		cb.cfg.Logger.Info("circuit half-open", "name", cb.cfg.Name)
	}
	if cb.state == StateHalfOpen {
		if cb.probes >= cb.cfg.HalfOpenMax {
			return false, ErrCircuitOpen
		}
		cb.probes++
		return true, nil
	}
	return false, nil
}

func (cb *CircuitBreaker) record(probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch {
	case err != nil && probe:
		cb.trip()
		cb.cfg.Logger.Warn("circuit re-opened by failed probe", "name", cb.cfg.Name, "err", err)
	case err != nil:
		cb.failures++
		if cb.failures >= cb.cfg.MaxFailures && cb.state == StateClosed {
			cb.trip()
			cb.cfg.Logger.Warn("circuit opened", "name", cb.cfg.Name, "failures", cb.failures, "err", err)
		}
	case probe:
		cb.probeOK++
		if cb.probeOK >= cb.cfg.HalfOpenMax {
			cb.close()
			cb.cfg.Logger.Info("circuit closed", "name", cb.cfg.Name)
		}
	default:
		cb.failures = 0
	}
}

// trip opens the breaker. cb.mu must be held.
func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.openedAt = cb.cfg.Now()
	cb.probes, cb.probeOK = 0, 0
}

// close resets to the closed state. cb.mu must be held.
func (cb *CircuitBreaker) close() {
	cb.state = StateClosed
	cb.failures = 0
	cb.probes, cb.probeOK = 0, 0
}

// State reports the current state. An open breaker whose reset timeout has
// passed reports [StateHalfOpen]; the transition itself happens on the next
// call.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && cb.cfg.Now().Sub(cb.openedAt) >= cb.cfg.ResetTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.close()
}
