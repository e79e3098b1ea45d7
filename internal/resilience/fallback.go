package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed wraps the failures of every member when no member of a
// [FallbackGroup] could serve a call.
var ErrAllFailed = errors.New("resilience: all sources failed")

// FallbackConfig configures the breaker created for each group member.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

type member[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup tries its members in registration order. A member whose
// breaker is open is skipped. Members are fixed once calls start; AddFallback
// is not safe to call concurrently with Execute.
type FallbackGroup[T any] struct {
	cfg     FallbackConfig
	members []member[T]
}

// NewFallbackGroup returns a group whose first member is primary.
func NewFallbackGroup[T any](primary T, name string, cfg FallbackConfig) *FallbackGroup[T] {
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(name, primary)
	return fg
}

// AddFallback appends a member tried after all earlier ones.
func (fg *FallbackGroup[T]) AddFallback(name string, v T) {
	bc := fg.cfg.CircuitBreaker
	bc.Name = name
	fg.members = append(fg.members, member[T]{name: name, value: v, breaker: NewCircuitBreaker(bc)})
}

func (fg *FallbackGroup[T]) log() *slog.Logger {
	if l := fg.cfg.CircuitBreaker.Logger; l != nil {
		return l
	}
	return slog.Default()
}

// Names lists the members in the order they are tried.
func (fg *FallbackGroup[T]) Names() []string {
	out := make([]string, len(fg.members))
	for i, m := range fg.members {
		out[i] = m.name
	}
	return out
}

// States reports each member's breaker state, keyed by member name.
func (fg *FallbackGroup[T]) States() map[string]State {
	out := make(map[string]State, len(fg.members))
	for _, m := range fg.members {
		out[m.name] = m.breaker.State()
	}
	return out
}

// Execute calls fn with each member until one succeeds.
func (fg *FallbackGroup[T]) Execute(fn func(T) error) error {
	_, _, err := Serve(context.Background(), fg, func(_ context.Context, v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// ExecuteWithResult is [FallbackGroup.Execute] for calls that produce a value.
func ExecuteWithResult[T, R any](fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	r, _, err := Serve(context.Background(), fg, func(_ context.Context, v T) (R, error) {
		return fn(v)
	})
	return r, err
}

// Serve calls fn with each member in order and returns the first success
// together with the name of the member that produced it. It stops early when
// ctx is done. When every member fails, the error wraps [ErrAllFailed] and
// each member's failure.
func Serve[T, R any](ctx context.Context, fg *FallbackGroup[T], fn func(context.Context, T) (R, error)) (R, string, error) {
	var (
		zero R
		errs []error
	)
	for _, m := range fg.members {
		if err := ctx.Err(); err != nil {
			return zero, "", fmt.Errorf("resilience: serve: %w", err)
		}
		var r R
		err := m.breaker.Execute(func() error {
			var err error
			r, err = fn(ctx, m.value)
			return err
		})
		if err == nil {
			return r, m.name, nil
		}
		if errors.Is(err, ErrCircuitOpen) {
			fg.log().Debug("source skipped, circuit open", "source", m.name)
		} else {
			fg.log().Warn("source failed, trying next", "source", m.name, "err", err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", m.name, err))
	}
	return zero, "", fmt.Errorf("%w: %w", ErrAllFailed, errors.Join(errs...))
}
