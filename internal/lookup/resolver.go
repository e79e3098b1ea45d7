package lookup

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MrWong99/padinfo/internal/generation"
	"github.com/MrWong99/padinfo/internal/observe"
)

// MissRecorder receives every query that resolved to nothing.
type MissRecorder interface {
	RecordMiss(query string, res Result) error
}

// Resolver answers queries against whatever generation is live when each
// query starts.
type Resolver struct {
	holder  *generation.Holder
	metrics *observe.Metrics
	misses  MissRecorder
}

// ResolverOption configures a [Resolver].
type ResolverOption func(*Resolver)

// WithMissRecorder reports unmatched queries to rec. Recording errors are
// logged and never fail the query.
func WithMissRecorder(rec MissRecorder) ResolverOption {
	return func(r *Resolver) { r.misses = rec }
}

// NewResolver returns a resolver reading from h. A nil m uses
// [observe.DefaultMetrics].
func NewResolver(h *generation.Holder, m *observe.Metrics, opts ...ResolverOption) *Resolver {
	if m == nil {
		m = observe.DefaultMetrics()
	}
	r := &Resolver{holder: h, metrics: m}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs [Find] on the live generation and returns that generation,
// so callers render details from the same snapshot that answered. The only
// error is [generation.ErrNotReady]; an unmatched query is a Result with a
// Reason.
func (r *Resolver) Resolve(ctx context.Context, query string) (Result, *generation.Generation, error) {
	g := r.holder.Current()
	if g == nil {
		return Result{}, nil, fmt.Errorf("lookup: resolve: %w", generation.ErrNotReady)
	}

	ctx, span := observe.StartSpan(ctx, "lookup.resolve")
	defer span.End()

	start := time.Now()
	res := Find(g.Index, query)
	r.metrics.RecordQuery(ctx, string(res.Stage), time.Since(start))

	span.SetAttributes(
		attribute.String("query", query),
		attribute.String("stage", string(res.Stage)),
		attribute.Int64("generation", int64(g.Seq)),
	)
	if res.Found() {
		span.SetAttributes(attribute.Int("monster.id", res.Monster.ID))
	}
	log := observe.Logger(ctx)
	log.Debug("query resolved",
		"query", query, "stage", res.Stage, "method", res.Method, "found", res.Found())
	if !res.Found() && r.misses != nil {
		if err := r.misses.RecordMiss(query, res); err != nil {
			log.Warn("recording missed query failed", "err", err)
		}
	}
	return res, g, nil
}
