// Package observe holds the OpenTelemetry metrics and tracing used across
// padinfo, plus the HTTP middleware that ties both to request logs.
//
// Metrics are exported through a Prometheus bridge set up by [InitProvider]
// and scraped at /metrics. Code that has no injected [Metrics] uses
// [DefaultMetrics]; tests build their own with [NewMetrics] and a manual
// reader.
package observe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/MrWong99/padinfo"

// Metrics holds every instrument. All fields are safe for concurrent use.
type Metrics struct {
	// RebuildDuration is the wall time of one generation build.
	RebuildDuration metric.Float64Histogram

	// Rebuilds counts generation builds by status (ok, error).
	Rebuilds metric.Int64Counter

	// Queries counts resolved queries by the cascade stage that answered.
	Queries metric.Int64Counter

	// QueryDuration is the latency of one query resolution.
	QueryDuration metric.Float64Histogram

	// Commands counts chat commands by command and status.
	Commands metric.Int64Counter

	// IndexMonsters and IndexNicknames track the size of the live index.
	IndexMonsters  metric.Int64UpDownCounter
	IndexNicknames metric.Int64UpDownCounter

	// HTTPRequestDuration is recorded by [Middleware] with method and route.
	HTTPRequestDuration metric.Float64Histogram

	monsters  atomic.Int64
	nicknames atomic.Int64
}

var (
	rebuildBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
	queryBuckets   = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}
)

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.RebuildDuration, err = m.Float64Histogram("padinfo.rebuild.duration",
		metric.WithDescription("Wall time of one index generation build."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(rebuildBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Rebuilds, err = m.Int64Counter("padinfo.rebuilds",
		metric.WithDescription("Index generation builds by status."),
	); err != nil {
		return nil, err
	}
	if met.Queries, err = m.Int64Counter("padinfo.queries",
		metric.WithDescription("Monster queries by answering stage."),
	); err != nil {
		return nil, err
	}
	if met.QueryDuration, err = m.Float64Histogram("padinfo.query.duration",
		metric.WithDescription("Latency of one monster query."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(queryBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Commands, err = m.Int64Counter("padinfo.commands",
		metric.WithDescription("Chat commands by command and status."),
	); err != nil {
		return nil, err
	}
	if met.IndexMonsters, err = m.Int64UpDownCounter("padinfo.index.monsters",
		metric.WithDescription("Monsters in the live index."),
	); err != nil {
		return nil, err
	}
	if met.IndexNicknames, err = m.Int64UpDownCounter("padinfo.index.nicknames",
		metric.WithDescription("Nicknames in the live index."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("padinfo.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a process-wide [Metrics] on the global meter
// provider. It panics if the instruments cannot be created.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is shorthand for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordRebuild records one generation build.
func (m *Metrics) RecordRebuild(ctx context.Context, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RebuildDuration.Record(ctx, d.Seconds())
	m.Rebuilds.Add(ctx, 1, metric.WithAttributes(Attr("status", status)))
}

// RecordQuery records one query answered by stage.
func (m *Metrics) RecordQuery(ctx context.Context, stage string, d time.Duration) {
	m.Queries.Add(ctx, 1, metric.WithAttributes(Attr("stage", stage)))
	m.QueryDuration.Record(ctx, d.Seconds())
}

// RecordCommand records one chat command.
func (m *Metrics) RecordCommand(ctx context.Context, command, status string) {
	m.Commands.Add(ctx, 1, metric.WithAttributes(Attr("command", command), Attr("status", status)))
}

// SetIndexSize moves the index gauges to the given absolute values.
func (m *Metrics) SetIndexSize(ctx context.Context, monsters, nicknames int) {
	if d := int64(monsters) - m.monsters.Swap(int64(monsters)); d != 0 {
		m.IndexMonsters.Add(ctx, d)
	}
	if d := int64(nicknames) - m.nicknames.Swap(int64(nicknames)); d != 0 {
		m.IndexNicknames.Add(ctx, d)
	}
}
