package lookup_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/padinfo/internal/generation"
	"github.com/MrWong99/padinfo/internal/lookup"
	"github.com/MrWong99/padinfo/internal/nickname"
	"github.com/MrWong99/padinfo/internal/observe"
	"github.com/MrWong99/padinfo/internal/overrides"
	"github.com/MrWong99/padinfo/internal/pgdata"
	"github.com/MrWong99/padinfo/internal/pgdata/pgdatatest"
)

func TestResolver(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	require.NoError(t, err)

	var h generation.Holder
	r := lookup.NewResolver(&h, m)

	_, _, err = r.Resolve(context.Background(), "kali")
	require.ErrorIs(t, err, generation.ErrNotReady)

	db := pgdatatest.New().
		Monster(pgdatatest.Monster{ID: 1, NameNA: "Kali", Rarity: 6, Attr1: pgdata.AttrLight}).
		Build(t)
	g := &generation.Generation{Seq: 4, DB: db, Index: nickname.Build(db, overrides.Empty())}
	h.Swap(g)

	res, got, err := r.Resolve(context.Background(), "Kali")
	require.NoError(t, err)
	assert.Same(t, g, got)
	require.True(t, res.Found())
	assert.Equal(t, 1, res.Monster.ID)

	res, _, err = r.Resolve(context.Background(), "qqqqqqqqqq")
	require.NoError(t, err)
	assert.False(t, res.Found())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	stages := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name != "padinfo.queries" {
				continue
			}
			for _, dp := range met.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value("stage")
				stages[v.AsString()] = dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{"exact_nickname": 1, "no_match": 1}, stages)
}

type missLog struct {
	queries []string
	err     error
}

func (l *missLog) RecordMiss(query string, res lookup.Result) error {
	l.queries = append(l.queries, query+"|"+string(res.Stage))
	return l.err
}

func TestResolver_RecordsMisses(t *testing.T) {
	t.Parallel()

	db := pgdatatest.New().
		Monster(pgdatatest.Monster{ID: 1, NameNA: "Kali", Rarity: 6, Attr1: pgdata.AttrLight}).
		Build(t)
	var h generation.Holder
	h.Swap(&generation.Generation{Seq: 1, DB: db, Index: nickname.Build(db, overrides.Empty())})

	log := &missLog{}
	r := lookup.NewResolver(&h, nil, lookup.WithMissRecorder(log))

	for _, q := range []string{"kali", "abc", "1234"} {
		_, _, err := r.Resolve(context.Background(), q)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"abc|too_short", "1234|id"}, log.queries)

	log.err = errors.New("disk full")
	res, _, err := r.Resolve(context.Background(), "zzzzzzzz")
	require.NoError(t, err, "recording failures never fail the query")
	assert.False(t, res.Found())
}
