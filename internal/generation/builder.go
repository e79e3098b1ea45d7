package generation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/padinfo/internal/nickname"
	"github.com/MrWong99/padinfo/internal/observe"
	"github.com/MrWong99/padinfo/internal/overrides"
	"github.com/MrWong99/padinfo/internal/pgdata"
)

// Builder assembles generations from a dataset source and an override
// source. The same inputs always produce an equivalent generation.
type Builder struct {
	Data      pgdata.Source
	Overrides overrides.Source // nil means no overrides
	Policy    pgdata.IntegrityPolicy

	// Accept optionally hides monsters from the index, such as JP-only
	// monsters on an NA-only deployment.
	Accept func(*pgdata.Monster) bool

	Log *slog.Logger

	mu  sync.Mutex
	seq atomic.Uint64
}

// Reconfigure runs fn with the builder locked so it can replace inputs
// between builds. A build already running keeps the inputs it started with.
func (b *Builder) Reconfigure(fn func(b *Builder)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

// Build loads both inputs concurrently and indexes them.
func (b *Builder) Build(ctx context.Context) (g *Generation, err error) {
	ctx, span := observe.StartSpan(ctx, "generation.build")
	defer func() { observe.EndSpan(span, err) }()

	b.mu.Lock()
	data, ovSrc, policy, accept, log := b.Data, b.Overrides, b.Policy, b.Accept, b.Log
	b.mu.Unlock()
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()

	var (
		db *pgdata.DB
		ov = overrides.Empty()
	)
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		db, err = pgdata.Build(egctx, data,
			pgdata.WithIntegrityPolicy(policy),
			pgdata.WithLogger(log))
		return err
	})
	if ovSrc != nil {
		eg.Go(func() error {
			t, err := ovSrc.Load(egctx)
			if err != nil {
				return err
			}
			ov = t
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("generation: build: %w", err)
	}
	if db.Faults != nil {
		log.Warn("monsters excluded by integrity check", "err", db.Faults)
	}

	var opts []nickname.Option
	if accept != nil {
		opts = append(opts, nickname.WithAcceptFilter(accept))
	}
	ix := nickname.Build(db, ov, opts...)

	return &Generation{
		Seq:       b.seq.Add(1),
		BuiltAt:   time.Now(),
		Took:      time.Since(start),
		DB:        db,
		Index:     ix,
		Overrides: ov,
	}, nil
}
