// Package generation builds immutable snapshots of the monster data and
// keeps the current one available to readers.
//
// A [Generation] bundles the record store, the nickname index built from it
// and the override tables it was built with. Readers call [Holder.Current]
// and use the returned generation for the whole request; the [Refresher]
// replaces it wholesale, so a reader never sees a half-built index.
package generation

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/MrWong99/padinfo/internal/nickname"
	"github.com/MrWong99/padinfo/internal/overrides"
	"github.com/MrWong99/padinfo/internal/pgdata"
)

// ErrNotReady is returned by [Holder.Ready] before the first publish.
var ErrNotReady = errors.New("generation: no index published yet")

// Generation is one fully built, read-only snapshot.
type Generation struct {
	Seq     uint64
	BuiltAt time.Time
	Took    time.Duration

	DB        *pgdata.DB
	Index     *nickname.Index
	Overrides overrides.Tables
}

// Monsters returns the number of indexed monsters.
func (g *Generation) Monsters() int { return g.Index.Len() }

// Nicknames returns the number of distinct nicknames.
func (g *Generation) Nicknames() int { return len(g.Index.Entries) }

// Holder publishes generations to concurrent readers.
type Holder struct {
	cur atomic.Pointer[Generation]
}

// Current returns the live generation, or nil before the first publish. It
// never blocks.
func (h *Holder) Current() *Generation { return h.cur.Load() }

// Swap publishes g and returns the generation it replaced.
func (h *Holder) Swap(g *Generation) *Generation {
	if g == nil {
		return h.cur.Load()
	}
	return h.cur.Swap(g)
}

// Ready returns [ErrNotReady] until a generation is published. Its
// signature fits a health checker.
func (h *Holder) Ready(context.Context) error {
	if h.cur.Load() == nil {
		return ErrNotReady
	}
	return nil
}
