package pgdata

import (
	"log/slog"
)

// table is the arena of one kind: records in source order plus a key index.
// A later row with a duplicate key replaces the earlier one in place.
type table[T any] struct {
	items []T
	byKey map[int]Ref
}

// recordPtr constrains P to a pointer to T that implements Record.
type recordPtr[T any] interface {
	*T
	Record
}

// newTable parses rows with parse, skipping malformed and deleted rows.
// Malformed rows are logged at WARN.
func newTable[T any, P recordPtr[T]](kind Kind, rows []Row, parse func(Row) (T, error), log *slog.Logger) table[T] {
	t := table[T]{
		items: make([]T, 0, len(rows)),
		byKey: make(map[int]Ref, len(rows)),
	}
	for i, row := range rows {
		rec, err := parse(row)
		if err != nil {
			log.Warn("skipping malformed row", "kind", kind, "row", i, "err", err)
			continue
		}
		p := P(&rec)
		if p.Deleted() {
			continue
		}
		t.put(rec, p.Key())
	}
	return t
}

func (t *table[T]) put(rec T, key int) {
	if ref, ok := t.byKey[key]; ok {
		t.items[ref] = rec
		return
	}
	t.byKey[key] = Ref(len(t.items))
	t.items = append(t.items, rec)
}

// ref returns the arena index of key, or NoRef.
func (t *table[T]) ref(key int) Ref {
	if r, ok := t.byKey[key]; ok {
		return r
	}
	return NoRef
}

// at returns the record at r, or nil for NoRef.
func (t *table[T]) at(r Ref) *T {
	if !r.Valid() || int(r) >= len(t.items) {
		return nil
	}
	return &t.items[r]
}

func (t *table[T]) get(key int) *T {
	return t.at(t.ref(key))
}

func (t *table[T]) len() int { return len(t.items) }

// filterTable rebuilds t keeping only records for which keep is true.
// Refs into t taken before the call are invalidated.
func filterTable[T any, P recordPtr[T]](t *table[T], keep func(*T) bool) {
	items := make([]T, 0, len(t.items))
	byKey := make(map[int]Ref, len(t.items))
	for i := range t.items {
		if !keep(&t.items[i]) {
			continue
		}
		byKey[P(&t.items[i]).Key()] = Ref(len(items))
		items = append(items, t.items[i])
	}
	t.items = items
	t.byKey = byKey
}
