package pgdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Dataset holds the raw rows of every kind in source order.
type Dataset map[Kind][]Row

// Fetch makes a Dataset usable as an in-memory [Source].
func (d Dataset) Fetch(context.Context) (Dataset, error) {
	return d, nil
}

// Source supplies the raw datasets of one generation.
type Source interface {
	Fetch(ctx context.Context) (Dataset, error)
}

// DirSource reads "<Dir>/<kind file>.json" for every kind. Each file holds
// {"items": [...]} as published by PadGuide. A missing or malformed file
// yields an empty dataset for that kind and is logged at WARN.
type DirSource struct {
	Dir string
	Log *slog.Logger
}

type datasetFile struct {
	Items []map[string]any `json:"items"`
}

// Fetch reads all datasets concurrently.
func (s DirSource) Fetch(ctx context.Context) (Dataset, error) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	if _, err := os.Stat(s.Dir); err != nil {
		return nil, fmt.Errorf("pgdata: read data dir: %w", err)
	}

	var mu sync.Mutex
	out := make(Dataset, numKinds)

	g, ctx := errgroup.WithContext(ctx)
	for _, k := range Kinds() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := readDataset(filepath.Join(s.Dir, DatasetFileName(k)))
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					log.Warn("dataset missing", "kind", k)
				} else {
					log.Warn("dataset unreadable", "kind", k, "err", err)
				}
				rows = nil
			}
			mu.Lock()
			out[k] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pgdata: fetch: %w", err)
	}
	return out, nil
}

// DatasetFileName is the on-disk name of the cached dataset for k.
func DatasetFileName(k Kind) string {
	return k.FileName() + ".json"
}

func readDataset(path string) ([]Row, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f datasetFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(f.Items))
	for _, item := range f.Items {
		row := make(Row, len(item))
		for k, v := range item {
			row[k] = stringify(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// stringify flattens a JSON value to the string form PadGuide uses. PadGuide
// quotes numbers, but cached files edited by hand sometimes do not.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprint(t)
	case bool:
		if t {
			return "1"
		}
		return "0"
	}
	b, _ := json.Marshal(v)
	return string(b)
}
