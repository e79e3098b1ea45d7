// Package feedback records lookups that found nothing, so curators can see
// which nicknames players expect and add overrides for them. Misses are
// stored as append-only JSON lines in a local file.
package feedback

import (
	"bufio"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/MrWong99/padinfo/internal/lookup"
)

var _ lookup.MissRecorder = (*FileStore)(nil)

// Record is one failed lookup.
type Record struct {
	Timestamp time.Time    `json:"timestamp"`
	Query     string       `json:"query"`
	Stage     lookup.Stage `json:"stage"`
	Reason    string       `json:"reason"`
}

// Miss is a normalized query with the number of times it failed.
type Miss struct {
	Query    string
	Count    int
	LastSeen time.Time
}

// FileStore persists misses as JSON lines in a local file.
// Thread-safe for concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileStore creates a FileStore that writes to the given path.
// The file is created on the first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// RecordMiss appends res for query to the file.
func (s *FileStore) RecordMiss(query string, res lookup.Result) error {
	data, err := json.Marshal(Record{
		Timestamp: s.now().UTC(),
		Query:     lookup.Normalize(query),
		Stage:     res.Stage,
		Reason:    res.Reason,
	})
	if err != nil {
		return fmt.Errorf("feedback: marshal: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("feedback: open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("feedback: write: %w", err)
	}
	return nil
}

// Top aggregates the file by query and returns the n most frequent misses,
// most recent first among equals. Lines that do not decode are skipped. A
// missing file has no misses.
func (s *FileStore) Top(n int) ([]Miss, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("feedback: open file: %w", err)
	}
	defer f.Close()

	byQuery := make(map[string]*Miss)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r Record
		if json.Unmarshal(sc.Bytes(), &r) != nil || r.Query == "" {
			continue
		}
		m, ok := byQuery[r.Query]
		if !ok {
			m = &Miss{Query: r.Query}
			byQuery[r.Query] = m
		}
		m.Count++
		if r.Timestamp.After(m.LastSeen) {
			m.LastSeen = r.Timestamp
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("feedback: read: %w", err)
	}

	out := make([]Miss, 0, len(byQuery))
	for _, m := range byQuery {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b Miss) int {
		return cmp.Or(
			cmp.Compare(b.Count, a.Count),
			b.LastSeen.Compare(a.LastSeen),
			cmp.Compare(a.Query, b.Query),
		)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}
