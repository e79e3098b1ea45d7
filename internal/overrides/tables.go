// Package overrides loads the manually curated nickname and basename tables
// that take precedence over computed nicknames.
//
// Both tables are two-column (key, value) lists. They come from CSV files
// or from a Postgres table, with [FallbackSource] preferring the database.
package overrides

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Tables is one snapshot of both override tables.
type Tables struct {
	// Nicknames maps a lowercased nickname to the NA id it must resolve to.
	Nicknames map[string]int

	// Basenames maps the NA id of a group's base monster to the basenames
	// that replace the computed one. Values are lowercased, unique, sorted.
	Basenames map[int][]string
}

// Empty returns tables with no overrides.
func Empty() Tables {
	return Tables{Nicknames: map[string]int{}, Basenames: map[int][]string{}}
}

// Len returns the total number of override entries.
func (t Tables) Len() int {
	n := len(t.Nicknames)
	for _, bs := range t.Basenames {
		n += len(bs)
	}
	return n
}

// Pair is one raw (key, value) override row.
type Pair struct {
	Key   string
	Value string
}

// ReadPairs reads a two-column CSV. Rows with fewer than two columns are
// dropped and counted; extra columns are ignored.
func ReadPairs(r io.Reader) (pairs []Pair, dropped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return pairs, dropped, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				dropped++
				continue
			}
			return nil, dropped, fmt.Errorf("overrides: read csv: %w", err)
		}
		if len(rec) < 2 {
			dropped++
			continue
		}
		pairs = append(pairs, Pair{Key: rec[0], Value: rec[1]})
	}
}

// NicknameTable builds the nickname table from raw pairs. Pairs with an empty
// key or a non-numeric value are dropped. A later key replaces an earlier one.
func NicknameTable(pairs []Pair) (table map[string]int, dropped int) {
	table = make(map[string]int, len(pairs))
	for _, p := range pairs {
		key := strings.ToLower(strings.TrimSpace(p.Key))
		id, ok := parseID(p.Value)
		if key == "" || !ok {
			dropped++
			continue
		}
		table[key] = id
	}
	return table, dropped
}

// BasenameTable builds the basename table from raw pairs keyed by NA id.
// Pairs with a non-numeric key or an empty value are dropped.
func BasenameTable(pairs []Pair) (table map[int][]string, dropped int) {
	table = make(map[int][]string)
	for _, p := range pairs {
		id, ok := parseID(p.Key)
		name := strings.ToLower(strings.TrimSpace(p.Value))
		if !ok || name == "" {
			dropped++
			continue
		}
		if !slices.Contains(table[id], name) {
			table[id] = append(table[id], name)
		}
	}
	for id := range table {
		slices.Sort(table[id])
	}
	return table, dropped
}

// parseID accepts only a run of ASCII digits.
func parseID(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
