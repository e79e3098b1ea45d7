package overrides_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrWong99/padinfo/internal/overrides"
	"github.com/MrWong99/padinfo/internal/resilience"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := &overrides.FileSource{
		NicknamePath: writeFile(t, dir, "nicknames.csv", "revo kali,22\nbroken\nold,1\nold,2\n"),
		BasenamePath: writeFile(t, dir, "basenames.csv", "20,kali\n20,Parvati\n"),
	}
	tb, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"revo kali": 22, "old": 2}, tb.Nicknames)
	assert.Equal(t, map[int][]string{20: {"kali", "parvati"}}, tb.Basenames)
}

func TestFileSource_MissingFilesAreEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := &overrides.FileSource{
		NicknamePath: filepath.Join(dir, "nope.csv"),
	}
	tb, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, tb.Len())
}

func TestFileSource_UnreadablePathFails(t *testing.T) {
	t.Parallel()

	src := &overrides.FileSource{NicknamePath: t.TempDir()}
	_, err := src.Load(context.Background())
	require.Error(t, err)
}

type stubSource struct {
	tables overrides.Tables
	err    error
	calls  int
}

func (s *stubSource) Load(context.Context) (overrides.Tables, error) {
	s.calls++
	return s.tables, s.err
}

func TestFallbackSource(t *testing.T) {
	t.Parallel()

	errDown := errors.New("db down")
	primary := &stubSource{err: errDown}
	csv := &stubSource{tables: overrides.Tables{Nicknames: map[string]int{"kali": 1}}}

	fs := overrides.NewFallbackSource("postgres", primary, resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{MaxFailures: 1},
	})
	fs.Add("csv", csv)
	assert.Equal(t, []string{"postgres", "csv"}, fs.Members())

	for range 2 {
		tb, err := fs.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, tb.Nicknames["kali"])
	}
	assert.Equal(t, 1, primary.calls, "open breaker skips the primary")
	assert.Equal(t, 2, csv.calls)

	csv.err = errors.New("csv gone")
	_, err := fs.Load(context.Background())
	require.ErrorIs(t, err, resilience.ErrAllFailed)
}
