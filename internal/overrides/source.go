package overrides

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/MrWong99/padinfo/internal/resilience"
)

// Source produces a snapshot of the override tables.
type Source interface {
	Load(ctx context.Context) (Tables, error)
}

// FileSource reads both tables from two-column CSV files. A path that is
// empty or does not exist yields an empty table.
type FileSource struct {
	NicknamePath string
	BasenamePath string

	// Log receives dropped-row counts. Nil means slog.Default().
	Log *slog.Logger
}

var _ Source = (*FileSource)(nil)

// Load reads both files.
func (s *FileSource) Load(_ context.Context) (Tables, error) {
	nickPairs, err := s.read(s.NicknamePath)
	if err != nil {
		return Tables{}, err
	}
	basePairs, err := s.read(s.BasenamePath)
	if err != nil {
		return Tables{}, err
	}

	nicks, nd := NicknameTable(nickPairs)
	bases, bd := BasenameTable(basePairs)
	s.logger().Debug("override files loaded",
		"nicknames", len(nicks), "nicknames_dropped", nd,
		"basenames", len(bases), "basenames_dropped", bd)
	return Tables{Nicknames: nicks, Basenames: bases}, nil
}

func (s *FileSource) read(path string) ([]Pair, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger().Debug("override file missing", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("overrides: open %s: %w", path, err)
	}
	defer f.Close()

	pairs, dropped, err := ReadPairs(f)
	if err != nil {
		return nil, fmt.Errorf("overrides: %s: %w", path, err)
	}
	if dropped > 0 {
		s.logger().Debug("dropped malformed override rows", "path", path, "dropped", dropped)
	}
	return pairs, nil
}

func (s *FileSource) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// FallbackSource loads from the first healthy member of a
// [resilience.FallbackGroup]. Each member sits behind its own circuit
// breaker, so a database outage degrades to the CSV files without retrying
// the database on every refresh.
type FallbackSource struct {
	group *resilience.FallbackGroup[Source]
	log   *slog.Logger
}

var _ Source = (*FallbackSource)(nil)

// NewFallbackSource returns a source that tries primary first.
func NewFallbackSource(name string, primary Source, cfg resilience.FallbackConfig) *FallbackSource {
	log := cfg.CircuitBreaker.Logger
	if log == nil {
		log = slog.Default()
	}
	return &FallbackSource{
		group: resilience.NewFallbackGroup(primary, name, cfg),
		log:   log,
	}
}

// Add registers a source tried after all earlier ones.
func (s *FallbackSource) Add(name string, src Source) { s.group.AddFallback(name, src) }

// Members lists the source names in the order they are tried.
func (s *FallbackSource) Members() []string { return s.group.Names() }

// Load returns the tables from the first source that succeeds.
func (s *FallbackSource) Load(ctx context.Context) (Tables, error) {
	t, served, err := resilience.Serve(ctx, s.group, func(ctx context.Context, src Source) (Tables, error) {
		return src.Load(ctx)
	})
	if err != nil {
		return Tables{}, fmt.Errorf("overrides: load: %w", err)
	}
	s.log.Debug("overrides loaded", "source", served, "entries", t.Len())
	return t, nil
}
