package overrides

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema creates the padinfo_overrides table. Apply it with
// [PostgresSource.Migrate] or during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS padinfo_overrides (
    kind       TEXT NOT NULL,
    key        TEXT NOT NULL,
    value      TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (kind, key, value)
);
CREATE INDEX IF NOT EXISTS idx_padinfo_overrides_created ON padinfo_overrides(created_at);
`

// Row kinds stored in padinfo_overrides.
const (
	KindNickname = "nickname"
	KindBasename = "basename"
)

// ErrInvalidOverride is returned for an override that could never be applied.
var ErrInvalidOverride = errors.New("overrides: invalid override")

// DB is the subset of *pgxpool.Pool and *pgx.Conn used here.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSource stores override rows in Postgres. Rows are returned oldest
// first, so for a nickname stored twice the newest id wins, exactly like a
// later CSV line.
type PostgresSource struct {
	db DB
}

var _ Source = (*PostgresSource)(nil)

// NewPostgresSource wraps db. Call [PostgresSource.Migrate] before use.
func NewPostgresSource(db DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Migrate applies [Schema].
func (s *PostgresSource) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("overrides: migrate: %w", err)
	}
	return nil
}

// Load reads every stored override.
func (s *PostgresSource) Load(ctx context.Context) (Tables, error) {
	const query = `
		SELECT kind, key, value
		FROM padinfo_overrides
		ORDER BY created_at, kind, key, value`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return Tables{}, fmt.Errorf("overrides: load: %w", err)
	}
	defer rows.Close()

	var nicks, bases []Pair
	for rows.Next() {
		var kind string
		var p Pair
		if err := rows.Scan(&kind, &p.Key, &p.Value); err != nil {
			return Tables{}, fmt.Errorf("overrides: load: scan: %w", err)
		}
		switch kind {
		case KindNickname:
			nicks = append(nicks, p)
		case KindBasename:
			bases = append(bases, p)
		}
	}
	if err := rows.Err(); err != nil {
		return Tables{}, fmt.Errorf("overrides: load: %w", err)
	}

	t := Tables{}
	t.Nicknames, _ = NicknameTable(nicks)
	t.Basenames, _ = BasenameTable(bases)
	return t, nil
}

const upsert = `
	INSERT INTO padinfo_overrides (kind, key, value)
	VALUES ($1, $2, $3)
	ON CONFLICT (kind, key, value) DO UPDATE SET created_at = now()`

// AddNickname makes nickname resolve to the monster with NA id naID. It
// replaces any earlier id stored for the same nickname.
func (s *PostgresSource) AddNickname(ctx context.Context, nickname string, naID int) error {
	key := strings.ToLower(strings.TrimSpace(nickname))
	if key == "" || naID <= 0 {
		return fmt.Errorf("%w: nickname %q -> %d", ErrInvalidOverride, nickname, naID)
	}
	if _, err := s.db.Exec(ctx, upsert, KindNickname, key, strconv.Itoa(naID)); err != nil {
		return fmt.Errorf("overrides: add nickname: %w", err)
	}
	return nil
}

// AddBasename adds basename to the group whose base monster has NA id naID.
func (s *PostgresSource) AddBasename(ctx context.Context, naID int, basename string) error {
	value := strings.ToLower(strings.TrimSpace(basename))
	if value == "" || naID <= 0 {
		return fmt.Errorf("%w: basename %d -> %q", ErrInvalidOverride, naID, basename)
	}
	if _, err := s.db.Exec(ctx, upsert, KindBasename, strconv.Itoa(naID), value); err != nil {
		return fmt.Errorf("overrides: add basename: %w", err)
	}
	return nil
}

// RemoveNickname deletes every stored id for nickname and reports whether
// anything was removed.
func (s *PostgresSource) RemoveNickname(ctx context.Context, nickname string) (bool, error) {
	const query = `DELETE FROM padinfo_overrides WHERE kind = $1 AND key = $2`
	tag, err := s.db.Exec(ctx, query, KindNickname, strings.ToLower(strings.TrimSpace(nickname)))
	if err != nil {
		return false, fmt.Errorf("overrides: remove nickname: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Count returns the number of stored rows.
func (s *PostgresSource) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM padinfo_overrides`).Scan(&n); err != nil {
		return 0, fmt.Errorf("overrides: count: %w", err)
	}
	return n, nil
}

// Import reads a two-column CSV of kind rows from r and stores every valid
// row. It returns how many rows were stored and how many were dropped as
// malformed. Rows stored before an error stay stored.
func (s *PostgresSource) Import(ctx context.Context, kind string, r io.Reader) (imported, dropped int, err error) {
	pairs, dropped, err := ReadPairs(r)
	if err != nil {
		return 0, dropped, fmt.Errorf("overrides: import: %w", err)
	}

	switch kind {
	case KindNickname:
		table, bad := NicknameTable(pairs)
		dropped += bad
		for _, nick := range slices.Sorted(maps.Keys(table)) {
			if err := s.AddNickname(ctx, nick, table[nick]); err != nil {
				return imported, dropped, fmt.Errorf("overrides: import: %w", err)
			}
			imported++
		}
	case KindBasename:
		table, bad := BasenameTable(pairs)
		dropped += bad
		for _, id := range slices.Sorted(maps.Keys(table)) {
			for _, name := range table[id] {
				if err := s.AddBasename(ctx, id, name); err != nil {
					return imported, dropped, fmt.Errorf("overrides: import: %w", err)
				}
				imported++
			}
		}
	default:
		return 0, dropped, fmt.Errorf("%w: unknown kind %q", ErrInvalidOverride, kind)
	}
	return imported, dropped, nil
}
