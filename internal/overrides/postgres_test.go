package overrides

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

type mockRows struct {
	data    [][]any
	idx     int
	err     error
	closed  bool
	scanErr error
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d columns, got %d destinations", len(row), len(dest))
	}
	for i, v := range row {
		d, ok := dest[i].(*string)
		if !ok {
			return fmt.Errorf("scan: unsupported type at index %d: %T", i, dest[i])
		}
		*d = v.(string)
	}
	return nil
}

type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{scanFunc: func(...any) error { return pgx.ErrNoRows }}
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func TestPostgresSource_Migrate(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{execFunc: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
			assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS padinfo_overrides")
			return pgconn.CommandTag{}, nil
		}}
		require.NoError(t, NewPostgresSource(db).Migrate(context.Background()))
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		db := &mockDB{execFunc: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, errors.New("connection refused")
		}}
		err := NewPostgresSource(db).Migrate(context.Background())
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(err.Error(), "overrides: migrate:"), err.Error())
	})
}

func TestPostgresSource_Load(t *testing.T) {
	t.Parallel()

	rows := &mockRows{data: [][]any{
		{KindNickname, "revo kali", "21"},
		{KindBasename, "20", "kali"},
		{KindNickname, "revo kali", "22"},
		{KindBasename, "20", "parvati"},
		{KindNickname, "junk", "abc"},
		{"unknown", "x", "y"},
	}}
	db := &mockDB{queryFunc: func(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
		assert.Contains(t, sql, "ORDER BY created_at")
		return rows, nil
	}}

	tb, err := NewPostgresSource(db).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"revo kali": 22}, tb.Nicknames)
	assert.Equal(t, map[int][]string{20: {"kali", "parvati"}}, tb.Basenames)
	assert.True(t, rows.closed)
}

func TestPostgresSource_LoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query func(context.Context, string, ...any) (pgx.Rows, error)
	}{
		{"query", func(context.Context, string, ...any) (pgx.Rows, error) {
			return nil, errors.New("boom")
		}},
		{"scan", func(context.Context, string, ...any) (pgx.Rows, error) {
			return &mockRows{data: [][]any{{"a", "b", "c"}}, scanErr: errors.New("bad")}, nil
		}},
		{"rows", func(context.Context, string, ...any) (pgx.Rows, error) {
			return &mockRows{err: errors.New("conn reset")}, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewPostgresSource(&mockDB{queryFunc: tt.query}).Load(context.Background())
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "overrides: load:"), err.Error())
		})
	}
}

func TestPostgresSource_AddNickname(t *testing.T) {
	t.Parallel()

	var gotSQL string
	var gotArgs []any
	db := &mockDB{execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		gotSQL, gotArgs = sql, args
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}}
	s := NewPostgresSource(db)

	require.NoError(t, s.AddNickname(context.Background(), "  Revo Kali ", 22))
	assert.Contains(t, gotSQL, "ON CONFLICT (kind, key, value)")
	assert.Equal(t, []any{KindNickname, "revo kali", "22"}, gotArgs)

	require.NoError(t, s.AddBasename(context.Background(), 20, " Kali "))
	assert.Equal(t, []any{KindBasename, "20", "kali"}, gotArgs)

	assert.ErrorIs(t, s.AddNickname(context.Background(), " ", 22), ErrInvalidOverride)
	assert.ErrorIs(t, s.AddNickname(context.Background(), "kali", 0), ErrInvalidOverride)
	assert.ErrorIs(t, s.AddBasename(context.Background(), 20, ""), ErrInvalidOverride)
}

func TestPostgresSource_RemoveNickname(t *testing.T) {
	t.Parallel()

	tag := "DELETE 2"
	db := &mockDB{execFunc: func(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
		assert.Equal(t, []any{KindNickname, "kali"}, args)
		return pgconn.NewCommandTag(tag), nil
	}}
	s := NewPostgresSource(db)

	removed, err := s.RemoveNickname(context.Background(), "Kali")
	require.NoError(t, err)
	assert.True(t, removed)

	tag = "DELETE 0"
	removed, err = s.RemoveNickname(context.Background(), "kali")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPostgresSource_Count(t *testing.T) {
	t.Parallel()

	db := &mockDB{queryRowFunc: func(context.Context, string, ...any) pgx.Row {
		return &mockRow{scanFunc: func(dest ...any) error {
			*dest[0].(*int) = 7
			return nil
		}}
	}}
	n, err := NewPostgresSource(db).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = NewPostgresSource(&mockDB{}).Count(context.Background())
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestPostgresSource_Import(t *testing.T) {
	t.Parallel()

	var stored [][]any
	db := &mockDB{execFunc: func(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
		stored = append(stored, args)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}}
	s := NewPostgresSource(db)

	n, dropped, err := s.Import(context.Background(), KindNickname,
		strings.NewReader("revo kali,22\nbad row\nkali,x\nPD,30\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, [][]any{
		{KindNickname, "pd", "30"},
		{KindNickname, "revo kali", "22"},
	}, stored)

	stored = nil
	n, dropped, err = s.Import(context.Background(), KindBasename,
		strings.NewReader("20,kali\n20,Kali\n20,parvati\n,x\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, [][]any{
		{KindBasename, "20", "kali"},
		{KindBasename, "20", "parvati"},
	}, stored)

	_, _, err = s.Import(context.Background(), "series", strings.NewReader("1,2\n"))
	assert.ErrorIs(t, err, ErrInvalidOverride)
}

func TestPostgresSource_ImportStopsOnError(t *testing.T) {
	t.Parallel()

	calls := 0
	db := &mockDB{execFunc: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
		calls++
		if calls == 2 {
			return pgconn.CommandTag{}, errors.New("connection reset")
		}
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}}

	n, _, err := NewPostgresSource(db).Import(context.Background(), KindNickname,
		strings.NewReader("a,1\nb,2\nc,3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1, n)
}
