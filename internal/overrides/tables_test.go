package overrides_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrWong99/padinfo/internal/overrides"
)

func TestReadPairs(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"revo kali,4418",
		"single",
		"extra,1,ignored",
		`"quoted, key",7`,
		"",
		"last,9",
	}, "\n")
	pairs, dropped, err := overrides.ReadPairs(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, []overrides.Pair{
		{Key: "revo kali", Value: "4418"},
		{Key: "extra", Value: "1"},
		{Key: "quoted, key", Value: "7"},
		{Key: "last", Value: "9"},
	}, pairs)
}

func TestNicknameTable(t *testing.T) {
	t.Parallel()

	table, dropped := overrides.NicknameTable([]overrides.Pair{
		{Key: " Revo Kali ", Value: "100"},
		{Key: "", Value: "1"},
		{Key: "bad id", Value: "12a"},
		{Key: "neg", Value: "-3"},
		{Key: "blank", Value: "  "},
		{Key: "revo kali", Value: " 200 "},
	})
	assert.Equal(t, 4, dropped)
	assert.Equal(t, map[string]int{"revo kali": 200}, table)
}

func TestBasenameTable(t *testing.T) {
	t.Parallel()

	table, dropped := overrides.BasenameTable([]overrides.Pair{
		{Key: "10", Value: "Kali"},
		{Key: "10", Value: " parvati "},
		{Key: "10", Value: "KALI"},
		{Key: "x", Value: "nope"},
		{Key: "20", Value: ""},
		{Key: "30", Value: "ra"},
	})
	assert.Equal(t, 2, dropped)
	assert.Equal(t, map[int][]string{
		10: {"kali", "parvati"},
		30: {"ra"},
	}, table)
}

func TestTablesLen(t *testing.T) {
	t.Parallel()

	assert.Zero(t, overrides.Empty().Len())
	tb := overrides.Tables{
		Nicknames: map[string]int{"a": 1, "b": 2},
		Basenames: map[int][]string{1: {"x", "y"}, 2: {"z"}},
	}
	assert.Equal(t, 5, tb.Len())
}
