package lookup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrWong99/padinfo/internal/lookup"
	"github.com/MrWong99/padinfo/internal/overrides"
	"github.com/MrWong99/padinfo/internal/pgdata"
	"github.com/MrWong99/padinfo/internal/pgdata/pgdatatest"
)

func TestSuggest(t *testing.T) {
	t.Parallel()

	ix := index(t, overrides.Empty(),
		pgdatatest.Monster{ID: 10, NameNA: "Kali Ma", Rarity: 3, Attr1: pgdata.AttrDark},
		pgdatatest.Monster{ID: 20, NameNA: "Kali Yuga", Rarity: 6, Attr1: pgdata.AttrLight},
		pgdatatest.Monster{ID: 30, NameNA: "Pirate Dragon", Rarity: 5, Attr1: pgdata.AttrWater},
	)

	got := lookup.Suggest(ix, "Kaly Yuga", 5)
	require.Len(t, got, 2)
	assert.Equal(t, "kali yuga", got[0])
	assert.Equal(t, 10, ix.Entries[got[1]].ID)

	assert.Equal(t, []string{"kali yuga"}, lookup.Suggest(ix, "kaly yuga", 1))
	assert.Equal(t, "pirate dragon", lookup.Suggest(ix, "pirat dragun", 3)[0])

	assert.Empty(t, lookup.Suggest(ix, "zzzzzzzz", 5))
	assert.Empty(t, lookup.Suggest(ix, "  ", 5))
	assert.Empty(t, lookup.Suggest(ix, "kali yuga", 0))
}
