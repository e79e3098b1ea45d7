package pgdata_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrWong99/padinfo/internal/pgdata"
	"github.com/MrWong99/padinfo/internal/pgdata/pgdatatest"
)

func TestLinkOrder_IsTopological(t *testing.T) {
	t.Parallel()

	order := pgdata.LinkOrder()
	require.Len(t, order, len(pgdata.Kinds()))

	pos := make(map[pgdata.Kind]int, len(order))
	for i, k := range order {
		pos[k] = i
	}
	for _, k := range pgdata.Kinds() {
		for _, dep := range pgdata.Deps(k) {
			assert.Less(t, pos[dep], pos[k], "%s must link after %s", k, dep)
		}
	}
}

func TestWeightedStats_TruncatesEachTerm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hp, atk, rcv int
		want         int
	}{
		{hp: 0, atk: 0, rcv: 0, want: 0},
		{hp: 19, atk: 9, rcv: 5, want: 1 + 1 + 1},
		// The sum 9/10 + 4/5 + 2/3 exceeds 2 but every term truncates to 0.
		{hp: 9, atk: 4, rcv: 2, want: 0},
		{hp: 4000, atk: 1500, rcv: 300, want: 400 + 300 + 100},
	}
	for _, tc := range tests {
		got := pgdata.WeightedStats(tc.hp, tc.atk, tc.rcv)
		if got != tc.want {
			t.Errorf("WeightedStats(%d, %d, %d) = %d, want %d", tc.hp, tc.atk, tc.rcv, got, tc.want)
		}
	}
}

func TestBuild_DeletedRecordsAbsent(t *testing.T) {
	t.Parallel()

	f := pgdatatest.New().
		Monster(pgdatatest.Monster{ID: 1, NameNA: "Tyrra", Rarity: 2}).
		Monster(pgdatatest.Monster{ID: 2, NameNA: "Tyrannos", Rarity: 3}).
		Skill(10, "Enhanced HP", "", 0, 0).
		Series(5, "Dragons").
		Add(pgdata.KindSeries, pgdata.Row{"TSR_SEQ": "6", "NAME_US": "Gone", "DEL_YN": "Y"}).
		Add(pgdata.KindAwakening, pgdata.Row{
			"TMA_SEQ": "7", "TS_SEQ": "10", "DEL_YN": "Y", "MONSTER_NO": "1", "ORDER_IDX": "1",
		}).
		Add(pgdata.KindEvolution, pgdata.Row{
			"TV_SEQ": "8", "MONSTER_NO": "0", "TO_NO": "2", "TV_TYPE": "0",
		}).
		Add(pgdata.KindSkillRotation, pgdata.Row{
			"TSR_SEQ": "9", "MONSTER_NO": "1", "SERVER": "KR", "STATUS": "0",
		}).
		Add(pgdata.KindSkillRotation, pgdata.Row{
			"TSR_SEQ": "11", "MONSTER_NO": "1", "SERVER": "NA", "STATUS": "0",
		})

	db := f.Build(t)

	assert.Contains(t, db.Load(pgdata.KindSeries), 5)
	assert.NotContains(t, db.Load(pgdata.KindSeries), 6)
	assert.NotContains(t, db.Load(pgdata.KindAwakening), 7)
	assert.NotContains(t, db.Load(pgdata.KindEvolution), 8)
	assert.NotContains(t, db.Load(pgdata.KindSkillRotation), 9)
	assert.Contains(t, db.Load(pgdata.KindSkillRotation), 11)

	for _, k := range pgdata.Kinds() {
		for id, rec := range db.Load(k) {
			assert.False(t, rec.Deleted(), "%s %d is deleted but loaded", k, id)
			assert.Equal(t, k, rec.Kind())
		}
	}

	_, ok := db.Get(pgdata.KindSeries, 6)
	assert.False(t, ok)
	assert.Empty(t, db.Monster(1).Awakenings)
	assert.Equal(t, pgdata.EvoBase, db.Monster(2).EvoType)
}

func TestBuild_LinksMonster(t *testing.T) {
	t.Parallel()

	f := pgdatatest.New().
		Skill(100, "Blaze", "Fire orbs.", 12, 7).
		Skill(200, "Lead", "ATK x3.", 0, 0).
		Skill(300, "Enhanced Fire Orbs", "", 0, 0).
		Skill(301, "Skill Boost", "", 0, 0).
		Series(34, "Godfest").
		Add(pgdata.KindSkillLeaderData, pgdata.Row{"TS_SEQ": "200", "LEADER_DATA": "2/3|1/1.5"}).
		Monster(pgdatatest.Monster{
			ID: 1000, NAID: 1001, NameNA: "Kali", Rarity: 6, Cost: 30, Level: 99,
			HP: 3000, ATK: 1500, RCV: 300,
			Attr1: pgdata.AttrLight, Attr2: pgdata.AttrDark,
			Type1: pgdatatest.TypeGod, Type2: pgdatatest.TypeAttacker, Type3: pgdatatest.TypeDevil,
			ActiveSkill: 100, LeaderSkill: 200, Series: 34,
			BuyMP: 0, SellMP: 15000, OnNA: true,
		}).
		Awakening(1000, 301, 2).
		Awakening(1000, 300, 1).
		Awakening(1000, 999, 3)

	db := f.Build(t)
	m := db.Monster(1000)
	require.NotNil(t, m)

	assert.Same(t, m, db.MonsterByNA(1001))
	assert.Nil(t, db.MonsterByNA(1000))
	assert.Equal(t, 300+300+100, m.WeightedStats)
	assert.Equal(t, pgdata.AttrLight, m.Attr1)
	assert.Equal(t, pgdata.AttrDark, m.Attr2)
	assert.Equal(t, []string{"God", "Attacker", "Devil"}, m.Types())
	assert.True(t, m.IsGFE)
	assert.Equal(t, 34, m.SeriesID)
	assert.True(t, m.OnNA)
	assert.False(t, m.InMPShop)
	assert.Equal(t, 15000, m.SellMP)

	active := db.SkillAt(m.ActiveSkill)
	require.NotNil(t, active)
	assert.Equal(t, "Blaze", active.Name)
	assert.Len(t, active.MonstersWithActive, 1)

	leader := db.LeaderDataAt(m.LeaderData)
	require.NotNil(t, leader)
	assert.InDelta(t, 3.0, leader.ATK, 1e-9)
	assert.InDelta(t, 1.5, leader.HP, 1e-9)
	assert.InDelta(t, 1.0, leader.RCV, 1e-9)

	var names []string
	for _, s := range db.AwakeningSkills(m) {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Enhanced Fire Orbs", "Skill Boost"}, names, "dangling awakening dropped, rest ordered")
	assert.Len(t, db.Skill(300).MonstersWithAwakening, 1)

	assert.True(t, m.IsInheritable)
	assert.Equal(t, []string{"Devil", "God", "Physical"}, m.Killers)

	series := db.Series(34)
	require.NotNil(t, series)
	assert.Len(t, series.Monsters, 1)
	assert.Same(t, series, db.SeriesAt(m.Series))

	require.Len(t, m.Awakenings, 2)
	first := db.AwakeningAt(m.Awakenings[0])
	require.NotNil(t, first)
	assert.Equal(t, 1, first.Order)
	assert.Same(t, db.Skill(300), db.SkillAt(first.Skill))
	assert.Nil(t, db.AwakeningAt(pgdata.NoRef))
}

func TestBuild_DropDungeons(t *testing.T) {
	t.Parallel()

	db := pgdatatest.New().
		Monster(pgdatatest.Monster{ID: 1, NameNA: "Farm", Rarity: 3}).
		Monster(pgdatatest.Monster{ID: 2, NameNA: "Rare", Rarity: 6}).
		Drop(1).
		Build(t)

	m := db.Monster(1)
	assert.True(t, m.Farmable)
	require.Len(t, m.DropDungeons, 1)
	d := db.DungeonAt(m.DropDungeons[0])
	require.NotNil(t, d)
	assert.Contains(t, d.Name, "Dungeon ")
	assert.False(t, db.Monster(2).Farmable)
	assert.Empty(t, db.Monster(2).DropDungeons)
}

func TestBuild_DropWithMissingDungeonStillFarmable(t *testing.T) {
	t.Parallel()

	db := pgdatatest.New().
		Monster(pgdatatest.Monster{ID: 1, NameNA: "Stray", Rarity: 3}).
		Add(pgdata.KindDungeonMonster, pgdata.Row{
			"TDM_SEQ": "900", "DROP_NO": "1", "MONSTER_NO": "1", "DUNGEON_SEQ": "4242", "TSD_SEQ": "1",
		}).
		Build(t)

	m := db.Monster(1)
	assert.True(t, m.Farmable)
	require.Len(t, m.DropDungeons, 1)
	assert.Equal(t, pgdata.NoRef, m.DropDungeons[0])
	assert.Nil(t, db.DungeonAt(m.DropDungeons[0]))
}

func TestBuild_EvolutionsAndMaterials(t *testing.T) {
	t.Parallel()

	f := pgdatatest.New().
		Monster(pgdatatest.Monster{ID: 1, NameNA: "Base", Rarity: 4}).
		Monster(pgdatatest.Monster{ID: 2, NameNA: "Evo", Rarity: 5}).
		Monster(pgdatatest.Monster{ID: 3, NameNA: "Awoken Evo", Rarity: 6}).
		Monster(pgdatatest.Monster{ID: 50, NameNA: "Fodder", Rarity: 3}).
		Evolution(1, 2, pgdata.EvoNormal).
		Evolution(2, 3, pgdata.EvoUvoAwoken)

	evoSeq := f.Data[pgdata.KindEvolution][1]["TV_SEQ"]
	f.Add(pgdata.KindEvolutionMaterial, pgdata.Row{
		"TEM_SEQ": "1", "TV_SEQ": evoSeq, "MONSTER_NO": "50", "ORDER_IDX": "1",
	})
	f.Add(pgdata.KindEvolutionMaterial, pgdata.Row{
		"TEM_SEQ": "2", "TV_SEQ": "424242", "MONSTER_NO": "50", "ORDER_IDX": "1",
	})

	db := f.Build(t)

	assert.Equal(t, pgdata.EvoBase, db.Monster(1).EvoType)
	assert.Equal(t, pgdata.EvoNormal, db.Monster(2).EvoType)
	assert.Equal(t, pgdata.EvoUvoAwoken, db.Monster(3).EvoType)
	assert.Same(t, db.Monster(2), db.MonsterAt(db.Monster(3).EvoFrom))

	require.Len(t, db.Monster(3).MatsForEvo, 1)
	assert.Same(t, db.Monster(50), db.MonsterAt(db.Monster(3).MatsForEvo[0]))
	require.Len(t, db.Monster(50).MaterialOf, 1)
	assert.Same(t, db.Monster(3), db.MonsterAt(db.Monster(50).MaterialOf[0]))
}

func TestBuild_MalformedRowSkipped(t *testing.T) {
	t.Parallel()

	f := pgdatatest.New().
		Monster(pgdatatest.Monster{ID: 1, NameNA: "Good", Rarity: 3}).
		Add(pgdata.KindSkill, pgdata.Row{"TS_SEQ": "abc", "TS_NAME_US": "Broken", "TURN_MIN": "1", "TURN_MAX": "2"}).
		Add(pgdata.KindSkill, pgdata.Row{"TS_SEQ": "5", "TS_NAME_US": "No turns"})

	db := f.Build(t)
	assert.Empty(t, db.Load(pgdata.KindSkill))
	assert.NotNil(t, db.Monster(1))
}

func TestBuild_DuplicateKeyLaterWins(t *testing.T) {
	t.Parallel()

	f := pgdatatest.New().
		Skill(7, "First", "", 1, 1).
		Skill(7, "Second", "", 1, 1)

	db := f.Build(t)
	require.NotNil(t, db.Skill(7))
	assert.Equal(t, "Second", db.Skill(7).Name)
	assert.Equal(t, 1, db.Count(pgdata.KindSkill))
}

func TestBuild_IntegrityAbort(t *testing.T) {
	t.Parallel()

	f := pgdatatest.New().
		Monster(pgdatatest.Monster{ID: 1, NameNA: "Fine", Rarity: 3}).
		Monster(pgdatatest.Monster{ID: 2, NameNA: "No price", Rarity: 3, SkipPrice: true})

	_, err := pgdata.Build(context.Background(), f.Data)
	require.Error(t, err)
	assert.ErrorIs(t, err, pgdata.ErrIntegrity)

	var ie *pgdata.IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, pgdata.KindMonster, ie.Kind)
	assert.Equal(t, 2, ie.Key)
	assert.Equal(t, pgdata.KindMonsterPrice, ie.Missing)
}

func TestBuild_IntegrityExclude(t *testing.T) {
	t.Parallel()

	f := pgdatatest.New().
		Monster(pgdatatest.Monster{ID: 1, NameNA: "Fine", Rarity: 3}).
		Monster(pgdatatest.Monster{ID: 2, NameNA: "No info", Rarity: 3, SkipInfo: true}).
		Monster(pgdatatest.Monster{ID: 3, NameNA: "Evolved fine", Rarity: 4}).
		Evolution(1, 3, pgdata.EvoNormal).
		Evolution(2, 3, pgdata.EvoNormal)

	db := f.Build(t, pgdata.WithIntegrityPolicy(pgdata.IntegrityExclude))

	assert.NotNil(t, db.Monster(1))
	assert.Nil(t, db.Monster(2))
	assert.NotNil(t, db.Monster(3))
	assert.Len(t, db.Monsters(), 2)

	require.Error(t, db.Faults)
	assert.ErrorIs(t, db.Faults, pgdata.ErrIntegrity)
	var ie *pgdata.IntegrityError
	require.ErrorAs(t, db.Faults, &ie)
	assert.Equal(t, 2, ie.Key)
	assert.Equal(t, pgdata.KindMonsterInfo, ie.Missing)

	// The edge from the excluded monster is dropped; 1 -> 3 survives.
	assert.Same(t, db.Monster(1), db.MonsterAt(db.Monster(3).EvoFrom))
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    pgdata.IntegrityPolicy
		wantErr bool
	}{
		{"", pgdata.IntegrityAbort, false},
		{"abort", pgdata.IntegrityAbort, false},
		{"exclude", pgdata.IntegrityExclude, false},
		{"ignore", pgdata.IntegrityAbort, true},
	}
	for _, tc := range tests {
		got, err := pgdata.ParsePolicy(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParsePolicy(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseLeaderData(t *testing.T) {
	t.Parallel()

	hp, atk, rcv, resist, err := pgdata.ParseLeaderData("1/2|2/2.5||2/2|4/0.5")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, hp, 1e-9)
	assert.InDelta(t, 5.0, atk, 1e-9)
	assert.InDelta(t, 1.0, rcv, 1e-9)
	assert.InDelta(t, 0.5, resist, 1e-9)

	_, _, _, _, err = pgdata.ParseLeaderData("2/x")
	assert.Error(t, err)
}

func TestKillers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Any"}, pgdata.Killers([]string{"Dragon", "Balance"}))
	assert.Equal(t, []string{"Attacker", "Dragon", "Healer", "Machine"}, pgdata.Killers([]string{"Dragon", "Healer"}))
	assert.Empty(t, pgdata.Killers([]string{"Evolve"}))
}

func TestDirSource_MissingAndMalformedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(k pgdata.Kind, body string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, pgdata.DatasetFileName(k)), []byte(body), 0o644))
	}
	write(pgdata.KindType, `{"items":[{"TT_SEQ":"1","TT_NAME_US":"Balance"},{"TT_SEQ":2,"TT_NAME_US":"Physical"}]}`)
	write(pgdata.KindSkill, `{"items": [`)

	data, err := pgdata.DirSource{Dir: dir}.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, data[pgdata.KindType], 2)
	assert.Equal(t, "2", data[pgdata.KindType][1]["TT_SEQ"])
	assert.Empty(t, data[pgdata.KindSkill])
	assert.Empty(t, data[pgdata.KindMonster])

	db, err := pgdata.Build(context.Background(), pgdata.DirSource{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "Physical", db.Type(2).Name)
}

func TestDirSource_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := pgdata.DirSource{Dir: filepath.Join(t.TempDir(), "nope")}.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDirSource_ReadsWrittenFixture(t *testing.T) {
	t.Parallel()

	f := pgdatatest.New().
		Monster(pgdatatest.Monster{ID: 1, NameNA: "Kali", Rarity: 6, Attr1: pgdata.AttrLight, OnNA: true}).
		Monster(pgdatatest.Monster{ID: 2, NameNA: "Plain Slime", Rarity: 1, Attr1: pgdata.AttrWood})
	dir := t.TempDir()
	f.WriteDir(t, dir)

	db, err := pgdata.Build(context.Background(), pgdata.DirSource{Dir: dir})
	require.NoError(t, err)
	require.Len(t, db.Monsters(), 2)
	assert.Equal(t, "Kali", db.Monster(1).NameNA)
	assert.True(t, db.Monster(1).OnNA)
	assert.False(t, db.Monster(2).OnNA)
}
