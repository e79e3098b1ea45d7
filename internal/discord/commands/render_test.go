package commands

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrWong99/padinfo/internal/generation"
	"github.com/MrWong99/padinfo/internal/nickname"
	"github.com/MrWong99/padinfo/internal/overrides"
	"github.com/MrWong99/padinfo/internal/pgdata"
	"github.com/MrWong99/padinfo/internal/pgdata/pgdatatest"
)

func testGeneration(t *testing.T) *generation.Generation {
	t.Helper()
	db := pgdatatest.New().
		Skill(501, "Goddess Strike", "Heal 50% of max HP.", 15, 10).
		Skill(502, "Destroyer", "2x ATK for Light att.", 0, 0).
		Skill(601, "Enhanced Light Orbs", "", 0, 0).
		Skill(602, "Skill Boost", "", 0, 0).
		Skill(603, "Mystery Power", "", 0, 0).
		Monster(pgdatatest.Monster{
			ID: 1, NameNA: "Kali", Rarity: 6, Cost: 30, Level: 99,
			HP: 3000, ATK: 1500, RCV: 300,
			Attr1: pgdata.AttrLight, Attr2: pgdata.AttrDark,
			Type1: pgdatatest.TypeGod, Type2: pgdatatest.TypeDevil,
			ActiveSkill: 501, LeaderSkill: 502, OnNA: true,
		}).
		Monster(pgdatatest.Monster{
			ID: 2, NameNA: "Plain Slime", Rarity: 1, Cost: 1, Level: 10,
			HP: 100, ATK: 50, RCV: 30,
			Attr1: pgdata.AttrWood, Type1: pgdatatest.TypeBalance,
		}).
		Awakening(1, 601, 1).
		Awakening(1, 602, 2).
		Awakening(1, 601, 3).
		Awakening(1, 603, 4).
		Build(t)
	return &generation.Generation{
		Seq:       3,
		BuiltAt:   time.Now(),
		DB:        db,
		Index:     nickname.Build(db, overrides.Empty()),
		Overrides: overrides.Empty(),
	}
}

func TestInfoText(t *testing.T) {
	t.Parallel()
	g := testGeneration(t)

	info, link := InfoText(g.DB, g.DB.Monster(1))
	assert.Equal(t, strings.Join([]string{
		"No. 1 Kali",
		"Light/Dark  |  God/Devil  |  Rarity:6  |  Cost:30",
		"Lv. 99  HP 3000  ATK 1500  RCV 300  Weighted 700",
		"L-OEx2 SBx1 Mystery Powerx1",
		"LS: 2x ATK for Light att.",
		"AS: (15->10): Heal 50% of max HP.",
	}, "\n"), info)
	assert.Equal(t, "http://www.puzzledragonx.com/en/monster.asp?n=1", link)

	info, _ = InfoText(g.DB, g.DB.Monster(2))
	assert.Equal(t, strings.Join([]string{
		"No. 2 Plain Slime (JP only)",
		"Wood  |  Balance  |  Rarity:1  |  Cost:1",
		"Lv. 10  HP 100  ATK 50  RCV 30  Weighted 30",
		"No Awakenings",
		"LS: None/Missing",
		"AS: None/Missing",
	}, "\n"), info)
}

func TestHeader_RomaSubname(t *testing.T) {
	t.Parallel()

	m := &pgdata.Monster{NAID: 4000, NameNA: "ゼウス・ディオス", RomaSubname: "zeusu diosu", OnNA: false}
	assert.Equal(t, "No. 4000 ゼウス・ディオス [zeusu diosu] (JP only)", Header(m))
}

func TestEmbed(t *testing.T) {
	t.Parallel()
	g := testGeneration(t)

	e := Embed(g.DB, g.DB.Monster(1))
	assert.Equal(t, "No. 1 Kali", e.Title)
	assert.Equal(t, "http://www.puzzledragonx.com/en/monster.asp?n=1", e.URL)
	require.NotNil(t, e.Thumbnail)
	assert.Equal(t, "http://www.puzzledragonx.com/en/img/book/1.png", e.Thumbnail.URL)
	assert.Equal(t, "L-OEx2 SBx1 Mystery Powerx1", e.Description)

	require.Len(t, e.Fields, 4)
	assert.Equal(t, "God/Devil", e.Fields[0].Name)
	assert.Equal(t, "**Rarity** 6\n**Cost** 30", e.Fields[0].Value)
	assert.Equal(t, "Weighted 700", e.Fields[1].Name)
	assert.Equal(t, "**HP** 3000\n**ATK** 1500\n**RCV** 300", e.Fields[1].Value)
	assert.Equal(t, "Active Skill (15 -> 10)", e.Fields[2].Name)
	assert.Equal(t, "Heal 50% of max HP.", e.Fields[2].Value)
	assert.Equal(t, "Leader Skill", e.Fields[3].Name)
	assert.Equal(t, "2x ATK for Light att.", e.Fields[3].Value)

	plain := Embed(g.DB, g.DB.Monster(2))
	assert.Equal(t, "Active Skill", plain.Fields[2].Name)
	assert.Equal(t, "None/Missing", plain.Fields[2].Value)
	assert.Equal(t, "None/Missing", plain.Fields[3].Value)
}

func TestAwakeningsRow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		names []string
		want  string
	}{
		{nil, "No Awakenings"},
		{[]string{"Two-Pronged Attack"}, "TPAx1"},
		{[]string{"Skill Boost", "Enhanced HP", "Skill Boost", "Unknown Thing"}, "SBx2 HPx1 Unknown Thingx1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AwakeningsRow(tt.names), "%v", tt.names)
	}
}

func TestPicText(t *testing.T) {
	t.Parallel()

	header, link := PicText(&pgdata.Monster{NAID: 1234, NameNA: "Sun Quan"})
	assert.Equal(t, "No. 1234 Sun Quan", header)
	assert.Equal(t, "http://www.puzzledragonx.com/en/img/monster/MONS_1234.jpg", link)
}

func TestFailureMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "```\nLookup failed: Your query must be at least 4 letters.\n"+
		"Try one of <id>, <name>, [argbld]/[rgbld] <name>. Unexpected results? Use /helpid for more info.\n```",
		FailureMessage("Your query must be at least 4 letters"))
}

func TestBox_Truncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("カ", 1000)
	out := Box(long)
	assert.LessOrEqual(t, len(out), maxMessageLen)
	assert.True(t, strings.HasSuffix(out, "...\n```"))
	assert.True(t, utf8.ValidString(out))
}

func TestDebugAndDump(t *testing.T) {
	t.Parallel()

	nm := &nickname.NamedMonster{
		ID: 22, NAID: 22, NameNA: "Reincarnated Kali",
		MonsterBasename: "kali", GroupComputedBasename: "kali",
		GroupBasenames: []string{"kali"}, Prefixes: []string{"revo", "l"},
		ExtraNicknames: []string{"rkali"},
	}
	assert.Equal(t,
		"Lookup type: Exact nickname\nMonster info: basename=kali | group basename=kali | group=(kali) | prefixes=(revo,l) | overrides=(rkali)",
		DebugText("Exact nickname", nm))

	dump, err := DumpText(nm)
	require.NoError(t, err)
	assert.Contains(t, dump, "namena: Reincarnated Kali")
	assert.Contains(t, dump, "- revo")
}
