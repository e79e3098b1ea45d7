// Package pgdatatest builds small in-memory PadGuide datasets for tests.
//
// A [Fixture] starts with the five attributes and a fixed set of monster
// types already present. Monsters get their info and price rows
// automatically unless told otherwise.
package pgdatatest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/MrWong99/padinfo/internal/pgdata"
)

// Type sequence numbers seeded into every fixture. Zero has no record.
const (
	TypeBalance   = 1
	TypePhysical  = 2
	TypeHealer    = 3
	TypeDragon    = 4
	TypeGod       = 5
	TypeAttacker  = 6
	TypeDevil     = 7
	TypeMachine   = 8
	TypeEvolve    = 9
	TypeAwaken    = 12
	TypeProtected = 13
	TypeEnhance   = 14
	TypeVendor    = 15
)

var typeNames = map[int]string{
	TypeEvolve:    "Evolve",
	TypeBalance:   "Balance",
	TypePhysical:  "Physical",
	TypeHealer:    "Healer",
	TypeDragon:    "Dragon",
	TypeGod:       "God",
	TypeAttacker:  "Attacker",
	TypeDevil:     "Devil",
	TypeMachine:   "Machine",
	TypeAwaken:    "Awaken",
	TypeProtected: "Protected",
	TypeEnhance:   "Enhance",
	TypeVendor:    "Vendor",
}

// Monster describes a monster row and the rows that hang off it.
type Monster struct {
	ID     int
	NAID   int // defaults to ID
	NameNA string
	NameJP string // defaults to a katakana placeholder
	Rarity int
	Cost   int
	Level  int
	HP     int
	ATK    int
	RCV    int
	Attr1  pgdata.Attr
	Attr2  pgdata.Attr
	Type1  int
	Type2  int
	Type3  int // 0 means no add-info row

	ActiveSkill int // 0 means none
	LeaderSkill int // 0 means none
	Series      int // 0 means none
	OnNA        bool
	PEM         bool
	REM         bool
	BuyMP       int
	SellMP      int

	SkipInfo  bool
	SkipPrice bool
}

// Fixture accumulates dataset rows.
type Fixture struct {
	Data pgdata.Dataset
	seq  int
}

// New returns a fixture seeded with attributes and types.
func New() *Fixture {
	f := &Fixture{Data: pgdata.Dataset{}}
	for a := pgdata.AttrFire; a <= pgdata.AttrDark; a++ {
		f.Add(pgdata.KindAttribute, pgdata.Row{"TA_SEQ": itoa(int(a)), "TA_NAME_US": a.String()})
	}
	for seq, name := range typeNames {
		f.Add(pgdata.KindType, pgdata.Row{"TT_SEQ": itoa(seq), "TT_NAME_US": name})
	}
	return f
}

// Add appends a raw row of kind.
func (f *Fixture) Add(kind pgdata.Kind, row pgdata.Row) *Fixture {
	f.Data[kind] = append(f.Data[kind], row)
	return f
}

func (f *Fixture) nextSeq() int {
	f.seq++
	return 100000 + f.seq
}

// Monster adds m with its info, price, and optional add-info rows.
func (f *Fixture) Monster(m Monster) *Fixture {
	if m.NAID == 0 {
		m.NAID = m.ID
	}
	if m.NameJP == "" {
		m.NameJP = fmt.Sprintf("モンスター%d", m.ID)
	}
	f.Add(pgdata.KindMonster, pgdata.Row{
		"MONSTER_NO":    itoa(m.ID),
		"MONSTER_NO_US": itoa(m.NAID),
		"MONSTER_NO_JP": itoa(m.ID),
		"HP_MAX":        itoa(m.HP),
		"ATK_MAX":       itoa(m.ATK),
		"RCV_MAX":       itoa(m.RCV),
		"TS_SEQ_SKILL":  optItoa(m.ActiveSkill),
		"TS_SEQ_LEADER": optItoa(m.LeaderSkill),
		"RARITY":        itoa(m.Rarity),
		"COST":          itoa(m.Cost),
		"LEVEL":         itoa(m.Level),
		"TM_NAME_US":    m.NameNA,
		"TM_NAME_JP":    m.NameJP,
		"TA_SEQ":        itoa(int(m.Attr1)),
		"TA_SEQ_SUB":    itoa(int(m.Attr2)),
		"TE_SEQ":        "0",
		"TT_SEQ":        itoa(m.Type1),
		"TT_SEQ_SUB":    itoa(m.Type2),
	})
	if m.Type3 != 0 {
		f.Add(pgdata.KindMonsterAddInfo, pgdata.Row{
			"MONSTER_NO": itoa(m.ID),
			"SUB_TYPE":   itoa(m.Type3),
			"EXTRA_VAL1": "",
		})
	}
	if !m.SkipInfo {
		f.Add(pgdata.KindMonsterInfo, pgdata.Row{
			"MONSTER_NO": itoa(m.ID),
			"ON_US":      flag(m.OnNA),
			"TSR_SEQ":    optItoa(m.Series),
			"PAL_EGG":    flag(m.PEM),
			"RARE_EGG":   flag(m.REM),
		})
	}
	if !m.SkipPrice {
		f.Add(pgdata.KindMonsterPrice, pgdata.Row{
			"MONSTER_NO": itoa(m.ID),
			"BUY_PRICE":  itoa(m.BuyMP),
			"SELL_PRICE": itoa(m.SellMP),
		})
	}
	return f
}

// Evolution adds a from -> to edge.
func (f *Fixture) Evolution(from, to int, typ pgdata.EvoType) *Fixture {
	return f.Add(pgdata.KindEvolution, pgdata.Row{
		"TV_SEQ":     itoa(f.nextSeq()),
		"MONSTER_NO": itoa(from),
		"TO_NO":      itoa(to),
		"TV_TYPE":    itoa(int(typ)),
	})
}

// Drop makes monster droppable in a fresh dungeon.
func (f *Fixture) Drop(monster int) *Fixture {
	dungeon := f.nextSeq()
	f.Add(pgdata.KindDungeon, pgdata.Row{
		"DUNGEON_SEQ":  itoa(dungeon),
		"DUNGEON_TYPE": "1",
		"NAME_US":      fmt.Sprintf("Dungeon %d", dungeon),
		"SHOW_YN":      "1",
	})
	return f.Add(pgdata.KindDungeonMonster, pgdata.Row{
		"TDM_SEQ":     itoa(f.nextSeq()),
		"DROP_NO":     itoa(monster),
		"MONSTER_NO":  itoa(monster),
		"DUNGEON_SEQ": itoa(dungeon),
		"TSD_SEQ":     "1",
	})
}

// Skill adds a skill row.
func (f *Fixture) Skill(seq int, name, desc string, turnMax, turnMin int) *Fixture {
	return f.Add(pgdata.KindSkill, pgdata.Row{
		"TS_SEQ":     itoa(seq),
		"TS_NAME_US": name,
		"TS_DESC_US": desc,
		"TURN_MAX":   itoa(turnMax),
		"TURN_MIN":   itoa(turnMin),
	})
}

// Awakening gives monster the awakening skill at display position order.
func (f *Fixture) Awakening(monster, skill, order int) *Fixture {
	return f.Add(pgdata.KindAwakening, pgdata.Row{
		"TMA_SEQ":    itoa(f.nextSeq()),
		"TS_SEQ":     itoa(skill),
		"DEL_YN":     "N",
		"MONSTER_NO": itoa(monster),
		"ORDER_IDX":  itoa(order),
	})
}

// Series adds a series row.
func (f *Fixture) Series(seq int, name string) *Fixture {
	return f.Add(pgdata.KindSeries, pgdata.Row{
		"TSR_SEQ": itoa(seq),
		"NAME_US": name,
		"DEL_YN":  "N",
	})
}

// Build links the fixture and fails the test on error.
func (f *Fixture) Build(t testing.TB, opts ...pgdata.BuildOption) *pgdata.DB {
	t.Helper()
	db, err := pgdata.Build(context.Background(), f.Data, opts...)
	if err != nil {
		t.Fatalf("pgdatatest: build: %v", err)
	}
	return db
}

// WriteDir writes every kind of the fixture to dir in the layout
// [pgdata.DirSource] reads. Kinds without rows get an empty item list.
func (f *Fixture) WriteDir(t testing.TB, dir string) {
	t.Helper()
	for _, k := range pgdata.Kinds() {
		items := f.Data[k]
		if items == nil {
			items = []pgdata.Row{}
		}
		raw, err := json.Marshal(map[string]any{"items": items})
		if err != nil {
			t.Fatalf("pgdatatest: encode %v: %v", k, err)
		}
		if err := os.WriteFile(filepath.Join(dir, pgdata.DatasetFileName(k)), raw, 0o600); err != nil {
			t.Fatalf("pgdatatest: write %v: %v", k, err)
		}
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

func optItoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
