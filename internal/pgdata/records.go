package pgdata

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrWong99/padinfo/internal/jptext"
)

// Record is the contract shared by every dataset row type.
type Record interface {
	Kind() Kind
	Key() int
	Deleted() bool
}

// Ref is an index into the arena of one kind inside a [DB]. References
// between records are Refs rather than pointers so that a generation is a
// set of flat slices.
type Ref int32

// NoRef marks an absent reference.
const NoRef Ref = -1

// Valid reports whether r points at a record.
func (r Ref) Valid() bool { return r >= 0 }

// Attr is one of the five orb colors.
type Attr int

const (
	AttrNone Attr = iota
	AttrFire
	AttrWater
	AttrWood
	AttrLight
	AttrDark
)

func (a Attr) String() string {
	switch a {
	case AttrFire:
		return "Fire"
	case AttrWater:
		return "Water"
	case AttrWood:
		return "Wood"
	case AttrLight:
		return "Light"
	case AttrDark:
		return "Dark"
	}
	return ""
}

// EvoType is the evolution stage a monster was reached through.
type EvoType int

const (
	EvoBase             EvoType = -1
	EvoNormal           EvoType = 0
	EvoUvoAwoken        EvoType = 1
	EvoUuvoReincarnated EvoType = 2
)

func (e EvoType) String() string {
	switch e {
	case EvoBase:
		return "base"
	case EvoNormal:
		return "evo"
	case EvoUvoAwoken:
		return "uvo"
	case EvoUuvoReincarnated:
		return "uuvo"
	}
	return fmt.Sprintf("evo_type(%d)", int(e))
}

// Attribute is a row of attributeList.jsp.
type Attribute struct {
	Seq  int
	Name string
}

func (a *Attribute) Kind() Kind    { return KindAttribute }
func (a *Attribute) Key() int      { return a.Seq }
func (a *Attribute) Deleted() bool { return false }

// Attr maps the attribute to its color.
func (a *Attribute) Attr() Attr {
	if a.Seq < int(AttrFire) || a.Seq > int(AttrDark) {
		return AttrNone
	}
	return Attr(a.Seq)
}

func parseAttribute(row Row) (Attribute, error) {
	r := rowReader{row: row}
	a := Attribute{Seq: r.int("TA_SEQ"), Name: r.str("TA_NAME_US")}
	return a, r.err
}

// Awakening is a row of awokenSkillList.jsp: one awakening slot of a monster.
type Awakening struct {
	Seq       int
	SkillSeq  int
	MonsterNo int
	Order     int
	DeletedYN string

	Skill   Ref
	Monster Ref
}

func (a *Awakening) Kind() Kind    { return KindAwakening }
func (a *Awakening) Key() int      { return a.Seq }
func (a *Awakening) Deleted() bool { return a.DeletedYN == "Y" }

func parseAwakening(row Row) (Awakening, error) {
	r := rowReader{row: row}
	a := Awakening{
		Seq:       r.int("TMA_SEQ"),
		SkillSeq:  r.int("TS_SEQ"),
		DeletedYN: r.str("DEL_YN"),
		MonsterNo: r.int("MONSTER_NO"),
		Order:     r.int("ORDER_IDX"),
		Skill:     NoRef,
		Monster:   NoRef,
	}
	return a, r.err
}

// Dungeon is a row of dungeonList.jsp.
type Dungeon struct {
	Seq    int
	Type   int
	Name   string
	ShowYN string
}

func (d *Dungeon) Kind() Kind    { return KindDungeon }
func (d *Dungeon) Key() int      { return d.Seq }
func (d *Dungeon) Deleted() bool { return false }

func parseDungeon(row Row) (Dungeon, error) {
	r := rowReader{row: row}
	d := Dungeon{
		Seq:    r.int("DUNGEON_SEQ"),
		Type:   r.int("DUNGEON_TYPE"),
		Name:   r.str("NAME_US"),
		ShowYN: r.str("SHOW_YN"),
	}
	return d, r.err
}

// DungeonMonsterDrop is a row of dungeonMonsterDropList.jsp.
type DungeonMonsterDrop struct {
	Seq               int
	MonsterNo         int
	Status            string
	DungeonMonsterSeq int

	Monster        Ref
	DungeonMonster Ref
}

func (d *DungeonMonsterDrop) Kind() Kind    { return KindDungeonMonsterDrop }
func (d *DungeonMonsterDrop) Key() int      { return d.Seq }
func (d *DungeonMonsterDrop) Deleted() bool { return false }

func parseDungeonMonsterDrop(row Row) (DungeonMonsterDrop, error) {
	r := rowReader{row: row}
	d := DungeonMonsterDrop{
		Seq:               r.int("TDMD_SEQ"),
		MonsterNo:         r.int("MONSTER_NO"),
		Status:            r.str("STATUS"),
		DungeonMonsterSeq: r.int("TDM_SEQ"),
		Monster:           NoRef,
		DungeonMonster:    NoRef,
	}
	return d, r.err
}

// DungeonMonster is a row of dungeonMonsterList.jsp: an enemy on a dungeon
// floor and what it drops.
type DungeonMonster struct {
	Seq           int
	DropMonsterNo int
	MonsterNo     int
	DungeonSeq    int
	FloorSeq      int

	DropMonster Ref
	Monster     Ref
	Dungeon     Ref
}

func (d *DungeonMonster) Kind() Kind    { return KindDungeonMonster }
func (d *DungeonMonster) Key() int      { return d.Seq }
func (d *DungeonMonster) Deleted() bool { return false }

func parseDungeonMonster(row Row) (DungeonMonster, error) {
	r := rowReader{row: row}
	d := DungeonMonster{
		Seq:           r.int("TDM_SEQ"),
		DropMonsterNo: r.int("DROP_NO"),
		MonsterNo:     r.int("MONSTER_NO"),
		DungeonSeq:    r.int("DUNGEON_SEQ"),
		FloorSeq:      r.int("TSD_SEQ"),
		DropMonster:   NoRef,
		Monster:       NoRef,
		Dungeon:       NoRef,
	}
	return d, r.err
}

// Evolution is a row of evolutionList.jsp: one "evolves to" edge.
type Evolution struct {
	Seq    int
	FromNo int
	ToNo   int
	Type   EvoType

	From Ref
	To   Ref
}

func (e *Evolution) Kind() Kind { return KindEvolution }
func (e *Evolution) Key() int   { return e.Seq }

// Deleted filters out the occasional edge that points at monster 0.
func (e *Evolution) Deleted() bool { return e.FromNo == 0 || e.ToNo == 0 }

func parseEvolution(row Row) (Evolution, error) {
	r := rowReader{row: row}
	e := Evolution{
		Seq:    r.int("TV_SEQ"),
		FromNo: r.int("MONSTER_NO"),
		ToNo:   r.int("TO_NO"),
		From:   NoRef,
		To:     NoRef,
	}
	tv := r.int("TV_TYPE")
	if r.err != nil {
		return e, r.err
	}
	if tv < int(EvoNormal) || tv > int(EvoUuvoReincarnated) {
		return e, fmt.Errorf("field TV_TYPE: unknown evolution type %d", tv)
	}
	e.Type = EvoType(tv)
	return e, nil
}

// EvolutionMaterial is a row of evoMaterialList.jsp.
type EvolutionMaterial struct {
	Seq          int
	EvolutionSeq int
	FodderNo     int
	Order        int

	Evolution Ref
	Fodder    Ref
}

func (e *EvolutionMaterial) Kind() Kind    { return KindEvolutionMaterial }
func (e *EvolutionMaterial) Key() int      { return e.Seq }
func (e *EvolutionMaterial) Deleted() bool { return false }

func parseEvolutionMaterial(row Row) (EvolutionMaterial, error) {
	r := rowReader{row: row}
	e := EvolutionMaterial{
		Seq:          r.int("TEM_SEQ"),
		EvolutionSeq: r.int("TV_SEQ"),
		FodderNo:     r.int("MONSTER_NO"),
		Order:        r.int("ORDER_IDX"),
		Evolution:    NoRef,
		Fodder:       NoRef,
	}
	return e, r.err
}

// MonsterAddInfo is a row of monsterAddInfoList.jsp. It is optional per
// monster and carries the third type and the inherit override.
type MonsterAddInfo struct {
	MonsterNo    int
	SubType      int
	ExtraVal1    int
	HasExtraVal1 bool
}

func (m *MonsterAddInfo) Kind() Kind    { return KindMonsterAddInfo }
func (m *MonsterAddInfo) Key() int      { return m.MonsterNo }
func (m *MonsterAddInfo) Deleted() bool { return false }

func parseMonsterAddInfo(row Row) (MonsterAddInfo, error) {
	r := rowReader{row: row}
	m := MonsterAddInfo{
		MonsterNo: r.int("MONSTER_NO"),
		SubType:   r.int("SUB_TYPE"),
	}
	m.ExtraVal1, m.HasExtraVal1 = r.optInt("EXTRA_VAL1")
	return m, r.err
}

// MonsterInfo is a row of monsterInfoList.jsp. Every monster has one.
type MonsterInfo struct {
	MonsterNo int
	OnNA      bool
	SeriesSeq int
	HasSeries bool
	InPEM     bool
	InREM     bool

	Series Ref
}

func (m *MonsterInfo) Kind() Kind    { return KindMonsterInfo }
func (m *MonsterInfo) Key() int      { return m.MonsterNo }
func (m *MonsterInfo) Deleted() bool { return false }

func parseMonsterInfo(row Row) (MonsterInfo, error) {
	r := rowReader{row: row}
	m := MonsterInfo{
		MonsterNo: r.int("MONSTER_NO"),
		OnNA:      r.str("ON_US") == "1",
		InPEM:     r.str("PAL_EGG") == "1",
		InREM:     r.str("RARE_EGG") == "1",
		Series:    NoRef,
	}
	m.SeriesSeq, m.HasSeries = r.optInt("TSR_SEQ")
	return m, r.err
}

// MonsterPrice is a row of monsterPriceList.jsp. Every monster has one.
type MonsterPrice struct {
	MonsterNo int
	BuyMP     int
	SellMP    int
}

func (m *MonsterPrice) Kind() Kind    { return KindMonsterPrice }
func (m *MonsterPrice) Key() int      { return m.MonsterNo }
func (m *MonsterPrice) Deleted() bool { return false }

func parseMonsterPrice(row Row) (MonsterPrice, error) {
	r := rowReader{row: row}
	m := MonsterPrice{
		MonsterNo: r.int("MONSTER_NO"),
		BuyMP:     r.int("BUY_PRICE"),
		SellMP:    r.int("SELL_PRICE"),
	}
	return m, r.err
}

// Series is a row of seriesList.jsp.
type Series struct {
	Seq       int
	Name      string
	DeletedYN string

	Monsters []Ref
}

func (s *Series) Kind() Kind    { return KindSeries }
func (s *Series) Key() int      { return s.Seq }
func (s *Series) Deleted() bool { return s.DeletedYN == "Y" }

func parseSeries(row Row) (Series, error) {
	r := rowReader{row: row}
	s := Series{
		Seq:       r.int("TSR_SEQ"),
		Name:      r.str("NAME_US"),
		DeletedYN: r.str("DEL_YN"),
	}
	return s, r.err
}

// Skill is a row of skillList.jsp. The same table holds active skills,
// leader skills, and awakening skills.
type Skill struct {
	Seq     int
	Name    string
	Desc    string
	TurnMin int
	TurnMax int

	MonstersWithActive    []Ref
	MonstersWithLeader    []Ref
	MonstersWithAwakening []Ref
}

func (s *Skill) Kind() Kind    { return KindSkill }
func (s *Skill) Key() int      { return s.Seq }
func (s *Skill) Deleted() bool { return false }

func parseSkill(row Row) (Skill, error) {
	r := rowReader{row: row}
	s := Skill{
		Seq:     r.int("TS_SEQ"),
		Name:    r.str("TS_NAME_US"),
		Desc:    r.str("TS_DESC_US"),
		TurnMin: r.int("TURN_MIN"),
		TurnMax: r.int("TURN_MAX"),
	}
	return s, r.err
}

// SkillLeaderData is a row of skillLeaderDataList.jsp with the multipliers
// decoded from LEADER_DATA.
type SkillLeaderData struct {
	Seq    int
	Raw    string
	HP     float64
	ATK    float64
	RCV    float64
	Resist float64
}

func (s *SkillLeaderData) Kind() Kind    { return KindSkillLeaderData }
func (s *SkillLeaderData) Key() int      { return s.Seq }
func (s *SkillLeaderData) Deleted() bool { return false }

func parseSkillLeaderData(row Row) (SkillLeaderData, error) {
	r := rowReader{row: row}
	s := SkillLeaderData{Seq: r.int("TS_SEQ"), Raw: r.str("LEADER_DATA")}
	if r.err != nil {
		return s, r.err
	}
	var err error
	s.HP, s.ATK, s.RCV, s.Resist, err = ParseLeaderData(s.Raw)
	return s, err
}

// ParseLeaderData decodes a LEADER_DATA string. Conditions are separated by
// "|" and each starts with "code/multiplier". Codes 1-4 scale HP, ATK, RCV,
// and damage taken. Multipliers for the same code compound.
func ParseLeaderData(raw string) (hp, atk, rcv, resist float64, err error) {
	hp, atk, rcv, resist = 1, 1, 1, 1
	for cond := range strings.SplitSeq(raw, "|") {
		if strings.TrimSpace(cond) == "" {
			continue
		}
		fields := strings.Split(cond, "/")
		if len(fields) < 2 {
			return 1, 1, 1, 1, fmt.Errorf("leader data condition %q: missing multiplier", cond)
		}
		mult, perr := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if perr != nil {
			return 1, 1, 1, 1, fmt.Errorf("leader data condition %q: %w", cond, perr)
		}
		switch strings.TrimSpace(fields[0]) {
		case "1":
			hp *= mult
		case "2":
			atk *= mult
		case "3":
			rcv *= mult
		case "4":
			resist *= mult
		}
	}
	return hp, atk, rcv, resist, nil
}

// SkillRotation is a row of skillRotationList.jsp: a monster whose skill
// rotates on a server.
type SkillRotation struct {
	Seq       int
	MonsterNo int
	Server    string
	Status    string

	Monster Ref
}

func (s *SkillRotation) Kind() Kind { return KindSkillRotation }
func (s *SkillRotation) Key() int   { return s.Seq }

// Deleted drops KR rotations; only JP and NA are served.
func (s *SkillRotation) Deleted() bool { return s.Server == "KR" }

func parseSkillRotation(row Row) (SkillRotation, error) {
	r := rowReader{row: row}
	s := SkillRotation{
		Seq:       r.int("TSR_SEQ"),
		MonsterNo: r.int("MONSTER_NO"),
		Server:    r.str("SERVER"),
		Status:    r.str("STATUS"),
		Monster:   NoRef,
	}
	return s, r.err
}

// SkillRotationDated is a row of skillRotationListList.jsp: the skill a
// rotation carries from a given date.
type SkillRotationDated struct {
	Seq          int
	RotationSeq  int
	SkillSeq     int
	RotationDate time.Time
	HasDate      bool

	Skill    Ref
	Rotation Ref
}

func (s *SkillRotationDated) Kind() Kind    { return KindSkillRotationDated }
func (s *SkillRotationDated) Key() int      { return s.Seq }
func (s *SkillRotationDated) Deleted() bool { return false }

func parseSkillRotationDated(row Row) (SkillRotationDated, error) {
	r := rowReader{row: row}
	s := SkillRotationDated{
		Seq:         r.int("TSRL_SEQ"),
		RotationSeq: r.int("TSR_SEQ"),
		SkillSeq:    r.int("TS_SEQ"),
		Skill:       NoRef,
		Rotation:    NoRef,
	}
	if r.err != nil {
		return s, r.err
	}
	if date := strings.TrimSpace(row["ROTATION_DATE"]); date != "" {
		t, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return s, fmt.Errorf("field ROTATION_DATE: %w", err)
		}
		s.RotationDate, s.HasDate = t, true
	}
	return s, nil
}

// Type is a row of typeList.jsp.
type Type struct {
	Seq  int
	Name string
}

func (t *Type) Kind() Kind    { return KindType }
func (t *Type) Key() int      { return t.Seq }
func (t *Type) Deleted() bool { return false }

func parseType(row Row) (Type, error) {
	r := rowReader{row: row}
	t := Type{Seq: r.int("TT_SEQ"), Name: r.str("TT_NAME_US")}
	return t, r.err
}

// Monster is a row of monsterList.jsp plus everything the link, finalize,
// and grouping passes attach to it.
type Monster struct {
	ID       int
	NAID     int
	JPID     int
	HP       int
	ATK      int
	RCV      int
	Rarity   int
	Cost     int
	MaxLevel int

	// WeightedStats is hp/10 + atk/5 + rcv/3 with each term truncated.
	WeightedStats int

	NameNA      string
	NameJP      string
	RomaSubname string

	ActiveSkillSeq int
	HasActiveSkill bool
	LeaderSkillSeq int
	HasLeaderSkill bool
	Attr1Seq       int
	Attr2Seq       int
	EnemySkillSeq  int
	Type1Seq       int
	Type2Seq       int

	// Linked.
	ActiveSkill   Ref
	LeaderSkill   Ref
	LeaderData    Ref
	Attr1         Attr
	Attr2         Attr
	Type1         string
	Type2         string
	Type3         string
	AssistSetting int
	OnNA          bool
	Series        Ref
	SeriesID      int
	IsGFE         bool
	InPEM         bool
	InREM         bool
	InMPShop      bool
	SellMP        int
	BuyMP         int
	EvoType       EvoType
	EvoFrom       Ref
	EvoTo         []Ref
	MatsForEvo    []Ref
	MaterialOf    []Ref
	Awakenings    []Ref
	DropDungeons  []Ref

	// Finalized.
	Farmable      bool
	IsInheritable bool
	Killers       []string

	// Broadcast across the evolution group.
	FarmableEvo bool
	PEMEvo      bool
	REMEvo      bool
	MPEvo       bool
}

func (m *Monster) Kind() Kind    { return KindMonster }
func (m *Monster) Key() int      { return m.ID }
func (m *Monster) Deleted() bool { return false }

// Types returns the non-empty type names in slot order.
func (m *Monster) Types() []string {
	var out []string
	for _, t := range []string{m.Type1, m.Type2, m.Type3} {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseMonster(row Row) (Monster, error) {
	r := rowReader{row: row}
	m := Monster{
		ID:            r.int("MONSTER_NO"),
		NAID:          r.int("MONSTER_NO_US"),
		JPID:          r.int("MONSTER_NO_JP"),
		HP:            r.int("HP_MAX"),
		ATK:           r.int("ATK_MAX"),
		RCV:           r.int("RCV_MAX"),
		Rarity:        r.int("RARITY"),
		Cost:          r.int("COST"),
		MaxLevel:      r.int("LEVEL"),
		NameNA:        r.str("TM_NAME_US"),
		NameJP:        r.str("TM_NAME_JP"),
		Attr1Seq:      r.int("TA_SEQ"),
		Attr2Seq:      r.int("TA_SEQ_SUB"),
		EnemySkillSeq: r.int("TE_SEQ"),
		Type1Seq:      r.int("TT_SEQ"),
		Type2Seq:      r.int("TT_SEQ_SUB"),

		ActiveSkill: NoRef,
		LeaderSkill: NoRef,
		LeaderData:  NoRef,
		Series:      NoRef,
		EvoType:     EvoBase,
		EvoFrom:     NoRef,
	}
	m.ActiveSkillSeq, m.HasActiveSkill = r.optInt("TS_SEQ_SKILL")
	m.LeaderSkillSeq, m.HasLeaderSkill = r.optInt("TS_SEQ_LEADER")
	if r.err != nil {
		return m, r.err
	}

	m.WeightedStats = WeightedStats(m.HP, m.ATK, m.RCV)
	if m.NameNA == m.NameJP {
		m.RomaSubname = jptext.RomaSubname(m.NameJP)
	} else {
		m.NameNA = jptext.RemoveDiacritics(m.NameNA)
	}
	return m, nil
}

// WeightedStats truncates each stat term independently before summing.
func WeightedStats(hp, atk, rcv int) int {
	return hp/10 + atk/5 + rcv/3
}
