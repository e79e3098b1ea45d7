package pgdata

import (
	"cmp"
	"slices"
)

// link resolves foreign keys kind by kind in dependency order.
func (db *DB) link() error {
	for _, k := range linkOrder {
		if err := db.linkKind(k); err != nil {
			return err
		}
	}
	db.byNA = make(map[int]Ref, db.monsters.len())
	for i := range db.monsters.items {
		db.byNA[db.monsters.items[i].NAID] = Ref(i)
	}
	return nil
}

func (db *DB) linkKind(k Kind) error {
	switch k {
	case KindAwakening:
		db.linkAwakenings()
	case KindDungeonMonsterDrop:
		db.linkDungeonMonsterDrops()
	case KindDungeonMonster:
		db.linkDungeonMonsters()
	case KindEvolution:
		db.linkEvolutions()
	case KindEvolutionMaterial:
		db.linkEvolutionMaterials()
	case KindMonster:
		return db.linkMonsters()
	case KindMonsterInfo:
		for i := range db.monsterInfos.items {
			mi := &db.monsterInfos.items[i]
			if mi.HasSeries {
				mi.Series = db.series.ref(mi.SeriesSeq)
			}
		}
	case KindSkillRotation:
		for i := range db.skillRotations.items {
			sr := &db.skillRotations.items[i]
			sr.Monster = db.monsters.ref(sr.MonsterNo)
		}
	case KindSkillRotationDated:
		for i := range db.skillRotationsDated.items {
			d := &db.skillRotationsDated.items[i]
			d.Skill = db.skills.ref(d.SkillSeq)
			d.Rotation = db.skillRotations.ref(d.RotationSeq)
		}
	}
	return nil
}

func (db *DB) linkAwakenings() {
	for i := range db.awakenings.items {
		a := &db.awakenings.items[i]
		a.Skill = db.skills.ref(a.SkillSeq)
		a.Monster = db.monsters.ref(a.MonsterNo)
		if !a.Skill.Valid() || !a.Monster.Valid() {
			db.log.Warn("dropping awakening with dangling reference",
				"awakening", a.Seq, "skill", a.SkillSeq, "monster", a.MonsterNo)
			continue
		}
		m := db.monsters.at(a.Monster)
		m.Awakenings = append(m.Awakenings, Ref(i))
		s := db.skills.at(a.Skill)
		s.MonstersWithAwakening = append(s.MonstersWithAwakening, a.Monster)
	}
}

func (db *DB) linkDungeonMonsterDrops() {
	for i := range db.dungeonMonsterDrops.items {
		d := &db.dungeonMonsterDrops.items[i]
		d.Monster = db.monsters.ref(d.MonsterNo)
		d.DungeonMonster = db.dungeonMonsters.ref(d.DungeonMonsterSeq)
	}
}

func (db *DB) linkDungeonMonsters() {
	for i := range db.dungeonMonsters.items {
		dm := &db.dungeonMonsters.items[i]
		dm.DropMonster = db.monsters.ref(dm.DropMonsterNo)
		dm.Monster = db.monsters.ref(dm.MonsterNo)
		dm.Dungeon = db.dungeons.ref(dm.DungeonSeq)
		// A drop row still marks the monster farmable when its dungeon is
		// missing from the dataset; the entry is then NoRef.
		if drop := db.monsters.at(dm.DropMonster); drop != nil {
			drop.DropDungeons = append(drop.DropDungeons, dm.Dungeon)
		}
	}
}

func (db *DB) linkEvolutions() {
	for i := range db.evolutions.items {
		e := &db.evolutions.items[i]
		e.From = db.monsters.ref(e.FromNo)
		e.To = db.monsters.ref(e.ToNo)
		from, to := db.monsters.at(e.From), db.monsters.at(e.To)
		if from == nil || to == nil {
			db.log.Warn("dropping evolution with dangling reference",
				"evolution", e.Seq, "from", e.FromNo, "to", e.ToNo)
			continue
		}
		to.EvoType = e.Type
		to.EvoFrom = e.From
		from.EvoTo = append(from.EvoTo, e.To)
	}
}

func (db *DB) linkEvolutionMaterials() {
	for i := range db.evolutionMaterials.items {
		em := &db.evolutionMaterials.items[i]
		em.Evolution = db.evolutions.ref(em.EvolutionSeq)
		em.Fodder = db.monsters.ref(em.FodderNo)

		evo := db.evolutions.at(em.Evolution)
		if evo == nil {
			continue
		}
		target, fodder := db.monsters.at(evo.To), db.monsters.at(em.Fodder)
		if target == nil || fodder == nil {
			continue
		}
		target.MatsForEvo = append(target.MatsForEvo, em.Fodder)
		fodder.MaterialOf = append(fodder.MaterialOf, evo.To)
	}
}

func (db *DB) linkMonsters() error {
	for i := range db.monsters.items {
		m := &db.monsters.items[i]
		self := Ref(i)

		if m.HasActiveSkill {
			m.ActiveSkill = db.skills.ref(m.ActiveSkillSeq)
			if s := db.skills.at(m.ActiveSkill); s != nil {
				s.MonstersWithActive = append(s.MonstersWithActive, self)
			}
		}
		if m.HasLeaderSkill {
			m.LeaderSkill = db.skills.ref(m.LeaderSkillSeq)
			m.LeaderData = db.skillLeaderData.ref(m.LeaderSkillSeq)
			if s := db.skills.at(m.LeaderSkill); s != nil {
				s.MonstersWithLeader = append(s.MonstersWithLeader, self)
			}
		}

		m.Attr1 = db.attrEnum(m.Attr1Seq)
		m.Attr2 = db.attrEnum(m.Attr2Seq)
		m.Type1 = db.typeName(m.Type1Seq)
		m.Type2 = db.typeName(m.Type2Seq)

		if ai := db.monsterAddInfos.get(m.ID); ai != nil {
			m.Type3 = db.typeName(ai.SubType)
			if ai.HasExtraVal1 {
				m.AssistSetting = ai.ExtraVal1
			}
		}

		info := db.monsterInfos.get(m.ID)
		if info == nil {
			return &IntegrityError{Kind: KindMonster, Key: m.ID, Missing: KindMonsterInfo}
		}
		m.OnNA = info.OnNA
		m.InPEM = info.InPEM
		m.InREM = info.InREM
		m.Series = info.Series
		if s := db.series.at(m.Series); s != nil {
			s.Monsters = append(s.Monsters, self)
			m.SeriesID = s.Seq
			m.IsGFE = s.Seq == gfeSeries
		}

		price := db.monsterPrices.get(m.ID)
		if price == nil {
			return &IntegrityError{Kind: KindMonster, Key: m.ID, Missing: KindMonsterPrice}
		}
		m.SellMP = price.SellMP
		m.BuyMP = price.BuyMP
		m.InMPShop = price.BuyMP > 0
	}
	return nil
}

// gfeSeries is the godfest-exclusive series.
const gfeSeries = 34

func (db *DB) attrEnum(seq int) Attr {
	if a := db.attributes.get(seq); a != nil {
		return a.Attr()
	}
	return AttrNone
}

func (db *DB) typeName(seq int) string {
	if t := db.types.get(seq); t != nil {
		return t.Name
	}
	return ""
}

// finalize computes the fields that need every link in place.
func (db *DB) finalize() {
	for i := range db.monsters.items {
		m := &db.monsters.items[i]
		slices.SortStableFunc(m.Awakenings, func(a, b Ref) int {
			aw, bw := db.awakenings.at(a), db.awakenings.at(b)
			return cmp.Or(cmp.Compare(aw.Order, bw.Order), cmp.Compare(aw.Seq, bw.Seq))
		})
		m.Farmable = len(m.DropDungeons) > 0
		m.IsInheritable = isInheritable(m)
		m.Killers = Killers(m.Types())
	}
}

func isInheritable(m *Monster) bool {
	switch m.AssistSetting {
	case 1:
		return true
	case 2:
		return false
	}
	return len(m.Awakenings) > 0 && m.Rarity >= 5 && m.SellMP > 3000
}

var killerMap = map[string][]string{
	"God":      {"Devil"},
	"Devil":    {"God"},
	"Machine":  {"God", "Balance"},
	"Dragon":   {"Machine", "Healer"},
	"Physical": {"Machine", "Healer"},
	"Attacker": {"Devil", "Physical"},
	"Healer":   {"Dragon", "Attacker"},
}

// Killers returns the killer latents available to a monster with the given
// types. Balance monsters can take any killer.
func Killers(types []string) []string {
	if slices.Contains(types, "Balance") {
		return []string{"Any"}
	}
	var out []string
	for _, t := range types {
		for _, k := range killerMap[t] {
			if !slices.Contains(out, k) {
				out = append(out, k)
			}
		}
	}
	slices.Sort(out)
	return out
}
