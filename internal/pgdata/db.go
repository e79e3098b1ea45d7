package pgdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// DB is one fully linked dataset generation. It is read-only after [Build]
// returns and safe for concurrent readers.
type DB struct {
	attributes          table[Attribute]
	awakenings          table[Awakening]
	dungeons            table[Dungeon]
	dungeonMonsterDrops table[DungeonMonsterDrop]
	dungeonMonsters     table[DungeonMonster]
	evolutions          table[Evolution]
	evolutionMaterials  table[EvolutionMaterial]
	monsters            table[Monster]
	monsterAddInfos     table[MonsterAddInfo]
	monsterInfos        table[MonsterInfo]
	monsterPrices       table[MonsterPrice]
	series              table[Series]
	skills              table[Skill]
	skillLeaderData     table[SkillLeaderData]
	skillRotations      table[SkillRotation]
	skillRotationsDated table[SkillRotationDated]
	types               table[Type]

	byNA   map[int]Ref
	groups []Group

	// Faults holds the integrity errors of monsters dropped under
	// [IntegrityExclude], joined. It is nil when nothing was dropped.
	Faults error

	log *slog.Logger
}

// BuildOption configures [Build].
type BuildOption func(*buildConfig)

type buildConfig struct {
	integrity IntegrityPolicy
	log       *slog.Logger
}

// WithIntegrityPolicy sets how integrity faults are handled. The default is
// [IntegrityAbort].
func WithIntegrityPolicy(p IntegrityPolicy) BuildOption {
	return func(c *buildConfig) { c.integrity = p }
}

// WithLogger sets the logger used for skipped rows and dropped links.
func WithLogger(l *slog.Logger) BuildOption {
	return func(c *buildConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// Build fetches every dataset from src and runs the raw, link, finalize, and
// grouping passes. Under [IntegrityAbort] a monster without its info or price
// record fails the build with an [*IntegrityError].
func Build(ctx context.Context, src Source, opts ...BuildOption) (*DB, error) {
	cfg := buildConfig{integrity: IntegrityAbort, log: slog.Default()}
	for _, o := range opts {
		o(&cfg)
	}

	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("pgdata: build: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pgdata: build: %w", err)
	}

	db := newRaw(data, cfg.log)

	faults := db.checkIntegrity()
	if len(faults) > 0 {
		if cfg.integrity == IntegrityAbort {
			return nil, fmt.Errorf("pgdata: build: %w", faults[0])
		}
		db.excludeMonsters(faults)
		errs := make([]error, len(faults))
		for i, f := range faults {
			errs[i] = f
		}
		db.Faults = errors.Join(errs...)
		cfg.log.Warn("excluded monsters with integrity faults", "count", len(faults))
	}

	if err := db.link(); err != nil {
		return nil, fmt.Errorf("pgdata: build: %w", err)
	}
	db.finalize()
	db.Regroup()
	return db, nil
}

// newRaw runs the raw pass: every kind parsed into its arena.
func newRaw(data Dataset, log *slog.Logger) *DB {
	return &DB{
		attributes:          newTable(KindAttribute, data[KindAttribute], parseAttribute, log),
		awakenings:          newTable(KindAwakening, data[KindAwakening], parseAwakening, log),
		dungeons:            newTable(KindDungeon, data[KindDungeon], parseDungeon, log),
		dungeonMonsterDrops: newTable(KindDungeonMonsterDrop, data[KindDungeonMonsterDrop], parseDungeonMonsterDrop, log),
		dungeonMonsters:     newTable(KindDungeonMonster, data[KindDungeonMonster], parseDungeonMonster, log),
		evolutions:          newTable(KindEvolution, data[KindEvolution], parseEvolution, log),
		evolutionMaterials:  newTable(KindEvolutionMaterial, data[KindEvolutionMaterial], parseEvolutionMaterial, log),
		monsters:            newTable(KindMonster, data[KindMonster], parseMonster, log),
		monsterAddInfos:     newTable(KindMonsterAddInfo, data[KindMonsterAddInfo], parseMonsterAddInfo, log),
		monsterInfos:        newTable(KindMonsterInfo, data[KindMonsterInfo], parseMonsterInfo, log),
		monsterPrices:       newTable(KindMonsterPrice, data[KindMonsterPrice], parseMonsterPrice, log),
		series:              newTable(KindSeries, data[KindSeries], parseSeries, log),
		skills:              newTable(KindSkill, data[KindSkill], parseSkill, log),
		skillLeaderData:     newTable(KindSkillLeaderData, data[KindSkillLeaderData], parseSkillLeaderData, log),
		skillRotations:      newTable(KindSkillRotation, data[KindSkillRotation], parseSkillRotation, log),
		skillRotationsDated: newTable(KindSkillRotationDated, data[KindSkillRotationDated], parseSkillRotationDated, log),
		types:               newTable(KindType, data[KindType], parseType, log),
		log:                 log,
	}
}

// checkIntegrity finds monsters whose guaranteed info or price record is
// absent, in arena order.
func (db *DB) checkIntegrity() []*IntegrityError {
	var faults []*IntegrityError
	for i := range db.monsters.items {
		m := &db.monsters.items[i]
		if !db.monsterInfos.ref(m.ID).Valid() {
			faults = append(faults, &IntegrityError{Kind: KindMonster, Key: m.ID, Missing: KindMonsterInfo})
		}
		if !db.monsterPrices.ref(m.ID).Valid() {
			faults = append(faults, &IntegrityError{Kind: KindMonster, Key: m.ID, Missing: KindMonsterPrice})
		}
	}
	return faults
}

func (db *DB) excludeMonsters(faults []*IntegrityError) {
	drop := make(map[int]bool, len(faults))
	for _, f := range faults {
		drop[f.Key] = true
	}
	filterTable(&db.monsters, func(m *Monster) bool { return !drop[m.ID] })
}

// Load returns every non-deleted record of kind keyed by its id.
func (db *DB) Load(kind Kind) map[int]Record {
	switch kind {
	case KindAttribute:
		return loadMap(&db.attributes)
	case KindAwakening:
		return loadMap(&db.awakenings)
	case KindDungeon:
		return loadMap(&db.dungeons)
	case KindDungeonMonsterDrop:
		return loadMap(&db.dungeonMonsterDrops)
	case KindDungeonMonster:
		return loadMap(&db.dungeonMonsters)
	case KindEvolution:
		return loadMap(&db.evolutions)
	case KindEvolutionMaterial:
		return loadMap(&db.evolutionMaterials)
	case KindMonster:
		return loadMap(&db.monsters)
	case KindMonsterAddInfo:
		return loadMap(&db.monsterAddInfos)
	case KindMonsterInfo:
		return loadMap(&db.monsterInfos)
	case KindMonsterPrice:
		return loadMap(&db.monsterPrices)
	case KindSeries:
		return loadMap(&db.series)
	case KindSkill:
		return loadMap(&db.skills)
	case KindSkillLeaderData:
		return loadMap(&db.skillLeaderData)
	case KindSkillRotation:
		return loadMap(&db.skillRotations)
	case KindSkillRotationDated:
		return loadMap(&db.skillRotationsDated)
	case KindType:
		return loadMap(&db.types)
	}
	return map[int]Record{}
}

// Get returns the record of kind with key id.
func (db *DB) Get(kind Kind, id int) (Record, bool) {
	rec, ok := db.Load(kind)[id]
	return rec, ok
}

func loadMap[T any, P recordPtr[T]](t *table[T]) map[int]Record {
	out := make(map[int]Record, len(t.items))
	for key, r := range t.byKey {
		out[key] = P(&t.items[r])
	}
	return out
}

// Count returns the number of stored records of kind.
func (db *DB) Count(kind Kind) int {
	return len(db.Load(kind))
}

// Monster returns the monster with primary id, or nil.
func (db *DB) Monster(id int) *Monster { return db.monsters.get(id) }

// MonsterAt resolves a monster reference, or returns nil.
func (db *DB) MonsterAt(r Ref) *Monster { return db.monsters.at(r) }

// MonsterByNA returns the monster with the given NA alias id, or nil.
func (db *DB) MonsterByNA(naID int) *Monster {
	r, ok := db.byNA[naID]
	if !ok {
		return nil
	}
	return db.monsters.at(r)
}

// Monsters returns every monster in ascending id order.
func (db *DB) Monsters() []*Monster {
	out := make([]*Monster, 0, db.monsters.len())
	for i := range db.monsters.items {
		out = append(out, &db.monsters.items[i])
	}
	slices.SortFunc(out, func(a, b *Monster) int { return a.ID - b.ID })
	return out
}

// Skill returns the skill with id, or nil.
func (db *DB) Skill(id int) *Skill { return db.skills.get(id) }

// SkillAt resolves a skill reference, or returns nil.
func (db *DB) SkillAt(r Ref) *Skill { return db.skills.at(r) }

// LeaderDataAt resolves a parsed leader-skill multiplier reference, or returns nil.
func (db *DB) LeaderDataAt(r Ref) *SkillLeaderData { return db.skillLeaderData.at(r) }

// Series returns the series with id, or nil.
func (db *DB) Series(id int) *Series { return db.series.get(id) }

// SeriesAt resolves a series reference, or returns nil.
func (db *DB) SeriesAt(r Ref) *Series { return db.series.at(r) }

// Dungeon returns the dungeon with id, or nil.
func (db *DB) Dungeon(id int) *Dungeon { return db.dungeons.get(id) }

// DungeonAt resolves a dungeon reference, or returns nil.
func (db *DB) DungeonAt(r Ref) *Dungeon { return db.dungeons.at(r) }

// DungeonMonster returns the dungeon enemy row with id, or nil.
func (db *DB) DungeonMonster(id int) *DungeonMonster { return db.dungeonMonsters.get(id) }

// Type returns the monster type with id, or nil.
func (db *DB) Type(id int) *Type { return db.types.get(id) }

// Attribute returns the attribute with id, or nil.
func (db *DB) Attribute(id int) *Attribute { return db.attributes.get(id) }

// Awakening returns the awakening row with id, or nil.
func (db *DB) Awakening(id int) *Awakening { return db.awakenings.get(id) }

// AwakeningAt resolves an awakening reference, or returns nil.
func (db *DB) AwakeningAt(r Ref) *Awakening { return db.awakenings.at(r) }

// Evolution returns the evolution edge with id, or nil.
func (db *DB) Evolution(id int) *Evolution { return db.evolutions.get(id) }

// SkillRotation returns the skill rotation with id, or nil.
func (db *DB) SkillRotation(id int) *SkillRotation { return db.skillRotations.get(id) }

// EvolutionMaterial returns the evolution material row with id, or nil.
func (db *DB) EvolutionMaterial(id int) *EvolutionMaterial { return db.evolutionMaterials.get(id) }

// SkillRotationDated returns the dated skill rotation with id, or nil.
func (db *DB) SkillRotationDated(id int) *SkillRotationDated { return db.skillRotationsDated.get(id) }

// AwakeningSkills returns the awakening skills of m in display order.
func (db *DB) AwakeningSkills(m *Monster) []*Skill {
	out := make([]*Skill, 0, len(m.Awakenings))
	for _, r := range m.Awakenings {
		a := db.awakenings.at(r)
		if a == nil {
			continue
		}
		if s := db.skills.at(a.Skill); s != nil {
			out = append(out, s)
		}
	}
	return out
}
