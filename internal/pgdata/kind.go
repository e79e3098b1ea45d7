package pgdata

import (
	"fmt"
	"slices"
)

// Kind identifies one of the PadGuide dataset types.
type Kind int

const (
	KindAttribute Kind = iota
	KindAwakening
	KindDungeon
	KindDungeonMonsterDrop
	KindDungeonMonster
	KindEvolution
	KindEvolutionMaterial
	KindMonster
	KindMonsterAddInfo
	KindMonsterInfo
	KindMonsterPrice
	KindSeries
	KindSkill
	KindSkillLeaderData
	KindSkillRotation
	KindSkillRotationDated
	KindType

	numKinds
)

var kindNames = [numKinds]string{
	KindAttribute:          "attribute",
	KindAwakening:          "awakening",
	KindDungeon:            "dungeon",
	KindDungeonMonsterDrop: "dungeon_monster_drop",
	KindDungeonMonster:     "dungeon_monster",
	KindEvolution:          "evolution",
	KindEvolutionMaterial:  "evolution_material",
	KindMonster:            "monster",
	KindMonsterAddInfo:     "monster_add_info",
	KindMonsterInfo:        "monster_info",
	KindMonsterPrice:       "monster_price",
	KindSeries:             "series",
	KindSkill:              "skill",
	KindSkillLeaderData:    "skill_leader_data",
	KindSkillRotation:      "skill_rotation",
	KindSkillRotationDated: "skill_rotation_dated",
	KindType:               "type",
}

var kindFiles = [numKinds]string{
	KindAttribute:          "attributeList.jsp",
	KindAwakening:          "awokenSkillList.jsp",
	KindDungeon:            "dungeonList.jsp",
	KindDungeonMonsterDrop: "dungeonMonsterDropList.jsp",
	KindDungeonMonster:     "dungeonMonsterList.jsp",
	KindEvolution:          "evolutionList.jsp",
	KindEvolutionMaterial:  "evoMaterialList.jsp",
	KindMonster:            "monsterList.jsp",
	KindMonsterAddInfo:     "monsterAddInfoList.jsp",
	KindMonsterInfo:        "monsterInfoList.jsp",
	KindMonsterPrice:       "monsterPriceList.jsp",
	KindSeries:             "seriesList.jsp",
	KindSkill:              "skillList.jsp",
	KindSkillLeaderData:    "skillLeaderDataList.jsp",
	KindSkillRotation:      "skillRotationList.jsp",
	KindSkillRotationDated: "skillRotationListList.jsp",
	KindType:               "typeList.jsp",
}

// kindDeps declares which kinds a kind's link step reads. A kind is linked
// only after everything it depends on.
var kindDeps = map[Kind][]Kind{
	KindAwakening:          {KindSkill, KindMonster},
	KindDungeonMonsterDrop: {KindMonster, KindDungeonMonster},
	KindDungeonMonster:     {KindMonster, KindDungeon},
	KindEvolution:          {KindMonster},
	KindEvolutionMaterial:  {KindEvolution, KindMonster},
	KindMonster: {
		KindSkill, KindSkillLeaderData, KindAttribute, KindType,
		KindMonsterAddInfo, KindMonsterInfo, KindMonsterPrice, KindSeries,
	},
	KindMonsterInfo:        {KindSeries},
	KindSkillRotation:      {KindMonster},
	KindSkillRotationDated: {KindSkill, KindSkillRotation},
}

// linkOrder is a topological order of all kinds over kindDeps.
var linkOrder = mustTopoSort(kindDeps)

// String returns the snake_case name of k.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// FileName returns the dataset file name PadGuide publishes for k.
func (k Kind) FileName() string {
	if k < 0 || k >= numKinds {
		return ""
	}
	return kindFiles[k]
}

// Kinds returns every dataset kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// LinkOrder returns the order in which kinds are linked.
func LinkOrder() []Kind {
	return slices.Clone(linkOrder)
}

// Deps returns the kinds that k's link step depends on.
func Deps(k Kind) []Kind {
	return slices.Clone(kindDeps[k])
}

// mustTopoSort orders kinds so that every kind follows its dependencies.
// Ties are broken by Kind value so the order is stable across builds.
func mustTopoSort(deps map[Kind][]Kind) []Kind {
	indegree := make([]int, numKinds)
	dependents := make([][]Kind, numKinds)
	for k, ds := range deps {
		for _, d := range ds {
			indegree[k]++
			dependents[d] = append(dependents[d], k)
		}
	}

	var ready []Kind
	for k := range numKinds {
		if indegree[k] == 0 {
			ready = append(ready, k)
		}
	}

	order := make([]Kind, 0, numKinds)
	for len(ready) > 0 {
		slices.Sort(ready)
		k := ready[0]
		ready = ready[1:]
		order = append(order, k)
		for _, dep := range dependents[k] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(order) != int(numKinds) {
		panic("pgdata: dependency cycle between dataset kinds")
	}
	return order
}
