package nickname

import (
	"slices"
	"strings"

	"github.com/MrWong99/padinfo/internal/pgdata"
)

var attrShort = map[pgdata.Attr][]string{
	pgdata.AttrFire:  {"r"},
	pgdata.AttrWater: {"b"},
	pgdata.AttrWood:  {"g"},
	pgdata.AttrLight: {"l"},
	pgdata.AttrDark:  {"d"},
}

var attrLong = map[pgdata.Attr][]string{
	pgdata.AttrFire:  {"red", "fire"},
	pgdata.AttrWater: {"blue", "water"},
	pgdata.AttrWood:  {"green", "wood"},
	pgdata.AttrLight: {"light"},
	pgdata.AttrDark:  {"dark"},
}

// Event and collab series tags, keyed by series id.
var seriesPrefixes = map[int][]string{
	130: {"halloween"},
	136: {"xmas", "christmas"},
	125: {"summer", "beach"},
	114: {"school", "academy", "gakuen"},
	139: {"new years", "ny"},
	149: {"wedding", "bride"},
	154: {"padr"},
}

// Prefixes returns the sorted set of descriptive prefixes for m.
func Prefixes(m *pgdata.Monster) []string {
	set := map[string]bool{}
	add := func(ps ...string) {
		for _, p := range ps {
			set[p] = true
		}
	}

	add(attrShort[m.Attr1]...)
	add(attrLong[m.Attr1]...)
	for _, a1 := range attrShort[m.Attr1] {
		for _, a2 := range attrShort[m.Attr2] {
			add(a1+a2, a1+"/"+a2)
		}
	}

	// Chibis share the JP name's spelling in lowercase. The katakana check
	// only applies when NA and JP names match so that "gemini" stays out.
	if m.NameNA != m.NameJP {
		if strings.ToLower(m.NameNA) == m.NameNA {
			add("chibi")
		}
	} else if strings.Contains(m.NameJP, "ミニ") {
		add("chibi")
	}

	lower := strings.ToLower(m.NameNA)
	awoken := strings.HasPrefix(lower, "awoken") || strings.Contains(lower, "覚醒")
	revo := strings.HasPrefix(lower, "reincarnated") || strings.Contains(lower, "転生")
	if awoken {
		add("a", "awoken")
	}
	if revo {
		add("revo", "reincarnated")
	}

	switch m.EvoType {
	case pgdata.EvoBase:
		add("base")
	case pgdata.EvoNormal:
		add("evo")
	case pgdata.EvoUvoAwoken:
		if !awoken && !revo {
			add("uvo", "uevo")
		}
	case pgdata.EvoUuvoReincarnated:
		if !awoken && !revo {
			add("uuvo", "uuevo")
		}
	}

	add(seriesPrefixes[m.SeriesID]...)

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

var lowPriorityTypes = []string{"evolve", "enhance", "protected", "awoken", "vendor"}

// IsLowPriority reports whether the evolution group rooted at base is demoted
// in tie-breaks. It never removes a monster from the index.
func IsLowPriority(base *pgdata.Monster, members []*pgdata.Monster) bool {
	name := strings.ToLower(base.NameNA)
	if slices.Contains(lowPriorityTypes, strings.ToLower(base.Type1)) ||
		strings.Contains(name, "tamadra") ||
		base.Rarity < 2 ||
		name == base.NameNA {
		return true
	}
	maxRarity := 0
	for _, m := range members {
		maxRarity = max(maxRarity, m.Rarity)
	}
	return maxRarity < 5
}
