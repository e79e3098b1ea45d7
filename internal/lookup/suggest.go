package lookup

import (
	"cmp"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/padinfo/internal/nickname"
)

// A nickname that sounds like the query needs less spelling similarity to
// be suggested than one that only looks like it.
const (
	soundsLikeCutoff = 0.70
	looksLikeCutoff  = 0.85
)

// Suggest returns up to n nicknames that sound or look like query, best
// first, at most one per monster. It is meant for failed lookups.
//
// Two strings sound alike when any of their words share a Double Metaphone
// code. Similarity is Jaro-Winkler on the whole strings, with and without
// spaces.
func Suggest(ix *nickname.Index, query string, n int) []string {
	q := Normalize(query)
	if q == "" || n <= 0 {
		return nil
	}
	qWords := strings.Fields(q)
	qCodes := metaphones(qWords)

	type scored struct {
		nick   string
		nm     *nickname.NamedMonster
		score  float64
		sounds bool
	}
	var hits []scored
	for _, nick := range ix.Nicknames() {
		words := strings.Fields(nick)
		score := similarity(q, nick, qWords, words)
		sounds := shareCode(qCodes, metaphones(words))
		if score >= looksLikeCutoff || (sounds && score >= soundsLikeCutoff) {
			hits = append(hits, scored{nick: nick, nm: ix.Entries[nick], score: score, sounds: sounds})
		}
	}
	slices.SortStableFunc(hits, func(a, b scored) int {
		return cmp.Or(
			cmp.Compare(b2i(b.sounds), b2i(a.sounds)),
			cmp.Compare(b.score, a.score),
			strings.Compare(a.nick, b.nick),
		)
	})

	seen := make(map[*nickname.NamedMonster]bool)
	var out []string
	for _, h := range hits {
		if len(out) == n {
			break
		}
		if seen[h.nm] {
			continue
		}
		seen[h.nm] = true
		out = append(out, h.nick)
	}
	return out
}

func metaphones(words []string) map[string]bool {
	codes := make(map[string]bool, 2*len(words))
	for _, w := range words {
		primary, alternate := matchr.DoubleMetaphone(w)
		if primary != "" {
			codes[primary] = true
		}
		if alternate != "" {
			codes[alternate] = true
		}
	}
	return codes
}

func shareCode(a, b map[string]bool) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for c := range a {
		if b[c] {
			return true
		}
	}
	return false
}

// similarity scores q against nick as written and with spaces removed, so
// "pirat edragon" still scores well against "pirate dragon".
func similarity(q, nick string, qWords, words []string) float64 {
	score := matchr.JaroWinkler(q, nick, false)
	if len(qWords) > 1 || len(words) > 1 {
		score = max(score, matchr.JaroWinkler(strings.Join(qWords, ""), strings.Join(words, ""), false))
	}
	return score
}
