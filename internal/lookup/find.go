// Package lookup resolves free-text monster queries against a nickname
// index.
//
// [Find] runs a fixed cascade of match stages, from exact id to fuzzy name,
// and stops at the first stage that matches anything. A failed lookup is
// not an error: [Result.Reason] carries a message meant for the end user.
package lookup

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/MrWong99/padinfo/internal/jptext"
	"github.com/MrWong99/padinfo/internal/nickname"
)

// Stage names a step of the match cascade. It labels metrics.
type Stage string

const (
	StageID             Stage = "id"
	StageExactNickname  Stage = "exact_nickname"
	StageTooShort       Stage = "too_short"
	StageSpacePrefix    Stage = "space_prefix"
	StageNicknamePrefix Stage = "nickname_prefix"
	StageFullNamePrefix Stage = "full_name_prefix"
	StageSecondWord     Stage = "second_word"
	StageNameOnNickname Stage = "name_on_nickname"
	StageNameOnFullList Stage = "name_on_full_list"
	StageCloseNickname  Stage = "close_nickname"
	StageCloseName      Stage = "close_name"
	StageNoMatch        Stage = "no_match"
)

// Similarity cutoffs for the fuzzy stages.
const (
	closeNicknameCutoff = 0.8
	closeNameCutoff     = 0.9
)

// Result is the outcome of one query. Exactly one of Monster and Reason is
// set.
type Result struct {
	Monster *nickname.NamedMonster
	Reason  string
	Method  string
	Stage   Stage
}

// Found reports whether the query resolved to a monster.
func (r Result) Found() bool { return r.Monster != nil }

// Normalize folds a raw query the way nicknames are stored.
func Normalize(query string) string {
	return strings.TrimSpace(strings.ToLower(jptext.RemoveDiacritics(query)))
}

// Find resolves query against ix.
func Find(ix *nickname.Index, query string) Result {
	q := Normalize(query)

	if q != "" && isDigits(q) {
		id, err := strconv.Atoi(q)
		if nm, ok := ix.ByNA[id]; err == nil && ok {
			return found(nm, StageID, "ID lookup")
		}
		return failed(StageID, "Looks like a monster ID but was not found")
	}

	if nm, ok := ix.Entries[q]; ok {
		return found(nm, StageExactNickname, "Exact nickname")
	}

	jp := jptext.ContainsJP(q)
	n := utf8.RuneCountInString(q)
	if jp && n < 2 {
		return failed(StageTooShort, "Japanese queries must be at least 2 characters")
	}
	if !jp && n < 4 {
		return failed(StageTooShort, "Your query must be at least 4 letters")
	}

	var matches []*nickname.NamedMonster

	matches = prefixMatches(ix, q+" ")
	if len(matches) > 0 {
		return found(PickBest(matches), StageSpacePrefix,
			fmt.Sprintf("Space nickname prefix, max of %d", len(matches)))
	}

	matches = prefixMatches(ix, q)
	if len(matches) > 0 {
		names := make([]string, len(matches))
		for i, nm := range matches {
			names[i] = nm.NameNA
		}
		return found(PickBest(matches), StageNicknamePrefix,
			fmt.Sprintf("Nickname prefix, max of %d, matches=(%s)", len(matches), strings.Join(names, ",")))
	}

	indexed := ix.Monsters()
	matches = filterNames(indexed, func(na, jp string) bool {
		return strings.HasPrefix(na, q) || strings.HasPrefix(jp, q)
	})
	if len(matches) > 0 {
		return found(PickBest(matches), StageFullNamePrefix,
			fmt.Sprintf("Full name, max of %d", len(matches)))
	}

	if nm, ok := ix.TwoWordEntries[q]; ok {
		return found(nm, StageSecondWord, "Second-word nickname prefix")
	}

	contains := func(na, jp string) bool {
		return strings.Contains(na, q) || strings.Contains(jp, q)
	}
	matches = filterNames(indexed, contains)
	if len(matches) > 0 {
		return found(PickBest(matches), StageNameOnNickname,
			fmt.Sprintf("Full name match on nickname, max of %d", len(matches)))
	}

	matches = filterNames(ix.All, contains)
	if len(matches) > 0 {
		return found(PickBest(matches), StageNameOnFullList,
			fmt.Sprintf("Full name match on full list, max of %d", len(matches)))
	}

	if key, ok := closest(q, ix.Nicknames(), closeNicknameCutoff); ok {
		return found(ix.Entries[key], StageCloseNickname, "Close nickname match")
	}

	names := make([]string, 0, len(ix.ByNAName))
	for name := range ix.ByNAName {
		names = append(names, name)
	}
	slices.Sort(names)
	if key, ok := closest(q, names, closeNameCutoff); ok {
		return found(ix.ByNAName[key], StageCloseName, "Close name match")
	}

	return failed(StageNoMatch, "Could not find a match for: "+q)
}

// PickBest returns the candidate ranked highest by (not low priority,
// rarity, NA id). It returns nil for no candidates.
func PickBest(candidates []*nickname.NamedMonster) *nickname.NamedMonster {
	if len(candidates) == 0 {
		return nil
	}
	return slices.MaxFunc(candidates, func(a, b *nickname.NamedMonster) int {
		return cmp.Or(
			cmp.Compare(b2i(!a.LowPriority), b2i(!b.LowPriority)),
			cmp.Compare(a.Rarity, b.Rarity),
			cmp.Compare(a.NAID, b.NAID),
			cmp.Compare(a.ID, b.ID),
		)
	})
}

// prefixMatches returns the distinct monsters owning a nickname that starts
// with prefix, ordered by NA id.
func prefixMatches(ix *nickname.Index, prefix string) []*nickname.NamedMonster {
	seen := map[*nickname.NamedMonster]bool{}
	var out []*nickname.NamedMonster
	ix.VisitPrefix(prefix, func(_ string, nm *nickname.NamedMonster) {
		if !seen[nm] {
			seen[nm] = true
			out = append(out, nm)
		}
	})
	slices.SortFunc(out, func(a, b *nickname.NamedMonster) int {
		return cmp.Or(cmp.Compare(a.NAID, b.NAID), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func filterNames(monsters []*nickname.NamedMonster, match func(na, jp string) bool) []*nickname.NamedMonster {
	var out []*nickname.NamedMonster
	for _, nm := range monsters {
		if match(strings.ToLower(nm.NameNA), strings.ToLower(nm.NameJP)) {
			out = append(out, nm)
		}
	}
	return out
}

// closest returns the candidate with the highest sequence-matcher ratio to
// q, if it reaches cutoff. Ties go to the lexicographically largest
// candidate.
func closest(q string, candidates []string, cutoff float64) (string, bool) {
	query := runes(q)
	best, bestScore := "", -1.0
	for _, c := range candidates {
		m := difflib.NewMatcher(runes(c), query)
		if m.RealQuickRatio() < cutoff || m.QuickRatio() < cutoff {
			continue
		}
		score := m.Ratio()
		if score < cutoff {
			continue
		}
		if score > bestScore || (score == bestScore && c > best) {
			best, bestScore = c, score
		}
	}
	return best, bestScore >= cutoff
}

// runes splits s into one element per rune for the sequence matcher.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func found(nm *nickname.NamedMonster, stage Stage, method string) Result {
	return Result{Monster: nm, Method: method, Stage: stage}
}

func failed(stage Stage, reason string) Result {
	return Result{Reason: reason, Stage: stage}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
