package nickname

import (
	"slices"
	"strings"
)

// MonsterBasename derives the short name of a single monster from its NA
// name. "Xyz, the Abc" keeps "xyz"; any other comma keeps the last segment.
// Leading "awoken" and "reincarnated" are stripped.
func MonsterBasename(nameNA string) string {
	b := strings.ToLower(nameNA)
	if strings.Contains(b, ",") {
		parts := strings.Split(b, ",")
		if strings.HasPrefix(strings.TrimSpace(parts[1]), "the ") {
			b = parts[0]
		} else {
			b = parts[len(parts)-1]
		}
	}
	for _, stage := range []string{"awoken", "reincarnated"} {
		if strings.HasPrefix(b, stage) {
			b = strings.ReplaceAll(b, stage, "")
		}
	}
	return strings.TrimSpace(b)
}

// GroupBasename returns the most common of basenames. Ties go to the
// lexicographically smallest one. It returns "" for no input.
func GroupBasename(basenames []string) string {
	counts := make(map[string]int, len(basenames))
	for _, b := range basenames {
		counts[b]++
	}
	best, bestCount := "", 0
	for b, n := range counts {
		if n > bestCount || (n == bestCount && b < best) {
			best, bestCount = b, n
		}
	}
	return best
}

// computedBasenames expands a group basename into its searchable forms: the
// name itself, and with dashes replaced by spaces when it has any.
func computedBasenames(basename string) []string {
	out := []string{basename}
	if strings.Contains(basename, "-") {
		out = append(out, strings.ReplaceAll(basename, "-", " "))
	}
	return out
}

// secondWords returns the second word of every basename made of exactly two
// space-separated words.
func secondWords(basenames []string) []string {
	var out []string
	for _, b := range basenames {
		words := strings.Split(b, " ")
		if len(words) == 2 && !slices.Contains(out, words[1]) {
			out = append(out, words[1])
		}
	}
	slices.Sort(out)
	return out
}
