// Package jptext holds the small amount of Japanese and Latin text handling
// the monster index needs: script detection, diacritic folding for Latin
// names, and Hepburn romanization of kana.
package jptext

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// latinFold strips combining marks from a single decomposed Latin rune.
var latinFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// RemoveDiacritics folds accented Latin letters to their base letter
// ("Jörmungandr" becomes "Jormungandr"). Non-Latin runes are left untouched,
// so kana with voicing marks survive unchanged.
func RemoveDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < utf8.RuneSelf || !unicode.Is(unicode.Latin, r) {
			b.WriteRune(r)
			continue
		}
		out, _, err := transform.String(latinFold, string(r))
		if err != nil || out == "" {
			b.WriteRune(r)
			continue
		}
		b.WriteString(out)
	}
	return b.String()
}

// ContainsJP reports whether s contains any kana, kanji, or Japanese
// punctuation.
func ContainsJP(s string) bool {
	for _, r := range s {
		if isJP(r) {
			return true
		}
	}
	return false
}

func isJP(r rune) bool {
	switch {
	case unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han):
		return true
	case r >= 0x3000 && r <= 0x303f: // CJK symbols and punctuation
		return true
	case r == 0x30fb || r == 0x30fc: // middle dot, prolonged sound mark
		return true
	case r >= 0xff00 && r <= 0xffef: // half- and full-width forms
		return true
	}
	return false
}

// RomaSubname derives a romanized sub-name from a native monster name such as
// "彼方なるもの・ヨグ＝ソトース". Segments are split on "・", romanized, and kept
// only if romanization changed them and left no Japanese script behind.
func RomaSubname(nameJP string) string {
	name := strings.ReplaceAll(nameJP, "＝", "")
	var parts []string
	for _, part := range strings.Split(name, "・") {
		roma := Romanize(part)
		if part == roma || ContainsJP(roma) {
			continue
		}
		parts = append(parts, strings.Trim(roma, "-"))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
