package jptext

import "strings"

// kanaDigraphs maps two-kana combinations (in hiragana) that romanize as one
// syllable.
var kanaDigraphs = map[string]string{
	"きゃ": "kya", "きゅ": "kyu", "きょ": "kyo",
	"ぎゃ": "gya", "ぎゅ": "gyu", "ぎょ": "gyo",
	"しゃ": "sha", "しゅ": "shu", "しょ": "sho", "しぇ": "she",
	"じゃ": "ja", "じゅ": "ju", "じょ": "jo", "じぇ": "je",
	"ちゃ": "cha", "ちゅ": "chu", "ちょ": "cho", "ちぇ": "che",
	"ぢゃ": "ja", "ぢゅ": "ju", "ぢょ": "jo",
	"にゃ": "nya", "にゅ": "nyu", "にょ": "nyo",
	"ひゃ": "hya", "ひゅ": "hyu", "ひょ": "hyo",
	"びゃ": "bya", "びゅ": "byu", "びょ": "byo",
	"ぴゃ": "pya", "ぴゅ": "pyu", "ぴょ": "pyo",
	"みゃ": "mya", "みゅ": "myu", "みょ": "myo",
	"りゃ": "rya", "りゅ": "ryu", "りょ": "ryo",
	"ふぁ": "fa", "ふぃ": "fi", "ふぇ": "fe", "ふぉ": "fo",
	"てぃ": "ti", "でぃ": "di", "とぅ": "tu", "どぅ": "du",
	"うぃ": "wi", "うぇ": "we", "うぉ": "wo",
	"ゔぁ": "va", "ゔぃ": "vi", "ゔぇ": "ve", "ゔぉ": "vo",
	"つぁ": "tsa", "つぃ": "tsi", "つぇ": "tse", "つぉ": "tso",
	"いぇ": "ye",
}

// kanaMonographs maps single hiragana to Hepburn romaji.
var kanaMonographs = map[rune]string{
	'あ': "a", 'い': "i", 'う': "u", 'え': "e", 'お': "o",
	'か': "ka", 'き': "ki", 'く': "ku", 'け': "ke", 'こ': "ko",
	'が': "ga", 'ぎ': "gi", 'ぐ': "gu", 'げ': "ge", 'ご': "go",
	'さ': "sa", 'し': "shi", 'す': "su", 'せ': "se", 'そ': "so",
	'ざ': "za", 'じ': "ji", 'ず': "zu", 'ぜ': "ze", 'ぞ': "zo",
	'た': "ta", 'ち': "chi", 'つ': "tsu", 'て': "te", 'と': "to",
	'だ': "da", 'ぢ': "ji", 'づ': "zu", 'で': "de", 'ど': "do",
	'な': "na", 'に': "ni", 'ぬ': "nu", 'ね': "ne", 'の': "no",
	'は': "ha", 'ひ': "hi", 'ふ': "fu", 'へ': "he", 'ほ': "ho",
	'ば': "ba", 'び': "bi", 'ぶ': "bu", 'べ': "be", 'ぼ': "bo",
	'ぱ': "pa", 'ぴ': "pi", 'ぷ': "pu", 'ぺ': "pe", 'ぽ': "po",
	'ま': "ma", 'み': "mi", 'む': "mu", 'め': "me", 'も': "mo",
	'や': "ya", 'ゆ': "yu", 'よ': "yo",
	'ら': "ra", 'り': "ri", 'る': "ru", 'れ': "re", 'ろ': "ro",
	'わ': "wa", 'ゐ': "wi", 'ゑ': "we", 'を': "wo",
	'ゔ': "vu",
	'ぁ': "a", 'ぃ': "i", 'ぅ': "u", 'ぇ': "e", 'ぉ': "o",
	'ゃ': "ya", 'ゅ': "yu", 'ょ': "yo", 'ゎ': "wa",
	'ー': "-",
}

// toHiragana maps katakana in the main block onto the matching hiragana.
func toHiragana(r rune) rune {
	if r >= 'ァ' && r <= 'ヴ' {
		return r - 0x60
	}
	return r
}

// Romanize converts kana in s to Hepburn romaji. Runes that are not kana,
// kanji among them, are copied through unchanged.
func Romanize(s string) string {
	src := []rune(s)
	for i, r := range src {
		src[i] = toHiragana(r)
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(src); i++ {
		r := src[i]

		if r == 'っ' {
			// Sokuon doubles the next consonant.
			if i+1 < len(src) {
				if next := syllableAt(src, i+1); next != "" && !isVowel(next[0]) {
					if strings.HasPrefix(next, "ch") {
						b.WriteByte('t')
					} else {
						b.WriteByte(next[0])
					}
				}
			}
			continue
		}

		if r == 'ん' {
			b.WriteByte('n')
			if i+1 < len(src) {
				if next := syllableAt(src, i+1); next != "" && (isVowel(next[0]) || next[0] == 'y') {
					b.WriteByte('\'')
				}
			}
			continue
		}

		if i+1 < len(src) {
			if roma, ok := kanaDigraphs[string(src[i:i+2])]; ok {
				b.WriteString(roma)
				i++
				continue
			}
		}
		if roma, ok := kanaMonographs[r]; ok {
			b.WriteString(roma)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// syllableAt returns the romaji of the syllable starting at src[i], or "" if
// src[i] is not kana.
func syllableAt(src []rune, i int) string {
	if i+1 < len(src) {
		if roma, ok := kanaDigraphs[string(src[i:i+2])]; ok {
			return roma
		}
	}
	return kanaMonographs[src[i]]
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'i', 'u', 'e', 'o':
		return true
	}
	return false
}
