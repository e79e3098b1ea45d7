package jptext_test

import (
	"testing"

	"github.com/MrWong99/padinfo/internal/jptext"
)

func TestRemoveDiacritics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Jörmungandr", "Jormungandr"},
		{"Ragnarök Dragon", "Ragnarok Dragon"},
		{"Pokémon", "Pokemon"},
		{"plain ascii", "plain ascii"},
		{"ガネーシャ", "ガネーシャ"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := jptext.RemoveDiacritics(tc.in); got != tc.want {
			t.Errorf("RemoveDiacritics(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestContainsJP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"kali", false},
		{"カーリー", true},
		{"覚醒", true},
		{"ひらがな", true},
		{"ka・li", true},
		{"", false},
	}
	for _, tc := range tests {
		if got := jptext.ContainsJP(tc.in); got != tc.want {
			t.Errorf("ContainsJP(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRomanize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"ヨグソトース", "yogusoto-su"},
		{"カッパ", "kappa"},
		{"マッチ", "matchi"},
		{"しゃしん", "shashin"},
		{"キンイ", "kin'i"},
		{"ファイア", "faia"},
		{"彼方", "彼方"},
		{"abc", "abc"},
	}
	for _, tc := range tests {
		if got := jptext.Romanize(tc.in); got != tc.want {
			t.Errorf("Romanize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRomaSubname(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"彼方なるもの・ヨグ＝ソトース", "yogusoto-su"},
		{"アテナ・ノン", "atena non"},
		{"覚醒ホルス", ""},
		{"Kali", ""},
	}
	for _, tc := range tests {
		if got := jptext.RomaSubname(tc.in); got != tc.want {
			t.Errorf("RomaSubname(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
