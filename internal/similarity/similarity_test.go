package similarity

import (
	"testing"

	"danmu/internal/title"
)

func TestStringsExactEquality(t *testing.T) {
	if got := Strings("間諜過家家", "間諜過家家"); got != 1.0 {
		t.Errorf("identical strings = %v, want 1.0", got)
	}
}

func TestStringsEmpty(t *testing.T) {
	if got := Strings("", ""); got != 0 {
		t.Errorf("empty pair = %v, want 0", got)
	}
	if got := Strings("abc", ""); got != 0 {
		t.Errorf("half-empty pair = %v, want 0", got)
	}
}

func TestStringsRange(t *testing.T) {
	pairs := [][2]string{
		{"间谍过家家", "间谍过家家 第二季"},
		{"spy family", "spy x family"},
		{"abc", "xyz"},
	}
	for _, p := range pairs {
		got := Strings(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Strings(%q, %q) = %v out of range", p[0], p[1], got)
		}
	}
}

func TestStringsOrdering(t *testing.T) {
	near := Strings("间谍过家家", "间谍过家家2")
	far := Strings("间谍过家家", "完全不同的节目")
	if near <= far {
		t.Errorf("near %v should exceed far %v", near, far)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"间谍", "间谍过家家", 3},
	}
	for _, tc := range cases {
		if got := Levenshtein([]rune(tc.a), []rune(tc.b)); got != tc.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCommonSubsequenceAndSubstring(t *testing.T) {
	if got := commonSubsequence([]rune("abcde"), []rune("ace")); got != 3 {
		t.Errorf("subsequence = %d, want 3", got)
	}
	if got := commonSubstring([]rune("abcde"), []rune("xcdey")); got != 3 {
		t.Errorf("substring = %d, want 3", got)
	}
}

func TestTitlesPicksBestVariantPair(t *testing.T) {
	a := title.Normalize("Spy Family")
	b := title.Normalize("SpyFamily")
	// The compact variants are identical, so the best pair scores 1.0.
	if got := Titles(a, b); got != 1.0 {
		t.Errorf("Titles = %v, want 1.0 via compact variants", got)
	}
}

func TestTitlesDeterministic(t *testing.T) {
	a := title.Normalize("间谍过家家 第二季")
	b := title.Normalize("间谍过家家")
	first := Titles(a, b)
	for i := 0; i < 5; i++ {
		if got := Titles(a, b); got != first {
			t.Fatalf("Titles varied between calls: %v then %v", first, got)
		}
	}
}
