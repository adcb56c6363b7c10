package title

import (
	"reflect"
	"testing"
)

func TestNormalizeSeasonAndYear(t *testing.T) {
	n := Normalize("間諜過家家 第二季(2023)")
	if n.Season != 2 {
		t.Errorf("Season = %d, want 2", n.Season)
	}
	if n.Year != 2023 {
		t.Errorf("Year = %d, want 2023", n.Year)
	}
	if n.Clean != "間諜過家家 第二季" {
		t.Errorf("Clean = %q", n.Clean)
	}
	if core := n.Core(); core != "間諜過家家" {
		t.Errorf("Core = %q, want 間諜過家家", core)
	}
}

func TestNormalizeSeasonPatterns(t *testing.T) {
	cases := []struct {
		raw    string
		season int
	}{
		{"某剧 第三季", 3},
		{"某剧 第10季", 10},
		{"Some Show Season 4", 4},
		{"Some Show S2", 2},
		{"Some Show Season IV", 4},
		{"跑男2", 2},
		{"某剧", 0},
	}
	for _, tc := range cases {
		if got := Normalize(tc.raw).Season; got != tc.season {
			t.Errorf("Normalize(%q).Season = %d, want %d", tc.raw, got, tc.season)
		}
	}
}

func TestNormalizeStripsEpisodeSuffix(t *testing.T) {
	cases := []struct {
		raw   string
		clean string
	}{
		{"葬送的芙莉莲 第1集", "葬送的芙莉莲"},
		{"某剧 第12话", "某剧"},
		{"某综艺 第3期", "某综艺"},
		{"某剧 第1集 (高清)", "某剧"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.raw).Clean; got != tc.clean {
			t.Errorf("Normalize(%q).Clean = %q, want %q", tc.raw, got, tc.clean)
		}
	}

	// The season marker shares the 第N prefix and must survive.
	if n := Normalize("某剧 第二季"); n.Season != 2 {
		t.Errorf("Season = %d, want 2", n.Season)
	}
}

func TestNormalizeBareYearIsSeasonProxy(t *testing.T) {
	n := Normalize("奔跑吧 2023")
	if n.Season != 2023 {
		t.Errorf("Season = %d, want year proxy 2023", n.Season)
	}
}

func TestNormalizeCollectsAllYears(t *testing.T) {
	n := Normalize("某剧 2021 (2023版)")
	if n.Year != 2021 {
		t.Errorf("Year = %d, want first year 2021", n.Year)
	}
	if !reflect.DeepEqual(n.AllYears, []int{2021, 2023}) {
		t.Errorf("AllYears = %v", n.AllYears)
	}
}

func TestNormalizeStripsNoise(t *testing.T) {
	n := Normalize("【官方】某剧 (高清) from Bilibili")
	if n.Clean != "某剧" {
		t.Errorf("Clean = %q, want 某剧", n.Clean)
	}
	if !n.Features.HasBrackets || !n.Features.HasParentheses {
		t.Errorf("feature flags = %+v", n.Features)
	}
}

func TestNormalizeFeatureFlags(t *testing.T) {
	n := Normalize("SPY FAMILY 剧场版")
	if !n.Features.HasEnglish {
		t.Error("expected HasEnglish")
	}
	if !n.Features.HasSpecialMarker || !n.Features.IsMovie {
		t.Errorf("expected special/movie markers, got %+v", n.Features)
	}

	v := Normalize("快乐大本营 综艺")
	if !v.Features.IsVariety {
		t.Error("expected IsVariety")
	}
}

func TestNormalizeVariantsDeduplicated(t *testing.T) {
	n := Normalize("某剧")
	if len(n.Variants) != 1 || n.Variants[0] != "某剧" {
		t.Errorf("Variants = %v", n.Variants)
	}

	m := Normalize("Spy Family")
	want := []string{"spy family", "spyfamily"}
	if !reflect.DeepEqual(m.Variants, want) {
		t.Errorf("Variants = %v, want %v", m.Variants, want)
	}
}

func TestNormalizeEmptyTitle(t *testing.T) {
	n := Normalize("")
	if n.Clean != "" || n.Season != 0 || n.Year != 0 || len(n.Variants) != 0 {
		t.Errorf("empty title produced %+v", n)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	a := Normalize("間諜過家家 第二季(2023)")
	b := Normalize("間諜過家家 第二季(2023)")
	if !reflect.DeepEqual(a, b) {
		t.Error("Normalize is not deterministic")
	}
}

func TestHashStable(t *testing.T) {
	if Hash("某剧") != Hash("某剧") {
		t.Error("Hash not stable")
	}
	if Hash("某剧") == Hash("另一剧") {
		t.Error("distinct titles collided (fnv32a on short CJK strings)")
	}
}
