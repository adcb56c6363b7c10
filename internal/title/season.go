package title

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"danmu/internal/textutil"
)

var (
	cjkSeasonPattern   = regexp.MustCompile(`第\s*([一二三四五六七八九十0-9]{1,2})\s*季`)
	wordSeasonPattern  = regexp.MustCompile(`season\s*(\d{1,2})\b`)
	shortSeasonPattern = regexp.MustCompile(`\bs(\d{1,2})\b`)
	bareYearPattern    = regexp.MustCompile(`(?:^|\s)((?:19|20)\d{2})(?:\s|$)`)
	romanSeasonPattern = regexp.MustCompile(`season\s+([ivx]+)\b`)

	trailingDigitPattern = regexp.MustCompile(`^(.+\D)([2-9])$`)
)

// extractSeason walks the marker patterns in priority order; the first hit
// wins. A bare year token acts as a season proxy for year-versioned programs
// (annual variety seasons are labelled by year, not ordinal).
func extractSeason(clean string) int {
	if clean == "" {
		return 0
	}

	if m := cjkSeasonPattern.FindStringSubmatch(clean); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
		if n := textutil.ChineseNumeral(m[1]); n > 0 {
			return n
		}
	}
	if m := wordSeasonPattern.FindStringSubmatch(clean); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	if m := shortSeasonPattern.FindStringSubmatch(clean); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	if m := bareYearPattern.FindStringSubmatch(clean); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := romanSeasonPattern.FindStringSubmatch(clean); m != nil {
		if n := textutil.RomanNumeral(m[1]); n > 0 {
			return n
		}
	}

	// Secondary heuristic: a trailing digit 2-9 glued to a multi-rune stem
	// ("Foo2") reads as season N.
	if m := trailingDigitPattern.FindStringSubmatch(clean); m != nil && !strings.HasSuffix(m[1], " ") {
		if utf8.RuneCountInString(m[1]) >= 2 {
			if n, err := strconv.Atoi(m[2]); err == nil {
				return n
			}
		}
	}
	return 0
}

var coreStripPatterns = []*regexp.Regexp{
	cjkSeasonPattern,
	regexp.MustCompile(`season\s*(\d{1,2}|[ivx]+)\b`),
	shortSeasonPattern,
	regexp.MustCompile(`(?:19|20)\d{2}`),
}

// Core returns the cleaned title with season, year, and trailing-digit tokens
// stripped. The matcher compares core titles so that "foo 第二季" and "foo"
// line up.
func (n Normalized) Core() string {
	core := n.Clean
	for _, pattern := range coreStripPatterns {
		core = pattern.ReplaceAllString(core, " ")
	}
	core = textutil.CollapseWhitespace(core)
	if m := trailingDigitPattern.FindStringSubmatch(core); m != nil && !strings.HasSuffix(m[1], " ") {
		if utf8.RuneCountInString(m[1]) >= 2 {
			return m[1]
		}
	}
	return core
}
