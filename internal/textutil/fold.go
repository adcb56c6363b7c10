package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Fold narrows fullwidth characters (ＡＢＣ１２３ and fullwidth punctuation)
// to their halfwidth equivalents so pattern tables only need one form.
func Fold(s string) string {
	return width.Narrow.String(s)
}

// CollapseWhitespace trims the string and collapses interior whitespace runs
// to a single ASCII space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsCJK reports whether the rune belongs to the CJK ideograph blocks used by
// Chinese and Japanese titles.
func IsCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

// StripNonWord removes every rune that is not a letter, digit, or CJK
// ideograph. Used to build the compact comparison variant of a title.
func StripNonWord(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || IsCJK(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HasLatinRun reports whether the string contains a run of at least n
// consecutive Latin letters.
func HasLatinRun(s string, n int) bool {
	run := 0
	for _, r := range s {
		if r < 128 && unicode.IsLetter(r) {
			run++
			if run >= n {
				return true
			}
			continue
		}
		run = 0
	}
	return false
}
