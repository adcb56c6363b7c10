package textutil

import "strings"

// chineseDigits maps the numerals that appear in season markers such as
// 第二季. Values above ten are written positionally (十一, 十二) and are
// handled by ChineseNumeral.
var chineseDigits = map[rune]int{
	'一': 1,
	'二': 2,
	'三': 3,
	'四': 4,
	'五': 5,
	'六': 6,
	'七': 7,
	'八': 8,
	'九': 9,
	'十': 10,
}

// ChineseNumeral converts a Chinese numeral in [1, 10] to its integer value.
// Returns 0 when the input is not a recognized numeral.
func ChineseNumeral(s string) int {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) != 1 {
		return 0
	}
	return chineseDigits[runes[0]]
}

var romanValues = map[rune]int{
	'I': 1,
	'V': 5,
	'X': 10,
	'L': 50,
	'C': 100,
}

// RomanNumeral converts a roman numeral using the standard subtractive rule.
// Returns 0 when the input contains characters outside I/V/X/L/C.
func RomanNumeral(s string) int {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	total := 0
	prev := 0
	for i := len(s) - 1; i >= 0; i-- {
		value, ok := romanValues[rune(s[i])]
		if !ok {
			return 0
		}
		if value < prev {
			total -= value
		} else {
			total += value
			prev = value
		}
	}
	if total <= 0 {
		return 0
	}
	return total
}
