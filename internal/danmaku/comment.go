package danmaku

import (
	"fmt"
	"strconv"
	"strings"

	"danmu/internal/dandan"
)

const defaultColor = 16777215 // white

// Comment is one overlay comment ready for rendering.
type Comment struct {
	Text string  `json:"text"`
	Time float64 `json:"time"`
	// Mode is 0 for scrolling, 1 for top-pinned, 2 for bottom-pinned.
	Mode  int    `json:"mode"`
	Color string `json:"color"`
}

// Parse decodes one raw comment. The p parameter packs
// "time,mode,color,..."; upstream modes 4 and 5 are bottom and top pins,
// everything else scrolls. Text longer than maxTextRunes is truncated.
func Parse(raw dandan.RawComment, maxTextRunes int) Comment {
	params := strings.Split(raw.P, ",")

	var t float64
	if len(params) > 0 {
		t, _ = strconv.ParseFloat(strings.TrimSpace(params[0]), 64)
	}

	mode := 0
	if len(params) > 1 {
		if m, err := strconv.Atoi(strings.TrimSpace(params[1])); err == nil {
			switch m {
			case 4:
				mode = 2
			case 5:
				mode = 1
			}
		}
	}

	color := defaultColor
	if len(params) > 2 {
		if c, err := strconv.Atoi(strings.TrimSpace(params[2])); err == nil && c >= 0 && c <= 0xFFFFFF {
			color = c
		}
	}

	return Comment{
		Text:  truncateRunes(raw.M, maxTextRunes),
		Time:  t,
		Mode:  mode,
		Color: fmt.Sprintf("#%06X", color),
	}
}

// ParseAll decodes a raw comment list, dropping entries with empty text.
func ParseAll(raws []dandan.RawComment, maxTextRunes int) []Comment {
	comments := make([]Comment, 0, len(raws))
	for _, raw := range raws {
		c := Parse(raw, maxTextRunes)
		if c.Text == "" {
			continue
		}
		comments = append(comments, c)
	}
	return comments
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
