package danmaku

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	defaultWindowSeconds = 360
	defaultWindowCap     = 1500
	defaultPerSecondCap  = 15
	defaultMaxTextRunes  = 100
	dedupPrefixRunes     = 30
)

// SamplePolicy bounds the downsampler. Zero values fall back to the
// production defaults.
type SamplePolicy struct {
	// WindowSeconds is the width of one sampling window.
	WindowSeconds int
	// WindowCap is the maximum comments kept per window.
	WindowCap int
	// PerSecondCap is the maximum comments kept in any one-second bucket.
	PerSecondCap int
	// MaxTextRunes truncates comment text at parse time.
	MaxTextRunes int
}

// DefaultSamplePolicy returns the production sampling bounds.
func DefaultSamplePolicy() SamplePolicy {
	return SamplePolicy{
		WindowSeconds: defaultWindowSeconds,
		WindowCap:     defaultWindowCap,
		PerSecondCap:  defaultPerSecondCap,
		MaxTextRunes:  defaultMaxTextRunes,
	}
}

func (p SamplePolicy) normalized() SamplePolicy {
	if p.WindowSeconds <= 0 {
		p.WindowSeconds = defaultWindowSeconds
	}
	if p.WindowCap <= 0 {
		p.WindowCap = defaultWindowCap
	}
	if p.PerSecondCap <= 0 {
		p.PerSecondCap = defaultPerSecondCap
	}
	if p.MaxTextRunes <= 0 {
		p.MaxTextRunes = defaultMaxTextRunes
	}
	return p
}

// spamTokens are dropped as exact text matches.
var spamTokens = map[string]struct{}{
	"前排":   {},
	"沙发":   {},
	"打卡":   {},
	"签到":   {},
	"路过":   {},
	"前排打卡": {},
}

// Downsample bounds a parsed comment list: comments are sorted by time,
// partitioned into fixed windows, deduplicated and sampled down to the
// window cap, density-capped per second, filtered for low-quality text, and
// deduplicated once more across window boundaries. The result is sorted
// ascending by time and safe to cache.
func Downsample(comments []Comment, policy SamplePolicy) []Comment {
	policy = policy.normalized()
	if len(comments) == 0 {
		return nil
	}

	sorted := make([]Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	windows := partition(sorted, policy.WindowSeconds)
	merged := make([]Comment, 0, len(sorted))
	for _, window := range windows {
		if len(window) > policy.WindowCap {
			window = dedupWindow(window)
			if len(window) > policy.WindowCap {
				window = quotaSample(window, policy.WindowCap)
			}
		}
		merged = append(merged, capPerSecond(window, policy.PerSecondCap)...)
	}

	kept := merged[:0]
	for _, c := range merged {
		if isLowQuality(c.Text) {
			continue
		}
		kept = append(kept, c)
	}

	kept = dedupGlobal(kept)
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Time < kept[j].Time })
	return kept
}

// partition splits a time-sorted list into fixed-width windows, preserving
// order. Empty windows are not represented.
func partition(sorted []Comment, windowSeconds int) [][]Comment {
	var windows [][]Comment
	var current []Comment
	currentKey := math.MinInt64
	for _, c := range sorted {
		key := int(c.Time) / windowSeconds
		if key != currentKey {
			if len(current) > 0 {
				windows = append(windows, current)
			}
			current = nil
			currentKey = key
		}
		current = append(current, c)
	}
	if len(current) > 0 {
		windows = append(windows, current)
	}
	return windows
}

// dedupWindow removes near-identical comments inside one window, keyed on a
// tenth-of-a-second timestamp and the comment text.
func dedupWindow(window []Comment) []Comment {
	seen := make(map[string]struct{}, len(window))
	kept := make([]Comment, 0, len(window))
	for _, c := range window {
		key := tenthKey(c.Time) + "|" + c.Text
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, c)
	}
	return kept
}

// quotaSample reduces a window to at most cap comments, spreading the quota
// across one-second slots proportionally to each slot's share of the window
// and stride-sampling inside each slot. Temporal distribution is preserved;
// the tail is never simply truncated.
func quotaSample(window []Comment, limit int) []Comment {
	slots := bucketBySecond(window)
	total := len(window)
	kept := make([]Comment, 0, limit)
	for _, slot := range slots {
		quota := int(math.Ceil(float64(limit) * float64(len(slot)) / float64(total)))
		if quota < 1 {
			quota = 1
		}
		kept = append(kept, stride(slot, quota)...)
	}
	if len(kept) > limit {
		kept = stride(kept, limit)
	}
	return kept
}

// capPerSecond enforces the per-second density cap via uniform stride
// sampling inside each one-second bucket.
func capPerSecond(window []Comment, limit int) []Comment {
	slots := bucketBySecond(window)
	kept := make([]Comment, 0, len(window))
	for _, slot := range slots {
		kept = append(kept, stride(slot, limit)...)
	}
	return kept
}

// bucketBySecond groups a time-sorted slice into consecutive one-second
// buckets, preserving order.
func bucketBySecond(sorted []Comment) [][]Comment {
	var slots [][]Comment
	var current []Comment
	currentKey := math.MinInt64
	for _, c := range sorted {
		key := int(c.Time)
		if key != currentKey {
			if len(current) > 0 {
				slots = append(slots, current)
			}
			current = nil
			currentKey = key
		}
		current = append(current, c)
	}
	if len(current) > 0 {
		slots = append(slots, current)
	}
	return slots
}

// stride uniformly samples at most n elements from a slice, preserving order.
func stride(slice []Comment, n int) []Comment {
	if len(slice) <= n {
		return slice
	}
	step := float64(len(slice)) / float64(n)
	kept := make([]Comment, 0, n)
	for k := 0; k < n; k++ {
		kept = append(kept, slice[int(float64(k)*step)])
	}
	return kept
}

// isLowQuality flags text not worth rendering: too short, digits and
// punctuation only, heavy character repetition, or a known spam token.
func isLowQuality(text string) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < 2 {
		return true
	}
	if _, spam := spamTokens[trimmed]; spam {
		return true
	}

	allFiller := true
	repeats := 1
	var prev rune
	first := true
	for _, r := range trimmed {
		if !unicode.IsDigit(r) && !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			allFiller = false
		}
		if !first && r == prev {
			repeats++
			if repeats >= 5 {
				return true
			}
		} else {
			repeats = 1
		}
		prev = r
		first = false
	}
	return allFiller
}

// dedupGlobal removes cross-window duplicates, keyed on a tenth-of-a-second
// timestamp and a short text prefix.
func dedupGlobal(comments []Comment) []Comment {
	seen := make(map[string]struct{}, len(comments))
	kept := comments[:0]
	for _, c := range comments {
		key := tenthKey(c.Time) + "|" + truncateRunes(c.Text, dedupPrefixRunes)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, c)
	}
	return kept
}

func tenthKey(t float64) string {
	return strconv.FormatInt(int64(math.Round(t*10)), 10)
}
