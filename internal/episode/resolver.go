package episode

import (
	"regexp"
	"strconv"
	"strings"

	"danmu/internal/dandan"
	"danmu/internal/title"
)

// ContentType classifies how a program numbers its episodes.
type ContentType string

const (
	// TypeAnime covers numbered episodes (第N集, EP N, bare numbers).
	TypeAnime ContentType = "anime"
	// TypeVariety covers date-coded periods (20250101期, 第N期).
	TypeVariety ContentType = "variety"
)

// specialPattern matches extras, trailers, and OP/ED entries that carry no
// danmu worth resolving against.
var specialPattern = regexp.MustCompile(`(?i)(特典|花絮|番外|PV|预告|OP|ED|映像特典)`)

var (
	compactDatePattern = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})期`)
	fullDatePattern    = regexp.MustCompile(`(\d{4})[-年](\d{2})[-月](\d{2})[日期]`)
	periodPattern      = regexp.MustCompile(`第\s*(\d+)\s*期`)
)

// animePatterns is tried in order; earlier patterns are more specific.
var animePatterns = []*regexp.Regexp{
	regexp.MustCompile(`第\s*(\d+)\s*[集话話]`),
	regexp.MustCompile(`(?i)ep\.?\s*(\d+)`),
	regexp.MustCompile(`#第(\d+)话#`),
	regexp.MustCompile(`\[第(\d+)[集话話]\]`),
	regexp.MustCompile(`\(第(\d+)[集话話]\)`),
	regexp.MustCompile(`【第(\d+)[集话話]】`),
	regexp.MustCompile(`^\s*(\d+)\s*$`),
	regexp.MustCompile(`\b0*(\d+)\b`),
}

// FilterSpecial drops extras, trailers, and OP/ED entries from a remote
// episode list before resolution.
func FilterSpecial(episodes []dandan.Episode) []dandan.Episode {
	kept := make([]dandan.Episode, 0, len(episodes))
	for _, ep := range episodes {
		if specialPattern.MatchString(ep.EpisodeTitle) {
			continue
		}
		kept = append(kept, ep)
	}
	return kept
}

// DetectContentType reports whether the program numbers episodes like a
// variety show. Date-coded episode titles decide directly; a 期 marker only
// counts when the program title also carries a variety keyword.
func DetectContentType(programTitle string, episodes []dandan.Episode) ContentType {
	hasVarietyKeyword := false
	for _, kw := range title.VarietyKeywords() {
		if strings.Contains(programTitle, kw) {
			hasVarietyKeyword = true
			break
		}
	}

	hasDateFormat := false
	hasPeriodChar := false
	for _, ep := range episodes {
		if compactDatePattern.MatchString(ep.EpisodeTitle) || fullDatePattern.MatchString(ep.EpisodeTitle) {
			hasDateFormat = true
			break
		}
		if strings.Contains(ep.EpisodeTitle, "期") {
			hasPeriodChar = true
		}
	}

	if hasDateFormat || (hasPeriodChar && hasVarietyKeyword) {
		return TypeVariety
	}
	return TypeAnime
}

// Info is the numbering parsed out of one episode title. Number is 0 when
// nothing plausible was found; Date is set only for date-coded periods.
type Info struct {
	Number int
	Date   string
}

// ExtractInfo parses an episode or period number from an episode title.
// Variety titles try date formats before bare period numbers; anime titles
// walk the numbered-episode patterns and accept the first value in [1,9999].
func ExtractInfo(episodeTitle string, contentType ContentType) Info {
	if episodeTitle == "" {
		return Info{}
	}

	if contentType == TypeVariety {
		if m := compactDatePattern.FindStringSubmatch(episodeTitle); m != nil {
			return dateInfo(m[1], m[2], m[3])
		}
		if m := fullDatePattern.FindStringSubmatch(episodeTitle); m != nil {
			return dateInfo(m[1], m[2], m[3])
		}
		if m := periodPattern.FindStringSubmatch(episodeTitle); m != nil {
			n, _ := strconv.Atoi(m[1])
			return Info{Number: n}
		}
		return Info{}
	}

	for _, pattern := range animePatterns {
		m := pattern.FindStringSubmatch(episodeTitle)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > 0 && n <= 9999 {
			return Info{Number: n}
		}
	}
	return Info{}
}

func dateInfo(year, month, day string) Info {
	n, _ := strconv.Atoi(year + month + day)
	return Info{Number: n, Date: year + "-" + month + "-" + day}
}

// Resolve maps a requested 0-based index onto the episode list. Variety
// programs trust positional order first; anime prefers an exact parsed
// number, then position, then a near-number match. The first episode is the
// last resort, so ok is false only for an empty list.
func Resolve(episodes []dandan.Episode, targetIndex int, contentType ContentType) (dandan.Episode, bool) {
	if len(episodes) == 0 {
		return dandan.Episode{}, false
	}

	targetNumber := targetIndex + 1

	if contentType == TypeVariety {
		if targetIndex >= 0 && targetIndex < len(episodes) {
			return episodes[targetIndex], true
		}
		if ep, ok := findNearNumber(episodes, targetNumber, contentType); ok {
			return ep, true
		}
		return episodes[0], true
	}

	for _, ep := range episodes {
		if ExtractInfo(ep.EpisodeTitle, contentType).Number == targetNumber {
			return ep, true
		}
	}
	if targetIndex >= 0 && targetIndex < len(episodes) {
		return episodes[targetIndex], true
	}
	if ep, ok := findNearNumber(episodes, targetNumber, contentType); ok {
		return ep, true
	}
	return episodes[0], true
}

func findNearNumber(episodes []dandan.Episode, targetNumber int, contentType ContentType) (dandan.Episode, bool) {
	for _, ep := range episodes {
		n := ExtractInfo(ep.EpisodeTitle, contentType).Number
		if n > 0 && abs(n-targetNumber) <= 2 {
			return ep, true
		}
	}
	return dandan.Episode{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
