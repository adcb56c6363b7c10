package title

import (
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"

	"danmu/internal/textutil"
)

// Features captures content-type signals extracted from a raw title.
type Features struct {
	HasParentheses   bool
	HasBrackets      bool
	HasEnglish       bool
	HasSpecialMarker bool
	IsDrama          bool
	IsVariety        bool
	IsMovie          bool
}

// Normalized is the derived, immutable form of a raw title. Recomputed per
// raw title; never persisted.
type Normalized struct {
	Raw      string
	Clean    string
	Season   int // 0 when no season marker was found
	Year     int // primary (first) year, 0 when none
	AllYears []int
	Features Features
	Variants []string
}

var (
	parenGroupPattern   = regexp.MustCompile(`\([^)]*\)|（[^）]*）`)
	bracketGroupPattern = regexp.MustCompile(`【[^】]*】|\[[^\]]*\]|「[^」]*」`)
	fromSuffixPattern   = regexp.MustCompile(`(?i)\s+from\s+\S+\s*$|来自\S+\s*$`)
	enumPrefixPattern   = regexp.MustCompile(`^\s*\d{1,3}[.、:：]\s*`)
	yearPattern         = regexp.MustCompile(`(19|20)\d{2}`)

	// Player inputs often carry the episode being watched ("第1集"); searches
	// run against the bare program title, so the marker is dropped here.
	episodeSuffixPattern = regexp.MustCompile(`第\s*\d{1,4}\s*[集话話期]\s*$`)
)

var specialMarkers = []string{
	"剧场版", "特别篇", "总集篇", "完结篇", "外传", "番外",
}

// Latin markers need word boundaries ("nova" is not an OVA).
var asciiSpecialPattern = regexp.MustCompile(`\b(ova|oad|sp|ona)\b`)

var dramaKeywords = []string{
	"电视剧", "连续剧", "国产剧", "日剧", "韩剧", "美剧", "泰剧",
}

// varietyKeywords is shared with episode content-type detection; a program
// title hitting one of these plus period-coded episode titles marks variety.
var varietyKeywords = []string{
	"综艺", "快乐大本营", "天天向上", "跑男", "极限挑战",
	"娱乐", "脱口秀", "访谈", "真人秀", "晚会", "演唱会",
}

var movieKeywords = []string{
	"电影", "剧场版", "movie",
}

// VarietyKeywords returns the keyword table used to flag variety programs.
func VarietyKeywords() []string {
	out := make([]string, len(varietyKeywords))
	copy(out, varietyKeywords)
	return out
}

// Normalize derives the comparison form of a raw title. An empty input yields
// a zero Normalized; it never fails.
func Normalize(raw string) Normalized {
	n := Normalized{Raw: raw}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return n
	}

	folded := textutil.Fold(trimmed)

	n.Features.HasParentheses = strings.ContainsAny(folded, "(")
	n.Features.HasBrackets = strings.Contains(trimmed, "【") || strings.Contains(folded, "[")

	clean := parenGroupPattern.ReplaceAllString(folded, " ")
	clean = bracketGroupPattern.ReplaceAllString(clean, " ")
	clean = fromSuffixPattern.ReplaceAllString(clean, " ")
	clean = enumPrefixPattern.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)
	clean = episodeSuffixPattern.ReplaceAllString(clean, "")
	clean = strings.ToLower(textutil.CollapseWhitespace(clean))
	n.Clean = clean

	n.Season = extractSeason(clean)
	n.AllYears = extractYears(folded)
	if len(n.AllYears) > 0 {
		n.Year = n.AllYears[0]
	}

	n.Features.HasEnglish = textutil.HasLatinRun(clean, 3)
	n.Features.HasSpecialMarker = containsAny(clean, specialMarkers) || asciiSpecialPattern.MatchString(clean)
	n.Features.IsDrama = containsAny(clean, dramaKeywords)
	n.Features.IsVariety = containsAny(clean, varietyKeywords)
	n.Features.IsMovie = containsAny(clean, movieKeywords)

	n.Variants = buildVariants(clean)
	return n
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func buildVariants(clean string) []string {
	if clean == "" {
		return nil
	}
	candidates := []string{
		clean,
		strings.ReplaceAll(clean, " ", ""),
		textutil.StripNonWord(clean),
	}
	seen := make(map[string]struct{}, len(candidates))
	variants := make([]string, 0, len(candidates))
	for _, v := range candidates {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}
	return variants
}

func extractYears(s string) []int {
	matches := yearPattern.FindAllString(s, -1)
	if len(matches) == 0 {
		return nil
	}
	years := make([]int, 0, len(matches))
	for _, m := range matches {
		year, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		years = append(years, year)
	}
	return years
}

// Hash returns a short stable key for a cleaned title, used by the persisted
// preference and detail caches.
func Hash(clean string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(clean))
	return strconv.FormatUint(uint64(h.Sum32()), 36)
}
