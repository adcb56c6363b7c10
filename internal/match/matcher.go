package match

import (
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"danmu/internal/dandan"
	"danmu/internal/logging"
	"danmu/internal/title"
)

const (
	defaultShortTitleRunes     = 4
	defaultShortTitleThreshold = 120
	defaultThreshold           = 80
	defaultAmbiguityWindow     = 20
)

// Policy holds the matcher's tuning constants. The thresholds are empirically
// tuned; treat them as configuration, not derived values.
type Policy struct {
	// ShortTitleRunes is the cleaned-title length at or below which the
	// stricter short-title rules apply.
	ShortTitleRunes int
	// ShortTitleThreshold is the minimum accepted score for short titles.
	ShortTitleThreshold int
	// Threshold is the minimum accepted score for everything else.
	Threshold int
	// AmbiguityWindow is the top-two score gap below which episode-count
	// tie-breaking kicks in.
	AmbiguityWindow int
}

// DefaultPolicy returns the production matcher constants.
func DefaultPolicy() Policy {
	return Policy{
		ShortTitleRunes:     defaultShortTitleRunes,
		ShortTitleThreshold: defaultShortTitleThreshold,
		Threshold:           defaultThreshold,
		AmbiguityWindow:     defaultAmbiguityWindow,
	}
}

func (p Policy) normalized() Policy {
	if p.ShortTitleRunes <= 0 {
		p.ShortTitleRunes = defaultShortTitleRunes
	}
	if p.ShortTitleThreshold <= 0 {
		p.ShortTitleThreshold = defaultShortTitleThreshold
	}
	if p.Threshold <= 0 {
		p.Threshold = defaultThreshold
	}
	if p.AmbiguityWindow <= 0 {
		p.AmbiguityWindow = defaultAmbiguityWindow
	}
	return p
}

// Score records one candidate's ranked evaluation.
type Score struct {
	Candidate dandan.SourceCandidate
	Total     int
	Breakdown map[string]int
}

// Matcher scores and selects the best danmaku source for a target title.
type Matcher struct {
	policy Policy
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Matcher. A nil logger disables logging.
func New(policy Policy, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Matcher{
		policy: policy.normalized(),
		logger: logger,
		now:    time.Now,
	}
}

// nonProgramKeywords filter out gala, sports, and news records when the
// target title is too short to discriminate on similarity alone.
var nonProgramKeywords = []string{"晚会", "演唱会", "综艺", "体育", "新闻", "资讯"}

// Rank scores every candidate and returns them ordered best first. The
// short-title pre-filter is skipped when it would remove every candidate.
func (m *Matcher) Rank(candidates []dandan.SourceCandidate, target title.Normalized, knownEpisodeCount int) []Score {
	if len(candidates) == 0 {
		return nil
	}
	short := utf8.RuneCountInString(target.Clean) <= m.policy.ShortTitleRunes
	if short {
		if filtered := dropNonPrograms(candidates); len(filtered) > 0 {
			candidates = filtered
		}
	}

	targetCore := target.Core()
	currentYear := m.now().Year()
	scores := make([]Score, 0, len(candidates))
	for _, candidate := range candidates {
		normalized := title.Normalize(candidate.AnimeTitle)
		in := ruleInput{
			target:        target,
			targetCore:    targetCore,
			candidate:     normalized,
			candidateCore: normalized.Core(),
			movieShaped:   IsMovie(candidate),
			episodeCount:  candidate.EpisodeCount,
			knownEpisodes: knownEpisodeCount,
			currentYear:   currentYear,
			shortTitle:    short,
		}
		breakdown := make(map[string]int, len(scoringRules))
		total := 0
		for _, r := range scoringRules {
			delta := r.score(in)
			breakdown[r.name] = delta
			total += delta
		}
		scores = append(scores, Score{Candidate: candidate, Total: total, Breakdown: breakdown})
	}

	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Total > scores[j].Total })
	return scores
}

// Match selects the best candidate, or nil when no candidate clears the
// score threshold. A nil result means "no danmu available", not an error.
func (m *Matcher) Match(candidates []dandan.SourceCandidate, target title.Normalized, knownEpisodeCount int) (*dandan.SourceCandidate, []Score) {
	scores := m.Rank(candidates, target, knownEpisodeCount)
	if len(scores) == 0 {
		return nil, nil
	}

	threshold := m.policy.Threshold
	if utf8.RuneCountInString(target.Clean) <= m.policy.ShortTitleRunes {
		threshold = m.policy.ShortTitleThreshold
	}
	if scores[0].Total < threshold {
		m.logger.Debug("no candidate cleared the match threshold",
			logging.FieldTitle, target.Clean,
			"top_score", scores[0].Total,
			"threshold", threshold)
		return nil, scores
	}

	selected := m.disambiguate(scores, target, knownEpisodeCount)
	m.logger.Debug("selected danmaku source",
		logging.FieldTitle, target.Clean,
		logging.FieldSourceID, selected.AnimeID,
		"candidate_title", selected.AnimeTitle,
		"top_score", scores[0].Total)
	return selected, scores
}

// disambiguate applies the season preference and the ambiguous-top-two
// episode-count tie-break. scores must be non-empty and sorted best first.
func (m *Matcher) disambiguate(scores []Score, target title.Normalized, knownEpisodeCount int) *dandan.SourceCandidate {
	if target.Season == 0 {
		// An unnumbered target usually asks for the first season; among the
		// strongest candidates, prefer an explicit season 1 and then a record
		// with no season marker at all.
		top := scores[:min(len(scores), 5)]
		for _, s := range top {
			if title.Normalize(s.Candidate.AnimeTitle).Season == 1 {
				return &s.Candidate
			}
		}
		for _, s := range top {
			if title.Normalize(s.Candidate.AnimeTitle).Season == 0 {
				return &s.Candidate
			}
		}
	}

	if len(scores) >= 2 && scores[0].Total-scores[1].Total < m.policy.AmbiguityWindow {
		first, second := scores[0].Candidate, scores[1].Candidate
		if knownEpisodeCount == 1 {
			if IsMovie(second) && !IsMovie(first) {
				return &second
			}
		} else if knownEpisodeCount > 1 {
			if second.EpisodeCount > 1 && first.EpisodeCount <= 1 {
				return &second
			}
		}
	}
	return &scores[0].Candidate
}

func dropNonPrograms(candidates []dandan.SourceCandidate) []dandan.SourceCandidate {
	kept := make([]dandan.SourceCandidate, 0, len(candidates))
	for _, c := range candidates {
		if containsKeyword(c.AnimeTitle, nonProgramKeywords) || containsKeyword(c.TypeDescription, nonProgramKeywords) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func containsKeyword(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
