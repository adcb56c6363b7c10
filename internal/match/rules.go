package match

import (
	"math"
	"strings"
	"unicode/utf8"

	"danmu/internal/dandan"
	"danmu/internal/similarity"
	"danmu/internal/title"
)

// movieMarkers flag candidates that represent theatrical releases.
var movieMarkers = []string{"电影", "剧场版"}

// IsMovie reports whether a search candidate looks like a single-feature
// release rather than a series: a movie type marker, a theatrical-cut title,
// or exactly one episode.
func IsMovie(c dandan.SourceCandidate) bool {
	for _, marker := range movieMarkers {
		if strings.Contains(c.Type, marker) || strings.Contains(c.TypeDescription, marker) {
			return true
		}
	}
	if strings.Contains(c.AnimeTitle, "剧场版") {
		return true
	}
	return c.EpisodeCount == 1
}

// ruleInput bundles everything a scoring rule may inspect for one candidate.
type ruleInput struct {
	target        title.Normalized
	targetCore    string
	candidate     title.Normalized
	candidateCore string
	movieShaped   bool
	episodeCount  int
	knownEpisodes int
	currentYear   int
	shortTitle    bool
}

type rule struct {
	name  string
	score func(ruleInput) int
}

// scoringRules is evaluated in order; deltas are summed into the total. Rule
// names become breakdown keys.
var scoringRules = []rule{
	{name: "core_title", score: scoreCoreTitle},
	{name: "full_title", score: scoreFullTitle},
	{name: "type_plausibility", score: scoreTypePlausibility},
	{name: "season", score: scoreSeason},
	{name: "year", score: scoreYear},
	{name: "episode_count", score: scoreEpisodeCount},
	{name: "special_marker", score: scoreSpecialMarker},
	{name: "length", score: scoreLength},
}

func scoreCoreTitle(in ruleInput) int {
	if in.targetCore != "" && in.targetCore == in.candidateCore {
		return 100
	}
	sim := similarity.Strings(in.targetCore, in.candidateCore)
	switch {
	case sim > 0.8:
		return 80
	case sim > 0.6:
		return 60
	default:
		return int(math.Round(sim * 50))
	}
}

func scoreFullTitle(in ruleInput) int {
	return int(math.Round(similarity.Titles(in.target, in.candidate) * 50))
}

func scoreTypePlausibility(in ruleInput) int {
	switch {
	case in.knownEpisodes == 1:
		if in.movieShaped {
			return 60
		}
		return 40
	case in.knownEpisodes > 1:
		if in.movieShaped {
			return -50
		}
		return 80
	default:
		return 0
	}
}

func scoreSeason(in ruleInput) int {
	ts, cs := in.target.Season, in.candidate.Season
	switch {
	case ts > 0 && cs > 0:
		switch diff := abs(ts - cs); {
		case diff == 0:
			return 50
		case diff == 1:
			return 15
		default:
			return -20
		}
	case ts == 0 && cs > 0:
		// An unnumbered target most plausibly means the first season.
		if in.targetCore != "" && in.targetCore == in.candidateCore {
			switch cs {
			case 1:
				return 40
			case 2:
				return 20
			default:
				return 5
			}
		}
		return 0
	case ts > 0 && cs == 0:
		return -10
	default:
		return 10
	}
}

func scoreYear(in ruleInput) int {
	ty, cy := in.target.Year, in.candidate.Year
	switch {
	case ty > 0 && cy > 0:
		switch diff := abs(ty - cy); {
		case diff == 0:
			return 30
		case diff <= 1:
			return 20
		case diff <= 2:
			return 10
		case diff <= 5:
			return 5
		default:
			return -5
		}
	case ty == 0 && cy > 0:
		// Recency bias only helps single-feature targets, where a recent
		// release is the likelier intent.
		if in.knownEpisodes == 1 {
			switch age := in.currentYear - cy; {
			case age <= 3:
				return 15
			case age <= 7:
				return 10
			default:
				return 5
			}
		}
		return 5
	default:
		return 0
	}
}

func scoreEpisodeCount(in ruleInput) int {
	if in.knownEpisodes <= 0 || in.episodeCount <= 0 {
		return 0
	}
	switch diff := abs(in.knownEpisodes - in.episodeCount); {
	case diff == 0:
		return 40
	case diff <= 3:
		return 30
	case in.episodeCount >= in.knownEpisodes:
		return 20
	default:
		return -10
	}
}

func scoreSpecialMarker(in ruleInput) int {
	delta := 0
	if in.target.Features.HasSpecialMarker && in.candidate.Features.HasSpecialMarker {
		delta += 20
	}
	if (in.target.Features.IsDrama && in.candidate.Features.IsVariety) ||
		(in.target.Features.IsVariety && in.candidate.Features.IsDrama) {
		delta -= 80
	}
	return delta
}

func scoreLength(in ruleInput) int {
	diff := abs(utf8.RuneCountInString(in.target.Clean) - utf8.RuneCountInString(in.candidate.Clean))
	if in.shortTitle {
		if diff > 5 {
			return -min(30, (diff-5)*5)
		}
		return 0
	}
	if diff > 15 {
		return -min(20, (diff-15)*2)
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
