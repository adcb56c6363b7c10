package dandan

// SourceCandidate is one series returned by an anime search. The episode
// count is used by the matcher for plausibility scoring and special-episode
// filtering downstream.
type SourceCandidate struct {
	AnimeID         int64  `json:"animeId"`
	AnimeTitle      string `json:"animeTitle"`
	Type            string `json:"type"`
	TypeDescription string `json:"typeDescription"`
	EpisodeCount    int    `json:"episodeCount"`
}

// Episode is a single playable episode inside a bangumi detail response.
type Episode struct {
	EpisodeID    int64  `json:"episodeId"`
	EpisodeTitle string `json:"episodeTitle"`
}

// BangumiDetail is the subset of the bangumi detail payload the resolver
// consumes.
type BangumiDetail struct {
	AnimeID         int64     `json:"animeId"`
	AnimeTitle      string    `json:"animeTitle"`
	Type            string    `json:"type"`
	TypeDescription string    `json:"typeDescription"`
	Episodes        []Episode `json:"episodes"`
}

// RawComment is one comment as delivered by the comment endpoint. P packs
// "time,mode,color,..." as a comma separated string; M is the comment text.
type RawComment struct {
	CID int64  `json:"cid"`
	P   string `json:"p"`
	M   string `json:"m"`
}

type searchResponse struct {
	Animes []SourceCandidate `json:"animes"`
}

type bangumiResponse struct {
	Bangumi BangumiDetail `json:"bangumi"`
}

type commentResponse struct {
	Count    int          `json:"count"`
	Comments []RawComment `json:"comments"`
}
