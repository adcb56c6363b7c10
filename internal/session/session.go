package session

import (
	"context"
	"log/slog"
	"sync"

	"danmu/internal/dandan"
	"danmu/internal/danmaku"
	"danmu/internal/episode"
	"danmu/internal/logging"
	"danmu/internal/match"
	"danmu/internal/rescache"
	"danmu/internal/similarity"
	"danmu/internal/title"
)

// preferenceTitleSimilarity guards against title-hash collisions: a stored
// preference is honored only when its remembered title still resembles the
// requested one.
const preferenceTitleSimilarity = 0.8

// Resolution is the outcome of one pipeline run. A failed run carries an
// empty comment list and Resolved=false, never an error.
type Resolution struct {
	Comments     []danmaku.Comment `json:"comments"`
	SourceID     int64             `json:"sourceId,omitempty"`
	EpisodeID    int64             `json:"episodeId,omitempty"`
	EpisodeTitle string            `json:"episodeTitle,omitempty"`
	ContentType  string            `json:"contentType,omitempty"`
	IsMovie      bool              `json:"isMovie,omitempty"`
	FromCache    bool              `json:"fromCache,omitempty"`
	Resolved     bool              `json:"resolved"`
}

// SourceOption is one switchable danmaku source for the current title.
type SourceOption struct {
	Candidate   dandan.SourceCandidate `json:"candidate"`
	Score       int                    `json:"score"`
	Recommended bool                   `json:"recommended"`
	Active      bool                   `json:"active"`
}

// Session holds the player's resolution state. All methods are safe for
// concurrent use; the slot commit is guarded by the episode index so a slow
// stale fetch never overwrites a newer episode's comments.
type Session struct {
	client  dandan.API
	matcher *match.Matcher
	store   *rescache.Store
	slot    *rescache.Slot
	sample  danmaku.SamplePolicy
	logger  *slog.Logger

	mu           sync.Mutex
	titleHash    string
	episodeIndex int
	activeSource int64
}

// New assembles a session around its collaborators. A nil logger disables
// logging.
func New(client dandan.API, matcher *match.Matcher, store *rescache.Store, slot *rescache.Slot, sample danmaku.SamplePolicy, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		client:       client,
		matcher:      matcher,
		store:        store,
		slot:         slot,
		sample:       sample,
		logger:       logging.NewComponentLogger(logger, "session"),
		episodeIndex: -1,
	}
}

// Resolve runs the pipeline for a raw title and 0-based episode index.
// knownEpisodeCount is the player's own episode count (0 when unknown) and
// feeds the matcher's plausibility rules.
func (s *Session) Resolve(ctx context.Context, rawTitle string, episodeIndex, knownEpisodeCount int) Resolution {
	normalized := title.Normalize(rawTitle)
	if normalized.Clean == "" {
		return Resolution{}
	}
	hash := title.Hash(normalized.Clean)

	s.mu.Lock()
	if s.titleHash != hash {
		s.activeSource = 0
	}
	s.titleHash = hash
	s.episodeIndex = episodeIndex
	forced := s.activeSource
	s.mu.Unlock()

	if comments, ok := s.slot.Get(hash, episodeIndex); ok {
		s.logger.Debug("episode slot hit",
			logging.FieldTitle, normalized.Clean,
			logging.FieldEpisodeIndex, episodeIndex)
		return Resolution{Comments: comments, FromCache: true, Resolved: true}
	}

	return s.resolveSlow(ctx, normalized, hash, episodeIndex, knownEpisodeCount, forced)
}

func (s *Session) resolveSlow(ctx context.Context, normalized title.Normalized, hash string, episodeIndex, knownEpisodeCount int, forcedSource int64) Resolution {
	logger := logging.WithContext(ctx, s.logger)
	sourceID := forcedSource
	if sourceID == 0 {
		sourceID = s.preferredSource(ctx, normalized, hash)
	}

	detail, fromCache := s.loadDetail(ctx, normalized, hash, sourceID, knownEpisodeCount)
	if detail == nil {
		return Resolution{}
	}
	s.mu.Lock()
	s.activeSource = detail.SourceID
	s.mu.Unlock()

	resolution := Resolution{
		SourceID:    detail.SourceID,
		ContentType: detail.ContentType,
		IsMovie:     detail.IsMovie,
		FromCache:   fromCache,
	}

	var target dandan.Episode
	if detail.IsMovie {
		if len(detail.Episodes) == 0 {
			logger.Warn("movie source has no episodes", logging.FieldSourceID, detail.SourceID)
			return Resolution{}
		}
		target = detail.Episodes[0]
	} else {
		ep, ok := episode.Resolve(detail.Episodes, episodeIndex, episode.ContentType(detail.ContentType))
		if !ok {
			logger.Warn("empty episode list", logging.FieldSourceID, detail.SourceID)
			return Resolution{}
		}
		target = ep
	}
	resolution.EpisodeID = target.EpisodeID
	resolution.EpisodeTitle = target.EpisodeTitle

	raws, err := s.client.GetComments(ctx, target.EpisodeID)
	if err != nil {
		logger.Warn("comment fetch failed",
			logging.FieldEpisodeID, target.EpisodeID, "error", err)
		return Resolution{}
	}
	comments := danmaku.Downsample(danmaku.ParseAll(raws, s.sample.MaxTextRunes), s.sample)
	resolution.Comments = comments
	resolution.Resolved = true

	s.commit(hash, episodeIndex, comments)
	logger.Info("episode resolved",
		logging.FieldTitle, normalized.Clean,
		logging.FieldEpisodeIndex, episodeIndex,
		logging.FieldSourceID, detail.SourceID,
		logging.FieldEpisodeID, target.EpisodeID,
		"comments", len(comments))
	return resolution
}

// commit writes the slot only when the session still wants this episode.
// A run that lost the race against a newer episode switch is discarded.
func (s *Session) commit(hash string, episodeIndex int, comments []danmaku.Comment) {
	s.mu.Lock()
	stale := s.titleHash != hash || s.episodeIndex != episodeIndex
	s.mu.Unlock()
	if stale {
		s.logger.Debug("discarding stale resolution",
			logging.FieldEpisodeIndex, episodeIndex)
		return
	}
	s.slot.Put(hash, episodeIndex, comments)
}

// preferredSource recovers a remembered source id for the title, rejecting
// entries whose stored title no longer matches.
func (s *Session) preferredSource(ctx context.Context, normalized title.Normalized, hash string) int64 {
	pref, ok := s.store.GetPreference(ctx, hash)
	if !ok {
		return 0
	}
	if pref.Title != normalized.Clean &&
		similarity.Strings(pref.Title, normalized.Clean) <= preferenceTitleSimilarity {
		s.logger.Debug("ignoring preference with mismatched title",
			logging.FieldTitle, normalized.Clean, "stored_title", pref.Title)
		return 0
	}
	return pref.SourceID
}

// loadDetail returns the series detail for the target, from cache when
// fresh, otherwise via search, match, and the detail endpoint.
func (s *Session) loadDetail(ctx context.Context, normalized title.Normalized, hash string, sourceID int64, knownEpisodeCount int) (*rescache.DetailEntry, bool) {
	if sourceID != 0 {
		if entry, ok := s.store.GetDetailBySource(ctx, sourceID); ok {
			return entry, true
		}
	} else if entry, ok := s.store.GetDetailByTitle(ctx, hash); ok {
		return entry, true
	}

	candidate, err := s.pickSource(ctx, normalized, sourceID, knownEpisodeCount)
	if err != nil || candidate == nil {
		return nil, false
	}

	entry, err := s.fetchDetail(ctx, normalized, *candidate)
	if err != nil {
		return nil, false
	}

	s.store.SaveDetail(ctx, hash, *entry)
	s.store.SavePreference(ctx, hash, rescache.Preference{
		SourceID: entry.SourceID,
		Title:    normalized.Clean,
	})
	return entry, false
}

// pickSource searches the danmaku server and selects a candidate. When
// sourceID is non-zero the search result is only used to locate that
// candidate's metadata.
func (s *Session) pickSource(ctx context.Context, normalized title.Normalized, sourceID int64, knownEpisodeCount int) (*dandan.SourceCandidate, error) {
	candidates, err := s.client.SearchAnime(ctx, normalized.Clean)
	if err != nil {
		s.logger.Warn("danmaku search failed", logging.FieldTitle, normalized.Clean, "error", err)
		return nil, err
	}
	if len(candidates) == 0 {
		s.logger.Info("no danmaku sources found", logging.FieldTitle, normalized.Clean)
		return nil, nil
	}

	if sourceID != 0 {
		for _, c := range candidates {
			if c.AnimeID == sourceID {
				return &c, nil
			}
		}
		// The remembered source vanished from search results; fall through
		// to matching.
	}

	selected, _ := s.matcher.Match(candidates, normalized, knownEpisodeCount)
	if selected == nil {
		s.logger.Info("no candidate matched", logging.FieldTitle, normalized.Clean)
	}
	return selected, nil
}

// fetchDetail pulls and classifies the episode list for a candidate.
func (s *Session) fetchDetail(ctx context.Context, normalized title.Normalized, candidate dandan.SourceCandidate) (*rescache.DetailEntry, error) {
	detail, err := s.client.GetBangumiDetail(ctx, candidate.AnimeID)
	if err != nil {
		s.logger.Warn("detail fetch failed", logging.FieldSourceID, candidate.AnimeID, "error", err)
		return nil, err
	}

	episodes := episode.FilterSpecial(detail.Episodes)
	contentType := episode.DetectContentType(normalized.Clean, episodes)
	return &rescache.DetailEntry{
		SourceID:    candidate.AnimeID,
		Title:       normalized.Clean,
		Episodes:    episodes,
		IsMovie:     match.IsMovie(candidate),
		ContentType: string(contentType),
	}, nil
}

// ListSources ranks every available danmaku source for a title. The top
// five are flagged as recommended.
func (s *Session) ListSources(ctx context.Context, rawTitle string, knownEpisodeCount int) ([]SourceOption, error) {
	normalized := title.Normalize(rawTitle)
	candidates, err := s.client.SearchAnime(ctx, normalized.Clean)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	active := s.activeSource
	s.mu.Unlock()

	scores := s.matcher.Rank(candidates, normalized, knownEpisodeCount)
	options := make([]SourceOption, 0, len(scores))
	for i, score := range scores {
		options = append(options, SourceOption{
			Candidate:   score.Candidate,
			Score:       score.Total,
			Recommended: i < 5,
			Active:      score.Candidate.AnimeID == active,
		})
	}
	return options, nil
}

// SwitchSource makes sourceID the active source for the title, invalidates
// the detail entry (the new series may differ), overwrites the preference,
// and re-resolves the episode. The preference entry survives the detail
// invalidation: the title-to-source association is source-independent.
func (s *Session) SwitchSource(ctx context.Context, rawTitle string, sourceID int64, episodeIndex, knownEpisodeCount int) Resolution {
	normalized := title.Normalize(rawTitle)
	if normalized.Clean == "" || sourceID <= 0 {
		return Resolution{}
	}
	hash := title.Hash(normalized.Clean)

	s.mu.Lock()
	previous := s.activeSource
	s.activeSource = sourceID
	s.titleHash = hash
	s.episodeIndex = episodeIndex
	s.mu.Unlock()

	if previous != 0 {
		s.store.InvalidateDetail(ctx, previous, hash)
	}
	s.store.InvalidateDetail(ctx, sourceID, hash)
	s.slot.Invalidate()
	s.store.SavePreference(ctx, hash, rescache.Preference{
		SourceID: sourceID,
		Title:    normalized.Clean,
	})

	s.logger.Info("switched danmaku source",
		logging.FieldTitle, normalized.Clean,
		logging.FieldSourceID, sourceID)
	return s.Resolve(ctx, rawTitle, episodeIndex, knownEpisodeCount)
}

// LoadEpisode bypasses index matching and loads danmu for an explicit
// remote episode position within the active source.
func (s *Session) LoadEpisode(ctx context.Context, rawTitle string, remoteIndex int) Resolution {
	normalized := title.Normalize(rawTitle)
	if normalized.Clean == "" {
		return Resolution{}
	}
	hash := title.Hash(normalized.Clean)

	s.mu.Lock()
	sourceID := s.activeSource
	s.mu.Unlock()
	if sourceID == 0 {
		s.logger.Warn("manual episode load without an active source", logging.FieldTitle, normalized.Clean)
		return Resolution{}
	}

	entry, ok := s.store.GetDetailBySource(ctx, sourceID)
	if !ok {
		s.logger.Warn("manual episode load without cached detail", logging.FieldSourceID, sourceID)
		return Resolution{}
	}
	if remoteIndex < 0 || remoteIndex >= len(entry.Episodes) {
		s.logger.Warn("manual episode index out of range",
			logging.FieldSourceID, sourceID,
			logging.FieldEpisodeIndex, remoteIndex,
			"episodes", len(entry.Episodes))
		return Resolution{}
	}
	target := entry.Episodes[remoteIndex]

	raws, err := s.client.GetComments(ctx, target.EpisodeID)
	if err != nil {
		s.logger.Warn("comment fetch failed", logging.FieldEpisodeID, target.EpisodeID, "error", err)
		return Resolution{}
	}
	comments := danmaku.Downsample(danmaku.ParseAll(raws, s.sample.MaxTextRunes), s.sample)

	s.mu.Lock()
	s.episodeIndex = remoteIndex
	s.mu.Unlock()
	s.slot.Put(hash, remoteIndex, comments)

	return Resolution{
		Comments:     comments,
		SourceID:     sourceID,
		EpisodeID:    target.EpisodeID,
		EpisodeTitle: target.EpisodeTitle,
		ContentType:  entry.ContentType,
		IsMovie:      entry.IsMovie,
		Resolved:     true,
	}
}

// ActiveSource returns the current source id, 0 when none is selected.
func (s *Session) ActiveSource() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSource
}
