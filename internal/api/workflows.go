package api

import (
	"context"
	"fmt"
	"log/slog"

	"danmu/internal/config"
	"danmu/internal/history"
	"danmu/internal/rescache"
	"danmu/internal/session"
)

// ResolveRequest asks for the danmu overlay of one episode.
type ResolveRequest struct {
	Config       *config.Config
	Title        string
	EpisodeIndex int
	// EpisodeCount is the player's own episode count, 0 when unknown.
	EpisodeCount int
	// VideoKey, when set, is used to look up a resume position for SyncTo.
	VideoKey string
}

// ResolveResult pairs a resolution with the overlay re-sync hint.
type ResolveResult struct {
	session.Resolution
	// SyncTo is the last recorded playback position in seconds, 0 when the
	// video has no history entry.
	SyncTo float64 `json:"syncTo,omitempty"`
}

// Resolve runs the full pipeline for one episode.
func Resolve(ctx context.Context, req ResolveRequest, logger *slog.Logger) (*ResolveResult, error) {
	runtime, err := OpenRuntime(req.Config, logger)
	if err != nil {
		return nil, err
	}
	defer runtime.Close()
	return resolveWith(ctx, runtime, req)
}

// ResolveWith runs the pipeline on an already-open runtime. The server uses
// this to keep session state and caches warm across requests.
func ResolveWith(ctx context.Context, runtime *Runtime, req ResolveRequest) (*ResolveResult, error) {
	return resolveWith(ctx, runtime, req)
}

func resolveWith(ctx context.Context, runtime *Runtime, req ResolveRequest) (*ResolveResult, error) {
	result := &ResolveResult{
		Resolution: runtime.Session.Resolve(ctx, req.Title, req.EpisodeIndex, req.EpisodeCount),
	}
	if req.VideoKey != "" {
		entry, err := runtime.History.Get(ctx, req.VideoKey)
		if err == nil && entry != nil && entry.EpisodeIndex == req.EpisodeIndex {
			result.SyncTo = entry.PositionSeconds
		}
	}
	return result, nil
}

// ListSourcesRequest asks for the ranked danmaku sources of a title.
type ListSourcesRequest struct {
	Config       *config.Config
	Title        string
	EpisodeCount int
}

// ListSources ranks the available danmaku sources for a title.
func ListSources(ctx context.Context, req ListSourcesRequest, logger *slog.Logger) ([]session.SourceOption, error) {
	runtime, err := OpenRuntime(req.Config, logger)
	if err != nil {
		return nil, err
	}
	defer runtime.Close()
	return runtime.Session.ListSources(ctx, req.Title, req.EpisodeCount)
}

// SwitchSourceRequest switches the active danmaku source for a title.
type SwitchSourceRequest struct {
	Config       *config.Config
	Title        string
	SourceID     int64
	EpisodeIndex int
	EpisodeCount int
}

// SwitchSource activates a source and re-resolves the current episode.
func SwitchSource(ctx context.Context, req SwitchSourceRequest, logger *slog.Logger) (*session.Resolution, error) {
	if req.SourceID <= 0 {
		return nil, fmt.Errorf("invalid source id %d", req.SourceID)
	}
	runtime, err := OpenRuntime(req.Config, logger)
	if err != nil {
		return nil, err
	}
	defer runtime.Close()
	resolution := runtime.Session.SwitchSource(ctx, req.Title, req.SourceID, req.EpisodeIndex, req.EpisodeCount)
	return &resolution, nil
}

// EpisodesRequest asks for the cached remote episode list of a source.
type EpisodesRequest struct {
	Config   *config.Config
	Title    string
	SourceID int64
}

// Episodes returns the remote episode list for a source, resolving the
// series first when nothing is cached.
func Episodes(ctx context.Context, req EpisodesRequest, logger *slog.Logger) (*rescache.DetailEntry, error) {
	runtime, err := OpenRuntime(req.Config, logger)
	if err != nil {
		return nil, err
	}
	defer runtime.Close()

	if req.SourceID > 0 {
		if entry, ok := runtime.Store.GetDetailBySource(ctx, req.SourceID); ok {
			return entry, nil
		}
	}
	resolution := runtime.Session.Resolve(ctx, req.Title, 0, 0)
	if !resolution.Resolved {
		return nil, fmt.Errorf("no danmaku source resolved for %q", req.Title)
	}
	entry, ok := runtime.Store.GetDetailBySource(ctx, resolution.SourceID)
	if !ok {
		return nil, fmt.Errorf("detail entry missing for source %d", resolution.SourceID)
	}
	return entry, nil
}

// CacheStats counts the persisted cache entries.
func CacheStats(ctx context.Context, cfg *config.Config, logger *slog.Logger) (rescache.Stats, error) {
	runtime, err := OpenRuntime(cfg, logger)
	if err != nil {
		return rescache.Stats{}, err
	}
	defer runtime.Close()
	return runtime.Store.Stats(ctx)
}

// PruneCache drops expired and over-cap cache entries, returning the number
// of rows removed.
func PruneCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (int, error) {
	runtime, err := OpenRuntime(cfg, logger)
	if err != nil {
		return 0, err
	}
	defer runtime.Close()
	return runtime.Store.Prune(ctx)
}

// ClearCache wipes the detail and preference namespaces. History survives.
func ClearCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	runtime, err := OpenRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer runtime.Close()
	return runtime.Store.Clear(ctx)
}

// HistoryList returns viewing history entries newest first.
func HistoryList(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]history.Entry, error) {
	runtime, err := OpenRuntime(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer runtime.Close()
	return runtime.History.List(ctx)
}

// HistoryClear removes all viewing history.
func HistoryClear(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	runtime, err := OpenRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer runtime.Close()
	return runtime.History.Clear(ctx)
}

// RecordProgress upserts a playback position.
func RecordProgress(ctx context.Context, cfg *config.Config, entry history.Entry, logger *slog.Logger) error {
	runtime, err := OpenRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer runtime.Close()
	return runtime.History.Record(ctx, entry)
}
