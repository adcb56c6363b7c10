package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"danmu/internal/config"
	"danmu/internal/dandan"
	"danmu/internal/danmaku"
	"danmu/internal/history"
	"danmu/internal/match"
	"danmu/internal/rescache"
	"danmu/internal/services"
	"danmu/internal/session"
)

// Runtime bundles the long-lived collaborators built from one configuration.
// The CLI opens one per command; the server holds one for its lifetime.
type Runtime struct {
	Config  *config.Config
	Store   *rescache.Store
	History *history.Store
	Session *session.Session
}

// OpenRuntime wires the danmaku client, matcher, caches, and session from
// configuration.
func OpenRuntime(cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	client, err := dandan.New(cfg.Danmaku.BaseURL,
		dandan.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Danmaku.TimeoutSeconds) * time.Second,
		}),
		dandan.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Danmaku.RateLimit), cfg.Danmaku.RateBurst)),
		dandan.WithRetryPolicy(services.RetryPolicy{
			MaxAttempts: cfg.Danmaku.RetryAttempts,
			BaseDelay:   time.Duration(cfg.Danmaku.RetryBaseMS) * time.Millisecond,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("build danmaku client: %w", err)
	}

	store, err := rescache.Open(cfg.Paths.CacheDir, rescache.Policy{
		DetailTTL:     time.Duration(cfg.Cache.DetailTTLHours) * time.Hour,
		DetailCap:     cfg.Cache.DetailCap,
		PreferenceCap: cfg.Cache.PreferenceCap,
		SlotTTL:       time.Duration(cfg.Cache.SlotTTLMinutes) * time.Minute,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}

	matcher := match.New(match.Policy{
		ShortTitleRunes:     cfg.Matching.ShortTitleRunes,
		ShortTitleThreshold: cfg.Matching.ShortTitleThreshold,
		Threshold:           cfg.Matching.Threshold,
		AmbiguityWindow:     cfg.Matching.AmbiguityWindow,
	}, logger)

	sample := danmaku.SamplePolicy{
		WindowSeconds: cfg.Sampling.WindowSeconds,
		WindowCap:     cfg.Sampling.WindowCap,
		PerSecondCap:  cfg.Sampling.PerSecondCap,
		MaxTextRunes:  cfg.Sampling.MaxTextRunes,
	}

	slot := rescache.NewSlot(time.Duration(cfg.Cache.SlotTTLMinutes) * time.Minute)
	sess := session.New(client, matcher, store, slot, sample, logger)

	return &Runtime{
		Config:  cfg,
		Store:   store,
		History: history.New(store.DB()),
		Session: sess,
	}, nil
}

// Close releases the runtime's persistent resources.
func (r *Runtime) Close() error {
	if r == nil || r.Store == nil {
		return nil
	}
	return r.Store.Close()
}
