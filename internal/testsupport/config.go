package testsupport

import (
	"path/filepath"
	"testing"

	"danmu/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Danmaku.BaseURL = "http://127.0.0.1:1"
	cfg.Danmaku.RetryAttempts = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithBaseURL points the comment API client at the given server, typically
// an httptest instance.
func WithBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Danmaku.BaseURL = url
	}
}

// WithCacheDir overrides the cache directory on the test config.
func WithCacheDir(dir string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.CacheDir = dir
	}
}
