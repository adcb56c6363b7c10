package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDanmaku()
	c.normalizeCache()
	c.normalizeMatching()
	c.normalizeSampling()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeDanmaku() {
	if c.Danmaku.BaseURL == "" {
		if value, ok := os.LookupEnv("DANMAKU_BASE_URL"); ok {
			c.Danmaku.BaseURL = value
		}
	}
	c.Danmaku.BaseURL = strings.TrimRight(strings.TrimSpace(c.Danmaku.BaseURL), "/")
	if c.Danmaku.TimeoutSeconds <= 0 {
		c.Danmaku.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Danmaku.RetryAttempts <= 0 {
		c.Danmaku.RetryAttempts = defaultRetryAttempts
	}
	if c.Danmaku.RetryBaseMS <= 0 {
		c.Danmaku.RetryBaseMS = defaultRetryBaseMS
	}
	if c.Danmaku.RateLimit <= 0 {
		c.Danmaku.RateLimit = defaultRateLimit
	}
	if c.Danmaku.RateBurst <= 0 {
		c.Danmaku.RateBurst = defaultRateBurst
	}
}

func (c *Config) normalizeCache() {
	if c.Cache.DetailTTLHours <= 0 {
		c.Cache.DetailTTLHours = defaultDetailTTLHours
	}
	if c.Cache.DetailCap <= 0 {
		c.Cache.DetailCap = defaultDetailCap
	}
	if c.Cache.PreferenceCap <= 0 {
		c.Cache.PreferenceCap = defaultPreferenceCap
	}
	if c.Cache.SlotTTLMinutes <= 0 {
		c.Cache.SlotTTLMinutes = defaultSlotTTLMinutes
	}
}

func (c *Config) normalizeMatching() {
	if c.Matching.ShortTitleRunes <= 0 {
		c.Matching.ShortTitleRunes = defaultShortTitleRunes
	}
	if c.Matching.ShortTitleThreshold <= 0 {
		c.Matching.ShortTitleThreshold = defaultShortTitleThreshold
	}
	if c.Matching.Threshold <= 0 {
		c.Matching.Threshold = defaultThreshold
	}
	if c.Matching.AmbiguityWindow <= 0 {
		c.Matching.AmbiguityWindow = defaultAmbiguityWindow
	}
}

func (c *Config) normalizeSampling() {
	if c.Sampling.WindowSeconds <= 0 {
		c.Sampling.WindowSeconds = defaultWindowSeconds
	}
	if c.Sampling.WindowCap <= 0 {
		c.Sampling.WindowCap = defaultWindowCap
	}
	if c.Sampling.PerSecondCap <= 0 {
		c.Sampling.PerSecondCap = defaultPerSecondCap
	}
	if c.Sampling.MaxTextRunes <= 0 {
		c.Sampling.MaxTextRunes = defaultMaxTextRunes
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
