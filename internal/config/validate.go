package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDanmaku(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateSampling(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDanmaku() error {
	if strings.TrimSpace(c.Danmaku.BaseURL) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/danmu/config.toml"
		}
		return fmt.Errorf("danmaku.base_url is required. Set DANMAKU_BASE_URL env var or edit %s (create with 'danmu config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Danmaku.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("danmaku.base_url %q is not a valid URL", c.Danmaku.BaseURL)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.DetailCap < 1 {
		return errors.New("cache.detail_cap must be at least 1")
	}
	if c.Cache.PreferenceCap < 1 {
		return errors.New("cache.preference_cap must be at least 1")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.ShortTitleThreshold < c.Matching.Threshold {
		return errors.New("matching.short_title_threshold must not be below matching.threshold")
	}
	return nil
}

func (c *Config) validateSampling() error {
	if c.Sampling.PerSecondCap > c.Sampling.WindowCap {
		return errors.New("sampling.per_second_cap must not exceed sampling.window_cap")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
