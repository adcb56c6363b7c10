package config

const (
	defaultCacheDir       = "~/.local/share/danmu/cache"
	defaultLogDir         = "~/.local/share/danmu/logs"
	defaultAPIBind        = "127.0.0.1:7316"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultTimeoutSeconds = 10
	defaultRetryAttempts  = 3
	defaultRetryBaseMS    = 500
	defaultRateLimit      = 4.0
	defaultRateBurst      = 2

	defaultDetailTTLHours = 24
	defaultDetailCap      = 100
	defaultPreferenceCap  = 50
	defaultSlotTTLMinutes = 30

	defaultShortTitleRunes     = 4
	defaultShortTitleThreshold = 120
	defaultThreshold           = 80
	defaultAmbiguityWindow     = 20

	defaultWindowSeconds = 360
	defaultWindowCap     = 1500
	defaultPerSecondCap  = 15
	defaultMaxTextRunes  = 100
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Danmaku: Danmaku{
			TimeoutSeconds: defaultTimeoutSeconds,
			RetryAttempts:  defaultRetryAttempts,
			RetryBaseMS:    defaultRetryBaseMS,
			RateLimit:      defaultRateLimit,
			RateBurst:      defaultRateBurst,
		},
		Cache: Cache{
			DetailTTLHours: defaultDetailTTLHours,
			DetailCap:      defaultDetailCap,
			PreferenceCap:  defaultPreferenceCap,
			SlotTTLMinutes: defaultSlotTTLMinutes,
		},
		Matching: Matching{
			ShortTitleRunes:     defaultShortTitleRunes,
			ShortTitleThreshold: defaultShortTitleThreshold,
			Threshold:           defaultThreshold,
			AmbiguityWindow:     defaultAmbiguityWindow,
		},
		Sampling: Sampling{
			WindowSeconds: defaultWindowSeconds,
			WindowCap:     defaultWindowCap,
			PerSecondCap:  defaultPerSecondCap,
			MaxTextRunes:  defaultMaxTextRunes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
