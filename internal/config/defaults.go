package config

const (
	defaultConfigPath       = "~/.config/clipmark/config.toml"
	defaultDataDir          = "~/.local/share/clipmark"
	defaultBookmarksDir     = "bookmarks"
	defaultSessionsDir      = "multi_vod_sessions"
	defaultLogDir           = "logs"
	defaultClipsDir         = "clips"
	defaultOCREngine        = "tesseract"
	defaultOCRLang          = "eng"
	defaultOCRPSM           = 6
	defaultOCRInterval      = 0.5
	defaultCooldownSeconds  = 8
	defaultSessionPrefix    = "session"
	defaultBookmarkFormat   = "csv"
	defaultSampleFPS        = 2
	defaultPausePollSeconds = 1
	defaultLogEverySamples  = 200
	defaultPreSeconds       = 10
	defaultPostSeconds      = 5
	defaultMergeGapSeconds  = 2
	defaultInputSource      = "newest"
	defaultCountFormat      = "k{kills}_a{assists}_d{deaths}"
	defaultSyncStore        = "file"
	defaultGame             = "apex"
	defaultMatchTolerance   = 2
	defaultMinTimerConf     = 0.5
	defaultReplayPrefix     = "replay"
	defaultReplayTimeFormat = "20060102_150405"
	defaultReplayWait       = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			BookmarksDir: defaultBookmarksDir,
			SessionsDir:  defaultSessionsDir,
			LogDir:       defaultLogDir,
			ClipsDir:     defaultClipsDir,
		},
		Capture: Capture{
			Left:         40,
			Top:          40,
			Width:        600,
			Height:       200,
			TargetWidth:  1920,
			TargetHeight: 1080,
			Scale:        1.5,
			Threshold:    170,
		},
		OCR: OCR{
			Engine:          defaultOCREngine,
			PSM:             defaultOCRPSM,
			Lang:            defaultOCRLang,
			IntervalSeconds: defaultOCRInterval,
		},
		Detection: Detection{
			Keywords:        []string{"knocked", "killed", "eliminated", "assist"},
			CooldownSeconds: defaultCooldownSeconds,
		},
		Bookmarks: Bookmarks{
			Enabled:         true,
			SessionPrefix:   defaultSessionPrefix,
			Format:          defaultBookmarkFormat,
			IncludeEvent:    true,
			IncludeOCRLines: true,
		},
		Scan: Scan{
			SampleFPS:        defaultSampleFPS,
			AutoSplit:        false,
			PausePollSeconds: defaultPausePollSeconds,
			LogEverySamples:  defaultLogEverySamples,
		},
		Split: Split{
			Enabled:         true,
			PreSeconds:      defaultPreSeconds,
			PostSeconds:     defaultPostSeconds,
			MergeGapSeconds: defaultMergeGapSeconds,
			Extensions:      []string{".mp4", ".mkv", ".mov"},
			InputSource:     defaultInputSource,
			CountFormat:     defaultCountFormat,
		},
		Sync: Sync{
			Store:                 defaultSyncStore,
			DefaultGame:           defaultGame,
			MatchToleranceSeconds: defaultMatchTolerance,
			MinTimerConfidence:    defaultMinTimerConf,
		},
		Replay: Replay{
			Prefix:       defaultReplayPrefix,
			IncludeEvent: true,
			TimeFormat:   defaultReplayTimeFormat,
			WaitSeconds:  defaultReplayWait,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
