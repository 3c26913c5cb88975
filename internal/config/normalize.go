package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"clipmark/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOCR()
	c.normalizeDetection()
	c.normalizeBookmarks()
	c.normalizeScan()
	if err := c.normalizeSplit(); err != nil {
		return err
	}
	c.normalizeSync()
	if err := c.normalizeReplay(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	for _, entry := range []struct {
		key   string
		value *string
		name  string
	}{
		{"paths.bookmarks_dir", &c.Paths.BookmarksDir, defaultBookmarksDir},
		{"paths.sessions_dir", &c.Paths.SessionsDir, defaultSessionsDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	} {
		value := strings.TrimSpace(*entry.value)
		if value == "" {
			value = entry.name
		}
		// Relative directories live under the data directory.
		if !strings.HasPrefix(value, "~") && !filepath.IsAbs(value) {
			value = filepath.Join(c.Paths.DataDir, value)
		}
		if *entry.value, err = expandPath(value); err != nil {
			return fmt.Errorf("%s: %w", entry.key, err)
		}
	}
	c.Paths.ClipsDir = strings.TrimSpace(c.Paths.ClipsDir)
	if strings.HasPrefix(c.Paths.ClipsDir, "~") {
		if c.Paths.ClipsDir, err = expandPath(c.Paths.ClipsDir); err != nil {
			return fmt.Errorf("paths.clips_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeOCR() {
	c.OCR.Engine = strings.ToLower(strings.TrimSpace(c.OCR.Engine))
	if c.OCR.Engine == "" {
		c.OCR.Engine = defaultOCREngine
	}
	c.OCR.Lang = language.Tesseract(c.OCR.Lang)
	if c.OCR.Lang == "" {
		c.OCR.Lang = defaultOCRLang
	}
	if c.OCR.PSM <= 0 {
		c.OCR.PSM = defaultOCRPSM
	}
	if c.OCR.IntervalSeconds <= 0 {
		c.OCR.IntervalSeconds = defaultOCRInterval
	}
}

func (c *Config) normalizeDetection() {
	keywords := make([]string, 0, len(c.Detection.Keywords))
	seen := make(map[string]struct{}, len(c.Detection.Keywords))
	for _, kw := range c.Detection.Keywords {
		normalized := strings.ToLower(strings.TrimSpace(kw))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		keywords = append(keywords, normalized)
	}
	c.Detection.Keywords = keywords
}

func (c *Config) normalizeBookmarks() {
	c.Bookmarks.Format = strings.ToLower(strings.TrimSpace(c.Bookmarks.Format))
	if c.Bookmarks.Format == "" {
		c.Bookmarks.Format = defaultBookmarkFormat
	}
	c.Bookmarks.SessionPrefix = strings.TrimSpace(c.Bookmarks.SessionPrefix)
	if c.Bookmarks.SessionPrefix == "" {
		c.Bookmarks.SessionPrefix = defaultSessionPrefix
	}
}

func (c *Config) normalizeScan() {
	if c.Scan.SampleFPS < 0.1 {
		c.Scan.SampleFPS = 0.1
	}
	if c.Scan.PausePollSeconds <= 0 {
		c.Scan.PausePollSeconds = defaultPausePollSeconds
	}
	if c.Scan.LogEverySamples <= 0 {
		c.Scan.LogEverySamples = defaultLogEverySamples
	}
}

func (c *Config) normalizeSplit() error {
	exts := make([]string, 0, len(c.Split.Extensions))
	for _, ext := range c.Split.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Split.Extensions = exts
	c.Split.InputSource = strings.ToLower(strings.TrimSpace(c.Split.InputSource))
	if c.Split.InputSource == "" {
		c.Split.InputSource = defaultInputSource
	}
	if strings.TrimSpace(c.Split.CountFormat) == "" {
		c.Split.CountFormat = defaultCountFormat
	}
	if strings.TrimSpace(c.Split.RecordingsDir) != "" {
		var err error
		if c.Split.RecordingsDir, err = expandPath(c.Split.RecordingsDir); err != nil {
			return fmt.Errorf("split.recordings_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeSync() {
	c.Sync.Store = strings.ToLower(strings.TrimSpace(c.Sync.Store))
	if c.Sync.Store == "" {
		c.Sync.Store = defaultSyncStore
	}
	c.Sync.DefaultGame = strings.ToLower(strings.TrimSpace(c.Sync.DefaultGame))
	if c.Sync.DefaultGame == "" {
		c.Sync.DefaultGame = defaultGame
	}
	if c.Sync.MatchToleranceSeconds <= 0 {
		c.Sync.MatchToleranceSeconds = defaultMatchTolerance
	}
}

func (c *Config) normalizeReplay() error {
	if strings.TrimSpace(c.Replay.TimeFormat) == "" {
		c.Replay.TimeFormat = defaultReplayTimeFormat
	}
	if strings.TrimSpace(c.Replay.Directory) != "" {
		var err error
		if c.Replay.Directory, err = expandPath(c.Replay.Directory); err != nil {
			return fmt.Errorf("replay.directory: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
