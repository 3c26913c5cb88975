package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	BookmarksDir string `toml:"bookmarks_dir"`
	SessionsDir  string `toml:"sessions_dir"`
	LogDir       string `toml:"log_dir"`
	// ClipsDir is resolved against the recording's directory when relative.
	// Empty means "<recording dir>/clips".
	ClipsDir string `toml:"clips_dir"`
}

// Capture describes the OCR crop region, expressed in a reference
// resolution (TargetWidth x TargetHeight) that is rescaled per video.
type Capture struct {
	Left         int     `toml:"left"`
	Top          int     `toml:"top"`
	Width        int     `toml:"width"`
	Height       int     `toml:"height"`
	TargetWidth  int     `toml:"target_width"`
	TargetHeight int     `toml:"target_height"`
	Scale        float64 `toml:"scale"`
	Threshold    int     `toml:"threshold"`
}

// OCR contains text recognition settings.
type OCR struct {
	Engine          string  `toml:"engine"`
	PSM             int     `toml:"psm"`
	Lang            string  `toml:"lang"`
	IntervalSeconds float64 `toml:"interval_seconds"`
}

// Detection contains keyword matching settings.
type Detection struct {
	Keywords        []string `toml:"keywords"`
	CooldownSeconds float64  `toml:"cooldown_seconds"`
}

// Bookmarks contains bookmark log settings.
type Bookmarks struct {
	Enabled         bool   `toml:"enabled"`
	SessionPrefix   string `toml:"session_prefix"`
	Format          string `toml:"format"`
	IncludeEvent    bool   `toml:"include_event"`
	IncludeOCRLines bool   `toml:"include_ocr_lines"`
}

// Scan contains file scan settings.
type Scan struct {
	SampleFPS        float64 `toml:"sample_fps"`
	AutoSplit        bool    `toml:"auto_split"`
	PausePollSeconds float64 `toml:"pause_poll_seconds"`
	LogEverySamples  int     `toml:"log_every_samples"`
}

// Split contains clip export settings.
type Split struct {
	Enabled         bool     `toml:"enabled"`
	PreSeconds      float64  `toml:"pre_seconds"`
	PostSeconds     float64  `toml:"post_seconds"`
	MergeGapSeconds float64  `toml:"merge_gap_seconds"`
	Extensions      []string `toml:"extensions"`
	RecordingsDir   string   `toml:"recordings_dir"`
	InputSource     string   `toml:"input_source"`
	EncodeCounts    bool     `toml:"encode_counts"`
	CountFormat     string   `toml:"count_format"`
}

// Sync contains multi-vod synchronization settings.
type Sync struct {
	Store                 string  `toml:"store"`
	DefaultGame           string  `toml:"default_game"`
	MatchToleranceSeconds float64 `toml:"match_tolerance_seconds"`
	MinTimerConfidence    float64 `toml:"min_timer_confidence"`
}

// Replay contains settings for renaming replay-buffer files in live mode.
type Replay struct {
	Enabled      bool    `toml:"enabled"`
	Directory    string  `toml:"directory"`
	Prefix       string  `toml:"prefix"`
	IncludeEvent bool    `toml:"include_event"`
	TimeFormat   string  `toml:"time_format"`
	WaitSeconds  float64 `toml:"wait_seconds"`
}

// Tools names the external binaries invoked by clipmark.
type Tools struct {
	FFmpeg    string `toml:"ffmpeg"`
	FFprobe   string `toml:"ffprobe"`
	Tesseract string `toml:"tesseract"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	LogOCR bool   `toml:"log_ocr"`
	// RetentionDays prunes per-scan log files older than this many days. Zero disables pruning.
	RetentionDays int `toml:"retention_days"`
}

// Config encapsulates all configuration values for clipmark.
//
// Configuration sections by subsystem:
//   - Paths: data, bookmark, session, log and clip directories
//   - Capture: OCR crop region and preprocessing
//   - OCR: recognition engine settings
//   - Detection: keywords and debounce cooldown
//   - Bookmarks: bookmark log format and content
//   - Scan: file scan sampling and pause polling
//   - Split: clip windows and export naming
//   - Sync: multi-vod session storage and timer matching
//   - Replay: live-mode replay file renaming
//   - Tools: external binaries
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Capture   Capture   `toml:"capture"`
	OCR       OCR       `toml:"ocr"`
	Detection Detection `toml:"detection"`
	Bookmarks Bookmarks `toml:"bookmarks"`
	Scan      Scan      `toml:"scan"`
	Split     Split     `toml:"split"`
	Sync      Sync      `toml:"sync"`
	Replay    Replay    `toml:"replay"`
	Tools     Tools     `toml:"tools"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipmark.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories clipmark writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.BookmarksDir, c.Paths.SessionsDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for trimming and decoding.
func (c *Config) FFmpegBinary() string {
	if v := strings.TrimSpace(c.Tools.FFmpeg); v != "" {
		return v
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	if v := strings.TrimSpace(c.Tools.FFprobe); v != "" {
		return v
	}
	return "ffprobe"
}

// TesseractBinary returns the tesseract executable used for OCR.
func (c *Config) TesseractBinary() string {
	if v := strings.TrimSpace(c.Tools.Tesseract); v != "" {
		return v
	}
	return "tesseract"
}

// SessionDatabasePath returns the SQLite file used when sync.store is "sqlite".
func (c *Config) SessionDatabasePath() string {
	return filepath.Join(c.Paths.SessionsDir, "sessions.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
