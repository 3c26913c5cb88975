package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateBookmarks(); err != nil {
		return err
	}
	if err := c.validateSplit(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if err := ensurePositiveMap(map[string]int{
		"capture.width":  c.Capture.Width,
		"capture.height": c.Capture.Height,
	}); err != nil {
		return err
	}
	if c.Capture.Left < 0 || c.Capture.Top < 0 {
		return errors.New("capture.left and capture.top must be >= 0")
	}
	if c.Capture.Threshold < 0 || c.Capture.Threshold > 255 {
		return errors.New("capture.threshold must be between 0 and 255")
	}
	if c.Capture.Scale < 0 {
		return errors.New("capture.scale must be >= 0")
	}
	return nil
}

func (c *Config) validateOCR() error {
	if c.OCR.Engine != "tesseract" {
		return fmt.Errorf("ocr.engine: unsupported value %q", c.OCR.Engine)
	}
	return nil
}

func (c *Config) validateDetection() error {
	if len(c.Detection.Keywords) == 0 {
		return errors.New("detection.keywords must include at least one keyword")
	}
	if c.Detection.CooldownSeconds < 0 {
		return errors.New("detection.cooldown_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateBookmarks() error {
	switch c.Bookmarks.Format {
	case "csv", "jsonl":
	default:
		return fmt.Errorf("bookmarks.format must be csv or jsonl, got %q", c.Bookmarks.Format)
	}
	return nil
}

func (c *Config) validateSplit() error {
	if c.Split.PreSeconds < 0 {
		return errors.New("split.pre_seconds must be >= 0")
	}
	if c.Split.PostSeconds < 0 {
		return errors.New("split.post_seconds must be >= 0")
	}
	if c.Split.MergeGapSeconds < 0 {
		return errors.New("split.merge_gap_seconds must be >= 0")
	}
	switch c.Split.InputSource {
	case "newest", "path":
	default:
		return fmt.Errorf("split.input_source must be newest or path, got %q", c.Split.InputSource)
	}
	if c.Split.EncodeCounts && !strings.Contains(c.Split.CountFormat, "{") {
		return errors.New("split.count_format must reference {kills}, {assists} or {deaths} when split.encode_counts is true")
	}
	return nil
}

func (c *Config) validateSync() error {
	switch c.Sync.Store {
	case "file", "sqlite":
	default:
		return fmt.Errorf("sync.store must be file or sqlite, got %q", c.Sync.Store)
	}
	switch c.Sync.DefaultGame {
	case "apex", "valorant":
	default:
		return fmt.Errorf("sync.default_game: unsupported game %q", c.Sync.DefaultGame)
	}
	if c.Sync.MinTimerConfidence < 0 || c.Sync.MinTimerConfidence > 1 {
		return errors.New("sync.min_timer_confidence must be between 0 and 1")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
