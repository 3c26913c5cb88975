package timersync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"clipmark/internal/config"
	"clipmark/internal/logging"
	"clipmark/internal/media/decoder"
	"clipmark/internal/ocr"
	"clipmark/internal/services"
)

// timerPSM treats the crop as a single text line.
const timerPSM = 7

// Observation identifies the frame to read a timer from.
type Observation struct {
	Path      string  `json:"path"`
	Timestamp float64 `json:"timestamp"`
	Game      string  `json:"game"`
}

// Detection is the outcome of reading one frame. Success requires a parsed
// timer with a confidence above the configured minimum.
type Detection struct {
	Observation
	Reading    *Reading   `json:"reading,omitempty"`
	Timer      string     `json:"timer,omitempty"`
	Confidence float64    `json:"confidence"`
	Region     ocr.Region `json:"region"`
	Success    bool       `json:"success"`
}

// Detector reads timers from video frames.
type Detector struct {
	ffmpeg        string
	game          string
	minConfidence float64
	engine        ocr.Engine
	run           services.OutputRunner
	logger        *slog.Logger
}

// NewDetector builds a detector from configuration.
func NewDetector(cfg *config.Config, logger *slog.Logger) *Detector {
	return &Detector{
		ffmpeg:        cfg.FFmpegBinary(),
		game:          cfg.Sync.DefaultGame,
		minConfidence: cfg.Sync.MinTimerConfidence,
		engine:        ocr.NewTesseract(cfg.TesseractBinary(), timerPSM, cfg.OCR.Lang).WithConfidence(),
		run:           services.CommandOutput,
		logger:        logging.NewComponentLogger(logger, "timersync"),
	}
}

// WithEngine replaces the OCR engine.
func (d *Detector) WithEngine(engine ocr.Engine) *Detector {
	if engine != nil {
		d.engine = engine
	}
	return d
}

// WithRunner replaces the runner used for frame extraction.
func (d *Detector) WithRunner(run services.OutputRunner) *Detector {
	if run != nil {
		d.run = run
	}
	return d
}

// Detect extracts the frame at obs.Timestamp and reads its timer. A frame
// without a parsable timer is not an error; the Detection reports failure.
func (d *Detector) Detect(ctx context.Context, obs Observation) (Detection, error) {
	if strings.TrimSpace(obs.Game) == "" {
		obs.Game = d.game
	}
	obs.Game = normalizeGame(obs.Game)
	det := Detection{Observation: obs}
	if _, err := os.Stat(obs.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return det, services.Wrap(services.ErrNotFound, "timersync", "detect", "file not found: "+obs.Path, nil)
		}
		return det, services.Wrap(services.ErrSource, "timersync", "detect", obs.Path, err)
	}

	frame, err := decoder.FrameAtWith(ctx, d.run, d.ffmpeg, obs.Path, obs.Timestamp)
	if err != nil {
		return det, err
	}
	bounds := frame.Bounds()
	region, err := Region(obs.Game, bounds.Dx(), bounds.Dy())
	if err != nil {
		return det, err
	}
	det.Region = region

	lines, err := d.engine.Recognize(ctx, ocr.PreprocessTimer(ocr.Crop(frame, region)))
	if err != nil {
		return det, err
	}
	d.read(&det, lines)

	d.logger.Debug("timer read",
		logging.String("path", obs.Path),
		logging.Float64("timestamp", obs.Timestamp),
		logging.String("timer", det.Timer),
		logging.Float64("confidence", det.Confidence),
		logging.Bool("success", det.Success),
	)
	return det, nil
}

// read picks the first parsable line; without one the confidence is the
// mean over all lines.
func (d *Detector) read(det *Detection, lines []ocr.Line) {
	for _, line := range lines {
		reading, ok := Parse(line.Text)
		if !ok {
			continue
		}
		det.Reading = &reading
		det.Timer = reading.String()
		det.Confidence = confidence(line.Confidence)
		det.Success = det.Confidence > d.minConfidence
		return
	}
	if len(lines) == 0 {
		return
	}
	var sum float64
	for _, line := range lines {
		sum += confidence(line.Confidence)
	}
	det.Confidence = sum / float64(len(lines))
}

func confidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	return min(v, 1)
}

// SyncResult pairs two detections.
type SyncResult struct {
	Primary           Detection `json:"primary"`
	Secondary         Detection `json:"secondary"`
	TimersMatch       bool      `json:"timers_match"`
	TimerOffset       *float64  `json:"timer_offset_seconds,omitempty"`
	VodOffset         *float64  `json:"vod_offset_seconds,omitempty"`
	AverageConfidence float64   `json:"average_confidence"`
}

// Success reports whether the result can be applied as an offset.
func (r SyncResult) Success() bool {
	return r.TimersMatch && r.VodOffset != nil
}

// Details is the audit payload stored on the session with the offset.
func (r SyncResult) Details() map[string]any {
	out := map[string]any{
		"primary_timer":        r.Primary.Timer,
		"secondary_timer":      r.Secondary.Timer,
		"primary_timestamp":    r.Primary.Timestamp,
		"secondary_timestamp":  r.Secondary.Timestamp,
		"primary_confidence":   r.Primary.Confidence,
		"secondary_confidence": r.Secondary.Confidence,
		"timers_match":         r.TimersMatch,
		"average_confidence":   r.AverageConfidence,
		"game":                 r.Primary.Game,
	}
	if r.TimerOffset != nil {
		out["timer_offset_seconds"] = *r.TimerOffset
	}
	if r.VodOffset != nil {
		out["vod_offset_seconds"] = *r.VodOffset
	}
	return out
}

// SyncVods reads both timers and, when they match within tolerance, derives
// the secondary vod offset relative to the primary.
//
// The countdown shows primary's value on the secondary recording
// (secondary clock - primary clock) seconds after the secondary timestamp, so
// with vod_time = global_time - offset and the primary as reference:
//
//	offset = primary_ts - secondary_ts - (secondary_clock - primary_clock)
func (d *Detector) SyncVods(ctx context.Context, primary, secondary Observation, tolerance float64) (SyncResult, error) {
	if strings.TrimSpace(secondary.Game) == "" {
		secondary.Game = primary.Game
	}
	var res SyncResult
	var err error
	if res.Primary, err = d.Detect(ctx, primary); err != nil {
		return res, fmt.Errorf("primary: %w", err)
	}
	if res.Secondary, err = d.Detect(ctx, secondary); err != nil {
		return res, fmt.Errorf("secondary: %w", err)
	}
	res.AverageConfidence = (res.Primary.Confidence + res.Secondary.Confidence) / 2
	if res.Primary.Reading == nil || res.Secondary.Reading == nil {
		return res, nil
	}
	diff, ok := Match(*res.Primary.Reading, *res.Secondary.Reading, tolerance)
	if !ok {
		return res, nil
	}
	res.TimersMatch = true
	res.TimerOffset = &diff
	offset := primary.Timestamp - secondary.Timestamp - diff
	res.VodOffset = &offset

	d.logger.Info("timers matched",
		logging.String("primary_timer", res.Primary.Timer),
		logging.String("secondary_timer", res.Secondary.Timer),
		logging.Float64("vod_offset_seconds", offset),
		logging.Float64("average_confidence", res.AverageConfidence),
		logging.String(logging.FieldEventType, "timer_sync_matched"),
	)
	return res, nil
}
