package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"clipmark/internal/bookmarks"
	"clipmark/internal/clips"
	"clipmark/internal/config"
	"clipmark/internal/detector"
	"clipmark/internal/logging"
	"clipmark/internal/media/decoder"
	"clipmark/internal/media/ffprobe"
	"clipmark/internal/ocr"
	"clipmark/internal/sampler"
	"clipmark/internal/services"
)

// Request describes one scan.
type Request struct {
	VodPath string
	Resume  bool
	// SampleFPS overrides scan.sample_fps when positive.
	SampleFPS float64
	// NoSplit suppresses scan.auto_split for this run.
	NoSplit bool
}

// Result reports how a scan ended.
type Result struct {
	Vod         string             `json:"vod"`
	ScanID      string             `json:"scan_id"`
	State       State              `json:"state"`
	SessionFile string             `json:"session_file,omitempty"`
	FrameIndex  int64              `json:"frame_index"`
	StartFrame  int64              `json:"start_frame,omitempty"`
	Progress    *int               `json:"progress"`
	Samples     int                `json:"samples"`
	Bookmarks   int                `json:"bookmarks"`
	Split       *clips.SplitResult `json:"split,omitempty"`
	Message     string             `json:"error,omitempty"`
	Err         error              `json:"-"`
}

// SourceOpener opens the frame source for a vod, already cropped to the
// capture region.
type SourceOpener func(ctx context.Context, vodPath string) (sampler.Source, error)

// Option customizes a Controller.
type Option func(*Controller)

// WithEngine overrides the OCR engine.
func WithEngine(e ocr.Engine) Option {
	return func(c *Controller) { c.engine = e }
}

// WithSourceOpener overrides how frame sources are opened.
func WithSourceOpener(open SourceOpener) Option {
	return func(c *Controller) { c.open = open }
}

// WithExporter sets the clip exporter used for auto-split.
func WithExporter(e *clips.Exporter) Option {
	return func(c *Controller) { c.exporter = e }
}

// WithClock overrides the wall clock used for pause polling and log names.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller runs scans for one configuration. It holds no per-scan state, so
// one controller can serve concurrent scans of different vods.
type Controller struct {
	cfg      *config.Config
	logger   *slog.Logger
	engine   ocr.Engine
	open     SourceOpener
	exporter *clips.Exporter
	now      func() time.Time
}

// NewController builds a controller backed by tesseract and ffmpeg unless
// options say otherwise.
func NewController(cfg *config.Config, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "scan"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = ocr.NewTesseract(cfg.TesseractBinary(), cfg.OCR.PSM, cfg.OCR.Lang)
	}
	if c.open == nil {
		c.open = c.openDecoder
	}
	return c
}

// Markers returns the marker store for vodPath.
func (c *Controller) Markers(vodPath string) *MarkerStore {
	return NewMarkerStore(c.cfg.Paths.BookmarksDir, c.cfg.Bookmarks.SessionPrefix, vodPath)
}

// Status reads the current markers for vodPath without touching the worker.
func (c *Controller) Status(vodPath string) Status {
	return ReadStatus(c.Markers(vodPath), vodPath)
}

// RequestPause asks the worker scanning vodPath to checkpoint and stop.
func (c *Controller) RequestPause(vodPath string) error {
	return c.Markers(vodPath).RequestPause()
}

// Stop abandons a scan by clearing its markers. A running worker must be
// paused first.
func (c *Controller) Stop(vodPath string) error {
	markers := c.Markers(vodPath)
	if err := os.MkdirAll(c.cfg.Paths.BookmarksDir, 0o755); err != nil {
		return fmt.Errorf("create bookmarks directory: %w", err)
	}
	lock := flock.New(markers.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire scan lock: %w", err)
	}
	if !locked {
		return services.Wrap(services.ErrConflict, "scan", "stop", "scan of "+filepath.Base(vodPath)+" is running; pause it first", nil)
	}
	defer func() { _ = lock.Unlock() }()
	return markers.Clear()
}

// Run executes one scan until the video ends, a pause is requested, ctx is
// cancelled or the source fails. Cancellation is treated as a pause so no
// progress is lost. Errors that prevent the scan from starting are returned;
// failures after start are reported through Result.State and Result.Err.
func (c *Controller) Run(ctx context.Context, req Request) (Result, error) {
	vod := strings.TrimSpace(req.VodPath)
	result := Result{Vod: vod, State: StateIdle, ScanID: uuid.NewString()}
	if info, err := os.Stat(vod); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, services.Wrap(services.ErrNotFound, "scan", "open", "vod not found: "+vod, nil)
		}
		return result, fmt.Errorf("stat vod: %w", err)
	} else if info.IsDir() {
		return result, services.Wrap(services.ErrValidation, "scan", "open", vod+" is a directory", nil)
	}

	markers := c.Markers(vod)
	if err := os.MkdirAll(c.cfg.Paths.BookmarksDir, 0o755); err != nil {
		return result, fmt.Errorf("create bookmarks directory: %w", err)
	}
	lock := flock.New(markers.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return result, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !locked {
		return result, services.Wrap(services.ErrConflict, "scan", "lock", "another worker is scanning "+filepath.Base(vod), nil)
	}
	defer func() { _ = lock.Unlock() }()

	ctx = services.WithVod(services.WithScanID(ctx, result.ScanID), filepath.Base(vod))
	logger, closeLog := c.scanLogger(ctx, markers)
	defer closeLog()

	startFrame, sessionFile := c.resolveResume(logger, markers, req.Resume)
	result.StartFrame = startFrame

	src, err := c.open(ctx, vod)
	if err != nil {
		result.State = StateFailed
		result.Err = err
		result.Message = err.Error()
		logging.ErrorWithContext(logger, "failed to open vod", "scan_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that ffprobe and ffmpeg can read the file"),
		)
		return result, nil
	}
	defer src.Close()

	if sessionFile == "" {
		sessionFile = filepath.Join(c.cfg.Paths.BookmarksDir,
			bookmarks.SessionFileName(c.cfg.Bookmarks.SessionPrefix, stemOf(vod), c.now(), c.cfg.Bookmarks.Format))
	}
	result.SessionFile = sessionFile

	c.scan(ctx, logger, src, markers, req, &result)

	if result.State == StateCompleted {
		logger.Info("vod scan complete",
			logging.String("session_file", sessionFile),
			logging.Int("bookmarks", result.Bookmarks),
			logging.Int("samples", result.Samples),
			logging.String(logging.FieldEventType, "scan_completed"),
		)
		if c.cfg.Scan.AutoSplit && !req.NoSplit {
			split, err := clips.Split(ctx, c.cfg, logger, c.exporter, clips.SplitOptions{Bookmarks: sessionFile, Input: vod})
			result.Split = &split
			if err != nil {
				logging.WarnWithContext(logger, "auto split failed", "auto_split_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "bookmarks are saved; run split manually"),
				)
			}
		}
	}
	return result, nil
}

func (c *Controller) scan(ctx context.Context, logger *slog.Logger, src sampler.Source, markers CheckpointStore, req Request, result *Result) {
	fps := c.cfg.Scan.SampleFPS
	if req.SampleFPS > 0 {
		fps = max(req.SampleFPS, sampler.MinSampleFPS)
	}
	s := sampler.New(src, fps, result.StartFrame)
	info := s.Info()

	writeProgress := func(p *int, paused bool) {
		if err := markers.WriteProgress(p, paused); err != nil {
			logging.WarnWithContext(logger, "failed to write progress marker", "progress_marker_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "status reports may lag"),
			)
		}
	}
	defer func() {
		if !markers.PauseRequested() {
			if err := markers.RemoveProgress(); err != nil {
				logger.Warn("failed to remove progress marker", logging.Error(err))
			}
		}
	}()

	var initial *int
	if info.FrameCount > 0 {
		zero := 0
		initial = &zero
	}
	writeProgress(initial, false)
	result.Progress = initial
	if err := bookmarks.Ensure(result.SessionFile, c.cfg.Bookmarks.Format); err != nil {
		c.fail(logger, result, err)
		return
	}

	writer := bookmarks.NewWriter(bookmarks.Settings{
		Enabled:         c.cfg.Bookmarks.Enabled,
		Path:            result.SessionFile,
		Format:          c.cfg.Bookmarks.Format,
		IncludeEvent:    c.cfg.Bookmarks.IncludeEvent,
		IncludeOCRLines: c.cfg.Bookmarks.IncludeOCRLines,
	})
	det := detector.New(c.cfg.Detection.Keywords, secondsToDuration(c.cfg.Detection.CooldownSeconds))
	pollEvery := secondsToDuration(c.cfg.Scan.PausePollSeconds)
	progressLog := logging.NewProgressSampler(10)
	phase := "scan"
	if result.StartFrame > 0 {
		phase = "resume"
	}

	logger.Info("scanning vod",
		logging.Float64("sample_fps", fps),
		logging.Float64("video_fps", info.FPS),
		logging.Int("stride", s.Stride()),
		logging.Int64("start_frame", result.StartFrame),
		logging.String("session_file", result.SessionFile),
	)

	lastProgress := -1
	var lastPoll time.Time
	for {
		if ctx.Err() != nil || (c.pollDue(&lastPoll, pollEvery) && markers.PauseRequested()) {
			c.pause(logger, markers, s, s.Index(), result)
			return
		}

		sample, ok, err := s.Next()
		result.FrameIndex = s.Index()
		if err != nil {
			c.fail(logger, result, err)
			return
		}
		if !ok {
			break
		}

		processed := ocr.Preprocess(sample.Image, c.cfg.Capture.Scale, c.cfg.Capture.Threshold)
		lines, err := c.engine.Recognize(ctx, processed)
		if err != nil {
			if ctx.Err() != nil {
				// The interrupted sample was never read; resume must revisit it.
				c.pause(logger, markers, s, sample.Index-1, result)
				return
			}
			c.fail(logger, result, err)
			return
		}
		texts := ocr.Texts(lines)
		if c.cfg.Logging.LogOCR && len(texts) > 0 {
			logger.Info("ocr", logging.Seconds("at", sample.Elapsed), logging.String("text", strings.Join(texts, bookmarks.OCRSeparator)))
		}
		if match, hit := det.Detect(texts, secondsToDuration(sample.Elapsed)); hit {
			ev := bookmarks.Event{Seconds: sample.Elapsed, Event: match.Line, OCR: texts}
			if err := writer.Append(ev); err != nil {
				c.fail(logger, result, err)
				return
			}
			result.Bookmarks++
			logger.Info("bookmark",
				logging.Seconds("at", sample.Elapsed),
				logging.String("event", match.Line),
				logging.String("keyword", match.Keyword),
				logging.String(logging.FieldEventType, "bookmark_written"),
			)
		}

		result.Samples++
		if p, known := s.Progress(); known && p > lastProgress {
			lastProgress = p
			result.Progress = &p
			writeProgress(&p, false)
			if progressLog.ShouldLog(float64(p), phase) {
				logger.Info("scan progress", logging.Int("percent", p))
			}
		}
		if progressLog.Sampled(c.cfg.Scan.LogEverySamples) {
			logger.Info("processed samples", logging.Int("samples", result.Samples))
		}
	}
	result.State = StateCompleted
}

func (c *Controller) pollDue(last *time.Time, every time.Duration) bool {
	now := c.now()
	if last.IsZero() || now.Sub(*last) >= every {
		*last = now
		return true
	}
	return false
}

// pause checkpoints at frame, the last fully processed frame index.
func (c *Controller) pause(logger *slog.Logger, markers CheckpointStore, s *sampler.Sampler, frame int64, result *Result) {
	progress, _ := sampler.Progress(frame, s.Info().FrameCount)
	state := PauseState{
		FrameIndex:  frame,
		SessionFile: result.SessionFile,
		Progress:    progress,
	}
	if err := markers.WritePauseMarker(state); err != nil {
		c.fail(logger, result, fmt.Errorf("write pause marker: %w", err))
		return
	}
	if err := markers.WriteProgress(&progress, true); err != nil {
		logger.Warn("failed to mark progress as paused", logging.Error(err))
	}
	result.State = StatePaused
	result.FrameIndex = state.FrameIndex
	result.Progress = &progress
	logger.Info("scan paused; resume to continue",
		logging.Frame(state.FrameIndex),
		logging.Int("progress", progress),
		logging.String(logging.FieldEventType, "scan_paused"),
	)
}

func (c *Controller) fail(logger *slog.Logger, result *Result, err error) {
	result.State = StateFailed
	result.Err = err
	result.Message = err.Error()
	logging.ErrorWithContext(logger, "scan failed", "scan_failed",
		logging.Error(err),
		logging.Frame(result.FrameIndex),
		logging.String(logging.FieldImpact, "bookmarks written so far are kept"),
	)
}

// resolveResume consumes a pause checkpoint when resuming. Without resume a
// leftover marker would pause the new scan immediately, so it is discarded.
func (c *Controller) resolveResume(logger *slog.Logger, markers CheckpointStore, resume bool) (int64, string) {
	state, err := markers.ReadPauseMarker()
	if errors.Is(err, services.ErrNotFound) {
		return 0, ""
	}
	defer func() {
		if err := markers.RemovePauseMarker(); err != nil {
			logger.Warn("failed to remove pause marker", logging.Error(err))
		}
	}()
	if !resume {
		logger.Info("discarding pause marker from an earlier scan")
		return 0, ""
	}
	if err != nil {
		logging.WarnWithContext(logger, "failed to read paused state", "resume_state_invalid",
			logging.Error(err),
			logging.String(logging.FieldImpact, "scan restarts from the beginning"),
		)
		return 0, ""
	}
	if state.SessionFile == "" {
		return 0, ""
	}
	if _, err := os.Stat(state.SessionFile); err != nil {
		logging.WarnWithContext(logger, "resume session file missing", "resume_session_missing",
			logging.String("session_file", state.SessionFile),
			logging.String(logging.FieldImpact, "scan restarts from the beginning with a new log"),
		)
		return 0, ""
	}
	logger.Info("resuming scan",
		logging.Int64("start_frame", state.FrameIndex),
		logging.String("session_file", state.SessionFile),
	)
	return max(state.FrameIndex, 0), state.SessionFile
}

// scanLogger mirrors the scan's log lines into a JSON file under the log
// directory and prunes old scan logs.
func (c *Controller) scanLogger(ctx context.Context, markers *MarkerStore) (*slog.Logger, func()) {
	logger := logging.WithContext(ctx, c.logger)
	dir := filepath.Join(c.cfg.Paths.LogDir, "scans")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("per-scan log disabled", logging.Error(err))
		return logger, func() {}
	}
	logging.CleanupOldLogs(logger, c.cfg.Logging.RetentionDays, logging.RetentionTarget{Dir: dir, Pattern: "*.log"})
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.log", markers.base, c.now().Format(bookmarks.SessionTimeLayout)))
	teed, closer, err := logging.TeeFile(logger, path, logging.ParseLevel(c.cfg.Logging.Level))
	if err != nil {
		logger.Warn("per-scan log disabled", logging.Error(err))
		return logger, func() {}
	}
	return teed, func() { _ = closer.Close() }
}

func (c *Controller) openDecoder(ctx context.Context, vodPath string) (sampler.Source, error) {
	probe, err := ffprobe.Inspect(ctx, c.cfg.FFprobeBinary(), vodPath)
	if err != nil {
		return nil, err
	}
	info, err := probe.VideoInfo()
	if err != nil {
		return nil, err
	}
	capture := c.cfg.Capture
	region := ocr.CropRegion(info.Width, info.Height,
		ocr.Region{Left: capture.Left, Top: capture.Top, Width: capture.Width, Height: capture.Height},
		capture.TargetWidth, capture.TargetHeight)
	if region.Empty() {
		return nil, services.Wrap(services.ErrConfiguration, "scan", "crop", fmt.Sprintf("capture region is outside the %s frame", info.Resolution()), nil)
	}
	return decoder.Open(ctx, vodPath, decoder.Options{
		FFmpeg: c.cfg.FFmpegBinary(),
		Info: sampler.SourceInfo{
			FPS:        info.FPS,
			FrameCount: info.FrameCount,
			Width:      info.Width,
			Height:     info.Height,
		},
		Crop: region.Rect(),
	})
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
