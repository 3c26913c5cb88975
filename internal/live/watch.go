package live

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"clipmark/internal/bookmarks"
	"clipmark/internal/config"
	"clipmark/internal/detector"
	"clipmark/internal/logging"
	"clipmark/internal/media/decoder"
	"clipmark/internal/ocr"
	"clipmark/internal/sampler"
	"clipmark/internal/services"
)

// DefaultFrameRate is the capture rate requested from devices when the
// request does not set one.
const DefaultFrameRate = 10

// Request describes a live capture.
type Request struct {
	// Input is an ffmpeg input: a display (":0.0"), a device or a stream URL.
	Input string
	// InputFormat selects a capture demuxer such as "x11grab".
	InputFormat string
	FrameRate   float64
}

// Summary reports a finished watch.
type Summary struct {
	SessionID   string
	SessionFile string
	Frames      int64
	Samples     int
	Bookmarks   int
	Renamed     []string
	Started     time.Time
	Stopped     time.Time
}

// SourceOpener opens the capture for a request.
type SourceOpener func(ctx context.Context, req Request) (sampler.Source, error)

// Option customizes a Watcher.
type Option func(*Watcher)

// WithEngine replaces the OCR engine.
func WithEngine(e ocr.Engine) Option { return func(w *Watcher) { w.engine = e } }

// WithSourceOpener replaces the capture opener.
func WithSourceOpener(open SourceOpener) Option { return func(w *Watcher) { w.open = open } }

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option { return func(w *Watcher) { w.now = now } }

// WithReplayRenamer replaces the replay renamer.
func WithReplayRenamer(r *ReplayRenamer) Option { return func(w *Watcher) { w.renamer = r } }

// Watcher runs live bookmarking.
type Watcher struct {
	cfg     *config.Config
	logger  *slog.Logger
	engine  ocr.Engine
	open    SourceOpener
	now     func() time.Time
	renamer *ReplayRenamer
}

// NewWatcher builds a watcher from configuration.
func NewWatcher(cfg *config.Config, logger *slog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "live"),
		now:     time.Now,
		renamer: NewReplayRenamer(cfg.Replay, logger),
	}
	w.engine = ocr.NewTesseract(cfg.TesseractBinary(), cfg.OCR.PSM, cfg.OCR.Lang)
	w.open = w.openCapture
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run captures until ctx is cancelled or the input ends. Every frame is read
// so the capture never backs up; OCR runs at most once per
// ocr.interval_seconds of wall-clock time.
func (w *Watcher) Run(ctx context.Context, req Request) (Summary, error) {
	started := w.now()
	sessionID := started.Format(bookmarks.SessionTimeLayout)
	ctx = services.WithSessionID(ctx, sessionID)
	summary := Summary{
		SessionID: sessionID,
		SessionFile: filepath.Join(w.cfg.Paths.BookmarksDir,
			bookmarks.SessionFileName(w.cfg.Bookmarks.SessionPrefix, "live", started, w.cfg.Bookmarks.Format)),
		Started: started,
	}
	logger := logging.WithContext(ctx, w.logger)

	if err := bookmarks.Ensure(summary.SessionFile, w.cfg.Bookmarks.Format); err != nil {
		return summary, err
	}
	src, err := w.open(ctx, req)
	if err != nil {
		return summary, err
	}
	defer src.Close()

	writer := bookmarks.NewWriter(bookmarks.Settings{
		Enabled:         w.cfg.Bookmarks.Enabled,
		Path:            summary.SessionFile,
		Format:          w.cfg.Bookmarks.Format,
		IncludeEvent:    w.cfg.Bookmarks.IncludeEvent,
		IncludeOCRLines: w.cfg.Bookmarks.IncludeOCRLines,
	})
	det := detector.New(w.cfg.Detection.Keywords, seconds(w.cfg.Detection.CooldownSeconds))
	interval := seconds(w.cfg.OCR.IntervalSeconds)

	logger.Info("live capture started",
		logging.String("input", req.Input),
		logging.String("session_file", summary.SessionFile),
		logging.Duration("ocr_interval", interval),
		logging.String(logging.FieldEventType, "live_started"),
	)

	var (
		renames   sync.WaitGroup
		renamedMu sync.Mutex
		lastOCR   time.Time
		runErr    error
	)
	for ctx.Err() == nil {
		ok, err := src.Grab()
		if err != nil {
			runErr = services.Wrap(services.ErrSource, "live", "grab", req.Input, err)
			break
		}
		if !ok {
			break
		}
		summary.Frames++
		now := w.now()
		if !lastOCR.IsZero() && now.Sub(lastOCR) < interval {
			continue
		}

		img, err := src.Retrieve()
		if err != nil {
			runErr = services.Wrap(services.ErrSource, "live", "retrieve", req.Input, err)
			break
		}
		if img == nil {
			// No frame yet; try the next grab instead of waiting a full interval.
			continue
		}
		lastOCR = now
		lines, err := w.engine.Recognize(ctx, ocr.Preprocess(img, w.cfg.Capture.Scale, w.cfg.Capture.Threshold))
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			runErr = err
			break
		}
		summary.Samples++
		texts := ocr.Texts(lines)
		if w.cfg.Logging.LogOCR && len(texts) > 0 {
			logger.Info("ocr", logging.String("text", strings.Join(texts, bookmarks.OCRSeparator)))
		}
		elapsed := now.Sub(started)
		match, hit := det.Detect(texts, elapsed)
		if !hit {
			continue
		}
		if err := writer.Append(bookmarks.Event{Timestamp: now, Seconds: elapsed.Seconds(), Event: match.Line, OCR: texts}); err != nil {
			runErr = err
			break
		}
		summary.Bookmarks++
		logger.Info("bookmark",
			logging.Seconds("at", elapsed.Seconds()),
			logging.String("event", match.Line),
			logging.String("keyword", match.Keyword),
			logging.String(logging.FieldEventType, "bookmark_written"),
		)
		if w.renamer.Enabled() {
			renames.Add(1)
			go func(at time.Time, text string) {
				defer renames.Done()
				path, err := w.renamer.RenameLatest(context.WithoutCancel(ctx), at, text)
				if err != nil {
					logging.WarnWithContext(logger, "replay rename failed", "replay_rename_failed", logging.Error(err))
					return
				}
				if path != "" {
					renamedMu.Lock()
					summary.Renamed = append(summary.Renamed, path)
					renamedMu.Unlock()
				}
			}(now, match.Line)
		}
	}
	renames.Wait()
	summary.Stopped = w.now()

	if runErr != nil {
		logging.ErrorWithContext(logger, "live capture failed", "live_failed",
			logging.Error(runErr),
			logging.Int("bookmarks", summary.Bookmarks),
		)
		return summary, runErr
	}
	logger.Info("live capture stopped",
		logging.Int("bookmarks", summary.Bookmarks),
		logging.Int("samples", summary.Samples),
		logging.String(logging.FieldEventType, "live_stopped"),
	)
	return summary, nil
}

func (w *Watcher) openCapture(ctx context.Context, req Request) (sampler.Source, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, services.Wrap(services.ErrValidation, "live", "open", "capture input is required", nil)
	}
	rate := req.FrameRate
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	c := w.cfg.Capture
	region := ocr.Region{Left: c.Left, Top: c.Top, Width: c.Width, Height: c.Height}
	if region.Empty() {
		return nil, services.Wrap(services.ErrConfiguration, "live", "open", fmt.Sprintf("capture region %dx%d is empty", c.Width, c.Height), nil)
	}
	return decoder.Open(ctx, req.Input, decoder.Options{
		FFmpeg:      w.cfg.FFmpegBinary(),
		InputFormat: req.InputFormat,
		FrameRate:   rate,
		Info:        sampler.SourceInfo{Live: true},
		Crop:        region.Rect(),
	})
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
