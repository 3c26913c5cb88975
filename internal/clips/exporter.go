package clips

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"clipmark/internal/logging"
	"clipmark/internal/services"
)

// Clip is one planned export.
type Clip struct {
	Index  int     `json:"index"`
	Window Window  `json:"window"`
	Output string  `json:"output"`
	Counts *Counts `json:"counts,omitempty"`
}

// Plan lists the clips to cut from Input.
type Plan struct {
	Input     string `json:"input"`
	OutputDir string `json:"output_dir"`
	Events    int    `json:"events"`
	Clips     []Clip `json:"clips"`
}

// Report describes what an export produced. Failed is set when a clip aborted
// the run.
type Report struct {
	OutputDir string `json:"output_dir"`
	Written   []Clip `json:"written"`
	Failed    *Clip  `json:"failed,omitempty"`
	Skipped   int    `json:"skipped"`
}

// Exporter cuts clips with ffmpeg stream copy.
type Exporter struct {
	ffmpeg string
	logger *slog.Logger
	run    services.CommandRunner
}

// NewExporter constructs an exporter for the given ffmpeg binary.
func NewExporter(ffmpegBinary string, logger *slog.Logger) *Exporter {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &Exporter{
		ffmpeg: ffmpegBinary,
		logger: logging.NewComponentLogger(logger, "clips"),
		run:    services.RunCommand,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (e *Exporter) WithCommandRunner(r services.CommandRunner) {
	if e != nil && r != nil {
		e.run = r
	}
}

// TrimArgs returns the ffmpeg arguments for one clip.
func TrimArgs(input, output string, w Window) []string {
	return []string{
		"-y",
		"-ss", strconv.FormatFloat(w.Start, 'f', 3, 64),
		"-i", input,
		"-t", strconv.FormatFloat(w.Duration(), 'f', 3, 64),
		"-c", "copy",
		output,
	}
}

// Export cuts every clip in order. The first failure stops the run; the
// returned report lists the clips written before it.
func (e *Exporter) Export(ctx context.Context, plan Plan) (Report, error) {
	report := Report{OutputDir: plan.OutputDir}
	if len(plan.Clips) == 0 {
		return report, nil
	}
	if err := os.MkdirAll(plan.OutputDir, 0o755); err != nil {
		return report, services.Wrap(services.ErrConfiguration, "clips", "prepare output", plan.OutputDir, err)
	}

	for i, clip := range plan.Clips {
		if err := ctx.Err(); err != nil {
			report.Skipped = len(plan.Clips) - i
			return report, err
		}
		e.logger.Info("exporting clip",
			logging.String("output", clip.Output),
			logging.Seconds("start", clip.Window.Start),
			logging.Seconds("end", clip.Window.End),
			logging.Int("index", clip.Index),
			logging.Int("total", len(plan.Clips)),
		)
		if err := e.run(ctx, e.ffmpeg, TrimArgs(plan.Input, clip.Output, clip.Window)...); err != nil {
			failed := clip
			report.Failed = &failed
			report.Skipped = len(plan.Clips) - i - 1
			logging.ErrorWithContext(e.logger, "clip export failed; remaining clips skipped", "clip_export_failed",
				logging.String("output", clip.Output),
				logging.Int("skipped", report.Skipped),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the ffmpeg output above and the recording's container"),
			)
			return report, services.Wrap(services.ErrExternalTool, "clips", "trim", fmt.Sprintf("clip %d of %d", clip.Index, len(plan.Clips)), err)
		}
		report.Written = append(report.Written, clip)
	}

	e.logger.Info("split completed",
		logging.Int("clips", len(report.Written)),
		logging.String("output_dir", plan.OutputDir),
		logging.String(logging.FieldEventType, "split_completed"),
	)
	return report, nil
}
