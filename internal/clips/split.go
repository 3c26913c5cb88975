package clips

import (
	"context"
	"log/slog"
	"strings"

	"clipmark/internal/bookmarks"
	"clipmark/internal/config"
	"clipmark/internal/logging"
)

// SplitOptions selects the log and recording for Split. Empty fields fall back
// to the newest log in the bookmarks directory and the configured input.
type SplitOptions struct {
	Bookmarks string
	Input     string
	DryRun    bool
	// Force runs even when split.enabled is false.
	Force bool
}

// SplitResult bundles the plan with the export outcome.
type SplitResult struct {
	Bookmarks string `json:"bookmarks"`
	Plan      Plan   `json:"plan"`
	Report    Report `json:"report"`
	Disabled  bool   `json:"disabled,omitempty"`
}

// Split loads a bookmark log, builds merged windows and exports them.
func Split(ctx context.Context, cfg *config.Config, logger *slog.Logger, exporter *Exporter, opts SplitOptions) (SplitResult, error) {
	logger = logging.NewComponentLogger(logger, "split")
	var result SplitResult
	if !cfg.Split.Enabled && !opts.Force {
		logger.Info("split disabled in config", logging.String(logging.FieldEventType, "split_disabled"))
		result.Disabled = true
		return result, nil
	}

	logPath := strings.TrimSpace(opts.Bookmarks)
	if logPath == "" {
		newest, err := bookmarks.Newest(cfg.Paths.BookmarksDir)
		if err != nil {
			return result, err
		}
		logPath = newest
	}
	result.Bookmarks = logPath

	events, err := bookmarks.Load(logPath)
	if err != nil {
		return result, err
	}
	if len(events) == 0 {
		logger.Info("no bookmarks found", logging.String("bookmarks", logPath))
		return result, nil
	}

	planner := NewPlanner(cfg)
	input, err := planner.ResolveInput(opts.Input)
	if err != nil {
		return result, err
	}
	plan, err := planner.Build(events, input)
	if err != nil {
		return result, err
	}
	result.Plan = plan
	logger.Info("clip plan ready",
		logging.String("input", input),
		logging.Int("events", len(events)),
		logging.Int("clips", len(plan.Clips)),
		logging.Bool("dry_run", opts.DryRun),
	)
	if opts.DryRun {
		return result, nil
	}

	if exporter == nil {
		exporter = NewExporter(cfg.FFmpegBinary(), logger)
	}
	report, err := exporter.Export(ctx, plan)
	result.Report = report
	return result, err
}
