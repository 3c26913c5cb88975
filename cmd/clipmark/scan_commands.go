package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"clipmark/internal/clips"
	"clipmark/internal/config"
	"clipmark/internal/logging"
	"clipmark/internal/scan"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan recordings for kill-feed events",
	}

	scanCmd.AddCommand(newScanRunCommand(ctx))
	scanCmd.AddCommand(newScanStartCommand(ctx))
	scanCmd.AddCommand(newScanPauseCommand(ctx))
	scanCmd.AddCommand(newScanResumeCommand(ctx))
	scanCmd.AddCommand(newScanStopCommand(ctx))
	scanCmd.AddCommand(newScanStatusCommand(ctx))

	return scanCmd
}

func newController(cfg *config.Config, logger *slog.Logger) *scan.Controller {
	return scan.NewController(cfg, logger, scan.WithExporter(clips.NewExporter(cfg.FFmpegBinary(), logger)))
}

func newScanRunCommand(ctx *commandContext) *cobra.Command {
	var (
		fps      float64
		resume   bool
		noSplit  bool
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "run <vod>...",
		Short: "Scan one or more recordings in the foreground",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			vods, err := absPaths(args)
			if err != nil {
				return err
			}
			reqs := make([]scan.Request, 0, len(vods))
			for _, vod := range vods {
				reqs = append(reqs, scan.Request{VodPath: vod, Resume: resume, SampleFPS: fps, NoSplit: noSplit})
			}

			runCtx, cancel := signalContext(cmd)
			defer cancel()
			outcomes := scan.NewPool(newController(cfg, logger), parallel).Run(runCtx, reqs)
			return reportScanOutcomes(cmd, ctx.JSONMode(), outcomes)
		},
	}

	cmd.Flags().Float64Var(&fps, "fps", 0, "Frames per second to sample (overrides scan.sample_fps)")
	cmd.Flags().BoolVar(&resume, "resume", false, "Continue from a paused checkpoint")
	cmd.Flags().BoolVar(&noSplit, "no-split", false, "Skip clip export even when scan.auto_split is set")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "Maximum concurrent scans (0 scans every vod at once)")
	return cmd
}

func reportScanOutcomes(cmd *cobra.Command, jsonMode bool, outcomes []scan.Outcome) error {
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil || o.Result.State == scan.StateFailed {
			failed++
		}
	}

	if jsonMode {
		type outcomeJSON struct {
			scan.Result
			StartError string `json:"start_error,omitempty"`
		}
		out := make([]outcomeJSON, 0, len(outcomes))
		for _, o := range outcomes {
			item := outcomeJSON{Result: o.Result}
			item.Vod = o.Request.VodPath
			if o.Err != nil {
				item.StartError = o.Err.Error()
			}
			out = append(out, item)
		}
		if err := writeJSON(cmd, out); err != nil {
			return err
		}
	} else {
		rows := make([][]string, 0, len(outcomes))
		for _, o := range outcomes {
			state := string(o.Result.State)
			note := o.Result.Message
			if o.Err != nil {
				state = "not started"
				note = o.Err.Error()
			}
			if note == "" && o.Result.SessionFile != "" {
				note = filepath.Base(o.Result.SessionFile)
			}
			if o.Result.Split != nil && len(o.Result.Split.Report.Written) > 0 {
				note += fmt.Sprintf(" (%d clips)", len(o.Result.Split.Report.Written))
			}
			rows = append(rows, []string{
				filepath.Base(o.Request.VodPath),
				state,
				progressText(o.Result.Progress),
				strconv.Itoa(o.Result.Samples),
				strconv.Itoa(o.Result.Bookmarks),
				note,
			})
		}
		fmt.Fprint(cmd.OutOrStdout(), renderTable(
			[]string{"Vod", "State", "Progress", "Samples", "Bookmarks", "Notes"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
		))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scans failed", failed, len(outcomes))
	}
	return nil
}

func newScanStartCommand(ctx *commandContext) *cobra.Command {
	var resume bool

	cmd := &cobra.Command{
		Use:   "start <vod>",
		Short: "Start a detached scan worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := ctx.setup(); err != nil {
				return err
			}
			vod, err := absPath(args[0])
			if err != nil {
				return err
			}
			pid, err := launchWorker(ctx.workerOptions(vod, resume))
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"vod": vod, "pid": pid, "resume": resume})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started scan worker for %s (pid %d)\n", filepath.Base(vod), pid)
			return nil
		},
	}

	cmd.Flags().BoolVar(&resume, "resume", false, "Continue from a paused checkpoint")
	return cmd
}

func newScanPauseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pause <vod>",
		Short: "Ask the running worker to checkpoint and stop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			vod, err := absPath(args[0])
			if err != nil {
				return err
			}
			if err := newController(cfg, logger).RequestPause(vod); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pause requested for %s\n", filepath.Base(vod))
			return nil
		},
	}
}

func newScanResumeCommand(ctx *commandContext) *cobra.Command {
	var detach bool

	cmd := &cobra.Command{
		Use:   "resume <vod>",
		Short: "Resume a paused scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			vod, err := absPath(args[0])
			if err != nil {
				return err
			}
			if detach {
				pid, err := launchWorker(ctx.workerOptions(vod, true))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Resumed scan worker for %s (pid %d)\n", filepath.Base(vod), pid)
				return nil
			}
			runCtx, cancel := signalContext(cmd)
			defer cancel()
			ctrl := newController(cfg, logger)
			res, err := ctrl.Run(runCtx, scan.Request{VodPath: vod, Resume: true})
			return reportScanOutcomes(cmd, ctx.JSONMode(), []scan.Outcome{{
				Request: scan.Request{VodPath: vod, Resume: true},
				Result:  res,
				Err:     err,
			}})
		},
	}

	cmd.Flags().BoolVar(&detach, "detach", false, "Resume in a detached worker process")
	return cmd
}

func newScanStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <vod>",
		Short: "Discard a paused scan's checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			vod, err := absPath(args[0])
			if err != nil {
				return err
			}
			if err := newController(cfg, logger).Stop(vod); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scan state cleared for %s\n", filepath.Base(vod))
			return nil
		},
	}
}

func newScanStatusCommand(ctx *commandContext) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "status <vod>",
		Short: "Show scan state for a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			vod, err := absPath(args[0])
			if err != nil {
				return err
			}
			ctrl := newController(cfg, logger)
			colorize := shouldColorize(cmd.OutOrStdout())
			show := func(st scan.Status) error {
				if ctx.JSONMode() {
					return writeJSON(cmd, st)
				}
				writeScanStatus(cmd.OutOrStdout(), st, colorize)
				return nil
			}
			if !follow {
				return show(ctrl.Status(vod))
			}
			runCtx, cancel := signalContext(cmd)
			defer cancel()
			return followScanStatus(runCtx, cfg.Paths.BookmarksDir, logger, func() scan.Status { return ctrl.Status(vod) }, show)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing changes while the scan runs")
	return cmd
}

func writeScanStatus(w io.Writer, st scan.Status, colorize bool) {
	fmt.Fprintln(w, renderStatusLine(filepath.Base(st.Vod), scanStateKind(st.State), string(st.State), colorize))
	fmt.Fprintln(w, renderStatusLine("Progress", statusInfo, progressText(st.Progress), false))
	fmt.Fprintln(w, renderStatusLine("Scanned", statusInfo, yesNo(st.Scanned), false))
	if st.PauseRequested {
		fmt.Fprintln(w, renderStatusLine("Pause", statusWarn, "requested", colorize))
	}
	if st.FrameIndex > 0 {
		fmt.Fprintln(w, renderStatusLine("Checkpoint frame", statusInfo, strconv.FormatInt(st.FrameIndex, 10), false))
	}
	if st.SessionFile != "" {
		fmt.Fprintln(w, renderStatusLine("Session log", statusInfo, st.SessionFile, false))
	}
	for _, log := range st.Logs {
		fmt.Fprintln(w, renderStatusLine("Bookmark log", statusInfo, filepath.Base(log), false))
	}
}

// followScanStatus prints the status, then reprints it whenever a file in the
// bookmarks directory changes the status, until the scan is no longer running.
func followScanStatus(ctx context.Context, dir string, logger *slog.Logger, read func() scan.Status, show func(scan.Status) error) error {
	last := read()
	if err := show(last); err != nil {
		return err
	}
	if last.State != scan.StateScanning {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch bookmarks directory: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			st := read()
			if sameStatus(st, last) {
				continue
			}
			last = st
			if err := show(st); err != nil {
				return err
			}
			if st.State != scan.StateScanning {
				return nil
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("status watch error", logging.Error(err))
		}
	}
}

func sameStatus(a, b scan.Status) bool {
	if a.State != b.State {
		return false
	}
	if (a.Progress == nil) != (b.Progress == nil) {
		return false
	}
	return a.Progress == nil || *a.Progress == *b.Progress
}
