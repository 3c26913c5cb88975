package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipmark/internal/live"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var req live.Request

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Bookmark events from a live capture until interrupted",
		Long: "Read frames from a screen, device or stream through ffmpeg and append a\n" +
			"bookmark for every detected event, timestamped by wall-clock time since\n" +
			"the watch started. With replay renaming enabled, the newest replay-buffer\n" +
			"file is renamed after each event.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			runCtx, cancel := signalContext(cmd)
			defer cancel()

			if !ctx.JSONMode() {
				fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl-C to stop)\n", req.Input)
			}
			summary, err := live.NewWatcher(cfg, logger).Run(runCtx, req)
			if ctx.JSONMode() {
				if jsonErr := writeJSON(cmd, summary); jsonErr != nil {
					return jsonErr
				}
				return err
			}
			out := cmd.OutOrStdout()
			if summary.SessionFile != "" {
				fmt.Fprintf(out, "Bookmarks: %s\n", summary.SessionFile)
			}
			fmt.Fprintf(out, "Watched for %s: %s frames, %d OCR samples, %d bookmarks\n",
				summary.Stopped.Sub(summary.Started).Round(time.Second),
				humanize.Comma(summary.Frames), summary.Samples, summary.Bookmarks)
			for _, renamed := range summary.Renamed {
				fmt.Fprintf(out, "Renamed replay: %s\n", filepath.Base(renamed))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&req.Input, "input", "i", "", "ffmpeg input: display (:0.0), device or stream URL")
	cmd.Flags().StringVarP(&req.InputFormat, "format", "f", "", "ffmpeg input format such as x11grab or v4l2")
	cmd.Flags().Float64Var(&req.FrameRate, "fps", live.DefaultFrameRate, "Capture frame rate")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
