package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipmark/internal/clips"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var opts clips.SplitOptions

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Cut clips around bookmarked events",
		Long: "Load a bookmark log (newest by default), build merged windows around each\n" +
			"event and export them with ffmpeg stream copy. Export stops at the first\n" +
			"failed clip.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			runCtx, cancel := signalContext(cmd)
			defer cancel()

			result, err := clips.Split(runCtx, cfg, logger, nil, opts)
			if ctx.JSONMode() {
				if jsonErr := writeJSON(cmd, result); jsonErr != nil {
					return jsonErr
				}
				return err
			}

			out := cmd.OutOrStdout()
			if result.Disabled {
				fmt.Fprintln(out, "Splitting is disabled (split.enabled = false); pass --force to run anyway")
				return nil
			}
			if result.Bookmarks != "" {
				fmt.Fprintf(out, "Bookmarks: %s\n", result.Bookmarks)
			}
			if len(result.Plan.Clips) == 0 {
				if err == nil {
					fmt.Fprintln(out, "No bookmarks to split")
				}
				return err
			}
			fmt.Fprintf(out, "Input: %s\nOutput: %s\n", result.Plan.Input, result.Plan.OutputDir)
			if opts.DryRun {
				fmt.Fprint(out, renderPlanTable(result.Plan.Clips))
				return err
			}
			if len(result.Report.Written) > 0 {
				fmt.Fprint(out, renderWrittenTable(result.Report.Written))
			}
			if result.Report.Failed != nil {
				fmt.Fprintf(out, "Stopped at clip %d; %d clips not attempted\n", result.Report.Failed.Index, result.Report.Skipped)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.Bookmarks, "bookmarks", "", "Bookmark log to split (default: newest in bookmarks dir)")
	cmd.Flags().StringVar(&opts.Input, "input", "", "Recording to cut (default: split.input_source)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the clip plan without exporting")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Run even when split.enabled is false")
	return cmd
}

func renderPlanTable(planned []clips.Clip) string {
	rows := make([][]string, 0, len(planned))
	var total float64
	for _, c := range planned {
		total += c.Window.Duration()
		rows = append(rows, []string{
			strconv.Itoa(c.Index),
			formatClock(c.Window.Start),
			formatClock(c.Window.End),
			fmt.Sprintf("%.1fs", c.Window.Duration()),
			filepath.Base(c.Output),
		})
	}
	return renderTableWithFooter(
		[]string{"#", "Start", "End", "Length", "Output"},
		rows,
		[]string{"", "", "Total", fmt.Sprintf("%.1fs", total), fmt.Sprintf("%d clips", len(planned))},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func renderWrittenTable(written []clips.Clip) string {
	rows := make([][]string, 0, len(written))
	var totalBytes uint64
	for _, c := range written {
		size := "-"
		if info, err := os.Stat(c.Output); err == nil {
			totalBytes += uint64(info.Size())
			size = humanize.Bytes(uint64(info.Size()))
		}
		rows = append(rows, []string{
			strconv.Itoa(c.Index),
			formatClock(c.Window.Start),
			fmt.Sprintf("%.1fs", c.Window.Duration()),
			size,
			filepath.Base(c.Output),
		})
	}
	return renderTableWithFooter(
		[]string{"#", "Start", "Length", "Size", "Output"},
		rows,
		[]string{"", "", "Total", humanize.Bytes(totalBytes), fmt.Sprintf("%d clips", len(written))},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}
