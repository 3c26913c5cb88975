package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"clipmark/internal/config"
	"clipmark/internal/multivod"
	"clipmark/internal/services"
	"clipmark/internal/timersync"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Read in-game timers to align recordings",
	}

	syncCmd.AddCommand(newSyncDetectCommand(ctx))
	syncCmd.AddCommand(newSyncVodsCommand(ctx))

	return syncCmd
}

func newSyncDetectCommand(ctx *commandContext) *cobra.Command {
	var game string

	cmd := &cobra.Command{
		Use:   "detect <vod> <time>",
		Short: "Read the game timer from one frame",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			vod, err := absPath(args[0])
			if err != nil {
				return err
			}
			ts, err := parseSeconds(args[1])
			if err != nil {
				return err
			}
			if game == "" {
				game = cfg.Sync.DefaultGame
			}
			det, err := timersync.NewDetector(cfg, logger).Detect(cmd.Context(), timersync.Observation{Path: vod, Timestamp: ts, Game: game})
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, det)
			}
			writeDetection(cmd.OutOrStdout(), "Timer", det, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().StringVar(&game, "game", "", "Timer layout (apex, valorant; default sync.default_game)")
	return cmd
}

func newSyncVodsCommand(ctx *commandContext) *cobra.Command {
	var (
		primaryTime   string
		secondaryTime string
		game          string
		tolerance     float64
		apply         bool
	)

	cmd := &cobra.Command{
		Use:   "vods <session> <vod>",
		Short: "Derive a vod's offset by matching its timer against the reference vod",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, err := parseSeconds(primaryTime)
			if err != nil {
				return err
			}
			st, err := parseSeconds(secondaryTime)
			if err != nil {
				return err
			}
			return ctx.withManager(func(cfg *config.Config, logger *slog.Logger, mgr *multivod.Manager) error {
				sess, err := mgr.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				secondary, idx, ok := sess.Vod(args[1])
				if !ok {
					return services.Wrap(services.ErrNotFound, "cli", "sync", fmt.Sprintf("vod %q not in session %s", args[1], sess.SessionID), nil)
				}
				if idx == 0 {
					return services.Wrap(services.ErrValidation, "cli", "sync", "the reference vod cannot be synced against itself", nil)
				}
				primary := sess.Vods[0]
				if game == "" {
					game = cfg.Sync.DefaultGame
				}
				if !cmd.Flags().Changed("tolerance") {
					tolerance = cfg.Sync.MatchToleranceSeconds
				}

				res, err := timersync.NewDetector(cfg, logger).SyncVods(cmd.Context(),
					timersync.Observation{Path: primary.Path, Timestamp: pt, Game: game},
					timersync.Observation{Path: secondary.Path, Timestamp: st, Game: game},
					tolerance,
				)
				if err != nil {
					return err
				}

				applied := false
				if apply && res.Success() {
					if _, err := mgr.ApplyTimerSync(cmd.Context(), sess.SessionID, secondary.VodID, *res.VodOffset, res.AverageConfidence, res.Details()); err != nil {
						return err
					}
					applied = true
				}

				if ctx.JSONMode() {
					if err := writeJSON(cmd, map[string]any{"result": res, "applied": applied}); err != nil {
						return err
					}
				} else {
					writeSyncResult(cmd.OutOrStdout(), res, applied, shouldColorize(cmd.OutOrStdout()))
				}
				if apply && !applied {
					return services.Wrap(services.ErrValidation, "cli", "sync", "timers did not match; offset not applied", nil)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&primaryTime, "primary-time", "", "Timestamp in the reference vod showing the timer")
	cmd.Flags().StringVar(&secondaryTime, "secondary-time", "", "Timestamp in the target vod showing the timer")
	cmd.Flags().StringVar(&game, "game", "", "Timer layout (apex, valorant; default sync.default_game)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Seconds the two timers may differ (default sync.match_tolerance_seconds)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Store the derived offset on the session")
	_ = cmd.MarkFlagRequired("primary-time")
	_ = cmd.MarkFlagRequired("secondary-time")
	return cmd
}

func writeDetection(w io.Writer, label string, det timersync.Detection, colorize bool) {
	if det.Success {
		fmt.Fprintln(w, renderStatusLine(label, statusOK, fmt.Sprintf("%s (confidence %.2f)", det.Timer, det.Confidence), colorize))
		return
	}
	msg := "no timer found"
	if det.Timer != "" {
		msg = fmt.Sprintf("%s below confidence threshold (%.2f)", det.Timer, det.Confidence)
	}
	fmt.Fprintln(w, renderStatusLine(label, statusWarn, msg, colorize))
}

func writeSyncResult(w io.Writer, res timersync.SyncResult, applied bool, colorize bool) {
	writeDetection(w, "Primary timer", res.Primary, colorize)
	writeDetection(w, "Secondary timer", res.Secondary, colorize)
	if !res.Success() {
		fmt.Fprintln(w, renderStatusLine("Match", statusError, "timers do not match", colorize))
		return
	}
	fmt.Fprintln(w, renderStatusLine("Match", statusOK, fmt.Sprintf("timer offset %s", formatOffset(*res.TimerOffset)), colorize))
	fmt.Fprintln(w, renderStatusLine("Vod offset", statusInfo, fmt.Sprintf("%s (confidence %.2f)", formatOffset(*res.VodOffset), res.AverageConfidence), colorize))
	if applied {
		fmt.Fprintln(w, renderStatusLine("Applied", statusOK, "offset stored on session", colorize))
	}
}
