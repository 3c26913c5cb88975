package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clipmark/internal/config"
	"clipmark/internal/multivod"
	"clipmark/internal/services"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Manage multi-vod sync sessions",
	}

	sessionCmd.AddCommand(newSessionCreateCommand(ctx))
	sessionCmd.AddCommand(newSessionListCommand(ctx))
	sessionCmd.AddCommand(newSessionShowCommand(ctx))
	sessionCmd.AddCommand(newSessionDeleteCommand(ctx))
	sessionCmd.AddCommand(newSessionSeekCommand(ctx))
	sessionCmd.AddCommand(newSessionSeekVodCommand(ctx))
	sessionCmd.AddCommand(newSessionOffsetCommand(ctx))
	sessionCmd.AddCommand(newSessionHistoryCommand(ctx))
	sessionCmd.AddCommand(newSessionModeCommand(ctx))
	sessionCmd.AddCommand(newSessionPlaybackCommand(ctx))

	return sessionCmd
}

func newSessionCreateCommand(ctx *commandContext) *cobra.Command {
	var req multivod.PathsRequest

	cmd := &cobra.Command{
		Use:   "create <vod> <vod> [<vod>]",
		Short: "Create a session from two or three recordings",
		Args:  cobra.RangeArgs(multivod.MinVods, multivod.MaxVods),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(cfg *config.Config, _ *slog.Logger, mgr *multivod.Manager) error {
				req.Paths = args
				sess, err := mgr.CreateFromPaths(cmd.Context(), multivod.NewFFprobe(cfg.FFprobeBinary()), req)
				if err != nil {
					return err
				}
				return ctx.printSession(cmd, sess)
			})
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Session name")
	cmd.Flags().StringVar(&req.Description, "description", "", "Session description")
	cmd.Flags().StringVar(&req.CreatedBy, "created-by", "", "Owner recorded on the session")
	cmd.Flags().StringSliceVar(&req.Names, "vod-names", nil, "Display names for the vods, in argument order")
	return cmd
}

func newSessionListCommand(ctx *commandContext) *cobra.Command {
	var opts multivod.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(_ *config.Config, _ *slog.Logger, mgr *multivod.Manager) error {
				summaries, err := mgr.List(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if summaries == nil {
						summaries = []multivod.Summary{}
					}
					return writeJSON(cmd, summaries)
				}
				if len(summaries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions")
					return nil
				}
				rows := make([][]string, 0, len(summaries))
				for _, s := range summaries {
					rows = append(rows, []string{
						s.SessionID,
						s.Name,
						strconv.Itoa(s.VodCount),
						s.CreatedBy,
						humanUnix(s.CreatedAt),
						humanUnix(s.UpdatedAt),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Vods", "Owner", "Created", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.CreatedBy, "created-by", "", "Only sessions with this owner")
	cmd.Flags().IntVar(&opts.Limit, "limit", multivod.DefaultListLimit, "Maximum sessions to show")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Sessions to skip")
	return cmd
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session>",
		Short: "Show a session and its vods",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(_ *config.Config, _ *slog.Logger, mgr *multivod.Manager) error {
				sess, err := mgr.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return ctx.printSession(cmd, sess)
			})
		},
	}
}

func newSessionDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(_ *config.Config, _ *slog.Logger, mgr *multivod.Manager) error {
				if err := mgr.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
				return nil
			})
		},
	}
}

func newSessionSeekCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seek <session> <time>",
		Short: "Move the shared clock; every vod follows its offset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseSeconds(args[1])
			if err != nil {
				return err
			}
			return ctx.withManager(func(_ *config.Config, _ *slog.Logger, mgr *multivod.Manager) error {
				sess, err := mgr.GlobalSeek(cmd.Context(), args[0], t)
				if err != nil {
					return err
				}
				return ctx.printSession(cmd, sess)
			})
		},
	}
}

func newSessionSeekVodCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seek-vod <session> <vod> <time>",
		Short: "Seek one vod; in global mode the others follow",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseSeconds(args[2])
			if err != nil {
				return err
			}
			return ctx.withManager(func(_ *config.Config, _ *slog.Logger, mgr *multivod.Manager) error {
				sess, err := mgr.SeekVod(cmd.Context(), args[0], args[1], t)
				if err != nil {
					return err
				}
				return ctx.printSession(cmd, sess)
			})
		},
	}
}

func newSessionOffsetCommand(ctx *commandContext) *cobra.Command {
	var (
		source     string
		confidence float64
		changedBy  string
	)

	cmd := &cobra.Command{
		Use:   "offset <session> <vod>=<seconds>...",
		Short: "Set vod offsets relative to the reference vod",
		Long: "Set one or more offsets in a single all-or-nothing update. An offset of N\n" +
			"means the vod starts N seconds after the reference vod.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offsets, err := parseOffsetArgs(args[1:])
			if err != nil {
				return err
			}
			change := multivod.OffsetChange{
				Source:    multivod.OffsetSource(strings.TrimSpace(source)),
				ChangedBy: changedBy,
			}
			if cmd.Flags().Changed("confidence") {
				change.Confidence = &confidence
			}
			return ctx.withManager(func(_ *config.Config, _ *slog.Logger, mgr *multivod.Manager) error {
				sess, err := mgr.UpdateOffsets(cmd.Context(), args[0], offsets, change)
				if err != nil {
					return err
				}
				return ctx.printSession(cmd, sess)
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", string(multivod.SourceManual), "Offset source (manual, timer_ocr)")
	cmd.Flags().Float64Var(&confidence, "confidence", 0, "Confidence in [0,1]; required for timer_ocr")
	cmd.Flags().StringVar(&changedBy, "changed-by", "cli", "Who made the change")
	return cmd
}

func parseOffsetArgs(args []string) (map[string]float64, error) {
	offsets := make(map[string]float64, len(args))
	for _, arg := range args {
		vodID, value, ok := strings.Cut(arg, "=")
		vodID = strings.TrimSpace(vodID)
		if !ok || vodID == "" {
			return nil, services.Wrap(services.ErrValidation, "cli", "offset", fmt.Sprintf("expected <vod>=<seconds>, got %q", arg), nil)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "cli", "offset", fmt.Sprintf("invalid offset for %s: %q", vodID, value), nil)
		}
		offsets[vodID] = v
	}
	return offsets, nil
}

func newSessionHistoryCommand(ctx *commandContext) *cobra.Command {
	var vodID string

	cmd := &cobra.Command{
		Use:   "history <session>",
		Short: "Show offset changes, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(_ *config.Config, _ *slog.Logger, mgr *multivod.Manager) error {
				records, err := mgr.OffsetHistory(cmd.Context(), args[0], vodID)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if records == nil {
						records = []multivod.HistoryRecord{}
					}
					return writeJSON(cmd, records)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No offset changes recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, r := range records {
					conf := "-"
					if r.Confidence != nil {
						conf = fmt.Sprintf("%.2f", *r.Confidence)
					}
					rows = append(rows, []string{
						humanUnix(r.Timestamp),
						r.VodID,
						formatOffset(r.OldOffset),
						formatOffset(r.NewOffset),
						string(r.Source),
						conf,
						r.ChangedBy,
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"When", "Vod", "Old", "New", "Source", "Confidence", "By"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&vodID, "vod", "", "Only changes to this vod")
	return cmd
}

func newSessionModeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "mode <session> global|independent",
		Short:     "Switch between global and independent seeking",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(multivod.SyncGlobal), string(multivod.SyncIndependent)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(_ *config.Config, _ *slog.Logger, mgr *multivod.Manager) error {
				sess, err := mgr.SetSyncMode(cmd.Context(), args[0], multivod.SyncMode(strings.ToLower(args[1])))
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, sess)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %s sync mode: %s\n", sess.SessionID, sess.SyncMode)
				return nil
			})
		},
	}
}

func newSessionPlaybackCommand(ctx *commandContext) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "playback <session> playing|paused|seeking",
		Short: "Record the shared transport state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withManager(func(_ *config.Config, _ *slog.Logger, mgr *multivod.Manager) error {
				var t float64
				if strings.TrimSpace(at) != "" {
					v, err := parseSeconds(at)
					if err != nil {
						return err
					}
					t = v
				} else {
					sess, err := mgr.Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					t = sess.GlobalTime
				}
				sess, err := mgr.SetPlayback(cmd.Context(), args[0], t, multivod.PlaybackState(strings.ToLower(args[1])))
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, sess)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %s %s at %s\n", sess.SessionID, sess.GlobalPlaybackState, formatClock(sess.GlobalTime))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Shared clock position (default: current)")
	return cmd
}

func (c *commandContext) printSession(cmd *cobra.Command, sess *multivod.Session) error {
	if c.JSONMode() {
		return writeJSON(cmd, sess)
	}
	writeSession(cmd.OutOrStdout(), sess)
	return nil
}

func writeSession(w io.Writer, sess *multivod.Session) {
	sum := sess.Summarize()
	fmt.Fprintf(w, "Session %s (%s)\n", sess.SessionID, sum.Name)
	fmt.Fprintf(w, "Mode: %s  Clock: %s  State: %s  Updated: %s\n",
		sess.SyncMode, formatClock(sess.GlobalTime), sess.GlobalPlaybackState, humanUnix(sess.UpdatedAt))
	rows := make([][]string, 0, len(sess.Vods))
	for _, v := range sess.Vods {
		conf := "-"
		if v.OffsetSource == multivod.SourceTimerOCR {
			conf = fmt.Sprintf("%.2f", v.OffsetConfidence)
		}
		rows = append(rows, []string{
			v.VodID,
			v.Name,
			formatClock(v.Duration),
			formatOffset(v.Offset),
			string(v.OffsetSource),
			conf,
			formatClock(v.CurrentTime),
			humanMegabytes(v.FilesizeMB),
		})
	}
	fmt.Fprint(w, renderTable(
		[]string{"Vod", "Name", "Duration", "Offset", "Source", "Confidence", "Position", "Size"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignRight, alignRight},
	))
}
