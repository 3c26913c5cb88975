package clips_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"clipmark/internal/bookmarks"
	"clipmark/internal/clips"
	"clipmark/internal/logging"
	"clipmark/internal/services"
	"clipmark/internal/testsupport"
)

func TestSplitExportsMergedWindows(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRecordingsDir("vods"))
	cfg.Split.EncodeCounts = true

	older := filepath.Join(cfg.Split.RecordingsDir, "apex_20240501_190000.mp4")
	newest := filepath.Join(cfg.Split.RecordingsDir, "apex_20240501_201500.mp4")
	testsupport.Touch(t, older, time.Now().Add(-time.Hour))
	testsupport.Touch(t, newest, time.Now())
	testsupport.Touch(t, filepath.Join(cfg.Split.RecordingsDir, "notes.txt"), time.Now().Add(time.Minute))

	logPath := filepath.Join(cfg.Paths.BookmarksDir, "session_apex_20240501_201500.csv")
	testsupport.WriteBookmarks(t, logPath,
		bookmarks.Event{Seconds: 30, Event: "knocked"},
		bookmarks.Event{Seconds: 36, Event: "assist"},
		bookmarks.Event{Seconds: 200, Event: "killed"},
	)

	rec := &testsupport.CommandRecorder{}
	exporter := clips.NewExporter("ffmpeg", logging.NewNop())
	exporter.WithCommandRunner(rec.Run)

	result, err := clips.Split(context.Background(), cfg, logging.NewNop(), exporter, clips.SplitOptions{})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if result.Bookmarks != logPath {
		t.Fatalf("expected newest bookmark log, got %q", result.Bookmarks)
	}
	if result.Plan.Input != newest {
		t.Fatalf("expected newest recording, got %q", result.Plan.Input)
	}
	wantDir := filepath.Join(cfg.Split.RecordingsDir, "clips")
	if result.Plan.OutputDir != wantDir {
		t.Fatalf("output dir = %q, want %q", result.Plan.OutputDir, wantDir)
	}
	if len(result.Report.Written) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(result.Report.Written))
	}

	calls := rec.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 ffmpeg calls, got %d", len(calls))
	}
	firstOut := filepath.Join(wantDir, "clip_20240501_201520_01_t20s_k1_a1_d0.mp4")
	wantArgs := []string{"-y", "-ss", "20.000", "-i", newest, "-t", "21.000", "-c", "copy", firstOut}
	if !slices.Equal(calls[0].Args, wantArgs) {
		t.Fatalf("first call args = %v, want %v", calls[0].Args, wantArgs)
	}
}

func TestSplitStopsOnFirstFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRecordingsDir("vods"))
	input := filepath.Join(cfg.Split.RecordingsDir, "match.mkv")
	testsupport.WriteFile(t, input, 16)
	logPath := filepath.Join(t.TempDir(), "events.jsonl")
	testsupport.WriteBookmarks(t, logPath,
		bookmarks.Event{Seconds: 10, Event: "knocked"},
		bookmarks.Event{Seconds: 100, Event: "knocked"},
		bookmarks.Event{Seconds: 200, Event: "knocked"},
	)

	rec := &testsupport.CommandRecorder{FailOn: 2, Err: errors.New("exit status 1")}
	exporter := clips.NewExporter("ffmpeg", logging.NewNop())
	exporter.WithCommandRunner(rec.Run)

	result, err := clips.Split(context.Background(), cfg, logging.NewNop(), exporter, clips.SplitOptions{Bookmarks: logPath, Input: input})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if len(rec.Calls()) != 2 {
		t.Fatalf("expected export to stop after the failing clip, got %d calls", len(rec.Calls()))
	}
	if len(result.Report.Written) != 1 || result.Report.Failed == nil || result.Report.Failed.Index != 2 {
		t.Fatalf("unexpected report: %+v", result.Report)
	}
	if result.Report.Skipped != 1 {
		t.Fatalf("expected 1 skipped clip, got %d", result.Report.Skipped)
	}
}

func TestSplitDisabledAndEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Split.Enabled = false
	rec := &testsupport.CommandRecorder{}
	exporter := clips.NewExporter("ffmpeg", nil)
	exporter.WithCommandRunner(rec.Run)

	result, err := clips.Split(context.Background(), cfg, nil, exporter, clips.SplitOptions{})
	if err != nil || !result.Disabled {
		t.Fatalf("expected disabled no-op, got %+v err=%v", result, err)
	}

	cfg.Split.Enabled = true
	logPath := filepath.Join(cfg.Paths.BookmarksDir, "empty.csv")
	if err := bookmarks.Ensure(logPath, bookmarks.FormatCSV); err != nil {
		t.Fatal(err)
	}
	result, err = clips.Split(context.Background(), cfg, nil, exporter, clips.SplitOptions{Bookmarks: logPath})
	if err != nil {
		t.Fatalf("empty log should not fail: %v", err)
	}
	if len(result.Plan.Clips) != 0 || len(rec.Calls()) != 0 {
		t.Fatalf("expected no exports, got %+v", result)
	}
}

func TestSplitDryRunAndOutputDirRules(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	input := filepath.Join(testsupport.BaseDir(cfg), "rec", "stream.mp4")
	testsupport.WriteFile(t, input, 8)
	logPath := filepath.Join(cfg.Paths.BookmarksDir, "s.csv")
	testsupport.WriteBookmarks(t, logPath, bookmarks.Event{Seconds: 50, Event: "knocked"})

	cfg.Paths.ClipsDir = "highlights"
	result, err := clips.Split(context.Background(), cfg, nil, nil, clips.SplitOptions{Bookmarks: logPath, Input: input, DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if want := filepath.Join(filepath.Dir(input), "highlights"); result.Plan.OutputDir != want {
		t.Fatalf("relative clips dir = %q, want %q", result.Plan.OutputDir, want)
	}
	if len(result.Plan.Clips) != 1 || len(result.Report.Written) != 0 {
		t.Fatalf("dry run should plan without exporting: %+v", result)
	}

	abs := filepath.Join(t.TempDir(), "out")
	cfg.Paths.ClipsDir = abs
	planner := clips.NewPlanner(cfg)
	if got := planner.OutputDir(input); got != abs {
		t.Fatalf("absolute clips dir = %q, want %q", got, abs)
	}
}

func TestResolveInputErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	planner := clips.NewPlanner(cfg)
	if _, err := planner.ResolveInput(""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error without recordings dir, got %v", err)
	}
	if _, err := planner.ResolveInput(filepath.Join(t.TempDir(), "nope.mp4")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithRecordingsDir("vods"))
	cfg.Split.InputSource = "path"
	target := filepath.Join(cfg.Split.RecordingsDir, "one.mp4")
	testsupport.WriteFile(t, target, 4)
	cfg.Split.RecordingsDir = target
	got, err := clips.NewPlanner(cfg).ResolveInput("")
	if err != nil || got != target {
		t.Fatalf("path input source: got %q err=%v", got, err)
	}
}
