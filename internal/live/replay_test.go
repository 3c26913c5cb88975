package live

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipmark/internal/config"
	"clipmark/internal/logging"
)

func newRenamer(t *testing.T, dir string, wait float64) *ReplayRenamer {
	t.Helper()
	r := NewReplayRenamer(config.Replay{
		Enabled:      true,
		Directory:    dir,
		Prefix:       "replay",
		IncludeEvent: true,
		TimeFormat:   "20060102_150405",
		WaitSeconds:  wait,
	}, logging.NewNop())
	r.poll = 10 * time.Millisecond
	return r
}

func writeAt(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("replay"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestTargetName(t *testing.T) {
	r := newRenamer(t, t.TempDir(), 1)
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)
	if got := r.TargetName(at, "You knocked down Wraith!"); got != "replay_20260304_050607_You_knocked_down_Wraith" {
		t.Fatalf("TargetName = %q", got)
	}
	r.settings.IncludeEvent = false
	r.settings.Prefix = ""
	if got := r.TargetName(at, "ignored"); got != "20260304_050607" {
		t.Fatalf("TargetName without prefix/event = %q", got)
	}
}

func TestRenameLatestPicksFileWrittenAfterTrigger(t *testing.T) {
	dir := t.TempDir()
	trigger := time.Now()
	writeAt(t, filepath.Join(dir, "old.mp4"), trigger.Add(-time.Hour))
	writeAt(t, filepath.Join(dir, "Replay 2026.mkv"), trigger.Add(time.Second))

	r := newRenamer(t, dir, 1)
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)
	r.now = func() time.Time { return fixed }

	got, err := r.RenameLatest(context.Background(), trigger, "killed Bloodhound")
	if err != nil {
		t.Fatalf("RenameLatest: %v", err)
	}
	want := filepath.Join(dir, "replay_20260304_050607_killed_Bloodhound.mkv")
	if got != want {
		t.Fatalf("renamed to %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.mp4")); err != nil {
		t.Fatal("old replay must be untouched")
	}

	// Same second again: the target exists so a unix suffix is added.
	writeAt(t, filepath.Join(dir, "next.mkv"), trigger.Add(2*time.Second))
	got, err = r.RenameLatest(context.Background(), trigger, "killed Bloodhound")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, fmt.Sprintf("replay_20260304_050607_killed_Bloodhound_%d.mkv", fixed.Unix())); got != want {
		t.Fatalf("collision rename = %q, want %q", got, want)
	}
}

func TestRenameLatestRetriesLockedFile(t *testing.T) {
	dir := t.TempDir()
	trigger := time.Now()
	writeAt(t, filepath.Join(dir, "clip.mp4"), trigger)

	r := newRenamer(t, dir, 2)
	attempts := 0
	r.rename = func(oldPath, newPath string) error {
		attempts++
		if attempts < 3 {
			return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: fs.ErrPermission}
		}
		return os.Rename(oldPath, newPath)
	}
	got, err := r.RenameLatest(context.Background(), trigger, "assist")
	if err != nil || got == "" {
		t.Fatalf("RenameLatest = %q, %v", got, err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRenameLatestGivesUp(t *testing.T) {
	dir := t.TempDir()
	writeAt(t, filepath.Join(dir, "stale.mp4"), time.Now().Add(-time.Hour))

	r := newRenamer(t, dir, 0.05)
	got, err := r.RenameLatest(context.Background(), time.Now(), "knocked")
	if err != nil || got != "" {
		t.Fatalf("expected no rename, got %q %v", got, err)
	}

	disabled := newRenamer(t, dir, 1)
	disabled.settings.Enabled = false
	if got, _ := disabled.RenameLatest(context.Background(), time.Now(), "x"); got != "" {
		t.Fatalf("disabled renamer renamed %q", got)
	}
	missing := newRenamer(t, filepath.Join(dir, "nope"), 1)
	if got, err := missing.RenameLatest(context.Background(), time.Now(), "x"); got != "" || err != nil {
		t.Fatalf("missing dir = %q %v", got, err)
	}
}
