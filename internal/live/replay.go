package live

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipmark/internal/config"
	"clipmark/internal/fileutil"
	"clipmark/internal/logging"
	"clipmark/internal/textutil"
)

const (
	replayPollInterval = 200 * time.Millisecond
	replaySlugLimit    = 40
	// Files modified shortly before the trigger still belong to the event.
	replayMtimeSlack = 500 * time.Millisecond
)

// ReplayRenamer renames the replay file saved for an event.
type ReplayRenamer struct {
	settings config.Replay
	logger   *slog.Logger
	now      func() time.Time
	poll     time.Duration
	rename   func(oldPath, newPath string) error
}

// NewReplayRenamer returns a renamer for settings.
func NewReplayRenamer(settings config.Replay, logger *slog.Logger) *ReplayRenamer {
	return &ReplayRenamer{
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "replay"),
		now:      time.Now,
		poll:     replayPollInterval,
		rename:   os.Rename,
	}
}

// Enabled reports whether renaming is configured.
func (r *ReplayRenamer) Enabled() bool {
	return r != nil && r.settings.Enabled && strings.TrimSpace(r.settings.Directory) != ""
}

// TargetName builds "<prefix>_<time>[_<slug>]" for an event.
func (r *ReplayRenamer) TargetName(at time.Time, eventText string) string {
	parts := make([]string, 0, 3)
	if p := strings.TrimSpace(r.settings.Prefix); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, at.Format(r.settings.TimeFormat))
	if r.settings.IncludeEvent {
		parts = append(parts, textutil.Slugify(eventText, replaySlugLimit))
	}
	return strings.Join(parts, "_")
}

// RenameLatest waits up to the configured time for a replay file written at
// or after trigger and renames it. It returns the new path, or "" when
// renaming is disabled, the directory is missing or no file appeared in time.
func (r *ReplayRenamer) RenameLatest(ctx context.Context, trigger time.Time, eventText string) (string, error) {
	if !r.Enabled() {
		return "", nil
	}
	if info, err := os.Stat(r.settings.Directory); err != nil || !info.IsDir() {
		logging.WarnWithContext(r.logger, "replay directory unavailable", "replay_dir_missing",
			logging.String("directory", r.settings.Directory),
			logging.String(logging.FieldErrorHint, "check replay.directory in the config"),
		)
		return "", nil
	}

	deadline := r.now().Add(time.Duration(r.settings.WaitSeconds * float64(time.Second)))
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()
	for {
		if path, ok := r.newestSince(trigger); ok {
			renamed, err := r.renameWithRetries(ctx, path, eventText, deadline, ticker.C)
			if err != nil || renamed != "" {
				return renamed, err
			}
		}
		if !r.now().Before(deadline) {
			r.logger.Info("no replay file to rename", logging.String("event", eventText))
			return "", nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *ReplayRenamer) newestSince(trigger time.Time) (string, bool) {
	path, mtime, err := fileutil.NewestFile(r.settings.Directory, nil)
	if err != nil {
		return "", false
	}
	if mtime.Before(trigger.Add(-replayMtimeSlack)) {
		return "", false
	}
	return path, true
}

// renameWithRetries retries while the recorder still holds the file.
func (r *ReplayRenamer) renameWithRetries(ctx context.Context, path, eventText string, deadline time.Time, tick <-chan time.Time) (string, error) {
	now := r.now()
	name := r.TargetName(now, eventText)
	ext := filepath.Ext(path)
	target := filepath.Join(filepath.Dir(path), name+ext)
	if _, err := os.Stat(target); err == nil {
		target = filepath.Join(filepath.Dir(path), fmt.Sprintf("%s_%d%s", name, now.Unix(), ext))
	}
	for {
		err := r.rename(path, target)
		if err == nil {
			r.logger.Info("replay renamed",
				logging.String("from", filepath.Base(path)),
				logging.String("to", filepath.Base(target)),
				logging.String(logging.FieldEventType, "replay_renamed"),
			)
			return target, nil
		}
		if !errors.Is(err, fs.ErrPermission) {
			return "", fmt.Errorf("rename replay: %w", err)
		}
		if !r.now().Before(deadline) {
			logging.WarnWithContext(r.logger, "replay file stayed locked", "replay_locked",
				logging.String("path", path),
				logging.Error(err),
			)
			return "", nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-tick:
		}
	}
}
