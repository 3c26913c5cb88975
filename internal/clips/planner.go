package clips

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"clipmark/internal/bookmarks"
	"clipmark/internal/config"
	"clipmark/internal/fileutil"
	"clipmark/internal/services"
)

// Planner resolves inputs and output locations and lays out clip names.
type Planner struct {
	split    config.Split
	clipsDir string
}

// NewPlanner captures the split settings from cfg.
func NewPlanner(cfg *config.Config) *Planner {
	return &Planner{split: cfg.Split, clipsDir: cfg.Paths.ClipsDir}
}

// ResolveInput picks the recording to cut. An explicit path wins; otherwise
// split.input_source selects either recordings_dir itself ("path") or the
// newest file in it with a configured extension ("newest").
func (p *Planner) ResolveInput(explicit string) (string, error) {
	input := strings.TrimSpace(explicit)
	if input == "" {
		dir := strings.TrimSpace(p.split.RecordingsDir)
		if dir == "" {
			return "", services.Wrap(services.ErrConfiguration, "clips", "resolve input", "no input given and split.recordings_dir is empty", nil)
		}
		if p.split.InputSource == "path" {
			input = dir
		} else {
			newest, _, err := fileutil.NewestFile(dir, p.hasRecordingExt)
			if err != nil {
				return "", services.Wrap(services.ErrNotFound, "clips", "resolve input", "no recordings in "+dir, err)
			}
			input = newest
		}
	}
	info, err := os.Stat(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "clips", "resolve input", "recording not found: "+input, nil)
		}
		return "", fmt.Errorf("stat recording: %w", err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "clips", "resolve input", input+" is a directory", nil)
	}
	return input, nil
}

func (p *Planner) hasRecordingExt(name string) bool {
	return slices.Contains(p.split.Extensions, strings.ToLower(filepath.Ext(name)))
}

// OutputDir places clips next to the recording: empty config means
// "<recording dir>/clips", relative paths are resolved against the recording
// directory and absolute paths are used as is.
func (p *Planner) OutputDir(input string) string {
	vodDir := filepath.Dir(input)
	dir := strings.TrimSpace(p.clipsDir)
	switch {
	case dir == "":
		return filepath.Join(vodDir, "clips")
	case filepath.IsAbs(dir):
		return dir
	default:
		return filepath.Join(vodDir, dir)
	}
}

// Build merges event windows and names one clip per window.
func (p *Planner) Build(events []bookmarks.Event, input string) (Plan, error) {
	plan := Plan{Input: input, OutputDir: p.OutputDir(input), Events: len(events)}
	if len(events) == 0 {
		return plan, nil
	}
	vodStart, err := VodStartTime(input)
	if err != nil {
		return plan, services.Wrap(services.ErrSource, "clips", "plan", "", err)
	}
	windows := MergeWindows(BuildWindows(events, p.split.PreSeconds, p.split.PostSeconds), p.split.MergeGapSeconds)
	ext := filepath.Ext(input)
	for i, w := range windows {
		var counts *Counts
		if p.split.EncodeCounts {
			c := CountEvents(EventsIn(w, events))
			counts = &c
		}
		name := ClipName(vodStart, i+1, w, counts, p.split.CountFormat)
		plan.Clips = append(plan.Clips, Clip{
			Index:  i + 1,
			Window: w,
			Output: filepath.Join(plan.OutputDir, name+ext),
			Counts: counts,
		})
	}
	return plan, nil
}
