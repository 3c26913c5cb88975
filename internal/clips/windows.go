package clips

import (
	"sort"

	"clipmark/internal/bookmarks"
)

// MinClipDuration is the shortest duration handed to ffmpeg.
const MinClipDuration = 0.1

// Window is a clip time range in seconds from the start of the recording.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End-Start, never less than MinClipDuration.
func (w Window) Duration() float64 {
	return max(MinClipDuration, w.End-w.Start)
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t float64) bool {
	return t >= w.Start && t <= w.End
}

// BuildWindows pads every event by pre and post seconds, clamps both bounds at
// zero and returns the windows ordered by start.
func BuildWindows(events []bookmarks.Event, pre, post float64) []Window {
	windows := make([]Window, 0, len(events))
	for _, ev := range events {
		windows = append(windows, Window{
			Start: max(0, ev.Seconds-pre),
			End:   max(0, ev.Seconds+post),
		})
	}
	sort.SliceStable(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })
	return windows
}

// MergeWindows folds start-ordered windows in one pass: a window whose start
// is within gap of the previous merged end extends that window.
func MergeWindows(windows []Window, gap float64) []Window {
	if len(windows) == 0 {
		return nil
	}
	merged := []Window{windows[0]}
	for _, current := range windows[1:] {
		last := &merged[len(merged)-1]
		if current.Start <= last.End+gap {
			last.End = max(last.End, current.End)
			continue
		}
		merged = append(merged, current)
	}
	return merged
}

// EventsIn returns the events whose time falls inside w.
func EventsIn(w Window, events []bookmarks.Event) []bookmarks.Event {
	var out []bookmarks.Event
	for _, ev := range events {
		if w.Contains(ev.Seconds) {
			out = append(out, ev)
		}
	}
	return out
}
