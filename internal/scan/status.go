package scan

import (
	"path/filepath"
	"slices"
	"strings"
)

// State is the lifecycle state of a scan.
type State string

const (
	StateIdle      State = "idle"
	StateScanning  State = "scanning"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Status is the marker-derived view of a vod's scan, readable while a worker
// is running.
type Status struct {
	Vod            string   `json:"vod"`
	State          State    `json:"state"`
	Scanned        bool     `json:"scanned"`
	Scanning       bool     `json:"scanning"`
	Paused         bool     `json:"paused"`
	// PauseRequested is set while a pause request waits for the worker to
	// write its checkpoint.
	PauseRequested bool     `json:"pause_requested,omitempty"`
	Progress       *int     `json:"progress"`
	FrameIndex     int64    `json:"frame_index,omitempty"`
	SessionFile    string   `json:"session_file,omitempty"`
	Logs           []string `json:"logs,omitempty"`
}

// ReadStatus inspects the markers and bookmark logs for vodPath. A bare pause
// request leaves the state unchanged until the worker checkpoints.
func ReadStatus(store *MarkerStore, vodPath string) Status {
	st := Status{Vod: vodPath}
	st.Logs = sessionLogs(store)
	st.Scanned = len(st.Logs) > 0

	marker, scanning, err := store.readProgress()
	st.Scanning = scanning
	if scanning && err == nil {
		st.Progress = marker.Progress
		st.Paused = marker.Paused
	}
	if pause, err := store.ReadPauseMarker(); err == nil {
		if pause.Checkpoint() {
			st.Paused = true
			st.FrameIndex = pause.FrameIndex
			st.SessionFile = pause.SessionFile
			if !scanning {
				p := pause.Progress
				st.Progress = &p
			}
		} else {
			st.PauseRequested = true
		}
	}

	switch {
	case st.Paused:
		st.State = StatePaused
	case st.Scanning:
		st.State = StateScanning
	case st.Scanned:
		st.State = StateCompleted
	default:
		st.State = StateIdle
	}
	return st
}

func sessionLogs(store *MarkerStore) []string {
	matches, err := filepath.Glob(store.SessionGlob())
	if err != nil {
		return nil
	}
	logs := make([]string, 0, len(matches))
	for _, m := range matches {
		switch strings.ToLower(filepath.Ext(m)) {
		case ".csv", ".jsonl":
			logs = append(logs, m)
		}
	}
	slices.Sort(logs)
	return logs
}
