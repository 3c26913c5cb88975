package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"clipmark/internal/bookmarks"
	"clipmark/internal/fileutil"
	"clipmark/internal/services"
)

// PauseState is the content of a pause marker. A bare request written by
// RequestPause only sets Paused; a checkpoint written by a worker carries the
// frame index and session file to resume from.
type PauseState struct {
	FrameIndex  int64  `json:"frame_index"`
	SessionFile string `json:"session_file,omitempty"`
	Progress    int    `json:"progress"`
	Paused      bool   `json:"paused,omitempty"`
}

// Checkpoint reports whether the state can seed a resume.
func (p PauseState) Checkpoint() bool {
	return p.SessionFile != ""
}

type progressMarker struct {
	Progress *int `json:"progress"`
	Paused   bool `json:"paused,omitempty"`
}

// CheckpointStore persists scan progress and pause state.
type CheckpointStore interface {
	WriteProgress(progress *int, paused bool) error
	RemoveProgress() error
	PauseRequested() bool
	WritePauseMarker(PauseState) error
	ReadPauseMarker() (PauseState, error)
	RemovePauseMarker() error
	RequestPause() error
	Clear() error
}

// MarkerStore keeps scan markers as JSON files next to the bookmark logs.
type MarkerStore struct {
	dir  string
	base string
}

// NewMarkerStore returns the marker store for vodPath.
func NewMarkerStore(bookmarksDir, prefix, vodPath string) *MarkerStore {
	stem := bookmarks.SafeStem(stemOf(vodPath))
	return &MarkerStore{dir: bookmarksDir, base: prefix + "_" + stem}
}

func stemOf(path string) string {
	name := filepath.Base(path)
	return name[:len(name)-len(filepath.Ext(name))]
}

// ScanningPath is the progress marker path.
func (m *MarkerStore) ScanningPath() string { return filepath.Join(m.dir, m.base+".scanning") }

// PausedPath is the pause marker path.
func (m *MarkerStore) PausedPath() string { return filepath.Join(m.dir, m.base+".paused") }

// LockPath is the worker lock path.
func (m *MarkerStore) LockPath() string { return filepath.Join(m.dir, m.base+".lock") }

// SessionGlob matches every bookmark log written for this vod.
func (m *MarkerStore) SessionGlob() string { return filepath.Join(m.dir, m.base+"_*") }

// WriteProgress records progress; a nil progress means the total is unknown.
func (m *MarkerStore) WriteProgress(progress *int, paused bool) error {
	return m.write(m.ScanningPath(), progressMarker{Progress: progress, Paused: paused})
}

// RemoveProgress deletes the progress marker.
func (m *MarkerStore) RemoveProgress() error {
	return removeIfExists(m.ScanningPath())
}

// PauseRequested reports whether a pause marker exists.
func (m *MarkerStore) PauseRequested() bool {
	_, err := os.Stat(m.PausedPath())
	return err == nil
}

// WritePauseMarker stores a resume checkpoint.
func (m *MarkerStore) WritePauseMarker(state PauseState) error {
	state.Paused = false
	return m.write(m.PausedPath(), state)
}

// ReadPauseMarker returns the pause marker content. A missing marker wraps
// ErrNotFound; an unreadable one wraps ErrValidation.
func (m *MarkerStore) ReadPauseMarker() (PauseState, error) {
	var state PauseState
	ok, err := fileutil.ReadJSON(m.PausedPath(), &state)
	if err != nil {
		return PauseState{}, services.Wrap(services.ErrValidation, "scan", "read pause marker", m.PausedPath(), err)
	}
	if !ok {
		return PauseState{}, services.Wrap(services.ErrNotFound, "scan", "read pause marker", m.PausedPath(), nil)
	}
	return state, nil
}

// RemovePauseMarker deletes the pause marker.
func (m *MarkerStore) RemovePauseMarker() error {
	return removeIfExists(m.PausedPath())
}

// RequestPause asks a running worker to stop at its next poll. An existing
// checkpoint is left untouched.
func (m *MarkerStore) RequestPause() error {
	if state, err := m.ReadPauseMarker(); err == nil && state.Checkpoint() {
		return nil
	}
	return m.write(m.PausedPath(), PauseState{Paused: true})
}

// Clear removes both markers.
func (m *MarkerStore) Clear() error {
	return errors.Join(m.RemoveProgress(), m.RemovePauseMarker())
}

// readProgress returns the progress marker, reporting false when absent.
func (m *MarkerStore) readProgress() (progressMarker, bool, error) {
	var marker progressMarker
	ok, err := fileutil.ReadJSON(m.ScanningPath(), &marker)
	return marker, ok, err
}

func (m *MarkerStore) write(path string, v any) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}
	return fileutil.WriteJSONAtomic(path, v)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
