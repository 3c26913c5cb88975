package multivod

import (
	"fmt"
	"math"
	"strings"

	"clipmark/internal/services"
)

const (
	MinVods = 2
	MaxVods = 3
)

// SyncMode selects how seeks propagate.
type SyncMode string

const (
	SyncGlobal      SyncMode = "global"
	SyncIndependent SyncMode = "independent"
)

// PlaybackState is a vod or session transport state.
type PlaybackState string

const (
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
	StateSeeking PlaybackState = "seeking"
)

// OffsetSource records where an offset value came from.
type OffsetSource string

const (
	SourceManual   OffsetSource = "manual"
	SourceTimerOCR OffsetSource = "timer_ocr"
)

// OffsetHistoryEntry is one audited offset change. Timestamp is Unix seconds.
type OffsetHistoryEntry struct {
	Timestamp  float64      `json:"timestamp"`
	OldOffset  float64      `json:"old_offset"`
	NewOffset  float64      `json:"new_offset"`
	Source     OffsetSource `json:"source"`
	Confidence *float64     `json:"confidence"`
	ChangedBy  string       `json:"changed_by"`
}

// SessionVod is one recording in a session. Offset is relative to the
// reference vod at index 0.
type SessionVod struct {
	VodID      string  `json:"vod_id"`
	Name       string  `json:"name"`
	Path       string  `json:"path"`
	Duration   float64 `json:"duration"`
	FPS        float64 `json:"fps"`
	Resolution string  `json:"resolution"`
	Codec      string  `json:"codec"`
	FilesizeMB float64 `json:"filesize_mb"`

	Offset           float64              `json:"offset"`
	OffsetConfidence float64              `json:"offset_confidence"`
	OffsetSource     OffsetSource         `json:"offset_source"`
	OffsetSetAt      float64              `json:"offset_set_at"`
	OffsetHistory    []OffsetHistoryEntry `json:"offset_history"`

	CurrentTime   float64          `json:"current_time"`
	PlaybackState PlaybackState    `json:"playback_state"`
	Events        []map[string]any `json:"events"`
}

// SyncConfig tunes the shared playback clock of a player.
type SyncConfig struct {
	SharedClockEnabled  bool    `json:"shared_clock_enabled"`
	ClockSyncIntervalMS int     `json:"clock_sync_interval_ms"`
	DriftToleranceMS    int     `json:"drift_tolerance_ms"`
	Speed               float64 `json:"speed"`
}

// UIState is opaque player layout state kept with the session.
type UIState struct {
	FocusedVodIndex      int       `json:"focused_vod_index"`
	Layout               string    `json:"layout"`
	ShowEventMarkers     bool      `json:"show_event_markers"`
	ShowOffsetIndicators bool      `json:"show_offset_indicators"`
	PlayerVolume         []float64 `json:"player_volume"`
}

// Session is a multi-vod comparison session.
type Session struct {
	SessionID   string  `json:"session_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CreatedAt   float64 `json:"created_at"`
	UpdatedAt   float64 `json:"updated_at"`
	CreatedBy   string  `json:"created_by"`
	// Version increments on every save and guards optimistic writes.
	Version int64 `json:"version"`

	Vods []SessionVod `json:"vods"`

	SyncMode   SyncMode   `json:"sync_mode"`
	SyncConfig SyncConfig `json:"sync_config"`

	GlobalTime          float64       `json:"global_time"`
	GlobalPlaybackState PlaybackState `json:"global_playback_state"`
	PlaybackStartedAt   float64       `json:"playback_started_at"`

	UIState        UIState        `json:"ui_state"`
	AutoSyncResult map[string]any `json:"auto_sync_result"`
}

// Summary is the list view of a session.
type Summary struct {
	SessionID string  `json:"session_id"`
	Name      string  `json:"name"`
	CreatedAt float64 `json:"created_at"`
	UpdatedAt float64 `json:"updated_at"`
	VodCount  int     `json:"vod_count"`
	CreatedBy string  `json:"created_by"`
}

// Summarize returns the list view of s.
func (s *Session) Summarize() Summary {
	name := s.Name
	if name == "" {
		name = "Untitled"
	}
	return Summary{
		SessionID: s.SessionID,
		Name:      name,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		VodCount:  len(s.Vods),
		CreatedBy: s.CreatedBy,
	}
}

// Vod returns the vod with the given id.
func (s *Session) Vod(vodID string) (*SessionVod, int, bool) {
	for i := range s.Vods {
		if s.Vods[i].VodID == vodID {
			return &s.Vods[i], i, true
		}
	}
	return nil, -1, false
}

// Validate checks the vod count and each vod's identity and duration. Errors
// wrap services.ErrValidation and name the offending vod index.
func (s *Session) Validate() error {
	if n := len(s.Vods); n < MinVods || n > MaxVods {
		return services.Wrap(services.ErrValidation, "multivod", "validate", fmt.Sprintf("session must have %d-%d vods, got %d", MinVods, MaxVods, n), nil)
	}
	seen := make(map[string]int, len(s.Vods))
	for i, v := range s.Vods {
		if strings.TrimSpace(v.Path) == "" || strings.TrimSpace(v.VodID) == "" {
			return services.Wrap(services.ErrValidation, "multivod", "validate", fmt.Sprintf("vod %d missing path or id", i), nil)
		}
		if v.Duration <= 0 {
			return services.Wrap(services.ErrValidation, "multivod", "validate", fmt.Sprintf("vod %d has invalid duration", i), nil)
		}
		if math.IsNaN(v.Offset) || math.IsInf(v.Offset, 0) {
			return services.Wrap(services.ErrValidation, "multivod", "validate", fmt.Sprintf("vod %d has invalid offset", i), nil)
		}
		if i == 0 && v.Offset != 0 {
			return services.Wrap(services.ErrValidation, "multivod", "validate", "vod 0 is the reference and must have offset 0", nil)
		}
		if prev, dup := seen[v.VodID]; dup {
			return services.Wrap(services.ErrValidation, "multivod", "validate", fmt.Sprintf("vod %d reuses id %q of vod %d", i, v.VodID, prev), nil)
		}
		seen[v.VodID] = i
	}
	return nil
}

func defaultSyncConfig() SyncConfig {
	return SyncConfig{SharedClockEnabled: true, ClockSyncIntervalMS: 500, DriftToleranceMS: 100, Speed: 1}
}

func defaultUIState() UIState {
	return UIState{
		Layout:               "3-col",
		ShowEventMarkers:     true,
		ShowOffsetIndicators: true,
		PlayerVolume:         []float64{1, 1, 1},
	}
}
