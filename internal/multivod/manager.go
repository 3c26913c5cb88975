package multivod

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"clipmark/internal/logging"
	"clipmark/internal/services"
)

// DefaultListLimit is the page size used when List is called with limit <= 0.
const DefaultListLimit = 20

// Manager implements the session operations on top of a Store.
type Manager struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewManager wraps store.
func NewManager(store Store, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logging.NewComponentLogger(logger, "multivod"),
		now:    time.Now,
	}
}

// WithClock overrides the clock used for audit timestamps.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	if now != nil {
		m.now = now
	}
	return m
}

func (m *Manager) stamp() float64 {
	return float64(m.now().UnixNano()) / 1e9
}

// NewSessionID returns "comp-" followed by eight hex digits.
func NewSessionID() string {
	return "comp-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// CreateRequest describes a new session.
type CreateRequest struct {
	Name        string
	Description string
	CreatedBy   string
	Vods        []SessionVod
}

// Create validates and persists a new session. Vods start at offset zero
// with manual provenance unless the request says otherwise.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	now := m.stamp()
	createdBy := strings.TrimSpace(req.CreatedBy)
	if createdBy == "" {
		createdBy = "system"
	}
	sess := &Session{
		SessionID:           NewSessionID(),
		Name:                req.Name,
		Description:         req.Description,
		CreatedAt:           now,
		UpdatedAt:           now,
		CreatedBy:           createdBy,
		Vods:                slices.Clone(req.Vods),
		SyncMode:            SyncGlobal,
		SyncConfig:          defaultSyncConfig(),
		GlobalPlaybackState: StatePaused,
		PlaybackStartedAt:   now,
		UIState:             defaultUIState(),
	}
	for i := range sess.Vods {
		v := &sess.Vods[i]
		if v.Name == "" {
			v.Name = v.VodID
		}
		if v.OffsetSource == "" {
			v.OffsetSource = SourceManual
		}
		if v.OffsetConfidence == 0 {
			v.OffsetConfidence = 1
		}
		if v.OffsetSetAt == 0 {
			v.OffsetSetAt = now
		}
		if v.PlaybackState == "" {
			v.PlaybackState = StatePaused
		}
		if v.OffsetHistory == nil {
			v.OffsetHistory = []OffsetHistoryEntry{}
		}
		if v.Events == nil {
			v.Events = []map[string]any{}
		}
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	m.logger.Info("session created",
		logging.String(logging.FieldSessionID, sess.SessionID),
		logging.Int("vods", len(sess.Vods)),
		logging.String(logging.FieldEventType, "session_created"),
	)
	return sess, nil
}

// Get loads a session.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.store.Load(ctx, id)
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Info("session deleted", logging.String(logging.FieldSessionID, id))
	return nil
}

// ListOptions filters and pages List.
type ListOptions struct {
	CreatedBy string
	Limit     int
	Offset    int
}

// List returns session summaries, most recently written first.
func (m *Manager) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	sessions, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		if opts.CreatedBy != "" && s.CreatedBy != opts.CreatedBy {
			continue
		}
		out = append(out, s.Summarize())
	}
	start := min(max(opts.Offset, 0), len(out))
	end := min(start+limit, len(out))
	return out[start:end], nil
}

func (m *Manager) update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	return m.store.Update(ctx, id, func(s *Session) error {
		if err := fn(s); err != nil {
			return err
		}
		s.UpdatedAt = m.stamp()
		return nil
	})
}

func checkTimestamp(op string, t float64) error {
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return services.Wrap(services.ErrValidation, "multivod", op, fmt.Sprintf("invalid timestamp %v", t), nil)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

// GlobalSeek moves the shared clock to t and places every vod at
// clamp(t - offset, 0, duration).
func (m *Manager) GlobalSeek(ctx context.Context, id string, t float64) (*Session, error) {
	if err := checkTimestamp("global seek", t); err != nil {
		return nil, err
	}
	return m.update(ctx, id, func(s *Session) error {
		s.GlobalTime = t
		s.GlobalPlaybackState = StateSeeking
		for i := range s.Vods {
			v := &s.Vods[i]
			v.CurrentTime = clamp(t-v.Offset, 0, v.Duration)
			v.PlaybackState = StateSeeking
		}
		return nil
	})
}

// SeekVod scrubs one vod. Its time is clamped to its own duration and the
// global clock follows it: global = vod time + offset.
func (m *Manager) SeekVod(ctx context.Context, id, vodID string, t float64) (*Session, error) {
	if err := checkTimestamp("seek vod", t); err != nil {
		return nil, err
	}
	return m.update(ctx, id, func(s *Session) error {
		v, _, ok := s.Vod(vodID)
		if !ok {
			return vodNotFound(s.SessionID, vodID)
		}
		v.CurrentTime = clamp(t, 0, v.Duration)
		v.PlaybackState = StateSeeking
		s.GlobalTime = v.CurrentTime + v.Offset
		return nil
	})
}

// OffsetChange carries the provenance of an offset update.
type OffsetChange struct {
	Source     OffsetSource
	Confidence *float64
	ChangedBy  string
}

func (c OffsetChange) normalize() (OffsetChange, error) {
	if c.Source == "" {
		c.Source = SourceManual
	}
	if c.ChangedBy == "" {
		c.ChangedBy = "system"
	}
	switch c.Source {
	case SourceManual:
	case SourceTimerOCR:
		if c.Confidence == nil {
			return c, services.Wrap(services.ErrValidation, "multivod", "offset", "confidence required for timer_ocr source", nil)
		}
	default:
		return c, services.Wrap(services.ErrValidation, "multivod", "offset", fmt.Sprintf("unknown offset source %q", c.Source), nil)
	}
	if c.Confidence != nil && (*c.Confidence < 0 || *c.Confidence > 1 || math.IsNaN(*c.Confidence)) {
		return c, services.Wrap(services.ErrValidation, "multivod", "offset", fmt.Sprintf("confidence %v outside [0,1]", *c.Confidence), nil)
	}
	return c, nil
}

// UpdateOffset changes one vod's offset and records the change.
func (m *Manager) UpdateOffset(ctx context.Context, id, vodID string, offset float64, change OffsetChange) (*Session, error) {
	return m.UpdateOffsets(ctx, id, map[string]float64{vodID: offset}, change)
}

// UpdateOffsets changes several offsets at once. Every vod id is checked
// before any offset changes, and the session is saved once.
func (m *Manager) UpdateOffsets(ctx context.Context, id string, offsets map[string]float64, change OffsetChange) (*Session, error) {
	if len(offsets) == 0 {
		return nil, services.Wrap(services.ErrValidation, "multivod", "offset", "no offsets given", nil)
	}
	change, err := change.normalize()
	if err != nil {
		return nil, err
	}
	for vodID, off := range offsets {
		if math.IsNaN(off) || math.IsInf(off, 0) {
			return nil, services.Wrap(services.ErrValidation, "multivod", "offset", fmt.Sprintf("invalid offset for %s", vodID), nil)
		}
	}
	sess, err := m.update(ctx, id, func(s *Session) error {
		ids := make([]string, 0, len(offsets))
		for vodID := range offsets {
			_, idx, ok := s.Vod(vodID)
			if !ok {
				return vodNotFound(s.SessionID, vodID)
			}
			if idx == 0 && offsets[vodID] != 0 {
				return services.Wrap(services.ErrValidation, "multivod", "offset", fmt.Sprintf("vod %s is the reference and must keep offset 0", vodID), nil)
			}
			ids = append(ids, vodID)
		}
		slices.Sort(ids)
		now := m.stamp()
		for _, vodID := range ids {
			v, _, _ := s.Vod(vodID)
			applyOffset(v, offsets[vodID], change, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("offsets updated",
		logging.String(logging.FieldSessionID, id),
		logging.Int("vods", len(offsets)),
		logging.String("source", string(change.Source)),
		logging.String(logging.FieldEventType, "offsets_updated"),
	)
	return sess, nil
}

func applyOffset(v *SessionVod, offset float64, change OffsetChange, now float64) {
	var conf *float64
	if change.Confidence != nil {
		c := *change.Confidence
		conf = &c
	}
	v.OffsetHistory = append(v.OffsetHistory, OffsetHistoryEntry{
		Timestamp:  now,
		OldOffset:  v.Offset,
		NewOffset:  offset,
		Source:     change.Source,
		Confidence: conf,
		ChangedBy:  change.ChangedBy,
	})
	v.Offset = offset
	v.OffsetSource = change.Source
	v.OffsetConfidence = 1
	if conf != nil {
		v.OffsetConfidence = *conf
	}
	v.OffsetSetAt = now
}

// ApplyTimerSync records a timer-derived offset together with the detection
// details in one save.
func (m *Manager) ApplyTimerSync(ctx context.Context, id, vodID string, offset, confidence float64, details map[string]any) (*Session, error) {
	change, err := OffsetChange{Source: SourceTimerOCR, Confidence: &confidence, ChangedBy: "timer_ocr"}.normalize()
	if err != nil {
		return nil, err
	}
	return m.update(ctx, id, func(s *Session) error {
		v, idx, ok := s.Vod(vodID)
		if !ok {
			return vodNotFound(s.SessionID, vodID)
		}
		if idx == 0 {
			return services.Wrap(services.ErrValidation, "multivod", "timer sync", "cannot offset the reference vod", nil)
		}
		applyOffset(v, offset, change, m.stamp())
		s.AutoSyncResult = details
		return nil
	})
}

// HistoryRecord is an offset change flattened with its vod.
type HistoryRecord struct {
	OffsetHistoryEntry
	VodID   string `json:"vod_id"`
	VodName string `json:"vod_name"`
}

// OffsetHistory returns offset changes across the session, or for one vod
// when vodID is set, most recent first.
func (m *Manager) OffsetHistory(ctx context.Context, id, vodID string) ([]HistoryRecord, error) {
	s, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if vodID != "" {
		if _, _, ok := s.Vod(vodID); !ok {
			return nil, vodNotFound(id, vodID)
		}
	}
	var out []HistoryRecord
	for _, v := range s.Vods {
		if vodID != "" && v.VodID != vodID {
			continue
		}
		for _, e := range v.OffsetHistory {
			out = append(out, HistoryRecord{OffsetHistoryEntry: e, VodID: v.VodID, VodName: v.Name})
		}
	}
	slices.SortStableFunc(out, func(a, b HistoryRecord) int { return cmp.Compare(b.Timestamp, a.Timestamp) })
	return out, nil
}

// SetPlayback stores the shared clock position and transport state.
func (m *Manager) SetPlayback(ctx context.Context, id string, globalTime float64, state PlaybackState) (*Session, error) {
	if err := checkTimestamp("playback", globalTime); err != nil {
		return nil, err
	}
	switch state {
	case StatePlaying, StatePaused, StateSeeking:
	default:
		return nil, services.Wrap(services.ErrValidation, "multivod", "playback", fmt.Sprintf("unknown playback state %q", state), nil)
	}
	return m.update(ctx, id, func(s *Session) error {
		s.GlobalTime = globalTime
		s.GlobalPlaybackState = state
		s.PlaybackStartedAt = m.stamp()
		return nil
	})
}

// SetSyncMode switches between global and independent seeking.
func (m *Manager) SetSyncMode(ctx context.Context, id string, mode SyncMode) (*Session, error) {
	switch mode {
	case SyncGlobal, SyncIndependent:
	default:
		return nil, services.Wrap(services.ErrValidation, "multivod", "sync mode", fmt.Sprintf("unknown sync mode %q", mode), nil)
	}
	return m.update(ctx, id, func(s *Session) error {
		s.SyncMode = mode
		return nil
	})
}

func vodNotFound(sessionID, vodID string) error {
	return services.Wrap(services.ErrNotFound, "multivod", "vod", fmt.Sprintf("vod %q not in session %s", vodID, sessionID), nil)
}
