package multivod

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"clipmark/internal/fileutil"
	"clipmark/internal/logging"
	"clipmark/internal/services"
)

// FileStore keeps one "<id>.json" document per session. Writers hold a
// per-session flock across load-mutate-save.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logging.NewComponentLogger(logger, "session-store")}, nil
}

func (f *FileStore) path(id string) string     { return filepath.Join(f.dir, id+".json") }
func (f *FileStore) lockPath(id string) string { return filepath.Join(f.dir, "."+id+".lock") }

// withLock runs fn under the session's flock. With mustExist, a missing
// session fails with ErrNotFound before any lock file is created, and a lock
// file left behind by a session deleted meanwhile is removed.
func (f *FileStore) withLock(ctx context.Context, id string, mustExist bool, op string, fn func() error) error {
	if !validID(id) {
		if mustExist {
			return services.Wrap(services.ErrNotFound, "multivod", op, "session "+id, nil)
		}
		return services.Wrap(services.ErrValidation, "multivod", "lock", fmt.Sprintf("invalid session id %q", id), nil)
	}
	if mustExist {
		if _, err := os.Stat(f.path(id)); errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, "multivod", op, "session "+id, nil)
		}
	}
	lock := flock.New(f.lockPath(id))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock session %s: %w", id, err)
	}
	defer func() { _ = lock.Unlock() }()
	if err := ctx.Err(); err != nil {
		return err
	}
	err := fn()
	if mustExist && errors.Is(err, services.ErrNotFound) {
		if _, statErr := os.Stat(f.path(id)); errors.Is(statErr, fs.ErrNotExist) {
			_ = os.Remove(f.lockPath(id))
		}
	}
	return err
}

// Save writes a new session.
func (f *FileStore) Save(ctx context.Context, s *Session) error {
	return f.withLock(ctx, s.SessionID, false, "save", func() error {
		if _, err := os.Stat(f.path(s.SessionID)); err == nil {
			return services.Wrap(services.ErrConflict, "multivod", "save", "session "+s.SessionID+" already exists", nil)
		}
		s.Version = 1
		return fileutil.WriteJSONAtomic(f.path(s.SessionID), s)
	})
}

// Load reads a session without locking; atomic writes make the read safe.
func (f *FileStore) Load(_ context.Context, id string) (*Session, error) {
	if !validID(id) {
		return nil, services.Wrap(services.ErrNotFound, "multivod", "load", "session "+id, nil)
	}
	return f.read(id)
}

func (f *FileStore) read(id string) (*Session, error) {
	var s Session
	ok, err := fileutil.ReadJSON(f.path(id), &s)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "multivod", "load", "session "+id+" is unreadable", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "multivod", "load", "session "+id, nil)
	}
	return &s, nil
}

// Update applies fn under the session lock.
func (f *FileStore) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	var out *Session
	err := f.withLock(ctx, id, true, "update", func() error {
		s, err := f.read(id)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		s.Version++
		if err := fileutil.WriteJSONAtomic(f.path(id), s); err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

// Delete removes the session document.
func (f *FileStore) Delete(ctx context.Context, id string) error {
	err := f.withLock(ctx, id, true, "delete", func() error {
		if err := os.Remove(f.path(id)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return services.Wrap(services.ErrNotFound, "multivod", "delete", "session "+id, nil)
			}
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
	if err == nil {
		_ = os.Remove(f.lockPath(id))
	}
	return err
}

// List reads every session document ordered by file modification time,
// newest first. Unreadable documents are skipped.
func (f *FileStore) List(_ context.Context) ([]*Session, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}
	type entry struct {
		session *Session
		mtime   int64
	}
	var found []entry
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		s, err := f.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			f.logger.Debug("skipping unreadable session", logging.String("file", name), logging.Error(err))
			continue
		}
		found = append(found, entry{session: s, mtime: info.ModTime().UnixNano()})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].mtime > found[j].mtime })
	out := make([]*Session, 0, len(found))
	for _, e := range found {
		out = append(out, e.session)
	}
	return out, nil
}

// Close is a no-op.
func (f *FileStore) Close() error { return nil }
