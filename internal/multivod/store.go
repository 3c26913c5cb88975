package multivod

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"clipmark/internal/config"
)

// Store persists sessions as whole documents.
type Store interface {
	// Save writes a new session. It fails with ErrConflict when the id exists.
	Save(ctx context.Context, s *Session) error
	// Load returns the session or an error wrapping ErrNotFound.
	Load(ctx context.Context, id string) (*Session, error)
	// Update runs fn on the current document and saves the result as one
	// transaction. An error from fn aborts without writing.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
	// List returns every readable session, most recently updated first.
	List(ctx context.Context) ([]*Session, error)
	Close() error
}

// OpenStore opens the backend selected by sync.store.
func OpenStore(cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(cfg.Sync.Store) {
	case "", "file":
		return NewFileStore(cfg.Paths.SessionsDir, logger)
	case "sqlite":
		return OpenSQLiteStore(cfg.SessionDatabasePath())
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.Sync.Store)
	}
}

func validID(id string) bool {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return false
	}
	return true
}
