package testsupport

import (
	"testing"

	"clipmark/internal/config"
	"clipmark/internal/logging"
	"clipmark/internal/multivod"
)

// MustOpenSessionStore opens the session store selected by cfg for tests and
// registers cleanup.
func MustOpenSessionStore(t testing.TB, cfg *config.Config) multivod.Store {
	t.Helper()

	store, err := multivod.OpenStore(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("multivod.OpenStore: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
