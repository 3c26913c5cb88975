package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipmark/internal/bookmarks"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// Touch sets the modification time of path, creating an empty file first when
// it does not exist.
func Touch(t testing.TB, path string, mtime time.Time) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		WriteFile(t, path, 1)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

// WriteBookmarks writes events to a bookmark log in the format implied by the
// path's extension.
func WriteBookmarks(t testing.TB, path string, events ...bookmarks.Event) {
	t.Helper()
	format := bookmarks.FormatFromPath(path)
	if err := bookmarks.Ensure(path, format); err != nil {
		t.Fatalf("ensure bookmarks: %v", err)
	}
	w := bookmarks.NewWriter(bookmarks.Settings{
		Enabled:         true,
		Path:            path,
		Format:          format,
		IncludeEvent:    true,
		IncludeOCRLines: true,
	})
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	for _, ev := range events {
		if ev.Timestamp.IsZero() {
			ev.Timestamp = base.Add(time.Duration(ev.Seconds * float64(time.Second)))
		}
		if err := w.Append(ev); err != nil {
			t.Fatalf("append bookmark: %v", err)
		}
	}
}
