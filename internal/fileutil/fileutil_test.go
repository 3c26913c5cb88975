package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marker.json")
	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files cleaned up, found %d entries", len(entries))
	}
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	type state struct {
		Progress int `json:"progress"`
	}
	var missing state
	exists, err := ReadJSON(path, &missing)
	if err != nil || exists {
		t.Fatalf("expected missing file to report false, got exists=%v err=%v", exists, err)
	}

	if err := WriteJSONAtomic(path, state{Progress: 42}); err != nil {
		t.Fatal(err)
	}
	var loaded state
	exists, err = ReadJSON(path, &loaded)
	if err != nil || !exists {
		t.Fatalf("ReadJSON: exists=%v err=%v", exists, err)
	}
	if loaded.Progress != 42 {
		t.Fatalf("progress = %d, want 42", loaded.Progress)
	}

	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadJSON(path, &loaded); err == nil || !strings.Contains(err.Error(), "state.json") {
		t.Fatalf("expected decode error naming the file, got %v", err)
	}
}

func TestNewestFile(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	files := map[string]time.Duration{
		"a.mp4": 0,
		"b.mp4": 10 * time.Minute,
		"c.txt": 20 * time.Minute,
	}
	for name, offset := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		ts := base.Add(offset)
		if err := os.Chtimes(p, ts, ts); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "newer-dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, _, err := NewestFile(dir, func(name string) bool { return strings.HasSuffix(name, ".mp4") })
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "b.mp4" {
		t.Fatalf("expected b.mp4, got %s", got)
	}

	got, _, err = NewestFile(dir, nil)
	if err != nil || filepath.Base(got) != "c.txt" {
		t.Fatalf("expected c.txt, got %s (%v)", got, err)
	}

	_, _, err = NewestFile(dir, func(string) bool { return false })
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}
