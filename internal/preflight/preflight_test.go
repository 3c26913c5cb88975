package preflight

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipmark/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
	if file := CheckFile("file", f); !file.Passed {
		t.Fatalf("expected readable file to pass: %s", file.Detail)
	}
	if dir := CheckFile("file", filepath.Dir(f)); dir.Passed {
		t.Fatal("expected directory to fail file check")
	}
}

func TestCheckSessionDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	if r := CheckSessionDatabase(context.Background(), path); !r.Passed {
		t.Fatalf("missing database should pass: %s", r.Detail)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("CREATE TABLE unrelated (id INTEGER)"); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()
	if r := CheckSessionDatabase(context.Background(), path); r.Passed {
		t.Fatal("database without a sessions table should fail")
	}
}

func TestCheckTesseractLanguage(t *testing.T) {
	testsupport.NewConfig(t, testsupport.WithStubbedBinaries("tesseract"))
	run := func(_ context.Context, _ string, args ...string) ([]byte, error) {
		if strings.Join(args, " ") != "--list-langs" {
			return nil, errors.New("unexpected args")
		}
		return []byte("List of available languages in \"/usr/share/tessdata/\" (2):\neng\nosd\n"), nil
	}
	if r := CheckTesseractLanguage(context.Background(), run, "tesseract", "eng"); !r.Passed {
		t.Fatalf("expected eng to be installed: %s", r.Detail)
	}
	if r := CheckTesseractLanguage(context.Background(), run, "tesseract", "eng+deu"); r.Passed {
		t.Fatal("expected deu to be reported missing")
	}
	if r := CheckTesseractLanguage(context.Background(), run, "clearly-not-present-binary", "eng"); r.Passed {
		t.Fatal("expected missing binary to fail")
	}
}

func TestRunAllGatesOptionalChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.OCR.Lang = ""
	results := RunAll(context.Background(), cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 checks with optional features off, got %d: %+v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}

	cfg.Replay.Enabled = true
	cfg.Replay.Directory = filepath.Join(testsupport.BaseDir(cfg), "missing-replays")
	cfg.Sync.Store = "sqlite"
	results = RunAll(context.Background(), cfg)
	if len(results) != 7 {
		t.Fatalf("expected 7 checks, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Replay directory" {
		t.Fatalf("expected only the replay directory to fail, got %+v", failed)
	}
}

func TestRequirementsUseConfiguredBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Tools.FFmpeg = "/opt/ffmpeg/bin/ffmpeg"
	reqs := Requirements(cfg)
	if len(reqs) != 3 || reqs[0].Command != "/opt/ffmpeg/bin/ffmpeg" || reqs[2].Command != "tesseract" {
		t.Fatalf("unexpected requirements %+v", reqs)
	}
}
