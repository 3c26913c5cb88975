package bookmarks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipmark/internal/services"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 14, 20, 15, 30, 0, time.Local)
}

func TestWriterCSVHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session_match_20260314_201530.csv")
	w := NewWriter(Settings{Enabled: true, Path: path, IncludeEvent: true, IncludeOCRLines: true})
	w.now = fixedNow

	if err := w.Append(Event{Seconds: 12.346, Event: "You knocked down Wraith", OCR: []string{"You knocked down Wraith", "100 m"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Append(Event{Seconds: 30, Event: "ASSIST, nice", OCR: nil}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "timestamp,seconds_since_start,event,ocr\n" +
		"2026-03-14T20:15:30,12.35,You knocked down Wraith,You knocked down Wraith | 100 m\n" +
		"2026-03-14T20:15:30,30,\"ASSIST, nice\",\n"
	if string(content) != want {
		t.Fatalf("unexpected csv:\n%s\nwant:\n%s", content, want)
	}

	events, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Seconds != 12.35 || len(events[0].OCR) != 2 || events[0].OCR[1] != "100 m" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Event != "ASSIST, nice" || !events[1].Timestamp.Equal(fixedNow()) {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}

func TestWriterJSONLRespectsIncludeFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	w := NewWriter(Settings{Enabled: true, Path: path, Format: "JSONL"})
	w.now = fixedNow
	if err := w.Append(Event{Seconds: 1.2, Event: "killed", OCR: []string{"killed"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := `{"timestamp":"2026-03-14T20:15:30","seconds_since_start":1.2,"event":"","ocr":[]}` + "\n"
	if string(content) != want {
		t.Fatalf("unexpected jsonl: %s", content)
	}
	if strings.Contains(string(content), "killed") {
		t.Fatalf("event and ocr must be omitted when include flags are off: %s", content)
	}
}

func TestWriterDisabledIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "off.csv")
	if err := NewWriter(Settings{Path: path}).Append(Event{Seconds: 1}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("disabled writer must not create a file, stat err=%v", err)
	}
}

func TestLoadSkipsPartialTrailingLine(t *testing.T) {
	dir := t.TempDir()
	jsonl := filepath.Join(dir, "a.jsonl")
	content := `{"timestamp":"2026-03-14T20:15:30","seconds_since_start":5,"event":"knocked","ocr":[]}` + "\n\n" +
		`{"timestamp":"2026-03-14T20:15:31","seconds_since_st`
	if err := os.WriteFile(jsonl, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	events, err := Load(jsonl)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(events) != 1 || events[0].Seconds != 5 {
		t.Fatalf("expected only the complete record, got %+v", events)
	}

	csvPath := filepath.Join(dir, "b.csv")
	if err := os.WriteFile(csvPath, []byte("timestamp,seconds_since_start,event,ocr\n,7.5,killed,\n,8"), 0o644); err != nil {
		t.Fatal(err)
	}
	events, err = Load(csvPath)
	if err != nil {
		t.Fatalf("Load csv: %v", err)
	}
	if len(events) != 1 || events[0].Seconds != 7.5 {
		t.Fatalf("expected one csv event, got %+v", events)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.csv")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("timestamp,seconds_since_start,event,ocr\nx,abc,y,\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnsureCreatesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "s.csv")
	if err := Ensure(csvPath, "csv"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := os.WriteFile(csvPath, []byte("timestamp,seconds_since_start,event,ocr\n,1,x,\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Ensure(csvPath, "csv"); err != nil {
		t.Fatalf("Ensure existing: %v", err)
	}
	events, err := Load(csvPath)
	if err != nil || len(events) != 1 {
		t.Fatalf("Ensure must not truncate an existing log: %v %v", events, err)
	}

	jsonlPath := filepath.Join(dir, "s.jsonl")
	if err := Ensure(jsonlPath, "jsonl"); err != nil {
		t.Fatalf("Ensure jsonl: %v", err)
	}
	events, err = Load(jsonlPath)
	if err != nil || len(events) != 0 {
		t.Fatalf("expected empty jsonl log, got %v %v", events, err)
	}
}

func TestSessionFileName(t *testing.T) {
	got := SessionFileName("session", "Ranked: Game #3", fixedNow(), "CSV")
	if got != "session_Ranked_Game_3_20260314_201530.csv" {
		t.Fatalf("SessionFileName = %q", got)
	}
	if got := SessionFileName("session", "???", fixedNow(), "jsonl"); got != "session_vod_20260314_201530.jsonl" {
		t.Fatalf("SessionFileName fallback = %q", got)
	}
}

func TestNewest(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "a.csv")
	recent := filepath.Join(dir, "b.jsonl")
	other := filepath.Join(dir, "c.txt")
	for i, p := range []string{old, recent, other} {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		ts := time.Now().Add(time.Duration(i-3) * time.Minute)
		if err := os.Chtimes(p, ts, ts); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Newest(dir)
	if err != nil || got != recent {
		t.Fatalf("Newest = %q, %v", got, err)
	}
	if _, err := Newest(t.TempDir()); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found for empty dir, got %v", err)
	}
}
