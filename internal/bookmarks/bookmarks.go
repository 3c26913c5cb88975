package bookmarks

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"clipmark/internal/fileutil"
	"clipmark/internal/services"
	"clipmark/internal/textutil"
)

const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"

	// TimestampLayout is the wall-clock format stored in each record.
	TimestampLayout = "2006-01-02T15:04:05"
	// SessionTimeLayout stamps session log names.
	SessionTimeLayout = "20060102_150405"
	// OCRSeparator joins OCR lines in the CSV ocr column.
	OCRSeparator = " | "
)

var csvHeader = []string{"timestamp", "seconds_since_start", "event", "ocr"}

// Event is one bookmark record.
type Event struct {
	Timestamp time.Time `json:"-"`
	Seconds   float64   `json:"seconds_since_start"`
	Event     string    `json:"event"`
	OCR       []string  `json:"ocr"`
}

type jsonRecord struct {
	Timestamp string   `json:"timestamp"`
	Seconds   float64  `json:"seconds_since_start"`
	Event     string   `json:"event"`
	OCR       []string `json:"ocr"`
}

// Settings controls what the writer records.
type Settings struct {
	Enabled         bool
	Path            string
	Format          string
	IncludeEvent    bool
	IncludeOCRLines bool
}

// Writer appends events to one session log.
type Writer struct {
	settings Settings
	now      func() time.Time
	mu       sync.Mutex
}

// NewWriter returns a writer for settings.Path. The format defaults to the
// file extension when unset.
func NewWriter(settings Settings) *Writer {
	if strings.TrimSpace(settings.Format) == "" {
		settings.Format = FormatFromPath(settings.Path)
	}
	settings.Format = strings.ToLower(settings.Format)
	return &Writer{settings: settings, now: time.Now}
}

// Path returns the log path.
func (w *Writer) Path() string { return w.settings.Path }

// Append records an event. Disabled writers are a no-op.
func (w *Writer) Append(ev Event) error {
	if !w.settings.Enabled {
		return nil
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = w.now()
	}
	rec := jsonRecord{
		Timestamp: ev.Timestamp.Format(TimestampLayout),
		Seconds:   round2(ev.Seconds),
		OCR:       []string{},
	}
	if w.settings.IncludeEvent {
		rec.Event = ev.Event
	}
	if w.settings.IncludeOCRLines && len(ev.OCR) > 0 {
		rec.OCR = append(rec.OCR, ev.OCR...)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.settings.Path), 0o755); err != nil {
		return fmt.Errorf("create bookmark directory: %w", err)
	}
	file, err := os.OpenFile(w.settings.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open bookmark log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat bookmark log: %w", err)
	}
	payload, err := encode(rec, w.settings.Format, info.Size() == 0)
	if err != nil {
		return err
	}
	if _, err := file.Write(payload); err != nil {
		return fmt.Errorf("append bookmark: %w", err)
	}
	return file.Close()
}

func encode(rec jsonRecord, format string, withHeader bool) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJSONL:
		raw, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode bookmark: %w", err)
		}
		buf.Write(raw)
		buf.WriteByte('\n')
	case FormatCSV:
		cw := csv.NewWriter(&buf)
		if withHeader {
			_ = cw.Write(csvHeader)
		}
		_ = cw.Write([]string{
			rec.Timestamp,
			strconv.FormatFloat(rec.Seconds, 'f', -1, 64),
			rec.Event,
			strings.Join(rec.OCR, OCRSeparator),
		})
		cw.Flush()
		if err := cw.Error(); err != nil {
			return nil, fmt.Errorf("encode bookmark: %w", err)
		}
	default:
		return nil, services.Wrap(services.ErrValidation, "bookmarks", "encode", fmt.Sprintf("unsupported format %q", format), nil)
	}
	return buf.Bytes(), nil
}

// Ensure creates an empty log at path if none exists. CSV logs start with the
// header row.
func Ensure(path, format string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat bookmark log: %w", err)
	}
	var content []byte
	if strings.EqualFold(format, FormatCSV) {
		content = []byte(strings.Join(csvHeader, ",") + "\n")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create bookmark directory: %w", err)
	}
	return fileutil.WriteFileAtomic(path, content, 0o644)
}

// FormatFromPath infers the log format from the file extension; anything but
// .jsonl is treated as CSV.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return FormatJSONL
	}
	return FormatCSV
}

// SessionFileName builds "<prefix>_<stem>_<YYYYmmdd_HHMMSS>.<format>".
func SessionFileName(prefix, vodStem string, start time.Time, format string) string {
	return fmt.Sprintf("%s_%s_%s.%s", prefix, SafeStem(vodStem), start.Format(SessionTimeLayout), strings.ToLower(format))
}

// SafeStem sanitizes a recording stem, falling back to "vod".
func SafeStem(stem string) string {
	if s := textutil.SanitizeStem(stem); s != "" {
		return s
	}
	return "vod"
}

// Newest returns the most recently modified .csv or .jsonl log in dir.
func Newest(dir string) (string, error) {
	path, _, err := fileutil.NewestFile(dir, func(name string) bool {
		ext := strings.ToLower(filepath.Ext(name))
		return ext == ".csv" || ext == ".jsonl"
	})
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "bookmarks", "newest", "no bookmark logs in "+dir, err)
	}
	return path, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
